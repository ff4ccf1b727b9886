// Package shopsense 是电商商品智能核心：价格/需求/爆款/排名预测与目录推荐。
//
// 设计要点：
// - Fallback-first: 模型缺失或特征准备失败时走启发式，预测调用永远返回结果
// - Snapshot swap: 模型与目录都是不可变快照，reload 整体替换，读者无锁
// - Provenance: 每个结果带 model_used，区分训练模型与启发式
//
// 入口：
// - train.Trainer 训练并持久化全部产物
// - modelstore.Manager 加载/重载产物
// - predict.Service 预测
// - recommend.Engine 推荐
package shopsense

import (
	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/modelstore"
	"github.com/rushteam/shopsense/predict"
	"github.com/rushteam/shopsense/recommend"
	"github.com/rushteam/shopsense/train"
)

// 轻量 facade：便于直接 import "shopsense" 使用核心类型。
type (
	Product        = core.Product
	ModelStore     = modelstore.Manager
	Predictor      = predict.Service
	Trainer        = train.Trainer
	Recommender    = recommend.Engine
	Recommendation = recommend.Recommendation
)
