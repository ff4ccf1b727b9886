package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/shopsense/config"
	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/modelstore"
	"github.com/rushteam/shopsense/pkg/logger"
	"github.com/rushteam/shopsense/predict"
	"github.com/rushteam/shopsense/recommend"
	"github.com/rushteam/shopsense/train"
)

// app 一次命令执行期间的组件
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	store     core.Store
	models    *modelstore.Manager
	predictor *predict.Service
	closers   []func() error
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	a.store, err = config.NewStore(cfg.Storage)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)

	a.models, err = modelstore.New(ctx, a.store, modelstore.WithLogger(log))
	if err != nil {
		a.close()
		return nil, err
	}

	enricher, closeEnricher, err := config.NewEnricher(cfg.Feast)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init feast: %w", err)
	}
	a.closers = append(a.closers, closeEnricher)
	opts := []predict.Option{predict.WithLogger(log)}
	if enricher != nil {
		opts = append(opts, predict.WithEnricher(enricher))
	}
	a.predictor = predict.NewService(a.models, opts...)
	return a, nil
}

// engine 用 --products 文件或已训练的目录快照建立推荐索引
func (a *app) engine(productsFile string) (*recommend.Engine, error) {
	e, err := config.NewRecommendEngine(a.cfg.Recommend, a.log)
	if err != nil {
		return nil, err
	}
	products := a.models.Snapshot().Catalog
	if productsFile != "" {
		if products, err = readProducts(productsFile); err != nil {
			return nil, err
		}
	}
	if len(products) == 0 {
		return nil, errors.New("empty catalog: pass --products or run 'shopsense train' first")
	}
	e.Index(products)
	return e, nil
}

// product 按 --file 读取商品，或按 --id 在已训练的目录快照中查找
func (a *app) product(file, id string) (core.Product, error) {
	if file != "" {
		products, err := readProducts(file)
		if err != nil {
			return core.Product{}, err
		}
		if id == "" {
			return products[0], nil
		}
		for _, p := range products {
			if p.ID == id {
				return p, nil
			}
		}
		return core.Product{}, fmt.Errorf("product %s not found in %s", id, file)
	}
	if id == "" {
		return core.Product{}, errors.New("one of --file or --id is required")
	}
	p, ok := a.models.Snapshot().FindProduct(id)
	if !ok {
		return core.Product{}, fmt.Errorf("product %s not found in the trained catalog", id)
	}
	return p, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// withApp 为子命令构建 app，执行完毕后释放
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	path, _ := cmd.Flags().GetString("config")
	a, err := newApp(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// readProducts 读取 JSON 商品文件：数组或单个对象
func readProducts(path string) ([]core.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var p core.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return []core.Product{p}, nil
	}
	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%s contains no products", path)
	}
	return products, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) trainer() *train.Trainer {
	return train.NewTrainer(a.models, train.WithConfig(a.cfg.Training), train.WithLogger(a.log))
}
