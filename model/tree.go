package model

import (
	"fmt"
	"math/rand"
	"sort"
)

// Node 是扁平存储的树节点，Feature < 0 表示叶子。
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// DecisionTree 是 CART 决策树。
//
// 分裂准则为加权平方误差；标签取 {0,1} 时加权 Gini 与加权平方误差成正比，
// 所以同一实现同时服务回归与二分类，叶子值即加权均值（分类时为正类概率）。
type DecisionTree struct {
	Nodes []Node `json:"nodes"`
}

// TreeParams 是单棵树的生长参数
type TreeParams struct {
	MaxDepth        int // <=0 不限制
	MinSamplesSplit int // 节点最少样本数才允许继续分裂
	MaxFeatures     int // 每次分裂随机考察的特征数，<=0 为全部
}

func (t *DecisionTree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 || n.Feature >= len(x) {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Validate 确保子节点下标合法且只向后引用（无环）。
func (t *DecisionTree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, n.Left, n.Right)
		}
	}
	return nil
}

// FitTree 在 (X, y) 上用样本权重 w 训练一棵树；w 为 nil 时所有样本权重为 1，
// 权重为 0 的样本不参与训练（用于 bootstrap）。
func FitTree(X [][]float64, y, w []float64, p TreeParams, rng *rand.Rand) *DecisionTree {
	if w == nil {
		w = make([]float64, len(y))
		for i := range w {
			w[i] = 1
		}
	}
	idx := make([]int, 0, len(y))
	for i := range y {
		if w[i] > 0 {
			idx = append(idx, i)
		}
	}

	b := &treeBuilder{X: X, y: y, w: w, p: p, rng: rng}
	if len(X) > 0 {
		b.nFeatures = len(X[0])
	}
	if len(idx) == 0 {
		return &DecisionTree{Nodes: []Node{{Feature: -1}}}
	}
	b.build(idx, 0)
	return &DecisionTree{Nodes: b.nodes}
}

type treeBuilder struct {
	X         [][]float64
	y, w      []float64
	p         TreeParams
	rng       *rand.Rand
	nFeatures int
	nodes     []Node
}

func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.mean(idx)})

	if b.p.MaxDepth > 0 && depth >= b.p.MaxDepth {
		return id
	}
	minSplit := b.p.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	if len(idx) < minSplit || b.pure(idx) {
		return id
	}

	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.nodes[id].Feature = feat
	b.nodes[id].Threshold = thr
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

func (b *treeBuilder) mean(idx []int) float64 {
	var sw, sy float64
	for _, i := range idx {
		sw += b.w[i]
		sy += b.w[i] * b.y[i]
	}
	if sw == 0 {
		return 0
	}
	return sy / sw
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

func (b *treeBuilder) features() []int {
	if b.p.MaxFeatures <= 0 || b.p.MaxFeatures >= b.nFeatures || b.rng == nil {
		all := make([]int, b.nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(b.nFeatures)[:b.p.MaxFeatures]
}

// sse 返回加权平方误差：Σw·y² − (Σw·y)²/Σw
func sse(w, s, q float64) float64 {
	if w <= 0 {
		return 0
	}
	return q - s*s/w
}

func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	var tw, ts, tq float64
	for _, i := range idx {
		tw += b.w[i]
		ts += b.w[i] * b.y[i]
		tq += b.w[i] * b.y[i] * b.y[i]
	}
	best := sse(tw, ts, tq) - 1e-12
	bestFeat, bestThr, found := -1, 0.0, false

	sorted := make([]int, len(idx))
	for _, f := range b.features() {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		var lw, ls, lq float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			lw += b.w[i]
			ls += b.w[i] * b.y[i]
			lq += b.w[i] * b.y[i] * b.y[i]

			cur, next := b.X[i][f], b.X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			cost := sse(lw, ls, lq) + sse(tw-lw, ts-ls, tq-lq)
			if cost < best {
				best = cost
				bestFeat = f
				bestThr = cur + (next-cur)/2
				if bestThr >= next {
					bestThr = cur
				}
				found = true
			}
		}
	}
	return bestFeat, bestThr, found
}
