package train

import (
	"math"
	"math/rand"
)

// dataset 是一个模型的训练样本
type dataset struct {
	X [][]float64
	y []float64
}

func (d dataset) subset(idx []int) dataset {
	out := dataset{X: make([][]float64, len(idx)), y: make([]float64, len(idx))}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.y[i] = d.y[j]
	}
	return out
}

func testSize(n int, ratio float64) int {
	k := int(math.Ceil(ratio * float64(n)))
	if k >= n {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

// split 固定种子打乱后切出 ceil(ratio·n) 个测试样本
func split(d dataset, ratio float64, seed int64) (dataset, dataset) {
	perm := rand.New(rand.NewSource(seed)).Perm(len(d.y))
	k := testSize(len(perm), ratio)
	return d.subset(perm[k:]), d.subset(perm[:k])
}

// stratifiedSplit 按标签分层切分，正负类各自切出 ceil(ratio·n_c) 个测试样本
func stratifiedSplit(d dataset, ratio float64, seed int64) (dataset, dataset) {
	var pos, neg []int
	for i, v := range d.y {
		if v > 0.5 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, group := range [][]int{neg, pos} {
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		k := testSize(len(group), ratio)
		testIdx = append(testIdx, group[:k]...)
		trainIdx = append(trainIdx, group[k:]...)
	}
	return d.subset(trainIdx), d.subset(testIdx)
}
