package train

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/model"
	"github.com/rushteam/shopsense/modelstore"
)

func (t *Trainer) forestParams(depth, minSplit int) model.ForestParams {
	p := model.ForestParams{
		NEstimators:     t.cfg.NEstimators,
		MaxDepth:        depth,
		MinSamplesSplit: minSplit,
		Seed:            t.cfg.Seed,
	}
	if t.cfg.MaxDepth > 0 {
		p.MaxDepth = t.cfg.MaxDepth
	}
	if t.cfg.MinSamplesSplit > 0 {
		p.MinSamplesSplit = t.cfg.MinSamplesSplit
	}
	return p
}

func (t *Trainer) matrix(products []core.Product, schema feature.Schema, enc *feature.LabelEncoder, target func(core.Product) float64) (dataset, error) {
	X, err := feature.Matrix(products, schema, enc)
	if err != nil {
		return dataset{}, err
	}
	y := make([]float64, len(products))
	for i, p := range products {
		y[i] = target(p)
	}
	return dataset{X: X, y: y}, nil
}

// fitRegressor 切分、训练、在测试集上评估
func (t *Trainer) fitRegressor(ctx context.Context, d dataset, algo string) (model.Regressor, map[string]float64, int, int, error) {
	trainSet, testSet := split(d, t.cfg.TestRatio, t.cfg.Seed)

	var reg model.Regressor
	switch algo {
	case AlgoGB:
		gb, err := model.FitGradientBoosting(trainSet.X, trainSet.y, model.GBDTParams{
			NEstimators:  t.cfg.NEstimators,
			MaxDepth:     5,
			LearningRate: 0.1,
		})
		if err != nil {
			return nil, nil, 0, 0, err
		}
		reg = gb
	default:
		rf, err := model.FitRandomForest(ctx, trainSet.X, trainSet.y, t.forestParams(10, 5), false)
		if err != nil {
			return nil, nil, 0, 0, err
		}
		reg = rf
	}

	pred := make([]float64, len(testSet.y))
	for i, x := range testSet.X {
		pred[i] = reg.Predict(x)
	}
	return reg, regressionMetrics(testSet.y, pred), len(trainSet.y), len(testSet.y), nil
}

func (t *Trainer) trainPrice(ctx context.Context, products []core.Product, enc *feature.LabelEncoder, trainedAt time.Time) Result {
	var samples []core.Product
	for _, p := range products {
		if p.Price > 0 {
			samples = append(samples, p)
		}
	}
	if len(samples) < MinRegressionSamples {
		return insufficient("price: need at least %d products with a price, got %d", MinRegressionSamples, len(samples))
	}
	d, err := t.matrix(samples, feature.PriceSchema, enc, func(p core.Product) float64 { return p.Price })
	if err != nil {
		return failed(err)
	}
	algo := AlgoRF
	if t.cfg.PriceAlgorithm == AlgoGB {
		algo = AlgoGB
	}
	return t.finishRegressor(ctx, modelstore.NamePrice, modelstore.KeyPrice, d, algo, feature.PriceSchema, nil, trainedAt)
}

// demandTarget 需求代理目标：reviews·rating/100 + 1
func demandTarget(p core.Product) float64 {
	return float64(p.ReviewsOr(core.DefaultReviews))*p.RatingOr(core.DefaultRating)/100 + 1
}

func (t *Trainer) trainDemand(ctx context.Context, products []core.Product, enc *feature.LabelEncoder, trainedAt time.Time) Result {
	if len(products) < MinRegressionSamples {
		return insufficient("demand: need at least %d products, got %d", MinRegressionSamples, len(products))
	}
	d, err := t.matrix(products, feature.DemandSchema, enc, demandTarget)
	if err != nil {
		return failed(err)
	}
	return t.finishRegressor(ctx, modelstore.NameDemand, modelstore.KeyDemand, d, AlgoGB, feature.DemandSchema, nil, trainedAt)
}

func (t *Trainer) trainRank(ctx context.Context, products []core.Product, enc *feature.LabelEncoder, trainedAt time.Time) Result {
	var samples []core.Product
	for _, p := range products {
		if p.Rank > 0 && p.Rank < 100000 {
			samples = append(samples, p)
		}
	}
	if len(samples) < MinRegressionSamples {
		return insufficient("rank: need at least %d ranked products, got %d", MinRegressionSamples, len(samples))
	}
	d, err := t.matrix(samples, feature.RankSchema, enc, func(p core.Product) float64 { return float64(p.Rank) })
	if err != nil {
		return failed(err)
	}
	scaler := &feature.StandardScaler{}
	if d.X, err = scaler.FitTransform(d.X); err != nil {
		return failed(err)
	}
	return t.finishRegressor(ctx, modelstore.NameRank, modelstore.KeyRank, d, AlgoRF, feature.RankSchema, scaler, trainedAt)
}

func (t *Trainer) finishRegressor(ctx context.Context, name, key string, d dataset, algo string, schema feature.Schema, scaler *feature.StandardScaler, trainedAt time.Time) Result {
	reg, m, nTrain, nTest, err := t.fitRegressor(ctx, d, algo)
	if err != nil {
		return failed(err)
	}
	res, err := t.persist(ctx, key, &model.Artifact{
		Name:           name,
		FeatureColumns: schema.Clone(),
		Metrics:        m,
		Samples:        len(d.y),
		TrainedAt:      trainedAt,
		Scaler:         scaler,
		Estimator:      reg,
	})
	if err != nil {
		return failed(err)
	}
	res.TrainSamples, res.TestSamples = nTrain, nTest
	return res
}

func (t *Trainer) trainBestseller(ctx context.Context, products []core.Product, enc *feature.LabelEncoder, trainedAt time.Time) Result {
	threshold := t.cfg.BestsellerThreshold
	label := func(p core.Product) float64 {
		if p.RankOr(core.UnrankedRank) <= threshold {
			return 1
		}
		return 0
	}
	positives := 0
	for _, p := range products {
		positives += int(label(p))
	}
	if len(products) < MinBestsellerSamples || positives < MinBestsellerPositive {
		return insufficient("bestseller: need at least %d products and %d bestsellers (rank <= %d), got %d and %d",
			MinBestsellerSamples, MinBestsellerPositive, threshold, len(products), positives)
	}

	d, err := t.matrix(products, feature.BestsellerSchema, enc, label)
	if err != nil {
		return failed(err)
	}
	trainSet, testSet := stratifiedSplit(d, t.cfg.TestRatio, t.cfg.Seed)

	var (
		clf    model.Classifier
		scaler *feature.StandardScaler
	)
	switch t.cfg.BestsellerAlgorithm {
	case AlgoLR:
		scaler = &feature.StandardScaler{}
		X, err := scaler.FitTransform(trainSet.X)
		if err != nil {
			return failed(err)
		}
		lr, err := model.FitLR(X, trainSet.y, model.LRParams{Iterations: 500, LearningRate: 0.5, BalancedClassWeight: true})
		if err != nil {
			return failed(err)
		}
		clf = lr
	default:
		p := t.forestParams(8, 2)
		if t.cfg.MaxDepth <= 0 || t.cfg.MaxDepth > 8 {
			p.MaxDepth = 8
		}
		p.BalancedClassWeight = true
		rf, err := model.FitRandomForest(ctx, trainSet.X, trainSet.y, p, true)
		if err != nil {
			return failed(err)
		}
		clf = rf
	}

	pred := make([]float64, len(testSet.y))
	for i, x := range testSet.X {
		if scaler != nil {
			if x, err = scaler.Transform(x); err != nil {
				return failed(fmt.Errorf("bestseller: %w", err))
			}
		}
		if clf.PredictProba(x) >= 0.5 {
			pred[i] = 1
		}
	}
	m := classificationMetrics(testSet.y, pred)
	m["positive_rate"] = float64(positives) / float64(len(products))

	res, err := t.persist(ctx, modelstore.KeyBestseller, &model.Artifact{
		Name:           modelstore.NameBestseller,
		FeatureColumns: feature.BestsellerSchema.Clone(),
		Metrics:        m,
		Samples:        len(d.y),
		TrainedAt:      trainedAt,
		Scaler:         scaler,
		Estimator:      clf,
	})
	if err != nil {
		return failed(err)
	}
	res.TrainSamples, res.TestSamples = len(trainSet.y), len(testSet.y)
	return res
}
