package train

import "math"

// regressionMetrics 返回 rmse、mae、r2
func regressionMetrics(yTrue, yPred []float64) map[string]float64 {
	n := float64(len(yTrue))
	if n == 0 {
		return map[string]float64{}
	}
	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= n

	var sse, sae, sst float64
	for i, v := range yTrue {
		d := v - yPred[i]
		sse += d * d
		sae += math.Abs(d)
		sst += (v - mean) * (v - mean)
	}
	r2 := 0.0
	if sst > 0 {
		r2 = 1 - sse/sst
	}
	return map[string]float64{
		"rmse": math.Sqrt(sse / n),
		"mae":  sae / n,
		"r2":   r2,
	}
}

// classificationMetrics 返回 accuracy、precision、recall、f1（正类为 1）
func classificationMetrics(yTrue, yPred []float64) map[string]float64 {
	if len(yTrue) == 0 {
		return map[string]float64{}
	}
	var tp, fp, fn, correct float64
	for i, v := range yTrue {
		t, p := v > 0.5, yPred[i] > 0.5
		if t == p {
			correct++
		}
		switch {
		case t && p:
			tp++
		case !t && p:
			fp++
		case t && !p:
			fn++
		}
	}
	m := map[string]float64{"accuracy": correct / float64(len(yTrue))}
	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	m["precision"] = precision
	m["recall"] = recall
	m["f1"] = f1
	return m
}
