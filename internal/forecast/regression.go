// Package forecast fits a small linear demand model to history and projects
// demand and battery health forward.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when features and targets disagree in shape.
var ErrLengthMismatch = errors.New("features and targets length mismatch")

const (
	learningRate   = 0.001
	maxEpochs      = 1000
	earlyStopMSE   = 0.1
	earlyStopEpoch = 100
)

// LinearModel is y = w.x + b.
type LinearModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	MSE     float64   `json:"mse"`
	Epochs  int       `json:"epochs"`
}

// Predict evaluates the model. Missing trailing features count as zero.
func (m LinearModel) Predict(x []float64) float64 {
	y := m.Bias
	for i, w := range m.Weights {
		if i < len(x) {
			y += w * x[i]
		}
	}
	return y
}

// TrainLinearModel fits weights by batch gradient descent from zero. Features
// are z-scored and targets centered before descent, and the fit is folded back
// into raw-feature weights. Training stops after 1000 epochs, or once the MSE
// drops below 0.1 after epoch 100. The lowest-loss parameters seen are kept,
// so a diverging run returns its best epoch rather than its last.
func TrainLinearModel(features [][]float64, targets []float64) (LinearModel, error) {
	if len(features) != len(targets) {
		return LinearModel{}, fmt.Errorf("%w: %d rows, %d targets", ErrLengthMismatch, len(features), len(targets))
	}
	n := len(features)
	if n == 0 {
		return LinearModel{}, nil
	}
	d := len(features[0])
	for i, row := range features {
		if len(row) != d {
			return LinearModel{}, fmt.Errorf("%w: row %d has %d features, want %d", ErrLengthMismatch, i, len(row), d)
		}
	}
	yMean := stat.Mean(targets, nil)
	if d == 0 {
		// Bias-only model: the mean is the least-squares fit.
		sse := 0.0
		for _, t := range targets {
			sse += (t - yMean) * (t - yMean)
		}
		return LinearModel{Weights: []float64{}, Bias: yMean, MSE: sse / float64(n)}, nil
	}

	means, scales := standardize(features, d)
	data := make([]float64, 0, n*d)
	for _, row := range features {
		for j, v := range row {
			data = append(data, (v-means[j])/scales[j])
		}
	}
	centered := make([]float64, n)
	for i, t := range targets {
		centered[i] = t - yMean
	}

	X := mat.NewDense(n, d, data)
	y := mat.NewVecDense(n, centered)
	w := mat.NewVecDense(d, nil)
	bias := 0.0

	best := fitted{w: make([]float64, d), mse: math.Inf(1)}
	var pred, resid, grad mat.VecDense
	epoch := 0
	for epoch < maxEpochs {
		epoch++
		pred.MulVec(X, w)
		resid.SubVec(&pred, y)
		sumR := 0.0
		sse := 0.0
		for i := 0; i < n; i++ {
			r := resid.AtVec(i) + bias
			resid.SetVec(i, r)
			sumR += r
			sse += r * r
		}
		loss := sse / float64(n)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			break
		}
		if loss < best.mse {
			best = fitted{w: vecCopy(w), bias: bias, mse: loss, epoch: epoch}
		}
		if epoch > earlyStopEpoch && loss < earlyStopMSE {
			best.epoch = epoch
			break
		}

		grad.MulVec(X.T(), &resid)
		w.AddScaledVec(w, -learningRate/float64(n), &grad)
		bias -= learningRate * sumR / float64(n)
	}
	return best.unscale(means, scales, yMean), nil
}

// fitted holds parameters in standardized space.
type fitted struct {
	w     []float64
	bias  float64
	mse   float64
	epoch int
}

// unscale maps standardized weights back onto raw features:
// w_j = w'_j/s_j and b = b' + mean(y) - sum(w'_j*mu_j/s_j).
func (f fitted) unscale(means, scales []float64, yMean float64) LinearModel {
	m := LinearModel{Weights: make([]float64, len(f.w)), Bias: f.bias + yMean, MSE: f.mse, Epochs: f.epoch}
	for j, wj := range f.w {
		m.Weights[j] = wj / scales[j]
		m.Bias -= m.Weights[j] * means[j]
	}
	if math.IsInf(m.MSE, 0) {
		m.MSE = 0
	}
	return m
}

// standardize returns per-column means and standard deviations. Constant or
// non-finite columns get scale 1.
func standardize(features [][]float64, d int) (means, scales []float64) {
	means = make([]float64, d)
	scales = make([]float64, d)
	col := make([]float64, len(features))
	for j := 0; j < d; j++ {
		for i, row := range features {
			col[i] = row[j]
		}
		mu, sd := stat.MeanStdDev(col, nil)
		if math.IsNaN(mu) || math.IsInf(mu, 0) {
			mu = 0
		}
		if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
			sd = 1
		}
		means[j], scales[j] = mu, sd
	}
	return means, scales
}

func vecCopy(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
