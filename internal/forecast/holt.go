package forecast

import "math"

// holtState runs the additive-trend recursions over y and returns the final
// level, slope and the sum of squared one-step-ahead errors.
//
//	ŷ[t]   = l + b
//	l'     = α·y[t] + (1-α)·(l + b)
//	b'     = β·(l' - l) + (1-β)·b
func holtState(y []float64, alpha, beta, level0, slope0 float64) (level, slope, sse float64) {
	level, slope = level0, slope0
	for _, v := range y {
		pred := level + slope
		e := v - pred
		sse += e * e

		next := alpha*v + (1-alpha)*pred
		slope = beta*(next-level) + (1-beta)*slope
		level = next
	}
	return level, slope, sse
}

// sesState is simple exponential smoothing: holtState with the slope pinned to 0.
func sesState(y []float64, alpha, level0 float64) (level, sse float64) {
	level, _, sse = holtState(y, alpha, 0, level0, 0)
	return level, sse
}

// sigmoid maps the real line onto (0, 1) so smoothing factors stay in bounds
// during unconstrained minimization.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
