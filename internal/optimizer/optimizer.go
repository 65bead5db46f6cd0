package optimizer

import (
	"math"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"gonum.org/v1/gonum/optimize"
)

// Method selects how the optimal order quantity is found.
type Method string

const (
	MethodNumeric    Method = "numeric"
	MethodClosedForm Method = "closed_form"
)

const (
	maxIterations = 1000
	snapTolerance = 1e-6
)

// Objective is the expected cost of ordering q units:
//
//	cost(q) = h·q + s·max(0, avg·LT + SS - q)
func Objective(stats domain.ReplenishmentStats, costs domain.CostParameters) func(q float64) float64 {
	target := stats.LeadTimeDemand() + stats.SafetyStock
	return func(q float64) float64 {
		return costs.HoldingCostPerUnit*q + costs.StockoutCostPerUnit*math.Max(0, target-q)
	}
}

// ClosedForm returns the minimizer of Objective over q ≥ 0: the reorder point
// when stockouts cost more than holding, otherwise 0.
func ClosedForm(stats domain.ReplenishmentStats, costs domain.CostParameters) float64 {
	target := stats.LeadTimeDemand() + stats.SafetyStock
	if costs.StockoutCostPerUnit > costs.HoldingCostPerUnit && target > 0 {
		return target
	}
	return 0
}

// Optimizer finds the order quantity minimizing Objective.
type Optimizer struct {
	method Method
}

// New creates an Optimizer; an empty method means MethodNumeric.
func New(method Method) *Optimizer {
	if method == "" {
		method = MethodNumeric
	}
	return &Optimizer{method: method}
}

// Optimize validates costs and solves for the optimal order quantity.
func (o *Optimizer) Optimize(stats domain.ReplenishmentStats, costs domain.CostParameters) (domain.OptimizationResult, error) {
	if err := domain.ValidateCosts(costs); err != nil {
		return domain.OptimizationResult{}, err
	}

	cost := Objective(stats, costs)
	switch o.method {
	case MethodClosedForm:
		q := ClosedForm(stats, costs)
		return domain.OptimizationResult{
			OptimalOrderQty: q,
			ExpectedCost:    cost(q),
			Method:          string(MethodClosedForm),
		}, nil
	case MethodNumeric:
		q, iterations := solveNumeric(cost, math.Max(0, stats.LeadTimeDemand()))
		q = polish(cost, q, stats.LeadTimeDemand()+stats.SafetyStock)
		return domain.OptimizationResult{
			OptimalOrderQty: q,
			ExpectedCost:    cost(q),
			Method:          string(MethodNumeric),
			Iterations:      iterations,
		}, nil
	default:
		return domain.OptimizationResult{}, &domain.InvalidParameterError{
			Parameter: "method",
			Value:     string(o.method),
			Reason:    "must be numeric or closed_form",
		}
	}
}

// solveNumeric minimizes cost over q ≥ 0 starting from x0. The bound is
// enforced by evaluating the objective at max(0, q) and clamping the answer.
func solveNumeric(cost func(float64) float64, x0 float64) (float64, int) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return cost(math.Max(0, x[0]))
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 100,
		},
	}
	method := &optimize.NelderMead{SimplexSize: math.Max(1, x0/2)}

	result, err := optimize.Minimize(problem, []float64{x0}, settings, method)
	if result == nil || len(result.X) == 0 || (err != nil && result.F > cost(x0)) {
		return x0, 0
	}
	return math.Max(0, result.X[0]), result.MajorIterations
}

// polish settles the solver's answer onto the objective's breakpoints (the
// lower bound and the kink). A breakpoint replaces q only when it is within
// snapTolerance of q at no higher cost, or when it costs the same as q so the
// objective is flat between them; among equal costs the smallest quantity
// wins. A breakpoint that is cheaper but far from q is never taken.
func polish(cost func(float64) float64, q, kink float64) float64 {
	candidates := []float64{0}
	if kink > 0 {
		candidates = append(candidates, kink)
	}

	best := math.Max(0, q)
	bestCost := cost(best)
	for _, c := range candidates {
		v := cost(c)
		tol := 1e-9 * math.Max(1, math.Abs(bestCost))
		if v > bestCost+tol {
			continue
		}
		near := math.Abs(c-best) <= snapTolerance*math.Max(1, math.Abs(best))
		tie := math.Abs(v-bestCost) <= tol
		if near || (tie && c < best) {
			best, bestCost = c, v
		}
	}
	return best
}
