package optimizer

import (
	"testing"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/stretchr/testify/require"
)

func stats(avg, leadTime, safety float64) domain.ReplenishmentStats {
	return domain.ReplenishmentStats{
		AverageDailyDemand: avg,
		LeadTime:           leadTime,
		SafetyStock:        safety,
		ReorderPoint:       avg*leadTime + safety,
	}
}

func TestObjective(t *testing.T) {
	cost := Objective(stats(5, 3, 0), domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5})
	require.InDelta(t, 22.5, cost(0), 1e-12)
	require.InDelta(t, 7.5, cost(15), 1e-12)
	require.InDelta(t, 10.0, cost(20), 1e-12)
	require.InDelta(t, 5.0+7.5, cost(10), 1e-12)
}

func TestClosedForm(t *testing.T) {
	s := stats(5, 3, 2)
	require.Equal(t, 17.0, ClosedForm(s, domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5}))
	require.Equal(t, 0.0, ClosedForm(s, domain.CostParameters{HoldingCostPerUnit: 1.5, StockoutCostPerUnit: 0.5}))
	require.Equal(t, 0.0, ClosedForm(s, domain.CostParameters{HoldingCostPerUnit: 1, StockoutCostPerUnit: 1}))
	require.Equal(t, 0.0, ClosedForm(stats(0, 3, 0), domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5}))
}

func TestOptimizer_Optimize(t *testing.T) {
	cases := []struct {
		name  string
		stats domain.ReplenishmentStats
		costs domain.CostParameters
		// unique is set when the objective has a single minimizer, so the raw
		// solver output must land on it without any breakpoint snapping.
		unique bool
	}{
		{"stockout dominates", stats(5, 3, 0), domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5}, true},
		{"with safety stock", stats(12.4, 7, 18.3), domain.CostParameters{HoldingCostPerUnit: 0.2, StockoutCostPerUnit: 3}, true},
		{"large safety stock", stats(1, 2, 40), domain.CostParameters{HoldingCostPerUnit: 1, StockoutCostPerUnit: 1.01}, true},
		{"holding dominates", stats(5, 3, 4), domain.CostParameters{HoldingCostPerUnit: 2, StockoutCostPerUnit: 1}, true},
		{"equal costs", stats(5, 3, 4), domain.CostParameters{HoldingCostPerUnit: 1, StockoutCostPerUnit: 1}, false},
		{"free holding", stats(5, 3, 4), domain.CostParameters{HoldingCostPerUnit: 0, StockoutCostPerUnit: 1}, false},
		{"free everything", stats(5, 3, 4), domain.CostParameters{}, false},
		{"zero demand", stats(0, 3, 0), domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5}, true},
		{"zero demand with variability", stats(0, 3, 6.5), domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := ClosedForm(tc.stats, tc.costs)

			if tc.unique {
				cost := Objective(tc.stats, tc.costs)
				raw, iterations := solveNumeric(cost, tc.stats.LeadTimeDemand())
				require.InDelta(t, want, raw, 1e-3, "solver output before polishing")
				require.Positive(t, iterations)
			}

			numeric, err := New(MethodNumeric).Optimize(tc.stats, tc.costs)
			require.NoError(t, err)
			require.InDelta(t, want, numeric.OptimalOrderQty, 1e-3)
			require.GreaterOrEqual(t, numeric.OptimalOrderQty, 0.0)
			require.Equal(t, "numeric", numeric.Method)

			closed, err := New(MethodClosedForm).Optimize(tc.stats, tc.costs)
			require.NoError(t, err)
			require.Equal(t, want, closed.OptimalOrderQty)
			require.InDelta(t, closed.ExpectedCost, numeric.ExpectedCost, 1e-3)

			if tc.costs.StockoutCostPerUnit > tc.costs.HoldingCostPerUnit {
				require.InDelta(t, tc.stats.ReorderPoint, numeric.OptimalOrderQty, 1e-3)
			} else {
				require.InDelta(t, 0.0, numeric.OptimalOrderQty, 1e-3)
			}
		})
	}

	t.Run("default method is numeric", func(t *testing.T) {
		res, err := New("").Optimize(stats(5, 3, 0), domain.DefaultCostParameters())
		require.NoError(t, err)
		require.Equal(t, "numeric", res.Method)
		require.InDelta(t, 15.0, res.OptimalOrderQty, 1e-3)
	})

	t.Run("rejects negative costs", func(t *testing.T) {
		_, err := New(MethodNumeric).Optimize(stats(5, 3, 0), domain.CostParameters{HoldingCostPerUnit: -1, StockoutCostPerUnit: 1})
		var paramErr *domain.InvalidParameterError
		require.ErrorAs(t, err, &paramErr)
		require.Equal(t, "holding_cost_per_unit", paramErr.Parameter)

		_, err = New(MethodClosedForm).Optimize(stats(5, 3, 0), domain.CostParameters{HoldingCostPerUnit: 1, StockoutCostPerUnit: -0.1})
		require.ErrorAs(t, err, &paramErr)
		require.Equal(t, "stockout_cost_per_unit", paramErr.Parameter)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := New("simplex").Optimize(stats(5, 3, 0), domain.DefaultCostParameters())
		var paramErr *domain.InvalidParameterError
		require.ErrorAs(t, err, &paramErr)
	})
}

func TestPolish(t *testing.T) {
	s := stats(6, 7, 0) // kink at 42
	cost := Objective(s, domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5})

	t.Run("snaps a converged answer onto the kink", func(t *testing.T) {
		require.Equal(t, 42.0, polish(cost, 41.99999999999977, 42))
	})

	t.Run("keeps a far answer even when a breakpoint is cheaper", func(t *testing.T) {
		require.Equal(t, 1e9, polish(cost, 1e9, 42))
		require.Equal(t, 30.0, polish(cost, 30, 42))
	})

	t.Run("clamps negative answers to zero", func(t *testing.T) {
		require.Equal(t, 0.0, polish(cost, -123, 42))
	})

	t.Run("flat objective resolves to the smallest quantity", func(t *testing.T) {
		flat := Objective(s, domain.CostParameters{HoldingCostPerUnit: 1, StockoutCostPerUnit: 1})
		require.Equal(t, 0.0, polish(flat, 17.3, 42))

		free := Objective(s, domain.CostParameters{HoldingCostPerUnit: 0, StockoutCostPerUnit: 1})
		require.Equal(t, 42.0, polish(free, 77, 42))
	})
}
