package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/forecast"
	"github.com/andresuchdata/restock/backend-go/internal/optimizer"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// decimalEqual lets cmp compare the rounded summary figures.
var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// constantDemand returns n days of `qty` sales for product with the given
// lead time; the final row carries finalStock.
func constantDemand(product string, n int, qty, leadTime, finalStock float64) []domain.SalesRecord {
	records := make([]domain.SalesRecord, n)
	for i := range records {
		records[i] = domain.SalesRecord{
			Date:       day0.AddDate(0, 0, i),
			ProductID:  product,
			Sales:      qty,
			LeadTime:   leadTime,
			StockLevel: 100 - float64(i),
		}
	}
	records[n-1].StockLevel = finalStock
	return records
}

func TestRun_Scenario(t *testing.T) {
	costs := domain.CostParameters{HoldingCostPerUnit: 0.5, StockoutCostPerUnit: 1.5}

	t.Run("reorder recommended", func(t *testing.T) {
		res, err := Run(constantDemand("A", 10, 5, 3, 10), "A", costs)
		require.NoError(t, err)

		require.Equal(t, 5.0, res.Stats.AverageDailyDemand)
		require.Equal(t, 0.0, res.Stats.DemandStdDev)
		require.Equal(t, 0.0, res.Stats.SafetyStock)
		require.Equal(t, 15.0, res.Stats.ReorderPoint)
		require.InDelta(t, 15.0, res.Optimization.OptimalOrderQty, 1e-3)
		require.Equal(t, 10.0, res.Decision.CurrentStock)
		require.True(t, res.Decision.ReorderRecommended)
		require.Equal(t, domain.StatusReorderRecommended, res.Decision.Status)

		require.Len(t, res.Series.Points, 10)
		require.Len(t, res.Forecast.Points, domain.ForecastHorizon)
		require.True(t, res.Forecast.Points[0].Date.Equal(day0.AddDate(0, 0, 10)))
		for _, p := range res.Forecast.Points {
			require.InDelta(t, 5.0, p.Quantity, 1e-9)
		}
		require.Equal(t, "15.00", res.Summary.ReorderPoint.StringFixed(2))
	})

	t.Run("stock sufficient", func(t *testing.T) {
		res, err := Run(constantDemand("A", 10, 5, 3, 20), "A", costs)
		require.NoError(t, err)
		require.False(t, res.Decision.ReorderRecommended)
		require.Equal(t, domain.StatusStockSufficient, res.Decision.Status)
	})

	t.Run("stock equal to reorder point is sufficient", func(t *testing.T) {
		res, err := Run(constantDemand("A", 10, 5, 3, 15), "A", costs)
		require.NoError(t, err)
		require.False(t, res.Decision.ReorderRecommended)
	})

	t.Run("holding dearer than stockout orders nothing", func(t *testing.T) {
		res, err := Run(constantDemand("A", 10, 5, 3, 10), "A", domain.CostParameters{HoldingCostPerUnit: 2, StockoutCostPerUnit: 1})
		require.NoError(t, err)
		require.InDelta(t, 0.0, res.Optimization.OptimalOrderQty, 1e-3)
	})
}

func TestRun_MultipleProducts(t *testing.T) {
	records := constantDemand("A", 8, 4, 2, 3)
	// B sells only on alternate days; the missing days are zero-filled.
	for i := 0; i < 8; i += 2 {
		records = append(records, domain.SalesRecord{
			Date: day0.AddDate(0, 0, i), ProductID: "B", Sales: 6, LeadTime: 4, StockLevel: 50,
		})
	}

	res, err := Run(records, "B", domain.DefaultCostParameters())
	require.NoError(t, err)
	require.Equal(t, []float64{6, 0, 6, 0, 6, 0, 6, 0}, res.Series.Values())
	require.InDelta(t, 3.0, res.Stats.AverageDailyDemand, 1e-12)
	sd := math.Sqrt(8 * 9.0 / 7.0)
	require.InDelta(t, sd, res.Stats.DemandStdDev, 1e-12)
	require.InDelta(t, 1.65*sd*2, res.Stats.SafetyStock, 1e-9)
	require.InDelta(t, 12+1.65*sd*2, res.Stats.ReorderPoint, 1e-9)
	require.InDelta(t, res.Stats.ReorderPoint, res.Optimization.OptimalOrderQty, 1e-3)
	require.False(t, res.Decision.ReorderRecommended)
}

func TestRun_Idempotent(t *testing.T) {
	records := constantDemand("A", 12, 3, 5, 9)
	for i := range records {
		records[i].Sales = float64((i*7)%5 + 1)
	}
	before := append([]domain.SalesRecord(nil), records...)

	engine := NewEngine(DefaultConfig())
	first, err := engine.Run(records, "A", domain.DefaultCostParameters())
	require.NoError(t, err)
	second, err := engine.Run(records, "A", domain.DefaultCostParameters())
	require.NoError(t, err)

	require.Equal(t, "", cmp.Diff(first, second, decimalEqual))
	require.Equal(t, "", cmp.Diff(before, records), "input records must not be mutated")
}

func TestRun_ClosedFormMatchesNumeric(t *testing.T) {
	records := constantDemand("A", 20, 0, 6, 30)
	for i := range records {
		records[i].Sales = float64((i * 13) % 9)
	}
	costs := domain.CostParameters{HoldingCostPerUnit: 0.3, StockoutCostPerUnit: 2.2}

	numeric, err := NewEngine(DefaultConfig()).Run(records, "A", costs)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.OptimizerMethod = optimizer.MethodClosedForm
	closed, err := NewEngine(cfg).Run(records, "A", costs)
	require.NoError(t, err)

	require.InDelta(t, closed.Optimization.OptimalOrderQty, numeric.Optimization.OptimalOrderQty, 1e-3)
	require.InDelta(t, numeric.Stats.ReorderPoint, numeric.Optimization.OptimalOrderQty, 1e-3)
}

func TestRun_Errors(t *testing.T) {
	t.Run("unknown product", func(t *testing.T) {
		_, err := Run(constantDemand("A", 10, 5, 3, 10), "Z", domain.DefaultCostParameters())
		var paramErr *domain.InvalidParameterError
		require.ErrorAs(t, err, &paramErr)
		require.Equal(t, "product_id", paramErr.Parameter)
		require.True(t, errors.Is(err, domain.ErrProductNotFound))
	})

	t.Run("negative cost", func(t *testing.T) {
		_, err := Run(constantDemand("A", 10, 5, 3, 10), "A", domain.CostParameters{HoldingCostPerUnit: -0.5, StockoutCostPerUnit: 1.5})
		var paramErr *domain.InvalidParameterError
		require.ErrorAs(t, err, &paramErr)
		require.Equal(t, "holding_cost_per_unit", paramErr.Parameter)
	})

	t.Run("non-positive lead time", func(t *testing.T) {
		_, err := Run(constantDemand("A", 10, 5, 0, 10), "A", domain.DefaultCostParameters())
		var paramErr *domain.InvalidParameterError
		require.ErrorAs(t, err, &paramErr)
		require.Equal(t, "lead_time", paramErr.Parameter)
	})

	t.Run("series too short", func(t *testing.T) {
		_, err := Run(constantDemand("A", 2, 5, 3, 10), "A", domain.DefaultCostParameters())
		var insufficient *domain.InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
	})

	t.Run("non-finite stock level", func(t *testing.T) {
		records := constantDemand("A", 10, 5, 3, math.NaN())
		var formatErr *domain.DataFormatError
		require.NotPanics(t, func() {
			_, err := Run(records, "A", domain.DefaultCostParameters())
			require.ErrorAs(t, err, &formatErr)
		})
		require.Equal(t, "Stock_Level", formatErr.Column)
	})

	t.Run("non-finite sales", func(t *testing.T) {
		records := constantDemand("A", 10, 5, 3, 10)
		records[4].Sales = math.Inf(1)
		var formatErr *domain.DataFormatError
		_, err := Run(records, "A", domain.DefaultCostParameters())
		require.ErrorAs(t, err, &formatErr)

		_, err = NewEngine(DefaultConfig()).Replenishment(records, "A")
		require.ErrorAs(t, err, &formatErr)
	})

	t.Run("failure for one product does not affect another", func(t *testing.T) {
		records := constantDemand("A", 10, 5, 3, 10)
		records = append(records, domain.SalesRecord{Date: day0, ProductID: "C", Sales: 1, LeadTime: -1, StockLevel: 1})

		_, err := Run(records, "C", domain.DefaultCostParameters())
		require.Error(t, err)

		res, err := Run(records, "A", domain.DefaultCostParameters())
		require.NoError(t, err)
		require.Equal(t, 15.0, res.Stats.ReorderPoint)
	})
}

func TestEngine_Stages(t *testing.T) {
	records := constantDemand("A", 10, 5, 3, 10)
	engine := NewEngine(DefaultConfig())

	series, err := engine.Series(records, "A")
	require.NoError(t, err)
	require.Equal(t, 10, series.Len())

	fc, err := engine.Forecast(records, "A")
	require.NoError(t, err)
	require.Len(t, fc.Points, 14)

	stats, err := engine.Replenishment(records, "A")
	require.NoError(t, err)
	require.Equal(t, 15.0, stats.ReorderPoint)

	_, err = engine.Forecast(records, "missing")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(0, "", "")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	cfg, err = ParseConfig(7, "none", "closed_form")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Forecast.Horizon)
	require.Equal(t, forecast.TrendNone, cfg.Forecast.Trend)
	require.Equal(t, optimizer.MethodClosedForm, cfg.OptimizerMethod)

	_, err = ParseConfig(14, "multiplicative", "")
	var paramErr *domain.InvalidParameterError
	require.ErrorAs(t, err, &paramErr)
	require.Equal(t, "trend", paramErr.Parameter)

	_, err = ParseConfig(14, "additive", "bfgs")
	require.ErrorAs(t, err, &paramErr)
	require.Equal(t, "method", paramErr.Parameter)
}

func TestConfig_Fingerprint(t *testing.T) {
	require.Equal(t, "trend=additive;horizon=14;optimizer=numeric", DefaultConfig().Fingerprint())
	require.Equal(t, DefaultConfig().Fingerprint(), Config{}.Fingerprint())
	require.Equal(t, DefaultConfig(), NewEngine(Config{}).Config())

	short, err := ParseConfig(7, "none", "closed_form")
	require.NoError(t, err)
	require.Equal(t, "trend=none;horizon=7;optimizer=closed_form", NewEngine(short).Config().Fingerprint())
}
