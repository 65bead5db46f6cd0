package pipeline

import (
	"fmt"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/forecast"
	"github.com/andresuchdata/restock/backend-go/internal/optimizer"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/report"
	"github.com/andresuchdata/restock/backend-go/internal/sales"
	"github.com/andresuchdata/restock/backend-go/pkg/logger"
)

// Config holds the tunable parts of a pipeline run.
type Config struct {
	Forecast        forecast.Config
	OptimizerMethod optimizer.Method
}

// DefaultConfig is a 14-day additive-trend forecast with the numeric optimizer.
func DefaultConfig() Config {
	return Config{
		Forecast:        forecast.DefaultConfig(),
		OptimizerMethod: optimizer.MethodNumeric,
	}
}

// withDefaults fills zero-valued fields the same way the stages do.
func (c Config) withDefaults() Config {
	if c.Forecast.Horizon <= 0 {
		c.Forecast.Horizon = domain.ForecastHorizon
	}
	if c.Forecast.Trend == "" {
		c.Forecast.Trend = forecast.TrendAdditive
	}
	if c.OptimizerMethod == "" {
		c.OptimizerMethod = optimizer.MethodNumeric
	}
	return c
}

// Fingerprint names every setting that can change a result, e.g.
// "trend=additive;horizon=14;optimizer=numeric".
func (c Config) Fingerprint() string {
	c = c.withDefaults()
	return fmt.Sprintf("trend=%s;horizon=%d;optimizer=%s", c.Forecast.Trend, c.Forecast.Horizon, c.OptimizerMethod)
}

// Result bundles every output of one run for a single product.
type Result struct {
	ProductID    string                    `json:"product_id"`
	Costs        domain.CostParameters     `json:"costs"`
	Series       domain.DemandSeries       `json:"series"`
	Forecast     domain.Forecast           `json:"forecast"`
	Stats        domain.ReplenishmentStats `json:"replenishment"`
	Optimization domain.OptimizationResult `json:"optimization"`
	Decision     domain.ReorderDecision    `json:"decision"`
	Summary      report.Summary            `json:"summary"`
}

// Engine runs aggregate → forecast → replenishment → optimize → report.
// It holds no per-run state, so one Engine may serve any number of runs.
type Engine struct {
	cfg        Config
	forecaster *forecast.Forecaster
	calculator *replenishment.Calculator
	optimizer  *optimizer.Optimizer
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:        cfg,
		forecaster: forecast.New(cfg.Forecast),
		calculator: replenishment.NewCalculator(),
		optimizer:  optimizer.New(cfg.OptimizerMethod),
	}
}

// Config returns the settings e runs with, defaults filled in.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run computes the full decision bundle for productID using DefaultConfig.
func Run(records []domain.SalesRecord, productID string, costs domain.CostParameters) (*Result, error) {
	return NewEngine(DefaultConfig()).Run(records, productID, costs)
}

// Run computes the full decision bundle for productID. records are read but
// never modified; every error aborts the run and is returned unchanged in kind.
func (e *Engine) Run(records []domain.SalesRecord, productID string, costs domain.CostParameters) (*Result, error) {
	start := time.Now()

	if err := domain.ValidateCosts(costs); err != nil {
		return nil, err
	}

	series, err := e.Series(records, productID)
	if err != nil {
		return nil, err
	}

	fc, err := e.forecaster.Forecast(series)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", productID, err)
	}

	leadTime, err := sales.LeadTime(records, productID)
	if err != nil {
		return nil, err
	}

	stats, err := e.calculator.Calculate(series, leadTime)
	if err != nil {
		return nil, fmt.Errorf("replenishment %s: %w", productID, err)
	}

	opt, err := e.optimizer.Optimize(stats, costs)
	if err != nil {
		return nil, fmt.Errorf("optimize %s: %w", productID, err)
	}

	stock, err := sales.CurrentStock(records, productID)
	if err != nil {
		return nil, err
	}

	decision := report.Decide(productID, stats, opt, stock)

	logger.Log.Debug().
		Str("product_id", productID).
		Int("observations", series.Len()).
		Float64("reorder_point", stats.ReorderPoint).
		Float64("optimal_order_qty", opt.OptimalOrderQty).
		Bool("reorder", decision.ReorderRecommended).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run completed")

	return &Result{
		ProductID:    productID,
		Costs:        costs,
		Series:       series,
		Forecast:     fc,
		Stats:        stats,
		Optimization: opt,
		Decision:     decision,
		Summary:      report.Summarize(stats, opt, decision),
	}, nil
}

// ParseConfig builds a Config from operator settings, rejecting unknown
// trend or optimizer names up front instead of on the first run.
func ParseConfig(horizon int, trend, method string) (Config, error) {
	cfg := DefaultConfig()
	if horizon > 0 {
		cfg.Forecast.Horizon = horizon
	}

	switch t := forecast.Trend(trend); t {
	case "":
	case forecast.TrendAdditive, forecast.TrendNone:
		cfg.Forecast.Trend = t
	default:
		return Config{}, &domain.InvalidParameterError{Parameter: "trend", Value: trend, Reason: "must be additive or none"}
	}

	switch m := optimizer.Method(method); m {
	case "":
	case optimizer.MethodNumeric, optimizer.MethodClosedForm:
		cfg.OptimizerMethod = m
	default:
		return Config{}, &domain.InvalidParameterError{Parameter: "method", Value: method, Reason: "must be numeric or closed_form"}
	}

	return cfg, nil
}
