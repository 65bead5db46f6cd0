package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"gonum.org/v1/gonum/optimize"
)

// MinObservations is the shortest series the forecaster will fit. Holt's
// method estimates four quantities (α, β, initial level, initial slope).
const MinObservations = 4

// Trend selects the trend component of the smoothing model.
type Trend string

const (
	TrendAdditive Trend = "additive"
	TrendNone     Trend = "none"
)

// Config controls the forecaster. Seasonality is not offered.
type Config struct {
	Horizon int
	Trend   Trend
}

// DefaultConfig is a 14-day additive-trend forecast.
func DefaultConfig() Config {
	return Config{Horizon: domain.ForecastHorizon, Trend: TrendAdditive}
}

// Forecaster fits an exponential smoothing model per call; it keeps no state
// between products.
type Forecaster struct {
	cfg Config
}

// New creates a Forecaster, filling zero-valued config fields with defaults.
func New(cfg Config) *Forecaster {
	if cfg.Horizon <= 0 {
		cfg.Horizon = domain.ForecastHorizon
	}
	if cfg.Trend == "" {
		cfg.Trend = TrendAdditive
	}
	return &Forecaster{cfg: cfg}
}

// Forecast fits the model to series and projects Horizon daily values dated
// consecutively from the day after the series' last date.
func (f *Forecaster) Forecast(series domain.DemandSeries) (domain.Forecast, error) {
	y := series.Values()
	if len(y) < MinObservations {
		return domain.Forecast{}, &domain.InsufficientDataError{
			ProductID:    series.ProductID,
			Observations: len(y),
			Required:     MinObservations,
		}
	}
	if err := domain.CheckFiniteDemand(series); err != nil {
		return domain.Forecast{}, err
	}

	var model domain.ForecastModel
	switch f.cfg.Trend {
	case TrendAdditive:
		model = fitHolt(y)
	case TrendNone:
		model = fitSES(y)
	default:
		return domain.Forecast{}, &domain.InvalidParameterError{
			Parameter: "trend",
			Value:     string(f.cfg.Trend),
			Reason:    "must be additive or none",
		}
	}

	dates := ForecastDates(series.LastDate(), f.cfg.Horizon)
	points := make([]domain.DemandPoint, len(dates))
	for i, d := range dates {
		points[i] = domain.DemandPoint{
			Date:     d,
			Quantity: model.Level + float64(i+1)*model.Slope,
		}
	}

	return domain.Forecast{
		ProductID: series.ProductID,
		Points:    points,
		Model:     model,
	}, nil
}

func isConstant(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}

// fitHolt minimizes the one-step-ahead SSE over (α, β, l0, b0).
func fitHolt(y []float64) domain.ForecastModel {
	if isConstant(y) {
		return domain.ForecastModel{
			Trend:        string(TrendAdditive),
			InitialLevel: y[0],
			Level:        y[0],
		}
	}

	slope0 := (y[len(y)-1] - y[0]) / float64(len(y)-1)
	init := []float64{logit(0.5), logit(0.1), y[0] - slope0, slope0}

	objective := func(x []float64) float64 {
		_, _, sse := holtState(y, sigmoid(x[0]), sigmoid(x[1]), x[2], x[3])
		return sse
	}
	x := minimize(objective, init)

	alpha, beta := sigmoid(x[0]), sigmoid(x[1])
	level, slope, sse := holtState(y, alpha, beta, x[2], x[3])
	return domain.ForecastModel{
		Trend:        string(TrendAdditive),
		Alpha:        alpha,
		Beta:         beta,
		InitialLevel: x[2],
		InitialTrend: x[3],
		Level:        level,
		Slope:        slope,
		SSE:          sse,
	}
}

// fitSES minimizes the one-step-ahead SSE over (α, l0).
func fitSES(y []float64) domain.ForecastModel {
	if isConstant(y) {
		return domain.ForecastModel{
			Trend:        string(TrendNone),
			InitialLevel: y[0],
			Level:        y[0],
		}
	}

	init := []float64{logit(0.5), y[0]}
	objective := func(x []float64) float64 {
		_, sse := sesState(y, sigmoid(x[0]), x[1])
		return sse
	}
	x := minimize(objective, init)

	alpha := sigmoid(x[0])
	level, sse := sesState(y, alpha, x[1])
	return domain.ForecastModel{
		Trend:        string(TrendNone),
		Alpha:        alpha,
		InitialLevel: x[1],
		Level:        level,
		SSE:          sse,
	}
}

// minimize runs Nelder-Mead from init and falls back to init if the solver
// produced no usable location.
func minimize(fn func([]float64) float64, init []float64) []float64 {
	problem := optimize.Problem{Func: fn}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 200,
		},
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if result == nil || len(result.X) != len(init) || math.IsNaN(result.F) {
		return init
	}
	if err != nil && result.F > fn(init) {
		return init
	}
	return result.X
}

// ForecastDates returns the horizon dates following last, one per day,
// regardless of gaps in the observed history.
func ForecastDates(last time.Time, horizon int) []time.Time {
	dates := make([]time.Time, horizon)
	for h := 1; h <= horizon; h++ {
		dates[h-1] = last.AddDate(0, 0, h)
	}
	return dates
}
