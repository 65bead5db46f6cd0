package domain

import "time"

// ForecastHorizon is the number of days projected past the last observed date.
const ForecastHorizon = 14

// Default cost inputs offered to the dashboard.
const (
	DefaultHoldingCostPerUnit  = 0.5
	DefaultStockoutCostPerUnit = 1.5
)

// SalesRecord is a single row of the input sales file.
type SalesRecord struct {
	Date       time.Time `json:"date"`
	ProductID  string    `json:"product_id"`
	Sales      float64   `json:"sales"`
	LeadTime   float64   `json:"lead_time"`
	StockLevel float64   `json:"stock_level"`
}

// DemandPoint is the total quantity sold for one product on one calendar date.
type DemandPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// DemandSeries is a product's daily demand, ordered by date with no duplicate dates.
type DemandSeries struct {
	ProductID string        `json:"product_id"`
	Points    []DemandPoint `json:"points"`
}

// Values returns the quantities in date order.
func (s DemandSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Quantity
	}
	return values
}

// Len returns the number of observations.
func (s DemandSeries) Len() int {
	return len(s.Points)
}

// LastDate returns the date of the final observation, or the zero time for an empty series.
func (s DemandSeries) LastDate() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// ForecastModel describes the fitted smoothing model behind a Forecast.
type ForecastModel struct {
	Trend        string  `json:"trend"`
	Alpha        float64 `json:"alpha"`
	Beta         float64 `json:"beta"`
	InitialLevel float64 `json:"initial_level"`
	InitialTrend float64 `json:"initial_trend"`
	Level        float64 `json:"level"`
	Slope        float64 `json:"slope"`
	SSE          float64 `json:"sse"`
}

// Forecast holds point-demand estimates for the days following a DemandSeries.
type Forecast struct {
	ProductID string        `json:"product_id"`
	Points    []DemandPoint `json:"points"`
	Model     ForecastModel `json:"model"`
}

// ReplenishmentStats are the safety-stock and reorder-point figures for one product.
type ReplenishmentStats struct {
	AverageDailyDemand float64 `json:"average_daily_demand"`
	DemandStdDev       float64 `json:"demand_std_dev"`
	LeadTime           float64 `json:"lead_time"`
	ServiceLevelFactor float64 `json:"service_level_factor"`
	SafetyStock        float64 `json:"safety_stock"`
	ReorderPoint       float64 `json:"reorder_point"`
}

// LeadTimeDemand is the expected demand over the lead time, without safety stock.
func (s ReplenishmentStats) LeadTimeDemand() float64 {
	return s.AverageDailyDemand * s.LeadTime
}

// CostParameters are the user-supplied per-unit costs.
type CostParameters struct {
	HoldingCostPerUnit  float64 `json:"holding_cost_per_unit"`
	StockoutCostPerUnit float64 `json:"stockout_cost_per_unit"`
}

// DefaultCostParameters returns the dashboard defaults.
func DefaultCostParameters() CostParameters {
	return CostParameters{
		HoldingCostPerUnit:  DefaultHoldingCostPerUnit,
		StockoutCostPerUnit: DefaultStockoutCostPerUnit,
	}
}

// OptimizationResult is the order quantity chosen by the optimizer.
type OptimizationResult struct {
	OptimalOrderQty float64 `json:"optimal_order_qty"`
	ExpectedCost    float64 `json:"expected_cost"`
	Method          string  `json:"method"`
	Iterations      int     `json:"iterations"`
}

// ReorderDecision compares the current stock with the reorder point.
type ReorderDecision struct {
	ProductID          string         `json:"product_id"`
	CurrentStock       float64        `json:"current_stock"`
	ReorderPoint       float64        `json:"reorder_point"`
	SafetyStock        float64        `json:"safety_stock"`
	OptimalOrderQty    float64        `json:"optimal_order_qty"`
	ReorderRecommended bool           `json:"reorder_recommended"`
	Status             DecisionStatus `json:"status"`
}
