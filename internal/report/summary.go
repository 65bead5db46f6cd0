package report

import (
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// displayPlaces is the rounding used for dashboard figures.
const displayPlaces = 2

// Summary is the dashboard panel for one product, rounded for display.
type Summary struct {
	ProductID          string          `json:"product_id"`
	AverageDailyDemand decimal.Decimal `json:"average_daily_demand"`
	DemandStdDev       decimal.Decimal `json:"demand_std_dev"`
	LeadTime           decimal.Decimal `json:"lead_time"`
	SafetyStock        decimal.Decimal `json:"safety_stock"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	OptimalOrderQty    decimal.Decimal `json:"optimal_order_qty"`
	ExpectedCost       decimal.Decimal `json:"expected_cost"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	Status             string          `json:"status"`
	Message            string          `json:"message"`
}

// Summarize rounds the pipeline figures to two decimal places.
func Summarize(stats domain.ReplenishmentStats, opt domain.OptimizationResult, decision domain.ReorderDecision) Summary {
	return Summary{
		ProductID:          decision.ProductID,
		AverageDailyDemand: round(stats.AverageDailyDemand),
		DemandStdDev:       round(stats.DemandStdDev),
		LeadTime:           round(stats.LeadTime),
		SafetyStock:        round(stats.SafetyStock),
		ReorderPoint:       round(stats.ReorderPoint),
		OptimalOrderQty:    round(opt.OptimalOrderQty),
		ExpectedCost:       round(opt.ExpectedCost),
		CurrentStock:       round(decision.CurrentStock),
		Status:             string(decision.Status),
		Message:            decision.Status.Message(),
	}
}

func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(displayPlaces)
}

// Lines renders the summary as label/value pairs for terminal output.
func (s Summary) Lines() [][2]string {
	return [][2]string{
		{"Product ID", s.ProductID},
		{"Average Daily Demand", s.AverageDailyDemand.StringFixed(displayPlaces)},
		{"Demand Standard Deviation", s.DemandStdDev.StringFixed(displayPlaces)},
		{"Lead Time (days)", s.LeadTime.StringFixed(displayPlaces)},
		{"Safety Stock", s.SafetyStock.StringFixed(displayPlaces)},
		{"Reorder Point", s.ReorderPoint.StringFixed(displayPlaces)},
		{"Optimal Order Quantity", s.OptimalOrderQty.StringFixed(displayPlaces)},
		{"Expected Cost", s.ExpectedCost.StringFixed(displayPlaces)},
		{"Current Stock Level", s.CurrentStock.StringFixed(displayPlaces)},
		{"Status", s.Message},
	}
}
