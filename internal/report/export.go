package report

import (
	"fmt"
	"io"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/gocarina/gocsv"
)

// SeriesRow is one line of the exported history/forecast table.
type SeriesRow struct {
	Date      string  `csv:"date"`
	ProductID string  `csv:"product_id"`
	Kind      string  `csv:"kind"`
	Quantity  float64 `csv:"quantity"`
}

// SummaryRow is the exported decision for one product.
type SummaryRow struct {
	ProductID           string  `csv:"product_id"`
	AverageDailyDemand  string  `csv:"average_daily_demand"`
	DemandStdDev        string  `csv:"demand_std_dev"`
	LeadTime            string  `csv:"lead_time"`
	SafetyStock         string  `csv:"safety_stock"`
	ReorderPoint        string  `csv:"reorder_point"`
	OptimalOrderQty     string  `csv:"optimal_order_qty"`
	ExpectedCost        string  `csv:"expected_cost"`
	CurrentStock        string  `csv:"current_stock"`
	ReorderRecommended  bool    `csv:"reorder_recommended"`
	Status              string  `csv:"status"`
	HoldingCostPerUnit  float64 `csv:"holding_cost_per_unit"`
	StockoutCostPerUnit float64 `csv:"stockout_cost_per_unit"`
}

const (
	KindHistory  = "history"
	KindForecast = "forecast"
)

// SeriesRows lists the observed history followed by the forecast.
func SeriesRows(series domain.DemandSeries, fc domain.Forecast) []SeriesRow {
	rows := make([]SeriesRow, 0, len(series.Points)+len(fc.Points))
	for _, p := range series.Points {
		rows = append(rows, SeriesRow{Date: p.Date.Format("2006-01-02"), ProductID: series.ProductID, Kind: KindHistory, Quantity: p.Quantity})
	}
	for _, p := range fc.Points {
		rows = append(rows, SeriesRow{Date: p.Date.Format("2006-01-02"), ProductID: fc.ProductID, Kind: KindForecast, Quantity: p.Quantity})
	}
	return rows
}

// NewSummaryRow flattens a Summary and the cost inputs it was computed with.
func NewSummaryRow(s Summary, decision domain.ReorderDecision, costs domain.CostParameters) SummaryRow {
	return SummaryRow{
		ProductID:           s.ProductID,
		AverageDailyDemand:  s.AverageDailyDemand.StringFixed(displayPlaces),
		DemandStdDev:        s.DemandStdDev.StringFixed(displayPlaces),
		LeadTime:            s.LeadTime.StringFixed(displayPlaces),
		SafetyStock:         s.SafetyStock.StringFixed(displayPlaces),
		ReorderPoint:        s.ReorderPoint.StringFixed(displayPlaces),
		OptimalOrderQty:     s.OptimalOrderQty.StringFixed(displayPlaces),
		ExpectedCost:        s.ExpectedCost.StringFixed(displayPlaces),
		CurrentStock:        s.CurrentStock.StringFixed(displayPlaces),
		ReorderRecommended:  decision.ReorderRecommended,
		Status:              s.Status,
		HoldingCostPerUnit:  costs.HoldingCostPerUnit,
		StockoutCostPerUnit: costs.StockoutCostPerUnit,
	}
}

// WriteSeriesCSV writes history and forecast rows with a header.
func WriteSeriesCSV(w io.Writer, rows []SeriesRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write series csv: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes one summary row per product with a header.
func WriteSummaryCSV(w io.Writer, rows []SummaryRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return nil
}
