package pipeline

import (
	"fmt"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/sales"
)

// Series aggregates records and returns productID's demand series.
func (e *Engine) Series(records []domain.SalesRecord, productID string) (domain.DemandSeries, error) {
	series, ok := sales.Aggregate(records).Series(productID)
	if !ok {
		return domain.DemandSeries{}, &domain.InvalidParameterError{
			Parameter: "product_id",
			Value:     productID,
			Reason:    "not present in the sales data",
			Err:       domain.ErrProductNotFound,
		}
	}
	return series, nil
}

// Forecast runs the aggregate and forecast stages only.
func (e *Engine) Forecast(records []domain.SalesRecord, productID string) (domain.Forecast, error) {
	series, err := e.Series(records, productID)
	if err != nil {
		return domain.Forecast{}, err
	}
	fc, err := e.forecaster.Forecast(series)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast %s: %w", productID, err)
	}
	return fc, nil
}

// Replenishment runs the aggregate and replenishment stages only.
func (e *Engine) Replenishment(records []domain.SalesRecord, productID string) (domain.ReplenishmentStats, error) {
	series, err := e.Series(records, productID)
	if err != nil {
		return domain.ReplenishmentStats{}, err
	}
	leadTime, err := sales.LeadTime(records, productID)
	if err != nil {
		return domain.ReplenishmentStats{}, err
	}
	stats, err := e.calculator.Calculate(series, leadTime)
	if err != nil {
		return domain.ReplenishmentStats{}, fmt.Errorf("replenishment %s: %w", productID, err)
	}
	return stats, nil
}
