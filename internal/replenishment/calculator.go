package replenishment

import (
	"math"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/montanaflynn/stats"
)

// ServiceLevelFactor is the z-score for a 95% single-sided service level.
const ServiceLevelFactor = 1.65

// Calculator derives safety stock and reorder point from a demand series.
type Calculator struct {
	serviceLevelFactor float64
}

// NewCalculator creates a calculator using ServiceLevelFactor.
func NewCalculator() *Calculator {
	return &Calculator{serviceLevelFactor: ServiceLevelFactor}
}

// Calculate computes the replenishment statistics for series over leadTime days.
//
//	safety stock  = z × σ × √LT
//	reorder point = (average daily demand × LT) + safety stock
func (c *Calculator) Calculate(series domain.DemandSeries, leadTime float64) (domain.ReplenishmentStats, error) {
	if math.IsNaN(leadTime) || math.IsInf(leadTime, 0) || leadTime <= 0 {
		return domain.ReplenishmentStats{}, &domain.InvalidParameterError{
			Parameter: "lead_time",
			Value:     leadTime,
			Reason:    "must be a positive number of days",
		}
	}

	values := series.Values()
	if len(values) == 0 {
		return domain.ReplenishmentStats{}, &domain.InsufficientDataError{
			ProductID: series.ProductID,
			Required:  1,
		}
	}

	if err := domain.CheckFiniteDemand(series); err != nil {
		return domain.ReplenishmentStats{}, err
	}

	avg, err := stats.Mean(values)
	if err != nil {
		return domain.ReplenishmentStats{}, err
	}

	// A single observation has no sample variance; treat it as no variability.
	stdDev := 0.0
	if len(values) > 1 {
		stdDev, err = stats.StandardDeviationSample(values)
		if err != nil {
			return domain.ReplenishmentStats{}, err
		}
	}

	safetyStock := c.serviceLevelFactor * stdDev * math.Sqrt(leadTime)
	reorderPoint := avg*leadTime + safetyStock

	return domain.ReplenishmentStats{
		AverageDailyDemand: avg,
		DemandStdDev:       stdDev,
		LeadTime:           leadTime,
		ServiceLevelFactor: c.serviceLevelFactor,
		SafetyStock:        safetyStock,
		ReorderPoint:       reorderPoint,
	}, nil
}
