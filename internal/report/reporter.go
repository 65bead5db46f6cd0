package report

import (
	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// Decide compares currentStock with the reorder point. Reordering is
// recommended only when stock is strictly below it.
func Decide(productID string, stats domain.ReplenishmentStats, opt domain.OptimizationResult, currentStock float64) domain.ReorderDecision {
	reorder := currentStock < stats.ReorderPoint
	return domain.ReorderDecision{
		ProductID:          productID,
		CurrentStock:       currentStock,
		ReorderPoint:       stats.ReorderPoint,
		SafetyStock:        stats.SafetyStock,
		OptimalOrderQty:    opt.OptimalOrderQty,
		ReorderRecommended: reorder,
		Status:             domain.DecisionStatusFor(reorder),
	}
}
