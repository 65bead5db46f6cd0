package sales

import (
	"fmt"
	"math"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// LeadTime returns the lead time of the first record for productID in input
// order. Later records are not checked for consistency.
func LeadTime(records []domain.SalesRecord, productID string) (float64, error) {
	for _, r := range records {
		if r.ProductID == productID {
			return r.LeadTime, nil
		}
	}
	return 0, &domain.InvalidParameterError{
		Parameter: "lead_time",
		Value:     productID,
		Reason:    "no sales record to look up the lead time from",
		Err:       fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID),
	}
}

// CurrentStock returns the stock level of the chronologically last record for
// productID. Records sharing the latest date resolve to the one read last.
func CurrentStock(records []domain.SalesRecord, productID string) (float64, error) {
	found := false
	var latest domain.SalesRecord
	for _, r := range records {
		if r.ProductID != productID {
			continue
		}
		if !found || !r.Date.Before(latest.Date) {
			latest = r
			found = true
		}
	}
	if !found {
		return 0, &domain.InvalidParameterError{
			Parameter: "product_id",
			Value:     productID,
			Reason:    "no sales record to read the stock level from",
			Err:       fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID),
		}
	}
	if math.IsNaN(latest.StockLevel) || math.IsInf(latest.StockLevel, 0) {
		return 0, &domain.DataFormatError{
			Column: ColumnStockLevel,
			Value:  fmt.Sprint(latest.StockLevel),
			Reason: fmt.Sprintf("non-finite stock level for product %s on %s", productID, latest.Date.Format("2006-01-02")),
		}
	}
	return latest.StockLevel, nil
}

// Head returns at most n records from the start of the input.
func Head(records []domain.SalesRecord, n int) []domain.SalesRecord {
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	return append([]domain.SalesRecord(nil), records[:n]...)
}
