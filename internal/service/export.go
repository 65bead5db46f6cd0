package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/report"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Export is a pair of rendered CSV documents.
type Export struct {
	SeriesCSV  []byte
	SummaryCSV []byte
}

// Export renders history, forecast and decision CSVs for the given products.
// An empty productIDs exports every product; products whose pipeline fails
// are skipped with a warning.
func (s *InventoryService) Export(ctx context.Context, productIDs []string, costs domain.CostParameters) (*Export, error) {
	if len(productIDs) == 0 {
		productIDs = s.Products()
	}

	var (
		seriesRows  []report.SeriesRow
		summaryRows []report.SummaryRow
	)
	for _, id := range productIDs {
		result, err := s.Decide(ctx, id, costs)
		if err != nil {
			if len(productIDs) == 1 {
				return nil, err
			}
			log.Warn().Err(err).Str("product_id", id).Msg("export: skipping product")
			continue
		}
		seriesRows = append(seriesRows, report.SeriesRows(result.Series, result.Forecast)...)
		summaryRows = append(summaryRows, report.NewSummaryRow(result.Summary, result.Decision, result.Costs))
	}
	if len(summaryRows) == 0 {
		return nil, fmt.Errorf("export: no product could be evaluated")
	}

	var series, summary bytes.Buffer
	if err := report.WriteSeriesCSV(&series, seriesRows); err != nil {
		return nil, err
	}
	if err := report.WriteSummaryCSV(&summary, summaryRows); err != nil {
		return nil, err
	}
	return &Export{SeriesCSV: series.Bytes(), SummaryCSV: summary.Bytes()}, nil
}

// Publish uploads an export under prefix, stamped with at, and returns the
// object keys written.
func Publish(ctx context.Context, store storage.ObjectStorage, prefix string, at time.Time, exp *Export) ([]string, error) {
	stamp := at.UTC().Format("20060102T150405Z")
	keys := []string{
		path.Join(prefix, stamp, "series.csv"),
		path.Join(prefix, stamp, "summary.csv"),
	}
	payloads := [][]byte{exp.SeriesCSV, exp.SummaryCSV}

	for i, key := range keys {
		if err := store.UploadObject(ctx, key, payloads[i]); err != nil {
			return nil, err
		}
		log.Info().Str("key", key).Int("bytes", len(payloads[i])).Msg("export uploaded")
	}
	return keys, nil
}
