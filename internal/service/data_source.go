package service

import (
	"context"
	"fmt"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/sales"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// SalesSource says where the sales CSV lives. When Store is set the object
// at ObjectKey is downloaded to Path before loading.
type SalesSource struct {
	Path      string
	Store     storage.ObjectStorage
	ObjectKey string
}

// LoadSales fetches (if remote) and parses the sales file.
func LoadSales(ctx context.Context, src SalesSource) ([]domain.SalesRecord, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("sales file path must be provided")
	}

	if src.Store != nil {
		if src.ObjectKey == "" {
			return nil, fmt.Errorf("sales object key must be provided when storage is enabled")
		}
		log.Info().Str("key", src.ObjectKey).Str("dest", src.Path).Msg("downloading sales file")
		if err := src.Store.DownloadObject(ctx, src.ObjectKey, src.Path); err != nil {
			return nil, fmt.Errorf("download sales file: %w", err)
		}
	}

	records, err := sales.NewLoader().LoadFile(src.Path)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", src.Path).Int("records", len(records)).Msg("sales data loaded")
	return records, nil
}
