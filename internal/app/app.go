package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/pipeline"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// App holds the wired dependencies shared by the server and the CLI.
type App struct {
	Config    *config.Config
	Store     storage.ObjectStorage
	Cache     cache.DecisionCache
	Inventory *service.InventoryService
}

// New loads the sales data and wires the inventory service. The caller owns
// the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pipeCfg, err := pipeline.ParseConfig(cfg.Engine.ForecastHorizon, cfg.Engine.ForecastTrend, cfg.Engine.OptimizerMethod)
	if err != nil {
		return nil, err
	}

	defaults := domain.CostParameters{
		HoldingCostPerUnit:  cfg.Engine.HoldingCostPerUnit,
		StockoutCostPerUnit: cfg.Engine.StockoutCostPerUnit,
	}
	if err := domain.ValidateCosts(defaults); err != nil {
		return nil, fmt.Errorf("engine default costs: %w", err)
	}

	store, err := NewStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	records, err := service.LoadSales(ctx, salesSource(cfg, store))
	if err != nil {
		return nil, err
	}

	decisionCache, err := cache.NewDecisionCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("decision cache unavailable, continuing without it")
		decisionCache = cache.NewNoopDecisionCache()
	}

	inventory := service.NewInventoryService(records, pipeline.NewEngine(pipeCfg),
		service.WithCache(decisionCache),
		service.WithDefaultCosts(defaults),
	)

	return &App{
		Config:    cfg,
		Store:     store,
		Cache:     decisionCache,
		Inventory: inventory,
	}, nil
}

// NewStore returns the configured bucket, or nil when storage is disabled.
func NewStore(cfg config.StorageConfig) (storage.ObjectStorage, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Driver {
	case "local":
		if cfg.LocalRoot == "" {
			return nil, fmt.Errorf("storage local root must be provided")
		}
		return storage.NewLocalStorage(cfg.LocalRoot), nil
	case "s3", "":
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func salesSource(cfg *config.Config, store storage.ObjectStorage) service.SalesSource {
	src := service.SalesSource{Path: cfg.App.SalesFile}
	if store != nil {
		src.Store = store
		src.ObjectKey = cfg.Storage.SalesObjectKey
		if src.Path == "" {
			src.Path = filepath.Join(cfg.App.DataDir, filepath.Base(cfg.Storage.SalesObjectKey))
		}
	}
	return src
}

// Reload re-reads the sales data and swaps it into the running service.
func (a *App) Reload(ctx context.Context) error {
	records, err := service.LoadSales(ctx, salesSource(a.Config, a.Store))
	if err != nil {
		return err
	}
	a.Inventory.Replace(ctx, records)
	return nil
}

func (a *App) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}
