package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/pipeline"
	"github.com/andresuchdata/restock/backend-go/internal/sales"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const defaultConcurrency = 4

// InventoryService serves pipeline results over a dataset loaded once.
// Every call reads an immutable snapshot of the records; Replace swaps the
// snapshot and drops memoized results.
type InventoryService struct {
	mu       sync.RWMutex
	records  []domain.SalesRecord
	products []string
	dataset  string

	engine   *pipeline.Engine
	cache    cache.DecisionCache
	defaults domain.CostParameters
	group    singleflight.Group
	sem      *semaphore.Weighted
}

// Option customizes an InventoryService.
type Option func(*InventoryService)

// WithCache memoizes decisions in c.
func WithCache(c cache.DecisionCache) Option {
	return func(s *InventoryService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithDefaultCosts sets the costs used when a caller passes none.
func WithDefaultCosts(costs domain.CostParameters) Option {
	return func(s *InventoryService) { s.defaults = costs }
}

// WithConcurrency bounds the number of products DecideAll runs at once.
func WithConcurrency(n int) Option {
	return func(s *InventoryService) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func NewInventoryService(records []domain.SalesRecord, engine *pipeline.Engine, opts ...Option) *InventoryService {
	if engine == nil {
		engine = pipeline.NewEngine(pipeline.DefaultConfig())
	}
	s := &InventoryService{
		engine:   engine,
		cache:    cache.NewNoopDecisionCache(),
		defaults: domain.DefaultCostParameters(),
		sem:      semaphore.NewWeighted(defaultConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.swap(records)
	return s
}

func (s *InventoryService) swap(records []domain.SalesRecord) {
	snapshot := append([]domain.SalesRecord(nil), records...)
	products := sales.Aggregate(snapshot).Products()

	s.mu.Lock()
	s.records = snapshot
	s.products = products
	s.dataset = Fingerprint(snapshot)
	s.mu.Unlock()
}

// Replace installs a freshly loaded dataset and invalidates cached results.
func (s *InventoryService) Replace(ctx context.Context, records []domain.SalesRecord) {
	s.swap(records)
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate failed")
	}
	log.Info().Int("records", len(records)).Str("dataset", s.Dataset()).Msg("inventory: dataset replaced")
}

func (s *InventoryService) snapshot() ([]domain.SalesRecord, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.dataset
}

// Dataset returns the fingerprint of the loaded records.
func (s *InventoryService) Dataset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// DefaultCosts returns the costs applied when a request omits them.
func (s *InventoryService) DefaultCosts() domain.CostParameters {
	return s.defaults
}

// Products lists the product identifiers in sorted order.
func (s *InventoryService) Products() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.products...)
}

// Records returns the first limit records as loaded.
func (s *InventoryService) Records(limit int) []domain.SalesRecord {
	records, _ := s.snapshot()
	return sales.Head(records, limit)
}

func (s *InventoryService) Series(ctx context.Context, productID string) (domain.DemandSeries, error) {
	records, _ := s.snapshot()
	series, err := s.engine.Series(records, productID)
	if err != nil {
		return domain.DemandSeries{}, errors.WithStack(err)
	}
	return series, nil
}

func (s *InventoryService) Forecast(ctx context.Context, productID string) (domain.Forecast, error) {
	records, _ := s.snapshot()
	fc, err := s.engine.Forecast(records, productID)
	if err != nil {
		return domain.Forecast{}, errors.WithStack(err)
	}
	return fc, nil
}

func (s *InventoryService) Replenishment(ctx context.Context, productID string) (domain.ReplenishmentStats, error) {
	records, _ := s.snapshot()
	stats, err := s.engine.Replenishment(records, productID)
	if err != nil {
		return domain.ReplenishmentStats{}, errors.WithStack(err)
	}
	return stats, nil
}

// Decide runs the full pipeline for productID. Results are memoized per
// dataset, engine settings, product and costs; concurrent identical requests share one run.
func (s *InventoryService) Decide(ctx context.Context, productID string, costs domain.CostParameters) (*pipeline.Result, error) {
	records, dataset := s.snapshot()
	key := cache.DecisionKey{
		Dataset:   dataset,
		Engine:    s.engine.Config().Fingerprint(),
		ProductID: productID,
		Costs:     costs,
	}

	if result, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("inventory: cache get decision failed")
	}

	v, err, _ := s.group.Do(key.String(), func() (interface{}, error) {
		result, err := s.engine.Run(records, productID, costs)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, result); err != nil {
			log.Warn().Err(err).Str("product_id", productID).Msg("inventory: cache set decision failed")
		}
		return result, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return v.(*pipeline.Result), nil
}

// Outcome is the result of one product in a DecideAll batch.
type Outcome struct {
	ProductID string
	Result    *pipeline.Result
	Err       error
}

// DecideAll runs Decide for every product. A failing product is reported in
// its Outcome and does not stop the others. Outcomes are in product order.
func (s *InventoryService) DecideAll(ctx context.Context, costs domain.CostParameters) ([]Outcome, error) {
	products := s.Products()
	outcomes := make([]Outcome, len(products))

	var wg sync.WaitGroup
	for i, id := range products {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("could not acquire semaphore: %w", err)
		}
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer s.sem.Release(1)
			result, err := s.Decide(ctx, id, costs)
			outcomes[i] = Outcome{ProductID: id, Result: result, Err: err}
		}(i, id)
	}
	wg.Wait()

	return outcomes, nil
}

// Fingerprint identifies a dataset by content. Equal record slices always
// produce equal fingerprints.
func Fingerprint(records []domain.SalesRecord) string {
	h := sha256.New()
	buf := make([]byte, 0, 128)
	for _, r := range records {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, r.Date.Unix(), 10)
		buf = append(buf, '|')
		buf = append(buf, r.ProductID...)
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, r.Sales, 'g', -1, 64)
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, r.LeadTime, 'g', -1, 64)
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, r.StockLevel, 'g', -1, 64)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Reorders filters outcomes down to the products that need ordering, most
// urgent (largest shortfall below the reorder point) first.
func Reorders(outcomes []Outcome) []*pipeline.Result {
	var out []*pipeline.Result
	for _, o := range outcomes {
		if o.Err == nil && o.Result != nil && o.Result.Decision.ReorderRecommended {
			out = append(out, o.Result)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return shortfall(out[i]) > shortfall(out[j])
	})
	return out
}

func shortfall(r *pipeline.Result) float64 {
	return r.Decision.ReorderPoint - r.Decision.CurrentStock
}
