package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/pipeline"
)

const decisionKeyPrefix = "restock:decision"

// DecisionKey identifies one pipeline run. Dataset is a fingerprint of the
// loaded records, so a reload never serves results computed from old data.
// Engine is pipeline.Config.Fingerprint, so instances with different
// forecast or optimizer settings never share entries in one Redis.
type DecisionKey struct {
	Dataset   string
	Engine    string
	ProductID string
	Costs     domain.CostParameters
}

// String renders the Redis key for k.
func (k DecisionKey) String() string {
	raw := strings.Join([]string{
		k.Dataset,
		k.Engine,
		k.ProductID,
		strconv.FormatFloat(k.Costs.HoldingCostPerUnit, 'g', -1, 64),
		strconv.FormatFloat(k.Costs.StockoutCostPerUnit, 'g', -1, 64),
	}, "|")
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", decisionKeyPrefix, hex.EncodeToString(hash[:]))
}

// DecisionCache memoizes pipeline results. Implementations must be safe for
// concurrent use; a miss is reported as (nil, false, nil).
type DecisionCache interface {
	Get(ctx context.Context, key DecisionKey) (*pipeline.Result, bool, error)
	Set(ctx context.Context, key DecisionKey, result *pipeline.Result) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type noopDecisionCache struct{}

// NewDecisionCache returns a Redis-backed cache when caching is enabled and
// a no-op cache otherwise.
func NewDecisionCache(cfg config.CacheConfig) (DecisionCache, error) {
	if !cfg.Enabled {
		return &noopDecisionCache{}, nil
	}

	c, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func NewNoopDecisionCache() DecisionCache {
	return &noopDecisionCache{}
}

func (n *noopDecisionCache) Get(ctx context.Context, key DecisionKey) (*pipeline.Result, bool, error) {
	return nil, false, nil
}

func (n *noopDecisionCache) Set(ctx context.Context, key DecisionKey, result *pipeline.Result) error {
	return nil
}

func (n *noopDecisionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopDecisionCache) Close() error {
	return nil
}
