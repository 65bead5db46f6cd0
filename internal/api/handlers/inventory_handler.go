package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultRecordLimit = 5

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) GetProducts(c *gin.Context) {
	products := h.service.Products()
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
		"dataset":  h.service.Dataset(),
	})
}

func (h *InventoryHandler) GetRecords(c *gin.Context) {
	limit := defaultRecordLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(c, "invalid limit", &domain.InvalidParameterError{
				Parameter: "limit",
				Value:     raw,
				Reason:    "must be a positive integer",
				Err:       err,
			})
			return
		}
		limit = n
	}

	records := h.service.Records(limit)
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (h *InventoryHandler) GetSeries(c *gin.Context) {
	series, err := h.service.Series(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "failed to build demand series", err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *InventoryHandler) GetForecast(c *gin.Context) {
	fc, err := h.service.Forecast(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "failed to forecast demand", err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (h *InventoryHandler) GetReplenishment(c *gin.Context) {
	stats, err := h.service.Replenishment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "failed to compute replenishment", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *InventoryHandler) GetDecision(c *gin.Context) {
	costs, err := h.parseCosts(c)
	if err != nil {
		h.respondError(c, "invalid cost parameters", err)
		return
	}

	result, err := h.service.Decide(c.Request.Context(), c.Param("id"), costs)
	if err != nil {
		h.respondError(c, "failed to compute reorder decision", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetReorders evaluates every product and lists those below their reorder
// point. Products that cannot be evaluated are reported under "skipped".
func (h *InventoryHandler) GetReorders(c *gin.Context) {
	costs, err := h.parseCosts(c)
	if err != nil {
		h.respondError(c, "invalid cost parameters", err)
		return
	}

	outcomes, err := h.service.DecideAll(c.Request.Context(), costs)
	if err != nil {
		h.respondError(c, "failed to evaluate products", err)
		return
	}

	skipped := make(map[string]string)
	for _, o := range outcomes {
		if o.Err != nil {
			skipped[o.ProductID] = o.Err.Error()
		}
	}

	reorders := service.Reorders(outcomes)
	decisions := make([]domain.ReorderDecision, 0, len(reorders))
	for _, r := range reorders {
		decisions = append(decisions, r.Decision)
	}

	c.JSON(http.StatusOK, gin.H{
		"reorders": decisions,
		"count":    len(decisions),
		"skipped":  skipped,
	})
}

// parseCosts reads holding_cost and stockout_cost, falling back to the
// service defaults. Range checks are left to the pipeline.
func (h *InventoryHandler) parseCosts(c *gin.Context) (domain.CostParameters, error) {
	costs := h.service.DefaultCosts()

	parse := func(param string, dst *float64) error {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &domain.InvalidParameterError{Parameter: param, Value: raw, Reason: "must be a number", Err: err}
		}
		*dst = v
		return nil
	}

	if err := parse("holding_cost", &costs.HoldingCostPerUnit); err != nil {
		return costs, err
	}
	if err := parse("stockout_cost", &costs.StockoutCostPerUnit); err != nil {
		return costs, err
	}
	return costs, nil
}

func (h *InventoryHandler) respondError(c *gin.Context, message string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Stack().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

// StatusFor maps pipeline errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		formatErr       *domain.DataFormatError
		insufficientErr *domain.InsufficientDataError
		paramErr        *domain.InvalidParameterError
	)
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.As(err, &paramErr):
		return http.StatusBadRequest
	case errors.As(err, &formatErr), errors.As(err, &insufficientErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
