package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []domain.SalesRecord
	for i := 0; i < 10; i++ {
		d := day0.AddDate(0, 0, i)
		records = append(records,
			domain.SalesRecord{Date: d, ProductID: "A", Sales: 5, LeadTime: 3, StockLevel: 10},
			domain.SalesRecord{Date: d, ProductID: "B", Sales: 2, LeadTime: 2, StockLevel: 40},
		)
	}
	records = append(records, domain.SalesRecord{Date: day0, ProductID: "C", Sales: 1, LeadTime: 1, StockLevel: 1})

	svc := service.NewInventoryService(records, nil)
	return NewRouter(&Services{InventoryService: svc}, []string{"*"})
}

func get(t *testing.T, router http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestRouter_Products(t *testing.T) {
	router := testRouter(t)

	rec, body := get(t, router, "/api/v1/products")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"A", "B", "C"}, body["products"])
	require.EqualValues(t, 3, body["total"])
}

func TestRouter_Records(t *testing.T) {
	router := testRouter(t)

	rec, body := get(t, router, "/api/v1/records")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 5, body["count"])

	rec, body = get(t, router, "/api/v1/records?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, body["count"])

	rec, body = get(t, router, "/api/v1/records?limit=zero")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid limit", body["error"])
}

func TestRouter_Decision(t *testing.T) {
	router := testRouter(t)

	t.Run("defaults", func(t *testing.T) {
		rec, body := get(t, router, "/api/v1/products/A/decision")
		require.Equal(t, http.StatusOK, rec.Code)

		decision := body["decision"].(map[string]any)
		require.Equal(t, true, decision["reorder_recommended"])
		require.Equal(t, "reorder recommended", decision["status"])

		summary := body["summary"].(map[string]any)
		require.Equal(t, "15", summary["reorder_point"])
		require.Equal(t, "Reorder recommended! Current stock level is below the reorder point.", summary["message"])

		costs := body["costs"].(map[string]any)
		require.Equal(t, 0.5, costs["holding_cost_per_unit"])
		require.Equal(t, 1.5, costs["stockout_cost_per_unit"])
	})

	t.Run("custom costs", func(t *testing.T) {
		rec, body := get(t, router, "/api/v1/products/A/decision?holding_cost=2&stockout_cost=1")
		require.Equal(t, http.StatusOK, rec.Code)
		opt := body["optimization"].(map[string]any)
		require.InDelta(t, 0.0, opt["optimal_order_qty"].(float64), 1e-3)
	})

	t.Run("sufficient stock", func(t *testing.T) {
		rec, body := get(t, router, "/api/v1/products/B/decision")
		require.Equal(t, http.StatusOK, rec.Code)
		summary := body["summary"].(map[string]any)
		require.Equal(t, "Stock level is sufficient.", summary["message"])
	})
}

func TestRouter_StageEndpoints(t *testing.T) {
	router := testRouter(t)

	rec, body := get(t, router, "/api/v1/products/A/series")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["points"], 10)

	rec, body = get(t, router, "/api/v1/products/A/forecast")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["points"], domain.ForecastHorizon)

	rec, body = get(t, router, "/api/v1/products/A/replenishment")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 15.0, body["reorder_point"])
}

func TestRouter_Reorders(t *testing.T) {
	router := testRouter(t)

	rec, body := get(t, router, "/api/v1/reorders")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["count"])
	skipped := body["skipped"].(map[string]any)
	require.Contains(t, skipped, "C")
}

func TestRouter_ErrorMapping(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown product", "/api/v1/products/Z/decision", http.StatusNotFound},
		{"unknown product forecast", "/api/v1/products/Z/forecast", http.StatusNotFound},
		{"negative cost", "/api/v1/products/A/decision?holding_cost=-1", http.StatusBadRequest},
		{"malformed cost", "/api/v1/products/A/decision?stockout_cost=abc", http.StatusBadRequest},
		{"too little history", "/api/v1/products/C/forecast", http.StatusUnprocessableEntity},
		{"too little history decision", "/api/v1/products/C/decision", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, router, tt.target)
			require.Equal(t, tt.status, rec.Code)
			require.NotEmpty(t, body["error"])
			require.NotEmpty(t, body["details"])
		})
	}
}

func TestRouter_Health(t *testing.T) {
	rec, body := get(t, testRouter(t), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	require.False(t, all)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	require.True(t, all)
}
