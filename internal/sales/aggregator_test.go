package sales

import (
	"math"
	"testing"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	records := []domain.SalesRecord{
		{Date: date(2024, 1, 1), ProductID: "A", Sales: 3, LeadTime: 2, StockLevel: 10},
		{Date: date(2024, 1, 1), ProductID: "A", Sales: 2, LeadTime: 2, StockLevel: 9},
		{Date: date(2024, 1, 3), ProductID: "B", Sales: 7, LeadTime: 5, StockLevel: 50},
		{Date: date(2024, 1, 2), ProductID: "A", Sales: 1, LeadTime: 2, StockLevel: 8},
	}

	grid := Aggregate(records)

	t.Run("products and dates are sorted", func(t *testing.T) {
		require.Equal(t, []string{"A", "B"}, grid.Products())
		dates := grid.Dates()
		require.Len(t, dates, 3)
		require.True(t, dates[0].Equal(date(2024, 1, 1)))
		require.True(t, dates[2].Equal(date(2024, 1, 3)))
	})

	t.Run("sums per date and zero fills", func(t *testing.T) {
		a, ok := grid.Series("A")
		require.True(t, ok)
		require.Equal(t, "", cmp.Diff([]domain.DemandPoint{
			{Date: date(2024, 1, 1), Quantity: 5},
			{Date: date(2024, 1, 2), Quantity: 1},
			{Date: date(2024, 1, 3), Quantity: 0},
		}, a.Points))

		b, ok := grid.Series("B")
		require.True(t, ok)
		require.Equal(t, []float64{0, 0, 7}, b.Values())
	})

	t.Run("unknown product", func(t *testing.T) {
		_, ok := grid.Series("C")
		require.False(t, ok)
		require.False(t, grid.Has("C"))
	})

	t.Run("series are independent copies", func(t *testing.T) {
		a, _ := grid.Series("A")
		a.Points[0].Quantity = 999
		again, _ := grid.Series("A")
		require.Equal(t, 5.0, again.Points[0].Quantity)
	})

	t.Run("dense and sum preserving", func(t *testing.T) {
		total := 0.0
		for _, r := range records {
			total += r.Sales
		}
		got := 0.0
		for id, s := range grid.All() {
			require.Len(t, s.Points, len(grid.Dates()), id)
			for i := 1; i < len(s.Points); i++ {
				require.True(t, s.Points[i-1].Date.Before(s.Points[i].Date))
			}
			for _, v := range s.Values() {
				got += v
			}
		}
		require.InDelta(t, total, got, 1e-9)
	})

	t.Run("empty input", func(t *testing.T) {
		g := Aggregate(nil)
		require.Empty(t, g.Products())
		require.Empty(t, g.Dates())
	})
}

func TestLookups(t *testing.T) {
	records := []domain.SalesRecord{
		{Date: date(2024, 1, 2), ProductID: "A", Sales: 1, LeadTime: 3, StockLevel: 20},
		{Date: date(2024, 1, 5), ProductID: "A", Sales: 1, LeadTime: 4, StockLevel: 12},
		{Date: date(2024, 1, 1), ProductID: "A", Sales: 1, LeadTime: 5, StockLevel: 30},
		{Date: date(2024, 1, 5), ProductID: "A", Sales: 1, LeadTime: 6, StockLevel: 11},
	}

	t.Run("lead time comes from the first record", func(t *testing.T) {
		lt, err := LeadTime(records, "A")
		require.NoError(t, err)
		require.Equal(t, 3.0, lt)
	})

	t.Run("current stock comes from the latest date, last row wins ties", func(t *testing.T) {
		stock, err := CurrentStock(records, "A")
		require.NoError(t, err)
		require.Equal(t, 11.0, stock)
	})

	t.Run("unknown product is an invalid parameter", func(t *testing.T) {
		_, err := LeadTime(records, "Z")
		var paramErr *domain.InvalidParameterError
		require.ErrorAs(t, err, &paramErr)
		require.ErrorIs(t, err, domain.ErrProductNotFound)

		_, err = CurrentStock(records, "Z")
		require.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("non-finite current stock is a data format error", func(t *testing.T) {
		bad := append([]domain.SalesRecord(nil), records...)
		bad[3].StockLevel = math.NaN()
		_, err := CurrentStock(bad, "A")
		var formatErr *domain.DataFormatError
		require.ErrorAs(t, err, &formatErr)
		require.Equal(t, ColumnStockLevel, formatErr.Column)
	})

	t.Run("head", func(t *testing.T) {
		require.Len(t, Head(records, 2), 2)
		require.Len(t, Head(records, 10), 4)
		require.Empty(t, Head(records, -1))
	})
}
