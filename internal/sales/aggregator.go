package sales

import (
	"sort"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// Grid is the dense date × product demand table built from sales records.
// Every product carries an entry for every date observed anywhere in the input.
type Grid struct {
	dates    []time.Time
	products []string
	values   map[string][]float64 // product -> quantity per date index
}

// Aggregate sums Sales per (date, product) and zero-fills the combinations
// that never appear. The input is not modified.
func Aggregate(records []domain.SalesRecord) *Grid {
	dateSet := make(map[time.Time]struct{})
	productSet := make(map[string]struct{})
	for _, r := range records {
		dateSet[r.Date] = struct{}{}
		productSet[r.ProductID] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	products := make([]string, 0, len(productSet))
	for p := range productSet {
		products = append(products, p)
	}
	sort.Strings(products)

	pos := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}

	values := make(map[string][]float64, len(products))
	for _, p := range products {
		values[p] = make([]float64, len(dates))
	}
	for _, r := range records {
		values[r.ProductID][pos[r.Date]] += r.Sales
	}

	return &Grid{dates: dates, products: products, values: values}
}

// Dates returns the sorted union of observed dates.
func (g *Grid) Dates() []time.Time {
	return append([]time.Time(nil), g.dates...)
}

// Products returns the sorted product identifiers.
func (g *Grid) Products() []string {
	return append([]string(nil), g.products...)
}

// Has reports whether productID appears in the grid.
func (g *Grid) Has(productID string) bool {
	_, ok := g.values[productID]
	return ok
}

// Series returns a fresh copy of one product's demand series.
func (g *Grid) Series(productID string) (domain.DemandSeries, bool) {
	vals, ok := g.values[productID]
	if !ok {
		return domain.DemandSeries{}, false
	}
	points := make([]domain.DemandPoint, len(g.dates))
	for i, d := range g.dates {
		points[i] = domain.DemandPoint{Date: d, Quantity: vals[i]}
	}
	return domain.DemandSeries{ProductID: productID, Points: points}, true
}

// All returns every product's series keyed by product identifier.
func (g *Grid) All() map[string]domain.DemandSeries {
	out := make(map[string]domain.DemandSeries, len(g.products))
	for _, p := range g.products {
		s, _ := g.Series(p)
		out[p] = s
	}
	return out
}
