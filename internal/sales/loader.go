package sales

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// Column names of the sales file, as they are reported in errors.
const (
	ColumnDate       = "Date"
	ColumnProductID  = "Product_ID"
	ColumnSales      = "Sales"
	ColumnLeadTime   = "Lead_Time"
	ColumnStockLevel = "Stock_Level"
)

type column struct {
	name    string
	aliases []string
}

var requiredColumns = []column{
	{name: ColumnDate, aliases: []string{"date", "tanggal"}},
	{name: ColumnProductID, aliases: []string{"product_id", "product id", "product", "sku"}},
	{name: ColumnSales, aliases: []string{"sales", "qty_sold", "quantity"}},
	{name: ColumnLeadTime, aliases: []string{"lead_time", "lead time"}},
	{name: ColumnStockLevel, aliases: []string{"stock_level", "stock level", "stock", "stok"}},
}

// DefaultDateLayouts are tried in order when parsing the Date column.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// Loader reads sales records from CSV.
type Loader struct {
	DateLayouts []string
}

// NewLoader creates a loader using DefaultDateLayouts.
func NewLoader() *Loader {
	return &Loader{DateLayouts: DefaultDateLayouts}
}

// LoadFile opens path and parses it with Load.
func (l *Loader) LoadFile(path string) ([]domain.SalesRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file %s: %w", path, err)
	}
	defer file.Close()

	records, err := l.Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales file %s: %w", path, err)
	}
	return records, nil
}

// Load parses every row of r. Any malformed row aborts the load with a
// *domain.DataFormatError; no partial result is returned.
func (l *Loader) Load(r io.Reader) ([]domain.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.DataFormatError{Reason: "file is empty, expected a header row"}
		}
		return nil, &domain.DataFormatError{Reason: "cannot read header", Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := make(map[string]int, len(requiredColumns))
	for _, col := range requiredColumns {
		i := columnIndex(header, col.aliases...)
		if i < 0 {
			return nil, &domain.DataFormatError{Column: col.name, Reason: "required column is missing"}
		}
		idx[col.name] = i
	}

	records := make([]domain.SalesRecord, 0)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.DataFormatError{Row: row, Reason: "cannot read row", Err: err}
		}
		if isBlank(fields) {
			continue
		}

		rec, err := l.parseRow(row, fields, idx)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (l *Loader) parseRow(row int, fields []string, idx map[string]int) (domain.SalesRecord, error) {
	get := func(name string) (string, error) {
		i := idx[name]
		if i >= len(fields) || strings.TrimSpace(fields[i]) == "" {
			return "", &domain.DataFormatError{Column: name, Row: row, Reason: "value is missing"}
		}
		return strings.TrimSpace(fields[i]), nil
	}

	number := func(name string) (float64, error) {
		raw, err := get(name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return 0, &domain.DataFormatError{Column: name, Row: row, Value: raw, Reason: "not a number", Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &domain.DataFormatError{Column: name, Row: row, Value: raw, Reason: "must be a finite number"}
		}
		return v, nil
	}

	rawDate, err := get(ColumnDate)
	if err != nil {
		return domain.SalesRecord{}, err
	}
	date, err := l.parseDate(rawDate)
	if err != nil {
		return domain.SalesRecord{}, &domain.DataFormatError{Column: ColumnDate, Row: row, Value: rawDate, Reason: "unparseable date", Err: err}
	}

	productID, err := get(ColumnProductID)
	if err != nil {
		return domain.SalesRecord{}, err
	}

	sales, err := number(ColumnSales)
	if err != nil {
		return domain.SalesRecord{}, err
	}
	if sales < 0 {
		return domain.SalesRecord{}, &domain.DataFormatError{Column: ColumnSales, Row: row, Value: fields[idx[ColumnSales]], Reason: "must not be negative"}
	}

	leadTime, err := number(ColumnLeadTime)
	if err != nil {
		return domain.SalesRecord{}, err
	}

	stock, err := number(ColumnStockLevel)
	if err != nil {
		return domain.SalesRecord{}, err
	}

	return domain.SalesRecord{
		Date:       date,
		ProductID:  productID,
		Sales:      sales,
		LeadTime:   leadTime,
		StockLevel: stock,
	}, nil
}

// parseDate returns the calendar date at UTC midnight.
func (l *Loader) parseDate(raw string) (time.Time, error) {
	layouts := l.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func columnIndex(header []string, names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
