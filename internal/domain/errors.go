package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrProductNotFound is wrapped when a product identifier has no sales records.
var ErrProductNotFound = errors.New("product not found")

// DataFormatError reports malformed input: a missing required column, an
// unparseable date, or an invalid numeric field.
type DataFormatError struct {
	Column string
	Row    int // 1-based data row, 0 when the problem is in the header
	Value  string
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := "data format error"
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	if e.Column != "" {
		msg = fmt.Sprintf("%s, column %q", msg, e.Column)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s, value %q", msg, e.Value)
	}
	msg = msg + ": " + e.Reason
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// InsufficientDataError reports a demand series too short to fit.
type InsufficientDataError struct {
	ProductID    string
	Observations int
	Required     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for product %q: %d observations, need at least %d",
		e.ProductID, e.Observations, e.Required)
}

// InvalidParameterError reports a rejected input, naming the parameter and why.
type InvalidParameterError struct {
	Parameter string
	Value     any
	Reason    string
	Err       error
}

func (e *InvalidParameterError) Error() string {
	msg := fmt.Sprintf("invalid parameter %s", e.Parameter)
	if e.Value != nil {
		msg = fmt.Sprintf("%s=%v", msg, e.Value)
	}
	msg = msg + ": " + e.Reason
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidParameterError) Unwrap() error {
	return e.Err
}

// CheckFiniteDemand returns a DataFormatError naming the first NaN or
// infinite point of series, or nil when every point is finite.
func CheckFiniteDemand(series DemandSeries) error {
	for _, p := range series.Points {
		if math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) {
			return &DataFormatError{
				Column: "Sales",
				Value:  fmt.Sprint(p.Quantity),
				Reason: fmt.Sprintf("non-finite demand for product %s on %s", series.ProductID, p.Date.Format("2006-01-02")),
			}
		}
	}
	return nil
}

// ValidateCosts rejects negative or non-numeric cost inputs.
func ValidateCosts(costs CostParameters) error {
	if err := validateCost("holding_cost_per_unit", costs.HoldingCostPerUnit); err != nil {
		return err
	}
	return validateCost("stockout_cost_per_unit", costs.StockoutCostPerUnit)
}

func validateCost(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidParameterError{Parameter: name, Value: v, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &InvalidParameterError{Parameter: name, Value: v, Reason: "must be greater than or equal to 0"}
	}
	return nil
}
