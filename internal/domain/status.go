package domain

// DecisionStatus is the dashboard label for a ReorderDecision.
type DecisionStatus string

const (
	StatusReorderRecommended DecisionStatus = "reorder recommended"
	StatusStockSufficient    DecisionStatus = "stock sufficient"
)

var decisionMessages = map[DecisionStatus]string{
	StatusReorderRecommended: "Reorder recommended! Current stock level is below the reorder point.",
	StatusStockSufficient:    "Stock level is sufficient.",
}

// DecisionStatusFor maps the reorder flag to its status label.
func DecisionStatusFor(reorder bool) DecisionStatus {
	if reorder {
		return StatusReorderRecommended
	}
	return StatusStockSufficient
}

// Message returns the alert banner text for a status.
func (s DecisionStatus) Message() string {
	if msg, ok := decisionMessages[s]; ok {
		return msg
	}
	return ""
}
