package audit

import (
	"math"

	"github.com/noah-isme/backend-lab/internal/pricing"
)

// Tolerance is the absolute difference, in currency units, below which a stored
// and a recomputed figure are considered equal.
const Tolerance = 0.5

// Audit results, also used as metric labels.
const (
	ResultMatch      = "match"
	ResultDrift      = "drift"
	ResultNoSnapshot = "no_snapshot"
)

// FieldDiff is one summary figure that differs beyond Tolerance.
type FieldDiff struct {
	Field  string         `json:"field"`
	Stored pricing.Amount `json:"stored"`
	Live   pricing.Amount `json:"live"`
	Delta  pricing.Amount `json:"delta"`
}

// Report compares the snapshot saved with a document against a fresh
// recomputation of its lines.
type Report struct {
	DocumentID string           `json:"documentId"`
	Stored     *pricing.Summary `json:"stored,omitempty"`
	Live       pricing.Summary  `json:"live"`
	Diffs      []FieldDiff      `json:"diffs,omitempty"`
}

// Result classifies the report.
func (r Report) Result() string {
	switch {
	case r.Stored == nil:
		return ResultNoSnapshot
	case len(r.Diffs) > 0:
		return ResultDrift
	default:
		return ResultMatch
	}
}

// Check recomputes the live summary of doc and lists every figure that moved
// away from the persisted snapshot. It only reports; the document is untouched.
func Check(doc pricing.Document) Report {
	live := pricing.Live(doc.Samples, doc.DiscountRate).Summary
	report := Report{DocumentID: doc.ID, Live: live}
	if doc.Snapshot == nil {
		return report
	}
	stored := *doc.Snapshot
	report.Stored = &stored

	figures := []struct {
		name         string
		stored, live pricing.Amount
	}{
		{"subtotal", stored.Subtotal, live.Subtotal},
		{"discountAmount", stored.DiscountAmount, live.DiscountAmount},
		{"netAfterDocumentDiscount", stored.NetAfterDocumentDiscount, live.NetAfterDocumentDiscount},
		{"tax", stored.Tax, live.Tax},
		{"total", stored.Total, live.Total},
	}
	for _, f := range figures {
		delta := f.live - f.stored
		if math.IsNaN(delta) || math.Abs(delta) > Tolerance {
			report.Diffs = append(report.Diffs, FieldDiff{Field: f.name, Stored: f.stored, Live: f.live, Delta: delta})
		}
	}
	return report
}
