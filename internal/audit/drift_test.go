package audit

import (
	"testing"

	"github.com/noah-isme/backend-lab/internal/pricing"
)

func savedDocument() pricing.Document {
	line := pricing.Forward(pricing.LineItem{ID: "l1", UnitPrice: 100_000, Quantity: 2, DiscountRate: 10, TaxRate: 8})
	doc := pricing.Document{
		ID:           "doc-1",
		Kind:         pricing.KindOrder,
		DiscountRate: 5,
		Samples:      []pricing.Sample{{ID: "s1", Lines: []pricing.LineItem{line}}},
	}
	snap := pricing.Live(doc.Samples, doc.DiscountRate).Summary
	doc.Snapshot = &snap
	return doc
}

func TestCheckMatch(t *testing.T) {
	report := Check(savedDocument())
	if report.Result() != ResultMatch || len(report.Diffs) != 0 {
		t.Fatalf("expected match, got %+v", report)
	}
}

func TestCheckWithinTolerance(t *testing.T) {
	doc := savedDocument()
	doc.Snapshot.Total += 0.4
	if got := Check(doc).Result(); got != ResultMatch {
		t.Fatalf("expected match within tolerance, got %s", got)
	}
}

func TestCheckDrift(t *testing.T) {
	doc := savedDocument()
	doc.Snapshot.Total = 200_000
	doc.Snapshot.Tax = 0
	report := Check(doc)
	if report.Result() != ResultDrift {
		t.Fatalf("expected drift, got %s", report.Result())
	}
	if len(report.Diffs) != 2 || report.Diffs[0].Field != "tax" || report.Diffs[1].Field != "total" {
		t.Fatalf("unexpected diffs %+v", report.Diffs)
	}
	if report.Diffs[1].Delta != report.Live.Total-200_000 {
		t.Fatalf("unexpected delta %v", report.Diffs[1].Delta)
	}
	if doc.Snapshot.Total != 200_000 {
		t.Fatal("check must not modify the document")
	}
}

func TestCheckWithoutSnapshot(t *testing.T) {
	doc := savedDocument()
	doc.Snapshot = nil
	report := Check(doc)
	if report.Result() != ResultNoSnapshot || report.Stored != nil {
		t.Fatalf("expected no snapshot result, got %+v", report)
	}
	if report.Live.Total == 0 {
		t.Fatal("expected live summary to be computed")
	}
}
