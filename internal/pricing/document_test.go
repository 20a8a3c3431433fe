package pricing

import (
	"testing"
)

func TestSummarizeScenario(t *testing.T) {
	s := Summarize([]LineItem{scenarioLine()})
	if !approx(s.TotalGross, 200_000) || !approx(s.TotalDiscount, 20_000) || !approx(s.TotalNet, 180_000) || !approx(s.TotalAfterTax, 194_400) {
		t.Fatalf("unexpected sample summary %+v", s)
	}
}

func TestSummarizeUsesStoredAfterTax(t *testing.T) {
	overridden, _ := ApplyEdit(scenarioLine(), Edit{Field: FieldAfterTaxAmount, Value: 123_456})
	plain := Forward(LineItem{UnitPrice: 1_000, TaxRate: 10})
	lines := []LineItem{overridden, plain}
	s := Summarize(lines)
	want := overridden.AfterTaxAmount + plain.AfterTaxAmount
	if s.TotalAfterTax != want {
		t.Fatalf("expected total after tax %v, got %v", want, s.TotalAfterTax)
	}
}

func TestSummarizeComputesMissingAfterTax(t *testing.T) {
	s := Summarize([]LineItem{{UnitPrice: 1_000, Quantity: 2, TaxRate: 10}})
	if !approx(s.TotalAfterTax, 2_200) {
		t.Fatalf("expected computed after tax 2200, got %v", s.TotalAfterTax)
	}
}

func TestSummarizeDoesNotCache(t *testing.T) {
	lines := []LineItem{scenarioLine()}
	first := Summarize(lines)
	lines[0], _ = ApplyEdit(lines[0], Edit{Field: FieldQuantity, Value: 1})
	second := Summarize(lines)
	if approx(first.TotalNet, second.TotalNet) {
		t.Fatalf("expected summary to follow the edit, got %v twice", first.TotalNet)
	}
}

func TestLiveScenario(t *testing.T) {
	samples := []Sample{{ID: "s1", Lines: []LineItem{scenarioLine(), scenarioLine()}}}
	b := Live(samples, 5)
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"subtotal", b.Subtotal, 360_000},
		{"sumVAT", b.SumVAT, 28_800},
		{"discount", b.DiscountAmount, 18_000},
		{"net after discount", b.NetAfterDocumentDiscount, 342_000},
		{"tax", b.Tax, 27_360},
		{"total", b.Total, 369_360},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestLiveEmptyDocument(t *testing.T) {
	if got := Live(nil, 10).Summary; got != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}
	summary, mode := Derive(Document{})
	if summary != (Summary{}) || mode != ModeLive {
		t.Fatalf("expected zero live summary, got %+v (%s)", summary, mode)
	}
}

func TestLiveWithoutDocumentDiscountMatchesSamples(t *testing.T) {
	overridden, _ := ApplyEdit(scenarioLine(), Edit{Field: FieldTaxRate, Value: 10})
	samples := []Sample{
		{ID: "s1", Lines: []LineItem{scenarioLine(), Forward(LineItem{UnitPrice: 75_000, Quantity: 3, TaxRate: 5})}},
		{ID: "s2", Lines: []LineItem{overridden}},
	}
	var sampleTotal float64
	for _, s := range samples {
		sampleTotal += Summarize(s.Lines).TotalAfterTax
	}
	doc := Live(samples, 0)
	if !approx(doc.Total, sampleTotal) {
		t.Fatalf("expected document total %v to equal sample totals %v", doc.Total, sampleTotal)
	}
	if doc.DiscountAmount != 0 || doc.Tax != doc.SumVAT {
		t.Fatalf("expected no discount effect, got %+v", doc)
	}
}

func TestDeriveModes(t *testing.T) {
	snapshot := Summary{Subtotal: 1, DiscountAmount: 2, NetAfterDocumentDiscount: 3, Tax: 4, Total: 5}
	base := Document{
		ID:           "d1",
		Samples:      []Sample{{ID: "s1", Lines: []LineItem{scenarioLine()}}},
		DiscountRate: 0,
		Snapshot:     &snapshot,
	}

	frozen := base
	frozen.ReadOnly = true
	got, mode := Derive(frozen)
	if mode != ModeFrozen || got != snapshot {
		t.Fatalf("expected frozen snapshot, got %+v (%s)", got, mode)
	}

	edited := frozen
	edited.Edited = true
	got, mode = Derive(edited)
	if mode != ModeLive || !approx(got.Total, 194_400) {
		t.Fatalf("expected live summary after edit, got %+v (%s)", got, mode)
	}

	got, mode = Derive(base)
	if mode != ModeLive || !approx(got.Subtotal, 180_000) {
		t.Fatalf("expected live summary for editable document, got %+v (%s)", got, mode)
	}

	noSnapshot := frozen
	noSnapshot.Snapshot = nil
	if _, mode = Derive(noSnapshot); mode != ModeLive {
		t.Fatalf("expected live mode without snapshot, got %s", mode)
	}
}

func TestCommissionDoesNotAffectPricing(t *testing.T) {
	samples := []Sample{{ID: "s1", Lines: []LineItem{scenarioLine()}}}
	a, _ := Derive(Document{Samples: samples})
	b, _ := Derive(Document{Samples: samples, Commission: 15})
	if a != b {
		t.Fatalf("commission changed the summary: %+v vs %+v", a, b)
	}
}

func TestGuardedLineSampleAndDocumentTotalsDiverge(t *testing.T) {
	line := Forward(LineItem{ID: "l1", UnitPrice: 10_000, DiscountRate: 100, TaxRate: 8})
	line, res := ApplyEdit(line, Edit{Field: FieldAfterTaxAmount, Value: 500})
	if res != ResolvedGuarded {
		t.Fatalf("expected guarded resolution, got %s", res)
	}
	samples := []Sample{{ID: "s1", Lines: []LineItem{line}}}
	if got := Summarize(samples[0].Lines).TotalAfterTax; got != 500 {
		t.Fatalf("expected sample to keep the entered 500, got %v", got)
	}
	if got := Live(samples, 0).Total; got != 0 {
		t.Fatalf("expected document total from recomputed net 0, got %v", got)
	}
}
