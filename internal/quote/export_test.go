package quote_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lab/internal/pricing"
	"github.com/noah-isme/backend-lab/internal/quote"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{184_679.2, "184.680"},
		{184_680.00000000003, "184.680"},
		{1_234_567.01, "1.234.568"},
		{-2_500.5, "-2.500"},
		{-0.4, "0"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, quote.FormatAmount(tt.in), "FormatAmount(%v)", tt.in)
	}
}

func TestNewExportRoundsOnlyForDisplay(t *testing.T) {
	line := pricing.Forward(pricing.LineItem{ID: "l1", Name: "TSS", UnitPrice: 33_333.33, Quantity: 1, TaxRate: 8})
	doc := pricing.Document{
		ID:      "doc-1",
		Kind:    pricing.KindQuote,
		Code:    "Q-9",
		Samples: []pricing.Sample{{ID: "s1", Name: "Inlet", Lines: []pricing.LineItem{line}}},
	}
	view := quote.NewView(doc)
	out := quote.NewExport(view)

	require.Equal(t, "doc-1", out.DocumentID)
	require.Equal(t, pricing.ModeLive, out.Mode)
	require.Equal(t, "33.334", out.Subtotal)
	require.Equal(t, "36.000", out.Total)
	require.Len(t, out.Samples, 1)
	require.Equal(t, "33.334", out.Samples[0].Lines[0].UnitPrice)
	require.Equal(t, "8", out.Samples[0].Lines[0].TaxRate)
	require.InDelta(t, 33_333.33, view.Summary.Subtotal, 1e-9)
}
