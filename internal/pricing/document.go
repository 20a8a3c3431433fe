package pricing

// Kind distinguishes orders from quotes. Both price identically.
type Kind string

const (
	KindOrder Kind = "order"
	KindQuote Kind = "quote"
)

// Mode reports whether a summary was recomputed or taken from a snapshot.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeFrozen Mode = "frozen"
)

// Summary is the document level pricing result.
type Summary struct {
	Subtotal                 Amount `json:"subtotal"`
	DiscountAmount           Amount `json:"discountAmount"`
	NetAfterDocumentDiscount Amount `json:"netAfterDocumentDiscount"`
	Tax                      Amount `json:"tax"`
	Total                    Amount `json:"total"`
}

// Breakdown is a live summary together with the undiscounted VAT sum it was derived from.
type Breakdown struct {
	Summary
	SumVAT Amount `json:"sumVat"`
}

// Document is an order or quote.
type Document struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Code         string   `json:"code,omitempty"`
	Samples      []Sample `json:"samples"`
	DiscountRate float64  `json:"discountRate"`
	// Commission rides along with the document and never enters the pricing math.
	Commission float64 `json:"commission,omitempty"`
	ReadOnly   bool    `json:"readOnly"`
	Edited     bool    `json:"edited"`
	// Snapshot is the summary persisted when the document was last saved.
	Snapshot *Summary `json:"snapshot,omitempty"`
}

// Live recomputes the document summary from every line of every sample. The
// document discount reduces both the subtotal and the VAT sum proportionally.
func Live(samples []Sample, discountRate float64) Breakdown {
	var subtotal, sumVAT Amount
	for _, s := range samples {
		for _, it := range s.Lines {
			lineNet := net(it)
			subtotal += lineNet
			sumVAT += lineNet * rate(it.TaxRate)
		}
	}
	d := rate(discountRate)
	discount := subtotal * d
	netAfter := subtotal - discount
	tax := sumVAT * (1 - d)
	return Breakdown{
		Summary: Summary{
			Subtotal:                 subtotal,
			DiscountAmount:           discount,
			NetAfterDocumentDiscount: netAfter,
			Tax:                      tax,
			Total:                    netAfter + tax,
		},
		SumVAT: sumVAT,
	}
}

// Frozen reports whether the document's persisted snapshot should be shown as-is.
func (d Document) Frozen() bool {
	return d.ReadOnly && !d.Edited && d.Snapshot != nil
}

// Derive returns the summary to display for the document. Frozen documents
// return their snapshot verbatim; everything else is recomputed.
func Derive(d Document) (Summary, Mode) {
	if d.Frozen() {
		return *d.Snapshot, ModeFrozen
	}
	return Live(d.Samples, d.DiscountRate).Summary, ModeLive
}
