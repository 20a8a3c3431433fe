package pricing

// Sample is a named container of line items. It stores no totals.
type Sample struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Lines []LineItem `json:"lines"`
}

// SampleSummary aggregates the line items of one sample.
type SampleSummary struct {
	TotalGross    Amount `json:"totalGross"`
	TotalDiscount Amount `json:"totalDiscount"`
	TotalNet      Amount `json:"totalNet"`
	TotalAfterTax Amount `json:"totalAfterTax"`
}

// Summarize folds the provided line items into sample totals. A line's stored
// after-tax amount is used when present so manual overrides are honoured.
func Summarize(lines []LineItem) SampleSummary {
	var s SampleSummary
	for _, it := range lines {
		g := gross(it)
		s.TotalGross += g
		s.TotalDiscount += g * rate(it.DiscountRate)
		s.TotalNet += net(it)
		if at := num(it.AfterTaxAmount); at != 0 {
			s.TotalAfterTax += at
		} else {
			s.TotalAfterTax += Forward(it).AfterTaxAmount
		}
	}
	return s
}
