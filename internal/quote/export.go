package quote

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lab/internal/pricing"
)

// FormatAmount rounds v up to a whole currency unit and groups thousands with
// dots, e.g. 184679.2 becomes "184.680". Values are first rounded to six
// decimals so float noise such as 184680.00000000003 does not round up.
// Non-finite values render as "0".
func FormatAmount(v pricing.Amount) string {
	digits := decimal.NewFromFloat(finite(v)).Round(6).Ceil().StringFixed(0)
	negative := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	if digits == "0" {
		negative = false
	}
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ExportLine is a line item as printed on a quote.
type ExportLine struct {
	Name           string `json:"name"`
	Group          string `json:"group,omitempty"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unitPrice"`
	DiscountRate   string `json:"discountRate"`
	TaxRate        string `json:"taxRate"`
	NetAmount      string `json:"netAmount"`
	AfterTaxAmount string `json:"afterTaxAmount"`
}

// ExportSample groups printed lines with the sample's totals.
type ExportSample struct {
	Name          string       `json:"name"`
	Lines         []ExportLine `json:"lines"`
	TotalNet      string       `json:"totalNet"`
	TotalAfterTax string       `json:"totalAfterTax"`
}

// Export is the display form of a document. Rounding happens only here.
type Export struct {
	DocumentID               string         `json:"documentId"`
	Kind                     pricing.Kind   `json:"kind"`
	Code                     string         `json:"code,omitempty"`
	Mode                     pricing.Mode   `json:"mode"`
	Samples                  []ExportSample `json:"samples"`
	Subtotal                 string         `json:"subtotal"`
	DiscountRate             string         `json:"discountRate"`
	DiscountAmount           string         `json:"discountAmount"`
	NetAfterDocumentDiscount string         `json:"netAfterDocumentDiscount"`
	Tax                      string         `json:"tax"`
	Total                    string         `json:"total"`
}

// NewExport formats a view for printing.
func NewExport(v View) Export {
	out := Export{
		DocumentID:               v.Document.ID,
		Kind:                     v.Document.Kind,
		Code:                     v.Document.Code,
		Mode:                     v.Mode,
		Samples:                  make([]ExportSample, 0, len(v.Samples)),
		Subtotal:                 FormatAmount(v.Summary.Subtotal),
		DiscountRate:             formatRate(v.Document.DiscountRate),
		DiscountAmount:           FormatAmount(v.Summary.DiscountAmount),
		NetAfterDocumentDiscount: FormatAmount(v.Summary.NetAfterDocumentDiscount),
		Tax:                      FormatAmount(v.Summary.Tax),
		Total:                    FormatAmount(v.Summary.Total),
	}
	for _, s := range v.Samples {
		es := ExportSample{
			Name:          s.Name,
			Lines:         make([]ExportLine, 0, len(s.Lines)),
			TotalNet:      FormatAmount(s.Summary.TotalNet),
			TotalAfterTax: FormatAmount(s.Summary.TotalAfterTax),
		}
		for _, l := range s.Lines {
			line := ExportLine{
				Name:           l.Name,
				Quantity:       formatRate(l.Quantity),
				UnitPrice:      FormatAmount(l.UnitPrice),
				DiscountRate:   formatRate(l.DiscountRate),
				TaxRate:        formatRate(l.TaxRate),
				NetAmount:      FormatAmount(l.NetAmount),
				AfterTaxAmount: FormatAmount(l.AfterTaxAmount),
			}
			if l.Group != nil {
				line.Group = l.Group.GroupName
			}
			es.Lines = append(es.Lines, line)
		}
		out.Samples = append(out.Samples, es)
	}
	return out
}

// formatRate prints percentages and quantities without trailing zeros.
func formatRate(v float64) string {
	return decimal.NewFromFloat(finite(v)).Round(4).String()
}
