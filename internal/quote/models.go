package quote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/noah-isme/backend-lab/internal/pricing"
)

// FlexAmount accepts a JSON number or a formatted currency string such as
// "150.000" or "Rp 1.234.567,89".
type FlexAmount float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = FlexAmount(pricing.ParseAmount(raw))
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("quote: amount %s: %w", data, err)
	}
	*f = FlexAmount(v)
	return nil
}

// Float returns the amount as a float64.
func (f FlexAmount) Float() float64 { return float64(f) }

// NewDocument describes a document to create.
type NewDocument struct {
	Kind         pricing.Kind `json:"kind" validate:"required,oneof=order quote"`
	Code         string       `json:"code" validate:"max=64"`
	DiscountRate FlexAmount   `json:"discountRate"`
	Commission   FlexAmount   `json:"commission"`
	SampleName   string       `json:"sampleName" validate:"max=200"`
}

// LineInput is a line item as submitted by a client or loaded from storage. Any
// subset of the monetary fields may be present; missing unit prices are
// recovered from the derived amounts.
type LineInput struct {
	ID             string             `json:"id"`
	ParameterID    string             `json:"parameterId"`
	Name           string             `json:"name" validate:"max=200"`
	UnitPrice      FlexAmount         `json:"unitPrice"`
	Quantity       FlexAmount         `json:"quantity"`
	DiscountRate   FlexAmount         `json:"discountRate"`
	TaxRate        FlexAmount         `json:"taxRate"`
	GrossAmount    FlexAmount         `json:"grossAmount"`
	NetAmount      FlexAmount         `json:"netAmount"`
	AfterTaxAmount FlexAmount         `json:"afterTaxAmount"`
	State          pricing.State      `json:"state"`
	Group          *pricing.GroupLink `json:"group,omitempty"`
}

// LineItem converts the input to an engine line without recomputing anything.
func (in LineInput) LineItem() pricing.LineItem {
	return pricing.LineItem{
		ID:             in.ID,
		ParameterID:    in.ParameterID,
		Name:           in.Name,
		UnitPrice:      in.UnitPrice.Float(),
		Quantity:       in.Quantity.Float(),
		DiscountRate:   in.DiscountRate.Float(),
		TaxRate:        in.TaxRate.Float(),
		GrossAmount:    in.GrossAmount.Float(),
		NetAmount:      in.NetAmount.Float(),
		AfterTaxAmount: in.AfterTaxAmount.Float(),
		State:          in.State,
		Group:          in.Group,
	}
}

// CommandRequest is the wire form of a document command.
type CommandRequest struct {
	Kind         pricing.CommandKind `json:"kind" validate:"required"`
	SampleID     string              `json:"sampleId"`
	LineID       string              `json:"lineId"`
	Name         string              `json:"name" validate:"max=200"`
	Field        pricing.Field       `json:"field"`
	Value        FlexAmount          `json:"value"`
	Line         *LineInput          `json:"line"`
	TemplateID   string              `json:"templateId"`
	DiscountRate FlexAmount          `json:"discountRate"`
}

// Command is an engine command plus the template reference the service resolves.
type Command struct {
	pricing.Command
	TemplateID string
}

// Command converts the request into a service command.
func (r CommandRequest) Command() Command {
	cmd := Command{
		Command: pricing.Command{
			Kind:         r.Kind,
			SampleID:     r.SampleID,
			LineID:       r.LineID,
			Name:         r.Name,
			Edit:         pricing.Edit{Field: r.Field, Value: r.Value.Float()},
			DiscountRate: r.DiscountRate.Float(),
		},
		TemplateID: r.TemplateID,
	}
	if r.Line != nil {
		line := r.Line.LineItem()
		cmd.Line = &line
	}
	return cmd
}

// SampleView is a sample together with its computed totals.
type SampleView struct {
	pricing.Sample
	Summary pricing.SampleSummary `json:"summary"`
}

// View is what clients render for a document.
type View struct {
	Document pricing.Document `json:"document"`
	Samples  []SampleView     `json:"samples"`
	Summary  pricing.Summary  `json:"summary"`
	Mode     pricing.Mode     `json:"mode"`
}

// NewView derives the sample and document summaries for doc.
func NewView(doc pricing.Document) View {
	summary, mode := pricing.Derive(doc)
	samples := make([]SampleView, 0, len(doc.Samples))
	for _, s := range doc.Samples {
		samples = append(samples, SampleView{Sample: s, Summary: pricing.Summarize(s.Lines)})
	}
	return View{Document: doc, Samples: samples, Summary: summary, Mode: mode}
}

// NewTemplate describes a group template to create.
type NewTemplate struct {
	Name         string         `json:"name" validate:"required,max=200"`
	DiscountRate FlexAmount     `json:"discountRate"`
	TaxRate      *FlexAmount    `json:"taxRate"`
	Items        []TemplateItem `json:"items" validate:"dive"`
}

// TemplateItem is one parameter added to a group template.
type TemplateItem struct {
	ParameterID string     `json:"parameterId" validate:"required"`
	Name        string     `json:"name" validate:"max=200"`
	NetPrice    FlexAmount `json:"netPrice"`
}

// TemplateEdit is a single field change on a group template.
type TemplateEdit struct {
	Field pricing.GroupField `json:"field" validate:"required"`
	Value FlexAmount         `json:"value"`
}
