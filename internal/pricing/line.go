package pricing

// State tracks how a line item's price was last determined.
type State string

const (
	// StateUnset marks a line that has never been priced.
	StateUnset State = "unset"
	// StatePriced marks a line whose derived amounts follow from its unit price.
	StatePriced State = "priced"
	// StateManuallyOverridden marks a line whose unit price was back-solved from
	// an edited tax rate or after-tax amount.
	StateManuallyOverridden State = "manually_overridden"
)

// Field enumerates the line item fields a user may edit.
type Field string

const (
	FieldUnitPrice      Field = "unitPrice"
	FieldQuantity       Field = "quantity"
	FieldDiscountRate   Field = "discountRate"
	FieldTaxRate        Field = "taxRate"
	FieldAfterTaxAmount Field = "afterTaxAmount"
)

// Resolution reports how an edit was propagated.
type Resolution string

const (
	// ResolvedForward means derived amounts were recomputed from the unit price.
	ResolvedForward Resolution = "forward"
	// ResolvedBackSolved means the unit price was recomputed from a derived field.
	ResolvedBackSolved Resolution = "backsolved"
	// ResolvedGuarded means a back-solve hit a zero denominator and the unit price was kept.
	ResolvedGuarded Resolution = "guarded"
)

// GroupLink ties a line item to the group template it was expanded from.
type GroupLink struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
}

// LineItem is one billable test parameter within a sample.
type LineItem struct {
	ID             string     `json:"id"`
	ParameterID    string     `json:"parameterId,omitempty"`
	Name           string     `json:"name"`
	UnitPrice      Amount     `json:"unitPrice"`
	Quantity       float64    `json:"quantity"`
	DiscountRate   float64    `json:"discountRate"`
	TaxRate        float64    `json:"taxRate"`
	GrossAmount    Amount     `json:"grossAmount"`
	NetAmount      Amount     `json:"netAmount"`
	AfterTaxAmount Amount     `json:"afterTaxAmount"`
	State          State      `json:"state"`
	Group          *GroupLink `json:"group,omitempty"`
}

// Edit is a single field change applied to a line item.
type Edit struct {
	Field Field   `json:"field"`
	Value float64 `json:"value"`
}

// editRule declares how one edited field is assigned and propagated.
type editRule struct {
	assign  func(*LineItem, float64)
	inverse bool
	state   State
}

var editRules = map[Field]editRule{
	FieldUnitPrice: {
		assign: func(it *LineItem, v float64) { it.UnitPrice = v },
		state:  StatePriced,
	},
	FieldQuantity: {
		assign: func(it *LineItem, v float64) { it.Quantity = v },
		state:  StatePriced,
	},
	FieldDiscountRate: {
		assign: func(it *LineItem, v float64) { it.DiscountRate = v },
		state:  StatePriced,
	},
	// The after-tax amount stays as it was; the unit price absorbs the new rate.
	FieldTaxRate: {
		assign:  func(it *LineItem, v float64) { it.TaxRate = v },
		inverse: true,
		state:   StateManuallyOverridden,
	},
	FieldAfterTaxAmount: {
		assign:  func(it *LineItem, v float64) { it.AfterTaxAmount = v },
		inverse: true,
		state:   StateManuallyOverridden,
	},
}

// Editable reports whether f is a field ApplyEdit understands.
func Editable(f Field) bool {
	_, ok := editRules[f]
	return ok
}

// ApplyEdit returns a copy of item with the edit applied and every dependent
// field recomputed. Unknown fields leave the item unchanged.
func ApplyEdit(item LineItem, e Edit) (LineItem, Resolution) {
	rule, ok := editRules[e.Field]
	if !ok {
		return item, ResolvedForward
	}
	out := item
	rule.assign(&out, num(e.Value))
	out.State = rule.state
	if !rule.inverse {
		return Forward(out), ResolvedForward
	}
	return backSolve(out)
}

// Forward recomputes gross, net and after-tax amounts from the unit price.
func Forward(item LineItem) LineItem {
	item.GrossAmount = gross(item)
	item.NetAmount = net(item)
	item.AfterTaxAmount = item.NetAmount * (1 + rate(item.TaxRate))
	return item
}

// backSolve derives the unit price from the current after-tax amount. When the
// denominator is zero the previous unit price is kept. The after-tax amount is
// never rewritten so an edited value reads back exactly.
func backSolve(item LineItem) (LineItem, Resolution) {
	afterTax := num(item.AfterTaxAmount)
	res := ResolvedBackSolved
	if price, ok := divide(afterTax, backSolveDenominator(item)); ok {
		item.UnitPrice = price
	} else {
		res = ResolvedGuarded
	}
	item.GrossAmount = gross(item)
	item.NetAmount = net(item)
	item.AfterTaxAmount = afterTax
	return item, res
}

func backSolveDenominator(item LineItem) float64 {
	return qty(item.Quantity) * (1 - rate(item.DiscountRate)) * (1 + rate(item.TaxRate))
}

func gross(item LineItem) Amount {
	return num(item.UnitPrice) * qty(item.Quantity)
}

func net(item LineItem) Amount {
	return gross(item) * (1 - rate(item.DiscountRate))
}

// NewBlankLine returns a manually entered line with every amount zeroed and the
// baseline tax rate applied.
func NewBlankLine(id string, baselineTaxRate float64) LineItem {
	return LineItem{
		ID:       id,
		Quantity: 1,
		TaxRate:  num(baselineTaxRate),
		State:    StateUnset,
	}
}

// CatalogEntry is a parameter selected from the catalog. Catalog prices are
// quoted as net and after-tax amounts; the unit price may be missing.
type CatalogEntry struct {
	ParameterID    string
	Name           string
	UnitPrice      Amount
	NetAmount      Amount
	AfterTaxAmount Amount
	TaxRate        float64
}

// FromCatalog builds a priced line item from a catalog entry.
func FromCatalog(id string, entry CatalogEntry) LineItem {
	return Recover(LineItem{
		ID:             id,
		ParameterID:    entry.ParameterID,
		Name:           entry.Name,
		UnitPrice:      entry.UnitPrice,
		Quantity:       1,
		TaxRate:        entry.TaxRate,
		NetAmount:      entry.NetAmount,
		AfterTaxAmount: entry.AfterTaxAmount,
	})
}

// Recover normalises a partially populated line item, typically one loaded from
// storage or the catalog. A missing unit price is recovered from the after-tax
// amount, or failing that from the net amount.
func Recover(item LineItem) LineItem {
	item.UnitPrice = num(item.UnitPrice)
	item.Quantity = num(item.Quantity)
	item.DiscountRate = num(item.DiscountRate)
	item.TaxRate = num(item.TaxRate)
	item.NetAmount = num(item.NetAmount)
	item.AfterTaxAmount = num(item.AfterTaxAmount)

	switch {
	case item.UnitPrice != 0:
		if item.State == StateUnset || item.State == "" {
			item.State = StatePriced
		}
		if item.State == StateManuallyOverridden && item.AfterTaxAmount != 0 {
			item.GrossAmount = gross(item)
			item.NetAmount = net(item)
			return item
		}
		return Forward(item)
	case item.AfterTaxAmount != 0:
		recovered, res := backSolve(item)
		switch {
		case res == ResolvedGuarded:
			recovered.State = StateManuallyOverridden
		case recovered.State == "" || recovered.State == StateUnset:
			recovered.State = StatePriced
		}
		return recovered
	case item.NetAmount != 0:
		if price, ok := divide(item.NetAmount, qty(item.Quantity)*(1-rate(item.DiscountRate))); ok {
			item.UnitPrice = price
			item.State = StatePriced
		}
		return Forward(item)
	default:
		if item.State == "" {
			item.State = StateUnset
		}
		return Forward(item)
	}
}
