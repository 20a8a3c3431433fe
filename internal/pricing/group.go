package pricing

// GroupField enumerates the editable aggregate fields of a group template.
type GroupField string

const (
	GroupListPrice    GroupField = "listPrice"
	GroupDiscountRate GroupField = "discountRate"
	GroupNetPrice     GroupField = "netPrice"
	GroupTaxRate      GroupField = "taxRate"
	GroupGrossPrice   GroupField = "grossPrice"
)

// GroupItem is one parameter bundled into a group template.
type GroupItem struct {
	ParameterID string `json:"parameterId"`
	Name        string `json:"name"`
	NetPrice    Amount `json:"netPrice"`
}

// GroupTemplate is a reusable priced bundle of parameters. The discount applies
// uniformly to the whole bundle.
type GroupTemplate struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Items        []GroupItem `json:"items"`
	ListPrice    Amount      `json:"listPrice"`
	DiscountRate float64     `json:"discountRate"`
	NetPrice     Amount      `json:"netPrice"`
	TaxRate      float64     `json:"taxRate"`
	GrossPrice   Amount      `json:"grossPrice"`
}

type groupRule struct {
	assign func(*GroupTemplate, float64)
	// solve derives the list price from the template; nil means forward only.
	solve func(GroupTemplate) (Amount, bool)
}

var groupRules = map[GroupField]groupRule{
	GroupListPrice: {
		assign: func(t *GroupTemplate, v float64) { t.ListPrice = v },
	},
	GroupDiscountRate: {
		assign: func(t *GroupTemplate, v float64) { t.DiscountRate = v },
	},
	GroupNetPrice: {
		assign: func(t *GroupTemplate, v float64) { t.NetPrice = v },
		solve:  listFromNet,
	},
	GroupTaxRate: {
		assign: func(t *GroupTemplate, v float64) { t.TaxRate = v },
		solve:  listFromGross,
	},
	GroupGrossPrice: {
		assign: func(t *GroupTemplate, v float64) { t.GrossPrice = v },
		solve:  listFromGross,
	},
}

func listFromNet(t GroupTemplate) (Amount, bool) {
	return divide(t.NetPrice, 1-rate(t.DiscountRate))
}

func listFromGross(t GroupTemplate) (Amount, bool) {
	return divide(t.GrossPrice, (1-rate(t.DiscountRate))*(1+rate(t.TaxRate)))
}

// GroupEditable reports whether f is a field ApplyGroupEdit understands.
func GroupEditable(f GroupField) bool {
	_, ok := groupRules[f]
	return ok
}

// ApplyGroupEdit sets one aggregate field and recomputes the others. Back-solved
// fields keep the edited value; a zero denominator keeps the previous list price.
func ApplyGroupEdit(t GroupTemplate, field GroupField, value float64) (GroupTemplate, Resolution) {
	rule, ok := groupRules[field]
	if !ok {
		return t, ResolvedForward
	}
	out := cloneGroup(t)
	rule.assign(&out, num(value))
	if rule.solve == nil {
		return forwardGroup(out), ResolvedForward
	}

	edited := out
	res := ResolvedBackSolved
	if list, ok := rule.solve(out); ok {
		out.ListPrice = list
	} else {
		res = ResolvedGuarded
	}
	out = forwardGroup(out)
	switch field {
	case GroupNetPrice:
		out.NetPrice = edited.NetPrice
	case GroupTaxRate, GroupGrossPrice:
		out.GrossPrice = edited.GrossPrice
	}
	return out, res
}

// AddGroupItem bundles item into the template, raising the list price by its net price.
func AddGroupItem(t GroupTemplate, item GroupItem) GroupTemplate {
	out := cloneGroup(t)
	out.Items = append(out.Items, item)
	out.ListPrice = num(out.ListPrice) + num(item.NetPrice)
	return forwardGroup(out)
}

// RemoveGroupItem drops the item with the given parameter id and lowers the
// list price accordingly, never below zero. Unknown ids leave t unchanged.
func RemoveGroupItem(t GroupTemplate, parameterID string) GroupTemplate {
	idx := -1
	for i, it := range t.Items {
		if it.ParameterID == parameterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return t
	}
	out := cloneGroup(t)
	removed := out.Items[idx]
	out.Items = append(out.Items[:idx], out.Items[idx+1:]...)
	out.ListPrice = num(out.ListPrice) - num(removed.NetPrice)
	if out.ListPrice < 0 {
		out.ListPrice = 0
	}
	return forwardGroup(out)
}

// ExpandGroup converts the template into line items linked back to it. Each line
// carries the template's discount and tax rates, and item prices are scaled so
// the lines add up to the template's list price.
func ExpandGroup(t GroupTemplate, newID func() string) []LineItem {
	scale := itemScale(t)
	lines := make([]LineItem, 0, len(t.Items))
	for _, it := range t.Items {
		line := LineItem{
			ID:           newID(),
			ParameterID:  it.ParameterID,
			Name:         it.Name,
			UnitPrice:    num(it.NetPrice) * scale,
			Quantity:     1,
			DiscountRate: num(t.DiscountRate),
			TaxRate:      num(t.TaxRate),
			State:        StatePriced,
			Group:        &GroupLink{GroupID: t.ID, GroupName: t.Name},
		}
		lines = append(lines, Forward(line))
	}
	return lines
}

// itemScale is the ratio of the template list price to the sum of its item
// prices. Item prices are kept as-is when they sum to zero.
func itemScale(t GroupTemplate) float64 {
	var sum float64
	for _, it := range t.Items {
		sum += num(it.NetPrice)
	}
	if scale, ok := divide(num(t.ListPrice), sum); ok {
		return scale
	}
	return 1
}

func forwardGroup(t GroupTemplate) GroupTemplate {
	t.ListPrice = num(t.ListPrice)
	t.NetPrice = t.ListPrice * (1 - rate(t.DiscountRate))
	t.GrossPrice = t.NetPrice * (1 + rate(t.TaxRate))
	return t
}

func cloneGroup(t GroupTemplate) GroupTemplate {
	out := t
	out.Items = append([]GroupItem(nil), t.Items...)
	return out
}
