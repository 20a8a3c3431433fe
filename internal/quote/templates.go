package quote

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-lab/internal/events"
	"github.com/noah-isme/backend-lab/internal/pricing"
)

// CreateTemplate stores a new group template. A missing tax rate falls back to
// the configured baseline.
func (s *Service) CreateTemplate(ctx context.Context, in NewTemplate) (pricing.GroupTemplate, error) {
	if s == nil || s.Templates == nil {
		return pricing.GroupTemplate{}, fmt.Errorf("template store not configured")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return pricing.GroupTemplate{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	taxRate := s.BaselineTaxRate
	if in.TaxRate != nil {
		taxRate = in.TaxRate.Float()
	}
	t := pricing.GroupTemplate{
		ID:           s.newID(),
		Name:         name,
		Items:        []pricing.GroupItem{},
		DiscountRate: in.DiscountRate.Float(),
		TaxRate:      taxRate,
	}
	for _, item := range in.Items {
		t = pricing.AddGroupItem(t, groupItem(item))
	}
	if err := s.putTemplate(ctx, t); err != nil {
		return pricing.GroupTemplate{}, err
	}
	return t, nil
}

// GetTemplate loads a group template.
func (s *Service) GetTemplate(ctx context.Context, id string) (pricing.GroupTemplate, error) {
	if s == nil || s.Templates == nil {
		return pricing.GroupTemplate{}, fmt.Errorf("template store not configured")
	}
	t, ok, err := s.Templates.GetTemplate(ctx, id)
	if err != nil {
		return pricing.GroupTemplate{}, err
	}
	if !ok {
		return pricing.GroupTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return t, nil
}

// EditTemplate changes one template price field and re-derives the others.
func (s *Service) EditTemplate(ctx context.Context, id string, edit TemplateEdit) (pricing.GroupTemplate, pricing.Resolution, error) {
	if !pricing.GroupEditable(edit.Field) {
		return pricing.GroupTemplate{}, "", fmt.Errorf("%w: %s", pricing.ErrUnknownField, edit.Field)
	}
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return pricing.GroupTemplate{}, "", err
	}
	t, res := pricing.ApplyGroupEdit(t, edit.Field, edit.Value.Float())
	if err := s.putTemplate(ctx, t); err != nil {
		return pricing.GroupTemplate{}, "", err
	}
	return t, res, nil
}

// AddTemplateItem appends a parameter to the template.
func (s *Service) AddTemplateItem(ctx context.Context, id string, item TemplateItem) (pricing.GroupTemplate, error) {
	if strings.TrimSpace(item.ParameterID) == "" {
		return pricing.GroupTemplate{}, fmt.Errorf("%w: parameterId is required", ErrInvalidInput)
	}
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return pricing.GroupTemplate{}, err
	}
	t = pricing.AddGroupItem(t, groupItem(item))
	if err := s.putTemplate(ctx, t); err != nil {
		return pricing.GroupTemplate{}, err
	}
	return t, nil
}

// RemoveTemplateItem removes a parameter. Unknown parameters leave the template as is.
func (s *Service) RemoveTemplateItem(ctx context.Context, id, parameterID string) (pricing.GroupTemplate, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return pricing.GroupTemplate{}, err
	}
	t = pricing.RemoveGroupItem(t, parameterID)
	if err := s.putTemplate(ctx, t); err != nil {
		return pricing.GroupTemplate{}, err
	}
	return t, nil
}

func (s *Service) putTemplate(ctx context.Context, t pricing.GroupTemplate) error {
	if err := s.Templates.PutTemplate(ctx, t); err != nil {
		return err
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicTemplateChanged, t.ID, map[string]any{
			"name":       t.Name,
			"grossPrice": t.GrossPrice,
			"items":      len(t.Items),
		}); err != nil {
			s.Logger.Warn().Err(err).Str("template_id", t.ID).Msg("emit template changed")
		}
	}
	return nil
}

func groupItem(in TemplateItem) pricing.GroupItem {
	return pricing.GroupItem{
		ParameterID: strings.TrimSpace(in.ParameterID),
		Name:        strings.TrimSpace(in.Name),
		NetPrice:    in.NetPrice.Float(),
	}
}
