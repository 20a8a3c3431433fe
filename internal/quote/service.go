package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-lab/internal/events"
	"github.com/noah-isme/backend-lab/internal/lock"
	"github.com/noah-isme/backend-lab/internal/obs"
	"github.com/noah-isme/backend-lab/internal/pricing"
)

// Locker serialises saves of the same document across processes.
type Locker interface {
	DocumentKey(documentID string) string
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Service coordinates drafts, saved documents and group templates around the
// pricing engine. All figures it returns are produced by the engine.
type Service struct {
	Drafts          DraftStore
	Templates       TemplateStore
	Repo            Repository
	Locker          Locker
	Events          Emitter
	Metrics         *obs.PricingMetrics
	Logger          zerolog.Logger
	BaselineTaxRate float64
	LockTTL         time.Duration
	NewID           func() string
}

// SavedPayload is the body of a document.saved event.
type SavedPayload struct {
	Kind    pricing.Kind    `json:"kind"`
	Code    string          `json:"code,omitempty"`
	Summary pricing.Summary `json:"summary"`
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) env() pricing.Env {
	return pricing.Env{NewID: s.newID, BaselineTaxRate: s.BaselineTaxRate}
}

func (s *Service) configured() error {
	if s == nil || s.Drafts == nil || s.Repo == nil {
		return errors.New("quote service not configured")
	}
	return nil
}

// Create starts a new order or quote with one empty sample and stores it as a draft.
func (s *Service) Create(ctx context.Context, in NewDocument) (View, error) {
	if err := s.configured(); err != nil {
		return View{}, err
	}
	if in.Kind != pricing.KindOrder && in.Kind != pricing.KindQuote {
		return View{}, fmt.Errorf("%w: kind must be order or quote", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.SampleName)
	if name == "" {
		name = "Sample 1"
	}
	doc := pricing.Document{
		ID:           s.newID(),
		Kind:         in.Kind,
		Code:         strings.TrimSpace(in.Code),
		Samples:      []pricing.Sample{{ID: s.newID(), Name: name, Lines: []pricing.LineItem{}}},
		DiscountRate: in.DiscountRate.Float(),
		Commission:   in.Commission.Float(),
	}
	if err := s.Drafts.PutDraft(ctx, doc); err != nil {
		return View{}, err
	}
	s.Metrics.DraftOpened()
	s.Logger.Info().Str("document_id", doc.ID).Str("kind", string(doc.Kind)).Msg("document created")
	return s.view(doc), nil
}

// Open returns the document for display. An unsaved draft wins over the saved
// record. With readOnly set an unedited saved document shows its snapshot.
func (s *Service) Open(ctx context.Context, id string, readOnly bool) (View, error) {
	if err := s.configured(); err != nil {
		return View{}, err
	}
	doc, _, err := s.current(ctx, id)
	if err != nil {
		return View{}, err
	}
	doc.ReadOnly = readOnly
	return s.view(doc), nil
}

// Apply runs one command against the document's draft, creating the draft from
// the saved record on first edit.
func (s *Service) Apply(ctx context.Context, id string, cmd Command) (View, pricing.Result, error) {
	if err := s.configured(); err != nil {
		return View{}, pricing.Result{}, err
	}
	ctx, span := otel.Tracer("quote.Service").Start(ctx, "QuoteService.Apply")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id), attribute.String("command.kind", string(cmd.Kind)))

	doc, fromDraft, err := s.current(ctx, id)
	if err != nil {
		return View{}, pricing.Result{}, err
	}
	if cmd.Kind == pricing.CmdAddGroup && cmd.Template == nil {
		if cmd.TemplateID == "" {
			return View{}, pricing.Result{}, fmt.Errorf("%w: templateId is required", ErrInvalidInput)
		}
		tmpl, err := s.GetTemplate(ctx, cmd.TemplateID)
		if err != nil {
			return View{}, pricing.Result{}, err
		}
		cmd.Template = &tmpl
	}

	updated, res, err := pricing.Apply(doc, cmd.Command, s.env())
	if err != nil {
		return View{}, res, err
	}
	if err := s.Drafts.PutDraft(ctx, updated); err != nil {
		return View{}, res, err
	}
	if !fromDraft {
		s.Metrics.DraftOpened()
	}
	if cmd.Kind == pricing.CmdEditLine {
		s.Metrics.ObserveEdit(string(cmd.Edit.Field), string(res.Resolution))
		span.SetAttributes(attribute.String("pricing.resolution", string(res.Resolution)))
	}
	s.Logger.Debug().
		Str("document_id", id).
		Str("command", string(cmd.Kind)).
		Str("resolution", string(res.Resolution)).
		Msg("command applied")
	return s.view(updated), res, nil
}

// Save persists the current draft with a freshly derived summary snapshot.
// Client supplied totals are never used.
func (s *Service) Save(ctx context.Context, id string) (View, error) {
	if err := s.configured(); err != nil {
		return View{}, err
	}
	ctx, span := otel.Tracer("quote.Service").Start(ctx, "QuoteService.Save")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id))

	var saved pricing.Document
	save := func(ctx context.Context) error {
		doc, fromDraft, err := s.current(ctx, id)
		if err != nil {
			return err
		}
		summary := pricing.Live(doc.Samples, doc.DiscountRate).Summary
		doc.Snapshot = &summary
		doc.Edited = false
		doc.ReadOnly = false
		if err := s.Repo.SaveDocument(ctx, doc, summary); err != nil {
			return err
		}
		if fromDraft {
			if _, err := s.Drafts.DeleteDraft(ctx, id); err != nil {
				s.Logger.Warn().Err(err).Str("document_id", id).Msg("drop draft after save")
			} else {
				s.Metrics.DraftClosed()
			}
		}
		if s.Events != nil {
			payload := SavedPayload{Kind: doc.Kind, Code: doc.Code, Summary: summary}
			if _, err := s.Events.Emit(ctx, events.TopicDocumentSaved, id, payload); err != nil {
				s.Logger.Warn().Err(err).Str("document_id", id).Msg("emit document saved")
			}
		}
		saved = doc
		return nil
	}

	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, s.Locker.DocumentKey(id), s.LockTTL, save)
	} else {
		err = save(ctx)
	}
	switch {
	case err == nil:
		s.Metrics.ObserveSave("ok")
	case errors.Is(err, lock.ErrNotAcquired):
		s.Metrics.ObserveSave("conflict")
		return View{}, err
	default:
		s.Metrics.ObserveSave("error")
		span.RecordError(err)
		return View{}, err
	}
	s.Logger.Info().
		Str("document_id", id).
		Float64("total", saved.Snapshot.Total).
		Msg("document saved")
	return s.view(saved), nil
}

// Discard drops the draft. Saved records are untouched.
func (s *Service) Discard(ctx context.Context, id string) error {
	if err := s.configured(); err != nil {
		return err
	}
	existed, err := s.Drafts.DeleteDraft(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: no draft for %s", ErrDocumentNotFound, id)
	}
	s.Metrics.DraftClosed()
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicDocumentDiscarded, id, nil); err != nil {
			s.Logger.Warn().Err(err).Str("document_id", id).Msg("emit document discarded")
		}
	}
	return nil
}

// Export renders the document summary with whole-unit display strings.
func (s *Service) Export(ctx context.Context, id string, readOnly bool) (Export, error) {
	view, err := s.Open(ctx, id, readOnly)
	if err != nil {
		return Export{}, err
	}
	return NewExport(view), nil
}

func (s *Service) current(ctx context.Context, id string) (pricing.Document, bool, error) {
	if strings.TrimSpace(id) == "" {
		return pricing.Document{}, false, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	draft, ok, err := s.Drafts.GetDraft(ctx, id)
	if err != nil {
		return pricing.Document{}, false, err
	}
	if ok {
		return draft, true, nil
	}
	doc, err := s.Repo.LoadDocument(ctx, id)
	if err != nil {
		return pricing.Document{}, false, err
	}
	return doc, false, nil
}

func (s *Service) view(doc pricing.Document) View {
	v := NewView(doc)
	s.Metrics.ObserveSummary(string(v.Mode))
	return v
}
