package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lab/internal/events"
	"github.com/noah-isme/backend-lab/internal/obs"
	"github.com/noah-isme/backend-lab/internal/pricing"
	"github.com/noah-isme/backend-lab/internal/quote"
)

// TaskType is the asynq task type handled by Processor.
const TaskType = "document:audit"

const defaultQueue = "audit"

// TaskPayload identifies the saved document to audit.
type TaskPayload struct {
	DocumentID string `json:"documentId"`
	EventID    string `json:"eventId,omitempty"`
}

// NewTask builds an audit task for documentID.
func NewTask(payload TaskPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.DocumentID) == "" {
		return nil, errors.New("audit: document id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskType, body), nil
}

// TaskClient is the subset of *asynq.Client used by Enqueuer.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer is an events.Notifier that schedules an audit for every saved
// document. Each event enqueues at most one task.
type Enqueuer struct {
	Client   TaskClient
	Queue    string
	MaxRetry int
}

var _ events.Notifier = Enqueuer{}

// Notify implements events.Notifier.
func (e Enqueuer) Notify(ctx context.Context, ev events.Event) error {
	if e.Client == nil || ev.Topic != events.TopicDocumentSaved {
		return nil
	}
	task, err := NewTask(TaskPayload{DocumentID: ev.AggregateID, EventID: ev.ID.String()})
	if err != nil {
		return err
	}
	queue := e.Queue
	if queue == "" {
		queue = defaultQueue
	}
	maxRetry := e.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 3
	}
	_, err = e.Client.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.TaskID("audit:"+ev.ID.String()),
		asynq.MaxRetry(maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("audit: enqueue %s: %w", ev.AggregateID, err)
	}
	return nil
}

// Loader reads persisted documents.
type Loader interface {
	LoadDocument(ctx context.Context, id string) (pricing.Document, error)
}

// Processor runs audit tasks.
type Processor struct {
	Repo    Loader
	Metrics *obs.PricingMetrics
	Logger  zerolog.Logger
}

// ProcessTask implements asynq.Handler. Malformed payloads and documents that
// no longer exist are not retried.
func (p Processor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if p.Repo == nil {
		return errors.New("audit: repository not configured")
	}
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("audit: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.DocumentID == "" {
		return fmt.Errorf("audit: empty document id: %w", asynq.SkipRetry)
	}
	doc, err := p.Repo.LoadDocument(ctx, payload.DocumentID)
	if errors.Is(err, quote.ErrDocumentNotFound) {
		p.Logger.Warn().Str("document_id", payload.DocumentID).Msg("audited document no longer exists")
		return fmt.Errorf("audit: %w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	report := Check(doc)
	result := report.Result()
	p.Metrics.ObserveDrift(result)

	switch result {
	case ResultDrift:
		evt := p.Logger.Warn().Str("document_id", doc.ID).Int("fields", len(report.Diffs))
		for _, d := range report.Diffs {
			evt = evt.Float64(d.Field+"_delta", d.Delta)
		}
		evt.Msg("saved summary drifted from recomputation")
	default:
		p.Logger.Debug().Str("document_id", doc.ID).Str("result", result).Msg("document audited")
	}
	return nil
}

// Mux returns a serve mux routing audit tasks to p.
func (p Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskType, p)
	return mux
}
