package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-lab/internal/events"
	"github.com/noah-isme/backend-lab/internal/pricing"
)

// Repository persists saved documents with their summary snapshots.
type Repository interface {
	LoadDocument(ctx context.Context, id string) (pricing.Document, error)
	SaveDocument(ctx context.Context, doc pricing.Document, summary pricing.Summary) error
}

// Querier is the subset of pgxpool.Pool used by PGRepository.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository stores documents and domain events in Postgres.
type PGRepository struct {
	DB  Querier
	Now func() time.Time
}

const (
	selectDocumentSQL = `SELECT kind, coalesce(code, ''), discount_rate, commission, samples, summary
FROM documents WHERE id = $1`
	upsertDocumentSQL = `INSERT INTO documents (id, kind, code, discount_rate, commission, samples, summary, created_at, updated_at)
VALUES ($1, $2, nullif($3, ''), $4, $5, $6, $7, $8, $8)
ON CONFLICT (id) DO UPDATE SET
  kind = EXCLUDED.kind,
  code = EXCLUDED.code,
  discount_rate = EXCLUDED.discount_rate,
  commission = EXCLUDED.commission,
  samples = EXCLUDED.samples,
  summary = EXCLUDED.summary,
  updated_at = EXCLUDED.updated_at`
	listDocumentIDsSQL = `SELECT id FROM documents WHERE id > $1 ORDER BY id LIMIT $2`
	insertEventSQL     = `INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)`
)

// storedSample is the persisted shape of a sample. Lines decode through
// LineInput so rows holding amounts as formatted strings still load.
type storedSample struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Lines []LineInput `json:"lines"`
}

// LoadDocument reads a saved document. Every line is passed through
// pricing.Recover so a missing or stale unit price is rebuilt from whatever
// derived amounts were stored.
func (r PGRepository) LoadDocument(ctx context.Context, id string) (pricing.Document, error) {
	if r.DB == nil {
		return pricing.Document{}, errors.New("quote: database not configured")
	}
	var (
		kind         string
		code         string
		discountRate float64
		commission   float64
		samplesRaw   []byte
		summaryRaw   []byte
	)
	err := r.DB.QueryRow(ctx, selectDocumentSQL, id).Scan(&kind, &code, &discountRate, &commission, &samplesRaw, &summaryRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return pricing.Document{}, fmt.Errorf("quote: load document: %w", err)
	}
	samples, err := decodeSamples(samplesRaw)
	if err != nil {
		return pricing.Document{}, fmt.Errorf("quote: decode samples of %s: %w", id, err)
	}
	doc := pricing.Document{
		ID:           id,
		Kind:         pricing.Kind(kind),
		Code:         code,
		Samples:      samples,
		DiscountRate: discountRate,
		Commission:   commission,
	}
	if len(summaryRaw) > 0 && string(summaryRaw) != "null" {
		var snap pricing.Summary
		if err := json.Unmarshal(summaryRaw, &snap); err != nil {
			return pricing.Document{}, fmt.Errorf("quote: decode summary of %s: %w", id, err)
		}
		doc.Snapshot = &snap
	}
	return doc, nil
}

// SaveDocument upserts the document and its summary snapshot.
func (r PGRepository) SaveDocument(ctx context.Context, doc pricing.Document, summary pricing.Summary) error {
	if r.DB == nil {
		return errors.New("quote: database not configured")
	}
	samples, err := json.Marshal(doc.Samples)
	if err != nil {
		return err
	}
	snap, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, upsertDocumentSQL, doc.ID, string(doc.Kind), doc.Code, doc.DiscountRate, doc.Commission, samples, snap, r.now())
	if err != nil {
		return fmt.Errorf("quote: save document: %w", err)
	}
	return nil
}

// ListDocumentIDs pages through saved document ids in ascending order.
func (r PGRepository) ListDocumentIDs(ctx context.Context, after string, limit int) ([]string, error) {
	if r.DB == nil {
		return nil, errors.New("quote: database not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, listDocumentIDsSQL, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertEvent implements events.EventStore.
func (r PGRepository) InsertEvent(ctx context.Context, ev events.Event) (events.Event, error) {
	if r.DB == nil {
		return events.Event{}, errors.New("quote: database not configured")
	}
	if _, err := r.DB.Exec(ctx, insertEventSQL, ev.ID, ev.Topic, ev.AggregateID, []byte(ev.Payload), ev.OccurredAt); err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

func (r PGRepository) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func decodeSamples(raw []byte) ([]pricing.Sample, error) {
	if len(raw) == 0 {
		return []pricing.Sample{}, nil
	}
	var stored []storedSample
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	samples := make([]pricing.Sample, 0, len(stored))
	for _, s := range stored {
		lines := make([]pricing.LineItem, 0, len(s.Lines))
		for _, in := range s.Lines {
			lines = append(lines, pricing.Recover(in.LineItem()))
		}
		samples = append(samples, pricing.Sample{ID: s.ID, Name: s.Name, Lines: lines})
	}
	return samples, nil
}
