package quote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-lab/internal/pricing"
)

// DraftStore keeps documents that are being edited but not yet saved.
type DraftStore interface {
	GetDraft(ctx context.Context, id string) (pricing.Document, bool, error)
	PutDraft(ctx context.Context, doc pricing.Document) error
	DeleteDraft(ctx context.Context, id string) (bool, error)
}

// TemplateStore persists group templates.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (pricing.GroupTemplate, bool, error)
	PutTemplate(ctx context.Context, t pricing.GroupTemplate) error
}

// RedisStore implements DraftStore and TemplateStore on Redis JSON values.
// Drafts expire DraftTTL after their last write; templates never expire.
type RedisStore struct {
	R        redis.Cmdable
	Prefix   string
	DraftTTL time.Duration
}

func (s RedisStore) draftKey(id string) string    { return s.prefix() + "draft:" + id }
func (s RedisStore) templateKey(id string) string { return s.prefix() + "template:" + id }

func (s RedisStore) prefix() string {
	if s.Prefix == "" {
		return "lab:"
	}
	return s.Prefix
}

// GetDraft loads a draft. It reports whether the draft existed.
func (s RedisStore) GetDraft(ctx context.Context, id string) (pricing.Document, bool, error) {
	var doc pricing.Document
	ok, err := s.getJSON(ctx, s.draftKey(id), &doc)
	return doc, ok, err
}

// PutDraft stores doc and refreshes its expiry.
func (s RedisStore) PutDraft(ctx context.Context, doc pricing.Document) error {
	if doc.ID == "" {
		return errors.New("quote: draft without id")
	}
	ttl := s.DraftTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return s.setJSON(ctx, s.draftKey(doc.ID), doc, ttl)
}

// DeleteDraft removes a draft and reports whether one was present.
func (s RedisStore) DeleteDraft(ctx context.Context, id string) (bool, error) {
	if s.R == nil {
		return false, errors.New("quote: redis client not configured")
	}
	n, err := s.R.Del(ctx, s.draftKey(id)).Result()
	return n > 0, err
}

// GetTemplate loads a group template.
func (s RedisStore) GetTemplate(ctx context.Context, id string) (pricing.GroupTemplate, bool, error) {
	var t pricing.GroupTemplate
	ok, err := s.getJSON(ctx, s.templateKey(id), &t)
	return t, ok, err
}

// PutTemplate stores a group template.
func (s RedisStore) PutTemplate(ctx context.Context, t pricing.GroupTemplate) error {
	if t.ID == "" {
		return errors.New("quote: template without id")
	}
	return s.setJSON(ctx, s.templateKey(t.ID), t, 0)
}

func (s RedisStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	if s.R == nil {
		return false, errors.New("quote: redis client not configured")
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s RedisStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.R == nil {
		return errors.New("quote: redis client not configured")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, key, data, ttl).Err()
}
