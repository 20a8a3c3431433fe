package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lab/internal/events"
)

type stubStore struct {
	last events.Event
	err  error
}

func (s *stubStore) InsertEvent(_ context.Context, ev events.Event) (events.Event, error) {
	if s.err != nil {
		return events.Event{}, s.err
	}
	s.last = ev
	return ev, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	fixed := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
		Now:       func() time.Time { return fixed },
	}

	ev, err := bus.Emit(context.Background(), events.TopicDocumentSaved, "doc-1", map[string]any{"total": 369360})
	require.NoError(t, err)
	require.Equal(t, events.TopicDocumentSaved, store.last.Topic)
	require.Equal(t, "doc-1", store.last.AggregateID)
	require.Equal(t, fixed, store.last.OccurredAt)
	require.JSONEq(t, `{"total":369360}`, string(store.last.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, ev.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &decoded))
	require.Equal(t, float64(369360), decoded["total"])
}

func TestEmitValidation(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), " ", "doc-1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicDocumentSaved, "", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicDocumentSaved, "doc-1", "{not json")
	require.Error(t, err)

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicDocumentSaved, "doc-1", nil)
	require.Error(t, err)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	notifyErr := errors.New("boom")
	bus := events.Bus{
		Store:     &stubStore{},
		Notifiers: []events.Notifier{&captureNotifier{err: notifyErr}, nil},
	}
	ev, err := bus.Emit(context.Background(), events.TopicTemplateChanged, "tmpl-1", nil)
	require.ErrorIs(t, err, notifyErr)
	require.Equal(t, events.TopicTemplateChanged, ev.Topic)
	require.JSONEq(t, `{}`, string(ev.Payload))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := events.LogNotifier{Logger: zerolog.New(&buf)}
	bus := events.Bus{Store: &stubStore{}, Notifiers: []events.Notifier{n}}
	_, err := bus.Emit(context.Background(), events.TopicDocumentDiscarded, "doc-9", map[string]string{"reason": "user"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"topic":"document.discarded"`)
	require.Contains(t, buf.String(), `"aggregate_id":"doc-9"`)
}
