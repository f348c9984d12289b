package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	name     string
	err      error
	received []string
}

func (s *stubSender) Send(_ context.Context, title, message string) error {
	s.received = append(s.received, title+"|"+message)
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func TestNotify_DeliversToAllSenders(t *testing.T) {
	a := &stubSender{name: "a"}
	b := &stubSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, slog.New(slog.DiscardHandler))

	require.NoError(t, n.Notify(context.Background(), EventArbitrage, "title", "body"))
	assert.Equal(t, []string{"title|body"}, a.received)
	assert.Equal(t, []string{"title|body"}, b.received)
}

func TestNotify_EventFilter(t *testing.T) {
	s := &stubSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{EventArbitrage}, slog.New(slog.DiscardHandler))

	require.NoError(t, n.Notify(context.Background(), EventMatch, "skip", "me"))
	assert.Empty(t, s.received)

	require.NoError(t, n.Notify(context.Background(), EventArbitrage, "send", "me"))
	assert.Len(t, s.received, 1)
}

func TestNotify_SenderFailureDoesNotBlockOthers(t *testing.T) {
	failing := &stubSender{name: "broken", err: errors.New("timeout")}
	working := &stubSender{name: "ok"}
	n := NewNotifier([]Sender{failing, working}, nil, slog.New(slog.DiscardHandler))

	err := n.Notify(context.Background(), EventArbitrage, "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Len(t, working.received, 1)
}

func TestNotify_NoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, slog.New(slog.DiscardHandler))
	assert.NoError(t, n.Notify(context.Background(), EventArbitrage, "t", "m"))
}
