package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

type labelCall struct {
	ID    string
	Label string
}

type mockMail struct {
	mu     sync.Mutex
	labels []labelCall
	err    error
}

func (m *mockMail) ListMessageIDs(_ context.Context, _ int) ([]string, error) { return nil, nil }

func (m *mockMail) FetchRaw(_ context.Context, _ string) (*gmail.Message, error) { return nil, nil }

func (m *mockMail) ApplyLabel(_ context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.labels = append(m.labels, labelCall{ID: id, Label: label})
	return nil
}

type mockNotifier struct {
	messages []string
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, message string) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message)
	return nil
}

type mockReviewer struct {
	summaries []string
	bodies    []string
	err       error
}

func (m *mockReviewer) ReviewDraft(_ context.Context, summary, body string) error {
	if m.err != nil {
		return m.err
	}
	m.summaries = append(m.summaries, summary)
	m.bodies = append(m.bodies, body)
	return nil
}

func TestDispatchLabels(t *testing.T) {
	tests := []struct {
		name      string
		decision  model.RoutingDecision
		wantLabel string
	}{
		{"spam", model.SpamDecision{}, LabelSpam},
		{"read today", model.ReadTodayDecision{}, LabelReadToday},
		{"read later", model.ReadLaterDecision{}, LabelReadLater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := &mockMail{}
			d := NewDispatcher(mail, &mockNotifier{}, &mockReviewer{})

			labels, err := d.Dispatch(context.Background(), "m1", tt.decision)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantLabel}, labels)
			require.Len(t, mail.labels, 1)
			assert.Equal(t, labelCall{ID: "m1", Label: tt.wantLabel}, mail.labels[0])
		})
	}
}

func TestDispatchNotify(t *testing.T) {
	notifier := &mockNotifier{}
	d := NewDispatcher(&mockMail{}, notifier, &mockReviewer{})

	labels, err := d.Dispatch(context.Background(), "m1",
		model.NotifyDecision{Message: "Your package arrives today"})
	require.NoError(t, err)
	assert.Empty(t, labels)
	assert.Equal(t, []string{"Your package arrives today"}, notifier.messages)
}

func TestDispatchDraftReply(t *testing.T) {
	reviewer := &mockReviewer{}
	d := NewDispatcher(&mockMail{}, &mockNotifier{}, reviewer)

	labels, err := d.Dispatch(context.Background(), "m1",
		model.DraftReplyDecision{Summary: "Meeting request", Body: "Thursday works."})
	require.NoError(t, err)
	assert.Empty(t, labels)
	assert.Equal(t, []string{"Meeting request"}, reviewer.summaries)
	assert.Equal(t, []string{"Thursday works."}, reviewer.bodies)
}

func TestDispatchUnknownDecision(t *testing.T) {
	d := NewDispatcher(&mockMail{}, &mockNotifier{}, &mockReviewer{})
	_, err := d.Dispatch(context.Background(), "m1", nil)
	require.ErrorIs(t, err, common.ErrUnknownCategory)
}

func TestDispatchPropagatesFailures(t *testing.T) {
	wantErr := errors.New("mailbox unavailable")

	d := NewDispatcher(&mockMail{err: wantErr}, &mockNotifier{}, &mockReviewer{})
	_, err := d.Dispatch(context.Background(), "m1", model.SpamDecision{})
	require.ErrorIs(t, err, wantErr)

	d = NewDispatcher(&mockMail{}, &mockNotifier{err: wantErr}, &mockReviewer{})
	_, err = d.Dispatch(context.Background(), "m1", model.NotifyDecision{Message: "x"})
	require.ErrorIs(t, err, wantErr)
}
