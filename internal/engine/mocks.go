package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"google.golang.org/api/gmail/v1"

	"github.com/mailsift/mailsift/internal/model"
)

// Mock collaborators for orchestrator tests. Each records its calls and
// returns configurable results.

// MockMailClient serves canned messages from memory.
type MockMailClient struct {
	mu       sync.Mutex
	Messages map[string]*gmail.Message
	Order    []string
	Labels   map[string][]string

	ListErr  error
	FetchErr map[string]error
	LabelErr error
}

// NewMockMailClient creates an empty mock mailbox.
func NewMockMailClient() *MockMailClient {
	return &MockMailClient{
		Messages: make(map[string]*gmail.Message),
		Labels:   make(map[string][]string),
		FetchErr: make(map[string]error),
	}
}

// AddPlainMessage adds a single-part text message to the mailbox.
func (m *MockMailClient) AddPlainMessage(id, subject, from, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Messages[id] = &gmail.Message{
		Id: id,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: from},
				{Name: "Message-ID", Value: "<" + id + "@example.com>"},
			},
			Body: &gmail.MessagePartBody{
				Data: base64.RawURLEncoding.EncodeToString([]byte(body)),
			},
		},
	}
	m.Order = append(m.Order, id)
}

func (m *MockMailClient) ListMessageIDs(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	ids := m.Order
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return append([]string(nil), ids...), nil
}

func (m *MockMailClient) FetchRaw(_ context.Context, id string) (*gmail.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FetchErr[id]; err != nil {
		return nil, err
	}
	msg, ok := m.Messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

func (m *MockMailClient) ApplyLabel(_ context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LabelErr != nil {
		return m.LabelErr
	}
	m.Labels[id] = append(m.Labels[id], label)
	return nil
}

// MockNormalizer passes both parts through unchanged.
type MockNormalizer struct{}

func (MockNormalizer) ToMarkdown(text, html string) (string, string, error) {
	return text, html, nil
}

// MockSpamClassifier returns per-subject verdicts and records the ruleset
// each call saw.
type MockSpamClassifier struct {
	mu       sync.Mutex
	Verdicts map[string]model.SpamVerdict // keyed by subject
	Err      error
	calls    []string
	Rulesets []string
}

func (m *MockSpamClassifier) ClassifySpam(_ context.Context, email *model.Email, ruleset string) (model.SpamVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, email.ID)
	m.Rulesets = append(m.Rulesets, ruleset)
	if m.Err != nil {
		return model.SpamVerdict{}, m.Err
	}
	return m.Verdicts[email.Envelope.Subject], nil
}

// CallCount returns how many classifications were requested.
func (m *MockSpamClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockActionClassifier returns a fixed decision and records the ruleset each
// call saw.
type MockActionClassifier struct {
	mu       sync.Mutex
	Decision model.RoutingDecision
	Err      error
	calls    []string
	Rulesets []string
}

func (m *MockActionClassifier) ClassifyAction(_ context.Context, email *model.Email, ruleset string) (model.RoutingDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, email.ID)
	m.Rulesets = append(m.Rulesets, ruleset)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Decision == nil {
		return model.ReadLaterDecision{}, nil
	}
	return m.Decision, nil
}

// CallCount returns how many action classifications were requested.
func (m *MockActionClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockGate approves or rejects every verdict uniformly.
type MockGate struct {
	mu       sync.Mutex
	Approve  bool
	Updated  string // returned as the repaired ruleset when rejecting
	Err      error
	ErrForID map[string]error
	calls    []string
}

func (m *MockGate) Review(_ context.Context, email *model.Email, _ model.SpamVerdict, _ string) (model.ApprovalOutcome, *model.HumanInteraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, email.ID)
	if m.Err != nil {
		return model.ApprovalOutcome{}, nil, m.Err
	}
	if err := m.ErrForID[email.ID]; err != nil {
		return model.ApprovalOutcome{}, nil, err
	}

	interaction := &model.HumanInteraction{Approved: m.Approve}
	if m.Approve {
		return model.ApprovalOutcome{Approved: true}, interaction, nil
	}
	interaction.UpdatedRuleset = m.Updated
	return model.ApprovalOutcome{Approved: false, UpdatedRuleset: m.Updated}, interaction, nil
}

// CallCount returns how many reviews were requested.
func (m *MockGate) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockDispatcher records decisions and reports labels for label-bearing
// categories.
type MockDispatcher struct {
	mu        sync.Mutex
	Err       error
	Decisions map[string]model.RoutingDecision
}

func (m *MockDispatcher) Dispatch(_ context.Context, id string, decision model.RoutingDecision) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Decisions == nil {
		m.Decisions = make(map[string]model.RoutingDecision)
	}
	m.Decisions[id] = decision

	switch decision.(type) {
	case model.SpamDecision:
		return []string{"SPAM"}, nil
	case model.ReadTodayDecision:
		return []string{"@read_today"}, nil
	case model.ReadLaterDecision:
		return []string{"@read_later"}, nil
	default:
		return nil, nil
	}
}

// MockRuleStore keeps the ruleset in memory.
type MockRuleStore struct {
	mu      sync.Mutex
	Ruleset string
	Saves   []string
	LoadErr error
	SaveErr error
	version int
}

func (m *MockRuleStore) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return "", m.LoadErr
	}
	return m.Ruleset, nil
}

func (m *MockRuleStore) Save(_ context.Context, ruleset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Ruleset = ruleset
	m.Saves = append(m.Saves, ruleset)
	m.version++
	return nil
}

func (m *MockRuleStore) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("v%d", m.version)
}

// MockRecorder accumulates records in memory.
type MockRecorder struct {
	mu        sync.Mutex
	Records   []*model.EmailRecord
	StartErr  error
	RecordErr map[string]error
}

func (m *MockRecorder) StartRun(_ context.Context, _ model.ProcessingContext) (string, error) {
	if m.StartErr != nil {
		return "", m.StartErr
	}
	return "run-test", nil
}

func (m *MockRecorder) RecordEmail(_ context.Context, rec *model.EmailRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.RecordErr[rec.ID]; err != nil {
		return err
	}
	m.Records = append(m.Records, rec)
	return nil
}

// RecordedIDs returns the ids of all recorded emails in order.
func (m *MockRecorder) RecordedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.Records))
	for _, r := range m.Records {
		ids = append(ids, r.ID)
	}
	return ids
}
