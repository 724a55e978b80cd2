package rules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

// mockEditor returns queued edits in order and records each request.
type mockEditor struct {
	mu    sync.Mutex
	edits []model.RuleEdit
	err   error
	calls []EditRequest
}

func (m *mockEditor) ProposeEdit(_ context.Context, req EditRequest) (model.RuleEdit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.err != nil {
		return model.RuleEdit{}, m.err
	}

	idx := len(m.calls) - 1
	if idx >= len(m.edits) {
		idx = len(m.edits) - 1
	}
	return m.edits[idx], nil
}

func (m *mockEditor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func repairRequest(ruleset string) EditRequest {
	return EditRequest{
		Email: &model.Email{
			ID:       "msg-1",
			Envelope: model.Envelope{Subject: "Sale!", From: "shop@example.com"},
		},
		Verdict:  model.SpamVerdict{IsSpam: true, MatchedRules: []string{"sales/marketing"}},
		Feedback: "this newsletter is one I signed up for",
		Ruleset:  ruleset,
	}
}

func TestRepairerAppliesFirstUsableEdit(t *testing.T) {
	editor := &mockEditor{edits: []model.RuleEdit{
		{OldFragment: "- are a sales/marketing email", NewFragment: "- are an unsolicited sales/marketing email"},
	}}
	repairer := NewRepairer(editor)

	ruleset := DefaultRuleset
	updated, err := repairer.Repair(context.Background(), repairRequest(ruleset))
	require.NoError(t, err)
	assert.Contains(t, updated, "unsolicited sales/marketing")
	assert.Equal(t, 1, editor.callCount())
}

func TestRepairerStopsAtFirstSuccess(t *testing.T) {
	// The second queued edit would also apply; a successful first attempt
	// must end the loop before it is requested.
	editor := &mockEditor{edits: []model.RuleEdit{
		{OldFragment: "- drop X", NewFragment: "- keep X"},
		{OldFragment: "- drop Y", NewFragment: "- keep Y"},
	}}
	repairer := NewRepairer(editor)

	req := repairRequest("rules:\n- drop X\n- drop Y\n")
	updated, err := repairer.Repair(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "rules:\n- keep X\n- drop Y\n", updated)
	assert.Equal(t, 1, editor.callCount())
}

func TestRepairerRetriesUnusableProposals(t *testing.T) {
	tests := []struct {
		name  string
		edits []model.RuleEdit
	}{
		{
			name: "empty fragments",
			edits: []model.RuleEdit{
				{OldFragment: "", NewFragment: "x"},
			},
		},
		{
			name: "fragments never present",
			edits: []model.RuleEdit{
				{OldFragment: "- no such rule", NewFragment: "x"},
			},
		},
		{
			name: "mixed unusable proposals",
			edits: []model.RuleEdit{
				{OldFragment: "", NewFragment: "x"},
				{OldFragment: "- missing", NewFragment: "x"},
				{OldFragment: "- also missing", NewFragment: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := &mockEditor{edits: tt.edits}
			repairer := NewRepairer(editor)

			req := repairRequest("rules:\n- real rule\n")
			updated, err := repairer.Repair(context.Background(), req)

			var repairErr *common.RuleRepairFailedError
			require.ErrorAs(t, err, &repairErr)
			assert.Equal(t, 3, repairErr.Attempts)
			assert.Equal(t, 3, editor.callCount())
			// The ruleset survives unchanged.
			assert.Equal(t, req.Ruleset, updated)
		})
	}
}

func TestRepairerRecoversOnLaterAttempt(t *testing.T) {
	editor := &mockEditor{edits: []model.RuleEdit{
		{OldFragment: "- not here", NewFragment: "x"},
		{OldFragment: "- real rule", NewFragment: "- amended rule"},
	}}
	repairer := NewRepairer(editor)

	updated, err := repairer.Repair(context.Background(), repairRequest("rules:\n- real rule\n"))
	require.NoError(t, err)
	assert.Equal(t, "rules:\n- amended rule\n", updated)
	assert.Equal(t, 2, editor.callCount())
}

func TestRepairerEditorError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	editor := &mockEditor{err: wantErr}
	repairer := NewRepairer(editor)

	req := repairRequest("rules:\n- real rule\n")
	updated, err := repairer.Repair(context.Background(), req)
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, req.Ruleset, updated)
	assert.Equal(t, 1, editor.callCount())
}
