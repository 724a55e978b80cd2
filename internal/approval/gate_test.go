package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
)

type mockApprover struct {
	resp     Response
	err      error
	requests []Request
}

func (m *mockApprover) RequestApproval(_ context.Context, req Request) (Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return Response{}, m.err
	}
	return m.resp, nil
}

type mockRepairer struct {
	result string
	err    error
	calls  []rules.EditRequest
}

func (m *mockRepairer) Repair(_ context.Context, req rules.EditRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return req.Ruleset, m.err
	}
	return m.result, nil
}

func reviewEmail() *model.Email {
	return &model.Email{
		ID: "msg-1",
		Envelope: model.Envelope{
			Subject: "50% off everything",
			From:    "deals@shop.example.com",
		},
		Content: model.Content{Markdown: "Huge discounts this week only."},
	}
}

func TestGateApprovesOnAgreement(t *testing.T) {
	approver := &mockApprover{resp: Response{Agrees: true}}
	repairer := &mockRepairer{}
	gate := NewGate(approver, repairer)

	verdict := model.SpamVerdict{IsSpam: true}
	outcome, interaction, err := gate.Review(context.Background(), reviewEmail(), verdict, "ruleset")
	require.NoError(t, err)
	assert.True(t, outcome.Approved)
	assert.Empty(t, outcome.UpdatedRuleset)

	require.NotNil(t, interaction)
	assert.True(t, interaction.Approved)

	// Agreement never touches the ruleset.
	assert.Empty(t, repairer.calls)
}

func TestGateRepairsOnDisagreement(t *testing.T) {
	approver := &mockApprover{resp: Response{Agrees: false, Feedback: "I subscribed to this"}}
	repairer := &mockRepairer{result: "amended ruleset"}
	gate := NewGate(approver, repairer)

	outcome, interaction, err := gate.Review(context.Background(), reviewEmail(),
		model.SpamVerdict{IsSpam: true}, "original ruleset")
	require.NoError(t, err)
	assert.False(t, outcome.Approved)
	assert.Equal(t, "amended ruleset", outcome.UpdatedRuleset)
	assert.Equal(t, "I subscribed to this", outcome.ReviewerComment)

	require.NotNil(t, interaction)
	assert.False(t, interaction.Approved)
	assert.Equal(t, "amended ruleset", interaction.UpdatedRuleset)

	require.Len(t, repairer.calls, 1)
	assert.Equal(t, "original ruleset", repairer.calls[0].Ruleset)
	assert.Equal(t, "I subscribed to this", repairer.calls[0].Feedback)
}

func TestGateSurfacesRepairFailure(t *testing.T) {
	repairErr := &common.RuleRepairFailedError{LastFragment: "- bad fragment", Attempts: 3}
	approver := &mockApprover{resp: Response{Agrees: false, Feedback: "wrong"}}
	repairer := &mockRepairer{err: repairErr}
	gate := NewGate(approver, repairer)

	outcome, interaction, err := gate.Review(context.Background(), reviewEmail(),
		model.SpamVerdict{IsSpam: true}, "ruleset")

	var failed *common.RuleRepairFailedError
	require.ErrorAs(t, err, &failed)
	assert.False(t, outcome.Approved)
	// No updated ruleset on a failed repair; the caller keeps the current one.
	assert.Empty(t, outcome.UpdatedRuleset)
	require.NotNil(t, interaction)
	assert.Empty(t, interaction.UpdatedRuleset)
}

func TestGateFailsClosedOnApproverError(t *testing.T) {
	approver := &mockApprover{err: errors.New("terminal went away")}
	repairer := &mockRepairer{}
	gate := NewGate(approver, repairer)

	_, interaction, err := gate.Review(context.Background(), reviewEmail(),
		model.SpamVerdict{IsSpam: false}, "ruleset")
	require.ErrorIs(t, err, common.ErrApprovalChannel)
	assert.Nil(t, interaction)
	assert.Empty(t, repairer.calls)
}
