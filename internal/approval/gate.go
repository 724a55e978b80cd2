// Package approval implements the human review gate: every spam verdict is
// shown to a reviewer before any action is taken, and a rejected verdict
// triggers a ruleset repair.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
)

// Request is one verdict awaiting human review.
type Request struct {
	Email   *model.Email
	Verdict model.SpamVerdict
}

// Response is the reviewer's judgment. Feedback is set when the reviewer
// disagrees with the verdict.
type Response struct {
	Agrees   bool
	Feedback string
}

// Approver obtains a human judgment for one proposed verdict.
type Approver interface {
	RequestApproval(ctx context.Context, req Request) (Response, error)
}

// Repairer amends the ruleset from reviewer feedback.
type Repairer interface {
	Repair(ctx context.Context, req rules.EditRequest) (string, error)
}

// Gate runs the review step. It fails closed: when no human judgment can be
// obtained, no verdict is approved and the email is not acted on.
type Gate struct {
	approver Approver
	repairer Repairer
}

// NewGate creates a Gate.
func NewGate(approver Approver, repairer Repairer) *Gate {
	return &Gate{approver: approver, repairer: repairer}
}

// Review presents the verdict to the human. Agreement yields an approved
// outcome. Disagreement triggers a ruleset repair driven by the reviewer's
// feedback; the outcome is unapproved either way, carrying the updated
// ruleset when the repair succeeded. A failed repair returns the unapproved
// outcome together with the repair error so the caller can log it and keep
// the current ruleset.
func (g *Gate) Review(ctx context.Context, email *model.Email, verdict model.SpamVerdict, ruleset string) (model.ApprovalOutcome, *model.HumanInteraction, error) {
	resp, err := g.approver.RequestApproval(ctx, Request{Email: email, Verdict: verdict})
	if err != nil {
		return model.ApprovalOutcome{}, nil, fmt.Errorf("%w: %v", common.ErrApprovalChannel, err)
	}

	interaction := &model.HumanInteraction{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Approved:  resp.Agrees,
		Feedback:  resp.Feedback,
	}

	if resp.Agrees {
		return model.ApprovalOutcome{Approved: true}, interaction, nil
	}

	updated, err := g.repairer.Repair(ctx, rules.EditRequest{
		Email:    email,
		Verdict:  verdict,
		Feedback: resp.Feedback,
		Ruleset:  ruleset,
	})
	if err != nil {
		return model.ApprovalOutcome{
			Approved:        false,
			ReviewerComment: resp.Feedback,
		}, interaction, err
	}

	interaction.UpdatedRuleset = updated
	return model.ApprovalOutcome{
		Approved:        false,
		UpdatedRuleset:  updated,
		ReviewerComment: resp.Feedback,
	}, interaction, nil
}
