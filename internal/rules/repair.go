package rules

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

const maxRepairAttempts = 3

// EditRequest carries everything the editor needs to propose a ruleset patch:
// the email under review, the verdict the human rejected, the human's
// feedback, and the ruleset to amend.
type EditRequest struct {
	Email    *model.Email
	Verdict  model.SpamVerdict
	Feedback string
	Ruleset  string
}

// Editor proposes a fragment-level ruleset edit. Implementations are LLM
// backed; the proposed old fragment must occur verbatim in the ruleset.
type Editor interface {
	ProposeEdit(ctx context.Context, req EditRequest) (model.RuleEdit, error)
}

// Repairer amends the ruleset after a human disagreed with a verdict, asking
// the Editor for fragment patches until one applies.
type Repairer struct {
	editor Editor
}

// NewRepairer creates a Repairer using the given editor.
func NewRepairer(editor Editor) *Repairer {
	return &Repairer{editor: editor}
}

// Repair returns an updated ruleset incorporating the reviewer's feedback.
// Each attempt asks the editor for an edit and applies the first one whose
// old fragment locates in the ruleset. Unusable proposals (empty fragment,
// fragment not present) consume an attempt. After three failed attempts the
// ruleset is returned unchanged with a *common.RuleRepairFailedError.
func (r *Repairer) Repair(ctx context.Context, req EditRequest) (string, error) {
	var lastFragment string

	for attempt := 1; attempt <= maxRepairAttempts; attempt++ {
		edit, err := r.editor.ProposeEdit(ctx, req)
		if err != nil {
			return req.Ruleset, err
		}

		lastFragment = edit.OldFragment
		if edit.OldFragment == "" {
			slog.Warn("Rule editor proposed empty fragment",
				"attempt", attempt,
				"max_attempts", maxRepairAttempts)
			continue
		}

		updated, err := ApplyPatch(req.Ruleset, edit.OldFragment, edit.NewFragment)
		if err != nil {
			if errors.Is(err, common.ErrPatchNotFound) {
				slog.Warn("Proposed fragment not found in ruleset",
					"attempt", attempt,
					"max_attempts", maxRepairAttempts,
					"fragment", edit.OldFragment)
				continue
			}
			return req.Ruleset, err
		}

		return updated, nil
	}

	return req.Ruleset, &common.RuleRepairFailedError{
		LastFragment: lastFragment,
		Attempts:     maxRepairAttempts,
	}
}
