// Package engine orchestrates the triage pipeline: fetch, normalize,
// classify, human review, dispatch, record.
package engine

import (
	"context"

	"github.com/mailsift/mailsift/internal/model"
)

// SpamClassifier produces a spam verdict for an email under a ruleset.
type SpamClassifier interface {
	ClassifySpam(ctx context.Context, email *model.Email, ruleset string) (model.SpamVerdict, error)
}

// ActionClassifier picks the routing action for a non-spam email under a
// ruleset.
type ActionClassifier interface {
	ClassifyAction(ctx context.Context, email *model.Email, ruleset string) (model.RoutingDecision, error)
}

// ReviewGate obtains the human judgment on a verdict.
type ReviewGate interface {
	Review(ctx context.Context, email *model.Email, verdict model.SpamVerdict, ruleset string) (model.ApprovalOutcome, *model.HumanInteraction, error)
}

// Dispatcher executes a routing decision's side effect.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, decision model.RoutingDecision) ([]string, error)
}

// RuleStore loads and persists the spam ruleset.
type RuleStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, ruleset string) error
	Version() string
}

// VerdictCache pre-fills spam verdicts for content already classified
// recently. Cached verdicts still go through human review.
type VerdictCache interface {
	Get(ctx context.Context, contentHash string) (model.SpamVerdict, bool, error)
	Put(ctx context.Context, contentHash string, verdict model.SpamVerdict, modelVersion string) error
}
