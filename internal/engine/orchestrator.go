package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/mail"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Config wires the orchestrator's collaborators. Cache and Progress are
// optional; everything else is required.
type Config struct {
	Mail         service.MailClient
	Normalizer   service.Normalizer
	Spam         SpamClassifier
	Action       ActionClassifier
	Gate         ReviewGate
	Dispatcher   Dispatcher
	Rules        RuleStore
	Recorder     service.Recorder
	Cache        VerdictCache
	ModelVersion string
	Retry        service.RetryOptions
	Progress     func(done, total int)
}

// Orchestrator drives the per-email state machine over a batch of inbox
// messages.
type Orchestrator struct {
	cfg Config
}

// New validates the configuration and creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Mail == nil:
		return nil, fmt.Errorf("%w: mail client", common.ErrMissingConfig)
	case cfg.Normalizer == nil:
		return nil, fmt.Errorf("%w: normalizer", common.ErrMissingConfig)
	case cfg.Spam == nil:
		return nil, fmt.Errorf("%w: spam classifier", common.ErrMissingConfig)
	case cfg.Action == nil:
		return nil, fmt.Errorf("%w: action classifier", common.ErrMissingConfig)
	case cfg.Gate == nil:
		return nil, fmt.Errorf("%w: review gate", common.ErrMissingConfig)
	case cfg.Dispatcher == nil:
		return nil, fmt.Errorf("%w: dispatcher", common.ErrMissingConfig)
	case cfg.Rules == nil:
		return nil, fmt.Errorf("%w: rule store", common.ErrMissingConfig)
	case cfg.Recorder == nil:
		return nil, fmt.Errorf("%w: recorder", common.ErrMissingConfig)
	}
	return &Orchestrator{cfg: cfg}, nil
}

// stageError tags a per-email failure with the pipeline stage it came from.
type stageError struct {
	err   error
	stage string
}

func (e *stageError) Error() string { return fmt.Sprintf("%s: %v", e.stage, e.err) }
func (e *stageError) Unwrap() error { return e.err }

func atStage(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

// fatalError halts the whole batch, not just the current email. Only dataset
// write failures are fatal: once records stop landing, continuing would
// silently lose provenance.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// ProcessBatch fetches up to limit inbox messages and runs each through the
// pipeline. Per-email failures are logged and counted; the batch carries on.
// The context is honored between emails, and a record write failure aborts
// the remainder of the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, limit int) (service.RunStats, error) {
	started := time.Now()
	stats := service.RunStats{StartedAt: started}

	ruleset, err := o.cfg.Rules.Load(ctx)
	if err != nil {
		return stats, err
	}
	rulesVersion := o.cfg.Rules.Version()

	runID, err := o.cfg.Recorder.StartRun(ctx, model.ProcessingContext{
		RulesVersion:        rulesVersion,
		ModelVersion:        o.cfg.ModelVersion,
		ProcessingTimestamp: started.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return stats, err
	}
	stats.RunID = runID

	ids, err := o.cfg.Mail.ListMessageIDs(ctx, limit)
	if err != nil {
		return stats, err
	}
	stats.Fetched = len(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(started)
			return stats, err
		}

		category, err := o.processOne(ctx, id, &ruleset, &rulesVersion)
		if err != nil {
			var fatal *fatalError
			if errors.As(err, &fatal) {
				stats.Failed++
				stats.Duration = time.Since(started)
				return stats, fatal.err
			}

			stage := "pipeline"
			var staged *stageError
			if errors.As(err, &staged) {
				stage = staged.stage
			}
			common.LogError(err, "email processing failed", common.Fields{
				"email_id": id,
				"stage":    stage,
			})
			stats.Failed++
		} else {
			stats.Processed++
			stats.ByCategory.Add(category)
		}

		if o.cfg.Progress != nil {
			o.cfg.Progress(i+1, len(ids))
		}
	}

	stats.Duration = time.Since(started)
	return stats, nil
}

// processOne runs the per-email state machine. The ruleset and its version
// are passed by reference: a repair persisted for this email is already in
// force for the next one.
func (o *Orchestrator) processOne(ctx context.Context, id string, ruleset, rulesVersion *string) (model.Category, error) {
	email, err := o.fetchAndNormalize(ctx, id)
	if err != nil {
		return "", err
	}

	contentHash := model.ContentHash(email.Envelope.Subject, email.Envelope.From, email.Content.Markdown)

	verdict, err := o.classifySpam(ctx, email, *ruleset, contentHash)
	if err != nil {
		return "", atStage("spam-check", err)
	}

	outcome, interaction, err := o.cfg.Gate.Review(ctx, email, verdict, *ruleset)
	if err != nil {
		var repairFailed *common.RuleRepairFailedError
		if !errors.As(err, &repairFailed) {
			return "", atStage("review", err)
		}
		// The reviewer's disagreement stands; only the ruleset repair
		// failed. Carry on with the current ruleset.
		common.LogError(err, "ruleset repair failed", common.Fields{
			"email_id":      id,
			"last_fragment": repairFailed.LastFragment,
		})
	}

	if outcome.UpdatedRuleset != "" {
		if err := o.cfg.Rules.Save(ctx, outcome.UpdatedRuleset); err != nil {
			return "", atStage("rules-save", err)
		}
		*ruleset = outcome.UpdatedRuleset
		*rulesVersion = o.cfg.Rules.Version()
	}

	decision, err := o.decide(ctx, email, verdict, outcome, *ruleset)
	if err != nil {
		return "", atStage("classify-action", err)
	}

	labels, err := o.cfg.Dispatcher.Dispatch(ctx, id, decision)
	if err != nil {
		return "", atStage("dispatch", err)
	}

	rec := &model.EmailRecord{
		ID:          id,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ContentHash: contentHash,
		ProcessingContext: model.ProcessingContext{
			RulesVersion:        *rulesVersion,
			ModelVersion:        o.cfg.ModelVersion,
			ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Envelope:            email.Envelope,
		Content:             email.Content,
		SpamAnalysis:        verdict,
		HumanInteraction:    interaction,
		FinalClassification: model.FinalFromDecision(decision),
		LabelsApplied:       labels,
	}
	if err := o.cfg.Recorder.RecordEmail(ctx, rec); err != nil {
		return "", &fatalError{err: atStage("record", err)}
	}

	return decision.Category(), nil
}

// decide picks the routing decision after review. An approved spam verdict
// short-circuits to the spam route; everything else, including spam verdicts
// the human rejected, goes to the action classifier under the current
// ruleset, so a repair made moments earlier already steers routing.
func (o *Orchestrator) decide(ctx context.Context, email *model.Email, verdict model.SpamVerdict, outcome model.ApprovalOutcome, ruleset string) (model.RoutingDecision, error) {
	if verdict.IsSpam && outcome.Approved {
		return model.SpamDecision{}, nil
	}

	var decision model.RoutingDecision
	err := common.WithRetry(ctx, func() error {
		var classifyErr error
		decision, classifyErr = o.cfg.Action.ClassifyAction(ctx, email, ruleset)
		return classifyErr
	}, o.cfg.Retry)
	return decision, err
}

func (o *Orchestrator) classifySpam(ctx context.Context, email *model.Email, ruleset, contentHash string) (model.SpamVerdict, error) {
	if o.cfg.Cache != nil {
		verdict, ok, err := o.cfg.Cache.Get(ctx, contentHash)
		if err != nil {
			common.LogError(err, "verdict cache read failed", common.Fields{"email_id": email.ID})
		} else if ok {
			return verdict, nil
		}
	}

	var verdict model.SpamVerdict
	err := common.WithRetry(ctx, func() error {
		var classifyErr error
		verdict, classifyErr = o.cfg.Spam.ClassifySpam(ctx, email, ruleset)
		return classifyErr
	}, o.cfg.Retry)
	if err != nil {
		return model.SpamVerdict{}, err
	}

	if o.cfg.Cache != nil {
		if err := o.cfg.Cache.Put(ctx, contentHash, verdict, o.cfg.ModelVersion); err != nil {
			common.LogError(err, "verdict cache write failed", common.Fields{"email_id": email.ID})
		}
	}
	return verdict, nil
}

func (o *Orchestrator) fetchAndNormalize(ctx context.Context, id string) (*model.Email, error) {
	msg, err := o.cfg.Mail.FetchRaw(ctx, id)
	if err != nil {
		return nil, atStage("fetch", err)
	}

	envelope := mail.ExtractEnvelope(msg)
	text, html := mail.ExtractBody(msg.Payload)

	textMarkdown, htmlMarkdown, err := o.cfg.Normalizer.ToMarkdown(text, html)
	if err != nil {
		return nil, atStage("normalize", err)
	}

	return &model.Email{
		ID:       id,
		Envelope: envelope,
		Content: model.Content{
			Text:     textMarkdown,
			HTML:     htmlMarkdown,
			Markdown: mail.CanonicalMarkdown(textMarkdown, htmlMarkdown),
		},
	}, nil
}

// ClassifyOne fetches and classifies a single message without the review
// gate or any side effects. Used for ad hoc inspection.
func (o *Orchestrator) ClassifyOne(ctx context.Context, id string) (*model.Email, model.SpamVerdict, error) {
	ruleset, err := o.cfg.Rules.Load(ctx)
	if err != nil {
		return nil, model.SpamVerdict{}, err
	}

	email, err := o.fetchAndNormalize(ctx, id)
	if err != nil {
		return nil, model.SpamVerdict{}, err
	}

	contentHash := model.ContentHash(email.Envelope.Subject, email.Envelope.From, email.Content.Markdown)
	verdict, err := o.classifySpam(ctx, email, ruleset, contentHash)
	if err != nil {
		return nil, model.SpamVerdict{}, err
	}
	return email, verdict, nil
}
