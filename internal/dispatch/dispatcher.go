// Package dispatch turns routing decisions into mailbox and notification
// side effects.
package dispatch

import (
	"context"
	"fmt"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Triage labels applied to non-spam mail.
const (
	LabelSpam      = "SPAM"
	LabelReadToday = "@read_today"
	LabelReadLater = "@read_later"
)

// Dispatcher executes the side effect of one routing decision. Side effects
// are not retried: labeling is idempotent but notifications are not, and a
// duplicate notification is worse than a logged failure.
type Dispatcher struct {
	mail     service.MailClient
	notifier service.Notifier
	reviewer service.DraftReviewer
}

// NewDispatcher creates a Dispatcher with the given side-effect targets.
func NewDispatcher(mail service.MailClient, notifier service.Notifier, reviewer service.DraftReviewer) *Dispatcher {
	return &Dispatcher{mail: mail, notifier: notifier, reviewer: reviewer}
}

// Dispatch performs the decision's side effect for one message and returns
// the mailbox labels it applied.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, decision model.RoutingDecision) ([]string, error) {
	switch v := decision.(type) {
	case model.SpamDecision:
		if err := d.mail.ApplyLabel(ctx, id, LabelSpam); err != nil {
			return nil, err
		}
		return []string{LabelSpam}, nil

	case model.ReadTodayDecision:
		if err := d.mail.ApplyLabel(ctx, id, LabelReadToday); err != nil {
			return nil, err
		}
		return []string{LabelReadToday}, nil

	case model.ReadLaterDecision:
		if err := d.mail.ApplyLabel(ctx, id, LabelReadLater); err != nil {
			return nil, err
		}
		return []string{LabelReadLater}, nil

	case model.NotifyDecision:
		if err := d.notifier.Notify(ctx, v.Message); err != nil {
			return nil, err
		}
		return nil, nil

	case model.DraftReplyDecision:
		if err := d.reviewer.ReviewDraft(ctx, v.Summary, v.Body); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %T", common.ErrUnknownCategory, decision)
	}
}
