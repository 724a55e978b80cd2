package model

// Category names the downstream action chosen for a non-spam email, or spam.
type Category string

// Routing categories.
const (
	CategorySpam              Category = "spam"
	CategoryReadToday         Category = "read_today"
	CategoryReadLater         Category = "read_later"
	CategoryNotifyImmediately Category = "notify_immediately"
	CategoryDraftReply        Category = "draft_reply"
)

// RoutingDecision is the action classifier's output: exactly one variant per
// email per run. The sealed marker method keeps the variant set closed so
// dispatch switches stay exhaustive.
type RoutingDecision interface {
	Category() Category
	routingDecision()
}

// SpamDecision routes an email to the spam label.
type SpamDecision struct{}

// ReadTodayDecision routes an email to the @read_today label.
type ReadTodayDecision struct{}

// ReadLaterDecision routes an email to the @read_later label.
type ReadLaterDecision struct{}

// NotifyDecision pushes a message to the human-notification channel.
type NotifyDecision struct {
	Message string
}

// DraftReplyDecision solicits reviewer feedback on a drafted reply.
type DraftReplyDecision struct {
	Summary string
	Body    string
}

// Category implementations.

// Category returns CategorySpam.
func (SpamDecision) Category() Category { return CategorySpam }

// Category returns CategoryReadToday.
func (ReadTodayDecision) Category() Category { return CategoryReadToday }

// Category returns CategoryReadLater.
func (ReadLaterDecision) Category() Category { return CategoryReadLater }

// Category returns CategoryNotifyImmediately.
func (NotifyDecision) Category() Category { return CategoryNotifyImmediately }

// Category returns CategoryDraftReply.
func (DraftReplyDecision) Category() Category { return CategoryDraftReply }

func (SpamDecision) routingDecision()       {}
func (ReadTodayDecision) routingDecision()  {}
func (ReadLaterDecision) routingDecision()  {}
func (NotifyDecision) routingDecision()     {}
func (DraftReplyDecision) routingDecision() {}

// FinalClassification is the flat, persisted form of a RoutingDecision.
type FinalClassification struct {
	Category Category `json:"category"`
	Summary  string   `json:"summary,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// FinalFromDecision flattens a RoutingDecision for dataset persistence.
func FinalFromDecision(d RoutingDecision) FinalClassification {
	switch v := d.(type) {
	case NotifyDecision:
		return FinalClassification{Category: v.Category(), Message: v.Message}
	case DraftReplyDecision:
		return FinalClassification{Category: v.Category(), Summary: v.Summary}
	default:
		return FinalClassification{Category: d.Category()}
	}
}
