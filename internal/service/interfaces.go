// Package service defines the core interfaces shared between pipeline
// components.
package service

import (
	"context"
	"time"

	"github.com/mailsift/mailsift/internal/model"
	"google.golang.org/api/gmail/v1"
)

// MailClient provides mailbox access: listing, fetching and labeling.
type MailClient interface {
	// ListMessageIDs returns up to limit inbox message identifiers,
	// newest first.
	ListMessageIDs(ctx context.Context, limit int) ([]string, error)
	// FetchRaw retrieves the full message payload for one identifier.
	FetchRaw(ctx context.Context, id string) (*gmail.Message, error)
	// ApplyLabel attaches a label to a message, creating user labels on
	// demand. Applying an already-present label is a no-op.
	ApplyLabel(ctx context.Context, id, label string) error
}

// Normalizer converts raw body parts into a markdown rendition.
type Normalizer interface {
	// ToMarkdown normalizes plain-text and HTML body parts independently.
	// Either input may be empty.
	ToMarkdown(text, html string) (textMarkdown, htmlMarkdown string, err error)
}

// Notifier pushes an immediate message to the human's attention channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// DraftReviewer presents a drafted reply to the human for feedback.
type DraftReviewer interface {
	ReviewDraft(ctx context.Context, summary, body string) error
}

// Recorder persists classification outcomes with full provenance.
type Recorder interface {
	StartRun(ctx context.Context, pc model.ProcessingContext) (string, error)
	RecordEmail(ctx context.Context, rec *model.EmailRecord) error
}

// RetryOptions configures retry behavior for transient failures.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// RunStats summarizes one batch invocation of the pipeline.
type RunStats struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Fetched    int
	Processed  int
	Failed     int
	ByCategory model.ClassificationSummary
}
