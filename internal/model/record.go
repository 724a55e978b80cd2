package model

import (
	"strings"
	"time"
)

// ProcessingContext snapshots the ruleset and model versions in effect when an
// email was classified, making every record reproducible after the fact.
type ProcessingContext struct {
	RulesVersion        string `json:"rules_version"`
	ModelVersion        string `json:"model_version"`
	ProcessingTimestamp string `json:"processing_timestamp"`
}

// HumanInteraction traces the reviewer's involvement with one email.
type HumanInteraction struct {
	Timestamp      string `json:"timestamp"`
	Approved       bool   `json:"approved"`
	Feedback       string `json:"feedback,omitempty"`
	UpdatedRuleset string `json:"updated_ruleset,omitempty"`
}

// EmailRecord is the dataset entity for one email in one pipeline run.
// Keyed by message identifier within a run; across runs the message
// accumulates one record per run, enabling drift detection.
type EmailRecord struct {
	ID                  string              `json:"id"`
	Timestamp           string              `json:"timestamp"`
	ContentHash         string              `json:"content_hash"`
	ProcessingContext   ProcessingContext   `json:"processing_context"`
	Envelope            Envelope            `json:"envelope"`
	Content             Content             `json:"content"`
	SpamAnalysis        SpamVerdict         `json:"spam_analysis"`
	HumanInteraction    *HumanInteraction   `json:"human_interaction,omitempty"`
	FinalClassification FinalClassification `json:"final_classification"`
	LabelsApplied       []string            `json:"labels_applied"`
}

// RunMetadata describes one pipeline invocation. Counts are updated as emails
// complete.
type RunMetadata struct {
	RunID                 string                `json:"run_id"`
	Timestamp             string                `json:"timestamp"`
	ProcessingContext     ProcessingContext     `json:"processing_context"`
	EmailCount            int                   `json:"email_count"`
	ClassificationSummary ClassificationSummary `json:"classification_summary"`
}

// ClassificationSummary counts recorded emails per routing category.
type ClassificationSummary struct {
	Spam              int `json:"spam"`
	ReadToday         int `json:"read_today"`
	ReadLater         int `json:"read_later"`
	NotifyImmediately int `json:"notify_immediately"`
	DraftReply        int `json:"draft_reply"`
}

// Add increments the counter for the given category.
func (s *ClassificationSummary) Add(c Category) {
	switch c {
	case CategorySpam:
		s.Spam++
	case CategoryReadToday:
		s.ReadToday++
	case CategoryReadLater:
		s.ReadLater++
	case CategoryNotifyImmediately:
		s.NotifyImmediately++
	case CategoryDraftReply:
		s.DraftReply++
	}
}

// Remove decrements the counter for the given category.
func (s *ClassificationSummary) Remove(c Category) {
	switch c {
	case CategorySpam:
		s.Spam--
	case CategoryReadToday:
		s.ReadToday--
	case CategoryReadLater:
		s.ReadLater--
	case CategoryNotifyImmediately:
		s.NotifyImmediately--
	case CategoryDraftReply:
		s.DraftReply--
	}
}

// RunEntry is one run's appearance in a per-message or per-hash index.
type RunEntry struct {
	RunID        string `json:"run_id"`
	EmailID      string `json:"email_id"`
	Timestamp    string `json:"timestamp"`
	RulesVersion string `json:"rules_version"`
	ModelVersion string `json:"model_version"`
}

// MessageHistory is the per-message index document: every run that processed
// the message, oldest first.
type MessageHistory struct {
	MessageID   string     `json:"message_id,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	FirstSeen   string     `json:"first_seen"`
	Runs        []RunEntry `json:"runs"`
}

// GlobalIndex aggregates the whole dataset. It is rebuilt from the run
// directories after each recorded email rather than patched incrementally, so
// a crash between writes cannot leave it permanently inconsistent.
type GlobalIndex struct {
	TotalRuns   int      `json:"total_runs"`
	TotalEmails int      `json:"total_emails"`
	LatestRunID string   `json:"latest_run_id"`
	Runs        []string `json:"runs"`
}

// NewRunID derives a filesystem-safe run identifier from the given time.
// Collisions across processes are acceptable at this scale.
func NewRunID(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.ReplaceAll(ts, ":", "-")
	ts = strings.ReplaceAll(ts, ".", "-")
	return "run-" + ts
}
