package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	hash := ContentHash("Subject", "from@example.com", "body text")

	assert.Len(t, hash, 16)
	assert.Equal(t, strings.ToLower(hash), hash)

	// Deterministic.
	assert.Equal(t, hash, ContentHash("Subject", "from@example.com", "body text"))

	// Sensitive to each component.
	assert.NotEqual(t, hash, ContentHash("Other", "from@example.com", "body text"))
	assert.NotEqual(t, hash, ContentHash("Subject", "other@example.com", "body text"))
	assert.NotEqual(t, hash, ContentHash("Subject", "from@example.com", "other body"))
}

func TestFinalFromDecision(t *testing.T) {
	tests := []struct {
		name     string
		decision RoutingDecision
		want     FinalClassification
	}{
		{
			name:     "spam",
			decision: SpamDecision{},
			want:     FinalClassification{Category: CategorySpam},
		},
		{
			name:     "read today",
			decision: ReadTodayDecision{},
			want:     FinalClassification{Category: CategoryReadToday},
		},
		{
			name:     "notify carries message",
			decision: NotifyDecision{Message: "call back"},
			want:     FinalClassification{Category: CategoryNotifyImmediately, Message: "call back"},
		},
		{
			name:     "draft reply carries summary",
			decision: DraftReplyDecision{Summary: "meeting", Body: "long draft"},
			want:     FinalClassification{Category: CategoryDraftReply, Summary: "meeting"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FinalFromDecision(tt.decision))
		})
	}
}

func TestClassificationSummaryAdd(t *testing.T) {
	var s ClassificationSummary
	s.Add(CategorySpam)
	s.Add(CategorySpam)
	s.Add(CategoryReadToday)
	s.Add(CategoryDraftReply)

	assert.Equal(t, 2, s.Spam)
	assert.Equal(t, 1, s.ReadToday)
	assert.Equal(t, 0, s.ReadLater)
	assert.Equal(t, 1, s.DraftReply)

	// Remove undoes Add, as when a record is overwritten with a new
	// category.
	s.Remove(CategorySpam)
	s.Add(CategoryReadLater)
	assert.Equal(t, 1, s.Spam)
	assert.Equal(t, 1, s.ReadLater)
}

func TestNewRunID(t *testing.T) {
	ts := time.Date(2025, 6, 2, 10, 30, 45, 123_000_000, time.UTC)
	id := NewRunID(ts)

	assert.Equal(t, "run-2025-06-02T10-30-45-123Z", id)
	// Filesystem safe: no colons or dots.
	assert.NotContains(t, id, ":")
	assert.NotContains(t, id, ".")
}
