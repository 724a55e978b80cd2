package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

type fixture struct {
	mail     *MockMailClient
	spam     *MockSpamClassifier
	action   *MockActionClassifier
	gate     *MockGate
	dispatch *MockDispatcher
	rules    *MockRuleStore
	recorder *MockRecorder
}

func newFixture() *fixture {
	return &fixture{
		mail:     NewMockMailClient(),
		spam:     &MockSpamClassifier{Verdicts: make(map[string]model.SpamVerdict)},
		action:   &MockActionClassifier{},
		gate:     &MockGate{Approve: true},
		dispatch: &MockDispatcher{},
		rules:    &MockRuleStore{Ruleset: "- block cold outreach\n"},
		recorder: &MockRecorder{},
	}
}

func (f *fixture) orchestrator(t *testing.T, cache VerdictCache) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		Mail:         f.mail,
		Normalizer:   MockNormalizer{},
		Spam:         f.spam,
		Action:       f.action,
		Gate:         f.gate,
		Dispatcher:   f.dispatch,
		Rules:        f.rules,
		Recorder:     f.recorder,
		Cache:        cache,
		ModelVersion: "test-model",
		Retry:        service.RetryOptions{MaxAttempts: 1},
	})
	require.NoError(t, err)
	return o
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestProcessBatchNonSpam(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "Team offsite agenda", "boss@example.com", "See attached agenda.")

	stats, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.ByCategory.ReadLater)

	// Review always runs, and non-spam mail goes to the action classifier
	// exactly once.
	assert.Equal(t, 1, f.gate.CallCount())
	assert.Equal(t, 1, f.action.CallCount())

	require.Len(t, f.recorder.Records, 1)
	rec := f.recorder.Records[0]
	assert.Equal(t, "m1", rec.ID)
	assert.Equal(t, model.CategoryReadLater, rec.FinalClassification.Category)
	assert.Equal(t, []string{"@read_later"}, rec.LabelsApplied)
	assert.Equal(t, "test-model", rec.ProcessingContext.ModelVersion)
	assert.NotEmpty(t, rec.ContentHash)
	require.NotNil(t, rec.HumanInteraction)
	assert.True(t, rec.HumanInteraction.Approved)
}

func TestProcessBatchApprovedSpamSkipsActionClassifier(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "You won a prize", "scam@example.com", "Claim now!")
	f.spam.Verdicts["You won a prize"] = model.SpamVerdict{IsSpam: true, HighConfidence: true}

	stats, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByCategory.Spam)

	// An approved spam verdict never reaches the action classifier.
	assert.Equal(t, 0, f.action.CallCount())

	require.Len(t, f.recorder.Records, 1)
	assert.Equal(t, model.CategorySpam, f.recorder.Records[0].FinalClassification.Category)
	assert.Equal(t, []string{"SPAM"}, f.recorder.Records[0].LabelsApplied)
}

func TestProcessBatchRejectedSpamGoesToActionClassifier(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "Newsletter", "news@example.com", "This week in Go.")
	f.spam.Verdicts["Newsletter"] = model.SpamVerdict{IsSpam: true}
	f.gate.Approve = false
	f.gate.Updated = "- block cold outreach, except newsletters\n"

	stats, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	// The rejected verdict routes the email like any non-spam message.
	assert.Equal(t, 1, f.action.CallCount())
	require.Len(t, f.recorder.Records, 1)
	assert.Equal(t, model.CategoryReadLater, f.recorder.Records[0].FinalClassification.Category)

	// The repaired ruleset was persisted and already steered this email's
	// action classification.
	assert.Equal(t, []string{"- block cold outreach, except newsletters\n"}, f.rules.Saves)
	require.Len(t, f.action.Rulesets, 1)
	assert.Equal(t, "- block cold outreach, except newsletters\n", f.action.Rulesets[0])
}

func TestRepairedRulesetInForceForNextEmail(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "First", "a@example.com", "first body")
	f.mail.AddPlainMessage("m2", "Second", "b@example.com", "second body")
	f.spam.Verdicts["First"] = model.SpamVerdict{IsSpam: true}
	f.gate.Approve = false
	f.gate.Updated = "amended ruleset"

	_, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, f.spam.Rulesets, 2)
	assert.Equal(t, "- block cold outreach\n", f.spam.Rulesets[0])
	assert.Equal(t, "amended ruleset", f.spam.Rulesets[1])
}

func TestProcessBatchContinuesPastPerEmailFailure(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "One", "a@example.com", "body one")
	f.mail.AddPlainMessage("m2", "Two", "b@example.com", "body two")
	f.mail.AddPlainMessage("m3", "Three", "c@example.com", "body three")
	f.gate.ErrForID = map[string]error{"m2": errors.New("reviewer walked away")}

	stats, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)

	// The failing email left no record; its neighbors both did.
	assert.Equal(t, []string{"m1", "m3"}, f.recorder.RecordedIDs())
}

func TestProcessBatchHaltsOnRecordFailure(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "One", "a@example.com", "body one")
	f.mail.AddPlainMessage("m2", "Two", "b@example.com", "body two")
	f.recorder.RecordErr = map[string]error{"m1": errors.New("disk full")}

	stats, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, stats.Failed)

	// Nothing after the failed record was processed.
	assert.Equal(t, 1, f.gate.CallCount())
}

func TestProcessBatchHonorsContext(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "One", "a@example.com", "body")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orchestrator(t, nil).ProcessBatch(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.recorder.Records)
}

func TestProcessBatchRespectsLimit(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "One", "a@example.com", "body")
	f.mail.AddPlainMessage("m2", "Two", "b@example.com", "body")
	f.mail.AddPlainMessage("m3", "Three", "c@example.com", "body")

	stats, err := f.orchestrator(t, nil).ProcessBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Processed)
}

// memoryCache is a map-backed VerdictCache for tests.
type memoryCache struct {
	verdicts map[string]model.SpamVerdict
	puts     int
}

func (c *memoryCache) Get(_ context.Context, hash string) (model.SpamVerdict, bool, error) {
	v, ok := c.verdicts[hash]
	return v, ok, nil
}

func (c *memoryCache) Put(_ context.Context, hash string, v model.SpamVerdict, _ string) error {
	c.verdicts[hash] = v
	c.puts++
	return nil
}

func TestVerdictCachePreFillsButStillReviews(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "Repeat offer", "shop@example.com", "same body as before")

	hash := model.ContentHash("Repeat offer", "shop@example.com", "same body as before")
	cache := &memoryCache{verdicts: map[string]model.SpamVerdict{
		hash: {IsSpam: true, HighConfidence: true},
	}}

	stats, err := f.orchestrator(t, cache).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByCategory.Spam)

	// The classifier was never called, but the human still reviewed.
	assert.Equal(t, 0, f.spam.CallCount())
	assert.Equal(t, 1, f.gate.CallCount())
}

func TestVerdictCachePopulatedOnMiss(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "Fresh content", "new@example.com", "never seen before")
	cache := &memoryCache{verdicts: make(map[string]model.SpamVerdict)}

	_, err := f.orchestrator(t, cache).ProcessBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, f.spam.CallCount())
	assert.Equal(t, 1, cache.puts)
}

func TestClassifyOneSkipsReviewAndSideEffects(t *testing.T) {
	f := newFixture()
	f.mail.AddPlainMessage("m1", "Probe", "x@example.com", "probe body")
	f.spam.Verdicts["Probe"] = model.SpamVerdict{IsSpam: true}

	email, verdict, err := f.orchestrator(t, nil).ClassifyOne(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Probe", email.Envelope.Subject)
	assert.True(t, verdict.IsSpam)

	assert.Equal(t, 0, f.gate.CallCount())
	assert.Empty(t, f.recorder.Records)
	assert.Empty(t, f.mail.Labels)
}
