package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mailsift/mailsift/internal/model"
)

// DriftOutcome is one run's classification of a drifting message.
type DriftOutcome struct {
	RunID        string         `json:"run_id"`
	Category     model.Category `json:"category"`
	IsSpam       bool           `json:"is_spam"`
	RulesVersion string         `json:"rules_version"`
	ModelVersion string         `json:"model_version"`
}

// Drift reports a message whose classification changed across runs.
type Drift struct {
	MessageID string         `json:"message_id"`
	Subject   string         `json:"subject,omitempty"`
	Outcomes  []DriftOutcome `json:"outcomes"`
}

// FindDrift scans the per-message histories and returns every message that
// was classified differently (spam verdict or final category) in at least two
// runs. Messages classified identically every time are excluded, however
// often they were processed.
func (r *Recorder) FindDrift(_ context.Context) ([]Drift, error) {
	byMsgDir := filepath.Join(r.root, "emails", "by-message-id")
	entries, err := os.ReadDir(byMsgDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading message index: %w", err)
	}

	var drifts []Drift
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		var history model.MessageHistory
		if err := readJSON(filepath.Join(byMsgDir, e.Name()), &history); err != nil {
			return nil, err
		}
		if len(history.Runs) < 2 {
			continue
		}

		drift, drifted, err := r.compareRuns(history)
		if err != nil {
			return nil, err
		}
		if drifted {
			drifts = append(drifts, drift)
		}
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].MessageID < drifts[j].MessageID })
	return drifts, nil
}

func (r *Recorder) compareRuns(history model.MessageHistory) (Drift, bool, error) {
	drift := Drift{MessageID: history.MessageID}

	var drifted bool
	for i, run := range history.Runs {
		rec, err := r.loadRecord(run.RunID, run.EmailID)
		if err != nil {
			return Drift{}, false, err
		}

		drift.Subject = rec.Envelope.Subject
		outcome := DriftOutcome{
			RunID:        run.RunID,
			Category:     rec.FinalClassification.Category,
			IsSpam:       rec.SpamAnalysis.IsSpam,
			RulesVersion: rec.ProcessingContext.RulesVersion,
			ModelVersion: rec.ProcessingContext.ModelVersion,
		}
		drift.Outcomes = append(drift.Outcomes, outcome)

		if i > 0 {
			prev := drift.Outcomes[i-1]
			if prev.Category != outcome.Category || prev.IsSpam != outcome.IsSpam {
				drifted = true
			}
		}
	}

	return drift, drifted, nil
}
