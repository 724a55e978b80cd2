// Package dataset persists every classification outcome as a JSON dataset on
// disk: one directory per run, per-message and per-content-hash histories,
// and a global index, enabling cross-run drift analysis.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

// Recorder writes the dataset under a root directory:
//
//	<root>/runs/<run-id>/meta.json
//	<root>/runs/<run-id>/emails/<email-id>.json
//	<root>/emails/by-hash/<content-hash>.json
//	<root>/emails/by-message-id/<message-id>.json
//	<root>/index.json
type Recorder struct {
	root string

	mu       sync.Mutex
	runID    string
	meta     *model.RunMetadata
	recorded map[string]model.Category
}

// NewRecorder creates a Recorder rooted at the given directory.
func NewRecorder(root string) *Recorder {
	return &Recorder{root: root}
}

// StartRun creates the directory skeleton for a new run and writes its
// initial metadata.
func (r *Recorder) StartRun(_ context.Context, pc model.ProcessingContext) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	runID := model.NewRunID(now)

	for _, dir := range []string{
		filepath.Join(r.root, "runs", runID, "emails"),
		filepath.Join(r.root, "emails", "by-hash"),
		filepath.Join(r.root, "emails", "by-message-id"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating dataset directory %s: %w", dir, err)
		}
	}

	meta := &model.RunMetadata{
		RunID:             runID,
		Timestamp:         now.Format(time.RFC3339),
		ProcessingContext: pc,
	}
	if err := writeJSON(r.metaPath(runID), meta); err != nil {
		return "", err
	}

	r.runID = runID
	r.meta = meta
	r.recorded = make(map[string]model.Category)
	return runID, nil
}

// RecordEmail persists one email's outcome and updates every index touched by
// it. Recording the same email id twice within a run overwrites the per-run
// record; the metadata counts and the histories keep a single entry per run.
// Any write failure is returned so the caller can halt the batch.
func (r *Recorder) RecordEmail(_ context.Context, rec *model.EmailRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runID == "" {
		return common.ErrRunNotStarted
	}
	prev, seen := r.recorded[rec.ID]

	path := filepath.Join(r.root, "runs", r.runID, "emails", sanitize(rec.ID)+".json")
	if err := writeJSON(path, rec); err != nil {
		return err
	}
	r.recorded[rec.ID] = rec.FinalClassification.Category

	if seen {
		if prev == rec.FinalClassification.Category {
			return nil
		}
		r.meta.ClassificationSummary.Remove(prev)
		r.meta.ClassificationSummary.Add(rec.FinalClassification.Category)
		return writeJSON(r.metaPath(r.runID), r.meta)
	}

	r.meta.EmailCount++
	r.meta.ClassificationSummary.Add(rec.FinalClassification.Category)
	if err := writeJSON(r.metaPath(r.runID), r.meta); err != nil {
		return err
	}

	entry := model.RunEntry{
		RunID:        r.runID,
		EmailID:      rec.ID,
		Timestamp:    rec.Timestamp,
		RulesVersion: rec.ProcessingContext.RulesVersion,
		ModelVersion: rec.ProcessingContext.ModelVersion,
	}

	hashPath := filepath.Join(r.root, "emails", "by-hash", sanitize(rec.ContentHash)+".json")
	if err := appendHistory(hashPath, model.MessageHistory{ContentHash: rec.ContentHash}, entry); err != nil {
		return err
	}

	msgPath := filepath.Join(r.root, "emails", "by-message-id", sanitize(rec.Envelope.MessageID)+".json")
	if err := appendHistory(msgPath, model.MessageHistory{MessageID: rec.Envelope.MessageID}, entry); err != nil {
		return err
	}

	return r.rebuildIndex()
}

func (r *Recorder) metaPath(runID string) string {
	return filepath.Join(r.root, "runs", runID, "meta.json")
}

// rebuildIndex regenerates index.json from the run directories. Regeneration
// keeps the index consistent even if a previous process died mid-write.
func (r *Recorder) rebuildIndex() error {
	runsDir := filepath.Join(r.root, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return fmt.Errorf("reading runs directory: %w", err)
	}

	index := model.GlobalIndex{Runs: []string{}}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		index.Runs = append(index.Runs, e.Name())

		emails, err := os.ReadDir(filepath.Join(runsDir, e.Name(), "emails"))
		if err != nil {
			continue
		}
		index.TotalEmails += len(emails)
	}

	// Run ids are timestamp-prefixed, so lexicographic order is
	// chronological.
	sort.Strings(index.Runs)
	index.TotalRuns = len(index.Runs)
	if len(index.Runs) > 0 {
		index.LatestRunID = index.Runs[len(index.Runs)-1]
	}

	return writeJSON(filepath.Join(r.root, "index.json"), &index)
}

// appendHistory adds a run entry to a per-message or per-hash history file,
// creating it on first sight.
func appendHistory(path string, seed model.MessageHistory, entry model.RunEntry) error {
	var history model.MessageHistory
	if err := readJSON(path, &history); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		history = seed
		history.FirstSeen = entry.Timestamp
	}
	history.Runs = append(history.Runs, entry)
	return writeJSON(path, &history)
}

// sanitize maps an arbitrary identifier to a safe file name.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrDatasetCorrupt, path, err)
	}
	return nil
}
