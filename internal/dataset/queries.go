package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

// ListRuns returns metadata for every recorded run, oldest first.
func (r *Recorder) ListRuns(_ context.Context) ([]model.RunMetadata, error) {
	runsDir := filepath.Join(r.root, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	runs := make([]model.RunMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var meta model.RunMetadata
		if err := readJSON(r.metaPath(e.Name()), &meta); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].RunID < runs[j].RunID })
	return runs, nil
}

// RunSummary returns one run's metadata.
func (r *Recorder) RunSummary(_ context.Context, runID string) (model.RunMetadata, error) {
	var meta model.RunMetadata
	if err := readJSON(r.metaPath(runID), &meta); err != nil {
		if os.IsNotExist(err) {
			return model.RunMetadata{}, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
		}
		return model.RunMetadata{}, err
	}
	return meta, nil
}

// EmailHistory returns every run that processed the given message id.
func (r *Recorder) EmailHistory(_ context.Context, messageID string) (model.MessageHistory, error) {
	path := filepath.Join(r.root, "emails", "by-message-id", sanitize(messageID)+".json")
	return loadHistory(path, messageID)
}

// FindByHash returns every run that processed content with the given hash.
func (r *Recorder) FindByHash(_ context.Context, contentHash string) (model.MessageHistory, error) {
	path := filepath.Join(r.root, "emails", "by-hash", sanitize(contentHash)+".json")
	return loadHistory(path, contentHash)
}

func loadHistory(path, key string) (model.MessageHistory, error) {
	var history model.MessageHistory
	if err := readJSON(path, &history); err != nil {
		if os.IsNotExist(err) {
			return model.MessageHistory{}, fmt.Errorf("%s: %w", key, common.ErrNotFound)
		}
		return model.MessageHistory{}, err
	}
	return history, nil
}

// loadRecord reads one email record out of a run directory.
func (r *Recorder) loadRecord(runID, emailID string) (model.EmailRecord, error) {
	var rec model.EmailRecord
	path := filepath.Join(r.root, "runs", runID, "emails", sanitize(emailID)+".json")
	if err := readJSON(path, &rec); err != nil {
		if os.IsNotExist(err) {
			return model.EmailRecord{}, fmt.Errorf("record %s/%s: %w", runID, emailID, common.ErrNotFound)
		}
		return model.EmailRecord{}, err
	}
	return rec, nil
}
