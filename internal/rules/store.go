// Package rules manages the human-editable spam ruleset: loading, saving,
// exact-substring patching, and LLM-assisted repair when a human reviewer
// disagrees with a verdict.
package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/common"
)

// DefaultRuleset seeds a fresh rules file on first use.
const DefaultRuleset = `Mark as spam all emails that:
- are a cold outreach email
- are a sales/marketing email e.g. for an e-commerce site.

do NOT mark as spam emails that:
- pertain to event notifications
- contain an authentication/authorization code e.g. for 2FA
- contain a "magic link" to sign in or similar.`

// Store persists the ruleset as a flat text file. The file is the source of
// truth; the human may edit it between runs with any editor.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the ruleset file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current ruleset. A missing file is seeded with the default
// ruleset and is not an error; any other read failure is.
func (s *Store) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading ruleset %s: %w", s.path, err)
	}

	if err := s.write(DefaultRuleset); err != nil {
		return "", err
	}
	return DefaultRuleset, nil
}

// Save atomically replaces the ruleset file.
func (s *Store) Save(_ context.Context, ruleset string) error {
	return s.write(ruleset)
}

func (s *Store) write(ruleset string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ruleset directory %s: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(ruleset), 0o644); err != nil {
		return fmt.Errorf("writing ruleset %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing ruleset %s: %w", s.path, err)
	}
	return nil
}

// Version identifies the ruleset revision recorded with each classification.
// It is the rules file's modification time; if the file does not exist yet,
// the current time stands in.
func (s *Store) Version() string {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}

// ApplyPatch replaces the first occurrence of oldFragment in ruleset with
// newFragment. The fragment must match literally; if it does not occur, the
// ruleset is returned unchanged alongside ErrPatchNotFound.
func ApplyPatch(ruleset, oldFragment, newFragment string) (string, error) {
	if oldFragment == "" || !strings.Contains(ruleset, oldFragment) {
		return ruleset, fmt.Errorf("%w: %q", common.ErrPatchNotFound, oldFragment)
	}
	return strings.Replace(ruleset, oldFragment, newFragment, 1), nil
}
