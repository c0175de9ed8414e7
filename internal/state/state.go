// Package state persists the partial learning snapshot: the flat mapping of
// combination keys to captured codes that makes an interrupted run resumable.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const snapshotVersion = 1

// ErrCorrupt marks an unreadable or inconsistent snapshot. Load recovers by
// returning a fresh empty state alongside it, so callers can warn and
// continue rather than abort.
var ErrCorrupt = errors.New("partial snapshot corrupt")

// PartialState is the resumable unit: every combination learned so far, plus
// metadata identifying the run and the source climate file. It is owned
// exclusively by the orchestrator for the duration of a run.
type PartialState struct {
	Version   int               `json:"version"`
	SessionID string            `json:"session_id"`
	Source    string            `json:"source"`
	UpdatedAt time.Time         `json:"updated_at"`
	Codes     map[string]string `json:"codes"`
}

// New returns an empty state bound to the given source climate file name.
func New(source string) *PartialState {
	return &PartialState{
		Version:   snapshotVersion,
		SessionID: uuid.NewString(),
		Source:    source,
		Codes:     make(map[string]string),
	}
}

// Load reads a prior snapshot. An absent file is not an error: it yields an
// empty state. A corrupt file also yields an empty state, but with an
// ErrCorrupt-wrapped diagnostic so the caller can surface it.
func Load(path, source string) (*PartialState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(source), nil
		}
		return New(source), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var st PartialState
	if err := json.Unmarshal(data, &st); err != nil {
		return New(source), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if st.Source != source {
		return New(source), fmt.Errorf("%w: snapshot belongs to %q, not %q", ErrCorrupt, st.Source, source)
	}
	if st.Codes == nil {
		st.Codes = make(map[string]string)
	}
	if st.SessionID == "" {
		st.SessionID = uuid.NewString()
	}
	st.Version = snapshotVersion
	return &st, nil
}

// Record adds or overwrites one mapping. Recording the same key and code
// again is a no-op.
func (s *PartialState) Record(key, code string) {
	s.Codes[key] = code
}

// Has reports whether the key is already learned with a non-empty code.
func (s *PartialState) Has(key string) bool {
	return s.Codes[key] != ""
}

// Code returns the learned code for key.
func (s *PartialState) Code(key string) (string, bool) {
	code, ok := s.Codes[key]
	return code, ok
}

// Len returns the number of learned combinations.
func (s *PartialState) Len() int {
	return len(s.Codes)
}

// Save writes the snapshot atomically: a temporary file in the same directory
// is renamed over the target, so an interruption mid-write never corrupts the
// last good snapshot.
func (s *PartialState) Save(path string) error {
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// SnapshotPath derives the snapshot location from the source climate file:
// <stem>.partial.json next to it.
func SnapshotPath(sourcePath string) string {
	dir := filepath.Dir(sourcePath)
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(dir, stem+".partial.json")
}

// Remove deletes a snapshot once the final document has been written. A
// missing file is fine.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}
