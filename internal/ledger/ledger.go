// Package ledger keeps the append-only version history of every sentence
// translation in an open document.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valpere/bitext/internal/worddiff"
)

// ErrNoHistory is returned when a sentence has no recorded versions.
var ErrNoHistory = errors.New("no version history")

// Version is an immutable snapshot of a sentence translation.
type Version struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model,omitempty"`
	Edited    bool      `json:"edited,omitempty"`
}

// Entry is a version paired with the word diff against its predecessor.
type Entry struct {
	Index   int
	Version Version
	Latest  bool
	Diff    []worddiff.Part
}

// Ledger maps sentence ids to their chronologically ordered versions.
// The zero value is not usable; call New.
type Ledger struct {
	mu   sync.RWMutex
	logs map[string][]Version
}

func New() *Ledger {
	return &Ledger{logs: make(map[string][]Version)}
}

// Append records v for id and returns the new version count.
func (l *Ledger) Append(id string, v Version) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs[id] = append(l.logs[id], v)
	return len(l.logs[id])
}

// Len returns the number of versions recorded for id.
func (l *Ledger) Len(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.logs[id])
}

// Versions returns a copy of the history for id, oldest first.
func (l *Ledger) Versions(id string) []Version {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.logs[id]
	if len(src) == 0 {
		return nil
	}
	out := make([]Version, len(src))
	copy(out, src)
	return out
}

// At returns the version of id at index.
func (l *Ledger) At(id string, index int) (Version, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	log := l.logs[id]
	if len(log) == 0 {
		return Version{}, fmt.Errorf("%s: %w", id, ErrNoHistory)
	}
	if index < 0 || index >= len(log) {
		return Version{}, fmt.Errorf("version %d of %s: index out of range [0,%d)", index, id, len(log))
	}
	return log[index], nil
}

// Latest returns the most recent version of id.
func (l *Ledger) Latest(id string) (Version, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	log := l.logs[id]
	if len(log) == 0 {
		return Version{}, false
	}
	return log[len(log)-1], true
}

// Diff compares version index of id with the version before it. The first
// version has no predecessor and is compared with itself, so its diff is
// entirely unchanged.
func (l *Ledger) Diff(id string, index int) ([]worddiff.Part, error) {
	cur, err := l.At(id, index)
	if err != nil {
		return nil, err
	}
	if index == 0 {
		return worddiff.Diff(cur.Text, cur.Text), nil
	}
	prev, err := l.At(id, index-1)
	if err != nil {
		return nil, err
	}
	return worddiff.Diff(prev.Text, cur.Text), nil
}

// Timeline returns every version of id with its diff, oldest first.
func (l *Ledger) Timeline(id string) []Entry {
	versions := l.Versions(id)
	entries := make([]Entry, len(versions))
	for i, v := range versions {
		prev := v.Text
		if i > 0 {
			prev = versions[i-1].Text
		}
		entries[i] = Entry{
			Index:   i,
			Version: v,
			Latest:  i == len(versions)-1,
			Diff:    worddiff.Diff(prev, v.Text),
		}
	}
	return entries
}

// IDs returns every sentence id with at least one version.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.logs))
	for id, log := range l.logs {
		if len(log) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
