package services

import (
	"fmt"
	"sort"
	"sync"
)

// sectionLocker serializes operations per (tournament, section). Generation,
// reset, result submission, and merges acquire their sections up front; a
// busy section fails fast with ErrSectionLocked rather than queueing, since
// the caller can simply retry.
type sectionLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewSectionLocker() *sectionLocker {
	return &sectionLocker{held: make(map[string]bool)}
}

// acquire locks every named section of a tournament at once, or none of
// them. The returned release function is safe to call exactly once.
func (l *sectionLocker) acquire(tournamentID int, sections ...string) (func(), error) {
	keys := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		k := fmt.Sprintf("%d/%s", tournamentID, s)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, k := range keys {
		if l.held[k] {
			return nil, ErrSectionLocked
		}
	}
	for _, k := range keys {
		l.held[k] = true
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for _, k := range keys {
			delete(l.held, k)
		}
	}, nil
}
