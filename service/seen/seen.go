// Package seen deduplicates transaction signatures across polling cycles.
//
// The contract is the HasSeen/MarkSeen pair; CheckAndMark performs both as a
// single step and is what the polling loop uses.
package seen

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Filter is a time-windowed set of signatures. An entry is remembered for ttl
// after it was last marked or checked, so a signature that keeps appearing in
// fetched lists never expires; only signatures that have dropped out of every
// wallet's recent window are forgotten. Safe for concurrent use, though the
// monitor is its only caller.
type Filter struct {
	entries *cache.Cache
}

// New creates a Filter that forgets signatures ttl after they were last
// checked.
func New(ttl time.Duration) *Filter {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &Filter{entries: cache.New(ttl, cleanup)}
}

// HasSeen reports whether id was marked within the window.
func (f *Filter) HasSeen(id string) bool {
	_, ok := f.entries.Get(id)
	return ok
}

// MarkSeen records id, restarting its window.
func (f *Filter) MarkSeen(id string) {
	f.entries.SetDefault(id, struct{}{})
}

// CheckAndMark marks id and reports whether it was new. A repeat sighting
// restarts the entry's window.
func (f *Filter) CheckAndMark(id string) bool {
	if f.entries.Add(id, struct{}{}, cache.DefaultExpiration) == nil {
		return true
	}
	f.entries.SetDefault(id, struct{}{})
	return false
}

// Len returns the number of remembered signatures. Expired entries count
// until the next janitor sweep.
func (f *Filter) Len() int {
	return f.entries.ItemCount()
}
