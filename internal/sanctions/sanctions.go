// Package sanctions maintains a locally cached copy of the OpenSanctions
// targets export and serves fuzzy name searches against it.
//
// The dataset is refreshed on demand: a snapshot is loaded from the on-disk
// cache, re-downloaded when the cache grows older than the configured refresh
// interval, and swapped atomically so concurrent readers never observe a
// partially loaded record set.
package sanctions

import (
	"errors"
	"time"
)

// Errors reported by the cache and parser. Callers are expected to
// distinguish them with errors.Is.
var (
	// ErrDatasetUnavailable means the dataset could not be fetched and no
	// usable cached copy exists on disk.
	ErrDatasetUnavailable = errors.New("sanctions dataset unavailable")
	// ErrDatasetParse means the cached or fetched dataset is structurally
	// malformed (not merely missing optional fields).
	ErrDatasetParse = errors.New("sanctions dataset malformed")
)

// Record is a single entry in the sanctions targets export.
// Records are built in bulk during a dataset load and never mutated after.
type Record struct {
	EntityID   string      `json:"entity_id"`
	Name       string      `json:"name"`
	Datasets   []string    `json:"datasets"`
	Topics     []string    `json:"topics"`
	Countries  []string    `json:"countries"`
	BirthDates []time.Time `json:"birth_dates"`
}

// HasBirthDate reports whether any recorded birth date equals d exactly.
// Records without birth dates never match.
func (r *Record) HasBirthDate(d time.Time) bool {
	for _, b := range r.BirthDates {
		if b.Equal(d) {
			return true
		}
	}
	return false
}

// Snapshot is an immutable, fully loaded view of the dataset at one point
// in time. The cache replaces the whole snapshot on refresh; readers keep
// working against whichever snapshot they were handed.
type Snapshot struct {
	Records  []Record
	LoadedAt time.Time

	// Stale is set when a refresh attempt failed and the snapshot is the
	// last good copy being served in its place. LoadErr carries the detail.
	Stale   bool
	LoadErr string
}
