package sanctions

import (
	"sort"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Match pairs a candidate record with its fuzzy similarity score (0-100).
type Match struct {
	Record *Record
	Score  int
}

// Search returns records whose names fuzzily match query, best score first,
// ties broken by original dataset order. Results below minScore are dropped
// and the output is truncated to limit. When dob is non-nil a candidate must
// carry that exact birth date to pass.
//
// Search never fails: a blank query yields an empty result. It only reads
// the immutable record slice, so it is safe to call concurrently.
func Search(records []Record, query string, limit, minScore int, dob *time.Time) []Match {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}

	scored := make([]Match, 0, len(records))
	for i := range records {
		scored = append(scored, Match{
			Record: &records[i],
			Score:  fuzzy.WRatio(query, records[i].Name),
		})
	}
	// SliceStable keeps dataset order for equal scores.
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	// Consider more candidates than requested before filtering: the score
	// and birth-date filters can eliminate high-rank candidates, and a
	// naive top-limit scan would under-fill the result.
	overfetch := limit * 3
	if overfetch < limit {
		overfetch = limit
	}
	if overfetch > len(scored) {
		overfetch = len(scored)
	}

	matches := make([]Match, 0, limit)
	for _, m := range scored[:overfetch] {
		if m.Score < minScore {
			continue
		}
		if dob != nil && !m.Record.HasBirthDate(*dob) {
			continue
		}
		matches = append(matches, m)
		if len(matches) >= limit {
			break
		}
	}
	return matches
}
