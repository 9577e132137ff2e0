package sanctions

import (
	"testing"
	"time"
)

func testRecords() []Record {
	return []Record{
		{EntityID: "Q1", Name: "John Doe", BirthDates: []time.Time{time.Date(1965, 3, 12, 0, 0, 0, 0, time.UTC)}},
		{EntityID: "Q2", Name: "Jon Doe"},
		{EntityID: "Q3", Name: "Jane Smith"},
		{EntityID: "Q4", Name: "Acme Holdings Ltd"},
		{EntityID: "Q5", Name: "Johnny Doerty"},
	}
}

func TestSearchRanksExactMatchFirst(t *testing.T) {
	matches := Search(testRecords(), "John Doe", 5, 70, nil)
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Record.EntityID != "Q1" {
		t.Fatalf("expected exact match first, got %s", matches[0].Record.EntityID)
	}
	if matches[0].Score != 100 {
		t.Fatalf("exact match should score 100, got %d", matches[0].Score)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("results not sorted by score: %v", matches)
		}
	}
}

func TestSearchHonorsMinScore(t *testing.T) {
	matches := Search(testRecords(), "John Doe", 5, 100, nil)
	for _, m := range matches {
		if m.Score < 100 {
			t.Fatalf("match below threshold returned: %+v", m)
		}
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	matches := Search(testRecords(), "Doe", 1, 0, nil)
	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(matches))
	}
}

func TestSearchBlankQuery(t *testing.T) {
	if got := Search(testRecords(), "   ", 5, 70, nil); got != nil {
		t.Fatalf("blank query should yield nil, got %v", got)
	}
}

func TestSearchBirthDateFilter(t *testing.T) {
	dob := time.Date(1965, 3, 12, 0, 0, 0, 0, time.UTC)
	matches := Search(testRecords(), "John Doe", 5, 70, &dob)
	if len(matches) != 1 || matches[0].Record.EntityID != "Q1" {
		t.Fatalf("expected only the record with the matching birth date, got %v", matches)
	}

	other := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := Search(testRecords(), "John Doe", 5, 70, &other); len(got) != 0 {
		t.Fatalf("non-matching birth date should exclude all results, got %v", got)
	}
}

func TestSearchResultsIndependentOfRecordOrder(t *testing.T) {
	records := testRecords()
	reversed := make([]Record, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	a := Search(records, "John Doe", 5, 70, nil)
	b := Search(reversed, "John Doe", 5, 70, nil)

	if len(a) != len(b) {
		t.Fatalf("match counts differ across row orders: %d vs %d", len(a), len(b))
	}
	scores := make(map[string]int, len(b))
	for _, m := range b {
		scores[m.Record.EntityID] = m.Score
	}
	for _, m := range a {
		score, ok := scores[m.Record.EntityID]
		if !ok {
			t.Fatalf("entity %s missing from the permuted search", m.Record.EntityID)
		}
		if score != m.Score {
			t.Fatalf("entity %s scored %d vs %d across row orders", m.Record.EntityID, m.Score, score)
		}
	}
}

func TestSearchDoesNotMutateRecords(t *testing.T) {
	records := testRecords()
	_ = Search(records, "Jane", 5, 70, nil)
	if records[0].EntityID != "Q1" || records[4].EntityID != "Q5" {
		t.Fatalf("record order changed: %v", records)
	}
}
