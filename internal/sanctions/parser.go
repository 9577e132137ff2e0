package sanctions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Columns recognized in the targets export. Only id and name are required
// structurally; the multi-value columns are optional per record.
const (
	colID         = "id"
	colName       = "name"
	colDatasets   = "datasets"
	colTopics     = "topics"
	colCountries  = "countries"
	colBirthDates = "birth_dates"
)

// dateLayouts are the granularities accepted for birth dates. Partial dates
// normalize to the first day of the unit (1980 -> 1980-01-01).
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"02.01.2006",
}

// parseRecords reads the CSV targets export and returns the record sequence
// in file order. Rows with a blank name are dropped. A dataset that yields no
// usable rows at all is reported as ErrDatasetParse.
func parseRecords(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrDatasetParse, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrDatasetParse, colName)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", ErrDatasetParse, err)
		}

		name := strings.TrimSpace(field(row, cols, colName))
		if name == "" {
			continue
		}

		records = append(records, Record{
			EntityID:   strings.TrimSpace(field(row, cols, colID)),
			Name:       name,
			Datasets:   splitMulti(field(row, cols, colDatasets)),
			Topics:     splitMulti(field(row, cols, colTopics)),
			Countries:  splitMulti(field(row, cols, colCountries)),
			BirthDates: parseDates(splitMulti(field(row, cols, colBirthDates))),
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable rows", ErrDatasetParse)
	}
	return records, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// splitMulti splits a multi-value field on both ',' and '|', trimming
// whitespace and dropping empty tokens.
func splitMulti(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(strings.ReplaceAll(raw, "|", ","), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDates parses birth date tokens at whatever granularity they carry.
// Unparseable tokens are dropped; a record with zero parsed dates is fine.
func parseDates(tokens []string) []time.Time {
	var out []time.Time
	for _, tok := range tokens {
		for _, layout := range dateLayouts {
			if d, err := time.ParseInLocation(layout, tok, time.UTC); err == nil {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
