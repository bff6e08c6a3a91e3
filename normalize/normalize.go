// Package normalize derives the typed dashboard fields from raw review records.
// Malformed cells become missing (nil) values; rows are never dropped.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pivolan/review_analyzer/domain/models"
)

// MonthLayout formats the month bucket label, e.g. 2024年01月.
const MonthLayout = "2006年01月"

// LocaleNames maps supported locale codes to their display names.
var LocaleNames = map[string]string{
	"zh": "中国語",
	"en": "英語",
	"vi": "ベトナム語",
	"ko": "韓国語",
	"pt": "ポルトガル語",
}

type Options struct {
	TimestampLayouts []string
	Location         *time.Location // UTC when nil
}

// Stats counts cells that degraded to missing.
type Stats struct {
	Rows           int
	BadTimestamps  int
	NonNumeric     int
	UnknownLocales int
}

// Normalize builds the immutable dashboard table from raw records.
func Normalize(raw *models.RawTable, opts Options) (*models.Table, Stats) {
	table := &models.Table{}
	var stats Stats
	if raw == nil {
		return table, stats
	}
	table.Source = raw.Source
	table.Rows = make([]models.NormalizedRecord, 0, len(raw.Records))

	seenMonths := map[string]bool{}
	seenLocales := map[string]bool{}
	for _, rec := range raw.Records {
		row := NormalizeRecord(rec, opts)
		table.Rows = append(table.Rows, row)

		stats.Rows++
		if row.CreatedTime == nil {
			stats.BadTimestamps++
		}
		if row.Score == nil {
			stats.NonNumeric++
		}
		if row.LocaleName == nil {
			stats.UnknownLocales++
		}

		if row.Month != nil && !seenMonths[*row.Month] {
			seenMonths[*row.Month] = true
			table.Months = append(table.Months, *row.Month)
		}
		if row.LocaleName != nil && !seenLocales[*row.LocaleName] {
			seenLocales[*row.LocaleName] = true
			table.Locales = append(table.Locales, *row.LocaleName)
		}
	}
	return table, stats
}

// NormalizeRecord derives every optional field of a single record.
func NormalizeRecord(rec models.Record, opts Options) models.NormalizedRecord {
	row := models.NormalizedRecord{Record: rec}

	if t, ok := ParseTimestamp(rec.CreatedAt, opts.TimestampLayouts, opts.Location); ok {
		row.CreatedTime = &t
		month := t.Format(MonthLayout)
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		row.Month = &month
		row.MonthStart = &start
	}
	if score, ok := ParseScore(rec.Value); ok {
		row.Score = &score
	}
	if name, ok := LocaleName(rec.Locale); ok {
		row.LocaleName = &name
	}
	return row
}

// ParseTimestamp tries each layout in order.
func ParseTimestamp(value string, layouts []string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseScore accepts any finite decimal float. Hex floats are rejected; ParseFloat only
// allows underscores after a base prefix, so that rules them out too.
func ParseScore(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	digits := strings.TrimLeft(value, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func LocaleName(code string) (string, bool) {
	name, ok := LocaleNames[strings.TrimSpace(code)]
	return name, ok
}
