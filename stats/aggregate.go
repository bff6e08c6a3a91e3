// Package stats filters the normalized review table and computes grouped aggregates.
package stats

import (
	"sort"
	"time"

	"github.com/pivolan/review_analyzer/domain/models"
)

// KeyFunc returns the grouping key of a row; ok is false when the key is missing.
type KeyFunc func(row models.NormalizedRecord) (key string, order time.Time, ok bool)

// RowPredicate decides whether a row takes part in an aggregate.
type RowPredicate func(row models.NormalizedRecord) bool

func ByMonth(row models.NormalizedRecord) (string, time.Time, bool) {
	if row.Month == nil || row.MonthStart == nil {
		return "", time.Time{}, false
	}
	return *row.Month, *row.MonthStart, true
}

func ByLocale(row models.NormalizedRecord) (string, time.Time, bool) {
	if row.LocaleName == nil {
		return "", time.Time{}, false
	}
	return *row.LocaleName, time.Time{}, true
}

// ByContent groups by question text. Empty text counts as missing.
func ByContent(row models.NormalizedRecord) (string, time.Time, bool) {
	if row.Text == "" {
		return "", time.Time{}, false
	}
	return row.Text, time.Time{}, true
}

// ExcludeContent drops rows whose content equals marker.
func ExcludeContent(marker string) RowPredicate {
	return func(row models.NormalizedRecord) bool {
		return row.Text != marker
	}
}

type group struct {
	key   string
	order time.Time
	sum   float64
	n     int
	ids   map[string]struct{}
}

// collect walks rows once and keeps groups in first-appearance order.
func collect(rows []models.NormalizedRecord, key KeyFunc, accept func(models.NormalizedRecord) bool, add func(*group, models.NormalizedRecord)) []*group {
	index := map[string]*group{}
	var order []*group
	for _, row := range rows {
		if !accept(row) {
			continue
		}
		k, o, ok := key(row)
		if !ok {
			continue
		}
		g, exists := index[k]
		if !exists {
			g = &group{key: k, order: o, ids: map[string]struct{}{}}
			index[k] = g
			order = append(order, g)
		}
		add(g, row)
	}
	return order
}

// MeanBy averages the numeric score per key. Rows without a score or key are skipped,
// as are rows rejected by any predicate.
func MeanBy(rows []models.NormalizedRecord, key KeyFunc, include ...RowPredicate) []models.AggregateRow {
	accept := func(row models.NormalizedRecord) bool {
		if row.Score == nil {
			return false
		}
		for _, p := range include {
			if !p(row) {
				return false
			}
		}
		return true
	}
	groups := collect(rows, key, accept, func(g *group, row models.NormalizedRecord) {
		g.sum += *row.Score
		g.n++
	})

	result := make([]models.AggregateRow, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.AggregateRow{Key: g.key, Value: g.sum / float64(g.n), Order: g.order})
	}
	return result
}

// DistinctCountBy counts distinct non-empty ticket ids per key.
func DistinctCountBy(rows []models.NormalizedRecord, key KeyFunc) []models.AggregateRow {
	accept := func(row models.NormalizedRecord) bool { return row.TicketID != "" }
	groups := collect(rows, key, accept, func(g *group, row models.NormalizedRecord) {
		g.ids[row.TicketID] = struct{}{}
	})

	result := make([]models.AggregateRow, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.AggregateRow{Key: g.key, Value: float64(len(g.ids)), Order: g.order})
	}
	return result
}

// SortChronologically returns a copy of month aggregates ordered by month start.
func SortChronologically(rows []models.AggregateRow) []models.AggregateRow {
	sorted := make([]models.AggregateRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order.Before(sorted[j].Order)
	})
	return sorted
}

// Summary holds the five aggregates the dashboard draws.
type Summary struct {
	MonthlyMean  []models.AggregateRow
	MonthlyCount []models.AggregateRow
	LocaleMean   []models.AggregateRow
	ContentMean  []models.AggregateRow
	LocaleCount  []models.AggregateRow
}

// Summarize aggregates already filtered rows. Month aggregates are chronological;
// the others keep first-appearance order.
func Summarize(rows []models.NormalizedRecord, freeTextMarker string) Summary {
	return Summary{
		MonthlyMean:  SortChronologically(MeanBy(rows, ByMonth)),
		MonthlyCount: SortChronologically(DistinctCountBy(rows, ByMonth)),
		LocaleMean:   MeanBy(rows, ByLocale),
		ContentMean:  MeanBy(rows, ByContent, ExcludeContent(freeTextMarker)),
		LocaleCount:  DistinctCountBy(rows, ByLocale),
	}
}
