package stats

import (
	"slices"

	"github.com/pivolan/review_analyzer/domain/models"
)

// Labels of the "no filter" option of each selector.
const (
	AllMonths  = "全月"
	AllLocales = "全言語"
)

// ResolveSelection maps empty or unknown selector values to the "all" option.
// Known values are the options of the full table, never of a filtered view.
func ResolveSelection(table *models.Table, sel models.Selection) models.Selection {
	resolved := models.Selection{Month: AllMonths, Locale: AllLocales}
	if table == nil {
		return resolved
	}
	if slices.Contains(table.Months, sel.Month) {
		resolved.Month = sel.Month
	}
	if slices.Contains(table.Locales, sel.Locale) {
		resolved.Locale = sel.Locale
	}
	return resolved
}

// IsAll reports whether a selector value means no restriction.
func IsAll(value string) bool {
	return value == "" || value == AllMonths || value == AllLocales
}

// Filter returns the rows matching every concrete selector value, in table order.
// The result is a fresh slice; the input is not modified.
func Filter(rows []models.NormalizedRecord, sel models.Selection) []models.NormalizedRecord {
	filtered := make([]models.NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		if !IsAll(sel.Month) && (row.Month == nil || *row.Month != sel.Month) {
			continue
		}
		if !IsAll(sel.Locale) && (row.LocaleName == nil || *row.LocaleName != sel.Locale) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}
