package models

import "time"

// Column names the loader expects after header normalization.
const (
	ColumnTicketID  = "ticket_id"
	ColumnText      = "text"
	ColumnValue     = "value"
	ColumnCreatedAt = "created_at"
	ColumnLocale    = "locale"
)

// RequiredColumns in the order they are reported when missing.
var RequiredColumns = []string{ColumnTicketID, ColumnText, ColumnValue, ColumnCreatedAt, ColumnLocale}

// Field is a pass-through cell from a column the dashboard does not know about.
type Field struct {
	Name  string
	Value string
}

// Record is one raw row of the review export.
type Record struct {
	TicketID  string
	Text      string
	Value     string // raw score, may be non-numeric
	CreatedAt string // raw timestamp, may be unparsable
	Locale    string
	Extra     []Field
}

// RawTable is the loader output: records in file order plus the normalized header.
type RawTable struct {
	Source  string
	Headers []string
	Records []Record
}

// NormalizedRecord is a Record with derived fields. A nil pointer means missing.
type NormalizedRecord struct {
	Record
	CreatedTime *time.Time
	Score       *float64
	Month       *string    // month bucket label
	MonthStart  *time.Time // first instant of the month bucket
	LocaleName  *string
}

// Table is built once per load and never mutated afterwards.
type Table struct {
	Source  string
	Rows    []NormalizedRecord
	Months  []string // distinct month labels, first appearance
	Locales []string // distinct locale display names, first appearance
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// AggregateRow is one group of a mean or distinct-count aggregate.
type AggregateRow struct {
	Key   string
	Value float64
	Order time.Time // month start for month keys, zero otherwise
}

// Selection is the current state of the two dashboard selectors.
type Selection struct {
	Month  string
	Locale string
}
