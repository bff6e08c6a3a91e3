// Package loader reads a review export (CSV, TSV or XLSX, optionally gzip, lz4 or zip
// compressed) into a models.RawTable.
package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 1000

// Options control how the input file is decoded.
type Options struct {
	Encoding string // utf-8 (default), shift_jis, euc-jp, windows-1251
	Sheet    string // xlsx sheet name, first sheet when empty
}

// LoadError is returned for any failure that leaves no usable table.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type rowReader interface {
	Read() ([]string, error)
}

type sliceRows struct {
	rows [][]string
	pos  int
}

func (s *sliceRows) Read() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Load reads the file at path. Every failure is a *LoadError.
func Load(ctx context.Context, path string, opts Options) (*models.RawTable, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "open", Err: err}
	}
	defer src.Close()

	var rows rowReader
	switch src.ext {
	case ".xlsx", ".xlsm":
		rows, err = xlsxRows(src, opts.Sheet)
	default:
		rows, err = csvRows(src, src.ext, opts.Encoding)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "read", Err: err}
	}
	return assemble(ctx, path, rows)
}

func csvRows(r io.Reader, ext string, encoding string) (rowReader, error) {
	decoder, err := decoderFor(encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(transform.NewReader(r, decoder))

	delimiter := '\t'
	if ext != ".tsv" {
		// Peek fails with io.EOF for inputs shorter than the buffer; what was read is still usable.
		head, _ := br.Peek(br.Size())
		firstLine, _, _ := strings.Cut(string(head), "\n")
		delimiter = sniffDelimiter(firstLine)
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr, nil
}

func decoderFor(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return japanese.ShiftJIS.NewDecoder(), nil
	case "euc-jp", "eucjp":
		return japanese.EUCJP.NewDecoder(), nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported input encoding %q", name)
}

func xlsxRows(r io.Reader, sheet string) (rowReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return &sliceRows{rows: rows}, nil
}

func assemble(ctx context.Context, path string, rows rowReader) (*models.RawTable, error) {
	header, err := rows.Read()
	if err == io.EOF {
		return nil, &LoadError{Path: path, Reason: "empty file"}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "parse header", Err: err}
	}

	headers := NormalizeHeaders(header)
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	var missing []string
	for _, name := range models.RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Path: path, Reason: "missing columns " + strings.Join(missing, ", ")}
	}

	table := &models.RawTable{Source: path, Headers: headers}
	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &LoadError{Path: path, Reason: "cancelled", Err: err}
			}
		}
		row, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: path, Reason: fmt.Sprintf("parse row %d", line), Err: err}
		}
		if isBlank(row) {
			continue
		}
		table.Records = append(table.Records, buildRecord(headers, index, row))
	}
	return table, nil
}

func buildRecord(headers []string, index map[string]int, row []string) models.Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	rec := models.Record{
		TicketID:  strings.TrimSpace(cell(index[models.ColumnTicketID])),
		Text:      cell(index[models.ColumnText]),
		Value:     cell(index[models.ColumnValue]),
		CreatedAt: cell(index[models.ColumnCreatedAt]),
		Locale:    strings.TrimSpace(cell(index[models.ColumnLocale])),
	}
	for i, name := range headers {
		if slices.Contains(models.RequiredColumns, name) {
			continue
		}
		rec.Extra = append(rec.Extra, models.Field{Name: name, Value: cell(i)})
	}
	for i := len(headers); i < len(row); i++ {
		rec.Extra = append(rec.Extra, models.Field{Name: generateColumnName(i), Value: row[i]})
	}
	return rec
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
