package loader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4"
	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
)

const sampleCSV = `ticket_id,text,value,created_at,locale,channel
101,使いやすさ,5,2024-01-15 10:00:00,en,ios
101,ご自由にお書きください,とても良い,2024-01-15 10:00:00,en,ios
102,使いやすさ,3,2024-02-01 09:30:00,zh,android
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func assertSample(t *testing.T, table *models.RawTable) {
	t.Helper()
	require.Len(t, table.Records, 3)
	assert.Equal(t, []string{"ticket_id", "text", "value", "created_at", "locale", "channel"}, table.Headers)

	first := table.Records[0]
	assert.Equal(t, "101", first.TicketID)
	assert.Equal(t, "使いやすさ", first.Text)
	assert.Equal(t, "5", first.Value)
	assert.Equal(t, "2024-01-15 10:00:00", first.CreatedAt)
	assert.Equal(t, "en", first.Locale)
	assert.Equal(t, []models.Field{{Name: "channel", Value: "ios"}}, first.Extra)

	assert.Equal(t, "とても良い", table.Records[1].Value)
	assert.Equal(t, "zh", table.Records[2].Locale)
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "user_review.csv", []byte(sampleCSV))

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, path, table.Source)
	assertSample(t, table)
}

func TestLoadCSVWithBOMAndSemicolons(t *testing.T) {
	data := "\ufeff" + strings.ReplaceAll(sampleCSV, ",", ";")
	path := writeFile(t, "user_review.csv", []byte(data))

	table, err := Load(context.Background(), path, Options{Encoding: "utf-8"})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadTSV(t *testing.T) {
	path := writeFile(t, "user_review.tsv", []byte(strings.ReplaceAll(sampleCSV, ",", "\t")))

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadShiftJIS(t *testing.T) {
	encoded, err := japanese.ShiftJIS.NewEncoder().String(sampleCSV)
	require.NoError(t, err)
	path := writeFile(t, "user_review.csv", []byte(encoded))

	table, err := Load(context.Background(), path, Options{Encoding: "shift_jis"})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	path := writeFile(t, "user_review.csv.gz", buf.Bytes())

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadLZ4(t *testing.T) {
	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)
	_, err := lw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	path := writeFile(t, "user_review.csv.lz4", buf.Bytes())

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadZipPicksLargestFile(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	small, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = small.Write([]byte("notes"))
	require.NoError(t, err)
	big, err := zw.Create("export/user_review.csv")
	require.NoError(t, err)
	_, err = big.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := writeFile(t, "user_review.zip", buf.Bytes())

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"ticket_id", "text", "value", "created_at", "locale", "channel"},
		{"101", "使いやすさ", "5", "2024-01-15 10:00:00", "en", "ios"},
		{"101", "ご自由にお書きください", "とても良い", "2024-01-15 10:00:00", "en", "ios"},
		{"102", "使いやすさ", "3", "2024-02-01 09:30:00", "zh", "android"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	path := writeFile(t, "user_review.xlsx", buf.Bytes())

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, table)
}

func TestLoadRaggedRows(t *testing.T) {
	data := "ticket_id,text,value,created_at,locale\n" +
		"1,q,5\n" +
		"2,q,4,2024-01-01,en,surplus\n" +
		",,,,\n"
	path := writeFile(t, "ragged.csv", []byte(data))

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "", table.Records[0].CreatedAt)
	assert.Equal(t, "", table.Records[0].Locale)
	assert.Equal(t, []models.Field{{Name: "column_6", Value: "surplus"}}, table.Records[1].Extra)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   func(t *testing.T) string
		opts   Options
		reason string
	}{
		{
			name:   "Missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			reason: "open",
		},
		{
			name:   "Empty file",
			path:   func(t *testing.T) string { return writeFile(t, "empty.csv", nil) },
			reason: "empty file",
		},
		{
			name: "Missing columns",
			path: func(t *testing.T) string {
				return writeFile(t, "partial.csv", []byte("ticket_id,text\n1,a\n"))
			},
			reason: "missing columns value, created_at, locale",
		},
		{
			name:   "Unsupported encoding",
			path:   func(t *testing.T) string { return writeFile(t, "a.csv", []byte(sampleCSV)) },
			opts:   Options{Encoding: "koi8-z"},
			reason: "read",
		},
		{
			name:   "Corrupt gzip",
			path:   func(t *testing.T) string { return writeFile(t, "a.csv.gz", []byte("not gzip")) },
			reason: "open",
		},
		{
			name:   "Corrupt xlsx",
			path:   func(t *testing.T) string { return writeFile(t, "a.xlsx", []byte("not a workbook")) },
			reason: "read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			table, err := Load(context.Background(), path, tt.opts)
			assert.Nil(t, table)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
			assert.Equal(t, path, loadErr.Path)
			assert.Equal(t, tt.reason, loadErr.Reason)
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("ticket_id,text,value,created_at,locale\n")
	for i := 0; i < 2*ctxCheckEvery; i++ {
		fmt.Fprintf(&sb, "%d,q,5,2024-01-01,en\n", i)
	}
	path := writeFile(t, "big.csv", []byte(sb.String()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, path, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
