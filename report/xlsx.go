package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "集計"

// WriteXLSX exports the detail table, with ticket hyperlinks, and the chart aggregates.
func WriteXLSX(w io.Writer, dash *Dashboard) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", DetailHeading); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeDetailSheet(f, dash, headerStyle); err != nil {
		return err
	}
	if err := writeSummarySheet(f, dash, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeDetailSheet(f *excelize.File, dash *Dashboard, headerStyle int) error {
	header := make([]interface{}, len(DetailColumns))
	for i, col := range DetailColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(DetailHeading, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(DetailColumns), 1)
	if err := f.SetCellStyle(DetailHeading, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range dash.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, 0, len(DetailColumns))
		for _, v := range row.Cells() {
			values = append(values, v)
		}
		if err := f.SetSheetRow(DetailHeading, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
		if row.Link != "" {
			if err := f.SetCellHyperLink(DetailHeading, cell, row.Link, "External"); err != nil {
				return fmt.Errorf("link row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SetColWidth(DetailHeading, "B", "B", 40); err != nil {
		return err
	}
	return f.SetColWidth(DetailHeading, "D", "D", 20)
}

// writeSummarySheet stacks one block per chart: a title row, a header row, then the aggregates.
func writeSummarySheet(f *excelize.File, dash *Dashboard, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	row := 1
	for _, c := range dash.Charts {
		titleCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, titleCell, &[]interface{}{c.Title}); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, titleCell, titleCell, headerStyle); err != nil {
			return err
		}
		row++

		headerCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, headerCell, &[]interface{}{c.XAxisName, c.YAxisName}); err != nil {
			return err
		}
		row++

		for _, r := range c.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(summarySheet, cell, &[]interface{}{r.Key, r.Value}); err != nil {
				return err
			}
			row++
		}
		row++
	}
	return f.SetColWidth(summarySheet, "A", "A", 40)
}
