// internal/export/export.go
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/codr1/refschedule/internal/schedule"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	xlsxSheetName = "Schedule"
)

// AssignorHeader is the column layout the assignor import expects.
var AssignorHeader = []string{
	"Game ID", "Date", "Start Time", "Venue", "Sub-Venue",
	"Age Group", "League", "Gender", "Game Type",
	"Home Team", "Away Team",
}

func record(row schedule.AssignmentRow) []string {
	return []string{
		row.GameID, row.Date, row.Time, row.Venue, row.SubVenue,
		row.AgeGroup, row.League, row.Gender, row.GameType,
		row.HomeTeam, row.AwayTeam,
	}
}

// FormatForPath picks the output format from a file extension; anything
// other than .xlsx is written as CSV.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// WriteCSV writes the assignor upload as CSV.
func WriteCSV(w io.Writer, rows []schedule.AssignmentRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AssignorHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the assignor upload as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []schedule.AssignmentRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(AssignorHeader))
	for i, h := range AssignorHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := record(row)
		cells := make([]any, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := f.SetSheetRow(xlsxSheetName, axis, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Write renders rows in the given format.
func Write(w io.Writer, format string, rows []schedule.AssignmentRow) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, rows)
	case FormatCSV, "":
		return WriteCSV(w, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// Render returns rows encoded in the given format.
func Render(format string, rows []schedule.AssignmentRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, format, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes rows to path, choosing the format from its extension.
func WriteFile(path string, rows []schedule.AssignmentRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	data, err := Render(FormatForPath(path), rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
