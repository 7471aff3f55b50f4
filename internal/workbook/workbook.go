// internal/workbook/workbook.go
package workbook

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var ErrSheetNotFound = errors.New("sheet not found")

var (
	excelEpoch1900 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	excelEpoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
)

type Sheet struct {
	Name    string
	Visible bool
}

// Workbook is a read-only view over an xlsx file that yields typed cells.
type Workbook struct {
	file     *excelize.File
	date1904 bool
	styles   map[int]bool
}

// Open reads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return newWorkbook(f), nil
}

// OpenReader reads a workbook from an uploaded stream.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return newWorkbook(f), nil
}

func newWorkbook(f *excelize.File) *Workbook {
	wb := &Workbook{file: f, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb
}

func (w *Workbook) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}

// Sheets lists every sheet in workbook order.
func (w *Workbook) Sheets() []Sheet {
	names := w.file.GetSheetList()
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		visible, err := w.file.GetSheetVisible(name)
		if err != nil {
			visible = false
		}
		sheets = append(sheets, Sheet{Name: name, Visible: visible})
	}
	return sheets
}

func (w *Workbook) hasSheet(name string) bool {
	for _, sheet := range w.file.GetSheetList() {
		if sheet == name {
			return true
		}
	}
	return false
}

// Rows returns every row of the named sheet as typed cells.
func (w *Workbook) Rows(sheet string) ([]Row, error) {
	if !w.hasSheet(sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	raw, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	rows := make([]Row, 0, len(raw))
	for r, values := range raw {
		row := make(Row, len(values))
		for c, value := range values {
			cell, err := w.typedCell(sheet, c+1, r+1, value)
			if err != nil {
				return nil, err
			}
			row[c] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (w *Workbook) typedCell(sheet string, col, row int, value string) (Cell, error) {
	if strings.TrimSpace(value) == "" {
		return Empty(), nil
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Empty(), fmt.Errorf("cell name %d,%d: %w", col, row, err)
	}

	cellType, err := w.file.GetCellType(sheet, axis)
	if err != nil {
		return Empty(), fmt.Errorf("cell type %s!%s: %w", sheet, axis, err)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return String(value), nil
	case excelize.CellTypeDate:
		if t, ok := parseISODate(value); ok {
			return dateOrTime(t), nil
		}
		return String(value), nil
	}

	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return String(value), nil
	}

	dated, err := w.isDateStyled(sheet, axis)
	if err != nil {
		return Empty(), err
	}
	if !dated || number < 0 {
		return Number(number), nil
	}
	if number < 1 {
		return timeFromFraction(number), nil
	}
	return Date(w.serialToTime(number)), nil
}

func (w *Workbook) isDateStyled(sheet, axis string) (bool, error) {
	idx, err := w.file.GetCellStyle(sheet, axis)
	if err != nil {
		return false, fmt.Errorf("cell style %s!%s: %w", sheet, axis, err)
	}
	if dated, ok := w.styles[idx]; ok {
		return dated, nil
	}

	style, err := w.file.GetStyle(idx)
	if err != nil {
		return false, fmt.Errorf("style %d: %w", idx, err)
	}
	custom := ""
	if style.CustomNumFmt != nil {
		custom = *style.CustomNumFmt
	}
	dated := IsDateFormat(style.NumFmt, custom)
	w.styles[idx] = dated
	return dated, nil
}

func (w *Workbook) serialToTime(serial float64) time.Time {
	epoch := excelEpoch1900
	if w.date1904 {
		epoch = excelEpoch1904
	}
	days := math.Floor(serial)
	seconds := math.Round((serial - days) * 86400)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second)
}

func timeFromFraction(fraction float64) Cell {
	seconds := int(math.Round(fraction * 86400))
	if seconds >= 86400 {
		seconds = 86399
	}
	return Cell{
		Kind: KindTime,
		Time: time.Date(0, 1, 1, seconds/3600, (seconds%3600)/60, seconds%60, 0, time.UTC),
	}
}

func dateOrTime(t time.Time) Cell {
	if t.Year() <= 1 {
		return Cell{Kind: KindTime, Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
	}
	return Date(t)
}

func parseISODate(value string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// builtInDateFormats lists the built-in number format ids that render dates
// or times, including the CJK locale ids.
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// IsDateFormat reports whether a number format renders a date or time.
func IsDateFormat(numFmt int, custom string) bool {
	if builtInDateFormats[numFmt] {
		return true
	}
	if custom == "" {
		return false
	}

	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range custom {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	stripped := strings.ToLower(b.String())
	// Only the positive section decides the format.
	if idx := strings.Index(stripped, ";"); idx != -1 {
		stripped = stripped[:idx]
	}
	if stripped == "general" {
		return false
	}
	return strings.ContainsAny(stripped, "dmyhs")
}
