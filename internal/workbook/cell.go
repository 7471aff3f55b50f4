// internal/workbook/cell.go
package workbook

import (
	"strconv"
	"strings"
	"time"
)

// Display layouts shared by every schedule format.
const (
	DateLayout = "01/02/2006"
	TimeLayout = "03:04 PM"
)

type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return "empty"
	}
}

// Cell is a single typed spreadsheet value. Date cells carry the calendar
// date (and any time component) in Time; time-of-day cells carry the clock
// time on the zero date.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

type Row []Cell

func Empty() Cell { return Cell{} }

func String(s string) Cell {
	return Cell{Kind: KindString, Text: s}
}

func Number(n float64) Cell {
	return Cell{Kind: KindNumber, Number: n}
}

func Date(t time.Time) Cell {
	return Cell{Kind: KindDate, Time: t}
}

func TimeOfDay(hour, minute int) Cell {
	return Cell{Kind: KindTime, Time: time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)}
}

func (c Cell) IsEmpty() bool  { return c.Kind == KindEmpty }
func (c Cell) IsString() bool { return c.Kind == KindString }
func (c Cell) IsDate() bool   { return c.Kind == KindDate }
func (c Cell) IsTime() bool   { return c.Kind == KindTime }

// String renders the cell the way the schedules print it. Integral numbers
// drop the fractional part so team numbers read "1" rather than "1.0".
func (c Cell) String() string {
	switch c.Kind {
	case KindString:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindDate:
		return c.Time.Format(DateLayout)
	case KindTime:
		return c.Time.Format(TimeLayout)
	default:
		return ""
	}
}

// Equals reports whether the cell is a string exactly equal to s.
func (c Cell) Equals(s string) bool {
	return c.Kind == KindString && c.Text == s
}

// At returns the cell at idx, or an empty cell when the row is shorter.
func (r Row) At(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return Empty()
	}
	return r[idx]
}

// Contains reports whether any cell is a string exactly equal to s.
func (r Row) Contains(s string) bool {
	for _, cell := range r {
		if cell.Equals(s) {
			return true
		}
	}
	return false
}

// Strings builds a row of string cells, treating blank values as empty.
func Strings(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			row[i] = Empty()
			continue
		}
		row[i] = String(v)
	}
	return row
}
