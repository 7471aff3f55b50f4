// internal/schedule/town.go
package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

var townSkipMarkers = []string{"NO GAME", "BYE"}

// columnLookup maps the town sheet's header labels to column numbers. Each
// sheet lays its fields, times and dates out in different columns.
type columnLookup struct {
	field int
	time  int
	dates []dateColumn
}

type dateColumn struct {
	date string
	col  int
}

func (l *columnLookup) setDate(date string, col int) {
	for i := range l.dates {
		if l.dates[i].date == date {
			l.dates[i].col = col
			return
		}
	}
	l.dates = append(l.dates, dateColumn{date: date, col: col})
}

func isTownHeader(row workbook.Row) bool {
	return row.Contains("Division") && row.Contains("Field") && row.Contains("Time")
}

func (l *columnLookup) readHeader(row workbook.Row) {
	for col, cell := range row {
		if cell.IsString() {
			lower := strings.ToLower(cell.Text)
			if strings.Contains(lower, "field") {
				l.field = col
			}
			if strings.Contains(lower, "time") {
				l.time = col
			}
		}
		if cell.IsDate() {
			l.setDate(cell.Time.Format(workbook.DateLayout), col)
		}
	}
}

// ParseTownSheet scans one town sheet for booked home game slots. Scanning
// starts at the first Division/Field/Time header row; each later row with a
// kickoff time yields one slot per scheduled date column.
func ParseTownSheet(ctx context.Context, rows []workbook.Row, ageGroup string, fields map[string]translations.Field, town string) []FieldSlot {
	logger := log.Ctx(ctx)
	townName := TitleTown(town)

	var (
		lookup columnLookup
		found  bool
		slots  []FieldSlot
	)
	for idx, row := range rows {
		if isTownHeader(row) {
			found = true
			lookup.readHeader(row)
		}

		if !found || !row.At(lookup.time).IsTime() {
			continue
		}

		kickoff := row.At(lookup.time).Time.Format(workbook.TimeLayout)
		fieldLabel := row.At(lookup.field).String()
		for _, dc := range lookup.dates {
			cell := row.At(dc.col)
			if !cell.IsString() || hasSkipMarker(cell.Text) {
				continue
			}

			slot, err := buildSlot(cell.Text, dc.date, kickoff, fieldLabel, ageGroup, fields, townName)
			if err != nil {
				logger.Error().
					Err(err).
					Int("row", idx).
					Str("date", dc.date).
					Str("cell", cell.Text).
					Msg("Skipping town schedule entry")
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots
}

func buildSlot(entry, date, kickoff, fieldLabel, ageGroup string, fields map[string]translations.Field, townName string) (FieldSlot, error) {
	tokens := strings.Fields(entry)
	if len(tokens) < 3 {
		return FieldSlot{}, fmt.Errorf("entry %q has no team number", entry)
	}
	field, ok := fields[fieldLabel]
	if !ok {
		return FieldSlot{}, fmt.Errorf("no field translation for %q", fieldLabel)
	}

	gender := GenderGirls
	if tokens[0] == "B" {
		gender = GenderBoys
	}

	return FieldSlot{
		Date:     date,
		Time:     kickoff,
		Venue:    field.Venue,
		SubVenue: field.SubVenue,
		AgeGroup: ageGroup,
		Gender:   gender,
		HomeTeam: fmt.Sprintf("%s-%s", townName, tokens[2]),
	}, nil
}

func hasSkipMarker(value string) bool {
	for _, marker := range townSkipMarkers {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return false
}

// ParseTown reads every visible sheet whose title names an age group and
// returns their slots in workbook order.
func ParseTown(ctx context.Context, book SheetReader, town string, fields map[string]translations.Field, ageGroups map[string]string) ([]FieldSlot, error) {
	logger := log.Ctx(ctx)

	var slots []FieldSlot
	for _, sheet := range book.Sheets() {
		ageGroup, ok := ageGroups[strings.ToLower(sheet.Name)]
		if !ok {
			continue
		}
		if !sheet.Visible {
			logger.Debug().Str("sheet", sheet.Name).Msg("Skipping hidden town sheet")
			continue
		}

		rows, err := book.Rows(sheet.Name)
		if err != nil {
			return nil, fmt.Errorf("read town sheet %s: %w", sheet.Name, err)
		}
		sheetSlots := ParseTownSheet(ctx, rows, ageGroup, fields, town)
		logger.Debug().
			Str("sheet", sheet.Name).
			Str("age_group", ageGroup).
			Int("slots", len(sheetSlots)).
			Msg("Town sheet processed")
		slots = append(slots, sheetSlots...)
	}

	logger.Info().Str("town", town).Int("slots", len(slots)).Msg("Town schedule processed")
	return slots, nil
}
