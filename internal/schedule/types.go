// internal/schedule/types.go
package schedule

import (
	"context"
	"errors"

	"github.com/codr1/refschedule/internal/workbook"
)

const (
	GenderBoys  = "Boys"
	GenderGirls = "Girls"

	// MasterSheetName is the sheet holding the league schedule in a master workbook.
	MasterSheetName = "Master"
)

var (
	ErrMasterSheetNotFound = errors.New("master sheet not found")
	ErrInvalidLabel        = errors.New("invalid age group label")
	ErrDuplicateKey        = errors.New("duplicate join key")
)

// MasterGame is one league game as listed on the master schedule.
type MasterGame struct {
	Gender   string
	AgeGroup string
	Date     string
	HomeTeam string
	AwayTeam string
}

// RefereeGame is a home game that needs officials assigned.
type RefereeGame struct {
	GameID   string
	GameType string
	Gender   string
	AgeGroup string
	Date     string
	League   string
	HomeTeam string
	AwayTeam string
}

// FieldSlot is a field and kickoff time booked on the town schedule.
type FieldSlot struct {
	Date     string
	Time     string
	Venue    string
	SubVenue string
	AgeGroup string
	Gender   string
	HomeTeam string
}

// AssignmentRow is one line of the assignor upload.
type AssignmentRow struct {
	GameID   string
	Date     string
	Time     string
	Venue    string
	SubVenue string
	AgeGroup string
	League   string
	Gender   string
	GameType string
	HomeTeam string
	AwayTeam string
}

// MasterSource yields the rows of a master schedule.
type MasterSource interface {
	MasterRows(ctx context.Context) ([]workbook.Row, error)
}

// SheetReader is a workbook that can list and read its sheets.
type SheetReader interface {
	Sheets() []workbook.Sheet
	Rows(sheet string) ([]workbook.Row, error)
}
