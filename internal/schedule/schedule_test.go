package schedule

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

type fakeBook struct {
	sheets []workbook.Sheet
	rows   map[string][]workbook.Row
}

func newFakeBook() *fakeBook {
	return &fakeBook{rows: make(map[string][]workbook.Row)}
}

func (b *fakeBook) add(name string, visible bool, rows ...workbook.Row) *fakeBook {
	b.sheets = append(b.sheets, workbook.Sheet{Name: name, Visible: visible})
	b.rows[name] = rows
	return b
}

func (b *fakeBook) Sheets() []workbook.Sheet { return b.sheets }

func (b *fakeBook) Rows(sheet string) ([]workbook.Row, error) {
	rows, ok := b.rows[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workbook.ErrSheetNotFound, sheet)
	}
	return rows, nil
}

type fakeMaster struct {
	rows []workbook.Row
	err  error
}

func (m fakeMaster) MasterRows(context.Context) ([]workbook.Row, error) {
	return m.rows, m.err
}

func day(month time.Month, d int) workbook.Cell {
	return workbook.Date(time.Date(2023, month, d, 0, 0, 0, 0, time.UTC))
}

func str(s string) workbook.Cell { return workbook.String(s) }

func num(n float64) workbook.Cell { return workbook.Number(n) }

var testFields = map[string]translations.Field{
	"Field1": {Venue: "Fenway Parking", SubVenue: "Pool 1"},
}

var testAgeGroups = map[string]string{
	"3rd_4th": "Grade 3/4",
	"7th_8th": "Grade 7/8",
}

func townRows() []workbook.Row {
	return []workbook.Row{
		{str("Boston Spring 2023")},
		{},
		{str("Division"), str("Field"), str("Time"), day(time.April, 1), day(time.April, 8), day(time.April, 15), day(time.April, 22)},
		{str("Grade 7/8"), str("Field1"), workbook.TimeOfDay(8, 0), str("G - 2"), str("B - 1"), str("NO GAME"), str("B - 3")},
		{workbook.Empty(), str("Field1"), workbook.TimeOfDay(10, 0), str("B - 1"), str("BYE"), str("G - 1"), str("G - 2")},
		{str("Notes"), str("Bring pinnies")},
	}
}

func TestParseAgeGender(t *testing.T) {
	tests := []struct {
		label    string
		gender   string
		ageGroup string
	}{
		{"Grade 3/4 Boys", "Boys", "Grade 3/4"},
		{"Grade 3/4 Girls", "Girls", "Grade 3/4"},
	}
	for _, tt := range tests {
		gender, ageGroup, err := ParseAgeGender(tt.label)
		if err != nil {
			t.Fatalf("ParseAgeGender(%q): %v", tt.label, err)
		}
		if gender != tt.gender || ageGroup != tt.ageGroup {
			t.Errorf("ParseAgeGender(%q) = %q, %q", tt.label, gender, ageGroup)
		}
	}

	if _, _, err := ParseAgeGender("Division"); !errors.Is(err, ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestProcessMasterRow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		row  workbook.Row
		want MasterGame
	}{
		{
			name: "string date",
			row:  workbook.Row{str("Grade 3/4 Boys"), str("Test League"), str("1/1/99"), str("Boston"), num(1), str("New York"), num(2)},
			want: MasterGame{Gender: "Boys", AgeGroup: "Grade 3/4", Date: "01/01/1999", HomeTeam: "Boston-1", AwayTeam: "New York-2"},
		},
		{
			name: "date cell",
			row:  workbook.Row{str("Grade 5/6 Girls"), str("Coastal"), day(time.April, 8), str("London"), num(2), str("Kingston"), num(4)},
			want: MasterGame{Gender: "Girls", AgeGroup: "Grade 5/6", Date: "04/08/2023", HomeTeam: "London-2", AwayTeam: "Kingston-4"},
		},
		{
			name: "bad date",
			row:  workbook.Row{str("Grade 5/6 Girls"), str("Coastal"), str("TBD"), str("London"), str("2"), str("Kingston"), str("4")},
			want: MasterGame{Gender: "Girls", AgeGroup: "Grade 5/6", Date: "", HomeTeam: "London-2", AwayTeam: "Kingston-4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProcessMasterRow(ctx, tt.row)
			if err != nil {
				t.Fatalf("process row: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMaster(t *testing.T) {
	rows := []workbook.Row{
		{str("Spring 2023 Master Schedule")},
		{str("Division"), str("League"), str("Date"), str("Home"), str("#"), str("Away"), str("#")},
		{str("Grade 3/4 Boys"), str("Coastal"), day(time.April, 1), str("London"), num(1), str("Kingston"), num(4)},
		{str("Grade 3/4 Boys"), str("Coastal"), day(time.April, 8), str("Toronto"), num(1), str("london"), num(1)},
		{str("Grade 3/4 Girls"), str("Coastal"), day(time.April, 8), str("LONDON"), num(2), str("Bye"), workbook.Empty()},
		{str("Grade 7/8 Girls"), str("Coastal"), day(time.April, 22), str("London"), num(1), str("Toronto"), num(1)},
		{str("Grade 7/8 Girls"), str("Coastal"), day(time.April, 22), str("Hanover"), num(1), str("Toronto"), num(2)},
		{num(42), workbook.Empty(), workbook.Empty(), str("London")},
	}
	tr := &translations.Translations{GameTypes: map[string]string{"Grade 7/8": "Regional"}}

	got := ParseMaster(context.Background(), rows, "london", tr)

	wantReferee := []RefereeGame{
		{GameType: "Coastal", Gender: "Boys", AgeGroup: "Grade 3/4", Date: "04/01/2023", League: "London", HomeTeam: "London-1", AwayTeam: "Kingston-4"},
		{GameType: "Regional", Gender: "Girls", AgeGroup: "Grade 7/8", Date: "04/22/2023", League: "London", HomeTeam: "London-1", AwayTeam: "Toronto-1"},
	}
	if !reflect.DeepEqual(got.RefereeGames, wantReferee) {
		t.Fatalf("referee games:\n got %+v\nwant %+v", got.RefereeGames, wantReferee)
	}
	if len(got.TeamGames) != 3 {
		t.Fatalf("team games: %d (%+v)", len(got.TeamGames), got.TeamGames)
	}
	if got.TeamGames[1].AwayTeam != "london-1" {
		t.Fatalf("away game: %+v", got.TeamGames[1])
	}
}

func TestWorkbookMaster(t *testing.T) {
	book := newFakeBook().add("Master", true,
		workbook.Row{str("Division"), str("League"), str("Date")},
		workbook.Row{str("Grade 3/4 Boys"), str("Coastal"), day(time.April, 1)},
	)

	rows, err := WorkbookMaster{Book: book}.MasterRows(context.Background())
	if err != nil {
		t.Fatalf("master rows: %v", err)
	}
	if len(rows) != 1 || rows[0].At(0).Text != "Grade 3/4 Boys" {
		t.Fatalf("rows: %+v", rows)
	}

	_, err = WorkbookMaster{Book: newFakeBook().add("Schedule", true)}.MasterRows(context.Background())
	if !errors.Is(err, ErrMasterSheetNotFound) {
		t.Fatalf("expected ErrMasterSheetNotFound, got %v", err)
	}
}

func TestParseTownSheet(t *testing.T) {
	const ageGroup = "Grade 7/8"
	slot := func(date, kickoff, gender, team string) FieldSlot {
		return FieldSlot{
			Date: date, Time: kickoff, Venue: "Fenway Parking", SubVenue: "Pool 1",
			AgeGroup: ageGroup, Gender: gender, HomeTeam: team,
		}
	}
	want := []FieldSlot{
		slot("04/01/2023", "08:00 AM", "Girls", "Boston-2"),
		slot("04/08/2023", "08:00 AM", "Boys", "Boston-1"),
		slot("04/22/2023", "08:00 AM", "Boys", "Boston-3"),
		slot("04/01/2023", "10:00 AM", "Boys", "Boston-1"),
		slot("04/15/2023", "10:00 AM", "Girls", "Boston-1"),
		slot("04/22/2023", "10:00 AM", "Girls", "Boston-2"),
	}

	got := ParseTownSheet(context.Background(), townRows(), ageGroup, testFields, "boston")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseTownSheet_SkipsBadEntries(t *testing.T) {
	rows := []workbook.Row{
		{str("Division"), str("Field"), str("Time"), day(time.May, 6), day(time.May, 13)},
		{str("Grade 7/8"), str("Field9"), workbook.TimeOfDay(8, 0), str("G - 2"), str("B - 1")},
		{str("Grade 7/8"), str("Field1"), workbook.TimeOfDay(9, 30), str("G -"), str("B - 1")},
		{str("Grade 7/8"), str("Field1"), str("TBD"), str("G - 1"), str("B - 1")},
	}

	got := ParseTownSheet(context.Background(), rows, "Grade 7/8", testFields, "new london")
	want := []FieldSlot{{
		Date: "05/13/2023", Time: "09:30 AM", Venue: "Fenway Parking", SubVenue: "Pool 1",
		AgeGroup: "Grade 7/8", Gender: "Boys", HomeTeam: "New London-1",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseTownSheet_NoHeader(t *testing.T) {
	rows := []workbook.Row{
		{str("Grade 7/8"), str("Field1"), workbook.TimeOfDay(8, 0), str("G - 2")},
	}
	if got := ParseTownSheet(context.Background(), rows, "Grade 7/8", testFields, "boston"); len(got) != 0 {
		t.Fatalf("expected no slots before a header row, got %+v", got)
	}
}

func TestParseTown_VisibleAgeGroupSheets(t *testing.T) {
	book := newFakeBook().
		add("Instructions", true, workbook.Row{str("Fill in the grid")}).
		add("7th_8th", true, townRows()...).
		add("3RD_4TH", false, townRows()...)

	slots, err := ParseTown(context.Background(), book, "boston", testFields, testAgeGroups)
	if err != nil {
		t.Fatalf("parse town: %v", err)
	}
	if len(slots) != 6 {
		t.Fatalf("slots: %d", len(slots))
	}
	for _, slot := range slots {
		if slot.AgeGroup != "Grade 7/8" {
			t.Fatalf("hidden sheet was read: %+v", slot)
		}
	}
}

func TestJoin(t *testing.T) {
	slots := []FieldSlot{
		{Date: "04/01/2023", Time: "08:00 AM", Venue: "Fenway", SubVenue: "Pool 1", AgeGroup: "Grade 7/8", Gender: "Girls", HomeTeam: "Boston-2"},
		{Date: "04/08/2023", Time: "08:00 AM", Venue: "Fenway", SubVenue: "Pool 1", AgeGroup: "Grade 7/8", Gender: "Boys", HomeTeam: "Boston-1"},
	}
	games := []RefereeGame{
		{GameType: "Coastal", Gender: "Boys", AgeGroup: "Grade 7/8", Date: "04/08/2023", League: "Boston", HomeTeam: "Boston-1", AwayTeam: "Hanover-3"},
		{GameType: "Coastal", Gender: "Girls", AgeGroup: "Grade 7/8", Date: "04/15/2023", League: "Boston", HomeTeam: "Boston-2", AwayTeam: "Hanover-1"},
	}

	got, err := Join(slots, games, JoinOptions{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	want := []AssignmentRow{{
		Date: "04/08/2023", Time: "08:00 AM", Venue: "Fenway", SubVenue: "Pool 1",
		AgeGroup: "Grade 7/8", League: "Boston", Gender: "Boys", GameType: "Coastal",
		HomeTeam: "Boston-1", AwayTeam: "Hanover-3",
	}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows:\n got %+v\nwant %+v", got.Rows, want)
	}
	if got.UnmatchedSlots != 1 || got.UnmatchedGames != 1 {
		t.Fatalf("unmatched: slots=%d games=%d", got.UnmatchedSlots, got.UnmatchedGames)
	}
}

func TestJoin_Duplicates(t *testing.T) {
	slot := FieldSlot{Date: "04/08/2023", Time: "08:00 AM", AgeGroup: "Grade 7/8", Gender: "Boys", HomeTeam: "Boston-1"}
	game := RefereeGame{Gender: "Boys", AgeGroup: "Grade 7/8", Date: "04/08/2023", HomeTeam: "Boston-1"}
	other := game
	other.AwayTeam = "Hanover-2"

	got, err := Join([]FieldSlot{slot}, []RefereeGame{game, other}, JoinOptions{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(got.Rows) != 2 || got.Rows[1].AwayTeam != "Hanover-2" {
		t.Fatalf("rows: %+v", got.Rows)
	}

	if _, err := Join([]FieldSlot{slot}, []RefereeGame{game, other}, JoinOptions{OneToOne: true}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for master duplicates, got %v", err)
	}
	if _, err := Join([]FieldSlot{slot, slot}, []RefereeGame{game}, JoinOptions{OneToOne: true}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for town duplicates, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	masterRows := []workbook.Row{
		{str("Grade 7/8 Boys"), str("Coastal"), day(time.April, 8), str("Boston"), num(1), str("Hanover"), num(3)},
		{str("Grade 7/8 Girls"), str("Coastal"), day(time.April, 1), str("Boston"), num(2), str("Hanover"), num(1)},
	}
	book := newFakeBook().add("7th_8th", true, townRows()...)
	tr := &translations.Translations{
		Fields:    map[string]map[string]translations.Field{"boston": testFields},
		AgeGroups: testAgeGroups,
	}

	result, err := Convert(context.Background(), Request{
		Town:         "Boston",
		Master:       fakeMaster{rows: masterRows},
		TownBook:     book,
		Translations: tr,
		Join:         JoinOptions{OneToOne: true},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if result.Town != "boston" {
		t.Fatalf("town: %q", result.Town)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows: %+v", result.Rows)
	}
	if result.Rows[0].AwayTeam != "Hanover-1" || result.Rows[0].Time != "08:00 AM" {
		t.Fatalf("first row: %+v", result.Rows[0])
	}
	if result.UnmatchedSlots != 4 {
		t.Fatalf("unmatched slots: %d", result.UnmatchedSlots)
	}
}

func TestConvert_TranslationErrors(t *testing.T) {
	book := newFakeBook()
	master := fakeMaster{}

	_, err := Convert(context.Background(), Request{
		Town:         "boston",
		Master:       master,
		TownBook:     book,
		Translations: &translations.Translations{AgeGroups: testAgeGroups},
	})
	if !errors.Is(err, translations.ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}

	_, err = Convert(context.Background(), Request{
		Town:         "boston",
		Master:       master,
		TownBook:     book,
		Translations: &translations.Translations{Fields: map[string]map[string]translations.Field{"boston": testFields}},
	})
	if !errors.Is(err, translations.ErrNoAgeGroups) {
		t.Fatalf("expected ErrNoAgeGroups, got %v", err)
	}
}

func TestConvert_MasterError(t *testing.T) {
	tr := &translations.Translations{
		Fields:    map[string]map[string]translations.Field{"boston": testFields},
		AgeGroups: testAgeGroups,
	}
	_, err := Convert(context.Background(), Request{
		Town:         "boston",
		Master:       fakeMaster{err: ErrMasterSheetNotFound},
		TownBook:     newFakeBook(),
		Translations: tr,
	})
	if !errors.Is(err, ErrMasterSheetNotFound) {
		t.Fatalf("expected ErrMasterSheetNotFound, got %v", err)
	}
}
