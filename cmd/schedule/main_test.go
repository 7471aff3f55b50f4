package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/codr1/refschedule/internal/config"
	"github.com/codr1/refschedule/internal/schedule"
	"github.com/codr1/refschedule/internal/testutil"
	"github.com/codr1/refschedule/internal/workbook"
)

const testTranslations = `{
	"fields": {"boston": {"Field1": {"venue": "Fenway Parking", "sub-venue": "Pool 1"}}},
	"age_groups": {"7th_8th": "Grade 7/8"}
}`

type sheetRows []workbook.Row

func (s sheetRows) MasterRows(ctx context.Context) ([]workbook.Row, error) {
	return s, nil
}

func writeTown(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "7th_8th"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	header := []any{"Division", "Field", "Time", time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)}
	if err := f.SetSheetRow("7th_8th", "A1", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	row := []any{"Grade 7/8", "Field1", 0.375, "B - 1"}
	if err := f.SetSheetRow("7th_8th", "A2", &row); err != nil {
		t.Fatalf("slot row: %v", err)
	}
	timeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 20})
	if err != nil {
		t.Fatalf("time style: %v", err)
	}
	if err := f.SetCellStyle("7th_8th", "C2", "C2", timeStyle); err != nil {
		t.Fatalf("apply style: %v", err)
	}
	path := filepath.Join(t.TempDir(), "town.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save town: %v", err)
	}
	return path
}

func testEnv(t *testing.T) config.ScheduleEnv {
	return config.ScheduleEnv{
		TranslationFile:  testutil.WriteTranslations(t, testTranslations),
		OutputFilePrefix: filepath.Join(t.TempDir(), "schedule"),
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)
	if got := outputPath("schedule", "boston", now); got != "schedule-boston-202403090705.csv" {
		t.Fatalf("outputPath = %q", got)
	}
	if got := outputPath("out/refs", "newton", now); got != "out/refs-newton-202403090705.csv" {
		t.Fatalf("outputPath = %q", got)
	}
}

func TestRun(t *testing.T) {
	env := testEnv(t)
	now := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)
	master := sheetRows{
		workbook.Strings("Grade 7/8 Boys", "Coastal", "4/1/23", "Boston", "1", "Newton", "3"),
	}

	if err := run(context.Background(), env, master, writeTown(t), "Boston", now); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(outputPath(env.OutputFilePrefix, "boston", now))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), ",04/01/2023,09:00 AM,Fenway Parking,Pool 1,Grade 7/8,Boston,Boys,Coastal,Boston-1,Newton-3") {
		t.Fatalf("csv:\n%s", data)
	}
}

func TestRun_DuplicateMasterKey(t *testing.T) {
	env := testEnv(t)
	now := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)
	master := sheetRows{
		workbook.Strings("Grade 7/8 Boys", "Coastal", "4/1/23", "Boston", "1", "Newton", "3"),
		workbook.Strings("Grade 7/8 Boys", "Coastal", "4/1/23", "Boston", "1", "Canton", "2"),
	}

	err := run(context.Background(), env, master, writeTown(t), "boston", now)
	if !errors.Is(err, schedule.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if _, statErr := os.Stat(outputPath(env.OutputFilePrefix, "boston", now)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("no output expected, stat err %v", statErr)
	}
}
