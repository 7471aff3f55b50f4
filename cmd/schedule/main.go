// cmd/schedule/main.go
//
// schedule reads the master schedule from Google Sheets, merges it with a
// town's field schedule workbook and writes a timestamped CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/cli"
	"github.com/codr1/refschedule/internal/config"
	"github.com/codr1/refschedule/internal/export"
	"github.com/codr1/refschedule/internal/logging"
	"github.com/codr1/refschedule/internal/schedule"
	"github.com/codr1/refschedule/internal/sheets"
	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

const outputTimestampLayout = "200601021504"

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("ENVIRONMENT"), os.Getenv(config.EnvLogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	parser := cli.NewParser("schedule")
	townFile := parser.String("s", "town-file", "town field schedule workbook (.xlsx)", true)
	town := parser.String("t", "town", "town to convert", true)
	if err := parser.Parse(os.Args[1:]); err != nil {
		os.Exit(parser.Fail(ctx, err))
	}

	env, err := config.LoadScheduleEnv(ctx)
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}

	client, err := sheets.NewClient(ctx, env.Credentials)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to create Google Sheets client")
		os.Exit(cli.ExitCode(err))
	}
	master := sheets.MasterSheet{
		Client:        client,
		SpreadsheetID: env.SpreadsheetID,
		Range:         env.RangeName,
	}

	if err := run(ctx, env, master, *townFile, *town, time.Now()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Schedule conversion failed")
		os.Exit(cli.ExitCode(err))
	}
}

// run merges master with the town workbook. The join is one-to-one: a
// duplicated (age group, date, gender, home team) key on either side fails.
func run(ctx context.Context, env config.ScheduleEnv, master schedule.MasterSource, townFile, town string, now time.Time) error {
	tr, err := translations.Load(env.TranslationFile)
	if err != nil {
		return err
	}

	townBook, err := workbook.Open(townFile)
	if err != nil {
		return err
	}
	defer townBook.Close()

	result, err := schedule.Convert(ctx, schedule.Request{
		Town:         town,
		Master:       master,
		TownBook:     townBook,
		Translations: tr,
		Join:         schedule.JoinOptions{OneToOne: true},
	})
	if err != nil {
		return err
	}

	output := outputPath(env.OutputFilePrefix, result.Town, now)
	if err := export.WriteFile(output, result.Rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("output", output).
		Int("rows", len(result.Rows)).
		Msg("Schedule written")
	return nil
}

func outputPath(prefix, town string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.csv", prefix, town, now.Format(outputTimestampLayout))
}
