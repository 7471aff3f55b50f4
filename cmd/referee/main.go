// cmd/referee/main.go
//
// referee merges the league master schedule with a town's field schedule
// workbook and writes the referee assignment file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/cli"
	"github.com/codr1/refschedule/internal/export"
	"github.com/codr1/refschedule/internal/logging"
	"github.com/codr1/refschedule/internal/schedule"
	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

type options struct {
	masterFile string
	townFile   string
	town       string
	conversion string
	outputFile string
}

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	parser := cli.NewParser("referee")
	master := parser.String("m", "master-file", "master schedule workbook (.xlsx)", true)
	townFile := parser.String("s", "town-file", "town field schedule workbook (.xlsx)", true)
	town := parser.String("t", "town", "town to convert", true)
	conversion := parser.String("c", "conversion", "translation file (.json)", true)
	output := parser.String("o", "output-file", "output file (.csv or .xlsx)", true)

	if err := parser.Parse(os.Args[1:]); err != nil {
		os.Exit(parser.Fail(ctx, err))
	}

	opts := options{
		masterFile: *master,
		townFile:   *townFile,
		town:       *town,
		conversion: *conversion,
		outputFile: *output,
	}
	if err := run(ctx, opts); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Conversion failed")
		os.Exit(cli.ExitCode(err))
	}
}

func run(ctx context.Context, opts options) error {
	tr, err := translations.Load(opts.conversion)
	if err != nil {
		return err
	}

	masterBook, err := workbook.Open(opts.masterFile)
	if err != nil {
		return err
	}
	defer masterBook.Close()

	townBook, err := workbook.Open(opts.townFile)
	if err != nil {
		return err
	}
	defer townBook.Close()

	result, err := schedule.Convert(ctx, schedule.Request{
		Town:         opts.town,
		Master:       schedule.WorkbookMaster{Book: masterBook},
		TownBook:     townBook,
		Translations: tr,
	})
	if err != nil {
		return err
	}

	if err := export.WriteFile(opts.outputFile, result.Rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("output", opts.outputFile).
		Int("rows", len(result.Rows)).
		Msg("Referee schedule written")
	return nil
}
