// Package conversion runs master/town merges end to end: it records each run,
// stores the assignor CSV and sends completion notices.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/config"
	"github.com/codr1/refschedule/internal/db"
	"github.com/codr1/refschedule/internal/email"
	"github.com/codr1/refschedule/internal/export"
	"github.com/codr1/refschedule/internal/schedule"
	"github.com/codr1/refschedule/internal/storage"
	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

var (
	ErrTownRequired  = errors.New("town is required")
	ErrNoSheetMaster = errors.New("google sheets master schedule is not configured")
	ErrNoOutput      = errors.New("run has no output")
)

// Input is one conversion request.
type Input struct {
	Town     string
	Source   string
	Master   schedule.MasterSource
	TownBook schedule.SheetReader
	Join     schedule.JoinOptions
}

type Runner struct {
	DB               *db.DB
	Store            storage.Store
	TranslationsPath string

	// SheetMaster is the master schedule used by scheduled syncs.
	SheetMaster schedule.MasterSource

	// Email is optional; notices are skipped when it is nil.
	Email      email.EmailSender
	Recipients []string
	BaseURL    string

	Now   func() time.Time
	NewID func() string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

// Run converts one town and records the outcome. A failed conversion is
// still recorded; the returned run carries the failure and the error is
// returned alongside it.
func (r *Runner) Run(ctx context.Context, in Input) (db.ConversionRun, error) {
	town := strings.ToLower(strings.TrimSpace(in.Town))
	if town == "" {
		return db.ConversionRun{}, ErrTownRequired
	}
	source := in.Source
	if source == "" {
		source = db.RunSourceUpload
	}

	run, err := r.DB.Queries.CreateConversionRun(ctx, db.CreateConversionRunParams{
		ID:        r.newID(),
		Town:      town,
		Source:    source,
		CreatedAt: r.now(),
	})
	if err != nil {
		return db.ConversionRun{}, err
	}

	logger := log.Ctx(ctx).With().Str("run_id", run.ID).Str("town", town).Str("source", source).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("Conversion run started")

	result, key, convErr := r.convert(ctx, run.ID, town, in)
	if convErr != nil {
		failed, err := r.DB.Queries.FailConversionRun(ctx, db.FailConversionRunParams{
			ID:           run.ID,
			ErrorMessage: convErr.Error(),
			CompletedAt:  r.now(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to record failed conversion run")
			return run, convErr
		}
		logger.Warn().Err(convErr).Msg("Conversion run failed")
		r.notify(ctx, failed)
		return failed, convErr
	}

	done, err := r.DB.Queries.CompleteConversionRun(ctx, db.CompleteConversionRunParams{
		ID:             run.ID,
		RefereeGames:   int64(len(result.Master.RefereeGames)),
		TeamGames:      int64(len(result.Master.TeamGames)),
		TownSlots:      int64(len(result.Slots)),
		Assignments:    int64(len(result.Rows)),
		UnmatchedSlots: int64(result.UnmatchedSlots),
		UnmatchedGames: int64(result.UnmatchedGames),
		OutputKey:      key,
		CompletedAt:    r.now(),
	})
	if err != nil {
		return run, fmt.Errorf("record conversion run: %w", err)
	}

	logger.Info().Int64("assignments", done.Assignments).Str("output_key", key).Msg("Conversion run completed")
	r.notify(ctx, done)
	return done, nil
}

func (r *Runner) convert(ctx context.Context, runID, town string, in Input) (*schedule.Result, string, error) {
	tr, err := translations.Load(r.TranslationsPath)
	if err != nil {
		return nil, "", err
	}

	result, err := schedule.Convert(ctx, schedule.Request{
		Town:         town,
		Master:       in.Master,
		TownBook:     in.TownBook,
		Translations: tr,
		Join:         in.Join,
	})
	if err != nil {
		return nil, "", err
	}

	data, err := export.Render(export.FormatCSV, result.Rows)
	if err != nil {
		return nil, "", err
	}
	key := storage.RunKey(town, runID, export.FormatCSV)
	if err := r.Store.Put(ctx, key, data, export.ContentType(export.FormatCSV)); err != nil {
		return nil, "", fmt.Errorf("store output: %w", err)
	}
	return result, key, nil
}

// SyncTown converts a configured town against the Google Sheets master.
func (r *Runner) SyncTown(ctx context.Context, town config.SyncTown) error {
	if r.SheetMaster == nil {
		return ErrNoSheetMaster
	}
	book, err := workbook.Open(town.TownFile)
	if err != nil {
		return err
	}
	defer book.Close()

	_, err = r.Run(ctx, Input{
		Town:     town.Name,
		Source:   db.RunSourceSheets,
		Master:   r.SheetMaster,
		TownBook: book,
		Join:     schedule.JoinOptions{OneToOne: true},
	})
	return err
}

// Output returns the stored CSV for a completed run.
func (r *Runner) Output(ctx context.Context, run db.ConversionRun) ([]byte, error) {
	if !run.OutputKey.Valid || run.OutputKey.String == "" {
		return nil, ErrNoOutput
	}
	return r.Store.Get(ctx, run.OutputKey.String)
}

func (r *Runner) notify(ctx context.Context, run db.ConversionRun) {
	if r.Email == nil || len(r.Recipients) == 0 {
		return
	}
	details := email.RunDetails{
		RunID:          run.ID,
		Town:           schedule.TitleTown(run.Town),
		Source:         run.Source,
		Succeeded:      run.Status == db.RunStatusSucceeded,
		Assignments:    run.Assignments,
		UnmatchedSlots: run.UnmatchedSlots,
		UnmatchedGames: run.UnmatchedGames,
		Error:          run.ErrorMessage.String,
	}
	if run.CompletedAt.Valid {
		details.CompletedAt = run.CompletedAt.Time
	}
	if details.Succeeded && r.BaseURL != "" {
		details.OutputURL = strings.TrimRight(r.BaseURL, "/") + "/api/v1/conversions/" + run.ID + "/output"
	}
	email.SendRunNotice(ctx, r.Email, r.Recipients, email.BuildRunNotice(details), log.Ctx(ctx))
}
