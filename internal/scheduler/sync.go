package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/config"
)

const sheetSyncTimeout = 5 * time.Minute

// TownSyncer converts one town against the shared master spreadsheet.
type TownSyncer interface {
	SyncTown(ctx context.Context, town config.SyncTown) error
}

// RegisterSheetSyncJobs registers one job per configured town. Each job
// pulls the master schedule from Google Sheets on the sync cron.
func RegisterSheetSyncJobs(svc *Service, cfg config.SyncConfig, syncer TownSyncer) error {
	if len(cfg.Towns) == 0 {
		return nil
	}
	if syncer == nil {
		return fmt.Errorf("sheet sync jobs require a syncer")
	}

	for _, town := range cfg.Towns {
		jobName := "sheet_sync_" + strings.ToLower(strings.ReplaceAll(strings.TrimSpace(town.Name), " ", "_"))
		jobLogger := log.With().
			Str("component", "sheet_sync_job").
			Str("job_name", jobName).
			Str("town", town.Name).
			Logger()

		_, err := svc.AddJob(jobName, cfg.Cron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), sheetSyncTimeout)
			defer cancel()
			ctx = jobLogger.WithContext(ctx)

			if err := syncer.SyncTown(ctx, town); err != nil {
				jobLogger.Error().Err(err).Msg("Sheet sync failed")
				return
			}
			jobLogger.Info().Msg("Sheet sync completed")
		}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
		if err != nil {
			return fmt.Errorf("add sheet sync job for %s: %w", town.Name, err)
		}
	}

	log.Info().Int("towns", len(cfg.Towns)).Str("cron", cfg.Cron).Msg("Sheet sync jobs registered")
	return nil
}
