// internal/schedule/convert.go
package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/translations"
)

// Request describes one master/town conversion.
type Request struct {
	Town         string
	Master       MasterSource
	TownBook     SheetReader
	Translations *translations.Translations
	Join         JoinOptions
}

type Result struct {
	Town   string
	Master MasterSchedule
	Slots  []FieldSlot
	JoinResult
}

// Convert runs the full master + town merge for one town.
func Convert(ctx context.Context, req Request) (*Result, error) {
	town := strings.ToLower(strings.TrimSpace(req.Town))
	if town == "" {
		return nil, fmt.Errorf("town is required")
	}
	if req.Master == nil || req.TownBook == nil {
		return nil, fmt.Errorf("master and town schedules are required")
	}

	logger := log.Ctx(ctx).With().Str("town", town).Logger()
	ctx = logger.WithContext(ctx)

	fields, err := req.Translations.FieldsFor(town)
	if err != nil {
		return nil, err
	}
	ageGroups, err := req.Translations.AgeGroupTable()
	if err != nil {
		return nil, err
	}

	masterRows, err := req.Master.MasterRows(ctx)
	if err != nil {
		return nil, err
	}
	master := ParseMaster(ctx, masterRows, town, req.Translations)

	slots, err := ParseTown(ctx, req.TownBook, town, fields, ageGroups)
	if err != nil {
		return nil, err
	}

	joined, err := Join(slots, master.RefereeGames, req.Join)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("assignments", len(joined.Rows)).
		Int("unmatched_slots", joined.UnmatchedSlots).
		Int("unmatched_games", joined.UnmatchedGames).
		Msg("Schedules merged")

	return &Result{
		Town:       town,
		Master:     master,
		Slots:      slots,
		JoinResult: joined,
	}, nil
}
