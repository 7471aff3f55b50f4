// internal/schedule/master.go
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

// Master schedule columns.
const (
	colLabel    = 0
	colDate     = 2
	colHomeTown = 3
	colHomeNum  = 4
	colAwayTown = 5
	colAwayNum  = 6
)

// String dates from shared sheets come through as "4/1/23"; the long year
// form shows up when a sheet has been re-exported.
var masterDateLayouts = []string{"1/2/06", "1/2/2006"}

var noGameMarkers = []string{"bye", "no game"}

// MasterSchedule is the result of scanning a master schedule for one town.
type MasterSchedule struct {
	// RefereeGames are the town's home games.
	RefereeGames []RefereeGame
	// TeamGames are every game the town plays, home or away.
	TeamGames []MasterGame
}

// ParseAgeGender splits a label such as "Grade 3/4 Boys" into its gender
// and age group.
func ParseAgeGender(label string) (gender, ageGroup string, err error) {
	parts := strings.Split(strings.TrimSpace(label), " ")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return parts[2], parts[0] + " " + parts[1], nil
}

// ProcessMasterRow normalizes one master schedule game row.
func ProcessMasterRow(ctx context.Context, row workbook.Row) (MasterGame, error) {
	label := row.At(colLabel)
	if !label.IsString() {
		return MasterGame{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label.String())
	}
	gender, ageGroup, err := ParseAgeGender(label.Text)
	if err != nil {
		return MasterGame{}, err
	}

	return MasterGame{
		Gender:   gender,
		AgeGroup: ageGroup,
		Date:     masterDate(ctx, row),
		HomeTeam: fmt.Sprintf("%s-%s", row.At(colHomeTown).String(), row.At(colHomeNum).String()),
		AwayTeam: fmt.Sprintf("%s-%s", row.At(colAwayTown).String(), row.At(colAwayNum).String()),
	}, nil
}

func masterDate(ctx context.Context, row workbook.Row) string {
	cell := row.At(colDate)
	switch cell.Kind {
	case workbook.KindDate:
		return cell.Time.Format(workbook.DateLayout)
	case workbook.KindString:
		raw := strings.TrimSpace(cell.Text)
		for _, layout := range masterDateLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed.Format(workbook.DateLayout)
			}
		}
	}
	log.Ctx(ctx).Warn().
		Str("date", cell.String()).
		Str("row", rowSummary(row)).
		Msg("Unparsable master schedule date")
	return ""
}

// ParseMaster scans master schedule rows for the games involving town.
// Rows that do not look like games (headers, notes, blank lines) are skipped.
func ParseMaster(ctx context.Context, rows []workbook.Row, town string, tr *translations.Translations) MasterSchedule {
	logger := log.Ctx(ctx)
	town = strings.TrimSpace(town)
	league := TitleTown(town)

	var result MasterSchedule
	for idx, row := range rows {
		homeTown := row.At(colHomeTown)
		awayTown := row.At(colAwayTown)
		isHome := homeTown.IsString() && strings.EqualFold(strings.TrimSpace(homeTown.Text), town)
		isAway := awayTown.IsString() && strings.EqualFold(strings.TrimSpace(awayTown.Text), town)
		if !isHome && !isAway {
			continue
		}
		if isHome && isNoGame(awayTown.String()) {
			logger.Debug().Int("row", idx).Msg("Skipping master row without an opponent")
			continue
		}

		game, err := ProcessMasterRow(ctx, row)
		if err != nil {
			logger.Debug().Err(err).Int("row", idx).Msg("Skipping master row")
			continue
		}
		result.TeamGames = append(result.TeamGames, game)

		if !isHome {
			continue
		}
		result.RefereeGames = append(result.RefereeGames, RefereeGame{
			GameID:   "",
			GameType: tr.GameType(game.AgeGroup),
			Gender:   game.Gender,
			AgeGroup: game.AgeGroup,
			Date:     game.Date,
			League:   league,
			HomeTeam: game.HomeTeam,
			AwayTeam: game.AwayTeam,
		})
	}

	logger.Info().
		Str("town", town).
		Int("referee_games", len(result.RefereeGames)).
		Int("team_games", len(result.TeamGames)).
		Msg("Master schedule processed")
	return result
}

func isNoGame(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, marker := range noGameMarkers {
		if value == marker {
			return true
		}
	}
	return false
}

// WorkbookMaster reads the master schedule from the "Master" sheet of a
// workbook. The sheet's first row is its header.
type WorkbookMaster struct {
	Book SheetReader
}

func (m WorkbookMaster) MasterRows(ctx context.Context) ([]workbook.Row, error) {
	rows, err := m.Book.Rows(MasterSheetName)
	if err != nil {
		if errors.Is(err, workbook.ErrSheetNotFound) {
			return nil, ErrMasterSheetNotFound
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// TitleTown formats a town name for team labels, e.g. "new london" -> "New London".
func TitleTown(town string) string {
	return cases.Title(language.English).String(strings.TrimSpace(town))
}

func rowSummary(row workbook.Row) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		parts[i] = cell.String()
	}
	return strings.Join(parts, " | ")
}
