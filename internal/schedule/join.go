// internal/schedule/join.go
package schedule

import "fmt"

type joinKey struct {
	ageGroup string
	date     string
	gender   string
	homeTeam string
}

func (k joinKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.ageGroup, k.date, k.gender, k.homeTeam)
}

type JoinOptions struct {
	// OneToOne rejects duplicate keys on either side of the join.
	OneToOne bool
}

type JoinResult struct {
	Rows           []AssignmentRow
	UnmatchedSlots int
	UnmatchedGames int
}

// Join pairs town field slots with master home games on age group, date,
// gender and home team. Rows follow town slot order, then master order when
// a slot matches more than one game.
func Join(slots []FieldSlot, games []RefereeGame, opts JoinOptions) (JoinResult, error) {
	byKey := make(map[joinKey][]int, len(games))
	for i, game := range games {
		key := joinKey{game.AgeGroup, game.Date, game.Gender, game.HomeTeam}
		if opts.OneToOne && len(byKey[key]) > 0 {
			return JoinResult{}, fmt.Errorf("%w in master schedule: %s", ErrDuplicateKey, key)
		}
		byKey[key] = append(byKey[key], i)
	}

	if opts.OneToOne {
		seen := make(map[joinKey]struct{}, len(slots))
		for _, slot := range slots {
			key := joinKey{slot.AgeGroup, slot.Date, slot.Gender, slot.HomeTeam}
			if _, dup := seen[key]; dup {
				return JoinResult{}, fmt.Errorf("%w in town schedule: %s", ErrDuplicateKey, key)
			}
			seen[key] = struct{}{}
		}
	}

	var result JoinResult
	matched := make([]bool, len(games))
	for _, slot := range slots {
		idxs := byKey[joinKey{slot.AgeGroup, slot.Date, slot.Gender, slot.HomeTeam}]
		if len(idxs) == 0 {
			result.UnmatchedSlots++
			continue
		}
		for _, idx := range idxs {
			matched[idx] = true
			game := games[idx]
			result.Rows = append(result.Rows, AssignmentRow{
				GameID:   game.GameID,
				Date:     slot.Date,
				Time:     slot.Time,
				Venue:    slot.Venue,
				SubVenue: slot.SubVenue,
				AgeGroup: slot.AgeGroup,
				League:   game.League,
				Gender:   slot.Gender,
				GameType: game.GameType,
				HomeTeam: slot.HomeTeam,
				AwayTeam: game.AwayTeam,
			})
		}
	}
	for _, ok := range matched {
		if !ok {
			result.UnmatchedGames++
		}
	}
	return result, nil
}
