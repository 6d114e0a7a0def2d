// Package roster discovers the pitchers on active rosters across the league.
package roster

import (
	"context"
	"sort"

	"github.com/Sternrassler/pitchsplits/internal/statsapi"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
)

// Source is the teams and roster endpoints, satisfied by *statsapi.API.
type Source interface {
	Teams(ctx context.Context, season int) []statsapi.Team
	Roster(ctx context.Context, teamID int) []statsapi.RosterEntry
}

// ActivePitchers returns the person identifiers of every pitcher on an
// active roster in season, deduplicated and sorted ascending. A team whose
// roster could not be fetched contributes nothing.
func ActivePitchers(ctx context.Context, src Source, season int) []int {
	logger := logging.NewLogger("roster").With().Int("season", season).Logger()

	teams := src.Teams(ctx, season)
	seen := make(map[int]struct{})
	for _, team := range teams {
		if ctx.Err() != nil {
			break
		}
		entries := src.Roster(ctx, team.ID)
		if len(entries) == 0 {
			logger.Debug().Int("team_id", team.ID).Msg("Empty roster")
		}
		for _, e := range entries {
			if e.Position.Abbreviation != statsapi.PitcherPosition || e.Person == nil || e.Person.ID == 0 {
				continue
			}
			seen[e.Person.ID] = struct{}{}
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	if len(ids) == 0 {
		logger.Warn().Int("teams", len(teams)).Msg("No active pitchers resolved")
	} else {
		logger.Info().Int("teams", len(teams)).Int("pitchers", len(ids)).Msg("Active pitchers resolved")
	}
	return ids
}
