// Package schedule builds the per-season lookup from game identifier to the
// venue, location and scheduled start of that game.
package schedule

import (
	"context"
	"sort"

	"github.com/Sternrassler/pitchsplits/internal/statsapi"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
)

// Entry is the schedule record of one game. VenueID, VenueName and GameDate
// stay nil when the source omits them; City and State default to "".
type Entry struct {
	VenueID   *int
	VenueName *string
	City      string
	State     string
	GameDate  *string
}

// Complete reports whether the entry carries everything an export row needs:
// a venue id, a venue name and a scheduled datetime.
func (e Entry) Complete() bool {
	return e.VenueID != nil && *e.VenueID != 0 &&
		e.VenueName != nil && *e.VenueName != "" &&
		e.GameDate != nil && *e.GameDate != ""
}

// Index maps game identifiers of one season to their schedule entries.
// It is immutable once built and safe for concurrent reads.
type Index struct {
	season  int
	entries map[int]Entry
}

// NewIndex wraps prebuilt entries. The map is owned by the index afterwards.
func NewIndex(season int, entries map[int]Entry) *Index {
	if entries == nil {
		entries = map[int]Entry{}
	}
	return &Index{season: season, entries: entries}
}

// Lookup returns the entry for gamePk.
func (idx *Index) Lookup(gamePk int) (Entry, bool) {
	if idx == nil {
		return Entry{}, false
	}
	e, ok := idx.entries[gamePk]
	return e, ok
}

// Len returns the number of indexed games.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Season returns the season the index was built for.
func (idx *Index) Season() int {
	return idx.season
}

// Source is the schedule endpoint, satisfied by *statsapi.API.
type Source interface {
	Schedule(ctx context.Context, season int) []statsapi.ScheduleDate
}

// Build fetches the season schedule and indexes every game that has an
// identifier. A duplicated identifier keeps the last occurrence. A failed
// fetch yields an empty index.
func Build(ctx context.Context, src Source, season int) *Index {
	entries := make(map[int]Entry)
	for _, date := range src.Schedule(ctx, season) {
		for _, g := range date.Games {
			if g.GamePk == 0 {
				continue
			}
			entries[g.GamePk] = entryOf(g)
		}
	}

	idx := NewIndex(season, entries)
	logger := logging.NewLogger("schedule").With().Int("season", season).Logger()
	if idx.Len() == 0 {
		logger.Warn().Msg("Schedule index is empty")
	} else {
		logger.Info().Int("games", idx.Len()).Msg("Schedule indexed")
	}
	return idx
}

func entryOf(g statsapi.ScheduledGame) Entry {
	e := Entry{GameDate: g.GameDate}
	if g.Venue == nil {
		return e
	}
	e.VenueID = g.Venue.ID
	e.VenueName = g.Venue.Name
	if loc := g.Venue.Location; loc != nil {
		e.City = loc.City
		switch {
		case loc.StateAbbrev != "":
			e.State = loc.StateAbbrev
		default:
			e.State = loc.State
		}
	}
	return e
}

// Set holds one index per season.
type Set map[int]*Index

// BuildAll builds the index of every season sequentially. It stops early
// only when ctx is done, returning the indexes built so far and ctx.Err().
func BuildAll(ctx context.Context, src Source, seasons []int) (Set, error) {
	set := make(Set, len(seasons))
	for _, season := range seasons {
		if err := ctx.Err(); err != nil {
			return set, err
		}
		set[season] = Build(ctx, src, season)
	}
	return set, nil
}

// Seasons returns the indexed seasons in ascending order.
func (s Set) Seasons() []int {
	out := make([]int, 0, len(s))
	for season := range s {
		out = append(out, season)
	}
	sort.Ints(out)
	return out
}

// Games returns the total number of indexed games across seasons.
func (s Set) Games() int {
	n := 0
	for _, idx := range s {
		n += idx.Len()
	}
	return n
}
