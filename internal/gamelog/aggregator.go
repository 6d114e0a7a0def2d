// Package gamelog turns a pitcher's per-season game logs into export rows
// joined with the schedule index of each season.
package gamelog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Sternrassler/pitchsplits/internal/export"
	"github.com/Sternrassler/pitchsplits/internal/schedule"
	"github.com/Sternrassler/pitchsplits/internal/statsapi"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Drop reasons for game log entries that produce no row.
const (
	DropZeroInnings     = "zero_innings"
	DropInvalidInnings  = "invalid_innings"
	DropMissingGamePk   = "missing_game_pk"
	DropScheduleMiss    = "schedule_miss"
	DropIncompleteVenue = "incomplete_venue"
)

var (
	gamesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_games_dropped_total",
		Help: "Game log entries dropped before export, by reason",
	}, []string{"reason"})

	rowsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pitchsplits_rows_emitted_total",
		Help: "Export rows produced by the aggregator",
	})
)

// ErrNoScheduleIndex is returned when a configured season has no index.
var ErrNoScheduleIndex = errors.New("no schedule index for season")

// Source is the person and game log endpoints, satisfied by *statsapi.API.
type Source interface {
	Person(ctx context.Context, personID int) (statsapi.Person, bool)
	GameLog(ctx context.Context, personID, season int) []statsapi.Split
}

// Aggregator produces the export rows of one pitcher at a time. It holds no
// per-call state and is safe for concurrent use.
type Aggregator struct {
	src     Source
	indexes schedule.Set
	seasons []int
	logger  zerolog.Logger
}

// NewAggregator creates an aggregator over the given seasons. indexes must
// hold a complete index for every season and is only read.
func NewAggregator(src Source, indexes schedule.Set, seasons []int) *Aggregator {
	return &Aggregator{
		src:     src,
		indexes: indexes,
		seasons: seasons,
		logger:  logging.NewLogger("gamelog"),
	}
}

// Aggregate resolves the pitcher's name and returns one row per qualifying
// game across all seasons. Failed fetches yield no rows for that season.
// An error is returned only when ctx is done or a season index is missing.
func (a *Aggregator) Aggregate(ctx context.Context, pitcherID int) ([]export.Row, error) {
	name := a.name(ctx, pitcherID)

	var rows []export.Row
	for _, season := range a.seasons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx, ok := a.indexes[season]
		if !ok {
			return nil, fmt.Errorf("%w %d", ErrNoScheduleIndex, season)
		}
		splits := a.src.GameLog(ctx, pitcherID, season)
		rows = append(rows, BuildRows(name, season, splits, idx)...)
	}

	a.logger.Debug().
		Int("pitcher_id", pitcherID).
		Str("pitcher_name", name).
		Int("rows", len(rows)).
		Msg("Pitcher aggregated")
	return rows, nil
}

func (a *Aggregator) name(ctx context.Context, pitcherID int) string {
	if p, ok := a.src.Person(ctx, pitcherID); ok && p.FullName != "" {
		return p.FullName
	}
	return strconv.Itoa(pitcherID)
}

// BuildRows filters and joins one season of game log splits. The season of
// every row is the season the log was requested for.
func BuildRows(name string, season int, splits []statsapi.Split, idx *schedule.Index) []export.Row {
	logger := logging.NewLogger("gamelog")

	var rows []export.Row
	for _, s := range splits {
		row, reason := buildRow(name, season, s, idx)
		if reason != "" {
			gamesDropped.WithLabelValues(reason).Inc()
			event := logger.Debug().
				Str("pitcher_name", name).
				Int("season", season).
				Str("reason", reason).
				Str("innings_pitched", s.Stat.InningsPitched.String())
			if s.Game != nil {
				event = event.Int("game_pk", s.Game.GamePk)
			}
			event.Msg("Game log entry dropped")
			continue
		}
		rows = append(rows, row)
	}
	rowsEmitted.Add(float64(len(rows)))
	return rows
}

func buildRow(name string, season int, s statsapi.Split, idx *schedule.Index) (export.Row, string) {
	ip, err := ParseInnings(s.Stat.InningsPitched.String())
	if err != nil {
		return export.Row{}, DropInvalidInnings
	}
	if ip == 0 {
		return export.Row{}, DropZeroInnings
	}
	era := GameERA(s.Stat.EarnedRuns, ip)

	if s.Game == nil || s.Game.GamePk == 0 {
		return export.Row{}, DropMissingGamePk
	}
	entry, ok := idx.Lookup(s.Game.GamePk)
	if !ok {
		return export.Row{}, DropScheduleMiss
	}
	if !entry.Complete() {
		return export.Row{}, DropIncompleteVenue
	}

	return export.Row{
		PitcherName: name,
		Season:      season,
		GamePk:      s.Game.GamePk,
		GameDate:    *entry.GameDate,
		Park:        *entry.VenueName,
		ParkCity:    entry.City,
		ParkState:   entry.State,
		GameERA:     era,
	}, ""
}
