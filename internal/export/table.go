// Package export assembles pitcher game rows into the final table and
// writes it out as CSV or SQLite.
package export

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Column names, in output order.
const (
	ColPitcherName = "pitcher_name"
	ColSeason      = "season"
	ColGamePk      = "game_pk"
	ColGameDate    = "game_datetime_utc"
	ColPark        = "park"
	ColParkCity    = "park_city"
	ColParkState   = "park_state"
	ColGameERA     = "game_era"
)

// Columns lists every export column in output order.
var Columns = []string{
	ColPitcherName,
	ColSeason,
	ColGamePk,
	ColGameDate,
	ColPark,
	ColParkCity,
	ColParkState,
	ColGameERA,
}

// IsColumn reports whether name is a known export column.
func IsColumn(name string) bool {
	return slices.Contains(Columns, name)
}

// Row is one pitcher's line for one game, joined with its venue.
type Row struct {
	PitcherName string
	Season      int
	GamePk      int
	GameDate    string
	Park        string
	ParkCity    string
	ParkState   string
	GameERA     float64
}

// Value returns the textual form of column col.
func (r Row) Value(col string) string {
	switch col {
	case ColPitcherName:
		return r.PitcherName
	case ColSeason:
		return strconv.Itoa(r.Season)
	case ColGamePk:
		return strconv.Itoa(r.GamePk)
	case ColGameDate:
		return r.GameDate
	case ColPark:
		return r.Park
	case ColParkCity:
		return r.ParkCity
	case ColParkState:
		return r.ParkState
	case ColGameERA:
		return formatFloat(r.GameERA)
	default:
		return ""
	}
}

// formatFloat writes the shortest round-trip form, keeping at least one
// decimal place so whole values read as floats ("3.0", not "3").
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// Table is the assembled export: rows sorted by pitcher name, then game
// datetime, plus the columns that will be written.
type Table struct {
	columns []string
	Rows    []Row
}

// Assemble builds a table from rows collected in any order. Rows are sorted
// by (pitcher_name, game_datetime_utc); game_pk and season break ties so the
// output is fully deterministic.
func Assemble(rows []Row) *Table {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Row) int {
		return cmp.Or(
			cmp.Compare(a.PitcherName, b.PitcherName),
			cmp.Compare(a.GameDate, b.GameDate),
			cmp.Compare(a.GamePk, b.GamePk),
			cmp.Compare(a.Season, b.Season),
		)
	})
	return &Table{columns: slices.Clone(Columns), Rows: sorted}
}

// Columns returns the columns that will be written.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// DropColumns removes the named columns from the output. Unknown names are
// an error and leave the table unchanged.
func (t *Table) DropColumns(names ...string) error {
	for _, n := range names {
		if !IsColumn(n) {
			return fmt.Errorf("unknown column %q", n)
		}
	}
	t.columns = slices.DeleteFunc(t.columns, func(c string) bool {
		return slices.Contains(names, c)
	})
	return nil
}

// Has reports whether column col will be written.
func (t *Table) Has(col string) bool {
	return slices.Contains(t.columns, col)
}

// Records returns the header followed by one record per row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns())
	for _, r := range t.Rows {
		rec := make([]string, len(t.columns))
		for i, c := range t.columns {
			rec[i] = r.Value(c)
		}
		out = append(out, rec)
	}
	return out
}

// Summary counts what a table holds.
type Summary struct {
	Rows     int
	Pitchers int
	Seasons  int
}

// Summary reports the row, distinct pitcher and distinct season counts.
func (t *Table) Summary() Summary {
	pitchers := make(map[string]struct{})
	seasons := make(map[int]struct{})
	for _, r := range t.Rows {
		pitchers[r.PitcherName] = struct{}{}
		seasons[r.Season] = struct{}{}
	}
	return Summary{Rows: len(t.Rows), Pitchers: len(pitchers), Seasons: len(seasons)}
}

// String renders the summary the CLI prints after a write.
func (s Summary) String() string {
	return fmt.Sprintf("%d rows, %d pitchers", s.Rows, s.Pitchers)
}
