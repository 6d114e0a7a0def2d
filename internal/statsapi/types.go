package statsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var elementsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pitchsplits_statsapi_elements_skipped_total",
	Help: "Response list elements skipped because they did not decode",
})

// Team is one entry of the /teams listing.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type teamsResponse struct {
	Teams List[Team] `json:"teams"`
}

// Ref is a bare {id, fullName} reference.
type Ref struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
}

// Position is a roster entry's position.
type Position struct {
	Code         string `json:"code"`
	Abbreviation string `json:"abbreviation"`
}

// RosterEntry is one player on a team roster.
type RosterEntry struct {
	Person   *Ref     `json:"person"`
	Position Position `json:"position"`
}

type rosterResponse struct {
	Roster List[RosterEntry] `json:"roster"`
}

// Person is a /people/{id} record.
type Person struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
}

type peopleResponse struct {
	People List[Person] `json:"people"`
}

// PitchingStat is the per-game pitching line of a game log split.
type PitchingStat struct {
	// InningsPitched uses baseball thirds notation ("6.2" is 6 2/3).
	InningsPitched *FlexString `json:"inningsPitched"`
	EarnedRuns     int         `json:"earnedRuns"`
}

// GameRef points a split at its game.
type GameRef struct {
	GamePk int `json:"gamePk"`
}

// Split is one game log entry.
type Split struct {
	Season string       `json:"season"`
	Date   string       `json:"date"`
	Stat   PitchingStat `json:"stat"`
	Game   *GameRef     `json:"game"`
}

type statsResponse struct {
	Stats List[gameLogStats] `json:"stats"`
}

// Location is a hydrated venue location.
type Location struct {
	City        string `json:"city"`
	State       string `json:"state"`
	StateAbbrev string `json:"stateAbbrev"`
}

// Venue is a hydrated schedule venue.
type Venue struct {
	ID       *int      `json:"id"`
	Name     *string   `json:"name"`
	Location *Location `json:"location"`
}

// ScheduledGame is one game of a schedule date.
type ScheduledGame struct {
	GamePk   int     `json:"gamePk"`
	GameDate *string `json:"gameDate"`
	Venue    *Venue  `json:"venue"`
}

// ScheduleDate groups the games played on one calendar date.
type ScheduleDate struct {
	Date  string              `json:"date"`
	Games List[ScheduledGame] `json:"games"`
}

type gameLogStats struct {
	Splits List[Split] `json:"splits"`
}

type scheduleResponse struct {
	Dates List[ScheduleDate] `json:"dates"`
}

// List decodes a JSON array element by element, skipping elements that do
// not fit T. One malformed game must not empty a whole season.
type List[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(List[T], 0, len(raw))
	for _, elem := range raw {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			elementsSkipped.Inc()
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// FlexString decodes a JSON string or number into its textual form. The
// API serves inningsPitched as a string, but a bare number must not poison
// the whole game log.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("flex string: unsupported value %s", data)
	}
	*f = FlexString(data)
	return nil
}

// String returns the value, "" when f is nil.
func (f *FlexString) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}
