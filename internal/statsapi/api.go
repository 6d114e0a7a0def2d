// Package statsapi wraps the public MLB stats API endpoints the harvester
// reads. Every call is fail-soft: a failed or undecodable response yields
// the zero value, never an error, and a malformed list element is dropped
// on its own.
package statsapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/pitchsplits/pkg/client"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
	"github.com/rs/zerolog"
)

// Defaults for the public API.
const (
	DefaultBaseURL    = "https://statsapi.mlb.com/api/v1"
	DefaultSportID    = 1
	DefaultRosterType = "active"
	// PitcherPosition is the roster position abbreviation of a pitcher.
	PitcherPosition = "P"
)

// DefaultGameTypes covers the regular season and every postseason round.
var DefaultGameTypes = []string{"R", "F", "D", "L", "W", "A"}

// Fetcher is the fail-soft JSON fetch contract, satisfied by *client.Client.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string) client.Result
}

// Options configures endpoint construction.
type Options struct {
	BaseURL    string
	SportID    int
	RosterType string
	GameTypes  []string
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.SportID == 0 {
		o.SportID = DefaultSportID
	}
	if o.RosterType == "" {
		o.RosterType = DefaultRosterType
	}
	if len(o.GameTypes) == 0 {
		o.GameTypes = DefaultGameTypes
	}
}

// API issues typed requests against the stats API. It is safe for
// concurrent use when its Fetcher is.
type API struct {
	fetcher Fetcher
	opts    Options
	logger  zerolog.Logger
}

// New creates an API over fetcher.
func New(fetcher Fetcher, opts Options) *API {
	opts.applyDefaults()
	return &API{
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.NewLogger("statsapi"),
	}
}

// TeamsURL lists the teams of a sport for a season.
func (a *API) TeamsURL(season int) string {
	q := url.Values{}
	q.Set("sportId", strconv.Itoa(a.opts.SportID))
	q.Set("season", strconv.Itoa(season))
	return a.opts.BaseURL + "/teams?" + q.Encode()
}

// RosterURL is a team's roster of the configured roster type.
func (a *API) RosterURL(teamID int) string {
	q := url.Values{}
	q.Set("rosterType", a.opts.RosterType)
	return a.opts.BaseURL + "/teams/" + strconv.Itoa(teamID) + "/roster?" + q.Encode()
}

// PersonURL is a person's detail record.
func (a *API) PersonURL(personID int) string {
	return a.opts.BaseURL + "/people/" + strconv.Itoa(personID)
}

// GameLogURL is a person's pitching game log for one season.
func (a *API) GameLogURL(personID, season int) string {
	q := url.Values{}
	q.Set("stats", "gameLog")
	q.Set("group", "pitching")
	q.Set("season", strconv.Itoa(season))
	return a.opts.BaseURL + "/people/" + strconv.Itoa(personID) + "/stats?" + q.Encode()
}

// ScheduleURL is the full season schedule with venue locations hydrated.
func (a *API) ScheduleURL(season int) string {
	q := url.Values{}
	q.Set("sportId", strconv.Itoa(a.opts.SportID))
	q.Set("season", strconv.Itoa(season))
	q.Set("gameType", strings.Join(a.opts.GameTypes, ","))
	q.Set("hydrate", "venue(location)")
	return a.opts.BaseURL + "/schedule?" + q.Encode()
}

// Teams returns the teams playing in season.
func (a *API) Teams(ctx context.Context, season int) []Team {
	var resp teamsResponse
	a.get(ctx, a.TeamsURL(season), &resp)
	return resp.Teams
}

// Roster returns a team's roster.
func (a *API) Roster(ctx context.Context, teamID int) []RosterEntry {
	var resp rosterResponse
	a.get(ctx, a.RosterURL(teamID), &resp)
	return resp.Roster
}

// Person returns a person's record; ok is false when none was returned.
func (a *API) Person(ctx context.Context, personID int) (Person, bool) {
	var resp peopleResponse
	a.get(ctx, a.PersonURL(personID), &resp)
	if len(resp.People) == 0 {
		return Person{}, false
	}
	return resp.People[0], true
}

// GameLog returns the splits of a pitcher's game log for one season.
func (a *API) GameLog(ctx context.Context, personID, season int) []Split {
	var resp statsResponse
	a.get(ctx, a.GameLogURL(personID, season), &resp)
	if len(resp.Stats) == 0 {
		return nil
	}
	return resp.Stats[0].Splits
}

// Schedule returns the dated games of a season.
func (a *API) Schedule(ctx context.Context, season int) []ScheduleDate {
	var resp scheduleResponse
	a.get(ctx, a.ScheduleURL(season), &resp)
	return resp.Dates
}

// get fetches rawURL into v. A degraded fetch leaves v untouched. List
// elements that do not decode are skipped; a body whose top-level shape does
// not fit v resets it to its zero value, so partial decodes never leak into
// callers.
func (a *API) get(ctx context.Context, rawURL string, v resettable) {
	res := a.fetcher.FetchJSON(ctx, rawURL)
	if err := res.Decode(v); err != nil {
		a.logger.Warn().Err(err).Str("url", rawURL).Msg("Response shape mismatch, treating as empty")
		v.reset()
	}
}

type resettable interface {
	reset()
}

func (r *teamsResponse) reset()    { *r = teamsResponse{} }
func (r *rosterResponse) reset()   { *r = rosterResponse{} }
func (r *peopleResponse) reset()   { *r = peopleResponse{} }
func (r *statsResponse) reset()    { *r = statsResponse{} }
func (r *scheduleResponse) reset() { *r = scheduleResponse{} }
