// Package testutil provides an in-memory stats API server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Game is a scheduled game served by /schedule.
type Game struct {
	GamePk   int
	GameDate string
	VenueID  int
	Venue    string
	City     string
	State    string
}

// Appearance is one game log entry served by /people/{id}/stats.
type Appearance struct {
	GamePk         int
	InningsPitched string
	EarnedRuns     int
}

type rosterPlayer struct {
	personID int
	position string
}

// MockStatsAPI serves teams, rosters, people, game logs and schedules from
// fixtures. Paths registered with SetResponse or SetHandler take precedence.
type MockStatsAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	handlers  map[string]http.HandlerFunc
	teams     map[int][]int
	rosters   map[int][]rosterPlayer
	people    map[int]string
	gameLogs  map[int]map[int][]Appearance
	schedules map[int][]Game

	requestCount      int
	pathCounts        map[string]int
	lastRequestHeader http.Header
}

// NewMockStatsAPI starts a mock server.
func NewMockStatsAPI() *MockStatsAPI {
	m := &MockStatsAPI{
		handlers:   make(map[string]http.HandlerFunc),
		teams:      make(map[int][]int),
		rosters:    make(map[int][]rosterPlayer),
		people:     make(map[int]string),
		gameLogs:   make(map[int]map[int][]Appearance),
		schedules:  make(map[int][]Game),
		pathCounts: make(map[string]int),
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requestCount++
		m.pathCounts[r.URL.Path]++
		m.lastRequestHeader = r.Header.Clone()
		handler, exists := m.handlers[r.URL.Path]
		m.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		m.route(w, r)
	}))

	return m
}

// URL returns the base URL to configure clients with.
func (m *MockStatsAPI) URL() string {
	return m.server.URL
}

// Close shuts down the server.
func (m *MockStatsAPI) Close() {
	m.server.Close()
}

// SetHandler overrides a path.
func (m *MockStatsAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse overrides a path with a canned response.
func (m *MockStatsAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// AddTeam lists teamID among the teams of season.
func (m *MockStatsAPI) AddTeam(season, teamID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[season] = append(m.teams[season], teamID)
}

// AddRosterPlayer puts personID on teamID's active roster.
func (m *MockStatsAPI) AddRosterPlayer(teamID, personID int, position string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters[teamID] = append(m.rosters[teamID], rosterPlayer{personID: personID, position: position})
}

// AddPerson registers a person's full name.
func (m *MockStatsAPI) AddPerson(personID int, fullName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[personID] = fullName
}

// AddAppearances appends game log entries for a pitcher and season.
func (m *MockStatsAPI) AddAppearances(personID, season int, apps ...Appearance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gameLogs[personID] == nil {
		m.gameLogs[personID] = make(map[int][]Appearance)
	}
	m.gameLogs[personID][season] = append(m.gameLogs[personID][season], apps...)
}

// AddGame schedules a game in season.
func (m *MockStatsAPI) AddGame(season int, g Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[season] = append(m.schedules[season], g)
}

// RequestCount returns the number of requests served.
func (m *MockStatsAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests served for path.
func (m *MockStatsAPI) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockStatsAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

func (m *MockStatsAPI) route(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	season, _ := strconv.Atoi(r.URL.Query().Get("season"))

	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case len(segments) == 1 && segments[0] == "teams":
		writeJSON(w, m.teamsBody(season))
	case len(segments) == 3 && segments[0] == "teams" && segments[2] == "roster":
		writeJSON(w, m.rosterBody(atoi(segments[1])))
	case len(segments) == 2 && segments[0] == "people":
		writeJSON(w, m.personBody(atoi(segments[1])))
	case len(segments) == 3 && segments[0] == "people" && segments[2] == "stats":
		writeJSON(w, m.gameLogBody(atoi(segments[1]), season))
	case len(segments) == 1 && segments[0] == "schedule":
		writeJSON(w, m.scheduleBody(season))
	default:
		http.NotFound(w, r)
	}
}

func (m *MockStatsAPI) teamsBody(season int) any {
	teams := []map[string]any{}
	for _, id := range m.teams[season] {
		teams = append(teams, map[string]any{"id": id, "name": "Team " + strconv.Itoa(id)})
	}
	return map[string]any{"teams": teams}
}

func (m *MockStatsAPI) rosterBody(teamID int) any {
	roster := []map[string]any{}
	for _, p := range m.rosters[teamID] {
		roster = append(roster, map[string]any{
			"person":   map[string]any{"id": p.personID, "fullName": m.people[p.personID]},
			"position": map[string]any{"abbreviation": p.position},
		})
	}
	return map[string]any{"roster": roster}
}

func (m *MockStatsAPI) personBody(personID int) any {
	people := []map[string]any{}
	if name, ok := m.people[personID]; ok {
		people = append(people, map[string]any{"id": personID, "fullName": name})
	}
	return map[string]any{"people": people}
}

func (m *MockStatsAPI) gameLogBody(personID, season int) any {
	splits := []map[string]any{}
	for _, a := range m.gameLogs[personID][season] {
		split := map[string]any{
			"season": strconv.Itoa(season),
			"stat": map[string]any{
				"inningsPitched": a.InningsPitched,
				"earnedRuns":     a.EarnedRuns,
			},
		}
		if a.GamePk != 0 {
			split["game"] = map[string]any{"gamePk": a.GamePk}
		}
		splits = append(splits, split)
	}
	return map[string]any{"stats": []map[string]any{{"splits": splits}}}
}

func (m *MockStatsAPI) scheduleBody(season int) any {
	byDate := map[string][]map[string]any{}
	var order []string
	for _, g := range m.schedules[season] {
		day, _, _ := strings.Cut(g.GameDate, "T")
		if _, seen := byDate[day]; !seen {
			order = append(order, day)
		}
		game := map[string]any{"gamePk": g.GamePk}
		if g.GameDate != "" {
			game["gameDate"] = g.GameDate
		}
		venue := map[string]any{
			"location": map[string]any{"city": g.City, "stateAbbrev": g.State},
		}
		if g.VenueID != 0 {
			venue["id"] = g.VenueID
		}
		if g.Venue != "" {
			venue["name"] = g.Venue
		}
		game["venue"] = venue
		byDate[day] = append(byDate[day], game)
	}

	dates := []map[string]any{}
	for _, day := range order {
		dates = append(dates, map[string]any{"date": day, "games": byDate[day]})
	}
	return map[string]any{"dates": dates}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// NewHealthyResponse creates a 200 OK JSON response.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Expires":      time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "Too many requests"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
