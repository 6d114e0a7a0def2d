package roster

import (
	"context"
	"reflect"
	"testing"

	"github.com/Sternrassler/pitchsplits/internal/statsapi"
)

type stubSource struct {
	teams   map[int][]statsapi.Team
	rosters map[int][]statsapi.RosterEntry
	calls   []int
}

func (s *stubSource) Teams(_ context.Context, season int) []statsapi.Team {
	return s.teams[season]
}

func (s *stubSource) Roster(_ context.Context, teamID int) []statsapi.RosterEntry {
	s.calls = append(s.calls, teamID)
	return s.rosters[teamID]
}

func player(id int, pos string) statsapi.RosterEntry {
	return statsapi.RosterEntry{
		Person:   &statsapi.Ref{ID: id},
		Position: statsapi.Position{Abbreviation: pos},
	}
}

func TestActivePitchers(t *testing.T) {
	src := &stubSource{
		teams: map[int][]statsapi.Team{
			2025: {{ID: 147}, {ID: 121}, {ID: 111}},
		},
		rosters: map[int][]statsapi.RosterEntry{
			147: {player(543037, "P"), player(592450, "RF"), player(650402, "P")},
			121: {player(650402, "P"), player(100, "P"), player(200, "TWP")},
			// 111 missing: fetch degraded
		},
	}

	got := ActivePitchers(context.Background(), src, 2025)
	want := []int{100, 543037, 650402}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ActivePitchers() = %v, want %v", got, want)
	}
	if len(src.calls) != 3 {
		t.Errorf("roster fetched for %d teams, want 3", len(src.calls))
	}
}

func TestActivePitchers_DedupAcrossTeams(t *testing.T) {
	src := &stubSource{
		teams: map[int][]statsapi.Team{2025: {{ID: 1}, {ID: 2}}},
		rosters: map[int][]statsapi.RosterEntry{
			1: {player(42, "P")},
			2: {player(42, "P")},
		},
	}

	got := ActivePitchers(context.Background(), src, 2025)
	if !reflect.DeepEqual(got, []int{42}) {
		t.Errorf("ActivePitchers() = %v, want [42]", got)
	}
}

func TestActivePitchers_SkipsEntriesWithoutPerson(t *testing.T) {
	src := &stubSource{
		teams: map[int][]statsapi.Team{2025: {{ID: 1}}},
		rosters: map[int][]statsapi.RosterEntry{
			1: {{Position: statsapi.Position{Abbreviation: "P"}}, player(7, "P")},
		},
	}

	got := ActivePitchers(context.Background(), src, 2025)
	if !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("ActivePitchers() = %v, want [7]", got)
	}
}

func TestActivePitchers_NoTeams(t *testing.T) {
	got := ActivePitchers(context.Background(), &stubSource{}, 2025)
	if len(got) != 0 {
		t.Errorf("ActivePitchers() = %v, want empty", got)
	}
}

func TestActivePitchers_Cancelled(t *testing.T) {
	src := &stubSource{
		teams:   map[int][]statsapi.Team{2025: {{ID: 1}, {ID: 2}}},
		rosters: map[int][]statsapi.RosterEntry{1: {player(7, "P")}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := ActivePitchers(ctx, src, 2025); len(got) != 0 {
		t.Errorf("ActivePitchers() = %v, want empty after cancel", got)
	}
	if len(src.calls) != 0 {
		t.Errorf("rosters fetched after cancel: %v", src.calls)
	}
}
