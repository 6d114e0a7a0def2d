// Package config defines the harvester configuration and its layered loader.
package config

import (
	"fmt"
	"time"

	"github.com/Sternrassler/pitchsplits/internal/export"
	"github.com/Sternrassler/pitchsplits/internal/statsapi"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
)

// Config contains the run configuration. It is fixed for the lifetime of a run.
type Config struct {
	// BaseURL is the stats API root, without trailing slash.
	BaseURL string `koanf:"base_url"`
	SportID int    `koanf:"sport_id"`

	// SeasonStart and SeasonEnd bound the harvested seasons, inclusive.
	SeasonStart int `koanf:"season_start"`
	SeasonEnd   int `koanf:"season_end"`

	// RosterSeason is the season whose active rosters define the pitchers.
	RosterSeason int      `koanf:"roster_season"`
	RosterType   string   `koanf:"roster_type"`
	GameTypes    []string `koanf:"game_types"`

	// Workers bounds concurrent pitcher tasks.
	Workers int `koanf:"workers"`

	// MaxRetries is the total number of attempts per request.
	MaxRetries     int           `koanf:"max_retries"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	UserAgent      string        `koanf:"user_agent"`

	LogLevel  string `koanf:"log_level"`
	LogPretty bool   `koanf:"log_pretty"`

	// Output is the export path; Format selects csv or sqlite.
	Output      string   `koanf:"output"`
	Format      string   `koanf:"format"`
	DropColumns []string `koanf:"drop_columns"`

	// RedisAddr enables the response cache when set.
	RedisAddr string        `koanf:"redis_addr"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	// MetricsAddr starts a /metrics listener when set.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		BaseURL:        statsapi.DefaultBaseURL,
		SportID:        statsapi.DefaultSportID,
		SeasonStart:    2020,
		SeasonEnd:      2025,
		RosterSeason:   2025,
		RosterType:     statsapi.DefaultRosterType,
		GameTypes:      append([]string(nil), statsapi.DefaultGameTypes...),
		Workers:        12,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		RequestTimeout: 20 * time.Second,
		UserAgent:      "mlb-splits-csv/2.0",
		LogLevel:       "info",
		Output:         "active_pitchers_game_splits_2020_2025.csv",
		Format:         export.FormatCSV,
		DropColumns:    []string{},
		CacheTTL:       10 * time.Minute,
	}
}

// Seasons returns every season from SeasonStart to SeasonEnd inclusive.
func (c *Config) Seasons() []int {
	if c.SeasonEnd < c.SeasonStart {
		return nil
	}
	seasons := make([]int, 0, c.SeasonEnd-c.SeasonStart+1)
	for s := c.SeasonStart; s <= c.SeasonEnd; s++ {
		seasons = append(seasons, s)
	}
	return seasons
}

// Validate checks field ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return invalid("base_url must not be empty")
	case c.SeasonStart > c.SeasonEnd:
		return invalid("season_start %d is after season_end %d", c.SeasonStart, c.SeasonEnd)
	case c.Workers < 1:
		return invalid("workers must be >= 1 (got %d)", c.Workers)
	case c.MaxRetries < 1:
		return invalid("max_retries must be >= 1 (got %d)", c.MaxRetries)
	case c.InitialBackoff < 0:
		return invalid("initial_backoff must not be negative (got %s)", c.InitialBackoff)
	case c.RequestTimeout <= 0:
		return invalid("request_timeout must be positive (got %s)", c.RequestTimeout)
	case c.UserAgent == "":
		return invalid("user_agent must not be empty")
	case c.Output == "":
		return invalid("output must not be empty")
	case c.Format != export.FormatCSV && c.Format != export.FormatSQLite:
		return invalid("format must be %q or %q (got %q)", export.FormatCSV, export.FormatSQLite, c.Format)
	case !logging.ValidLevel(c.LogLevel):
		return invalid("unknown log_level %q", c.LogLevel)
	}
	for _, col := range c.DropColumns {
		if !export.IsColumn(col) {
			return invalid("drop_columns: unknown column %q", col)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
