package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/pitchsplits/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should match the public API and the 2020-2025 harvest", func() {
			convey.So(cfg.BaseURL, convey.ShouldEqual, "https://statsapi.mlb.com/api/v1")
			convey.So(cfg.SportID, convey.ShouldEqual, 1)
			convey.So(cfg.SeasonStart, convey.ShouldEqual, 2020)
			convey.So(cfg.SeasonEnd, convey.ShouldEqual, 2025)
			convey.So(cfg.RosterSeason, convey.ShouldEqual, 2025)
			convey.So(cfg.RosterType, convey.ShouldEqual, "active")
			convey.So(cfg.GameTypes, convey.ShouldResemble, []string{"R", "F", "D", "L", "W", "A"})
			convey.So(cfg.Workers, convey.ShouldEqual, 12)
			convey.So(cfg.MaxRetries, convey.ShouldEqual, 3)
			convey.So(cfg.InitialBackoff, convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.RequestTimeout, convey.ShouldEqual, 20*time.Second)
			convey.So(cfg.UserAgent, convey.ShouldEqual, "mlb-splits-csv/2.0")
			convey.So(cfg.Output, convey.ShouldEqual, "active_pitchers_game_splits_2020_2025.csv")
			convey.So(cfg.Format, convey.ShouldEqual, "csv")
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
			convey.So(cfg.MetricsAddr, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then Seasons should list the inclusive range", func() {
			convey.So(cfg.Seasons(), convey.ShouldResemble, []int{2020, 2021, 2022, 2023, 2024, 2025})
		})
	})
}

func TestConfig_Seasons(t *testing.T) {
	convey.Convey("Given a single-season range", t, func() {
		cfg := config.New()
		cfg.SeasonStart, cfg.SeasonEnd = 2024, 2024

		convey.So(cfg.Seasons(), convey.ShouldResemble, []int{2024})
	})

	convey.Convey("Given an inverted range", t, func() {
		cfg := config.New()
		cfg.SeasonStart, cfg.SeasonEnd = 2025, 2020

		convey.So(cfg.Seasons(), convey.ShouldBeEmpty)
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"empty base url":      func(c *config.Config) { c.BaseURL = "" },
			"inverted seasons":    func(c *config.Config) { c.SeasonStart = 2026 },
			"zero workers":        func(c *config.Config) { c.Workers = 0 },
			"zero retries":        func(c *config.Config) { c.MaxRetries = 0 },
			"negative backoff":    func(c *config.Config) { c.InitialBackoff = -time.Second },
			"zero timeout":        func(c *config.Config) { c.RequestTimeout = 0 },
			"empty user agent":    func(c *config.Config) { c.UserAgent = "" },
			"empty output":        func(c *config.Config) { c.Output = "" },
			"unknown format":      func(c *config.Config) { c.Format = "parquet" },
			"unknown log level":   func(c *config.Config) { c.LogLevel = "verbose" },
			"unknown drop column": func(c *config.Config) { c.DropColumns = []string{"season", "era"} },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given sqlite output dropping the season column", t, func() {
		cfg := config.New()
		cfg.Format = "sqlite"
		cfg.DropColumns = []string{"season"}

		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
