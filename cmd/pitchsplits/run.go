package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pitchsplits/internal/config"
	"github.com/Sternrassler/pitchsplits/internal/export"
	"github.com/Sternrassler/pitchsplits/internal/pipeline"
	"github.com/Sternrassler/pitchsplits/internal/statsapi"
	"github.com/Sternrassler/pitchsplits/pkg/cache"
	"github.com/Sternrassler/pitchsplits/pkg/client"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
	"github.com/Sternrassler/pitchsplits/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

type runFlags struct {
	configPath     string
	baseURL        string
	seasonStart    int
	seasonEnd      int
	rosterSeason   int
	workers        int
	maxRetries     int
	initialBackoff time.Duration
	timeout        time.Duration
	output         string
	format         string
	dropColumns    []string
	redisAddr      string
	metricsAddr    string
	logLevel       string
	pretty         bool
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest game splits and write the export",
		Long: "Resolves active pitchers, indexes every season's schedule, aggregates each pitcher's game logs " +
			"concurrently and writes the sorted export. Flags override the config file and PITCHSPLITS_* env vars.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "path to YAML config file (default $PITCHSPLITS_CONFIG)")
	fs.StringVar(&f.baseURL, "base-url", "", "stats API base URL")
	fs.IntVar(&f.seasonStart, "season-start", 0, "first season to harvest")
	fs.IntVar(&f.seasonEnd, "season-end", 0, "last season to harvest (inclusive)")
	fs.IntVar(&f.rosterSeason, "roster-season", 0, "season whose active rosters define the pitchers")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent pitcher tasks")
	fs.IntVar(&f.maxRetries, "max-retries", 0, "attempts per request")
	fs.DurationVar(&f.initialBackoff, "initial-backoff", 0, "pause after the first failed attempt, doubled each retry")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-attempt request timeout")
	fs.StringVarP(&f.output, "output", "o", "", "export path")
	fs.StringVar(&f.format, "format", "", "export format: csv or sqlite")
	fs.StringSliceVar(&f.dropColumns, "drop-columns", nil, "columns to omit from the export")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for the response cache (disabled when empty)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "address for the /metrics listener (disabled when empty)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&f.pretty, "pretty", false, "human-readable console logs")
	return cmd
}

// override applies the flags the user actually set.
func (f runFlags) override(cmd *cobra.Command) func(*config.Config) {
	changed := cmd.Flags().Changed
	return func(c *config.Config) {
		if changed("base-url") {
			c.BaseURL = f.baseURL
		}
		if changed("season-start") {
			c.SeasonStart = f.seasonStart
		}
		if changed("season-end") {
			c.SeasonEnd = f.seasonEnd
		}
		if changed("roster-season") {
			c.RosterSeason = f.rosterSeason
		}
		if changed("workers") {
			c.Workers = f.workers
		}
		if changed("max-retries") {
			c.MaxRetries = f.maxRetries
		}
		if changed("initial-backoff") {
			c.InitialBackoff = f.initialBackoff
		}
		if changed("timeout") {
			c.RequestTimeout = f.timeout
		}
		if changed("output") {
			c.Output = f.output
		}
		if changed("format") {
			c.Format = f.format
		}
		if changed("drop-columns") {
			c.DropColumns = f.dropColumns
		}
		if changed("redis-addr") {
			c.RedisAddr = f.redisAddr
		}
		if changed("metrics-addr") {
			c.MetricsAddr = f.metricsAddr
		}
		if changed("log-level") {
			c.LogLevel = f.logLevel
		}
		if changed("pretty") {
			c.LogPretty = f.pretty
		}
	}
}

func runHarvest(cmd *cobra.Command, f runFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.LoadOptions{
		ConfigPath: f.configPath,
		Override:   f.override(cmd),
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cacheManager := openCache(ctx, cfg)
	if cacheManager != nil {
		defer cacheManager.Close()
	}

	fetcher, err := client.New(client.Config{
		UserAgent:       cfg.UserAgent,
		Timeout:         cfg.RequestTimeout,
		MaxRetries:      cfg.MaxRetries,
		InitialBackoff:  cfg.InitialBackoff,
		MaxConnsPerHost: cfg.Workers,
		Cache:           cacheManager,
		CacheTTL:        cfg.CacheTTL,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer fetcher.Close()

	api := statsapi.New(fetcher, statsapi.Options{
		BaseURL:    cfg.BaseURL,
		SportID:    cfg.SportID,
		RosterType: cfg.RosterType,
		GameTypes:  cfg.GameTypes,
	})

	report, err := pipeline.New(api, pipeline.Config{
		Seasons:      cfg.Seasons(),
		RosterSeason: cfg.RosterSeason,
		Workers:      cfg.Workers,
	}).Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if err := writeExport(ctx, cfg, report.Table); err != nil {
		log.Error().Err(err).Str("output", cfg.Output).Msg("Export failed")
		return err
	}

	summary := report.Table.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", cfg.Output, summary)
	return nil
}

// openCache connects the optional response cache. An unreachable Redis
// disables caching for the run instead of failing it.
func openCache(ctx context.Context, cfg *config.Config) *cache.Manager {
	if cfg.RedisAddr == "" {
		return nil
	}
	m := cache.NewManager(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	if err := m.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, running without response cache")
		_ = m.Close()
		return nil
	}
	log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("Response cache enabled")
	return m
}

func writeExport(ctx context.Context, cfg *config.Config, table *export.Table) error {
	if err := table.DropColumns(cfg.DropColumns...); err != nil {
		return fmt.Errorf("drop columns: %w", err)
	}
	w, err := export.NewWriter(cfg.Format, cfg.Output)
	if err != nil {
		return err
	}
	if err := w.Write(ctx, table); err != nil {
		_ = w.Close()
		return fmt.Errorf("write export: %w", err)
	}
	return w.Close()
}
