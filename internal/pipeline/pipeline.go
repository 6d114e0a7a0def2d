// Package pipeline runs a full harvest: resolve active pitchers, index every
// season's schedule, aggregate each pitcher on a bounded worker pool and
// assemble the sorted export table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/pitchsplits/internal/export"
	"github.com/Sternrassler/pitchsplits/internal/gamelog"
	"github.com/Sternrassler/pitchsplits/internal/roster"
	"github.com/Sternrassler/pitchsplits/internal/schedule"
	"github.com/Sternrassler/pitchsplits/pkg/batch"
	"github.com/Sternrassler/pitchsplits/pkg/logging"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitchsplits_pipeline_stage_duration_seconds",
		Help:    "Time spent in each pipeline state, by the state left",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	pitcherTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_pitcher_tasks_total",
		Help: "Pitcher aggregation tasks collected, by result",
	}, []string{"result"})

	exportRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pitchsplits_export_rows",
		Help: "Rows in the most recently assembled export table",
	})
)

// Source is every stats API call a run makes, satisfied by *statsapi.API.
type Source interface {
	roster.Source
	schedule.Source
	gamelog.Source
}

// Config fixes the parameters of a run.
type Config struct {
	// Seasons to harvest game logs for, each with its own schedule index.
	Seasons []int
	// RosterSeason is the season whose active rosters define the pitchers.
	RosterSeason int
	// Workers bounds the concurrent pitcher tasks.
	Workers int
}

// Report is the result of a completed run.
type Report struct {
	RunID       string
	Table       *export.Table
	Pitchers    int
	FailedTasks int
	Games       int
	Duration    time.Duration
	// Stages is the time spent in each state before the next one began.
	Stages map[State]time.Duration
}

// Orchestrator drives one run through its states.
type Orchestrator struct {
	src     Source
	config  Config
	runID   string
	state   atomic.Int32
	started atomic.Bool
	logger  zerolog.Logger

	// owned by the Run goroutine
	stageStart time.Time
	stages     map[State]time.Duration
}

// New creates an orchestrator in StateInit.
func New(src Source, config Config) *Orchestrator {
	if config.Workers <= 0 {
		config.Workers = batch.DefaultConfig().MaxConcurrency
	}
	runID := uuid.NewString()
	return &Orchestrator{
		src:    src,
		config: config,
		runID:  runID,
		logger: logging.NewLogger("pipeline").With().Str("run_id", runID).Logger(),
	}
}

// RunID identifies the run in logs and reports.
func (o *Orchestrator) RunID() string { return o.runID }

// State returns the current state. It is safe to call while Run executes.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) advance(to State) {
	from := State(o.state.Swap(int32(to)))
	now := time.Now()
	elapsed := now.Sub(o.stageStart)
	o.stageStart = now
	o.stages[from] += elapsed
	stageDuration.WithLabelValues(from.String()).Observe(elapsed.Seconds())
	o.logger.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Dur("elapsed", elapsed).
		Msg("Stage transition")
}

// Run executes the pipeline once. Upstream failures degrade to fewer rows,
// and a failed or panicking pitcher task contributes none; neither is an
// error. Run returns an error only when ctx is done before the table is
// assembled, or when called twice.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if !o.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("run already started (state %s)", o.State())
	}
	runStart := time.Now()
	o.stageStart = runStart
	o.stages = make(map[State]time.Duration)
	o.logger.Info().
		Ints("seasons", o.config.Seasons).
		Int("roster_season", o.config.RosterSeason).
		Int("workers", o.config.Workers).
		Msg("Run started")

	pitchers := roster.ActivePitchers(ctx, o.src, o.config.RosterSeason)
	o.advance(StateRosterResolved)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexes, err := schedule.BuildAll(ctx, o.src, o.config.Seasons)
	if err != nil {
		return nil, fmt.Errorf("build schedule index: %w", err)
	}
	o.advance(StateScheduleIndexed)

	agg := gamelog.NewAggregator(o.src, indexes, o.config.Seasons)
	runner := batch.NewRunner[int, []export.Row](batch.Config{MaxConcurrency: o.config.Workers})
	outcomes := runner.Stream(ctx, pitchers, agg.Aggregate)
	o.advance(StateDispatched)
	o.advance(StateCollecting)
	var (
		rows   []export.Row
		failed int
	)
	for out := range outcomes {
		if !out.OK() {
			failed++
			pitcherTasks.WithLabelValues(taskResult(out.Err)).Inc()
			o.logger.Warn().
				Err(out.Err).
				Int("pitcher_id", out.Input).
				Msg("Pitcher task failed, skipping")
			continue
		}
		pitcherTasks.WithLabelValues("ok").Inc()
		rows = append(rows, out.Value...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := export.Assemble(rows)
	exportRows.Set(float64(len(table.Rows)))
	o.advance(StateDone)

	report := &Report{
		RunID:       o.runID,
		Table:       table,
		Pitchers:    len(pitchers),
		FailedTasks: failed,
		Games:       indexes.Games(),
		Duration:    time.Since(runStart),
		Stages:      o.stages,
	}
	summary := table.Summary()
	o.logger.Info().
		Int("rows", summary.Rows).
		Int("pitchers_with_rows", summary.Pitchers).
		Int("pitchers_resolved", report.Pitchers).
		Int("failed_tasks", failed).
		Dur("duration", report.Duration).
		Msg("Run complete")
	return report, nil
}

func taskResult(err error) string {
	switch {
	case errors.Is(err, batch.ErrTaskPanic):
		return "panic"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failed"
	}
}
