package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// ErrTaskPanic marks an outcome whose task panicked.
var ErrTaskPanic = errors.New("task panicked")

var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_batch_tasks_total",
		Help: "Batch tasks finished, by result",
	}, []string{"result"})

	tasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pitchsplits_batch_tasks_in_flight",
		Help: "Batch tasks currently executing",
	})
)

// Config holds runner configuration.
type Config struct {
	// MaxConcurrency is the number of worker goroutines.
	MaxConcurrency int
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{MaxConcurrency: 12}
}

// Task processes one input.
type Task[In, Out any] func(ctx context.Context, in In) (Out, error)

// Outcome is the result of one task. Exactly one of Value or Err is meaningful.
type Outcome[In, Out any] struct {
	// Index is the position of Input in the submitted slice.
	Index    int
	Input    In
	Value    Out
	Err      error
	Duration time.Duration
}

// OK reports whether the task succeeded.
func (o Outcome[In, Out]) OK() bool {
	return o.Err == nil
}

// Runner executes tasks with bounded concurrency.
type Runner[In, Out any] struct {
	config Config
}

// NewRunner creates a runner, applying defaults to unset fields.
func NewRunner[In, Out any](config Config) *Runner[In, Out] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	return &Runner[In, Out]{config: config}
}

// Concurrency returns the worker count.
func (r *Runner[In, Out]) Concurrency() int {
	return r.config.MaxConcurrency
}

// Stream starts the pool and returns a channel of outcomes in completion
// order. The channel is closed after every input has produced an outcome.
func (r *Runner[In, Out]) Stream(ctx context.Context, inputs []In, task Task[In, Out]) <-chan Outcome[In, Out] {
	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	results := make(chan Outcome[In, Out], len(inputs))

	workers := r.config.MaxConcurrency
	if workers > len(inputs) {
		workers = len(inputs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go r.worker(ctx, w, inputs, queue, results, task, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Run is Stream collected into a slice (completion order).
func (r *Runner[In, Out]) Run(ctx context.Context, inputs []In, task Task[In, Out]) []Outcome[In, Out] {
	outcomes := make([]Outcome[In, Out], 0, len(inputs))
	for out := range r.Stream(ctx, inputs, task) {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (r *Runner[In, Out]) worker(ctx context.Context, workerID int, inputs []In, queue <-chan int, results chan<- Outcome[In, Out], task Task[In, Out], wg *sync.WaitGroup) {
	defer wg.Done()
	processed := 0

	for idx := range queue {
		out := Outcome[In, Out]{Index: idx, Input: inputs[idx]}

		if err := ctx.Err(); err != nil {
			out.Err = err
			tasksTotal.WithLabelValues("cancelled").Inc()
			results <- out
			continue
		}

		start := time.Now()
		out.Value, out.Err = runTask(ctx, task, inputs[idx])
		out.Duration = time.Since(start)

		switch {
		case out.Err == nil:
			tasksTotal.WithLabelValues("ok").Inc()
		case errors.Is(out.Err, ErrTaskPanic):
			tasksTotal.WithLabelValues("panic").Inc()
		default:
			tasksTotal.WithLabelValues("failed").Inc()
		}

		results <- out
		processed++
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("tasks_processed", processed).
		Msg("Worker completed")
}

// runTask invokes task, converting a panic into an ErrTaskPanic error.
func runTask[In, Out any](ctx context.Context, task Task[In, Out], in In) (out Out, err error) {
	tasksInFlight.Inc()
	defer tasksInFlight.Dec()

	defer func() {
		if p := recover(); p != nil {
			var zero Out
			out = zero
			err = fmt.Errorf("%w: %v\n%s", ErrTaskPanic, p, debug.Stack())
		}
	}()

	return task(ctx, in)
}
