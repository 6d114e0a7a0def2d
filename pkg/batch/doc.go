// Package batch runs independent tasks on a bounded worker pool and
// collects every outcome, successful or not.
//
// Unlike a fail-fast group, one failing task never cancels the others: each
// task's result is wrapped in an Outcome carrying either a value or an error,
// and outcomes are delivered in completion order.
//
// Example usage:
//
//	runner := batch.NewRunner[int, []Row](batch.DefaultConfig())
//	for out := range runner.Stream(ctx, pitcherIDs, aggregate) {
//		if out.Err != nil {
//			continue // that pitcher contributes nothing
//		}
//		rows = append(rows, out.Value...)
//	}
//
// The runner:
//   - Queues every input immediately; the pool size alone throttles execution
//   - Spawns MaxConcurrency workers (default 12)
//   - Converts task panics into failed outcomes (ErrTaskPanic)
//   - Marks inputs never started because ctx was cancelled as failed
package batch
