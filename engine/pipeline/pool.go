package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/executor"
)

// workItem is one gated target ready for execution.
type workItem struct {
	idx     int
	target  engine.Target
	kind    engine.Kind
	payload string
}

// executeBatch drives the items through the executor with a bounded
// worker pool. Each outcome lands in rows[item.idx]. The first
// run-fatal executor error cancels the batch; items that never ran
// are marked not-attempted so the report stays complete.
func executeBatch(ctx context.Context, exec *executor.Executor, runID string, workers int, items []workItem, rows []Row, timeNow func() time.Time) error {
	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan workItem)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		fatalErr error
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				if ctx.Err() != nil {
					rows[item.idx].Status = engine.StatusNotAttempted
					rows[item.idx].Reason = "run aborted"
					rows[item.idx].Timestamp = timeNow()
					continue
				}

				result, err := exec.Execute(ctx, item.target, item.kind, item.payload, runID)
				rows[item.idx].Status = result.Status
				rows[item.idx].Reason = result.Reason
				rows[item.idx].Attempts = result.Attempts
				rows[item.idx].Timestamp = result.Timestamp

				if err != nil {
					once.Do(func() {
						fatalErr = err
						cancel()
					})
				}
			}
		}()
	}

	for _, item := range items {
		ch <- item
	}
	close(ch)
	wg.Wait()

	return fatalErr
}
