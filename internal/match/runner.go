package match

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/network"
)

// originResult holds the hits of a single origin.
type originResult struct {
	index  int
	origin network.StationLocation
	hits   []hit
}

// run traverses every origin, in parallel when more than one worker is
// configured, and returns the results in origin order.
func run(ctx context.Context, t *traversal, origins []network.StationLocation, opts Options, logger *slog.Logger) ([]originResult, error) {
	results := make([]originResult, len(origins))
	if len(origins) == 0 {
		return results, nil
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(origins) {
		numWorkers = len(origins)
	}

	record := func(done int, r originResult, entered int) {
		results[r.index] = r
		opts.Metrics.OriginDone(entered)
		if opts.Progress != nil {
			opts.Progress(done, len(origins))
		}
		if done%1000 == 0 {
			logging.LogOperation(logger, "matching_progress",
				slog.Int("processed", done),
				slog.Int("total", len(origins)))
		}
	}

	if numWorkers == 1 {
		for i, o := range origins {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			hits, entered := t.origin(o)
			record(i+1, originResult{index: i, origin: o, hits: hits}, entered)
		}
		return results, nil
	}

	type job struct {
		index  int
		origin network.StationLocation
	}
	type done struct {
		result  originResult
		entered int
	}

	jobs := make(chan job, numWorkers)
	out := make(chan done, numWorkers*10)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					// Drain so the feeder can finish.
					for range jobs {
					}
					return
				}
				hits, entered := t.origin(j.origin)
				out <- done{result: originResult{index: j.index, origin: j.origin, hits: hits}, entered: entered}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, o := range origins {
			select {
			case jobs <- job{index: i, origin: o}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	processed := 0
	for d := range out {
		processed++
		record(processed, d.result, d.entered)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
