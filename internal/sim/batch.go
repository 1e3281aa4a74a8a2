package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Job pairs a simulator with the scenario it should run. Simulators carry
// per-run state, so every job needs its own.
type Job struct {
	Name     string
	Sim      *Simulator
	Scenario Scenario
}

// RunEach runs every job on a pool of GOMAXPROCS workers. results[i] and
// errs[i] belong to jobs[i]; a failed job may still carry a partial result.
func RunEach(ctx context.Context, jobs []Job) ([]*Result, []error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(runtime.GOMAXPROCS(0), len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				job := jobs[idx]
				results[idx], errs[idx] = job.Sim.Run(ctx, job.Scenario)
			}
		}()
	}

	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()

	return results, errs
}

// RunBatch runs every job concurrently and returns the results in job order.
// The first failing job, by index, determines the returned error.
func RunBatch(ctx context.Context, jobs []Job) ([]*Result, error) {
	results, errs := RunEach(ctx, jobs)
	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("job %q: %w", jobs[i].Name, err)
		}
	}
	return results, nil
}
