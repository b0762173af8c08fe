package sim

import (
	"context"
	"sync"
)

// Ensemble repeats a batch run over consecutive seeds in parallel. Each run
// gets its own Runner from newRunner so metrics are not shared.
type Ensemble struct {
	newRunner func() *Runner
	numRuns   int
	seedStart int64
}

func NewEnsemble(newRunner func() *Runner, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{newRunner: newRunner, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			results[idx], errs[idx] = e.newRunner().Run(ctx, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
