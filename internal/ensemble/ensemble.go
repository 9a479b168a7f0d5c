// Package ensemble executes independent emulator runs in parallel.
// Single runs are strictly sequential folds, so the only legal
// parallelism is across runs: different parameter sets over a shared
// read-only scenario.
package ensemble

import (
	"context"
	"runtime"
	"sync"

	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/forcing"
	"github.com/nholford/ebsim/internal/sim"
)

// Member is one ensemble entry. Each member owns its ParameterSet (and
// therefore its cached eigendecomposition); members never share mutable
// state.
type Member struct {
	Name   string
	Params *ebm.ParameterSet
}

// Outcome pairs a member with its run result or error.
type Outcome struct {
	Name   string
	Result *sim.Result
	Err    error
}

// Run executes every member against the scenario. Results come back in
// member order. A canceled context stops pending members; members
// already running finish their current step and report ctx.Err(). With
// workers <= 0 the worker count defaults to GOMAXPROCS.
func Run(ctx context.Context, members []Member, series *forcing.Series, opts sim.Options, workers int) []Outcome {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(members) {
		workers = len(members)
	}

	outcomes := make([]Outcome, len(members))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				m := members[i]
				res, err := sim.Run(ctx, m.Params, series, opts)
				outcomes[i] = Outcome{Name: m.Name, Result: res, Err: err}
			}
		}()
	}

	for i := range members {
		select {
		case <-ctx.Done():
			for j := i; j < len(members); j++ {
				outcomes[j] = Outcome{Name: members[j].Name, Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return outcomes
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}
