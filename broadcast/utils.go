package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/crptomonkeys/greenwiz/types"
)

// Attempt is one racer in FirstSuccess.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

type attemptResult[T any] struct {
	name  string
	value T
	err   error
}

// FirstSuccess runs every attempt concurrently and returns the first result
// without error. The context handed to the attempts is cancelled as soon as a
// winner is found or ctx ends, so losers stop early. A failing attempt never
// affects the others. When nothing succeeds the per-attempt failures are
// returned, with ctx's error if it ended first.
func FirstSuccess[T any](ctx context.Context, attempts []Attempt[T]) (T, string, []types.EndpointFailure, error) {
	var zero T
	if len(attempts) == 0 {
		return zero, "", nil, errors.New("no attempts to run")
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so late finishers never block after the race is decided.
	results := make(chan attemptResult[T], len(attempts))
	for _, a := range attempts {
		go func(a Attempt[T]) {
			defer func() {
				if r := recover(); r != nil {
					results <- attemptResult[T]{name: a.Name, err: fmt.Errorf("panic: %v", r)}
				}
			}()
			v, err := a.Run(raceCtx)
			results <- attemptResult[T]{name: a.Name, value: v, err: err}
		}(a)
	}

	var failures []types.EndpointFailure
	for pending := len(attempts); pending > 0; pending-- {
		select {
		case res := <-results:
			if res.err == nil {
				return res.value, res.name, failures, nil
			}
			failures = append(failures, types.EndpointFailure{URL: res.name, Reason: res.err.Error()})
		case <-ctx.Done():
			return zero, "", failures, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, "", failures, err
	}
	return zero, "", failures, errors.New("every attempt failed")
}

// NodeUsage counts broadcast wins and failures per endpoint.
type NodeUsage struct {
	mu       sync.Mutex
	wins     map[string]int
	failures map[string]int
}

func NewNodeUsage() *NodeUsage {
	return &NodeUsage{wins: make(map[string]int), failures: make(map[string]int)}
}

// RecordWin notes that url produced the accepted response.
func (u *NodeUsage) RecordWin(url string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.wins[url]++
}

// RecordFailure notes a failed attempt against url.
func (u *NodeUsage) RecordFailure(url string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[url]++
}

// NodeStat is one endpoint's counters.
type NodeStat struct {
	URL      string `json:"url"`
	Wins     int    `json:"wins"`
	Failures int    `json:"failures"`
}

// Stats returns counters sorted by wins, most first.
func (u *NodeUsage) Stats() []NodeStat {
	u.mu.Lock()
	defer u.mu.Unlock()

	seen := make(map[string]*NodeStat)
	for url, n := range u.wins {
		seen[url] = &NodeStat{URL: url, Wins: n}
	}
	for url, n := range u.failures {
		if s, ok := seen[url]; ok {
			s.Failures = n
		} else {
			seen[url] = &NodeStat{URL: url, Failures: n}
		}
	}
	out := make([]NodeStat, 0, len(seen))
	for _, s := range seen {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].URL < out[j].URL
	})
	return out
}
