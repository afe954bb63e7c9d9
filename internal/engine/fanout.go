package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/runeberg/flare/internal/logging"
	"github.com/runeberg/flare/internal/provider"
)

// Sentinel errors classifying dropped providers. Both are contained:
// the round proceeds without the provider's candidates.
var (
	// ErrProviderTimeout marks a provider that missed its deadline.
	ErrProviderTimeout = errors.New("provider timed out")
	// ErrProviderFailure marks a provider that returned an error.
	ErrProviderFailure = errors.New("provider failed")
)

// classifyProviderError marks err with the sentinel matching how the
// provider was dropped. pctx is the per-provider context, whose
// deadline distinguishes a timeout from an ordinary failure.
func classifyProviderError(pctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(pctx.Err(), context.DeadlineExceeded) {
		return errors.Mark(err, ErrProviderTimeout)
	}
	return errors.Mark(err, ErrProviderFailure)
}

// fanOutFast queries the fast providers concurrently on the shared
// worker pool, each under its own deadline. Batches merge in
// registration order so the final tie-break stays deterministic
// regardless of which provider finishes first.
func (e *Engine) fanOutFast(ctx context.Context, query string, timeout time.Duration) []provider.Candidate {
	providers := e.registry.Fast()
	if len(providers) == 0 {
		return nil
	}

	batches := make([][]provider.Candidate, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			batches[i] = e.runProvider(ctx, p, query, timeout)
		}
		if err := e.pool.Submit(task); err != nil {
			// Pool saturated or released; run on the caller.
			task()
		}
	}
	wg.Wait()

	return mergeBatches(batches)
}

// fanOutSlow queries the slow providers under an errgroup bound to the
// round context. The closures never return an error: containment
// happens per provider inside runProvider, so one slow provider
// failing cannot cancel its siblings.
func (e *Engine) fanOutSlow(ctx context.Context, query string, timeout time.Duration) []provider.Candidate {
	providers := e.registry.Slow()
	if len(providers) == 0 {
		return nil
	}

	batches := make([][]provider.Candidate, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			batches[i] = e.runProvider(gctx, p, query, timeout)
			return nil
		})
	}
	_ = g.Wait()

	return mergeBatches(batches)
}

// runProvider executes one provider under its own deadline. A timeout
// or failure drops that provider's batch and nothing else.
func (e *Engine) runProvider(ctx context.Context, p provider.Provider, query string, timeout time.Duration) []provider.Candidate {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cands, err := p.Search(pctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded round, not a provider fault.
			return nil
		}
		err = classifyProviderError(pctx, err)
		if errors.Is(err, ErrProviderTimeout) {
			e.metrics.ProviderTimeouts.Add(1)
			logging.LogProviderTimeout(e.logger, p.Name(), timeout.Milliseconds())
		} else {
			e.metrics.ProviderFailures.Add(1)
			logging.LogProviderFailure(e.logger, p.Name(), err)
		}
		return nil
	}
	return cands
}

func mergeBatches(batches [][]provider.Candidate) []provider.Candidate {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	if total == 0 {
		return nil
	}
	merged := make([]provider.Candidate, 0, total)
	for _, b := range batches {
		merged = append(merged, b...)
	}
	return merged
}
