package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/runeberg/flare/internal/config"
	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/rank"
	"github.com/runeberg/flare/internal/tools"
	"github.com/runeberg/flare/internal/weights"
)

// clipPrefix opts a query into clipboard-history candidates. Without
// it, clipboard candidates never appear in results.
const clipPrefix = "clip"

// Cache modes. Fast and batch rounds consult different provider sets,
// so their cached results must not alias.
const (
	modeFast  = "fast"
	modeBatch = "batch"
)

// LaunchRecorder receives a launch event after an action executes, for
// frequency-based ranking. Implementations must tolerate concurrent
// calls.
type LaunchRecorder interface {
	RecordLaunch(ctx context.Context, cat provider.Category, identifier string) error
}

// Options configures a new Engine. Zero-value fields fall back to
// sensible defaults; only Registry is worth providing in practice,
// since an empty registry answers every query with tools alone.
type Options struct {
	// Config supplies timing, pool, and cache settings. Nil uses
	// defaults. Invalid values are clamped the same way startup does.
	Config *config.Config

	// Registry holds the candidate providers. Nil means none.
	Registry *provider.Registry

	// Ranker scores candidates. Nil builds one with default weights
	// and no usage stats.
	Ranker *rank.Ranker

	// Tools are the query short-circuits, tried in order. Nil uses
	// the built-in calculator, converter, and clock.
	Tools []tools.Tool

	// Recorder receives launch events. Nil disables recording.
	Recorder LaunchRecorder

	// Logger receives structured diagnostics. Nil uses slog.Default.
	Logger *slog.Logger
}

// Engine orchestrates search rounds: debounce, tool short-circuits,
// provider fan-out, ranking, caching, and supersession. All methods
// are safe for concurrent use.
type Engine struct {
	cfg      config.EngineConfig
	registry *provider.Registry
	ranker   *rank.Ranker
	tools    []tools.Tool
	cache    *resultCache
	group    singleflight.Group
	pool     *ants.Pool
	metrics  *Counters
	recorder LaunchRecorder
	logger   *slog.Logger

	gen atomic.Uint64

	mu      sync.Mutex
	state   SessionState
	current *session
}

// New builds an Engine from opts. The returned engine owns a worker
// pool; call Close when done with it.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	// Copy before clamping so the caller's config is left alone.
	c := *cfg

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range c.ValidateAndFix() {
		logger.Debug("config value clamped", "field", w.Field, "detail", w.Message)
	}

	registry := opts.Registry
	if registry == nil {
		registry = provider.NewRegistry()
	}
	ranker := opts.Ranker
	if ranker == nil {
		ranker = rank.New(nil, nil)
	}
	toolset := opts.Tools
	if toolset == nil {
		toolset = tools.Defaults()
	}

	pool, err := ants.NewPool(c.Engine.PoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}

	metrics := &Counters{}
	cache := newResultCache(c.Cache.Capacity, time.Duration(c.Cache.TTLMs)*time.Millisecond, metrics)

	return &Engine{
		cfg:      c.Engine,
		registry: registry,
		ranker:   ranker,
		tools:    toolset,
		cache:    cache,
		pool:     pool,
		metrics:  metrics,
		recorder: opts.Recorder,
		logger:   logger,
		state:    StateIdle,
	}, nil
}

// SearchFast runs one round against the fast providers only, under
// the keystroke budget. Never returns an error: degraded providers
// are dropped, and an empty list is a valid answer.
func (e *Engine) SearchFast(ctx context.Context, query string) []rank.Scored {
	return e.runRound(ctx, query, false)
}

// Search runs one round against all providers, fast and slow. Used by
// batch callers that can afford the slow-provider budget.
func (e *Engine) Search(ctx context.Context, query string) []rank.Scored {
	return e.runRound(ctx, query, true)
}

// SearchAsync is the debounced keystroke entry point. It waits out the
// debounce window, runs a fast round, and publishes only if no newer
// keystroke arrived in the meantime. Returns ok=false, with no results
// and no error, when superseded or cancelled.
func (e *Engine) SearchAsync(ctx context.Context, query string) ([]rank.Scored, bool) {
	gen := e.gen.Add(1)
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sess := &session{query: query, gen: gen, cancel: cancel}

	e.mu.Lock()
	if e.current != nil {
		// A pending or in-flight search belongs to an older
		// keystroke now. Cancel it.
		e.current.cancel()
	}
	e.current = sess
	e.state = StateDebouncing
	e.mu.Unlock()

	bail := func() ([]rank.Scored, bool) {
		e.metrics.Superseded.Add(1)
		e.logger.Debug("async search discarded", "query_len", len(sess.query), "gen", sess.gen)
		e.clearIfCurrent(sess)
		return nil, false
	}

	timer := time.NewTimer(time.Duration(e.cfg.DebounceMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-sctx.Done():
		return bail()
	}

	// Still current? Checked before any provider work starts.
	if sctx.Err() != nil || e.gen.Load() != gen {
		return bail()
	}

	e.mu.Lock()
	if e.current == sess {
		e.state = StateInFlight
	}
	e.mu.Unlock()

	results := e.runRound(sctx, query, false)

	// Still current? Checked again before publishing, so a stale
	// round can never reach the caller.
	if sctx.Err() != nil || e.gen.Load() != gen {
		return bail()
	}

	e.clearIfCurrent(sess)
	return results, true
}

// CancelSearch cancels any pending or in-flight async search. Calling
// it with nothing running is a no-op.
func (e *Engine) CancelSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.cancel()
		e.current = nil
	}
	e.state = StateIdle
}

// UpdateWeights swaps the active weights snapshot and drops every
// cached round, since cached scores embed the old multipliers. Nil
// restores defaults. Persistence is the caller's job.
func (e *Engine) UpdateWeights(w *weights.Weights) {
	e.ranker.Weights().Update(w)
	e.cache.InvalidateAll()
}

// Launch executes the result's action and records the launch for
// frequency ranking. A recording failure is logged, not returned; the
// launch itself already happened.
func (e *Engine) Launch(ctx context.Context, res rank.Scored) error {
	if res.Action == nil {
		return errors.New("result has no action")
	}
	if err := res.Action.Execute(ctx); err != nil {
		return errors.Wrap(err, "execute action")
	}
	if e.recorder != nil {
		if err := e.recorder.RecordLaunch(ctx, res.Category, res.Title); err != nil {
			e.logger.Warn("record launch", "category", string(res.Category), "error", err.Error())
		}
	}
	return nil
}

// Metrics exposes the engine's counters.
func (e *Engine) Metrics() *Counters {
	return e.metrics
}

// State reports where the async path currently is.
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Registry exposes the provider registry for registration at startup.
func (e *Engine) Registry() *provider.Registry {
	return e.registry
}

// Close cancels any in-flight search and releases the worker pool.
func (e *Engine) Close() error {
	e.CancelSearch()
	e.pool.Release()
	return nil
}

// runRound executes one complete search round. Every entry point lands
// here; includeSlow selects whether the slow providers participate.
func (e *Engine) runRound(ctx context.Context, query string, includeSlow bool) []rank.Scored {
	started := time.Now()
	defer func() {
		e.metrics.SearchRounds.Add(1)
		e.metrics.LatencySumMs.Add(time.Since(started).Milliseconds())
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return []rank.Scored{}
	}

	// Shell prefix bypasses every provider: exactly one result.
	if command, ok := tools.ParseShellCommand(query); ok {
		e.metrics.ToolHits.Add(1)
		return []rank.Scored{{
			Candidate: tools.ShellCandidate(command),
			Score:     tools.ShortCircuitScore,
			Source:    provider.SourceTool,
		}}
	}

	mode := modeFast
	if includeSlow {
		mode = modeBatch
	}
	key := cacheKey(mode, query)
	if cached, ok := e.cache.Get(key); ok {
		return cached
	}

	// Coalesce concurrent identical rounds onto one fan-out.
	v, _, shared := e.group.Do(key, func() (interface{}, error) {
		res := e.collectRound(ctx, query, includeSlow)
		if ctx.Err() == nil {
			e.cache.Set(key, res)
		}
		return res, nil
	})
	results := v.([]rank.Scored)
	if shared {
		out := make([]rank.Scored, len(results))
		copy(out, results)
		return out
	}
	return results
}

// collectRound does the actual work of a round: tool detection,
// provider fan-out, scoring with the clipboard gate, merge, sort,
// dedupe, truncate.
func (e *Engine) collectRound(ctx context.Context, query string, includeSlow bool) []rank.Scored {
	roundID := uuid.NewString()
	started := time.Now()

	toolRes, toolHit := tools.Detect(e.tools, query)

	fastBudget := time.Duration(e.cfg.FastTimeoutMs) * time.Millisecond
	cands := e.fanOutFast(ctx, query, fastBudget)
	if includeSlow {
		slowBudget := time.Duration(e.cfg.SlowTimeoutMs) * time.Millisecond
		cands = append(cands, e.fanOutSlow(ctx, query, slowBudget)...)
	}

	results := e.scoreAll(query, cands)

	if toolHit {
		e.metrics.ToolHits.Add(1)
		results = append(results, rank.Scored{
			Candidate: toolRes.Candidate,
			Score:     toolRes.Score,
			Source:    provider.SourceTool,
		})
	}

	rank.Sort(results)
	results = rank.Dedupe(results)
	results = rank.Truncate(results, e.cfg.MaxResults)

	e.logger.Debug("search round",
		"round_id", roundID,
		"query", query,
		"mode_batch", includeSlow,
		"tool_hit", toolHit,
		"candidates", len(cands),
		"results", len(results),
		"took_ms", time.Since(started).Milliseconds(),
	)
	return results
}

// scoreAll applies the clipboard gate and scores the surviving
// candidates, preserving input order for the final tie-break.
// Clipboard candidates match against the remainder after the "clip"
// prefix; everything else matches against the full query.
func (e *Engine) scoreAll(query string, cands []provider.Candidate) []rank.Scored {
	clipQuery, clipMode := parseClipQuery(query)

	out := make([]rank.Scored, 0, len(cands))
	for _, c := range cands {
		q := query
		if c.Category == provider.CategoryClipboard {
			if !clipMode || clipQuery == "" {
				continue
			}
			q = clipQuery
		}
		s := e.ranker.ScoreCandidate(q, c)
		if s.Score > 0 {
			out = append(out, s)
		}
	}
	return out
}

// parseClipQuery reports whether the query opts into clipboard history
// and returns the remainder used to match clipboard candidates.
func parseClipQuery(query string) (string, bool) {
	lower := strings.ToLower(query)
	if lower == clipPrefix {
		return "", true
	}
	if strings.HasPrefix(lower, clipPrefix+" ") {
		return strings.TrimSpace(query[len(clipPrefix)+1:]), true
	}
	return "", false
}

// clearIfCurrent resets the async state to idle, but only if sess is
// still the active session. A newer keystroke's session is left alone.
func (e *Engine) clearIfCurrent(sess *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == sess {
		e.current = nil
		e.state = StateIdle
	}
}
