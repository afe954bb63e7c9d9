package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runeberg/flare/internal/config"
	"github.com/runeberg/flare/internal/logging"
	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/rank"
	"github.com/runeberg/flare/internal/weights"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	eng, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func registryWith(providers ...provider.Provider) *provider.Registry {
	reg := provider.NewRegistry()
	for _, p := range providers {
		reg.Register(p, provider.Fast)
	}
	return reg
}

func fixedProvider(name string, cands ...provider.Candidate) provider.Provider {
	return provider.NewFunc(name, func(ctx context.Context, query string) ([]provider.Candidate, error) {
		return cands, nil
	})
}

func cand(title string, cat provider.Category) provider.Candidate {
	return provider.Candidate{Title: title, Category: cat, Action: provider.NoopAction{}}
}

// countingProvider counts Search calls and optionally delays or fails.
type countingProvider struct {
	name  string
	cands []provider.Candidate
	delay time.Duration
	err   error
	calls atomic.Int64
}

func (p *countingProvider) Name() string { return p.name }

func (p *countingProvider) Search(ctx context.Context, query string) ([]provider.Candidate, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.cands, nil
}

func titlesOf(results []rank.Scored) []string {
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Title
	}
	return titles
}

func TestNew_Defaults(t *testing.T) {
	eng := newTestEngine(t, Options{})

	assert.Equal(t, StateIdle, eng.State())
	assert.NotNil(t, eng.Metrics())
	assert.NotNil(t, eng.Registry())
}

func TestSearch_EmptyQueryCallsNoProviders(t *testing.T) {
	p := &countingProvider{name: "apps", cands: []provider.Candidate{cand("Firefox", provider.CategoryApplication)}}
	eng := newTestEngine(t, Options{Registry: registryWith(p)})
	ctx := context.Background()

	assert.Empty(t, eng.Search(ctx, ""))
	assert.Empty(t, eng.SearchFast(ctx, "   "))
	assert.Equal(t, int64(0), p.calls.Load())
}

func TestSearch_ShellShortCircuitBypassesProviders(t *testing.T) {
	p := &countingProvider{name: "apps", cands: []provider.Candidate{cand("Echo Studio", provider.CategoryApplication)}}
	eng := newTestEngine(t, Options{Registry: registryWith(p)})
	ctx := context.Background()

	res := eng.Search(ctx, "> echo hello")
	require.Len(t, res, 1)
	assert.Equal(t, "echo hello", res[0].Title)
	assert.Equal(t, provider.SourceTool, res[0].Source)
	assert.Equal(t, float64(2000), res[0].Score)
	assert.Equal(t, int64(0), p.calls.Load())
	assert.Equal(t, int64(1), eng.Metrics().ToolHits.Load())
}

func TestSearch_BareShellPrefixFallsThrough(t *testing.T) {
	p := &countingProvider{name: "apps", cands: []provider.Candidate{cand("Firefox", provider.CategoryApplication)}}
	eng := newTestEngine(t, Options{Registry: registryWith(p)})
	ctx := context.Background()

	res := eng.SearchFast(ctx, ">")
	assert.Empty(t, res)
	assert.Equal(t, int64(1), p.calls.Load())

	res = eng.Search(ctx, ">   ")
	assert.Empty(t, res)
	assert.Equal(t, int64(2), p.calls.Load())
}

func TestSearch_ConversionToolMergedIntoRound(t *testing.T) {
	p := &countingProvider{name: "apps", cands: []provider.Candidate{cand("Kilometers", provider.CategoryApplication)}}
	eng := newTestEngine(t, Options{Registry: registryWith(p)})

	res := eng.Search(context.Background(), "100 km to miles")

	require.Len(t, res, 1)
	assert.Equal(t, "62.14 mi", res[0].Title)
	assert.Equal(t, "100 km =", res[0].Subtitle)
	assert.Equal(t, provider.SourceTool, res[0].Source)
	assert.Equal(t, provider.CategoryConversion, res[0].Category)
	assert.Equal(t, float64(2000), res[0].Score)
	// Providers still ran; the tool result merged into their round.
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Equal(t, int64(1), eng.Metrics().ToolHits.Load())
}

func TestSearch_ToolOutranksStandardRegardlessOfScore(t *testing.T) {
	// An application titled "2+2" matches the query exactly and scores
	// above 2000 with the application weight, but the calculator's
	// tool-source result must still come first.
	apps := fixedProvider("apps", cand("2+2", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Registry: registryWith(apps)})

	res := eng.Search(context.Background(), "2+2")

	require.Len(t, res, 2)
	assert.Equal(t, provider.SourceTool, res[0].Source)
	assert.Equal(t, "4", res[0].Title)
	assert.Equal(t, provider.SourceStandard, res[1].Source)
	assert.Equal(t, "2+2", res[1].Title)
}

func TestSearch_ClipboardGate(t *testing.T) {
	clips := fixedProvider("clipboard",
		cand("meeting notes", provider.CategoryClipboard),
		cand("api token", provider.CategoryClipboard),
	)
	apps := fixedProvider("apps", cand("Clipper", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Registry: registryWith(clips, apps)})
	ctx := context.Background()

	// Without the prefix, clipboard candidates never appear.
	res := eng.Search(ctx, "meeting")
	assert.Empty(t, res)

	// With the prefix, the remainder is the clipboard match query.
	res = eng.Search(ctx, "clip meeting")
	require.Len(t, res, 1)
	assert.Equal(t, "meeting notes", res[0].Title)
	assert.Equal(t, provider.CategoryClipboard, res[0].Category)

	// The prefix is case-insensitive.
	res = eng.Search(ctx, "CLIP meeting")
	require.Len(t, res, 1)
	assert.Equal(t, provider.CategoryClipboard, res[0].Category)

	// Bare "clip" has an empty remainder: no clipboard matches, but
	// other categories still match the full query.
	res = eng.Search(ctx, "clip")
	require.Len(t, res, 1)
	assert.Equal(t, "Clipper", res[0].Title)
	assert.Equal(t, provider.CategoryApplication, res[0].Category)
}

func TestSearch_DedupeKeepsBestRanked(t *testing.T) {
	// Same title from two providers; the application outscores the
	// file, so dedupe keeps the application entry.
	files := fixedProvider("files", cand("Notes", provider.CategoryFile))
	apps := fixedProvider("apps", cand("Notes", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Registry: registryWith(files, apps)})

	res := eng.Search(context.Background(), "notes")

	require.Len(t, res, 1)
	assert.Equal(t, provider.CategoryApplication, res[0].Category)
}

func TestSearch_DeterministicAcrossRepeats(t *testing.T) {
	// Four same-length prefix matches in the same category score
	// identically; their order must follow provider registration, not
	// worker-pool completion order.
	p1 := fixedProvider("p1", cand("Note", provider.CategoryApplication))
	p2 := fixedProvider("p2", cand("Nova", provider.CategoryApplication))
	p3 := fixedProvider("p3",
		cand("Noon", provider.CategoryApplication),
		cand("Nods", provider.CategoryApplication),
	)
	eng := newTestEngine(t, Options{Registry: registryWith(p1, p2, p3)})
	ctx := context.Background()

	want := []string{"Note", "Nova", "Noon", "Nods"}
	for i := 0; i < 5; i++ {
		// Purge the cache so every iteration re-runs the fan-out.
		eng.UpdateWeights(nil)
		got := titlesOf(eng.Search(ctx, "no"))
		require.Equal(t, want, got, "iteration %d", i)
	}
}

func TestSearch_CachesRepeatedQuery(t *testing.T) {
	p := &countingProvider{name: "apps", cands: []provider.Candidate{cand("Firefox", provider.CategoryApplication)}}
	eng := newTestEngine(t, Options{Registry: registryWith(p)})
	ctx := context.Background()

	first := eng.Search(ctx, "firefox")
	require.Len(t, first, 1)
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Equal(t, int64(1), eng.Metrics().CacheMisses.Load())

	second := eng.Search(ctx, "firefox")
	assert.Equal(t, titlesOf(first), titlesOf(second))
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Equal(t, int64(1), eng.Metrics().CacheHits.Load())

	// Weight updates drop cached rounds.
	eng.UpdateWeights(nil)
	_ = eng.Search(ctx, "firefox")
	assert.Equal(t, int64(2), p.calls.Load())
}

func TestUpdateWeights_ChangesRanking(t *testing.T) {
	apps := fixedProvider("apps", cand("Finder", provider.CategoryApplication))
	procs := fixedProvider("procs", cand("findex", provider.CategoryProcess))
	eng := newTestEngine(t, Options{Registry: registryWith(apps, procs)})
	ctx := context.Background()

	res := eng.Search(ctx, "find")
	require.Len(t, res, 2)
	assert.Equal(t, "Finder", res[0].Title)

	eng.UpdateWeights(weights.Defaults().Set(provider.CategoryProcess, 3.0))

	res = eng.Search(ctx, "find")
	require.Len(t, res, 2)
	assert.Equal(t, "findex", res[0].Title)
}

func TestSearchFast_ExcludesSlowProviders(t *testing.T) {
	fast := &countingProvider{name: "fast", cands: []provider.Candidate{cand("Firefox", provider.CategoryApplication)}}
	slow := &countingProvider{name: "slow", cands: []provider.Candidate{cand("firefox.log", provider.CategoryFile)}}
	reg := provider.NewRegistry()
	reg.Register(fast, provider.Fast)
	reg.Register(slow, provider.Slow)
	eng := newTestEngine(t, Options{Registry: reg})
	ctx := context.Background()

	res := eng.SearchFast(ctx, "firefox")
	require.Len(t, res, 1)
	assert.Equal(t, int64(1), fast.calls.Load())
	assert.Equal(t, int64(0), slow.calls.Load())

	res = eng.Search(ctx, "firefox")
	require.Len(t, res, 2)
	assert.Equal(t, int64(1), slow.calls.Load())
}

func TestSearch_ProviderFailureContained(t *testing.T) {
	bad := &countingProvider{name: "bad", err: errors.New("index unavailable")}
	good := fixedProvider("apps", cand("Firefox", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Registry: registryWith(bad, good)})

	res := eng.Search(context.Background(), "firefox")

	require.Len(t, res, 1)
	assert.Equal(t, "Firefox", res[0].Title)
	assert.Equal(t, int64(1), eng.Metrics().ProviderFailures.Load())
}

func TestSearch_ProviderTimeoutContained(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.FastTimeoutMs = 20

	slowpoke := &countingProvider{
		name:  "slowpoke",
		delay: 300 * time.Millisecond,
		cands: []provider.Candidate{cand("firefox-nightly", provider.CategoryApplication)},
	}
	good := fixedProvider("apps", cand("Firefox", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Config: cfg, Registry: registryWith(slowpoke, good)})

	res := eng.SearchFast(context.Background(), "firefox")

	require.Len(t, res, 1)
	assert.Equal(t, "Firefox", res[0].Title)
	assert.Equal(t, int64(1), eng.Metrics().ProviderTimeouts.Load())
}

func TestSearchAsync_ReturnsResults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.DebounceMs = 10

	apps := fixedProvider("apps", cand("Firefox", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Config: cfg, Registry: registryWith(apps)})

	res, ok := eng.SearchAsync(context.Background(), "firefox")

	require.True(t, ok)
	require.Len(t, res, 1)
	assert.Equal(t, "Firefox", res[0].Title)
	assert.Equal(t, StateIdle, eng.State())
	assert.Equal(t, int64(0), eng.Metrics().Superseded.Load())
}

func TestSearchAsync_SupersededByNewerKeystroke(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.DebounceMs = 150

	apps := fixedProvider("apps", cand("Firefox", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Config: cfg, Registry: registryWith(apps)})
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		ok1 bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok1 = eng.SearchAsync(ctx, "fir")
	}()

	// Let the first search enter its debounce window, then supersede it.
	time.Sleep(40 * time.Millisecond)
	res2, ok2 := eng.SearchAsync(ctx, "firefox")
	wg.Wait()

	assert.False(t, ok1)
	require.True(t, ok2)
	require.Len(t, res2, 1)
	assert.Equal(t, "Firefox", res2[0].Title)
	assert.Equal(t, StateIdle, eng.State())
	assert.GreaterOrEqual(t, eng.Metrics().Superseded.Load(), int64(1))
}

func TestSearchAsync_CancelledMidDebounce(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.DebounceMs = 150

	apps := fixedProvider("apps", cand("Firefox", provider.CategoryApplication))
	eng := newTestEngine(t, Options{Config: cfg, Registry: registryWith(apps)})

	var (
		wg sync.WaitGroup
		ok bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok = eng.SearchAsync(context.Background(), "firefox")
	}()

	time.Sleep(40 * time.Millisecond)
	eng.CancelSearch()
	wg.Wait()

	assert.False(t, ok)
	assert.Equal(t, StateIdle, eng.State())
}

func TestSearchAsync_ParentContextCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.DebounceMs = 150

	eng := newTestEngine(t, Options{Config: cfg})
	ctx, cancel := context.WithCancel(context.Background())

	var (
		wg sync.WaitGroup
		ok bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok = eng.SearchAsync(ctx, "firefox")
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	wg.Wait()

	assert.False(t, ok)
}

func TestCancelSearch_NoopWhenIdle(t *testing.T) {
	eng := newTestEngine(t, Options{})

	eng.CancelSearch()
	eng.CancelSearch()

	assert.Equal(t, StateIdle, eng.State())
}

type launchRecord struct {
	cat provider.Category
	id  string
}

type fakeRecorder struct {
	mu       sync.Mutex
	launches []launchRecord
	err      error
}

func (r *fakeRecorder) RecordLaunch(ctx context.Context, cat provider.Category, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launches = append(r.launches, launchRecord{cat: cat, id: identifier})
	return r.err
}

type fakeAction struct {
	executed atomic.Bool
	err      error
}

func (a *fakeAction) Execute(ctx context.Context) error {
	a.executed.Store(true)
	return a.err
}

func TestLaunch_ExecutesActionAndRecords(t *testing.T) {
	rec := &fakeRecorder{}
	eng := newTestEngine(t, Options{Recorder: rec})

	act := &fakeAction{}
	res := rank.Scored{Candidate: provider.Candidate{
		Title:    "Firefox",
		Category: provider.CategoryApplication,
		Action:   act,
	}}

	err := eng.Launch(context.Background(), res)

	require.NoError(t, err)
	assert.True(t, act.executed.Load())
	require.Len(t, rec.launches, 1)
	assert.Equal(t, provider.CategoryApplication, rec.launches[0].cat)
	assert.Equal(t, "Firefox", rec.launches[0].id)
}

func TestLaunch_ActionErrorSkipsRecording(t *testing.T) {
	rec := &fakeRecorder{}
	eng := newTestEngine(t, Options{Recorder: rec})

	act := &fakeAction{err: errors.New("binary not found")}
	res := rank.Scored{Candidate: provider.Candidate{
		Title:    "Ghost",
		Category: provider.CategoryApplication,
		Action:   act,
	}}

	err := eng.Launch(context.Background(), res)

	require.Error(t, err)
	assert.Empty(t, rec.launches)
}

func TestLaunch_RecorderErrorIsSwallowed(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	eng := newTestEngine(t, Options{Recorder: rec})

	res := rank.Scored{Candidate: provider.Candidate{
		Title:    "Firefox",
		Category: provider.CategoryApplication,
		Action:   provider.NoopAction{},
	}}

	assert.NoError(t, eng.Launch(context.Background(), res))
}

func TestLaunch_NoAction(t *testing.T) {
	eng := newTestEngine(t, Options{})

	err := eng.Launch(context.Background(), rank.Scored{})

	assert.Error(t, err)
}

func TestClassifyProviderError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := classifyProviderError(ctx, ctx.Err())
	assert.True(t, errors.Is(err, ErrProviderTimeout))

	err = classifyProviderError(context.Background(), errors.New("boom"))
	assert.True(t, errors.Is(err, ErrProviderFailure))
	assert.Contains(t, err.Error(), "boom")
}

func TestParseClipQuery(t *testing.T) {
	tests := []struct {
		query    string
		wantRest string
		wantOK   bool
	}{
		{"clip", "", true},
		{"clip meeting", "meeting", true},
		{"clip   meeting  ", "meeting", true},
		{"CLIP Token", "Token", true},
		{"clipboard", "", false},
		{"eclipse", "", false},
		{"meeting", "", false},
	}
	for _, tt := range tests {
		rest, ok := parseClipQuery(tt.query)
		assert.Equal(t, tt.wantOK, ok, "query %q", tt.query)
		assert.Equal(t, tt.wantRest, rest, "query %q", tt.query)
	}
}
