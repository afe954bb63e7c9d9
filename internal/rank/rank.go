// Package rank turns raw candidates into scored results and defines the one
// total order used whenever results from different providers meet: source
// tier first, then score, then category priority, then stable input order.
package rank

import (
	"math"
	"sort"

	"github.com/runeberg/flare/internal/match"
	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/weights"
)

// Scale stretches the 0-1 score product into human-legible integers: an
// exact title hit on the highest-weighted category lands near the top of the
// range.
const Scale = 1000

// subtitleWeight damps the contribution of a subtitle match. Any positive
// subtitle match still strictly raises the candidate's score over the
// title-only value.
const subtitleWeight = 0.3

// Absolute-mode tier constants. Prefix uses 900 at every call site; the
// later-word wordStart tier sits one step below it.
const (
	absExact     = 1000
	absPrefix    = 900
	absWordStart = 800
	absFuzzyCap  = 750
	absSubstring = 50
)

// Scored is a candidate annotated with its computed score and source tier.
// Created fresh per search and discarded once the caller consumes the list.
type Scored struct {
	provider.Candidate

	Score  float64
	Source provider.Source

	// Match records how the title matched, for display and debugging.
	Match match.Result
}

// StatsSource supplies the optional usage factor layered into the score.
// Implementations return 1.0 for unknown identifiers.
type StatsSource interface {
	Factor(cat provider.Category, identifier string) float64
}

// Ranker scores candidates using the current weights snapshot and an
// optional usage-statistics source.
type Ranker struct {
	weights *weights.Holder
	stats   StatsSource
}

// New builds a Ranker. A nil holder gets default weights; a nil stats source
// means every factor is 1.0.
func New(h *weights.Holder, stats StatsSource) *Ranker {
	if h == nil {
		h = weights.NewHolder(nil)
	}
	return &Ranker{weights: h, stats: stats}
}

// Weights exposes the holder so callers can swap snapshots.
func (r *Ranker) Weights() *weights.Holder {
	return r.weights
}

// ScoreCandidate computes the four-layer score for one candidate:
// quality x matchTypeBonus x categoryWeight x statsFactor x Scale, plus the
// damped subtitle contribution when the subtitle independently matches.
func (r *Ranker) ScoreCandidate(query string, c provider.Candidate) Scored {
	w := r.weights.Current()
	catWeight := w.For(c.Category)
	stats := r.statsFactor(c.Category, c.Title)

	titleRes := match.Match(query, c.Title)
	score := titleRes.Quality * titleRes.Type.Bonus() * catWeight * stats * Scale

	if c.Subtitle != "" {
		subRes := match.Match(query, c.Subtitle)
		if subRes.IsMatch() {
			score += subRes.Quality * subRes.Type.Bonus() * catWeight * stats * Scale * subtitleWeight
		}
	}

	return Scored{
		Candidate: c,
		Score:     score,
		Source:    provider.SourceStandard,
		Match:     titleRes,
	}
}

// Rank scores all candidates and drops the ones that did not match at all.
// Input order is preserved among equals, which keeps the final tie-break
// deterministic.
func (r *Ranker) Rank(query string, cands []provider.Candidate) []Scored {
	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		s := r.ScoreCandidate(query, c)
		if s.Score > 0 {
			out = append(out, s)
		}
	}
	return out
}

func (r *Ranker) statsFactor(cat provider.Category, identifier string) float64 {
	if r.stats == nil {
		return 1.0
	}
	f := r.stats.Factor(cat, identifier)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 1) {
		return 1.0
	}
	return f
}

// AbsoluteScore computes the simpler tiered score used by providers that do
// not want category weighting: fixed constants per match type, with fuzzy
// scaled by quality and capped below 600.
func AbsoluteScore(query, title string) int {
	res := match.Match(query, title)
	switch res.Type {
	case match.Exact:
		return absExact
	case match.Prefix:
		return absPrefix
	case match.WordStart:
		return absWordStart
	case match.Fuzzy:
		s := int(math.Round(res.Quality * absFuzzyCap))
		if s < 1 {
			s = 1
		}
		return s
	case match.Substring:
		return absSubstring
	default:
		return 0
	}
}

// RankedBefore reports whether a sorts strictly before b:
//  1. tool source always beats standard, regardless of score;
//  2. within a tier, higher score first;
//  3. exact score ties broken by fixed category priority;
//  4. anything still equal keeps input order (callers sort stably).
func RankedBefore(a, b Scored) bool {
	if a.Source != b.Source {
		return a.Source == provider.SourceTool
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	ra, rb := a.Category.TieRank(), b.Category.TieRank()
	if ra != rb {
		return ra < rb
	}
	return false
}

// Sort orders results by RankedBefore, keeping input order for full ties.
func Sort(results []Scored) {
	sort.SliceStable(results, func(i, j int) bool {
		return RankedBefore(results[i], results[j])
	})
}

// Dedupe collapses results sharing a title to the first occurrence. Call it
// on a sorted slice so the best-ranked duplicate wins.
func Dedupe(results []Scored) []Scored {
	if len(results) < 2 {
		return results
	}
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, res := range results {
		if seen[res.Title] {
			continue
		}
		seen[res.Title] = true
		out = append(out, res)
	}
	return out
}

// Truncate caps the list at max entries. Non-positive max means no cap.
func Truncate(results []Scored, max int) []Scored {
	if max <= 0 || len(results) <= max {
		return results
	}
	return results[:max]
}
