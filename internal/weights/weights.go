// Package weights holds the tunable category multipliers that bias the
// relevance score, their compiled-in defaults, and the store that persists
// them. Scoring reads go through an atomic snapshot so a settings write can
// never be observed half-applied.
package weights

import (
	"math"
	"sync/atomic"

	"github.com/runeberg/flare/internal/provider"
)

// Weights maps categories to positive multipliers. Default applies to any
// category without an explicit entry. Treat instances handed to a Holder as
// immutable.
type Weights struct {
	Categories map[provider.Category]float64
	Default    float64
}

// Defaults returns the compiled-in weights: applications boosted, files and
// clipboard entries damped, everything else neutral.
func Defaults() *Weights {
	w := &Weights{
		Categories: make(map[provider.Category]float64, len(provider.Categories())),
		Default:    provider.DefaultWeight,
	}
	for _, c := range provider.Categories() {
		w.Categories[c] = c.BuiltinWeight()
	}
	return w
}

// For returns the multiplier for a category, falling back to Default for
// unknown categories and to the builtin default on a nil receiver.
func (w *Weights) For(cat provider.Category) float64 {
	if w == nil {
		return provider.DefaultWeight
	}
	if m, ok := w.Categories[cat]; ok && validMultiplier(m) {
		return m
	}
	if validMultiplier(w.Default) {
		return w.Default
	}
	return provider.DefaultWeight
}

// Clone returns a deep copy.
func (w *Weights) Clone() *Weights {
	if w == nil {
		return Defaults()
	}
	out := &Weights{
		Categories: make(map[provider.Category]float64, len(w.Categories)),
		Default:    w.Default,
	}
	for c, m := range w.Categories {
		out.Categories[c] = m
	}
	return out
}

// Set returns a copy with the category multiplier replaced.
func (w *Weights) Set(cat provider.Category, multiplier float64) *Weights {
	out := w.Clone()
	out.Categories[cat] = multiplier
	return out
}

func validMultiplier(m float64) bool {
	return m > 0 && !math.IsInf(m, 1) && !math.IsNaN(m)
}

// Holder publishes the current weights to concurrent scoring calls via an
// atomic pointer swap. Readers get a consistent snapshot; they must not
// mutate it.
type Holder struct {
	cur atomic.Pointer[Weights]
}

// NewHolder seeds the holder, substituting defaults for nil.
func NewHolder(w *Weights) *Holder {
	h := &Holder{}
	if w == nil {
		w = Defaults()
	}
	h.cur.Store(w.Clone())
	return h
}

// Current returns the active snapshot. Never nil.
func (h *Holder) Current() *Weights {
	return h.cur.Load()
}

// Update swaps in a new snapshot. Nil restores defaults. The update is
// in-memory only; persisting is the store's job.
func (h *Holder) Update(w *Weights) {
	if w == nil {
		w = Defaults()
	}
	h.cur.Store(w.Clone())
}
