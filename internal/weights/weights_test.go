package weights

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runeberg/flare/internal/provider"
)

func TestDefaults(t *testing.T) {
	w := Defaults()

	assert.Equal(t, 1.2, w.For(provider.CategoryApplication))
	assert.Equal(t, 0.8, w.For(provider.CategoryQuicklink))
	assert.Equal(t, 0.6, w.For(provider.CategoryClipboard))
	assert.Equal(t, 0.5, w.For(provider.CategoryFile))
	assert.Equal(t, 1.0, w.For(provider.CategoryProcess))
	assert.Equal(t, 1.0, w.For(provider.CategoryTool))
}

func TestForFallsBack(t *testing.T) {
	w := Defaults()
	assert.Equal(t, 1.0, w.For(provider.Category("mystery")), "unknown category uses Default")

	var nilWeights *Weights
	assert.Equal(t, 1.0, nilWeights.For(provider.CategoryApplication), "nil receiver is safe")

	broken := &Weights{
		Categories: map[provider.Category]float64{provider.CategoryFile: -3},
		Default:    0,
	}
	assert.Equal(t, 1.0, broken.For(provider.CategoryFile), "invalid multipliers degrade to the builtin default")
}

func TestSetDoesNotMutateReceiver(t *testing.T) {
	base := Defaults()
	changed := base.Set(provider.CategoryFile, 2.5)

	assert.Equal(t, 0.5, base.For(provider.CategoryFile))
	assert.Equal(t, 2.5, changed.For(provider.CategoryFile))
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	assert.Equal(t, 1.2, h.Current().For(provider.CategoryApplication))

	h.Update(Defaults().Set(provider.CategoryApplication, 3.0))
	assert.Equal(t, 3.0, h.Current().For(provider.CategoryApplication))

	h.Update(nil)
	assert.Equal(t, 1.2, h.Current().For(provider.CategoryApplication), "nil update restores defaults")
}

func TestHolderConcurrentReadsAndWrites(t *testing.T) {
	h := NewHolder(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				w := h.Current()
				// Every snapshot must be internally consistent: either the
				// default 1.2 or one of the written values, never torn.
				got := w.For(provider.CategoryApplication)
				if got != 1.2 && got != 2.0 && got != 3.0 {
					t.Errorf("torn read: %v", got)
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		h.Update(Defaults().Set(provider.CategoryApplication, 2.0))
		h.Update(Defaults().Set(provider.CategoryApplication, 3.0))
	}
	wg.Wait()
}
