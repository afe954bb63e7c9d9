// Package match implements the query/text matching primitive for the
// launcher: a pure, case-insensitive classifier that buckets a
// (query, text) pair into a match type and a continuous 0-1 quality score.
//
// Classification precedence: exact > prefix > wordStart > fuzzy > substring
// > none. Quality is recomputed on every call and never cached across
// queries.
package match

import (
	"strings"
	"unicode"
)

// Type is the qualitative bucket describing how a query matched a text,
// ordered by ascending confidence so direct comparisons work.
type Type int

const (
	None Type = iota
	Substring
	Fuzzy
	WordStart
	Prefix
	Exact
)

// String returns the lowercase name of the match type.
func (t Type) String() string {
	switch t {
	case Exact:
		return "exact"
	case Prefix:
		return "prefix"
	case WordStart:
		return "word_start"
	case Fuzzy:
		return "fuzzy"
	case Substring:
		return "substring"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// Bonus returns the fixed match-type multiplier applied as the second layer
// of the relevance score, independent of quality.
func (t Type) Bonus() float64 {
	switch t {
	case Exact:
		return 1.0
	case Prefix:
		return 0.95
	case WordStart:
		return 0.9
	case Fuzzy:
		return 0.7
	case Substring:
		return 0.5
	default:
		return 0.0
	}
}

// Result is the outcome of matching a query against a candidate text.
type Result struct {
	// Quality is the continuous match strength in [0, 1].
	Quality float64

	// Type is the classification bucket the pair fell into.
	Type Type
}

// IsMatch reports whether the pair matched at all. It holds exactly when
// Quality > 0.
func (r Result) IsMatch() bool { return r.Quality > 0 }

// Quality constants per bucket. Fuzzy quality is computed, the rest are
// fixed tiers.
const (
	exactQuality     = 1.0
	prefixQuality    = 0.9
	wordStartQuality = 0.8
	substringQuality = 0.1
)

// Fuzzy shaping constants. The shaped quality stays in (0, fuzzyMax],
// strictly below the wordStart tier.
const (
	fuzzyBase    = 0.6
	fuzzyMax     = 0.75
	baseWeight   = 0.6
	consecWeight = 0.25
	anchorWeight = 0.15

	// anchorWindow bounds how deep into the text the first query character
	// may sit for a scattered match to count as fuzzy. Deeper hits only
	// qualify for the substring bucket.
	anchorWindow = 16

	sepBonusPer = 0.04
	sepBonusMax = 0.12
)

// Match classifies query against text. It is case-insensitive, never panics,
// and returns the none Result for any degenerate input (empty query, empty
// text, or no in-order character correspondence).
func Match(query, text string) Result {
	if query == "" || text == "" {
		return Result{}
	}

	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(text))

	if equalRunes(q, t) {
		return Result{Quality: exactQuality, Type: Exact}
	}
	if len(q) < len(t) && equalRunes(q, t[:len(q)]) {
		return Result{Quality: prefixQuality, Type: Prefix}
	}
	if matchesLaterWordStart(q, t) {
		return Result{Quality: wordStartQuality, Type: WordStart}
	}
	if quality, ok := fuzzyQuality(q, t); ok {
		return Result{Quality: quality, Type: Fuzzy}
	}
	if len(q) <= len(t) && strings.Contains(string(t), string(q)) {
		return Result{Quality: substringQuality, Type: Substring}
	}
	return Result{}
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isSeparator reports whether r splits words: whitespace, underscore,
// hyphen, or dot.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-' || r == '.'
}

// matchesLaterWordStart reports whether q is a prefix of text starting at a
// word boundary other than the first word. First-word prefixes are already
// covered by the prefix bucket.
func matchesLaterWordStart(q, t []rune) bool {
	firstWordSeen := false
	for i := 0; i+len(q) <= len(t); i++ {
		atStart := !isSeparator(t[i]) && (i == 0 || isSeparator(t[i-1]))
		if !atStart {
			continue
		}
		if !firstWordSeen {
			firstWordSeen = true
			continue
		}
		if equalRunes(q, t[i:i+len(q)]) {
			return true
		}
	}
	return false
}

// fuzzyQuality runs the greedy in-order walk and shapes the quality from
// matched-character density, run contiguity, anchor depth, and separator
// alignment. The earliest anchor maximizes the remaining text, so a failed
// walk means no in-order correspondence exists from any admissible anchor.
func fuzzyQuality(q, t []rune) (float64, bool) {
	first := indexRune(t, q[0])
	if first < 0 || first >= anchorWindow {
		return 0, false
	}

	positions := make([]int, 0, len(q))
	positions = append(positions, first)
	ti := first + 1
	for qi := 1; qi < len(q); qi++ {
		found := -1
		for ; ti < len(t); ti++ {
			if t[ti] == q[qi] {
				found = ti
				ti++
				break
			}
		}
		if found < 0 {
			return 0, false
		}
		positions = append(positions, found)
	}

	span := positions[len(positions)-1] - positions[0] + 1
	density := float64(len(q)) / float64(span)

	consecFrac := 1.0
	if len(q) > 1 {
		consec := 0
		for i := 1; i < len(positions); i++ {
			if positions[i] == positions[i-1]+1 {
				consec++
			}
		}
		consecFrac = float64(consec) / float64(len(q)-1)
	}

	anchor := 1.0 - float64(positions[0])/float64(anchorWindow)
	if anchor < 0 {
		anchor = 0
	}

	sepBonus := 0.0
	for _, p := range positions {
		if p > 0 && isSeparator(t[p-1]) {
			sepBonus += sepBonusPer
		}
	}
	if sepBonus > sepBonusMax {
		sepBonus = sepBonusMax
	}

	quality := fuzzyBase*density*(baseWeight+consecWeight*consecFrac+anchorWeight*anchor) + sepBonus
	if quality > fuzzyMax {
		quality = fuzzyMax
	}
	return quality, true
}

func indexRune(t []rune, r rune) int {
	for i, tr := range t {
		if tr == r {
			return i
		}
	}
	return -1
}
