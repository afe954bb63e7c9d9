// Package provider defines the candidate model shared by the ranking engine:
// categories, candidates, actions, and the CandidateProvider interface that
// concrete sources (applications, files, processes, quicklinks, ...)
// implement.
package provider

import "context"

// Source identifies the tier a scored result belongs to. Tool results are
// computed answers (calculator, conversions, shell commands) and always rank
// above standard provider matches regardless of numeric score.
type Source string

const (
	// SourceStandard marks results produced by ordinary candidate providers.
	SourceStandard Source = "standard"

	// SourceTool marks high-confidence computed results.
	SourceTool Source = "tool"
)

// Category classifies a candidate. Every candidate carries exactly one
// category; unknown values fall back to the default weight and the lowest
// tie-break rank.
type Category string

const (
	CategoryApplication Category = "application"
	CategoryFile        Category = "file"
	CategoryProcess     Category = "process"
	CategoryClipboard   Category = "clipboard"
	CategoryQuicklink   Category = "quicklink"
	CategoryAction      Category = "action"
	CategoryConversion  Category = "conversion"
	CategorySettings    Category = "settings"
	CategoryTool        Category = "tool"
)

// categoryRank is the fixed tie-break priority between categories whose
// results score identically. Lower rank sorts first.
var categoryRank = map[Category]int{
	CategoryApplication: 0,
	CategoryAction:      1,
	CategoryConversion:  2,
	CategoryTool:        3,
	CategoryQuicklink:   4,
	CategorySettings:    5,
	CategoryFile:        6,
	CategoryProcess:     7,
	CategoryClipboard:   8,
}

// unknownCategoryRank sorts unknown categories after every known one.
const unknownCategoryRank = 100

// categoryWeight holds the built-in default multiplier per category.
// Categories not listed use DefaultWeight.
var categoryWeight = map[Category]float64{
	CategoryApplication: 1.2,
	CategoryQuicklink:   0.8,
	CategoryClipboard:   0.6,
	CategoryFile:        0.5,
}

// DefaultWeight is the multiplier for categories without an explicit weight.
const DefaultWeight = 1.0

// TieRank returns the fixed tie-break priority of the category.
// Lower values win ties.
func (c Category) TieRank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return unknownCategoryRank
}

// BuiltinWeight returns the compiled-in default multiplier for the category.
func (c Category) BuiltinWeight() float64 {
	if w, ok := categoryWeight[c]; ok {
		return w
	}
	return DefaultWeight
}

// Valid reports whether c is one of the known category tags.
func (c Category) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Categories returns all known category tags in tie-break order.
func Categories() []Category {
	return []Category{
		CategoryApplication,
		CategoryAction,
		CategoryConversion,
		CategoryTool,
		CategoryQuicklink,
		CategorySettings,
		CategoryFile,
		CategoryProcess,
		CategoryClipboard,
	}
}

// Candidate is a raw searchable item emitted by a provider, before scoring.
// Candidates are immutable once emitted; the engine never mutates them.
type Candidate struct {
	Title    string
	Subtitle string
	Category Category

	// Action is the opaque behavior invoked when the user picks this
	// candidate. It is never invoked during search.
	Action Action
}

// Provider supplies candidates for a query. Implementations must be pure with
// respect to their backing store during Search: side effects happen only when
// the caller later invokes a candidate's Action.
//
// Search should honor ctx cancellation at safe points and may return partial
// results alongside a nil error.
type Provider interface {
	// Name identifies the provider in logs and registry lookups.
	Name() string

	// Search returns zero or more candidates matching the query.
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// SearchFunc adapts a plain function to the Provider interface.
type SearchFunc func(ctx context.Context, query string) ([]Candidate, error)

type funcProvider struct {
	name string
	fn   SearchFunc
}

// NewFunc wraps fn as a named Provider. Useful for fixed-corpus providers and
// test fakes.
func NewFunc(name string, fn SearchFunc) Provider {
	return &funcProvider{name: name, fn: fn}
}

func (p *funcProvider) Name() string { return p.name }

func (p *funcProvider) Search(ctx context.Context, query string) ([]Candidate, error) {
	return p.fn(ctx, query)
}
