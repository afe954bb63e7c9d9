// Package tools implements the query short-circuits evaluated before
// provider fan-out: calculator, unit conversion, time-zone lookup, and
// the shell-command prefix.
package tools

import "github.com/runeberg/flare/internal/provider"

// ShortCircuitScore is the fixed score for short-circuit results. Tool
// results already rank before every standard result; the fixed score
// only orders tools among themselves.
const ShortCircuitScore = 2000

// Result is a tool short-circuit outcome.
type Result struct {
	Candidate provider.Candidate
	Score     float64
}

// Tool recognizes one query shape and computes a single candidate.
// Evaluate returns ok=false when the query is not its shape, letting
// the query fall through to normal search.
type Tool interface {
	Name() string
	Evaluate(query string) (Result, bool)
}

// Defaults returns the built-in tools in evaluation order. The first
// tool that recognizes a query wins.
func Defaults() []Tool {
	return []Tool{
		NewCalculator(),
		NewConverter(),
		NewClock(),
	}
}

// Detect runs tools in order and returns the first hit.
func Detect(tools []Tool, query string) (Result, bool) {
	for _, tool := range tools {
		if res, ok := tool.Evaluate(query); ok {
			return res, true
		}
	}
	return Result{}, false
}
