package quicklink

import (
	"context"
	"log/slog"
	"strings"

	"github.com/runeberg/flare/internal/provider"
)

// ProviderName is the registry name of the quicklink provider.
const ProviderName = "quicklinks"

// Provider serves stored quicklinks as search candidates. It is the one
// engine-owned candidate source; everything else plugs in from outside.
type Provider struct {
	store  *Store
	logger *slog.Logger
}

// NewProvider builds the quicklink candidate provider. A nil logger
// falls back to slog.Default.
func NewProvider(store *Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{store: store, logger: logger}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// Search implements provider.Provider. Every quicklink surfaces under
// its name; a row whose keyword leads the query instead surfaces as an
// exact-match candidate with the remainder substituted into its target.
func (p *Provider) Search(ctx context.Context, query string) ([]provider.Candidate, error) {
	links, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}

	keyword, remainder := splitKeyword(query)

	out := make([]provider.Candidate, 0, len(links))
	for _, ql := range links {
		if ql.Keyword != "" && ql.Keyword == keyword {
			target := expandTarget(ql.Kind, ql.Target, remainder)
			out = append(out, provider.Candidate{
				Title:    strings.TrimSpace(query),
				Subtitle: ql.Name + ": " + target,
				Category: provider.CategoryQuicklink,
				Action:   actionFor(ql.Kind, target),
			})
			continue
		}
		out = append(out, provider.Candidate{
			Title:    ql.Name,
			Subtitle: ql.Target,
			Category: provider.CategoryQuicklink,
			Action:   actionFor(ql.Kind, ql.Target),
		})
	}
	return out, nil
}

// splitKeyword splits a query into its first token and the rest.
func splitKeyword(query string) (keyword, remainder string) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", ""
	}
	keyword, remainder, _ = strings.Cut(trimmed, " ")
	return keyword, strings.TrimSpace(remainder)
}
