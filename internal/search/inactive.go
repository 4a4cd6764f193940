package search

import (
	"context"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
)

// MaxInactiveResults caps how many inactive-list matches are surfaced.
const MaxInactiveResults = 10

// InactiveSource supplies tokens from lists the user has not enabled.
type InactiveSource interface {
	InactiveTokens(ctx context.Context, chainID int64) ([]currency.Currency, error)
}

type InactiveResult struct {
	List []currency.Currency
	Err  error
}

// SearchInactive matches query against the inactive token source. Tokens that
// are active or excluded are skipped; results use the primary ordering.
func SearchInactive(ctx context.Context, source InactiveSource, query string, opts Options) ([]currency.Currency, error) {
	if source == nil {
		return []currency.Currency{}, nil
	}
	tokens, err := source.InactiveTokens(ctx, opts.Chain.EVMChainID)
	if err != nil {
		return nil, err
	}
	q := normalizeQuery(query)
	matched := make([]currency.Currency, 0, len(tokens))
	for _, c := range tokens {
		if c.Native || excluded(c, opts.Exclude) {
			continue
		}
		if opts.Active != nil && opts.Active(c) {
			continue
		}
		if q != "" && c.Address != "" && normalizeQuery(c.Address) == q {
			matched = append(matched, c)
			continue
		}
		if matchesText(c, q) {
			matched = append(matched, c)
		}
	}
	list := rank(dedupe(matched), q, opts)
	if len(list) > MaxInactiveResults {
		list = list[:MaxInactiveResults]
	}
	return list, nil
}

// StartInactive runs SearchInactive on its own goroutine so the primary list
// can be produced without waiting for it. The channel yields exactly once.
func StartInactive(ctx context.Context, source InactiveSource, query string, opts Options) <-chan InactiveResult {
	ch := make(chan InactiveResult, 1)
	go func() {
		defer close(ch)
		list, err := SearchInactive(ctx, source, query, opts)
		ch <- InactiveResult{List: list, Err: err}
	}()
	return ch
}

// Merge appends inactive matches after the primary list, dropping any
// currency the primary list already holds.
func Merge(primary, inactive []currency.Currency) []currency.Currency {
	out := make([]currency.Currency, 0, len(primary)+len(inactive))
	seen := make(map[string]struct{}, len(primary))
	for _, c := range primary {
		seen[c.Key()] = struct{}{}
		out = append(out, c)
	}
	for _, c := range inactive {
		if _, ok := seen[c.Key()]; ok {
			continue
		}
		seen[c.Key()] = struct{}{}
		out = append(out, c)
	}
	return out
}
