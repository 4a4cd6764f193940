// Package search filters, ranks and deduplicates currencies for a free-text
// query.
package search

import (
	"math/big"
	"sort"
	"strings"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

// TieBreaker orders two currencies that share a tier and symbol. It returns a
// negative value when a sorts first.
type TieBreaker func(a, b currency.Currency) int

// Lookup resolves an address that is not part of the searched universe.
type Lookup func(address string) (currency.Currency, bool)

type Options struct {
	Chain         id.Chain
	Exclude       *currency.Currency
	TieBreaker    TieBreaker
	Invert        bool
	IncludeNative bool
	// Active reports whether a currency is on the user's active lists. When nil
	// membership in the searched universe is used.
	Active func(currency.Currency) bool
	Lookup Lookup
}

type Result struct {
	List          []currency.Currency `json:"list"`
	Import        *currency.Currency  `json:"import,omitempty"`
	NeedsInactive bool                `json:"needs_inactive"`
}

// Search filters universe by query and returns the ranked list.
func Search(universe currency.Universe, query string, opts Options) Result {
	q := normalizeQuery(query)

	if id.IsAddress(q) {
		return searchAddress(universe, q, opts)
	}

	matched := make([]currency.Currency, 0, len(universe))
	for _, c := range universe {
		if excluded(c, opts.Exclude) {
			continue
		}
		if matchesText(c, q) {
			matched = append(matched, c)
		}
	}
	list := rank(dedupe(matched), q, opts)
	// The injected native currency does not count as a match.
	needsInactive := len(list) == 0 || len(q) > 2

	if opts.IncludeNative && !universe.HasNative() && IsNativeAlias(opts.Chain, q) {
		native := currency.Native(opts.Chain)
		if !excluded(native, opts.Exclude) {
			list = append([]currency.Currency{native}, list...)
		}
	}

	return Result{
		List:          list,
		NeedsInactive: needsInactive,
	}
}

func searchAddress(universe currency.Universe, address string, opts Options) Result {
	if c, ok := universe.Get(address); ok {
		if excluded(c, opts.Exclude) {
			return Result{List: []currency.Currency{}}
		}
		return Result{List: []currency.Currency{c}}
	}
	if opts.Lookup != nil {
		if c, ok := opts.Lookup(address); ok && !excluded(c, opts.Exclude) {
			if opts.Active != nil && opts.Active(c) {
				return Result{List: []currency.Currency{c}}
			}
			found := c
			return Result{List: []currency.Currency{}, Import: &found}
		}
	}
	return Result{List: []currency.Currency{}, NeedsInactive: true}
}

// IsNativeAlias reports whether query names the native currency of chain: an
// empty query, any prefix of its symbol, or its name.
func IsNativeAlias(chain id.Chain, query string) bool {
	q := normalizeQuery(query)
	if q == "" {
		return true
	}
	symbol := strings.ToLower(chain.Native.Symbol)
	if symbol != "" && strings.HasPrefix(symbol, q) {
		return true
	}
	return q == strings.ToLower(chain.Native.Name)
}

// SelectOnEnter picks the currency a confirm keystroke should select, if any.
func SelectOnEnter(result Result, query string, chain id.Chain) (currency.Currency, bool) {
	q := normalizeQuery(query)
	if q != "" && q == strings.ToLower(chain.Native.Symbol) {
		return currency.Native(chain), true
	}
	if len(result.List) == 0 {
		return currency.Currency{}, false
	}
	first := result.List[0]
	if strings.ToLower(first.Symbol) == q || len(result.List) == 1 {
		return first, true
	}
	return currency.Currency{}, false
}

// PreferListed sorts currencies whose address is in addresses first.
func PreferListed(addresses ...string) TieBreaker {
	listed := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		listed[id.NormalizeAddress(addr)] = struct{}{}
	}
	return func(a, b currency.Currency) int {
		_, aok := listed[id.NormalizeAddress(a.Address)]
		_, bok := listed[id.NormalizeAddress(b.Address)]
		switch {
		case aok && !bok:
			return -1
		case bok && !aok:
			return 1
		default:
			return 0
		}
	}
}

// PreferBalances sorts larger balances first. Balances are keyed by
// currency.Key; missing entries count as zero.
func PreferBalances(balances map[string]*big.Int) TieBreaker {
	return func(a, b currency.Currency) int {
		return balanceOf(balances, b).Cmp(balanceOf(balances, a))
	}
}

func balanceOf(balances map[string]*big.Int, c currency.Currency) *big.Int {
	if v, ok := balances[c.Key()]; ok && v != nil {
		return v
	}
	return new(big.Int)
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func matchesText(c currency.Currency, q string) bool {
	if q == "" {
		return true
	}
	symbol := strings.ToLower(c.Symbol)
	name := strings.ToLower(c.Name)
	for _, part := range strings.Fields(q) {
		if !strings.Contains(symbol, part) && !strings.Contains(name, part) {
			return false
		}
	}
	return true
}

func excluded(c currency.Currency, exclude *currency.Currency) bool {
	return exclude != nil && c.Equals(*exclude)
}

func dedupe(items []currency.Currency) []currency.Currency {
	seen := make(map[string]struct{}, len(items))
	out := make([]currency.Currency, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func tier(c currency.Currency, q string) int {
	if q == "" {
		return 2
	}
	symbol := strings.ToLower(c.Symbol)
	switch {
	case symbol == q:
		return 0
	case strings.HasPrefix(symbol, q):
		return 1
	default:
		return 2
	}
}

func rank(items []currency.Currency, q string, opts Options) []currency.Currency {
	sort.SliceStable(items, func(i, j int) bool {
		return compare(items[i], items[j], q, opts) < 0
	})
	return items
}

func compare(a, b currency.Currency, q string, opts Options) int {
	if ta, tb := tier(a, q), tier(b, q); ta != tb {
		return ta - tb
	}
	if sa, sb := strings.ToLower(a.Symbol), strings.ToLower(b.Symbol); sa != sb {
		return strings.Compare(sa, sb)
	}
	if opts.TieBreaker != nil {
		if r := opts.TieBreaker(a, b); r != 0 {
			if opts.Invert {
				return -r
			}
			return r
		}
	}
	return strings.Compare(a.Key(), b.Key())
}
