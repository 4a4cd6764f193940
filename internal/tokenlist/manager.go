package tokenlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/cache"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/httpx"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/registry"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/search"
)

const (
	cacheNamespace = "tokenlist"
	DefaultTTL     = 10 * time.Minute
)

type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// Fetched is one list together with where it came from.
type Fetched struct {
	URL     string
	List    List
	Source  Source
	Stale   bool
	Age     time.Duration
	Err     error
	Warning string
	Latency time.Duration
}

type Options struct {
	Active   []string
	Inactive []string
	TTL      time.Duration
	MaxStale time.Duration
	// NoStale disables serving expired cache entries when a fetch fails.
	NoStale bool
}

// Manager loads token lists through the HTTP client and the shared cache.
type Manager struct {
	http   *httpx.Client
	cache  *cache.Store
	opts   Options
	logger log.Logger
}

func NewManager(client *httpx.Client, store *cache.Store, opts Options, logger log.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Active == nil {
		opts.Active = registry.DefaultActiveLists()
	}
	if opts.Inactive == nil {
		opts.Inactive = registry.DefaultInactiveLists()
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Manager{http: client, cache: store, opts: opts, logger: logger}
}

func (m *Manager) ActiveURLs() []string   { return append([]string(nil), m.opts.Active...) }
func (m *Manager) InactiveURLs() []string { return append([]string(nil), m.opts.Inactive...) }

// Fetch returns the list at url, preferring a fresh cache entry, then the
// network, then a stale cache entry.
func (m *Manager) Fetch(ctx context.Context, url string) (Fetched, error) {
	url = strings.TrimSpace(url)
	if !registry.IsAllowedListURL(url) {
		return Fetched{URL: url}, clierr.Newf(clierr.CodeUsage, "token list url %q must use https", url)
	}
	key := cache.Key(cacheNamespace, url)

	var cached List
	var cachedRes cache.Result
	if m.cache != nil {
		res, err := m.cache.GetJSON(key, m.opts.MaxStale, &cached)
		if err != nil {
			m.logger.Debug("Token list cache read failed", "url", url, "err", err)
		} else if res.Hit && !res.Stale {
			return Fetched{URL: url, List: cached, Source: SourceCache, Age: res.Age}, nil
		}
		cachedRes = res
	}

	var list List
	_, err := m.http.GetJSON(ctx, url, &list)
	if err == nil {
		if verr := Validate(list); verr != nil {
			err = clierr.Wrap(clierr.CodeUnsupported, "invalid token list", verr)
		}
	}
	if err == nil {
		if m.cache != nil {
			if cerr := m.cache.SetJSON(key, list, m.opts.TTL); cerr != nil {
				m.logger.Warn("Token list cache write failed", "url", url, "err", cerr)
			}
		}
		m.logger.Debug("Fetched token list", "url", url, "name", list.Name, "tokens", len(list.Tokens))
		return Fetched{URL: url, List: list, Source: SourceNetwork}, nil
	}

	if cachedRes.Hit && !cachedRes.TooStale && !m.opts.NoStale {
		m.logger.Warn("Serving stale token list", "url", url, "age", cachedRes.Age, "err", err)
		return Fetched{
			URL:     url,
			List:    cached,
			Source:  SourceCache,
			Stale:   true,
			Age:     cachedRes.Age,
			Warning: fmt.Sprintf("token list %s is stale (%s old): %v", url, cachedRes.Age.Round(time.Second), err),
		}, nil
	}
	return Fetched{URL: url}, err
}

// FetchAll loads every url concurrently. A failing list does not abort the
// others; its error is reported on the corresponding entry.
func (m *Manager) FetchAll(ctx context.Context, urls []string) []Fetched {
	results := make([]Fetched, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			start := time.Now()
			fetched, err := m.Fetch(gctx, url)
			fetched.Err = err
			fetched.Latency = time.Since(start)
			if fetched.URL == "" {
				fetched.URL = url
			}
			results[i] = fetched
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Universe builds the active search universe for chain: built-in registry
// tokens, the active lists, then user-added tokens. Earlier entries win on
// address collisions. The per-list fetch results are returned for reporting.
func (m *Manager) Universe(ctx context.Context, chain id.Chain, added []currency.Currency) (currency.Universe, []Fetched) {
	universe := currency.NewUniverse()
	for _, tok := range id.RegistryTokens(chain.EVMChainID) {
		universe.Add(currency.FromToken(chain.EVMChainID, tok))
	}
	fetched := m.FetchAll(ctx, m.opts.Active)
	for _, f := range fetched {
		if f.Err != nil {
			continue
		}
		for _, c := range f.List.Currencies(chain.EVMChainID) {
			universe.Add(c)
		}
	}
	for _, c := range added {
		if c.ChainID == chain.EVMChainID {
			universe.Add(c)
		}
	}
	return universe, fetched
}

// Invalidate drops every cached list so the next fetch goes to the network.
func (m *Manager) Invalidate() (int64, error) {
	if m.cache == nil {
		return 0, nil
	}
	return m.cache.DeleteNamespace(cacheNamespace)
}

// Warnings describes lists that failed or were served stale.
func Warnings(fetched []Fetched) []string {
	var out []string
	for _, f := range fetched {
		switch {
		case f.Err != nil:
			out = append(out, fmt.Sprintf("token list %s unavailable: %v", f.URL, f.Err))
		case f.Warning != "":
			out = append(out, f.Warning)
		}
	}
	return out
}

// InactiveTokens returns the tokens of every inactive list for chainID.
func (m *Manager) InactiveTokens(ctx context.Context, chainID int64) ([]currency.Currency, error) {
	fetched := m.FetchAll(ctx, m.opts.Inactive)
	var out []currency.Currency
	var firstErr error
	ok := 0
	for _, f := range fetched {
		if f.Err != nil {
			if firstErr == nil {
				firstErr = f.Err
			}
			continue
		}
		ok++
		out = append(out, f.List.Currencies(chainID)...)
	}
	if ok == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

var _ search.InactiveSource = (*Manager)(nil)

// NewLookup indexes tokens by address for address-form search queries.
func NewLookup(tokens ...[]currency.Currency) search.Lookup {
	index := make(map[string]currency.Currency)
	for _, group := range tokens {
		for _, c := range group {
			if c.Native {
				continue
			}
			key := id.NormalizeAddress(c.Address)
			if _, exists := index[key]; !exists {
				index[key] = c
			}
		}
	}
	return func(address string) (currency.Currency, bool) {
		c, ok := index[id.NormalizeAddress(address)]
		return c, ok
	}
}
