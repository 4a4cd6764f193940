package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/chain"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/schema"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/search"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/tokenlist"
)

const balanceReadConcurrency = 4

func (s *runtimeState) newTokensCommand() *cobra.Command {
	root := &cobra.Command{Use: "tokens", Short: "Token search, lists and imports", Aliases: []string{"token"}}
	root.AddCommand(s.newTokensSearchCommand())
	root.AddCommand(s.newTokensImportCommand())
	root.AddCommand(s.newTokensRemoveCommand())
	root.AddCommand(s.newTokensAddedCommand())
	root.AddCommand(s.newTokensListsCommand())
	return root
}

type tokenSearchArgs struct {
	chainArg string
	query    string
	exclude  string
	account  string
	rpcURL   string
	noNative bool
	inactive bool
	onchain  bool
	invert   bool
	limit    int
}

func (s *runtimeState) newTokensSearchCommand() *cobra.Command {
	var args tokenSearchArgs
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the active token universe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := s.commandContext()
			defer cancel()
			data, warnings, sources, err := s.searchTokens(ctx, args)
			if err != nil {
				s.captureCommandDiagnostics(warnings, sources, false)
				return err
			}
			partial := len(warnings) > 0
			if partial && s.settings.Strict {
				s.captureCommandDiagnostics(warnings, sources, true)
				return clierr.New(clierr.CodePartialStrict, "one or more token lists were unavailable")
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, warnings, listCacheStatus(sources), sources, partial)
		},
	}
	cmd.Flags().StringVar(&args.chainArg, "chain", "", "Chain identifier (defaults to the configured chain)")
	cmd.Flags().StringVar(&args.query, "query", "", "Symbol, name or token address")
	cmd.Flags().StringVar(&args.exclude, "exclude", "", "Currency to leave out (e.g. the other side of the pair)")
	cmd.Flags().StringVar(&args.account, "account", "", "Rank duplicate symbols by this account's balances")
	cmd.Flags().StringVar(&args.rpcURL, "rpc-url", "", "RPC URL override for the selected chain")
	cmd.Flags().BoolVar(&args.noNative, "no-native", false, "Do not inject the native currency")
	cmd.Flags().BoolVar(&args.inactive, "inactive", false, "Also search inactive token lists when few results match")
	cmd.Flags().BoolVar(&args.onchain, "onchain", false, "Resolve unknown token addresses from the ERC20 contract")
	cmd.Flags().BoolVar(&args.invert, "invert", false, "Reverse the tie-breaker order")
	cmd.Flags().IntVar(&args.limit, "limit", 50, "Maximum number of results")
	return cmd
}

func (s *runtimeState) searchTokens(ctx context.Context, args tokenSearchArgs) (model.TokenSearchResult, []string, []model.SourceStatus, error) {
	c, err := s.resolveChain(args.chainArg)
	if err != nil {
		return model.TokenSearchResult{}, nil, nil, err
	}
	added, err := s.stateStore.AddedCurrencies(c.EVMChainID)
	if err != nil {
		return model.TokenSearchResult{}, nil, nil, clierr.Wrap(clierr.CodeInternal, "read added tokens", err)
	}
	lists := s.tokenLists()
	universe, fetched := lists.Universe(ctx, c, added)
	warnings := tokenlist.Warnings(fetched)
	sources := listSources(fetched)

	opts := search.Options{
		Chain:         c,
		TieBreaker:    search.PreferListed(registryAddresses(c)...),
		Invert:        args.invert,
		IncludeNative: !args.noNative,
		Active: func(cur currency.Currency) bool {
			_, ok := universe.Get(cur.Address)
			return ok
		},
	}
	if strings.TrimSpace(args.exclude) != "" {
		excluded, err := resolveCurrency(c, args.exclude)
		if err != nil {
			return model.TokenSearchResult{}, warnings, sources, err
		}
		opts.Exclude = &excluded
	}

	query := strings.TrimSpace(args.query)
	var reader *chain.Reader
	if args.onchain || args.account != "" {
		r, closeFn, err := s.newReader(ctx, c, args.rpcURL)
		if err != nil {
			return model.TokenSearchResult{}, warnings, sources, err
		}
		defer closeFn()
		reader = r
	}
	if id.IsAddress(query) {
		lookup, lookupWarnings := s.addressLookup(ctx, c, reader)
		warnings = append(warnings, lookupWarnings...)
		opts.Lookup = lookup
	}

	var inactiveCh <-chan search.InactiveResult
	result := search.Search(universe, query, opts)
	if args.inactive && result.NeedsInactive && !id.IsAddress(query) {
		inactiveCh = search.StartInactive(ctx, lists, query, opts)
	}

	var balances map[string]*big.Int
	if args.account != "" {
		account, err := parseAddressFlag("account", args.account)
		if err != nil {
			return model.TokenSearchResult{}, warnings, sources, err
		}
		start := time.Now()
		balances, err = readBalances(ctx, reader, account, capList(result.List, args.limit))
		sources = append(sources, model.SourceStatus{Name: rpcSourceName(c), Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("balances unavailable: %v", err))
		} else {
			opts.TieBreaker = search.PreferBalances(balances)
			result = search.Search(universe, query, opts)
		}
	}

	data := model.TokenSearchResult{
		Chain:         c.CAIP2,
		Query:         query,
		Results:       currencyViews(capList(result.List, args.limit), c.CAIP2, balances),
		NeedsInactive: result.NeedsInactive,
	}
	if result.Import != nil {
		view := currencyView(*result.Import, c.CAIP2, nil)
		data.Import = &view
	}
	if selected, ok := search.SelectOnEnter(result, query, c); ok {
		view := currencyView(selected, c.CAIP2, balances[selected.Key()])
		data.Selected = &view
	}
	if inactiveCh != nil {
		res := <-inactiveCh
		if res.Err != nil {
			warnings = append(warnings, fmt.Sprintf("inactive token lists unavailable: %v", res.Err))
		} else {
			data.Inactive = currencyViews(res.List, c.CAIP2, nil)
		}
	}
	return data, warnings, sources, nil
}

// addressLookup resolves token addresses from the inactive lists and, when a
// reader is available, from the token contract itself.
func (s *runtimeState) addressLookup(ctx context.Context, c id.Chain, reader *chain.Reader) (search.Lookup, []string) {
	var warnings []string
	inactive, err := s.tokenLists().InactiveTokens(ctx, c.EVMChainID)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("inactive token lists unavailable: %v", err))
	}
	fromLists := tokenlist.NewLookup(inactive)
	return func(address string) (currency.Currency, bool) {
		if found, ok := fromLists(address); ok {
			return found, true
		}
		if reader == nil {
			return currency.Currency{}, false
		}
		meta, err := reader.TokenMetadata(ctx, common.HexToAddress(address))
		if err != nil {
			s.logger.Debug("Token metadata lookup failed", "address", address, "err", err)
			return currency.Currency{}, false
		}
		return meta, true
	}, warnings
}

func readBalances(ctx context.Context, reader *chain.Reader, account common.Address, list []currency.Currency) (map[string]*big.Int, error) {
	results := make([]*big.Int, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceReadConcurrency)
	for i, c := range list {
		i, c := i, c
		g.Go(func() error {
			balance, err := reader.Balance(gctx, c, account)
			if err != nil {
				return err
			}
			results[i] = balance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	balances := make(map[string]*big.Int, len(list))
	for i, c := range list {
		balances[c.Key()] = results[i]
	}
	return balances, nil
}

func (s *runtimeState) newTokensImportCommand() *cobra.Command {
	var chainArg, address, rpcURL string
	cmd := &cobra.Command{
		Use:         "import",
		Short:       "Add a token by address to the user token list",
		Annotations: map[string]string{schema.AnnotationMutating: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := s.commandContext()
			defer cancel()
			c, err := s.resolveChain(chainArg)
			if err != nil {
				return err
			}
			addr, err := parseAddressFlag("address", address)
			if err != nil {
				return err
			}

			var warnings []string
			var sources []model.SourceStatus
			token, found := id.LookupByAddress(c.EVMChainID, addr.Hex())
			resolved := currency.FromToken(c.EVMChainID, token)
			if !found {
				inactive, err := s.tokenLists().InactiveTokens(ctx, c.EVMChainID)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("inactive token lists unavailable: %v", err))
				}
				resolved, found = tokenlist.NewLookup(inactive)(addr.Hex())
			}
			if !found {
				reader, closeFn, err := s.newReader(ctx, c, rpcURL)
				if err != nil {
					return err
				}
				defer closeFn()
				start := time.Now()
				resolved, err = reader.TokenMetadata(ctx, addr)
				sources = append(sources, model.SourceStatus{Name: rpcSourceName(c), Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()})
				if err != nil {
					s.captureCommandDiagnostics(warnings, sources, false)
					return clierr.Wrap(clierr.CodeUnavailable, "read token metadata", err)
				}
			}
			if err := s.stateStore.AddToken(resolved); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "store imported token", err)
			}
			view := model.AddedTokenView{CurrencyView: currencyView(resolved, c.CAIP2, nil), AddedAt: s.runner.now().UTC()}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), view, warnings, cacheMetaBypass(), sources, false)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "", "Chain identifier (defaults to the configured chain)")
	cmd.Flags().StringVar(&address, "address", "", "Token contract address")
	cmd.Flags().StringVar(&rpcURL, "rpc-url", "", "RPC URL override for the selected chain")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newTokensRemoveCommand() *cobra.Command {
	var chainArg, address string
	cmd := &cobra.Command{
		Use:         "remove",
		Short:       "Remove a user-added token",
		Annotations: map[string]string{schema.AnnotationMutating: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := s.resolveChain(chainArg)
			if err != nil {
				return err
			}
			addr, err := parseAddressFlag("address", address)
			if err != nil {
				return err
			}
			removed, err := s.stateStore.RemoveToken(c.EVMChainID, addr.Hex())
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "remove token", err)
			}
			if !removed {
				return clierr.Newf(clierr.CodeUsage, "token %s was not added on %s", addr.Hex(), c.CAIP2)
			}
			data := map[string]any{"chain": c.CAIP2, "address": strings.ToLower(addr.Hex()), "removed": true}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "", "Chain identifier (defaults to the configured chain)")
	cmd.Flags().StringVar(&address, "address", "", "Token contract address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newTokensAddedCommand() *cobra.Command {
	var chainArg string
	cmd := &cobra.Command{
		Use:   "added",
		Short: "List user-added tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := s.resolveChain(chainArg)
			if err != nil {
				return err
			}
			added, err := s.stateStore.AddedTokens(c.EVMChainID)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "read added tokens", err)
			}
			views := make([]model.AddedTokenView, 0, len(added))
			for _, a := range added {
				views = append(views, model.AddedTokenView{CurrencyView: currencyView(a.Currency, c.CAIP2, nil), AddedAt: a.AddedAt})
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), views, nil, cacheMetaBypass(), nil, false)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "", "Chain identifier (defaults to the configured chain)")
	return cmd
}

func (s *runtimeState) newTokensListsCommand() *cobra.Command {
	var chainArg string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show configured token lists and their status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := s.commandContext()
			defer cancel()
			var chainID int64
			if strings.TrimSpace(chainArg) != "" {
				c, err := s.resolveChain(chainArg)
				if err != nil {
					return err
				}
				chainID = c.EVMChainID
			}
			lists := s.tokenLists()
			if refresh {
				n, err := lists.Invalidate()
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "clear token list cache", err)
				}
				s.logger.Debug("Cleared token list cache", "entries", n)
			}
			var active, inactive []tokenlist.Fetched
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { active = lists.FetchAll(gctx, lists.ActiveURLs()); return nil })
			g.Go(func() error { inactive = lists.FetchAll(gctx, lists.InactiveURLs()); return nil })
			_ = g.Wait()

			infos := make([]model.TokenListInfo, 0, len(active)+len(inactive))
			for _, f := range active {
				infos = append(infos, listInfo(f, true, chainID))
			}
			for _, f := range inactive {
				infos = append(infos, listInfo(f, false, chainID))
			}
			all := append(append([]tokenlist.Fetched{}, active...), inactive...)
			warnings := tokenlist.Warnings(all)
			sources := listSources(all)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), infos, warnings, listCacheStatus(sources), sources, len(warnings) > 0)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "", "Count only tokens on this chain")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop cached lists and fetch them again")
	return cmd
}

func listInfo(f tokenlist.Fetched, active bool, chainID int64) model.TokenListInfo {
	info := model.TokenListInfo{URL: f.URL, Active: active, Source: string(f.Source), Stale: f.Stale}
	if f.Err != nil {
		info.Error = f.Err.Error()
		return info
	}
	info.Name = f.List.Name
	info.Version = f.List.Version.String()
	if chainID != 0 {
		info.Tokens = len(f.List.Currencies(chainID))
	} else {
		info.Tokens = len(f.List.Tokens)
	}
	return info
}

func listSources(fetched []tokenlist.Fetched) []model.SourceStatus {
	out := make([]model.SourceStatus, 0, len(fetched))
	for _, f := range fetched {
		status := statusFromErr(f.Err)
		if f.Err == nil && f.Source == tokenlist.SourceCache {
			status = "cache"
			if f.Stale {
				status = "stale"
			}
		}
		out = append(out, model.SourceStatus{Name: f.URL, Status: status, LatencyMS: f.Latency.Milliseconds()})
	}
	return out
}

func listCacheStatus(sources []model.SourceStatus) model.CacheStatus {
	if len(sources) == 0 {
		return cacheMetaBypass()
	}
	status := model.CacheStatus{Status: "hit"}
	for _, src := range sources {
		switch src.Status {
		case "stale":
			status.Stale = true
		case "cache":
		default:
			if !strings.HasPrefix(src.Name, "rpc:") {
				status.Status = "miss"
			}
		}
	}
	return status
}

func registryAddresses(c id.Chain) []string {
	tokens := id.RegistryTokens(c.EVMChainID)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Address)
	}
	return out
}

func capList(list []currency.Currency, limit int) []currency.Currency {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
