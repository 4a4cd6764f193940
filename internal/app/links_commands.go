package app

import (
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/nav"
)

func (s *runtimeState) newLinksCommand() *cobra.Command {
	root := &cobra.Command{Use: "links", Short: "Interface menu links"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List menu links",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items := nav.Items()
			views := make([]model.LinkView, 0, len(items))
			for _, item := range items {
				views = append(views, model.LinkView{Name: item.Name, Kind: string(item.Kind), Target: item.Target})
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), views, nil, cacheMetaBypass(), nil, false)
		},
	}

	var name string
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Resolve a menu link to its destination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			item, ok := nav.Find(name)
			if !ok {
				return clierr.Newf(clierr.CodeUsage, "unknown link %q", name)
			}
			dest := nav.Resolve(item)
			view := model.LinkView{
				Name:      item.Name,
				Kind:      string(item.Kind),
				Target:    dest.Target,
				Action:    dest.Action,
				NewWindow: dest.NewWindow,
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), view, nil, cacheMetaBypass(), nil, false)
		},
	}
	openCmd.Flags().StringVar(&name, "name", "", "Link name (e.g. Docs, Vesting)")
	_ = openCmd.MarkFlagRequired("name")

	root.AddCommand(listCmd)
	root.AddCommand(openCmd)
	return root
}

func (s *runtimeState) newWalletCommand() *cobra.Command {
	root := &cobra.Command{Use: "wallet", Short: "Wallet inspection"}

	var chainArg, address, rpcURL string
	argentCmd := &cobra.Command{
		Use:   "argent",
		Short: "Check whether an address is an Argent smart wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := s.commandContext()
			defer cancel()
			c, err := s.resolveChain(chainArg)
			if err != nil {
				return err
			}
			account, err := parseAddressFlag("address", address)
			if err != nil {
				return err
			}
			reader, closeFn, err := s.newReader(ctx, c, rpcURL)
			if err != nil {
				return err
			}
			defer closeFn()
			start := time.Now()
			argent, err := reader.IsArgentWallet(ctx, account)
			sources := []model.SourceStatus{{Name: rpcSourceName(c), Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
			if err != nil {
				s.captureCommandDiagnostics(nil, sources, false)
				return err
			}
			data := model.WalletInfo{Chain: c.CAIP2, Address: account.Hex(), Argent: argent}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), sources, false)
		},
	}
	argentCmd.Flags().StringVar(&chainArg, "chain", "", "Chain identifier (defaults to the configured chain)")
	argentCmd.Flags().StringVar(&address, "address", "", "Wallet address")
	argentCmd.Flags().StringVar(&rpcURL, "rpc-url", "", "RPC URL override for the selected chain")
	_ = argentCmd.MarkFlagRequired("address")

	root.AddCommand(argentCmd)
	return root
}
