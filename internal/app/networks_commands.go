package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/networks"
)

func (s *runtimeState) newNetworksCommand() *cobra.Command {
	root := &cobra.Command{Use: "networks", Short: "Supported networks and wallet switch requests"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List supported networks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			views := make([]model.NetworkView, 0)
			for _, n := range networks.List() {
				c, ok := id.ChainByID(n.ChainID)
				if !ok {
					continue
				}
				views = append(views, s.networkView(c))
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), views, nil, cacheMetaBypass(), nil, false)
		},
	}

	var target, current string
	switchCmd := &cobra.Command{
		Use:   "switch",
		Short: "Build the wallet request that switches to a network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			to, err := id.ParseChain(target)
			if err != nil {
				return err
			}
			data := model.NetworkSwitch{To: to.CAIP2}
			var from int64
			if strings.TrimSpace(current) != "" {
				fromChain, err := id.ParseChain(current)
				if err != nil {
					return err
				}
				from = fromChain.EVMChainID
				data.From = fromChain.CAIP2
			}
			req, required, err := networks.SwitchRequest(from, to.EVMChainID)
			if err != nil {
				return clierr.Wrap(clierr.CodeUnsupported, fmt.Sprintf("switch to %s", to.CAIP2), err)
			}
			data.Required = required
			if required {
				data.Method = string(req.Method)
				data.Params = req.Params
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	switchCmd.Flags().StringVar(&target, "chain", "", "Target chain")
	switchCmd.Flags().StringVar(&current, "current", "", "Chain the wallet is connected to")
	_ = switchCmd.MarkFlagRequired("chain")

	root.AddCommand(listCmd)
	root.AddCommand(switchCmd)
	return root
}

func (s *runtimeState) networkView(c id.Chain) model.NetworkView {
	view := model.NetworkView{
		ChainID:     c.EVMChainID,
		HexChainID:  networks.HexChainID(c.EVMChainID),
		Slug:        c.Slug,
		Name:        c.Name,
		Native:      c.Native.Symbol,
		ExplorerURL: c.ExplorerURL,
	}
	if c.HasWrappedNative() {
		view.Wrapped = c.WrappedNative.Symbol
	}
	if rpcURL, err := s.settings.RPCURL(c.EVMChainID); err == nil {
		view.RPCURL = rpcURL
	}
	return view
}
