package app

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/execution"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

func (s *runtimeState) newTxCommand() *cobra.Command {
	root := &cobra.Command{Use: "tx", Short: "Inspect tracked wrap transactions"}

	var listStatus string
	var listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := strings.ToLower(strings.TrimSpace(listStatus))
			switch execution.ActionStatus(status) {
			case "", execution.ActionStatusPending, execution.ActionStatusSubmitted, execution.ActionStatusConfirmed, execution.ActionStatusFailed:
			default:
				return clierr.New(clierr.CodeUsage, "--status must be one of pending|submitted|confirmed|failed")
			}
			actions, err := s.actionStore.List(status, listLimit)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list actions", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), actions, nil, cacheMetaBypass(), nil, false)
		},
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of actions")

	var (
		statusActionID string
		statusTxHash   string
		statusRPCURL   string
		statusWait     bool
		statusPoll     string
		statusTimeout  string
	)
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh and show a tracked transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			action, err := s.lookupAction(statusActionID, statusTxHash)
			if err != nil {
				return err
			}
			receiptOpts, err := parseReceiptOptions(statusPoll, statusTimeout)
			if err != nil {
				return err
			}
			if action.Terminal() {
				return s.emitSuccess(trimRootPath(cmd.CommandPath()), action, nil, cacheMetaBypass(), nil, false)
			}

			c, err := id.ParseChain(action.ChainID)
			if err != nil {
				return err
			}
			timeout := s.settings.Timeout
			if statusWait {
				timeout += receiptOpts.Timeout
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			client, _, err := s.dialChain(ctx, c, statusRPCURL)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := execution.Refresh(ctx, client, &action, statusWait, receiptOpts); err != nil {
				return err
			}
			action.Touch()
			if err := s.actionStore.Save(action); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "persist action", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), action, nil, cacheMetaBypass(), nil, false)
		},
	}
	statusCmd.Flags().StringVar(&statusActionID, "action-id", "", "Action identifier")
	statusCmd.Flags().StringVar(&statusTxHash, "tx-hash", "", "Transaction hash")
	statusCmd.Flags().StringVar(&statusRPCURL, "rpc-url", "", "RPC URL override for the action's chain")
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "Wait for the receipt")
	statusCmd.Flags().StringVar(&statusPoll, "poll-interval", "2s", "Receipt polling interval")
	statusCmd.Flags().StringVar(&statusTimeout, "wait-timeout", "2m", "Receipt wait timeout")

	root.AddCommand(listCmd)
	root.AddCommand(statusCmd)
	return root
}

func (s *runtimeState) lookupAction(actionID, txHash string) (execution.Action, error) {
	actionID = strings.TrimSpace(actionID)
	txHash = strings.TrimSpace(txHash)
	switch {
	case actionID != "" && txHash != "":
		return execution.Action{}, clierr.New(clierr.CodeUsage, "use either --action-id or --tx-hash")
	case actionID != "":
		return s.actionStore.Get(actionID)
	case txHash != "":
		if len(txHash) != 66 || !strings.HasPrefix(txHash, "0x") {
			return execution.Action{}, clierr.New(clierr.CodeUsage, "--tx-hash must be a 0x-prefixed 32-byte hash")
		}
		return s.actionStore.GetByTxHash(txHash)
	default:
		return execution.Action{}, clierr.New(clierr.CodeUsage, "--action-id or --tx-hash is required")
	}
}
