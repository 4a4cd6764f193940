package app

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/schema"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/trade"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/userstate"
)

func (s *runtimeState) newSettingsCommand() *cobra.Command {
	root := &cobra.Command{Use: "settings", Short: "Transaction preferences"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show saved transaction settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := s.stateStore.Settings()
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "read settings", err)
			}
			view := settingsView(current)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), view, view.Warnings, cacheMetaBypass(), nil, false)
		},
	}

	var (
		slippage   string
		deadline   int
		expertMode bool
		singleHop  bool
		reset      bool
	)
	setCmd := &cobra.Command{
		Use:         "set",
		Short:       "Update transaction settings",
		Annotations: map[string]string{schema.AnnotationMutating: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := s.stateStore.Settings()
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "read settings", err)
			}
			if reset {
				current = userstate.DefaultSettings()
			}
			var patch userstate.Patch
			flags := cmd.Flags()
			if flags.Changed("slippage") {
				pct, err := trade.ParsePercent(slippage)
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "parse --slippage", err)
				}
				patch.Slippage = &pct
			}
			if flags.Changed("deadline") {
				patch.DeadlineMinutes = &deadline
			}
			if flags.Changed("expert-mode") {
				patch.ExpertMode = &expertMode
			}
			if flags.Changed("single-hop") {
				patch.SingleHopOnly = &singleHop
			}
			updated := current.Apply(patch)
			if err := s.stateStore.SaveSettings(updated); err != nil {
				return err
			}
			view := settingsView(updated)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), view, view.Warnings, cacheMetaBypass(), nil, false)
		},
	}
	setCmd.Flags().StringVar(&slippage, "slippage", "", "Slippage tolerance in percent (e.g. 0.5 or 0.5%)")
	setCmd.Flags().IntVar(&deadline, "deadline", userstate.DefaultDeadlineMinutes, "Transaction deadline in minutes")
	setCmd.Flags().BoolVar(&expertMode, "expert-mode", false, "Allow high price impact trades")
	setCmd.Flags().BoolVar(&singleHop, "single-hop", false, "Restrict routing to direct pairs")
	setCmd.Flags().BoolVar(&reset, "reset", false, "Start from defaults before applying other flags")

	root.AddCommand(showCmd)
	root.AddCommand(setCmd)
	return root
}

func settingsView(settings userstate.Settings) model.SettingsView {
	return model.SettingsView{
		SlippagePct:     settings.Slippage.String(),
		DeadlineMinutes: settings.DeadlineMinutes,
		ExpertMode:      settings.ExpertMode,
		SingleHopOnly:   settings.SingleHopOnly,
		Warnings:        settings.Warnings(),
	}
}

func (s *runtimeState) newTradeCommand() *cobra.Command {
	root := &cobra.Command{Use: "trade", Short: "Trade policy helpers"}

	var pct string
	var expert bool
	impactCmd := &cobra.Command{
		Use:   "impact",
		Short: "Classify a price impact percentage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var impact *decimal.Decimal
			if pct != "" && pct != "-" {
				parsed, err := trade.ParsePercent(pct)
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "parse --pct", err)
				}
				impact = &parsed
			}
			expertMode := expert
			if !cmd.Flags().Changed("expert") {
				saved, err := s.stateStore.Settings()
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "read settings", err)
				}
				expertMode = saved.ExpertMode
			}
			severity := trade.WarningSeverity(impact)
			view := model.PriceImpactView{
				InputPct:  pct,
				Formatted: trade.FormatPriceImpact(impact),
				Severity:  int(severity),
				Level:     severity.String(),
				Blocked:   trade.Blocked(severity, expertMode),
			}
			var warnings []string
			if view.Blocked {
				warnings = append(warnings, "Price impact too high; enable expert mode to proceed")
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), view, warnings, cacheMetaBypass(), nil, false)
		},
	}
	impactCmd.Flags().StringVar(&pct, "pct", "", "Price impact in percent (omit or '-' when unknown)")
	impactCmd.Flags().BoolVar(&expert, "expert", false, "Override the saved expert mode")

	root.AddCommand(impactCmd)
	return root
}
