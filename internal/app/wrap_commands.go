package app

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/chain"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/execution"
	execsigner "github.com/ericvale0128/cronaswap-interfacev3/internal/execution/signer"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/schema"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/wrap"
)

type wrapArgs struct {
	chainArg  string
	fromAsset string
	toAsset   string
	amount    string
	balance   string
	account   string
	rpcURL    string
	max       bool
}

func (a *wrapArgs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.chainArg, "chain", "", "Chain identifier (defaults to the configured chain)")
	cmd.Flags().StringVar(&a.fromAsset, "from-asset", "", "Input currency (native symbol, wrapped symbol, address or CAIP-19)")
	cmd.Flags().StringVar(&a.toAsset, "to-asset", "", "Output currency")
	cmd.Flags().StringVar(&a.amount, "amount-decimal", "", "Amount of the input currency")
	cmd.Flags().StringVar(&a.rpcURL, "rpc-url", "", "RPC URL override for the selected chain")
	cmd.Flags().BoolVar(&a.max, "max", false, "Spend the maximum amount (keeps a gas reserve on native balances)")
	_ = cmd.MarkFlagRequired("from-asset")
	_ = cmd.MarkFlagRequired("to-asset")
}

// quoteOnly stands in for the contract when a quote must not submit anything.
type quoteOnly struct{}

func (quoteOnly) Deposit(context.Context, *big.Int) (wrap.Tx, error) {
	return wrap.Tx{}, clierr.New(clierr.CodeUsage, "quote does not submit transactions")
}

func (quoteOnly) Withdraw(context.Context, *big.Int) (wrap.Tx, error) {
	return wrap.Tx{}, clierr.New(clierr.CodeUsage, "quote does not submit transactions")
}

func (s *runtimeState) newWrapCommand() *cobra.Command {
	root := &cobra.Command{Use: "wrap", Short: "Wrap and unwrap the native currency"}

	var quoteArgs wrapArgs
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Classify a pair and amount as wrap, unwrap or not applicable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := s.commandContext()
			defer cancel()
			c, in, out, err := resolvePair(s, quoteArgs)
			if err != nil {
				return err
			}

			var sources []model.SourceStatus
			var balance *big.Int
			switch {
			case strings.TrimSpace(quoteArgs.balance) != "":
				parsed, err := id.ParseUnitsFlag("balance", quoteArgs.balance, in.Decimals)
				if err != nil {
					return err
				}
				balance = parsed
			case strings.TrimSpace(quoteArgs.account) != "":
				account, err := parseAddressFlag("account", quoteArgs.account)
				if err != nil {
					return err
				}
				reader, closeFn, err := s.newReader(ctx, c, quoteArgs.rpcURL)
				if err != nil {
					return err
				}
				defer closeFn()
				start := time.Now()
				balance, err = reader.Balance(ctx, in, account)
				sources = append(sources, model.SourceStatus{Name: rpcSourceName(c), Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()})
				if err != nil {
					s.captureCommandDiagnostics(nil, sources, false)
					return err
				}
			}

			typed := quoteArgs.amount
			if quoteArgs.max {
				typed = maxTyped(balance, in)
			}
			// Native balances keep the gas reserve out of reach.
			res := wrap.Classify(wrap.Request{
				Chain:    c,
				Input:    &in,
				Output:   &out,
				Typed:    typed,
				Balance:  wrap.MaxSpend(balance, in),
				Contract: quoteOnly{},
				Logger:   s.logger,
			})
			data := buildWrapQuote(c, in, out, res, balance)
			if res.Kind == wrap.KindNotApplicable {
				return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, []string{"pair is not a native/wrapped-native conversion"}, cacheMetaBypass(), sources, false)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), sources, false)
		},
	}
	quoteArgs.bind(quoteCmd)
	quoteCmd.Flags().StringVar(&quoteArgs.balance, "balance", "", "Input balance to check against (decimal); skips the rpc read")
	quoteCmd.Flags().StringVar(&quoteArgs.account, "account", "", "Read the input balance of this account")

	var (
		runArgs          wrapArgs
		runKeySource     string
		runPrivateKey    string
		runSimulate      bool
		runWait          bool
		runGasMultiplier float64
		runMaxFeeGwei    string
		runMaxTipGwei    string
		runPollInterval  string
		runWaitTimeout   string
	)
	runCmd := &cobra.Command{
		Use:         "run",
		Short:       "Submit a wrap or unwrap transaction",
		Annotations: map[string]string{schema.AnnotationMutating: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, in, out, err := resolvePair(s, runArgs)
			if err != nil {
				return err
			}
			receiptOpts, err := parseReceiptOptions(runPollInterval, runWaitTimeout)
			if err != nil {
				return err
			}
			txSigner, err := execsigner.NewLocalSignerFromInputs(runKeySource, runPrivateKey)
			if err != nil {
				return clierr.Wrap(clierr.CodeSigner, "initialize signer", err)
			}

			timeout := s.settings.Timeout
			if runWait {
				timeout += receiptOpts.Timeout
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			client, _, err := s.dialChain(ctx, c, runArgs.rpcURL)
			if err != nil {
				return err
			}
			defer client.Close()
			reader := chain.NewReader(client, c, s.settings.RPCRateLimit, s.logger)

			start := time.Now()
			balance, err := reader.Balance(ctx, in, txSigner.Address())
			sources := []model.SourceStatus{{Name: rpcSourceName(c), Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
			if err != nil {
				s.captureCommandDiagnostics(nil, sources, false)
				return err
			}

			submitter, err := execution.NewSubmitter(client, txSigner, c, execution.SubmitOptions{
				Simulate:           runSimulate,
				GasMultiplier:      runGasMultiplier,
				MaxFeeGwei:         runMaxFeeGwei,
				MaxPriorityFeeGwei: runMaxTipGwei,
			}, s.logger)
			if err != nil {
				return err
			}
			tracker := execution.NewTracker(s.actionStore, c)

			typed := runArgs.amount
			if runArgs.max {
				typed = maxTyped(balance, in)
			}
			res := wrap.Classify(wrap.Request{
				Chain:    c,
				Input:    &in,
				Output:   &out,
				Typed:    typed,
				Balance:  wrap.MaxSpend(balance, in),
				Contract: submitter,
				Recorder: tracker,
				Logger:   s.logger,
			})
			quote := buildWrapQuote(c, in, out, res, balance)
			switch {
			case res.Kind == wrap.KindNotApplicable:
				return clierr.Newf(clierr.CodeUsage, "%s -> %s is not a wrap or unwrap", in.Symbol, out.Symbol)
			case res.Execute == nil:
				return clierr.New(clierr.CodeUsage, res.InputError)
			}

			txResult := res.Execute(ctx)
			if txResult.Error != "" || txResult.Tx == nil {
				return clierr.Newf(clierr.CodeUnavailable, "submit %s: %s", res.Kind, txResult.Error)
			}

			result := model.WrapRunResult{
				Quote:    quote,
				ActionID: tracker.ActionID(),
				TxHash:   txResult.Tx.Hash.Hex(),
				Explorer: execution.ExplorerTxURL(c, txResult.Tx.Hash.Hex()),
				Status:   string(execution.ActionStatusSubmitted),
			}
			action, recorded := tracker.Last()
			if runWait && recorded {
				if err := execution.Refresh(ctx, client, &action, true, receiptOpts); err != nil {
					result.Error = err.Error()
				}
				action.Touch()
				if err := s.actionStore.Save(action); err != nil {
					return clierr.Wrap(clierr.CodeInternal, "persist action", err)
				}
				result.Status = string(action.Status)
				if action.Error != "" {
					result.Error = action.Error
				}
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), result, nil, cacheMetaBypass(), sources, false)
		},
	}
	submitDefaults := execution.DefaultSubmitOptions()
	runArgs.bind(runCmd)
	runCmd.Flags().StringVar(&runKeySource, "key-source", execsigner.KeySourceAuto, "Key source (auto|env|file|keystore)")
	runCmd.Flags().StringVar(&runPrivateKey, "private-key", "", "Private key hex override (prefer env or key file)")
	runCmd.Flags().BoolVar(&runSimulate, "simulate", submitDefaults.Simulate, "Run preflight simulation before submission")
	runCmd.Flags().BoolVar(&runWait, "wait", false, "Wait for the receipt before returning")
	runCmd.Flags().Float64Var(&runGasMultiplier, "gas-multiplier", submitDefaults.GasMultiplier, "Gas estimate safety multiplier")
	runCmd.Flags().StringVar(&runMaxFeeGwei, "max-fee-gwei", "", "Optional EIP-1559 max fee (gwei)")
	runCmd.Flags().StringVar(&runMaxTipGwei, "max-priority-fee-gwei", "", "Optional EIP-1559 priority fee (gwei)")
	runCmd.Flags().StringVar(&runPollInterval, "poll-interval", "2s", "Receipt polling interval")
	runCmd.Flags().StringVar(&runWaitTimeout, "wait-timeout", "2m", "Receipt wait timeout")

	root.AddCommand(quoteCmd)
	root.AddCommand(runCmd)
	return root
}

func resolvePair(s *runtimeState, args wrapArgs) (id.Chain, currency.Currency, currency.Currency, error) {
	c, err := s.resolveChain(args.chainArg)
	if err != nil {
		return id.Chain{}, currency.Currency{}, currency.Currency{}, err
	}
	in, err := resolveCurrency(c, args.fromAsset)
	if err != nil {
		return id.Chain{}, currency.Currency{}, currency.Currency{}, err
	}
	out, err := resolveCurrency(c, args.toAsset)
	if err != nil {
		return id.Chain{}, currency.Currency{}, currency.Currency{}, err
	}
	if args.max && strings.TrimSpace(args.amount) != "" {
		return id.Chain{}, currency.Currency{}, currency.Currency{}, clierr.New(clierr.CodeUsage, "--max and --amount-decimal are mutually exclusive")
	}
	return c, in, out, nil
}

func maxTyped(balance *big.Int, in currency.Currency) string {
	spend := wrap.MaxSpend(balance, in)
	if spend == nil {
		return ""
	}
	return id.FormatUnits(spend.String(), in.Decimals)
}

func buildWrapQuote(c id.Chain, in, out currency.Currency, res wrap.Result, balance *big.Int) model.WrapQuote {
	quote := model.WrapQuote{
		Chain:      c.CAIP2,
		Kind:       string(res.Kind),
		Input:      currencyView(in, c.CAIP2, nil),
		Output:     currencyView(out, c.CAIP2, nil),
		InputError: res.InputError,
		Executable: res.Execute != nil,
		Summary:    res.Summary,
	}
	if res.Amount != nil {
		quote.AmountBase = res.Amount.String()
		quote.AmountDecimal = id.FormatUnits(res.Amount.String(), in.Decimals)
	}
	if balance != nil {
		quote.BalanceDecimal = id.FormatUnits(balance.String(), in.Decimals)
		if spend := wrap.MaxSpend(balance, in); spend != nil {
			quote.MaxSpend = id.FormatUnits(spend.String(), in.Decimals)
		}
	}
	return quote
}

func parseReceiptOptions(pollInterval, timeout string) (execution.ReceiptOptions, error) {
	opts := execution.DefaultReceiptOptions()
	if strings.TrimSpace(pollInterval) != "" {
		d, err := time.ParseDuration(pollInterval)
		if err != nil || d <= 0 {
			return opts, clierr.New(clierr.CodeUsage, "--poll-interval must be a positive duration")
		}
		opts.PollInterval = d
	}
	if strings.TrimSpace(timeout) != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return opts, clierr.New(clierr.CodeUsage, "--wait-timeout must be a positive duration")
		}
		opts.Timeout = d
	}
	return opts, nil
}
