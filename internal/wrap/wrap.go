// Package wrap decides whether a currency pair is a native <-> wrapped-native
// conversion and builds the action that performs it.
package wrap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

type Kind string

const (
	KindNotApplicable Kind = "not_applicable"
	KindWrap          Kind = "wrap"
	KindUnwrap        Kind = "unwrap"
)

const summaryDigits = 6

// Tx is the handle returned once the provider accepts a transaction. It does
// not imply confirmation.
type Tx struct {
	Hash    common.Hash    `json:"hash"`
	ChainID int64          `json:"chain_id"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	Kind    Kind           `json:"kind"`
	Amount  *big.Int       `json:"amount"`
	// Decimals of the input currency, which Amount is denominated in.
	Decimals int `json:"decimals"`
}

// Contract is the wrapped-native token contract.
type Contract interface {
	Deposit(ctx context.Context, amount *big.Int) (Tx, error)
	Withdraw(ctx context.Context, amount *big.Int) (Tx, error)
}

// Recorder tracks submitted transactions.
type Recorder interface {
	Record(ctx context.Context, tx Tx, summary string) error
}

type Request struct {
	Chain    id.Chain
	Input    *currency.Currency
	Output   *currency.Currency
	Typed    string
	Balance  *big.Int
	Contract Contract
	Recorder Recorder
	Logger   log.Logger
}

type TxResult struct {
	Tx    *Tx    `json:"tx,omitempty"`
	Error string `json:"error,omitempty"`
}

type Result struct {
	Kind Kind
	// Execute is nil unless an amount was entered and the balance covers it.
	Execute    func(ctx context.Context) TxResult
	InputError string
	Amount     *big.Int
	Summary    string
}

// Classify inspects the pair and amount in req.
func Classify(req Request) Result {
	notApplicable := Result{Kind: KindNotApplicable}
	if req.Contract == nil || req.Input == nil || req.Output == nil || req.Chain.EVMChainID == 0 {
		return notApplicable
	}
	wrapped, ok := currency.WrappedNative(req.Chain)
	if !ok {
		return notApplicable
	}

	in, out := *req.Input, *req.Output
	var kind Kind
	switch {
	case isNative(in, req.Chain) && out.Equals(wrapped):
		kind = KindWrap
	case in.Equals(wrapped) && isNative(out, req.Chain):
		kind = KindUnwrap
	default:
		return notApplicable
	}

	amount, parsed := id.ParseAmount(req.Typed, in.Decimals)
	hasAmount := parsed && amount.Sign() > 0
	sufficient := hasAmount && req.Balance != nil && req.Balance.Cmp(amount) >= 0

	res := Result{Kind: kind}
	if hasAmount {
		res.Amount = amount
		res.Summary = summary(kind, amount, in, out)
	}
	switch {
	case !hasAmount:
		res.InputError = fmt.Sprintf("Enter %s amount", req.Chain.Native.Symbol)
	case !sufficient:
		res.InputError = fmt.Sprintf("Insufficient %s balance", in.Symbol)
	default:
		res.Execute = executor(req, kind, amount, res.Summary)
	}
	return res
}

func isNative(c currency.Currency, chain id.Chain) bool {
	return c.Native && c.ChainID == chain.EVMChainID
}

func summary(kind Kind, amount *big.Int, in, out currency.Currency) string {
	verb := "Wrap"
	if kind == KindUnwrap {
		verb = "Unwrap"
	}
	return fmt.Sprintf("%s %s %s to %s", verb, id.FormatSignificant(amount, in.Decimals, summaryDigits), in.Symbol, out.Symbol)
}

func executor(req Request, kind Kind, amount *big.Int, summary string) func(ctx context.Context) TxResult {
	logger := req.Logger
	if logger == nil {
		logger = log.Root()
	}
	contract, recorder := req.Contract, req.Recorder
	value := new(big.Int).Set(amount)

	return func(ctx context.Context) (res TxResult) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Wrap action panicked", "kind", kind, "panic", r)
				res = TxResult{Error: fmt.Sprint(r)}
			}
		}()

		var (
			tx  Tx
			err error
		)
		if kind == KindWrap {
			tx, err = contract.Deposit(ctx, value)
		} else {
			tx, err = contract.Withdraw(ctx, value)
		}
		if err != nil {
			logger.Error("Could not submit wrap transaction", "kind", kind, "amount", value, "err", err)
			return TxResult{Error: err.Error()}
		}
		if tx.ChainID == 0 {
			tx.ChainID = req.Chain.EVMChainID
		}
		if tx.Kind == "" {
			tx.Kind = kind
		}
		if tx.Amount == nil {
			tx.Amount = value
		}
		tx.Decimals = req.Input.Decimals
		logger.Info("Submitted wrap transaction", "kind", kind, "hash", tx.Hash)

		if recorder != nil {
			if err := recorder.Record(ctx, tx, summary); err != nil {
				logger.Warn("Failed to record transaction", "hash", tx.Hash, "err", err)
			}
		}
		return TxResult{Tx: &tx}
	}
}

// One native unit divided by gasReserveUnits is kept back for gas.
var gasReserveUnits = big.NewInt(100)

// MaxSpend returns how much of balance may be spent. Native balances keep a
// reserve of 0.01 units for gas; tokens are returned unchanged.
func MaxSpend(balance *big.Int, c currency.Currency) *big.Int {
	if balance == nil {
		return nil
	}
	if !c.Native {
		return new(big.Int).Set(balance)
	}
	reserve := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.Decimals)), nil)
	reserve.Quo(reserve, gasReserveUnits)
	if balance.Cmp(reserve) <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(balance, reserve)
}
