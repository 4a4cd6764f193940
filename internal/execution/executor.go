package execution

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/execution/signer"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/registry"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/wrap"
)

// Backend is the RPC surface needed to submit and track a transaction.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type SubmitOptions struct {
	Simulate           bool
	GasMultiplier      float64
	MaxFeeGwei         string
	MaxPriorityFeeGwei string
}

func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		Simulate:      true,
		GasMultiplier: 1.2,
	}
}

// PreparedTx is an unsigned transaction with resolved gas and fees.
type PreparedTx struct {
	Kind       ActionKind         `json:"kind"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Value      string             `json:"value"`
	Data       string             `json:"data"`
	Nonce      uint64             `json:"nonce"`
	GasLimit   uint64             `json:"gas_limit"`
	GasPrice   string             `json:"gas_price_wei,omitempty"`
	MaxFee     string             `json:"max_fee_per_gas_wei,omitempty"`
	MaxTip     string             `json:"max_priority_fee_per_gas_wei,omitempty"`
	Simulated  bool               `json:"simulated"`
	Tx         *types.Transaction `json:"-"`
	evmChainID *big.Int
}

var wrappedNativeABI = mustABI(registry.WrappedNativeABI)

// Submitter sends deposit/withdraw calls to a chain's wrapped-native contract.
// It implements wrap.Contract.
type Submitter struct {
	backend  Backend
	signer   signer.Signer
	chain    id.Chain
	contract common.Address
	opts     SubmitOptions
	logger   log.Logger
}

func NewSubmitter(backend Backend, txSigner signer.Signer, chain id.Chain, opts SubmitOptions, logger log.Logger) (*Submitter, error) {
	if backend == nil {
		return nil, clierr.New(clierr.CodeInternal, "missing rpc backend")
	}
	if txSigner == nil {
		return nil, clierr.New(clierr.CodeSigner, "missing signer")
	}
	if !chain.HasWrappedNative() {
		return nil, clierr.Newf(clierr.CodeUnsupported, "no wrapped native token known for %s", chain.CAIP2)
	}
	if opts.GasMultiplier <= 1 {
		opts.GasMultiplier = DefaultSubmitOptions().GasMultiplier
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Submitter{
		backend:  backend,
		signer:   txSigner,
		chain:    chain,
		contract: common.HexToAddress(chain.WrappedNative.Address),
		opts:     opts,
		logger:   logger.With("chain", chain.Slug),
	}, nil
}

func (s *Submitter) Deposit(ctx context.Context, amount *big.Int) (wrap.Tx, error) {
	return s.submit(ctx, ActionKindWrap, amount)
}

func (s *Submitter) Withdraw(ctx context.Context, amount *big.Int) (wrap.Tx, error) {
	return s.submit(ctx, ActionKindUnwrap, amount)
}

func (s *Submitter) submit(ctx context.Context, kind ActionKind, amount *big.Int) (wrap.Tx, error) {
	unlock := acquireSignerNonceLock(big.NewInt(s.chain.EVMChainID), s.signer.Address())
	defer unlock()

	prepared, err := s.Prepare(ctx, kind, amount)
	if err != nil {
		return wrap.Tx{}, err
	}
	signed, err := s.signer.SignTx(prepared.evmChainID, prepared.Tx)
	if err != nil {
		return wrap.Tx{}, clierr.Wrap(clierr.CodeSigner, "sign transaction", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return wrap.Tx{}, wrapEVMExecutionError(clierr.CodeUnavailable, "broadcast transaction", err)
	}
	s.logger.Debug("Broadcast transaction", "hash", signed.Hash(), "nonce", prepared.Nonce, "gas", prepared.GasLimit)

	return wrap.Tx{
		Hash:    signed.Hash(),
		ChainID: s.chain.EVMChainID,
		From:    s.signer.Address(),
		To:      s.contract,
		Kind:    wrap.Kind(kind),
		Amount:  new(big.Int).Set(amount),
	}, nil
}

// Prepare builds, checks and prices the call without signing it.
func (s *Submitter) Prepare(ctx context.Context, kind ActionKind, amount *big.Int) (PreparedTx, error) {
	if amount == nil || amount.Sign() <= 0 {
		return PreparedTx{}, clierr.New(clierr.CodeUsage, "amount must be positive")
	}
	data, value, err := wrapCalldata(kind, amount)
	if err != nil {
		return PreparedTx{}, err
	}
	if err := validateWrapCall(s.chain, s.contract, kind, data, value); err != nil {
		return PreparedTx{}, err
	}

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return PreparedTx{}, clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	if chainID.Int64() != s.chain.EVMChainID {
		return PreparedTx{}, clierr.Newf(clierr.CodeTxInvalid, "rpc chain mismatch: expected %d, got %d", s.chain.EVMChainID, chainID.Int64())
	}

	from := s.signer.Address()
	msg := ethereum.CallMsg{From: from, To: &s.contract, Value: value, Data: data}
	prepared := PreparedTx{
		Kind:       kind,
		From:       from.Hex(),
		To:         s.contract.Hex(),
		Value:      value.String(),
		Data:       "0x" + common.Bytes2Hex(data),
		evmChainID: chainID,
	}

	if s.opts.Simulate {
		if _, err := s.backend.CallContract(ctx, msg, nil); err != nil {
			return PreparedTx{}, wrapEVMExecutionError(clierr.CodeTxSimulation, "simulate call (eth_call)", err)
		}
		prepared.Simulated = true
	}

	gasLimit, err := s.backend.EstimateGas(ctx, msg)
	if err != nil {
		return PreparedTx{}, wrapEVMExecutionError(clierr.CodeTxSimulation, "estimate gas", err)
	}
	prepared.GasLimit = uint64(float64(gasLimit) * s.opts.GasMultiplier)

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return PreparedTx{}, clierr.Wrap(clierr.CodeUnavailable, "fetch nonce", err)
	}
	prepared.Nonce = nonce

	header, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return PreparedTx{}, clierr.Wrap(clierr.CodeUnavailable, "fetch latest header", err)
	}

	if header.BaseFee == nil {
		gasPrice, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return PreparedTx{}, clierr.Wrap(clierr.CodeUnavailable, "suggest gas price", err)
		}
		prepared.GasPrice = gasPrice.String()
		prepared.Tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      prepared.GasLimit,
			To:       &s.contract,
			Value:    value,
			Data:     data,
		})
		return prepared, nil
	}

	tipCap, err := resolveTipCap(ctx, s.backend, s.opts.MaxPriorityFeeGwei)
	if err != nil {
		return PreparedTx{}, err
	}
	feeCap, err := resolveFeeCap(header.BaseFee, tipCap, s.opts.MaxFeeGwei)
	if err != nil {
		return PreparedTx{}, err
	}
	prepared.MaxTip = tipCap.String()
	prepared.MaxFee = feeCap.String()
	prepared.Tx = types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       prepared.GasLimit,
		To:        &s.contract,
		Value:     value,
		Data:      data,
	})
	return prepared, nil
}

func wrapCalldata(kind ActionKind, amount *big.Int) ([]byte, *big.Int, error) {
	switch kind {
	case ActionKindWrap:
		data, err := wrappedNativeABI.Pack("deposit")
		if err != nil {
			return nil, nil, clierr.Wrap(clierr.CodeInternal, "pack deposit", err)
		}
		return data, new(big.Int).Set(amount), nil
	case ActionKindUnwrap:
		data, err := wrappedNativeABI.Pack("withdraw", amount)
		if err != nil {
			return nil, nil, clierr.Wrap(clierr.CodeInternal, "pack withdraw", err)
		}
		return data, new(big.Int), nil
	default:
		return nil, nil, clierr.Newf(clierr.CodeUsage, "unsupported action kind %q", kind)
	}
}

func resolveTipCap(ctx context.Context, backend Backend, overrideGwei string) (*big.Int, error) {
	if strings.TrimSpace(overrideGwei) != "" {
		v, err := parseGwei(overrideGwei)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "parse --max-priority-fee-gwei", err)
		}
		return v, nil
	}
	tipCap, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return big.NewInt(2_000_000_000), nil // 2 gwei fallback
	}
	return tipCap, nil
}

func resolveFeeCap(baseFee, tipCap *big.Int, overrideGwei string) (*big.Int, error) {
	if strings.TrimSpace(overrideGwei) != "" {
		v, err := parseGwei(overrideGwei)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "parse --max-fee-gwei", err)
		}
		if v.Cmp(tipCap) < 0 {
			return nil, clierr.New(clierr.CodeUsage, "--max-fee-gwei must be >= --max-priority-fee-gwei")
		}
		return v, nil
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)
	return feeCap, nil
}

func parseGwei(v string) (*big.Int, error) {
	clean := strings.TrimSpace(v)
	if clean == "" {
		return nil, fmt.Errorf("empty gwei value")
	}
	rat, ok := new(big.Rat).SetString(clean)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", v)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("value must be non-negative")
	}
	rat.Mul(rat, big.NewRat(1_000_000_000, 1))
	if !rat.IsInt() {
		return nil, fmt.Errorf("value must resolve to an integer wei amount")
	}
	return new(big.Int).Set(rat.Num()), nil
}

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
