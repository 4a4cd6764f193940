// Package chain reads balances and token metadata over JSON-RPC.
package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/registry"
)

// Caller is the read-only RPC surface. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

var (
	erc20ABI  = mustABI(registry.ERC20ABI)
	argentABI = mustABI(registry.ArgentWalletDetectorABI)
)

type Reader struct {
	client  Caller
	chain   id.Chain
	limiter *rate.Limiter
	logger  log.Logger
}

// NewReader wraps client. rps <= 0 disables rate limiting.
func NewReader(client Caller, chain id.Chain, rps float64, logger log.Logger) *Reader {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Reader{
		client:  client,
		chain:   chain,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With("chain", chain.Slug),
	}
}

// Dial connects to rpcURL.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "connect rpc", err)
	}
	return client, nil
}

func (r *Reader) Chain() id.Chain { return r.chain }

func (r *Reader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	balance, err := r.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read native balance", err)
	}
	return balance, nil
}

func (r *Reader) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	out, err := r.call(ctx, erc20ABI, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, clierr.New(clierr.CodeUnavailable, "unexpected balanceOf result")
	}
	return balance, nil
}

// Balance reads the balance of c for account.
func (r *Reader) Balance(ctx context.Context, c currency.Currency, account common.Address) (*big.Int, error) {
	if c.Native {
		return r.NativeBalance(ctx, account)
	}
	if !common.IsHexAddress(c.Address) {
		return nil, clierr.Newf(clierr.CodeUsage, "invalid token address %q", c.Address)
	}
	return r.TokenBalance(ctx, common.HexToAddress(c.Address), account)
}

// TokenMetadata reads name, symbol and decimals from an ERC20 contract.
func (r *Reader) TokenMetadata(ctx context.Context, token common.Address) (currency.Currency, error) {
	name, err := r.callString(ctx, token, "name")
	if err != nil {
		return currency.Currency{}, err
	}
	symbol, err := r.callString(ctx, token, "symbol")
	if err != nil {
		return currency.Currency{}, err
	}
	out, err := r.call(ctx, erc20ABI, token, "decimals")
	if err != nil {
		return currency.Currency{}, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return currency.Currency{}, clierr.New(clierr.CodeUnavailable, "unexpected decimals result")
	}
	return currency.Token(r.chain.EVMChainID, token.Hex(), symbol, name, int(decimals)), nil
}

// IsArgentWallet asks the detector contract whether account is an Argent
// smart wallet. Chains without a detector always report false.
func (r *Reader) IsArgentWallet(ctx context.Context, account common.Address) (bool, error) {
	detector, ok := registry.ArgentWalletDetector(r.chain.EVMChainID)
	if !ok {
		return false, nil
	}
	out, err := r.call(ctx, argentABI, common.HexToAddress(detector), "isArgentWallet", account)
	if err != nil {
		return false, err
	}
	flag, _ := out[0].(bool)
	return flag, nil
}

func (r *Reader) callString(ctx context.Context, token common.Address, method string) (string, error) {
	out, err := r.call(ctx, erc20ABI, token, method)
	if err != nil {
		return "", err
	}
	value, ok := out[0].(string)
	if !ok {
		return "", clierr.Newf(clierr.CodeUnavailable, "unexpected %s result", method)
	}
	return strings.TrimSpace(value), nil
}

func (r *Reader) call(ctx context.Context, contract abi.ABI, target common.Address, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack "+method, err)
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	raw, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		r.logger.Debug("Contract call failed", "target", target, "method", method, "err", err)
		return nil, clierr.Wrap(clierr.CodeUnavailable, "call "+method, err)
	}
	out, err := contract.Unpack(method, raw)
	if err != nil || len(out) == 0 {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "decode "+method, err)
	}
	return out, nil
}

func (r *Reader) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return clierr.Wrap(clierr.CodeRateLimited, "rpc rate limit wait", err)
	}
	return nil
}

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
