package execution

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

var (
	policyDepositSelector  = wrappedNativeABI.Methods["deposit"].ID
	policyWithdrawSelector = wrappedNativeABI.Methods["withdraw"].ID
)

// validateWrapCall refuses anything but a deposit/withdraw on the chain's
// canonical wrapped-native contract.
func validateWrapCall(chain id.Chain, target common.Address, kind ActionKind, data []byte, value *big.Int) error {
	if !chain.HasWrappedNative() {
		return clierr.New(clierr.CodeTxInvalid, "chain has no wrapped native token")
	}
	canonical := common.HexToAddress(chain.WrappedNative.Address)
	if target != canonical {
		return clierr.Newf(clierr.CodeTxInvalid, "target %s does not match canonical %s", target.Hex(), canonical.Hex())
	}
	if value == nil {
		value = new(big.Int)
	}

	switch kind {
	case ActionKindWrap:
		if !bytes.Equal(data, policyDepositSelector) {
			return clierr.New(clierr.CodeTxInvalid, "wrap must call deposit() with no arguments")
		}
		if value.Sign() <= 0 {
			return clierr.New(clierr.CodeTxInvalid, "wrap must forward a positive value")
		}
	case ActionKindUnwrap:
		if len(data) < 4 || !bytes.Equal(data[:4], policyWithdrawSelector) {
			return clierr.New(clierr.CodeTxInvalid, "unwrap must call withdraw(uint256)")
		}
		args, err := wrappedNativeABI.Methods["withdraw"].Inputs.Unpack(data[4:])
		if err != nil || len(args) != 1 {
			return clierr.New(clierr.CodeTxInvalid, "unwrap calldata is invalid")
		}
		amount, ok := toBigInt(args[0])
		if !ok || amount.Sign() <= 0 {
			return clierr.New(clierr.CodeTxInvalid, "unwrap amount must be positive")
		}
		if value.Sign() != 0 {
			return clierr.New(clierr.CodeTxInvalid, "unwrap must not forward value")
		}
	default:
		return clierr.Newf(clierr.CodeTxInvalid, "unsupported action kind %q", kind)
	}
	return nil
}

func toBigInt(v any) (*big.Int, bool) {
	switch value := v.(type) {
	case *big.Int:
		if value == nil {
			return nil, false
		}
		return value, true
	case big.Int:
		cpy := value
		return &cpy, true
	default:
		return nil, false
	}
}
