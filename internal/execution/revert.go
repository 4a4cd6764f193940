package execution

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
)

var (
	errorStringSelector = common.FromHex("0x08c379a0")
	panicSelector       = common.FromHex("0x4e487b71")
)

// wrapEVMExecutionError attaches a decoded revert reason, when the node
// returned one, to a typed error.
func wrapEVMExecutionError(code clierr.Code, message string, err error) error {
	if reason := decodeRevertFromError(err); reason != "" {
		return clierr.Wrap(code, fmt.Sprintf("%s: %s", message, reason), err)
	}
	return clierr.Wrap(code, message, err)
}

func decodeRevertFromError(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}
	switch data := dataErr.ErrorData().(type) {
	case string:
		return decodeRevertData(common.FromHex(data))
	case []byte:
		return decodeRevertData(data)
	default:
		return ""
	}
}

func decodeRevertData(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	switch {
	case bytes.Equal(data[:4], errorStringSelector):
		if reason, err := abi.UnpackRevert(data); err == nil {
			return strings.TrimSpace(reason)
		}
	case bytes.Equal(data[:4], panicSelector):
		if reason, err := abi.UnpackRevert(data); err == nil {
			return reason
		}
	}
	return fmt.Sprintf("custom error 0x%x", data[:4])
}

func normalizeTxHash(raw string) (common.Hash, bool) {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "0x") || len(clean) != 66 {
		return common.Hash{}, false
	}
	if _, err := common.ParseHexOrString(clean); err != nil {
		return common.Hash{}, false
	}
	return common.HexToHash(clean), true
}
