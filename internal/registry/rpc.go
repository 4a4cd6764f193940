package registry

import (
	"fmt"
	"strings"
)

// Canonical default EVM RPC endpoints by chain ID.
// These values are used whenever a command does not pass --rpc-url.
var defaultRPCByChainID = map[int64]string{
	1:   "https://eth.llamarpc.com",
	25:  "https://evm.cronos.org",
	97:  "https://data-seed-prebsc-1-s1.binance.org:8545",
	338: "https://evm-t3.cronos.org",
}

func DefaultRPCURL(chainID int64) (string, bool) {
	value, ok := defaultRPCByChainID[chainID]
	return value, ok
}

func ResolveRPCURL(override string, chainID int64) (string, error) {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override), nil
	}
	if value, ok := DefaultRPCURL(chainID); ok {
		return value, nil
	}
	return "", fmt.Errorf("no default rpc configured for chain id %d; provide --rpc-url", chainID)
}
