// Package networks lists the networks a wallet can be asked to switch to and
// builds the matching EIP-3326 / EIP-3085 request.
package networks

import (
	"fmt"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

type Method string

const (
	MethodSwitchChain Method = "wallet_switchEthereumChain"
	MethodAddChain    Method = "wallet_addEthereumChain"
)

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Params is the EIP-3085 chain description. Only ChainID is sent for a switch.
type Params struct {
	ChainID           string          `json:"chainId"`
	ChainName         string          `json:"chainName,omitempty"`
	NativeCurrency    *NativeCurrency `json:"nativeCurrency,omitempty"`
	RPCURLs           []string        `json:"rpcUrls,omitempty"`
	BlockExplorerURLs []string        `json:"blockExplorerUrls,omitempty"`
}

type Network struct {
	ChainID int64  `json:"chain_id"`
	Slug    string `json:"slug"`
	Params  Params `json:"params"`
}

// Request is what a wallet provider receives.
type Request struct {
	Method Method   `json:"method"`
	Params []Params `json:"params"`
}

// HexChainID formats a chain id the way wallet RPC expects it.
func HexChainID(chainID int64) string {
	return fmt.Sprintf("0x%x", chainID)
}

// List returns the supported networks ordered by chain id.
func List() []Network {
	chains := id.SupportedChains()
	out := make([]Network, 0, len(chains))
	for _, chain := range chains {
		out = append(out, fromChain(chain))
	}
	return out
}

func Find(chainID int64) (Network, bool) {
	chain, ok := id.ChainByID(chainID)
	if !ok {
		return Network{}, false
	}
	return fromChain(chain), true
}

func fromChain(chain id.Chain) Network {
	params := Params{
		ChainID:   HexChainID(chain.EVMChainID),
		ChainName: chain.Name,
		NativeCurrency: &NativeCurrency{
			Name:     chain.Native.Name,
			Symbol:   chain.Native.Symbol,
			Decimals: chain.Native.Decimals,
		},
		RPCURLs: append([]string(nil), chain.RPCURLs...),
	}
	if chain.ExplorerURL != "" {
		params.BlockExplorerURLs = []string{chain.ExplorerURL}
	}
	return Network{ChainID: chain.EVMChainID, Slug: chain.Slug, Params: params}
}

// SwitchRequest builds the request that moves a wallet from current to
// target. Wallets ship with Ethereum mainnet, so it is switched to directly;
// every other network is added (which also switches). It reports false when
// no request is needed.
func SwitchRequest(current, target int64) (Request, bool, error) {
	if current == target {
		return Request{}, false, nil
	}
	network, ok := Find(target)
	if !ok {
		return Request{}, false, fmt.Errorf("unsupported network %d", target)
	}
	if target == id.ChainIDEthereum {
		return Request{
			Method: MethodSwitchChain,
			Params: []Params{{ChainID: network.Params.ChainID}},
		}, true, nil
	}
	return Request{Method: MethodAddChain, Params: []Params{network.Params}}, true, nil
}
