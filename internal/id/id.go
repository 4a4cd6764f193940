package id

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
)

var (
	eip155ChainPattern = regexp.MustCompile(`^eip155:[0-9]+$`)
	evmAddressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	eip155AssetPattern = regexp.MustCompile(`^eip155:[0-9]+/erc20:0x[0-9a-fA-F]{40}$`)
)

const (
	ChainIDEthereum      int64 = 1
	ChainIDCronos        int64 = 25
	ChainIDBSCTestnet    int64 = 97
	ChainIDCronosTestnet int64 = 338
)

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type Chain struct {
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	CAIP2         string         `json:"caip2"`
	EVMChainID    int64          `json:"evm_chain_id"`
	Native        NativeCurrency `json:"native_currency"`
	WrappedNative Token          `json:"wrapped_native"`
	RPCURLs       []string       `json:"rpc_urls,omitempty"`
	ExplorerURL   string         `json:"explorer_url,omitempty"`
}

// HasWrappedNative reports whether a wrapped-native token is registered for the chain.
func (c Chain) HasWrappedNative() bool {
	return strings.TrimSpace(c.WrappedNative.Address) != ""
}

type Asset struct {
	ChainID  string
	AssetID  string
	Address  string
	Symbol   string
	Name     string
	Decimals int
	Native   bool
}

type Token struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

var (
	cronos = Chain{
		Name:          "Cronos",
		Slug:          "cronos",
		CAIP2:         "eip155:25",
		EVMChainID:    ChainIDCronos,
		Native:        NativeCurrency{Name: "Cro", Symbol: "CRO", Decimals: 18},
		WrappedNative: Token{Symbol: "WCRO", Name: "Wrapped CRO", Address: "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23", Decimals: 18},
		RPCURLs:       []string{"https://evm-cronos.crypto.org"},
		ExplorerURL:   "https://cronoscan.com",
	}
	cronosTestnet = Chain{
		Name:          "Cronos Testnet",
		Slug:          "cronos-testnet",
		CAIP2:         "eip155:338",
		EVMChainID:    ChainIDCronosTestnet,
		Native:        NativeCurrency{Name: "tCro", Symbol: "TCRO", Decimals: 18},
		WrappedNative: Token{Symbol: "WCRO", Name: "Wrapped CRO", Address: "0x6a3173618859C7cd40fAF6921b5E9eB6A76f1fD4", Decimals: 18},
		RPCURLs:       []string{"https://cronos-testnet-3.crypto.org:8545"},
		ExplorerURL:   "https://cronos.org/explorer/testnet3",
	}
	ethereum = Chain{
		Name:          "Ethereum",
		Slug:          "ethereum",
		CAIP2:         "eip155:1",
		EVMChainID:    ChainIDEthereum,
		Native:        NativeCurrency{Name: "Ethereum", Symbol: "ETH", Decimals: 18},
		WrappedNative: Token{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
		RPCURLs:       []string{"https://mainnet.infura.io/v3"},
		ExplorerURL:   "https://etherscan.com",
	}
	bscTestnet = Chain{
		Name:          "BSC Testnet",
		Slug:          "bsc-testnet",
		CAIP2:         "eip155:97",
		EVMChainID:    ChainIDBSCTestnet,
		Native:        NativeCurrency{Name: "tBNB", Symbol: "TBNB", Decimals: 18},
		WrappedNative: Token{Symbol: "WBNB", Name: "Wrapped BNB", Address: "0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd", Decimals: 18},
		RPCURLs:       []string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
		ExplorerURL:   "https://testnet.bscscan.com",
	}
)

var chainBySlug = map[string]Chain{
	"cronos":         cronos,
	"cro":            cronos,
	"cronos-mainnet": cronos,
	"cronos-testnet": cronosTestnet,
	"tcro":           cronosTestnet,
	"ethereum":       ethereum,
	"mainnet":        ethereum,
	"eth":            ethereum,
	"bsc-testnet":    bscTestnet,
}

var chainByID = map[int64]Chain{
	ChainIDEthereum:      ethereum,
	ChainIDCronos:        cronos,
	ChainIDBSCTestnet:    bscTestnet,
	ChainIDCronosTestnet: cronosTestnet,
}

// Small bootstrap registry used when token lists are unavailable.
var tokenRegistry = map[int64][]Token{
	ChainIDCronos: {
		{Symbol: "CRONA", Name: "CronaSwap Token", Address: "0xadbd1231fb360047525BEdF962581F3eee7b49fe", Decimals: 18},
		{Symbol: "WCRO", Name: "Wrapped CRO", Address: "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23", Decimals: 18},
		{Symbol: "USDC", Name: "USD Coin", Address: "0xc21223249CA28397B4B6541dfFaEcC539BfF0c59", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0x66e428c3f67a68878562e79A0234c1F83c208770", Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0xF2001B145b43032AAF5Ee2884e456CCd805F677D", Decimals: 18},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xe44Fd7fCb2b1581822D0c862B68222998a0c299a", Decimals: 18},
		{Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x062E66477Faf219F25D27dCED647BF57C3107d52", Decimals: 8},
	},
	ChainIDCronosTestnet: {
		{Symbol: "CRONA", Name: "CronaSwap Token", Address: "0x7Ac4564724c99e129F79dC000CA594B4631acA81", Decimals: 18},
		{Symbol: "WCRO", Name: "Wrapped CRO", Address: "0x6a3173618859C7cd40fAF6921b5E9eB6A76f1fD4", Decimals: 18},
	},
	ChainIDEthereum: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0xdac17f958d2ee523a2206206994597c13d831ec7", Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6b175474e89094c44da98b954eedeac495271d0f", Decimals: 18},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
	},
	ChainIDBSCTestnet: {
		{Symbol: "WBNB", Name: "Wrapped BNB", Address: "0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd", Decimals: 18},
	},
}

// SupportedChains returns the known chains ordered by chain id.
func SupportedChains() []Chain {
	ids := make([]int64, 0, len(chainByID))
	for chainID := range chainByID {
		ids = append(ids, chainID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Chain, 0, len(ids))
	for _, chainID := range ids {
		out = append(out, chainByID[chainID])
	}
	return out
}

func ChainByID(chainID int64) (Chain, bool) {
	chain, ok := chainByID[chainID]
	return chain, ok
}

func ParseChain(input string) (Chain, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Chain{}, clierr.New(clierr.CodeUsage, "chain is required")
	}
	norm := strings.ToLower(raw)

	if chain, ok := chainBySlug[norm]; ok {
		return chain, nil
	}

	if eip155ChainPattern.MatchString(norm) {
		parts := strings.Split(norm, ":")
		chainID, _ := strconv.ParseInt(parts[1], 10, 64)
		return chainForID(chainID), nil
	}

	if strings.HasPrefix(norm, "0x") {
		if chainID, err := strconv.ParseInt(strings.TrimPrefix(norm, "0x"), 16, 64); err == nil {
			return chainForID(chainID), nil
		}
	}

	if chainID, err := strconv.ParseInt(norm, 10, 64); err == nil {
		return chainForID(chainID), nil
	}

	return Chain{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("unsupported chain input: %s", input))
}

func chainForID(chainID int64) Chain {
	if known, ok := chainByID[chainID]; ok {
		return known
	}
	return Chain{
		Name:       fmt.Sprintf("EVM-%d", chainID),
		Slug:       fmt.Sprintf("evm-%d", chainID),
		CAIP2:      fmt.Sprintf("eip155:%d", chainID),
		EVMChainID: chainID,
		Native:     NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
	}
}

// IsAddress reports whether input is a 0x-prefixed 20-byte hex address.
func IsAddress(input string) bool {
	return evmAddressPattern.MatchString(strings.TrimSpace(input))
}

func ParseAsset(input string, chain Chain) (Asset, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Asset{}, clierr.New(clierr.CodeUsage, "asset is required")
	}

	if strings.EqualFold(raw, "native") || strings.EqualFold(raw, chain.Native.Symbol) {
		return Asset{
			ChainID:  chain.CAIP2,
			AssetID:  fmt.Sprintf("%s/slip44:native", chain.CAIP2),
			Symbol:   chain.Native.Symbol,
			Name:     chain.Native.Name,
			Decimals: chain.Native.Decimals,
			Native:   true,
		}, nil
	}

	if strings.Contains(raw, "/") {
		if !eip155AssetPattern.MatchString(raw) {
			return Asset{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid CAIP-19 asset format: %s", input))
		}
		parts := strings.SplitN(raw, "/", 2)
		if parts[0] != chain.CAIP2 {
			return Asset{}, clierr.New(clierr.CodeUsage, "asset chain does not match --chain")
		}
		address := strings.TrimPrefix(strings.ToLower(parts[1]), "erc20:")
		return assetFromAddress(chain, address), nil
	}

	if IsAddress(raw) {
		return assetFromAddress(chain, raw), nil
	}

	matches := findTokensBySymbol(chain.EVMChainID, raw)
	if len(matches) == 0 {
		return Asset{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("symbol %s not found in registry for chain %s", input, chain.CAIP2))
	}
	if len(matches) > 1 {
		addresses := make([]string, 0, len(matches))
		for _, m := range matches {
			addresses = append(addresses, m.Address)
		}
		sort.Strings(addresses)
		return Asset{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("symbol %s is ambiguous on chain %s, use address or CAIP-19 (%s)", input, chain.CAIP2, strings.Join(addresses, ", ")))
	}
	t := matches[0]
	return Asset{
		ChainID:  chain.CAIP2,
		AssetID:  CanonicalAssetID(chain.CAIP2, t.Address),
		Address:  NormalizeAddress(t.Address),
		Symbol:   strings.ToUpper(t.Symbol),
		Name:     t.Name,
		Decimals: t.Decimals,
	}, nil
}

func assetFromAddress(chain Chain, address string) Asset {
	addr := NormalizeAddress(address)
	token, _ := LookupByAddress(chain.EVMChainID, addr)
	return Asset{
		ChainID:  chain.CAIP2,
		AssetID:  CanonicalAssetID(chain.CAIP2, addr),
		Address:  addr,
		Symbol:   token.Symbol,
		Name:     token.Name,
		Decimals: token.Decimals,
	}
}

func CanonicalAssetID(chainID, address string) string {
	return fmt.Sprintf("%s/erc20:%s", chainID, NormalizeAddress(address))
}

// NormalizeAddress lower-cases and trims an EVM address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func findTokensBySymbol(chainID int64, symbol string) []Token {
	matches := []Token{}
	for _, t := range tokenRegistry[chainID] {
		if strings.EqualFold(t.Symbol, symbol) {
			matches = append(matches, Token{
				Symbol:   strings.ToUpper(t.Symbol),
				Name:     t.Name,
				Address:  NormalizeAddress(t.Address),
				Decimals: t.Decimals,
			})
		}
	}
	return matches
}

// RegistryTokens returns the bootstrap tokens for a chain.
func RegistryTokens(chainID int64) []Token {
	items := tokenRegistry[chainID]
	out := make([]Token, len(items))
	copy(out, items)
	return out
}

func LookupByAddress(chainID int64, address string) (Token, bool) {
	for _, t := range tokenRegistry[chainID] {
		if strings.EqualFold(t.Address, strings.TrimSpace(address)) {
			return Token{
				Symbol:   strings.ToUpper(t.Symbol),
				Name:     t.Name,
				Address:  NormalizeAddress(t.Address),
				Decimals: t.Decimals,
			}, true
		}
	}
	return Token{}, false
}
