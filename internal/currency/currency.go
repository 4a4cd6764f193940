// Package currency defines the value types shared by search and wrap logic.
package currency

import (
	"fmt"
	"strings"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

// Currency is either a chain's native asset or an ERC20 token. It is a value
// type and must not be mutated after construction.
type Currency struct {
	ChainID  int64  `json:"chain_id"`
	Address  string `json:"address,omitempty"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	Native   bool   `json:"native"`
}

// Native returns the native currency of chain.
func Native(chain id.Chain) Currency {
	return Currency{
		ChainID:  chain.EVMChainID,
		Symbol:   chain.Native.Symbol,
		Name:     chain.Native.Name,
		Decimals: chain.Native.Decimals,
		Native:   true,
	}
}

// WrappedNative returns the wrapped-native token of chain, if one is known.
func WrappedNative(chain id.Chain) (Currency, bool) {
	if !chain.HasWrappedNative() {
		return Currency{}, false
	}
	return FromToken(chain.EVMChainID, chain.WrappedNative), true
}

func FromToken(chainID int64, t id.Token) Currency {
	return Token(chainID, t.Address, t.Symbol, t.Name, t.Decimals)
}

func Token(chainID int64, address, symbol, name string, decimals int) Currency {
	return Currency{
		ChainID:  chainID,
		Address:  id.NormalizeAddress(address),
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}
}

// Equals compares native currencies by chain and tokens by chain and address.
func (c Currency) Equals(other Currency) bool {
	if c.Native || other.Native {
		return c.Native && other.Native && c.ChainID == other.ChainID
	}
	return c.ChainID == other.ChainID && strings.EqualFold(c.Address, other.Address)
}

// Key is a stable map key for the currency.
func (c Currency) Key() string {
	if c.Native {
		return fmt.Sprintf("%d/native", c.ChainID)
	}
	return fmt.Sprintf("%d/%s", c.ChainID, strings.ToLower(c.Address))
}

func (c Currency) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if c.Native {
		return "native"
	}
	return c.Address
}

// Universe maps lower-cased token addresses to currencies for one chain. It is
// treated as a read-only snapshot.
type Universe map[string]Currency

func NewUniverse(items ...Currency) Universe {
	u := make(Universe, len(items))
	for _, item := range items {
		u.Add(item)
	}
	return u
}

// Add inserts c unless an entry with the same key exists. Native entries are
// keyed by the literal "native".
func (u Universe) Add(c Currency) bool {
	key := universeKey(c)
	if _, ok := u[key]; ok {
		return false
	}
	u[key] = c
	return true
}

func (u Universe) Get(address string) (Currency, bool) {
	c, ok := u[id.NormalizeAddress(address)]
	return c, ok
}

func (u Universe) HasNative() bool {
	for _, c := range u {
		if c.Native {
			return true
		}
	}
	return false
}

func universeKey(c Currency) string {
	if c.Native {
		return "native"
	}
	return id.NormalizeAddress(c.Address)
}
