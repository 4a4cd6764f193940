// Package tokenlist fetches and validates token lists in the Uniswap token
// list format and turns them into currency universes.
package tokenlist

import (
	"fmt"
	"strings"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

const (
	maxTokensPerList = 10_000
	maxSymbolLength  = 20
	maxNameLength    = 60
)

type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

type TokenInfo struct {
	ChainID  int64    `json:"chainId"`
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals int      `json:"decimals"`
	LogoURI  string   `json:"logoURI,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type List struct {
	Name      string      `json:"name"`
	Timestamp string      `json:"timestamp"`
	Version   Version     `json:"version"`
	Tokens    []TokenInfo `json:"tokens"`
	LogoURI   string      `json:"logoURI,omitempty"`
	Keywords  []string    `json:"keywords,omitempty"`
}

// Validate performs the structural checks a list must pass before any of its
// tokens are trusted.
func Validate(list List) error {
	if strings.TrimSpace(list.Name) == "" {
		return fmt.Errorf("list name is required")
	}
	if list.Version.Major < 0 || list.Version.Minor < 0 || list.Version.Patch < 0 {
		return fmt.Errorf("list %q has a negative version", list.Name)
	}
	if len(list.Tokens) == 0 {
		return fmt.Errorf("list %q has no tokens", list.Name)
	}
	if len(list.Tokens) > maxTokensPerList {
		return fmt.Errorf("list %q has %d tokens, limit is %d", list.Name, len(list.Tokens), maxTokensPerList)
	}
	seen := make(map[string]struct{}, len(list.Tokens))
	for i, tok := range list.Tokens {
		if err := validateToken(tok); err != nil {
			return fmt.Errorf("list %q token %d: %w", list.Name, i, err)
		}
		key := fmt.Sprintf("%d/%s", tok.ChainID, id.NormalizeAddress(tok.Address))
		if _, dup := seen[key]; dup {
			return fmt.Errorf("list %q token %d: duplicate address %s on chain %d", list.Name, i, tok.Address, tok.ChainID)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func validateToken(tok TokenInfo) error {
	switch {
	case tok.ChainID <= 0:
		return fmt.Errorf("chainId must be positive")
	case !id.IsAddress(tok.Address):
		return fmt.Errorf("invalid address %q", tok.Address)
	case tok.Decimals < 0 || tok.Decimals > 255:
		return fmt.Errorf("decimals %d out of range", tok.Decimals)
	case strings.TrimSpace(tok.Symbol) == "" || len(tok.Symbol) > maxSymbolLength:
		return fmt.Errorf("invalid symbol %q", tok.Symbol)
	case len(tok.Name) > maxNameLength:
		return fmt.Errorf("name %q too long", tok.Name)
	}
	return nil
}

// Currencies returns the list's tokens for chainID.
func (l List) Currencies(chainID int64) []currency.Currency {
	out := make([]currency.Currency, 0, len(l.Tokens))
	for _, tok := range l.Tokens {
		if tok.ChainID != chainID {
			continue
		}
		out = append(out, currency.Token(tok.ChainID, tok.Address, strings.TrimSpace(tok.Symbol), strings.TrimSpace(tok.Name), tok.Decimals))
	}
	return out
}
