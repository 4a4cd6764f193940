package app

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/chain"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
)

// resolveChain parses chainArg, falling back to the configured default chain.
func (s *runtimeState) resolveChain(chainArg string) (id.Chain, error) {
	if strings.TrimSpace(chainArg) == "" {
		chainArg = s.settings.DefaultChain
	}
	return id.ParseChain(chainArg)
}

func resolveCurrency(c id.Chain, assetArg string) (currency.Currency, error) {
	asset, err := id.ParseAsset(assetArg, c)
	if err != nil {
		return currency.Currency{}, err
	}
	if asset.Native {
		return currency.Native(c), nil
	}
	return currency.Token(c.EVMChainID, asset.Address, asset.Symbol, asset.Name, asset.Decimals), nil
}

func currencyView(c currency.Currency, caip2 string, balance *big.Int) model.CurrencyView {
	view := model.CurrencyView{
		ChainID:  c.ChainID,
		Address:  c.Address,
		Symbol:   c.Symbol,
		Name:     c.Name,
		Decimals: c.Decimals,
		Native:   c.Native,
	}
	if c.Native {
		view.AssetID = caip2 + "/slip44:native"
	} else {
		view.AssetID = id.CanonicalAssetID(caip2, c.Address)
	}
	if balance != nil {
		view.BalanceDecimal = id.FormatUnits(balance.String(), c.Decimals)
	}
	return view
}

func currencyViews(list []currency.Currency, caip2 string, balances map[string]*big.Int) []model.CurrencyView {
	out := make([]model.CurrencyView, 0, len(list))
	for _, c := range list {
		out = append(out, currencyView(c, caip2, balances[c.Key()]))
	}
	return out
}

func (s *runtimeState) dialChain(ctx context.Context, c id.Chain, rpcOverride string) (*ethclient.Client, string, error) {
	rpcURL := strings.TrimSpace(rpcOverride)
	if rpcURL == "" {
		var err error
		rpcURL, err = s.settings.RPCURL(c.EVMChainID)
		if err != nil {
			return nil, "", clierr.Wrap(clierr.CodeUsage, "resolve rpc url", err)
		}
	}
	client, err := chain.Dial(ctx, rpcURL)
	if err != nil {
		return nil, "", err
	}
	return client, rpcURL, nil
}

func (s *runtimeState) newReader(ctx context.Context, c id.Chain, rpcOverride string) (*chain.Reader, func(), error) {
	client, _, err := s.dialChain(ctx, c, rpcOverride)
	if err != nil {
		return nil, nil, err
	}
	return chain.NewReader(client, c, s.settings.RPCRateLimit, s.logger), client.Close, nil
}

func parseAddressFlag(flag, value string) (common.Address, error) {
	v := strings.TrimSpace(value)
	if !id.IsAddress(v) {
		return common.Address{}, clierr.Newf(clierr.CodeUsage, "--%s must be a 0x-prefixed 20-byte address", flag)
	}
	return common.HexToAddress(v), nil
}

func rpcSourceName(c id.Chain) string {
	return "rpc:" + c.Slug
}
