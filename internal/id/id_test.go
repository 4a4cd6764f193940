package id

import "testing"

func TestParseChainVariants(t *testing.T) {
	chain, err := ParseChain("cronos")
	if err != nil {
		t.Fatalf("ParseChain(cronos) failed: %v", err)
	}
	if chain.CAIP2 != "eip155:25" || chain.Native.Symbol != "CRO" {
		t.Fatalf("unexpected chain: %+v", chain)
	}

	chain, err = ParseChain("338")
	if err != nil {
		t.Fatalf("ParseChain(338) failed: %v", err)
	}
	if chain.Slug != "cronos-testnet" {
		t.Fatalf("unexpected slug: %s", chain.Slug)
	}

	chain, err = ParseChain("0x61")
	if err != nil {
		t.Fatalf("ParseChain(0x61) failed: %v", err)
	}
	if chain.EVMChainID != ChainIDBSCTestnet {
		t.Fatalf("unexpected chain ID: %d", chain.EVMChainID)
	}

	chain, err = ParseChain("eip155:999999")
	if err != nil {
		t.Fatalf("ParseChain(eip155:999999) failed: %v", err)
	}
	if chain.EVMChainID != 999999 || chain.HasWrappedNative() {
		t.Fatalf("unexpected unknown chain: %+v", chain)
	}

	if _, err := ParseChain("narnia"); err == nil {
		t.Fatal("expected error for unknown slug")
	}
}

func TestSupportedChainsHaveWrappedNative(t *testing.T) {
	chains := SupportedChains()
	if len(chains) != 4 {
		t.Fatalf("expected 4 chains, got %d", len(chains))
	}
	for _, chain := range chains {
		if !chain.HasWrappedNative() {
			t.Fatalf("chain %s missing wrapped native", chain.Slug)
		}
		if chain.ExplorerURL == "" {
			t.Fatalf("chain %s missing explorer", chain.Slug)
		}
	}
}

func TestParseAssetSymbolAndAddress(t *testing.T) {
	chain, _ := ParseChain("cronos")

	asset, err := ParseAsset("USDC", chain)
	if err != nil {
		t.Fatalf("ParseAsset(USDC) failed: %v", err)
	}
	if asset.AssetID == "" || asset.Decimals != 6 {
		t.Fatalf("unexpected asset result: %+v", asset)
	}

	asset2, err := ParseAsset("0xADBD1231FB360047525BEDF962581F3EEE7B49FE", chain)
	if err != nil {
		t.Fatalf("ParseAsset(address) failed: %v", err)
	}
	if asset2.Symbol != "CRONA" {
		t.Fatalf("expected CRONA, got %s", asset2.Symbol)
	}

	native, err := ParseAsset("cro", chain)
	if err != nil {
		t.Fatalf("ParseAsset(cro) failed: %v", err)
	}
	if !native.Native || native.Decimals != 18 {
		t.Fatalf("expected native asset, got %+v", native)
	}
}

func TestParseAssetChainMismatch(t *testing.T) {
	chain, _ := ParseChain("cronos")
	_, err := ParseAsset("eip155:1/erc20:0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", chain)
	if err == nil {
		t.Fatal("expected chain mismatch error")
	}
}
