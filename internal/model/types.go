package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Command   string         `json:"command"`
	Sources   []SourceStatus `json:"sources,omitempty"`
	Cache     CacheStatus    `json:"cache"`
	Partial   bool           `json:"partial"`
}

// SourceStatus describes one upstream a command consulted: a token list URL
// or an RPC endpoint.
type SourceStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type CurrencyView struct {
	ChainID        int64  `json:"chain_id"`
	AssetID        string `json:"asset_id"`
	Address        string `json:"address,omitempty"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Decimals       int    `json:"decimals"`
	Native         bool   `json:"native"`
	BalanceDecimal string `json:"balance_decimal,omitempty"`
}

type TokenSearchResult struct {
	Chain         string         `json:"chain"`
	Query         string         `json:"query"`
	Results       []CurrencyView `json:"results"`
	Import        *CurrencyView  `json:"import,omitempty"`
	Inactive      []CurrencyView `json:"inactive,omitempty"`
	NeedsInactive bool           `json:"needs_inactive"`
	Selected      *CurrencyView  `json:"selected,omitempty"`
}

type TokenListInfo struct {
	URL     string `json:"url"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Tokens  int    `json:"tokens"`
	Active  bool   `json:"active"`
	Source  string `json:"source,omitempty"`
	Stale   bool   `json:"stale"`
	Error   string `json:"error,omitempty"`
}

type AddedTokenView struct {
	CurrencyView
	AddedAt time.Time `json:"added_at"`
}

type WrapQuote struct {
	Chain          string       `json:"chain"`
	Kind           string       `json:"kind"`
	Input          CurrencyView `json:"input"`
	Output         CurrencyView `json:"output"`
	AmountBase     string       `json:"amount_base,omitempty"`
	AmountDecimal  string       `json:"amount_decimal,omitempty"`
	BalanceDecimal string       `json:"balance_decimal,omitempty"`
	MaxSpend       string       `json:"max_spend_decimal,omitempty"`
	InputError     string       `json:"input_error,omitempty"`
	Executable     bool         `json:"executable"`
	Summary        string       `json:"summary,omitempty"`
}

type WrapRunResult struct {
	Quote    WrapQuote `json:"quote"`
	ActionID string    `json:"action_id,omitempty"`
	TxHash   string    `json:"tx_hash,omitempty"`
	Explorer string    `json:"explorer_url,omitempty"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

type NetworkView struct {
	ChainID     int64  `json:"chain_id"`
	HexChainID  string `json:"hex_chain_id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Native      string `json:"native_symbol"`
	Wrapped     string `json:"wrapped_symbol,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	RPCURL      string `json:"rpc_url,omitempty"`
}

type NetworkSwitch struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Required bool   `json:"required"`
	Method   string `json:"method,omitempty"`
	Params   any    `json:"params,omitempty"`
}

type SettingsView struct {
	SlippagePct     string   `json:"slippage_pct"`
	DeadlineMinutes int      `json:"deadline_minutes"`
	ExpertMode      bool     `json:"expert_mode"`
	SingleHopOnly   bool     `json:"single_hop_only"`
	Warnings        []string `json:"warnings,omitempty"`
}

type PriceImpactView struct {
	InputPct  string `json:"input_pct"`
	Formatted string `json:"formatted"`
	Severity  int    `json:"severity"`
	Level     string `json:"level"`
	Blocked   bool   `json:"blocked"`
}

type LinkView struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Action    string `json:"action,omitempty"`
	NewWindow bool   `json:"new_window,omitempty"`
}

type WalletInfo struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	Argent  bool   `json:"argent"`
}
