package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/tokenlist"
)

const (
	addrFoo    = "0x1111111111111111111111111111111111111111"
	addrHidden = "0x2222222222222222222222222222222222222222"
	wcroCronos = "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23"
)

func init() {
	color.NoColor = true
}

type testEnvelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Warnings []string        `json:"warnings"`
	Error    *struct {
		Code    int    `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Command string `json:"command"`
		Partial bool   `json:"partial"`
		Sources []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"sources"`
	} `json:"meta"`
}

// isolateRunner points every store at a temp dir and serves token lists from
// an httptest server.
func isolateRunner(t *testing.T) *httptest.Server {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	t.Setenv("CRONA_ENV_FILE", "")
	t.Setenv("CRONA_CHAIN", "")
	t.Setenv("CRONA_OUTPUT", "")
	t.Setenv("CRONA_RPC_URLS", "")
	// Keep stderr limited to the error envelope.
	t.Setenv("CRONA_LOG_LEVEL", "crit")

	lists := map[string]tokenlist.List{
		"/active.json": {
			Name:    "Crona Default",
			Version: tokenlist.Version{Major: 1, Minor: 2},
			Tokens: []tokenlist.TokenInfo{
				{ChainID: 25, Address: addrFoo, Symbol: "FOO", Name: "Foo Token", Decimals: 18},
			},
		},
		"/inactive.json": {
			Name:    "Extended",
			Version: tokenlist.Version{Major: 3},
			Tokens: []tokenlist.TokenInfo{
				{ChainID: 25, Address: addrHidden, Symbol: "HID", Name: "Hidden Token", Decimals: 6},
			},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, ok := lists[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CRONA_TOKEN_LISTS", srv.URL+"/active.json")
	t.Setenv("CRONA_INACTIVE_TOKEN_LISTS", srv.URL+"/inactive.json")
	return srv
}

func run(t *testing.T, args ...string) (int, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := NewRunnerWithWriters(&stdout, &stderr).Run(args)
	return code, &stdout, &stderr
}

func decodeEnvelope(t *testing.T, buf *bytes.Buffer) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v output=%s", err, buf.String())
	}
	return env
}

func TestTrimRootPath(t *testing.T) {
	if got := trimRootPath("crona tokens search"); got != "tokens search" {
		t.Fatalf("unexpected trim result: %s", got)
	}
}

func TestSplitCSV(t *testing.T) {
	items := splitCSV("Tokens, wrap quote ,")
	if len(items) != 2 || items[0] != "tokens" || items[1] != "wrap quote" {
		t.Fatalf("unexpected split: %#v", items)
	}
}

func TestShouldOpenStores(t *testing.T) {
	cases := []struct {
		path                  string
		cache, actions, state bool
	}{
		{"tokens search", true, false, true},
		{"tokens lists", true, false, false},
		{"tokens added", false, false, true},
		{"wrap quote", false, false, false},
		{"wrap run", false, true, false},
		{"tx status", false, true, false},
		{"settings show", false, false, true},
		{"trade impact", false, false, true},
		{"networks list", false, false, false},
	}
	for _, tc := range cases {
		if got := shouldOpenCache(tc.path); got != tc.cache {
			t.Fatalf("shouldOpenCache(%q)=%v", tc.path, got)
		}
		if got := shouldOpenActionStore(tc.path); got != tc.actions {
			t.Fatalf("shouldOpenActionStore(%q)=%v", tc.path, got)
		}
		if got := shouldOpenStateStore(tc.path); got != tc.state {
			t.Fatalf("shouldOpenStateStore(%q)=%v", tc.path, got)
		}
	}
}

func TestRunnerVersion(t *testing.T) {
	code, stdout, stderr := run(t, "version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) == "" {
		t.Fatal("expected version output")
	}
}

func TestRunnerSchemaMarksMutatingCommands(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "schema", "wrap", "run", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out struct {
		Path     string `json:"path"`
		Mutating bool   `json:"mutating"`
		Flags    []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
		} `json:"flags"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("parse schema: %v output=%s", err, stdout.String())
	}
	if !out.Mutating {
		t.Fatalf("expected wrap run to be mutating: %+v", out)
	}
	required := map[string]bool{}
	for _, f := range out.Flags {
		required[f.Name] = f.Required
	}
	if !required["from-asset"] || !required["to-asset"] || required["amount-decimal"] {
		t.Fatalf("unexpected required flags: %v", required)
	}
}

func TestRunnerErrorEnvelopeIgnoresResultsOnly(t *testing.T) {
	isolateRunner(t)
	code, _, stderr := run(t, "networks", "list", "--enable-commands", "tokens", "--results-only")
	if code != 16 {
		t.Fatalf("expected exit 16, got %d stderr=%s", code, stderr.String())
	}
	env := decodeEnvelope(t, stderr)
	if env.Success || env.Error == nil || env.Error.Type != "command_blocked" {
		t.Fatalf("unexpected error envelope: %s", stderr.String())
	}
}

func TestRunnerPolicyAllowsCommandGroups(t *testing.T) {
	isolateRunner(t)
	code, _, stderr := run(t, "links", "list", "--enable-commands", "links,tokens")
	if code != 0 {
		t.Fatalf("expected group allowlist to pass, got %d stderr=%s", code, stderr.String())
	}
}

func TestRunnerTokensSearchUsesActiveLists(t *testing.T) {
	srv := isolateRunner(t)
	code, stdout, stderr := run(t, "tokens", "search", "--query", "foo")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	env := decodeEnvelope(t, stdout)
	var data struct {
		Results []struct {
			Symbol  string `json:"symbol"`
			AssetID string `json:"asset_id"`
		} `json:"results"`
		Selected *struct {
			Symbol string `json:"symbol"`
		} `json:"selected"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("parse data: %v", err)
	}
	if len(data.Results) != 1 || data.Results[0].Symbol != "FOO" {
		t.Fatalf("unexpected results: %+v", data.Results)
	}
	if data.Selected == nil || data.Selected.Symbol != "FOO" {
		t.Fatalf("expected exact symbol match to be selected, got %+v", data.Selected)
	}
	if !strings.HasPrefix(data.Results[0].AssetID, "eip155:25/erc20:") {
		t.Fatalf("unexpected asset id %s", data.Results[0].AssetID)
	}
	if len(env.Meta.Sources) != 1 || env.Meta.Sources[0].Name != srv.URL+"/active.json" || env.Meta.Sources[0].Status != "ok" {
		t.Fatalf("unexpected sources: %+v", env.Meta.Sources)
	}
}

func TestRunnerTokensSearchInactiveLists(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "tokens", "search", "--query", "hid", "--inactive", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var data struct {
		Results       []json.RawMessage `json:"results"`
		NeedsInactive bool              `json:"needs_inactive"`
		Inactive      []struct {
			Symbol string `json:"symbol"`
		} `json:"inactive"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &data); err != nil {
		t.Fatalf("parse data: %v output=%s", err, stdout.String())
	}
	if len(data.Results) != 0 || !data.NeedsInactive {
		t.Fatalf("expected no active results, got %+v", data)
	}
	if len(data.Inactive) != 1 || data.Inactive[0].Symbol != "HID" {
		t.Fatalf("unexpected inactive results: %+v", data.Inactive)
	}
}

func TestRunnerTokensSearchStrictFailsOnMissingList(t *testing.T) {
	srv := isolateRunner(t)
	t.Setenv("CRONA_TOKEN_LISTS", srv.URL+"/active.json,"+srv.URL+"/missing.json")

	code, stdout, stderr := run(t, "tokens", "search", "--query", "foo")
	if code != 0 {
		t.Fatalf("expected non-strict search to succeed, got %d stderr=%s", code, stderr.String())
	}
	env := decodeEnvelope(t, stdout)
	if !env.Meta.Partial || len(env.Warnings) == 0 {
		t.Fatalf("expected partial result with warnings: %s", stdout.String())
	}

	code, _, stderr = run(t, "tokens", "search", "--query", "foo", "--strict")
	if code != 15 {
		t.Fatalf("expected exit 15, got %d stderr=%s", code, stderr.String())
	}
	env = decodeEnvelope(t, stderr)
	if len(env.Warnings) == 0 || len(env.Meta.Sources) != 2 {
		t.Fatalf("expected diagnostics on strict failure: %s", stderr.String())
	}
}

func TestRunnerTokensImportAddedRemove(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "tokens", "import", "--address", addrHidden, "--results-only")
	if code != 0 {
		t.Fatalf("import failed: %d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"symbol": "HID"`) {
		t.Fatalf("expected inactive list metadata, got %s", stdout.String())
	}

	code, stdout, stderr = run(t, "tokens", "search", "--query", "hid", "--results-only", "--select", "results")
	if code != 0 {
		t.Fatalf("search failed: %d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "HID") {
		t.Fatalf("expected imported token in active search, got %s", stdout.String())
	}

	code, stdout, _ = run(t, "tokens", "added", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), strings.ToLower(addrHidden)) {
		t.Fatalf("expected added token listed, got %s", stdout.String())
	}

	if code, _, stderr = run(t, "tokens", "remove", "--address", addrHidden); code != 0 {
		t.Fatalf("remove failed: %d stderr=%s", code, stderr.String())
	}
	if code, _, _ = run(t, "tokens", "remove", "--address", addrHidden); code != 2 {
		t.Fatalf("expected second remove to be a usage error, got %d", code)
	}
}

func TestRunnerTokensLists(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "tokens", "lists", "--chain", "cronos", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var infos []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Tokens  int    `json:"tokens"`
		Active  bool   `json:"active"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &infos); err != nil {
		t.Fatalf("parse lists: %v", err)
	}
	if len(infos) != 2 || !infos[0].Active || infos[1].Active {
		t.Fatalf("unexpected lists: %+v", infos)
	}
	if infos[0].Version != "1.2.0" || infos[0].Tokens != 1 {
		t.Fatalf("unexpected active list info: %+v", infos[0])
	}
}

func TestRunnerWrapQuote(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "wrap", "quote", "--from-asset", "CRO", "--to-asset", wcroCronos, "--amount-decimal", "1.5", "--balance", "2", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var quote struct {
		Kind       string `json:"kind"`
		AmountBase string `json:"amount_base"`
		Executable bool   `json:"executable"`
		MaxSpend   string `json:"max_spend_decimal"`
		Summary    string `json:"summary"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &quote); err != nil {
		t.Fatalf("parse quote: %v", err)
	}
	if quote.Kind != "wrap" || !quote.Executable || quote.AmountBase != "1500000000000000000" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if quote.MaxSpend != "1.99" || quote.Summary != "Wrap 1.5 CRO to WCRO" {
		t.Fatalf("unexpected quote details: %+v", quote)
	}

	code, stdout, _ = run(t, "wrap", "quote", "--from-asset", "CRO", "--to-asset", wcroCronos, "--amount-decimal", "2", "--balance", "2", "--results-only")
	if err := json.Unmarshal(stdout.Bytes(), &quote); err != nil {
		t.Fatalf("parse quote: %v", err)
	}
	if code != 0 || quote.Executable || !strings.Contains(stdout.String(), "Insufficient CRO balance") {
		t.Fatalf("expected the gas reserve to block a full-balance wrap, got %s", stdout.String())
	}

	code, stdout, _ = run(t, "wrap", "quote", "--from-asset", wcroCronos, "--to-asset", "CRO", "--amount-decimal", "2", "--balance", "2", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), `"executable": true`) {
		t.Fatalf("expected a full-balance unwrap to be executable, got %s", stdout.String())
	}

	code, stdout, _ = run(t, "wrap", "quote", "--from-asset", wcroCronos, "--to-asset", "CRO", "--amount-decimal", "3", "--balance", "2", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), "Insufficient WCRO balance") {
		t.Fatalf("expected insufficient balance error, got %s", stdout.String())
	}

	code, _, stderr = run(t, "wrap", "quote", "--from-asset", "CRO", "--to-asset", wcroCronos, "--amount-decimal", "1", "--balance=-1")
	if code != 2 || !strings.Contains(stderr.String(), "--balance must be") {
		t.Fatalf("expected usage error for negative balance, got %d %s", code, stderr.String())
	}

	code, stdout, _ = run(t, "wrap", "quote", "--from-asset", "USDC", "--to-asset", "CRO")
	env := decodeEnvelope(t, stdout)
	if code != 0 || !strings.Contains(string(env.Data), "not_applicable") || len(env.Warnings) != 1 {
		t.Fatalf("expected not_applicable quote, got %s", stdout.String())
	}
}

func TestRunnerSettingsSetAndShow(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "settings", "set", "--slippage", "2%", "--deadline", "45")
	if code != 0 {
		t.Fatalf("set failed: %d stderr=%s", code, stderr.String())
	}
	env := decodeEnvelope(t, stdout)
	if len(env.Warnings) != 1 || env.Warnings[0] != "Your transaction may be frontrun" {
		t.Fatalf("unexpected warnings: %v", env.Warnings)
	}

	code, stdout, _ = run(t, "settings", "show", "--results-only")
	var view struct {
		Slippage string `json:"slippage_pct"`
		Deadline int    `json:"deadline_minutes"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &view); err != nil || code != 0 {
		t.Fatalf("show failed: %d %v", code, err)
	}
	if view.Slippage != "2" || view.Deadline != 45 {
		t.Fatalf("unexpected settings: %+v", view)
	}

	if code, _, _ = run(t, "settings", "set", "--slippage", "51"); code != 2 {
		t.Fatalf("expected out-of-range slippage to fail with 2, got %d", code)
	}
}

func TestRunnerTradeImpactUsesSavedExpertMode(t *testing.T) {
	isolateRunner(t)
	code, stdout, _ := run(t, "trade", "impact", "--pct", "20", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), `"blocked": true`) {
		t.Fatalf("expected blocked impact, got %s", stdout.String())
	}
	if code, _, _ = run(t, "settings", "set", "--expert-mode"); code != 0 {
		t.Fatalf("enable expert mode failed: %d", code)
	}
	code, stdout, _ = run(t, "trade", "impact", "--pct", "20", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), `"blocked": false`) || !strings.Contains(stdout.String(), `"formatted": "-20.00%"`) {
		t.Fatalf("expected expert mode to unblock, got %s", stdout.String())
	}
}

func TestRunnerNetworksSwitch(t *testing.T) {
	isolateRunner(t)
	code, stdout, stderr := run(t, "networks", "switch", "--chain", "cronos", "--current", "ethereum", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "wallet_addEthereumChain") || !strings.Contains(stdout.String(), `"chainId": "0x19"`) {
		t.Fatalf("unexpected switch request: %s", stdout.String())
	}
	code, stdout, _ = run(t, "networks", "switch", "--chain", "cronos", "--current", "cronos", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), `"required": false`) {
		t.Fatalf("expected no switch when already connected, got %s", stdout.String())
	}
}

func TestRunnerLinksOpen(t *testing.T) {
	isolateRunner(t)
	code, stdout, _ := run(t, "links", "open", "--name", "vesting", "--plain")
	if code != 0 || !strings.Contains(stdout.String(), "action=navigate") {
		t.Fatalf("unexpected internal link output: %s", stdout.String())
	}
	code, stdout, _ = run(t, "links", "open", "--name", "Docs", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), `"new_window": true`) {
		t.Fatalf("unexpected external link output: %s", stdout.String())
	}
	if code, _, _ = run(t, "links", "open", "--name", "nope"); code != 2 {
		t.Fatalf("expected unknown link to fail with 2, got %d", code)
	}
}
