package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/execution"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// newRPCNode answers eth_getBalance with balanceHex and records every method.
func newRPCNode(t *testing.T, balanceHex string) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mu.Lock()
		methods = append(methods, req.Method)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "eth_getBalance":
			_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%q}`, rawID(req.ID), balanceHex)
		case "eth_chainId":
			_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x19"}`, rawID(req.ID))
		default:
			_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, rawID(req.ID))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), methods...)
	}
}

func rawID(reqID json.RawMessage) string {
	if len(reqID) == 0 {
		return "null"
	}
	return string(reqID)
}

func TestRunnerWrapQuoteReadsAccountBalance(t *testing.T) {
	isolateRunner(t)
	// 3 CRO
	node, methods := newRPCNode(t, "0x29a2241af62c0000")
	code, stdout, stderr := run(t, "wrap", "quote",
		"--from-asset", "CRO", "--to-asset", "WCRO", "--max",
		"--account", "0x00000000000000000000000000000000000000aa",
		"--rpc-url", node.URL)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	env := decodeEnvelope(t, stdout)
	var quote struct {
		AmountDecimal  string `json:"amount_decimal"`
		BalanceDecimal string `json:"balance_decimal"`
		Executable     bool   `json:"executable"`
	}
	if err := json.Unmarshal(env.Data, &quote); err != nil {
		t.Fatalf("parse quote: %v", err)
	}
	if quote.BalanceDecimal != "3" || quote.AmountDecimal != "2.99" || !quote.Executable {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if len(env.Meta.Sources) != 1 || env.Meta.Sources[0].Name != "rpc:cronos" || env.Meta.Sources[0].Status != "ok" {
		t.Fatalf("unexpected sources: %+v", env.Meta.Sources)
	}
	if got := methods(); len(got) != 1 || got[0] != "eth_getBalance" {
		t.Fatalf("unexpected rpc calls: %v", got)
	}
}

func TestRunnerWrapQuoteRejectsMaxWithAmount(t *testing.T) {
	isolateRunner(t)
	code, _, _ := run(t, "wrap", "quote", "--from-asset", "CRO", "--to-asset", "WCRO", "--max", "--amount-decimal", "1")
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunnerWalletArgentSkipsChainsWithoutDetector(t *testing.T) {
	isolateRunner(t)
	node, methods := newRPCNode(t, "0x0")
	code, stdout, stderr := run(t, "wallet", "argent", "--chain", "cronos",
		"--address", "0x00000000000000000000000000000000000000aa", "--rpc-url", node.URL, "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"argent": false`) {
		t.Fatalf("unexpected output: %s", stdout.String())
	}
	if got := methods(); len(got) != 0 {
		t.Fatalf("expected no rpc calls, got %v", got)
	}
}

func TestRunnerTxListAndStatus(t *testing.T) {
	isolateRunner(t)
	dir := t.TempDir()
	t.Setenv("CRONA_ACTIONS_PATH", filepath.Join(dir, "actions.db"))
	t.Setenv("CRONA_ACTIONS_LOCK_PATH", filepath.Join(dir, "actions.lock"))

	chain, ok := id.ChainByID(id.ChainIDCronos)
	if !ok {
		t.Fatal("cronos chain missing")
	}
	store, err := execution.OpenStore(filepath.Join(dir, "actions.db"), filepath.Join(dir, "actions.lock"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	action := execution.NewAction("act_confirmed", execution.ActionKindWrap, chain)
	action.Status = execution.ActionStatusConfirmed
	action.TxHash = "0x" + strings.Repeat("ab", 32)
	if err := store.Save(action); err != nil {
		t.Fatalf("save action: %v", err)
	}
	_ = store.Close()

	code, stdout, stderr := run(t, "tx", "list", "--status", "confirmed", "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), "act_confirmed") {
		t.Fatalf("unexpected list output: %d %s %s", code, stdout.String(), stderr.String())
	}

	// Terminal actions are returned without contacting the chain.
	code, stdout, stderr = run(t, "tx", "status", "--tx-hash", "0x"+strings.ToUpper(action.TxHash[2:]), "--results-only")
	if code != 0 || !strings.Contains(stdout.String(), `"status": "confirmed"`) {
		t.Fatalf("unexpected status output: %d %s %s", code, stdout.String(), stderr.String())
	}

	if code, _, _ = run(t, "tx", "status", "--action-id", "missing"); code != 2 {
		t.Fatalf("expected unknown action to fail with 2, got %d", code)
	}
	if code, _, _ = run(t, "tx", "list", "--status", "bogus"); code != 2 {
		t.Fatalf("expected invalid status to fail with 2, got %d", code)
	}
}
