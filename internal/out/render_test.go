package out

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/config"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
)

func init() {
	color.NoColor = true
}

func TestRenderJSONSelectResultsOnly(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"symbol": "CRONA", "decimals": 18}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"symbol"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["symbol"] != "CRONA" {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if _, ok := out[0]["decimals"]; ok {
		t.Fatalf("field projection failed: %s", buf.String())
	}
}

func TestRenderSelectNestedField(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data: model.WrapQuote{
			Kind:  "wrap",
			Input: model.CurrencyView{Symbol: "CRO", Native: true},
		},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"kind", "input.symbol"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if out["kind"] != "wrap" || out["input.symbol"] != "CRO" || len(out) != 2 {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestRenderPlain(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"symbol": "WCRO", "decimals": 18}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "decimals=18 symbol=WCRO" {
		t.Fatalf("unexpected plain output: %q", buf.String())
	}
}

func TestRenderPlainEnvelopeWithErrorAndWarnings(t *testing.T) {
	env := model.Envelope{
		Version:  "v1",
		Success:  false,
		Error:    &model.ErrorBody{Code: 2, Type: "usage_error", Message: "missing --chain"},
		Warnings: []string{"token list stale"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, config.Settings{OutputMode: "plain"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "error: missing --chain (usage_error, code 2)") || !strings.Contains(got, "warning: token list stale") {
		t.Fatalf("unexpected plain output: %q", got)
	}
}
