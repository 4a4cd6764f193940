package execution

import (
	"path/filepath"
	"testing"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "actions.db"), filepath.Join(dir, "actions.lock"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveGetList(t *testing.T) {
	store := openTestStore(t)
	chain, _ := id.ChainByID(id.ChainIDCronos)

	action := NewAction(NewActionID(), ActionKindWrap, chain)
	action.Summary = "Wrap 1 CRO to WCRO"
	action.Status = ActionStatusSubmitted
	action.TxHash = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	if err := store.Save(action); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(action.ActionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Kind != ActionKindWrap || got.Summary != action.Summary {
		t.Fatalf("unexpected action: %+v", got)
	}

	byHash, err := store.GetByTxHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("GetByTxHash failed: %v", err)
	}
	if byHash.ActionID != action.ActionID {
		t.Fatalf("unexpected action for hash: %s", byHash.ActionID)
	}

	got.Status = ActionStatusConfirmed
	if err := store.Save(got); err != nil {
		t.Fatalf("Save update failed: %v", err)
	}
	confirmed, err := store.List(string(ActionStatusConfirmed), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(confirmed) != 1 {
		t.Fatalf("expected one confirmed action, got %d", len(confirmed))
	}
	submitted, err := store.List(string(ActionStatusSubmitted), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(submitted) != 0 {
		t.Fatalf("expected no submitted actions, got %d", len(submitted))
	}
}

func TestStoreGetMissingAction(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get("missing")
	if err == nil {
		t.Fatal("expected missing action error")
	}
	if typed, ok := clierr.As(err); !ok || typed.Code != clierr.CodeUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestExplorerTxURL(t *testing.T) {
	chain, _ := id.ChainByID(id.ChainIDCronos)
	if got := ExplorerTxURL(chain, "0xabc"); got != "https://cronoscan.com/tx/0xabc" {
		t.Fatalf("unexpected explorer url: %s", got)
	}
	unknown, _ := id.ParseChain("eip155:4242")
	if got := ExplorerTxURL(unknown, "0xabc"); got != "" {
		t.Fatalf("expected empty explorer url, got %s", got)
	}
}

func TestNewActionIDIsUnique(t *testing.T) {
	a, b := NewActionID(), NewActionID()
	if a == b || len(a) != len("act_")+32 {
		t.Fatalf("unexpected action ids: %s %s", a, b)
	}
}
