package errors

import (
	"fmt"
	"testing"
)

func TestExitCodeFromWrappedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeSigner, "missing signer"))
	if got := ExitCode(err); got != int(CodeSigner) {
		t.Fatalf("expected exit %d, got %d", CodeSigner, got)
	}
	if got := ExitCode(fmt.Errorf("plain")); got != int(CodeInternal) {
		t.Fatalf("expected internal exit for untyped error, got %d", got)
	}
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("expected success exit, got %d", got)
	}
}

func TestTypeName(t *testing.T) {
	cases := map[Code]string{
		CodeBlocked:     "command_blocked",
		CodeUnavailable: "upstream_unavailable",
		CodeTxTimeout:   "tx_timeout",
		CodeInternal:    "internal_error",
		Code(99):        "internal_error",
	}
	for code, want := range cases {
		if got := TypeName(code); got != want {
			t.Fatalf("TypeName(%d)=%s, want %s", code, got, want)
		}
	}
}

func TestIsAndNewf(t *testing.T) {
	err := Wrap(CodeUnavailable, "read balance", Newf(CodeRateLimited, "limited after %d calls", 3))
	if !Is(err, CodeUnavailable) || Is(err, CodeUsage) {
		t.Fatalf("unexpected Is result for %v", err)
	}
	if err.Error() != "read balance: limited after 3 calls" {
		t.Fatalf("unexpected message: %s", err)
	}
}
