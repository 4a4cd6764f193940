package execution

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/wrap"
)

type testRPCDataError struct {
	msg  string
	data any
}

func (e testRPCDataError) Error() string { return e.msg }

func (e testRPCDataError) ErrorData() interface{} { return e.data }

type fakeBackend struct {
	mu        sync.Mutex
	chainID   int64
	baseFee   *big.Int
	callErr   error
	sent      []*types.Transaction
	receipts  map[common.Hash]*types.Receipt
	lastCall  ethereum.CallMsg
	nonce     uint64
	gas       uint64
	gasPrice  *big.Int
	sendError error
}

func newFakeBackend(chainID int64) *fakeBackend {
	return &fakeBackend{
		chainID:  chainID,
		baseFee:  big.NewInt(5_000_000_000),
		receipts: map[common.Hash]*types.Receipt{},
		nonce:    7,
		gas:      30_000,
		gasPrice: big.NewInt(5_000_000_000_000),
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = msg
	return nil, f.callErr
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.gas, nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendError != nil {
		return f.sendError
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

type staticSigner struct{}

func (staticSigner) Address() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000aa")
}

func (staticSigner) SignTx(_ *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	return tx, nil
}

func cronos(t *testing.T) id.Chain {
	t.Helper()
	chain, ok := id.ChainByID(id.ChainIDCronos)
	if !ok {
		t.Fatal("cronos chain missing")
	}
	return chain
}

func TestSubmitterDepositBuildsPayableCall(t *testing.T) {
	backend := newFakeBackend(25)
	sub, err := NewSubmitter(backend, staticSigner{}, cronos(t), DefaultSubmitOptions(), nil)
	if err != nil {
		t.Fatalf("NewSubmitter failed: %v", err)
	}
	amount := big.NewInt(1_000_000_000_000_000_000)
	tx, err := sub.Deposit(context.Background(), amount)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected one sent tx, got %d", len(backend.sent))
	}
	sent := backend.sent[0]
	if sent.Value().Cmp(amount) != 0 {
		t.Fatalf("expected value %s, got %s", amount, sent.Value())
	}
	if !strings.EqualFold(sent.To().Hex(), cronos(t).WrappedNative.Address) {
		t.Fatalf("unexpected target %s", sent.To().Hex())
	}
	if sent.Gas() != 36_000 {
		t.Fatalf("expected gas with multiplier, got %d", sent.Gas())
	}
	if sent.Nonce() != 7 || sent.Type() != types.DynamicFeeTxType {
		t.Fatalf("unexpected nonce/type: %d/%d", sent.Nonce(), sent.Type())
	}
	if tx.Kind != wrap.KindWrap || tx.Hash != sent.Hash() || tx.ChainID != 25 {
		t.Fatalf("unexpected tx handle: %+v", tx)
	}
}

func TestSubmitterWithdrawUsesLegacyWithoutBaseFee(t *testing.T) {
	backend := newFakeBackend(25)
	backend.baseFee = nil
	sub, err := NewSubmitter(backend, staticSigner{}, cronos(t), DefaultSubmitOptions(), nil)
	if err != nil {
		t.Fatalf("NewSubmitter failed: %v", err)
	}
	if _, err := sub.Withdraw(context.Background(), big.NewInt(42)); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	sent := backend.sent[0]
	if sent.Type() != types.LegacyTxType || sent.Value().Sign() != 0 {
		t.Fatalf("unexpected legacy tx: type=%d value=%s", sent.Type(), sent.Value())
	}
	if sent.GasPrice().Cmp(backend.gasPrice) != 0 {
		t.Fatalf("unexpected gas price %s", sent.GasPrice())
	}
}

func TestSubmitterRejectsChainMismatch(t *testing.T) {
	sub, err := NewSubmitter(newFakeBackend(1), staticSigner{}, cronos(t), DefaultSubmitOptions(), nil)
	if err != nil {
		t.Fatalf("NewSubmitter failed: %v", err)
	}
	_, err = sub.Deposit(context.Background(), big.NewInt(1))
	typed, ok := clierr.As(err)
	if !ok || typed.Code != clierr.CodeTxInvalid {
		t.Fatalf("expected action plan error, got %v", err)
	}
}

func TestSubmitterSimulationRevertIncludesReason(t *testing.T) {
	backend := newFakeBackend(25)
	backend.callErr = testRPCDataError{
		msg:  "execution reverted",
		data: "0x" + common.Bytes2Hex(encodeErrorString(t, "insufficient balance")),
	}
	sub, _ := NewSubmitter(backend, staticSigner{}, cronos(t), DefaultSubmitOptions(), nil)
	_, err := sub.Withdraw(context.Background(), big.NewInt(1))
	typed, ok := clierr.As(err)
	if !ok || typed.Code != clierr.CodeTxSimulation {
		t.Fatalf("expected simulation error, got %v", err)
	}
	if !strings.Contains(typed.Error(), "insufficient balance") {
		t.Fatalf("expected decoded reason, got %v", typed)
	}
	if len(backend.sent) != 0 {
		t.Fatal("did not expect a broadcast after failed simulation")
	}
}

func TestSubmitterRequiresWrappedNative(t *testing.T) {
	unknown, _ := id.ParseChain("eip155:4242")
	if _, err := NewSubmitter(newFakeBackend(4242), staticSigner{}, unknown, DefaultSubmitOptions(), nil); err == nil {
		t.Fatal("expected unsupported chain error")
	}
}

func TestPrepareRejectsNonPositiveAmount(t *testing.T) {
	sub, _ := NewSubmitter(newFakeBackend(25), staticSigner{}, cronos(t), DefaultSubmitOptions(), nil)
	if _, err := sub.Prepare(context.Background(), ActionKindWrap, big.NewInt(0)); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestDecodeRevertDataReasonString(t *testing.T) {
	reason := decodeRevertData(encodeErrorString(t, "slippage too high"))
	if reason != "slippage too high" {
		t.Fatalf("expected decoded revert reason, got %q", reason)
	}
}

func TestDecodeRevertDataCustomErrorSelector(t *testing.T) {
	reason := decodeRevertData(common.FromHex("0x12345678"))
	if !strings.Contains(reason, "0x12345678") {
		t.Fatalf("expected custom error selector in reason, got %q", reason)
	}
}

func TestWrapEVMExecutionErrorWithoutData(t *testing.T) {
	err := wrapEVMExecutionError(clierr.CodeUnavailable, "broadcast transaction", errors.New("nonce too low"))
	typed, ok := clierr.As(err)
	if !ok || typed.Code != clierr.CodeUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestNormalizeTxHash(t *testing.T) {
	validHash := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if _, ok := normalizeTxHash(validHash); !ok {
		t.Fatal("expected valid tx hash to parse")
	}
	if _, ok := normalizeTxHash("0x1234"); ok {
		t.Fatal("expected short tx hash to fail")
	}
}

func TestParseGwei(t *testing.T) {
	v, err := parseGwei("1.5")
	if err != nil || v.String() != "1500000000" {
		t.Fatalf("unexpected parse: %v %v", v, err)
	}
	if _, err := parseGwei("-1"); err == nil {
		t.Fatal("expected negative error")
	}
}

func TestAcquireSignerNonceLockSerializesSameSignerChain(t *testing.T) {
	unlock := acquireSignerNonceLock(big.NewInt(25), common.HexToAddress("0x00000000000000000000000000000000000000aa"))
	secondAcquired := make(chan struct{})
	go func() {
		unlockSecond := acquireSignerNonceLock(big.NewInt(25), common.HexToAddress("0x00000000000000000000000000000000000000aa"))
		close(secondAcquired)
		unlockSecond()
	}()

	select {
	case <-secondAcquired:
		t.Fatal("expected second lock attempt to block while first lock is held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-secondAcquired:
	case <-time.After(250 * time.Millisecond):
		t.Fatal("expected second lock attempt to acquire after unlock")
	}
}

func TestTrackerAndRefresh(t *testing.T) {
	store := openTestStore(t)
	backend := newFakeBackend(25)
	sub, _ := NewSubmitter(backend, staticSigner{}, cronos(t), DefaultSubmitOptions(), nil)
	tracker := NewTracker(store, cronos(t))

	wcro, cro := wrapPair(t)
	res := wrap.Classify(wrap.Request{
		Chain: cronos(t), Input: &wcro, Output: &cro,
		Typed: "1.5", Balance: big.NewInt(0).Mul(big.NewInt(2), big.NewInt(1_000_000_000_000_000_000)),
		Contract: sub, Recorder: tracker,
	})
	if res.Execute == nil {
		t.Fatalf("expected executable unwrap, got %+v", res)
	}
	out := res.Execute(context.Background())
	if out.Error != "" {
		t.Fatalf("unexpected execute error: %s", out.Error)
	}

	action, err := store.Get(tracker.ActionID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if action.Status != ActionStatusSubmitted || action.Kind != ActionKindUnwrap {
		t.Fatalf("unexpected tracked action: %+v", action)
	}
	if action.Summary != "Unwrap 1.5 WCRO to CRO" || action.AmountDecimal != "1.5" {
		t.Fatalf("unexpected summary/amount: %q %q", action.Summary, action.AmountDecimal)
	}
	if !strings.HasPrefix(action.ExplorerURL, "https://cronoscan.com/tx/0x") {
		t.Fatalf("unexpected explorer url: %s", action.ExplorerURL)
	}

	if err := Refresh(context.Background(), backend, &action, false, DefaultReceiptOptions()); err != nil {
		t.Fatalf("Refresh without receipt failed: %v", err)
	}
	if action.Status != ActionStatusSubmitted {
		t.Fatalf("expected still submitted, got %s", action.Status)
	}

	backend.receipts[out.Tx.Hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(101), GasUsed: 28_000}
	if err := Refresh(context.Background(), backend, &action, true, ReceiptOptions{PollInterval: 10 * time.Millisecond, Timeout: time.Second}); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if action.Status != ActionStatusConfirmed || action.BlockNumber != 101 {
		t.Fatalf("unexpected refreshed action: %+v", action)
	}
}

func TestTrackerUsesInputDecimals(t *testing.T) {
	store := openTestStore(t)
	tracker := NewTracker(store, cronos(t))
	tx := wrap.Tx{
		Hash:     common.HexToHash("0xabc"),
		ChainID:  25,
		Kind:     wrap.KindUnwrap,
		Amount:   big.NewInt(1_500_000),
		Decimals: 6,
	}
	if err := tracker.Record(context.Background(), tx, "Unwrap 1.5 WCRO to CRO"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	action, ok := tracker.Last()
	if !ok {
		t.Fatal("expected a recorded action")
	}
	if action.AmountBase != "1500000" || action.AmountDecimal != "1.5" {
		t.Fatalf("unexpected amounts: base=%s decimal=%s", action.AmountBase, action.AmountDecimal)
	}
}

func TestWaitReceiptTimesOut(t *testing.T) {
	_, err := WaitReceipt(context.Background(), newFakeBackend(25), common.HexToHash("0x01"), ReceiptOptions{PollInterval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond})
	typed, ok := clierr.As(err)
	if !ok || typed.Code != clierr.CodeTxTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func encodeErrorString(t *testing.T, reason string) []byte {
	t.Helper()
	stringTy, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("create abi string type: %v", err)
	}
	args := abi.Arguments{{Type: stringTy}}
	encoded, err := args.Pack(reason)
	if err != nil {
		t.Fatalf("pack revert reason: %v", err)
	}
	return append(common.FromHex("0x08c379a0"), encoded...)
}
