package execution

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
)

type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type ReceiptOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func DefaultReceiptOptions() ReceiptOptions {
	return ReceiptOptions{PollInterval: 2 * time.Second, Timeout: 2 * time.Minute}
}

// WaitReceipt polls until the receipt exists or the timeout elapses. Lookup
// errors other than not-found are treated as transient.
func WaitReceipt(ctx context.Context, reader ReceiptReader, hash common.Hash, opts ReceiptOptions) (*types.Receipt, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := reader.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		select {
		case <-waitCtx.Done():
			return nil, clierr.Wrap(clierr.CodeTxTimeout, "timed out waiting for receipt", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// Refresh moves a submitted action to confirmed or failed from its receipt.
// Without wait a missing receipt leaves the action untouched.
func Refresh(ctx context.Context, reader ReceiptReader, action *Action, wait bool, opts ReceiptOptions) error {
	if action == nil {
		return clierr.New(clierr.CodeInternal, "missing action")
	}
	if action.Terminal() {
		return nil
	}
	hash, ok := normalizeTxHash(action.TxHash)
	if !ok {
		return clierr.New(clierr.CodeUsage, "action has no valid transaction hash")
	}

	var (
		receipt *types.Receipt
		err     error
	)
	if wait {
		receipt, err = WaitReceipt(ctx, reader, hash, opts)
	} else {
		receipt, err = reader.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return nil
		}
	}
	if err != nil {
		if _, typed := clierr.As(err); typed {
			return err
		}
		return clierr.Wrap(clierr.CodeUnavailable, "fetch receipt", err)
	}
	applyReceipt(action, receipt)
	return nil
}

func applyReceipt(action *Action, receipt *types.Receipt) {
	if receipt.BlockNumber != nil {
		action.BlockNumber = receipt.BlockNumber.Uint64()
	}
	action.GasUsed = receipt.GasUsed
	if receipt.Status == types.ReceiptStatusSuccessful {
		action.Status = ActionStatusConfirmed
		action.Error = ""
	} else {
		action.Status = ActionStatusFailed
		action.Error = "transaction reverted on-chain"
	}
	action.Touch()
	action.ConfirmedAt = action.UpdatedAt
}
