// Package signer loads the local key used to sign wrap and unwrap
// transactions.
package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Signer interface {
	Address() common.Address
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}

var _ Signer = (*LocalSigner)(nil)
