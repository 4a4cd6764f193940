package execution

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var signerNonceLocks sync.Map

// acquireSignerNonceLock serialises nonce assignment per chain and signer
// within this process.
func acquireSignerNonceLock(chainID *big.Int, address common.Address) func() {
	key := fmt.Sprintf("%s/%s", chainID.String(), address.Hex())
	value, _ := signerNonceLocks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
