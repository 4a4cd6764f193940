package execution

import (
	"fmt"
	"strings"
	"time"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

type ActionStatus string

type ActionKind string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusSubmitted ActionStatus = "submitted"
	ActionStatusConfirmed ActionStatus = "confirmed"
	ActionStatusFailed    ActionStatus = "failed"
)

const (
	ActionKindWrap   ActionKind = "wrap"
	ActionKindUnwrap ActionKind = "unwrap"
)

// Action is a tracked wrap or unwrap transaction.
type Action struct {
	ActionID      string       `json:"action_id"`
	Kind          ActionKind   `json:"kind"`
	Status        ActionStatus `json:"status"`
	ChainID       string       `json:"chain_id"`
	EVMChainID    int64        `json:"evm_chain_id"`
	FromAddress   string       `json:"from_address,omitempty"`
	Target        string       `json:"target,omitempty"`
	AmountBase    string       `json:"amount_base_units,omitempty"`
	AmountDecimal string       `json:"amount_decimal,omitempty"`
	Summary       string       `json:"summary"`
	TxHash        string       `json:"tx_hash,omitempty"`
	ExplorerURL   string       `json:"explorer_url,omitempty"`
	BlockNumber   uint64       `json:"block_number,omitempty"`
	GasUsed       uint64       `json:"gas_used,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
	ConfirmedAt   string       `json:"confirmed_at,omitempty"`
}

func NewAction(actionID string, kind ActionKind, chain id.Chain) Action {
	now := time.Now().UTC().Format(time.RFC3339)
	return Action{
		ActionID:   actionID,
		Kind:       kind,
		Status:     ActionStatusPending,
		ChainID:    chain.CAIP2,
		EVMChainID: chain.EVMChainID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (a *Action) Touch() {
	a.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// Terminal reports whether the action will not change status again.
func (a Action) Terminal() bool {
	return a.Status == ActionStatusConfirmed || a.Status == ActionStatusFailed
}

// ExplorerTxURL links a transaction hash on the chain's block explorer.
func ExplorerTxURL(chain id.Chain, txHash string) string {
	base := strings.TrimRight(strings.TrimSpace(chain.ExplorerURL), "/")
	if base == "" || strings.TrimSpace(txHash) == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", base, txHash)
}
