package execution

import (
	"context"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/wrap"
)

// Tracker records submitted wrap transactions in a Store. It implements
// wrap.Recorder.
type Tracker struct {
	store    *Store
	chain    id.Chain
	actionID string
	last     *Action
}

func NewTracker(store *Store, chain id.Chain) *Tracker {
	return &Tracker{store: store, chain: chain, actionID: NewActionID()}
}

func (t *Tracker) ActionID() string { return t.actionID }

// Last returns the most recently recorded action, if any.
func (t *Tracker) Last() (Action, bool) {
	if t.last == nil {
		return Action{}, false
	}
	return *t.last, true
}

func (t *Tracker) Record(_ context.Context, tx wrap.Tx, summary string) error {
	action := NewAction(t.actionID, ActionKind(tx.Kind), t.chain)
	action.Status = ActionStatusSubmitted
	action.Summary = summary
	action.FromAddress = tx.From.Hex()
	action.Target = tx.To.Hex()
	if tx.Amount != nil {
		action.AmountBase = tx.Amount.String()
		action.AmountDecimal = id.FormatUnits(tx.Amount.String(), tx.Decimals)
	}
	action.TxHash = tx.Hash.Hex()
	action.ExplorerURL = ExplorerTxURL(t.chain, action.TxHash)
	t.last = &action
	if t.store == nil {
		return nil
	}
	return t.store.Save(action)
}
