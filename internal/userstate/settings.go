package userstate

import (
	"github.com/shopspring/decimal"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
)

const (
	DefaultDeadlineMinutes = 30
	MaxDeadlineMinutes     = 180
)

var (
	DefaultSlippage = decimal.RequireFromString("0.5")
	MaxSlippage     = decimal.NewFromInt(50)

	lowSlippage  = decimal.RequireFromString("0.05")
	highSlippage = decimal.NewFromInt(1)
)

// Settings are the per-user transaction preferences. Slippage is in percent.
type Settings struct {
	Slippage        decimal.Decimal `json:"slippage_pct"`
	DeadlineMinutes int             `json:"deadline_minutes"`
	ExpertMode      bool            `json:"expert_mode"`
	SingleHopOnly   bool            `json:"single_hop_only"`
}

func DefaultSettings() Settings {
	return Settings{
		Slippage:        DefaultSlippage,
		DeadlineMinutes: DefaultDeadlineMinutes,
	}
}

func (s Settings) Validate() error {
	if s.Slippage.IsNegative() || s.Slippage.GreaterThan(MaxSlippage) {
		return clierr.Newf(clierr.CodeUsage, "slippage must be between 0%% and %s%%", MaxSlippage)
	}
	if s.DeadlineMinutes <= 0 || s.DeadlineMinutes > MaxDeadlineMinutes {
		return clierr.Newf(clierr.CodeUsage, "deadline must be between 1 and %d minutes", MaxDeadlineMinutes)
	}
	return nil
}

// Warnings lists advisory messages for settings that are valid but risky.
func (s Settings) Warnings() []string {
	var out []string
	switch {
	case s.Slippage.LessThan(lowSlippage):
		out = append(out, "Your transaction may fail")
	case s.Slippage.GreaterThan(highSlippage):
		out = append(out, "Your transaction may be frontrun")
	}
	if s.ExpertMode {
		out = append(out, "Expert mode allows high price impact trades and skips confirmation")
	}
	return out
}

// Patch holds optional updates; nil fields are left unchanged.
type Patch struct {
	Slippage        *decimal.Decimal
	DeadlineMinutes *int
	ExpertMode      *bool
	SingleHopOnly   *bool
}

func (s Settings) Apply(p Patch) Settings {
	if p.Slippage != nil {
		s.Slippage = *p.Slippage
	}
	if p.DeadlineMinutes != nil {
		s.DeadlineMinutes = *p.DeadlineMinutes
	}
	if p.ExpertMode != nil {
		s.ExpertMode = *p.ExpertMode
	}
	if p.SingleHopOnly != nil {
		s.SingleHopOnly = *p.SingleHopOnly
	}
	return s
}
