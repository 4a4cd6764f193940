// Package nav describes the interface's menu links.
package nav

import (
	"strings"
)

type Kind string

const (
	KindExternal Kind = "external"
	KindInternal Kind = "internal"
)

type Item struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Target string `json:"target"`
}

// Destination is what a client does with a selected item.
type Destination struct {
	Action string `json:"action"`
	Target string `json:"target"`
	// NewWindow is set for external links, which open with noopener.
	NewWindow bool `json:"new_window"`
}

var items = []Item{
	{Name: "Docs", Kind: KindExternal, Target: "https://docs.cronaswap.org"},
	{Name: "Medium", Kind: KindExternal, Target: "https://cronaswap.medium.com"},
	{Name: "Twitter", Kind: KindExternal, Target: "https://twitter.com/cronaswap"},
	{Name: "Telegram", Kind: KindExternal, Target: "https://t.me/cronaswap"},
	{Name: "Discord", Kind: KindExternal, Target: "https://discord.gg/YXxega5vJG"},
	{Name: "GitHub", Kind: KindExternal, Target: "https://github.com/cronaswap"},
	{Name: "Audit", Kind: KindExternal, Target: "https://docs.cronaswap.org/security-audits"},
	{Name: "Vesting", Kind: KindInternal, Target: "/vesting"},
}

func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func Find(name string) (Item, bool) {
	for _, item := range items {
		if strings.EqualFold(item.Name, strings.TrimSpace(name)) {
			return item, true
		}
	}
	return Item{}, false
}

// Resolve is the single dispatch point for menu selections.
func Resolve(item Item) Destination {
	switch item.Kind {
	case KindInternal:
		return Destination{Action: "navigate", Target: item.Target}
	default:
		return Destination{Action: "open", Target: item.Target, NewWindow: true}
	}
}
