// Package policy enforces the --enable-commands allowlist.
package policy

import (
	"strings"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
)

// CheckCommandAllowed reports whether commandPath (without the binary name)
// may run. An allowlist entry naming a command group, such as "tokens", allows
// every command under it.
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		entry := normalize(allowed)
		if entry == "" {
			continue
		}
		if entry == normPath || strings.HasPrefix(normPath, entry+" ") {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
