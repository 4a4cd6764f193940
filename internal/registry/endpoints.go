package registry

import (
	"net"
	"net/url"
	"strings"
)

const (
	// Default token lists. Active lists populate the search universe; inactive
	// lists back the slower fallback search.
	CronaSwapDefaultListURL = "https://raw.githubusercontent.com/cronaswap/default-token-list/main/build/cronaswap-default.tokenlist.json"
	CoinGeckoCronosListURL  = "https://tokens.coingecko.com/cronos/all.json"
)

func DefaultActiveLists() []string {
	return []string{CronaSwapDefaultListURL}
}

func DefaultInactiveLists() []string {
	return []string{CoinGeckoCronosListURL}
}

// IsAllowedListURL accepts https URLs, plus http on loopback hosts for local
// development.
func IsAllowedListURL(endpoint string) bool {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || strings.TrimSpace(parsed.Hostname()) == "" {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if isLoopbackHost(parsed.Hostname()) {
		return scheme == "http" || scheme == "https"
	}
	return scheme == "https"
}

func isLoopbackHost(host string) bool {
	h := strings.TrimSpace(strings.ToLower(host))
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
