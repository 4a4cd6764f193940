package nav

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItems(t *testing.T) {
	all := Items()
	require.Len(t, all, 8)
	for _, item := range all {
		if item.Kind == KindExternal {
			require.True(t, strings.HasPrefix(item.Target, "https://"), item.Name)
		}
	}
}

func TestResolve(t *testing.T) {
	docs, ok := Find("docs")
	require.True(t, ok)
	require.Equal(t, Destination{Action: "open", Target: "https://docs.cronaswap.org", NewWindow: true}, Resolve(docs))

	vesting, ok := Find("Vesting")
	require.True(t, ok)
	require.Equal(t, Destination{Action: "navigate", Target: "/vesting"}, Resolve(vesting))

	_, ok = Find("casino")
	require.False(t, ok)
}
