package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTabZoneID_RoundTrip(t *testing.T) {
	for _, i := range []int{0, 1, 8, 42} {
		got, ok := parseTabZoneID(makeTabZoneID(i))
		require.True(t, ok)
		require.Equal(t, i, got)
	}
}

func TestParseTabZoneID_Invalid(t *testing.T) {
	for _, id := range []string{"", "tab:", "tab:x", "tab:-1", "row:1"} {
		_, ok := parseTabZoneID(id)
		require.False(t, ok, id)
	}
}
