package slug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Getting Started", "getting-started"},
		{"Café au Lait", "cafe-au-lait"},
		{"hello_world", "hello-world"},
		{"  spaced  out  ", "spaced-out"},
		{"C++ & Go!", "c-go"},
		{"already-a-slug", "already-a-slug"},
		{"Über Löffel", "uber-loffel"},
		{"", ""},
		{"---", ""},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Make(tc.in), "input %q", tc.in)
	}
}

func TestHumanize(t *testing.T) {
	require.Equal(t, "Getting Started", Humanize("getting-started"))
	require.Equal(t, "Quick Start Guide", Humanize("quick_start guide"))
	require.Equal(t, "Intro", Humanize("intro"))
}

func TestSplitOrderPrefix(t *testing.T) {
	name, pos, ok := SplitOrderPrefix("01-intro")
	require.True(t, ok)
	require.Equal(t, "intro", name)
	require.Equal(t, 1, pos)

	name, pos, ok = SplitOrderPrefix("20_advanced-topics")
	require.True(t, ok)
	require.Equal(t, "advanced-topics", name)
	require.Equal(t, 20, pos)

	_, _, ok = SplitOrderPrefix("intro")
	require.False(t, ok)

	_, _, ok = SplitOrderPrefix("01")
	require.False(t, ok)

	_, _, ok = SplitOrderPrefix("01-")
	require.False(t, ok)
}
