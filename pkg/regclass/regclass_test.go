package regclass

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/stretchr/testify/require"
)

func TestNewClassTracksAllocatable(t *testing.T) {
	c := NewClass(0, "gp", mode.Is, FlagNone,
		Register{Index: 0, Name: "r0"},
		Register{Index: 1, Name: "r1"},
		Register{Index: 2, Name: "r2"},
	)
	require.Equal(t, 3, c.Count())
	require.True(t, c.Allocatable.Has(0))
	require.True(t, c.Allocatable.Has(2))
	require.False(t, c.Allocatable.Has(3))
}

func TestLimitedRequestIntersectsAllocatable(t *testing.T) {
	c := NewClass(0, "gp", mode.Is, FlagNone,
		Register{Index: 0, Name: "r0"},
		Register{Index: 1, Name: "r1"},
	)
	req := c.LimitedRequest("r1", "nonexistent")
	require.Equal(t, RequestLimited, req.Kind)
	require.True(t, req.Limited.Has(1))
	require.Equal(t, 1, req.Limited.Count())
}

func TestSingleRequestSelectsExactlyOneRegister(t *testing.T) {
	c := NewClass(0, "gp", mode.Is, FlagNone, Register{Index: 5, Name: "r5"})
	req := c.SingleRequest("r5")
	require.Equal(t, Single(5), req.Limited)
}

func TestNormalRequestCarriesNoLimitedSet(t *testing.T) {
	c := NewClass(0, "gp", mode.Is, FlagNone, Register{Index: 0, Name: "r0"})
	req := c.NormalRequest()
	require.Equal(t, RequestNormal, req.Kind)
}

func TestFlagsAreDistinctBits(t *testing.T) {
	state := NewClass(1, "flags", mode.B, FlagState|FlagManualRA)
	require.True(t, state.Flags.Has(FlagState))
	require.True(t, state.Flags.Has(FlagManualRA))
	require.False(t, state.Flags.Has(FlagNone|0x80))
}
