package usedef

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
	"github.com/stretchr/testify/require"
)

func TestActivateBuildsContract(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 2))
	s := g.NewAdd(blk, a, b, mode.Is)

	idx := New(g)
	idx.Activate()
	require.True(t, idx.Active())

	// §4.4 contract: for every live node u and input position i with
	// u.inputs[i] = v, exactly one reverse-edge entry (u,i) exists on v.
	foundA, foundB := false, false
	for _, u := range idx.Uses(a) {
		if u.User == s && u.Pos == 1 {
			foundA = true
		}
	}
	for _, u := range idx.Uses(b) {
		if u.User == s && u.Pos == 2 {
			foundB = true
		}
	}
	require.True(t, foundA)
	require.True(t, foundB)
}

func TestNotifySetInputMirrors(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 2))
	c := g.NewConst(blk, tarval.NewInt(mode.Is, 3))
	s := g.NewAdd(blk, a, b, mode.Is)

	idx := New(g)
	idx.Activate()

	s.SetInput(2, c)
	idx.NotifySetInput(s, 2, b, c)

	require.Equal(t, 0, idx.NumUses(b))
	require.Equal(t, 1, idx.NumUses(c))
}

func TestDeactivateDropsIndex(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	idx := New(g)
	idx.Activate()
	idx.Deactivate()
	require.False(t, idx.Active())
	require.Nil(t, idx.Uses(g.Bad()))
}
