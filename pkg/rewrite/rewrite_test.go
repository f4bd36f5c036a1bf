package rewrite

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
	"github.com/oisee/ssagraph/pkg/usedef"
	"github.com/stretchr/testify/require"
)

// TestS5ExchangeInvariant is S5: a := Const 5, b := Const 5, s :=
// Add(a,b). CSE merges b into a; exchange(b,a) leaves s.inputs =
// [block, a, a] and no node references b.
func TestS5ExchangeInvariant(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 5))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 5))
	s := g.NewAdd(blk, a, b, mode.Is)

	cse := NewCSETable()
	merged := cse.Insert(a)
	require.Same(t, a, merged)
	mergedB := cse.Insert(b)
	require.Same(t, a, mergedB, "structurally identical Const must CSE to the first one inserted")

	idx := usedef.New(g)
	idx.Activate()
	eng := New(g, idx)
	eng.Exchange(b, a)

	require.Equal(t, []*irgraph.Node{blk, a, a}, s.In())
	require.Equal(t, 0, idx.NumUses(b))
}

// TestP8CSEIdempotence is P8: inserting the same (op, mode, attrs,
// inputs) twice yields the same node.
func TestP8CSEIdempotence(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 2))
	s1 := g.NewAdd(blk, a, b, mode.Is)
	s2 := g.NewAdd(blk, a, b, mode.Is)

	cse := NewCSETable()
	r1 := cse.Insert(s1)
	r2 := cse.Insert(s2)
	require.Same(t, s1, r1)
	require.Same(t, s1, r2)
}

func TestCSECommutativeCanonicalization(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 2))
	ab := g.NewAdd(blk, a, b, mode.Is)
	ba := g.NewAdd(blk, b, a, mode.Is)

	cse := NewCSETable()
	cse.Insert(ab)
	require.Same(t, ab, cse.Insert(ba), "Add(a,b) and Add(b,a) must CSE together")
}

// TestP9ExchangeCompleteness is P9: after exchange(a,b), no live node
// has a among its inputs or deps.
func TestP9ExchangeCompleteness(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 2))
	s := g.NewAdd(blk, a, b, mode.Is)
	t2 := g.NewMul(blk, a, s, mode.Is)

	eng := New(g, nil)
	eng.Exchange(a, b)

	require.NotContains(t, s.In(), a)
	require.NotContains(t, t2.In(), a)
}

// TestS6PeepholeCompareZero is S6: c := Cmp(x, Const 0); br := Cond(c).
// After peephole, c is replaced by Test(x, x); br consumes the
// replacement; the Const 0 node becomes unused.
func TestS6PeepholeCompareZero(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	x := g.NewConst(blk, tarval.NewInt(mode.Is, 7))
	zero := g.NewConst(blk, tarval.NewInt(mode.Is, 0))
	c := g.NewCmp(blk, x, zero, tarval.RelationEqual)
	br := g.NewCond(blk, c)

	idx := usedef.New(g)
	idx.Activate()
	eng := New(g, idx)
	session := eng.Begin()
	session.Install(irgraph.OpCmp, func(n *irgraph.Node) (*irgraph.Node, bool) {
		ins := n.In()
		if len(ins) != 3 {
			return n, false
		}
		lhs, rhs := ins[1], ins[2]
		if cattr, ok := rhs.Attr().(*irgraph.ConstAttr); ok && cattr.Value.IsNull() {
			return g.NewNodeTest(n.Block(), lhs, lhs), true
		}
		return n, false
	})
	session.Run(idx)
	session.Close()

	require.Equal(t, irgraph.OpTest, br.Input(1).Op())
	require.Equal(t, 0, idx.NumUses(c))
}

// TestIncSPStoreFoldsToPush exercises OpStore's Transform method: a
// Store through an IncSP(+k) pointer folds into a single Push carrying
// the pre-adjustment pointer, with no handler installed — the peephole
// driver falls back to the op's own Methods.Transform.
func TestIncSPStoreFoldsToPush(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	blk := g.StartBlock()
	sp := g.NewConst(blk, tarval.NewInt(mode.Is, 1000))
	adjusted := g.NewIncSP(blk, sp, 4)
	val := g.NewConst(blk, tarval.NewInt(mode.Is, 42))
	store := g.NewStore(blk, g.InitialMem(), adjusted, val)
	sync := g.NewSync(blk, store)

	idx := usedef.New(g)
	idx.Activate()
	eng := New(g, idx)
	session := eng.Begin()
	session.Run(idx)
	session.Close()

	push := sync.Input(1)
	require.Equal(t, irgraph.OpPush, push.Op())
	require.Same(t, sp, push.Input(2))
	require.Equal(t, 0, idx.NumUses(store))
}
