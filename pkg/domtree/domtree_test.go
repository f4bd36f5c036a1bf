package domtree

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/stretchr/testify/require"
)

// buildDiamond wires Start -> {A, B} -> Join -> End, matching S3's
// literal CFG, by making each Block's cfgpred list name its
// predecessors directly.
func buildDiamond(g *irgraph.Graph) (a, b, join *irgraph.Node) {
	start := g.StartBlock()
	a = g.NewBlock(start)
	b = g.NewBlock(start)
	join = g.NewBlock(a, b)
	end := g.EndBlock()
	end.AddInput(join)
	return a, b, join
}

// TestS3Dominance is S3: diamond CFG Start -> {A,B} -> Join -> End.
func TestS3Dominance(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	a, b, join := buildDiamond(g)
	start := g.StartBlock()

	info := ComputeDominance(g)

	require.Same(t, start, info.Idom(a))
	require.Same(t, start, info.Idom(b))
	require.Same(t, start, info.Idom(join))
	require.Same(t, start, info.SmallestCommonDominator(a, b))
	require.True(t, info.Dominates(start, join))
	require.False(t, info.StrictlyDominates(a, a))
}

func TestUnreachableBlockSentinels(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	orphan := g.NewBlock()
	info := ComputeDominance(g)
	require.Equal(t, -1, info.Depth(orphan))
	require.Nil(t, info.Idom(orphan))
}

// TestP7DominanceAcyclicity is P7: following idom from any block reaches
// Start within dom_depth steps.
func TestP7DominanceAcyclicity(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	_, _, join := buildDiamond(g)
	start := g.StartBlock()

	info := ComputeDominance(g)
	steps := 0
	cur := join
	for cur != start {
		cur = info.Idom(cur)
		steps++
		require.LessOrEqual(t, steps, info.Depth(join)+1)
	}
	require.Equal(t, info.Depth(join), steps)
}
