package looptree

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
	"github.com/stretchr/testify/require"
)

// buildS4 wires Start -> H; H -> {Body, Exit}; Body -> H, matching S4's
// literal CFG.
func buildS4(g *irgraph.Graph) (h, body, exit *irgraph.Node) {
	start := g.StartBlock()
	h = g.NewBlock(start)
	body = g.NewBlock(h)
	exit = g.NewBlock(h)
	h.AddInput(body) // close the loop: H's cfgpred list gains Body
	end := g.EndBlock()
	end.AddInput(exit)
	return h, body, exit
}

// TestS4LoopDetection is S4: after construction, is_backedge(H,
// index_of(Body)) = 1; loop-tree root has one child; that child
// contains blocks {H, Body}; get_loop_depth = 1.
func TestS4LoopDetection(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	h, body, _ := buildS4(g)

	result := Construct(g)

	bodyPos := -1
	for i, pred := range h.In() {
		if pred == body {
			bodyPos = i
		}
	}
	require.GreaterOrEqual(t, bodyPos, 0)
	require.True(t, result.BackEdges.IsBackedge(h, bodyPos))

	require.Len(t, result.Root.Children, 1)
	child := result.Root.Children[0]
	require.Equal(t, 1, child.Depth)

	names := map[*irgraph.Node]bool{}
	for _, b := range child.Blocks {
		names[b] = true
	}
	require.True(t, names[h])
	require.True(t, names[body])
	require.Len(t, child.Blocks, 2)
}

func TestIsLoopInvariant(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	h, body, _ := buildS4(g)
	outside := g.NewBlock()

	result := Construct(g)
	loop := result.Root.Children[0]
	require.Equal(t, loop, h.Loop())
	require.Equal(t, loop, body.Loop())
	require.Equal(t, result.Root, outside.Loop())

	x := g.NewConst(outside, tarval.NewInt(mode.Is, 1))
	require.True(t, IsLoopInvariant(x, h))

	y := g.NewConst(body, tarval.NewInt(mode.Is, 2))
	require.False(t, IsLoopInvariant(y, h))
}

// TestDepthReflectsLoopNesting checks looptree.Depth against a
// constructed tree without any manual SetLoop calls.
func TestDepthReflectsLoopNesting(t *testing.T) {
	g := irgraph.NewGraph("f", 0)
	h, body, exit := buildS4(g)
	Construct(g)

	require.Equal(t, 1, Depth(h))
	require.Equal(t, 1, Depth(body))
	require.Equal(t, 0, Depth(exit))
}
