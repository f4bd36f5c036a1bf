package vcgdump

import (
	"fmt"
	"strings"
	"testing"

	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/looptree"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
	"github.com/stretchr/testify/require"
)

func TestDumpEmitsGraphNodeAndEdgeRecords(t *testing.T) {
	g := irgraph.NewGraph("add_one", 0)
	blk := g.StartBlock()
	c := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	s := g.NewAdd(blk, c, c, mode.Is)
	_ = s

	var sb strings.Builder
	require.NoError(t, Dump(&sb, g, nil))
	out := sb.String()

	require.Contains(t, out, "graph: { title: \"g0\"")
	require.Contains(t, out, "label: \"add_one\"")
	require.Contains(t, out, "node: { title: \"n")
	require.Contains(t, out, "edge: { sourcename:")
	require.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "}"))
}

func TestDumpMarksBackEdgesWhenLoopsProvided(t *testing.T) {
	g := irgraph.NewGraph("loop", 0)
	start := g.StartBlock()
	h := g.NewBlock(start)
	body := g.NewBlock(h)
	h.AddInput(body)
	end := g.EndBlock()
	end.AddInput(h)

	var sb strings.Builder
	require.NoError(t, Dump(&sb, g, nil))
	require.NotContains(t, sb.String(), "backedge:", "no loop result supplied means no backedge records")

	sb.Reset()
	require.NoError(t, Dump(&sb, g, looptree.Construct(g)))
	require.Contains(t, sb.String(),
		fmt.Sprintf("backedge: { sourcename: \"n%d\" targetname: \"n%d\"", h.Index(), body.Index()))
}

func TestColorTableMatchesFixedAssignments(t *testing.T) {
	require.Equal(t, Color("153 153 255"), ColorMemory)
	require.Equal(t, Color("255 153 153"), ColorControlFlow)
	require.Equal(t, Color("204 255 255"), ColorConst)
	require.Equal(t, Color("255 255 153"), ColorProj)
	require.Equal(t, Color("105 255 105"), ColorPhi)
	require.Equal(t, Color("100 100 255"), ColorAnchor)
	require.Equal(t, Color("255 255 0"), ColorBlockBackground)
	require.Equal(t, Color("204 204 255"), ColorEntity)
	require.Equal(t, Color("red"), ColorError)
}
