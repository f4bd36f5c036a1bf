package stat

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/hooks"
	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
	"github.com/stretchr/testify/require"
)

func TestConfigPatternMatching(t *testing.T) {
	cfg := Config{Options: OptPattern, Pattern: "foo"}
	require.True(t, cfg.Matches("xfooy"))
	require.False(t, cfg.Matches("bar"))

	unfiltered := Config{}
	require.True(t, unfiltered.Matches("anything"))
}

func TestStatHookCountsConstsAndStrongOps(t *testing.T) {
	g := irgraph.NewGraph("add_one", 0)
	blk := g.StartBlock()
	a := g.NewConst(blk, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(blk, tarval.NewInt(mode.Is, 2))
	s := g.NewAdd(blk, a, b, mode.Is)

	reg := hooks.NewRegistry()
	h := NewStatHook(Config{Options: OptEnabled | OptCountConsts | OptCountStrongOp})
	h.Install(reg)

	reg.Fire(hooks.EventNewNode, a)
	reg.Fire(hooks.EventNewNode, b)
	reg.Fire(hooks.EventNewNode, s)

	snap := h.Counters().Snapshot()
	require.Equal(t, int64(2), snap.Consts)
	require.Equal(t, int64(1), snap.StrongOps)
}

func TestStatHookDisabledInstallsNothing(t *testing.T) {
	reg := hooks.NewRegistry()
	h := NewStatHook(Config{})
	h.Install(reg)
	require.False(t, reg.HasSubscribers(hooks.EventNewNode))
}

func TestSnapshotCSVFormat(t *testing.T) {
	s := Snapshot{StrongOps: 1, DAGNodes: 2, Deleted: 3, Sels: 4, Consts: 5}
	require.Equal(t, "1,2,3,4,5", s.CSV())
}
