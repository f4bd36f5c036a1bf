package main

import (
	"fmt"
	"os"

	"github.com/oisee/ssagraph/pkg/domtree"
	"github.com/oisee/ssagraph/pkg/hooks"
	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/looptree"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/rewrite"
	"github.com/oisee/ssagraph/pkg/rewritelog"
	"github.com/oisee/ssagraph/pkg/stat"
	"github.com/oisee/ssagraph/pkg/tarval"
	"github.com/oisee/ssagraph/pkg/usedef"
	"github.com/oisee/ssagraph/pkg/vcgdump"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ssatool",
		Short: "ssagraph demo CLI — build, verify, dump, and collect statistics for an SSA graph",
	}

	var entity string
	var pattern string

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a small demo graph and report its node/block counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := demoGraph(entity)
			fmt.Printf("Graph: %s\n", g.Entity())
			fmt.Printf("  Nodes: %d\n", g.NodeCount())
			fmt.Printf("  Construction state: %d\n", g.ConstructionState())
			return nil
		},
	}
	buildCmd.Flags().StringVar(&entity, "entity", "demo_loop", "Procedure entity name for the demo graph")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Build the demo graph and run structural/dominance/loop verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := demoGraph(entity)

			diags := g.Verify()
			if len(diags) == 0 {
				fmt.Println("structural invariants: OK")
			} else {
				for _, d := range diags {
					fmt.Printf("structural invariant violated: %s\n", d.Error())
				}
			}

			dom := domtree.ComputeDominance(g)
			fmt.Printf("dominance: start block depth %d\n", dom.Depth(g.StartBlock()))

			loops := looptree.Construct(g)
			fmt.Printf("loop tree: %d top-level loop(s)\n", len(loops.Root.Children))

			if len(diags) > 0 {
				return fmt.Errorf("%d structural invariant violation(s)", len(diags))
			}
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&entity, "entity", "demo_loop", "Procedure entity name for the demo graph")

	var dumpOut string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the demo graph in VCG format",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := demoGraph(entity)
			loops := looptree.Construct(g)

			w := os.Stdout
			if dumpOut != "" {
				f, err := os.Create(dumpOut)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := vcgdump.Dump(f, g, loops); err != nil {
					return err
				}
				fmt.Printf("written to %s\n", dumpOut)
				return nil
			}
			return vcgdump.Dump(w, g, loops)
		},
	}
	dumpCmd.Flags().StringVar(&entity, "entity", "demo_loop", "Procedure entity name for the demo graph")
	dumpCmd.Flags().StringVar(&dumpOut, "output", "", "Output file path (default: stdout)")

	statCmd := &cobra.Command{
		Use:   "stat",
		Short: "Build the demo graph while counting nodes through the hook surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := stat.Config{
				Options: stat.OptEnabled | stat.OptCountConsts | stat.OptCountStrongOp | stat.OptCountDAG | stat.OptPattern,
				Pattern: pattern,
			}
			reg := hooks.NewRegistry()
			h := stat.NewStatHook(cfg)
			h.Install(reg)

			g := demoGraphCounted(entity, reg)

			snap := h.Counters().Snapshot()
			fmt.Printf("entity: %s\n", g.Entity())
			fmt.Printf("  strong ops:  %d\n", snap.StrongOps)
			fmt.Printf("  dag nodes:   %d\n", snap.DAGNodes)
			fmt.Printf("  consts:      %d\n", snap.Consts)
			if cfg.Options.Has(stat.OptCSVOutput) {
				fmt.Println(snap.CSV())
			}
			return nil
		},
	}
	statCmd.Flags().StringVar(&entity, "entity", "demo_loop", "Procedure entity name for the demo graph")
	statCmd.Flags().StringVar(&pattern, "pattern", "", "Substring filter on the entity name")

	var checkpointPath string
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run the compare-zero peephole over the demo graph and report every rewrite applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := demoGraph(entity)

			idx := usedef.New(g)
			idx.Activate()
			eng := rewrite.New(g, idx)

			log := rewritelog.NewLog()
			session := eng.Begin()
			session.Install(irgraph.OpCmp, compareZeroPeephole(g))
			session.OnRewrite(func(old, replacement *irgraph.Node) {
				log.Record(rewritelog.Entry{
					FromOp: old.Op().Name, FromIndex: old.Index(),
					ToOp: replacement.Op().Name, ToIndex: replacement.Index(),
				})
			})
			session.Run(idx)
			session.Close()

			entries := log.Entries()
			fmt.Printf("%d rewrite(s) applied\n", len(entries))
			for _, e := range entries {
				fmt.Printf("  %s#%d -> %s#%d\n", e.FromOp, e.FromIndex, e.ToOp, e.ToIndex)
			}

			if checkpointPath != "" {
				ckpt := &rewritelog.Checkpoint{Entries: entries, NodesProcessed: g.NodeCount()}
				if err := rewritelog.Save(checkpointPath, ckpt); err != nil {
					return err
				}
				fmt.Printf("checkpoint written to %s\n", checkpointPath)
			}
			return nil
		},
	}
	optimizeCmd.Flags().StringVar(&entity, "entity", "demo_loop", "Procedure entity name for the demo graph")
	optimizeCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "Write a resumable rewrite-log checkpoint to this path")

	rootCmd.AddCommand(buildCmd, verifyCmd, dumpCmd, statCmd, optimizeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// demoGraph builds the S4-shaped example from the reference scenarios:
// a single natural loop computing a running sum, with the loop body
// guarded by a Cmp/Cond.
func demoGraph(entity string) *irgraph.Graph {
	g := irgraph.NewGraph(entity, 2)

	start := g.StartBlock()
	header := g.NewBlock(start)
	body := g.NewBlock(header)
	exit := g.NewBlock(header)
	header.AddInput(body)

	zero := g.NewConst(header, tarval.NewInt(mode.Is, 0))
	one := g.NewConst(header, tarval.NewInt(mode.Is, 1))
	ten := g.NewConst(header, tarval.NewInt(mode.Is, 10))

	sum := g.NewPhi(header, mode.Is, zero, zero)
	i := g.NewPhi(header, mode.Is, zero, zero)
	cmp := g.NewCmp(header, i, ten, tarval.RelationLess)
	g.NewCond(header, cmp)

	nextSum := g.NewAdd(body, sum, i, mode.Is)
	nextI := g.NewAdd(body, i, one, mode.Is)
	// This Cmp against zero exists purely to give the "optimize"
	// subcommand a Compare-zero candidate to rewrite into Test; nothing
	// consumes it.
	g.NewCmp(body, i, zero, tarval.RelationEqual)
	g.NewJmp(body)

	sum.SetInput(2, nextSum)
	i.SetInput(2, nextI)

	g.NewReturn(exit, g.InitialMem(), sum)
	g.EndBlock().AddInput(exit)

	return g
}

// compareZeroPeephole returns a peephole handler implementing §4.8's
// Compare-zero -> Test rewrite: Cmp(x, Const 0) becomes Test(x, x),
// the flag-setting AND the backend can emit without materializing the
// comparison result.
func compareZeroPeephole(g *irgraph.Graph) func(*irgraph.Node) (*irgraph.Node, bool) {
	return func(n *irgraph.Node) (*irgraph.Node, bool) {
		ins := n.In()
		if len(ins) != 3 {
			return n, false
		}
		lhs, rhs := ins[1], ins[2]
		cattr, ok := rhs.Attr().(*irgraph.ConstAttr)
		if !ok || !cattr.Value.IsNull() {
			return n, false
		}
		return g.NewNodeTest(n.Block(), lhs, lhs), true
	}
}

// demoGraphCounted builds the same demo graph as demoGraph but fires
// hooks.EventNewNode for every node it allocates, for the stat
// subcommand's end-to-end hook exercise.
func demoGraphCounted(entity string, reg *hooks.Registry) *irgraph.Graph {
	g := demoGraph(entity)
	n := g.NodeCount()
	for idx := 0; idx < n; idx++ {
		if node := g.NodeByIndex(idx); node != nil {
			reg.Fire(hooks.EventNewNode, node)
		}
	}
	return g
}
