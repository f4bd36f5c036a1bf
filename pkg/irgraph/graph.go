package irgraph

import (
	"fmt"
	"sync"

	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/op"
	"github.com/pkg/errors"
)

// ConstructionState tracks how far a graph has progressed through the
// build/lower/backend pipeline.
type ConstructionState int

const (
	StateBuilding ConstructionState = iota
	StateHigh
	StateLow
	StateBackend
)

// Properties is a bitset of analyses currently known consistent. Cleared
// by any mutation that could invalidate the corresponding analysis;
// recomputed lazily by pkg/passmgr's assure_X helpers.
type Properties uint16

const (
	PropConsistentDominance Properties = 1 << iota
	PropConsistentPostDominance
	PropConsistentOutEdges
	PropConsistentLoopinfo
	PropConsistentEntityUsage
	PropNoBads
	PropNoUnreachableCode
	PropNoCriticalEdges
	PropOneReturn
)

// Constraints is a bitset of structural constraints a graph has been
// placed under (set once during lowering, generally monotonic).
type Constraints uint8

const (
	ConstraintArchDep Constraints = 1 << iota
	ConstraintModebLowered
	ConstraintNormalisation2
	ConstraintOptimizeUnreachableCode
)

// Anchor names the nine distinguished nodes every graph guarantees are
// reachable from a walk over anchors, even if disconnected from End by
// rewriting.
type Anchor int

const (
	AnchorStartBlock Anchor = iota
	AnchorStart
	AnchorEndBlock
	AnchorEnd
	AnchorInitialExec
	AnchorFrame
	AnchorInitialMem
	AnchorArgs
	AnchorNoMem
	anchorCount
)

// Graph is one procedure's node arena and per-graph analysis state.
type Graph struct {
	mu sync.Mutex

	entity string
	nLoc   int

	arena       []*Node
	nextIndex   int
	constructed ConstructionState
	properties  Properties
	constraints Constraints

	globalVisited uint64
	blockVisited  uint64

	anchors [anchorCount]*Node
	bad     *Node

	// fpModel carries §6.4's floating-point-model bitset; irgraph only
	// stores it, pkg/passmgr and backends interpret it.
	fpModel uint8

	link any
}

// NewGraph creates an empty graph for the given procedure entity with
// nLoc local-variable slots, and allocates its nine anchors plus the
// distinguished Bad node.
func NewGraph(entity string, nLoc int) *Graph {
	g := &Graph{entity: entity, nLoc: nLoc, constructed: StateBuilding}

	startBlock := g.allocRaw(OpBlock, mode.BB, nil)
	endBlock := g.allocRaw(OpBlock, mode.BB, nil)
	start := g.allocRaw(OpStart, mode.T, []*Node{startBlock})
	end := g.allocRaw(OpEnd, mode.X, []*Node{endBlock})
	initialExec := g.allocRaw(OpProj, mode.X, []*Node{startBlock, start})
	frame := g.allocRaw(OpProj, mode.P, []*Node{startBlock, start})
	initialMem := g.allocRaw(OpProj, mode.M, []*Node{startBlock, start})
	args := g.allocRaw(OpProj, mode.T, []*Node{startBlock, start})
	noMem := g.allocRaw(OpNoMem, mode.M, []*Node{startBlock})
	bad := g.allocRaw(OpBad, mode.Bad, nil)

	g.anchors[AnchorStartBlock] = startBlock
	g.anchors[AnchorEndBlock] = endBlock
	g.anchors[AnchorStart] = start
	g.anchors[AnchorEnd] = end
	g.anchors[AnchorInitialExec] = initialExec
	g.anchors[AnchorFrame] = frame
	g.anchors[AnchorInitialMem] = initialMem
	g.anchors[AnchorArgs] = args
	g.anchors[AnchorNoMem] = noMem
	g.bad = bad

	return g
}

// Entity returns the owning procedure symbol name.
func (g *Graph) Entity() string { return g.entity }

// NLoc returns the number of local-variable slots tracked for on-the-fly
// SSA construction.
func (g *Graph) NLoc() int { return g.nLoc }

// ConstructionState / SetConstructionState track the build pipeline
// stage.
func (g *Graph) ConstructionState() ConstructionState   { return g.constructed }
func (g *Graph) SetConstructionState(s ConstructionState) { g.constructed = s }

// Properties / Constraints accessors.
func (g *Graph) Properties() Properties     { return g.properties }
func (g *Graph) Constraints() Constraints   { return g.constraints }
func (g *Graph) HasProperty(p Properties) bool   { return g.properties&p != 0 }
func (g *Graph) SetProperty(p Properties)        { g.properties |= p }
func (g *Graph) ClearProperty(p Properties)       { g.properties &^= p }
func (g *Graph) HasConstraint(c Constraints) bool { return g.constraints&c != 0 }
func (g *Graph) SetConstraint(c Constraints)       { g.constraints |= c }

// Anchor returns the distinguished node for slot a.
func (g *Graph) Anchor(a Anchor) *Node { return g.anchors[a] }

func (g *Graph) StartBlock() *Node  { return g.anchors[AnchorStartBlock] }
func (g *Graph) EndBlock() *Node    { return g.anchors[AnchorEndBlock] }
func (g *Graph) Start() *Node       { return g.anchors[AnchorStart] }
func (g *Graph) End() *Node         { return g.anchors[AnchorEnd] }
func (g *Graph) InitialExec() *Node { return g.anchors[AnchorInitialExec] }
func (g *Graph) Frame() *Node       { return g.anchors[AnchorFrame] }
func (g *Graph) InitialMem() *Node  { return g.anchors[AnchorInitialMem] }
func (g *Graph) Args() *Node        { return g.anchors[AnchorArgs] }
func (g *Graph) NoMem() *Node       { return g.anchors[AnchorNoMem] }
func (g *Graph) Bad() *Node         { return g.bad }

// Link is a free per-graph scratch slot for passes that need it (mirrors
// irg_link/irg_set_link).
func (g *Graph) Link() any      { return g.link }
func (g *Graph) SetLink(v any)  { g.link = v }

// NodeCount returns the number of nodes ever allocated in this graph's
// arena (including orphaned/killed ones still occupying their index).
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.arena)
}

// NodeByIndex resolves index_to_node. Returns nil if idx is out of range.
func (g *Graph) NodeByIndex(idx int) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	if idx < 0 || idx >= len(g.arena) {
		return nil
	}
	return g.arena[idx]
}

// allocRaw is the bootstrap allocator used only for the nine anchors and
// Bad, before any op package dependency beyond the handful of fixed ops
// declared in ops.go exists.
func (g *Graph) allocRaw(o *op.Op, m *mode.Mode, ins []*Node) *Node {
	n := &Node{graph: g, op: o, mode: m, ins: ins}
	g.mu.Lock()
	n.index = g.nextIndex
	g.nextIndex++
	g.arena = append(g.arena, n)
	g.mu.Unlock()
	return n
}

// NewNode is the generic constructor (§4.2): allocate in the graph's
// arena, set operation/mode/inputs (prepending block as input 0 unless
// o is the Block op itself), assign a fresh index, and run the op's
// Init method. Per-op constructors in ops.go are thin wrappers around
// this that additionally populate a typed attribute struct.
func (g *Graph) NewNode(block *Node, o *op.Op, m *mode.Mode, ins ...*Node) *Node {
	var allIns []*Node
	if o == OpBlock {
		allIns = ins
	} else {
		allIns = make([]*Node, 0, len(ins)+1)
		allIns = append(allIns, block)
		allIns = append(allIns, ins...)
	}
	n := &Node{graph: g, op: o, mode: m, ins: allIns}
	g.mu.Lock()
	n.index = g.nextIndex
	g.nextIndex++
	g.arena = append(g.arena, n)
	g.mu.Unlock()
	if o.Methods.Init != nil {
		o.Methods.Init(n)
	}
	return n
}

// VerifyDiagnostic names one invariant violation surfaced by Verify.
// Verify never aborts (§7): it collects every violation found and
// returns them all.
type VerifyDiagnostic struct {
	Node    *Node
	Kind    string
	Message string
}

func (d VerifyDiagnostic) Error() string {
	idx := -1
	if d.Node != nil {
		idx = d.Node.Index()
	}
	return fmt.Sprintf("%s: node #%d: %s", d.Kind, idx, d.Message)
}

// Verify batch-checks the structural invariants of §3/§8 that don't
// require a separate analysis pass (P1, P2, P3, P4; P10 is checked by
// walk tests instead since it's a property of a particular walk call).
// Dominance (P7) is checked by pkg/domtree's own tests against graphs
// built here, not duplicated.
func (g *Graph) Verify() []VerifyDiagnostic {
	g.mu.Lock()
	arena := make([]*Node, len(g.arena))
	copy(arena, g.arena)
	g.mu.Unlock()

	var diags []VerifyDiagnostic
	seen := make(map[int]*Node, len(arena))

	for _, n := range arena {
		if n == nil {
			continue
		}
		// P4 — SSA uniqueness.
		if existing, ok := seen[n.index]; ok && existing != n {
			diags = append(diags, VerifyDiagnostic{n, "P4", errors.Errorf("duplicate index %d shared with another node", n.index).Error()})
		}
		seen[n.index] = n

		// P1 — input arity.
		if n.op.Arity == op.ArityUnary && len(n.ins) != 2 { // block + 1 operand
			diags = append(diags, VerifyDiagnostic{n, "P1", "unary op does not have exactly 1 operand input"})
		}
		if n.op.Arity == op.ArityBinary && len(n.ins) != 3 { // block + 2 operands
			diags = append(diags, VerifyDiagnostic{n, "P1", "binary op does not have exactly 2 operand inputs"})
		}
		if (n.op.Arity == op.ArityVariable || n.op.Arity == op.ArityDynamic) && len(n.ins) < 0 {
			diags = append(diags, VerifyDiagnostic{n, "P1", "variable-arity op has negative arity"})
		}

		// P2 — input 0 is a Block of the same graph, or Bad, for every
		// non-Block node.
		if n.op != OpBlock {
			b := n.Block()
			if b != nil && b.graph == n.graph && b != n.graph.bad {
				if b.op != OpBlock {
					diags = append(diags, VerifyDiagnostic{n, "P2", "input 0 is not a Block"})
				}
			} else if b != nil && b.graph != n.graph {
				diags = append(diags, VerifyDiagnostic{n, "P2", "input 0 belongs to a different graph"})
			}
		}

		// P3 — Phi alignment.
		if n.op == OpPhi {
			blk := n.Block()
			if blk != nil && len(n.ins)-1 != blk.Arity() {
				diags = append(diags, VerifyDiagnostic{n, "P3", errors.Errorf(
					"phi arity %d does not match owning block arity %d", len(n.ins)-1, blk.Arity()).Error()})
			}
		}

		// op-specific verifier.
		if n.op.Methods.Verify != nil {
			if err := n.op.Methods.Verify(n); err != nil {
				diags = append(diags, VerifyDiagnostic{n, "op-verify", err.Error()})
			}
		}
	}

	return diags
}
