// Package irgraph implements the node and graph arena: per-procedure
// containers of SSA nodes, their inputs/dependency edges, the anchor
// array of distinguished nodes, construction/pinned state, and the
// consistency-flag bitsets the pass manager reads.
//
// Nodes are arena-owned and referenced by index rather than by pointer
// chasing a cyclic object graph — the same strategy other_examples'
// y1yang0-falcon graph.go and aclements-go-misc's ssa.go use for their
// Value/Block containers. A *Node handle is a stable reference into its
// Graph's arena for as long as the graph lives; it is never moved.
package irgraph

import (
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/op"
)

// PinState classifies whether a node's placement is fixed.
type PinState int

const (
	PinStateFloats PinState = iota
	PinStatePinned
	PinStateExcPinned
	PinStateMemPinned
)

// Node is a single SSA graph vertex.
type Node struct {
	index int
	graph *Graph
	op    *op.Op
	mode  *mode.Mode
	ins   []*Node
	deps  []*Node // artificial scheduling dependencies, not data/control edges

	attr any // op-specific attribute struct, type-asserted by per-op constructors

	pin PinState

	visited      uint64
	blockVisited uint64
	link         *Node
	loop         *LoopNode // set by pkg/looptree via SetLoop; nil until computed
}

// Index returns the node's stable arena index within its graph.
func (n *Node) Index() int { return n.index }

// Graph returns the owning graph.
func (n *Node) Graph() *Graph { return n.graph }

// Op satisfies op.Node.
func (n *Node) Op() *op.Op { return n.op }

// Mode returns the node's value mode (mode.T for tuple-producing nodes).
func (n *Node) Mode() *mode.Mode { return n.mode }

// Ins returns the node's input list, element 0 being the owning block
// for every non-Block node. Satisfies op.Node. Callers must not mutate
// the returned slice directly; use SetInput/AddInput/RemoveInput.
func (n *Node) Ins() []op.Node {
	out := make([]op.Node, len(n.ins))
	for i, in := range n.ins {
		out[i] = in
	}
	return out
}

// In returns the node's raw *Node inputs, for package-internal and
// sibling-package use where the narrower op.Node view is unnecessary.
func (n *Node) In() []*Node { return n.ins }

// Arity returns the current number of inputs.
func (n *Node) Arity() int { return len(n.ins) }

// Input returns the i'th input, or nil if out of range.
func (n *Node) Input(i int) *Node {
	if i < 0 || i >= len(n.ins) {
		return nil
	}
	return n.ins[i]
}

// Block returns input 0 interpreted as the owning block. For a Block
// node itself this is meaningless; callers should check n.Op() first.
func (n *Node) Block() *Node {
	if len(n.ins) == 0 {
		return nil
	}
	return n.ins[0]
}

// Attr returns the node's op-specific attribute value.
func (n *Node) Attr() any { return n.attr }

// SetAttr sets the node's op-specific attribute value.
func (n *Node) SetAttr(a any) { n.attr = a }

// PinState returns the node's current pin state.
func (n *Node) PinState() PinState { return n.pin }

// SetPinState sets the node's pin state.
func (n *Node) SetPinState(p PinState) { n.pin = p }

// Deps returns the artificial scheduling dependency list.
func (n *Node) Deps() []*Node { return n.deps }

// AddDep appends an artificial scheduling dependency edge.
func (n *Node) AddDep(d *Node) { n.deps = append(n.deps, d) }

// Link returns the node's scratch link-pointer slot, used by algorithms
// (SSA construction's incomplete-Phi lists, loop construction) that need
// a free per-node field for intrusive lists.
func (n *Node) Link() *Node     { return n.link }
func (n *Node) SetLink(l *Node) { n.link = l }

// Loop returns the loop-tree node this node belongs to, or nil if loop
// analysis has not been run (or the node predates it).
func (n *Node) Loop() *LoopNode    { return n.loop }
func (n *Node) SetLoop(l *LoopNode) { n.loop = l }

// SetInput replaces the i'th input in place. Callers mutating an active
// CSE or use-def index must invalidate/update it separately (§4.4's
// "mirrored" contract lives in pkg/usedef, not here, to avoid an import
// cycle between the two packages).
func (n *Node) SetInput(i int, v *Node) {
	n.ins[i] = v
}

// AddInput appends an input; only legal while the node (if a Block) is
// immature, or for other variable-arity ops (Phi, Call, Sync, Tuple,
// End, ASM) at any time before the graph freezes it.
func (n *Node) AddInput(v *Node) {
	n.ins = append(n.ins, v)
}

// RemoveInput deletes the i'th input, shifting later inputs down.
func (n *Node) RemoveInput(i int) {
	n.ins = append(n.ins[:i], n.ins[i+1:]...)
}

// IsBlock reports whether this node is the distinguished Block op.
func (n *Node) IsBlock() bool { return n.op == OpBlock }

// IsBad reports whether this node is the distinguished Bad node for its
// graph.
func (n *Node) IsBad() bool { return n == n.graph.bad }
