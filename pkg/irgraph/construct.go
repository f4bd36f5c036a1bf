package irgraph

import (
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
)

// Per-op constructors (§6.1): thin wrappers over Graph.NewNode that
// additionally populate a typed attribute struct. Frontends call these,
// never NewNode directly, for any op that carries attributes.

// NewBlock allocates an immature Block with the given control-flow
// predecessors as inputs (Block's own inputs are cfgpreds, not data
// edges — it is the one op that is not itself block-prefixed).
func (g *Graph) NewBlock(preds ...*Node) *Node {
	n := &Node{graph: g, op: OpBlock, mode: mode.BB, ins: append([]*Node{}, preds...)}
	g.mu.Lock()
	n.index = g.nextIndex
	g.nextIndex++
	g.arena = append(g.arena, n)
	g.mu.Unlock()
	return n
}

// NewConst allocates a Const node carrying tv as its folded value.
func (g *Graph) NewConst(block *Node, tv *tarval.Value) *Node {
	n := g.NewNode(block, OpConst, tv.Mode())
	n.attr = &ConstAttr{Value: tv}
	return n
}

// NewAdd allocates a commutative Add node.
func (g *Graph) NewAdd(block, a, b *Node, m *mode.Mode) *Node {
	return g.NewNode(block, OpAdd, m, a, b)
}

// NewSub allocates a Sub node.
func (g *Graph) NewSub(block, a, b *Node, m *mode.Mode) *Node {
	return g.NewNode(block, OpSub, m, a, b)
}

// NewMul allocates a commutative Mul node.
func (g *Graph) NewMul(block, a, b *Node, m *mode.Mode) *Node {
	return g.NewNode(block, OpMul, m, a, b)
}

// NewCmp allocates a Cmp node testing relation r between a and b. Cmp
// produces mode_b (internal boolean); the relation actually tested is
// attached as CmpAttr so later peepholes (§4.8 Compare-zero -> Test) can
// read it back.
func (g *Graph) NewCmp(block, a, b *Node, r tarval.Relation) *Node {
	n := g.NewNode(block, OpCmp, mode.B, a, b)
	n.attr = &CmpAttr{Relation: r}
	return n
}

// NewCond allocates a Cond node forking control flow on a boolean
// selector.
func (g *Graph) NewCond(block, selector *Node) *Node {
	return g.NewNode(block, OpCond, mode.T, selector)
}

// NewLoad allocates a fragile, memory-using Load.
func (g *Graph) NewLoad(block, mem, addr *Node, m *mode.Mode) *Node {
	n := g.NewNode(block, OpLoad, mode.T, mem, addr)
	_ = m // the loaded value's mode is read back via a Proj; recorded on n.attr if needed by a future lowering
	return n
}

// NewStore allocates a fragile, memory-using Store.
func (g *Graph) NewStore(block, mem, addr, val *Node) *Node {
	return g.NewNode(block, OpStore, mode.M, mem, addr, val)
}

// NewCall allocates a variable-arity Call: mem, callee address, then
// argument nodes.
func (g *Graph) NewCall(block, mem, callee *Node, args ...*Node) *Node {
	ins := append([]*Node{mem, callee}, args...)
	return g.NewNode(block, OpCall, mode.T, ins...)
}

// NewReturn allocates a variable-arity Return: mem, then result values.
func (g *Graph) NewReturn(block, mem *Node, results ...*Node) *Node {
	ins := append([]*Node{mem}, results...)
	return g.NewNode(block, OpReturn, mode.X, ins...)
}

// NewJmp allocates an unconditional control-flow edge out of block.
func (g *Graph) NewJmp(block *Node) *Node {
	return g.NewNode(block, OpJmp, mode.X)
}

// NewProj allocates a projection extracting one component of a
// tuple-producing node.
func (g *Graph) NewProj(block, tuple *Node, m *mode.Mode) *Node {
	return g.NewNode(block, OpProj, m, tuple)
}

// NewSync allocates a variable-arity memory-merge point.
func (g *Graph) NewSync(block *Node, mems ...*Node) *Node {
	return g.NewNode(block, OpSync, mode.M, mems...)
}

// NewTuple allocates a variable-arity Tuple bundling several values.
func (g *Graph) NewTuple(block *Node, vals ...*Node) *Node {
	return g.NewNode(block, OpTuple, mode.T, vals...)
}

// NewPhi allocates a Phi with arity matching block's current predecessor
// count. If block is still immature, prefer pkg/ssacons's GetValue,
// which manages the incomplete-Phi bookkeeping this raw constructor
// does not.
func (g *Graph) NewPhi(block *Node, m *mode.Mode, ins ...*Node) *Node {
	return g.NewNode(block, OpPhi, m, ins...)
}

// NewNodeTest allocates a Test node (the flag-setting AND-without-
// storing op the Compare-zero peephole rewrites into, §4.8).
func (g *Graph) NewNodeTest(block, a, b *Node) *Node {
	return g.NewNode(block, OpTest, mode.B, a, b)
}

// NewIncSP allocates a stack-pointer adjustment of the given signed
// delta. A positive offset immediately followed by a Store to the
// adjusted pointer is a candidate for OpStore's Transform method to
// fold into a Push.
func (g *Graph) NewIncSP(block, sp *Node, offset int64) *Node {
	n := g.NewNode(block, OpIncSP, sp.mode, sp)
	n.attr = &IncSPAttr{Offset: offset}
	return n
}

// NewPush allocates a Push combining a stack-pointer decrement and a
// memory write: mem plus val pushed onto the stack pointed at by sp
// (the pointer as it stood before the decrement OpStore's Transform
// folded away).
func (g *Graph) NewPush(block, mem, sp, val *Node) *Node {
	return g.NewNode(block, OpPush, mode.M, mem, sp, val)
}
