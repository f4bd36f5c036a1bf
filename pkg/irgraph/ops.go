package irgraph

import (
	"github.com/oisee/ssagraph/pkg/hashutil"
	"github.com/oisee/ssagraph/pkg/op"
	"github.com/oisee/ssagraph/pkg/tarval"
)

// The fixed op catalog. Registered once at package init, the same
// "closed set known at build time" strategy spec.md §4.1 prescribes and
// Go-zh-go.old's gen/genericOps.go demonstrates for a real compiler.
// Attribute structs for ops that carry one live in attrs.go.
var (
	OpBlock = op.Register("Block", op.ArityVariable, -1, op.FlagCfOpcode|op.FlagStartBlockPlaced, 0, op.Methods{
		Dump: func(n op.Node) string { return "Block" },
	})
	OpStart = op.Register("Start", op.ArityVariable, -1, op.FlagCfOpcode|op.FlagStartBlockPlaced, 0, op.Methods{})
	OpEnd   = op.Register("End", op.ArityVariable, -1, op.FlagCfOpcode, 0, op.Methods{})
	OpProj  = op.Register("Proj", op.ArityUnary, 1, op.FlagCseNeutral, 0, op.Methods{})
	OpNoMem = op.Register("NoMem", op.ArityAny, 0, op.FlagConstlike, 0, op.Methods{})
	OpBad   = op.Register("Bad", op.ArityAny, 0, op.FlagConstlike, 0, op.Methods{})
	OpSync  = op.Register("Sync", op.ArityVariable, -1, op.FlagUsesMemory, 0, op.Methods{})
	OpTuple = op.Register("Tuple", op.ArityVariable, -1, 0, 0, op.Methods{})
	OpJmp   = op.Register("Jmp", op.ArityAny, 0, op.FlagCfOpcode, 0, op.Methods{})

	OpPhi = op.Register("Phi", op.ArityVariable, -1, 0, 0, op.Methods{
		Verify: verifyPhi,
	})

	OpConst = op.Register("Const", op.ArityAny, 0, op.FlagConstlike, attrSizeConst, op.Methods{
		Hash:  hashConst,
		Equal: equalConst,
		Dump:  dumpConst,
	})

	OpAdd = op.Register("Add", op.ArityBinary, 2, op.FlagCommutative, 0, op.Methods{
		Hash:      hashCommutativeBinary,
		Equal:     equalCommutativeBinary,
		Transform: transformAdd,
	})
	OpSub = op.Register("Sub", op.ArityBinary, 2, 0, 0, op.Methods{
		Hash:  hashBinary,
		Equal: equalBinary,
	})
	OpMul = op.Register("Mul", op.ArityBinary, 2, op.FlagCommutative, 0, op.Methods{
		Hash:  hashCommutativeBinary,
		Equal: equalCommutativeBinary,
	})
	OpXor = op.Register("Xor", op.ArityBinary, 2, op.FlagCommutative, 0, op.Methods{
		Hash:  hashCommutativeBinary,
		Equal: equalCommutativeBinary,
	})
	OpShl = op.Register("Shl", op.ArityBinary, 2, 0, 0, op.Methods{
		Hash:  hashBinary,
		Equal: equalBinary,
	})

	OpCmp = op.Register("Cmp", op.ArityBinary, 2, op.FlagFragile, attrSizeCmp, op.Methods{
		Hash: hashBinary,
	})
	OpCond = op.Register("Cond", op.ArityUnary, 1, op.FlagCfOpcode|op.FlagForking, 0, op.Methods{})
	OpTest = op.Register("Test", op.ArityBinary, 2, 0, 0, op.Methods{
		Hash:  hashBinary,
		Equal: equalBinary,
	})

	OpLoad  = op.Register("Load", op.ArityBinary, 2, op.FlagFragile|op.FlagUsesMemory, 0, op.Methods{})
	OpStore = op.Register("Store", op.ArityVariable, -1, op.FlagFragile|op.FlagUsesMemory, 0, op.Methods{
		Transform: transformStoreToPush,
	})
	OpCall   = op.Register("Call", op.ArityVariable, -1, op.FlagFragile|op.FlagUsesMemory, 0, op.Methods{})
	OpReturn = op.Register("Return", op.ArityVariable, -1, op.FlagCfOpcode, 0, op.Methods{})

	OpIncSP = op.Register("IncSP", op.ArityUnary, 1, 0, attrSizeIncSP, op.Methods{})
	OpPush  = op.Register("Push", op.ArityVariable, -1, op.FlagUsesMemory, 0, op.Methods{})
)

func verifyPhi(n op.Node) error {
	nd, ok := n.(*Node)
	if !ok {
		return nil
	}
	blk := nd.Block()
	if blk == nil {
		return nil
	}
	if len(nd.ins)-1 != blk.Arity() {
		return errPhiArity
	}
	return nil
}

var errPhiArity = phiArityError{}

type phiArityError struct{}

func (phiArityError) Error() string { return "phi input count does not match owning block's predecessor count" }

// hashBinary/equalBinary are the op.Methods defaults for an
// order-sensitive binary op: hash/equal fold in operation identity,
// mode, and positional inputs (§6.5's stated default: "FNV-1a over
// operation pointer, mode, and input pointers").
func hashBinary(n op.Node) uint32 {
	nd := n.(*Node)
	h := hashutil.String(nd.op.Name)
	h = hashutil.Combine(h, hashutil.String(nd.mode.Name()))
	for _, in := range nd.ins {
		h = hashutil.Combine(h, hashutil.Ptr(nodePtr(in)))
	}
	return h
}

func equalBinary(a, b op.Node) bool {
	na, nb := a.(*Node), b.(*Node)
	if na.op != nb.op || na.mode != nb.mode || len(na.ins) != len(nb.ins) {
		return false
	}
	for i := range na.ins {
		if na.ins[i] != nb.ins[i] {
			return false
		}
	}
	return true
}

// hashCommutativeBinary/equalCommutativeBinary canonicalize the two
// data operands (inputs 1 and 2; input 0 is the block) before hashing/
// comparing, so Add(a,b) and Add(b,a) land in the same CSE bucket.
func hashCommutativeBinary(n op.Node) uint32 {
	nd := n.(*Node)
	if len(nd.ins) != 3 {
		return hashBinary(n)
	}
	x, y := nodePtr(nd.ins[1]), nodePtr(nd.ins[2])
	hx, hy := hashutil.Ptr(x), hashutil.Ptr(y)
	if hx > hy {
		hx, hy = hy, hx
	}
	h := hashutil.String(nd.op.Name)
	h = hashutil.Combine(h, hashutil.String(nd.mode.Name()))
	h = hashutil.Combine(h, hashutil.Ptr(nodePtr(nd.ins[0])))
	h = hashutil.Combine(h, hx)
	h = hashutil.Combine(h, hy)
	return h
}

func equalCommutativeBinary(a, b op.Node) bool {
	na, nb := a.(*Node), b.(*Node)
	if na.op != nb.op || na.mode != nb.mode || len(na.ins) != len(nb.ins) || len(na.ins) != 3 {
		return equalBinary(a, b)
	}
	if na.ins[0] != nb.ins[0] {
		return false
	}
	direct := na.ins[1] == nb.ins[1] && na.ins[2] == nb.ins[2]
	swapped := na.ins[1] == nb.ins[2] && na.ins[2] == nb.ins[1]
	return direct || swapped
}

// transformAdd implements the Const(0) identity fold: Add(x, 0) -> x.
// Registered as Add's Methods.Transform, invoked by pkg/rewrite's
// peephole driver.
func transformAdd(n op.Node) (op.Node, bool) {
	nd := n.(*Node)
	if len(nd.ins) != 3 {
		return n, false
	}
	if c, ok := nd.ins[2].attr.(*ConstAttr); ok && c.Value.IsNull() {
		return nd.ins[1], true
	}
	if c, ok := nd.ins[1].attr.(*ConstAttr); ok && c.Value.IsNull() {
		return nd.ins[2], true
	}
	return n, false
}

// transformStoreToPush implements the IncSP(+k); Store -> Push fusion:
// a Store whose address is the stack pointer after a preceding IncSP
// reservation collapses into a single Push carrying the
// pre-adjustment pointer, the same fold ia32_optimize.c applies before
// instruction selection.
func transformStoreToPush(n op.Node) (op.Node, bool) {
	nd := n.(*Node)
	if len(nd.ins) != 4 {
		return n, false
	}
	mem, addr, val := nd.ins[1], nd.ins[2], nd.ins[3]
	incsp, ok := addr.attr.(*IncSPAttr)
	if !ok || incsp.Offset <= 0 {
		return n, false
	}
	push := nd.graph.NewPush(nd.Block(), mem, addr.ins[1], val)
	return push, true
}

func hashConst(n op.Node) uint32 {
	nd := n.(*Node)
	c, ok := nd.attr.(*ConstAttr)
	if !ok {
		return hashutil.String(nd.op.Name)
	}
	h := hashutil.String("Const")
	h = hashutil.Combine(h, hashutil.String(nd.mode.Name()))
	if c.Value.Mode().IsFloat() {
		h = hashutil.Combine(h, uint32(c.Value.Float64()))
	} else {
		h = hashutil.Combine(h, uint32(c.Value.Int64()))
	}
	return h
}

func equalConst(a, b op.Node) bool {
	na, nb := a.(*Node), b.(*Node)
	if na.mode != nb.mode {
		return false
	}
	ca, oka := na.attr.(*ConstAttr)
	cb, okb := nb.attr.(*ConstAttr)
	if !oka || !okb {
		return false
	}
	return tarval.Compare(ca.Value, cb.Value) == tarval.RelationEqual
}

func dumpConst(n op.Node) string {
	nd := n.(*Node)
	if c, ok := nd.attr.(*ConstAttr); ok {
		return "Const " + nd.mode.Name() + " " + nodeConstText(c)
	}
	return "Const"
}

func nodeConstText(c *ConstAttr) string {
	if c.Value.Mode().IsFloat() {
		return floatText(c.Value.Float64())
	}
	return intText(c.Value.Int64())
}
