// Package ssacons implements on-the-fly SSA construction (§4.3): a
// frontend-facing variable -> value resolver that lazily inserts Phi
// nodes at block entry, defers completion of Phis in not-yet-matured
// blocks, and collapses trivial Phis as soon as a block matures enough
// to reveal them.
//
// The algorithm (Braun/Click "Simple and Efficient Construction of
// Static Single Assignment Form") is fully specified in spec.md §4.3;
// the ssa_cons_start/ssa_cons_finish reopen-for-late-construction
// semantics are cross-checked against original_source/ir/ir/
// irssacons.c, which spec.md names but does not detail. Go idiom for
// the incomplete-Phi worklist borrows the linked-list-via-scratch-field
// style from other_examples' tmc-mirror-go.tools ssa-lift.go, applied
// to the on-the-fly (not dominance-frontier) construction strategy
// spec.md mandates.
package ssacons

import (
	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/oisee/ssagraph/pkg/tarval"
)

// UndefinedVarFunc is invoked when GetValue finds no definition on any
// path. The default (see Builder.OnUndefined) returns a Bad-tarval
// Const, matching §4.3's stated fallback.
type UndefinedVarFunc func(b *Builder, block *irgraph.Node, v int, m *mode.Mode) *irgraph.Node

type incompletePhi struct {
	v   int
	phi *irgraph.Node
}

// Builder tracks the per-graph local-variable table and incomplete-Phi
// bookkeeping needed to build SSA on the fly. Not safe for concurrent
// use (spec.md §5's single-logical-agent model).
type Builder struct {
	g *irgraph.Graph

	// defs[block][var] = current definition of var at the end of block.
	defs map[*irgraph.Node]map[int]*irgraph.Node

	matured map[*irgraph.Node]bool
	// incomplete[block] holds Phis inserted speculatively while block
	// was still immature, to be completed once it matures.
	incomplete map[*irgraph.Node][]incompletePhi

	onUndefined UndefinedVarFunc
}

// New returns a Builder for g, with every block initially immature.
func New(g *irgraph.Graph) *Builder {
	return &Builder{
		g:          g,
		defs:       make(map[*irgraph.Node]map[int]*irgraph.Node),
		matured:    make(map[*irgraph.Node]bool),
		incomplete: make(map[*irgraph.Node][]incompletePhi),
		onUndefined: func(b *Builder, block *irgraph.Node, v int, m *mode.Mode) *irgraph.Node {
			return b.g.NewConst(block, tarval.Bad)
		},
	}
}

// OnUndefined overrides the callback invoked for a variable read with no
// reaching definition on any control-flow path.
func (b *Builder) OnUndefined(f UndefinedVarFunc) { b.onUndefined = f }

// SetValue records value as the current definition of variable v at the
// end of block.
func (b *Builder) SetValue(block *irgraph.Node, v int, value *irgraph.Node) {
	m := b.defs[block]
	if m == nil {
		m = make(map[int]*irgraph.Node)
		b.defs[block] = m
	}
	m[v] = value
}

// GetValue resolves variable v's current value in block, inserting
// (possibly incomplete) Phis as needed.
func (b *Builder) GetValue(block *irgraph.Node, v int, m *mode.Mode) *irgraph.Node {
	if defs, ok := b.defs[block]; ok {
		if val, ok := defs[v]; ok {
			return val
		}
	}
	return b.getValueRecursive(block, v, m)
}

func (b *Builder) getValueRecursive(block *irgraph.Node, v int, m *mode.Mode) *irgraph.Node {
	var val *irgraph.Node
	if !b.matured[block] {
		// Block not yet sealed: insert an empty Phi now, recorded as
		// incomplete, to be filled in once the block matures.
		phi := b.g.NewPhi(block, m)
		b.incomplete[block] = append(b.incomplete[block], incompletePhi{v: v, phi: phi})
		val = phi
	} else if preds := block.In(); len(preds) == 0 {
		// No predecessor to inherit a definition from: the variable is
		// undefined on every path reaching block.
		val = b.onUndefined(b, block, v, m)
	} else if len(preds) == 1 {
		// Single predecessor: no Phi needed, just recurse.
		val = b.GetValue(preds[0], v, m)
	} else {
		// Break potential cycles: insert the Phi before recursing into
		// predecessors, so a self-referencing read returns this same
		// node instead of looping forever.
		phi := b.g.NewPhi(block, m)
		b.SetValue(block, v, phi)
		val = b.addPhiOperands(block, v, phi, m)
	}
	b.SetValue(block, v, val)
	return val
}

// addPhiOperands fills phi's inputs from every control-flow predecessor
// of block, in positional order, then tries to collapse it if trivial.
func (b *Builder) addPhiOperands(block *irgraph.Node, v int, phi *irgraph.Node, m *mode.Mode) *irgraph.Node {
	for _, pred := range block.In() {
		phi.AddInput(b.GetValue(pred, v, m))
	}
	return b.tryRemoveTrivialPhi(phi)
}

// Mature marks block matured: any Phi inserted speculatively while it
// was immature is now completed using the final predecessor list.
func (b *Builder) Mature(block *irgraph.Node) {
	b.matured[block] = true
	pending := b.incomplete[block]
	delete(b.incomplete, block)
	for _, ip := range pending {
		b.addPhiOperands(block, ip.v, ip.phi, ip.phi.Mode())
	}
}

// tryRemoveTrivialPhi implements §4.3's trivial-Phi collapse: a Phi
// with k non-self distinct inputs collapses to Bad (k=0) or its sole
// operand (k=1), propagating the rewrite to every use via a worklist
// since that may render other Phis trivial in turn.
func (b *Builder) tryRemoveTrivialPhi(phi *irgraph.Node) *irgraph.Node {
	var same *irgraph.Node
	for _, op := range phi.In()[1:] { // skip input 0, the owning block
		if op == phi || op == same {
			continue
		}
		if same != nil {
			// More than one distinct non-self operand: not trivial.
			return phi
		}
		same = op
	}

	var replacement *irgraph.Node
	if same == nil {
		replacement = b.g.NewConst(phi.Block(), tarval.Bad)
	} else {
		replacement = same
	}

	users := b.usersOf(phi)
	b.replaceAllUses(phi, replacement)
	for _, defs := range b.defs {
		for v, val := range defs {
			if val == phi {
				defs[v] = replacement
			}
		}
	}
	// Detach the collapsed Phi: with no operands and Bad as its block
	// input it no longer counts among its former block's nodes.
	for phi.Arity() > 1 {
		phi.RemoveInput(phi.Arity() - 1)
	}
	phi.SetInput(0, b.g.Bad())

	for _, u := range users {
		if u.Op() == irgraph.OpPhi && u != phi {
			b.tryRemoveTrivialPhi(u)
		}
	}
	return replacement
}

// usersOf does a full-graph scan for nodes referencing phi, used only
// during construction before pkg/usedef's reverse-edge index is active
// — SSA construction happens before CSE/rewriting, so this runs once
// per collapsed Phi, not per rewrite.
func (b *Builder) usersOf(target *irgraph.Node) []*irgraph.Node {
	var out []*irgraph.Node
	for i, count := 0, b.g.NodeCount(); i < count; i++ {
		n := b.g.NodeByIndex(i)
		if n == nil {
			continue
		}
		for _, in := range n.In() {
			if in == target {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func (b *Builder) replaceAllUses(old, replacement *irgraph.Node) {
	for _, n := range b.usersOf(old) {
		for i, in := range n.In() {
			if in == old {
				n.SetInput(i, replacement)
			}
		}
	}
}

// Reopen corresponds to ssa_cons_start/ssa_cons_finish: a frontend doing
// a late transformation may mark already-matured blocks immature again
// (Reopen), issue further SetValue/GetValue calls, then call Close to
// re-mature every block it touched.
type Reopened struct {
	b      *Builder
	blocks []*irgraph.Node
}

// Reopen reopens the given matured blocks for further SSA construction.
func (b *Builder) Reopen(blocks ...*irgraph.Node) *Reopened {
	for _, blk := range blocks {
		delete(b.matured, blk)
	}
	return &Reopened{b: b, blocks: blocks}
}

// Close re-matures every block this Reopened session touched.
func (r *Reopened) Close() {
	for _, blk := range r.blocks {
		r.b.Mature(blk)
	}
}
