// Package rewrite implements the four substitution primitives of the
// rewriting engine (§4.8): exchange, kill, CSE, and peephole dispatch
// over a priority worklist.
//
// exchange/kill/CSE are grounded directly on spec.md §4.8's contract;
// the priority worklist is grounded on Go-zh-go.old's ssa/schedule.go
// ValHeap (container/heap.Interface over a slice with a per-node score)
// — the same pack repo pkg/domtree already draws sparse-tree-query idiom
// from, reused here purely for the worklist shape since no pack repo
// ships a dedicated priority-queue library.
package rewrite

import (
	"container/heap"
	"unsafe"

	"github.com/oisee/ssagraph/pkg/hashutil"
	"github.com/oisee/ssagraph/pkg/irgraph"
	"github.com/oisee/ssagraph/pkg/op"
	"github.com/oisee/ssagraph/pkg/usedef"
)

// Engine bundles a graph with the optional reverse-edge index exchange
// and CSE consult when available; without an active index, exchange
// falls back to a full walk (§4.8: "Requires either reverse edges or a
// full walk").
type Engine struct {
	g   *irgraph.Graph
	idx *usedef.Index
}

// New returns an Engine over g. idx may be nil; if non-nil and active,
// exchange/kill use it instead of a full-graph walk.
func New(g *irgraph.Graph, idx *usedef.Index) *Engine {
	return &Engine{g: g, idx: idx}
}

// Exchange rewrites every use of old to replacement, leaving old
// allocated but orphan (§4.8 primitive 1). With an active index it
// rewrites the users the index lists; otherwise it scans every node in
// the arena. Exchange fires no pkg/hooks event: this package does not
// import pkg/hooks.
func (e *Engine) Exchange(old, replacement *irgraph.Node) {
	if e.idx != nil && e.idx.Active() {
		for _, u := range append([]usedef.Use{}, e.idx.Uses(old)...) {
			oldVal := u.User.Input(u.Pos)
			u.User.SetInput(u.Pos, replacement)
			e.idx.NotifySetInput(u.User, u.Pos, oldVal, replacement)
		}
		return
	}
	for i, count := 0, e.g.NodeCount(); i < count; i++ {
		n := e.g.NodeByIndex(i)
		if n == nil {
			continue
		}
		for j, in := range n.In() {
			if in == old {
				n.SetInput(j, replacement)
			}
		}
	}
}

// Kill retires a node that is already unused (§4.8 primitive 2). With an
// active reverse-edge index it drops n's own input edges from the index;
// n keeps its inputs and its arena slot (its index is not freed), and
// without an active index Kill does nothing. Panics if the node still
// has live users and the reverse-edge
// index is active to check — this is an internal-ADT-failure class
// error per §7 ("arena exhausted, index overflow" and friends: calling
// Kill on a live node is the same class of programmer error).
func (e *Engine) Kill(n *irgraph.Node) {
	if e.idx != nil && e.idx.Active() {
		if e.idx.NumUses(n) != 0 {
			panic("rewrite: Kill called on a node with live uses")
		}
		e.idx.NotifyKill(n)
	}
}

// CSETable is a per-graph hash-set of live nodes keyed by (op, mode,
// attrs, inputs), used to detect and merge structurally-identical
// nodes as they're constructed (§4.8 primitive 4).
type CSETable struct {
	buckets map[uint32][]*irgraph.Node
}

// NewCSETable returns an empty table.
func NewCSETable() *CSETable {
	return &CSETable{buckets: make(map[uint32][]*irgraph.Node)}
}

// cseEligible reports whether n participates in CSE at all: disabled
// for cse-neutral ops, and constlike ops are excluded in certain dumper
// contexts per §4.8 — here always included for constlike, since this
// table has no dumper-context notion; callers needing that distinction
// filter before calling Insert.
func cseEligible(n *irgraph.Node) bool {
	return !n.Op().Flags.Has(op.FlagCseNeutral)
}

func hashOf(n *irgraph.Node) uint32 {
	if n.Op().Methods.Hash != nil {
		return n.Op().Methods.Hash(n)
	}
	return defaultHash(n)
}

// defaultHash is §6.5's stated fallback: FNV-1a over operation pointer,
// mode, and input pointers.
func defaultHash(n *irgraph.Node) uint32 {
	h := hashutil.String(n.Op().Name)
	h = hashutil.Combine(h, hashutil.String(n.Mode().Name()))
	for _, in := range n.In() {
		h = hashutil.Combine(h, hashutil.Ptr(unsafe.Pointer(in)))
	}
	return h
}

func equalOf(a, b *irgraph.Node) bool {
	if a.Op() != b.Op() {
		return false
	}
	if a.Op().Methods.Equal != nil {
		return a.Op().Methods.Equal(a, b)
	}
	return defaultEqual(a, b)
}

func defaultEqual(a, b *irgraph.Node) bool {
	if a.Mode() != b.Mode() || len(a.In()) != len(b.In()) {
		return false
	}
	for i := range a.In() {
		if a.In()[i] != b.In()[i] {
			return false
		}
	}
	return true
}

// Insert looks up n's (op, mode, attrs, inputs) identity in the table.
// If a structurally-identical live node already exists, Insert returns
// it (P8 — CSE idempotence); otherwise n itself is recorded and
// returned.
func (t *CSETable) Insert(n *irgraph.Node) *irgraph.Node {
	if !cseEligible(n) {
		return n
	}
	h := hashOf(n)
	for _, existing := range t.buckets[h] {
		if equalOf(existing, n) {
			return existing
		}
	}
	t.buckets[h] = append(t.buckets[h], n)
	return n
}

// Remove drops n from the table (called before Kill, or when a node's
// structural identity changes).
func (t *CSETable) Remove(n *irgraph.Node) {
	h := hashOf(n)
	list := t.buckets[h]
	for i, existing := range list {
		if existing == n {
			t.buckets[h] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// worklistItem is one entry in the peephole priority worklist.
type worklistItem struct {
	n     *irgraph.Node
	score int
}

// nodeHeap implements container/heap.Interface, mirroring
// Go-zh-go.old's ValHeap: higher score is popped first (processed
// earlier), ties broken by ascending node index for determinism (§5's
// "two passes over the same graph with the same inputs must produce
// identical rewrites").
type nodeHeap []worklistItem

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].n.Index() < h[j].n.Index()
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(worklistItem)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// PeepholeSession is a scoped acquire-release registration (§4.8
// primitive 3): callers Install handlers for the pass, Run it, then the
// session's handlers are cleared on Close, restoring whatever was in
// each op's Generic slot before (nil, for this engine's usage pattern).
type PeepholeSession struct {
	e         *Engine
	handlers  map[*op.Op]func(*irgraph.Node) (*irgraph.Node, bool)
	saved     map[*op.Op]any
	onRewrite func(old, replacement *irgraph.Node)
}

// Begin opens a peephole session over e's graph.
func (e *Engine) Begin() *PeepholeSession {
	return &PeepholeSession{e: e, handlers: map[*op.Op]func(*irgraph.Node) (*irgraph.Node, bool){}, saved: map[*op.Op]any{}}
}

// OnRewrite installs a callback invoked once per successful rewrite
// during Run, after the exchange has already happened (old is orphan,
// replacement live). Used by pkg/rewritelog to record a session's
// rewrites for regression/checkpoint purposes; nil by default.
func (s *PeepholeSession) OnRewrite(fn func(old, replacement *irgraph.Node)) {
	s.onRewrite = fn
}

// Install registers a peephole handler for operations of kind o,
// saving whatever was previously in o.Generic so Close can restore it.
func (s *PeepholeSession) Install(o *op.Op, handler func(*irgraph.Node) (*irgraph.Node, bool)) {
	if _, ok := s.saved[o]; !ok {
		s.saved[o] = o.Generic
	}
	s.handlers[o] = handler
	o.Generic = handler
}

// Close clears every Generic slot this session touched, restoring the
// prior value.
func (s *PeepholeSession) Close() {
	for o, prev := range s.saved {
		o.Generic = prev
	}
}

// Run drives the peephole worklist: seed with every node in the graph
// scored by input count, then repeatedly pop the highest-scoring node
// (so nodes with more inputs are tried first), try its installed
// handler (falling back to the op's own Methods.Transform), and on a
// successful rewrite exchange the result and push its users back onto
// the worklist so the rewrite can cascade.
func (s *PeepholeSession) Run(idx *usedef.Index) {
	h := &nodeHeap{}
	heap.Init(h)

	n := s.e.g.NodeCount()
	for i := 0; i < n; i++ {
		node := s.e.g.NodeByIndex(i)
		if node != nil {
			heap.Push(h, worklistItem{n: node, score: len(node.In())})
		}
	}

	for h.Len() > 0 {
		item := heap.Pop(h).(worklistItem)
		node := item.n
		if node.IsBad() {
			continue
		}
		handler := s.handlers[node.Op()]
		var replacement *irgraph.Node
		var ok bool
		if handler != nil {
			replacement, ok = handler(node)
		} else if node.Op().Methods.Transform != nil {
			var ron op.Node
			ron, ok = node.Op().Methods.Transform(node)
			if ok {
				replacement = ron.(*irgraph.Node)
			}
		}
		if !ok || replacement == node {
			continue
		}
		s.e.Exchange(node, replacement)
		if s.onRewrite != nil {
			s.onRewrite(node, replacement)
		}
		if idx != nil && idx.Active() {
			for _, u := range idx.Uses(replacement) {
				heap.Push(h, worklistItem{n: u.User, score: len(u.User.In())})
			}
		}
	}
}
