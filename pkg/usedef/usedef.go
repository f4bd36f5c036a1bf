// Package usedef implements the reverse-edge (use-list) index: an
// on-demand, per-graph map from a defining node to every (using node,
// input position) pair that references it.
//
// Grounded on original_source/ir/adt/pmap.c — the pointer-map ADT the
// original backs its use-list with — translated to a native Go
// map[*irgraph.Node][]Use per spec.md's own instruction to replace
// hashmap/pointer-map ADTs wholesale with host containers.
package usedef

import "github.com/oisee/ssagraph/pkg/irgraph"

// Use names one (using node, input position) edge.
type Use struct {
	User *irgraph.Node
	Pos  int
}

// Index is the reverse-edge table for one graph. Not safe for
// concurrent use — matches the graph's own single-logical-agent
// mutation model (spec.md §5).
type Index struct {
	g      *irgraph.Graph
	uses   map[*irgraph.Node][]Use
	active bool
}

// New returns an inactive index bound to g. Call Activate before use.
func New(g *irgraph.Graph) *Index {
	return &Index{g: g, uses: make(map[*irgraph.Node][]Use)}
}

// Active reports whether the index is currently mirroring edges.
func (idx *Index) Active() bool { return idx.active }

// Activate builds the index from the current inputs of every node in the
// graph's arena and begins mirroring future edits. A graph-wide switch,
// per §4.4.
func (idx *Index) Activate() {
	idx.uses = make(map[*irgraph.Node][]Use)
	for j, count := 0, idx.g.NodeCount(); j < count; j++ {
		n := idx.g.NodeByIndex(j)
		if n == nil {
			continue
		}
		for i, in := range n.In() {
			if in == nil {
				continue
			}
			idx.uses[in] = append(idx.uses[in], Use{User: n, Pos: i})
		}
	}
	idx.active = true
}

// Deactivate drops the index atomically (§4.4).
func (idx *Index) Deactivate() {
	idx.uses = nil
	idx.active = false
}

// Uses returns every (user, position) pair currently referencing v.
// Callers must not mutate the returned slice.
func (idx *Index) Uses(v *irgraph.Node) []Use {
	if !idx.active {
		return nil
	}
	return idx.uses[v]
}

// NumUses reports how many live edges reference v.
func (idx *Index) NumUses(v *irgraph.Node) int {
	return len(idx.Uses(v))
}

// NotifySetInput must be called whenever a node's input is rewritten in
// place, while the index is active, so the mirrored edge set keeps the
// §4.4 contract ("for every live node u and input position i such that
// u.inputs[i]=v, exactly one reverse-edge entry (u,i) exists on v").
func (idx *Index) NotifySetInput(user *irgraph.Node, pos int, oldVal, newVal *irgraph.Node) {
	if !idx.active {
		return
	}
	if oldVal != nil {
		idx.remove(oldVal, user, pos)
	}
	if newVal != nil {
		idx.uses[newVal] = append(idx.uses[newVal], Use{User: user, Pos: pos})
	}
}

// NotifyNewNode must be called right after a node is constructed while
// the index is active, registering its inputs.
func (idx *Index) NotifyNewNode(n *irgraph.Node) {
	if !idx.active {
		return
	}
	for i, in := range n.In() {
		if in != nil {
			idx.uses[in] = append(idx.uses[in], Use{User: n, Pos: i})
		}
	}
}

// NotifyKill must be called when a node is killed, removing every edge
// it was the source of (its uses of other nodes), though not the
// entries for uses of itself — those must already be empty for a kill
// to be valid (see pkg/rewrite.Kill).
func (idx *Index) NotifyKill(n *irgraph.Node) {
	if !idx.active {
		return
	}
	for i, in := range n.In() {
		if in != nil {
			idx.remove(in, n, i)
		}
	}
	delete(idx.uses, n)
}

func (idx *Index) remove(v, user *irgraph.Node, pos int) {
	list := idx.uses[v]
	for i, u := range list {
		if u.User == user && u.Pos == pos {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	idx.uses[v] = list
}

// WalkOuts performs the outs-order walk (§4.7's third strategy):
// post-order over the reverse-edge index, mirroring topological order
// with edges reversed. Requires the index to be active.
func (idx *Index) WalkOuts(pre, post func(n *irgraph.Node), root *irgraph.Node) {
	if !idx.active {
		return
	}
	visited := make(map[*irgraph.Node]bool)
	var visit func(n *irgraph.Node)
	visit = func(n *irgraph.Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		if pre != nil {
			pre(n)
		}
		for _, u := range idx.Uses(n) {
			visit(u.User)
		}
		if post != nil {
			post(n)
		}
	}
	visit(root)
}
