// Package domtree computes dominance and post-dominance over a graph's
// control-flow subgraph: immediate dominator, tree depth, pre-order
// number per block, plus dominates/smallest-common-dominator queries.
// Dominates walks the immediate-dominator chain, so it costs O(depth);
// it does not answer queries by pre/post-number containment.
//
// Grounded on original_source/include/libfirm/irdom.h for the exact
// field semantics and unreachable-block sentinels. The
// fixed-point computation itself follows Cooper/Harvey/Kennedy's
// "Simple, Fast Dominance Algorithm" rather than literally reproducing
// Lengauer-Tarjan's DFS/link-eval machinery — it computes the same
// dominator tree and is the iterative variant libFirm's own comments
// describe falling back to for smaller graphs.
package domtree

import "github.com/oisee/ssagraph/pkg/irgraph"

const unreachableDepth = -1
const unreachablePreNum = -1

// Info holds one direction's (forward or post-) dominance results for a
// graph.
type Info struct {
	idom    map[*irgraph.Node]*irgraph.Node
	depth   map[*irgraph.Node]int
	preNum  map[*irgraph.Node]int
	order   []*irgraph.Node // blocks in the order preNum assigns, for iteration
	root    *irgraph.Node
}

// Idom returns b's immediate dominator, or nil if b is unreachable from
// the tree root.
func (in *Info) Idom(b *irgraph.Node) *irgraph.Node {
	if in.depth[b] == unreachableDepth {
		return nil
	}
	return in.idom[b]
}

// Depth returns b's tree depth (root is 0), or -1 if unreachable.
func (in *Info) Depth(b *irgraph.Node) int { return in.depth[b] }

// PreNum returns b's pre-order number, or -1 if unreachable.
func (in *Info) PreNum(b *irgraph.Node) int { return in.preNum[b] }

// Dominates reports whether a dominates b (non-strict: a dominates a).
func (in *Info) Dominates(a, b *irgraph.Node) bool {
	if in.depth[a] == unreachableDepth || in.depth[b] == unreachableDepth {
		return false
	}
	if a == b {
		return true
	}
	for cur := b; cur != nil; cur = in.idom[cur] {
		if cur == a {
			return true
		}
		if cur == in.root {
			break
		}
	}
	return false
}

// StrictlyDominates reports whether a strictly dominates b.
func (in *Info) StrictlyDominates(a, b *irgraph.Node) bool {
	return a != b && in.Dominates(a, b)
}

// SmallestCommonDominator walks up from the deeper node, then jointly,
// until the two paths meet (O(tree height), per §4.5).
func (in *Info) SmallestCommonDominator(a, b *irgraph.Node) *irgraph.Node {
	if in.depth[a] == unreachableDepth || in.depth[b] == unreachableDepth {
		return nil
	}
	for in.depth[a] > in.depth[b] {
		a = in.idom[a]
	}
	for in.depth[b] > in.depth[a] {
		b = in.idom[b]
	}
	for a != b {
		a = in.idom[a]
		b = in.idom[b]
	}
	return a
}

// ComputeDominance computes forward dominance rooted at g's StartBlock.
func ComputeDominance(g *irgraph.Graph) *Info {
	return compute(g, g.StartBlock(), forwardSuccessors(g))
}

// ComputePostDominance computes post-dominance rooted at g's EndBlock,
// over the reversed CFG. Endless loops that never reach End receive the
// same unreachable sentinels as forward-unreachable blocks (§4.5).
func ComputePostDominance(g *irgraph.Graph) *Info {
	return compute(g, g.EndBlock(), backwardSuccessors(g))
}

func allBlocks(g *irgraph.Graph) []*irgraph.Node {
	var out []*irgraph.Node
	n := g.NodeCount()
	for i := 0; i < n; i++ {
		node := g.NodeByIndex(i)
		if node != nil && node.Op() == irgraph.OpBlock {
			out = append(out, node)
		}
	}
	return out
}

// forwardSuccessors returns, for block b, the Blocks whose cfgpred list
// contains a node owned by b (i.e. b's control-flow successors).
func forwardSuccessors(g *irgraph.Graph) func(*irgraph.Node) []*irgraph.Node {
	blocks := allBlocks(g)
	return func(b *irgraph.Node) []*irgraph.Node {
		var out []*irgraph.Node
		for _, blk := range blocks {
			for _, pred := range blk.In() {
				if pred == b || (pred != nil && pred.Op() != irgraph.OpBlock && pred.Block() == b) {
					out = append(out, blk)
					break
				}
			}
		}
		return out
	}
}

// backwardSuccessors returns, for block b, b's cfgpred Blocks directly
// (the predecessors become "successors" once the CFG is reversed for
// post-dominance).
func backwardSuccessors(g *irgraph.Graph) func(*irgraph.Node) []*irgraph.Node {
	return func(b *irgraph.Node) []*irgraph.Node {
		var out []*irgraph.Node
		for _, pred := range b.In() {
			if pred != nil && pred.Op() == irgraph.OpBlock {
				out = append(out, pred)
			}
		}
		return out
	}
}

func compute(g *irgraph.Graph, root *irgraph.Node, succ func(*irgraph.Node) []*irgraph.Node) *Info {
	blocks := allBlocks(g)

	// Reverse post-order DFS from root establishes both the iteration
	// order the fixed point needs and the pre-order numbering callers
	// query.
	visited := map[*irgraph.Node]bool{}
	var rpo []*irgraph.Node
	var preNum = map[*irgraph.Node]int{}
	counter := 0
	var dfs func(*irgraph.Node)
	dfs = func(b *irgraph.Node) {
		if b == nil || visited[b] {
			return
		}
		visited[b] = true
		preNum[b] = counter
		counter++
		for _, s := range succ(b) {
			dfs(s)
		}
		rpo = append(rpo, b)
	}
	dfs(root)
	// rpo currently holds post-order; reverse for reverse-post-order.
	for i, j := 0, len(rpo)-1; i < j; i, j = i+1, j-1 {
		rpo[i], rpo[j] = rpo[j], rpo[i]
	}

	predOf := predecessorFunc(blocks, succ)

	idom := map[*irgraph.Node]*irgraph.Node{root: root}
	order := map[*irgraph.Node]int{}
	for i, b := range rpo {
		order[b] = i
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == root {
				continue
			}
			var newIdom *irgraph.Node
			for _, p := range predOf(b) {
				if !visited[p] {
					continue
				}
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, order)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	depth := map[*irgraph.Node]int{}
	for _, b := range blocks {
		if !visited[b] {
			depth[b] = unreachableDepth
			preNum[b] = unreachablePreNum
		}
	}
	depth[root] = 0
	var assignDepth func(*irgraph.Node) int
	assignDepth = func(b *irgraph.Node) int {
		if d, ok := depth[b]; ok {
			return d
		}
		d := assignDepth(idom[b]) + 1
		depth[b] = d
		return d
	}
	for _, b := range rpo {
		assignDepth(b)
	}

	return &Info{idom: idom, depth: depth, preNum: preNum, order: rpo, root: root}
}

func predecessorFunc(blocks []*irgraph.Node, succ func(*irgraph.Node) []*irgraph.Node) func(*irgraph.Node) []*irgraph.Node {
	preds := map[*irgraph.Node][]*irgraph.Node{}
	for _, b := range blocks {
		for _, s := range succ(b) {
			preds[s] = append(preds[s], b)
		}
	}
	return func(b *irgraph.Node) []*irgraph.Node { return preds[b] }
}

// intersect finds the two fingers' common ancestor in the (partial)
// dominator tree. order is rpo position (root = 0, increasing away from
// root), the opposite numeric direction of the classic algorithm's
// postorder numbers, so the finger with the LARGER order (farther from
// root) is the one that walks up at each step.
func intersect(a, b *irgraph.Node, idom map[*irgraph.Node]*irgraph.Node, order map[*irgraph.Node]int) *irgraph.Node {
	for a != b {
		for order[a] > order[b] {
			a = idom[a]
		}
		for order[b] > order[a] {
			b = idom[b]
		}
	}
	return a
}
