package irgraph

// Visitor is called once per node during a walk. env is the caller's
// opaque environment, threaded through unchanged (§4.7).
type Visitor func(n *Node, env any)

// bumpVisited advances the graph's global visited counter and returns
// it; comparing a node's stored visited number against this value is
// the O(1) "already visited" predicate, avoiding an O(nodes) reset
// between walks.
func (g *Graph) bumpVisited() uint64 {
	g.globalVisited++
	return g.globalVisited
}

func (g *Graph) bumpBlockVisited() uint64 {
	g.blockVisited++
	return g.blockVisited
}

// WalkTopological visits every node reachable from End in post-order
// over inputs: every input is visited before the node itself, ties
// broken by input index (§5's determinism guarantee, tested as P10).
// pre is called on first discovery (may be nil); post after all inputs
// are done (may be nil).
func (g *Graph) WalkTopological(pre, post Visitor, env any) {
	mark := g.bumpVisited()
	g.walkAnchorsThen(mark, pre, post, env, g.End())
}

func (g *Graph) walkAnchorsThen(mark uint64, pre, post Visitor, env any, roots ...*Node) {
	for a := Anchor(0); a < anchorCount; a++ {
		g.walkTopo(g.anchors[a], mark, pre, post, env)
	}
	for _, r := range roots {
		g.walkTopo(r, mark, pre, post, env)
	}
}

func (g *Graph) walkTopo(n *Node, mark uint64, pre, post Visitor, env any) {
	if n == nil || n.visited == mark {
		return
	}
	n.visited = mark
	if pre != nil {
		pre(n, env)
	}
	for _, in := range n.ins {
		g.walkTopo(in, mark, pre, post, env)
	}
	for _, d := range n.deps {
		g.walkTopo(d, mark, pre, post, env)
	}
	if post != nil {
		post(n, env)
	}
}

// WalkBlockWise walks Blocks in reverse post-order over the CFG, then
// within each Block walks its non-Block nodes in topological (data-edge)
// order.
func (g *Graph) WalkBlockWise(pre, post Visitor, env any) {
	order := g.reversePostOrderBlocks()
	mark := g.bumpVisited()
	for _, blk := range order {
		g.walkTopo(blk, mark, pre, post, env)
		for _, n := range g.NodesInBlock(blk) {
			g.walkTopo(n, mark, pre, post, env)
		}
	}
}

// reversePostOrderBlocks computes block order via DFS over cfgpred
// edges starting at StartBlock, matching §5's "reverse post-order over
// the CFG" ordering guarantee.
func (g *Graph) reversePostOrderBlocks() []*Node {
	mark := g.bumpBlockVisited()
	var postOrder []*Node
	var visit func(b *Node)
	visit = func(b *Node) {
		if b == nil || b.blockVisited == mark {
			return
		}
		b.blockVisited = mark
		for _, succ := range g.blockSuccessors(b) {
			visit(succ)
		}
		postOrder = append(postOrder, b)
	}
	visit(g.StartBlock())
	// reverse
	out := make([]*Node, len(postOrder))
	for i, b := range postOrder {
		out[len(postOrder)-1-i] = b
	}
	return out
}

// blockSuccessors scans the graph's nodes for Jmp/Cond/Return nodes
// whose owning block is b, returning the Blocks their control-flow
// output feeds (via Proj->Block chains, represented directly as the
// cfgpred edges on the target Blocks instead — simpler: a block b's
// successors are any Block in the arena that lists a control-flow
// producer in b among its cfgpred inputs).
func (g *Graph) blockSuccessors(b *Node) []*Node {
	var out []*Node
	g.mu.Lock()
	arena := make([]*Node, len(g.arena))
	copy(arena, g.arena)
	g.mu.Unlock()
	for _, n := range arena {
		if n == nil || n.op != OpBlock {
			continue
		}
		for _, pred := range n.ins {
			if pred != nil && pred.graph == b.graph && predBelongsToBlock(pred, b) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func predBelongsToBlock(pred, b *Node) bool {
	if pred.op == OpBlock {
		return pred == b
	}
	return pred.Block() == b
}

// NodesInBlock returns every non-Block node whose input 0 is b, in
// arena (allocation) order — a stable, if not dataflow-ordered, default
// suitable for dump/debug output; real schedulers reorder with a
// dedicated scheduling pass not modeled here.
func (g *Graph) NodesInBlock(b *Node) []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*Node
	for _, n := range g.arena {
		if n == nil || n == b || n.op == OpBlock {
			continue
		}
		if n.Block() == b {
			out = append(out, n)
		}
	}
	return out
}
