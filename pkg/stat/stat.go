// Package stat implements the statistics configuration and counter
// collection of §6.4: an enable bitmask naming which counter families
// are active, a graph-name pattern filter, and a hook-driven consumer
// that increments atomic counters as pkg/hooks events fire.
//
// Grounded on original_source/ir/stat/firmstat.c for the option names
// (enabled, pattern, count_strong_op, count_dag, count_deleted,
// count_sels, count_consts, csv_output); the counter struct itself
// (atomic fields behind a snapshot method) follows the teacher's
// WorkerPool atomic.Int64 fields and Stats() snapshot method
// (pkg/search/worker.go).
package stat

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/oisee/ssagraph/pkg/hooks"
	"github.com/oisee/ssagraph/pkg/irgraph"
)

// Option is the statistics-enable bitmask (§6.4's documented option
// set).
type Option uint16

const (
	OptEnabled Option = 1 << iota
	OptPattern
	OptCountStrongOp
	OptCountDAG
	OptCountDeleted
	OptCountSels
	OptCountConsts
	OptCSVOutput
)

// Has reports whether o includes bit.
func (o Option) Has(bit Option) bool { return o&bit != 0 }

// Config holds the statistics module's configuration: which option
// bits are active and the entity-name substring filter ("pattern").
type Config struct {
	Options Option
	Pattern string
}

// Matches reports whether entity passes this config's pattern filter
// (a plain substring match, per §6.4).
func (c Config) Matches(entity string) bool {
	if c.Pattern == "" {
		return true
	}
	return strings.Contains(entity, c.Pattern)
}

// Counters is the live counter set a StatHook accumulates into.
// Snapshotting is lock-free (atomic loads), matching the teacher's
// WorkerPool.Stats() pattern.
type Counters struct {
	strongOps atomic.Int64
	dagNodes  atomic.Int64
	deleted   atomic.Int64
	sels      atomic.Int64
	consts    atomic.Int64
}

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	StrongOps int64
	DAGNodes  int64
	Deleted   int64
	Sels      int64
	Consts    int64
}

// Snapshot reads every counter without blocking writers.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		StrongOps: c.strongOps.Load(),
		DAGNodes:  c.dagNodes.Load(),
		Deleted:   c.deleted.Load(),
		Sels:      c.sels.Load(),
		Consts:    c.consts.Load(),
	}
}

// CSV renders the snapshot as the single-line record §6.4's
// csv_output option requests.
func (s Snapshot) CSV() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d", s.StrongOps, s.DAGNodes, s.Deleted, s.Sels, s.Consts)
}

// StatHook subscribes a Counters set to a hooks.Registry's node
// lifecycle events, honoring cfg's enabled option bits and pattern
// filter.
type StatHook struct {
	cfg      Config
	counters *Counters
}

// NewStatHook returns a StatHook that only increments the counter
// families cfg.Options enables and, when cfg.Options has OptPattern,
// only counts for graphs whose entity name matches cfg.Pattern.
func NewStatHook(cfg Config) *StatHook {
	return &StatHook{cfg: cfg, counters: &Counters{}}
}

// Counters exposes the accumulated counter set.
func (h *StatHook) Counters() *Counters { return h.counters }

// Install registers this hook's subscribers on r for new_node
// (strong-op / DAG / const counting; nothing increments the sels
// counter) and free_ir_op-style deletion
// counting (dead_node_elim_stop carries the deleted-node count in this
// module's usage). A no-op if OptEnabled is not set.
func (h *StatHook) Install(r *hooks.Registry) {
	if !h.cfg.Options.Has(OptEnabled) {
		return
	}
	r.RegisterOnce(hooks.EventNewNode, "stat-new-node", h.onNewNode)
	r.RegisterOnce(hooks.EventDeadNodeElimStop, "stat-dead-node-elim", h.onDeadNodeElim)
}

func (h *StatHook) onNewNode(args ...any) {
	if len(args) == 0 {
		return
	}
	n, ok := args[0].(*irgraph.Node)
	if !ok || n == nil {
		return
	}
	if h.cfg.Options.Has(OptPattern) && !h.cfg.Matches(n.Graph().Entity()) {
		return
	}
	if h.cfg.Options.Has(OptCountConsts) && n.Op() == irgraph.OpConst {
		h.counters.consts.Add(1)
	}
	if h.cfg.Options.Has(OptCountStrongOp) && isStrongOp(n) {
		h.counters.strongOps.Add(1)
	}
	if h.cfg.Options.Has(OptCountDAG) {
		h.counters.dagNodes.Add(1)
	}
}

func (h *StatHook) onDeadNodeElim(args ...any) {
	if !h.cfg.Options.Has(OptCountDeleted) || len(args) == 0 {
		return
	}
	if n, ok := args[0].(int64); ok {
		h.counters.deleted.Add(n)
	}
}

// isStrongOp reports whether n's op is one firmstat.c's count_strong_op
// tallies: arithmetic and comparison, as opposed to bookkeeping nodes
// (Block, Proj, Sync, Tuple, Phi).
func isStrongOp(n *irgraph.Node) bool {
	switch n.Op() {
	case irgraph.OpAdd, irgraph.OpSub, irgraph.OpMul, irgraph.OpXor, irgraph.OpShl, irgraph.OpCmp:
		return true
	default:
		return false
	}
}
