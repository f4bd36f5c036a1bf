// Package passmgr implements the analysis cache / consistency-flag
// machinery of §4.9: idempotent assure_X / free_X pairs over a graph's
// Properties bitset, so a pass can request "dominance must be
// consistent" without caring whether a prior pass already computed it.
//
// Grounded on spec.md §4.9 directly; the idempotent-recompute-if-clear
// pattern mirrors the teacher's WorkerPool.Stats() lazy-read style
// (pkg/search/worker.go), generalized here from "read cached counters"
// to "recompute and cache an analysis result".
package passmgr

import "github.com/oisee/ssagraph/pkg/irgraph"

// Recompute produces (or refreshes) the analysis result that backs one
// Properties flag. Registered per-flag via Manager.Register.
type Recompute func(g *irgraph.Graph) any

// Manager holds one graph's registered recompute functions and cached
// results, keyed by the Properties bit each protects.
type Manager struct {
	g         *irgraph.Graph
	recompute map[irgraph.Properties]Recompute
	cache     map[irgraph.Properties]any
}

// New returns a Manager bound to g.
func New(g *irgraph.Graph) *Manager {
	return &Manager{
		g:         g,
		recompute: map[irgraph.Properties]Recompute{},
		cache:     map[irgraph.Properties]any{},
	}
}

// Register installs the recompute function for a property flag. Call
// once per flag a pass manager instance cares about. Registering
// pkg/domtree or pkg/looptree results is left to callers; this package
// imports neither.
func (m *Manager) Register(p irgraph.Properties, fn Recompute) {
	m.recompute[p] = fn
}

// Assure idempotently recomputes the analysis backing p if its
// consistency flag is currently clear, caches the result, sets the
// flag, and returns the (possibly cached) result.
func (m *Manager) Assure(p irgraph.Properties) any {
	if m.g.HasProperty(p) {
		return m.cache[p]
	}
	fn, ok := m.recompute[p]
	if !ok {
		panic("passmgr: no recompute function registered for this property")
	}
	result := fn(m.g)
	m.cache[p] = result
	m.g.SetProperty(p)
	return result
}

// Free drops the cached result for p and clears its consistency flag,
// forcing the next Assure to recompute.
func (m *Manager) Free(p irgraph.Properties) {
	delete(m.cache, p)
	m.g.ClearProperty(p)
}

// ClearInvalidated clears every property in the given set, to be called
// by a rewrite that mutates a class of nodes an analysis depends on
// (§4.9: "Passes that mutate call clear_properties on the invalidated
// ones").
func (m *Manager) ClearInvalidated(props ...irgraph.Properties) {
	for _, p := range props {
		m.Free(p)
	}
}
