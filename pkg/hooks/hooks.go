// Package hooks implements the process-wide lifecycle callback surface
// of §4.10: a fixed set of named events, each fanning out to its
// subscribers in registration order, with a re-entrancy guard per
// event so a subscriber cannot recursively trigger the event it is
// itself handling.
//
// Grounded on spec.md §4.10's literal event list; the per-event
// registration-list idiom follows the teacher's checkpoint gob.Register
// startup pattern (pkg/result/checkpoint.go's init()), generalized here
// from "register a type for decoding" to "register a subscriber for an
// event".
package hooks

import "sync"

// Event names one lifecycle callback point.
type Event string

const (
	EventNewIROp           Event = "new_ir_op"
	EventFreeIROp          Event = "free_ir_op"
	EventNewNode           Event = "new_node"
	EventTurnIntoID        Event = "turn_into_id"
	EventNormalize         Event = "normalize"
	EventNewGraph          Event = "new_graph"
	EventFreeGraph         Event = "free_graph"
	EventIRGWalk           Event = "irg_walk"
	EventIRGBlockWalk      Event = "irg_block_walk"
	EventMergeNodes        Event = "merge_nodes"
	EventReassociateStart  Event = "reassociate_start"
	EventReassociateStop   Event = "reassociate_stop"
	EventLower             Event = "lower"
	EventInline            Event = "inline"
	EventTailRec           Event = "tail_rec"
	EventStrengthRed       Event = "strength_red"
	EventDeadNodeElimStart Event = "dead_node_elim_start"
	EventDeadNodeElimStop  Event = "dead_node_elim_stop"
	EventFuncCall          Event = "func_call"
	EventArchDepReplaceMul Event = "arch_dep_replace_mul"
	EventArchDepReplaceDiv Event = "arch_dep_replace_div"
	EventArchDepReplaceMod Event = "arch_dep_replace_mod"
	EventArchDepReplaceShl Event = "arch_dep_replace_shl"
	EventNodeInfo          Event = "node_info"
)

// Subscriber is one registered callback. args is event-specific and
// left untyped, matching §4.10's own description of the surface as "a
// typed set of lifecycle callbacks" where each event's payload shape is
// fixed by its event but not uniform across events.
type Subscriber func(args ...any)

// Registry is a process-wide (or test-scoped, if callers keep their own
// instance) table of event -> ordered subscriber list, with a
// re-entrancy guard per event.
type Registry struct {
	mu          sync.Mutex
	subscribers map[Event][]Subscriber
	namedRegs   map[Event]map[string]bool // idempotent-per-(event,name) tracking for RegisterOnce
	inFlight    map[Event]bool
}

// NewRegistry returns an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		subscribers: map[Event][]Subscriber{},
		namedRegs:   map[Event]map[string]bool{},
		inFlight:    map[Event]bool{},
	}
}

// Register appends sub to the named event's subscriber list.
// Registration after initialisation is permitted (§5); callers that
// might register the same subscriber twice should use RegisterOnce
// instead, since Go closures aren't comparable and this call cannot
// deduplicate by value.
func (r *Registry) Register(e Event, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[e] = append(r.subscribers[e], sub)
}

// RegisterOnce registers sub under name for event e, a no-op if name is
// already registered for that event — the idempotent-per-(event,
// subscriber) contract §5 requires, using the caller-supplied name as
// the subscriber's identity.
func (r *Registry) RegisterOnce(e Event, name string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.namedRegs[e] == nil {
		r.namedRegs[e] = map[string]bool{}
	}
	if r.namedRegs[e][name] {
		return
	}
	r.namedRegs[e][name] = true
	r.subscribers[e] = append(r.subscribers[e], sub)
}

// Fire invokes every subscriber registered for e, in registration
// order, passing args through unchanged. Panics if e is already being
// fired (re-entrancy guard — §4.10: "subscribers are disallowed from
// recursively triggering the same event").
func (r *Registry) Fire(e Event, args ...any) {
	r.mu.Lock()
	if r.inFlight[e] {
		r.mu.Unlock()
		panic("hooks: re-entrant Fire for event " + string(e))
	}
	r.inFlight[e] = true
	subs := append([]Subscriber{}, r.subscribers[e]...)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight[e] = false
		r.mu.Unlock()
	}()

	for _, sub := range subs {
		sub(args...)
	}
}

// HasSubscribers reports whether any subscriber is registered for e,
// letting callers skip building an args slice for an event nobody
// listens to.
func (r *Registry) HasSubscribers(e Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers[e]) > 0
}
