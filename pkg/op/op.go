// Package op implements the operation registry: a process-wide catalog
// of node-kind descriptors (Add, Load, Phi, ...), each naming an arity
// class, a flag bitset, an attribute-struct size, and a table of
// op-specific method pointers (hash, equal, copy, verify, dump,
// transform).
//
// Grounded on Go-zh-go.old's cmd/compile/internal/ssa/gen/genericOps.go
// opData literal table (register-at-generation-time idiom, reused here
// as register-at-startup) for the registry shape, and on spec.md's own
// Operation descriptor (§2, component B) for the exact field set.
package op

import "sync"

// Arity classifies how many inputs an operation declares.
type Arity int

const (
	ArityUnary Arity = iota
	ArityBinary
	ArityVariable
	ArityDynamic
	ArityAny
)

// Flag is a bitset of operation-wide properties.
type Flag uint16

const (
	FlagCommutative Flag = 1 << iota
	FlagCfOpcode
	FlagFragile
	FlagForking
	FlagHighlevel
	FlagConstlike
	FlagKeep
	FlagStartBlockPlaced
	FlagUsesMemory
	FlagDumpNoblock
	FlagCseNeutral
	FlagUnknownJump
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Methods is the table of op-specific behaviour. Every entry has a
// default (see defaultMethods) so registering an op need only override
// what it actually customizes.
type Methods struct {
	Hash      func(n Node) uint32
	Equal     func(a, b Node) bool
	CopyAttr  func(dst, src Node)
	Verify    func(n Node) error
	Dump      func(n Node) string
	Transform func(n Node) (Node, bool) // peephole-style local rewrite
	Init      func(n Node)              // run once, right after allocation
}

// Node is the minimal view op.Methods needs of a graph node; pkg/irgraph
// satisfies it. Kept narrow so this package has no import-cycle on the
// (much larger) graph package.
type Node interface {
	Op() *Op
	Ins() []Node
}

// Op is the registered descriptor for one node kind. Instances are
// obtained only via Register; the zero value is not meaningful.
type Op struct {
	Code     uint32
	Name     string
	Arity    Arity
	ArgLen   int // fixed input count when Arity is Unary/Binary; otherwise the value given to Register
	Flags    Flag
	AttrSize uintptr
	Methods  Methods

	// Generic is a transient, per-op slot for traversal-time callback
	// registration (e.g. a peephole handler installed for the duration
	// of one rewrite pass). Not persisted across runs.
	Generic any

	extraReserved uintptr
}

func (o *Op) IsCommutative() bool { return o.Flags.Has(FlagCommutative) }
func (o *Op) IsFragile() bool     { return o.Flags.Has(FlagFragile) }
func (o *Op) IsConstlike() bool   { return o.Flags.Has(FlagConstlike) }

// ReserveExtraData grows this op's per-node extra-data block by size
// bytes and returns the byte offset (relative to the node's own
// extra-data base) at which the caller's data begins. Mirrors the
// original's reserve-additional-node-data mechanism: the token is a
// stable offset, valid for the lifetime of the op registration.
func (o *Op) ReserveExtraData(size uintptr) uintptr {
	off := o.extraReserved
	o.extraReserved += size
	return off
}

// ExtraDataSize reports the total extra-data block size reserved so
// far, for allocators sizing new nodes of this op.
func (o *Op) ExtraDataSize() uintptr { return o.extraReserved }

var defaultMethods = Methods{
	Hash:      func(Node) uint32 { return 0 },
	Equal:     func(a, b Node) bool { return a == b },
	CopyAttr:  func(Node, Node) {},
	Verify:    func(Node) error { return nil },
	Dump:      func(n Node) string { return n.Op().Name },
	Transform: func(n Node) (Node, bool) { return n, false },
	Init:      func(Node) {},
}

func mergeDefaults(m Methods) Methods {
	if m.Hash == nil {
		m.Hash = defaultMethods.Hash
	}
	if m.Equal == nil {
		m.Equal = defaultMethods.Equal
	}
	if m.CopyAttr == nil {
		m.CopyAttr = defaultMethods.CopyAttr
	}
	if m.Verify == nil {
		m.Verify = defaultMethods.Verify
	}
	if m.Dump == nil {
		m.Dump = defaultMethods.Dump
	}
	if m.Transform == nil {
		m.Transform = defaultMethods.Transform
	}
	if m.Init == nil {
		m.Init = defaultMethods.Init
	}
	return m
}

var (
	mu       sync.Mutex
	byName   = map[string]*Op{}
	byCode   []*Op
	nextCode uint32
)

// Register installs a new operation descriptor and returns its stable
// opcode tag. Registering the same name twice panics: the registry is a
// closed set fixed at program startup (spec.md §2's "registered at
// program startup" — there is no unregister).
func Register(name string, arity Arity, argLen int, flags Flag, attrSize uintptr, methods Methods) *Op {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := byName[name]; exists {
		panic("op: duplicate registration for " + name)
	}
	o := &Op{
		Code:     nextCode,
		Name:     name,
		Arity:    arity,
		ArgLen:   argLen,
		Flags:    flags,
		AttrSize: attrSize,
		Methods:  mergeDefaults(methods),
	}
	nextCode++
	byName[name] = o
	byCode = append(byCode, o)
	return o
}

// ByName looks up a registered op by name.
func ByName(name string) (*Op, bool) {
	mu.Lock()
	defer mu.Unlock()
	o, ok := byName[name]
	return o, ok
}

// ByCode looks up a registered op by its opcode tag.
func ByCode(code uint32) (*Op, bool) {
	mu.Lock()
	defer mu.Unlock()
	if int(code) >= len(byCode) {
		return nil, false
	}
	return byCode[code], true
}

// All returns every registered op, in registration order. Callers must
// not mutate the returned slice.
func All() []*Op {
	mu.Lock()
	defer mu.Unlock()
	out := make([]*Op, len(byCode))
	copy(out, byCode)
	return out
}

// Count returns the number of registered ops.
func Count() int {
	mu.Lock()
	defer mu.Unlock()
	return len(byCode)
}
