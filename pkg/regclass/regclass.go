// Package regclass implements the backend-facing register class
// descriptor of §6.2: the shape a target backend installs to describe
// one class of allocatable registers to the graph's rewriting and
// scheduling machinery. ssagraph's core never interprets these values —
// they exist purely as a hook-surface contract a backend registers
// against (pkg/hooks's EventNewGraph et al.), same as the original's
// arch_register_class_t.
//
// Grounded on spec.md §6.2 literally; the bitmask representation for
// "limited-bitset type for single-register requests" follows the
// teacher's regMask uint16 register bitmask (pkg/search/verifier.go).
package regclass

import "github.com/oisee/ssagraph/pkg/mode"

// Flag is the register class's own descriptive bitset: {none,
// manual-ra, state}.
type Flag uint8

const (
	FlagNone Flag = 0
	// FlagManualRA marks a class the register allocator must not touch
	// automatically (the backend assigns these registers by hand).
	FlagManualRA Flag = 1 << 0
	// FlagState marks a class holding machine state rather than values
	// (condition-code-style registers).
	FlagState Flag = 1 << 1
)

// Has reports whether f includes bit.
func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// RegisterSet is the limited-bitset type for single-register requests:
// bit i set means register index i of the owning class is a candidate.
type RegisterSet uint64

// Single returns the RegisterSet selecting exactly register index.
func Single(index int) RegisterSet { return RegisterSet(1) << uint(index) }

// Has reports whether index is a member of s.
func (s RegisterSet) Has(index int) bool { return s&(RegisterSet(1)<<uint(index)) != 0 }

// Count returns the number of registers selected by s.
func (s RegisterSet) Count() int {
	n := 0
	for s != 0 {
		n += int(s & 1)
		s >>= 1
	}
	return n
}

// Register describes one physical register within a class.
type Register struct {
	Index int
	Name  string
}

// RequestKind distinguishes a normal request (any register in the
// class) from a limited one (a specific register bitset).
type RequestKind int

const (
	RequestNormal RequestKind = iota
	RequestLimited
)

// Request is a backend's register-requirement annotation on an
// operand or result position.
type Request struct {
	Kind    RequestKind
	Limited RegisterSet // meaningful only when Kind == RequestLimited
}

// Class is a register class descriptor, bit-compatible across backends
// targeting the same architecture (§6.2): index, name, the registers it
// contains, the mode values of this class hold, its flags, and the
// allocatable subset.
type Class struct {
	Index       int
	Name        string
	Registers   []Register
	DefaultMode *mode.Mode
	Flags       Flag
	Allocatable RegisterSet
}

// NewClass builds a descriptor; allocatable defaults to every declared
// register unless narrowed after construction.
func NewClass(index int, name string, defaultMode *mode.Mode, flags Flag, registers ...Register) *Class {
	var all RegisterSet
	for _, r := range registers {
		all |= Single(r.Index)
	}
	return &Class{
		Index:       index,
		Name:        name,
		Registers:   registers,
		DefaultMode: defaultMode,
		Flags:       flags,
		Allocatable: all,
	}
}

// Count returns the number of registers in the class.
func (c *Class) Count() int { return len(c.Registers) }

// NormalRequest returns a Request accepting any allocatable register in
// the class.
func (c *Class) NormalRequest() Request {
	return Request{Kind: RequestNormal}
}

// LimitedRequest returns a Request restricted to the given registers by
// name, intersected with the class's allocatable set.
func (c *Class) LimitedRequest(names ...string) Request {
	var set RegisterSet
	for _, want := range names {
		for _, r := range c.Registers {
			if r.Name == want {
				set |= Single(r.Index)
			}
		}
	}
	return Request{Kind: RequestLimited, Limited: set & c.Allocatable}
}

// SingleRequest returns a Request restricted to exactly one register by
// name — the "per-register single-request record" §6.2 names.
func (c *Class) SingleRequest(name string) Request {
	return c.LimitedRequest(name)
}
