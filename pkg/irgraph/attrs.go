package irgraph

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/oisee/ssagraph/pkg/tarval"
)

// Typed attribute structs for the handful of ops whose behaviour
// depends on more than op+mode+inputs. Stored in Node.attr as `any` and
// recovered via type assertion — the idiomatic Go rendering of the
// original's in-place, per-op-sized attribute block (§4.2); AttrSize on
// the op.Op descriptor is kept for parity with the reservation-token
// mechanism (op.ReserveExtraData) even though Go attributes are
// heap-allocated rather than laid out at a byte offset.
const (
	attrSizeConst = unsafe.Sizeof(ConstAttr{})
	attrSizeCmp   = unsafe.Sizeof(CmpAttr{})
	attrSizeIncSP = unsafe.Sizeof(IncSPAttr{})
)

// ConstAttr is the attribute payload of a Const node.
type ConstAttr struct {
	Value *tarval.Value
}

// CmpAttr is the attribute payload of a Cmp node: which relation the
// comparison tests for.
type CmpAttr struct {
	Relation tarval.Relation
}

// IncSPAttr is the attribute payload of an IncSP node: the signed
// stack-pointer delta, consulted by OpStore's Transform method when
// folding an IncSP/Store pair into a Push.
type IncSPAttr struct {
	Offset int64
}

func nodePtr(n *Node) unsafe.Pointer {
	return unsafe.Pointer(n)
}

func floatText(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func intText(i int64) string {
	return fmt.Sprintf("%d", i)
}
