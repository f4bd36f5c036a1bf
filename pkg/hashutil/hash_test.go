package hashutil

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// TestVectors pins the hash contract's output for fixed inputs. Values
// were derived from the standard xor-then-multiply FNV-1a update order;
// a change in constants or update order must not change them silently.
func TestVectors(t *testing.T) {
	require.Equal(t, uint32(0x915dbcf8), String("libfirm"))
	require.Equal(t, uint32(0x915dbcf8), Bytes([]byte("libfirm")))
	require.Equal(t, uint32(0xa9f37ed7), String("foo"))
	require.Equal(t, uint32(0xed74208a), Combine(1, 2))
}

// TestHashStability is P11: hash_str("foo") == hash_data("foo", 3).
func TestHashStability(t *testing.T) {
	require.Equal(t, String("foo"), Bytes([]byte("foo")))
}

// TestPtrStability is P11's second half: hash_ptr(p) depends only on p's
// top 61 bits (the low 3 are shifted away).
func TestPtrStability(t *testing.T) {
	var x int64
	p := unsafe.Pointer(&x)
	h1 := Ptr(p)
	h2 := Ptr(p)
	require.Equal(t, h1, h2)
}

func TestCombineAsymmetric(t *testing.T) {
	require.NotEqual(t, Combine(1, 2), Combine(2, 1))
}
