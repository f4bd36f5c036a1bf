package mode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinModesInterned(t *testing.T) {
	again := NewIntMode("Is", ArithmeticTwosComplement, 32, true, 32)
	require.Same(t, Is, again, "NewIntMode must return the interned handle for identical params")
}

func TestSmallerModeRespectsSignedness(t *testing.T) {
	require.True(t, SmallerMode(Bs, Is))
	require.True(t, SmallerMode(Bu, Iu))
	require.False(t, SmallerMode(Iu, Is), "mode_Iu is not smaller than mode_Is: values above 2^31-1 do not fit")
	require.False(t, SmallerMode(Is, Is))
}

func TestValuesInModeRoundTrip(t *testing.T) {
	require.True(t, ValuesInMode(Bs, Is))
	require.True(t, ValuesInMode(Iu, Is), "same-width int modes round-trip even though neither is Smaller")
	require.True(t, ValuesInMode(Is, Is))
}

func TestFindSignedUnsignedPair(t *testing.T) {
	require.Equal(t, Is, FindSignedMode(Iu))
	require.Equal(t, Iu, FindUnsignedMode(Is))
}

func TestFindDoubleBitsIntMode(t *testing.T) {
	require.Equal(t, Ls, FindDoubleBitsIntMode(Is))
	require.Equal(t, Lu, FindDoubleBitsIntMode(Iu))
}

func TestHonorSignedZerosAndWrapAround(t *testing.T) {
	require.True(t, D.HonorSignedZeros())
	require.False(t, Is.HonorSignedZeros())
	require.True(t, Is.WrapAround())
	require.False(t, D.WrapAround())
}

func TestOverflowOnUnaryMinus(t *testing.T) {
	require.True(t, Is.OverflowOnUnaryMinus(), "signed two's complement negation can overflow at MinInt")
	require.False(t, Iu.OverflowOnUnaryMinus())
	require.False(t, D.OverflowOnUnaryMinus())
}

func TestIsReinterpretCast(t *testing.T) {
	require.True(t, IsReinterpretCast(P, Lu), "same-width pointer/int reinterpret")
	require.False(t, IsReinterpretCast(Is, D), "float modes never reinterpret-cast")
	require.False(t, IsReinterpretCast(Is, Ls), "different widths can't reinterpret-cast")
}

func TestReferenceModeEquivalence(t *testing.T) {
	SetReferenceModeSignedEq(P, Ls)
	SetReferenceModeUnsignedEq(P, Lu)
	require.Equal(t, Ls, P.ReferenceSignedEq())
	require.Equal(t, Lu, P.ReferenceUnsignedEq())
}

func TestByNameAndMustByName(t *testing.T) {
	m, ok := ByName("Is")
	require.True(t, ok)
	require.Same(t, Is, m)

	require.Panics(t, func() { MustByName("no-such-mode") })
}
