package tarval

import (
	"testing"

	"github.com/oisee/ssagraph/pkg/mode"
	"github.com/stretchr/testify/require"
)

// TestRelationAlgebra is P6: double negation and double inversion are
// identities, r&true==r, r&false==false, for all 16 relations.
func TestRelationAlgebra(t *testing.T) {
	all := []Relation{
		RelationFalse, RelationEqual, RelationLess, RelationGreater, RelationUnordered,
		RelationLessEqual, RelationGreaterEqual, RelationLessGreater, RelationLessEqualGreater,
		RelationUnorderedEqual, RelationUnorderedLess, RelationUnorderedLessEqual,
		RelationUnorderedGreater, RelationUnorderedGreaterEq, RelationUnorderedLessGreater,
		RelationTrue,
	}
	require.Len(t, all, 16)
	for _, r := range all {
		require.Equal(t, r, r.Negated().Negated(), "negated(negated(r)) == r for %v", r)
		require.Equal(t, r, r.Inversed().Inversed(), "inversed(inversed(r)) == r for %v", r)
		require.Equal(t, r, r&RelationTrue, "r & true == r for %v", r)
		require.Equal(t, RelationFalse, r&RelationFalse, "r & false == false for %v", r)
	}
}

func TestInversedSwapsLessGreater(t *testing.T) {
	require.Equal(t, RelationGreater, RelationLess.Inversed())
	require.Equal(t, RelationLess, RelationGreater.Inversed())
	require.Equal(t, RelationEqual, RelationEqual.Inversed())
	require.Equal(t, RelationUnordered, RelationUnordered.Inversed())
}

func TestNegatedIsComplement(t *testing.T) {
	require.Equal(t, RelationLessEqualGreater, RelationUnordered.Negated())
	require.Equal(t, RelationFalse, RelationTrue.Negated())
	require.Equal(t, RelationTrue, RelationFalse.Negated())
}

func TestWrapAroundOnOverflow(t *testing.T) {
	max := Max(mode.Is)
	one := One(mode.Is)
	sum := Add(max, one)
	require.True(t, sum.IsNegative(), "signed 32-bit overflow wraps to MinInt")
	require.Equal(t, Min(mode.Is).i.String(), sum.i.String())
}

func TestDistinguishedValues(t *testing.T) {
	require.True(t, Null(mode.Is).IsNull())
	require.True(t, One(mode.Is).IsOne())
	require.True(t, AllOne(mode.Iu).IsAllOne())
	require.True(t, MinusOne(mode.Is).IsNegative())
}

func TestCompareOrdersIntegers(t *testing.T) {
	a := NewInt(mode.Is, 3)
	b := NewInt(mode.Is, 5)
	require.Equal(t, RelationLess, Compare(a, b))
	require.Equal(t, RelationGreater, Compare(b, a))
	require.Equal(t, RelationEqual, Compare(a, a))
}

func TestCompareUnorderedOnNaN(t *testing.T) {
	n := NaN(mode.D)
	f := NewFloat(mode.D, 1.0)
	require.Equal(t, RelationUnordered, Compare(n, f))
}

func TestNotIsInvolution(t *testing.T) {
	v := NewInt(mode.Iu, 0x12345678)
	require.Equal(t, v.i.String(), Not(Not(v)).i.String())
}

func TestConvertReinterpretVsArithmetic(t *testing.T) {
	ptr := NewInt(mode.P, 0x1000)
	asInt := Convert(ptr, mode.Lu)
	require.Equal(t, "4096", asInt.i.String())

	f := NewFloat(mode.D, 3.0)
	asI := Convert(f, mode.Is)
	require.Equal(t, int64(3), asI.Int64())
}

func TestBadPropagatesOnModeMismatch(t *testing.T) {
	a := NewInt(mode.Is, 1)
	b := NewInt(mode.Lu, 1)
	require.True(t, Add(a, b).IsBad())
}
