package ring

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

var testParameters = []struct {
	N int
	Q uint64
}{
	{4, 17},
	{4, 97},
	{16, 65537},
	{16, 0x1fffffffffe00001},
	{256, 0x1fffffffffe00001},
}

func testString(opname string, N int, q uint64) string {
	return fmt.Sprintf("%s/N=%d/Q=%d", opname, N, q)
}

func TestNewRingChecksParameters(t *testing.T) {
	// Not a power of two.
	_, err := NewRing(6, 97)
	require.Error(t, err)
	// Composite modulus.
	_, err = NewRing(4, 91)
	require.Error(t, err)
	// 13 != 1 mod 8.
	_, err = NewRing(4, 13)
	require.Error(t, err)
}

func TestRing(t *testing.T) {
	for _, tp := range testParameters {
		r, err := NewRing(tp.N, tp.Q)
		require.NoError(t, err)

		prng, err := sampling.NewKeyedPRNG([]byte{'t', 'e', 's', 't'})
		require.NoError(t, err)
		uniform := NewUniformSampler(prng, r)

		t.Run(testString("NTTRoundTrip", tp.N, tp.Q), func(t *testing.T) {
			p := uniform.ReadNew()
			want := p.CopyNew()
			r.NTT(p, p)
			r.INTT(p, p)
			require.True(t, want.Equal(p))
		})

		t.Run(testString("NTTMulMatchesSchoolbook", tp.N, tp.Q), func(t *testing.T) {
			a := uniform.ReadNew()
			b := uniform.ReadNew()

			want := mulSchoolbook(r, a, b)

			aNTT, bNTT, got := r.NewPoly(), r.NewPoly(), r.NewPoly()
			r.NTT(a, aNTT)
			r.NTT(b, bNTT)
			r.MulCoeffs(aNTT, bNTT, got)
			r.INTT(got, got)

			require.True(t, want.Equal(got))
		})

		t.Run(testString("MulMonomial", tp.N, tp.Q), func(t *testing.T) {
			a := uniform.ReadNew()
			for _, k := range []int{0, 1, tp.N - 1} {
				x := r.NewPoly()
				x.Coeffs[k] = 1
				want := mulSchoolbook(r, a, x)
				got := r.NewPoly()
				r.MulMonomial(a, k, got)
				require.True(t, want.Equal(got), "k=%d", k)

				acc := uniform.ReadNew()
				wantAcc := r.NewPoly()
				r.Add(acc, want, wantAcc)
				r.MulMonomialThenAdd(a, k, acc)
				require.True(t, wantAcc.Equal(acc), "k=%d", k)
			}
		})

		t.Run(testString("AddSubNeg", tp.N, tp.Q), func(t *testing.T) {
			a := uniform.ReadNew()
			b := uniform.ReadNew()
			c, d := r.NewPoly(), r.NewPoly()
			r.Add(a, b, c)
			r.Sub(c, b, c)
			require.True(t, a.Equal(c))
			r.Neg(a, d)
			r.Add(a, d, d)
			require.True(t, r.NewPoly().Equal(d))
		})

		t.Run(testString("BinomialSamplerBound", tp.N, tp.Q), func(t *testing.T) {
			bin, err := NewBinomialSampler(prng, r, 10)
			require.NoError(t, err)
			p := bin.ReadNew()
			require.LessOrEqual(t, r.InfNorm(p), bin.MaxNorm())
		})

		t.Run(testString("Serialization", tp.N, tp.Q), func(t *testing.T) {
			p := uniform.ReadNew()
			buf := new(bytes.Buffer)
			_, err := p.WriteTo(buf)
			require.NoError(t, err)
			var q Poly
			_, err = q.ReadFrom(buf)
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(p, q))
		})
	}
}

func TestDrownSampler(t *testing.T) {
	r, err := NewRing(16, 0x1fffffffffe00001)
	require.NoError(t, err)
	prng, err := sampling.NewKeyedPRNG(nil)
	require.NoError(t, err)

	drown, err := NewDrownSampler(prng, r, 1<<10, 40)
	require.NoError(t, err)
	p := drown.ReadNew()
	require.LessOrEqual(t, r.InfNorm(p), drown.MaxNorm())

	// Magnitude above q/2 must be rejected.
	_, err = NewDrownSampler(prng, r, 1<<21, 40)
	require.Error(t, err)
}

func TestCenteredLift(t *testing.T) {
	r, err := NewRing(4, 17)
	require.NoError(t, err)
	require.Equal(t, int64(0), r.CenteredLift(0))
	require.Equal(t, int64(8), r.CenteredLift(8))
	require.Equal(t, int64(-8), r.CenteredLift(9))
	require.Equal(t, int64(-1), r.CenteredLift(16))
}

// mulSchoolbook computes the nega-cyclic product of a and b in the
// coefficient representation, as the NTT reference.
func mulSchoolbook(r *Ring, a, b Poly) Poly {
	N := r.N
	q := r.Modulus
	u := r.BRedConstant
	out := r.NewPoly()
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			prod := BRed(a.Coeffs[i], b.Coeffs[j], q, u)
			if i+j < N {
				out.Coeffs[i+j] = CRed(out.Coeffs[i+j]+prod, q)
			} else if prod != 0 {
				out.Coeffs[i+j-N] = CRed(out.Coeffs[i+j-N]+q-prod, q)
			}
		}
	}
	return out
}
