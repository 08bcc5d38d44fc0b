package bgv

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// TestParametersLiteral are reduced parameter sets for tests: the
// statistical security levels are far below production values so that
// the drowning noise fits a single 61-bit ciphertext modulus.
var TestParametersLiteral = []ParametersLiteral{
	{N: 4, Q: 0x1fffffffffe00001, P: 17, DrownBound: 1 << 13, StatSec: 32, ZKSec: 40, U: 2, V: 2},
	{N: 16, Q: 0x1fffffffffe00001, P: 257, DrownBound: 1 << 22, StatSec: 20, ZKSec: 40, U: 4, V: 2},
}

func testString(opname string, p Parameters) string {
	return fmt.Sprintf("%s/N=%d/Q=%d/P=%d", opname, p.N(), p.CiphertextModulus(), p.PlaintextModulus())
}

type testContext struct {
	params Parameters
	sk     *SecretKey
	pk     *PublicKey
	enc    *Encryptor
	dec    *Decryptor
	eval   *Evaluator

	uniformP *ring.UniformSampler
	streams  func() sampling.PRNG
}

func genTestContext(t *testing.T, lit ParametersLiteral) *testContext {
	params, err := NewParameters(lit)
	require.NoError(t, err)

	var counter uint64
	streams := func() sampling.PRNG {
		counter++
		return sampling.NewStream([]byte{0x42}, counter)
	}

	sk, pk, err := GenKeyPair(params, streams(), streams(), streams())
	require.NoError(t, err)

	prng, err := sampling.NewKeyedPRNG([]byte{'b', 'g', 'v'})
	require.NoError(t, err)

	return &testContext{
		params:   params,
		sk:       sk,
		pk:       pk,
		enc:      NewEncryptor(params, pk),
		dec:      NewDecryptor(params, sk),
		eval:     NewEvaluator(params),
		uniformP: ring.NewUniformSampler(prng, params.RingP()),
		streams:  streams,
	}
}

func (tc *testContext) randomPlaintext(n int) PolyVector {
	pt := make(PolyVector, n)
	for i := range pt {
		pt[i] = tc.uniformP.ReadNew()
	}
	return pt
}

func (tc *testContext) freshRandomness(t *testing.T, n int) Randomness {
	r, err := NewRandomness(tc.params, tc.streams(), tc.streams(), tc.streams(), n)
	require.NoError(t, err)
	return r
}

func TestParametersValidation(t *testing.T) {
	lit := TestParametersLiteral[0]

	bad := lit
	bad.Q = 0x1fffffffffe00000 // even, not prime
	_, err := NewParameters(bad)
	require.ErrorIs(t, err, ErrConfigInvalid)

	bad = lit
	bad.P = 13 // 13 != 1 mod 2N
	_, err = NewParameters(bad)
	require.ErrorIs(t, err, ErrConfigInvalid)

	bad = lit
	bad.StatSec = 60 // drowning magnitude beyond the decryption window
	_, err = NewParameters(bad)
	require.ErrorIs(t, err, ErrConfigInvalid)

	bad = lit
	bad.U = 0
	_, err = NewParameters(bad)
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestBGV(t *testing.T) {
	for _, lit := range TestParametersLiteral {
		tc := genTestContext(t, lit)
		params := tc.params

		t.Run(testString("EncryptDecrypt", params), func(t *testing.T) {
			pt := tc.randomPlaintext(3)
			ct, err := tc.enc.EncryptNew(pt, tc.freshRandomness(t, 3))
			require.NoError(t, err)
			got, err := tc.dec.DecryptNew(ct)
			require.NoError(t, err)
			requirePlaintextEqual(t, pt, got)
		})

		t.Run(testString("HomomorphicLinearity", params), func(t *testing.T) {
			rp := params.RingP()

			pt0 := tc.randomPlaintext(2)
			pt1 := tc.randomPlaintext(2)
			ct0, err := tc.enc.EncryptNew(pt0, tc.freshRandomness(t, 2))
			require.NoError(t, err)
			ct1, err := tc.enc.EncryptNew(pt1, tc.freshRandomness(t, 2))
			require.NoError(t, err)

			alpha := uint64(5 % params.PlaintextModulus())
			beta := uint64(3)

			ct := tc.eval.AddNew(
				tc.eval.MulScalarNew(ct0, alpha),
				tc.eval.MulScalarNew(ct1, beta),
			)

			got, err := tc.dec.DecryptNew(ct)
			require.NoError(t, err)

			want := make(PolyVector, 2)
			for i := range want {
				want[i] = rp.NewPoly()
				rp.MulScalarThenAdd(pt0[i], alpha, want[i])
				rp.MulScalarThenAdd(pt1[i], beta, want[i])
			}
			requirePlaintextEqual(t, want, got)
		})

		t.Run(testString("ScalarMulThenDrowningRefresh", params), func(t *testing.T) {
			rp := params.RingP()

			pt := tc.randomPlaintext(2)
			ct, err := tc.enc.EncryptNew(pt, tc.freshRandomness(t, 2))
			require.NoError(t, err)

			alpha := uint64(7)
			scaled := tc.eval.MulScalarNew(ct, alpha)

			// Refresh with a drowning encryption of a random mask; the
			// message becomes alpha*m + mask.
			mask := tc.randomPlaintext(2)
			drown, err := NewDrowningRandomness(params, tc.streams(), tc.streams(), tc.streams(), 2)
			require.NoError(t, err)
			refresh, err := tc.enc.EncryptNew(mask, drown)
			require.NoError(t, err)

			got, err := tc.dec.DecryptNew(tc.eval.AddNew(scaled, refresh))
			require.NoError(t, err)

			want := make(PolyVector, 2)
			for i := range want {
				want[i] = mask[i].CopyNew()
				rp.MulScalarThenAdd(pt[i], alpha, want[i])
			}
			requirePlaintextEqual(t, want, got)
		})

		t.Run(testString("MulPoly", params), func(t *testing.T) {
			rp := params.RingP()

			pt := tc.randomPlaintext(2)
			scale := tc.randomPlaintext(2)
			ct, err := tc.enc.EncryptNew(pt, tc.freshRandomness(t, 2))
			require.NoError(t, err)

			got, err := tc.dec.DecryptNew(tc.eval.MulPolyNew(ct, params.LiftToRq(scale)))
			require.NoError(t, err)

			want := make(PolyVector, 2)
			for i := range want {
				want[i] = rp.NewPoly()
				rp.MulCoeffs(pt[i], scale[i], want[i])
			}
			requirePlaintextEqual(t, want, got)
		})

		t.Run(testString("CiphertextSerialization", params), func(t *testing.T) {
			ct, err := tc.enc.EncryptNew(tc.randomPlaintext(2), tc.freshRandomness(t, 2))
			require.NoError(t, err)
			buf := new(bytes.Buffer)
			_, err = ct.WriteTo(buf)
			require.NoError(t, err)
			var got Ciphertext
			_, err = got.ReadFrom(buf)
			require.NoError(t, err)
			require.True(t, ct.Equal(&got))
		})

		t.Run(testString("PublicKeySerialization", params), func(t *testing.T) {
			buf := new(bytes.Buffer)
			_, err := tc.pk.WriteTo(buf)
			require.NoError(t, err)
			var got PublicKey
			_, err = got.ReadFrom(buf)
			require.NoError(t, err)
			require.True(t, tc.pk.Equal(&got))
		})
	}
}

func requirePlaintextEqual(t *testing.T, want, got PolyVector) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		require.True(t, want[i].Equal(got[i]), "batch element %d", i)
	}
}
