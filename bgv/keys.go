package bgv

import (
	"io"

	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// SecretKey is a small secret ring element in NTT(R_q).
type SecretKey struct {
	Value ring.Poly
}

// PublicKey is a pair (A, B) in NTT(R_q)^2 with B = A*s + p*e for the
// secret key s and a small noise e.
type PublicKey struct {
	A ring.Poly
	B ring.Poly
}

// GenKeyPair derives a key pair from the given streams: the secret key
// from prngS, the public uniform component from prngA and the key noise
// from prngE. Deterministic streams yield deterministic keys, which is
// how the demo key schedule derives every party's key from a shared
// seed; a production deployment replaces this with a distributed key
// generation protocol.
func GenKeyPair(params Parameters, prngS, prngA, prngE sampling.PRNG) (sk *SecretKey, pk *PublicKey, err error) {

	rq := params.RingQ()

	binS, err := ring.NewBinomialSampler(prngS, rq, EphemeralPairs)
	if err != nil {
		return nil, nil, err
	}
	binE, err := ring.NewBinomialSampler(prngE, rq, NoisePairs)
	if err != nil {
		return nil, nil, err
	}

	sk = &SecretKey{Value: binS.ReadNew()}
	rq.NTT(sk.Value, sk.Value)

	pk = &PublicKey{A: ring.NewUniformSampler(prngA, rq).ReadNew(), B: rq.NewPoly()}

	e := binE.ReadNew()
	rq.NTT(e, e)

	rq.MulCoeffs(pk.A, sk.Value, pk.B)
	rq.MulScalarThenAdd(e, params.PlaintextModulus(), pk.B)

	return
}

// CopyNew returns a deep copy of the public key.
func (pk *PublicKey) CopyNew() *PublicKey {
	return &PublicKey{A: pk.A.CopyNew(), B: pk.B.CopyNew()}
}

// Equal returns whether the two public keys are identical.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.A.Equal(other.A) && pk.B.Equal(other.B)
}

// BinarySize returns the serialized size of the public key in bytes.
func (pk *PublicKey) BinarySize() int {
	return pk.A.BinarySize() + pk.B.BinarySize()
}

// WriteTo writes the public key to w.
func (pk *PublicKey) WriteTo(w io.Writer) (n int64, err error) {
	if n, err = pk.A.WriteTo(w); err != nil {
		return
	}
	inc, err := pk.B.WriteTo(w)
	return n + inc, err
}

// ReadFrom reads a public key from r.
func (pk *PublicKey) ReadFrom(r io.Reader) (n int64, err error) {
	if n, err = pk.A.ReadFrom(r); err != nil {
		return
	}
	inc, err := pk.B.ReadFrom(r)
	return n + inc, err
}
