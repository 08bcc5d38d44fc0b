// Package bgv implements a BGV-like lattice encryption scheme over
// Z_q[X]/(X^N+1) with plaintext space Z_p[X]/(X^N+1), including the
// drowning-noise refresh required to re-randomize ciphertexts after
// homomorphic products.
package bgv

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/structs"
)

// ErrConfigInvalid is returned when the scheme parameters fail a
// compatibility check. It is fatal at startup.
var ErrConfigInvalid = errors.New("bgv: invalid configuration")

// ErrDecryptOutOfRange is returned when a decrypted coefficient lifts
// beyond q/4, indicating noise overflow from mis-sized parameters.
var ErrDecryptOutOfRange = errors.New("bgv: decryption out of range")

// Centered-binomial widths of the scheme. EphemeralPairs is the number
// of bit-pairs of the secret key and of the encryption randomness u
// (variance 1/2); NoisePairs of the key noise e and of the fresh
// encryption randomness v and w (variance 5).
const (
	EphemeralPairs = 1
	NoisePairs     = 10
)

// PolyVector is a batch of ring elements; all ciphertext components,
// plaintexts and randomness of the package are batched.
type PolyVector = structs.Vector[ring.Poly]

// ParametersLiteral is the serializable description of the scheme
// parameters:
//
//   - N: ring degree, a power of two
//   - Q: ciphertext modulus, prime, 1 mod 2N
//   - P: plaintext modulus, prime, 1 mod 2N
//   - DrownBound: magnitude bound of the noise hidden by a drowning
//     refresh
//   - StatSec: statistical security of drowning and uniform sampling
//   - ZKSec: statistical security of the proof of plaintext knowledge
//   - U, V: statement and auxiliary block sizes of the proof
type ParametersLiteral struct {
	N          int    `json:"n" yaml:"n"`
	Q          uint64 `json:"q" yaml:"q"`
	P          uint64 `json:"p" yaml:"p"`
	DrownBound uint64 `json:"drownBound" yaml:"drownBound"`
	StatSec    int    `json:"statSec" yaml:"statSec"`
	ZKSec      int    `json:"zkSec" yaml:"zkSec"`
	U          int    `json:"u" yaml:"u"`
	V          int    `json:"v" yaml:"v"`
}

// Parameters stores the validated scheme parameters along with the two
// instantiated rings.
type Parameters struct {
	lit   ParametersLiteral
	ringQ *ring.Ring
	ringP *ring.Ring
}

// NewParameters instantiates the rings described by lit and validates
// the noise windows. Any failure is wrapped in ErrConfigInvalid.
func NewParameters(lit ParametersLiteral) (p Parameters, err error) {

	var ringQ, ringP *ring.Ring
	if ringQ, err = ring.NewRing(lit.N, lit.Q); err != nil {
		return Parameters{}, fmt.Errorf("%w: ciphertext ring: %s", ErrConfigInvalid, err)
	}
	if ringP, err = ring.NewRing(lit.N, lit.P); err != nil {
		return Parameters{}, fmt.Errorf("%w: plaintext ring: %s", ErrConfigInvalid, err)
	}

	if lit.P >= lit.Q {
		return Parameters{}, fmt.Errorf("%w: plaintext modulus %d >= ciphertext modulus %d", ErrConfigInvalid, lit.P, lit.Q)
	}
	if lit.U < 1 || lit.V < 1 {
		return Parameters{}, fmt.Errorf("%w: block sizes U=%d, V=%d", ErrConfigInvalid, lit.U, lit.V)
	}
	if lit.StatSec < 1 || lit.ZKSec < 1 {
		return Parameters{}, fmt.Errorf("%w: security parameters StatSec=%d, ZKSec=%d", ErrConfigInvalid, lit.StatSec, lit.ZKSec)
	}
	if lit.DrownBound == 0 || bits.Len64(lit.DrownBound)+lit.StatSec > 62 {
		return Parameters{}, fmt.Errorf("%w: drowning bound %d << %d overflows", ErrConfigInvalid, lit.DrownBound, lit.StatSec)
	}

	// The drowned noise p*(v - u*e - w*s) must stay within the
	// decryption window q/4. The w*s polynomial product spreads the
	// drowned magnitude over N coefficients, hence the N+2 factor.
	bigQ := new(big.Int).SetUint64(lit.Q)
	window := new(big.Int).SetUint64(lit.P)
	window.Mul(window, new(big.Int).SetUint64(lit.DrownBound<<uint(lit.StatSec)))
	window.Mul(window, big.NewInt(int64(lit.N)+2))
	window.Mul(window, big.NewInt(4))
	if window.Cmp(bigQ) >= 0 {
		return Parameters{}, fmt.Errorf("%w: drowning bound %d at security %d does not fit the decryption window of q=%d", ErrConfigInvalid, lit.DrownBound, lit.StatSec, lit.Q)
	}

	// The proof responses live in R_q: p*2^ZKSec must also fit.
	if lit.ZKSec+bits.Len64(lit.P) > 61 {
		return Parameters{}, fmt.Errorf("%w: zero-knowledge security %d does not fit the response window of q=%d", ErrConfigInvalid, lit.ZKSec, lit.Q)
	}
	window.SetUint64(lit.P)
	window.Lsh(window, uint(lit.ZKSec)+2)
	if window.Cmp(bigQ) >= 0 {
		return Parameters{}, fmt.Errorf("%w: zero-knowledge security %d does not fit the response window of q=%d", ErrConfigInvalid, lit.ZKSec, lit.Q)
	}

	return Parameters{lit: lit, ringQ: ringQ, ringP: ringP}, nil
}

// N returns the ring degree.
func (p Parameters) N() int { return p.lit.N }

// RingQ returns the ciphertext ring.
func (p Parameters) RingQ() *ring.Ring { return p.ringQ }

// RingP returns the plaintext ring.
func (p Parameters) RingP() *ring.Ring { return p.ringP }

// PlaintextModulus returns p.
func (p Parameters) PlaintextModulus() uint64 { return p.lit.P }

// CiphertextModulus returns q.
func (p Parameters) CiphertextModulus() uint64 { return p.lit.Q }

// DrownBound returns the magnitude bound hidden by a drowning refresh.
func (p Parameters) DrownBound() uint64 { return p.lit.DrownBound }

// StatSec returns the statistical security of drowning and sampling.
func (p Parameters) StatSec() int { return p.lit.StatSec }

// ZKSec returns the statistical security of the proof of plaintext
// knowledge.
func (p Parameters) ZKSec() int { return p.lit.ZKSec }

// U returns the statement block size of the proof.
func (p Parameters) U() int { return p.lit.U }

// V returns the auxiliary block size of the proof.
func (p Parameters) V() int { return p.lit.V }

// Literal returns a copy of the literal the parameters were built from.
func (p Parameters) Literal() ParametersLiteral { return p.lit }

// Equal returns whether the two parameter sets are identical.
func (p Parameters) Equal(other Parameters) bool { return p.lit == other.lit }

// NewPlaintextVector allocates a batch of n zero plaintext polynomials.
func (p Parameters) NewPlaintextVector(n int) PolyVector {
	v := make(PolyVector, n)
	for i := range v {
		v[i] = p.ringP.NewPoly()
	}
	return v
}

// NewPolyQVector allocates a batch of n zero ciphertext-ring
// polynomials.
func (p Parameters) NewPolyQVector(n int) PolyVector {
	v := make(PolyVector, n)
	for i := range v {
		v[i] = p.ringQ.NewPoly()
	}
	return v
}

// LiftToRq maps a plaintext batch from NTT(R_p) to NTT(R_q) by lifting
// the coefficient representatives in [0, p).
func (p Parameters) LiftToRq(pt PolyVector) PolyVector {
	out := make(PolyVector, len(pt))
	buff := p.ringP.NewPoly()
	for i := range pt {
		p.ringP.INTT(pt[i], buff)
		out[i] = p.ringQ.NewPoly()
		copy(out[i].Coeffs, buff.Coeffs)
		p.ringQ.NTT(out[i], out[i])
	}
	return out
}

// LiftScalarToQ lifts a plaintext scalar in [0, p) to Z_q.
func (p Parameters) LiftScalarToQ(a uint64) uint64 {
	return a % p.lit.Q
}
