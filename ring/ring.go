// Package ring implements arithmetic in the polynomial rings
// Z_q[X]/(X^N+1) for a single prime modulus q, with coefficient and
// number-theoretic-transform representations, together with the bounded
// samplers used by the encryption and protocol layers.
package ring

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Ring stores the precomputations for fast modular reduction and NTT
// for the ring Z_Modulus[X]/(X^N+1).
type Ring struct {
	// Number of coefficients
	N int

	// Modulus
	Modulus uint64

	// Unique factors of Modulus-1
	Factors []uint64

	// Smallest primitive root of Modulus
	PrimitiveRoot uint64

	// 2^bit_length(Modulus) - 1
	Mask uint64

	// Fast reduction constants
	BRedConstant [2]uint64 // Barrett reduction
	MRedConstant uint64    // Montgomery reduction

	// N^-1 mod Modulus, in the Montgomery domain
	NInv uint64

	// Powers of the 2N-th primitive root in bit-reversed order,
	// in the Montgomery domain
	RootsForward  []uint64
	RootsBackward []uint64
}

// NewRing creates a new Ring of degree N and prime modulus q and
// generates its NTT constants. N must be a power of two and q a prime
// equal to 1 mod 2N; any other input is rejected.
func NewRing(N int, q uint64) (r *Ring, err error) {

	if N < 2 || N&(N-1) != 0 {
		return nil, fmt.Errorf("invalid ring degree: %d is not a power of two", N)
	}

	if !IsPrime(q) {
		return nil, fmt.Errorf("invalid modulus: %d is not prime", q)
	}

	if q&uint64(2*N-1) != 1 {
		return nil, fmt.Errorf("invalid modulus: %d != 1 mod 2N", q)
	}

	r = &Ring{}
	r.N = N
	r.Modulus = q
	r.Mask = (1 << uint64(bits.Len64(q-1))) - 1
	r.BRedConstant = GenBRedConstant(q)
	r.MRedConstant = GenMRedConstant(q)

	if err = r.generateNTTConstants(); err != nil {
		return nil, err
	}

	return
}

// NewPoly returns a new zero polynomial in the ring.
func (r *Ring) NewPoly() Poly {
	return NewPoly(r.N)
}

// generateNTTConstants finds a primitive 2N-th root of unity and fills
// the bit-reversed twiddle tables.
func (r *Ring) generateNTTConstants() (err error) {

	q := r.Modulus
	nthRoot := uint64(2 * r.N)

	if r.PrimitiveRoot, r.Factors, err = PrimitiveRoot(q, r.Factors); err != nil {
		return
	}

	logNthRoot := bits.Len64(nthRoot>>1) - 1

	r.NInv = MForm(ModExp(uint64(r.N), q-2, q), q, r.BRedConstant)

	psiMont := MForm(ModExp(r.PrimitiveRoot, (q-1)/nthRoot, q), q, r.BRedConstant)
	psiInvMont := MForm(ModExp(r.PrimitiveRoot, q-((q-1)/nthRoot)-1, q), q, r.BRedConstant)

	r.RootsForward = make([]uint64, r.N)
	r.RootsBackward = make([]uint64, r.N)

	r.RootsForward[0] = MForm(1, q, r.BRedConstant)
	r.RootsBackward[0] = MForm(1, q, r.BRedConstant)

	for j := uint64(1); j < uint64(r.N); j++ {
		indexReversePrev := bitReverse64(j-1, logNthRoot)
		indexReverseNext := bitReverse64(j, logNthRoot)
		r.RootsForward[indexReverseNext] = MRed(r.RootsForward[indexReversePrev], psiMont, q, r.MRedConstant)
		r.RootsBackward[indexReverseNext] = MRed(r.RootsBackward[indexReversePrev], psiInvMont, q, r.MRedConstant)
	}

	return
}

// PrimitiveRoot computes the smallest primitive root of the prime q.
// The unique factors of q-1 can be given to speed up the search.
func PrimitiveRoot(q uint64, factors []uint64) (uint64, []uint64, error) {

	if factors != nil {
		if err := CheckFactors(q-1, factors); err != nil {
			return 0, factors, err
		}
	} else {
		factors = getFactors(q - 1)
	}

	notFound := true
	var g uint64 = 2
	for notFound {
		g++
		for _, factor := range factors {
			// If g^((q-1)/factor) = 1 mod q for any factor, g is not primitive.
			if ModExp(g, (q-1)/factor, q) == 1 {
				notFound = true
				break
			}
			notFound = false
		}
	}

	return g, factors, nil
}

// CheckFactors checks that the given list contains all the unique prime
// factors of m.
func CheckFactors(m uint64, factors []uint64) (err error) {
	for _, factor := range factors {
		if !IsPrime(factor) {
			return fmt.Errorf("composite factor %d", factor)
		}
		for m%factor == 0 {
			m /= factor
		}
	}
	if m != 1 {
		return fmt.Errorf("incomplete factor list")
	}
	return
}

// IsPrime applies a Baillie-PSW (via big.Int) primality test on x.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// getFactors returns the unique prime factors of m by trial division.
// The moduli of this module are NTT primes, whose m = q-1 is smooth
// enough for this to be immediate.
func getFactors(m uint64) (factors []uint64) {
	for p := uint64(2); p*p <= m; p++ {
		if m%p == 0 {
			factors = append(factors, p)
			for m%p == 0 {
				m /= p
			}
		}
	}
	if m > 1 {
		factors = append(factors, m)
	}
	return
}

func bitReverse64(index uint64, bitLen int) uint64 {
	return bits.Reverse64(index) >> (64 - bitLen)
}
