package ring

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/tessera-mpc/tessera/utils/sampling"
)

// Sampler is the interface of all polynomial samplers of the package.
type Sampler interface {
	Read(pol Poly)
	ReadNew() Poly
}

type baseSampler struct {
	prng     sampling.PRNG
	baseRing *Ring
}

// read8 refills an 8-byte scratch from the PRNG and returns it as a
// little-endian uint64.
func (b *baseSampler) read8(buf []byte) uint64 {
	if _, err := b.prng.Read(buf); err != nil {
		// Sanity check, deterministic streams cannot fail.
		panic(err)
	}
	return binary.LittleEndian.Uint64(buf)
}

// UniformSampler samples polynomials with coefficients uniform in
// [0, Modulus), by rejection to the largest power-of-two multiple mask.
type UniformSampler struct {
	baseSampler
	buf [8]byte
}

// NewUniformSampler creates a new UniformSampler from a PRNG and a ring.
func NewUniformSampler(prng sampling.PRNG, baseRing *Ring) *UniformSampler {
	return &UniformSampler{baseSampler: baseSampler{prng: prng, baseRing: baseRing}}
}

// Read samples a polynomial with coefficients uniform in [0, Modulus).
func (u *UniformSampler) Read(pol Poly) {
	q := u.baseRing.Modulus
	mask := u.baseRing.Mask
	for i := range pol.Coeffs {
		for {
			if c := u.read8(u.buf[:]) & mask; c < q {
				pol.Coeffs[i] = c
				break
			}
		}
	}
}

// ReadNew samples a new polynomial with uniform coefficients.
func (u *UniformSampler) ReadNew() (pol Poly) {
	pol = u.baseRing.NewPoly()
	u.Read(pol)
	return
}

// RandUint64 samples a uniform integer in [0, v) from prng by rejection
// over the smallest power-of-two range covering v.
func RandUint64(prng sampling.PRNG, v uint64) uint64 {
	mask := uint64(1)<<bits.Len64(v-1) - 1
	buf := make([]byte, 8)
	for {
		if _, err := prng.Read(buf); err != nil {
			// Sanity check, deterministic streams cannot fail.
			panic(err)
		}
		if c := binary.LittleEndian.Uint64(buf) & mask; c < v {
			return c
		}
	}
}

// BinomialSampler samples polynomials with centered-binomial
// coefficients: the sum of Pairs differences of independent bits, of
// variance Pairs/2 and maximum magnitude Pairs.
type BinomialSampler struct {
	baseSampler
	pairs int

	bitBuf  uint64
	bitLeft int
	buf     [8]byte
}

// NewBinomialSampler creates a new BinomialSampler drawing Pairs
// bit-pairs per coefficient.
func NewBinomialSampler(prng sampling.PRNG, baseRing *Ring, pairs int) (*BinomialSampler, error) {
	if pairs < 1 || pairs > 31 {
		return nil, fmt.Errorf("invalid binomial parameter: %d pairs", pairs)
	}
	return &BinomialSampler{baseSampler: baseSampler{prng: prng, baseRing: baseRing}, pairs: pairs}, nil
}

func (b *BinomialSampler) nextBits(n int) uint64 {
	if b.bitLeft < n {
		b.bitBuf = b.read8(b.buf[:])
		b.bitLeft = 64
	}
	v := b.bitBuf & (1<<n - 1)
	b.bitBuf >>= n
	b.bitLeft -= n
	return v
}

// Read samples a centered-binomial polynomial in the coefficient
// representation, with negative values mapped to [q-Pairs, q).
func (b *BinomialSampler) Read(pol Poly) {
	q := b.baseRing.Modulus
	for i := range pol.Coeffs {
		v := b.nextBits(2 * b.pairs)
		c := bits.OnesCount64(v&0x5555555555555555) - bits.OnesCount64(v&0xAAAAAAAAAAAAAAAA)
		if c < 0 {
			pol.Coeffs[i] = q - uint64(-c)
		} else {
			pol.Coeffs[i] = uint64(c)
		}
	}
}

// ReadNew samples a new centered-binomial polynomial.
func (b *BinomialSampler) ReadNew() (pol Poly) {
	pol = b.baseRing.NewPoly()
	b.Read(pol)
	return
}

// MaxNorm returns the maximum magnitude of the sampled coefficients.
func (b *BinomialSampler) MaxNorm() uint64 {
	return uint64(b.pairs)
}

// DrownSampler samples polynomials with coefficients signed-uniform in
// [-Bound*2^Sec, Bound*2^Sec], the drowning-noise distribution: noise
// of magnitude up to Bound added to it is hidden up to statistical
// distance 2^-Sec.
type DrownSampler struct {
	baseSampler
	magnitude uint64
	buf       [8]byte
}

// NewDrownSampler creates a new DrownSampler of bound Bound and
// statistical security Sec. The shifted magnitude must stay below half
// of the ring modulus for the signed lift to be well defined.
func NewDrownSampler(prng sampling.PRNG, baseRing *Ring, bound uint64, sec int) (*DrownSampler, error) {
	if bound == 0 || sec < 0 || sec > 62 {
		return nil, fmt.Errorf("invalid drowning parameters: bound %d, security %d", bound, sec)
	}
	if bits.Len64(bound)+sec > 62 {
		return nil, fmt.Errorf("invalid drowning parameters: bound %d << %d overflows", bound, sec)
	}
	magnitude := bound << uint(sec)
	if magnitude >= baseRing.Modulus>>1 {
		return nil, fmt.Errorf("invalid drowning parameters: magnitude %d exceeds half of modulus %d", magnitude, baseRing.Modulus)
	}
	return &DrownSampler{baseSampler: baseSampler{prng: prng, baseRing: baseRing}, magnitude: magnitude}, nil
}

// Read samples a drowning-noise polynomial in the coefficient
// representation, with the signed values lifted mod q.
func (d *DrownSampler) Read(pol Poly) {
	q := d.baseRing.Modulus
	m := d.magnitude
	span := 2*m + 1
	mask := uint64(1)<<bits.Len64(span-1) - 1
	for i := range pol.Coeffs {
		var c uint64
		for {
			if c = d.read8(d.buf[:]) & mask; c < span {
				break
			}
		}
		if c >= m {
			pol.Coeffs[i] = c - m
		} else {
			pol.Coeffs[i] = q - (m - c)
		}
	}
}

// ReadNew samples a new drowning-noise polynomial.
func (d *DrownSampler) ReadNew() (pol Poly) {
	pol = d.baseRing.NewPoly()
	d.Read(pol)
	return
}

// MaxNorm returns the maximum magnitude of the sampled coefficients.
func (d *DrownSampler) MaxNorm() uint64 {
	return d.magnitude
}
