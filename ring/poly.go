package ring

import (
	"io"

	"github.com/tessera-mpc/tessera/utils/buffer"
)

// Poly is a polynomial over a single prime modulus, stored either in
// coefficient or NTT representation. The representation is positional:
// the ring operations document which one they expect.
type Poly struct {
	Coeffs []uint64
}

// NewPoly returns a zero polynomial of degree N-1.
func NewPoly(N int) Poly {
	return Poly{Coeffs: make([]uint64, N)}
}

// N returns the number of coefficients of the polynomial.
func (pol Poly) N() int {
	return len(pol.Coeffs)
}

// CopyNew returns a deep copy of the polynomial.
func (pol Poly) CopyNew() Poly {
	return Poly{Coeffs: append([]uint64(nil), pol.Coeffs...)}
}

// Copy copies other on the receiver, reallocating if sizes differ.
func (pol *Poly) Copy(other Poly) {
	if len(pol.Coeffs) != len(other.Coeffs) {
		pol.Coeffs = make([]uint64, len(other.Coeffs))
	}
	copy(pol.Coeffs, other.Coeffs)
}

// Equal returns whether the two polynomials are identical.
func (pol Poly) Equal(other Poly) bool {
	if len(pol.Coeffs) != len(other.Coeffs) {
		return false
	}
	for i := range pol.Coeffs {
		if pol.Coeffs[i] != other.Coeffs[i] {
			return false
		}
	}
	return true
}

// BinarySize returns the serialized size of the polynomial in bytes.
func (pol Poly) BinarySize() int {
	return 8 + 8*len(pol.Coeffs)
}

// WriteTo writes the polynomial to w as a little-endian length prefix
// followed by the coefficients.
func (pol Poly) WriteTo(w io.Writer) (n int64, err error) {
	if n, err = buffer.WriteUint64(w, uint64(len(pol.Coeffs))); err != nil {
		return
	}
	inc, err := buffer.WriteUint64Slice(w, pol.Coeffs)
	return n + inc, err
}

// ReadFrom reads a polynomial from r, reallocating the receiver if its
// degree does not match the encoded one.
func (pol *Poly) ReadFrom(r io.Reader) (n int64, err error) {
	size, n, err := buffer.ReadUint64(r)
	if err != nil {
		return
	}
	if len(pol.Coeffs) != int(size) {
		pol.Coeffs = make([]uint64, size)
	}
	inc, err := buffer.ReadUint64Slice(r, pol.Coeffs)
	return n + inc, err
}
