package zkpop

import (
	"bytes"
	"io"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// Proof is a non-interactive transcript: the statement ciphertext C,
// the commitment ciphertext A, and the responses in the coefficient
// representation of R_q. C and A are serialized in NTT form, the
// responses in coefficient form.
type Proof struct {
	C *bgv.Ciphertext
	A *bgv.Ciphertext

	Z  bgv.PolyVector
	TU bgv.PolyVector
	TV bgv.PolyVector
	TW bgv.PolyVector
}

// seed derives the Fiat-Shamir challenge seed from the transcript
// messages preceding the challenge.
func (p *Proof) seed() []byte {
	c := new(bytes.Buffer)
	if _, err := p.C.WriteTo(c); err != nil {
		// Sanity check, writes to a bytes.Buffer cannot fail.
		panic(err)
	}
	a := new(bytes.Buffer)
	if _, err := p.A.WriteTo(a); err != nil {
		// Sanity check, writes to a bytes.Buffer cannot fail.
		panic(err)
	}
	return sampling.Hash(c.Bytes(), a.Bytes())
}

// BinarySize returns the serialized size of the proof in bytes.
func (p *Proof) BinarySize() int {
	return p.C.BinarySize() + p.A.BinarySize() + p.Z.BinarySize() +
		p.TU.BinarySize() + p.TV.BinarySize() + p.TW.BinarySize()
}

// WriteTo writes the proof to w.
func (p *Proof) WriteTo(w io.Writer) (n int64, err error) {
	var inc int64
	if n, err = p.C.WriteTo(w); err != nil {
		return
	}
	if inc, err = p.A.WriteTo(w); err != nil {
		return n + inc, err
	}
	n += inc
	for _, v := range []bgv.PolyVector{p.Z, p.TU, p.TV, p.TW} {
		if inc, err = v.WriteTo(w); err != nil {
			return n + inc, err
		}
		n += inc
	}
	return
}

// ReadFrom reads a proof from r.
func (p *Proof) ReadFrom(r io.Reader) (n int64, err error) {
	var inc int64
	if p.C == nil {
		p.C = new(bgv.Ciphertext)
	}
	if p.A == nil {
		p.A = new(bgv.Ciphertext)
	}
	if n, err = p.C.ReadFrom(r); err != nil {
		return
	}
	if inc, err = p.A.ReadFrom(r); err != nil {
		return n + inc, err
	}
	n += inc
	for _, v := range []*bgv.PolyVector{&p.Z, &p.TU, &p.TV, &p.TW} {
		if inc, err = v.ReadFrom(r); err != nil {
			return n + inc, err
		}
		n += inc
	}
	return
}
