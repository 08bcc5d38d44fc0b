// Package spdz implements the authenticated preprocessing engine and
// the online phase it feeds: generation of additive shares of a global
// MAC key, authentication of shares through homomorphic
// MAC-multiplication of their encryptions, Beaver triple generation
// with zero-knowledge-verified inputs, the batched MAC check, and the
// secure-aggregation flows between compute and input parties.
//
// All protocol values are batches of plaintext ring elements in
// NTT(R_p); additive sharing, tags and openings are coordinate-wise
// over the batch. Every routine is round-synchronous over an
// mpcnet.Session and fatal on any failure (honest-with-abort).
package spdz

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/mpcnet"
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/buffer"
)

// ErrMACCheckFailed is returned when the batched MAC check reconstructs
// to a nonzero value: some opened value or tag share was corrupted and
// the output is unusable.
var ErrMACCheckFailed = errors.New("spdz: MAC check failed")

// encode serializes a sequence of values into one payload.
func encode(values ...io.WriterTo) []byte {
	buf := new(bytes.Buffer)
	for _, v := range values {
		if _, err := v.WriteTo(buf); err != nil {
			// Sanity check, writes to a bytes.Buffer cannot fail.
			panic(err)
		}
	}
	return buf.Bytes()
}

// blob is a length-prefixed opaque byte field inside a payload.
type blob []byte

func (b blob) WriteTo(w io.Writer) (n int64, err error) {
	if n, err = buffer.WriteUint64(w, uint64(len(b))); err != nil {
		return
	}
	wn, err := w.Write(b)
	return n + int64(wn), err
}

func (b *blob) ReadFrom(r io.Reader) (n int64, err error) {
	size, n, err := buffer.ReadUint64(r)
	if err != nil {
		return
	}
	*b = make([]byte, size)
	rn, err := io.ReadFull(r, *b)
	return n + int64(rn), err
}

// decode deserializes a sequence of values from one payload.
func decode(payload []byte, values ...io.ReaderFrom) error {
	buf := bytes.NewBuffer(payload)
	for _, v := range values {
		if _, err := v.ReadFrom(buf); err != nil {
			return fmt.Errorf("%w: payload decode: %s", mpcnet.ErrTransportFailed, err)
		}
	}
	return nil
}

// The coordinate-wise plaintext batch operations below are the whole
// arithmetic of the online phase.

func addVec(rp *ring.Ring, a, b bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, len(a))
	for i := range a {
		out[i] = rp.NewPoly()
		rp.Add(a[i], b[i], out[i])
	}
	return out
}

func subVec(rp *ring.Ring, a, b bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, len(a))
	for i := range a {
		out[i] = rp.NewPoly()
		rp.Sub(a[i], b[i], out[i])
	}
	return out
}

func mulVec(rp *ring.Ring, a, b bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, len(a))
	for i := range a {
		out[i] = rp.NewPoly()
		rp.MulCoeffs(a[i], b[i], out[i])
	}
	return out
}

func mulScalarVec(rp *ring.Ring, a bgv.PolyVector, scalar uint64) bgv.PolyVector {
	out := make(bgv.PolyVector, len(a))
	for i := range a {
		out[i] = rp.NewPoly()
		rp.MulScalar(a[i], scalar, out[i])
	}
	return out
}

func addVecInPlace(rp *ring.Ring, acc, a bgv.PolyVector) {
	for i := range acc {
		rp.Add(acc[i], a[i], acc[i])
	}
}

func zeroVec(rp *ring.Ring, n int) bgv.PolyVector {
	out := make(bgv.PolyVector, n)
	for i := range out {
		out[i] = rp.NewPoly()
	}
	return out
}

// isZeroVec reports whether every coefficient of the batch is zero.
func isZeroVec(v bgv.PolyVector) bool {
	for i := range v {
		for _, c := range v[i].Coeffs {
			if c != 0 {
				return false
			}
		}
	}
	return true
}
