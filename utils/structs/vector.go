// Package structs provides generic container types with binary
// serialization, shared by the ring and protocol layers.
package structs

import (
	"fmt"
	"io"

	"github.com/tessera-mpc/tessera/utils/buffer"
	"golang.org/x/exp/constraints"
)

// CopyNewer is implemented by objects that can deep-copy themselves.
type CopyNewer[V any] interface {
	CopyNew() V
}

// BinarySizer is implemented by objects with a known serialized size.
type BinarySizer interface {
	BinarySize() int
}

// Vector is a slice of components of type T, where T implements
// CopyNewer, BinarySizer, io.WriterTo and io.ReaderFrom as required by
// the method called. Serialization is a little-endian length prefix
// followed by the components.
type Vector[T any] []T

// CopyNew returns a deep copy of the vector.
func (v Vector[T]) CopyNew() (vcpy Vector[T]) {
	vcpy = make(Vector[T], len(v))
	for i := range v {
		c, ok := any(v[i]).(CopyNewer[T])
		if !ok {
			panic(fmt.Errorf("vector component of type %T does not implement CopyNewer", v[i]))
		}
		vcpy[i] = c.CopyNew()
	}
	return
}

// BinarySize returns the serialized size of the vector in bytes.
func (v Vector[T]) BinarySize() (size int) {
	size = 8
	for i := range v {
		s, ok := any(v[i]).(BinarySizer)
		if !ok {
			panic(fmt.Errorf("vector component of type %T does not implement BinarySizer", v[i]))
		}
		size += s.BinarySize()
	}
	return
}

// WriteTo writes the vector to w.
func (v Vector[T]) WriteTo(w io.Writer) (n int64, err error) {
	if n, err = buffer.WriteUint64(w, uint64(len(v))); err != nil {
		return
	}
	for i := range v {
		wt, ok := any(v[i]).(io.WriterTo)
		if !ok {
			return n, fmt.Errorf("vector component of type %T does not implement io.WriterTo", v[i])
		}
		var inc int64
		if inc, err = wt.WriteTo(w); err != nil {
			return n + inc, err
		}
		n += inc
	}
	return
}

// ReadFrom reads a vector from r, reallocating the receiver if its
// length does not match the encoded one.
func (v *Vector[T]) ReadFrom(r io.Reader) (n int64, err error) {
	size, n, err := buffer.ReadUint64(r)
	if err != nil {
		return
	}
	if len(*v) != int(size) {
		*v = make(Vector[T], size)
	}
	for i := range *v {
		rf, ok := any(&(*v)[i]).(io.ReaderFrom)
		if !ok {
			return n, fmt.Errorf("vector component of type %T does not implement io.ReaderFrom", (*v)[i])
		}
		var inc int64
		if inc, err = rf.ReadFrom(r); err != nil {
			return n + inc, err
		}
		n += inc
	}
	return
}

// Scalars is a slice of unsigned scalars with the same serialization
// layout as Vector.
type Scalars[T constraints.Unsigned] []T

// BinarySize returns the serialized size of the slice in bytes.
func (s Scalars[T]) BinarySize() int {
	return 8 + 8*len(s)
}

// WriteTo writes the slice to w.
func (s Scalars[T]) WriteTo(w io.Writer) (n int64, err error) {
	if n, err = buffer.WriteUint64(w, uint64(len(s))); err != nil {
		return
	}
	for _, v := range s {
		var inc int64
		if inc, err = buffer.WriteUint64(w, uint64(v)); err != nil {
			return n + inc, err
		}
		n += inc
	}
	return
}

// ReadFrom reads a slice from r, reallocating the receiver if its
// length does not match the encoded one.
func (s *Scalars[T]) ReadFrom(r io.Reader) (n int64, err error) {
	size, n, err := buffer.ReadUint64(r)
	if err != nil {
		return
	}
	if len(*s) != int(size) {
		*s = make(Scalars[T], size)
	}
	for i := range *s {
		v, inc, err := buffer.ReadUint64(r)
		if err != nil {
			return n + inc, err
		}
		(*s)[i] = T(v)
		n += inc
	}
	return
}
