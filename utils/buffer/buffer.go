// Package buffer implements little-endian encoding helpers for writing
// and reading fixed-layout values to and from io.Writer and io.Reader.
// Every payload that crosses the network is produced by these helpers,
// so the wire format is little-endian throughout.
package buffer

import (
	"encoding/binary"
	"io"
)

// WriteUint64 writes v to w in little-endian order.
func WriteUint64(w io.Writer, v uint64) (n int64, err error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	wn, err := w.Write(buf[:])
	return int64(wn), err
}

// ReadUint64 reads a little-endian uint64 from r.
func ReadUint64(r io.Reader) (v uint64, n int64, err error) {
	var buf [8]byte
	rn, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, int64(rn), err
	}
	return binary.LittleEndian.Uint64(buf[:]), int64(rn), nil
}

// WriteUint64Slice writes the elements of s to w in little-endian order,
// without a length prefix.
func WriteUint64Slice(w io.Writer, s []uint64) (n int64, err error) {
	buf := make([]byte, 8*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint64(buf[8*i:], v)
	}
	wn, err := w.Write(buf)
	return int64(wn), err
}

// ReadUint64Slice fills s with little-endian uint64 read from r.
func ReadUint64Slice(r io.Reader, s []uint64) (n int64, err error) {
	buf := make([]byte, 8*len(s))
	rn, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(rn), err
	}
	for i := range s {
		s[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return int64(rn), nil
}
