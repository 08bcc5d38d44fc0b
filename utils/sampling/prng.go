// Package sampling provides secure and deterministic sources of random
// bytes for the ring samplers and the protocol layer.
package sampling

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// KeySize is the byte length of the keys accepted by NewStream. Shorter
// keys are zero-padded to this length.
const KeySize = 32

// PRNG is an interface for the generation of random bytes.
type PRNG interface {
	io.Reader
}

// SystemPRNG draws from crypto/rand. Compute parties use it for their
// secret masks, encryption and drowning randomness and proof masks.
type SystemPRNG struct{}

// NewSystemPRNG returns a PRNG backed by the operating system.
func NewSystemPRNG() *SystemPRNG {
	return &SystemPRNG{}
}

func (prng *SystemPRNG) Read(sum []byte) (n int, err error) {
	return rand.Read(sum)
}

// KeyedPRNG deterministically generates a sequence of random bytes from a
// key using the blake2b XOF. Parties seeded with the same key obtain the
// same stream.
// KeyedPRNG is not safe for concurrent use: interleaved reads from
// multiple goroutines would make the consumed sequence nondeterministic.
type KeyedPRNG struct {
	key []byte
	xof blake2b.XOF
}

// NewKeyedPRNG creates a new KeyedPRNG from the given key. A nil key is
// accepted but yields a stream that anyone can recompute.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	var err error
	prng := new(KeyedPRNG)
	prng.key = append([]byte(nil), key...)
	prng.xof, err = blake2b.NewXOF(blake2b.OutputLengthUnknown, key)
	return prng, err
}

// Key returns a copy of the key used to seed the PRNG.
func (prng *KeyedPRNG) Key() (key []byte) {
	return append([]byte(nil), prng.key...)
}

func (prng *KeyedPRNG) Read(sum []byte) (n int, err error) {
	return prng.xof.Read(sum)
}

// Reset rewinds the PRNG to its initial state.
func (prng *KeyedPRNG) Reset() {
	prng.xof.Reset()
}

// streamPRNG is a deterministic stream derived from (key, index vector).
type streamPRNG struct {
	digest *blake3.Digest
}

// NewStream returns the deterministic byte stream identified by (key,
// index). Streams at distinct index vectors are computationally
// independent; the index vector is the protocol's domain separator
// (e.g. {randomness slot, sender, receiver}). The key is zero-padded to
// KeySize bytes.
func NewStream(key []byte, index ...uint64) PRNG {
	padded := make([]byte, KeySize)
	copy(padded, key)

	h, err := blake3.NewKeyed(padded)
	if err != nil {
		// Sanity check, the key has the required size.
		panic(err)
	}

	buf := make([]byte, 8*len(index))
	for i, v := range index {
		binary.LittleEndian.PutUint64(buf[8*i:], v)
	}
	if _, err := h.Write(buf); err != nil {
		// Sanity check, blake3 writes cannot fail.
		panic(err)
	}

	return &streamPRNG{digest: h.Digest()}
}

func (prng *streamPRNG) Read(sum []byte) (n int, err error) {
	return prng.digest.Read(sum)
}

// Hash returns the 32-byte blake3 digest of the concatenation of the
// given byte slices. It is used to bind challenge seeds to transcripts.
func Hash(parts ...[]byte) []byte {
	h := blake3.New()
	for _, p := range parts {
		if _, err := h.Write(p); err != nil {
			// Sanity check, blake3 writes cannot fail.
			panic(err)
		}
	}
	return h.Sum(nil)
}
