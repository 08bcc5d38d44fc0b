package spdz

import (
	"crypto/rand"
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/mpcnet"
	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher is the symmetric authenticated-encryption context protecting
// tag payloads on the wire: a key and a nonce, opened to the verifiers
// at the end of a run. Payloads are ciphertext || tag with the nonce
// taken from the context.
type Cipher struct {
	key   []byte
	nonce []byte
}

// NewRandomCipher draws a fresh cipher context from the system source.
func NewRandomCipher() (*Cipher, error) {
	c := &Cipher{
		key:   make([]byte, chacha20poly1305.KeySize),
		nonce: make([]byte, chacha20poly1305.NonceSize),
	}
	if _, err := rand.Read(c.key); err != nil {
		return nil, err
	}
	if _, err := rand.Read(c.nonce); err != nil {
		return nil, err
	}
	return c, nil
}

// CipherFromBytes rebuilds a cipher context from its opened key||nonce
// serialization.
func CipherFromBytes(raw []byte) (*Cipher, error) {
	if len(raw) != chacha20poly1305.KeySize+chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: cipher context of %d bytes", mpcnet.ErrTransportFailed, len(raw))
	}
	return &Cipher{
		key:   append([]byte(nil), raw[:chacha20poly1305.KeySize]...),
		nonce: append([]byte(nil), raw[chacha20poly1305.KeySize:]...),
	}, nil
}

// Bytes serializes the context as key || nonce.
func (c *Cipher) Bytes() []byte {
	return append(append([]byte(nil), c.key...), c.nonce...)
}

// SealVector encrypts a plaintext batch.
func (c *Cipher) SealVector(v bgv.PolyVector) ([]byte, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, c.nonce, encode(v), nil), nil
}

// OpenVector decrypts and authenticates a sealed plaintext batch.
func (c *Cipher) OpenVector(raw []byte) (bgv.PolyVector, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, c.nonce, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", mpcnet.ErrTransportFailed, err)
	}
	var v bgv.PolyVector
	if err := decode(plain, &v); err != nil {
		return nil, err
	}
	return v, nil
}
