package bgv

import "io"

// Ciphertext is a batch of BGV ciphertext pairs (c0, c1) in NTT(R_q)^2.
// The i-th element decrypts to the i-th plaintext of the batch via
// (c0 - c1*s) mod q mod p. Ciphertexts are serialized in NTT form.
type Ciphertext struct {
	C0 PolyVector
	C1 PolyVector
}

// NewCiphertext allocates a zero ciphertext batch of size n.
func NewCiphertext(params Parameters, n int) *Ciphertext {
	return &Ciphertext{C0: params.NewPolyQVector(n), C1: params.NewPolyQVector(n)}
}

// Len returns the batch size.
func (ct *Ciphertext) Len() int {
	return len(ct.C0)
}

// CopyNew returns a deep copy of the ciphertext.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	return &Ciphertext{C0: ct.C0.CopyNew(), C1: ct.C1.CopyNew()}
}

// Equal returns whether the two ciphertexts are identical.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	if len(ct.C0) != len(other.C0) || len(ct.C1) != len(other.C1) {
		return false
	}
	for i := range ct.C0 {
		if !ct.C0[i].Equal(other.C0[i]) || !ct.C1[i].Equal(other.C1[i]) {
			return false
		}
	}
	return true
}

// BinarySize returns the serialized size of the ciphertext in bytes.
func (ct *Ciphertext) BinarySize() int {
	return ct.C0.BinarySize() + ct.C1.BinarySize()
}

// WriteTo writes the ciphertext to w.
func (ct *Ciphertext) WriteTo(w io.Writer) (n int64, err error) {
	if n, err = ct.C0.WriteTo(w); err != nil {
		return
	}
	inc, err := ct.C1.WriteTo(w)
	return n + inc, err
}

// ReadFrom reads a ciphertext from r.
func (ct *Ciphertext) ReadFrom(r io.Reader) (n int64, err error) {
	if n, err = ct.C0.ReadFrom(r); err != nil {
		return
	}
	inc, err := ct.C1.ReadFrom(r)
	return n + inc, err
}
