package bgv

import "fmt"

// Encryptor encrypts batched plaintexts under a fixed public key.
type Encryptor struct {
	params Parameters
	pk     *PublicKey
}

// NewEncryptor creates a new Encryptor for the given public key.
func NewEncryptor(params Parameters, pk *PublicKey) *Encryptor {
	return &Encryptor{params: params, pk: pk}
}

// EncryptNew encrypts a plaintext batch in NTT(R_p): each element is
// lifted to R_q and encrypted as (b*u + p*v + m, a*u + p*w).
func (enc *Encryptor) EncryptNew(pt PolyVector, r Randomness) (*Ciphertext, error) {
	return enc.EncryptRqNew(enc.params.LiftToRq(pt), r)
}

// EncryptRqNew encrypts a message batch already embedded in NTT(R_q).
// It is the encryption routine of the proof of plaintext knowledge,
// whose commitments encrypt auxiliary masks that live in R_q.
func (enc *Encryptor) EncryptRqNew(m PolyVector, r Randomness) (*Ciphertext, error) {

	if len(m) != len(r.U) {
		return nil, fmt.Errorf("message batch of size %d does not match randomness batch of size %d", len(m), len(r.U))
	}

	rq := enc.params.RingQ()
	p := enc.params.PlaintextModulus()

	ct := NewCiphertext(enc.params, len(m))
	for i := range m {
		rq.MulCoeffs(enc.pk.B, r.U[i], ct.C0[i])
		rq.MulScalarThenAdd(r.V[i], p, ct.C0[i])
		rq.Add(ct.C0[i], m[i], ct.C0[i])

		rq.MulCoeffs(enc.pk.A, r.U[i], ct.C1[i])
		rq.MulScalarThenAdd(r.W[i], p, ct.C1[i])
	}
	return ct, nil
}
