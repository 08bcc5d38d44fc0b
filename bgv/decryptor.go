package bgv

import "fmt"

// Decryptor decrypts batched ciphertexts with a fixed secret key.
type Decryptor struct {
	params Parameters
	sk     *SecretKey
}

// NewDecryptor creates a new Decryptor for the given secret key.
func NewDecryptor(params Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{params: params, sk: sk}
}

// DecryptNew decrypts a ciphertext batch into NTT(R_p). Each
// coefficient of c0 - c1*s is lifted to its signed representative; a
// lift beyond q/4 means the noise left the decryption window and the
// call fails with ErrDecryptOutOfRange.
func (dec *Decryptor) DecryptNew(ct *Ciphertext) (PolyVector, error) {

	rq := dec.params.RingQ()
	rp := dec.params.RingP()
	p := int64(dec.params.PlaintextModulus())
	window := int64(dec.params.CiphertextModulus() >> 2)

	d := rq.NewPoly()
	pt := make(PolyVector, ct.Len())
	for i := range pt {
		rq.MulCoeffs(ct.C1[i], dec.sk.Value, d)
		rq.Sub(ct.C0[i], d, d)
		rq.INTT(d, d)

		pt[i] = rp.NewPoly()
		for j, c := range d.Coeffs {
			v := rq.CenteredLift(c)
			if v > window || v < -window {
				return nil, fmt.Errorf("%w: |%d| > q/4 at batch %d coefficient %d", ErrDecryptOutOfRange, v, i, j)
			}
			m := v % p
			if m < 0 {
				m += p
			}
			pt[i].Coeffs[j] = uint64(m)
		}
		rp.NTT(pt[i], pt[i])
	}
	return pt, nil
}
