package bgv

// Evaluator provides the homomorphic operations of the scheme:
// coordinate-wise addition and multiplication by ring elements or
// scalars in NTT(R_q). There is no relinearization; products of two
// ciphertexts are not supported, the protocol layer multiplies
// ciphertexts by known ring elements only. Any such product grows the
// noise multiplicatively and the result must be refreshed with an
// encryption under drowning randomness before leaving the party.
type Evaluator struct {
	params Parameters
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(params Parameters) *Evaluator {
	return &Evaluator{params: params}
}

// AddNew returns ct0 + ct1.
func (eval *Evaluator) AddNew(ct0, ct1 *Ciphertext) *Ciphertext {
	rq := eval.params.RingQ()
	out := NewCiphertext(eval.params, ct0.Len())
	for i := range ct0.C0 {
		rq.Add(ct0.C0[i], ct1.C0[i], out.C0[i])
		rq.Add(ct0.C1[i], ct1.C1[i], out.C1[i])
	}
	return out
}

// SubNew returns ct0 - ct1.
func (eval *Evaluator) SubNew(ct0, ct1 *Ciphertext) *Ciphertext {
	rq := eval.params.RingQ()
	out := NewCiphertext(eval.params, ct0.Len())
	for i := range ct0.C0 {
		rq.Sub(ct0.C0[i], ct1.C0[i], out.C0[i])
		rq.Sub(ct0.C1[i], ct1.C1[i], out.C1[i])
	}
	return out
}

// MulPolyNew returns the coordinate-wise product of ct with a batch of
// ring elements in NTT(R_q).
func (eval *Evaluator) MulPolyNew(ct *Ciphertext, m PolyVector) *Ciphertext {
	rq := eval.params.RingQ()
	out := NewCiphertext(eval.params, ct.Len())
	for i := range ct.C0 {
		rq.MulCoeffs(ct.C0[i], m[i], out.C0[i])
		rq.MulCoeffs(ct.C1[i], m[i], out.C1[i])
	}
	return out
}

// MulScalarNew returns ct scaled by a scalar in Z_q.
func (eval *Evaluator) MulScalarNew(ct *Ciphertext, scalar uint64) *Ciphertext {
	rq := eval.params.RingQ()
	out := NewCiphertext(eval.params, ct.Len())
	for i := range ct.C0 {
		rq.MulScalar(ct.C0[i], scalar, out.C0[i])
		rq.MulScalar(ct.C1[i], scalar, out.C1[i])
	}
	return out
}
