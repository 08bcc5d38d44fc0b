package zkpop

import (
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// Prover proves plaintext knowledge for ciphertexts under a fixed
// public key. The auxiliary masks are drawn from prng, which must be an
// unpredictable source: the masks hide the witness.
type Prover struct {
	params bgv.Parameters
	enc    *bgv.Encryptor
	prng   sampling.PRNG
}

// NewProver creates a new Prover for the given public key.
func NewProver(params bgv.Parameters, pk *bgv.PublicKey, prng sampling.PRNG) *Prover {
	return &Prover{params: params, enc: bgv.NewEncryptor(params, pk), prng: prng}
}

// ProveNew encrypts the plaintext batch x (in NTT(R_p), length a
// multiple of U) under the fresh randomness r and returns the
// transcript proving that x and r are norm-bounded. The returned
// proof carries the statement ciphertext.
func (p *Prover) ProveNew(x bgv.PolyVector, r bgv.Randomness) (*Proof, error) {

	params := p.params
	rq := params.RingQ()
	U, V := params.U(), params.V()
	zkSec := params.ZKSec()

	if len(x) == 0 || len(x)%U != 0 {
		return nil, fmt.Errorf("statement batch of size %d is not a multiple of U=%d", len(x), U)
	}
	blocks := len(x) / U

	c, err := p.enc.EncryptNew(x, r)
	if err != nil {
		return nil, err
	}

	// Auxiliary masks: y at the plaintext half-width, s at the
	// centered-binomial widths, all scaled by 2^ZKSec.
	ySampler, err := ring.NewDrownSampler(p.prng, rq, params.PlaintextModulus()>>1, zkSec)
	if err != nil {
		return nil, err
	}
	sUSampler, err := ring.NewDrownSampler(p.prng, rq, bgv.EphemeralPairs, zkSec)
	if err != nil {
		return nil, err
	}
	sVSampler, err := ring.NewDrownSampler(p.prng, rq, bgv.NoisePairs, zkSec)
	if err != nil {
		return nil, err
	}
	sWSampler, err := ring.NewDrownSampler(p.prng, rq, bgv.NoisePairs, zkSec)
	if err != nil {
		return nil, err
	}

	aux := blocks * V
	y := make(bgv.PolyVector, aux)
	sU := make(bgv.PolyVector, aux)
	sV := make(bgv.PolyVector, aux)
	sW := make(bgv.PolyVector, aux)
	for i := 0; i < aux; i++ {
		y[i] = ySampler.ReadNew()
		sU[i] = sUSampler.ReadNew()
		sV[i] = sVSampler.ReadNew()
		sW[i] = sWSampler.ReadNew()
	}

	a, err := p.enc.EncryptRqNew(nttVector(rq, y), bgv.Randomness{
		U: nttVector(rq, sU),
		V: nttVector(rq, sV),
		W: nttVector(rq, sW),
	})
	if err != nil {
		return nil, err
	}

	proof := &Proof{C: c, A: a}
	ch := SampleChallenge(params, proof.seed(), blocks)

	// Responses in the coefficient domain: z = y + W*x over the lifted
	// statement, t = s + W*r componentwise.
	xq := liftCoeff(params, x)
	proof.Z = addVector(rq, y, ch.MulVec(rq, xq))
	proof.TU = addVector(rq, sU, ch.MulVec(rq, inttVector(rq, r.U)))
	proof.TV = addVector(rq, sV, ch.MulVec(rq, inttVector(rq, r.V)))
	proof.TW = addVector(rq, sW, ch.MulVec(rq, inttVector(rq, r.W)))

	return proof, nil
}

// liftCoeff maps a plaintext batch from NTT(R_p) to the coefficient
// representation of R_q, lifting the representatives in [0, p).
func liftCoeff(params bgv.Parameters, pt bgv.PolyVector) bgv.PolyVector {
	rp := params.RingP()
	out := make(bgv.PolyVector, len(pt))
	buff := rp.NewPoly()
	for i := range pt {
		rp.INTT(pt[i], buff)
		out[i] = params.RingQ().NewPoly()
		copy(out[i].Coeffs, buff.Coeffs)
	}
	return out
}

func nttVector(r *ring.Ring, v bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, len(v))
	for i := range v {
		out[i] = r.NewPoly()
		r.NTT(v[i], out[i])
	}
	return out
}

func inttVector(r *ring.Ring, v bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, len(v))
	for i := range v {
		out[i] = r.NewPoly()
		r.INTT(v[i], out[i])
	}
	return out
}

func addVector(r *ring.Ring, a, b bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, len(a))
	for i := range a {
		out[i] = r.NewPoly()
		r.Add(a[i], b[i], out[i])
	}
	return out
}
