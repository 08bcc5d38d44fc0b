package bgv

import (
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// Randomness is the encryption randomness triple (u, v, w) in NTT(R_q),
// batched. Fresh randomness draws all three from centered binomials;
// drowning randomness draws v and w signed-uniform at the drowning
// bound, wide enough to statistically hide the noise accumulated by a
// homomorphic product.
type Randomness struct {
	U PolyVector
	V PolyVector
	W PolyVector
}

// NewRandomness samples fresh encryption randomness for a batch of size
// n from the three streams.
func NewRandomness(params Parameters, prngU, prngV, prngW sampling.PRNG, n int) (r Randomness, err error) {

	rq := params.RingQ()

	var sU, sV, sW *ring.BinomialSampler
	if sU, err = ring.NewBinomialSampler(prngU, rq, EphemeralPairs); err != nil {
		return
	}
	if sV, err = ring.NewBinomialSampler(prngV, rq, NoisePairs); err != nil {
		return
	}
	if sW, err = ring.NewBinomialSampler(prngW, rq, NoisePairs); err != nil {
		return
	}

	return readRandomness(rq, sU, sV, sW, n), nil
}

// NewDrowningRandomness samples drowning randomness for a batch of size
// n: u centered binomial, v and w signed-uniform in
// [-DrownBound*2^StatSec, DrownBound*2^StatSec].
func NewDrowningRandomness(params Parameters, prngU, prngV, prngW sampling.PRNG, n int) (r Randomness, err error) {

	rq := params.RingQ()

	sU, err := ring.NewBinomialSampler(prngU, rq, EphemeralPairs)
	if err != nil {
		return
	}
	var sV, sW *ring.DrownSampler
	if sV, err = ring.NewDrownSampler(prngV, rq, params.DrownBound(), params.StatSec()); err != nil {
		return
	}
	if sW, err = ring.NewDrownSampler(prngW, rq, params.DrownBound(), params.StatSec()); err != nil {
		return
	}

	return readRandomness(rq, sU, sV, sW, n), nil
}

func readRandomness(rq *ring.Ring, sU, sV, sW ring.Sampler, n int) (r Randomness) {
	r.U = make(PolyVector, n)
	r.V = make(PolyVector, n)
	r.W = make(PolyVector, n)
	for i := 0; i < n; i++ {
		r.U[i] = sU.ReadNew()
		rq.NTT(r.U[i], r.U[i])
		r.V[i] = sV.ReadNew()
		rq.NTT(r.V[i], r.V[i])
		r.W[i] = sW.ReadNew()
		rq.NTT(r.W[i], r.W[i])
	}
	return
}
