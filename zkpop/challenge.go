package zkpop

import (
	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// absent marks a challenge slot with no monomial; it contributes zero
// to the matrix-vector product.
const absent = -1

// Challenge is a sparse bit-monomial matrix W with Blocks stacked V x U
// blocks. Entry (b, v, u) is either the exponent of a monomial X^k,
// k in [0, N), or absent.
type Challenge struct {
	Blocks int
	V      int
	U      int
	Exps   []int
}

// SampleChallenge derives the challenge matrix for the given statement
// size from a transcript-bound seed. Each slot is drawn uniformly from
// [0, N] by rejection, with N acting as the absent sentinel.
//
// TODO: for multiple provers batched in one round, the seed must come
// from a committed random beacon rather than from the individual
// transcript, so that a rushing prover cannot grind its commitment.
func SampleChallenge(params bgv.Parameters, seed []byte, blocks int) Challenge {

	prng := sampling.NewStream(seed)
	N := uint64(params.N())

	ch := Challenge{Blocks: blocks, V: params.V(), U: params.U()}
	ch.Exps = make([]int, blocks*ch.V*ch.U)
	for i := range ch.Exps {
		if k := ring.RandUint64(prng, N+1); k == N {
			ch.Exps[i] = absent
		} else {
			ch.Exps[i] = int(k)
		}
	}
	return ch
}

// at returns the exponent at block b, row v, column u.
func (ch Challenge) at(b, v, u int) int {
	return ch.Exps[(b*ch.V+v)*ch.U+u]
}

// MulVec evaluates the blocked matrix-vector product W*x for x a batch
// of Blocks*U polynomials in the coefficient representation, returning
// Blocks*V polynomials. Absent entries contribute nothing.
func (ch Challenge) MulVec(r *ring.Ring, x bgv.PolyVector) bgv.PolyVector {
	out := make(bgv.PolyVector, ch.Blocks*ch.V)
	for b := 0; b < ch.Blocks; b++ {
		for v := 0; v < ch.V; v++ {
			acc := r.NewPoly()
			for u := 0; u < ch.U; u++ {
				if k := ch.at(b, v, u); k != absent {
					r.MulMonomialThenAdd(x[b*ch.U+u], k, acc)
				}
			}
			out[b*ch.V+v] = acc
		}
	}
	return out
}
