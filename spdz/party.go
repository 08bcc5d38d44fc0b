package spdz

import (
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/mpcnet"
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
	"github.com/tessera-mpc/tessera/zkpop"
)

// ComputeParty is one member of the compute quorum: its session, its
// position in the quorum, its MAC key share, its encryption keys and
// the peers' public keys. All protocol routines are methods on it.
type ComputeParty struct {
	params bgv.Parameters
	sess   mpcnet.Session
	group  mpcnet.Communicator
	ks     *KeySchedule

	idx   int
	alpha uint64

	sk  *bgv.SecretKey
	pks []*bgv.PublicKey

	eval      *bgv.Evaluator
	dec       *bgv.Decryptor
	prover    *zkpop.Prover
	verifiers []*zkpop.Verifier
	encs      []*bgv.Encryptor

	// Local secret randomness for masks and encryption noise.
	prng     sampling.PRNG
	uniformP *ring.UniformSampler
}

// NewComputeParty derives the party state for the session's id from the
// demo key schedule. The session must belong to the compute quorum.
func NewComputeParty(params bgv.Parameters, sess mpcnet.Session, compute, input mpcnet.Communicator) (*ComputeParty, error) {

	idx := compute.Index(sess.ID())
	if idx < 0 {
		return nil, fmt.Errorf("party %d is not in the compute quorum %v", sess.ID(), compute)
	}

	ks := NewKeySchedule(params, compute, input)

	p := &ComputeParty{
		params: params,
		sess:   sess,
		group:  compute,
		ks:     ks,
		idx:    idx,
		alpha:  ks.MACKeyShare(idx),
		eval:   bgv.NewEvaluator(params),
		prng:   sampling.NewSystemPRNG(),
	}

	p.pks = make([]*bgv.PublicKey, len(compute))
	p.verifiers = make([]*zkpop.Verifier, len(compute))
	p.encs = make([]*bgv.Encryptor, len(compute))
	for i := range compute {
		sk, pk, err := ks.KeyPair(i)
		if err != nil {
			return nil, err
		}
		if i == idx {
			p.sk = sk
		}
		p.pks[i] = pk
		p.verifiers[i] = zkpop.NewVerifier(params, pk)
		p.encs[i] = bgv.NewEncryptor(params, pk)
	}

	p.dec = bgv.NewDecryptor(params, p.sk)
	p.prover = zkpop.NewProver(params, p.pks[idx], p.prng)
	p.uniformP = ring.NewUniformSampler(p.prng, params.RingP())

	return p, nil
}

// Index returns the party's position in the compute quorum.
func (p *ComputeParty) Index() int { return p.idx }

// MACKeyShare returns the party's additive share of the MAC key.
func (p *ComputeParty) MACKeyShare() uint64 { return p.alpha }

// Params returns the scheme parameters.
func (p *ComputeParty) Params() bgv.Parameters { return p.params }

// leader reports whether the party is the designated one (position 0)
// that absorbs public constants into its shares.
func (p *ComputeParty) leader() bool { return p.idx == 0 }

// uniformPlaintext samples a secret uniform plaintext batch.
func (p *ComputeParty) uniformPlaintext(n int) bgv.PolyVector {
	out := make(bgv.PolyVector, n)
	for i := range out {
		out[i] = p.uniformP.ReadNew()
	}
	return out
}

// drowningRandomness samples fresh secret drowning randomness.
func (p *ComputeParty) drowningRandomness(n int) (bgv.Randomness, error) {
	return bgv.NewDrowningRandomness(p.params, p.prng, p.prng, p.prng, n)
}

// freshRandomness samples fresh secret encryption randomness.
func (p *ComputeParty) freshRandomness(n int) (bgv.Randomness, error) {
	return bgv.NewRandomness(p.params, p.prng, p.prng, p.prng, n)
}

// Ready enters the readiness barrier of the compute quorum.
func (p *ComputeParty) Ready() error {
	return p.sess.Ready(p.group)
}
