package spdz

import (
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/zkpop"
)

// ProveAndExchange encrypts the party's share, proves plaintext
// knowledge, exchanges the transcripts across the quorum and verifies
// every peer's. It returns the encrypted shares indexed by quorum
// position. A rejected proof aborts the run, naming the offending
// party; none of the exchanged material may be used.
func (p *ComputeParty) ProveAndExchange(share bgv.PolyVector) ([]*bgv.Ciphertext, error) {

	r, err := p.freshRandomness(len(share))
	if err != nil {
		return nil, err
	}
	proof, err := p.prover.ProveNew(share, r)
	if err != nil {
		return nil, err
	}

	payloads, err := p.sess.AllGather(p.group, encode(proof))
	if err != nil {
		return nil, err
	}

	cts := make([]*bgv.Ciphertext, len(p.group))
	for i, raw := range payloads {
		if i == p.idx {
			cts[i] = proof.C
			continue
		}
		var received zkpop.Proof
		if err := decode(raw, &received); err != nil {
			return nil, err
		}
		if err := p.verifiers[i].Verify(&received); err != nil {
			return nil, fmt.Errorf("party %d: %w", p.group[i], err)
		}
		cts[i] = received.C
	}
	return cts, nil
}

// Authenticate turns the quorum's encrypted shares of a batch x into
// the party's additive tag share of alpha*x: for every peer it sends
// d = alpha_i * c_peer - Enc(pk_peer, mask, drowning), keeps the mask,
// and sums the decryptions of what the peers sent about its own share
// together with the kept masks and the local alpha_i * x_i term.
func (p *ComputeParty) Authenticate(encShares []*bgv.Ciphertext, ownShare bgv.PolyVector) (bgv.PolyVector, error) {

	rp := p.params.RingP()
	n := len(ownShare)
	alphaQ := p.params.LiftScalarToQ(p.alpha)

	masks := make([]bgv.PolyVector, len(p.group))
	payloads := make([][]byte, len(p.group))
	for i := range p.group {
		if i == p.idx {
			payloads[i] = nil
			continue
		}
		masks[i] = p.uniformPlaintext(n)
		drown, err := p.drowningRandomness(n)
		if err != nil {
			return nil, err
		}
		maskCt, err := p.encs[i].EncryptNew(masks[i], drown)
		if err != nil {
			return nil, err
		}
		d := p.eval.SubNew(p.eval.MulScalarNew(encShares[i], alphaQ), maskCt)
		payloads[i] = encode(d)
	}

	received, err := p.sess.AllToAll(p.group, payloads)
	if err != nil {
		return nil, err
	}

	tag := mulScalarVec(rp, ownShare, p.alpha)
	for i := range p.group {
		if i == p.idx {
			continue
		}
		d := new(bgv.Ciphertext)
		if err := decode(received[i], d); err != nil {
			return nil, err
		}
		part, err := p.dec.DecryptNew(d)
		if err != nil {
			return nil, err
		}
		addVecInPlace(rp, tag, part)
		addVecInPlace(rp, tag, masks[i])
	}
	return tag, nil
}
