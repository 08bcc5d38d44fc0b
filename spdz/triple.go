package spdz

import (
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
)

// Triple is a party's authenticated Beaver triple share, with
// c = a*b coordinate-wise over the batch.
type Triple struct {
	A AuthShare
	B AuthShare
	C AuthShare
}

// GenTriple runs the offline triple generation over a batch of size n
// (a multiple of the proof block size U): sample the a and b shares,
// exchange zero-knowledge-verified encryptions, derive the c = a*b
// shares homomorphically, and MAC-tag all three components.
func (p *ComputeParty) GenTriple(n int) (*Triple, error) {

	if n == 0 || n%p.params.U() != 0 {
		return nil, fmt.Errorf("triple batch of size %d is not a multiple of U=%d", n, p.params.U())
	}

	aShare := p.uniformPlaintext(n)
	bShare := p.uniformPlaintext(n)

	encA, err := p.ProveAndExchange(aShare)
	if err != nil {
		return nil, err
	}
	encB, err := p.ProveAndExchange(bShare)
	if err != nil {
		return nil, err
	}

	cShare, err := p.mulShares(aShare, bShare, encB)
	if err != nil {
		return nil, err
	}
	encC, err := p.ProveAndExchange(cShare)
	if err != nil {
		return nil, err
	}

	aTag, err := p.Authenticate(encA, aShare)
	if err != nil {
		return nil, err
	}
	bTag, err := p.Authenticate(encB, bShare)
	if err != nil {
		return nil, err
	}
	cTag, err := p.Authenticate(encC, cShare)
	if err != nil {
		return nil, err
	}

	return &Triple{
		A: AuthShare{Value: aShare, Tag: aTag},
		B: AuthShare{Value: bShare, Tag: bTag},
		C: AuthShare{Value: cShare, Tag: cTag},
	}, nil
}

// mulShares derives the party's additive share of a*b from its own
// shares and the peers' encrypted b shares: for every peer it sends
// lift(a_i) * c_peer - Enc(pk_peer, mask, drowning), keeps the mask,
// and sums the decryptions about its own b share with the kept masks
// and the local a_i * b_i term. The drowning refresh re-randomizes each
// product ciphertext before it leaves the party.
func (p *ComputeParty) mulShares(aShare, bShare bgv.PolyVector, encB []*bgv.Ciphertext) (bgv.PolyVector, error) {

	rp := p.params.RingP()
	n := len(aShare)
	aQ := p.params.LiftToRq(aShare)

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
		d := p.eval.SubNew(p.eval.MulPolyNew(encB[i], aQ), maskCt)
		payloads[i] = encode(d)
	}

	received, err := p.sess.AllToAll(p.group, payloads)
	if err != nil {
		return nil, err
	}

	cShare := mulVec(rp, aShare, bShare)
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
		addVecInPlace(rp, cShare, part)
		addVecInPlace(rp, cShare, masks[i])
	}
	return cShare, nil
}
