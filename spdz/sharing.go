package spdz

import (
	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/ring"
)

// AuthShare is a party's authenticated share: an additive share of a
// secret batch together with an additive share of its tag under the
// global MAC key, sum_i tag_i = alpha * sum_i value_i.
type AuthShare struct {
	Value bgv.PolyVector
	Tag   bgv.PolyVector
}

// CopyNew returns a deep copy of the share.
func (s AuthShare) CopyNew() AuthShare {
	return AuthShare{Value: s.Value.CopyNew(), Tag: s.Tag.CopyNew()}
}

// Reconstruct sums additive shares into the secret. It is the single
// reconstruction path of the module.
func Reconstruct(rp *ring.Ring, shares []bgv.PolyVector) bgv.PolyVector {
	out := shares[0].CopyNew()
	for _, s := range shares[1:] {
		addVecInPlace(rp, out, s)
	}
	return out
}

// Open broadcasts the party's share of a batch and reconstructs the
// value from everyone's.
func (p *ComputeParty) Open(share bgv.PolyVector) (bgv.PolyVector, error) {
	payloads, err := p.sess.AllGather(p.group, encode(share))
	if err != nil {
		return nil, err
	}
	shares := make([]bgv.PolyVector, len(payloads))
	for i, raw := range payloads {
		if err := decode(raw, &shares[i]); err != nil {
			return nil, err
		}
	}
	return Reconstruct(p.params.RingP(), shares), nil
}

// AddPublic adds an opened public value to the share: only the leader's
// value share absorbs it, every tag share absorbs alpha_i times it.
func (p *ComputeParty) AddPublic(share AuthShare, public bgv.PolyVector) AuthShare {
	rp := p.params.RingP()
	out := share.CopyNew()
	if p.leader() {
		addVecInPlace(rp, out.Value, public)
	}
	addVecInPlace(rp, out.Tag, mulScalarVec(rp, public, p.alpha))
	return out
}
