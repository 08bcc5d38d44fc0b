package spdz

import (
	"github.com/tessera-mpc/tessera/bgv"
)

// Opening is an opened value together with the party's tag share for
// it, retained so that a later MAC check can cover the opening.
type Opening struct {
	Value    bgv.PolyVector
	TagShare bgv.PolyVector
}

// BeaverMul multiplies two authenticated sharings using a triple: the
// parties open u = x - a and v = y - b, then assemble
// z = c + u*b + v*a + u*v, with the public u*v term absorbed by the
// leader's value share and by every tag share via alpha_i. The
// returned openings must be fed to a MAC check before the output is
// trusted.
func (p *ComputeParty) BeaverMul(x, y AuthShare, t *Triple) (z AuthShare, opens []Opening, err error) {

	rp := p.params.RingP()

	uShare := subVec(rp, x.Value, t.A.Value)
	uTag := subVec(rp, x.Tag, t.A.Tag)
	vShare := subVec(rp, y.Value, t.B.Value)
	vTag := subVec(rp, y.Tag, t.B.Tag)

	u, err := p.Open(uShare)
	if err != nil {
		return AuthShare{}, nil, err
	}
	v, err := p.Open(vShare)
	if err != nil {
		return AuthShare{}, nil, err
	}

	z = AuthShare{Value: t.C.Value.CopyNew(), Tag: t.C.Tag.CopyNew()}
	addVecInPlace(rp, z.Value, mulVec(rp, u, t.B.Value))
	addVecInPlace(rp, z.Value, mulVec(rp, v, t.A.Value))
	addVecInPlace(rp, z.Tag, mulVec(rp, u, t.B.Tag))
	addVecInPlace(rp, z.Tag, mulVec(rp, v, t.A.Tag))
	z = p.AddPublic(z, mulVec(rp, u, v))

	opens = []Opening{
		{Value: u, TagShare: uTag},
		{Value: v, TagShare: vTag},
	}
	return z, opens, nil
}

// CheckOpenings runs the batched MAC check over a set of openings.
func (p *ComputeParty) CheckOpenings(opens []Opening) error {
	opened := make([]bgv.PolyVector, len(opens))
	tags := make([]bgv.PolyVector, len(opens))
	for i, o := range opens {
		opened[i] = o.Value
		tags[i] = o.TagShare
	}
	return p.MACCheck(opened, tags)
}
