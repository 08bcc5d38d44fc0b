package spdz

import (
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
)

// MACCheck consolidates a batch of openings into a single randomized
// check: with random coefficients rho, every party computes
// sigma_i = sum_k rho_k * (tag_i^k - y^k * alpha_i), the sigmas are
// gathered and the check accepts iff they reconstruct to zero. A wrong
// tag survives with probability at most 1/p over rho.
func (p *ComputeParty) MACCheck(opened []bgv.PolyVector, tagShares []bgv.PolyVector) error {

	if len(opened) != len(tagShares) {
		return fmt.Errorf("MAC check over %d openings but %d tag shares", len(opened), len(tagShares))
	}
	if len(opened) == 0 {
		return nil
	}

	rp := p.params.RingP()
	n := len(opened[0])
	rho := p.ks.MACCheckRho(len(opened), n)

	sigma := zeroVec(rp, n)
	for k := range opened {
		diff := subVec(rp, tagShares[k], mulScalarVec(rp, opened[k], p.alpha))
		addVecInPlace(rp, sigma, mulVec(rp, rho[k], diff))
	}

	payloads, err := p.sess.AllGather(p.group, encode(sigma))
	if err != nil {
		return err
	}
	sigmas := make([]bgv.PolyVector, len(payloads))
	for i, raw := range payloads {
		if err := decode(raw, &sigmas[i]); err != nil {
			return err
		}
	}

	if !isZeroVec(Reconstruct(rp, sigmas)) {
		return fmt.Errorf("%w: nonzero reconstruction over %d openings", ErrMACCheckFailed, len(opened))
	}
	return nil
}
