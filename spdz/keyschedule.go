package spdz

import (
	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/mpcnet"
	"github.com/tessera-mpc/tessera/ring"
	"github.com/tessera-mpc/tessera/utils/sampling"
)

// Demo seeds of the deterministic key schedule. Every long-lived secret
// of a run (MAC key shares, mask shares, encryption keys, demo inputs)
// is derived from these fixed seeds and a domain-separating index
// vector, so that verification can re-derive any of them once the seeds
// are opened. A production deployment replaces the schedule with
// genuinely secret per-party keys and a distributed key generation.
const (
	macKeySeed = 42
	maskSeed   = 43
	inputSeed  = 44
	encSeed    = 44
)

// Randomness slots of the encryption stream.
const (
	slotSecretKey = iota
	slotPublicA
	slotKeyNoise
	slotEncU
	slotEncV
	slotEncW
)

// Randomness slots of the tag-ciphertext drowning stream.
const (
	slotTagU = iota
	slotTagV
	slotTagW
)

// KeySchedule derives every deterministic artifact of the demo key
// setup. Sender and receiver arguments are positions in the compute and
// input groups respectively.
type KeySchedule struct {
	params  bgv.Parameters
	compute mpcnet.Communicator
	input   mpcnet.Communicator
}

// NewKeySchedule creates the schedule for the given quorums.
func NewKeySchedule(params bgv.Parameters, compute, input mpcnet.Communicator) *KeySchedule {
	return &KeySchedule{params: params, compute: compute, input: input}
}

func seed(b uint64) []byte {
	return []byte{byte(b)}
}

// PRFKey returns the per-party PRF key: in the demo, the party id
// itself.
func (ks *KeySchedule) PRFKey(party int) []byte {
	return []byte{byte(party)}
}

// MACKeyShare derives the additive MAC key share of the compute party
// at position idx.
func (ks *KeySchedule) MACKeyShare(idx int) uint64 {
	prng := sampling.NewStream(seed(macKeySeed), uint64(idx))
	return ring.RandUint64(prng, ks.params.PlaintextModulus())
}

// MACKey reconstructs the full MAC key from every share. It is only
// meaningful once the schedule seeds count as opened, during
// verification.
func (ks *KeySchedule) MACKey() uint64 {
	p := ks.params.PlaintextModulus()
	var alpha uint64
	for i := range ks.compute {
		alpha = (alpha + ks.MACKeyShare(i)) % p
	}
	return alpha
}

// MaskShare derives the compute party sender's share of the input mask
// for input party receiver.
func (ks *KeySchedule) MaskShare(sender, receiver, n int) bgv.PolyVector {
	prng := sampling.NewStream(seed(maskSeed), uint64(sender), uint64(receiver))
	return ks.uniformVector(prng, n)
}

// DemoInput derives the demo input of the input party at position idx.
func (ks *KeySchedule) DemoInput(idx, n int) bgv.PolyVector {
	prng := sampling.NewStream(seed(inputSeed), uint64(idx))
	return ks.uniformVector(prng, n)
}

// TagMask derives the pad a compute party adds under a peer's tag: the
// (sender, receiver) mask stream of the given PRF key.
func (ks *KeySchedule) TagMask(prfKey []byte, sender, receiver, n int) bgv.PolyVector {
	prng := sampling.NewStream(prfKey, uint64(sender), uint64(receiver))
	return ks.uniformVector(prng, n)
}

// TagMaskSum sums the tag pads of every compute party.
func (ks *KeySchedule) TagMaskSum(prfKeys [][]byte, sender, receiver, n int) bgv.PolyVector {
	rp := ks.params.RingP()
	acc := zeroVec(rp, n)
	for _, key := range prfKeys {
		addVecInPlace(rp, acc, ks.TagMask(key, sender, receiver, n))
	}
	return acc
}

// PRFKeys returns the PRF keys of every compute party.
func (ks *KeySchedule) PRFKeys() [][]byte {
	keys := make([][]byte, len(ks.compute))
	for i, id := range ks.compute {
		keys[i] = ks.PRFKey(id)
	}
	return keys
}

// KeyPair derives the encryption key pair of the compute party at
// position idx from the shared encryption seed.
func (ks *KeySchedule) KeyPair(idx int) (*bgv.SecretKey, *bgv.PublicKey, error) {
	return bgv.GenKeyPair(ks.params,
		sampling.NewStream(seed(encSeed), slotSecretKey, uint64(idx)),
		sampling.NewStream(seed(encSeed), slotPublicA, uint64(idx)),
		sampling.NewStream(seed(encSeed), slotKeyNoise, uint64(idx)),
	)
}

// EncRandomness derives the deterministic fresh encryption randomness
// of the (sender, receiver) channel.
func (ks *KeySchedule) EncRandomness(sender, receiver, n int) (bgv.Randomness, error) {
	return bgv.NewRandomness(ks.params,
		sampling.NewStream(seed(encSeed), slotEncU, uint64(sender), uint64(receiver)),
		sampling.NewStream(seed(encSeed), slotEncV, uint64(sender), uint64(receiver)),
		sampling.NewStream(seed(encSeed), slotEncW, uint64(sender), uint64(receiver)),
		n,
	)
}

// TagRandomness derives the deterministic drowning randomness a party
// with the given PRG key uses to refresh the (sender, receiver) tag
// ciphertext.
func (ks *KeySchedule) TagRandomness(prgKey []byte, sender, receiver, n int) (bgv.Randomness, error) {
	return bgv.NewDrowningRandomness(ks.params,
		sampling.NewStream(prgKey, slotTagU, uint64(sender), uint64(receiver)),
		sampling.NewStream(prgKey, slotTagV, uint64(sender), uint64(receiver)),
		sampling.NewStream(prgKey, slotTagW, uint64(sender), uint64(receiver)),
		n,
	)
}

// MACCheckRho derives the random coefficients of the batched MAC check.
// TODO: the seed is the first compute party's PRF key, which a
// malicious coordinator controls; replace with a committed random
// beacon before production use.
func (ks *KeySchedule) MACCheckRho(batch, n int) []bgv.PolyVector {
	prng := sampling.NewStream(ks.PRFKey(ks.compute[0]))
	rho := make([]bgv.PolyVector, batch)
	for k := range rho {
		rho[k] = ks.uniformVector(prng, n)
	}
	return rho
}

// uniformVector samples a batch of uniform plaintext elements directly
// in the NTT representation (the NTT of a uniform element is uniform).
func (ks *KeySchedule) uniformVector(prng sampling.PRNG, n int) bgv.PolyVector {
	s := ring.NewUniformSampler(prng, ks.params.RingP())
	out := make(bgv.PolyVector, n)
	for i := range out {
		out[i] = s.ReadNew()
	}
	return out
}
