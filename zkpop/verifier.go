package zkpop

import (
	"fmt"

	"github.com/tessera-mpc/tessera/bgv"
)

// Verifier checks proofs of plaintext knowledge against the prover's
// public key.
type Verifier struct {
	params bgv.Parameters
	enc    *bgv.Encryptor
}

// NewVerifier creates a new Verifier for the given prover public key.
func NewVerifier(params bgv.Parameters, pk *bgv.PublicKey) *Verifier {
	return &Verifier{params: params, enc: bgv.NewEncryptor(params, pk)}
}

// Verify checks the transcript: the re-encryption equation
// Enc(NTT(z), NTT(t)) = A + W*C and the norm bounds on the responses.
// Any failure returns ErrRejected naming the failing condition.
func (v *Verifier) Verify(proof *Proof) error {

	params := v.params
	rq := params.RingQ()
	U, V := params.U(), params.V()
	zkSec := uint(params.ZKSec())

	if proof.C == nil || proof.A == nil {
		return fmt.Errorf("%w: incomplete transcript", ErrRejected)
	}
	if proof.C.Len() == 0 || proof.C.Len()%U != 0 {
		return fmt.Errorf("%w: statement batch of size %d is not a multiple of U=%d", ErrRejected, proof.C.Len(), U)
	}
	blocks := proof.C.Len() / U
	aux := blocks * V
	if proof.A.Len() != aux || len(proof.Z) != aux ||
		len(proof.TU) != aux || len(proof.TV) != aux || len(proof.TW) != aux {
		return fmt.Errorf("%w: transcript shape mismatch", ErrRejected)
	}

	zBound := params.PlaintextModulus() << zkSec
	tUBound := uint64(bgv.EphemeralPairs) << (zkSec + 1)
	tNoiseBound := uint64(bgv.NoisePairs) << (zkSec + 1)

	for i := 0; i < aux; i++ {
		if norm := rq.InfNorm(proof.Z[i]); norm > zBound {
			return fmt.Errorf("%w: ||z|| = %d exceeds bound %d", ErrRejected, norm, zBound)
		}
		if norm := rq.InfNorm(proof.TU[i]); norm > tUBound {
			return fmt.Errorf("%w: ||t_u|| = %d exceeds bound %d", ErrRejected, norm, tUBound)
		}
		if norm := rq.InfNorm(proof.TV[i]); norm > tNoiseBound {
			return fmt.Errorf("%w: ||t_v|| = %d exceeds bound %d", ErrRejected, norm, tNoiseBound)
		}
		if norm := rq.InfNorm(proof.TW[i]); norm > tNoiseBound {
			return fmt.Errorf("%w: ||t_w|| = %d exceeds bound %d", ErrRejected, norm, tNoiseBound)
		}
	}

	ch := SampleChallenge(params, proof.seed(), blocks)

	d, err := v.enc.EncryptRqNew(nttVector(rq, proof.Z), bgv.Randomness{
		U: nttVector(rq, proof.TU),
		V: nttVector(rq, proof.TV),
		W: nttVector(rq, proof.TW),
	})
	if err != nil {
		return err
	}

	rhs := &bgv.Ciphertext{
		C0: addVector(rq, proof.A.C0, nttVector(rq, ch.MulVec(rq, inttVector(rq, proof.C.C0)))),
		C1: addVector(rq, proof.A.C1, nttVector(rq, ch.MulVec(rq, inttVector(rq, proof.C.C1)))),
	}

	if !d.Equal(rhs) {
		return fmt.Errorf("%w: ciphertext equation does not hold", ErrRejected)
	}

	return nil
}
