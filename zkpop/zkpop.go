// Package zkpop implements a batched, non-interactive proof of
// plaintext knowledge for the bgv scheme: the prover shows that a
// ciphertext batch encrypts plaintexts whose coefficient
// representatives, and whose encryption randomness, are bounded in
// infinity norm, without revealing either.
//
// The protocol is a Schnorr-style sigma protocol over the ciphertext
// ring. The challenge is a sparse bit-monomial matrix derived by
// Fiat-Shamir from the transcript (commitment and statement); each slot
// is uniform over the N monomials X^0..X^(N-1) plus an absent sentinel,
// a challenge space of size N+1.
package zkpop

import (
	"errors"
)

// ErrRejected is returned when a proof fails verification, either on
// the ciphertext equation or on a norm bound. It is fatal for the run:
// no preprocessing material derived from the offending ciphertext may
// be used.
var ErrRejected = errors.New("zkpop: proof rejected")
