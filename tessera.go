/*
Package tessera implements the core of a multi-party secure-computation
runtime based on authenticated secret sharing with homomorphic
offline-phase preprocessing. It provides a pure Go implementation of the
polynomial-ring arithmetic, the BGV-like lattice encryption subsystem,
the zero-knowledge proof of bounded plaintext knowledge, and the
MAC-authenticated share and Beaver-triple generation protocols, together
with the round-synchronous transport they run over.
*/
package tessera
