// Package mpcnet provides the round-synchronous collectives the
// protocol layer runs over: gather, broadcast, all-gather and
// all-to-all across named party groups, plus the readiness barrier
// preceding timed regions. Payloads are opaque bytes; the transport
// preserves them exactly and preserves per-peer, per-channel order.
//
// All collectives are synchronization points: every involved party must
// enter the same collective in the same order. Mismatched participation
// or any peer failure is fatal (honest-with-abort), surfaced as
// ErrTransportFailed.
package mpcnet

import (
	"errors"
	"fmt"
)

// ErrTransportFailed is returned on peer disconnect, timeout or payload
// size mismatch. It is fatal; the run must abort.
var ErrTransportFailed = errors.New("mpcnet: transport failed")

// Communicator is an ordered group of party identifiers. Collective
// results are tuples indexed by the sender's position in the group.
type Communicator []int

// Index returns the position of id in the group, or -1.
func (c Communicator) Index(id int) int {
	for i, p := range c {
		if p == id {
			return i
		}
	}
	return -1
}

// Contains returns whether id is a member of the group.
func (c Communicator) Contains(id int) bool {
	return c.Index(id) >= 0
}

// Append returns the concatenation of the two groups.
func (c Communicator) Append(other Communicator) Communicator {
	out := make(Communicator, 0, len(c)+len(other))
	out = append(out, c...)
	return append(out, other...)
}

// IOStats counts the payload bytes exchanged by a session.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

func (s IOStats) String() string {
	return fmt.Sprintf("sent %d bytes, received %d bytes", s.Sent, s.Recvd)
}

// Session is one party's endpoint into the network.
//
// Gather: every party of from sends; party to receives the payloads
// ordered by sender position (to need not be a member of from; a party
// that is both sends to itself locally). Non-receivers get nil.
//
// Broadcast: sender (which need not be a member of group) distributes
// one payload to every party of group; everyone involved, including the
// sender, gets the payload back.
//
// AllGather: every party of group contributes one payload and receives
// all of them ordered by sender position.
//
// AllToAll: party at position i sends payloads[j] to the party at
// position j and receives a tuple indexed by sender position. The own
// entry is passed through locally.
//
// Ready is the readiness barrier: it returns once every party of group
// has entered it.
type Session interface {
	ID() int
	Gather(from Communicator, to int, payload []byte) ([][]byte, error)
	Broadcast(group Communicator, sender int, payload []byte) ([]byte, error)
	AllGather(group Communicator, payload []byte) ([][]byte, error)
	AllToAll(group Communicator, payloads [][]byte) ([][]byte, error)
	Ready(group Communicator) error
	Stats() IOStats
	Close() error
}
