package mpcnet

import "fmt"

// link is a point-to-point layer with per-peer FIFO order; the
// collectives compose over it.
type link interface {
	ID() int
	send(to int, payload []byte) error
	recv(from int) ([]byte, error)
}

func gather(l link, from Communicator, to int, payload []byte) ([][]byte, error) {
	if from.Contains(l.ID()) && l.ID() != to {
		if err := l.send(to, payload); err != nil {
			return nil, err
		}
	}
	if l.ID() != to {
		return nil, nil
	}
	out := make([][]byte, len(from))
	for i, sender := range from {
		if sender == to {
			out[i] = append([]byte(nil), payload...)
			continue
		}
		var err error
		if out[i], err = l.recv(sender); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func broadcast(l link, group Communicator, sender int, payload []byte) ([]byte, error) {
	if l.ID() == sender {
		for _, p := range group {
			if p != sender {
				if err := l.send(p, payload); err != nil {
					return nil, err
				}
			}
		}
		return payload, nil
	}
	return l.recv(sender)
}

func allGather(l link, group Communicator, payload []byte) ([][]byte, error) {
	self := group.Index(l.ID())
	if self < 0 {
		return nil, fmt.Errorf("%w: party %d is not in the group", ErrTransportFailed, l.ID())
	}
	payloads := make([][]byte, len(group))
	for i := range payloads {
		payloads[i] = payload
	}
	return allToAll(l, group, payloads)
}

func allToAll(l link, group Communicator, payloads [][]byte) ([][]byte, error) {
	self := group.Index(l.ID())
	if self < 0 {
		return nil, fmt.Errorf("%w: party %d is not in the group", ErrTransportFailed, l.ID())
	}
	if len(payloads) != len(group) {
		return nil, fmt.Errorf("%w: %d payloads for a group of %d", ErrTransportFailed, len(payloads), len(group))
	}
	for i, p := range group {
		if p != l.ID() {
			if err := l.send(p, payloads[i]); err != nil {
				return nil, err
			}
		}
	}
	out := make([][]byte, len(group))
	for i, p := range group {
		if p == l.ID() {
			out[i] = append([]byte(nil), payloads[self]...)
			continue
		}
		var err error
		if out[i], err = l.recv(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}
