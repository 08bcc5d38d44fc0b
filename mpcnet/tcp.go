package mpcnet

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	dialRetryDelay  = 250 * time.Millisecond
	maxFrameSize    = 1 << 30
	tcpWriteBufSize = 64 * 1024
	tcpReadBufSize  = 64 * 1024
)

// tcpPeer is one established connection with its buffered endpoints.
type tcpPeer struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// TCPSession is a Session over one TCP connection per peer. Frames are
// a little-endian uint32 length prefix followed by the payload; the
// connection preserves per-peer order. Connection setup: every party
// listens on its configured address, dials the peers with a larger id
// and accepts the peers with a smaller one, identifying itself with an
// id handshake.
type TCPSession struct {
	id       int
	peers    map[int]*tcpPeer
	listener net.Listener
	timeout  time.Duration
	stats    IOStats
}

// DialTCP establishes the sessions's connections to every other party
// of cfg, retrying dials until the peers come up.
func DialTCP(cfg *Config, id int) (*TCPSession, error) {

	self := cfg.Party(id)
	if self == nil {
		return nil, fmt.Errorf("%w: party %d is not in the configuration", ErrTransportFailed, id)
	}

	listener, err := net.Listen("tcp", self.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %s", ErrTransportFailed, self.Address, err)
	}

	s := &TCPSession{
		id:       id,
		peers:    make(map[int]*tcpPeer),
		listener: listener,
		timeout:  cfg.Timeout(),
	}

	var accepting int
	for _, p := range cfg.Parties {
		switch {
		case p.ID < id:
			accepting++
		case p.ID > id:
			if err := s.dial(p); err != nil {
				s.Close()
				return nil, err
			}
		}
	}

	for i := 0; i < accepting; i++ {
		if err := s.accept(); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *TCPSession) dial(p PartyConfig) error {
	deadline := time.Now().Add(s.timeout)
	for {
		conn, err := net.Dial("tcp", p.Address)
		if err == nil {
			peer := &tcpPeer{
				conn: conn,
				r:    bufio.NewReaderSize(conn, tcpReadBufSize),
				w:    bufio.NewWriterSize(conn, tcpWriteBufSize),
			}
			var hello [4]byte
			binary.LittleEndian.PutUint32(hello[:], uint32(s.id))
			if _, err := peer.w.Write(hello[:]); err != nil {
				return fmt.Errorf("%w: handshake with party %d: %s", ErrTransportFailed, p.ID, err)
			}
			if err := peer.w.Flush(); err != nil {
				return fmt.Errorf("%w: handshake with party %d: %s", ErrTransportFailed, p.ID, err)
			}
			s.peers[p.ID] = peer
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: dial party %d at %s: %s", ErrTransportFailed, p.ID, p.Address, err)
		}
		time.Sleep(dialRetryDelay)
	}
}

func (s *TCPSession) accept() error {
	if err := s.listener.(*net.TCPListener).SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("%w: %s", ErrTransportFailed, err)
	}
	conn, err := s.listener.Accept()
	if err != nil {
		return fmt.Errorf("%w: accept: %s", ErrTransportFailed, err)
	}
	peer := &tcpPeer{
		conn: conn,
		r:    bufio.NewReaderSize(conn, tcpReadBufSize),
		w:    bufio.NewWriterSize(conn, tcpWriteBufSize),
	}
	var hello [4]byte
	if _, err := io.ReadFull(peer.r, hello[:]); err != nil {
		return fmt.Errorf("%w: handshake: %s", ErrTransportFailed, err)
	}
	id := int(binary.LittleEndian.Uint32(hello[:]))
	if id >= s.id || s.peers[id] != nil {
		return fmt.Errorf("%w: unexpected handshake from party %d", ErrTransportFailed, id)
	}
	s.peers[id] = peer
	return nil
}

func (s *TCPSession) ID() int { return s.id }

func (s *TCPSession) send(to int, payload []byte) error {
	peer := s.peers[to]
	if peer == nil {
		return fmt.Errorf("%w: no connection to party %d", ErrTransportFailed, to)
	}
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	if _, err := peer.w.Write(size[:]); err != nil {
		return fmt.Errorf("%w: send to party %d: %s", ErrTransportFailed, to, err)
	}
	if _, err := peer.w.Write(payload); err != nil {
		return fmt.Errorf("%w: send to party %d: %s", ErrTransportFailed, to, err)
	}
	if err := peer.w.Flush(); err != nil {
		return fmt.Errorf("%w: send to party %d: %s", ErrTransportFailed, to, err)
	}
	s.stats.Sent += uint64(len(payload))
	return nil
}

func (s *TCPSession) recv(from int) ([]byte, error) {
	peer := s.peers[from]
	if peer == nil {
		return nil, fmt.Errorf("%w: no connection to party %d", ErrTransportFailed, from)
	}
	if err := peer.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransportFailed, err)
	}
	var size [4]byte
	if _, err := io.ReadFull(peer.r, size[:]); err != nil {
		return nil, fmt.Errorf("%w: receive from party %d: %s", ErrTransportFailed, from, err)
	}
	n := binary.LittleEndian.Uint32(size[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes from party %d exceeds limit", ErrTransportFailed, n, from)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(peer.r, payload); err != nil {
		return nil, fmt.Errorf("%w: receive from party %d: %s", ErrTransportFailed, from, err)
	}
	s.stats.Recvd += uint64(n)
	return payload, nil
}

func (s *TCPSession) Gather(from Communicator, to int, payload []byte) ([][]byte, error) {
	return gather(s, from, to, payload)
}

func (s *TCPSession) Broadcast(group Communicator, sender int, payload []byte) ([]byte, error) {
	return broadcast(s, group, sender, payload)
}

func (s *TCPSession) AllGather(group Communicator, payload []byte) ([][]byte, error) {
	return allGather(s, group, payload)
}

func (s *TCPSession) AllToAll(group Communicator, payloads [][]byte) ([][]byte, error) {
	return allToAll(s, group, payloads)
}

func (s *TCPSession) Ready(group Communicator) error {
	_, err := s.AllGather(group, []byte{1})
	return err
}

func (s *TCPSession) Stats() IOStats { return s.stats }

// Close shuts the listener and every peer connection down.
func (s *TCPSession) Close() error {
	var first error
	if err := s.listener.Close(); err != nil {
		first = err
	}
	for _, p := range s.peers {
		if err := p.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
