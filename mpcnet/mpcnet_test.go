package mpcnet

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// runParties runs body concurrently for every party of group and
// collects the results by group position.
func runParties(t *testing.T, net *LocalNetwork, group Communicator, body func(s Session) (any, error)) []any {
	t.Helper()
	out := make([]any, len(group))
	errs := make([]error, len(group))
	var wg sync.WaitGroup
	for i, id := range group {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			out[i], errs[i] = body(net.Session(id))
		}(i, id)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "party %d", group[i])
	}
	return out
}

func TestLocalAllGather(t *testing.T) {
	group := Communicator{0, 1, 2, 3}
	net := NewLocalNetwork()

	results := runParties(t, net, group, func(s Session) (any, error) {
		return s.AllGather(group, []byte{byte(s.ID()), 0xaa})
	})

	for _, r := range results {
		got := r.([][]byte)
		require.Len(t, got, len(group))
		for i, id := range group {
			require.Equal(t, []byte{byte(id), 0xaa}, got[i])
		}
	}
}

func TestLocalAllToAll(t *testing.T) {
	group := Communicator{0, 1, 2}
	net := NewLocalNetwork()

	results := runParties(t, net, group, func(s Session) (any, error) {
		payloads := make([][]byte, len(group))
		for j := range payloads {
			payloads[j] = []byte{byte(s.ID()), byte(j)}
		}
		return s.AllToAll(group, payloads)
	})

	for i := range group {
		got := results[i].([][]byte)
		for j, id := range group {
			// Party j sent us its i-th payload.
			require.Equal(t, []byte{byte(id), byte(i)}, got[j])
		}
	}
}

func TestLocalGatherToOutsider(t *testing.T) {
	from := Communicator{0, 1}
	everyone := Communicator{0, 1, 5}
	net := NewLocalNetwork()

	results := runParties(t, net, everyone, func(s Session) (any, error) {
		return s.Gather(from, 5, []byte{byte(s.ID())})
	})

	require.Nil(t, results[0])
	require.Nil(t, results[1])
	got := results[2].([][]byte)
	require.Equal(t, [][]byte{{0}, {1}}, got)
}

func TestLocalBroadcastFromOutsider(t *testing.T) {
	group := Communicator{1, 2}
	everyone := Communicator{0, 1, 2}
	net := NewLocalNetwork()

	results := runParties(t, net, everyone, func(s Session) (any, error) {
		return s.Broadcast(group, 0, []byte{7, byte(s.ID())})
	})

	for _, r := range results {
		require.Equal(t, []byte{7, 0}, r.([]byte))
	}
}

func TestLocalTimeoutIsTransportFailure(t *testing.T) {
	net := NewLocalNetwork()
	net.Timeout = 50 * time.Millisecond
	s := net.Session(0)
	_, err := s.AllGather(Communicator{0, 1}, []byte{1})
	require.ErrorIs(t, err, ErrTransportFailed)
}

func TestLocalPreservesPerPeerOrder(t *testing.T) {
	group := Communicator{0, 1}
	net := NewLocalNetwork()

	results := runParties(t, net, group, func(s Session) (any, error) {
		var got [][]byte
		for round := 0; round < 8; round++ {
			r, err := s.AllGather(group, []byte{byte(s.ID()), byte(round)})
			if err != nil {
				return nil, err
			}
			got = append(got, r...)
		}
		return got, nil
	})

	for _, r := range results {
		got := r.([][]byte)
		for round := 0; round < 8; round++ {
			require.Equal(t, byte(round), got[2*round][1])
			require.Equal(t, byte(round), got[2*round+1][1])
		}
	}
}

func TestTCPSessionCollectives(t *testing.T) {
	cfg := &Config{
		Parties: []PartyConfig{
			{ID: 0, Address: "127.0.0.1:29801"},
			{ID: 1, Address: "127.0.0.1:29802"},
			{ID: 2, Address: "127.0.0.1:29803"},
		},
		Compute:        Communicator{0, 1, 2},
		TimeoutSeconds: 10,
	}
	group := cfg.Compute

	var wg sync.WaitGroup
	errs := make([]error, len(group))
	results := make([][][]byte, len(group))
	for i, id := range group {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			s, err := DialTCP(cfg, id)
			if err != nil {
				errs[i] = err
				return
			}
			defer s.Close()
			if err := s.Ready(group); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = s.AllGather(group, []byte{byte(id), 0x55})
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "party %d", group[i])
	}
	for _, got := range results {
		require.Len(t, got, len(group))
		for i, id := range group {
			require.Equal(t, []byte{byte(id), 0x55}, got[i])
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parties:
  - {id: 0, addr: "127.0.0.1:7000"}
  - {id: 1, addr: "127.0.0.1:7001"}
  - {id: 4, addr: "127.0.0.1:7004"}
compute: [0, 1]
input: [4]
timeoutSeconds: 15
params: {n: 4, q: 2305843009211596801, p: 17, drownBound: 8192, statSec: 32, zkSec: 40, u: 2, v: 2}
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, Communicator{0, 1}, cfg.Compute)
	require.Equal(t, Communicator{4}, cfg.Input)
	require.Equal(t, 15*time.Second, cfg.Timeout())
	require.Equal(t, uint64(17), cfg.Params.P)
	require.NotNil(t, cfg.Party(4))
	require.Nil(t, cfg.Party(9))

	bad := *cfg
	bad.Input = Communicator{0}
	require.Error(t, bad.Validate())
}
