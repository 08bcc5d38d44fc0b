// Command tessera-offline runs a compute party of the offline
// preprocessing phase: Beaver triple generation with zero-knowledge
// verified encryptions, authentication of the triple shares, and the
// batched MAC check over an opening of the first component.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/mpcnet"
	"github.com/tessera-mpc/tessera/spdz"
)

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "config/mpc.yaml", "deployment configuration")
	partyID := flag.Int("party", 0, "own party id")
	batch := flag.Int("n", 0, "triple batch size (default: one proof block)")
	trials := flag.Int("trials", 1, "number of timed runs")
	flag.Parse()

	cfg, err := mpcnet.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}
	params, err := bgv.NewParameters(cfg.Params)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}
	n := *batch
	if n == 0 {
		n = params.U()
	}

	sess, err := mpcnet.DialTCP(cfg, *partyID)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}
	defer sess.Close()

	party, err := spdz.NewComputeParty(params, sess, cfg.Compute, cfg.Input)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}

	log.Printf("[Party %d, server, %d servers, %d * %d elements]", *partyID, len(cfg.Compute), n, params.N())

	log.Printf("[Party %d, waiting for all %d compute parties to get ready]", *partyID, len(cfg.Compute))
	if err := party.Ready(); err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}

	durations := make([]float64, 0, *trials)
	for trial := 0; trial < *trials; trial++ {
		start := time.Now()

		triple, err := party.GenTriple(n)
		if err != nil {
			log.Fatalf("[Party %d, %v]", *partyID, err)
		}
		elapsed := time.Since(start)
		log.Printf("[Party %d, triple    \t%2.10f]", *partyID, elapsed.Seconds())

		opened, err := party.Open(triple.A.Value)
		if err != nil {
			log.Fatalf("[Party %d, %v]", *partyID, err)
		}
		if err := party.MACCheck([]bgv.PolyVector{opened}, []bgv.PolyVector{triple.A.Tag}); err != nil {
			log.Fatalf("[Party %d, %v]", *partyID, err)
		}
		elapsed = time.Since(start)
		log.Printf("[Party %d, mac check \t%2.10f]", *partyID, elapsed.Seconds())

		durations = append(durations, elapsed.Seconds())
	}

	if len(durations) > 1 {
		median, _ := stats.Median(durations)
		deviation, _ := stats.StandardDeviation(durations)
		log.Printf("[Party %d, %d trials, median %2.10f, stddev %2.10f]", *partyID, len(durations), median, deviation)
	}
	log.Printf("[Party %d, %v]", *partyID, sess.Stats())
}
