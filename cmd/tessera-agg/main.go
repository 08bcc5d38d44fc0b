// Command tessera-agg runs one party of the secure-aggregation
// protocol. Parties listed in the compute quorum act as servers dealing
// authenticated input masks and aggregating the masked inputs; parties
// of the input quorum submit a private value and verify the tags on
// their mask shares.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/tessera-mpc/tessera/bgv"
	"github.com/tessera-mpc/tessera/mpcnet"
	"github.com/tessera-mpc/tessera/spdz"
)

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "config/mpc.yaml", "deployment configuration")
	partyID := flag.Int("party", 0, "own party id")
	batch := flag.Int("n", 1, "batch size")
	inputValue := flag.Uint64("input", 0, "private input value (input parties)")
	flag.Parse()

	cfg, err := mpcnet.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}
	params, err := bgv.NewParameters(cfg.Params)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}

	sess, err := mpcnet.DialTCP(cfg, *partyID)
	if err != nil {
		log.Fatalf("[Party %d, %v]", *partyID, err)
	}
	defer sess.Close()

	switch {
	case cfg.Compute.Contains(*partyID):
		runServer(cfg, params, sess, *partyID, *batch)
	case cfg.Input.Contains(*partyID):
		runClient(cfg, params, sess, *partyID, *batch, *inputValue)
	default:
		log.Fatalf("[Party %d, not in any quorum]", *partyID)
	}
}

func runServer(cfg *mpcnet.Config, params bgv.Parameters, sess mpcnet.Session, id, n int) {
	party, err := spdz.NewComputeParty(params, sess, cfg.Compute, cfg.Input)
	if err != nil {
		log.Fatalf("[Party %d, %v]", id, err)
	}
	server := spdz.NewAggServer(party)

	log.Printf("[Party %d, server, %d servers, %d clients, %d * %d elements]", id, len(cfg.Compute), len(cfg.Input), n, params.N())
	log.Printf("[Party %d, waiting for all %d parties to get ready]", id, len(cfg.Compute)+len(cfg.Input))

	start := time.Now()
	result, err := server.Run(n)
	if err != nil {
		log.Printf("[Party %d, %v]", id, err)
		os.Exit(1)
	}
	log.Printf("[Party %d, aggregate \t%2.10f]", id, time.Since(start).Seconds())

	failed := false
	for j, ok := range result.OfflineOK {
		log.Printf("[Party %d, checked party %d's offline phase: %t]", id, cfg.Compute[j], ok)
		failed = failed || !ok
	}
	for j, ok := range result.OnlineOK {
		log.Printf("[Party %d, checked party %d's output: %t]", id, cfg.Compute[j], ok)
		failed = failed || !ok
	}
	log.Printf("[Party %d, %v]", id, sess.Stats())
	if failed {
		os.Exit(1)
	}
}

func runClient(cfg *mpcnet.Config, params bgv.Parameters, sess mpcnet.Session, id, n int, value uint64) {
	client, err := spdz.NewAggClient(params, sess, cfg.Compute, cfg.Input)
	if err != nil {
		log.Fatalf("[Party %d, %v]", id, err)
	}

	input := make(bgv.PolyVector, n)
	for i := range input {
		input[i] = params.RingP().NewPoly()
		for j := range input[i].Coeffs {
			input[i].Coeffs[j] = value % params.PlaintextModulus()
		}
	}

	log.Printf("[Party %d, client, %d servers, %d clients, %d * %d elements]", id, len(cfg.Compute), len(cfg.Input), n, params.N())
	log.Printf("[Party %d, waiting for all %d parties to get ready]", id, len(cfg.Compute)+len(cfg.Input))

	start := time.Now()
	result, err := client.Run(input)
	if err != nil {
		log.Printf("[Party %d, %v]", id, err)
		os.Exit(1)
	}
	log.Printf("[Party %d, aggregate \t%2.10f]", id, time.Since(start).Seconds())

	failed := false
	for j, ok := range result.InputOK {
		log.Printf("[Party %d, checked party %d's input handling: %t]", id, cfg.Compute[j], ok)
		failed = failed || !ok
	}
	log.Printf("[Party %d, %v]", id, sess.Stats())
	if failed {
		os.Exit(1)
	}
}
