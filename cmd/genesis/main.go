// Genesis CLI
// Prints the height, header hash, and program vkey digest for a given
// source-chain block, for seeding the destination contract's trusted
// anchor at deploy time.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/config"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/prover"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

func main() {
	block := flag.Int64("block", 0, "source-chain height to read the genesis header from")
	flag.Parse()

	if *block <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --block is required and must be positive")
		os.Exit(1)
	}

	if err := run(*block); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(block int64) error {
	cfg, err := config.LoadForGenesis()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	source, err := tendermint.NewClient(ctx, cfg.TendermintRPCURL, "", "")
	if err != nil {
		return fmt.Errorf("connect source chain: %w", err)
	}
	defer source.Close()

	lightBlock, err := source.FetchLightBlock(ctx, block)
	if err != nil {
		return fmt.Errorf("fetch light block at %d: %w", block, err)
	}

	proverClient := prover.NewClient(prover.Backend(cfg.SP1Prover), cfg.ProverNetworkURL)
	if prover.Backend(cfg.SP1Prover) == prover.BackendLocal {
		if err := proverClient.Initialize(); err != nil {
			return fmt.Errorf("initialize prover: %w", err)
		}
	}
	vkey, err := proverClient.VKeyHash()
	if err != nil {
		return fmt.Errorf("read prover vkey: %w", err)
	}

	fmt.Printf("GENESIS_HEIGHT=%d\n", lightBlock.Height())
	fmt.Printf("GENESIS_HEADER=0x%x\n", lightBlock.HeaderHash())
	fmt.Printf("VKEY=0x%x\n", vkey)
	return nil
}
