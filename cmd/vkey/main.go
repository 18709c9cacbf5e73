// Vkey CLI
// Prints the program verifying-key digest the prover backend would
// produce, for pinning on the destination contract at deploy time.
package main

import (
	"fmt"
	"os"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/config"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/prover"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadForVKey()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
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

	fmt.Printf("VK: 0x%x\n", vkey)
	return nil
}
