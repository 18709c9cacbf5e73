// Operator CLI
// Runs the relayer's control loop: on each tick, reconcile the
// destination contract's trusted anchor with the source chain, prove a
// header skip if one is available, and submit it.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/checkpoint"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/config"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/ethereum"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/metrics"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/operator"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/prover"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	if err := run(logger); err != nil {
		logger.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, err := tendermint.NewClient(ctx, cfg.TendermintRPCURL, cfg.TendermintGRPCURL, cfg.TendermintGRPCBasicAuth)
	if err != nil {
		return fmt.Errorf("connect source chain: %w", err)
	}
	defer source.Close()

	destination, err := ethereum.NewBridgeClient(ctx, cfg.RPCURL, common.HexToAddress(cfg.ContractAddress), cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("connect destination chain: %w", err)
	}

	proverClient := prover.NewClient(prover.Backend(cfg.SP1Prover), cfg.ProverNetworkURL)
	if prover.Backend(cfg.SP1Prover) == prover.BackendLocal {
		if err := proverClient.Initialize(); err != nil {
			return fmt.Errorf("initialize prover: %w", err)
		}
	}

	store, closeStore, err := openCheckpointStore(cfg)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer closeStore()

	m := metrics.New()
	if cfg.MetricsEnabled {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Printf("metrics server stopped: %v", err)
			}
		}()
	} else {
		logger.Printf("metrics server disabled (METRICS_ENABLED=false)")
	}

	op := &operator.Operator{
		Source:            source,
		Destination:       destination,
		Prover:            proverClient,
		Checkpoint:        store,
		Metrics:           m,
		Logger:            logger,
		MinimumBlockRange: cfg.MinimumBlockRange,
		ProveTimeout:      time.Duration(cfg.SP1TimeoutMins) * time.Minute,
	}

	if err := op.PreFlight(ctx); err != nil {
		return fmt.Errorf("pre-flight check: %w", err)
	}
	logger.Printf("pre-flight check passed: contract and prover vkeys match")

	ticker := time.NewTicker(cfg.CycleTimeout)
	defer ticker.Stop()

	for {
		cycleCtx, cycleCancel := context.WithTimeout(ctx, cfg.CycleTimeout)
		result, err := op.RunCycle(cycleCtx)
		cycleCancel()
		if err != nil {
			var mismatch *operator.ErrConfigMismatch
			if errors.As(err, &mismatch) {
				return fmt.Errorf("fatal configuration mismatch: %w", err)
			}
			logger.Printf("cycle failed: %v", err)
		} else if result != nil {
			logger.Printf("cycle succeeded: tx=%s", result.TxHash)
		}

		select {
		case <-ctx.Done():
			logger.Printf("shutting down: %v", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// openCheckpointStore picks the leveldb-backed Store or the Postgres-backed
// PostgresStore depending on whether CHECKPOINT_DSN is set, per D1.
func openCheckpointStore(cfg *config.Config) (operator.CheckpointStore, func(), error) {
	if cfg.CheckpointDSN != "" {
		store, err := checkpoint.OpenPostgres(cfg.CheckpointDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	store, err := checkpoint.Open(cfg.CheckpointDir, "fuelstreamx-checkpoint")
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}
