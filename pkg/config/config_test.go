package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_URL", "https://evm.example/rpc")
	t.Setenv("PRIVATE_KEY", "0xdeadbeef")
	t.Setenv("CONTRACT_ADDRESS", "0x0000000000000000000000000000000000dead")
	t.Setenv("TENDERMINT_RPC_URL", "https://tm.example/rpc")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SP1Prover != "mock" {
		t.Errorf("expected default SP1_PROVER=mock, got %q", cfg.SP1Prover)
	}
	if cfg.MinimumBlockRange != 512 {
		t.Errorf("expected default MINIMUM_BLOCK_RANGE=512, got %d", cfg.MinimumBlockRange)
	}
	if cfg.CycleTimeout != 90*time.Minute {
		t.Errorf("expected default CYCLE_TIMEOUT=90m, got %s", cfg.CycleTimeout)
	}
	if cfg.CheckpointDSN != "" {
		t.Errorf("expected empty CHECKPOINT_DSN default, got %q", cfg.CheckpointDSN)
	}
	if !cfg.MetricsEnabled {
		t.Error("expected default METRICS_ENABLED=true")
	}
}

func TestLoad_MetricsCanBeDisabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetricsEnabled {
		t.Error("expected METRICS_ENABLED=false to disable metrics")
	}
}

func TestValidate_AggregatesAllViolations(t *testing.T) {
	cfg := &Config{SP1Prover: "bogus"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error on empty config")
	}

	for _, want := range []string{"RPC_URL", "PRIVATE_KEY", "CONTRACT_ADDRESS", "TENDERMINT_RPC_URL", "SP1_PROVER"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected aggregated error to mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_NetworkProverRequiresURL(t *testing.T) {
	cfg := &Config{
		RPCURL:           "https://evm.example/rpc",
		PrivateKey:       "0xdeadbeef",
		ContractAddress:  "0xdead",
		TendermintRPCURL: "https://tm.example/rpc",
		SP1Prover:        "network",
		SP1TimeoutMins:   10,
		MinimumBlockRange: 1,
	}

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "SP1_PROVER_NETWORK_URL") {
		t.Fatalf("expected SP1_PROVER_NETWORK_URL violation, got: %v", err)
	}

	cfg.ProverNetworkURL = "https://prover.example"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestLoadForVKey_IgnoresDestinationAndSourceConfig(t *testing.T) {
	// No RPC_URL/PRIVATE_KEY/CONTRACT_ADDRESS/TENDERMINT_RPC_URL set at all.
	cfg, err := LoadForVKey()
	if err != nil {
		t.Fatalf("LoadForVKey should not require destination/source config, got: %v", err)
	}
	if cfg.SP1Prover != "mock" {
		t.Errorf("expected default SP1_PROVER=mock, got %q", cfg.SP1Prover)
	}
}

func TestLoadForVKey_StillValidatesProver(t *testing.T) {
	t.Setenv("SP1_PROVER", "network")
	// SP1_PROVER_NETWORK_URL intentionally left unset.

	_, err := LoadForVKey()
	if err == nil || !strings.Contains(err.Error(), "SP1_PROVER_NETWORK_URL") {
		t.Fatalf("expected SP1_PROVER_NETWORK_URL violation, got: %v", err)
	}
}

func TestLoadForGenesis_IgnoresDestinationConfig(t *testing.T) {
	t.Setenv("TENDERMINT_RPC_URL", "https://tm.example/rpc")
	// RPC_URL/PRIVATE_KEY/CONTRACT_ADDRESS intentionally left unset.

	cfg, err := LoadForGenesis()
	if err != nil {
		t.Fatalf("LoadForGenesis should not require destination config, got: %v", err)
	}
	if cfg.TendermintRPCURL != "https://tm.example/rpc" {
		t.Errorf("expected TendermintRPCURL to be populated, got %q", cfg.TendermintRPCURL)
	}
}

func TestLoadForGenesis_StillRequiresTendermintRPC(t *testing.T) {
	_, err := LoadForGenesis()
	if err == nil || !strings.Contains(err.Error(), "TENDERMINT_RPC_URL") {
		t.Fatalf("expected TENDERMINT_RPC_URL violation, got: %v", err)
	}
}

func TestApplyPreset_EnvVarsWin(t *testing.T) {
	cfg := &Config{RPCURL: "https://explicit.example/rpc"}
	preset := &NetworkPreset{RPCURL: "https://preset.example/rpc", ContractAddress: "0xpreset"}

	cfg.ApplyPreset(preset)

	if cfg.RPCURL != "https://explicit.example/rpc" {
		t.Errorf("expected explicit RPCURL to win over preset, got %q", cfg.RPCURL)
	}
	if cfg.ContractAddress != "0xpreset" {
		t.Errorf("expected preset to fill unset ContractAddress, got %q", cfg.ContractAddress)
	}
}

func TestApplyPreset_Nil(t *testing.T) {
	cfg := &Config{RPCURL: "https://explicit.example/rpc"}
	cfg.ApplyPreset(nil)
	if cfg.RPCURL != "https://explicit.example/rpc" {
		t.Errorf("ApplyPreset(nil) should be a no-op, got %q", cfg.RPCURL)
	}
}

func TestLoadNetworkPreset_EmptyPathIsNoPreset(t *testing.T) {
	preset, err := LoadNetworkPreset("", "mainnet")
	if err != nil {
		t.Fatalf("LoadNetworkPreset: %v", err)
	}
	if preset != nil {
		t.Fatalf("expected nil preset for empty path, got %+v", preset)
	}
}
