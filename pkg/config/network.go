package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NetworkPreset holds the per-deployment defaults that used to live in the
// teacher's anchor_config.go YAML file: endpoints and addresses that rarely
// change within one network but do change between testnet/mainnet. Env vars
// always win over a preset, so a preset only fills in what's unset.
type NetworkPreset struct {
	Name             string `yaml:"name"`
	RPCURL           string `yaml:"rpc_url"`
	ContractAddress  string `yaml:"contract_address"`
	TendermintRPCURL string `yaml:"tendermint_rpc_url"`
	TendermintGRPCURL string `yaml:"tendermint_grpc_url"`
}

// networkPresetFile is the top-level shape of a presets YAML document: one
// entry per named network.
type networkPresetFile struct {
	Networks map[string]NetworkPreset `yaml:"networks"`
}

// LoadNetworkPreset reads path and returns the preset named by network. A
// missing path is not an error: callers fall back to env vars only.
func LoadNetworkPreset(path, network string) (*NetworkPreset, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read network preset file: %w", err)
	}

	var file networkPresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse network preset file: %w", err)
	}

	preset, ok := file.Networks[network]
	if !ok {
		return nil, fmt.Errorf("network preset %q not found in %s", network, path)
	}
	return &preset, nil
}

// ApplyPreset fills any unset destination/source endpoint fields from the
// preset, leaving explicit env vars untouched.
func (c *Config) ApplyPreset(preset *NetworkPreset) {
	if preset == nil {
		return
	}
	if c.RPCURL == "" {
		c.RPCURL = preset.RPCURL
	}
	if c.ContractAddress == "" {
		c.ContractAddress = preset.ContractAddress
	}
	if c.TendermintRPCURL == "" {
		c.TendermintRPCURL = preset.TendermintRPCURL
	}
	if c.TendermintGRPCURL == "" {
		c.TendermintGRPCURL = preset.TendermintGRPCURL
	}
}
