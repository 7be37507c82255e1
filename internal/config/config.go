// Copyright (C) 2026 The Nexus Miner Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config loads the miner's configuration document (§6).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrConfigurationInvalid is fatal at startup (§7).
var ErrConfigurationInvalid = errors.New("config: invalid configuration")

type WorkerConfig struct {
	ID       int    `json:"id"`
	Hardware string `json:"hardware"` // "cpu", "gpu", "fpga"
}

type Config struct {
	WalletIP string `json:"wallet_ip"`
	Port     uint16 `json:"port"`

	MiningMode string `json:"mining_mode"` // "HASH" or "PRIME"

	ConnectionRetryIntervalS int `json:"connection_retry_interval_s"`
	GetHeightIntervalS       int `json:"get_height_interval_s"`
	PingIntervalS            int `json:"ping_interval_s"`

	LogLevel string `json:"log_level"`

	FalconMinerPubkeyHex  string `json:"falcon_miner_pubkey_hex"`
	FalconMinerPrivkeyHex string `json:"falcon_miner_privkey_hex"`
	EnableBlockSigning    bool   `json:"enable_block_signing"`

	MinerAddress string `json:"miner_address"`
	PoolMode     bool   `json:"pool_mode"`

	Workers []WorkerConfig `json:"workers"`

	StatusAPIAddr   string `json:"status_api_addr"`
	DiscordWebhook  string `json:"discord_webhook"`
	HistoryDBPath   string `json:"history_db_path"`
}

// Load reads the config document from path, falling back to
// "../<path>" once, mirroring the corpus's config loader. Environment
// variable NEXUS_MINER_PRIVKEY_HEX, if set, overrides the on-disk
// private key so it need not be committed alongside the public config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		data, err = os.ReadFile("../" + path)
		if err != nil {
			return nil, fmt.Errorf("%w: could not open %s: %v", ErrConfigurationInvalid, path, err)
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: malformed json: %v", ErrConfigurationInvalid, err)
	}

	if override := os.Getenv("NEXUS_MINER_PRIVKEY_HEX"); override != "" {
		cfg.FalconMinerPrivkeyHex = override
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces §6: authentication keys are mandatory in solo mode.
func (c *Config) Validate() error {
	if c.WalletIP == "" || c.Port == 0 {
		return fmt.Errorf("%w: wallet_ip and port are required", ErrConfigurationInvalid)
	}

	if !c.PoolMode {
		if c.FalconMinerPubkeyHex == "" || c.FalconMinerPrivkeyHex == "" {
			return fmt.Errorf("%w: solo mode requires falcon_miner_pubkey_hex and falcon_miner_privkey_hex", ErrConfigurationInvalid)
		}
	}

	if c.MiningMode != "HASH" && c.MiningMode != "PRIME" {
		return fmt.Errorf("%w: mining_mode must be HASH or PRIME", ErrConfigurationInvalid)
	}

	return nil
}

// GuidanceLines is the multi-line operator message printed on a fatal
// configuration error (§7 user-visible failure behavior).
func GuidanceLines() []string {
	return []string{
		"nexus-miner could not start: missing or invalid configuration.",
		"solo mode requires a Falcon-512 key pair:",
		"  falcon_miner_pubkey_hex  (897 bytes, hex-encoded)",
		"  falcon_miner_privkey_hex (1281 bytes, hex-encoded)",
		"generate a Falcon-512 key pair, whitelist the public key",
		"with your node operator, then retry.",
	}
}
