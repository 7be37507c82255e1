package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, cfg Config) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadValidSoloConfig(t *testing.T) {
	path := writeTemp(t, Config{
		WalletIP:              "127.0.0.1",
		Port:                  9325,
		MiningMode:            "HASH",
		FalconMinerPubkeyHex:  "ab",
		FalconMinerPrivkeyHex: "cd",
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WalletIP != "127.0.0.1" || cfg.Port != 9325 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsMissingKeysInSoloMode(t *testing.T) {
	path := writeTemp(t, Config{
		WalletIP:   "127.0.0.1",
		Port:       9325,
		MiningMode: "HASH",
	})

	_, err := Load(path)
	if !errors.Is(err, ErrConfigurationInvalid) {
		t.Fatalf("expected ErrConfigurationInvalid, got %v", err)
	}
}

func TestLoadAllowsMissingKeysInPoolMode(t *testing.T) {
	path := writeTemp(t, Config{
		WalletIP:   "127.0.0.1",
		Port:       9325,
		MiningMode: "HASH",
		PoolMode:   true,
	})

	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadEnvOverridesPrivateKey(t *testing.T) {
	path := writeTemp(t, Config{
		WalletIP:              "127.0.0.1",
		Port:                  9325,
		MiningMode:            "HASH",
		FalconMinerPubkeyHex:  "ab",
		FalconMinerPrivkeyHex: "cd",
	})

	t.Setenv("NEXUS_MINER_PRIVKEY_HEX", "ffff")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FalconMinerPrivkeyHex != "ffff" {
		t.Fatalf("expected env override to take effect, got %s", cfg.FalconMinerPrivkeyHex)
	}
}
