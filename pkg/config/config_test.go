package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0x4e59b44847b379578588920cA78FbF26c0B4956C", cfg.Ledger.FactoryAddress)
	assert.Equal(t, int32(18), cfg.Ledger.BaseAssetDecimals)
	assert.Equal(t, 2*time.Minute, cfg.Ledger.ReceiptTimeout)
	assert.Equal(t, 2*time.Second, cfg.Ledger.ReceiptPollInterval)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "stderr", cfg.Logging.OutputPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
ledger:
  rpc_url: http://localhost:8545
  chain_id: 31337
  gas_limit: 500000
  receipt_timeout: 30s
wallet:
  private_key: "0xabc"
database:
  enabled: true
  host: db.internal
logging:
  format: json
`)
	t.Setenv("MULTIASSET_LEDGER_RPC_URL", "http://node:8545")
	t.Setenv("MULTIASSET_DATABASE_PORT", "6543")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://node:8545", cfg.Ledger.RPCURL)
	assert.Equal(t, int64(31337), cfg.Ledger.ChainID)
	assert.Equal(t, uint64(500000), cfg.Ledger.GasLimit)
	assert.Equal(t, 30*time.Second, cfg.Ledger.ReceiptTimeout)
	assert.Equal(t, "0xabc", cfg.Wallet.PrivateKey)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched defaults survive
	assert.Equal(t, "multiasset", cfg.Database.Database)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad url":         "ledger:\n  rpc_url: not a url\n",
		"bad gas price":   "ledger:\n  max_gas_price: lots\n",
		"bad factory":     "ledger:\n  factory_address: 0x1234\n",
		"bad token":       "ledger:\n  token_contract: 0x1234\n",
		"bad format":      "logging:\n  format: xml\n",
		"bad ssl mode":    "database:\n  ssl_mode: maybe\n",
		"both keys":       "wallet:\n  private_key: a\n  encrypted_private_key: b\n",
		"bad master key":  "wallet:\n  master_key: '***'\n",
		"db without user": "database:\n  enabled: true\n  host: localhost\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
