package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "MULTIASSET_"

// Config represents the application configuration
type Config struct {
	Ledger     LedgerConfig     `yaml:"ledger" envPrefix:"LEDGER_"`
	Wallet     WalletConfig     `yaml:"wallet" envPrefix:"WALLET_"`
	Contract   ContractConfig   `yaml:"contract" envPrefix:"CONTRACT_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
	Monitoring MonitoringConfig `yaml:"monitoring" envPrefix:"MONITORING_"`
	Logging    LoggingConfig    `yaml:"logging" envPrefix:"LOGGING_"`
}

// LedgerConfig contains ledger (EVM JSON-RPC) connector settings
type LedgerConfig struct {
	RPCURL  string `yaml:"rpc_url" env:"RPC_URL" validate:"omitempty,url"`
	ChainID int64  `yaml:"chain_id" env:"CHAIN_ID" validate:"gte=0"` // 0 asks the node
	// GasLimit of 0 estimates gas per transaction.
	GasLimit    uint64 `yaml:"gas_limit" env:"GAS_LIMIT"`
	MaxGasPrice string `yaml:"max_gas_price" env:"MAX_GAS_PRICE" validate:"omitempty,numeric"`
	// FactoryAddress is the CREATE2 deployer. Defaults to the deterministic deployment proxy.
	FactoryAddress string `yaml:"factory_address" env:"FACTORY_ADDRESS" default:"0x4e59b44847b379578588920cA78FbF26c0B4956C" validate:"eth_addr"`
	// TokenContract serves non-base asset balance reads.
	TokenContract       string        `yaml:"token_contract" env:"TOKEN_CONTRACT" validate:"omitempty,len=66,hexadecimal"`
	BaseAssetDecimals   int32         `yaml:"base_asset_decimals" env:"BASE_ASSET_DECIMALS" default:"18" validate:"gte=0,lte=77"`
	ReceiptTimeout      time.Duration `yaml:"receipt_timeout" env:"RECEIPT_TIMEOUT" default:"2m" validate:"gt=0"`
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval" env:"RECEIPT_POLL_INTERVAL" default:"2s" validate:"gt=0"`
}

// WalletConfig holds the signing key of the operating account
type WalletConfig struct {
	PrivateKey          string `yaml:"private_key" env:"PRIVATE_KEY"`
	EncryptedPrivateKey string `yaml:"encrypted_private_key" env:"ENCRYPTED_PRIVATE_KEY"`
	MasterKey           string `yaml:"master_key" env:"MASTER_KEY" validate:"omitempty,base64"`
	Passphrase          string `yaml:"passphrase" env:"PASSPHRASE"`
}

// ContractConfig locates the compiled contract
type ContractConfig struct {
	BinaryPath  string `yaml:"binary_path" env:"BINARY_PATH" default:"contract/out/multiasset.bin"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`
}

// DatabaseConfig contains database connection settings for the deployment journal
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST" default:"localhost" validate:"required_if=Enabled true"`
	Port     int    `yaml:"port" env:"PORT" default:"5432" validate:"gt=0,lte=65535"`
	User     string `yaml:"user" env:"USER" validate:"required_if=Enabled true"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"NAME" default:"multiasset"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	// MetricsTextfile receives the metrics of each run in node-exporter textfile format.
	MetricsTextfile string `yaml:"metrics_textfile" env:"METRICS_TEXTFILE"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LEVEL" default:"info"`
	Format     string `yaml:"format" env:"FORMAT" default:"console" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" env:"OUTPUT_PATH" default:"stderr"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load loads configuration from file and environment variables. An empty configPath
// uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Wallet.PrivateKey != "" && c.Wallet.EncryptedPrivateKey != "" {
		return errors.New("wallet.private_key and wallet.encrypted_private_key are mutually exclusive")
	}
	return nil
}
