// Package config loads and validates the console daemon's YAML settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings for the console daemon.
type Config struct {
	ListenAddress string          `yaml:"listen"`
	Environment   string          `yaml:"env"`
	RPC           RPCConfig       `yaml:"rpc"`
	Wallet        WalletConfig    `yaml:"wallet"`
	Log           LogConfig       `yaml:"log"`
	Refresh       RefreshConfig   `yaml:"refresh"`
	Contracts     ContractsConfig `yaml:"contracts"`
	Tokens        []TokenConfig   `yaml:"tokens"`
}

// RPCConfig points at the Ethereum JSON-RPC endpoint.
type RPCConfig struct {
	Endpoint string `yaml:"endpoint"`
	ChainID  int64  `yaml:"chain_id"`
}

// WalletConfig locates the hex-encoded signing key on disk.
type WalletConfig struct {
	KeyFile string `yaml:"key_file"`
}

// LogConfig selects an optional rotating log file alongside stdout.
type LogConfig struct {
	File string `yaml:"file"`
}

// RefreshConfig throttles snapshot refreshes triggered by reads.
type RefreshConfig struct {
	// PerSecond caps refreshes per second; zero disables the limiter.
	PerSecond float64 `yaml:"per_second"`
	// Burst is the limiter burst size, defaulting to 1 when a rate is set.
	Burst int `yaml:"burst"`
}

// ContractsConfig lists the deployed contract addresses. Empty entries are
// allowed; the dependent surfaces degrade to configuration messages.
type ContractsConfig struct {
	USDC            string `yaml:"usdc"`
	DBUSD           string `yaml:"dbusd"`
	WETH            string `yaml:"weth"`
	CollateralVault string `yaml:"collateral_vault"`
	DebtVault       string `yaml:"debt_vault"`
	PSM             string `yaml:"psm"`
	SRM             string `yaml:"srm"`
}

// TokenConfig binds a token address to its display metadata, used to resolve
// the debt vault's unit of account.
type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// Load reads the YAML configuration from disk and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: ":8490",
	}
	if path == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8490"
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.RPC.Endpoint = strings.TrimSpace(cfg.RPC.Endpoint)
	cfg.Wallet.KeyFile = strings.TrimSpace(cfg.Wallet.KeyFile)
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	if cfg.Refresh.PerSecond > 0 && cfg.Refresh.Burst <= 0 {
		cfg.Refresh.Burst = 1
	}
	cfg.Contracts.normalize()
	for i := range cfg.Tokens {
		cfg.Tokens[i].Address = strings.TrimSpace(cfg.Tokens[i].Address)
		cfg.Tokens[i].Symbol = strings.TrimSpace(cfg.Tokens[i].Symbol)
	}
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	if cfg.RPC.Endpoint == "" {
		return fmt.Errorf("rpc: endpoint is required")
	}
	if cfg.RPC.ChainID <= 0 {
		return fmt.Errorf("rpc: chain_id must be positive")
	}
	if cfg.Wallet.KeyFile == "" {
		return fmt.Errorf("wallet: key_file is required")
	}
	if err := cfg.Contracts.validate(); err != nil {
		return fmt.Errorf("contracts: %w", err)
	}
	for _, token := range cfg.Tokens {
		if !common.IsHexAddress(token.Address) {
			return fmt.Errorf("tokens: %q is not a hex address", token.Address)
		}
		if token.Symbol == "" {
			return fmt.Errorf("tokens: %s has no symbol", token.Address)
		}
	}
	return nil
}

func (cfg *ContractsConfig) normalize() {
	if cfg == nil {
		return
	}
	cfg.USDC = strings.TrimSpace(cfg.USDC)
	cfg.DBUSD = strings.TrimSpace(cfg.DBUSD)
	cfg.WETH = strings.TrimSpace(cfg.WETH)
	cfg.CollateralVault = strings.TrimSpace(cfg.CollateralVault)
	cfg.DebtVault = strings.TrimSpace(cfg.DebtVault)
	cfg.PSM = strings.TrimSpace(cfg.PSM)
	cfg.SRM = strings.TrimSpace(cfg.SRM)
}

func (cfg ContractsConfig) validate() error {
	for name, value := range cfg.entries() {
		if value != "" && !common.IsHexAddress(value) {
			return fmt.Errorf("%s: %q is not a hex address", name, value)
		}
	}
	return nil
}

func (cfg ContractsConfig) entries() map[string]string {
	return map[string]string{
		"usdc":             cfg.USDC,
		"dbusd":            cfg.DBUSD,
		"weth":             cfg.WETH,
		"collateral_vault": cfg.CollateralVault,
		"debt_vault":       cfg.DebtVault,
		"psm":              cfg.PSM,
		"srm":              cfg.SRM,
	}
}

// Address parses a validated entry, returning the zero address when unset.
func Address(value string) common.Address {
	if value == "" {
		return common.Address{}
	}
	return common.HexToAddress(value)
}
