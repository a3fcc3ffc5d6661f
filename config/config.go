package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

var (
	GlobalConfigCallback ConfigCallback[GlobalConfig] = ConfigCallback[GlobalConfig]{}
	CfgFlag                                           = flag.String("config", "config.toml", "Configuration file (toml format)")

	BackoffMaxElapsedTime = 1 * time.Minute
	Timeout               = 5 * time.Second
)

type GlobalConfig interface {
	LoggerConfig() LoggerConfig
}

type Config struct {
	DB        DBConfig                `toml:"db"`
	Logger    LoggerConfig            `toml:"logger"`
	Chains    map[string]ChainConfig  `toml:"chains"`
	Contracts []ContractConfig        `toml:"contracts"`
	Indexer   IndexerConfig           `toml:"indexer"`
	Sweep     SweepConfig             `toml:"sweep"`
	Monitor   MonitorConfig           `toml:"monitor"`
}

type LoggerConfig struct {
	Level       string `toml:"level"` // valid values are: DEBUG, INFO, WARN, ERROR, DPANIC, PANIC, FATAL (zap)
	File        string `toml:"file"`
	MaxFileSize int    `toml:"max_file_size"` // In megabytes
	Console     bool   `toml:"console"`
}

type DBConfig struct {
	Host             string `toml:"host" envconfig:"DB_HOST"`
	Port             int    `toml:"port" envconfig:"DB_PORT"`
	Database         string `toml:"database" envconfig:"DB_DATABASE"`
	Username         string `toml:"username" envconfig:"DB_USERNAME"`
	Password         string `toml:"password" envconfig:"DB_PASSWORD"`
	LogQueries       bool   `toml:"log_queries"`
	DropTableAtStart bool   `toml:"drop_table_at_start"`
}

// ChainConfig describes one RPC endpoint. A missing or placeholder node_url
// excludes the chain without failing startup.
type ChainConfig struct {
	NodeURL   string `toml:"node_url"`
	ChainID   uint64 `toml:"chain_id"`
	ChainType string `toml:"chain_type"` // "eth" (default) or "avax"
}

// ContractConfig binds one deployed contract to a chain. Kind selects the
// event schema and the ledger handlers.
type ContractConfig struct {
	Name       string `toml:"name"`
	Kind       string `toml:"kind"` // campaign_staking, impact_pool, treasury_staking, wealth_building, token_vesting
	ChainID    uint64 `toml:"chain_id"`
	Address    string `toml:"address"`
	StartBlock uint64 `toml:"start_block"`
}

type IndexerConfig struct {
	BatchSize           uint64 `toml:"batch_size"`
	ThrottleMillis      int    `toml:"throttle_millis"`
	TimeoutMillis       int    `toml:"timeout_millis"`
	Confirmations       uint64 `toml:"confirmations"`
	NewBlockCheckMillis int    `toml:"new_block_check_millis"`
}

type SweepConfig struct {
	WindowBlocks    uint64 `toml:"window_blocks"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

type MonitorConfig struct {
	Address string `toml:"address"` // empty disables the monitor endpoint
}

func newConfig() *Config {
	return &Config{
		Indexer: IndexerConfig{
			BatchSize:           1000,
			ThrottleMillis:      200,
			TimeoutMillis:       5000,
			NewBlockCheckMillis: 2000,
		},
		Sweep: SweepConfig{
			WindowBlocks:    500,
			IntervalSeconds: 300,
		},
	}
}

func BuildConfig() (*Config, error) {
	cfgFileName := *CfgFlag

	cfg := newConfig()
	err := ParseConfigFile(cfg, cfgFileName)
	if err != nil {
		return nil, err
	}
	err = ReadEnv(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseConfigFile(cfg *Config, fileName string) error {
	content, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}

	_, err = toml.Decode(string(content), cfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func ReadEnv(cfg interface{}) error {
	err := envconfig.Process("", cfg)
	if err != nil {
		return fmt.Errorf("error reading env config: %w", err)
	}
	return nil
}

func (c Config) LoggerConfig() LoggerConfig {
	return c.Logger
}

func (c Config) Timeout() time.Duration {
	if c.Indexer.TimeoutMillis <= 0 {
		return Timeout
	}
	return time.Duration(c.Indexer.TimeoutMillis) * time.Millisecond
}

// ContractsOn returns the contracts configured for the given chain.
func (c Config) ContractsOn(chainID uint64) []ContractConfig {
	var out []ContractConfig
	for _, contract := range c.Contracts {
		if contract.ChainID == chainID {
			out = append(out, contract)
		}
	}
	return out
}
