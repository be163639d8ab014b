package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/signalbt/risk"
)

// Config represents a complete backtest configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Backtest  BacktestConfig  `json:"backtest" yaml:"backtest"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// RiskConfig holds the fractions used by the risk policy. Despite the
// names they are fractions, so 0.10 is ten percent.
type RiskConfig struct {
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct"`
	StopLossPct    float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct  float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
}

// ExecutionConfig contains the execution policy parameters
type ExecutionConfig struct {
	Commission float64 `json:"commission" yaml:"commission"`
	// ReserveCommission sizes entries net of commission so they can fill.
	ReserveCommission bool `json:"reserve_commission,omitempty" yaml:"reserve_commission,omitempty"`
}

// BacktestConfig selects the policy and parallelism
type BacktestConfig struct {
	Policy  string `json:"policy" yaml:"policy"` // "risk" or "execution"
	Workers int    `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// PortfolioConfig maps each symbol to its signal CSV
type PortfolioConfig struct {
	Symbols map[string]string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type,omitempty" yaml:"type,omitempty"` // "", "csv" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !(c.Account.InitialCash > 0) {
		return fmt.Errorf("account.initial_cash must be positive")
	}
	if !(c.Risk.MaxPositionPct > 0 && c.Risk.MaxPositionPct <= 1) {
		return fmt.Errorf("risk.max_position_pct must be in (0,1]")
	}
	if !(c.Risk.StopLossPct > 0 && c.Risk.StopLossPct <= 1) {
		return fmt.Errorf("risk.stop_loss_pct must be in (0,1]")
	}
	if !(c.Risk.TakeProfitPct > 0) {
		return fmt.Errorf("risk.take_profit_pct must be positive")
	}
	if !(c.Execution.Commission >= 0 && c.Execution.Commission < 1) {
		return fmt.Errorf("execution.commission must be in [0,1)")
	}
	switch strings.ToLower(strings.TrimSpace(c.Backtest.Policy)) {
	case "", "risk", "execution":
	default:
		return fmt.Errorf("backtest.policy must be 'risk' or 'execution'")
	}
	if c.Backtest.Workers < 0 {
		return fmt.Errorf("backtest.workers must not be negative")
	}
	for sym, path := range c.Portfolio.Symbols {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("portfolio.symbols has an empty symbol")
		}
		if path == "" {
			return fmt.Errorf("portfolio.symbols.%s needs a csv path", sym)
		}
	}
	switch c.Journal.Type {
	case "":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	return nil
}

// RiskPolicy converts the risk section.
func (c *Config) RiskPolicy() risk.Policy {
	return risk.Policy{
		PositionFraction:   c.Risk.MaxPositionPct,
		StopLossFraction:   c.Risk.StopLossPct,
		TakeProfitFraction: c.Risk.TakeProfitPct,
	}
}

// SymbolNames returns the portfolio symbols sorted.
func (c *Config) SymbolNames() []string {
	out := make([]string, 0, len(c.Portfolio.Symbols))
	for s := range c.Portfolio.Symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	rp := risk.DefaultPolicy()
	return &Config{
		Account: AccountConfig{InitialCash: 100000},
		Risk: RiskConfig{
			MaxPositionPct: rp.PositionFraction,
			StopLossPct:    rp.StopLossFraction,
			TakeProfitPct:  rp.TakeProfitFraction,
		},
		Execution: ExecutionConfig{Commission: 0.001},
		Backtest:  BacktestConfig{Policy: "risk", Workers: 4},
		Logging:   LoggingConfig{Level: "info"},
	}
}
