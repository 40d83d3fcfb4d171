package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"market-sim-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string          `yaml:"env"`
	Log      logger.Config   `yaml:"log"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Sim      SimConfig       `yaml:"sim"`
	Accounts []AccountConfig `yaml:"accounts"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"` // 留空则不启动指标服务
	Namespace string `yaml:"namespace"`
}

// SimConfig 模拟运行参数。
type SimConfig struct {
	Instrument string          `yaml:"instrument"`
	MaxTicks   int64           `yaml:"maxTicks"`
	Seed       int64           `yaml:"seed"`
	SeedOrders SeedOrderConfig `yaml:"seedOrders"`
}

// SeedOrderConfig 开盘引导单：先挂一对对价订单让 last-known 价格有值。
type SeedOrderConfig struct {
	Qty       int64 `yaml:"qty"`
	SellPrice int64 `yaml:"sellPrice"`
	BuyPrice  int64 `yaml:"buyPrice"`
}

type AccountConfig struct {
	Name      string      `yaml:"name"`
	Cash      int64       `yaml:"cash"`
	Inventory int64       `yaml:"inventory"`
	SellRange RangeConfig `yaml:"sellRange"`
	BuyRange  RangeConfig `yaml:"buyRange"`
}

// RangeConfig 随机报单区间；价格为相对最优价的偏移。
type RangeConfig struct {
	LowQty    int64 `yaml:"lowQty"`
	HighQty   int64 `yaml:"highQty"`
	LowPrice  int64 `yaml:"lowPrice"`
	HighPrice int64 `yaml:"highPrice"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides selected fields from env
// vars if present (MS_ prefix).
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MS_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("MS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MS_SIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse MS_SIM_SEED: %w", err)
		}
		cfg.Sim.Seed = seed
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log = logger.DefaultConfig()
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "ms"
	}
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Sim.Instrument == "" {
		return errors.New("sim.instrument is required")
	}
	if cfg.Sim.MaxTicks <= 0 {
		return errors.New("sim.maxTicks must be > 0")
	}
	if so := cfg.Sim.SeedOrders; so.Qty > 0 {
		if so.SellPrice <= 0 || so.BuyPrice <= 0 {
			return errors.New("sim.seedOrders prices must be > 0")
		}
	}
	if len(cfg.Accounts) == 0 {
		return errors.New("accounts config is required")
	}
	for _, acct := range cfg.Accounts {
		if acct.Name == "" {
			return errors.New("account name is required")
		}
		if acct.Cash < 0 {
			return fmt.Errorf("account %s cash must be >= 0", acct.Name)
		}
		if acct.Inventory < 0 {
			return fmt.Errorf("account %s inventory must be >= 0", acct.Name)
		}
		if err := validateRange(acct.Name, "sellRange", acct.SellRange); err != nil {
			return err
		}
		if err := validateRange(acct.Name, "buyRange", acct.BuyRange); err != nil {
			return err
		}
	}
	return nil
}

func validateRange(acct, field string, r RangeConfig) error {
	if r.LowQty < 0 || r.HighQty < r.LowQty {
		return fmt.Errorf("account %s %s qty bounds must satisfy 0 <= low <= high", acct, field)
	}
	if r.HighPrice < r.LowPrice {
		return fmt.Errorf("account %s %s price bounds must satisfy low <= high", acct, field)
	}
	return nil
}
