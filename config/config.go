package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxloop/broker/oanda"
	"github.com/rustyeddy/fxloop/guard"
	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/loop"
	"github.com/rustyeddy/fxloop/market"
	"github.com/rustyeddy/fxloop/model"
	"github.com/rustyeddy/fxloop/risk"
	"github.com/rustyeddy/fxloop/strategies"
)

// ErrInvalidConfig wraps every validation failure. The CLI exits before
// the loop starts when it sees one.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete engine configuration
type Config struct {
	Broker   BrokerConfig   `yaml:"broker" json:"broker"`
	Trading  TradingConfig  `yaml:"trading" json:"trading"`
	Strategy StrategyConfig `yaml:"strategy" json:"strategy"`
	Risk     RiskConfig     `yaml:"risk" json:"risk"`
	Guard    GuardConfig    `yaml:"guard" json:"guard"`
	Loop     LoopConfig     `yaml:"loop" json:"loop"`
	Journal  JournalConfig  `yaml:"journal" json:"journal"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// BrokerConfig holds OANDA connection settings. Token and account normally
// come from the environment rather than the file.
type BrokerConfig struct {
	Env            string  `yaml:"env" json:"env" validate:"omitempty,oneof=practice demo live"`
	AllowLive      bool    `yaml:"allow_live" json:"allow_live"`
	Token          string  `yaml:"token,omitempty" json:"token,omitempty"`
	AccountID      string  `yaml:"account_id,omitempty" json:"account_id,omitempty"`
	BaseURL        string  `yaml:"base_url,omitempty" json:"base_url,omitempty" validate:"omitempty,url"`
	Timeout        string  `yaml:"timeout" json:"timeout"`
	RequestsPerSec float64 `yaml:"requests_per_sec" json:"requests_per_sec" validate:"gte=0"`
	Burst          int     `yaml:"burst" json:"burst" validate:"gte=0"`
	MaxRetries     uint64  `yaml:"max_retries" json:"max_retries"`
}

type TradingConfig struct {
	Instrument  string `yaml:"instrument" json:"instrument" validate:"required"`
	Granularity string `yaml:"granularity" json:"granularity" validate:"required"`
	CandleCount int    `yaml:"candle_count" json:"candle_count" validate:"gt=0,lte=5000"`
	DryRun      bool   `yaml:"dry_run" json:"dry_run"`
}

type StrategyConfig struct {
	Name       string       `yaml:"name" json:"name" validate:"required,oneof=ma-cross predictive"`
	FastPeriod int          `yaml:"fast_period" json:"fast_period" validate:"gt=0"`
	SlowPeriod int          `yaml:"slow_period" json:"slow_period" validate:"gt=0"`
	ATRPeriod  int          `yaml:"atr_period" json:"atr_period" validate:"gt=0"`
	Threshold  float64      `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"gte=0,lt=1"`
	Model      model.Config `yaml:"model,omitempty" json:"model,omitempty"`
}

type RiskConfig struct {
	StopATRMultiple   float64 `yaml:"stop_atr_multiple" json:"stop_atr_multiple" validate:"gt=0"`
	TargetATRMultiple float64 `yaml:"target_atr_multiple" json:"target_atr_multiple" validate:"gt=0"`
	RiskFraction      float64 `yaml:"risk_fraction" json:"risk_fraction" validate:"gt=0,lte=1"`
	MinUnits          int64   `yaml:"min_units" json:"min_units" validate:"gte=0"`
}

type GuardConfig struct {
	MaxSpreadPips float64 `yaml:"max_spread_pips" json:"max_spread_pips" validate:"gt=0"`
	MinATR        float64 `yaml:"min_atr" json:"min_atr" validate:"gte=0"`
}

type LoopConfig struct {
	PollInterval string `yaml:"poll_interval" json:"poll_interval" validate:"required"`
}

type JournalConfig struct {
	// Type is sqlite, csv, both or none.
	Type    string `yaml:"type" json:"type" validate:"omitempty,oneof=sqlite csv both none"`
	Path    string `yaml:"path" json:"path"`
	CSVPath string `yaml:"csv_path,omitempty" json:"csv_path,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr" validate:"required_if=Enabled true"`
}

// Environment variables that override the file.
const (
	EnvToken    = "OANDA_TOKEN"
	EnvAccount  = "OANDA_ACCOUNT"
	EnvOandaEnv = "OANDA_ENV"
	EnvLogLevel = "FXLOOP_LOG_LEVEL"
	EnvDryRun   = "FXLOOP_DRY_RUN"
)

var validate = validator.New()

// Load reads path (or starts from Default when path is empty), applies
// the environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML or JSON file. It does not
// look at the environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, c); err != nil {
		if jsonErr := json.Unmarshal(data, c); jsonErr != nil {
			return fmt.Errorf("failed to parse config (tried YAML and JSON): yaml=%v, json=%v", err, jsonErr)
		}
	}
	return nil
}

// ApplyEnv loads .env when present and lets the environment override
// secrets and a few operational switches.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if v := os.Getenv(EnvToken); v != "" {
		c.Broker.Token = v
	}
	if v := os.Getenv(EnvAccount); v != "" {
		c.Broker.AccountID = v
	}
	if v := os.Getenv(EnvOandaEnv); v != "" {
		c.Broker.Env = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDryRun); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a bool", ErrInvalidConfig, EnvDryRun, v)
		}
		c.Trading.DryRun = b
	}
	return nil
}

// SaveToFile saves configuration to a file; the extension picks YAML or
// JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	ext := filepath.Ext(path)
	if ext == ".yaml" || ext == ".yml" {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := market.Lookup(c.Trading.Instrument); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := oanda.Granularity(c.Trading.Granularity).Duration(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Strategy.FastPeriod >= c.Strategy.SlowPeriod {
		return fmt.Errorf("%w: fast_period (%d) must be less than slow_period (%d)",
			ErrInvalidConfig, c.Strategy.FastPeriod, c.Strategy.SlowPeriod)
	}
	// The engine needs one bar past the strategy's warm-up; a crossover
	// needs the previous bar's averages too.
	if warm := max(c.Indicators().Warmup(), c.Strategy.SlowPeriod+1, 4) + 1; c.Trading.CandleCount < warm {
		return fmt.Errorf("%w: candle_count (%d) must be at least %d for these periods",
			ErrInvalidConfig, c.Trading.CandleCount, warm)
	}
	if c.Strategy.Name == "predictive" && c.Strategy.Model.Path == "" {
		return fmt.Errorf("%w: predictive strategy needs strategy.model.path", ErrInvalidConfig)
	}
	if strings.EqualFold(c.Broker.Env, "live") && !c.Broker.AllowLive {
		return fmt.Errorf("%w: live environment requires broker.allow_live", ErrInvalidConfig)
	}
	if c.Journal.Type != "" && c.Journal.Type != "none" && c.Journal.Path == "" {
		return fmt.Errorf("%w: journal.path is required for journal type %q", ErrInvalidConfig, c.Journal.Type)
	}

	for name, s := range map[string]string{
		"broker.timeout":     c.Broker.Timeout,
		"loop.poll_interval": c.Loop.PollInterval,
	} {
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}

	return nil
}

// RequireCredentials is checked by the commands that talk to OANDA.
func (c *Config) RequireCredentials() error {
	if c.Broker.Token == "" {
		return fmt.Errorf("%w: missing OANDA token (set %s)", ErrInvalidConfig, EnvToken)
	}
	if c.Broker.AccountID == "" {
		return fmt.Errorf("%w: missing OANDA account (set %s)", ErrInvalidConfig, EnvAccount)
	}
	return nil
}

func (c *Config) Indicators() indicators.Params {
	return indicators.Params{
		FastPeriod: c.Strategy.FastPeriod,
		SlowPeriod: c.Strategy.SlowPeriod,
		ATRPeriod:  c.Strategy.ATRPeriod,
	}
}

func (c *Config) RiskParams() risk.Params {
	return risk.Params{
		StopATRMultiple:   c.Risk.StopATRMultiple,
		TargetATRMultiple: c.Risk.TargetATRMultiple,
		RiskFraction:      c.Risk.RiskFraction,
		MinUnits:          c.Risk.MinUnits,
	}
}

func (c *Config) GuardParams() guard.Guard {
	return guard.Guard{MaxSpreadPips: c.Guard.MaxSpreadPips, MinATR: c.Guard.MinATR}
}

func (c *Config) StrategyConfig() strategies.Config {
	return strategies.Config{
		Name:      c.Strategy.Name,
		Params:    c.Indicators(),
		Threshold: c.Strategy.Threshold,
	}
}

// LoopConfig assumes Validate has passed.
func (c *Config) LoopConfig() loop.Config {
	poll, _ := time.ParseDuration(c.Loop.PollInterval)
	return loop.Config{
		Instrument:   c.Trading.Instrument,
		Granularity:  c.Trading.Granularity,
		CandleCount:  c.Trading.CandleCount,
		PollInterval: poll,
		Indicators:   c.Indicators(),
		Risk:         c.RiskParams(),
		DryRun:       c.Trading.DryRun,
	}
}

func (c *Config) OandaOptions() oanda.Options {
	opts := oanda.Options{
		Env:            c.Broker.Env,
		AllowLive:      c.Broker.AllowLive,
		BaseURL:        c.Broker.BaseURL,
		RequestsPerSec: c.Broker.RequestsPerSec,
		Burst:          c.Broker.Burst,
		MaxRetries:     c.Broker.MaxRetries,
	}
	if c.Broker.Timeout != "" {
		opts.Timeout, _ = time.ParseDuration(c.Broker.Timeout)
	}
	return opts
}

// Default returns a configuration that trades nothing: practice account,
// dry run on.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Env:            "practice",
			Timeout:        "30s",
			RequestsPerSec: 10,
			Burst:          5,
			MaxRetries:     3,
		},
		Trading: TradingConfig{
			Instrument:  "EUR_USD",
			Granularity: "M5",
			CandleCount: 300,
			DryRun:      true,
		},
		Strategy: StrategyConfig{
			Name:       "ma-cross",
			FastPeriod: 10,
			SlowPeriod: 30,
			ATRPeriod:  14,
		},
		Risk: RiskConfig{
			StopATRMultiple:   1.5,
			TargetATRMultiple: 2.5,
			RiskFraction:      0.005,
			MinUnits:          100,
		},
		Guard: GuardConfig{
			MaxSpreadPips: 2.0,
		},
		Loop: LoopConfig{
			PollInterval: "60s",
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "fxloop.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}
