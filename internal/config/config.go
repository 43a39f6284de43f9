// Package config assembles runtime settings for the pmf binary: package
// defaults, an optional YAML overlay, then environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/scoring"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/signals"
)

// #region types

const (
	DefaultDBPath    = "pmf.db"
	DefaultJudgeAddr = "localhost:50051"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Environment variables that override file and default values.
const (
	EnvDBPath    = "PMF_DB"
	EnvJudgeAddr = "PMF_JUDGE_ADDR"
	EnvLogLevel  = "PMF_LOG_LEVEL"
	EnvLogFormat = "PMF_LOG_FORMAT"
)

// Config is the full runtime configuration.
type Config struct {
	DBPath    string             `yaml:"db_path"`
	JudgeAddr string             `yaml:"judge_addr"`
	LogLevel  string             `yaml:"log_level"`
	LogFormat string             `yaml:"log_format"`
	Gate      gate.GateConfig    `yaml:"gate"`
	Signals   signals.RuleConfig `yaml:"signals"`
	Scoring   scoring.Config     `yaml:"scoring"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		DBPath:    DefaultDBPath,
		JudgeAddr: DefaultJudgeAddr,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Gate:      gate.DefaultGateConfig(),
		Signals:   signals.DefaultRuleConfig(),
		Scoring:   scoring.DefaultConfig(),
	}
}

// #endregion types

// #region load

// Load builds a Config. Keys present in the YAML file at path replace the
// defaults; an empty path skips the file. A .env file in the working
// directory is loaded if present, and PMF_* variables win over both.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg.DBPath = envOr(EnvDBPath, cfg.DBPath)
	cfg.JudgeAddr = envOr(EnvJudgeAddr, cfg.JudgeAddr)
	cfg.LogLevel = envOr(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = envOr(EnvLogFormat, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects thresholds that would make the engine meaningless.
func (c Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: want text or json", c.LogFormat)
	}
	s := c.Scoring
	if s.PartialMin <= 0 || s.ConfirmedMin <= s.PartialMin || s.ConfirmedMin > 100 {
		return fmt.Errorf("verdict thresholds: need 0 < partial_min (%g) < confirmed_min (%g) <= 100", s.PartialMin, s.ConfirmedMin)
	}
	if s.HardKillCeiling >= s.PartialMin {
		return fmt.Errorf("hard_kill_ceiling %g must stay below partial_min %g", s.HardKillCeiling, s.PartialMin)
	}
	if s.PenaltyCap < 0 || s.ModifierCap < 0 {
		return fmt.Errorf("caps must be non-negative (penalty %g, modifier %g)", s.PenaltyCap, s.ModifierCap)
	}
	if c.Gate.MaxCPA <= 0 || c.Gate.MinOrders <= 0 {
		return fmt.Errorf("gate thresholds must be positive (max_cpa %g, min_orders %g)", c.Gate.MaxCPA, c.Gate.MinOrders)
	}
	return nil
}

// #endregion load

// #region logger

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// #endregion logger

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
