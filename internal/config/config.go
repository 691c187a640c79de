// Package config loads the gametest runner configuration from an optional
// YAML file overlaid with GAMETEST_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/comalice/gametestx/internal/sandbox"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Run        RunConfig               `yaml:"run"`
	Clock      ClockConfig             `yaml:"clock"`
	Sandbox    SandboxConfig           `yaml:"sandbox"`
	Structures map[string]sandbox.Size `yaml:"structures"`
	Report     ReportConfig            `yaml:"report"`
	Log        LogConfig               `yaml:"log"`
	Metrics    MetricsConfig           `yaml:"metrics"`
	Tracing    TracingConfig           `yaml:"tracing"`

	// envErrs holds environment values that did not parse.
	envErrs []error
}

type RunConfig struct {
	Tags          []string `yaml:"tags"`
	Filter        string   `yaml:"filter"`
	MaxConcurrent int      `yaml:"max_concurrent"`
	// MaxRunTicks aborts the whole run after this many ticks; 0 disables it.
	MaxRunTicks int `yaml:"max_run_ticks"`
}

type ClockConfig struct {
	// TickRate paces the run in realtime mode. 0 runs ticks back to back.
	TickRate time.Duration `yaml:"tick_rate"`
}

type SandboxConfig struct {
	Origin      sandbox.Pos  `yaml:"origin"`
	Width       int          `yaml:"width"`
	Depth       int          `yaml:"depth"`
	DefaultSize sandbox.Size `yaml:"default_structure_size"`
}

type ReportConfig struct {
	JSON string `yaml:"json"`
	YAML string `yaml:"yaml"`
	DOT  string `yaml:"dot"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Tags: []string{"suite:default"},
		},
		Sandbox: SandboxConfig{
			DefaultSize: sandbox.DefaultStructureSize,
		},
		Structures: map[string]sandbox.Size{},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Insecure: true,
		},
	}
}

// Load reads path (if not empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if tags := getEnv("GAMETEST_TAGS", ""); tags != "" {
		c.Run.Tags = splitList(tags)
	}
	c.Run.Filter = getEnv("GAMETEST_FILTER", c.Run.Filter)
	c.Run.MaxConcurrent = c.getEnvInt("GAMETEST_MAX_CONCURRENT", c.Run.MaxConcurrent)
	c.Run.MaxRunTicks = c.getEnvInt("GAMETEST_MAX_RUN_TICKS", c.Run.MaxRunTicks)
	if ms := c.getEnvInt("GAMETEST_TICK_RATE_MS", -1); ms >= 0 {
		c.Clock.TickRate = time.Duration(ms) * time.Millisecond
	}
	c.Sandbox.Width = c.getEnvInt("GAMETEST_GRID_WIDTH", c.Sandbox.Width)
	c.Sandbox.Depth = c.getEnvInt("GAMETEST_GRID_DEPTH", c.Sandbox.Depth)
	c.Report.JSON = getEnv("GAMETEST_REPORT_JSON", c.Report.JSON)
	c.Report.YAML = getEnv("GAMETEST_REPORT_YAML", c.Report.YAML)
	c.Report.DOT = getEnv("GAMETEST_REPORT_DOT", c.Report.DOT)
	c.Log.Level = getEnv("GAMETEST_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("GAMETEST_LOG_FORMAT", c.Log.Format)
	c.Metrics.Addr = getEnv("GAMETEST_METRICS_ADDR", c.Metrics.Addr)
	c.Tracing.Endpoint = getEnv("GAMETEST_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.Insecure = c.getEnvBool("GAMETEST_OTLP_INSECURE", c.Tracing.Insecure)
}

func (c *Config) validate() error {
	errs := slices.Clone(c.envErrs)
	if c.Run.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("run.max_concurrent must not be negative, got %d", c.Run.MaxConcurrent))
	}
	if c.Run.MaxRunTicks < 0 {
		errs = append(errs, fmt.Errorf("run.max_run_ticks must not be negative, got %d", c.Run.MaxRunTicks))
	}
	if c.Clock.TickRate < 0 {
		errs = append(errs, fmt.Errorf("clock.tick_rate must not be negative, got %s", c.Clock.TickRate))
	}
	if c.Sandbox.Width < 0 || c.Sandbox.Depth < 0 {
		errs = append(errs, fmt.Errorf("sandbox width and depth must not be negative"))
	}
	if !c.Sandbox.DefaultSize.Valid() {
		errs = append(errs, fmt.Errorf("sandbox.default_structure_size must be positive on every axis, got %s", c.Sandbox.DefaultSize))
	}
	for name, size := range c.Structures {
		if !size.Valid() {
			errs = append(errs, fmt.Errorf("structure %q: size must be positive on every axis, got %s", name, size))
		}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Grid returns the allocator bounds.
func (s SandboxConfig) Grid() sandbox.Config {
	return sandbox.Config{Origin: s.Origin, Width: s.Width, Depth: s.Depth}
}

// Catalog returns the configured structures, falling back to the default
// structure size for names it does not know.
func (c *Config) Catalog() sandbox.StructureCatalog {
	return structureCatalog{sizes: sandbox.Catalog(c.Structures), fallback: c.Sandbox.DefaultSize}
}

type structureCatalog struct {
	sizes    sandbox.Catalog
	fallback sandbox.Size
}

func (c structureCatalog) Size(name string) (sandbox.Size, bool) {
	if s, ok := c.sizes.Size(name); ok {
		return s, true
	}
	return c.fallback, c.fallback.Valid()
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return i
}

func (c *Config) getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}
