// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"firestige.xyz/nlyzer/internal/core"
)

// Config represents the complete static configuration.
// Maps to the `nlyzer:` root key in YAML.
type Config struct {
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Selection SelectionConfig `mapstructure:"selection" yaml:"selection"`
	Filter    FilterConfig    `mapstructure:"filter" yaml:"filter"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// ─── Capture ───

// CaptureConfig contains device handle settings.
type CaptureConfig struct {
	Engine       string `mapstructure:"engine" yaml:"engine"` // pcap | afpacket
	Promiscuous  bool   `mapstructure:"promiscuous" yaml:"promiscuous"`
	TimeoutMs    int    `mapstructure:"timeout_ms" yaml:"timeout_ms"` // Read timeout, bounds cancellation latency
	SnapLen      int    `mapstructure:"snap_len" yaml:"snap_len"`
	BPFFilter    string `mapstructure:"bpf_filter" yaml:"bpf_filter"`
	BufferSizeMB int    `mapstructure:"buffer_size_mb" yaml:"buffer_size_mb"` // afpacket ring size
}

// ReadTimeout returns TimeoutMs as a duration.
func (c CaptureConfig) ReadTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ─── Device selection ───

// SelectionConfig controls the interactive device prompt.
type SelectionConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // Per prompt
}

// ─── Filter ───

// FilterConfig locates the Lua predicate.
type FilterConfig struct {
	Script   string `mapstructure:"script" yaml:"script"`     // Empty = built-in accept-all script
	Function string `mapstructure:"function" yaml:"function"` // Global function name
	Ports    []int  `mapstructure:"ports" yaml:"ports,omitempty"` // TCP/UDP ports checked before the script, empty = all
}

// ─── Output ───

const (
	OutputModeFull    = "full"
	OutputModeSummary = "summary"
)

// OutputConfig controls how accepted frames are rendered.
type OutputConfig struct {
	Mode   string `mapstructure:"mode" yaml:"mode"`     // full | summary
	Buffer int    `mapstructure:"buffer" yaml:"buffer"` // Summary channel capacity
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`     // trace / debug / info / warn / error
	Format  string           `mapstructure:"format" yaml:"format"`   // pattern / nested / json
	Pattern string           `mapstructure:"pattern" yaml:"pattern"` // Only for format=pattern
	Time    string           `mapstructure:"time" yaml:"time"`       // Go time layout
	Outputs LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains additional log destinations. Stderr is always on.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ─── Loading ───

const rootKey = "nlyzer"

// configRoot is the top-level wrapper matching the YAML structure `nlyzer: ...`.
type configRoot struct {
	Nlyzer Config `mapstructure:"nlyzer" yaml:"nlyzer"`
}

// Load loads configuration from path. An empty path yields defaults plus
// environment overrides (NLYZER_LOG_LEVEL, NLYZER_CAPTURE_ENGINE, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Key "nlyzer.log.level" maps to env NLYZER_LOG_LEVEL through the replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&root, hooks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Nlyzer

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces without a file or environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var root configRoot
	hooks := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(&root, hooks); err != nil {
		panic(err)
	}
	cfg := root.Nlyzer
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		panic(err)
	}
	return &cfg
}

// setDefaults sets default values for configuration.
// All keys use the "nlyzer." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	key := func(k string) string { return rootKey + "." + k }

	// Capture defaults
	v.SetDefault(key("capture.engine"), "pcap")
	v.SetDefault(key("capture.promiscuous"), true)
	v.SetDefault(key("capture.timeout_ms"), 1000)
	v.SetDefault(key("capture.snap_len"), 65535)
	v.SetDefault(key("capture.bpf_filter"), "")
	v.SetDefault(key("capture.buffer_size_mb"), 8)

	// Selection defaults
	v.SetDefault(key("selection.timeout"), "10s")

	// Filter defaults
	v.SetDefault(key("filter.script"), "")
	v.SetDefault(key("filter.function"), "filter")
	v.SetDefault(key("filter.ports"), []int{})

	// Output defaults
	v.SetDefault(key("output.mode"), OutputModeFull)
	v.SetDefault(key("output.buffer"), 1024)

	// Metrics defaults
	v.SetDefault(key("metrics.enabled"), false)
	v.SetDefault(key("metrics.listen"), ":9091")
	v.SetDefault(key("metrics.path"), "/metrics")

	// Log defaults
	v.SetDefault(key("log.level"), "info")
	v.SetDefault(key("log.format"), "pattern")
	v.SetDefault(key("log.pattern"), "%time [%level] %field %msg\n")
	v.SetDefault(key("log.time"), "2006-01-02 15:04:05.000")
	v.SetDefault(key("log.outputs.file.enabled"), false)
	v.SetDefault(key("log.outputs.file.path"), "nlyzer.log")
	v.SetDefault(key("log.outputs.file.rotation.max_size_mb"), 100)
	v.SetDefault(key("log.outputs.file.rotation.max_age_days"), 30)
	v.SetDefault(key("log.outputs.file.rotation.max_backups"), 5)
	v.SetDefault(key("log.outputs.file.rotation.compress"), true)
}

// ValidateAndApplyDefaults validates configuration and fills zero values
// that must never reach the capture path.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── Log ──
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "pattern", "nested", "json":
	default:
		return invalid("log.format %q (must be pattern/nested/json)", cfg.Log.Format)
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return invalid("log.outputs.file.path is required when file output is enabled")
	}

	// ── Capture ──
	cfg.Capture.Engine = strings.ToLower(cfg.Capture.Engine)
	if cfg.Capture.Engine != "pcap" && cfg.Capture.Engine != "afpacket" {
		return invalid("capture.engine %q (must be pcap/afpacket)", cfg.Capture.Engine)
	}
	if cfg.Capture.TimeoutMs <= 0 {
		return invalid("capture.timeout_ms must be positive, got %d", cfg.Capture.TimeoutMs)
	}
	if cfg.Capture.SnapLen <= 0 || cfg.Capture.SnapLen > 262144 {
		return invalid("capture.snap_len must be in (0, 262144], got %d", cfg.Capture.SnapLen)
	}
	if cfg.Capture.BufferSizeMB <= 0 {
		cfg.Capture.BufferSizeMB = 8
	}

	// ── Selection ──
	if cfg.Selection.Timeout <= 0 {
		return invalid("selection.timeout must be positive, got %s", cfg.Selection.Timeout)
	}

	// ── Filter ──
	if cfg.Filter.Function == "" {
		cfg.Filter.Function = "filter"
	}
	for _, p := range cfg.Filter.Ports {
		if p < 1 || p > 65535 {
			return invalid("filter.ports entry %d out of range (1-65535)", p)
		}
	}

	// ── Output ──
	if cfg.Output.Mode != OutputModeFull && cfg.Output.Mode != OutputModeSummary {
		return invalid("output.mode %q (must be full/summary)", cfg.Output.Mode)
	}
	if cfg.Output.Buffer <= 0 {
		return invalid("output.buffer must be positive, got %d", cfg.Output.Buffer)
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Listen == "" {
			return invalid("metrics.listen is required when metrics.enabled=true")
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return invalid("metrics.path must start with '/', got %q", cfg.Metrics.Path)
		}
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrConfigInvalid, fmt.Sprintf(format, args...))
}

// YAML renders the configuration under its root key, in the same layout Load reads.
func (cfg *Config) YAML() ([]byte, error) {
	return yaml.Marshal(configRoot{Nlyzer: *cfg})
}
