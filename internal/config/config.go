// Package config loads deployment settings from a YAML or JSON file, a .env
// file and GEOSOLVE_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/ingest"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file read when none is given and it exists.
const DefaultFile = "geosolve.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GEOSOLVE_"

// Solver addresses the remote computation service.
type Solver struct {
	URL     string        `yaml:"url" json:"url"`
	Path    string        `yaml:"path,omitempty" json:"path,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// UnmarshalJSON accepts the timeout as a duration string ("60s") like YAML
// does, or as a number of nanoseconds.
func (s *Solver) UnmarshalJSON(data []byte) error {
	type plain Solver
	aux := struct {
		*plain
		Timeout json.RawMessage `json:"timeout,omitempty"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Timeout) == 0 || string(aux.Timeout) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(aux.Timeout, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("solver timeout: %w", err)
		}
		s.Timeout = d
		return nil
	}
	var n int64
	if err := json.Unmarshal(aux.Timeout, &n); err != nil {
		return fmt.Errorf("solver timeout: must be a duration string or nanoseconds")
	}
	s.Timeout = time.Duration(n)
	return nil
}

// Viewport sets the pixel size and redraw rate of viewports.
type Viewport struct {
	Width       int `yaml:"width" json:"width"`
	Height      int `yaml:"height" json:"height"`
	FPS         int `yaml:"fps" json:"fps"`
	Supersample int `yaml:"supersample" json:"supersample"`
}

// Server configures serve mode.
type Server struct {
	Addr     string `yaml:"addr" json:"addr"`
	RedisURL string `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`
}

// Config is the full deployment configuration.
type Config struct {
	Solver     Solver `yaml:"solver" json:"solver"`
	Definition string `yaml:"definition" json:"definition"`
	// Preset selects the classification table and style preset together.
	Preset     string             `yaml:"preset" json:"preset"`
	Table      ingest.Table       `yaml:"table,omitempty" json:"table,omitempty"`
	Styles     scene.StyleTable   `yaml:"styles,omitempty" json:"styles,omitempty"`
	Background string             `yaml:"background,omitempty" json:"background,omitempty"`
	Controls   []controls.Control `yaml:"controls,omitempty" json:"controls,omitempty"`
	Viewport   Viewport           `yaml:"viewport" json:"viewport"`
	Server     Server             `yaml:"server" json:"server"`
	ExportDir  string             `yaml:"export_dir" json:"export_dir"`
	LogLevel   string             `yaml:"log_level" json:"log_level"`
	LogFormat  string             `yaml:"log_format" json:"log_format"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Solver: Solver{
			URL:     "http://localhost:8081",
			Path:    "/solve",
			Timeout: 60 * time.Second,
		},
		Definition: "geo_upload.gh",
		Preset:     scene.PresetGeoUpload,
		Viewport: Viewport{
			Width:       800,
			Height:      600,
			FPS:         10,
			Supersample: 2,
		},
		Server:    Server{Addr: ":8080"},
		ExportDir: ".geosolve/exports",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration. An empty path reads DefaultFile when it
// exists. A .env file in the working directory is loaded if present and
// never overrides variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings from GEOSOLVE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"SOLVER_URL":  &c.Solver.URL,
		"SOLVER_PATH": &c.Solver.Path,
		"DEFINITION":  &c.Definition,
		"PRESET":      &c.Preset,
		"BACKGROUND":  &c.Background,
		"ADDR":        &c.Server.Addr,
		"REDIS_URL":   &c.Server.RedisURL,
		"EXPORT_DIR":  &c.ExportDir,
		"LOG_LEVEL":   &c.LogLevel,
		"LOG_FORMAT":  &c.LogFormat,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WIDTH":  &c.Viewport.Width,
		"HEIGHT": &c.Viewport.Height,
		"FPS":    &c.Viewport.FPS,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: not an integer: %q", EnvPrefix, key, v)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "SOLVER_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sSOLVER_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Solver.Timeout = d
	}
	return nil
}

// ClassificationTable returns the explicit table or the preset's.
func (c *Config) ClassificationTable() (ingest.Table, error) {
	table := c.Table
	if len(table) == 0 {
		var err error
		if table, err = ingest.Preset(c.Preset); err != nil {
			return nil, err
		}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// StylePreset returns the preset styles with explicit entries and the
// background override applied on top.
func (c *Config) StylePreset() (scene.Preset, error) {
	preset, err := scene.StylePreset(c.Preset)
	if err != nil {
		return scene.Preset{}, err
	}
	styles := make(scene.StyleTable, len(preset.Styles)+len(c.Styles))
	for k, v := range preset.Styles {
		styles[k] = v
	}
	for k, v := range c.Styles {
		styles[k] = v
	}
	if err := styles.Validate(); err != nil {
		return scene.Preset{}, err
	}
	preset.Styles = styles

	if c.Background != "" {
		bg, err := scene.ParseColor(c.Background)
		if err != nil {
			return scene.Preset{}, fmt.Errorf("background: %w", err)
		}
		preset.Background = bg
	}
	return preset, nil
}

// Validate checks the settings that cannot be caught later.
func (c *Config) Validate() error {
	if c.Solver.URL == "" {
		return fmt.Errorf("solver url is required")
	}
	if c.Definition == "" {
		return fmt.Errorf("definition is required")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("invalid viewport size %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if _, err := c.ClassificationTable(); err != nil {
		return err
	}
	if _, err := c.StylePreset(); err != nil {
		return err
	}
	if _, err := controls.NewPanel(c.Controls); err != nil {
		return err
	}
	return nil
}
