// Package config loads the YAML configuration of the shadervariants command.
//
// A configuration file looks like:
//
//	output: out
//	targets: [glsl, metal]
//	write_spirv: true
//	reserve: [SHADOWS]
//	global_keywords: [SHADOWS]
//	axes:
//	  - [LOW, HIGH]
//	spirv:
//	  version: "1.3"
//	  validate: true
//	log:
//	  level: info
//	  format: console
//
// Command-line flags override file values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gogpu/naga"
	nspirv "github.com/gogpu/naga/spirv"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/variant"
)

// Config is the command configuration.
type Config struct {
	Output         string     `yaml:"output,omitempty"`
	Preamble       string     `yaml:"preamble,omitempty"`
	PreambleFile   string     `yaml:"preamble_file,omitempty"`
	Targets        []string   `yaml:"targets,omitempty"`
	Passes         []string   `yaml:"passes,omitempty"`
	Reserve        []string   `yaml:"reserve,omitempty"`
	GlobalKeywords []string   `yaml:"global_keywords,omitempty"`
	Axes           [][]string `yaml:"axes,omitempty"`
	Log            Log        `yaml:"log"`
	SPIRV          SPIRV      `yaml:"spirv"`
	WriteSpirv     bool       `yaml:"write_spirv"`
	KeepPrograms   bool       `yaml:"keep_programs"`
	Compare        bool       `yaml:"compare"`
}

// SPIRV configures code generation.
type SPIRV struct {
	Version  string `yaml:"version"`
	Debug    bool   `yaml:"debug"`
	Validate bool   `yaml:"validate"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var spirvVersions = map[string]nspirv.Version{
	"1.0": nspirv.Version1_0,
	"1.3": nspirv.Version1_3,
	"1.4": nspirv.Version1_4,
	"1.5": nspirv.Version1_5,
	"1.6": nspirv.Version1_6,
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SPIRV: SPIRV{Version: "1.3", Validate: true},
		Log:   Log{Level: "info", Format: "console"},
	}
}

// Load reads and validates the file at path. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseConfig, path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, path)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that has a closed set of values.
func (c *Config) Validate() error {
	if _, err := c.Languages(); err != nil {
		return err
	}
	if _, ok := spirvVersions[c.SPIRV.Version]; !ok {
		return invalid("spirv.version", c.SPIRV.Version, "unsupported SPIR-V version")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", c.Log.Level, "unknown log level")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return invalid("log.format", c.Log.Format, "unknown log format")
	}
	for i, axis := range c.Axes {
		if len(axis) == 0 {
			return invalid("axes."+strconv.Itoa(i), "", "axis has no keywords")
		}
	}
	if c.Preamble != "" && c.PreambleFile != "" {
		return invalid("preamble_file", c.PreambleFile, "preamble and preamble_file are exclusive")
	}
	return nil
}

func invalid(path, value, detail string) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(path).
		Subject(value).
		Detail("%s", detail).
		Build()
}

// Languages parses Targets.
func (c *Config) Languages() ([]backend.Language, error) {
	out := make([]backend.Language, 0, len(c.Targets))
	for _, t := range c.Targets {
		l, err := backend.ParseLanguage(t)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// VariantAxes returns Axes as enumerator axes.
func (c *Config) VariantAxes() []variant.Axis {
	out := make([]variant.Axis, len(c.Axes))
	for i, a := range c.Axes {
		out[i] = variant.Axis(a)
	}
	return out
}

// CompileOptions returns the naga options for the SPIR-V section.
func (c *Config) CompileOptions() (naga.CompileOptions, error) {
	v, ok := spirvVersions[c.SPIRV.Version]
	if !ok {
		return naga.CompileOptions{}, invalid("spirv.version", c.SPIRV.Version, "unsupported SPIR-V version")
	}
	return naga.CompileOptions{SPIRVVersion: v, Debug: c.SPIRV.Debug, Validate: c.SPIRV.Validate}, nil
}

// LoadPreamble returns Preamble, or the contents of PreambleFile.
func (c *Config) LoadPreamble() (string, error) {
	if c.PreambleFile == "" {
		return c.Preamble, nil
	}
	data, err := os.ReadFile(c.PreambleFile)
	if err != nil {
		return "", errors.NotFound(errors.PhaseConfig, c.PreambleFile, err)
	}
	return string(data), nil
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(out)
}
