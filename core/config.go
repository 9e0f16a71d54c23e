// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Application ApplicationConfiguration `toml:"application" yaml:"application" json:"application"`
	Backend     BackendConfiguration     `toml:"backend" yaml:"backend" json:"backend"`
	Time        TimeConfiguration        `toml:"time" yaml:"time" json:"time"`
	Window      WindowConfiguration      `toml:"window" yaml:"window" json:"window"`
}

// ApplicationConfiguration is what the application reports to the driver
type ApplicationConfiguration struct {
	Name          string `toml:"name" yaml:"name" json:"name"`
	Version       string `toml:"version" yaml:"version" json:"version"`
	EngineName    string `toml:"engine_name" yaml:"engine_name" json:"engine_name"`
	EngineVersion string `toml:"engine_version" yaml:"engine_version" json:"engine_version"`

	// Anonymous sends no application info at all
	Anonymous bool `toml:"anonymous" yaml:"anonymous" json:"anonymous"`
}

// BackendConfiguration is used to configure the backend bootstrap
type BackendConfiguration struct {
	// MaxDevices caps the number of physical devices accepted
	// during enumeration. To unlimit, set to 0
	MaxDevices int `toml:"max_devices" yaml:"max_devices" json:"max_devices"`

	// DebugMode enables the validation layer and debug report extension
	DebugMode bool `toml:"debug" yaml:"debug" json:"debug"`

	Layers     []string `toml:"layers" yaml:"layers" json:"layers"`
	Extensions []string `toml:"extensions" yaml:"extensions" json:"extensions"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"fps" yaml:"fps" json:"fps"`
}

// WindowConfiguration is used to configure the output window
type WindowConfiguration struct {
	Title  string `toml:"title" yaml:"title" json:"title"`
	Width  int    `toml:"width" yaml:"width" json:"width"`
	Height int    `toml:"height" yaml:"height" json:"height"`
}

// DefaultConfiguration returns the configuration used when nothing is set
func DefaultConfiguration() Configuration {
	return Configuration{
		Application: ApplicationConfiguration{
			Name:          "Koru3D",
			Version:       "1.0.0",
			EngineName:    "Koru3D",
			EngineVersion: "1.0.0",
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
		Window: WindowConfiguration{
			Title:  "Koru3D",
			Width:  800,
			Height: 600,
		},
	}
}

// ApplicationInfo converts the application section, nil when anonymous
func (c ApplicationConfiguration) ApplicationInfo() (*ApplicationInfo, error) {
	if c.Anonymous {
		return nil, nil
	}
	appVersion, err := ParseVersion(c.Version)
	if err != nil {
		return nil, fmt.Errorf("application version: %s", err)
	}
	engineVersion, err := ParseVersion(c.EngineVersion)
	if err != nil {
		return nil, fmt.Errorf("engine version: %s", err)
	}
	return &ApplicationInfo{
		ApplicationName:    c.Name,
		ApplicationVersion: appVersion,
		EngineName:         c.EngineName,
		EngineVersion:      engineVersion,
	}, nil
}

// ParseVersion parses "major[.minor[.patch]]" into a packed version.
// An empty string is version 0.
func ParseVersion(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return 0, fmt.Errorf("malformed version %q", s)
	}
	var nums [3]uint32
	limits := [3]uint64{0x3ff, 0x3ff, 0xfff}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n > limits[i] {
			return 0, fmt.Errorf("malformed version %q", s)
		}
		nums[i] = uint32(n)
	}
	return MakeVersion(nums[0], nums[1], nums[2]), nil
}

// LoadConfiguration reads a configuration file on top of the defaults,
// choosing the format by extension (.toml, .yaml/.yml, .json), and then
// applies environment overrides. An empty path skips the file.
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".toml":
			if _, err := toml.Decode(string(b), &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %s", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %s", path, err)
			}
		case ".json":
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %s", path, err)
			}
		default:
			return cfg, fmt.Errorf("unsupported configuration extension: %s", ext)
		}
	}
	if err := applyEnvironment(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment, so they take part in LoadConfiguration overrides.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// Environment variables overriding configuration values.
const (
	EnvApplicationName = "KORU_APP_NAME"
	EnvMaxDevices      = "KORU_MAX_DEVICES"
	EnvDebug           = "KORU_DEBUG"
	EnvFramesPerSecond = "KORU_FPS"
	EnvWindowWidth     = "KORU_WINDOW_WIDTH"
	EnvWindowHeight    = "KORU_WINDOW_HEIGHT"
)

func applyEnvironment(cfg *Configuration) error {
	envy.Reload()
	cfg.Application.Name = envy.Get(EnvApplicationName, cfg.Application.Name)

	ints := []struct {
		key string
		dst *int
	}{
		{EnvMaxDevices, &cfg.Backend.MaxDevices},
		{EnvFramesPerSecond, &cfg.Time.FramesPerSecond},
		{EnvWindowWidth, &cfg.Window.Width},
		{EnvWindowHeight, &cfg.Window.Height},
	}
	for _, e := range ints {
		v := envy.Get(e.key, "")
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %s", e.key, err)
		}
		*e.dst = n
	}

	if v := envy.Get(EnvDebug, ""); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %s", EnvDebug, err)
		}
		cfg.Backend.DebugMode = debug
	}
	return nil
}
