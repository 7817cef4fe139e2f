// Package config loads and saves the TOML configuration that shapes
// a single run of the engine: the instruction budget, the default
// memory layout, assembler import resolution, and debugger defaults.
// Grounded on a DefaultConfig/Load/Save
// shape, same toml library), generalized from ARM's trace/statistics
// sections to KIP's execution/memory/assembler/debugger sections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the full set of options a kip invocation can load from a
// config.toml, or override with command-line flags.
type Config struct {
	// Execution settings
	Execution struct {
		MaxInstructions uint64 `toml:"max_instructions"`
		DefaultEntry    string `toml:"default_entry"`
		Verbosity       uint8  `toml:"verbosity"`
	} `toml:"execution"`

	// Memory settings: the single block the loader maps for every
	// program, and the base folder for imports and host file I/O.
	Memory struct {
		Size       uint32 `toml:"size"`
		StackTop   uint32 `toml:"stack_top"`
		ImportRoot string `toml:"import_root"`
	} `toml:"memory"`

	// Assembler settings
	Assembler struct {
		StrictLabels bool `toml:"strict_labels"` // not read by the assembler; duplicate label definitions are not rejected
		WarnUnused   bool `toml:"warn_unused_labels"`
	} `toml:"assembler"`

	// Debugger settings
	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
		ShowSource     bool `toml:"show_source"`
	} `toml:"debugger"`
}

// DefaultConfig returns a Config populated with the values a plain
// `kip run program.kip` should use with no config file present.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxInstructions = 10_000_000
	cfg.Execution.DefaultEntry = "START"
	cfg.Execution.Verbosity = 1

	cfg.Memory.Size = 1 << 20 // 1MiB
	cfg.Memory.StackTop = 1 << 20
	cfg.Memory.ImportRoot = "."

	cfg.Assembler.StrictLabels = true
	cfg.Assembler.WarnUnused = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.ShowSource = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "kip")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "kip")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific directory for saved result
// logs and session artifacts.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "kip", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "kip", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults
// for any file that doesn't exist yet.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
