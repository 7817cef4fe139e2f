package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execution.MaxInstructions != 10_000_000 {
		t.Errorf("Expected MaxInstructions=10000000, got %d", cfg.Execution.MaxInstructions)
	}
	if cfg.Execution.DefaultEntry != "START" {
		t.Errorf("Expected DefaultEntry=START, got %s", cfg.Execution.DefaultEntry)
	}

	if cfg.Debugger.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Debugger.HistorySize)
	}
	if !cfg.Debugger.ShowSource {
		t.Error("Expected ShowSource=true")
	}

	if cfg.Memory.Size != 1<<20 {
		t.Errorf("Expected Memory.Size=1MiB, got %d", cfg.Memory.Size)
	}

	if !cfg.Assembler.StrictLabels {
		t.Error("Expected StrictLabels=true")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}

	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "kip" && path != "config.toml" {
			t.Errorf("Expected path in kip directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.MaxInstructions = 5_000_000
	cfg.Execution.Verbosity = 3
	cfg.Debugger.HistorySize = 500
	cfg.Memory.Size = 4096
	cfg.Memory.ImportRoot = "/srv/programs"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Execution.MaxInstructions != 5_000_000 {
		t.Errorf("Expected MaxInstructions=5000000, got %d", loaded.Execution.MaxInstructions)
	}
	if loaded.Execution.Verbosity != 3 {
		t.Errorf("Expected Verbosity=3, got %d", loaded.Execution.Verbosity)
	}
	if loaded.Debugger.HistorySize != 500 {
		t.Errorf("Expected HistorySize=500, got %d", loaded.Debugger.HistorySize)
	}
	if loaded.Memory.Size != 4096 {
		t.Errorf("Expected Memory.Size=4096, got %d", loaded.Memory.Size)
	}
	if loaded.Memory.ImportRoot != "/srv/programs" {
		t.Errorf("Expected ImportRoot=/srv/programs, got %s", loaded.Memory.ImportRoot)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Execution.MaxInstructions != 10_000_000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[execution]
max_instructions = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
