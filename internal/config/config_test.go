package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.Size != 101 {
		t.Errorf("expected Size 101, got %d", config.Simulation.Size)
	}
	if config.Simulation.Generations != 200 {
		t.Errorf("expected Generations 200, got %d", config.Simulation.Generations)
	}
	if config.Simulation.Boundary != "circular" {
		t.Errorf("expected Boundary 'circular', got '%s'", config.Simulation.Boundary)
	}
	if config.Simulation.PeriodWindow != 20 {
		t.Errorf("expected PeriodWindow 20, got %d", config.Simulation.PeriodWindow)
	}
	if !config.Classifier.UseLiterature {
		t.Error("expected UseLiterature to be true by default")
	}
	if config.Classifier.Workers != 1 {
		t.Errorf("expected Workers 1, got %d", config.Classifier.Workers)
	}
	if !config.Store.Enabled || config.Store.Path != "" {
		t.Errorf("expected enabled store with default path, got %+v", config.Store)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  size: 61
  boundary: fixed

classifier:
  use_literature: false
  workers: 4

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.Size != 61 {
		t.Errorf("expected Size 61, got %d", config.Simulation.Size)
	}
	if config.Simulation.Boundary != "fixed" {
		t.Errorf("expected Boundary 'fixed', got '%s'", config.Simulation.Boundary)
	}
	if config.Simulation.Generations != 200 {
		t.Errorf("expected unset Generations to keep default 200, got %d", config.Simulation.Generations)
	}
	if config.Classifier.UseLiterature {
		t.Error("expected UseLiterature to be false")
	}
	if config.Classifier.Workers != 4 {
		t.Errorf("expected Workers 4, got %d", config.Classifier.Workers)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
store:
  path: ${ECALAB_TEST_DIR}/results.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("ECALAB_TEST_DIR", "/data")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Store.Path != "/data/results.db" {
		t.Errorf("expected Path '/data/results.db', got '%s'", config.Store.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ECALAB_SIZE", "33")
	t.Setenv("ECALAB_GENERATIONS", "70")
	t.Setenv("ECALAB_BOUNDARY", "fixed")
	t.Setenv("ECALAB_WORKERS", "8")
	t.Setenv("ECALAB_USE_LITERATURE", "false")
	t.Setenv("ECALAB_STORE_PATH", "/tmp/eca.db")
	t.Setenv("ECALAB_LOG_LEVEL", "trace")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Size != 33 || config.Simulation.Generations != 70 {
		t.Errorf("expected size 33 and generations 70, got %d and %d", config.Simulation.Size, config.Simulation.Generations)
	}
	if config.Simulation.Boundary != "fixed" {
		t.Errorf("expected Boundary 'fixed', got '%s'", config.Simulation.Boundary)
	}
	if config.Classifier.Workers != 8 {
		t.Errorf("expected Workers 8, got %d", config.Classifier.Workers)
	}
	if config.Classifier.UseLiterature {
		t.Error("expected UseLiterature to be false")
	}
	if config.Store.Path != "/tmp/eca.db" {
		t.Errorf("expected Path '/tmp/eca.db', got '%s'", config.Store.Path)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected Logging.Level 'trace', got '%s'", config.Logging.Level)
	}
}

func TestEnvOverrides_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ECALAB_SIZE", "lots")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Size != 101 {
		t.Errorf("expected Size to stay 101, got %d", config.Simulation.Size)
	}
}

func TestLoad_UsesHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	configPath := filepath.Join(home, ".ecalab", "config.yaml")
	cfg := Default()
	cfg.Simulation.Size = 77
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Simulation.Size != 77 {
		t.Errorf("expected Size 77 from ~/.ecalab/config.yaml, got %d", loaded.Simulation.Size)
	}
}

func TestLoadPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  size: 41\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("ECALAB_GENERATIONS", "12")

	config, err := LoadPath(configPath)
	if err != nil {
		t.Fatalf("LoadPath() error = %v", err)
	}
	if config.Simulation.Size != 41 {
		t.Errorf("Size = %d, want 41 from file", config.Simulation.Size)
	}
	if config.Simulation.Generations != 12 {
		t.Errorf("Generations = %d, want 12 from environment", config.Simulation.Generations)
	}

	if _, err := LoadPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadPath(missing) should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EcalabConfig)
		wantErr string
	}{
		{"defaults", func(*EcalabConfig) {}, ""},
		{"zero size", func(c *EcalabConfig) { c.Simulation.Size = 0 }, "simulation.size"},
		{"negative generations", func(c *EcalabConfig) { c.Simulation.Generations = -1 }, "simulation.generations"},
		{"bad boundary", func(c *EcalabConfig) { c.Simulation.Boundary = "reflective" }, "simulation.boundary"},
		{"zero period window", func(c *EcalabConfig) { c.Simulation.PeriodWindow = 0 }, "period_window"},
		{"zero workers", func(c *EcalabConfig) { c.Classifier.Workers = 0 }, "classifier.workers"},
		{"bad log level", func(c *EcalabConfig) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"empty log level", func(c *EcalabConfig) { c.Logging.Level = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	c := Default()

	for _, key := range Keys {
		if _, ok := c.Get(key); !ok {
			t.Errorf("Get(%q) not found", key)
		}
	}
	if _, ok := c.Get("llm.provider"); ok {
		t.Error("Get(llm.provider) should not be found")
	}

	if err := c.Set("simulation.size", "51"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := c.Get("simulation.size"); v != 51 {
		t.Errorf("simulation.size = %v, want 51", v)
	}

	if err := c.Set("classifier.use_literature", "0"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if c.Classifier.UseLiterature {
		t.Error("expected UseLiterature false after Set")
	}

	if err := c.Set("simulation.boundary", "twisted"); err == nil {
		t.Error("Set(simulation.boundary, twisted) should fail")
	}
	if c.Simulation.Boundary != "circular" {
		t.Errorf("failed Set changed Boundary to %q", c.Simulation.Boundary)
	}

	if err := c.Set("simulation.size", "big"); err == nil {
		t.Error("Set(simulation.size, big) should fail")
	}
	if err := c.Set("unknown.key", "1"); err == nil {
		t.Error("Set(unknown.key) should fail")
	}
}

func TestSave_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Simulation.Size != 101 || !loaded.Store.Enabled {
		t.Errorf("round trip = %+v", loaded)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("simulation: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
