package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/brief/internal/suggest"
)

// isolateEnv clears brief variables for the test and restores them after.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvStorage, EnvRedisAddr, EnvRedisPassword, EnvRedisDB, EnvDebounce, EnvLogLevel, EnvExportDir} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	briefDir := filepath.Join(projectDir, BriefDir)
	if err := os.MkdirAll(briefDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(briefDir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	isolateEnv(t)
	projectDir := t.TempDir()
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", cfg.Project.Version)
	}
	if cfg.Project.Storage.Backend != BackendFile {
		t.Fatalf("expected file backend, got %q", cfg.Project.Storage.Backend)
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Fatalf("expected 500ms debounce, got %s", cfg.Debounce())
	}
	if want := filepath.Join(projectDir, BriefDir, "state"); cfg.StateDir() != want {
		t.Fatalf("state dir = %s, want %s", cfg.StateDir(), want)
	}
	if want := filepath.Join(projectDir, BriefDir, "exports"); cfg.ExportDir() != want {
		t.Fatalf("export dir = %s, want %s", cfg.ExportDir(), want)
	}
}

func TestInitBriefDirWritesParsableDefaults(t *testing.T) {
	isolateEnv(t)
	projectDir := t.TempDir()
	if err := InitBriefDir(projectDir); err != nil {
		t.Fatalf("InitBriefDir: %v", err)
	}
	for _, dir := range []string{"state", "logs", "exports"} {
		if info, err := os.Stat(filepath.Join(projectDir, BriefDir, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, err=%v", dir, err)
		}
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("default config does not load: %v", err)
	}
	if cfg.Project.Export.Format != FormatXLSX {
		t.Fatalf("export format = %q", cfg.Project.Export.Format)
	}
	// a second init keeps the existing file
	writeConfig(t, projectDir, "version: 2")
	if err := InitBriefDir(projectDir); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(cfg.ProjectConfigPath())
	if string(data) != "version: 2" {
		t.Fatalf("config was overwritten: %q", data)
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	isolateEnv(t)
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
storage:
  backend: Redis
  redis:
    addr: cache:6379
    db: 2
    prefix: "test:"
autosave:
  debounce: 2s
export:
  dir: /tmp/briefs
  format: text
logging:
  level: debug
  format: json
suggestions:
  templates:
    kitchen:
      - name: Кофемашина
        category: Кухня
`)
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.Project.Storage.Backend != BackendRedis {
		t.Fatalf("backend = %q", cfg.Project.Storage.Backend)
	}
	if cfg.Project.Storage.Redis.DB != 2 || cfg.Project.Storage.Redis.Prefix != "test:" {
		t.Fatalf("unexpected redis config %+v", cfg.Project.Storage.Redis)
	}
	if cfg.Debounce() != 2*time.Second {
		t.Fatalf("debounce = %s", cfg.Debounce())
	}
	if cfg.ExportDir() != "/tmp/briefs" {
		t.Fatalf("absolute export dir not kept: %s", cfg.ExportDir())
	}
	templates := cfg.SuggestionTemplates()
	if got := templates[suggest.GroupKitchen]; len(got) != 1 || got[0].Name != "Кофемашина" {
		t.Fatalf("unexpected kitchen templates %+v", got)
	}
}

func TestNewConfigValidation(t *testing.T) {
	cases := map[string]string{
		"backend": "storage:\n  backend: s3",
		"format":  "export:\n  format: pdf",
		"level":   "logging:\n  level: loud",
		"group":   "suggestions:\n  templates:\n    garage:\n      - name: Верстак",
		"name":    "suggestions:\n  templates:\n    default:\n      - category: Мебель",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			isolateEnv(t)
			projectDir := t.TempDir()
			writeConfig(t, projectDir, body)
			if _, err := NewConfig(projectDir); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	isolateEnv(t)
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "logging:\n  level: info")
	t.Setenv(EnvStorage, "memory")
	t.Setenv(EnvDebounce, "50ms")
	t.Setenv(EnvRedisDB, "3")
	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("BRIEF_LOG_LEVEL=warn\nBRIEF_STORAGE=redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.Project.Logging.Level != "warn" {
		t.Fatalf("expected .env level, got %q", cfg.Project.Logging.Level)
	}
	if cfg.Project.Storage.Backend != BackendMemory {
		t.Fatalf("process env must win over .env, got %q", cfg.Project.Storage.Backend)
	}
	if cfg.Debounce() != 50*time.Millisecond || cfg.Project.Storage.Redis.DB != 3 {
		t.Fatalf("env overrides not applied: %+v", cfg.Project)
	}
}

func TestEnvironmentRejectsBadNumbers(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvDebounce, "soon")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected invalid duration error")
	}
	t.Setenv(EnvDebounce, "")
	t.Setenv(EnvRedisDB, "two")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected invalid integer error")
	}
}

func TestSaveRoundTrips(t *testing.T) {
	isolateEnv(t)
	projectDir := t.TempDir()
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Project.Export.Format = "JSON"
	cfg.Project.Autosave.Debounce = time.Second
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Project.Export.Format != FormatJSON || reloaded.Debounce() != time.Second {
		t.Fatalf("unexpected reloaded config %+v", reloaded.Project)
	}
	cfg.Project.Storage.Backend = "ftp"
	if err := cfg.Save(); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}
