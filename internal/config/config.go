// internal/config/config.go
//
// This package handles configuration and the .brief directory structure.
// Every project that runs brief gets a .brief/ folder created in its root.
// Settings come from .brief/config.yaml, then a project .env file, then the
// process environment, later sources winning.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/brief/internal/suggest"
)

const (
	// BriefDir is the name of the directory we create in each project
	BriefDir = ".brief"

	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	FormatXLSX = "xlsx"
	FormatText = "text"
	FormatJSON = "json"

	defaultDebounce = 500 * time.Millisecond
)

// Environment overrides.
const (
	EnvStorage       = "BRIEF_STORAGE"
	EnvRedisAddr     = "BRIEF_REDIS_ADDR"
	EnvRedisPassword = "BRIEF_REDIS_PASSWORD"
	EnvRedisDB       = "BRIEF_REDIS_DB"
	EnvDebounce      = "BRIEF_DEBOUNCE"
	EnvLogLevel      = "BRIEF_LOG_LEVEL"
	EnvExportDir     = "BRIEF_EXPORT_DIR"
)

const defaultProjectConfigYAML = `# brief project configuration
version: 1

# Where stage answers are kept between sessions.
# backend: file keeps one JSON file per stage under dir (default .brief/state).
# backend: redis keeps them in a Redis database.
storage:
  backend: file
  # redis:
  #   addr: localhost:6379
  #   db: 0
  #   prefix: "brief:"

# Unsubmitted edits are saved after this quiet period.
autosave:
  debounce: 500ms

export:
  dir: exports
  format: xlsx

logging:
  level: info
  format: console

# Replace the built-in equipment suggestions per group
# (kitchen, bathroom, living, bedroom, default).
# suggestions:
#   templates:
#     default:
#       - name: Шкаф
#         category: Мебель
`

// RedisConfig locates the Redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Dir     string      `yaml:"dir,omitempty"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

// AutosaveConfig tunes draft autosave.
type AutosaveConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// ExportConfig controls document export.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// LoggingConfig controls the diagnostic log.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Template is one configured equipment suggestion.
type Template struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category,omitempty"`
}

// SuggestionsConfig overrides suggestion templates per group.
type SuggestionsConfig struct {
	Templates map[string][]Template `yaml:"templates,omitempty"`
}

// ProjectConfig models .brief/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Storage     StorageConfig     `yaml:"storage"`
	Autosave    AutosaveConfig    `yaml:"autosave"`
	Export      ExportConfig      `yaml:"export"`
	Logging     LoggingConfig     `yaml:"logging"`
	Suggestions SuggestionsConfig `yaml:"suggestions,omitempty"`
}

// Config holds the runtime configuration for brief.
type Config struct {
	// ProjectDir is the directory where the user ran brief from
	ProjectDir string

	// BriefProjectDir is ProjectDir/.brief
	BriefProjectDir string

	Project ProjectConfig
}

// InitBriefDir creates the .brief directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .brief/
// ├── state/    <- Stage snapshots and drafts (file backend)
// ├── logs/     <- Diagnostic log and journey logbook
// └── exports/  <- Exported documents
func InitBriefDir(projectDir string) error {
	briefDir := filepath.Join(projectDir, BriefDir)
	dirs := []string{
		filepath.Join(briefDir, "state"),
		filepath.Join(briefDir, "logs"),
		filepath.Join(briefDir, "exports"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(briefDir, "config.yaml"))
}

// NewConfig loads project settings, applying .env and environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		BriefProjectDir: filepath.Join(projectDir, BriefDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := loadDotEnv(filepath.Join(projectDir, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.Project.applyEnv(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv sets variables from path without overriding the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.BriefProjectDir, "logs")
}

// LogPath returns the diagnostic log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "brief.log")
}

// JournalPath returns the logbook file shown in the UI.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// StateDir returns the directory of the file storage backend.
func (c *Config) StateDir() string {
	return resolvePath(c.BriefProjectDir, c.Project.Storage.Dir)
}

// ExportDir returns the directory exports are written to.
func (c *Config) ExportDir() string {
	return resolvePath(c.BriefProjectDir, c.Project.Export.Dir)
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.BriefProjectDir, "config.yaml")
}

// Debounce returns the autosave delay.
func (c *Config) Debounce() time.Duration {
	return c.Project.Autosave.Debounce
}

// SuggestionTemplates converts configured overrides for the suggestion index.
func (c *Config) SuggestionTemplates() map[suggest.Group][]suggest.Template {
	out := map[suggest.Group][]suggest.Template{}
	for raw, entries := range c.Project.Suggestions.Templates {
		group, ok := suggest.ParseGroup(raw)
		if !ok {
			continue
		}
		templates := make([]suggest.Template, 0, len(entries))
		for _, entry := range entries {
			templates = append(templates, suggest.Template{Name: entry.Name, Category: entry.Category})
		}
		out[group] = templates
	}
	return out
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{Version: 1}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Storage.Backend == "" {
		pc.Storage.Backend = BackendFile
	}
	if pc.Storage.Dir == "" {
		pc.Storage.Dir = "state"
	}
	if pc.Storage.Redis.Addr == "" {
		pc.Storage.Redis.Addr = "localhost:6379"
	}
	if pc.Storage.Redis.Prefix == "" {
		pc.Storage.Redis.Prefix = "brief:"
	}
	if pc.Autosave.Debounce == 0 {
		pc.Autosave.Debounce = defaultDebounce
	}
	if pc.Export.Dir == "" {
		pc.Export.Dir = "exports"
	}
	if pc.Export.Format == "" {
		pc.Export.Format = FormatXLSX
	}
	if pc.Logging.Level == "" {
		pc.Logging.Level = "info"
	}
	if pc.Logging.Format == "" {
		pc.Logging.Format = "console"
	}
}

func (pc *ProjectConfig) applyEnv() error {
	pc.Storage.Backend = getEnv(EnvStorage, pc.Storage.Backend)
	pc.Storage.Redis.Addr = getEnv(EnvRedisAddr, pc.Storage.Redis.Addr)
	pc.Storage.Redis.Password = getEnv(EnvRedisPassword, pc.Storage.Redis.Password)
	db, err := getEnvAsInt(EnvRedisDB, pc.Storage.Redis.DB)
	if err != nil {
		return err
	}
	pc.Storage.Redis.DB = db
	debounce, err := getEnvAsDuration(EnvDebounce, pc.Autosave.Debounce)
	if err != nil {
		return err
	}
	pc.Autosave.Debounce = debounce
	pc.Logging.Level = getEnv(EnvLogLevel, pc.Logging.Level)
	pc.Export.Dir = getEnv(EnvExportDir, pc.Export.Dir)
	return nil
}

func (pc *ProjectConfig) normalize() {
	pc.Storage.Backend = normalizeName(pc.Storage.Backend)
	pc.Storage.Dir = strings.TrimSpace(pc.Storage.Dir)
	pc.Storage.Redis.Addr = strings.TrimSpace(pc.Storage.Redis.Addr)
	pc.Export.Dir = strings.TrimSpace(pc.Export.Dir)
	pc.Export.Format = normalizeName(pc.Export.Format)
	pc.Logging.Level = normalizeName(pc.Logging.Level)
	pc.Logging.Format = normalizeName(pc.Logging.Format)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Storage.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if pc.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
		if pc.Storage.Redis.DB < 0 {
			return fmt.Errorf("storage.redis.db must be >= 0")
		}
	default:
		return fmt.Errorf("storage.backend must be 'file', 'redis' or 'memory'")
	}
	if pc.Autosave.Debounce < 0 {
		return fmt.Errorf("autosave.debounce must not be negative")
	}
	switch pc.Export.Format {
	case FormatXLSX, FormatText, FormatJSON:
	default:
		return fmt.Errorf("export.format must be 'xlsx', 'text' or 'json'")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	switch pc.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be 'console' or 'json'")
	}
	for group, entries := range pc.Suggestions.Templates {
		if _, ok := suggest.ParseGroup(group); !ok {
			return fmt.Errorf("suggestions.templates[%s]: group must be one of %s", group, strings.Join(suggest.GroupNames(), ", "))
		}
		for i, entry := range entries {
			if strings.TrimSpace(entry.Name) == "" {
				return fmt.Errorf("suggestions.templates[%s][%d]: name is required", group, i)
			}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return value, nil
}

func normalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return base
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

// Save writes the current project settings back to .brief/config.yaml.
func (c *Config) Save() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.BriefProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure brief dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
