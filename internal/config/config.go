package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSourceDir     = "fitness data"
	DefaultOutputPath    = "populate_data.sql"
	DefaultPlaceholderID = "REPLACE_WITH_NEW_USER_UUID"
	DefaultSchema        = "public"
)

var schemaPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents the application configuration
type Config struct {
	SourceDir     string `yaml:"source_dir"`
	OutputPath    string `yaml:"output_path"`
	SourceUserID  string `yaml:"source_user_id"`
	PlaceholderID string `yaml:"placeholder_id"`
	Schema        string `yaml:"schema"`
	Strict        bool   `yaml:"strict"`
	LogLevel      string `yaml:"log_level"`
	Output        string `yaml:"output"`
	Porcelain     bool   `yaml:"porcelain"`
}

// Default returns a Config populated with built-in defaults
func Default() *Config {
	return &Config{
		SourceDir:     DefaultSourceDir,
		OutputPath:    DefaultOutputPath,
		PlaceholderID: DefaultPlaceholderID,
		Schema:        DefaultSchema,
		LogLevel:      "info",
		Output:        "table",
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. explicitPath (YAML), when non-empty
// 4. ~/.config/fitmigrate/config.yaml (YAML)
// Command-line flags are applied on top by the caller.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	// Load ~/.config/fitmigrate/config.yaml if it exists; it is optional
	if path := userConfigPath(); path != "" {
		if err := loadYAMLFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if explicitPath != "" {
		if err := loadYAMLFile(explicitPath, cfg); err != nil {
			return nil, err
		}
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if sourceDir := os.Getenv("FITMIGRATE_SOURCE_DIR"); sourceDir != "" {
		cfg.SourceDir = sourceDir
	}
	if output := os.Getenv("FITMIGRATE_OUTPUT"); output != "" {
		cfg.OutputPath = output
	}
	if userID := getEnvOrFile("FITMIGRATE_SOURCE_USER_ID", "FITMIGRATE_SOURCE_USER_ID_FILE"); userID != "" {
		cfg.SourceUserID = userID
	}
	if placeholder := os.Getenv("FITMIGRATE_PLACEHOLDER_ID"); placeholder != "" {
		cfg.PlaceholderID = placeholder
	}
	if schema := os.Getenv("FITMIGRATE_SCHEMA"); schema != "" {
		cfg.Schema = schema
	}
	if strict := os.Getenv("FITMIGRATE_STRICT"); strict != "" {
		v, err := strconv.ParseBool(strict)
		if err != nil {
			return fmt.Errorf("invalid FITMIGRATE_STRICT %q: %w", strict, err)
		}
		cfg.Strict = v
	}
	if logLevel := os.Getenv("FITMIGRATE_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if format := os.Getenv("FITMIGRATE_FORMAT"); format != "" {
		cfg.Output = format
	}
	if porcelain := os.Getenv("FITMIGRATE_PORCELAIN"); porcelain != "" {
		v, err := strconv.ParseBool(porcelain)
		if err != nil {
			return fmt.Errorf("invalid FITMIGRATE_PORCELAIN %q: %w", porcelain, err)
		}
		cfg.Porcelain = v
	}
	return nil
}

// Validate checks the settings every command relies on
func (c *Config) Validate() error {
	if c.PlaceholderID == "" {
		return fmt.Errorf("placeholder id must not be empty")
	}
	if !schemaPattern.MatchString(c.Schema) {
		return fmt.Errorf("invalid schema name %q", c.Schema)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Output {
	case "table", "json", "yaml", "tsv":
	default:
		return fmt.Errorf("invalid output format %q (want table, json, yaml or tsv)", c.Output)
	}
	return nil
}

// RequireSourceUser checks that rows can be selected for export
func (c *Config) RequireSourceUser() error {
	if strings.TrimSpace(c.SourceUserID) == "" {
		return fmt.Errorf("source user id is required (set FITMIGRATE_SOURCE_USER_ID or use --source-user)")
	}
	return nil
}

// Level parses the configured log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// SourcePath joins a table export file name onto the source directory
func (c *Config) SourcePath(file string) string {
	return filepath.Join(c.SourceDir, file)
}

func userConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "fitmigrate", "config.yaml")
}

// loadYAMLFile overlays the YAML document at path onto cfg
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
