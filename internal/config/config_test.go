package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a fresh directory and clears FITMIGRATE_* so the
// developer's own configuration never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"FITMIGRATE_SOURCE_DIR", "FITMIGRATE_OUTPUT", "FITMIGRATE_SOURCE_USER_ID",
		"FITMIGRATE_SOURCE_USER_ID_FILE", "FITMIGRATE_PLACEHOLDER_ID", "FITMIGRATE_SCHEMA",
		"FITMIGRATE_STRICT", "FITMIGRATE_LOG_LEVEL", "FITMIGRATE_FORMAT",
		"FITMIGRATE_PORCELAIN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceDir, cfg.SourceDir)
	assert.Equal(t, DefaultOutputPath, cfg.OutputPath)
	assert.Equal(t, DefaultPlaceholderID, cfg.PlaceholderID)
	assert.Equal(t, DefaultSchema, cfg.Schema)
	assert.Equal(t, "", cfg.SourceUserID)
	assert.False(t, cfg.Strict)
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)

	writeFile(t, filepath.Join(home, ".config", "fitmigrate", "config.yaml"), `
source_dir: /from/user-config
output_path: /from/user-config.sql
source_user_id: user-config-id
`)
	explicit := filepath.Join(home, "project.yaml")
	writeFile(t, explicit, `
output_path: /from/explicit.sql
strict: true
`)
	t.Setenv("FITMIGRATE_SOURCE_USER_ID", "env-id")

	cfg, err := Load(explicit)
	require.NoError(t, err)

	assert.Equal(t, "/from/user-config", cfg.SourceDir, "user config applies when nothing overrides it")
	assert.Equal(t, "/from/explicit.sql", cfg.OutputPath, "explicit file overrides user config")
	assert.True(t, cfg.Strict)
	assert.Equal(t, "env-id", cfg.SourceUserID, "environment overrides files")
}

func TestLoad_PorcelainFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("FITMIGRATE_PORCELAIN", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Porcelain)
}

func TestLoad_EnvLocal(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".env.local"), "FITMIGRATE_PLACEHOLDER_ID=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("FITMIGRATE_PLACEHOLDER_ID") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.PlaceholderID)
}

func TestLoad_SourceUserIDFromFile(t *testing.T) {
	home := isolate(t)
	secret := filepath.Join(home, "uid")
	writeFile(t, secret, "0a17aa0e-65a0-41ad-a0af-b7ce6ba83fc4\n")
	t.Setenv("FITMIGRATE_SOURCE_USER_ID_FILE", secret)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0a17aa0e-65a0-41ad-a0af-b7ce6ba83fc4", cfg.SourceUserID)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		home := isolate(t)
		_, err := Load(filepath.Join(home, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, "bad.yaml")
		writeFile(t, path, "source_dir: [unterminated\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})

	t.Run("bad porcelain value", func(t *testing.T) {
		isolate(t)
		t.Setenv("FITMIGRATE_PORCELAIN", "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, "FITMIGRATE_PORCELAIN")
	})

	t.Run("bad strict value", func(t *testing.T) {
		isolate(t)
		t.Setenv("FITMIGRATE_STRICT", "sometimes")
		_, err := Load("")
		assert.ErrorContains(t, err, "FITMIGRATE_STRICT")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.SourceUserID = "u1"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing source user is allowed", mutate: func(c *Config) { c.SourceUserID = "" }},
		{name: "empty placeholder", mutate: func(c *Config) { c.PlaceholderID = "" }, wantErr: "placeholder"},
		{name: "schema with dot", mutate: func(c *Config) { c.Schema = "public.x" }, wantErr: "invalid schema"},
		{name: "schema with quote", mutate: func(c *Config) { c.Schema = "pub'lic" }, wantErr: "invalid schema"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Output = "xml" }, wantErr: "invalid output format"},
		{name: "yaml format", mutate: func(c *Config) { c.Output = "yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRequireSourceUser(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.RequireSourceUser(), "source user id is required")

	cfg.SourceUserID = "   "
	assert.Error(t, cfg.RequireSourceUser())

	cfg.SourceUserID = "u1"
	assert.NoError(t, cfg.RequireSourceUser())
}

func TestLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "DEBUG"
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestFindEnvLocal(t *testing.T) {
	tests := []struct {
		name    string
		envDirs []string // relative to the temp root
		cwd     string
		want    string // relative to the temp root, empty for not found
	}{
		{name: "in current dir", envDirs: []string{"."}, cwd: ".", want: "."},
		{name: "in parent dir", envDirs: []string{"."}, cwd: "child", want: "."},
		{name: "in grandparent dir", envDirs: []string{"."}, cwd: "parent/child", want: "."},
		{name: "closest wins", envDirs: []string{".", "parent"}, cwd: "parent/child", want: "parent"},
		{name: "not found", cwd: "child"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := isolate(t)
			for _, dir := range tt.envDirs {
				writeFile(t, filepath.Join(root, dir, ".env.local"), "TEST=value")
			}
			cwd := filepath.Join(root, tt.cwd)
			require.NoError(t, os.MkdirAll(cwd, 0755))
			t.Chdir(cwd)

			result := findEnvLocal()
			if tt.want == "" {
				assert.Empty(t, result)
				return
			}

			// Resolve symlinks for comparison (macOS /var -> /private/var)
			expected, _ := filepath.EvalSymlinks(filepath.Join(root, tt.want, ".env.local"))
			got, _ := filepath.EvalSymlinks(result)
			assert.Equal(t, expected, got)
		})
	}
}
