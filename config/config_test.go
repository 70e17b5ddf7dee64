package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Emit.Target != "go" {
		t.Errorf("expected default target go, got %s", cfg.Emit.Target)
	}
	if cfg.Catalog.Dir != "rulesets" {
		t.Errorf("expected default catalog dir rulesets, got %s", cfg.Catalog.Dir)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected default debounce 250ms, got %s", cfg.Watch.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "missing catalog dir",
			modify:  func(c *Config) { c.Catalog.Dir = "" },
			wantErr: "catalog.dir: failed required",
		},
		{
			name:    "unknown target",
			modify:  func(c *Config) { c.Emit.Target = "rust" },
			wantErr: "emit.target: failed oneof=go java json",
		},
		{
			name:    "package is a keyword",
			modify:  func(c *Config) { c.Emit.Package = "func" },
			wantErr: "emit.package: failed goident",
		},
		{
			name:    "func name with dash",
			modify:  func(c *Config) { c.Emit.FuncName = "register-all" },
			wantErr: "emit.func_name: failed goident",
		},
		{
			name:    "java package segment starts with digit",
			modify:  func(c *Config) { c.Emit.JavaPackage = "org.1bad" },
			wantErr: "emit.java_package: failed javaident",
		},
		{
			name:    "java class is dotted",
			modify:  func(c *Config) { c.Emit.JavaClass = "a.B" },
			wantErr: "emit.java_class: failed excludes=.",
		},
		{
			name:    "too many workers",
			modify:  func(c *Config) { c.Catalog.Workers = 1000 },
			wantErr: "catalog.workers: failed lte=256",
		},
		{
			name:    "empty include pattern",
			modify:  func(c *Config) { c.Catalog.Include = []string{""} },
			wantErr: "catalog.include[0]: failed required",
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: "watch.debounce must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exorules.yaml")
	content := `catalog:
  dir: rules
  exclude: ["legacy_*.py"]
emit:
  target: java
  output: out/ExobiologyDataConstraints.java
watch:
  debounce: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rules"), cfg.Catalog.Dir)
	assert.Equal(t, []string{"legacy_*.py"}, cfg.Catalog.Exclude)
	assert.Equal(t, "java", cfg.Emit.Target)
	assert.Equal(t, filepath.Join(dir, "out", "ExobiologyDataConstraints.java"), cfg.Emit.Output)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Empty(t, cfg.Emit.Package, "unset fields stay zero so Merge keeps lower layers")
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("emit:\n  taget: go\n"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err, "unknown fields are rejected")
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Catalog: CatalogConfig{Workers: 4},
		Emit:    EmitConfig{Target: "json", Manifest: "manifest.json"},
	})

	assert.Equal(t, "rulesets", base.Catalog.Dir)
	assert.Equal(t, 4, base.Catalog.Workers)
	assert.Equal(t, "json", base.Emit.Target)
	assert.Equal(t, "manifest.json", base.Emit.Manifest)
	assert.Equal(t, "constraints", base.Emit.Package)

	base.Merge(nil)
	assert.Equal(t, "json", base.Emit.Target)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, DefaultConfig().SaveToFile(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "rulesets"), cfg.Catalog.Dir)
	assert.Equal(t, DefaultConfig().Emit, cfg.Emit)
}

func testLoader(home, cwd string) *Loader {
	l := NewLoader(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	l.homeDir = func() (string, error) { return home, nil }
	l.workDir = func() (string, error) { return cwd, nil }
	return l
}

func TestLoaderLayering(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	userPath := filepath.Join(home, UserConfigDir, UserConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0755))
	require.NoError(t, os.WriteFile(userPath, []byte("emit:\n  target: java\n  java_class: UserClass\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("emit:\n  target: json\n"), 0644))

	cfg, err := testLoader(home, nested).Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Emit.Target, "project overrides user")
	assert.Equal(t, "UserClass", cfg.Emit.JavaClass, "user overrides defaults")
}

func TestLoaderExplicitPath(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("catalog:\n  dir: bio\n"), 0644))

	cfg, err := testLoader(t.TempDir(), t.TempDir()).Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bio"), cfg.Catalog.Dir)

	_, err = testLoader(t.TempDir(), t.TempDir()).Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestLoaderRejectsInvalidResult(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("emit:\n  package: \"9lives\"\n"), 0644))

	_, err := testLoader(t.TempDir(), project).Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emit.package")
}

func TestWriteProjectConfig(t *testing.T) {
	dir := t.TempDir()
	l := testLoader(t.TempDir(), dir)

	path, created, err := l.WriteProjectConfig(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, path)

	_, created, err = l.WriteProjectConfig(dir)
	require.NoError(t, err)
	assert.False(t, created)
}
