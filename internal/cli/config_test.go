package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inRepo creates a temp directory with a .git marker and changes into it.
func inRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	t.Chdir(root)
	return root
}

func sameFile(t *testing.T, want, got string) {
	t.Helper()
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expected, _ := filepath.EvalSymlinks(want)
	actual, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, expected, actual)
}

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("schema: test.yaml"), 0o644))

	path, err := findConfigFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, tmpFile, path)
}

func TestFindConfigFile_ExplicitPathNotFound(t *testing.T) {
	_, err := findConfigFile("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestFindConfigFile_AutoDiscovery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	configPath := filepath.Join(root, "openhelper.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("schema: test.yaml"), 0o644))

	nested := filepath.Join(root, "deep", "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	path, err := findConfigFile("")
	require.NoError(t, err)
	sameFile(t, configPath, path)
}

func TestFindConfigFile_PrefersYamlOverYml(t *testing.T) {
	root := inRepo(t)

	yamlPath := filepath.Join(root, "openhelper.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("schema: yaml.yaml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "openhelper.yml"), []byte("schema: yml.yaml"), 0o644))

	path, err := findConfigFile("")
	require.NoError(t, err)
	sameFile(t, yamlPath, path)
}

func TestFindConfigFile_StopsAtGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "openhelper.yaml"), []byte("schema: above.yaml"), 0o644))

	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".git"), 0o755))
	t.Chdir(project)

	path, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	inRepo(t)

	cfg, configPath, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, configPath)

	assert.Equal(t, "schema/openhelper.yaml", cfg.Schema)
	assert.Empty(t, cfg.Database.Path)
	assert.Equal(t, ".", cfg.Generate.Output)
	assert.Equal(t, "db", cfg.Generate.Package)
	assert.Equal(t, 1000, cfg.Generate.ChunkSize)
	assert.False(t, cfg.Doctor.Verbose)
}

func TestLoadConfig_FromFile(t *testing.T) {
	root := inRepo(t)

	configPath := filepath.Join(root, "openhelper.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
schema: schema/notes.yaml
database:
  path: data/notes.db
generate:
  output: internal/store
  package: store
  chunk_size: 250
doctor:
  verbose: true
`), 0o644))

	cfg, foundPath, err := LoadConfig("")
	require.NoError(t, err)
	sameFile(t, configPath, foundPath)

	assert.Equal(t, "schema/notes.yaml", cfg.Schema)
	assert.Equal(t, "data/notes.db", cfg.Database.Path)
	assert.Equal(t, "internal/store", cfg.Generate.Output)
	assert.Equal(t, "store", cfg.Generate.Package)
	assert.Equal(t, 250, cfg.Generate.ChunkSize)
	assert.True(t, cfg.Doctor.Verbose)

	// Defaults still apply for unset values
	assert.Empty(t, cfg.Generate.File)
	assert.Empty(t, cfg.Generate.RuntimeImport)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	root := inRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "openhelper.yaml"), []byte("schema: file.yaml"), 0o644))

	t.Setenv("OPENHELPER_SCHEMA", "env.yaml")

	cfg, _, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", cfg.Schema)
}

func TestLoadConfig_NestedEnvVars(t *testing.T) {
	inRepo(t)

	t.Setenv("OPENHELPER_DATABASE_PATH", "/tmp/app.db")
	t.Setenv("OPENHELPER_GENERATE_PACKAGE", "persistence")
	t.Setenv("OPENHELPER_GENERATE_CHUNK_SIZE", "64")

	cfg, _, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/app.db", cfg.Database.Path)
	assert.Equal(t, "persistence", cfg.Generate.Package)
	assert.Equal(t, 64, cfg.Generate.ChunkSize)
}

func TestLoadConfig_InvalidChunkSize(t *testing.T) {
	inRepo(t)
	t.Setenv("OPENHELPER_GENERATE_CHUNK_SIZE", "0")

	_, _, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate.chunk_size must be >= 1")
}

func TestConfig_OutputFile(t *testing.T) {
	cfg := &Config{Generate: GenerateConfig{Package: "store"}}
	assert.Equal(t, "store_gen.go", cfg.OutputFile())

	cfg.Generate.File = "lifecycle.go"
	assert.Equal(t, "lifecycle.go", cfg.OutputFile())
}

func TestConfig_DatabasePath(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.DatabasePath()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path is required")

	cfg.Database.Path = "app.db"
	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "app.db", path)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitGeneral},
		{"config", ConfigError("loading config", errors.New("bad")), ExitConfig},
		{"schema parse", SchemaParseError("parsing schema", nil), ExitSchemaParse},
		{"db connect wrapped", fmt.Errorf("status: %w", DBConnectError("opening database", nil)), ExitDBConnect},
		{"general", GeneralError("writing", nil), ExitGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	inner := errors.New("no such file")
	err := SchemaParseError("parsing schema", inner)
	assert.Equal(t, "parsing schema: no such file", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "parsing schema", SchemaParseError("parsing schema", nil).Error())
}
