package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Config represents the openhelper configuration from openhelper.yaml.
type Config struct {
	// Schema is the path of the schema YAML file.
	Schema string `mapstructure:"schema" json:"schema"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database" json:"database"`

	// Per-command configuration
	Generate GenerateConfig `mapstructure:"generate" json:"generate"`
	Doctor   DoctorConfig   `mapstructure:"doctor" json:"doctor"`
}

// DatabaseConfig locates the SQLite file inspected by status and doctor.
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// GenerateConfig holds code generation settings.
type GenerateConfig struct {
	Output        string `mapstructure:"output" json:"output"`
	Package       string `mapstructure:"package" json:"package"`
	File          string `mapstructure:"file" json:"file"`
	RuntimeImport string `mapstructure:"runtime_import" json:"runtime_import"`
	ChunkSize     int    `mapstructure:"chunk_size" json:"chunk_size"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Verbose bool `mapstructure:"verbose" json:"verbose"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("OPENHELPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Generate.ChunkSize < 1 {
		return nil, configPath, fmt.Errorf("generate.chunk_size must be >= 1, got %d", cfg.Generate.ChunkSize)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "schema/openhelper.yaml")

	v.SetDefault("database.path", "")

	v.SetDefault("generate.output", ".")
	v.SetDefault("generate.package", "db")
	v.SetDefault("generate.file", "")
	v.SetDefault("generate.runtime_import", "")
	v.SetDefault("generate.chunk_size", 1000)

	v.SetDefault("doctor.verbose", false)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for openhelper.yaml or openhelper.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"openhelper.yaml", "openhelper.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Repo boundary (.git file or directory)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// OutputFile returns the generated file name, derived from the package name
// when generate.file is not set.
func (c *Config) OutputFile() string {
	if c.Generate.File != "" {
		return c.Generate.File
	}
	return c.Generate.Package + "_gen.go"
}

// DatabasePath returns database.path, or an error if it is not configured.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path == "" {
		return "", fmt.Errorf("database.path is required (set it in openhelper.yaml, OPENHELPER_DATABASE_PATH or --db)")
	}
	return c.Database.Path, nil
}
