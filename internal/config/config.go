// Package config handles library configuration: the on-disk layout under
// the data directory and the settings file loaded through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable setting. Values come from, in precedence
// order: SCHOLIUM_* environment variables, the config file, then defaults.
type Config struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	Ingest struct {
		Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
		Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
		MaxFiles    int           `mapstructure:"max_files" yaml:"max_files"`
	} `mapstructure:"ingest" yaml:"ingest"`

	Dedup struct {
		TitleSimilarity float64 `mapstructure:"title_similarity" yaml:"title_similarity"`
	} `mapstructure:"dedup" yaml:"dedup"`

	Search struct {
		LexicalWeight  float64 `mapstructure:"lexical_weight" yaml:"lexical_weight"`
		SemanticWeight float64 `mapstructure:"semantic_weight" yaml:"semantic_weight"`
		Limit          int     `mapstructure:"limit" yaml:"limit"`
	} `mapstructure:"search" yaml:"search"`

	Embedding struct {
		BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
		Model      string `mapstructure:"model" yaml:"model"`
		Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
	} `mapstructure:"embedding" yaml:"embedding"`
}

const (
	// DataDirName is the default library directory name.
	DataDirName = ".scholium"
	// ConfigFileName is the settings file inside the data directory.
	ConfigFileName = "config.yml"
	// DBFileName is the SQLite database file.
	DBFileName = "library.db"
	// VectorsFileName is the persisted vector index.
	VectorsFileName = "vectors.gob"
	// ArchiveDirName holds archived copies of ingested files.
	ArchiveDirName = "archive"

	// EnvPrefix namespaces environment overrides, e.g.
	// SCHOLIUM_INGEST_CONCURRENCY=8.
	EnvPrefix = "SCHOLIUM"
)

// DBPath returns the SQLite database path under the data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFileName)
}

// VectorsPath returns the vector index path under the data directory.
func VectorsPath(dataDir string) string {
	return filepath.Join(dataDir, VectorsFileName)
}

// ArchivePath returns the file archive directory under the data directory.
func ArchivePath(dataDir string) string {
	return filepath.Join(dataDir, ArchiveDirName)
}

// ConfigPath returns the settings file path under the data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// DefaultDataDir returns ~/.scholium, falling back to a relative
// .scholium when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDirName
	}
	return filepath.Join(home, DataDirName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("ingest.concurrency", 4)
	v.SetDefault("ingest.timeout", 60*time.Second)
	v.SetDefault("ingest.max_files", 0)
	v.SetDefault("dedup.title_similarity", 0.9)
	v.SetDefault("search.lexical_weight", 0.4)
	v.SetDefault("search.semantic_weight", 0.6)
	v.SetDefault("search.limit", 20)
	v.SetDefault("embedding.base_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "all-minilm:l6-v2")
	v.SetDefault("embedding.dimensions", 384)
}

// Load reads configuration for the given data directory. A missing
// settings file is not an error; defaults and environment overrides
// still apply. An empty dataDir resolves to the default location (the
// SCHOLIUM_DATA_DIR override included).
func Load(dataDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dataDir == "" {
		dataDir = v.GetString("data_dir")
	}

	v.SetConfigFile(ConfigPath(dataDir))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", ConfigPath(dataDir), err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("ingest.concurrency must be at least 1, got %d", c.Ingest.Concurrency)
	}
	if c.Dedup.TitleSimilarity < 0 || c.Dedup.TitleSimilarity > 1 {
		return fmt.Errorf("dedup.title_similarity must be in [0, 1], got %g", c.Dedup.TitleSimilarity)
	}
	if c.Search.LexicalWeight < 0 || c.Search.SemanticWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.Search.LexicalWeight+c.Search.SemanticWeight == 0 {
		return fmt.Errorf("search weights must not both be zero")
	}
	if c.Embedding.Dimensions < 1 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// EnsureDataDir creates the data directory and its archive subdirectory.
func EnsureDataDir(dataDir string) error {
	if err := os.MkdirAll(ArchivePath(dataDir), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// WriteDefault writes a commented settings file with the default values.
// It refuses to overwrite an existing file.
func WriteDefault(dataDir string) error {
	path := ConfigPath(dataDir)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("building defaults: %w", err)
	}
	cfg.DataDir = dataDir

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
