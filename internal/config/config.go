// Package config provides configuration loading and structs for the ronbun server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Arxiv     ArxivConfig     `yaml:"arxiv"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	PDF       PDFConfig       `yaml:"pdf"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, indexes and downloaded PDFs.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	IndexDir         string `yaml:"index_dir"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
	PDFDir           string `yaml:"pdf_dir"`
}

// ArxivConfig holds arXiv API fetch settings.
type ArxivConfig struct {
	Categories []string `yaml:"categories"`
	MaxResults int      `yaml:"max_results"`
	DaysBack   int      `yaml:"days_back"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// IndexConfig holds vector index construction and update settings.
type IndexConfig struct {
	Variant               string `yaml:"variant"`
	NList                 int    `yaml:"nlist"`
	NProbe                int    `yaml:"nprobe"`
	BatchSize             int    `yaml:"batch_size"`
	TrainSample           int    `yaml:"train_sample"`
	AllowDegradedTraining *bool  `yaml:"allow_degraded_training"`
	StrictLoad            bool   `yaml:"strict_load"`
	CompressSnapshots     *bool  `yaml:"compress_snapshots"`
}

// DegradedTrainingAllowed reports whether clustered training may proceed with
// fewer clusters than configured when the sample is small. Defaults to true.
func (c *IndexConfig) DegradedTrainingAllowed() bool {
	if c.AllowDegradedTraining != nil {
		return *c.AllowDegradedTraining
	}
	return true
}

// CompressSnapshotsEnabled reports whether index snapshots are zstd-compressed.
// Defaults to true.
func (c *IndexConfig) CompressSnapshotsEnabled() bool {
	if c.CompressSnapshots != nil {
		return *c.CompressSnapshots
	}
	return true
}

// PDFConfig holds full-text extraction settings.
type PDFConfig struct {
	UseFullText    bool `yaml:"use_full_text"`
	MaxPages       int  `yaml:"max_pages"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Storage.PDFDir = expandPath(cfg.Storage.PDFDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used by the init subcommand to write a
// starter file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
