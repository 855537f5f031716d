package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/claimaudit/internal/match"
)

// Config holds all runtime configuration for claimaudit.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"
	LogLevel  string

	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	Rules    RulesConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"` // "local" or "s3"
	Dir      string `yaml:"dir"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

type UploadConfig struct {
	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type PipelineConfig struct {
	Timeout          string `yaml:"timeout"`
	MinTextLength    int    `yaml:"min_text_length"`
	CleanupDocuments bool   `yaml:"cleanup_documents"`
}

type RulesConfig struct {
	PEDMinTermLength int    `yaml:"ped_min_term_length"`
	CategoryMatch    string `yaml:"category_match"` // "fuzzy" or "exact"
}

type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogFormat: "text",
		LogLevel:  "info",
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  "30s",
			WriteTimeout: "3m",
		},
		Storage: StorageConfig{
			Backend: "local",
			Dir:     "data/uploads",
			Region:  "us-east-1",
		},
		Upload: UploadConfig{
			MaxFileSizeMB: 10,
			// .pdf needs an OCR TextExtractor; the built-in one reads text only.
			AllowedExtensions: []string{".txt", ".json"},
		},
		Pipeline: PipelineConfig{
			Timeout:          "2m",
			MinTextLength:    50,
			CleanupDocuments: true,
		},
		Rules: RulesConfig{
			PEDMinTermLength: match.DefaultMinTermLen,
			CategoryMatch:    match.StrategyFuzzy,
		},
	}
}

// yamlConfig is the on-disk YAML structure. Pointers distinguish "absent"
// from zero values.
type yamlConfig struct {
	Server  *ServerConfig  `yaml:"server"`
	Storage *StorageConfig `yaml:"storage"`
	Upload  *struct {
		MaxFileSizeMB     *int     `yaml:"max_file_size_mb"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
	} `yaml:"upload"`
	Pipeline *struct {
		Timeout          string `yaml:"timeout"`
		MinTextLength    *int   `yaml:"min_text_length"`
		CleanupDocuments *bool  `yaml:"cleanup_documents"`
	} `yaml:"pipeline"`
	Rules *struct {
		PEDMinTermLength *int   `yaml:"ped_min_term_length"`
		CategoryMatch    string `yaml:"category_match"`
	} `yaml:"rules"`
	Archive *ArchiveConfig `yaml:"archive"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if s := yc.Server; s != nil {
		setString(&c.Server.Addr, s.Addr)
		setString(&c.Server.ReadTimeout, s.ReadTimeout)
		setString(&c.Server.WriteTimeout, s.WriteTimeout)
	}
	if s := yc.Storage; s != nil {
		setString(&c.Storage.Backend, s.Backend)
		setString(&c.Storage.Dir, s.Dir)
		setString(&c.Storage.Bucket, s.Bucket)
		setString(&c.Storage.Region, s.Region)
		setString(&c.Storage.Endpoint, s.Endpoint)
		setString(&c.Storage.Prefix, s.Prefix)
	}
	if u := yc.Upload; u != nil {
		if u.MaxFileSizeMB != nil {
			c.Upload.MaxFileSizeMB = *u.MaxFileSizeMB
		}
		if len(u.AllowedExtensions) > 0 {
			c.Upload.AllowedExtensions = u.AllowedExtensions
		}
	}
	if p := yc.Pipeline; p != nil {
		setString(&c.Pipeline.Timeout, p.Timeout)
		if p.MinTextLength != nil {
			c.Pipeline.MinTextLength = *p.MinTextLength
		}
		if p.CleanupDocuments != nil {
			c.Pipeline.CleanupDocuments = *p.CleanupDocuments
		}
	}
	if r := yc.Rules; r != nil {
		if r.PEDMinTermLength != nil {
			c.Rules.PEDMinTermLength = *r.PEDMinTermLength
		}
		setString(&c.Rules.CategoryMatch, r.CategoryMatch)
	}
	if yc.Archive != nil {
		c.Archive.Enabled = yc.Archive.Enabled
	}
	return c.Validate()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks the configuration and normalizes extensions to lowercase
// with a leading dot.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local", "":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := match.New(c.Rules.CategoryMatch, c.Rules.PEDMinTermLength); err != nil {
		return fmt.Errorf("rules.category_match: %w", err)
	}
	if c.Rules.PEDMinTermLength < 0 {
		return fmt.Errorf("rules.ped_min_term_length must not be negative")
	}

	for name, v := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"pipeline.timeout":     c.Pipeline.Timeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive")
	}
	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			return fmt.Errorf("upload.allowed_extensions contains an empty entry")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}
	return nil
}

// ValidateWithDSN also requires a database connection string.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or CLAIMAUDIT_DB_URL is required")
	}
	return nil
}

// Matchers returns the rule matchers for the configured strategy.
func (c *Config) Matchers() (match.Set, error) {
	return match.New(c.Rules.CategoryMatch, c.Rules.PEDMinTermLength)
}

// PipelineTimeout returns the per-audit timeout; zero means none.
func (c *Config) PipelineTimeout() time.Duration {
	return parseDuration(c.Pipeline.Timeout)
}

func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout)
}

func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout)
}

// MaxUploadBytes is the per-file upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxFileSizeMB) << 20
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
