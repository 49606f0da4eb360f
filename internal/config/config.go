// Package config provides YAML-based configuration management for the archive server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up next to the executable
const DefaultFileName = "exam-archive.yaml"

// AppConfig represents the root configuration structure
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bind_address"`
	EnableCORS   bool   `yaml:"enable_cors"`
	AllowOrigins string `yaml:"allow_origins"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds"`
	BodyLimit    string `yaml:"body_limit"`

	EnableCompression bool `yaml:"enable_compression"`
	CompressionLevel  int  `yaml:"compression_level"`
}

// StorageConfig contains group storage settings
type StorageConfig struct {
	RootDirectory string `yaml:"root_directory"`
	MetadataFile  string `yaml:"metadata_file"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level                string `yaml:"level"`
	Development          bool   `yaml:"development"`
	EnableRequestLogging bool   `yaml:"enable_request_logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   false,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "50M",

			EnableCompression: true,
			CompressionLevel:  5,
		},
		Storage: StorageConfig{
			RootDirectory: "./clinic_uploads",
			MetadataFile:  "metadata.json",
		},
		Logging: LoggingConfig{
			Level:                "info",
			Development:          false,
			EnableRequestLogging: true,
		},
	}
}

// DefaultPath returns the config path next to the running executable, or in the working
// directory if the executable cannot be located
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// If file doesn't exist, create default
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Missing keys keep their defaults
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Exam group archive configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.RootDirectory = dataDir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Storage.RootDirectory != "" && !filepath.IsAbs(c.Storage.RootDirectory) {
		c.Storage.RootDirectory = filepath.Join(configDir, c.Storage.RootDirectory)
	}
}

// Validate checks values that would otherwise fail later at startup
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.CompressionLevel < -1 || c.Server.CompressionLevel > 9 {
		return fmt.Errorf("invalid compression level %d", c.Server.CompressionLevel)
	}
	if strings.TrimSpace(c.Storage.RootDirectory) == "" {
		return errors.New("storage root directory is required")
	}

	name := c.Storage.MetadataFile
	if name == "" {
		return errors.New("storage metadata file is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("metadata file %q must be a plain file name", name)
	}

	return nil
}

// GetRootDir returns the absolute group root directory
func (c *AppConfig) GetRootDir() string {
	return c.Storage.RootDirectory
}

// MetadataPath returns the location of the metadata index inside the root directory
func (c *AppConfig) MetadataPath() string {
	return filepath.Join(c.Storage.RootDirectory, c.Storage.MetadataFile)
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.RootDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.RootDirectory, err)
	}
	return nil
}
