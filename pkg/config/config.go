// Package config provides configuration loading and management for noduleprep.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Window holds the Hounsfield-Unit normalization window
	Window struct {
		// MinHU is the lower clip bound of the lung window in HU
		MinHU float64 `yaml:"minHU"`

		// MaxHU is the upper clip bound of the lung window in HU
		MaxHU float64 `yaml:"maxHU"`
	} `yaml:"window"`

	// Patch holds the patch extraction parameters
	Patch struct {
		// TargetSize is the cubic edge length of the extracted patch in voxels
		TargetSize int `yaml:"targetSize"`
	} `yaml:"patch"`

	// Upload holds the input admission limits
	Upload struct {
		// MaxSizeBytes is the maximum accepted input size in bytes
		MaxSizeBytes int64 `yaml:"maxSizeBytes"`

		// AllowedExtensions lists the accepted filename suffixes
		AllowedExtensions []string `yaml:"allowedExtensions"`
	} `yaml:"upload"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel normalization
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Fixed clinical lung window in Hounsfield Units
	cfg.Window.MinHU = -1000.0
	cfg.Window.MaxHU = 400.0

	cfg.Patch.TargetSize = 64

	cfg.Upload.MaxSizeBytes = 100 * 1024 * 1024
	cfg.Upload.AllowedExtensions = []string{".nii", ".nii.gz", ".dcm", ".dicom", ".tcia"}

	cfg.Processing.NumCores = runtime.NumCPU()

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
