package types

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// Definition represents the top-level update definition structure
type Definition struct {
	Package  string         `yaml:"package"`
	Script   string         `yaml:"script"`
	Source   SourceConfig   `yaml:"source"`
	Checksum ChecksumConfig `yaml:"checksum"`
	Download DownloadConfig `yaml:"download"`
}

// SourceConfig holds the upstream installer locations. Either variant
// may be left empty; at least one must be set by the time a run starts.
type SourceConfig struct {
	URL   string `yaml:"url"`
	URL64 string `yaml:"url64"`
}

// ChecksumConfig selects the digest written into the install script
type ChecksumConfig struct {
	Algorithm string `yaml:"algorithm"`
}

// DownloadConfig controls where installers land and how fetches retry
type DownloadConfig struct {
	Dir   string      `yaml:"dir"`
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig bounds the fixed-delay retry loop for downloads. Delay is
// a Go duration string ("2s", "500ms").
type RetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Delay    string `yaml:"delay"`
}

// LoadDefinition loads an update definition from a file
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading update definition: %w", err)
	}

	// Expand environment variables in the file
	expandedData := expandEnvInYaml(string(data))

	var def Definition
	if err := yaml.Unmarshal([]byte(expandedData), &def); err != nil {
		return nil, fmt.Errorf("error parsing update definition: %w", err)
	}

	// Validate the definition
	if err := validateDefinition(&def); err != nil {
		return nil, err
	}

	return &def, nil
}

// expandEnvInYaml expands environment variables in YAML content
func expandEnvInYaml(content string) string {
	// Process ${VAR} style environment variables
	result := os.Expand(content, func(key string) string {
		return os.Getenv(key)
	})

	return result
}

// validateDefinition performs basic validation on the definition
func validateDefinition(def *Definition) error {
	if def.Script == "" && def.Source.URL == "" && def.Source.URL64 == "" {
		return fmt.Errorf("update definition must set a script path or an installer url")
	}

	if def.Checksum.Algorithm != "" {
		if _, err := ParseAlgorithm(def.Checksum.Algorithm); err != nil {
			return err
		}
	}

	if def.Download.Retry.Attempts < 0 {
		return fmt.Errorf("retry attempts must not be negative")
	}

	if def.Download.Retry.Delay != "" {
		if _, err := time.ParseDuration(def.Download.Retry.Delay); err != nil {
			return fmt.Errorf("invalid retry delay: %w", err)
		}
	}

	return nil
}
