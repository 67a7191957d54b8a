// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the YAML configuration shared by the devvault
// command line tool and HTTP server.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/devvault/trustlayer/constants"
	"sigs.k8s.io/yaml"
)

// Config is the top-level configuration document.
type Config struct {
	Server        ServerConfig        `json:"server"`
	SecretSharing SecretSharingConfig `json:"secretSharing"`
	Keys          KeysConfig          `json:"keys"`
	MFA           MFAConfig           `json:"mfa"`
}

// ServerConfig configures the HTTP binding.
type ServerConfig struct {
	// Address is the interface to listen on; empty means all interfaces.
	Address string `json:"address"`
	Port    int    `json:"port"`
	// Metrics enables the /metrics endpoint.
	Metrics bool `json:"metrics"`
}

// SecretSharingConfig holds default split parameters.
type SecretSharingConfig struct {
	Shares    int `json:"shares"`
	Threshold int `json:"threshold"`
}

// KeysConfig points at PEM key files used when a command is not given one.
type KeysConfig struct {
	PublicKeyFile  string `json:"publicKeyFile"`
	PrivateKeyFile string `json:"privateKeyFile"`
}

// MFAConfig configures TOTP enrollment.
type MFAConfig struct {
	Issuer string `json:"issuer"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    constants.HTTPPort,
			Metrics: true,
		},
		SecretSharing: SecretSharingConfig{
			Shares:    5,
			Threshold: 3,
		},
		MFA: MFAConfig{
			Issuer: constants.DefaultMFAIssuer,
		},
	}
}

// DefaultPath returns the default configuration file location in the user's
// configuration directory.
func DefaultPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory location: %w", err)
	}
	return filepath.Join(cfgDir, constants.DefaultConfigName), nil
}

// Parse decodes a YAML document on top of Default. Unknown fields are rejected.
func Parse(yamlBytes []byte) (*Config, error) {
	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config YAML to JSON: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(jsonBytes)) > 0 && string(bytes.TrimSpace(jsonBytes)) != "null" {
		dec := json.NewDecoder(bytes.NewReader(jsonBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. If path is empty the default
// location is used, and a missing default file yields Default.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return Default(), nil
		}
	}

	yamlBytes, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(yamlBytes)
}

// Validate checks the configuration for values no component could use.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	ss := c.SecretSharing
	if ss.Shares < 1 || ss.Threshold < 1 || ss.Threshold > ss.Shares {
		return fmt.Errorf("secretSharing: need 1 <= threshold <= shares, got threshold=%d shares=%d", ss.Threshold, ss.Shares)
	}
	if ss.Shares > constants.MaxShares {
		return fmt.Errorf("secretSharing: shares must be at most %d, got %d", constants.MaxShares, ss.Shares)
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server should bind.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
