// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// Config is the top-level vector service configuration.
type Config struct {
	Networking NetworkingConfig `mapstructure:"networking"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Models     ModelsConfig     `mapstructure:"models"`
}

// NetworkingConfig controls how the service listens for connections.
type NetworkingConfig struct {
	Listen string `mapstructure:"listen"`
}

// StorageConfig selects the storage backend and data location.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// ModelsConfig locates the static model registry.
type ModelsConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
}

// SetDefaults applies default values to a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("networking.listen", "127.0.0.1:18980")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("models.registry_path", "./models.yaml")
}

// SetupEnv binds environment variables with the NOMARR_ prefix
// (e.g. NOMARR_STORAGE_DATA_DIR).
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("NOMARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nomerr.Errorf(nomerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates a populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateModels()...)

	return errs
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue, "config: networking.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Networking.Listen)
	if err != nil {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue,
			"config: networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q", c.Storage.Backend))
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue,
			"config: storage.data_dir must not be empty"))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	if c.Models.RegistryPath == "" {
		errs = append(errs, nomerr.Errorf(nomerr.CodeConfigValidateInvalidValue,
			"config: models.registry_path must not be empty"))
	}

	return errs
}
