// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaden/nomarr-sub002/internal/config"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:18980", cfg.Networking.Listen)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "./models.yaml", cfg.Models.RegistryPath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nomarr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
networking:
  listen: "0.0.0.0:9999"
storage:
  data_dir: /var/lib/nomarr
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Networking.Listen)
	assert.Equal(t, "/var/lib/nomarr", cfg.Storage.DataDir)
	// Unset keys fall back to defaults.
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, nomerr.HasCode(err, nomerr.CodeConfigLoadReadFailure))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NOMARR_NETWORKING_LISTEN", "127.0.0.1:7777")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.Networking.Listen)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := viper.New()
	v.Set("networking.listen", "not-an-address")
	v.Set("storage.backend", "mongodb")
	v.Set("storage.data_dir", "")
	v.Set("models.registry_path", "")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.True(t, nomerr.HasCode(err, nomerr.CodeConfigValidateInvalidValue))

	msg := err.Error()
	assert.Contains(t, msg, "networking.listen")
	assert.Contains(t, msg, "storage.backend")
	assert.Contains(t, msg, "storage.data_dir")
	assert.Contains(t, msg, "models.registry_path")
}

func TestValidatePortRange(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("networking.listen", "127.0.0.1:70000")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 65535")
}
