/*
 * Copyright 2025 The presenced Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatchio/presenced/pkg/models"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "presenced.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidateFromFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeConfigFile(t, `{
		"secret": "s3cret",
		"listen_addr": ":9090",
		"stale_timeout": "5m"
	}`)

	var cfg models.CoreConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.StaleTimeout))
	// Defaults filled in by validation.
	assert.Equal(t, "/cmx", cfg.Route)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	var cfg models.CoreConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "/nonexistent/presenced.json", &cfg)
	assert.Error(t, err)
}

func TestLoadAndValidateInvalidConfig(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeConfigFile(t, `{"listen_addr": ":9090"}`)

	var cfg models.CoreConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadAndValidateFromEnv(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("PRESENCED_CONFIG_JSON", `{"secret": "s3cret", "kv_bucket": "cmx"}`)

	var cfg models.CoreConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "cmx", cfg.KVBucket)
}

func TestLoadAndValidateEnvPrefix(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "CMX_")
	t.Setenv("CMX_CONFIG_JSON", `{"secret": "s3cret"}`)

	var cfg models.CoreConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, "s3cret", cfg.Secret)
}

func TestLoadAndValidateEnvMissingVariable(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("PRESENCED_CONFIG_JSON", "")

	var cfg models.CoreConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	assert.Error(t, err)
}

func TestLoadAndValidateBadSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg models.CoreConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	assert.ErrorIs(t, err, errInvalidConfigSource)
}
