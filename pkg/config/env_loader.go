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
	"encoding/json"
	"fmt"
	"os"

	"github.com/netwatchio/presenced/pkg/logger"
)

// EnvConfigLoader loads a complete JSON configuration from a single
// environment variable, <prefix>CONFIG_JSON. Container deployments that
// cannot mount a config file inject it this way.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates an environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{logger: log, prefix: prefix}
}

// Load implements ConfigLoader.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	name := e.prefix + "CONFIG_JSON"

	jsonConfig := os.Getenv(name)
	if jsonConfig == "" {
		return fmt.Errorf("environment variable %s is not set", name)
	}

	if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}

	e.logger.Debug().Str("variable", name).Msg("Loaded configuration from environment")

	return nil
}
