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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{name: "seconds number", input: `90`, want: 90 * time.Second},
		{name: "duration string", input: `"2m"`, want: 2 * time.Minute},
		{name: "zero", input: `0`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var d Duration

	assert.Error(t, json.Unmarshal([]byte(`"not a duration"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDurationMarshal(t *testing.T) {
	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &CoreConfig{Secret: "s3cret"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":1890", cfg.ListenAddr)
	assert.Equal(t, "/cmx", cfg.Route)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NatsURL)
	assert.Equal(t, "presence", cfg.KVBucket)
	require.NotNil(t, cfg.ConnectedOnly)
	assert.True(t, *cfg.ConnectedOnly)
	assert.Equal(t, 120*time.Second, time.Duration(cfg.StaleTimeout))
	assert.Equal(t, 30*time.Second, time.Duration(cfg.SweepInterval))
	assert.Equal(t, 3*time.Minute, time.Duration(cfg.FeedTimeout))
}

func TestConfigValidateKeepsExplicitValues(t *testing.T) {
	connectedOnly := false
	cfg := &CoreConfig{
		Secret:        "s3cret",
		ListenAddr:    ":9090",
		Route:         "/hooks/cmx",
		ConnectedOnly: &connectedOnly,
		StaleTimeout:  Duration(5 * time.Minute),
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/hooks/cmx", cfg.Route)
	assert.False(t, *cfg.ConnectedOnly)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.StaleTimeout))
}

func TestConfigValidateMissingSecret(t *testing.T) {
	cfg := &CoreConfig{}
	assert.Error(t, cfg.Validate())
}

func TestConfigUnmarshal(t *testing.T) {
	data := `{
		"secret": "s3cret",
		"wifi_connected_only": false,
		"stale_timeout": 300,
		"sweep_interval": "45s",
		"wifi": {"pattern": "^aa:", "track_location": true},
		"bluetooth": {"forward_to_places": true, "places_instance": 2}
	}`

	var cfg CoreConfig
	require.NoError(t, json.Unmarshal([]byte(data), &cfg))
	require.NoError(t, cfg.Validate())

	assert.False(t, *cfg.ConnectedOnly)
	assert.Equal(t, 300*time.Second, time.Duration(cfg.StaleTimeout))
	assert.Equal(t, 45*time.Second, time.Duration(cfg.SweepInterval))
	assert.Equal(t, "^aa:", cfg.Wifi.Pattern)
	assert.True(t, cfg.Wifi.TrackLocation)
	assert.True(t, cfg.Bluetooth.ForwardToPlaces)
	assert.Equal(t, 2, cfg.Bluetooth.PlacesInstance)
}
