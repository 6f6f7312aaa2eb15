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
	"errors"
	"fmt"
	"time"

	"github.com/netwatchio/presenced/pkg/logger"
)

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("90s", "2m") or a bare number of seconds. The scanning-API
// configuration has historically expressed all windows in seconds.
type Duration time.Duration

var (
	errInvalidDuration = errors.New("invalid duration")
	errNoSecret        = errors.New("secret must be configured")
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value) * time.Second)
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// MediaConfig holds the per-media (Wi-Fi or Bluetooth) processing toggles.
type MediaConfig struct {
	Pattern         string `json:"pattern,omitempty"`
	TrackLocation   bool   `json:"track_location"`
	ForwardToPlaces bool   `json:"forward_to_places"`
	PlacesInstance  int    `json:"places_instance"`
	StoreRawData    bool   `json:"store_raw_data"`
}

// CoreConfig is the full presenced service configuration.
type CoreConfig struct {
	ListenAddr string `json:"listen_addr"`
	Route      string `json:"route"`
	// Validator is the plain-text challenge returned on GET requests so
	// the upstream reporter can verify the endpoint before pushing data.
	Validator string `json:"validator,omitempty"`
	Secret    string `json:"secret"`
	NatsURL   string `json:"nats_url"`
	KVBucket  string `json:"kv_bucket"`
	// ConnectedOnly restricts Wi-Fi ingestion to devices that hold an
	// SSID and at least one IP address. Defaults to true when omitted.
	ConnectedOnly *bool          `json:"wifi_connected_only,omitempty"`
	Wifi          MediaConfig    `json:"wifi"`
	Bluetooth     MediaConfig    `json:"bluetooth"`
	StaleTimeout  Duration       `json:"stale_timeout,omitempty"`
	SweepInterval Duration       `json:"sweep_interval,omitempty"`
	FeedTimeout   Duration       `json:"feed_timeout,omitempty"`
	Logging       *logger.Config `json:"logging,omitempty"`
}

const (
	defaultListenAddr    = ":1890"
	defaultRoute         = "/cmx"
	defaultNatsURL       = "nats://127.0.0.1:4222"
	defaultKVBucket      = "presence"
	defaultStaleTimeout  = 120 * time.Second
	defaultSweepInterval = 30 * time.Second
	defaultFeedTimeout   = 3 * time.Minute
)

// Validate checks required fields and fills in defaults.
func (c *CoreConfig) Validate() error {
	if c.Secret == "" {
		return errNoSecret
	}

	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.Route == "" {
		c.Route = defaultRoute
	}

	if c.NatsURL == "" {
		c.NatsURL = defaultNatsURL
	}

	if c.KVBucket == "" {
		c.KVBucket = defaultKVBucket
	}

	if c.ConnectedOnly == nil {
		connectedOnly := true
		c.ConnectedOnly = &connectedOnly
	}

	if c.StaleTimeout <= 0 {
		c.StaleTimeout = Duration(defaultStaleTimeout)
	}

	if c.SweepInterval <= 0 {
		c.SweepInterval = Duration(defaultSweepInterval)
	}

	if c.FeedTimeout <= 0 {
		c.FeedTimeout = Duration(defaultFeedTimeout)
	}

	return nil
}
