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

package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/netwatchio/presenced/pkg/kv"
	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/metrics"
	"github.com/netwatchio/presenced/pkg/models"
)

// Offline sentinel published to the places consumer: an out-of-range
// position no real device will ever report.
const (
	sentinelLatitude  = -89.9
	sentinelLongitude = 0.1
)

// Sweeper is the background staleness sweep. It enumerates all known
// device records from the persistence layer and flips any whose last-seen
// time exceeds the staleness threshold to no-longer-present. Only a fresh
// accepted observation moves a record back; the sweeper never does.
type Sweeper struct {
	config    *models.CoreConfig
	kvStore   kv.KVStore
	forwarder Forwarder
	metrics   *metrics.Metrics
	logger    logger.Logger
	done      chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewSweeper builds a sweeper. The forwarder may be nil.
func NewSweeper(cfg *models.CoreConfig, kvStore kv.KVStore, forwarder Forwarder, m *metrics.Metrics, log logger.Logger) *Sweeper {
	return &Sweeper{
		config:    cfg,
		kvStore:   kvStore,
		forwarder: forwarder,
		metrics:   m,
		logger:    log,
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// Start launches the re-arming sweep loop. The next sweep is scheduled
// only after the previous one settled, so sweeps never run concurrently
// with themselves.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	interval := time.Duration(s.config.SweepInterval)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-timer.C:
			if flipped := s.Sweep(ctx, false); flipped > 0 {
				s.logger.Debug().Int("count", flipped).Msg("Flagged devices as offline")
			}

			timer.Reset(interval)
		}
	}
}

// Stop cancels further scheduling. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Sweep scans every known device record and returns how many were
// flipped. With force set, every record is flipped regardless of its
// current state or last-seen value (used at shutdown). Per-device errors
// are logged and do not abort the rest of the sweep.
func (s *Sweeper) Sweep(ctx context.Context, force bool) int {
	s.logger.Debug().Bool("force", force).Msg("Checking for stale devices")

	return s.sweepWifi(ctx, force) + s.sweepBluetooth(ctx, force)
}

func (s *Sweeper) sweepWifi(ctx context.Context, force bool) int {
	keys, err := s.kvStore.Keys(ctx, KindWifi.Prefix())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enumerate Wi-Fi device records")
		return 0
	}

	flipped := 0

	for _, key := range keys {
		ok, err := s.sweepWifiKey(ctx, key, force)
		if err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to sweep device record")
			continue
		}

		if ok {
			flipped++

			s.metrics.StaleDevices.Inc()
		}
	}

	return flipped
}

func (s *Sweeper) sweepWifiKey(ctx context.Context, key string, force bool) (bool, error) {
	raw, found, err := s.kvStore.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}

	var dev models.WifiDevice

	if err := json.Unmarshal(raw, &dev); err != nil {
		return false, err
	}

	if !s.isStale(dev.Connected, dev.SeenTime, force) {
		return false, nil
	}

	dev.Connected = false

	payload, err := json.Marshal(&dev)
	if err != nil {
		return false, err
	}

	if err := s.kvStore.Put(ctx, key, payload); err != nil {
		return false, err
	}

	s.logger.Debug().Str("client_mac", dev.ClientMac).Int64("seen_time", dev.SeenTime).Msg("Device seems to be offline")

	if s.config.Wifi.ForwardToPlaces {
		s.forwardOffline(ctx, s.config.Wifi.PlacesInstance, dev.ClientMac)
	}

	return true, nil
}

func (s *Sweeper) sweepBluetooth(ctx context.Context, force bool) int {
	keys, err := s.kvStore.Keys(ctx, KindBluetooth.Prefix())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enumerate Bluetooth device records")
		return 0
	}

	flipped := 0

	for _, key := range keys {
		ok, err := s.sweepBluetoothKey(ctx, key, force)
		if err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to sweep device record")
			continue
		}

		if ok {
			flipped++

			s.metrics.StaleDevices.Inc()
		}
	}

	return flipped
}

func (s *Sweeper) sweepBluetoothKey(ctx context.Context, key string, force bool) (bool, error) {
	raw, found, err := s.kvStore.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}

	var dev models.BluetoothDevice

	if err := json.Unmarshal(raw, &dev); err != nil {
		return false, err
	}

	if !s.isStale(dev.Visible, dev.SeenTime, force) {
		return false, nil
	}

	dev.Visible = false

	payload, err := json.Marshal(&dev)
	if err != nil {
		return false, err
	}

	if err := s.kvStore.Put(ctx, key, payload); err != nil {
		return false, err
	}

	s.logger.Debug().Str("client_mac", dev.ClientMac).Int64("seen_time", dev.SeenTime).Msg("Device seems to be offline")

	if s.config.Bluetooth.ForwardToPlaces {
		s.forwardOffline(ctx, s.config.Bluetooth.PlacesInstance, dev.ClientMac)
	}

	return true, nil
}

// isStale decides the ACTIVE -> STALE transition. Force short-circuits
// every condition, including a missing last-seen value.
func (s *Sweeper) isStale(active bool, seenTime int64, force bool) bool {
	if force {
		return true
	}

	if !active || seenTime == 0 {
		return false
	}

	return s.now().UnixMilli()-seenTime >= time.Duration(s.config.StaleTimeout).Milliseconds()
}

func (s *Sweeper) forwardOffline(ctx context.Context, instance int, mac string) {
	if s.forwarder == nil {
		return
	}

	update := &models.LocationUpdate{
		User:      mac,
		Latitude:  sentinelLatitude,
		Longitude: sentinelLongitude,
		Timestamp: s.now().UnixMilli(),
	}

	if err := s.forwarder.Forward(ctx, instance, update); err != nil {
		s.logger.Error().Err(err).Int("instance", instance).Str("user", mac).Msg("Failed to forward offline update")
		s.metrics.ForwardErrors.Inc()
	}
}
