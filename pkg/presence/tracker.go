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
	"fmt"
	"time"

	"github.com/netwatchio/presenced/pkg/kv"
	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/metrics"
	"github.com/netwatchio/presenced/pkg/models"
)

// rssiMissing substitutes for a zero RSSI reading; the scanning API omits
// the field for devices it could not measure.
const rssiMissing = -127

// Tracker is the ingestion pipeline. It validates inbound reports,
// dispatches by report type, upserts access point and device records and
// projects accepted observations into presence fields. Processing fails
// softly: a bad observation never aborts its siblings and never stops the
// feed heartbeat from resetting.
type Tracker struct {
	config    *models.CoreConfig
	filter    *Filter
	store     *Store
	kvStore   kv.KVStore
	forwarder Forwarder
	heartbeat *Heartbeat
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewTracker builds the pipeline. The forwarder may be nil when consumer
// forwarding is disabled for both media.
func NewTracker(
	cfg *models.CoreConfig,
	store *Store,
	kvStore kv.KVStore,
	forwarder Forwarder,
	heartbeat *Heartbeat,
	m *metrics.Metrics,
	log logger.Logger) (*Tracker, error) {
	filter, err := NewFilter(cfg)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		config:    cfg,
		filter:    filter,
		store:     store,
		kvStore:   kvStore,
		forwarder: forwarder,
		heartbeat: heartbeat,
		metrics:   m,
		logger:    log,
	}, nil
}

// ProcessReport ingests one report. An empty payload is logged and
// dropped without resetting the heartbeat; every other outcome, including
// an unknown report type, counts as upstream activity.
func (t *Tracker) ProcessReport(ctx context.Context, report *models.Report) {
	if report == nil || report.Data == nil {
		t.logger.Warn().Msg("Report push does not contain any payload data")
		t.metrics.ReportsInvalid.Inc()

		return
	}

	switch report.Type {
	case models.ReportDevicesSeen:
		t.processWifi(ctx, report.Data)
		t.metrics.ReportsTotal.Inc()
	case models.ReportBluetoothDevicesSeen:
		t.processBluetooth(ctx, report.Data)
		t.metrics.ReportsTotal.Inc()
	default:
		t.logger.Warn().Str("type", string(report.Type)).Msg("Unknown report type received, skipping data")
		t.metrics.ReportsInvalid.Inc()
	}

	t.heartbeat.MarkActivity(ctx)
}

func (t *Tracker) processWifi(ctx context.Context, data *models.ReportData) {
	t.logger.Debug().Str("ap_mac", data.ApMac).Int("observations", len(data.Observations)).Msg("Processing DevicesSeen data")

	t.upsertAccessPoint(ctx, data)

	for i := range data.Observations {
		obs := &data.Observations[i]

		ok, reason := t.filter.CheckWifi(obs)
		if !ok {
			t.logger.Debug().Str("client_mac", obs.ClientMac).Str("reason", reason).Msg("Ignored Wi-Fi device")
			t.metrics.ObservationsRejected.Inc()

			continue
		}

		if err := t.upsertWifiDevice(ctx, obs); err != nil {
			t.logger.Error().Err(err).Str("client_mac", obs.ClientMac).Msg("Failed to update Wi-Fi device record")

			continue
		}

		t.metrics.ObservationsAccepted.Inc()
	}
}

func (t *Tracker) processBluetooth(ctx context.Context, data *models.ReportData) {
	t.logger.Debug().Str("ap_mac", data.ApMac).Int("observations", len(data.Observations)).Msg("Processing BluetoothDevicesSeen data")

	t.upsertAccessPoint(ctx, data)

	for i := range data.Observations {
		obs := &data.Observations[i]

		ok, reason := t.filter.CheckBluetooth(obs)
		if !ok {
			t.logger.Debug().Str("client_mac", obs.ClientMac).Str("reason", reason).Msg("Ignored Bluetooth device")
			t.metrics.ObservationsRejected.Inc()

			continue
		}

		if err := t.upsertBluetoothDevice(ctx, obs); err != nil {
			t.logger.Error().Err(err).Str("client_mac", obs.ClientMac).Msg("Failed to update Bluetooth device record")

			continue
		}

		t.metrics.ObservationsAccepted.Inc()
	}
}

// upsertAccessPoint refreshes the AP record. Failures are logged only;
// the device observations in the same report are still processed.
func (t *Tracker) upsertAccessPoint(ctx context.Context, data *models.ReportData) {
	ap := models.AccessPoint{
		Mac:        data.ApMac,
		Tags:       data.ApTags,
		Floors:     data.ApFloors,
		LastUpdate: time.Now().UnixMilli(),
	}

	if err := t.writeRecord(ctx, KindAccessPoint, data.ApMac, &ap); err != nil {
		t.logger.Error().Err(err).Str("ap_mac", data.ApMac).Msg("Failed to update access point record")
	}
}

func (t *Tracker) upsertWifiDevice(ctx context.Context, obs *models.Observation) error {
	dev := models.WifiDevice{
		ClientMac:    obs.ClientMac,
		IPv4:         stripAddrPrefix(obs.IPv4),
		IPv6:         stripAddrPrefix(obs.IPv6),
		SSID:         deref(obs.SSID),
		Rssi:         normalizeRssi(obs.Rssi),
		OS:           deref(obs.OS),
		Manufacturer: deref(obs.Manufacturer),
		SeenTime:     seenTimeMillis(obs.SeenEpoch),
		Connected:    IsConnected(obs),
	}

	if obs.Location != nil && t.config.Wifi.TrackLocation {
		dev.Latitude = &obs.Location.Lat
		dev.Longitude = &obs.Location.Lng
		dev.Accuracy = &obs.Location.Unc
	}

	if t.config.Wifi.StoreRawData {
		raw, err := json.Marshal(obs)
		if err != nil {
			return fmt.Errorf("failed to snapshot observation: %w", err)
		}

		dev.Raw = raw
	}

	if err := t.writeRecord(ctx, KindWifi, obs.ClientMac, &dev); err != nil {
		return err
	}

	if obs.Location != nil && t.config.Wifi.ForwardToPlaces {
		t.forwardLocation(ctx, t.config.Wifi.PlacesInstance, obs.ClientMac, obs.Location.Lat, obs.Location.Lng)
	}

	return nil
}

func (t *Tracker) upsertBluetoothDevice(ctx context.Context, obs *models.Observation) error {
	dev := models.BluetoothDevice{
		ClientMac: obs.ClientMac,
		Rssi:      normalizeRssi(obs.Rssi),
		SeenTime:  seenTimeMillis(obs.SeenEpoch),
		Visible:   true,
	}

	if obs.Location != nil && t.config.Bluetooth.TrackLocation {
		dev.Latitude = &obs.Location.Lat
		dev.Longitude = &obs.Location.Lng
		dev.Accuracy = &obs.Location.Unc
	}

	if t.config.Bluetooth.StoreRawData {
		raw, err := json.Marshal(obs)
		if err != nil {
			return fmt.Errorf("failed to snapshot observation: %w", err)
		}

		dev.Raw = raw
	}

	if err := t.writeRecord(ctx, KindBluetooth, obs.ClientMac, &dev); err != nil {
		return err
	}

	if obs.Location != nil && t.config.Bluetooth.ForwardToPlaces {
		t.forwardLocation(ctx, t.config.Bluetooth.PlacesInstance, obs.ClientMac, obs.Location.Lat, obs.Location.Lng)
	}

	return nil
}

// writeRecord upserts one record: a create-if-absent call for keys the
// store has not seen yet (tolerant of the key already existing durably),
// then an unconditional overwrite. Applying the same record twice leaves
// the store in the same state.
func (t *Tracker) writeRecord(ctx context.Context, kind RecordKind, mac string, record interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", kind, err)
	}

	key := kind.Key(mac)

	if !t.store.Known(kind, mac) {
		t.logger.Debug().Str("key", key).Msg("New record detected")

		if err := t.kvStore.Create(ctx, key, payload); err != nil {
			return err
		}
	}

	if err := t.kvStore.Put(ctx, key, payload); err != nil {
		return err
	}

	t.store.Mark(kind, mac)

	return nil
}

func (t *Tracker) forwardLocation(ctx context.Context, instance int, mac string, lat, lng float64) {
	if t.forwarder == nil {
		return
	}

	update := &models.LocationUpdate{
		User:      mac,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := t.forwarder.Forward(ctx, instance, update); err != nil {
		t.logger.Error().Err(err).Int("instance", instance).Str("user", mac).Msg("Failed to forward location update")
		t.metrics.ForwardErrors.Inc()
	}
}

func normalizeRssi(rssi int) int {
	if rssi == 0 {
		return rssiMissing
	}

	return rssi
}

// seenTimeMillis converts the device-reported epoch seconds to the stored
// millisecond timestamp, falling back to the wall clock when absent.
func seenTimeMillis(seenEpoch int64) int64 {
	if seenEpoch == 0 {
		return time.Now().UnixMilli()
	}

	return seenEpoch * 1000
}
