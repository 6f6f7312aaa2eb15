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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/metrics"
	"github.com/netwatchio/presenced/pkg/models"
)

func putWifiRecord(t *testing.T, store *memKV, dev *models.WifiDevice) {
	t.Helper()

	payload, err := json.Marshal(dev)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), KindWifi.Key(dev.ClientMac), payload))
}

func putBluetoothRecord(t *testing.T, store *memKV, dev *models.BluetoothDevice) {
	t.Helper()

	payload, err := json.Marshal(dev)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), KindBluetooth.Key(dev.ClientMac), payload))
}

func wifiRecord(t *testing.T, store *memKV, mac string) *models.WifiDevice {
	t.Helper()

	raw, ok := store.value(KindWifi.Key(mac))
	require.True(t, ok)

	var dev models.WifiDevice
	require.NoError(t, json.Unmarshal(raw, &dev))

	return &dev
}

func TestSweepFlipsStaleDevices(t *testing.T) {
	base := time.UnixMilli(1_000_000_000)

	store := newMemKV()

	// 121s old with a 120s timeout: stale.
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "aa:bb:cc:dd:ee:ff",
		Connected: true,
		SeenTime:  base.Add(-121 * time.Second).UnixMilli(),
	})
	// 60s old: still fresh.
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "11:22:33:44:55:66",
		Connected: true,
		SeenTime:  base.Add(-60 * time.Second).UnixMilli(),
	})

	sweeper := NewSweeper(testConfig(t), store, nil, metrics.NewMetrics(), logger.NewTestLogger())
	sweeper.now = func() time.Time { return base }

	flipped := sweeper.Sweep(context.Background(), false)
	assert.Equal(t, 1, flipped)

	assert.False(t, wifiRecord(t, store, "aa:bb:cc:dd:ee:ff").Connected)
	assert.True(t, wifiRecord(t, store, "11:22:33:44:55:66").Connected)
}

func TestSweepSkipsAlreadyOffline(t *testing.T) {
	base := time.UnixMilli(1_000_000_000)

	store := newMemKV()
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "aa:bb:cc:dd:ee:ff",
		Connected: false,
		SeenTime:  base.Add(-time.Hour).UnixMilli(),
	})

	sweeper := NewSweeper(testConfig(t), store, nil, metrics.NewMetrics(), logger.NewTestLogger())
	sweeper.now = func() time.Time { return base }

	assert.Equal(t, 0, sweeper.Sweep(context.Background(), false))
}

func TestSweepSkipsMissingSeenTime(t *testing.T) {
	store := newMemKV()
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "aa:bb:cc:dd:ee:ff",
		Connected: true,
	})

	sweeper := NewSweeper(testConfig(t), store, nil, metrics.NewMetrics(), logger.NewTestLogger())

	assert.Equal(t, 0, sweeper.Sweep(context.Background(), false))
	assert.True(t, wifiRecord(t, store, "aa:bb:cc:dd:ee:ff").Connected)
}

func TestSweepForceFlipsEverything(t *testing.T) {
	store := newMemKV()

	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "aa:bb:cc:dd:ee:ff",
		Connected: true,
		SeenTime:  time.Now().UnixMilli(),
	})
	// No last-seen at all; force still flips it.
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "11:22:33:44:55:66",
		Connected: true,
	})
	putBluetoothRecord(t, store, &models.BluetoothDevice{
		ClientMac: "20:91:48:33:68:23",
		Visible:   true,
		SeenTime:  time.Now().UnixMilli(),
	})

	sweeper := NewSweeper(testConfig(t), store, nil, metrics.NewMetrics(), logger.NewTestLogger())

	assert.Equal(t, 3, sweeper.Sweep(context.Background(), true))

	assert.False(t, wifiRecord(t, store, "aa:bb:cc:dd:ee:ff").Connected)
	assert.False(t, wifiRecord(t, store, "11:22:33:44:55:66").Connected)

	raw, ok := store.value(KindBluetooth.Key("20:91:48:33:68:23"))
	require.True(t, ok)

	var bt models.BluetoothDevice
	require.NoError(t, json.Unmarshal(raw, &bt))
	assert.False(t, bt.Visible)
}

func TestSweepForwardsOfflineSentinel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testConfig(t)
	cfg.Wifi.ForwardToPlaces = true
	cfg.Wifi.PlacesInstance = 1

	forwarder := NewMockForwarder(ctrl)
	forwarder.EXPECT().
		Forward(gomock.Any(), 1, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int, update *models.LocationUpdate) error {
			assert.Equal(t, "aa:bb:cc:dd:ee:ff", update.User)
			assert.InDelta(t, -89.9, update.Latitude, 1e-9)
			assert.InDelta(t, 0.1, update.Longitude, 1e-9)
			return nil
		})

	store := newMemKV()
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "aa:bb:cc:dd:ee:ff",
		Connected: true,
		SeenTime:  1,
	})

	sweeper := NewSweeper(cfg, store, forwarder, metrics.NewMetrics(), logger.NewTestLogger())

	assert.Equal(t, 1, sweeper.Sweep(context.Background(), false))
}

func TestSweepCorruptRecordDoesNotAbort(t *testing.T) {
	store := newMemKV()

	require.NoError(t, store.Put(context.Background(), KindWifi.Key("00:00:00:00:00:00"), []byte("not json")))
	putWifiRecord(t, store, &models.WifiDevice{
		ClientMac: "aa:bb:cc:dd:ee:ff",
		Connected: true,
		SeenTime:  1,
	})

	sweeper := NewSweeper(testConfig(t), store, nil, metrics.NewMetrics(), logger.NewTestLogger())

	assert.Equal(t, 1, sweeper.Sweep(context.Background(), false))
	assert.False(t, wifiRecord(t, store, "aa:bb:cc:dd:ee:ff").Connected)
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	sweeper := NewSweeper(testConfig(t), newMemKV(), nil, metrics.NewMetrics(), logger.NewTestLogger())
	sweeper.Start(context.Background())

	sweeper.Stop()
	sweeper.Stop()
}
