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
	"sync"
	"time"

	"github.com/netwatchio/presenced/pkg/kv"
	"github.com/netwatchio/presenced/pkg/logger"
)

// The upstream reporter cannot guarantee a push interval; typical
// deliveries arrive every one to two minutes. Three minutes of silence
// counts as a dead feed.
const defaultFeedWindow = 3 * time.Minute

// feedConnectedKey is where the feed liveness boolean is published.
const feedConnectedKey = "feed.connected"

// Heartbeat tracks whether the upstream reporter is delivering data at
// all, independent of any single device's presence. It starts
// disconnected and flips on the first processed report.
type Heartbeat struct {
	mu        sync.Mutex
	window    time.Duration
	connected bool
	timer     *time.Timer
	gen       uint64
	kvStore   kv.KVStore
	logger    logger.Logger
}

// NewHeartbeat creates a heartbeat with the given inactivity window.
func NewHeartbeat(window time.Duration, kvStore kv.KVStore, log logger.Logger) *Heartbeat {
	if window <= 0 {
		window = defaultFeedWindow
	}

	return &Heartbeat{
		window:  window,
		kvStore: kvStore,
		logger:  log,
	}
}

// Connected reports the current feed state.
func (h *Heartbeat) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.connected
}

// MarkActivity records upstream activity: it supersedes any pending
// inactivity timer, arms a new one and transitions to connected. The
// current boolean is always republished.
func (h *Heartbeat) MarkActivity(ctx context.Context) {
	h.mu.Lock()

	if h.timer != nil {
		h.timer.Stop()
	}

	h.gen++
	gen := h.gen
	h.timer = time.AfterFunc(h.window, func() { h.expire(gen) })

	wasConnected := h.connected
	h.connected = true
	h.mu.Unlock()

	if !wasConnected {
		h.logger.Info().Msg("Upstream feed online")
	}

	h.publish(ctx, true)
}

// expire fires when the inactivity window elapses. A timer superseded by
// a later MarkActivity is recognized by its stale generation and ignored.
func (h *Heartbeat) expire(gen uint64) {
	h.mu.Lock()

	if gen != h.gen || !h.connected {
		h.mu.Unlock()
		return
	}

	h.connected = false
	h.timer = nil
	h.mu.Unlock()

	h.logger.Warn().Dur("window", h.window).Msg("Upstream feed timed out")
	h.publish(context.Background(), false)
}

// SetDisconnected forces the disconnected state and cancels any pending
// timer. Used at shutdown.
func (h *Heartbeat) SetDisconnected(ctx context.Context) {
	h.mu.Lock()

	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}

	h.gen++
	wasConnected := h.connected
	h.connected = false
	h.mu.Unlock()

	if wasConnected {
		h.logger.Info().Msg("Upstream feed offline")
	}

	h.publish(ctx, false)
}

func (h *Heartbeat) publish(ctx context.Context, connected bool) {
	value := []byte("false")
	if connected {
		value = []byte("true")
	}

	if err := h.kvStore.Put(ctx, feedConnectedKey, value); err != nil {
		h.logger.Error().Err(err).Msg("Failed to publish feed state")
	}
}
