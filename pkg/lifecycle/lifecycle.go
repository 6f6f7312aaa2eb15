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

// Package lifecycle runs the service and handles graceful shutdown.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netwatchio/presenced/pkg/kv"
	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/presence"
	"github.com/netwatchio/presenced/pkg/receiver"
)

const shutdownTimeout = 10 * time.Second

// Options collects the wired components Run manages.
type Options struct {
	Receiver  *receiver.Receiver
	Sweeper   *presence.Sweeper
	Heartbeat *presence.Heartbeat
	KV        kv.KVStore
	Logger    logger.Logger
}

// Run starts the receiver and the sweep loop, then blocks until a
// termination signal arrives or the receiver fails. On shutdown every
// known device is force-flagged offline and the feed state is published
// as disconnected, so downstream consumers never see a vanished process
// as a building full of present devices.
func Run(ctx context.Context, opts *Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Receiver.Start()
	}()

	opts.Sweeper.Start(ctx)

	opts.Logger.Info().Msg("Waiting for first scanning-API data delivery")

	select {
	case sig := <-sigCh:
		opts.Logger.Info().Str("signal", sig.String()).Msg("Shutting down scanning-API receiver")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("receiver failed: %w", err)
		}
	}

	shutdown(opts)

	return nil
}

func shutdown(opts *Options) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := opts.Receiver.Shutdown(ctx); err != nil {
		opts.Logger.Error().Err(err).Msg("Failed to shut down receiver cleanly")
	}

	opts.Sweeper.Stop()
	opts.Sweeper.Sweep(ctx, true)
	opts.Heartbeat.SetDisconnected(ctx)

	if err := opts.KV.Close(); err != nil {
		opts.Logger.Error().Err(err).Msg("Failed to close KV store")
	}

	opts.Logger.Info().Msg("Shutdown complete")
}
