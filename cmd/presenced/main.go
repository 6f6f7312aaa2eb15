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

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/netwatchio/presenced/pkg/config"
	"github.com/netwatchio/presenced/pkg/kv"
	"github.com/netwatchio/presenced/pkg/lifecycle"
	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/metrics"
	"github.com/netwatchio/presenced/pkg/models"
	"github.com/netwatchio/presenced/pkg/places"
	"github.com/netwatchio/presenced/pkg/presence"
	"github.com/netwatchio/presenced/pkg/receiver"
)

func main() {
	configPath := flag.String("config", "/etc/presenced/presenced.json", "Path to config file")
	flag.Parse()

	ctx := context.Background()

	var cfg models.CoreConfig

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name("presenced"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		logg.Fatal().Err(err).Str("url", cfg.NatsURL).Msg("Failed to connect to NATS")
	}
	defer nc.Close()

	kvStore, err := kv.NewNatsStore(ctx, nc, cfg.KVBucket)
	if err != nil {
		logg.Fatal().Err(err).Str("bucket", cfg.KVBucket).Msg("Failed to open KV bucket")
	}

	var forwarder presence.Forwarder
	if cfg.Wifi.ForwardToPlaces || cfg.Bluetooth.ForwardToPlaces {
		forwarder = places.NewNatsForwarder(nc, logg)
	}

	m := metrics.NewMetrics()
	heartbeat := presence.NewHeartbeat(time.Duration(cfg.FeedTimeout), kvStore, logg)
	store := presence.NewStore()

	tracker, err := presence.NewTracker(&cfg, store, kvStore, forwarder, heartbeat, m, logg)
	if err != nil {
		logg.Fatal().Err(err).Msg("Failed to build ingestion pipeline")
	}

	sweeper := presence.NewSweeper(&cfg, kvStore, forwarder, m, logg)
	rcv := receiver.New(&cfg, tracker, m, logg)

	opts := &lifecycle.Options{
		Receiver:  rcv,
		Sweeper:   sweeper,
		Heartbeat: heartbeat,
		KV:        kvStore,
		Logger:    logg,
	}

	if err := lifecycle.Run(ctx, opts); err != nil {
		logg.Fatal().Err(err).Msg("Server failed")
	}
}
