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

//go:generate mockgen -destination=mock_presence.go -package=presence github.com/netwatchio/presenced/pkg/presence Forwarder

// Package presence implements the ingestion and presence-tracking core:
// the record store, the device filters, the ingestion pipeline, the
// staleness sweeper and the upstream-feed heartbeat.
package presence

import (
	"context"

	"github.com/netwatchio/presenced/pkg/models"
)

// Forwarder delivers derived location updates to the places consumer.
// Failures are logged by the caller and never propagated further.
type Forwarder interface {
	Forward(ctx context.Context, instance int, update *models.LocationUpdate) error
}
