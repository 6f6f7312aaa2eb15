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

// Package places delivers derived location updates to the downstream
// places consumer over NATS.
package places

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/models"
)

const subjectFormat = "places.%d.location"

// NatsForwarder publishes location updates to places.<instance>.location.
// Delivery is fire-and-forget: NATS core publish offers no receipt, which
// matches the at-most-once contract of the consumer boundary.
type NatsForwarder struct {
	nc     *nats.Conn
	logger logger.Logger
}

// NewNatsForwarder wraps an existing NATS connection.
func NewNatsForwarder(nc *nats.Conn, log logger.Logger) *NatsForwarder {
	return &NatsForwarder{nc: nc, logger: log}
}

// Forward publishes one location update to the given consumer instance.
func (f *NatsForwarder) Forward(_ context.Context, instance int, update *models.LocationUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal location update: %w", err)
	}

	subject := SubjectFor(instance)

	if err := f.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	f.logger.Debug().
		Str("subject", subject).
		Str("user", update.User).
		Msg("Forwarded location update")

	return nil
}

// SubjectFor returns the publish subject for a consumer instance.
func SubjectFor(instance int) string {
	return fmt.Sprintf(subjectFormat, instance)
}
