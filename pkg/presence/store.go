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
	"strings"
	"sync"
	"time"
)

// RecordKind namespaces the persisted record keys per record type.
type RecordKind string

const (
	// KindAccessPoint prefixes access point records.
	KindAccessPoint RecordKind = "ap"
	// KindWifi prefixes Wi-Fi device records.
	KindWifi RecordKind = "wifi"
	// KindBluetooth prefixes Bluetooth device records.
	KindBluetooth RecordKind = "bt"
)

// Key builds the persistence key for a hardware address of this kind.
func (k RecordKind) Key(mac string) string {
	return string(k) + "." + SanitizeMac(mac)
}

// Prefix is the key prefix enumerating all records of this kind.
func (k RecordKind) Prefix() string {
	return string(k) + "."
}

// SanitizeMac strips the colon separators from a hardware address so it
// can be used as a key component.
func SanitizeMac(mac string) string {
	return strings.ReplaceAll(mac, ":", "")
}

// Store is the in-memory registry of known access points and devices. It
// answers membership questions so the pipeline can decide whether a
// create-if-absent call against the persistence layer is needed, and
// tracks when each key was last written. The durable copies live in the
// external KV store; this cache starts cold after a restart and is
// repopulated lazily on first write.
type Store struct {
	mu   sync.Mutex
	seen map[RecordKind]map[string]time.Time
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{
		seen: map[RecordKind]map[string]time.Time{
			KindAccessPoint: {},
			KindWifi:        {},
			KindBluetooth:   {},
		},
	}
}

// Known reports whether a record of this kind has been written before.
func (s *Store) Known(kind RecordKind, mac string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[kind][SanitizeMac(mac)]

	return ok
}

// Mark records that a record of this kind was just written.
func (s *Store) Mark(kind RecordKind, mac string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[kind][SanitizeMac(mac)] = time.Now()
}

// LastMarked returns when a record was last written, if ever.
func (s *Store) LastMarked(kind RecordKind, mac string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.seen[kind][SanitizeMac(mac)]

	return t, ok
}
