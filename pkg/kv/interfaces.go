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

//go:generate mockgen -destination=mock_kv.go -package=kv github.com/netwatchio/presenced/pkg/kv KVStore

// Package kv abstracts the platform state store backing presence records.
package kv

import "context"

// KVStore is the persistence interface the presence core writes through.
type KVStore interface {
	// Get retrieves the value associated with the given key. The boolean
	// reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores a value under the given key, overwriting any previous
	// value. Concurrent writers to the same key are serialized by the
	// backend; last write wins.
	Put(ctx context.Context, key string, value []byte) error

	// Create stores a value only if the key does not exist yet. A key
	// that already exists is not an error.
	Create(ctx context.Context, key string, value []byte) error

	// Keys lists all keys starting with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the key and its associated value from the store.
	Delete(ctx context.Context, key string) error

	// Close shuts down the KV store, releasing any resources.
	Close() error
}
