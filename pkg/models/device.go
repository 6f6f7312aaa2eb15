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

package models

import "encoding/json"

// AccessPoint is the record kept per reporting access point. Tags, floors
// and the update timestamp are overwritten on every report that references
// the AP; access points are never deleted during normal operation.
type AccessPoint struct {
	Mac        string   `json:"mac"`
	Tags       []string `json:"tags,omitempty"`
	Floors     []string `json:"floors,omitempty"`
	LastUpdate int64    `json:"last_update"`
}

// WifiDevice is the presence record for one Wi-Fi client. Every scalar
// field is overwritten on each accepted observation. Connected holds only
// while an SSID and at least one IP address were present in the most
// recent accepted observation; the sweeper may later force it to false
// without a new observation.
type WifiDevice struct {
	ClientMac    string          `json:"client_mac"`
	IPv4         string          `json:"ipv4,omitempty"`
	IPv6         string          `json:"ipv6,omitempty"`
	SSID         string          `json:"ssid,omitempty"`
	Rssi         int             `json:"rssi"`
	OS           string          `json:"os,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	SeenTime     int64           `json:"seen_time"`
	Connected    bool            `json:"connected"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	Accuracy     *float64        `json:"accuracy,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// BluetoothDevice is the presence record for one Bluetooth client.
// Visible plays the role Connected plays for Wi-Fi.
type BluetoothDevice struct {
	ClientMac string          `json:"client_mac"`
	Rssi      int             `json:"rssi"`
	SeenTime  int64           `json:"seen_time"`
	Visible   bool            `json:"visible"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	Accuracy  *float64        `json:"accuracy,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// LocationUpdate is the message forwarded to the places consumer.
type LocationUpdate struct {
	User      string  `json:"user"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}
