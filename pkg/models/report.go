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

// Package models defines the shared data model for presenced.
package models

// ReportType identifies the kind of observation batch carried by a report.
type ReportType string

const (
	// ReportDevicesSeen carries Wi-Fi client observations.
	ReportDevicesSeen ReportType = "DevicesSeen"
	// ReportBluetoothDevicesSeen carries Bluetooth client observations.
	ReportBluetoothDevicesSeen ReportType = "BluetoothDevicesSeen"
)

// Report is one inbound scanning-API push: an envelope carrying the shared
// secret and a batch of observations originating from one access point.
type Report struct {
	Version string      `json:"version,omitempty"`
	Secret  string      `json:"secret,omitempty"`
	Type    ReportType  `json:"type"`
	Data    *ReportData `json:"data,omitempty"`
}

// ReportData is the payload of a report.
type ReportData struct {
	ApMac        string        `json:"apMac"`
	ApTags       []string      `json:"apTags,omitempty"`
	ApFloors     []string      `json:"apFloors,omitempty"`
	Observations []Observation `json:"observations,omitempty"`
}

// Location is a reported device position.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Unc float64 `json:"unc"`
}

// Observation is a single device sighting within a report. Wi-Fi and
// Bluetooth observations share one wire shape; the Bluetooth variant only
// populates ClientMac, Rssi, SeenEpoch and Location. Optional fields are
// pointers so that "absent" and "empty" stay distinguishable: the
// connectivity check depends on that distinction.
type Observation struct {
	ClientMac    string    `json:"clientMac"`
	IPv4         *string   `json:"ipv4,omitempty"`
	IPv6         *string   `json:"ipv6,omitempty"`
	SSID         *string   `json:"ssid,omitempty"`
	OS           *string   `json:"os,omitempty"`
	Manufacturer *string   `json:"manufacturer,omitempty"`
	Rssi         int       `json:"rssi"`
	SeenTime     string    `json:"seenTime,omitempty"`
	SeenEpoch    int64     `json:"seenEpoch"`
	Location     *Location `json:"location,omitempty"`
}
