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
	"fmt"
	"regexp"
	"strings"

	"github.com/netwatchio/presenced/pkg/models"
)

// Rejection reasons reported by the filter.
const (
	ReasonOffline         = "offline"
	ReasonPatternMismatch = "pattern mismatch"
)

// Filter decides whether an observed device should be recorded. It is
// built once from the configuration and safe for concurrent use; a nil
// pattern matches everything.
type Filter struct {
	connectedOnly bool
	wifiPattern   *regexp.Regexp
	btPattern     *regexp.Regexp
}

// NewFilter compiles the configured patterns.
func NewFilter(cfg *models.CoreConfig) (*Filter, error) {
	f := &Filter{connectedOnly: cfg.ConnectedOnly == nil || *cfg.ConnectedOnly}

	var err error

	if cfg.Wifi.Pattern != "" {
		f.wifiPattern, err = regexp.Compile(cfg.Wifi.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid wifi pattern: %w", err)
		}
	}

	if cfg.Bluetooth.Pattern != "" {
		f.btPattern, err = regexp.Compile(cfg.Bluetooth.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid bluetooth pattern: %w", err)
		}
	}

	return f, nil
}

// IsConnected reports the connectivity invariant: a device counts as
// connected while it holds an SSID and at least one IP address.
func IsConnected(obs *models.Observation) bool {
	return obs.SSID != nil && (obs.IPv4 != nil || obs.IPv6 != nil)
}

// CheckWifi applies the connectivity requirement and then the pattern
// match, in that order. It returns whether the observation should be
// processed and, if not, the concrete reason.
func (f *Filter) CheckWifi(obs *models.Observation) (bool, string) {
	if f.connectedOnly && !IsConnected(obs) {
		return false, ReasonOffline
	}

	if f.wifiPattern != nil && !f.wifiPattern.MatchString(WifiDescriptor(obs)) {
		return false, ReasonPatternMismatch
	}

	return true, ""
}

// CheckBluetooth applies the Bluetooth pattern match.
func (f *Filter) CheckBluetooth(obs *models.Observation) (bool, string) {
	if f.btPattern != nil && !f.btPattern.MatchString(BluetoothDescriptor(obs)) {
		return false, ReasonPatternMismatch
	}

	return true, ""
}

// WifiDescriptor builds the canonical descriptor string patterns match
// against. Field order is fixed; absent fields render empty.
func WifiDescriptor(obs *models.Observation) string {
	return fmt.Sprintf("clientMac:%s,ipv4:%s,ipv6:%s,ssid:%s,os:%s,manufacturer:%s",
		obs.ClientMac,
		stripAddrPrefix(obs.IPv4),
		stripAddrPrefix(obs.IPv6),
		deref(obs.SSID),
		deref(obs.OS),
		deref(obs.Manufacturer))
}

// BluetoothDescriptor is the Bluetooth counterpart; only the hardware
// address is available to match on.
func BluetoothDescriptor(obs *models.Observation) string {
	return "clientMac:" + obs.ClientMac
}

// stripAddrPrefix drops the "/" the scanning API prefixes IP addresses with.
func stripAddrPrefix(addr *string) string {
	if addr == nil {
		return ""
	}

	return strings.TrimPrefix(*addr, "/")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
