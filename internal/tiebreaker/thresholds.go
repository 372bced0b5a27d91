// Copyright 2024 the qnetd authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tiebreaker

import (
	"fmt"
	"time"
)

// minTokenTimeout is the floor below which IP-based tiebreaking is
// meaningless: the cluster would fail over faster than we can tell a
// dead tiebreaker from a slow one.
const minTokenTimeout = 2 * time.Second

// Thresholds holds the ping cadence and the consecutive-attempt
// counts that gate vote transitions.
type Thresholds struct {
	// Interval is the pause between ping cycles.
	Interval time.Duration
	// OnlineHits is the number of consecutive successful pings
	// required to declare the tiebreaker alive.
	OnlineHits int
	// OfflineMisses is the number of consecutive failed pings
	// required to declare the tiebreaker dead.
	OfflineMisses int
}

// DeriveThresholds sizes the voter's cadence and hysteresis counters
// relative to the cluster's failover (token) timeout. Declaring the
// tiebreaker online must take longer than the failover window so the
// vote never flips to alive while the cluster itself is unstable;
// declaring it offline must complete well inside the window, leaving
// room for ping round-trip lag.
func DeriveThresholds(token, base time.Duration) (Thresholds, error) {
	if token < minTokenTimeout {
		return Thresholds{}, fmt.Errorf("failover time %v too fast for IP-based tiebreaker", token)
	}

	tko := int(token / base)

	// Declare-online time must exceed the failover window.
	onlineTime := token + 3*base

	// Declare-offline time must be well under it.
	offlineTime := base * time.Duration(((tko&^1)-1)/2)

	// Slow the steady-state ping rate slightly.
	interval := base * 4 / 3

	return Thresholds{
		Interval:      interval,
		OnlineHits:    int(onlineTime / interval),
		OfflineMisses: int(offlineTime / interval),
	}, nil
}
