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
	"testing"
	"time"

	"qnetd.io/internal/ping"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns a PingFunc that replays the given outcomes in
// order, where true is a successful ping and false a timeout.
func scripted(outcomes ...bool) PingFunc {
	i := 0
	return func(target string, seq uint16, timeout time.Duration) (ping.Result, error) {
		ok := outcomes[i%len(outcomes)]
		i++
		if ok {
			return ping.Success, nil
		}
		return ping.Timeout, nil
	}
}

// testVoter builds a configured voter with hand-set thresholds so
// hysteresis can be exercised with small counts.
func testVoter(onlineHits, offlineMisses int, pingFn PingFunc) *Voter {
	v := New(log.NewNopLogger())
	v.ping = pingFn
	v.mu.Lock()
	v.target = "192.0.2.1"
	v.thresholds = Thresholds{Interval: time.Millisecond, OnlineHits: onlineHits, OfflineMisses: offlineMisses}
	v.mu.Unlock()
	return v
}

// votes runs n voter cycles and records the published vote after
// each one.
func votes(t *testing.T, v *Voter, n int) []bool {
	t.Helper()
	var c counters
	out := make([]bool, 0, n)
	for i := 0; i < n; i++ {
		_, again := v.cycle(&c)
		require.True(t, again)
		out = append(out, v.IsAlive())
	}
	return out
}

func TestIsAliveBeforeConfigure(t *testing.T) {
	v := New(log.NewNopLogger())
	assert.False(t, v.IsAlive())
}

// TestHysteresisComingOnline verifies that with online_hits=3 the
// third *consecutive* success flips the vote, and that an
// intervening failure resets the run.
func TestHysteresisComingOnline(t *testing.T) {
	v := testVoter(3, 2, scripted(false, false, true, true, true))
	assert.Equal(t, []bool{false, false, false, false, true}, votes(t, v, 5))
}

func TestHysteresisCounterResetOnMiss(t *testing.T) {
	v := testVoter(3, 2, scripted(true, false, true, true, true))
	assert.Equal(t, []bool{false, false, false, false, true}, votes(t, v, 5))
}

// TestHysteresisGoingOffline verifies that an alive tiebreaker
// survives offline_misses-1 missed pings and drops on the next.
func TestHysteresisGoingOffline(t *testing.T) {
	v := testVoter(3, 2, scripted(false, false))
	v.mu.Lock()
	v.alive = true
	v.mu.Unlock()

	assert.Equal(t, []bool{true, false}, votes(t, v, 2))
}

// TestHysteresisMissRunBrokenByHit verifies that a hit inside a run
// of misses resets the miss counter.
func TestHysteresisMissRunBrokenByHit(t *testing.T) {
	v := testVoter(3, 2, scripted(false, true, false, false))
	v.mu.Lock()
	v.alive = true
	v.mu.Unlock()

	assert.Equal(t, []bool{true, true, true, false}, votes(t, v, 4))
}

// TestTargetChangeDiscardsCycle verifies that replacing the target
// between snapshot and ping completion discards the cycle without
// touching the vote or the consecutive counters.
func TestTargetChangeDiscardsCycle(t *testing.T) {
	var v *Voter
	v = testVoter(1, 1, func(target string, seq uint16, timeout time.Duration) (ping.Result, error) {
		// reconfigure behind the loop's back
		v.mu.Lock()
		v.target = "192.0.2.99"
		v.mu.Unlock()
		return ping.Success, nil
	})

	c := counters{hits: 2, misses: 2}
	interval, again := v.cycle(&c)
	assert.True(t, again)
	assert.Equal(t, time.Duration(0), interval, "discarded cycle restarts immediately")
	assert.False(t, v.IsAlive(), "vote must not move on a stale-target result")
	assert.Equal(t, counters{hits: 2, misses: 2}, c, "counters must survive a discarded cycle")
}

func TestCycleExitsWithoutTarget(t *testing.T) {
	v := New(log.NewNopLogger())
	var c counters
	_, again := v.cycle(&c)
	assert.False(t, again)
}

func TestConfigure(t *testing.T) {
	v := New(log.NewNopLogger())

	require.NoError(t, v.Configure("192.0.2.1", 10*time.Second, time.Second))
	v.mu.RLock()
	th := v.thresholds
	v.mu.RUnlock()
	assert.Equal(t, 9, th.OnlineHits)

	// a failed reconfiguration must not corrupt what's published
	assert.Error(t, v.Configure("192.0.2.1", time.Second, time.Second))
	assert.Error(t, v.Configure("", 10*time.Second, time.Second))
	v.mu.RLock()
	defer v.mu.RUnlock()
	assert.Equal(t, th, v.thresholds)
	assert.Equal(t, "192.0.2.1", v.target)
}

func TestStartStop(t *testing.T) {
	v := testVoter(1, 1, scripted(true))

	v.Start()
	require.Eventually(t, v.IsAlive, 2*time.Second, time.Millisecond,
		"single-hit threshold should flip the vote on the first cycle")

	v.Stop()
	assert.False(t, v.IsAlive(), "stop must reset the vote")
	v.mu.RLock()
	target := v.target
	v.mu.RUnlock()
	assert.Equal(t, "", target, "stop must release the target")

	// stopping a stopped voter is a no-op
	v.Stop()
}

func TestStartIdempotent(t *testing.T) {
	v := testVoter(1, 1, scripted(true))
	v.Start()
	v.Start()
	v.Stop()
}

func TestVoterExitsWhenUnconfigured(t *testing.T) {
	v := New(log.NewNopLogger())
	v.Start()

	assert.Eventually(t, func() bool {
		v.mu.RLock()
		defer v.mu.RUnlock()
		return !v.running
	}, 2*time.Second, time.Millisecond, "voter without a target exits on its own")
}
