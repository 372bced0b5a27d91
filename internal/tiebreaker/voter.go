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
	"errors"
	"sync"
	"time"

	"qnetd.io/internal/logging"
	"qnetd.io/internal/ping"

	"github.com/go-kit/log"
)

// DefaultPingTimeout bounds each ping attempt. It is deliberately
// independent of the cadence interval and of the derived thresholds:
// one slow attempt must not stall the voter loop.
const DefaultPingTimeout = 1 * time.Second

// PingFunc sends one ping and reports the outcome. Swappable so the
// hysteresis machine can be tested without raw sockets.
type PingFunc func(target string, seq uint16, timeout time.Duration) (ping.Result, error)

// Voter is the liveness voter: a background loop that pings the
// tiebreaker at a derived cadence and publishes a single boolean
// vote. Construct with New, then Configure, Start, and read the vote
// with IsAlive from any goroutine.
type Voter struct {
	logger      log.Logger
	pingTimeout time.Duration
	ping        PingFunc

	// mu guards the shared record below. It is never held across a
	// ping or a sleep.
	mu         sync.RWMutex
	target     string
	thresholds Thresholds
	alive      bool
	running    bool
	stopCh     chan struct{}
	done       chan struct{}
}

// New returns a stopped, unconfigured Voter.
func New(logger log.Logger) *Voter {
	return &Voter{
		logger:      logger,
		pingTimeout: DefaultPingTimeout,
		ping:        ping.HostOnce,
	}
}

// Configure sets (or replaces) the tiebreaker target and re-derives
// the cadence and hysteresis thresholds from the cluster's token
// timeout. It may be called before or while the voter runs. On
// error, nothing previously configured is disturbed.
func (v *Voter) Configure(target string, token, base time.Duration) error {
	if target == "" {
		return errors.New("no tiebreaker address configured")
	}

	th, err := DeriveThresholds(token, base)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.target = target
	v.thresholds = th
	v.mu.Unlock()

	logging.Info(v.logger, "op", "configure", "target", target,
		"interval", th.Interval, "online", th.OnlineHits, "offline", th.OfflineMisses)
	return nil
}

// IsAlive reports the published vote. Non-blocking, safe at any
// time; false before the first Configure.
func (v *Voter) IsAlive() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.alive
}

// Start launches the voter loop. A voter that is already running is
// left alone. Configure must have been called at least once or the
// loop exits immediately.
func (v *Voter) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.running {
		return
	}
	v.running = true
	v.stopCh = make(chan struct{})
	v.done = make(chan struct{})
	go v.run(v.stopCh, v.done)
}

// Stop asks the voter loop to exit and waits for it to finish its
// cleanup: the vote is reset to false and the target released. Safe
// to call on a stopped voter.
func (v *Voter) Stop() {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return
	}
	v.running = false
	stopCh, done := v.stopCh, v.done
	v.mu.Unlock()

	close(stopCh)
	<-done
}

// counters holds the loop-local consecutive hit/miss counts. They
// belong to the voter goroutine alone and are never shared.
type counters struct {
	hits   int
	misses int
}

func (v *Voter) run(stopCh, done chan struct{}) {
	defer close(done)
	defer v.cleanup()

	var c counters
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		interval, again := v.cycle(&c)
		if !again {
			return
		}
		if interval == 0 {
			// target changed mid-cycle; retry right away
			continue
		}

		t := time.NewTimer(interval)
		select {
		case <-stopCh:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// cycle runs one voter iteration: snapshot, ping, hysteresis,
// publish. It returns the cadence to sleep before the next cycle and
// whether the loop should keep going. A zero cadence with again=true
// means the cycle was discarded (target replaced mid-ping) and the
// vote was not touched.
func (v *Voter) cycle(c *counters) (time.Duration, bool) {
	v.mu.RLock()
	target, th, wasAlive := v.target, v.thresholds, v.alive
	v.mu.RUnlock()

	if target == "" {
		return 0, false
	}

	result, err := v.ping(target, 0, v.pingTimeout)
	alive := result == ping.Success

	v.mu.RLock()
	changed := v.target != target
	v.mu.RUnlock()
	if changed {
		// The result was obtained against a now-stale target. Don't
		// vote on it, and leave the counters alone.
		logging.Debug(v.logger, "op", "vote", "target", target, "msg", "tiebreaker replaced during ping, discarding cycle")
		return 0, true
	}

	if alive {
		// A hit breaks any run of misses: OfflineMisses counts
		// *consecutive* failures.
		c.misses = 0
	} else {
		// Likewise a miss breaks any run of hits.
		c.hits = 0
	}

	switch {
	case wasAlive && !alive:
		c.misses++
		if c.misses < th.OfflineMisses {
			alive = true
			logging.Debug(v.logger, "op", "vote", "target", target, "msg", "missed ping",
				"miss", c.misses, "of", th.OfflineMisses, "reason", ping.Describe(result, err))
		} else {
			c.misses = 0
			recordTransition("offline")
			logging.Info(v.logger, "op", "vote", "target", target, "msg", "tiebreaker offline",
				"reason", ping.Describe(result, err))
		}

	case !wasAlive && alive:
		c.hits++
		if c.hits < th.OnlineHits {
			alive = false
		} else {
			c.hits, c.misses = 0, 0
			recordTransition("online")
			logging.Info(v.logger, "op", "vote", "target", target, "msg", "tiebreaker online")
		}
	}

	v.mu.Lock()
	v.alive = alive
	v.mu.Unlock()
	recordVote(alive)

	return th.Interval, true
}

func (v *Voter) cleanup() {
	v.mu.Lock()
	v.alive = false
	v.target = ""
	v.running = false
	v.mu.Unlock()
	recordVote(false)
	logging.Info(v.logger, "op", "vote", "msg", "voter stopped")
}
