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

package main

import (
	"sync/atomic"
	"time"

	"qnetd.io/internal/cluster"
	"qnetd.io/internal/logging"
	"qnetd.io/internal/tiebreaker"

	"github.com/go-kit/log"
)

// controller is the quorum-device driver: each poll it combines the
// cluster's member count with the tiebreaker vote and advertises the
// result.
type controller struct {
	logger   log.Logger
	voter    *tiebreaker.Voter
	members  *cluster.Membership
	interval time.Duration

	// allowSoft permits one node plus the tiebreaker to form a
	// quorum. Toggled at runtime by SIGUSR1, hence atomic.
	allowSoft int32
}

func newController(logger log.Logger, voter *tiebreaker.Voter, members *cluster.Membership, interval time.Duration, allowSoft bool) *controller {
	c := &controller{
		logger:   logger,
		voter:    voter,
		members:  members,
		interval: interval,
	}
	if allowSoft {
		c.allowSoft = 1
	}
	return c
}

func (c *controller) softAllowed() bool {
	return atomic.LoadInt32(&c.allowSoft) == 1
}

func (c *controller) toggleSoft() {
	for {
		old := atomic.LoadInt32(&c.allowSoft)
		if atomic.CompareAndSwapInt32(&c.allowSoft, old, 1-old) {
			logging.Info(c.logger, "op", "toggleSoft", "allow-soft", old == 0)
			return
		}
	}
}

// run polls until stopCh closes.
func (c *controller) run(stopCh chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		quorum := c.members.Quorate()
		count := c.members.NumMembers()
		haveNet := c.voter.IsAlive()

		quorum = decide(quorum, haveNet, count, c.softAllowed())

		if err := c.members.SetQuorumVote(quorum); err != nil {
			logging.Error(c.logger, "op", "poll", "error", err, "msg", "failed to publish quorum vote")
		}
		logging.Debug(c.logger, "op", "poll", "members", count, "tiebreaker", haveNet,
			"quorum", quorum, "cluster-votes", c.members.QuorumVotes())
	}
}

// decide combines the member-count quorum with the tiebreaker vote.
// The tiebreaker only matters to a lone node: it keeps a quorate
// single survivor quorate (or, with allowSoft, lets a lone node form
// a quorum), and strips quorum from a lone node that lost the
// network.
func decide(quorate, haveNet bool, count int, allowSoft bool) bool {
	if !quorate {
		if haveNet && count == 1 && allowSoft {
			return true
		}
		return false
	}
	if !haveNet && count == 1 {
		return false
	}
	return true
}
