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

package cluster

import "github.com/prometheus/client_golang/prometheus"

const subsystem = "cluster"

var (
	// memberCount tracks the current number of live cluster members.
	memberCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "qnet",
		Subsystem: subsystem,
		Name:      "member_count",
		Help:      "Current number of live cluster members",
	})

	// quorumVote is 1 while this node asserts its quorum-device
	// vote, 0 while it retracts it.
	quorumVote = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "qnet",
		Subsystem: subsystem,
		Name:      "quorum_vote_bool",
		Help:      "1 if this node currently asserts the quorum device vote, 0 otherwise",
	})
)

func init() {
	prometheus.MustRegister(memberCount)
	prometheus.MustRegister(quorumVote)
}

func recordMemberCount(count int) {
	memberCount.Set(float64(count))
}

func recordQuorumVote(vote bool) {
	if vote {
		quorumVote.Set(1)
	} else {
		quorumVote.Set(0)
	}
}
