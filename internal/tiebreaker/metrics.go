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

import "github.com/prometheus/client_golang/prometheus"

const subsystem = "tiebreaker"

var (
	// voteAlive is 1 while the published vote says the tiebreaker is
	// reachable, 0 otherwise.
	voteAlive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "qnet",
		Subsystem: subsystem,
		Name:      "alive_bool",
		Help:      "1 if the tiebreaker is currently voted alive, 0 otherwise",
	})

	// transitions counts hysteresis state changes by direction.
	transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qnet",
		Subsystem: subsystem,
		Name:      "transitions_total",
		Help:      "Total number of tiebreaker online/offline transitions",
	}, []string{"direction"})
)

func init() {
	prometheus.MustRegister(voteAlive)
	prometheus.MustRegister(transitions)
}

func recordVote(alive bool) {
	if alive {
		voteAlive.Set(1)
	} else {
		voteAlive.Set(0)
	}
}

func recordTransition(direction string) {
	transitions.WithLabelValues(direction).Inc()
}
