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

package ping

import "github.com/prometheus/client_golang/prometheus"

const subsystem = "ping"

var (
	// echoSent counts echo requests put on the wire.
	echoSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "qnet",
		Subsystem: subsystem,
		Name:      "echo_requests_total",
		Help:      "Total number of ICMP echo requests sent",
	})

	// results counts ping attempts by outcome.
	results = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qnet",
		Subsystem: subsystem,
		Name:      "results_total",
		Help:      "Total number of ping attempts by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(echoSent)
	prometheus.MustRegister(results)
}

func recordSent() {
	echoSent.Inc()
}

func recordResult(r Result) {
	results.WithLabelValues(r.String()).Inc()
}
