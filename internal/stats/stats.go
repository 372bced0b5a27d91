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

// Package stats serves the Prometheus metrics endpoint.
package stats

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	startTime = time.Now()

	uptime = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "qnet",
		Name:      "uptime_seconds",
		Help:      "Process uptime in seconds",
	}, func() float64 { return time.Since(startTime).Seconds() })
)

func init() {
	prometheus.MustRegister(uptime)
}

// RunMetrics runs the metrics server. It doesn't ever return.
func RunMetrics(metricsHost string, metricsPort int) {
	http.Handle("/metrics", promhttp.Handler())
	http.ListenAndServe(fmt.Sprintf("%s:%d", metricsHost, metricsPort), nil)
}
