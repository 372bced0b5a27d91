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

// qnetd is a network quorum tiebreaker daemon. It continuously pings
// a designated external address (typically the upstream router) and
// advertises the resulting liveness vote to the cluster, letting an
// evenly split cluster break the tie by asking "who can still see
// the network?".
package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qnetd.io/internal/cluster"
	"qnetd.io/internal/config"
	"qnetd.io/internal/logging"
	"qnetd.io/internal/netpath"
	"qnetd.io/internal/ping"
	"qnetd.io/internal/stats"
	"qnetd.io/internal/tiebreaker"

	"github.com/go-kit/log"
)

func main() {
	logger := logging.Init()

	var (
		configFile  = flag.String("config", os.Getenv("QNETD_CONFIG"), "path to an optional YAML configuration file")
		target      = flag.String("tiebreaker", os.Getenv("QNETD_TIEBREAKER"), "tiebreaker IP address or hostname (typically the upstream router)")
		token       = flag.Duration("token", config.DefaultTokenTimeout, "cluster token (failover) timeout")
		interval    = flag.Duration("interval", config.DefaultPingInterval, "starting ping interval hint")
		allowSoft   = flag.Bool("allow-soft", false, "make one node plus the tiebreaker sufficient to form a quorum (DANGEROUS)")
		nodeName    = flag.String("node-name", os.Getenv("QNETD_NODE_NAME"), "this node's cluster member name (defaults to the hostname)")
		bindAddr    = flag.String("bind-addr", "", "gossip bind address")
		bindPort    = flag.Int("bind-port", 0, "gossip bind port")
		join        = flag.String("join", os.Getenv("QNETD_JOIN"), "comma-separated peer addresses to join at startup")
		expected    = flag.Int("expected-nodes", 0, "full cluster size for the majority calculation")
		metricsHost = flag.String("metrics-host", os.Getenv("QNETD_HOST"), "HTTP host address for Prometheus metrics")
		metricsPort = flag.Int("metrics-port", 0, "HTTP listening port for Prometheus metrics")
	)
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logging.Error(logger, "op", "startup", "error", err, "msg", "failed to load configuration file")
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given on the command line (and the env-seeded string
	// flags) override the file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["tiebreaker"] || *target != "" {
		cfg.Tiebreaker = *target
	}
	if set["token"] {
		cfg.TokenTimeout = *token
	}
	if set["interval"] {
		cfg.PingInterval = *interval
	}
	if set["allow-soft"] {
		cfg.AllowSoft = *allowSoft
	}
	if set["node-name"] || *nodeName != "" {
		cfg.NodeName = *nodeName
	}
	if set["bind-addr"] {
		cfg.BindAddr = *bindAddr
	}
	if set["bind-port"] {
		cfg.BindPort = *bindPort
	}
	if set["join"] || *join != "" {
		cfg.Join = strings.Split(*join, ",")
	}
	if set["expected-nodes"] {
		cfg.ExpectedNodes = *expected
	}
	if set["metrics-host"] || *metricsHost != "" {
		cfg.MetricsHost = *metricsHost
	}
	if set["metrics-port"] {
		cfg.MetricsPort = *metricsPort
	}

	if err := cfg.Validate(); err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "invalid configuration")
		os.Exit(1)
	}

	// Fail now, not at the first ping, if we can't open a raw
	// socket.
	if sock, err := ping.Open(); err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "raw ICMP socket unavailable")
		os.Exit(1)
	} else {
		sock.Close()
	}

	logTiebreakerPath(logger, cfg.Tiebreaker)

	stopCh := make(chan struct{})
	go func() {
		c1 := make(chan os.Signal, 1)
		signal.Notify(c1, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		<-c1
		logging.Info(logger, "op", "shutdown", "msg", "signal received, initiating shutdown")
		signal.Stop(c1)
		close(stopCh)
	}()

	voter := tiebreaker.New(logger)
	if err := voter.Configure(cfg.Tiebreaker, cfg.TokenTimeout, cfg.PingInterval); err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to configure tiebreaker")
		os.Exit(1)
	}
	voter.Start()

	members, err := cluster.New(&cluster.Config{
		NodeName:      cfg.NodeName,
		BindAddr:      cfg.BindAddr,
		BindPort:      cfg.BindPort,
		ExpectedNodes: cfg.ExpectedNodes,
		Logger:        logger,
		StopCh:        stopCh,
	})
	if err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to create cluster membership")
		voter.Stop()
		os.Exit(1)
	}
	if err := members.Join(cfg.Join); err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to join cluster peers")
	}

	go stats.RunMetrics(cfg.MetricsHost, cfg.MetricsPort)

	ctrl := newController(logger, voter, members, cfg.PingInterval, cfg.AllowSoft)

	// SIGUSR1 toggles allow-soft at runtime.
	go func() {
		c2 := make(chan os.Signal, 1)
		signal.Notify(c2, syscall.SIGUSR1)
		for range c2 {
			ctrl.toggleSoft()
		}
	}()

	// the controller doesn't return until it's time to shut down
	ctrl.run(stopCh)

	shutdownSequence(logger, members, voter)
	logging.Info(logger, "op", "shutdown", "msg", "graceful shutdown complete")
}

type memberLeaver interface {
	Shutdown() error
}

type voteStopper interface {
	Stop()
}

// shutdownSequence leaves the cluster first and only then stops the
// voter: the leave broadcast must be on the wire before the process
// can exit, or peers see a node failure instead of a clean departure.
func shutdownSequence(logger log.Logger, members memberLeaver, voter voteStopper) {
	if err := members.Shutdown(); err != nil {
		logging.Error(logger, "op", "shutdown", "error", err, "msg", "failed to leave cluster")
	}
	voter.Stop()
}

// logTiebreakerPath reports which interface carries pings to the
// tiebreaker. Diagnostics only; a tiebreaker we can't route to today
// simply accumulates misses until someone fixes the network.
func logTiebreakerPath(logger log.Logger, target string) {
	ip := net.ParseIP(target)
	if ip == nil {
		// A hostname; don't stall startup on the resolver. The
		// default route is the best guess for where pings will go.
		link, err := netpath.DefaultInterface(netpath.AddrFamily(net.IPv4zero))
		if err != nil {
			logging.Error(logger, "op", "startup", "tiebreaker", target, "error", err, "msg", "no default route")
			return
		}
		logging.Info(logger, "op", "startup", "tiebreaker", target, "interface", link.Attrs().Name,
			"msg", "tiebreaker path (default route)")
		return
	}

	link, err := netpath.EgressLink(ip)
	if err != nil {
		logging.Error(logger, "op", "startup", "tiebreaker", target, "error", err, "msg", "no route to tiebreaker")
		return
	}
	logging.Info(logger, "op", "startup", "tiebreaker", target, "interface", link.Attrs().Name,
		"local-subnet", netpath.OnLocalSubnet(link, ip), "msg", "tiebreaker path")
}
