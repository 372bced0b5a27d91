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

// Command qping is a minimal ICMP echo client built on the same
// engine qnetd uses for its tiebreaker. It pings one host once per
// second and prints the outcome of each attempt, which makes it handy
// for checking whether a candidate tiebreaker address actually
// answers from a given node (raw sockets need root or CAP_NET_RAW, so
// a plain ping(8) succeeding is not proof that qnetd can do it).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qnetd.io/internal/ping"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Second, "how long to wait for each echo reply (0 blocks forever)")
	interval := flag.Duration("interval", time.Second, "pause between echo requests")
	count := flag.Int("count", 0, "stop after this many requests (0 means run until interrupted)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] host\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	host := flag.Arg(0)

	addr, result, err := ping.DefaultResolver.Resolve(host)
	if result != ping.Success {
		fmt.Fprintf(os.Stderr, "%s: %s\n", host, ping.Describe(result, err))
		os.Exit(1)
	}

	sock, err := ping.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer sock.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("PING %s (%s)\n", host, addr)

	var sent, received int
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	seq := uint16(1)
loop:
	for {
		start := time.Now()
		result, err := sock.Ping(addr, seq, *timeout)
		sent++

		switch result {
		case ping.Success:
			received++
			fmt.Printf("reply from %s: seq=%d time=%v\n", addr, seq, time.Since(start).Round(time.Microsecond))
		default:
			fmt.Printf("from %s: seq=%d %s\n", addr, seq, ping.Describe(result, err))
		}

		// A signal during a blocked attempt surfaces as an
		// interrupted wait; don't start another attempt on it.
		select {
		case <-sigCh:
			break loop
		default:
		}

		if *count > 0 && sent >= *count {
			break
		}
		seq++

		select {
		case <-sigCh:
			break loop
		case <-ticker.C:
		}
	}

	fmt.Printf("\n--- %s ping statistics ---\n", host)
	fmt.Printf("%d packets transmitted, %d received, %.0f%% packet loss\n",
		sent, received, 100*float64(sent-received)/float64(sent))
	if received == 0 {
		os.Exit(1)
	}
}
