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

// Package config provides code for parsing and validating the
// daemon's configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultTokenTimeout is the assumed cluster failover window
	// when none is given.
	DefaultTokenTimeout = 10 * time.Second
	// DefaultPingInterval is the starting ping interval hint.
	DefaultPingInterval = 1 * time.Second

	// MinTokenTimeout is the smallest failover window worth pairing
	// with an IP tiebreaker.
	MinTokenTimeout = 5 * time.Second
	// MinPingInterval keeps the tiebreaker from being flooded.
	MinPingInterval = 250 * time.Millisecond
)

// Config is a parsed and validated qnetd configuration.
type Config struct {
	// Tiebreaker is the IP address or hostname whose reachability
	// casts the deciding vote, typically the upstream router.
	Tiebreaker string
	// TokenTimeout is the cluster's failover (token) timeout.
	TokenTimeout time.Duration
	// PingInterval is the starting ping interval hint; the voter
	// derives its actual cadence from it.
	PingInterval time.Duration
	// AllowSoft permits one node plus the tiebreaker to form a
	// quorum. Dangerous: a partitioned node that can still see the
	// tiebreaker will consider itself quorate.
	AllowSoft bool

	// NodeName is this node's cluster member name.
	NodeName string
	// BindAddr/BindPort is the gossip listener.
	BindAddr string
	BindPort int
	// Join lists peer addresses to connect to at startup.
	Join []string
	// ExpectedNodes is the full cluster size used for the majority
	// calculation.
	ExpectedNodes int

	MetricsHost string
	MetricsPort int
}

// Default returns the built-in configuration. The tiebreaker has no
// default; it must be supplied.
func Default() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		TokenTimeout:  DefaultTokenTimeout,
		PingInterval:  DefaultPingInterval,
		NodeName:      hostname,
		BindAddr:      "0.0.0.0",
		BindPort:      7946,
		ExpectedNodes: 2,
		MetricsPort:   7472,
	}
}

// fileConfig mirrors Config for the YAML file. Fields are pointers
// so absent keys keep their defaults; durations are strings in Go
// duration syntax.
type fileConfig struct {
	Tiebreaker    *string  `yaml:"tiebreaker"`
	TokenTimeout  *string  `yaml:"token-timeout"`
	PingInterval  *string  `yaml:"ping-interval"`
	AllowSoft     *bool    `yaml:"allow-soft"`
	NodeName      *string  `yaml:"node-name"`
	BindAddr      *string  `yaml:"bind-addr"`
	BindPort      *int     `yaml:"bind-port"`
	Join          []string `yaml:"join"`
	ExpectedNodes *int     `yaml:"expected-nodes"`
	MetricsHost   *string  `yaml:"metrics-host"`
	MetricsPort   *int     `yaml:"metrics-port"`
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw, path)
}

func parse(raw []byte, path string) (*Config, error) {
	var f fileConfig
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := Default()
	if f.Tiebreaker != nil {
		cfg.Tiebreaker = *f.Tiebreaker
	}
	if f.TokenTimeout != nil {
		d, err := time.ParseDuration(*f.TokenTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: token-timeout: %w", path, err)
		}
		cfg.TokenTimeout = d
	}
	if f.PingInterval != nil {
		d, err := time.ParseDuration(*f.PingInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: ping-interval: %w", path, err)
		}
		cfg.PingInterval = d
	}
	if f.AllowSoft != nil {
		cfg.AllowSoft = *f.AllowSoft
	}
	if f.NodeName != nil {
		cfg.NodeName = *f.NodeName
	}
	if f.BindAddr != nil {
		cfg.BindAddr = *f.BindAddr
	}
	if f.BindPort != nil {
		cfg.BindPort = *f.BindPort
	}
	if f.Join != nil {
		cfg.Join = f.Join
	}
	if f.ExpectedNodes != nil {
		cfg.ExpectedNodes = *f.ExpectedNodes
	}
	if f.MetricsHost != nil {
		cfg.MetricsHost = *f.MetricsHost
	}
	if f.MetricsPort != nil {
		cfg.MetricsPort = *f.MetricsPort
	}

	return cfg, nil
}

// Validate enforces the floors the daemon depends on.
func (c *Config) Validate() error {
	if c.Tiebreaker == "" {
		return fmt.Errorf("no tiebreaker address configured")
	}
	if c.TokenTimeout < MinTokenTimeout {
		return fmt.Errorf("token timeout %v is below the minimum %v", c.TokenTimeout, MinTokenTimeout)
	}
	if c.PingInterval < MinPingInterval {
		return fmt.Errorf("ping interval %v is below the minimum %v", c.PingInterval, MinPingInterval)
	}
	if c.NodeName == "" {
		return fmt.Errorf("no node name configured")
	}
	if c.ExpectedNodes < 1 {
		return fmt.Errorf("expected-nodes must be at least 1, got %d", c.ExpectedNodes)
	}
	if c.BindPort < 1 || c.BindPort > 65535 {
		return fmt.Errorf("bind-port %d out of range", c.BindPort)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics-port %d out of range", c.MetricsPort)
	}
	return nil
}
