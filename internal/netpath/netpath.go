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

// Package netpath answers "which way do packets to the tiebreaker
// actually go?" - startup diagnostics that catch a misconfigured
// tiebreaker before it costs a quorum decision.
package netpath

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
)

// AddrFamily returns whether ip is an IPv4 or IPv6 address. The
// return value will be nl.FAMILY_V6 if the address is an IPV6
// address, nl.FAMILY_V4 if it's IPV4, or 0 if the family can't be
// determined.
func AddrFamily(ip net.IP) (family int) {
	if nil != ip.To16() {
		family = nl.FAMILY_V6
	}

	if nil != ip.To4() {
		family = nl.FAMILY_V4
	}

	return
}

// EgressLink returns the interface the kernel would route packets to
// ip through.
func EgressLink(ip net.IP) (netlink.Link, error) {
	routes, err := netlink.RouteGet(ip)
	if err != nil {
		return nil, fmt.Errorf("no route to %v: %w", ip, err)
	}
	for _, r := range routes {
		if r.LinkIndex != 0 {
			return netlink.LinkByIndex(r.LinkIndex)
		}
	}
	return nil, fmt.Errorf("no route to %v", ip)
}

// DefaultInterface finds the interface with the default route for
// the given family, preferring the lowest-metric default when there
// is more than one.
func DefaultInterface(family int) (netlink.Link, error) {
	var defaultifindex int = 0
	var defaultifmetric int = 0

	rt, _ := netlink.RouteList(nil, family)
	for _, r := range rt {
		// a route with no destination is a default route
		if r.Dst == nil && defaultifindex == 0 {
			defaultifindex = r.LinkIndex
			defaultifmetric = r.Priority
		} else if r.Dst == nil && defaultifindex != 0 && r.Priority < defaultifmetric {
			defaultifindex = r.LinkIndex
		}
	}

	if defaultifindex == 0 {
		return nil, fmt.Errorf("no default interface can be determined")
	}

	return netlink.LinkByIndex(defaultifindex)
}

// OnLocalSubnet reports whether ip falls inside a subnet configured
// on link. A tiebreaker on a local subnet (typically the upstream
// router) fails fast on cable pulls; one routed further away also
// tests the path beyond the first hop.
func OnLocalSubnet(link netlink.Link, ip net.IP) bool {
	addrs, _ := netlink.AddrList(link, AddrFamily(ip))
	for _, addr := range addrs {
		if addr.IPNet != nil && addr.IPNet.Contains(ip) {
			return true
		}
	}
	return false
}
