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

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// retryDelay paces retries of temporary resolver failures.
const retryDelay = 100 * time.Millisecond

// Resolver turns tiebreaker names into IPv4 addresses. The zero
// value is not usable; use DefaultResolver or NewResolver.
type Resolver struct {
	// lookup is swappable so tests can run without a resolver.
	lookup func(host string) ([]net.IP, error)
}

// DefaultResolver resolves through the system resolver.
var DefaultResolver = NewResolver(net.LookupIP)

// NewResolver returns a Resolver backed by the given lookup function.
func NewResolver(lookup func(host string) ([]net.IP, error)) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve maps host to an IPv4 address. If host begins with a
// decimal digit it is first parsed as a dotted-quad literal, which
// skips the resolver entirely. A digit-leading string that isn't a
// valid literal still goes to the resolver: it is a legal (if
// unconventional) DNS name. Temporary resolver failures are retried
// and never surface; permanent failures map to HostNotFound, anything
// else to SystemError.
func (r *Resolver) Resolve(host string) (net.IP, Result, error) {
	if host == "" {
		return nil, HostNotFound, errors.New("empty tiebreaker name")
	}

	if host[0] >= '0' && host[0] <= '9' {
		if ip := net.ParseIP(host); ip != nil {
			if ip4 := ip.To4(); ip4 != nil {
				return ip4, Success, nil
			}
			return nil, HostNotFound, fmt.Errorf("%q is not an IPv4 address", host)
		}
	}

	for {
		ips, err := r.lookup(host)
		if err != nil {
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) {
				if dnsErr.IsTemporary {
					time.Sleep(retryDelay)
					continue
				}
				if dnsErr.IsNotFound {
					return nil, HostNotFound, err
				}
			}
			return nil, SystemError, fmt.Errorf("resolving %q: %w", host, err)
		}

		for _, ip := range ips {
			if ip4 := ip.To4(); ip4 != nil {
				return ip4, Success, nil
			}
		}
		return nil, HostNotFound, fmt.Errorf("%q has no IPv4 address", host)
	}
}
