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

import "fmt"

// Result is the outcome of a single ping attempt. Exactly one Result
// is produced per attempt.
type Result int

const (
	// Success means a matching echo reply arrived.
	Success Result = iota
	// Timeout means nothing arrived within the caller's deadline.
	Timeout
	// HostUnreachable means a destination-unreachable message arrived.
	HostUnreachable
	// HostNotFound means the target name doesn't resolve.
	HostNotFound
	// InvalidChecksum means the reply's checksum didn't verify.
	InvalidChecksum
	// InvalidResponse means the reply was a valid packet of an
	// unexpected ICMP type.
	InvalidResponse
	// InvalidSize means the reply was too short to contain an ICMP
	// header.
	InvalidSize
	// InvalidID means the reply's echo identifier belongs to another
	// process.
	InvalidID
	// SystemError means a socket or resolver call failed; the
	// accompanying error value carries the underlying cause.
	SystemError
)

// String returns a stable human-readable description of the result.
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Timeout:
		return "connection timed out"
	case HostUnreachable:
		return "no route to host"
	case HostNotFound:
		return "host not found"
	case InvalidChecksum:
		return "invalid checksum"
	case InvalidResponse:
		return "invalid response"
	case InvalidSize:
		return "invalid size of reply packet"
	case InvalidID:
		return "invalid ID in response"
	case SystemError:
		return "system error"
	}
	return fmt.Sprintf("unknown (%d)", int(r))
}

// Describe renders a result for logging, preferring the underlying
// error detail for system errors.
func Describe(r Result, err error) string {
	if err != nil {
		return err.Error()
	}
	return r.String()
}
