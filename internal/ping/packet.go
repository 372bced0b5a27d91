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

import "encoding/binary"

// ICMP message types we care about.
const (
	typeEchoReply       = 0
	typeDestUnreachable = 3
	typeEchoRequest     = 8
)

const (
	// headerLen is the fixed ICMP header: type, code, checksum,
	// identifier, sequence.
	headerLen = 8

	// packetLen is the size of the echo request we send: the header
	// plus eight zero payload bytes. The checksum is computed over
	// the header only; the zero payload contributes nothing, so the
	// packet remains valid on the wire.
	packetLen = 16
)

// marshalEcho builds an echo request stamped with id and seq. The
// checksum is computed with the checksum field zeroed, then inserted.
func marshalEcho(id, seq uint16) []byte {
	p := make([]byte, packetLen)
	p[0] = typeEchoRequest
	binary.BigEndian.PutUint16(p[4:6], id)
	binary.BigEndian.PutUint16(p[6:8], seq)
	binary.BigEndian.PutUint16(p[2:4], Checksum(p[:headerLen]))
	return p
}

// classify validates one datagram received on a raw ICMP socket and
// maps it to a Result. datagram starts at the IP header (the kernel
// delivers the full packet on raw sockets). Validation order: total
// size must cover the variable-length IP header plus the ICMP header;
// the checksum must verify with the checksum field zeroed; for echo
// types the identifier must be ours. Destination-unreachable maps to
// HostUnreachable, any other type to InvalidResponse.
func classify(datagram []byte, id uint16) Result {
	if len(datagram) < 1 {
		return InvalidSize
	}

	// The IP header length field is in 32-bit words.
	ihl := int(datagram[0]&0x0f) << 2
	if len(datagram) < ihl+headerLen {
		return InvalidSize
	}

	var hdr [headerLen]byte
	copy(hdr[:], datagram[ihl:ihl+headerLen])
	sum := binary.BigEndian.Uint16(hdr[2:4])
	hdr[2], hdr[3] = 0, 0
	if sum != Checksum(hdr[:]) {
		return InvalidChecksum
	}

	switch hdr[0] {
	case typeEchoRequest, typeEchoReply:
		if binary.BigEndian.Uint16(hdr[4:6]) != id {
			return InvalidID
		}
		return Success
	case typeDestUnreachable:
		return HostUnreachable
	}

	return InvalidResponse
}
