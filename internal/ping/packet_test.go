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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID uint16 = 0x4242

// reply builds a synthetic raw-socket datagram: an IP header of
// ipHdrLen bytes followed by an ICMP header of the given type,
// stamped with id/seq and a valid checksum.
func reply(icmpType byte, id, seq uint16, ipHdrLen int) []byte {
	d := make([]byte, ipHdrLen+headerLen)
	d[0] = 0x40 | byte(ipHdrLen>>2) // version 4, IHL in 32-bit words
	h := d[ipHdrLen:]
	h[0] = icmpType
	binary.BigEndian.PutUint16(h[4:6], id)
	binary.BigEndian.PutUint16(h[6:8], seq)
	binary.BigEndian.PutUint16(h[2:4], Checksum(h[:headerLen]))
	return d
}

func TestMarshalEcho(t *testing.T) {
	pkt := marshalEcho(testID, 3)

	require.Len(t, pkt, packetLen)
	assert.Equal(t, byte(typeEchoRequest), pkt[0])
	assert.Equal(t, byte(0), pkt[1])
	assert.Equal(t, testID, binary.BigEndian.Uint16(pkt[4:6]))
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(pkt[6:8]))

	// the completed header must verify to zero
	assert.Equal(t, uint16(0), Checksum(pkt[:headerLen]))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		desc string
		dgm  []byte
		want Result
	}{
		{
			desc: "matching echo reply",
			dgm:  reply(typeEchoReply, testID, 0, 20),
			want: Success,
		},
		{
			desc: "matching echo request (loopback)",
			dgm:  reply(typeEchoRequest, testID, 0, 20),
			want: Success,
		},
		{
			desc: "reply with IP options",
			dgm:  reply(typeEchoReply, testID, 0, 24),
			want: Success,
		},
		{
			desc: "destination unreachable",
			dgm:  reply(typeDestUnreachable, 0, 0, 20),
			want: HostUnreachable,
		},
		{
			desc: "unexpected type",
			dgm:  reply(13, testID, 0, 20), // timestamp request
			want: InvalidResponse,
		},
		{
			desc: "foreign echo identifier",
			dgm:  reply(typeEchoReply, testID+1, 0, 20),
			want: InvalidID,
		},
		{
			desc: "empty datagram",
			dgm:  nil,
			want: InvalidSize,
		},
		{
			desc: "truncated below ICMP header",
			dgm:  reply(typeEchoReply, testID, 0, 20)[:24],
			want: InvalidSize,
		},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.dgm, testID))
		})
	}
}

func TestClassifyBadChecksum(t *testing.T) {
	dgm := reply(typeEchoReply, testID, 0, 20)
	dgm[20+6] ^= 0xff // corrupt the sequence field, checksum now stale

	assert.Equal(t, InvalidChecksum, classify(dgm, testID))
}
