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

// Checksum computes the ICMP header checksum of buf: the 16-bit
// one's complement of the one's complement sum of all 16-bit words.
// The checksum field must be zeroed before computing. If buf has an
// odd length, the trailing byte is taken as the high byte of a final
// word padded with zero.
func Checksum(buf []byte) uint16 {
	var sum uint32

	i := 0
	for ; i+1 < len(buf); i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}
	if i < len(buf) {
		sum += uint32(buf[i]) << 8
	}

	sum = (sum >> 16) + (sum & 0xffff)
	sum += sum >> 16

	return ^uint16(sum)
}
