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

package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuorate(t *testing.T) {
	tests := []struct {
		members, expected int
		want              bool
	}{
		{1, 1, true},
		{1, 2, false},
		{2, 2, true},
		{1, 3, false},
		{2, 3, true},
		{2, 4, false},
		{3, 4, true},
		{3, 6, false},
		{4, 6, true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, quorate(tc.members, tc.expected),
			"%d of %d members", tc.members, tc.expected)
	}
}

func TestVoteDelegate(t *testing.T) {
	d := &voteDelegate{}

	assert.Equal(t, []byte{metaNoVote}, d.NodeMeta(1))
	assert.False(t, hasVote(d.NodeMeta(1)))

	assert.True(t, d.set(true), "first assertion is a change")
	assert.False(t, d.set(true), "repeating the same vote is not")
	assert.Equal(t, []byte{metaVote}, d.NodeMeta(1))
	assert.True(t, hasVote(d.NodeMeta(1)))

	assert.True(t, d.set(false))
	assert.False(t, hasVote(d.NodeMeta(1)))
}

func TestHasVoteEmptyMeta(t *testing.T) {
	assert.False(t, hasVote(nil), "members without metadata carry no vote")
}

func TestEvent2String(t *testing.T) {
	assert.Equal(t, "NodeJoin", event2String(0))
	assert.Equal(t, "NodeLeave", event2String(1))
	assert.Equal(t, "NodeUpdate", event2String(2))
}
