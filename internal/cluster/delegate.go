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

import "sync"

// Vote metadata values gossiped in each node's Meta byte.
const (
	metaNoVote = 0
	metaVote   = 1
)

// voteDelegate is the memberlist delegate that attaches this node's
// quorum-device vote to its gossiped metadata.
type voteDelegate struct {
	mu   sync.Mutex
	vote bool
}

// set records the vote and reports whether it changed.
func (d *voteDelegate) set(vote bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vote == vote {
		return false
	}
	d.vote = vote
	return true
}

// NodeMeta returns the metadata broadcast with this node's gossip
// entries.
func (d *voteDelegate) NodeMeta(limit int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vote {
		return []byte{metaVote}
	}
	return []byte{metaNoVote}
}

// hasVote decodes another member's metadata.
func hasVote(meta []byte) bool {
	return len(meta) > 0 && meta[0] == metaVote
}

// The rest of the Delegate interface carries no qnetd state.

func (d *voteDelegate) NotifyMsg([]byte) {}

func (d *voteDelegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }

func (d *voteDelegate) LocalState(join bool) []byte { return nil }

func (d *voteDelegate) MergeRemoteState(buf []byte, join bool) {}
