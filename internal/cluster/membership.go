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
	stdlog "log"
	"time"

	"qnetd.io/internal/logging"

	"github.com/go-kit/log"
	"github.com/hashicorp/memberlist"
)

// updateTimeout bounds metadata re-broadcasts and the leave
// broadcast at shutdown.
const updateTimeout = 1 * time.Second

// Config collects what Membership needs to join the cluster.
type Config struct {
	// NodeName is this node's name in the cluster; must be unique.
	NodeName string
	// BindAddr/BindPort is the gossip listener.
	BindAddr string
	BindPort int
	// Secret optionally encrypts gossip traffic.
	Secret []byte
	// ExpectedNodes is the configured full cluster size, used for
	// the majority calculation.
	ExpectedNodes int
	Logger        log.Logger
	StopCh        chan struct{}
}

// Membership is this node's view of the cluster, plus the
// quorum-device vote it advertises to the other members.
type Membership struct {
	Memberlist *memberlist.Memberlist
	logger     log.Logger
	stopCh     chan struct{}
	eventCh    chan memberlist.NodeEvent
	delegate   *voteDelegate
	expected   int
}

// New creates the gossip member but doesn't join anyone yet; call
// Join once the local listener is up.
func New(cfg *Config) (*Membership, error) {
	m := &Membership{
		logger:   cfg.Logger,
		stopCh:   cfg.StopCh,
		delegate: &voteDelegate{},
		expected: cfg.ExpectedNodes,
	}

	mconfig := memberlist.DefaultLANConfig()
	mconfig.Name = cfg.NodeName
	mconfig.BindAddr = cfg.BindAddr
	mconfig.BindPort = cfg.BindPort
	mconfig.AdvertisePort = cfg.BindPort
	mconfig.SecretKey = cfg.Secret
	mconfig.Delegate = m.delegate

	loggerout := log.NewStdlibAdapter(log.With(cfg.Logger, "component", "MemberList"))
	mconfig.Logger = stdlog.New(loggerout, "", stdlog.Lshortfile)

	eventCh := make(chan memberlist.NodeEvent, 16)
	mconfig.Events = &memberlist.ChannelEventDelegate{Ch: eventCh}
	m.eventCh = eventCh

	mlist, err := memberlist.Create(mconfig)
	if err != nil {
		return nil, err
	}
	m.Memberlist = mlist

	go m.watchEvents()

	return m, nil
}

// Join connects to the given peers. Joining nobody is fine: a
// single-node cluster is exactly the situation the tiebreaker
// exists for.
func (m *Membership) Join(iplist []string) error {
	if len(iplist) == 0 {
		return nil
	}
	n, err := m.Memberlist.Join(iplist)
	logging.Info(m.logger, "op", "startup", "msg", "Memberlist join", "nb joined", n, "error", err)
	return err
}

// Shutdown leaves the cluster gracefully so the other members see a
// clean departure instead of a failure. It blocks until the leave
// broadcast is out (or updateTimeout elapses), so shutdown sequencing
// can rely on it having finished.
func (m *Membership) Shutdown() error {
	err := m.Memberlist.Leave(updateTimeout)
	m.Memberlist.Shutdown()
	logging.Info(m.logger, "op", "shutdown", "msg", "MemberList shut down", "error", err)
	return err
}

// NumMembers returns the number of live cluster members, ourselves
// included.
func (m *Membership) NumMembers() int {
	return m.Memberlist.NumMembers()
}

// Quorate reports whether the live members alone form a majority of
// the expected cluster.
func (m *Membership) Quorate() bool {
	return quorate(m.NumMembers(), m.expected)
}

// quorate is the majority calculation: strictly more than half of
// expected.
func quorate(members, expected int) bool {
	return members*2 > expected
}

// SetQuorumVote publishes this node's quorum-device vote to the
// cluster by re-broadcasting our node metadata. Unchanged votes are
// not re-broadcast.
func (m *Membership) SetQuorumVote(vote bool) error {
	if !m.delegate.set(vote) {
		return nil
	}

	recordQuorumVote(vote)
	logging.Info(m.logger, "op", "vote", "msg", "quorum device vote changed", "vote", vote)

	if err := m.Memberlist.UpdateNode(updateTimeout); err != nil {
		logging.Error(m.logger, "op", "vote", "error", err, "msg", "failed to broadcast vote")
		return err
	}
	return nil
}

// QuorumVotes counts the members currently advertising an asserted
// quorum-device vote.
func (m *Membership) QuorumVotes() int {
	votes := 0
	for _, member := range m.Memberlist.Members() {
		if hasVote(member.Meta) {
			votes++
		}
	}
	return votes
}

func event2String(e memberlist.NodeEventType) string {
	return [...]string{"NodeJoin", "NodeLeave", "NodeUpdate"}[e]
}

func (m *Membership) watchEvents() {
	for {
		select {
		case event := <-m.eventCh:
			logging.Info(m.logger, "msg", "Node event", "node addr", event.Node.Addr,
				"node name", event.Node.Name, "node event", event2String(event.Event))
			recordMemberCount(m.NumMembers())
		case <-m.stopCh:
			// Shutdown belongs to whoever owns the Membership; the
			// watcher just stops reporting.
			return
		}
	}
}
