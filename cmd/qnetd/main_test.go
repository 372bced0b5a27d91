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

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMembers struct {
	calls *[]string
	err   error
}

func (f *fakeMembers) Shutdown() error {
	*f.calls = append(*f.calls, "leave")
	return f.err
}

type fakeVoter struct {
	calls *[]string
}

func (f *fakeVoter) Stop() {
	*f.calls = append(*f.calls, "stop")
}

// TestShutdownSequence verifies that shutdown leaves the cluster
// before stopping the voter, and that the leave has completed by the
// time the sequence returns.
func TestShutdownSequence(t *testing.T) {
	var calls []string
	shutdownSequence(nopLogger{}, &fakeMembers{calls: &calls}, &fakeVoter{calls: &calls})
	assert.Equal(t, []string{"leave", "stop"}, calls)
}

// TestShutdownSequenceLeaveFailure verifies that a failed leave still
// stops the voter.
func TestShutdownSequenceLeaveFailure(t *testing.T) {
	var calls []string
	shutdownSequence(nopLogger{}, &fakeMembers{calls: &calls, err: errors.New("boom")}, &fakeVoter{calls: &calls})
	assert.Equal(t, []string{"leave", "stop"}, calls)
}
