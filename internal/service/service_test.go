/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apache/ignite-ducktests/internal/remote/remotetest"
	"github.com/apache/ignite-ducktests/internal/session"
)

// recorder is a Lifecycle logging every call as "<op>:<host>"
type recorder struct {
	base    *Base
	calls   []string
	failOn  string
	failErr error
}

func (r *recorder) Base() *Base { return r.base }

func (r *recorder) do(op string, node *Node) error {
	call := op + ":" + node.Hostname()
	r.calls = append(r.calls, call)
	if call == r.failOn {
		return r.failErr
	}
	return nil
}

func (r *recorder) StartNode(_ context.Context, n *Node) error { return r.do("start", n) }
func (r *recorder) StopNode(_ context.Context, n *Node) error  { return r.do("stop", n) }
func (r *recorder) CleanNode(_ context.Context, n *Node) error { return r.do("clean", n) }

func newRecorder(hosts ...string) *recorder {
	var nodes []*Node
	for _, h := range hosts {
		nodes = append(nodes, &Node{Account: remotetest.NewAccount(h, "ducker")})
	}
	return &recorder{base: NewBase(BaseParams{Name: "test", Nodes: nodes})}
}

func TestStartCleansAllNodesFirst(t *testing.T) {
	r := newRecorder("n1", "n2", "n3")

	require.NoError(t, Start(context.Background(), r, true))
	assert.Equal(t, []string{"clean:n1", "clean:n2", "clean:n3", "start:n1", "start:n2", "start:n3"}, r.calls)
	for _, n := range r.base.Nodes() {
		assert.Equal(t, StatusRunning, r.base.NodeStatus(n))
	}
}

func TestStartWithoutClean(t *testing.T) {
	r := newRecorder("n1", "n2")

	require.NoError(t, Start(context.Background(), r, false))
	assert.Equal(t, []string{"start:n1", "start:n2"}, r.calls)
}

func TestStartAbortsOnFirstFailure(t *testing.T) {
	r := newRecorder("n1", "n2", "n3")
	r.failOn = "start:n2"
	r.failErr = errors.New("boom")

	err := Start(context.Background(), r, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, r.failErr)
	assert.Equal(t, []string{"start:n1", "start:n2"}, r.calls)
	assert.Equal(t, StatusError, r.base.NodeStatus(r.base.Nodes()[1]))
	assert.Equal(t, StatusStopped, r.base.NodeStatus(r.base.Nodes()[2]))
}

func TestStopAttemptsAllNodes(t *testing.T) {
	r := newRecorder("n1", "n2", "n3")
	r.failOn = "stop:n1"
	r.failErr = errors.New("boom")

	err := Stop(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, r.failErr)
	assert.Equal(t, []string{"stop:n1", "stop:n2", "stop:n3"}, r.calls)
}

func TestNoNodes(t *testing.T) {
	r := newRecorder()
	assert.ErrorIs(t, Start(context.Background(), r, true), ErrNoNodes)
	assert.ErrorIs(t, Stop(context.Background(), r), ErrNoNodes)
}

func TestCleanUnknownNode(t *testing.T) {
	r := newRecorder("n1")
	foreign := &Node{Account: remotetest.NewAccount("other", "ducker")}
	assert.ErrorIs(t, Clean(context.Background(), r, foreign), ErrUnknownNode)
}

// TestBasePaths tests the path layout and globals overrides
// TestBasePaths 测试路径布局与全局参数覆盖
func TestBasePaths(t *testing.T) {
	b := NewBase(BaseParams{Name: "spark"})
	assert.True(t, strings.HasPrefix(b.ServiceID(), "spark-"))
	assert.Equal(t, "/opt/spark-2.3.4", b.HomeDir("spark", "2.3.4"))
	assert.Equal(t, "/mnt/service/"+b.ServiceID(), b.PersistentRoot())

	other := NewBase(BaseParams{Name: "spark"})
	assert.NotEqual(t, b.ServiceID(), other.ServiceID())

	globals := session.New(map[string]any{"install_root": "/usr/local", "persistent_root": "/data"})
	b = NewBase(BaseParams{Name: "spark", Globals: globals})
	assert.Equal(t, "/usr/local/spark-2.3.4", b.HomeDir("spark", "2.3.4"))
	assert.Equal(t, "/data/"+b.ServiceID(), b.PersistentRoot())
}

func TestInitPersistent(t *testing.T) {
	acc := remotetest.NewAccount("n1", "ducker")
	b := NewBase(BaseParams{Name: "svc", Nodes: NewNodes(acc)})

	require.NoError(t, b.InitPersistent(context.Background(), b.Nodes()[0]))
	assert.Equal(t, []string{"mkdir -p " + b.PersistentRoot()}, acc.Commands())
}

func TestLogsRegistry(t *testing.T) {
	b := NewBase(BaseParams{})
	b.RegisterLog("master_logsn1", LogSpec{Path: "/a", CollectDefault: true})

	logs := b.Logs()
	assert.Equal(t, LogSpec{Path: "/a", CollectDefault: true}, logs["master_logsn1"])

	logs["x"] = LogSpec{}
	assert.Len(t, b.Logs(), 1)
}
