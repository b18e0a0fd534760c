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

// Package service provides lifecycle management for clustered services under test.
// service 包提供被测集群服务的生命周期管理。
//
// This package provides:
// 此包提供：
// - Sequential per-node start, stop and clean / 按节点顺序启动、停止与清理
// - Install and persistent path layout / 安装与持久化路径布局
// - Log collection registry / 日志收集登记
package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apache/ignite-ducktests/internal/remote"
	"github.com/apache/ignite-ducktests/internal/session"
)

// Common errors for service management
// 服务管理的常见错误
var (
	// ErrNoNodes indicates a service without nodes
	// ErrNoNodes 表示服务没有节点
	ErrNoNodes = errors.New("service: no nodes allocated")

	// ErrUnknownNode indicates a node that does not belong to the service
	// ErrUnknownNode 表示节点不属于该服务
	ErrUnknownNode = errors.New("service: node does not belong to service")
)

// Default path values
// 默认路径值
const (
	// DefaultInstallRoot is where service distributions are unpacked
	// DefaultInstallRoot 是服务发行包的解压目录
	DefaultInstallRoot = "/opt"

	// DefaultPersistentRoot holds per-service work and log dirs
	// DefaultPersistentRoot 存放每个服务的工作与日志目录
	DefaultPersistentRoot = "/mnt/service"

	// Globals keys overriding the roots
	// 覆盖根目录的全局参数键
	InstallRootKey    = "install_root"
	PersistentRootKey = "persistent_root"
)

// Status represents the lifecycle state of a node
// Status 表示节点的生命周期状态
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Node is one allocated cluster node
// Node 是一个已分配的集群节点
type Node struct {
	Account remote.Account
}

// NewNodes wraps accounts into nodes, keeping order
// NewNodes 将账户按顺序包装为节点
func NewNodes(accounts ...remote.Account) []*Node {
	nodes := make([]*Node, 0, len(accounts))
	for _, acc := range accounts {
		nodes = append(nodes, &Node{Account: acc})
	}
	return nodes
}

// Hostname returns the node host name
func (n *Node) Hostname() string {
	return n.Account.Hostname()
}

// Paths is the directory layout on nodes
// Paths 是节点上的目录布局
type Paths struct {
	InstallRoot    string `mapstructure:"install_root" yaml:"install_root"`
	PersistentRoot string `mapstructure:"persistent_root" yaml:"persistent_root"`
}

// DefaultPaths returns the default layout
func DefaultPaths() Paths {
	return Paths{InstallRoot: DefaultInstallRoot, PersistentRoot: DefaultPersistentRoot}
}

// WithGlobals returns p with roots overridden by session globals
// WithGlobals 返回被会话全局参数覆盖根目录后的 p
func (p Paths) WithGlobals(globals *session.Context) Paths {
	p.InstallRoot = globals.GetString(InstallRootKey, p.InstallRoot)
	p.PersistentRoot = globals.GetString(PersistentRootKey, p.PersistentRoot)
	if p.InstallRoot == "" {
		p.InstallRoot = DefaultInstallRoot
	}
	if p.PersistentRoot == "" {
		p.PersistentRoot = DefaultPersistentRoot
	}
	return p
}

// LogSpec describes one collectable log file
// LogSpec 描述一个可收集的日志文件
type LogSpec struct {
	Path           string `yaml:"path" json:"path"`
	CollectDefault bool   `yaml:"collect_default" json:"collect_default"`
}

// BaseParams holds parameters for NewBase
// BaseParams 是 NewBase 的参数
type BaseParams struct {
	// Name prefixes the generated service id
	// Name 作为生成的服务 ID 前缀
	Name string

	// ID, when set, is used as the service id verbatim
	// ID 非空时直接作为服务 ID
	ID      string
	Nodes   []*Node
	Globals *session.Context
	Paths   Paths
	Logger  *zap.Logger
}

// Base carries the state shared by every service implementation
// Base 保存所有服务实现共享的状态
type Base struct {
	id      string
	nodes   []*Node
	globals *session.Context
	paths   Paths
	logger  *zap.Logger

	mu     sync.Mutex
	logs   map[string]LogSpec
	status map[*Node]Status
}

// NewBase creates a service base with a unique id
// NewBase 创建具有唯一 ID 的服务基础对象
func NewBase(params BaseParams) *Base {
	name := params.Name
	if name == "" {
		name = "service"
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	globals := params.Globals
	if globals == nil {
		globals = session.New(nil)
	}
	paths := params.Paths
	if paths == (Paths{}) {
		paths = DefaultPaths()
	}

	id := params.ID
	if id == "" {
		id = name + "-" + strings.SplitN(uuid.New().String(), "-", 2)[0]
	}

	b := &Base{
		id:      id,
		nodes:   params.Nodes,
		globals: globals,
		paths:   paths.WithGlobals(globals),
		logger:  logger,
		logs:    make(map[string]LogSpec),
		status:  make(map[*Node]Status),
	}
	for _, n := range b.nodes {
		b.status[n] = StatusStopped
	}
	return b
}

// ServiceID returns the unique service id
func (b *Base) ServiceID() string { return b.id }

// Nodes returns the allocated nodes in order
func (b *Base) Nodes() []*Node { return b.nodes }

// Globals returns the session globals
func (b *Base) Globals() *session.Context { return b.globals }

// Logger returns the service logger
func (b *Base) Logger() *zap.Logger { return b.logger }

// Paths returns the effective layout
func (b *Base) Paths() Paths { return b.paths }

// IsFirst reports whether node is the first allocated node
// IsFirst 判断 node 是否为第一个分配的节点
func (b *Base) IsFirst(node *Node) bool {
	return len(b.nodes) > 0 && b.nodes[0] == node
}

// HomeDir returns <install root>/<project>-<version>
// HomeDir 返回 <安装根目录>/<项目>-<版本>
func (b *Base) HomeDir(project, version string) string {
	return path.Join(b.paths.InstallRoot, project+"-"+version)
}

// PersistentRoot returns <persistent root>/<service id>
// PersistentRoot 返回 <持久化根目录>/<服务 ID>
func (b *Base) PersistentRoot() string {
	return path.Join(b.paths.PersistentRoot, b.id)
}

// InitPersistent creates the persistent root on node
// InitPersistent 在节点上创建持久化根目录
func (b *Base) InitPersistent(ctx context.Context, node *Node) error {
	return node.Account.SSH(ctx, fmt.Sprintf("mkdir -p %s", b.PersistentRoot()), false)
}

// RegisterLog adds or replaces a log entry
// RegisterLog 添加或替换日志条目
func (b *Base) RegisterLog(name string, spec LogSpec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs[name] = spec
}

// Logs returns a copy of the log registry
// Logs 返回日志登记表的副本
func (b *Base) Logs() map[string]LogSpec {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]LogSpec, len(b.logs))
	for k, v := range b.logs {
		out[k] = v
	}
	return out
}

// NodeStatus returns the last known status of node
// NodeStatus 返回节点最近的状态
func (b *Base) NodeStatus(node *Node) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.status[node]; ok {
		return s
	}
	return StatusStopped
}

func (b *Base) setStatus(node *Node, s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[node] = s
}

func (b *Base) owns(node *Node) bool {
	for _, n := range b.nodes {
		if n == node {
			return true
		}
	}
	return false
}
