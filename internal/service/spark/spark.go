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

// Package spark runs a standalone Spark cluster: the first node is the
// master, the rest are workers registered with it.
// spark 包运行独立 Spark 集群：第一个节点为 master，其余为注册到它的 worker。
package spark

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apache/ignite-ducktests/internal/remote"
	"github.com/apache/ignite-ducktests/internal/service"
	"github.com/apache/ignite-ducktests/internal/session"
)

// ErrNoProcesses indicates a node without Spark processes after start
// ErrNoProcesses 表示启动后节点上没有 Spark 进程
var ErrNoProcesses = errors.New("spark: no process ids recorded")

// Service defaults
// 服务默认值
const (
	Project         = "spark"
	DefaultVersion  = "2.3.4"
	DefaultNumNodes = 3
	DefaultLogLevel = "DEBUG"
	MasterPort      = 7077

	DefaultStartTimeout = 30 * time.Second
	DefaultStartBackoff = 5 * time.Second
)

// Java main classes of Spark daemons
// Spark 守护进程的 Java 主类
const (
	MasterClass = "org.apache.spark.deploy.master.Master"
	WorkerClass = "org.apache.spark.deploy.worker.Worker"
)

// Log lines signalling a node is up
// 表示节点就绪的日志内容
const (
	MasterStartedMsg = "Started REST server for submitting applications"
	WorkerStartedMsg = "Successfully registered with master"
)

// Params holds parameters for New
// Params 是 New 的参数
type Params struct {
	// ServiceID pins the persistent root across runs; empty generates one
	// ServiceID 固定跨运行的持久化根目录，为空时自动生成
	ServiceID    string
	Nodes        []*service.Node
	Globals      *session.Context
	Paths        service.Paths
	Version      string
	LogLevel     string
	StartTimeout time.Duration
	StartBackoff time.Duration
	Logger       *zap.Logger
}

// Service is a Spark standalone cluster
// Service 是 Spark 独立集群
type Service struct {
	base         *service.Base
	version      string
	logLevel     string
	startTimeout time.Duration
	startBackoff time.Duration
}

// New creates a Spark service and registers master and worker logs of every node
// New 创建 Spark 服务并登记每个节点的 master 与 worker 日志
func New(params Params) *Service {
	s := &Service{
		base: service.NewBase(service.BaseParams{
			Name:    Project,
			ID:      params.ServiceID,
			Nodes:   params.Nodes,
			Globals: params.Globals,
			Paths:   params.Paths,
			Logger:  params.Logger,
		}),
		version:      params.Version,
		logLevel:     params.LogLevel,
		startTimeout: params.StartTimeout,
		startBackoff: params.StartBackoff,
	}
	if s.version == "" {
		s.version = DefaultVersion
	}
	if s.logLevel == "" {
		s.logLevel = DefaultLogLevel
	}
	if s.startTimeout <= 0 {
		s.startTimeout = DefaultStartTimeout
	}
	if s.startBackoff <= 0 {
		s.startBackoff = DefaultStartBackoff
	}

	for _, node := range s.base.Nodes() {
		s.base.RegisterLog("master_logs"+node.Hostname(), service.LogSpec{Path: s.MasterLogPath(node), CollectDefault: true})
		s.base.RegisterLog("worker_logs"+node.Hostname(), service.LogSpec{Path: s.SlaveLogPath(node), CollectDefault: true})
	}
	return s
}

// Base implements service.Lifecycle.
func (s *Service) Base() *service.Base { return s.base }

// Project returns "spark"
func (s *Service) Project() string { return Project }

// Version returns the Spark version
func (s *Service) Version() string { return s.version }

// LogLevel returns the configured Spark log level
func (s *Service) LogLevel() string { return s.logLevel }

// HomeDir returns the Spark distribution directory
// HomeDir 返回 Spark 发行包目录
func (s *Service) HomeDir() string {
	return s.base.HomeDir(Project, s.version)
}

// Start cleans (optionally) and starts all nodes
// Start 按需清理并启动所有节点
func (s *Service) Start(ctx context.Context, clean bool) error {
	if err := service.Start(ctx, s, clean); err != nil {
		return err
	}
	s.base.Logger().Info("Waiting for Spark to start...")
	return nil
}

// Stop stops all nodes
func (s *Service) Stop(ctx context.Context) error {
	return service.Stop(ctx, s)
}

// Kill is Stop
func (s *Service) Kill(ctx context.Context) error {
	return s.Stop(ctx)
}

// StartCmd builds the start command for node
// StartCmd 构建节点的启动命令
func (s *Service) StartCmd(node *service.Node) string {
	script := path.Join(s.HomeDir(), "sbin", "start-master.sh")
	if !s.base.IsFirst(node) {
		script = fmt.Sprintf("%s spark://%s:%d", path.Join(s.HomeDir(), "sbin", "start-slave.sh"), s.master().Hostname(), MasterPort)
	}

	root := s.base.PersistentRoot()
	var b strings.Builder
	fmt.Fprintf(&b, "export SPARK_LOG_DIR=%s; ", root)
	fmt.Fprintf(&b, "export SPARK_WORKER_DIR=%s; ", root)
	fmt.Fprintf(&b, "%s &", script)
	return b.String()
}

// StartNode implements service.Lifecycle.
func (s *Service) StartNode(ctx context.Context, node *service.Node) error {
	if err := s.base.InitPersistent(ctx, node); err != nil {
		return err
	}

	cmd := s.StartCmd(node)
	logger := s.base.Logger().With(zap.String("host", node.Hostname()))
	logger.Debug("Attempting to start SparkService", zap.String("account", remote.String(node.Account)), zap.String("cmd", cmd))

	logFile, logMsg := s.SlaveLogPath(node), WorkerStartedMsg
	if s.base.IsFirst(node) {
		logFile, logMsg = s.MasterLogPath(node), MasterStartedMsg
	}

	logger.Debug("Monitoring log", zap.String("path", logFile))

	monitor, err := remote.MonitorLog(ctx, node.Account, logFile)
	if err != nil {
		return err
	}
	if err := node.Account.SSH(ctx, cmd, false); err != nil {
		return err
	}
	err = monitor.WaitUntil(ctx, logMsg, remote.WaitOptions{
		Timeout: s.startTimeout,
		Backoff: s.startBackoff,
		ErrMsg:  fmt.Sprintf("Spark doesn't start at %d seconds", int(s.startTimeout.Seconds())),
	})
	if err != nil {
		return err
	}

	if len(s.Pids(ctx, node)) == 0 {
		return fmt.Errorf("%w on node %s", ErrNoProcesses, node.Hostname())
	}
	return nil
}

// StopNode implements service.Lifecycle.
func (s *Service) StopNode(ctx context.Context, node *service.Node) error {
	script := "stop-slave.sh"
	if s.base.IsFirst(node) {
		script = "stop-master.sh"
	}
	return node.Account.SSH(ctx, path.Join(s.HomeDir(), "sbin", script), false)
}

// CleanNode kills leftover daemons and removes the persistent root
// CleanNode 结束残留守护进程并删除持久化根目录
func (s *Service) CleanNode(ctx context.Context, node *service.Node) error {
	if err := remote.KillJavaProcesses(ctx, node.Account, s.JavaClassName(node), false, true); err != nil {
		return err
	}
	return node.Account.SSH(ctx, fmt.Sprintf("rm -rf -- %s", s.base.PersistentRoot()), false)
}

// Pids returns Spark pids on node; lookup failures yield an empty list
// Pids 返回节点上的 Spark 进程 ID，查询失败时返回空列表
func (s *Service) Pids(ctx context.Context, node *service.Node) []int {
	pids, err := remote.JavaPids(ctx, node.Account, s.JavaClassName(node))
	if err != nil {
		s.base.Logger().Debug("Pid lookup failed", zap.String("host", node.Hostname()), zap.Error(err))
		return nil
	}
	return pids
}

// JavaClassName returns the daemon main class for node
// JavaClassName 返回节点对应守护进程的主类
func (s *Service) JavaClassName(node *service.Node) string {
	if s.base.IsFirst(node) {
		return MasterClass
	}
	return WorkerClass
}

// MasterLogPath returns the master log path on node
func (s *Service) MasterLogPath(node *service.Node) string {
	return s.logPath(node, MasterClass)
}

// SlaveLogPath returns the worker log path on node
func (s *Service) SlaveLogPath(node *service.Node) string {
	return s.logPath(node, WorkerClass)
}

func (s *Service) logPath(node *service.Node, class string) string {
	return path.Join(s.base.PersistentRoot(),
		fmt.Sprintf("spark-%s-%s-%d-%s.out", node.Account.User(), class, 1, node.Hostname()))
}

func (s *Service) master() *service.Node {
	return s.base.Nodes()[0]
}

var _ service.Lifecycle = (*Service)(nil)
