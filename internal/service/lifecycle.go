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
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Lifecycle is implemented by concrete services
// Lifecycle 由具体服务实现
type Lifecycle interface {
	// Base returns the shared service state
	// Base 返回共享的服务状态
	Base() *Base

	// StartNode starts the service on node and waits until it is up
	// StartNode 在节点上启动服务并等待其就绪
	StartNode(ctx context.Context, node *Node) error

	// StopNode stops the service on node
	// StopNode 停止节点上的服务
	StopNode(ctx context.Context, node *Node) error

	// CleanNode removes processes and persistent state from node
	// CleanNode 清除节点上的进程与持久化状态
	CleanNode(ctx context.Context, node *Node) error
}

// Start starts every node in order. With clean set, every node is cleaned
// before the first one is started. The first failure aborts the run.
// Start 按顺序启动所有节点。设置 clean 时先清理所有节点再启动。首个失败即中止。
func Start(ctx context.Context, svc Lifecycle, clean bool) error {
	b := svc.Base()
	if len(b.nodes) == 0 {
		return ErrNoNodes
	}

	if clean {
		for _, node := range b.nodes {
			if err := Clean(ctx, svc, node); err != nil {
				return err
			}
		}
	}

	for _, node := range b.nodes {
		if err := startNode(ctx, svc, node); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every node in order. Failures are collected and all nodes are attempted.
// Stop 按顺序停止所有节点。会尝试所有节点并汇总失败。
func Stop(ctx context.Context, svc Lifecycle) error {
	b := svc.Base()
	if len(b.nodes) == 0 {
		return ErrNoNodes
	}

	var errs []error
	for _, node := range b.nodes {
		if err := stopNode(ctx, svc, node); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clean cleans a single node
// Clean 清理单个节点
func Clean(ctx context.Context, svc Lifecycle, node *Node) error {
	b := svc.Base()
	if !b.owns(node) {
		return fmt.Errorf("%w: %s", ErrUnknownNode, node.Hostname())
	}

	b.logger.Debug("Cleaning node", zap.String("service", b.id), zap.String("host", node.Hostname()))
	if err := svc.CleanNode(ctx, node); err != nil {
		b.setStatus(node, StatusError)
		return fmt.Errorf("service %s: clean %s: %w", b.id, node.Hostname(), err)
	}
	b.setStatus(node, StatusStopped)
	return nil
}

func startNode(ctx context.Context, svc Lifecycle, node *Node) error {
	b := svc.Base()
	begin := time.Now()

	b.setStatus(node, StatusStarting)
	b.logger.Info("Starting node", zap.String("service", b.id), zap.String("host", node.Hostname()))

	if err := svc.StartNode(ctx, node); err != nil {
		b.setStatus(node, StatusError)
		b.logger.Error("Failed to start node",
			zap.String("service", b.id),
			zap.String("host", node.Hostname()),
			zap.Error(err))
		return fmt.Errorf("service %s: start %s: %w", b.id, node.Hostname(), err)
	}

	b.setStatus(node, StatusRunning)
	b.logger.Info("Node started",
		zap.String("service", b.id),
		zap.String("host", node.Hostname()),
		zap.Duration("elapsed", time.Since(begin)))
	return nil
}

func stopNode(ctx context.Context, svc Lifecycle, node *Node) error {
	b := svc.Base()

	b.setStatus(node, StatusStopping)
	b.logger.Info("Stopping node", zap.String("service", b.id), zap.String("host", node.Hostname()))

	if err := svc.StopNode(ctx, node); err != nil {
		b.setStatus(node, StatusError)
		return fmt.Errorf("service %s: stop %s: %w", b.id, node.Hostname(), err)
	}
	b.setStatus(node, StatusStopped)
	return nil
}
