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

// Package remote provides shell access to cluster nodes.
// remote 包提供对集群节点的 Shell 访问。
//
// This package provides:
// 此包提供：
// - Account abstraction and its SSH implementation / Account 抽象及其 SSH 实现
// - Java process discovery and termination / Java 进程发现与终止
// - Log monitoring with timeout and backoff / 带超时与退避的日志监控
package remote

import (
	"context"
	"fmt"
	"strings"
)

// Account runs shell commands on one node
// Account 在单个节点上执行 Shell 命令
type Account interface {
	// Hostname returns the node host name
	// Hostname 返回节点主机名
	Hostname() string

	// User returns the login user
	// User 返回登录用户
	User() string

	// SSH runs cmd. A non-zero exit yields *RemoteCommandError unless allowFail is set.
	// SSH 执行 cmd。非零退出码返回 *RemoteCommandError，除非设置了 allowFail。
	SSH(ctx context.Context, cmd string, allowFail bool) error

	// SSHCapture runs cmd and returns its stdout lines
	// SSHCapture 执行 cmd 并返回标准输出的各行
	SSHCapture(ctx context.Context, cmd string, allowFail bool) ([]string, error)
}

// RemoteCommandError describes a command that exited with a non-zero status
// RemoteCommandError 描述以非零状态退出的命令
type RemoteCommandError struct {
	Host       string
	Cmd        string
	ExitStatus int
	Output     string
}

// Error implements error.
func (e *RemoteCommandError) Error() string {
	msg := fmt.Sprintf("remote: %s: command %q exited with status %d", e.Host, e.Cmd, e.ExitStatus)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// String renders the account as user@host
func String(a Account) string {
	if a.User() == "" {
		return a.Hostname()
	}
	return a.User() + "@" + a.Hostname()
}

func splitLines(out string) []string {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
