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

package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Signals used to stop Java processes
// 停止 Java 进程使用的信号
const (
	SignalTerm = 15
	SignalKill = 9
)

// JavaPidsCmd returns the command listing pids of Java processes matching pattern
// JavaPidsCmd 返回列出匹配 pattern 的 Java 进程 PID 的命令
func JavaPidsCmd(pattern string) string {
	return fmt.Sprintf("jcmd | grep -e %s | awk '{print $1}'", pattern)
}

// JavaPids returns pids of Java processes whose main class matches pattern.
// Any line that is not an integer fails the whole lookup.
// JavaPids 返回主类匹配 pattern 的 Java 进程 PID。
// 任何非整数行都会使整个查询失败。
func JavaPids(ctx context.Context, acc Account, pattern string) ([]int, error) {
	lines, err := acc.SSHCapture(ctx, JavaPidsCmd(pattern), true)
	if err != nil {
		return nil, err
	}

	pids := make([]int, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("remote: %s: invalid pid %q: %w", acc.Hostname(), line, err)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// KillJavaProcesses sends SIGTERM (cleanShutdown) or SIGKILL to every Java
// process matching pattern.
// KillJavaProcesses 向所有匹配 pattern 的 Java 进程发送 SIGTERM（cleanShutdown）或 SIGKILL。
func KillJavaProcesses(ctx context.Context, acc Account, pattern string, cleanShutdown, allowFail bool) error {
	pids, err := JavaPids(ctx, acc, pattern)
	if err != nil {
		if allowFail {
			return nil
		}
		return err
	}

	sig := SignalKill
	if cleanShutdown {
		sig = SignalTerm
	}

	for _, pid := range pids {
		if err := acc.SSH(ctx, fmt.Sprintf("kill -%d %d", sig, pid), allowFail); err != nil {
			return err
		}
	}
	return nil
}
