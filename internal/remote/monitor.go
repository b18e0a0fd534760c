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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/backo-go"
)

// Default wait settings
// 默认等待设置
const (
	DefaultWaitTimeout = 30 * time.Second
	DefaultWaitBackoff = 5 * time.Second
)

// ErrWaitTimeout indicates the pattern did not appear before the timeout
// ErrWaitTimeout 表示在超时前未出现匹配内容
var ErrWaitTimeout = errors.New("remote: wait timed out")

// WaitOptions controls WaitUntil polling
// WaitOptions 控制 WaitUntil 的轮询
type WaitOptions struct {
	Timeout time.Duration
	Backoff time.Duration
	// ErrMsg is included in the timeout error
	// ErrMsg 包含在超时错误中
	ErrMsg string
}

// LogMonitor watches a remote log file for lines written after it was created
// LogMonitor 监控远程日志文件中创建之后写入的内容
type LogMonitor struct {
	acc    Account
	path   string
	offset int64
}

// MonitorLog records the current size of path so only new content is matched.
// A missing file counts as empty.
// MonitorLog 记录 path 当前大小，只匹配之后的新内容。文件不存在视为空。
func MonitorLog(ctx context.Context, acc Account, path string) (*LogMonitor, error) {
	lines, err := acc.SSHCapture(ctx, fmt.Sprintf("wc -c %s", shellQuote(path)), true)
	if err != nil {
		return nil, err
	}

	var offset int64
	if len(lines) > 0 {
		fields := strings.Fields(lines[0])
		if len(fields) > 0 {
			if n, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
				offset = n
			}
		}
	}

	return &LogMonitor{acc: acc, path: path, offset: offset}, nil
}

// Path returns the monitored file
func (m *LogMonitor) Path() string {
	return m.path
}

// Offset returns the byte offset recorded at creation
func (m *LogMonitor) Offset() int64 {
	return m.offset
}

// Matches reports whether pattern occurs after the recorded offset
// Matches 判断记录偏移之后是否出现 pattern
func (m *LogMonitor) Matches(ctx context.Context, pattern string) (bool, error) {
	cmd := fmt.Sprintf("tail -c +%d %s | grep -e %s", m.offset+1, shellQuote(m.path), shellQuote(pattern))
	lines, err := m.acc.SSHCapture(ctx, cmd, true)
	if err != nil {
		return false, err
	}
	return len(lines) > 0, nil
}

// WaitUntil polls the log with a fixed backoff until pattern appears or the timeout elapses
// WaitUntil 以固定退避轮询日志，直到出现 pattern 或超时
func (m *LogMonitor) WaitUntil(ctx context.Context, pattern string, opts WaitOptions) error {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultWaitTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultWaitBackoff
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := backo.NewBacko(opts.Backoff, 1, 0, opts.Backoff).NewTicker()
	defer ticker.Stop()

	for {
		ok, err := m.Matches(waitCtx, pattern)
		if err == nil && ok {
			return nil
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			msg := opts.ErrMsg
			if msg == "" {
				msg = fmt.Sprintf("%q not found in %s", pattern, m.path)
			}
			return fmt.Errorf("%w after %s: %s", ErrWaitTimeout, opts.Timeout, msg)
		case <-ticker.C:
		}
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
