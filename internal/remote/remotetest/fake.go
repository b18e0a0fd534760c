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

// Package remotetest provides a scripted remote.Account for tests.
// remotetest 包为测试提供可编排的 remote.Account。
package remotetest

import (
	"context"
	"strings"
	"sync"

	"github.com/apache/ignite-ducktests/internal/remote"
)

// Response is the scripted result of one command
// Response 是单条命令的预设结果
type Response struct {
	Lines      []string
	ExitStatus int
	Err        error
}

type rule struct {
	substr string
	fn     func(cmd string) Response
}

// Account records every command and answers from rules.
// The most recently added rule whose substring occurs in the command wins;
// unmatched commands succeed with no output.
// Account 记录所有命令并按规则应答。
// 最后添加且子串出现在命令中的规则优先；未匹配的命令成功且无输出。
type Account struct {
	Host  string
	Login string

	mu       sync.Mutex
	commands []string
	rules    []rule
}

// NewAccount creates a fake account
func NewAccount(host, user string) *Account {
	return &Account{Host: host, Login: user}
}

// On registers fn for commands containing substr
// On 为包含 substr 的命令注册 fn
func (a *Account) On(substr string, fn func(cmd string) Response) *Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = append(a.rules, rule{substr: substr, fn: fn})
	return a
}

// OnOutput answers commands containing substr with lines
func (a *Account) OnOutput(substr string, lines ...string) *Account {
	return a.On(substr, func(string) Response { return Response{Lines: lines} })
}

// OnExit answers commands containing substr with a non-zero exit status
func (a *Account) OnExit(substr string, status int) *Account {
	return a.On(substr, func(string) Response { return Response{ExitStatus: status} })
}

// Commands returns the commands run so far, in order
// Commands 按顺序返回已执行的命令
func (a *Account) Commands() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.commands...)
}

// Ran reports whether any command contained substr
func (a *Account) Ran(substr string) bool {
	for _, c := range a.Commands() {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

// Hostname implements remote.Account.
func (a *Account) Hostname() string { return a.Host }

// User implements remote.Account.
func (a *Account) User() string { return a.Login }

// SSH implements remote.Account.
func (a *Account) SSH(ctx context.Context, cmd string, allowFail bool) error {
	_, err := a.exec(ctx, cmd, allowFail)
	return err
}

// SSHCapture implements remote.Account.
func (a *Account) SSHCapture(ctx context.Context, cmd string, allowFail bool) ([]string, error) {
	return a.exec(ctx, cmd, allowFail)
}

func (a *Account) exec(ctx context.Context, cmd string, allowFail bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.commands = append(a.commands, cmd)
	var fn func(string) Response
	for i := len(a.rules) - 1; i >= 0; i-- {
		if strings.Contains(cmd, a.rules[i].substr) {
			fn = a.rules[i].fn
			break
		}
	}
	a.mu.Unlock()

	if fn == nil {
		return nil, nil
	}

	resp := fn(cmd)
	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.ExitStatus != 0 && !allowFail {
		return resp.Lines, &remote.RemoteCommandError{Host: a.Host, Cmd: cmd, ExitStatus: resp.ExitStatus}
	}
	return resp.Lines, nil
}

var _ remote.Account = (*Account)(nil)
