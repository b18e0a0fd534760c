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
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Default SSH settings
// 默认 SSH 设置
const (
	DefaultSSHPort     = 22
	DefaultDialTimeout = 10 * time.Second
)

// ErrNoAuthMethod indicates SSH options without a key file or password
// ErrNoAuthMethod 表示 SSH 选项既无密钥文件也无密码
var ErrNoAuthMethod = errors.New("remote: no ssh auth method configured")

// SSHOptions configures an SSH account
// SSHOptions 配置 SSH 账户
type SSHOptions struct {
	User           string
	Port           int
	KeyFile        string
	Password       string
	KnownHostsFile string
	// InsecureIgnoreHostKey skips host key verification when no known_hosts file is set
	// InsecureIgnoreHostKey 在未设置 known_hosts 文件时跳过主机密钥校验
	InsecureIgnoreHostKey bool
	DialTimeout           time.Duration
}

// SSHAccount is an Account backed by golang.org/x/crypto/ssh.
// One client connection is kept per account and one session is opened per command.
// SSHAccount 是基于 golang.org/x/crypto/ssh 的 Account。
// 每个账户保持一个客户端连接，每条命令打开一个会话。
type SSHAccount struct {
	host   string
	opts   SSHOptions
	logger *zap.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHAccount creates an account for host; the connection is opened lazily
// NewSSHAccount 为 host 创建账户，连接延迟建立
func NewSSHAccount(host string, opts SSHOptions, logger *zap.Logger) *SSHAccount {
	if opts.Port == 0 {
		opts.Port = DefaultSSHPort
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.User == "" {
		opts.User = os.Getenv("USER")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSHAccount{host: host, opts: opts, logger: logger}
}

// Hostname implements Account.
func (a *SSHAccount) Hostname() string {
	return a.host
}

// User implements Account.
func (a *SSHAccount) User() string {
	return a.opts.User
}

// SSH implements Account.
func (a *SSHAccount) SSH(ctx context.Context, cmd string, allowFail bool) error {
	_, err := a.run(ctx, cmd, allowFail)
	return err
}

// SSHCapture implements Account.
func (a *SSHAccount) SSHCapture(ctx context.Context, cmd string, allowFail bool) ([]string, error) {
	out, err := a.run(ctx, cmd, allowFail)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Close closes the underlying connection
// Close 关闭底层连接
func (a *SSHAccount) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

func (a *SSHAccount) run(ctx context.Context, cmd string, allowFail bool) (string, error) {
	client, err := a.connect()
	if err != nil {
		return "", err
	}

	session, err := client.NewSession()
	if err != nil {
		// A broken connection is dropped so the next command redials
		// 连接断开时丢弃，下一条命令重新拨号
		_ = a.Close()
		return "", fmt.Errorf("remote: %s: open session: %w", a.host, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	a.logger.Debug("Running remote command", zap.String("host", a.host), zap.String("cmd", cmd))

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return "", fmt.Errorf("remote: %s: %q: %w", a.host, cmd, ctx.Err())
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("remote: %s: %q: %w", a.host, cmd, err)
		}
		if !allowFail {
			return stdout.String(), &RemoteCommandError{
				Host:       a.host,
				Cmd:        cmd,
				ExitStatus: exitErr.ExitStatus(),
				Output:     stderr.String(),
			}
		}
		a.logger.Debug("Remote command failed, ignored",
			zap.String("host", a.host),
			zap.String("cmd", cmd),
			zap.Int("exit_status", exitErr.ExitStatus()))
	}

	return stdout.String(), nil
}

func (a *SSHAccount) connect() (*ssh.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	cfg, err := a.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(a.host, strconv.Itoa(a.opts.Port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", addr, err)
	}

	a.logger.Debug("SSH connection established", zap.String("addr", addr), zap.String("user", a.opts.User))
	a.client = client
	return client, nil
}

func (a *SSHAccount) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if a.opts.KeyFile != "" {
		pemBytes, err := os.ReadFile(a.opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("remote: read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("remote: parse key file %s: %w", a.opts.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if a.opts.Password != "" {
		auth = append(auth, ssh.Password(a.opts.Password))
	}
	if len(auth) == 0 {
		return nil, ErrNoAuthMethod
	}

	hostKeyCallback, err := a.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            a.opts.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         a.opts.DialTimeout,
	}, nil
}

func (a *SSHAccount) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if a.opts.KnownHostsFile != "" {
		cb, err := knownhosts.New(a.opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("remote: load known hosts: %w", err)
		}
		return cb, nil
	}
	if a.opts.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	return nil, errors.New("remote: known_hosts file required unless insecure_ignore_host_key is set")
}
