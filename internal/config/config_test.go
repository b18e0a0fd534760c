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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apache/ignite-ducktests/internal/service"
	"github.com/apache/ignite-ducktests/internal/service/spark"
)

// TestLoadConfig tests configuration loading
// TestLoadConfig 测试配置加载
func TestLoadConfig(t *testing.T) {
	// Create a temporary config file / 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
log:
  level: debug
  file: /tmp/ducktests.log
  max_size: 50

ssh:
  user: ducker
  port: 2222
  key_file: /home/ducker/.ssh/id_rsa
  insecure_ignore_host_key: true

cluster:
  hosts:
    - ducker01
    - ducker02
    - ducker03

paths:
  install_root: /opt
  persistent_root: /mnt/ducktests

spark:
  version: 3.1.2
  num_nodes: 3
  start_timeout: 1m
  start_backoff: 2s

session:
  globals: '{"ignite_versions": ["2.8.1"]}'
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/ducktests.log", cfg.Log.File)
	assert.Equal(t, 50, cfg.Log.MaxSize)
	assert.Equal(t, DefaultLogMaxBackups, cfg.Log.MaxBackups)
	assert.Equal(t, "ducker", cfg.SSH.User)
	assert.Equal(t, 2222, cfg.SSH.Port)
	assert.True(t, cfg.SSH.InsecureIgnoreHostKey)
	assert.Equal(t, []string{"ducker01", "ducker02", "ducker03"}, cfg.Cluster.Hosts)
	assert.Equal(t, "/mnt/ducktests", cfg.Paths.PersistentRoot)
	assert.Equal(t, "3.1.2", cfg.Spark.Version)
	assert.Equal(t, time.Minute, cfg.Spark.StartTimeout)
	assert.Equal(t, 2*time.Second, cfg.Spark.StartBackoff)
	assert.Equal(t, spark.DefaultLogLevel, cfg.Spark.LogLevel)
	assert.Equal(t, `{"ignite_versions": ["2.8.1"]}`, cfg.Session.Globals)
	require.NoError(t, cfg.Validate())

	opts := cfg.SSHOptions()
	assert.Equal(t, "ducker", opts.User)
	assert.Equal(t, "/home/ducker/.ssh/id_rsa", opts.KeyFile)
	assert.Equal(t, DefaultDialTimeout, opts.DialTimeout)

	params := cfg.SparkParams()
	assert.Equal(t, "3.1.2", params.Version)
	assert.Equal(t, time.Minute, params.StartTimeout)
}

// TestLoadConfigDefaults tests default configuration values
// TestLoadConfigDefaults 测试默认配置值
func TestLoadConfigDefaults(t *testing.T) {
	// A missing file falls back to defaults / 文件不存在时使用默认值
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFile, cfg.Log.File)
	assert.Equal(t, DefaultLogMaxSize, cfg.Log.MaxSize)
	assert.Equal(t, DefaultLogMaxAge, cfg.Log.MaxAge)
	assert.Equal(t, DefaultSSHPort, cfg.SSH.Port)
	assert.Empty(t, cfg.Cluster.Hosts)
	assert.Equal(t, service.DefaultPaths(), cfg.Paths)
	assert.Equal(t, spark.DefaultVersion, cfg.Spark.Version)
	assert.Equal(t, spark.DefaultNumNodes, cfg.Spark.NumNodes)
	assert.Equal(t, 30*time.Second, cfg.Spark.StartTimeout)
	assert.Equal(t, 5*time.Second, cfg.Spark.StartBackoff)
	assert.NoError(t, cfg.Validate())
}

// TestLoadConfigEnvOverride tests DUCKTESTS_* environment overrides
// TestLoadConfigEnvOverride 测试 DUCKTESTS_* 环境变量覆盖
func TestLoadConfigEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("spark:\n  start_timeout: 10s\n"), 0644))

	t.Setenv("DUCKTESTS_SPARK_START_TIMEOUT", "45s")
	t.Setenv(EnvConfigPath, configPath)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Spark.StartTimeout)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log: [\n  level"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestValidateConfig tests configuration validation
// TestValidateConfig 测试配置验证
func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFromYAML(nil)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "invalid log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: "invalid log level"},
		{name: "invalid port", mutate: func(c *Config) { c.SSH.Port = 0 }, wantErr: "ssh.port"},
		{name: "zero nodes", mutate: func(c *Config) { c.Spark.NumNodes = 0 }, wantErr: "num_nodes"},
		{name: "zero backoff", mutate: func(c *Config) { c.Spark.StartBackoff = 0 }, wantErr: "start_backoff"},
		{
			name:    "timeout below backoff",
			mutate:  func(c *Config) { c.Spark.StartTimeout = time.Second },
			wantErr: "start_timeout",
		},
		{
			name:    "too few hosts",
			mutate:  func(c *Config) { c.Cluster.Hosts = []string{"a", "b"} },
			wantErr: "cluster.hosts",
		},
		{name: "relative root", mutate: func(c *Config) { c.Paths.InstallRoot = "opt" }, wantErr: "absolute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg, err := LoadFromYAML([]byte("cluster:\n  hosts: [n1]\nspark:\n  num_nodes: 1\n"))
	require.NoError(t, err)
	assert.Contains(t, cfg.String(), "Cluster.Hosts: [n1]")
	assert.Contains(t, cfg.String(), "Spark.NumNodes: 1")
}

func TestEqualNil(t *testing.T) {
	var a, b *Config
	assert.True(t, a.Equal(b))
	cfg, err := LoadFromYAML(nil)
	require.NoError(t, err)
	assert.False(t, cfg.Equal(nil))
	assert.True(t, cfg.Equal(cfg))
}
