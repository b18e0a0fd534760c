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

// Package config provides configuration management for the ducktests runner.
// config 包提供 ducktests 运行器的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Command line arguments / 命令行参数
// 2. Environment variables (DUCKTESTS_*) / 环境变量（DUCKTESTS_*）
// 3. Configuration file / 配置文件
// 4. Default values / 默认值
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/apache/ignite-ducktests/internal/remote"
	"github.com/apache/ignite-ducktests/internal/service"
	"github.com/apache/ignite-ducktests/internal/service/spark"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath    = "ducktests.yaml"
	EnvPrefix            = "DUCKTESTS"
	EnvConfigPath        = "DUCKTESTS_CONFIG_PATH"
	DefaultLogLevel      = "info"
	DefaultLogFile       = ""
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 7 // days
	DefaultSSHPort       = 22
	DefaultDialTimeout   = 10 * time.Second
)

// Config represents the runner configuration
// Config 表示运行器配置
type Config struct {
	// Log configuration / 日志配置
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// SSH configuration / SSH 配置
	SSH SSHConfig `mapstructure:"ssh" yaml:"ssh"`

	// Cluster configuration / 集群配置
	Cluster ClusterConfig `mapstructure:"cluster" yaml:"cluster"`

	// Path layout on nodes / 节点路径布局
	Paths service.Paths `mapstructure:"paths" yaml:"paths"`

	// Spark service configuration / Spark 服务配置
	Spark SparkConfig `mapstructure:"spark" yaml:"spark"`

	// Session configuration / 会话配置
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// LogConfig contains logging settings
// LogConfig 包含日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log file path; empty logs to stderr only
	// File 是日志文件路径，为空时仅输出到 stderr
	File string `mapstructure:"file" yaml:"file"`

	// MaxSize is the maximum size of log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age" yaml:"max_age"`
}

// SSHConfig contains remote access settings
// SSHConfig 包含远程访问设置
type SSHConfig struct {
	User                  string        `mapstructure:"user" yaml:"user"`
	Port                  int           `mapstructure:"port" yaml:"port"`
	KeyFile               string        `mapstructure:"key_file" yaml:"key_file"`
	Password              string        `mapstructure:"password" yaml:"password"`
	KnownHostsFile        string        `mapstructure:"known_hosts_file" yaml:"known_hosts_file"`
	InsecureIgnoreHostKey bool          `mapstructure:"insecure_ignore_host_key" yaml:"insecure_ignore_host_key"`
	DialTimeout           time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// ClusterConfig lists the nodes available to services
// ClusterConfig 列出可供服务使用的节点
type ClusterConfig struct {
	Hosts []string `mapstructure:"hosts" yaml:"hosts"`
}

// SparkConfig contains Spark service settings
// SparkConfig 包含 Spark 服务设置
type SparkConfig struct {
	// ServiceID names the persistent root; runs sharing it manage the same cluster
	// ServiceID 命名持久化根目录，相同值的运行管理同一集群
	ServiceID    string        `mapstructure:"service_id" yaml:"service_id"`
	Version      string        `mapstructure:"version" yaml:"version"`
	NumNodes     int           `mapstructure:"num_nodes" yaml:"num_nodes"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	StartTimeout time.Duration `mapstructure:"start_timeout" yaml:"start_timeout"`
	StartBackoff time.Duration `mapstructure:"start_backoff" yaml:"start_backoff"`
}

// SessionConfig contains session-level settings
// SessionConfig 包含会话级设置
type SessionConfig struct {
	// Globals is inline JSON or a path to a YAML/JSON file
	// Globals 是内联 JSON 或 YAML/JSON 文件路径
	Globals string `mapstructure:"globals" yaml:"globals"`
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	return LoadWithPriority(configPath, nil)
}

// LoadWithPriority loads configuration with explicit priority handling
// LoadWithPriority 使用显式优先级处理加载配置
// Priority: cmdArgs > envVars > configFile > defaults
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func LoadWithPriority(configPath string, cmdArgs map[string]any) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	v.SetConfigFile(configPath)

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// A missing config file falls back to defaults
		// 配置文件不存在时使用默认值
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Apply command line arguments (highest priority)
	// 应用命令行参数（最高优先级）
	for key, value := range cmdArgs {
		v.Set(key, value)
	}

	return unmarshal(v)
}

// LoadFromYAML loads configuration from YAML bytes
// LoadFromYAML 从 YAML 字节加载配置
func LoadFromYAML(yamlData []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewReader(yamlData)); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)

	// SSH defaults / SSH 默认值
	v.SetDefault("ssh.user", os.Getenv("USER"))
	v.SetDefault("ssh.port", DefaultSSHPort)
	v.SetDefault("ssh.key_file", "")
	v.SetDefault("ssh.password", "")
	v.SetDefault("ssh.known_hosts_file", "")
	v.SetDefault("ssh.insecure_ignore_host_key", false)
	v.SetDefault("ssh.dial_timeout", DefaultDialTimeout)

	// Cluster defaults / 集群默认值
	v.SetDefault("cluster.hosts", []string{})

	// Path defaults / 路径默认值
	v.SetDefault("paths.install_root", service.DefaultInstallRoot)
	v.SetDefault("paths.persistent_root", service.DefaultPersistentRoot)

	// Spark defaults / Spark 默认值
	v.SetDefault("spark.service_id", "")
	v.SetDefault("spark.version", spark.DefaultVersion)
	v.SetDefault("spark.num_nodes", spark.DefaultNumNodes)
	v.SetDefault("spark.log_level", spark.DefaultLogLevel)
	v.SetDefault("spark.start_timeout", spark.DefaultStartTimeout)
	v.SetDefault("spark.start_backoff", spark.DefaultStartBackoff)

	// Session defaults / 会话默认值
	v.SetDefault("session.globals", "")
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	// Validate SSH / 验证 SSH
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("invalid ssh.port: %d", c.SSH.Port)
	}
	if c.SSH.DialTimeout <= 0 {
		return errors.New("ssh.dial_timeout must be positive")
	}

	// Validate Spark / 验证 Spark
	if c.Spark.NumNodes < 1 {
		return errors.New("spark.num_nodes must be at least 1")
	}
	if c.Spark.StartBackoff <= 0 {
		return errors.New("spark.start_backoff must be positive")
	}
	if c.Spark.StartTimeout < c.Spark.StartBackoff {
		return errors.New("spark.start_timeout must not be less than spark.start_backoff")
	}

	// Validate cluster size / 验证集群规模
	if n := len(c.Cluster.Hosts); n > 0 && n < c.Spark.NumNodes {
		return fmt.Errorf("cluster.hosts has %d hosts, spark.num_nodes requires %d", n, c.Spark.NumNodes)
	}

	// Validate paths / 验证路径
	if !strings.HasPrefix(c.Paths.InstallRoot, "/") || !strings.HasPrefix(c.Paths.PersistentRoot, "/") {
		return errors.New("paths.install_root and paths.persistent_root must be absolute")
	}

	return nil
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Cluster.Hosts: %v, SSH.User: %s, Spark.Version: %s, Spark.NumNodes: %d, Log.Level: %s}",
		c.Cluster.Hosts,
		c.SSH.User,
		c.Spark.Version,
		c.Spark.NumNodes,
		c.Log.Level,
	)
}

// ToYAML serializes the configuration to YAML format
// ToYAML 将配置序列化为 YAML 格式
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Equal compares two configs for equality
// Equal 比较两个配置是否相等
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}

	return c.Log == other.Log &&
		c.SSH == other.SSH &&
		slices.Equal(c.Cluster.Hosts, other.Cluster.Hosts) &&
		c.Paths == other.Paths &&
		c.Spark == other.Spark &&
		c.Session == other.Session
}

// SSHOptions maps the SSH section to remote account options
// SSHOptions 将 SSH 配置段映射为远程账户选项
func (c *Config) SSHOptions() remote.SSHOptions {
	return remote.SSHOptions{
		User:                  c.SSH.User,
		Port:                  c.SSH.Port,
		KeyFile:               c.SSH.KeyFile,
		Password:              c.SSH.Password,
		KnownHostsFile:        c.SSH.KnownHostsFile,
		InsecureIgnoreHostKey: c.SSH.InsecureIgnoreHostKey,
		DialTimeout:           c.SSH.DialTimeout,
	}
}

// SparkParams maps the Spark and paths sections; nodes, globals and logger are left to the caller
// SparkParams 映射 Spark 与路径配置段，节点、全局参数和日志由调用方设置
func (c *Config) SparkParams() spark.Params {
	return spark.Params{
		ServiceID:    c.Spark.ServiceID,
		Paths:        c.Paths,
		Version:      c.Spark.Version,
		LogLevel:     c.Spark.LogLevel,
		StartTimeout: c.Spark.StartTimeout,
		StartBackoff: c.Spark.StartBackoff,
	}
}
