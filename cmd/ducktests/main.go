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

// Package main is the entry point for the ducktests runner.
// main 包是 ducktests 运行器的入口点。
//
// The runner:
// 运行器负责：
// - Expands registered tests into execution contexts / 将注册的测试展开为执行上下文
// - Drives the Spark service on cluster nodes over SSH / 通过 SSH 在集群节点上驱动 Spark 服务
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apache/ignite-ducktests/internal/config"
	"github.com/apache/ignite-ducktests/internal/logger"
	"github.com/apache/ignite-ducktests/internal/session"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// rootCmd is the root command for the ducktests CLI
// rootCmd 是 ducktests CLI 的根命令
var rootCmd = &cobra.Command{
	Use:   "ducktests",
	Short: "ducktests - version-parametrized system tests for Apache Ignite",
	Long: `ducktests expands version-parametrized test registrations and manages
the services they run against.
ducktests 展开按版本参数化的测试注册，并管理测试所依赖的服务。

- collect: expand registered tests into contexts / 将注册的测试展开为上下文
- spark: start, stop, clean a Spark cluster / 启动、停止、清理 Spark 集群`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ducktests\n")
		fmt.Fprintf(out, "  Version:    %s\n", Version)
		fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
		fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// Global flags
// 全局标志
var (
	// configFile is the path to the configuration file
	// configFile 是配置文件的路径
	configFile string

	// logLevel overrides log.level when set
	// logLevel 设置时覆盖 log.level
	logLevel string
)

func init() {
	// Add flags to root command
	// 向根命令添加标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: $"+config.EnvConfigPath+" or "+config.DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	// Add subcommands
	// 添加子命令
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(sparkCmd)
}

// loadConfig loads and validates configuration, applying flag overrides
// loadConfig 加载并验证配置，并应用命令行覆盖
func loadConfig(overrides map[string]any) (*config.Config, error) {
	if overrides == nil {
		overrides = make(map[string]any)
	}
	if logLevel != "" {
		overrides["log.level"] = logLevel
	}

	cfg, err := config.LoadWithPriority(configFile, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger writing to the command's stderr
// newLogger 构建输出到命令 stderr 的日志器
func newLogger(cmd *cobra.Command, cfg *config.Config) *zap.Logger {
	l, err := logger.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// loadGlobals loads session globals from arg, falling back to session.globals
// loadGlobals 从 arg 加载会话全局参数，为空时使用 session.globals
func loadGlobals(cfg *config.Config, arg string) (*session.Context, error) {
	if arg == "" {
		arg = cfg.Session.Globals
	}
	return session.LoadGlobals(arg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
