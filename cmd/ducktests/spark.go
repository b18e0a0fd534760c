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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apache/ignite-ducktests/internal/config"
	"github.com/apache/ignite-ducktests/internal/remote"
	"github.com/apache/ignite-ducktests/internal/service"
	"github.com/apache/ignite-ducktests/internal/service/spark"
)

// newAccount opens remote access to host
// newAccount 打开对 host 的远程访问
var newAccount = func(host string, cfg *config.Config, log *zap.Logger) remote.Account {
	return remote.NewSSHAccount(host, cfg.SSHOptions(), log)
}

// ErrServiceIDRequired indicates a command that addresses an existing
// persistent root without a service id to name it
// ErrServiceIDRequired 表示命令需要定位已有持久化根目录但未提供服务 ID
var ErrServiceIDRequired = errors.New("spark: --service-id or spark.service_id is required")

// spark flags
// spark 标志
var (
	sparkClean     bool
	sparkServiceID string
)

// sparkCmd groups the Spark service commands
// sparkCmd 汇总 Spark 服务命令
var sparkCmd = &cobra.Command{
	Use:   "spark",
	Short: "Manage a Spark standalone cluster / 管理 Spark 独立集群",
	Long: `Manage a Spark standalone cluster on cluster.hosts.
The first host runs the master; the others run workers.
在 cluster.hosts 上管理 Spark 独立集群。第一个主机运行 master，其余运行 worker。`,
}

var sparkStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cluster and wait until every node is up / 启动集群并等待所有节点就绪",
	Args:  cobra.NoArgs,
	RunE: withSpark(false, func(ctx context.Context, out io.Writer, svc *spark.Service) error {
		if err := svc.Start(ctx, sparkClean); err != nil {
			return err
		}
		fmt.Fprintf(out, "Spark started, service id: %s\n", svc.Base().ServiceID())
		return nil
	}),
}

var sparkStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop every node / 停止所有节点",
	Args:  cobra.NoArgs,
	RunE: withSpark(false, func(ctx context.Context, out io.Writer, svc *spark.Service) error {
		return svc.Stop(ctx)
	}),
}

var sparkCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Kill daemons and remove persistent state / 结束守护进程并删除持久化状态",
	Args:  cobra.NoArgs,
	RunE: withSpark(true, func(ctx context.Context, out io.Writer, svc *spark.Service) error {
		for _, node := range svc.Base().Nodes() {
			if err := service.Clean(ctx, svc, node); err != nil {
				return err
			}
		}
		return nil
	}),
}

var sparkPidsCmd = &cobra.Command{
	Use:   "pids",
	Short: "Print Spark pids per node / 打印每个节点的 Spark 进程 ID",
	Args:  cobra.NoArgs,
	RunE: withSpark(false, func(ctx context.Context, out io.Writer, svc *spark.Service) error {
		for _, node := range svc.Base().Nodes() {
			fmt.Fprintf(out, "%s\t%s\t%v\n", node.Hostname(), svc.JavaClassName(node), svc.Pids(ctx, node))
		}
		return nil
	}),
}

func init() {
	sparkCmd.PersistentFlags().StringVar(&sparkServiceID, "service-id", "", "service id naming the persistent root (default: spark.service_id or generated)")
	sparkStartCmd.Flags().BoolVar(&sparkClean, "clean", true, "clean nodes before starting")

	sparkCmd.AddCommand(sparkStartCmd, sparkStopCmd, sparkCleanCmd, sparkPidsCmd)
}

// withSpark builds the Spark service from configuration and runs fn under a
// context canceled on SIGINT or SIGTERM. With needsID the service id must be
// configured rather than generated.
// withSpark 根据配置构建 Spark 服务，并在收到 SIGINT 或 SIGTERM 时取消的上下文中运行 fn。
// needsID 为 true 时服务 ID 必须显式配置而不能自动生成。
func withSpark(needsID bool, fn func(ctx context.Context, out io.Writer, svc *spark.Service) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		if sparkServiceID != "" {
			overrides["spark.service_id"] = sparkServiceID
		}
		cfg, err := loadConfig(overrides)
		if err != nil {
			return err
		}
		if needsID && cfg.Spark.ServiceID == "" {
			return ErrServiceIDRequired
		}
		if len(cfg.Cluster.Hosts) < cfg.Spark.NumNodes {
			return fmt.Errorf("cluster.hosts has %d hosts, spark needs %d", len(cfg.Cluster.Hosts), cfg.Spark.NumNodes)
		}

		log := newLogger(cmd, cfg)
		defer func() { _ = log.Sync() }()

		globals, err := loadGlobals(cfg, "")
		if err != nil {
			return err
		}

		accounts := make([]remote.Account, 0, cfg.Spark.NumNodes)
		for _, host := range cfg.Cluster.Hosts[:cfg.Spark.NumNodes] {
			acc := newAccount(host, cfg, log)
			if closer, ok := acc.(io.Closer); ok {
				defer closer.Close()
			}
			accounts = append(accounts, acc)
		}

		params := cfg.SparkParams()
		params.Nodes = service.NewNodes(accounts...)
		params.Globals = globals
		params.Logger = log
		svc := spark.New(params)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info("Running spark command",
			zap.String("command", cmd.Name()),
			zap.String("service", svc.Base().ServiceID()),
			zap.String("version", svc.Version()),
			zap.Strings("hosts", cfg.Cluster.Hosts[:cfg.Spark.NumNodes]))
		return fn(ctx, cmd.OutOrStdout(), svc)
	}
}
