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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/apache/ignite-ducktests/internal/config"
	"github.com/apache/ignite-ducktests/internal/remote"
	"github.com/apache/ignite-ducktests/internal/remote/remotetest"
	"github.com/apache/ignite-ducktests/internal/service/spark"
)

// execute runs the root command with args against a config file written to a
// temp dir and returns stdout
// execute 使用写入临时目录的配置文件运行根命令并返回标准输出
func execute(t *testing.T, configYAML string, args ...string) (string, error) {
	t.Helper()

	configFile, logLevel = "", ""
	collectGlobals, collectTest, collectOutput = "", "", OutputTable
	sparkClean, sparkServiceID = true, ""

	path := filepath.Join(t.TempDir(), "ducktests.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o644))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", path}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), err
}

// fakeAccounts swaps newAccount for scripted accounts keyed by host
// fakeAccounts 将 newAccount 替换为按主机索引的预设账户
func fakeAccounts(t *testing.T, accounts ...*remotetest.Account) {
	t.Helper()
	byHost := make(map[string]*remotetest.Account, len(accounts))
	for _, a := range accounts {
		byHost[a.Host] = a
	}
	orig := newAccount
	newAccount = func(host string, _ *config.Config, _ *zap.Logger) remote.Account {
		if a, ok := byHost[host]; ok {
			return a
		}
		return remotetest.NewAccount(host, "ducker")
	}
	t.Cleanup(func() { newAccount = orig })
}

const quietConfig = "log:\n  level: error\n"

const twoNodeConfig = `
log:
  level: error
cluster:
  hosts: [n1, n2]
spark:
  num_nodes: 2
  service_id: spark-test
`

// TestRootCommand tests root command structure
// TestRootCommand 测试根命令结构
func TestRootCommand(t *testing.T) {
	assert.Equal(t, "ducktests", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "version")
	assert.Contains(t, names, "collect")
	assert.Contains(t, names, "spark")
}

// TestVersionCommand tests version command
// TestVersionCommand 测试版本命令
func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)

	out, err := execute(t, quietConfig, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Go Version:")
}

func TestCollectCommand_YAML(t *testing.T) {
	out, err := execute(t, "log:\n  level: error\n",
		"collect", "--test", "spark_smoke", "-o", "yaml", "--globals", `{"ignite_versions": "2.8.1"}`)
	require.NoError(t, err)

	var collected []collectedContext
	require.NoError(t, yaml.Unmarshal([]byte(out), &collected))
	require.Len(t, collected, 1)
	assert.Equal(t, "spark_smoke.ignite_version=ignite-2.8.1.spark_version=2.3.4", collected[0].Name)
	assert.Equal(t, "spark_smoke", collected[0].Function)
	assert.Equal(t, "ignite-2.8.1", collected[0].Args["ignite_version"])
	assert.Equal(t, "2.3.4", collected[0].Args["spark_version"])
	assert.False(t, collected[0].Ignore)
}

func TestCollectCommand_Table(t *testing.T) {
	out, err := execute(t, quietConfig, "collect")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "compatibility")
	assert.Contains(t, out, "rebalance")
	assert.Contains(t, out, "spark_smoke")
	assert.Contains(t, out, "16 contexts")
	assert.Equal(t, 4, strings.Count(out, " yes"))
}

func TestCollectCommand_Errors(t *testing.T) {
	_, err := execute(t, quietConfig, "collect", "-o", "json")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, quietConfig, "collect", "--test", "missing")
	assert.Error(t, err)

	_, err = execute(t, "log:\n  level: loud\n", "collect")
	assert.ErrorContains(t, err, "invalid config")
}

func TestSparkCommand_Pids(t *testing.T) {
	n1 := remotetest.NewAccount("n1", "ducker").OnOutput("jcmd", "101")
	n2 := remotetest.NewAccount("n2", "ducker")
	fakeAccounts(t, n1, n2)

	out, err := execute(t, twoNodeConfig, "spark", "pids")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "n1\t"+spark.MasterClass+"\t[101]", lines[0])
	assert.Equal(t, "n2\t"+spark.WorkerClass+"\t[]", lines[1])
}

func TestSparkCommand_StopAndClean(t *testing.T) {
	n1 := remotetest.NewAccount("n1", "ducker")
	n2 := remotetest.NewAccount("n2", "ducker")
	fakeAccounts(t, n1, n2)

	_, err := execute(t, twoNodeConfig, "spark", "stop")
	require.NoError(t, err)
	assert.True(t, n1.Ran("stop-master.sh"))
	assert.True(t, n2.Ran("stop-slave.sh"))

	_, err = execute(t, twoNodeConfig, "spark", "clean", "--service-id", "spark-other")
	require.NoError(t, err)
	assert.True(t, n1.Ran("rm -rf -- /mnt/service/spark-other"))
	assert.True(t, n2.Ran("rm -rf -- /mnt/service/spark-other"))
}

func TestSparkCommand_CleanNeedsServiceID(t *testing.T) {
	n1 := remotetest.NewAccount("n1", "ducker")
	fakeAccounts(t, n1)

	noID := "log:\n  level: error\ncluster:\n  hosts: [n1]\nspark:\n  num_nodes: 1\n"
	_, err := execute(t, noID, "spark", "clean")
	require.ErrorIs(t, err, ErrServiceIDRequired)
	assert.Empty(t, n1.Commands())

	_, err = execute(t, noID, "spark", "clean", "--service-id", "spark-run1")
	require.NoError(t, err)
	assert.True(t, n1.Ran("rm -rf -- /mnt/service/spark-run1"))
}

func TestSparkCommand_NotEnoughHosts(t *testing.T) {
	fakeAccounts(t)

	_, err := execute(t, "log:\n  level: error\ncluster:\n  hosts: [n1]\nspark:\n  num_nodes: 1\n", "spark", "pids")
	require.NoError(t, err)

	_, err = execute(t, quietConfig, "spark", "pids")
	assert.ErrorContains(t, err, "cluster.hosts has 0 hosts")
}
