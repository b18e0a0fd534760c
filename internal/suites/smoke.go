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

package suites

import (
	"fmt"

	"github.com/apache/ignite-ducktests/internal/mark"
	"github.com/apache/ignite-ducktests/internal/service/spark"
	"github.com/apache/ignite-ducktests/internal/version"
)

// Registered test names
// 已注册的测试名
const (
	SparkSmokeTest    = "spark_smoke"
	CompatibilityTest = "compatibility"
	RebalanceTest     = "rebalance"
)

// Plan describes what a context would run against the cluster
// Plan 描述上下文将在集群上运行的内容
type Plan struct {
	Test     string            `yaml:"test" json:"test"`
	Versions []version.Version `yaml:"versions" json:"versions"`
	Params   map[string]any    `yaml:"params,omitempty" json:"params,omitempty"`
}

// Default returns a registry holding the built-in registrations
// Default 返回包含内置注册的注册表
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(sparkSmoke())
	r.MustRegister(compatibility())
	r.MustRegister(rebalance())
	return r
}

// sparkSmoke starts a Spark cluster of every supported version next to each Ignite version
func sparkSmoke() *mark.Test {
	return &mark.Test{
		Name:     SparkSmokeTest,
		Args:     []string{mark.DefaultVersionPrefix, "spark_version"},
		Versions: mark.IgniteVersions("", version.DevBranch.Token(), version.LatestStable.Token()),
		Matrix: []mark.Matrix{
			{"spark_version": {spark.DefaultVersion}},
		},
		Func: func(args mark.Args) (any, error) {
			v, err := args.Version(mark.DefaultVersionPrefix)
			if err != nil {
				return nil, err
			}
			return Plan{
				Test:     SparkSmokeTest,
				Versions: []version.Version{v},
				Params:   map[string]any{"spark_version": args["spark_version"], "num_nodes": spark.DefaultNumNodes},
			}, nil
		},
	}
}

// compatibility runs both directions of a mixed-version cluster
func compatibility() *mark.Test {
	first := mark.DefaultVersionPrefix + "_1"
	second := mark.DefaultVersionPrefix + "_2"
	return &mark.Test{
		Name: CompatibilityTest,
		Args: []string{first, second},
		Versions: mark.IgniteVersionPairs("",
			mark.Pair{version.DevBranch.Token(), version.LatestStable.Token()},
			mark.Pair{version.LatestStable.Token(), version.DevBranch.Token()},
		),
		Func: func(args mark.Args) (any, error) {
			a, err := args.Version(first)
			if err != nil {
				return nil, err
			}
			b, err := args.Version(second)
			if err != nil {
				return nil, err
			}
			if a.Equal(b) {
				return nil, fmt.Errorf("compatibility needs distinct versions, got %s twice", a)
			}
			return Plan{Test: CompatibilityTest, Versions: []version.Version{a, b}}, nil
		},
	}
}

// rebalance is skipped on releases older than 2.8.0
func rebalance() *mark.Test {
	return &mark.Test{
		Name: RebalanceTest,
		Args: []string{mark.DefaultVersionPrefix, "backups", "cache_count"},
		Versions: mark.IgniteVersions("",
			version.V2_7_6.Token(), version.V2_8_0.Token(), version.DevBranch.Token()),
		Matrix: []mark.Matrix{
			{"backups": {1, 2}, "cache_count": {1, 10}},
		},
		Ignore: []mark.IgnorePredicate{
			mark.VersionIf(func(v version.Version) bool { return !v.LessThan(version.V2_8_0) }, ""),
		},
		Func: func(args mark.Args) (any, error) {
			v, err := args.Version(mark.DefaultVersionPrefix)
			if err != nil {
				return nil, err
			}
			return Plan{
				Test:     RebalanceTest,
				Versions: []version.Version{v},
				Params:   map[string]any{"backups": args["backups"], "cache_count": args["cache_count"]},
			}, nil
		},
	}
}
