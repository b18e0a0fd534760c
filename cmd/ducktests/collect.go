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
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/apache/ignite-ducktests/internal/mark"
	"github.com/apache/ignite-ducktests/internal/suites"
)

// Output formats of collect
// collect 的输出格式
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
)

// registry is the set of registrations collect expands
var registry = suites.Default()

// collect flags
// collect 标志
var (
	collectGlobals string
	collectTest    string
	collectOutput  string
)

// collectCmd expands registered tests into execution contexts
// collectCmd 将注册的测试展开为执行上下文
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Expand registered tests into contexts / 将注册的测试展开为上下文",
	Args:  cobra.NoArgs,
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectGlobals, "globals", "", "session globals as JSON text or a YAML/JSON file")
	collectCmd.Flags().StringVar(&collectTest, "test", "", "expand only the named test")
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", OutputTable, "output format (table, yaml)")
}

// collectedContext is the printable form of one context
// collectedContext 是单个上下文的可打印形式
type collectedContext struct {
	Name     string            `yaml:"name"`
	Function string            `yaml:"function"`
	Args     map[string]string `yaml:"args"`
	Ignore   bool              `yaml:"ignore"`
}

func runCollect(cmd *cobra.Command, args []string) error {
	if collectOutput != OutputTable && collectOutput != OutputYAML {
		return fmt.Errorf("unknown output format %q (must be %s or %s)", collectOutput, OutputTable, OutputYAML)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	defer func() { _ = log.Sync() }()

	globals, err := loadGlobals(cfg, collectGlobals)
	if err != nil {
		return err
	}

	contexts, err := registry.Collect(collectTest, globals.Globals)
	if err != nil {
		return err
	}
	log.Debug("Collected contexts", zap.Int("count", len(contexts)), zap.String("test", collectTest))

	collected := make([]collectedContext, 0, len(contexts))
	for _, c := range contexts {
		collected = append(collected, toCollected(c))
	}

	if collectOutput == OutputYAML {
		return writeYAML(cmd.OutOrStdout(), collected)
	}
	writeTable(cmd.OutOrStdout(), collected)
	return nil
}

func toCollected(c *mark.Context) collectedContext {
	injected := c.InjectedArgs()
	out := collectedContext{
		Name:     c.TestName(),
		Function: c.FunctionName(),
		Args:     make(map[string]string, len(injected)),
		Ignore:   c.Ignore(),
	}
	for k, v := range injected {
		out.Args[k] = fmt.Sprint(v)
	}
	return out
}

func writeYAML(w io.Writer, collected []collectedContext) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(collected); err != nil {
		return fmt.Errorf("failed to encode contexts: %w", err)
	}
	return enc.Close()
}

func writeTable(w io.Writer, collected []collectedContext) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.Style{
		Box: table.BoxStyle{
			PaddingLeft:  " ",
			PaddingRight: " ",
		},
		Format: table.FormatOptions{
			Header: text.FormatUpper,
			Row:    text.FormatDefault,
		},
		Options: table.Options{
			DrawBorder:      false,
			SeparateColumns: false,
			SeparateHeader:  false,
		},
	})
	t.AppendHeader(table.Row{"Name", "Function", "Ignored"})
	for _, c := range collected {
		ignored := ""
		if c.Ignore {
			ignored = "yes"
		}
		t.AppendRow(table.Row{c.Name, c.Function, ignored})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d contexts", len(collected))})
	t.Render()
}
