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

package mark

import (
	"errors"
	"fmt"
	"strings"
)

// Context is one expanded invocation of a registered test
// Context 是注册测试展开后的一次调用
type Context struct {
	test   *Test
	args   Args
	ignore bool
}

// FunctionName returns the registered test name
// FunctionName 返回注册的测试名
func (c *Context) FunctionName() string {
	return c.test.Name
}

// InjectedArgs returns a copy of the injected arguments
// InjectedArgs 返回注入参数的副本
func (c *Context) InjectedArgs() Args {
	return c.args.clone()
}

// Ignore reports whether the context should be skipped
// Ignore 表示该上下文是否应被跳过
func (c *Context) Ignore() bool {
	return c.ignore
}

// TestName returns the function name followed by ".key=value" for every
// injected argument in key order, e.g. "check_upgrade.ver=ignite-dev.x=10"
// TestName 返回函数名，并按键顺序追加每个注入参数的 ".key=value"
func (c *Context) TestName() string {
	var b strings.Builder
	b.WriteString(c.test.Name)
	for _, k := range c.args.Keys() {
		fmt.Fprintf(&b, ".%s=%v", k, c.args[k])
	}
	return b.String()
}

// Call invokes the test function with the injected arguments
// Call 使用注入的参数调用测试函数
func (c *Context) Call() (any, error) {
	if c.test.Func == nil {
		return nil, fmt.Errorf("mark: test %s has no function", c.test.Name)
	}
	return c.test.Func(c.args.clone())
}

// Expand expands t into execution contexts. globals is the session-level
// configuration; its VersionsKey entry, when present, overrides the declared
// versions.
// Expand 将 t 展开为执行上下文。globals 是会话级配置，其中的 VersionsKey
// 项存在时会覆盖声明的版本。
func Expand(t *Test, globals map[string]any) ([]*Context, error) {
	if t == nil {
		return nil, errors.New("mark: nil test")
	}
	if t.Versions == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoVersionMark, t.Name)
	}

	declared := make(map[string]bool, len(t.Args))
	for _, a := range t.Args {
		declared[a] = true
	}

	slots := t.Versions.Slots()
	for _, slot := range slots {
		if !declared[slot] {
			return nil, fmt.Errorf("%w: %s: %q not in %v", ErrUnknownSlot, t.Name, slot, t.Args)
		}
	}

	var override any
	if globals != nil {
		override = globals[VersionsKey]
	}

	versions, err := Resolve(t.Versions, override)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	points, err := seedPoints(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	contexts := make([]*Context, 0, len(points)*len(versions))
	for _, point := range points {
		for _, v := range versions {
			args := point.clone()
			for i, slot := range slots {
				args[slot] = v[i]
			}

			if err := checkArgs(t, declared, args); err != nil {
				return nil, err
			}

			ignore, err := evalIgnore(t.Ignore, args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Name, err)
			}

			contexts = append(contexts, &Context{test: t, args: args, ignore: ignore})
		}
	}

	return contexts, nil
}

// seedPoints collects the argument points of all non-version marks in
// declaration order: Parametrize first, then Matrix grids
func seedPoints(t *Test) ([]Args, error) {
	var points []Args
	for _, p := range t.Parametrize {
		points = append(points, Args(p).clone())
	}
	for _, m := range t.Matrix {
		grid, err := m.points()
		if err != nil {
			return nil, err
		}
		points = append(points, grid...)
	}
	if len(points) == 0 {
		points = []Args{{}}
	}
	return points, nil
}

func checkArgs(t *Test, declared map[string]bool, args Args) error {
	for _, k := range args.Keys() {
		if !declared[k] {
			return fmt.Errorf("%w: %s: %q", ErrUnknownArgument, t.Name, k)
		}
	}
	for _, a := range t.Args {
		if _, ok := args[a]; !ok {
			return fmt.Errorf("%w: %s: %q", ErrMissingArgument, t.Name, a)
		}
	}
	return nil
}

func evalIgnore(predicates []IgnorePredicate, args Args) (bool, error) {
	ignore := false
	for _, p := range predicates {
		matched, err := p.eval(args)
		if err != nil {
			return false, err
		}
		ignore = ignore || matched
	}
	return ignore, nil
}

// ExpandAll expands every test in order and concatenates the contexts.
// The first contract violation aborts the expansion.
// ExpandAll 依次展开所有测试并拼接上下文，遇到第一个契约违规即中止。
func ExpandAll(tests []*Test, globals map[string]any) ([]*Context, error) {
	var all []*Context
	for _, t := range tests {
		contexts, err := Expand(t, globals)
		if err != nil {
			return nil, err
		}
		all = append(all, contexts...)
	}
	return all, nil
}
