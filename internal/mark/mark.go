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

// Package mark expands a registered test into one execution context per
// combination of its parametrization marks.
// mark 包将注册的测试按其参数化标记的每种组合展开为执行上下文。
//
// A registration carries:
// 注册记录包含：
// - one version mark (single versions or version pairs) / 一个版本标记（单版本或版本对）
// - any number of Parametrize points and Matrix grids / 任意数量的 Parametrize 点和 Matrix 网格
// - any number of ignore predicates / 任意数量的忽略谓词
package mark

import (
	"errors"
	"fmt"
	"sort"

	"github.com/apache/ignite-ducktests/internal/version"
)

// VersionsKey is the session globals key that overrides declared versions
// VersionsKey 是覆盖声明版本的会话全局参数键
const VersionsKey = "ignite_versions"

// DefaultVersionPrefix is the argument name used when no prefix is given
// DefaultVersionPrefix 是未指定前缀时使用的参数名
const DefaultVersionPrefix = "ignite_version"

// Contract violations raised during expansion
// 展开过程中的契约违规错误
var (
	// ErrNoVersionMark indicates a registration without a version mark
	// ErrNoVersionMark 表示注册记录缺少版本标记
	ErrNoVersionMark = errors.New("mark: no version mark")

	// ErrEmptyVersions indicates a version mark declaring no versions
	// ErrEmptyVersions 表示版本标记未声明任何版本
	ErrEmptyVersions = errors.New("mark: no versions declared")

	// ErrMixedVersions indicates a version mark mixing single versions and pairs
	// ErrMixedVersions 表示版本标记混用了单版本和版本对
	ErrMixedVersions = errors.New("mark: single versions and pairs are mixed")

	// ErrArityMismatch indicates an override whose shape differs from the declaration
	// ErrArityMismatch 表示覆盖值的形态与声明不一致
	ErrArityMismatch = errors.New("mark: override arity does not match declared versions")

	// ErrInvalidOverride indicates an override value of unsupported shape
	// ErrInvalidOverride 表示覆盖值的形态不受支持
	ErrInvalidOverride = errors.New("mark: invalid versions override")

	// ErrUnknownSlot indicates a version prefix naming no declared argument
	// ErrUnknownSlot 表示版本前缀未对应任何声明的参数
	ErrUnknownSlot = errors.New("mark: version prefix does not match declared arguments")

	// ErrUnknownArgument indicates an injected argument the function does not declare
	// ErrUnknownArgument 表示注入了函数未声明的参数
	ErrUnknownArgument = errors.New("mark: unknown argument")

	// ErrMissingArgument indicates a declared argument no mark supplies
	// ErrMissingArgument 表示没有标记提供某个声明的参数
	ErrMissingArgument = errors.New("mark: missing argument")

	// ErrMissingVariable indicates an ignore predicate inspecting an absent argument
	// ErrMissingVariable 表示忽略谓词检查的参数不存在
	ErrMissingVariable = errors.New("mark: ignore predicate variable not injected")

	// ErrEmptyAxis indicates a matrix dimension without values
	// ErrEmptyAxis 表示矩阵维度没有取值
	ErrEmptyAxis = errors.New("mark: matrix axis has no values")
)

// Pair is an ordered pair of version tokens
// Pair 是有序的版本标识对
type Pair [2]string

// VersionMark declares the versions a test runs against
// VersionMark 声明测试运行所针对的版本
type VersionMark struct {
	// Prefix names the injected argument, or "<prefix>_1"/"<prefix>_2" for pairs
	// Prefix 是注入参数名，版本对时为 "<prefix>_1"/"<prefix>_2"
	Prefix string

	// Versions holds single version tokens
	// Versions 保存单版本标识
	Versions []string

	// Pairs holds version pairs
	// Pairs 保存版本对
	Pairs []Pair
}

// IgniteVersions declares single versions injected under prefix
// IgniteVersions 声明以 prefix 注入的单版本
func IgniteVersions(prefix string, versions ...string) *VersionMark {
	if prefix == "" {
		prefix = DefaultVersionPrefix
	}
	return &VersionMark{Prefix: prefix, Versions: versions}
}

// IgniteVersionPairs declares version pairs injected under "<prefix>_1" and "<prefix>_2"
// IgniteVersionPairs 声明以 "<prefix>_1" 和 "<prefix>_2" 注入的版本对
func IgniteVersionPairs(prefix string, pairs ...Pair) *VersionMark {
	if prefix == "" {
		prefix = DefaultVersionPrefix
	}
	return &VersionMark{Prefix: prefix, Pairs: pairs}
}

// IsPair reports whether the mark declares pairs
func (m *VersionMark) IsPair() bool {
	return len(m.Pairs) > 0
}

// Slots returns the argument names the resolved versions are injected into
// Slots 返回解析出的版本注入的参数名
func (m *VersionMark) Slots() []string {
	if m.IsPair() {
		return []string{m.Prefix + "_1", m.Prefix + "_2"}
	}
	return []string{m.Prefix}
}

func (m *VersionMark) validate() error {
	switch {
	case len(m.Versions) > 0 && len(m.Pairs) > 0:
		return ErrMixedVersions
	case len(m.Versions) == 0 && len(m.Pairs) == 0:
		return ErrEmptyVersions
	}
	return nil
}

// Params is one explicit set of arguments, like ducktape's @parametrize
// Params 是一组显式参数，对应 ducktape 的 @parametrize
type Params map[string]any

// Matrix maps argument names to value lists; every combination is one point
// Matrix 将参数名映射到取值列表，每种组合为一个点
type Matrix map[string][]any

// points returns the cartesian product of the matrix, keys visited in sorted order
func (m Matrix) points() ([]Args, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []Args{{}}
	for _, k := range keys {
		values := m[k]
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyAxis, k)
		}
		next := make([]Args, 0, len(result)*len(values))
		for _, base := range result {
			for _, v := range values {
				args := base.clone()
				args[k] = v
				next = append(next, args)
			}
		}
		result = next
	}
	return result, nil
}

// Func is the body of a registered test
// Func 是注册测试的函数体
type Func func(args Args) (any, error)

// Test is a test registration record
// Test 是测试注册记录
type Test struct {
	// Name is the function name reported for every context
	// Name 是每个上下文报告的函数名
	Name string

	// Args lists the argument names Func accepts
	// Args 列出 Func 接受的参数名
	Args []string

	// Func is invoked with the injected arguments
	// Func 使用注入的参数调用
	Func Func

	// Versions is the version parametrization mark
	// Versions 是版本参数化标记
	Versions *VersionMark

	// Parametrize holds explicit argument sets, one context group each
	// Parametrize 保存显式参数组，每组生成一组上下文
	Parametrize []Params

	// Matrix holds argument grids
	// Matrix 保存参数网格
	Matrix []Matrix

	// Ignore holds predicates marking contexts to skip
	// Ignore 保存标记需跳过上下文的谓词
	Ignore []IgnorePredicate
}

// Args is the injected argument mapping of a context
// Args 是上下文中注入的参数映射
type Args map[string]any

func (a Args) clone() Args {
	c := make(Args, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Version returns the argument name as a version, parsing string values
// Version 以版本形式返回参数，字符串值会被解析
func (a Args) Version(name string) (version.Version, error) {
	v, ok := a[name]
	if !ok {
		return version.Version{}, fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return asVersion(v)
}

// Keys returns the argument names in sorted order
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asVersion(v any) (version.Version, error) {
	switch t := v.(type) {
	case version.Version:
		return t, nil
	case string:
		return version.Parse(t)
	case fmt.Stringer:
		return version.Parse(t.String())
	default:
		return version.Version{}, fmt.Errorf("%w: %v (%T)", version.ErrInvalidVersion, v, v)
	}
}
