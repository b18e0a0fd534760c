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
	"fmt"
	"reflect"

	"github.com/apache/ignite-ducktests/internal/version"
)

// IgnorePredicate marks a context ignored when it matches the injected value
// of Variable
// IgnorePredicate 在 Variable 的注入值满足条件时将上下文标记为忽略
type IgnorePredicate struct {
	variable string
	match    func(value any) (bool, error)
}

// Variable returns the argument name the predicate inspects
func (p IgnorePredicate) Variable() string {
	return p.variable
}

func (p IgnorePredicate) eval(args Args) (bool, error) {
	value, ok := args[p.variable]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingVariable, p.variable)
	}
	if p.match == nil {
		return true, nil
	}
	return p.match(value)
}

// IgnoreWhen ignores contexts whose variable satisfies fn; a nil fn ignores
// every context carrying variable
// IgnoreWhen 忽略 variable 满足 fn 的上下文；fn 为 nil 时忽略所有带 variable 的上下文
func IgnoreWhen(variable string, fn func(value any) bool) IgnorePredicate {
	if fn == nil {
		return IgnorePredicate{variable: variable}
	}
	return IgnorePredicate{
		variable: variable,
		match: func(value any) (bool, error) {
			return fn(value), nil
		},
	}
}

// IgnoreIfEqual ignores contexts whose variable equals want; version arguments
// are compared as versions, so "dev" matches an injected "ignite-dev"
// IgnoreIfEqual 忽略 variable 等于 want 的上下文；版本参数按版本比较
func IgnoreIfEqual(variable string, want any) IgnorePredicate {
	return IgnorePredicate{
		variable: variable,
		match: func(value any) (bool, error) {
			return argsEqual(value, want), nil
		},
	}
}

// VersionIf keeps a context only when cond holds for the version injected
// under variable, and ignores it otherwise. A nil cond keeps every context.
// VersionIf 仅在 variable 注入的版本满足 cond 时保留上下文，否则忽略。cond 为 nil 时全部保留。
func VersionIf(cond func(v version.Version) bool, variable string) IgnorePredicate {
	if variable == "" {
		variable = DefaultVersionPrefix
	}
	if cond == nil {
		cond = func(version.Version) bool { return true }
	}
	return IgnorePredicate{
		variable: variable,
		match: func(value any) (bool, error) {
			v, err := asVersion(value)
			if err != nil {
				return false, fmt.Errorf("version_if %s: %w", variable, err)
			}
			return !cond(v), nil
		},
	}
}

func argsEqual(a, b any) bool {
	_, av := a.(version.Version)
	_, bv := b.(version.Version)
	if av || bv {
		x, err := asVersion(a)
		if err != nil {
			return false
		}
		y, err := asVersion(b)
		if err != nil {
			return false
		}
		return x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}
