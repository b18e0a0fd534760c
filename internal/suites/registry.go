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

// Package suites holds the registered test registrations.
// suites 包保存已注册的测试。
package suites

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/apache/ignite-ducktests/internal/mark"
)

// Common errors for the registry
// 注册表的常见错误
var (
	// ErrDuplicateTest indicates a name registered twice
	// ErrDuplicateTest 表示名称被重复注册
	ErrDuplicateTest = errors.New("suites: duplicate test")

	// ErrTestNotFound indicates an unknown test name
	// ErrTestNotFound 表示测试名不存在
	ErrTestNotFound = errors.New("suites: test not found")

	// ErrInvalidTest indicates a registration without name or function
	// ErrInvalidTest 表示注册缺少名称或函数
	ErrInvalidTest = errors.New("suites: invalid test")
)

// Registry is a set of test registrations keyed by name
// Registry 是按名称索引的测试注册集合
type Registry struct {
	mu    sync.RWMutex
	tests map[string]*mark.Test
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tests: make(map[string]*mark.Test)}
}

// Register adds t
// Register 添加 t
func (r *Registry) Register(t *mark.Test) error {
	if t == nil || t.Name == "" || t.Func == nil {
		return ErrInvalidTest
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tests[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTest, t.Name)
	}
	r.tests[t.Name] = t
	return nil
}

// MustRegister is Register panicking on error
func (r *Registry) MustRegister(t *mark.Test) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the test registered under name
// Lookup 返回以 name 注册的测试
func (r *Registry) Lookup(name string) (*mark.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTestNotFound, name)
	}
	return t, nil
}

// All returns every registration sorted by name
// All 返回按名称排序的所有注册
func (r *Registry) All() []*mark.Test {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*mark.Test, 0, len(r.tests))
	for _, t := range r.tests {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Collect expands the named test, or every test when name is empty
// Collect 展开指定测试；name 为空时展开全部测试
func (r *Registry) Collect(name string, globals map[string]any) ([]*mark.Context, error) {
	if name == "" {
		return mark.ExpandAll(r.All(), globals)
	}
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return mark.Expand(t, globals)
}
