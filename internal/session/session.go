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

// Package session holds the session-level globals shared by every test of a run.
// session 包保存一次运行中所有测试共享的会话级全局参数。
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidGlobals indicates globals that are neither a readable file nor JSON text
// ErrInvalidGlobals 表示全局参数既不是可读文件也不是 JSON 文本
var ErrInvalidGlobals = errors.New("session: invalid globals")

// Context is the session context handed to expansion and services
// Context 是传递给展开器和服务的会话上下文
type Context struct {
	// Globals is the user supplied configuration; keys are lower case
	// Globals 是用户提供的配置，键为小写
	Globals map[string]any
}

// New returns a context over the given globals
func New(globals map[string]any) *Context {
	if globals == nil {
		globals = map[string]any{}
	}
	normalized := make(map[string]any, len(globals))
	for k, v := range globals {
		normalized[strings.ToLower(k)] = v
	}
	return &Context{Globals: normalized}
}

// Lookup returns the value of key, case-insensitively
// Lookup 不区分大小写地返回 key 对应的值
func (c *Context) Lookup(key string) (any, bool) {
	if c == nil || c.Globals == nil {
		return nil, false
	}
	v, ok := c.Globals[strings.ToLower(key)]
	return v, ok
}

// GetString returns the string value of key or def
// GetString 返回 key 的字符串值，不存在时返回 def
func (c *Context) GetString(key, def string) string {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// LoadGlobals loads globals from arg. An existing file is read according to
// its extension (yaml, yml or json); anything else is parsed as JSON text.
// An empty arg yields an empty context.
// LoadGlobals 从 arg 加载全局参数。已存在的文件按扩展名读取（yaml、yml 或 json），
// 其他内容按 JSON 文本解析。arg 为空时返回空上下文。
func LoadGlobals(arg string) (*Context, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return New(nil), nil
	}

	v := viper.New()

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		v.SetConfigFile(arg)
		if filepath.Ext(arg) == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidGlobals, arg, err)
		}
		return New(v.AllSettings()), nil
	}

	v.SetConfigType("json")
	if err := v.ReadConfig(strings.NewReader(arg)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGlobals, err)
	}
	return New(v.AllSettings()), nil
}
