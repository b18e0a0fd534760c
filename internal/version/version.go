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

// Package version parses and compares Ignite version tokens.
// version 包解析并比较 Ignite 版本标识。
//
// A token is either a release ("2.8.1", "ignite-2.8.1") or the development
// branch ("dev", "ignite-dev"). The development branch is newer than any release.
// 版本标识可以是发布版本（"2.8.1"、"ignite-2.8.1"）或开发分支（"dev"、"ignite-dev"）。
// 开发分支比任何发布版本都新。
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/blang/semver"
)

// DefaultProject is the project assumed when a token carries no prefix
// DefaultProject 是版本标识不带前缀时默认的项目名
const DefaultProject = "ignite"

// DevToken is the token naming the development branch
// DevToken 是表示开发分支的版本标识
const DevToken = "dev"

// ErrInvalidVersion indicates a token that cannot be parsed
// ErrInvalidVersion 表示无法解析的版本标识
var ErrInvalidVersion = errors.New("invalid version")

var tokenPattern = regexp.MustCompile(`^(?:([A-Za-z][A-Za-z0-9_]*)-)?(dev|[0-9].*)$`)

// Well-known versions used by test suites
// 测试套件使用的常用版本
var (
	DevBranch    = MustParse(DevToken)
	V2_7_6       = MustParse("2.7.6")
	V2_8_0       = MustParse("2.8.0")
	V2_8_1       = MustParse("2.8.1")
	LatestStable = V2_8_1
)

// Version is a parsed, order-comparable version token
// Version 是已解析、可比较顺序的版本
type Version struct {
	project string
	dev     bool
	release semver.Version
	raw     string
}

// Parse parses a version token
// Parse 解析版本标识
func Parse(token string) (Version, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Version{}, fmt.Errorf("%w: empty token", ErrInvalidVersion)
	}

	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, token)
	}

	v := Version{project: m[1], raw: m[2]}
	if v.project == "" {
		v.project = DefaultProject
	}

	if m[2] == DevToken {
		v.dev = true
		return v, nil
	}

	rel, err := semver.ParseTolerant(m[2])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, token, err)
	}
	v.release = rel

	return v, nil
}

// MustParse is like Parse but panics on error
// MustParse 与 Parse 相同，但出错时 panic
func MustParse(token string) Version {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

// Project returns the project name, e.g. "ignite"
func (v Version) Project() string {
	return v.project
}

// IsDev reports whether v is the development branch
// IsDev 判断是否为开发分支
func (v Version) IsDev() bool {
	return v.dev
}

// Release returns the semantic release; zero for the development branch
func (v Version) Release() semver.Version {
	return v.release
}

// IsZero reports whether v was never parsed
func (v Version) IsZero() bool {
	return v.project == ""
}

// Compare returns -1, 0 or 1. The development branch sorts after every release;
// equal releases of different projects are ordered by project name.
// Compare 返回 -1、0 或 1。开发分支排在所有发布版本之后；同一版本号按项目名排序。
func (v Version) Compare(o Version) int {
	switch {
	case v.dev && !o.dev:
		return 1
	case !v.dev && o.dev:
		return -1
	case !v.dev:
		if c := v.release.Compare(o.release); c != 0 {
			return c
		}
	}
	return strings.Compare(v.project, o.project)
}

// Equal reports whether both versions denote the same release of the same project
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// LessThan reports whether v is older than o
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

// GreaterThan reports whether v is newer than o
func (v Version) GreaterThan(o Version) bool {
	return v.Compare(o) > 0
}

// Token returns the version part without the project prefix, as written
func (v Version) Token() string {
	return v.raw
}

// String renders "<project>-<version>"
// String 输出 "<项目>-<版本>"
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	return v.project + "-" + v.raw
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
