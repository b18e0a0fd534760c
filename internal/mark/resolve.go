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

	"github.com/apache/ignite-ducktests/internal/version"
)

// Resolved is one entry of the version axis: one version, or two for a pair
// Resolved 是版本轴上的一项：单版本为一个，版本对为两个
type Resolved []version.Version

// String renders the entry, pairs as "(a, b)"
func (r Resolved) String() string {
	if len(r) == 2 {
		return fmt.Sprintf("(%s, %s)", r[0], r[1])
	}
	if len(r) == 1 {
		return r[0].String()
	}
	return "()"
}

// Override is a decoded versions override taken from session globals
// Override 是从会话全局参数解码得到的版本覆盖值
type Override struct {
	versions []string
	pairs    []Pair
}

// IsPair reports whether the override is pair-shaped
func (o Override) IsPair() bool {
	return len(o.pairs) > 0
}

// DecodeOverride decodes a raw globals value.
// Accepted shapes: a string, a Pair, a list of strings, a list of pairs.
// Lists decoded from JSON or YAML arrive as []any; a pair inside a list is a
// two-element array.
// DecodeOverride 解码原始全局参数值。
// 支持的形态：字符串、版本对、字符串列表、版本对列表。
func DecodeOverride(raw any) (Override, error) {
	switch v := raw.(type) {
	case string:
		return Override{versions: []string{v}}, nil
	case Pair:
		return Override{pairs: []Pair{v}}, nil
	case [2]string:
		return Override{pairs: []Pair{Pair(v)}}, nil
	case fmt.Stringer:
		return Override{versions: []string{v.String()}}, nil
	case []string:
		if len(v) == 0 {
			return Override{}, fmt.Errorf("%w: empty list", ErrInvalidOverride)
		}
		return Override{versions: append([]string(nil), v...)}, nil
	case []Pair:
		if len(v) == 0 {
			return Override{}, fmt.Errorf("%w: empty list", ErrInvalidOverride)
		}
		return Override{pairs: append([]Pair(nil), v...)}, nil
	case []any:
		return decodeList(v)
	default:
		return Override{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidOverride, raw)
	}
}

func decodeList(items []any) (Override, error) {
	if len(items) == 0 {
		return Override{}, fmt.Errorf("%w: empty list", ErrInvalidOverride)
	}

	var o Override
	for i, item := range items {
		if s, ok := asToken(item); ok {
			o.versions = append(o.versions, s)
			continue
		}
		p, err := asPair(item)
		if err != nil {
			return Override{}, fmt.Errorf("%w: item %d: %v", ErrInvalidOverride, i, err)
		}
		o.pairs = append(o.pairs, p)
	}

	if len(o.versions) > 0 && len(o.pairs) > 0 {
		return Override{}, fmt.Errorf("%w: versions and pairs are mixed", ErrInvalidOverride)
	}
	return o, nil
}

func asToken(item any) (string, bool) {
	switch t := item.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

func asPair(item any) (Pair, error) {
	switch t := item.(type) {
	case Pair:
		return t, nil
	case [2]string:
		return Pair(t), nil
	case []string:
		if len(t) != 2 {
			return Pair{}, fmt.Errorf("pair must have 2 elements, got %d", len(t))
		}
		return Pair{t[0], t[1]}, nil
	case []any:
		if len(t) != 2 {
			return Pair{}, fmt.Errorf("pair must have 2 elements, got %d", len(t))
		}
		var p Pair
		for i, e := range t {
			s, ok := asToken(e)
			if !ok {
				return Pair{}, fmt.Errorf("pair element %d is %T", i, e)
			}
			p[i] = s
		}
		return p, nil
	}
	return Pair{}, fmt.Errorf("unsupported item type %T", item)
}

// Resolve computes the version axis of m. A nil override keeps the declared
// versions; otherwise the override replaces them and must match their arity.
// Resolve 计算 m 的版本轴。override 为 nil 时使用声明的版本，否则由 override
// 替换，且形态必须与声明一致。
func Resolve(m *VersionMark, override any) ([]Resolved, error) {
	if m == nil {
		return nil, ErrNoVersionMark
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	versions, pairs := m.Versions, m.Pairs
	if override != nil {
		o, err := DecodeOverride(override)
		if err != nil {
			return nil, err
		}
		if o.IsPair() != m.IsPair() {
			return nil, fmt.Errorf("%w: declared %s, override %s", ErrArityMismatch, shape(m.IsPair()), shape(o.IsPair()))
		}
		versions, pairs = o.versions, o.pairs
	}

	if len(pairs) > 0 {
		result := make([]Resolved, 0, len(pairs))
		for _, p := range pairs {
			first, err := version.Parse(p[0])
			if err != nil {
				return nil, err
			}
			second, err := version.Parse(p[1])
			if err != nil {
				return nil, err
			}
			result = append(result, Resolved{first, second})
		}
		return result, nil
	}

	result := make([]Resolved, 0, len(versions))
	for _, token := range versions {
		v, err := version.Parse(token)
		if err != nil {
			return nil, err
		}
		result = append(result, Resolved{v})
	}
	return result, nil
}

func shape(pair bool) string {
	if pair {
		return "pairs"
	}
	return "single versions"
}
