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

package version

import (
	"fmt"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse tests parsing of release and development tokens
// TestParse 测试发布版本和开发分支标识的解析
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		project string
		dev     bool
		str     string
	}{
		{name: "plain release", token: "2.8.1", project: "ignite", str: "ignite-2.8.1"},
		{name: "prefixed release", token: "ignite-2.7.6", project: "ignite", str: "ignite-2.7.6"},
		{name: "dev", token: "dev", project: "ignite", dev: true, str: "ignite-dev"},
		{name: "fork dev", token: "fork-dev", project: "fork", dev: true, str: "fork-dev"},
		{name: "short release", token: "2.8", project: "ignite", str: "ignite-2.8"},
		{name: "snapshot", token: "2.9.0-SNAPSHOT", project: "ignite", str: "ignite-2.9.0-SNAPSHOT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.project, v.Project())
			assert.Equal(t, tt.dev, v.IsDev())
			assert.Equal(t, tt.str, v.String())
		})
	}
}

// TestParseInvalid tests that malformed tokens are rejected
// TestParseInvalid 测试格式错误的标识被拒绝
func TestParseInvalid(t *testing.T) {
	for _, token := range []string{"", "  ", "latest", "ignite-", "2.x.1", "-2.8.1"} {
		_, err := Parse(token)
		assert.ErrorIs(t, err, ErrInvalidVersion, "token %q", token)
	}

	assert.Panics(t, func() { MustParse("nope") })
}

func TestPrefixedAndPlainAreEqual(t *testing.T) {
	assert.True(t, MustParse("2.8.1").Equal(MustParse("ignite-2.8.1")))
	assert.True(t, MustParse("dev").Equal(DevBranch))
	assert.Equal(t, MustParse(V2_8_1.String()), V2_8_1)
	assert.True(t, MustParse("2.8").Equal(MustParse("2.8.0")))
}

// TestOrdering tests the comparison of known versions
// TestOrdering 测试已知版本的比较
func TestOrdering(t *testing.T) {
	assert.True(t, V2_7_6.LessThan(V2_8_0))
	assert.True(t, V2_8_0.LessThan(V2_8_1))
	assert.True(t, V2_8_1.LessThan(DevBranch))
	assert.True(t, DevBranch.GreaterThan(V2_8_1))
	assert.False(t, DevBranch.LessThan(DevBranch))

	versions := []Version{DevBranch, V2_8_1, V2_7_6, V2_8_0}
	sort.Slice(versions, func(i, j int) bool { return versions[i].LessThan(versions[j]) })

	var got []string
	for _, v := range versions {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"ignite-2.7.6", "ignite-2.8.0", "ignite-2.8.1", "ignite-dev"}, got)
}

func TestTextMarshalling(t *testing.T) {
	data, err := V2_8_0.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ignite-2.8.0", string(data))

	var v Version
	require.NoError(t, v.UnmarshalText([]byte("2.7.6")))
	assert.True(t, v.Equal(V2_7_6))
	assert.Error(t, v.UnmarshalText([]byte("bogus")))
}

// TestProperty_ReleaseOrdering checks that release comparison agrees with numeric ordering
// TestProperty_ReleaseOrdering 验证发布版本比较与数值顺序一致
func TestProperty_ReleaseOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	genRelease := gopter.CombineGens(
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	)

	properties.Property("compare is antisymmetric and matches numeric order", prop.ForAll(
		func(a, b []interface{}) bool {
			va := MustParse(fmt.Sprintf("%d.%d.%d", a[0], a[1], a[2]))
			vb := MustParse(fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2]))

			if va.Compare(vb) != -vb.Compare(va) {
				return false
			}

			want := 0
			for i := 0; i < 3 && want == 0; i++ {
				x, y := a[i].(int), b[i].(int)
				if x < y {
					want = -1
				} else if x > y {
					want = 1
				}
			}
			return va.Compare(vb) == want
		},
		genRelease,
		genRelease,
	))

	properties.Property("dev branch is newer than any release", prop.ForAll(
		func(a []interface{}) bool {
			v := MustParse(fmt.Sprintf("%d.%d.%d", a[0], a[1], a[2]))
			return DevBranch.GreaterThan(v) && v.LessThan(DevBranch)
		},
		genRelease,
	))

	properties.TestingRun(t)
}
