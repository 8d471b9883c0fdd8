// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(next func() (Path, bool)) []string {
	var out []string
	for {
		p, ok := next()
		if !ok {
			return out
		}
		out = append(out, p.String())
	}
}

func TestSplitBasename(t *testing.T) {
	testCases := []struct {
		in       string
		prefix   string
		basename string
	}{
		{"a_b", "a", "b"},
		{"a_b_c", "a_b", "c"},
		{"a", "", "a"},
		{"", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			prefix, basename := SplitBasename(tc.in)
			require.Equal(t, tc.prefix, prefix.String())
			require.Equal(t, tc.basename, basename)
		})
	}
}

func TestTrimBasename(t *testing.T) {
	require.Equal(t, Path("a_b"), TrimBasename("a_b_c"))
	require.Equal(t, Path(""), TrimBasename("a"))
}

func TestPrependAppend(t *testing.T) {
	require.Equal(t, Path("a_b"), Path("b").Prepend("a"))
	require.Equal(t, Path("a"), Path("").Prepend("a"))
	require.Equal(t, Path("a_b"), Path("a").Append("b"))
	require.Equal(t, Path("a"), Path("a").Append(""))
}

func TestAncestors(t *testing.T) {
	got := drain(Path("a_b_c").Ancestors().Next)
	require.Equal(t, []string{"a_b_c", "a_b", "a"}, got)

	require.Empty(t, drain(Path("").Ancestors().Next))
	require.Equal(t, []string{"a"}, drain(Path("a").Ancestors().Next))
}

func TestParents(t *testing.T) {
	got := drain(Path("a_b_c").Parents().Next)
	require.Equal(t, []string{"c", "b", "a"}, got)
}

// parents yields the last segment of every entry ancestors yields, in
// the same order.
func TestParentsMatchAncestors(t *testing.T) {
	paths := []Path{"a", "a_b", "a_b_c", "user_address_country"}
	for _, p := range paths {
		ancestors := drain(p.Ancestors().Next)
		parents := drain(p.Parents().Next)
		require.Len(t, parents, len(ancestors))
		for i, a := range ancestors {
			_, basename := SplitBasename(a)
			require.Equal(t, basename, parents[i])
		}
	}
}

func TestDescendents(t *testing.T) {
	got := drain(Path("a_b_c").Descendents().Next)
	require.Equal(t, []string{"a", "b", "c"}, got)

	require.Empty(t, drain(Path("").Descendents().Next))
}

// A trailing separator is lexically possible (a wildcard's path prefix
// keeps it); iteration must not produce an empty segment for it.
func TestDescendentsTrailingSeparator(t *testing.T) {
	got := drain(Path("a_b_").Descendents().Next)
	require.Equal(t, []string{"a", "b"}, got)
}

func TestDescendentsClone(t *testing.T) {
	it := Path("a_b").Descendents()
	seg, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, "a", seg.String())

	cp := it.Clone()
	seg, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, "b", seg.String())

	seg, ok = cp.Next()
	require.True(t, ok)
	require.Equal(t, "b", seg.String())
}

func TestStepDown(t *testing.T) {
	got := drain(Path("a_b_c").StepDown().Next)
	require.Equal(t, []string{"a", "a_b"}, got)
	require.Empty(t, drain(Path("a").StepDown().Next))
}

// step_down(p) ++ [p] is the ordered ascending prefix list, i.e. the
// reverse of ancestors.
func TestStepDownPlusSelfIsReversedAncestors(t *testing.T) {
	p := Path("a_b_c_d")
	down := append(drain(p.StepDown().Next), p.String())
	ancestors := drain(p.Ancestors().Next)
	require.Len(t, down, len(ancestors))
	for i := range down {
		require.Equal(t, ancestors[len(ancestors)-1-i], down[i])
	}
}

func TestStepUp(t *testing.T) {
	got := drain(Path("a_b_c").StepUp().Next)
	require.Equal(t, []string{"a_b_c", "a_b", "a"}, got)
}

func TestLocalizePath(t *testing.T) {
	p := Path("user_address_country")
	local, ok := p.LocalizePath("user")
	require.True(t, ok)
	require.Equal(t, Path("address_country"), local)

	_, ok = p.LocalizePath("order")
	require.False(t, ok)
}

func TestRelative(t *testing.T) {
	require.True(t, Path("a_b").Relative("a"))
	require.False(t, Path("a_b").Relative("b"))
}
