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

func TestAliasCanonical(t *testing.T) {
	tr := NewAliasTranslator(AliasFormatCanonical)
	require.Equal(t, "user_address", tr.Translate("user_address"))
}

func TestAliasMedium(t *testing.T) {
	tr := NewAliasTranslator(AliasFormatMedium)
	require.Equal(t, "use_add_cou", tr.Translate("user_address_country"))
	require.Equal(t, "ab", tr.Translate("ab"))
}

func TestAliasShortSequential(t *testing.T) {
	tr := NewAliasTranslator(AliasFormatShort)
	require.Equal(t, "t0", tr.Translate("user"))
	require.Equal(t, "t1", tr.Translate("user_address"))
	// cached: repeated translation yields the same alias
	require.Equal(t, "t0", tr.Translate("user"))
}

// The mapping is bijective within one translator: distinct canonical
// aliases never collide on their emitted form.
func TestAliasShortBijective(t *testing.T) {
	tr := NewAliasTranslator(AliasFormatShort)
	seen := map[string]string{}
	for _, canonical := range []string{"a", "b", "a_b", "a_b_c", "b_a"} {
		emitted := tr.Translate(canonical)
		prev, ok := seen[emitted]
		require.False(t, ok, "alias %q already used by %q", emitted, prev)
		seen[emitted] = canonical
	}
}

func TestSelectionStreamCursor(t *testing.T) {
	s := NewSelectionStream()
	s.Push(SelectQuery)
	s.Push(SelectNone)
	s.Push(SelectPreselect)
	require.Equal(t, 3, s.Len())

	c := s.Cursor()
	flag, ok := c.Next()
	require.True(t, ok)
	require.True(t, flag.Selected())

	flag, ok = c.Next()
	require.True(t, ok)
	require.False(t, flag.Selected())

	flag, ok = c.Next()
	require.True(t, ok)
	require.Equal(t, SelectPreselect, flag)
	require.Equal(t, 3, c.Consumed())

	_, ok = c.Next()
	require.False(t, ok)
}

func TestSelectionCursorSkip(t *testing.T) {
	s := NewSelectionStream()
	for i := 0; i < 4; i++ {
		s.Push(SelectQuery)
	}
	c := s.Cursor()
	c.Skip(2)
	require.Equal(t, 2, c.Consumed())
	c.Skip(10)
	require.Equal(t, 4, c.Consumed())
}

func TestRowReader(t *testing.T) {
	r := NewRowReader([]SqlArg{ArgFromI64(1), ArgFromStr("x")})
	v, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, int64(1), v.I64())
	v, ok = r.Next()
	require.True(t, ok)
	require.Equal(t, "x", v.Str())
	_, ok = r.Next()
	require.False(t, ok)
	require.Equal(t, 2, r.Pos())
}
