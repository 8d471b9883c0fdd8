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

package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

func TestParseWildcard(t *testing.T) {
	q, err := Parse("*")
	require.NoError(t, err)
	require.Len(t, q.Tokens, 1)
	require.Equal(t, TokWildcard, q.Tokens[0].Kind)
	require.Equal(t, "", q.Tokens[0].Wildcard.PathPrefix)
}

func TestParsePathWildcard(t *testing.T) {
	q, err := Parse("level2_level3_*")
	require.NoError(t, err)
	require.Len(t, q.Tokens, 1)
	require.Equal(t, TokWildcard, q.Tokens[0].Kind)
	// the trailing separator stays on the prefix; path iteration trims it
	require.Equal(t, "level2_level3_", q.Tokens[0].Wildcard.PathPrefix)
}

func TestParseBareField(t *testing.T) {
	q, err := Parse("name")
	require.NoError(t, err)
	require.Len(t, q.Tokens, 1)
	f := q.Tokens[0].Field
	require.Equal(t, "name", f.Name)
	require.False(t, f.Hidden)
	require.Nil(t, f.Order)
	require.Nil(t, f.Filter)
}

func TestParseFieldFilter(t *testing.T) {
	q, err := Parse("id eq 5")
	require.NoError(t, err)
	f := q.Tokens[0].Field
	require.Equal(t, "id", f.Name)
	require.NotNil(t, f.Filter)
	require.Equal(t, FilterEq, f.Filter.Op)
	require.Equal(t, []toqlsql.SqlArg{toqlsql.ArgFromI64(5)}, f.Filter.Args)
}

func TestParseFilterOps(t *testing.T) {
	testCases := []struct {
		in   string
		op   FilterOp
		args int
	}{
		{"a ne 1", FilterNe, 1},
		{"a gt 1", FilterGt, 1},
		{"a ge 1", FilterGe, 1},
		{"a lt 1", FilterLt, 1},
		{"a le 1", FilterLe, 1},
		{"a lk 'x%'", FilterLk, 1},
		{"a re 'x.*'", FilterRe, 1},
		{"a bw (1, 9)", FilterBw, 2},
		{"a in (1, 2, 3)", FilterIn, 3},
		{"a out (1, 2)", FilterOut, 2},
		{"a eqn", FilterEqn, 0},
		{"a nen", FilterNen, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			q, err := Parse(tc.in)
			require.NoError(t, err)
			f := q.Tokens[0].Field.Filter
			require.NotNil(t, f)
			require.Equal(t, tc.op, f.Op)
			require.Len(t, f.Args, tc.args)
		})
	}
}

func TestParseFilterFn(t *testing.T) {
	q, err := Parse("name fn SC('foo', 2)")
	require.NoError(t, err)
	f := q.Tokens[0].Field.Filter
	require.Equal(t, FilterFn, f.Op)
	require.Equal(t, "SC", f.FnName)
	require.Len(t, f.Args, 2)
}

func TestParseAggregateFilter(t *testing.T) {
	q, err := Parse("total !gt 100")
	require.NoError(t, err)
	f := q.Tokens[0].Field.Filter
	require.True(t, f.Aggregate)
	require.Equal(t, FilterGt, f.Op)
}

func TestParseHiddenField(t *testing.T) {
	q, err := Parse(".id eq 5")
	require.NoError(t, err)
	require.True(t, q.Tokens[0].Field.Hidden)
}

func TestParseOrder(t *testing.T) {
	q, err := Parse("+1name, -2age, +text")
	require.NoError(t, err)
	require.Len(t, q.Tokens, 3)

	o := q.Tokens[0].Field.Order
	require.Equal(t, Asc, o.Dir)
	require.Equal(t, uint8(1), o.Priority)

	o = q.Tokens[1].Field.Order
	require.Equal(t, Desc, o.Dir)
	require.Equal(t, uint8(2), o.Priority)

	// digits default to 1
	o = q.Tokens[2].Field.Order
	require.Equal(t, Asc, o.Dir)
	require.Equal(t, uint8(1), o.Priority)
}

func TestParseConnectives(t *testing.T) {
	q, err := Parse("a eq 1, b eq 2; c eq 3")
	require.NoError(t, err)
	require.Len(t, q.Tokens, 3)
	require.Equal(t, And, q.Tokens[1].Concat)
	require.Equal(t, Or, q.Tokens[2].Concat)
}

func TestParseParens(t *testing.T) {
	q, err := Parse("(a eq 1; a eq 2), b eq 3")
	require.NoError(t, err)
	require.Len(t, q.Tokens, 5)
	require.Equal(t, TokLeftBracket, q.Tokens[0].Kind)
	require.Equal(t, TokField, q.Tokens[1].Kind)
	require.Equal(t, Or, q.Tokens[2].Concat)
	require.Equal(t, TokRightBracket, q.Tokens[3].Kind)
	require.Equal(t, And, q.Tokens[4].Concat)
}

func TestParsePredicate(t *testing.T) {
	q, err := Parse("@search 'abc'")
	require.NoError(t, err)
	p := q.Tokens[0].Predicate
	require.Equal(t, "search", p.Name)
	require.Equal(t, []toqlsql.SqlArg{toqlsql.ArgFromStr("abc")}, p.Args)
}

func TestParsePredicatePlaceholderArg(t *testing.T) {
	q, err := Parse("@search ?")
	require.NoError(t, err)
	require.Len(t, q.Tokens[0].Predicate.Args, 1)
}

func TestParsePredicateParenArgs(t *testing.T) {
	q, err := Parse("@between(1, 9)")
	require.NoError(t, err)
	require.Len(t, q.Tokens[0].Predicate.Args, 2)
}

func TestParseSelection(t *testing.T) {
	q, err := Parse("$std")
	require.NoError(t, err)
	require.Equal(t, "std", q.Tokens[0].Selection.Name)
}

func TestParseArgKinds(t *testing.T) {
	q, err := Parse("a in (1, 1.5, 'x', true, false, null, -3)")
	require.NoError(t, err)
	args := q.Tokens[0].Field.Filter.Args
	require.Equal(t, []toqlsql.SqlArg{
		toqlsql.ArgFromI64(1),
		toqlsql.ArgFromF64(1.5),
		toqlsql.ArgFromStr("x"),
		toqlsql.ArgFromBool(true),
		toqlsql.ArgFromBool(false),
		toqlsql.ArgNullValue,
		toqlsql.ArgFromI64(-3),
	}, args)
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"(a eq 1",    // unbalanced paren
		"a xy 1",     // unknown operator
		"a bw (1)",   // bw arity
		"'unterm",    // unterminated string
		"a eq 1 zzz", // trailing input after a complete filter
		"#",          // unknown character
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
		})
	}
}

// Parsing a printed query reproduces the original token stream.
func TestPrintRoundTrip(t *testing.T) {
	for _, in := range []string{
		"*",
		"id eq 5",
		"+1name, -2age",
		"(user_id eq 5; user_id eq 6), active eq 1",
		"level2_level3_*",
		".id eq 5, text lk 'x%'",
		"@search 'abc'",
		"$std, total !gt 100",
		"a in (1, 2, 3), b eqn",
		"name fn SC('foo')",
	} {
		t.Run(in, func(t *testing.T) {
			q, err := Parse(in)
			require.NoError(t, err)
			reparsed, err := Parse(q.String())
			require.NoError(t, err)
			require.Equal(t, q.Tokens, reparsed.Tokens)
		})
	}
}
