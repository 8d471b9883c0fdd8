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

func TestResolveLiteralAndArg(t *testing.T) {
	expr := NewSqlExpr().
		PushLiteral("id = ").
		PushArg(ArgFromI64(5))

	text, args, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "id = ?", text)
	require.Equal(t, []SqlArg{ArgFromI64(5)}, args)
}

func TestResolveAliases(t *testing.T) {
	expr := NewSqlExpr().
		PushSelfAlias().PushLiteral(".a = ").
		PushOtherAlias().PushLiteral(".b")

	r := NewResolver("user").WithOtherAlias("user_address")
	text, _, err := r.ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "user.a = user_address.b", text)
}

func TestResolveAliasedColumn(t *testing.T) {
	expr := NewSqlExpr().PushAliasedColumn("id")
	text, _, err := NewResolver("user").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "user.id", text)
}

func TestResolveMissingAliasFails(t *testing.T) {
	expr := NewSqlExpr().PushSelfAlias()
	_, _, err := (&Resolver{}).ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.Error(t, err)

	expr = NewSqlExpr().PushOtherAlias()
	_, _, err = NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.Error(t, err)
}

func TestResolveAuxParams(t *testing.T) {
	expr := NewSqlExpr().PushLiteral("x = ").PushUnresolved("limit")

	r := NewResolver("t").WithAuxParams(map[string]SqlArg{"limit": ArgFromI64(10)})
	text, args, err := r.ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "x = ?", text)
	require.Equal(t, []SqlArg{ArgFromI64(10)}, args)
}

func TestResolveAuxParamLayering(t *testing.T) {
	base := map[string]SqlArg{"p": ArgFromI64(1), "q": ArgFromI64(2)}
	overlay := map[string]SqlArg{"p": ArgFromI64(9)}

	r := NewResolver("t").WithAuxParams(base).WithAuxParams(overlay)
	expr := NewSqlExpr().PushUnresolved("p").PushLiteral(" ").PushUnresolved("q")
	_, args, err := r.ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, []SqlArg{ArgFromI64(9), ArgFromI64(2)}, args)
}

func TestResolveAuxParamMissing(t *testing.T) {
	expr := NewSqlExpr().PushUnresolved("nope")
	_, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.True(t, ErrAuxParamMissing.Is(err))
}

func TestResolvePredicateGroups(t *testing.T) {
	expr := NewSqlExpr().PushPredicate(
		[]PredicateColumn{{Name: "a"}, {Name: "b", Other: true}},
		[]SqlArg{ArgFromI64(1), ArgFromI64(2), ArgFromI64(3), ArgFromI64(4)},
	)
	r := NewResolver("t").WithOtherAlias("u")
	text, args, err := r.ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "(t.a = ? AND u.b = ?) OR (t.a = ? AND u.b = ?)", text)
	require.Len(t, args, 4)
}

func TestResolvePredicateArgCountMismatch(t *testing.T) {
	expr := NewSqlExpr().PushPredicate(
		[]PredicateColumn{{Name: "a"}, {Name: "b"}},
		[]SqlArg{ArgFromI64(1)},
	)
	_, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.Error(t, err)
}

// Resolving the same expression twice in the same context is
// byte-identical.
func TestResolveDeterministic(t *testing.T) {
	expr := NewSqlExpr().
		PushSelfAlias().PushLiteral(".x > ").PushArg(ArgFromF64(1.5))

	first, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatShort))
	require.NoError(t, err)
	second, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatShort))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPopRemovesLastToken(t *testing.T) {
	expr := NewSqlExpr().PushLiteral("a").PushArg(ArgFromI64(1))
	expr.Pop()
	text, args, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "a", text)
	require.Empty(t, args)
}

// Pushing k literal characters then PopLiterals(k) returns to the prior
// expression.
func TestPopLiteralsRoundTrip(t *testing.T) {
	expr := NewSqlExpr().PushLiteral("SELECT a")
	before, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)

	expr.PushLiteral(", b").PushLiteral(", c")
	expr.PopLiterals(6)
	after, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestPopLiteralsWithinToken(t *testing.T) {
	expr := NewSqlExpr().PushLiteral("a, b, ")
	expr.PopLiterals(2)
	text, _, err := NewResolver("t").ToSql(expr, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "a, b", text)
}

func TestExtendAndClone(t *testing.T) {
	a := NewSqlExpr().PushLiteral("x")
	b := NewSqlExpr().PushLiteral("y")
	a.Extend(b)

	cp := a.Clone()
	cp.PushLiteral("z")

	text, _, err := NewResolver("t").ToSql(a, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "xy", text)

	text, _, err = NewResolver("t").ToSql(cp, NewAliasTranslator(AliasFormatCanonical))
	require.NoError(t, err)
	require.Equal(t, "xyz", text)
}
