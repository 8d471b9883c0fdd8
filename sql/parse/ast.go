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

// Package parse implements the Toql textual query grammar: a linear
// token sequence with an implicit AND between adjacent tokens, explicit
// ',' (AND) and ';' (OR) connectives, and balanced parentheses for
// grouping. See the package doc comment on Parse for the full grammar.
package parse

import (
	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Concatenation is how one query token combines with whatever precedes
// it: the default, implicit connective is And; an explicit ';'
// produces Or.
type Concatenation uint8

const (
	And Concatenation = iota
	Or
)

// OrderDir is a field's requested sort direction.
type OrderDir uint8

const (
	Asc OrderDir = iota
	Desc
)

// FieldOrder is a field's requested ordering: Priority is the numeric
// priority from "+N"/"-N" (default 1); lower sorts first, ties keep
// source order.
type FieldOrder struct {
	Dir      OrderDir
	Priority uint8
}

// FilterOp names one field-filter operator.
type FilterOp uint8

const (
	FilterEq FilterOp = iota
	FilterNe
	FilterGt
	FilterGe
	FilterLt
	FilterLe
	FilterBw
	FilterLk
	FilterRe
	FilterIn
	FilterOut
	FilterFn
	FilterEqn
	FilterNen
)

// Filter is a field's requested predicate. Aggregate, set by a leading
// '!', routes the filter to HAVING instead of WHERE.
type Filter struct {
	Op        FilterOp
	FnName    string // set when Op == FilterFn
	Args      []toqlsql.SqlArg
	Aggregate bool
}

// FieldToken selects/filters/orders one dotted/underscored field path.
type FieldToken struct {
	Concat Concatenation
	Name   string
	Hidden bool
	Order  *FieldOrder
	Filter *Filter
}

// WildcardToken expands to every non-skip-wildcard field under PathPrefix
// (the empty prefix selects the home entity's own top-level fields).
type WildcardToken struct {
	Concat     Concatenation
	PathPrefix string
}

// PredicateToken invokes a mapper-declared named predicate with
// positional arguments, optionally binding them into aux params the
// predicate's expression names via on_aux_params.
type PredicateToken struct {
	Concat Concatenation
	Name   string
	Args   []toqlsql.SqlArg
}

// SelectionToken expands to a mapper-declared named field list, e.g. "$std".
type SelectionToken struct {
	Concat Concatenation
	Name   string
}

// TokenKind tags a Query's flat token stream, including the synthetic
// bracket tokens a parenthesized group parses into.
type TokenKind uint8

const (
	TokField TokenKind = iota
	TokWildcard
	TokPredicate
	TokSelection
	TokLeftBracket
	TokRightBracket
)

// Token is one entry of a Query's flat stream. Bracket tokens carry
// only Concat (the whole bracketed group's connective to what precedes
// it); exactly one payload field is set for the others, matching Kind.
type Token struct {
	Kind      TokenKind
	Concat    Concatenation
	Field     *FieldToken
	Wildcard  *WildcardToken
	Predicate *PredicateToken
	Selection *SelectionToken
}

// Query is a parsed or programmatically built Toql query: a flat,
// possibly parenthesized token stream plus the ad-hoc extensions a
// caller may attach without touching the text (their parameters live
// apart from the query's own argument vector so they can never be
// confused with user-supplied filter args).
type Query struct {
	Tokens []Token

	Distinct          bool
	AuxParamOverrides map[string]toqlsql.SqlArg
	ExtraWhere        []*toqlsql.SqlExpr
	ExtraJoins        []*toqlsql.SqlExpr
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

func (q *Query) push(t Token) *Query {
	q.Tokens = append(q.Tokens, t)
	return q
}

// And appends a field token ANDed (implicitly, or explicitly via the
// parser's ',') with what precedes it.
func (q *Query) And(name string) *Query {
	return q.push(Token{Kind: TokField, Concat: And, Field: &FieldToken{Name: name}})
}

// Or appends a field token ORed with what precedes it.
func (q *Query) Or(name string) *Query {
	return q.push(Token{Kind: TokField, Concat: Or, Field: &FieldToken{Name: name}})
}
