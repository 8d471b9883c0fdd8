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
	"strings"

	"github.com/pkg/errors"
)

// exprTokenKind tags one token of a SqlExpr.
type exprTokenKind uint8

const (
	tokLiteral exprTokenKind = iota
	tokArg
	tokSelfAlias
	tokOtherAlias
	tokAliasedColumn
	tokUnresolved
	tokPredicate
)

// PredicateColumn names one column of a Predicate token; Other selects
// whether it is rendered against the resolver's other-alias instead of
// its self-alias.
type PredicateColumn struct {
	Name  string
	Other bool
}

type exprToken struct {
	kind     exprTokenKind
	lit      string
	arg      SqlArg
	col      string
	auxName  string
	predCols []PredicateColumn
	predArgs []SqlArg
}

// SqlExpr is an ordered token sequence that resolves to a SQL string and
// a parameter vector once bound to a Resolver and AliasTranslator. It
// owns its tokens; building it up via the push methods and tearing it
// down again via Pop/PopLiterals always returns to the prior state.
type SqlExpr struct {
	tokens []exprToken
}

// NewSqlExpr returns an empty expression.
func NewSqlExpr() *SqlExpr {
	return &SqlExpr{}
}

// Len reports the number of tokens currently held.
func (e *SqlExpr) Len() int { return len(e.tokens) }

// PushLiteral appends raw SQL text.
func (e *SqlExpr) PushLiteral(text string) *SqlExpr {
	e.tokens = append(e.tokens, exprToken{kind: tokLiteral, lit: text})
	return e
}

// PushArg appends a bound argument placeholder.
func (e *SqlExpr) PushArg(a SqlArg) *SqlExpr {
	e.tokens = append(e.tokens, exprToken{kind: tokArg, arg: a})
	return e
}

// PushSelfAlias appends a placeholder for the resolver's current
// self-alias, translated at resolve time.
func (e *SqlExpr) PushSelfAlias() *SqlExpr {
	e.tokens = append(e.tokens, exprToken{kind: tokSelfAlias})
	return e
}

// PushOtherAlias appends a placeholder for the resolver's current
// other-alias, translated at resolve time.
func (e *SqlExpr) PushOtherAlias() *SqlExpr {
	e.tokens = append(e.tokens, exprToken{kind: tokOtherAlias})
	return e
}

// PushAliasedColumn appends "{self_alias}.{name}".
func (e *SqlExpr) PushAliasedColumn(name string) *SqlExpr {
	e.tokens = append(e.tokens, exprToken{kind: tokAliasedColumn, col: name})
	return e
}

// PushUnresolved appends a named aux-param placeholder, resolved from
// the resolver's aux-param map at resolve time.
func (e *SqlExpr) PushUnresolved(name string) *SqlExpr {
	e.tokens = append(e.tokens, exprToken{kind: tokUnresolved, auxName: name})
	return e
}

// PushPredicate appends a grouped "(col1 = ? AND col2 = ? ...) OR ..."
// token; args is consumed in chunks of len(columns), one chunk per
// OR-ed group.
func (e *SqlExpr) PushPredicate(columns []PredicateColumn, args []SqlArg) *SqlExpr {
	cols := make([]PredicateColumn, len(columns))
	copy(cols, columns)
	vals := make([]SqlArg, len(args))
	copy(vals, args)
	e.tokens = append(e.tokens, exprToken{kind: tokPredicate, predCols: cols, predArgs: vals})
	return e
}

// Extend appends all of other's tokens to e.
func (e *SqlExpr) Extend(other *SqlExpr) *SqlExpr {
	e.tokens = append(e.tokens, other.tokens...)
	return e
}

// Pop removes the last token, if any.
func (e *SqlExpr) Pop() *SqlExpr {
	if len(e.tokens) > 0 {
		e.tokens = e.tokens[:len(e.tokens)-1]
	}
	return e
}

// PopLiterals removes the trailing n characters of literal text,
// consuming whole trailing Literal tokens as needed if n exceeds the
// length of the last one. It is undefined to call this when the
// trailing n characters span a non-Literal token.
func (e *SqlExpr) PopLiterals(n int) *SqlExpr {
	for n > 0 && len(e.tokens) > 0 {
		last := &e.tokens[len(e.tokens)-1]
		if last.kind != tokLiteral {
			break
		}
		if len(last.lit) > n {
			last.lit = last.lit[:len(last.lit)-n]
			return e
		}
		n -= len(last.lit)
		e.tokens = e.tokens[:len(e.tokens)-1]
	}
	return e
}

// Clone returns a deep-enough copy of e so further pushes to the clone
// do not affect e.
func (e *SqlExpr) Clone() *SqlExpr {
	cp := &SqlExpr{tokens: make([]exprToken, len(e.tokens))}
	copy(cp.tokens, e.tokens)
	return cp
}

// Resolver binds a SqlExpr's SelfAlias/OtherAlias/Unresolved tokens to
// concrete values. AuxParams chains multiple layers of name->value maps;
// the first layer containing a name wins, letting call-scoped aux
// params (e.g. a predicate invocation's on_aux_params) shadow
// builder-wide ones without copying the whole map.
type Resolver struct {
	SelfAlias  string
	HasSelf    bool
	OtherAlias string
	HasOther   bool
	AuxParams  []map[string]SqlArg
}

// NewResolver returns a resolver with a self alias but no other alias
// and no aux params, the common case for a field's own expression.
func NewResolver(selfAlias string) *Resolver {
	return &Resolver{SelfAlias: selfAlias, HasSelf: true}
}

// WithOtherAlias returns a copy of r with the other alias set, used
// when resolving a join's on-expression.
func (r *Resolver) WithOtherAlias(alias string) *Resolver {
	cp := *r
	cp.OtherAlias = alias
	cp.HasOther = true
	return &cp
}

// WithAuxParams returns a copy of r with an additional, highest-priority
// aux-param layer.
func (r *Resolver) WithAuxParams(m map[string]SqlArg) *Resolver {
	cp := *r
	cp.AuxParams = append([]map[string]SqlArg{m}, r.AuxParams...)
	return &cp
}

func (r *Resolver) lookupAux(name string) (SqlArg, bool) {
	for _, layer := range r.AuxParams {
		if v, ok := layer[name]; ok {
			return v, true
		}
	}
	return SqlArg{}, false
}

// AliasTranslator maps a canonical alias to its emitted form (see
// alias.go); ToSql needs only this narrow interface.
type AliasTranslator interface {
	Translate(canonicalAlias string) string
}

// ToSql resolves expr against r, returning SQL text with "?"
// placeholders and the parameter vector in emission order.
func (r *Resolver) ToSql(expr *SqlExpr, translator AliasTranslator) (string, []SqlArg, error) {
	var sb strings.Builder
	var args []SqlArg

	for i := range expr.tokens {
		t := &expr.tokens[i]
		switch t.kind {
		case tokLiteral:
			sb.WriteString(t.lit)
		case tokArg:
			sb.WriteString("?")
			args = append(args, t.arg)
		case tokSelfAlias:
			if !r.HasSelf {
				return "", nil, errors.New("toql: resolver has no self alias configured")
			}
			sb.WriteString(translator.Translate(r.SelfAlias))
		case tokOtherAlias:
			if !r.HasOther {
				return "", nil, errors.New("toql: resolver has no other alias configured")
			}
			sb.WriteString(translator.Translate(r.OtherAlias))
		case tokAliasedColumn:
			if !r.HasSelf {
				return "", nil, errors.New("toql: resolver has no self alias configured")
			}
			sb.WriteString(translator.Translate(r.SelfAlias))
			sb.WriteByte('.')
			sb.WriteString(t.col)
		case tokUnresolved:
			v, ok := r.lookupAux(t.auxName)
			if !ok {
				return "", nil, ErrAuxParamMissing.New(t.auxName)
			}
			sb.WriteString("?")
			args = append(args, v)
		case tokPredicate:
			text, predArgs, err := renderPredicate(r, translator, t)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(text)
			args = append(args, predArgs...)
		}
	}
	return sb.String(), args, nil
}

func renderPredicate(r *Resolver, translator AliasTranslator, t *exprToken) (string, []SqlArg, error) {
	if len(t.predCols) == 0 {
		return "", nil, nil
	}
	if len(t.predArgs)%len(t.predCols) != 0 {
		return "", nil, errors.Errorf(
			"toql: predicate args (%d) not a multiple of column count (%d)",
			len(t.predArgs), len(t.predCols))
	}
	groups := len(t.predArgs) / len(t.predCols)
	var sb strings.Builder
	var args []SqlArg
	for g := 0; g < groups; g++ {
		if g > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteByte('(')
		for c, col := range t.predCols {
			if c > 0 {
				sb.WriteString(" AND ")
			}
			alias := r.SelfAlias
			hasAlias := r.HasSelf
			if col.Other {
				alias = r.OtherAlias
				hasAlias = r.HasOther
			}
			if !hasAlias {
				return "", nil, errors.New("toql: predicate column references an unset alias")
			}
			sb.WriteString(translator.Translate(alias))
			sb.WriteByte('.')
			sb.WriteString(col.Name)
			sb.WriteString(" = ?")
			args = append(args, t.predArgs[g*len(t.predCols)+c])
		}
		sb.WriteByte(')')
	}
	return sb.String(), args, nil
}
