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
	"fmt"
	"strconv"
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Parse compiles Toql query text into a Query. The grammar:
//
//	query      := term ((',' | ';') term)*
//	term       := '(' query ')' | field | wildcard | predicate | selection
//	field      := order? '.'? path filter?
//	order      := ('+' | '-') digit*            -- digits default to 1
//	path       := ident                          -- segments are already '_'-joined in one token
//	filter     := WS '!'? op args?
//	op         := eq | ne | gt | ge | lt | le | bw | lk | re | in | out | fn | eqn | nen
//	args       := '(' arg (',' arg)* ')'         -- single-arg ops take a bare arg instead
//	wildcard   := path? '*'
//	predicate  := '@' ident args?
//	selection  := '$' ident
//
// ',' binds tighter than ';': "a, b; c" parses as "(a AND b) OR c", each
// token instead recording its own connective relative to the previous
// token (see Concatenation), matching how the builder walks the stream.
func Parse(input string) (q *Query, err error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	query := New()
	if err := p.parseQuery(query, And); err != nil {
		return nil, err
	}
	if p.tok.kind != tkEOF {
		return nil, p.errorf("unexpected trailing input")
	}
	return query, nil
}

type parser struct {
	lex *lexer
	tok lexToken
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("toql: %s at position %d", msg, p.tok.pos)
}

func (p *parser) expect(k tokKind) (lexToken, error) {
	if p.tok.kind != k {
		return lexToken{}, p.errorf("unexpected token %q", p.tok.text)
	}
	t := p.tok
	return t, p.advance()
}

// parseQuery consumes terms separated by ',' or ';' until it hits a
// token that cannot start a term (EOF or an enclosing ')'), appending
// each to query. outerConcat is the connective the *first* term in this
// group carries relative to whatever precedes the group as a whole
// (used when parseQuery recurses into a parenthesized subgroup).
func (p *parser) parseQuery(query *Query, outerConcat Concatenation) error {
	first := true
	for {
		concat := outerConcat
		if !first {
			switch p.tok.kind {
			case tkComma:
				concat = And
				if err := p.advance(); err != nil {
					return err
				}
			case tkSemicolon:
				concat = Or
				if err := p.advance(); err != nil {
					return err
				}
			default:
				return nil
			}
		}
		if err := p.parseTerm(query, concat); err != nil {
			return err
		}
		first = false
	}
}

func (p *parser) parseTerm(query *Query, concat Concatenation) error {
	switch p.tok.kind {
	case tkLParen:
		if err := p.advance(); err != nil {
			return err
		}
		query.push(Token{Kind: TokLeftBracket, Concat: concat})
		if err := p.parseQuery(query, And); err != nil {
			return err
		}
		if _, err := p.expect(tkRParen); err != nil {
			return err
		}
		query.push(Token{Kind: TokRightBracket})
		return nil
	case tkAt:
		return p.parsePredicate(query, concat)
	case tkDollar:
		return p.parseSelection(query, concat)
	case tkStar:
		return p.parseWildcard(query, concat, "")
	case tkPlus, tkMinus, tkDot, tkIdent:
		return p.parseField(query, concat)
	default:
		return p.errorf("unexpected token %q", p.tok.text)
	}
}

func (p *parser) parsePredicate(query *Query, concat Concatenation) error {
	if err := p.advance(); err != nil { // consume '@'
		return err
	}
	name, err := p.expect(tkIdent)
	if err != nil {
		return err
	}
	var args []toqlsql.SqlArg
	if p.tok.kind == tkLParen {
		args, err = p.parseArgList()
		if err != nil {
			return err
		}
	} else {
		// bare args, e.g. "@search ?": consume literal-shaped tokens until
		// something that cannot be an argument (a connective, a paren, an
		// identifier that is not a literal keyword) ends the list
		for p.isBareArgStart() {
			a, aerr := p.parseArg()
			if aerr != nil {
				return aerr
			}
			args = append(args, a)
		}
	}
	query.push(Token{
		Kind:      TokPredicate,
		Concat:    concat,
		Predicate: &PredicateToken{Concat: concat, Name: name.text, Args: args},
	})
	return nil
}

func (p *parser) parseSelection(query *Query, concat Concatenation) error {
	if err := p.advance(); err != nil { // consume '$'
		return err
	}
	name, err := p.expect(tkIdent)
	if err != nil {
		return err
	}
	query.push(Token{
		Kind:      TokSelection,
		Concat:    concat,
		Selection: &SelectionToken{Concat: concat, Name: name.text},
	})
	return nil
}

// parseField parses an order prefix, an optional hidden '.', a dotted
// path, and an optional filter. A bare path immediately followed by '*'
// is reinterpreted as a wildcard (path_prefix*): Toql allows the
// wildcard's path prefix to share the field grammar's path syntax.
func (p *parser) parseField(query *Query, concat Concatenation) error {
	var order *FieldOrder
	if p.tok.kind == tkPlus || p.tok.kind == tkMinus {
		dir := Asc
		if p.tok.kind == tkMinus {
			dir = Desc
		}
		if err := p.advance(); err != nil {
			return err
		}
		priority := uint8(1)
		if p.tok.kind == tkNumber {
			n, err := strconv.Atoi(p.tok.text)
			if err != nil {
				return p.errorf("invalid order priority %q", p.tok.text)
			}
			priority = uint8(n)
			if err := p.advance(); err != nil {
				return err
			}
		}
		order = &FieldOrder{Dir: dir, Priority: priority}
	}

	hidden := false
	if p.tok.kind == tkDot {
		hidden = true
		if err := p.advance(); err != nil {
			return err
		}
	}

	path, err := p.parsePath()
	if err != nil {
		return err
	}

	if p.tok.kind == tkStar {
		if err := p.advance(); err != nil {
			return err
		}
		query.push(Token{
			Kind:     TokWildcard,
			Concat:   concat,
			Wildcard: &WildcardToken{Concat: concat, PathPrefix: path},
		})
		return nil
	}

	var filter *Filter
	if isFilterStart(p.tok) {
		filter, err = p.parseFilter()
		if err != nil {
			return err
		}
	}

	query.push(Token{
		Kind:   TokField,
		Concat: concat,
		Field:  &FieldToken{Concat: concat, Name: path, Hidden: hidden, Order: order, Filter: filter},
	})
	return nil
}

func (p *parser) parseWildcard(query *Query, concat Concatenation, prefix string) error {
	if err := p.advance(); err != nil { // consume '*'
		return err
	}
	query.push(Token{
		Kind:     TokWildcard,
		Concat:   concat,
		Wildcard: &WildcardToken{Concat: concat, PathPrefix: prefix},
	})
	return nil
}

// parsePath consumes exactly one identifier token. Path segments are
// joined with '_' already at the lexical level (the lexer treats '_' as
// an identifier character), so "level2_level3_id" is one tkIdent, not
// three tokens to be stitched together; a following bare identifier
// belongs to the filter grammar (the operator name), never to the path.
func (p *parser) parsePath() (string, error) {
	tok, err := p.expect(tkIdent)
	if err != nil {
		return "", err
	}
	return tok.text, nil
}

func (p *parser) isBareArgStart() bool {
	switch p.tok.kind {
	case tkString, tkNumber, tkQuestion, tkMinus:
		return true
	case tkIdent:
		switch strings.ToLower(p.tok.text) {
		case "true", "false", "null":
			return true
		}
	}
	return false
}

func isFilterStart(t lexToken) bool {
	return t.kind == tkBang || t.kind == tkIdent
}

var filterOps = map[string]FilterOp{
	"eq":  FilterEq,
	"ne":  FilterNe,
	"gt":  FilterGt,
	"ge":  FilterGe,
	"lt":  FilterLt,
	"le":  FilterLe,
	"bw":  FilterBw,
	"lk":  FilterLk,
	"re":  FilterRe,
	"in":  FilterIn,
	"out": FilterOut,
	"fn":  FilterFn,
	"eqn": FilterEqn,
	"nen": FilterNen,
}

// singleArgOps take one bare argument with no enclosing parens, e.g.
// "id eq 5". The rest take a parenthesized, comma-separated arg list
// (bw needs two, in/out/fn are variadic); eqn/nen take none.
var singleArgOps = map[FilterOp]bool{
	FilterEq: true, FilterNe: true, FilterGt: true, FilterGe: true,
	FilterLt: true, FilterLe: true, FilterLk: true, FilterRe: true,
}

func (p *parser) parseFilter() (*Filter, error) {
	aggregate := false
	if p.tok.kind == tkBang {
		aggregate = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	opTok, err := p.expect(tkIdent)
	if err != nil {
		return nil, err
	}
	op, ok := filterOps[strings.ToLower(opTok.text)]
	if !ok {
		return nil, fmt.Errorf("toql: unknown filter operator %q at position %d", opTok.text, opTok.pos)
	}

	filter := &Filter{Op: op, Aggregate: aggregate}

	switch op {
	case FilterEqn, FilterNen:
		return filter, nil
	case FilterFn:
		nameTok, err := p.expect(tkIdent)
		if err != nil {
			return nil, err
		}
		filter.FnName = nameTok.text
		if p.tok.kind == tkLParen {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			filter.Args = args
		}
		return filter, nil
	case FilterBw, FilterIn, FilterOut:
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		if op == FilterBw && len(args) != 2 {
			return nil, fmt.Errorf("toql: bw filter takes exactly 2 args, got %d at position %d", len(args), opTok.pos)
		}
		filter.Args = args
		return filter, nil
	default:
		if singleArgOps[op] {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}
			filter.Args = []toqlsql.SqlArg{arg}
			return filter, nil
		}
		return nil, p.errorf("unhandled filter operator")
	}
}

func (p *parser) parseArgList() ([]toqlsql.SqlArg, error) {
	if _, err := p.expect(tkLParen); err != nil {
		return nil, err
	}
	var args []toqlsql.SqlArg
	for {
		a, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.tok.kind == tkComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(tkRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArg() (toqlsql.SqlArg, error) {
	switch p.tok.kind {
	case tkString:
		v := p.tok.text
		return toqlsql.ArgFromStr(v), p.advance()
	case tkNumber:
		text := p.tok.text
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return toqlsql.SqlArg{}, p.errorf("invalid number %q", text)
			}
			return toqlsql.ArgFromF64(f), p.advance()
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return toqlsql.SqlArg{}, p.errorf("invalid number %q", text)
		}
		return toqlsql.ArgFromI64(n), p.advance()
	case tkMinus:
		if err := p.advance(); err != nil {
			return toqlsql.SqlArg{}, err
		}
		if p.tok.kind != tkNumber {
			return toqlsql.SqlArg{}, p.errorf("expected number after '-'")
		}
		text := p.tok.text
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return toqlsql.SqlArg{}, p.errorf("invalid number %q", text)
			}
			return toqlsql.ArgFromF64(-f), p.advance()
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return toqlsql.SqlArg{}, p.errorf("invalid number %q", text)
		}
		return toqlsql.ArgFromI64(-n), p.advance()
	case tkIdent:
		switch strings.ToLower(p.tok.text) {
		case "true":
			return toqlsql.ArgFromBool(true), p.advance()
		case "false":
			return toqlsql.ArgFromBool(false), p.advance()
		case "null":
			return toqlsql.ArgNullValue, p.advance()
		default:
			v := p.tok.text
			return toqlsql.ArgFromStr(v), p.advance()
		}
	case tkQuestion:
		// a caller-bound placeholder: the literal value is supplied out
		// of band (e.g. via AuxParamOverrides) rather than in the query
		// text, so it is carried here as a marker string.
		return toqlsql.ArgFromStr("?"), p.advance()
	default:
		return toqlsql.SqlArg{}, p.errorf("expected argument, got %q", p.tok.text)
	}
}
