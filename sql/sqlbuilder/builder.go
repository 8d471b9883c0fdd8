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

// Package sqlbuilder compiles a parsed Toql query against a Registry
// into executable SQL: a SELECT for loading, a COUNT variant for paging,
// and a DELETE variant, all sharing the same field/join/role resolution
// walk.
package sqlbuilder

import (
	"fmt"
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
)

// Options configures one build. Roles is the caller's effective role
// set, checked against the mapper's load/delete role expressions and
// every referenced field's; AuxParams feeds unresolved-placeholder
// resolution.
type Options struct {
	Roles       []string
	AuxParams   map[string]toqlsql.SqlArg
	AliasFormat toqlsql.AliasFormat
	Distinct    bool
}

// Result is a compiled SELECT: its SQL text, bound args in emission
// order, and the SelectionStream FromRow needs to walk the result rows.
type Result struct {
	Sql             string
	Args            []toqlsql.SqlArg
	SelectionStream *toqlsql.SelectionStream
	SelectedMerges  map[string]bool
	AnySelected     bool
	// Refused is set by BuildDelete when the query carried no filter at
	// all; Sql and Args are left empty and the caller must treat this as
	// a no-op, not execute it.
	Refused bool
}

type joinUse struct {
	name       string
	parentName string // canonical alias of the mapper this join hangs off
	mapping    *toqlsql.JoinMapping
	mapper     *toqlsql.TableMapper
	alias      string
	forced     bool // inner-join override, used by BuildCount
}

// builder carries the mutable state of one compile: discovered joins
// (keyed by canonical alias, in first-use order), which field/merge
// paths the query selected, and the alias translator all emitted SQL
// shares.
type builder struct {
	reg            *toqlsql.Registry
	translator     *toqlsql.AliasTranslatorImpl
	roles          []string
	auxParams      map[string]toqlsql.SqlArg
	rootMapper     *toqlsql.TableMapper
	rootAlias      string
	joins          map[string]*joinUse
	joinOrder      []string
	selectedMut    map[string]bool // canonical field path -> explicitly selected (Query)
	selectedMerges map[string]bool
	promoteInner   bool
}

func newBuilder(reg *toqlsql.Registry, rootTypeName string, opts Options) (*builder, error) {
	rootMapper, err := reg.Mapper(rootTypeName)
	if err != nil {
		return nil, err
	}
	aux := opts.AuxParams
	if aux == nil {
		aux = map[string]toqlsql.SqlArg{}
	}
	return &builder{
		reg:            reg,
		translator:     toqlsql.NewAliasTranslator(opts.AliasFormat),
		roles:          opts.Roles,
		auxParams:      aux,
		rootMapper:     rootMapper,
		rootAlias:      rootMapper.CanonicalTableAlias,
		joins:          make(map[string]*joinUse),
		selectedMut:    make(map[string]bool),
		selectedMerges: make(map[string]bool),
	}, nil
}

func (b *builder) resolver(selfAlias string) *toqlsql.Resolver {
	return (&toqlsql.Resolver{SelfAlias: selfAlias, HasSelf: true}).WithAuxParams(b.auxParams)
}

// resolvePath walks a canonical, underscore-joined path starting at the
// root mapper, registering every join segment it crosses (idempotently)
// and returning the mapper and canonical alias the path ultimately
// addresses. A segment that is not a join on the current mapper but is
// a merge stops resolution there and is recorded in selectedMerges
// instead: fields nested inside a merge are loaded by a follow-up build
// against the merged mapper, not inlined into this SELECT.
func (b *builder) resolvePath(path toqlsql.Path) (mapper *toqlsql.TableMapper, alias string, stoppedAtMerge bool, err error) {
	mapper = b.rootMapper
	alias = b.rootAlias
	if path.IsEmpty() {
		return mapper, alias, false, nil
	}
	it := path.Descendents()
	for {
		seg, ok := it.Next()
		if !ok {
			break
		}
		name := seg.String()
		if jm, jerr := mapper.Join(name); jerr == nil {
			if !toqlsql.RoleCheck(jm.Options.Roles, b.roles) {
				return nil, "", false, toqlsql.ErrRoleMissing.New(jm.Options.Roles.String())
			}
			childAlias := alias + "_" + name
			childMapper, merr := b.reg.Mapper(jm.JoinedMapperName)
			if merr != nil {
				return nil, "", false, merr
			}
			b.registerJoin(childAlias, alias, name, jm, childMapper)
			mapper = childMapper
			alias = childAlias
			continue
		}
		if _, merr := mapper.Merge(name); merr == nil {
			b.selectedMerges[alias+"_"+name] = true
			return mapper, alias, true, nil
		}
		return nil, "", false, toqlsql.ErrFieldMissing.New(string(path))
	}
	return mapper, alias, false, nil
}

func (b *builder) registerJoin(alias, parentAlias, name string, jm *toqlsql.JoinMapping, mapper *toqlsql.TableMapper) {
	if _, ok := b.joins[alias]; ok {
		return
	}
	b.joins[alias] = &joinUse{
		name:       name,
		parentName: parentAlias,
		mapping:    jm,
		mapper:     mapper,
		alias:      alias,
	}
	b.joinOrder = append(b.joinOrder, alias)
}

// joinSql renders the root's join chain in the canonical nested form
// "JOIN (ChildTable child_alias [nested joins]) ON (on_predicate)": a
// join's children are rendered inside its own parenthesized table
// factor, so the ON predicate of a join always closes its parent's
// parens before the parent's own ON is emitted. Children render in
// first-use (joinOrder) order under each parent.
func (b *builder) joinSql() (string, []toqlsql.SqlArg, error) {
	children := make(map[string][]string, len(b.joinOrder))
	var roots []string
	for _, alias := range b.joinOrder {
		parent := b.joins[alias].parentName
		if _, ok := b.joins[parent]; ok {
			children[parent] = append(children[parent], alias)
		} else {
			roots = append(roots, alias)
		}
	}

	var sb strings.Builder
	var args []toqlsql.SqlArg
	for _, alias := range roots {
		joinArgs, err := b.renderJoin(&sb, alias, children)
		if err != nil {
			return "", nil, err
		}
		args = append(args, joinArgs...)
	}
	return sb.String(), args, nil
}

// renderJoin writes one "VERB (table [nested joins]) ON (...)" join,
// recursing into its children before closing its own table factor.
func (b *builder) renderJoin(sb *strings.Builder, alias string, children map[string][]string) ([]toqlsql.SqlArg, error) {
	ju := b.joins[alias]
	kind := ju.mapping.Kind
	if b.promoteInner {
		kind = toqlsql.JoinInner
	}
	verb := "LEFT JOIN"
	if kind == toqlsql.JoinInner {
		verb = "JOIN"
	}

	tableResolver := b.resolver(ju.alias)
	tableSql, args, err := tableResolver.ToSql(ju.mapping.TableExpr, b.translator)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(sb, " %s (%s", verb, tableSql)
	for _, child := range children[alias] {
		childArgs, err := b.renderJoin(sb, child, children)
		if err != nil {
			return nil, err
		}
		args = append(args, childArgs...)
	}
	sb.WriteString(")")

	onResolver := b.resolver(ju.parentName).WithOtherAlias(ju.alias)
	if ju.mapping.Options.AuxParams != nil {
		onResolver = onResolver.WithAuxParams(ju.mapping.Options.AuxParams)
	}
	onExpr := ju.mapping.OnExpr.Clone()
	if ju.mapping.Options.Discriminator != nil && kind == toqlsql.JoinLeft {
		onExpr = onExpr.Clone().PushLiteral(" AND ").Extend(ju.mapping.Options.Discriminator)
	}
	onSql, onArgs, err := onResolver.ToSql(onExpr, b.translator)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(sb, " ON (%s)", onSql)
	args = append(args, onArgs...)

	return args, nil
}

// filterSql renders one field filter's SQL condition, the field's
// column expression bound against its owning mapper's alias.
func filterSql(fieldSql string, f *parse.Filter) (string, []toqlsql.SqlArg, error) {
	switch f.Op {
	case parse.FilterEq:
		return fieldSql + " = ?", f.Args, nil
	case parse.FilterNe:
		return fieldSql + " <> ?", f.Args, nil
	case parse.FilterGt:
		return fieldSql + " > ?", f.Args, nil
	case parse.FilterGe:
		return fieldSql + " >= ?", f.Args, nil
	case parse.FilterLt:
		return fieldSql + " < ?", f.Args, nil
	case parse.FilterLe:
		return fieldSql + " <= ?", f.Args, nil
	case parse.FilterLk:
		return fieldSql + " LIKE ?", f.Args, nil
	case parse.FilterRe:
		return fieldSql + " REGEXP ?", f.Args, nil
	case parse.FilterEqn:
		return fieldSql + " IS NULL", nil, nil
	case parse.FilterNen:
		return fieldSql + " IS NOT NULL", nil, nil
	case parse.FilterBw:
		if len(f.Args) != 2 {
			return "", nil, fmt.Errorf("toql: bw filter needs exactly 2 args, got %d", len(f.Args))
		}
		return fieldSql + " BETWEEN ? AND ?", f.Args, nil
	case parse.FilterIn:
		return fieldSql + " IN (" + placeholders(len(f.Args)) + ")", f.Args, nil
	case parse.FilterOut:
		return fieldSql + " NOT IN (" + placeholders(len(f.Args)) + ")", f.Args, nil
	case parse.FilterFn:
		return f.FnName + "(" + fieldSql + mapArgsSuffix(len(f.Args)) + ")", f.Args, nil
	default:
		return "", nil, fmt.Errorf("toql: unhandled filter operator")
	}
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

func mapArgsSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return ", " + placeholders(n)
}

// condBuilder assembles a WHERE/HAVING-shaped clause from a flat,
// possibly bracketed token stream: SQL's native AND-binds-tighter-than-OR
// precedence mirrors Toql's ','-binds-tighter-than-';', so brackets pass
// straight through as literal parens with no extra grouping logic.
type condBuilder struct {
	buf     []byte
	args    []toqlsql.SqlArg
	needSep bool
	opens   []int
}

func (c *condBuilder) openBracket(concat parse.Concatenation) {
	start := len(c.buf)
	c.sep(concat)
	c.buf = append(c.buf, '(')
	c.opens = append(c.opens, start)
	c.needSep = false
}

func (c *condBuilder) closeBracket() {
	if len(c.opens) == 0 {
		return
	}
	start := c.opens[len(c.opens)-1]
	c.opens = c.opens[:len(c.opens)-1]
	// a group that contributed nothing to this clause (every member
	// routed elsewhere, e.g. to HAVING) vanishes instead of leaving an
	// empty "()" behind
	if c.buf[len(c.buf)-1] == '(' {
		c.buf = c.buf[:start]
		c.needSep = start > 0
		return
	}
	c.buf = append(c.buf, ')')
	c.needSep = true
}

func (c *condBuilder) sep(concat parse.Concatenation) {
	if !c.needSep {
		return
	}
	if concat == parse.Or {
		c.buf = append(c.buf, " OR "...)
	} else {
		c.buf = append(c.buf, " AND "...)
	}
}

// cond appends one condition, in the clause's left-to-right order, and
// records the placeholder args it bound so the final statement's arg
// vector stays aligned with its "?" placeholders.
func (c *condBuilder) cond(concat parse.Concatenation, text string, args ...toqlsql.SqlArg) {
	c.sep(concat)
	c.buf = append(c.buf, text...)
	c.args = append(c.args, args...)
	c.needSep = true
}

func (c *condBuilder) empty() bool { return len(c.buf) == 0 }

func (c *condBuilder) String() string { return string(c.buf) }
