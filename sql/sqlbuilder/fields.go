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

package sqlbuilder

import (
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
)

// walkTokens is the single pass over a query's flat token stream that
// resolves every field path, registers the joins it crosses, marks
// fields/merges as selected, and assembles the where/having clauses.
// Wildcard and selection tokens only ever mark fields selected; they
// never themselves contribute a where/having condition.
func (b *builder) walkTokens(tokens []parse.Token, ws *walkState) error {
	for _, t := range tokens {
		switch t.Kind {
		case parse.TokLeftBracket:
			ws.where.openBracket(t.Concat)
		case parse.TokRightBracket:
			ws.where.closeBracket()
		case parse.TokField:
			if err := b.walkField(t.Field, ws); err != nil {
				return err
			}
		case parse.TokWildcard:
			if err := b.walkWildcard(t.Wildcard); err != nil {
				return err
			}
		case parse.TokSelection:
			if err := b.walkSelection(t.Selection); err != nil {
				return err
			}
		case parse.TokPredicate:
			if err := b.walkPredicate(t.Predicate, ws); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) walkField(ft *parse.FieldToken, ws *walkState) error {
	prefix, name := toqlsql.SplitBasename(ft.Name)
	mapper, alias, stoppedAtMerge, err := b.resolvePath(prefix)
	if err != nil {
		return err
	}
	if stoppedAtMerge {
		if ft.Filter != nil || ft.Order != nil {
			return toqlsql.ErrFieldMissing.New(ft.Name)
		}
		return nil
	}
	fm, err := mapper.Field(name)
	if err != nil {
		return err
	}
	if !toqlsql.RoleCheck(fm.Options.Roles, b.roles) {
		return toqlsql.ErrRoleMissing.New(fm.Options.Roles.String())
	}
	if !ft.Hidden {
		b.selectedMut[alias+"_"+name] = true
	}

	if ft.Filter == nil && ft.Order == nil {
		return nil
	}

	fieldSql, fieldArgs, err := b.resolver(alias).ToSql(fm.Expression, b.translator)
	if err != nil {
		return err
	}

	if ft.Order != nil {
		ws.order = append(ws.order, orderedField{
			priority: ft.Order.Priority,
			seq:      ws.orderSeq,
			sql:      fieldSql,
			dir:      ft.Order.Dir,
		})
		ws.orderSeq++
	}

	if ft.Filter != nil {
		condText, condArgs, err := filterSql(fieldSql, ft.Filter)
		if err != nil {
			return err
		}
		allArgs := append(append([]toqlsql.SqlArg{}, fieldArgs...), condArgs...)
		target := &ws.where
		if ft.Filter.Aggregate {
			target = &ws.having
		}
		target.cond(ft.Concat, condText, allArgs...)
	}
	return nil
}

func (b *builder) walkWildcard(wt *parse.WildcardToken) error {
	mapper, alias, stoppedAtMerge, err := b.resolvePath(toqlsql.Path(wt.PathPrefix))
	if err != nil {
		return err
	}
	if stoppedAtMerge {
		return nil
	}
	b.markWildcardFields(mapper, alias)
	return nil
}

// markWildcardFields selects every non-skip-wildcard field of mapper the
// caller's roles allow (a failing role check is recovered silently here,
// unlike an explicit field reference), then descends into preselected
// joins so "*" also loads the always-joined part of the tree.
func (b *builder) markWildcardFields(mapper *toqlsql.TableMapper, alias string) {
	for _, name := range mapper.FieldOrder() {
		fm := mapper.Fields[name]
		if fm.Options.SkipWildcard {
			continue
		}
		if !toqlsql.RoleCheck(fm.Options.Roles, b.roles) {
			continue
		}
		b.selectedMut[alias+"_"+name] = true
	}
	for _, name := range mapper.JoinOrder() {
		jm := mapper.Joins[name]
		if !jm.Options.Preselect || jm.Options.SkipWildcard {
			continue
		}
		if !toqlsql.RoleCheck(jm.Options.Roles, b.roles) {
			continue
		}
		childMapper, err := b.reg.Mapper(jm.JoinedMapperName)
		if err != nil {
			continue
		}
		childAlias := alias + "_" + name
		b.registerJoin(childAlias, alias, name, jm, childMapper)
		b.markWildcardFields(childMapper, childAlias)
	}
}

func (b *builder) walkSelection(st *parse.SelectionToken) error {
	fields, ok := b.rootMapper.Selections[st.Name]
	if !ok {
		return toqlsql.ErrFieldMissing.New("$" + st.Name)
	}
	for _, entry := range fields {
		if strings.HasSuffix(entry, "*") {
			if err := b.walkWildcard(&parse.WildcardToken{PathPrefix: strings.TrimSuffix(strings.TrimSuffix(entry, "*"), "_")}); err != nil {
				return err
			}
			continue
		}
		prefix, name := toqlsql.SplitBasename(entry)
		mapper, alias, stoppedAtMerge, err := b.resolvePath(prefix)
		if err != nil {
			return err
		}
		if stoppedAtMerge {
			continue
		}
		if _, err := mapper.Field(name); err != nil {
			return err
		}
		b.selectedMut[alias+"_"+name] = true
	}
	return nil
}

func (b *builder) walkPredicate(pt *parse.PredicateToken, ws *walkState) error {
	pm, err := b.rootMapper.Predicate(pt.Name)
	if err != nil {
		return err
	}
	aux := b.auxParams
	if len(pm.Options.OnAuxParams) > 0 {
		overlay := make(map[string]toqlsql.SqlArg, len(pm.Options.OnAuxParams))
		for i, name := range pm.Options.OnAuxParams {
			if i < len(pt.Args) {
				overlay[name] = pt.Args[i]
			}
		}
		merged := make(map[string]toqlsql.SqlArg, len(aux)+len(overlay))
		for k, v := range aux {
			merged[k] = v
		}
		for k, v := range overlay {
			merged[k] = v
		}
		aux = merged
	}
	expr := pm.Expression
	if pm.Handler != nil {
		expr, err = pm.Handler.BuildPredicate(expr, pt.Args, aux)
		if err != nil {
			return err
		}
	}
	resolver := (&toqlsql.Resolver{SelfAlias: b.rootAlias, HasSelf: true}).WithAuxParams(aux)
	text, args, err := resolver.ToSql(expr, b.translator)
	if err != nil {
		return err
	}
	target := &ws.where
	if pm.Options.CountFilter {
		target = &ws.having
	}
	target.cond(pt.Concat, text, args...)
	return nil
}

// registerPreselected walks mapper's join tree registering every
// Preselect join (and recursing through it), so joins that must always
// appear in FROM/ON even without an explicit field reference are
// present by the time the select list and join clause are emitted.
func (b *builder) registerPreselected(mapper *toqlsql.TableMapper, alias string) {
	for _, name := range mapper.JoinOrder() {
		jm := mapper.Joins[name]
		childAlias := alias + "_" + name
		if !jm.Options.Preselect {
			continue
		}
		if !toqlsql.RoleCheck(jm.Options.Roles, b.roles) {
			continue
		}
		childMapper, err := b.reg.Mapper(jm.JoinedMapperName)
		if err != nil {
			continue
		}
		b.registerJoin(childAlias, alias, name, jm, childMapper)
		b.registerPreselected(childMapper, childAlias)
	}
}

// emitSelectList walks mapper's deserialize_order, emitting one SQL
// fragment and SelectionStream flag per field, recursing into every
// join (selected or not, so the stream's column footprint always
// matches the physical shape FromRow must walk) and skipping merges
// entirely (they carry no column group in this statement).
func (b *builder) emitSelectList(mapper *toqlsql.TableMapper, alias string, stream *toqlsql.SelectionStream) (string, []toqlsql.SqlArg, bool, error) {
	return b.emitSelectListInner(mapper, alias, stream, false)
}

func (b *builder) emitSelectListInner(mapper *toqlsql.TableMapper, alias string, stream *toqlsql.SelectionStream, forceNone bool) (string, []toqlsql.SqlArg, bool, error) {
	var parts []string
	var args []toqlsql.SqlArg
	anySelected := false

	for _, entry := range mapper.DeserializeOrder {
		switch entry.Kind {
		case toqlsql.DeserializeField:
			fm := mapper.Fields[entry.Name]
			selected := !forceNone && (fm.Options.Preselect || b.selectedMut[alias+"_"+entry.Name])
			if !toqlsql.RoleCheck(fm.Options.Roles, b.roles) {
				selected = false
			}
			if !selected {
				stream.Push(toqlsql.SelectNone)
				continue
			}
			expr := fm.Expression
			var err error
			if fm.Options.Handler != nil {
				expr, err = fm.Options.Handler.BuildSelect(expr, b.auxParams)
				if err != nil {
					return "", nil, false, err
				}
			}
			text, fieldArgs, err := b.resolver(alias).ToSql(expr, b.translator)
			if err != nil {
				return "", nil, false, err
			}
			flag := toqlsql.SelectQuery
			if fm.Options.Preselect {
				flag = toqlsql.SelectPreselect
			}
			stream.Push(flag)
			parts = append(parts, text)
			args = append(args, fieldArgs...)
			anySelected = true

		case toqlsql.DeserializeJoin:
			jm := mapper.Joins[entry.Name]
			childAlias := alias + "_" + entry.Name
			_, used := b.joins[childAlias]
			used = used && !forceNone
			childMapper, err := b.reg.Mapper(jm.JoinedMapperName)
			if err != nil {
				return "", nil, false, err
			}
			childSql, childArgs, childAny, err := b.emitSelectListInner(childMapper, childAlias, stream, !used)
			if err != nil {
				return "", nil, false, err
			}
			if used && childSql != "" {
				parts = append(parts, childSql)
				args = append(args, childArgs...)
			}
			anySelected = anySelected || (used && childAny)

		case toqlsql.DeserializeMerge:
			// no column group: loaded by a follow-up build, see resolvePath.
		}
	}
	return strings.Join(parts, ", "), args, anySelected, nil
}
