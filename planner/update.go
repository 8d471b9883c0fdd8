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

package planner

import (
	"context"
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// TopField is the field-list entry denoting the root level as a whole:
// update_one(entity, TopField) writes back every updatable root column.
const TopField = "top"

// updatePlan is the classification of a caller's field list: which
// levels get an UPDATE restricted to which field names ("*" meaning all
// updatable), in first-occurrence order, and which merge paths get the
// delete-then-insert reconciliation pass.
type updatePlan struct {
	fieldPaths []string
	fieldSets  map[string]map[string]bool
	mergePaths []string
}

// classifyFields resolves each dotted field identifier against the
// registry: a leaf naming a mapped field touches that field at its
// level; a leaf naming a join (or the reserved "top" entry) touches the
// whole level; a leaf naming a merge schedules merge reconciliation.
func classifyFields(reg *toqlsql.Registry, rootTypeName string, fields []string) (*updatePlan, error) {
	rootMapper, err := reg.Mapper(rootTypeName)
	if err != nil {
		return nil, err
	}
	plan := &updatePlan{fieldSets: map[string]map[string]bool{}}

	addField := func(path, name string) {
		if _, ok := plan.fieldSets[path]; !ok {
			plan.fieldSets[path] = map[string]bool{}
			plan.fieldPaths = append(plan.fieldPaths, path)
		}
		plan.fieldSets[path][name] = true
	}

	for _, f := range fields {
		if f == TopField || f == "" {
			addField("", "*")
			continue
		}
		prefix, leaf := toqlsql.SplitBasename(f)

		mapper := rootMapper
		if !prefix.IsEmpty() {
			it := prefix.Descendents()
			for {
				seg, ok := it.Next()
				if !ok {
					break
				}
				jm, jerr := mapper.Join(seg.String())
				if jerr != nil {
					// a prefix crossing a merge is addressed by naming the
					// merge itself; deeper merge-internal paths are not
					// updatable through the cascade
					return nil, toqlsql.ErrFieldMissing.New(f)
				}
				childMapper, merr := reg.Mapper(jm.JoinedMapperName)
				if merr != nil {
					return nil, merr
				}
				mapper = childMapper
			}
		}

		switch {
		case mapper.Fields[leaf] != nil:
			addField(prefix.String(), leaf)
		case mapper.Joins[leaf] != nil:
			addField(f, "*")
		case mapper.Merges[leaf] != nil:
			plan.mergePaths = append(plan.mergePaths, f)
		default:
			return nil, toqlsql.ErrFieldMissing.New(f)
		}
	}
	return plan, nil
}

// UpdateMany writes back the named fields of every entity: one UPDATE
// per touched level (levels whose key is not valid are skipped by the
// entity's own ToqlUpdate), then a reconciliation pass per named merge
// (delete removed children, insert new ones, propagate keys). Before a
// level's UPDATE its identity is refreshed with RefreshValid so
// foreign-key columns written back reflect the joined entities actually
// attached to the tree.
func UpdateMany[T toqlsql.TreeUpdate](ctx context.Context, p *Planner, rootTypeName string, entities []T, fields []string, roles []string) error {
	reg := p.Backend.Registry()
	plan, err := classifyFields(reg, rootTypeName, fields)
	if err != nil {
		return err
	}

	for _, e := range entities {
		identity, hasIdentity := interface{}(e).(toqlsql.TreeIdentity)

		var exprs []*toqlsql.SqlExpr
		for _, path := range plan.fieldPaths {
			if hasIdentity {
				if err := identity.ToqlSetID(descendentsFor(path), toqlsql.RefreshValid()); err != nil {
					return err
				}
			}
			if err := e.ToqlUpdate(descendentsFor(path), plan.fieldSets[path], roles, &exprs); err != nil {
				return err
			}
		}
		for _, expr := range exprs {
			sqlText, args, err := identityResolver.ToSql(expr, identityTranslator)
			if err != nil {
				return err
			}
			if sqlText == "" {
				continue
			}
			done := p.notify("update", sqlText)
			err = p.Backend.ExecuteSql(ctx, sqlText, args)
			done(err)
			if err != nil {
				return err
			}
		}

		for _, m := range plan.mergePaths {
			if err := updateMerge(ctx, p, reg, rootTypeName, e, m, roles); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateOne is UpdateMany for a single entity.
func UpdateOne[T toqlsql.TreeUpdate](ctx context.Context, p *Planner, rootTypeName string, entity T, fields []string, roles []string) error {
	return UpdateMany(ctx, p, rootTypeName, []T{entity}, fields, roles)
}

// mergeMutator is the capability set merge reconciliation needs beyond
// TreeUpdate.
type mergeMutator interface {
	toqlsql.TreeInsert
	toqlsql.TreeIdentity
	toqlsql.TreePredicate
}

// updateMerge reconciles one merge path m of entity e:
//
//  1. snapshot which children need inserting (invalid key) and which
//     keys are kept (valid),
//  2. refresh parent keys into new children's foreign keys,
//  3. delete the child rows scoped to this parent whose key is not kept,
//  4. insert the new children (propagating generated keys back),
//  5. insert any partial-table extension of the merged entity.
func updateMerge(ctx context.Context, p *Planner, reg *toqlsql.Registry, rootTypeName string, entity interface{}, m string, roles []string) error {
	e, ok := entity.(mergeMutator)
	if !ok {
		return toqlsql.ErrFieldMissing.New(m)
	}

	prefix, seg := toqlsql.SplitBasename(m)
	parentMapper, err := reg.Mapper(rootTypeName)
	if err != nil {
		return err
	}
	if !prefix.IsEmpty() {
		it := prefix.Descendents()
		for {
			s, ok := it.Next()
			if !ok {
				break
			}
			jm, jerr := parentMapper.Join(s.String())
			if jerr != nil {
				return jerr
			}
			parentMapper, err = reg.Mapper(jm.JoinedMapperName)
			if err != nil {
				return err
			}
		}
	}
	mm, err := parentMapper.Merge(seg)
	if err != nil {
		return err
	}
	if len(mm.Options.ParentFkColumns) == 0 {
		return toqlsql.ErrFieldMissing.New(m)
	}
	childMapper, err := reg.Mapper(mm.MergedMapperName)
	if err != nil {
		return err
	}

	// 1. snapshot child key validity before any refresh touches the tree
	childKeyCols, err := e.ToqlPredicateColumns(descendentsFor(m))
	if err != nil {
		return err
	}
	var flat []toqlsql.SqlArg
	if err := e.ToqlPredicateArgs(descendentsFor(m), &flat); err != nil {
		return err
	}
	width := len(childKeyCols)
	var shouldInsert []bool
	var kept [][]toqlsql.SqlArg
	if width > 0 {
		for i := 0; i+width <= len(flat); i += width {
			key := flat[i : i+width]
			if toqlsql.ValidKey(key) {
				shouldInsert = append(shouldInsert, false)
				kept = append(kept, key)
			} else {
				shouldInsert = append(shouldInsert, true)
			}
		}
	}

	// 2. new children inherit this parent's key; existing ones keep theirs
	if err := e.ToqlSetID(descendentsFor(m), toqlsql.RefreshInvalid()); err != nil {
		return err
	}

	// 3. delete child rows of this parent that are no longer attached
	var parentKey []toqlsql.SqlArg
	if err := e.ToqlPredicateArgs(descendentsFor(prefix.String()), &parentKey); err != nil {
		return err
	}
	if len(parentKey) != len(mm.Options.ParentFkColumns) {
		return toqlsql.ErrValueMissing.New(m)
	}
	if toqlsql.ValidKey(parentKey) {
		var sb strings.Builder
		sb.WriteString("DELETE FROM ")
		sb.WriteString(childMapper.TableName)
		sb.WriteString(" WHERE ")
		args := make([]toqlsql.SqlArg, 0, len(parentKey)+len(kept)*width)
		for i, col := range mm.Options.ParentFkColumns {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			sb.WriteString(col)
			sb.WriteString(" = ?")
			args = append(args, parentKey[i])
		}
		if len(kept) > 0 {
			sb.WriteString(" AND NOT (")
			for g, key := range kept {
				if g > 0 {
					sb.WriteString(" OR ")
				}
				sb.WriteString("(")
				for c, col := range childKeyCols {
					if c > 0 {
						sb.WriteString(" AND ")
					}
					sb.WriteString(col)
					sb.WriteString(" = ?")
					args = append(args, key[c])
				}
				sb.WriteString(")")
			}
			sb.WriteString(")")
		}
		done := p.notify("merge_delete:"+m, sb.String())
		err = p.Backend.ExecuteSql(ctx, sb.String(), args)
		done(err)
		if err != nil {
			return err
		}
	}

	// 4. insert the new children
	anyNew := false
	for _, f := range shouldInsert {
		if f {
			anyNew = true
			break
		}
	}
	if anyNew {
		flags := shouldInsert
		next := func() bool {
			if len(flags) == 0 {
				return false
			}
			f := flags[0]
			flags = flags[1:]
			return f
		}
		lv := level{path: m, depth: 1, kind: levelMerge, tableName: childMapper.TableName}
		if err := insertLevel(ctx, p, []mergeMutator{e}, lv, next); err != nil {
			return err
		}
	}

	// 5. partial-table extensions of the merged entity follow its rows
	for _, jn := range childMapper.JoinOrder() {
		if !childMapper.IsPartialJoin(jn) {
			continue
		}
		jm := childMapper.Joins[jn]
		partialMapper, err := reg.Mapper(jm.JoinedMapperName)
		if err != nil {
			return err
		}
		flags := shouldInsert
		next := func() bool {
			if len(flags) == 0 {
				return false
			}
			f := flags[0]
			flags = flags[1:]
			return f
		}
		lv := level{path: m + "_" + jn, depth: 2, kind: levelPartial, tableName: partialMapper.TableName}
		if err := insertLevel(ctx, p, []mergeMutator{e}, lv, next); err != nil {
			return err
		}
	}
	return nil
}
