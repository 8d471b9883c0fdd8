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
	"fmt"
	"sort"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Mutator is what InsertMany needs from the root entity type: it is
// both an inserter and an identity propagator, since inserting a tree
// that carries database-generated keys cannot be sequenced without also
// refreshing those keys into descendent foreign-key columns as it goes.
type Mutator interface {
	toqlsql.TreeInsert
	toqlsql.TreeIdentity
}

// InsertMany inserts entities (all the same mapped type) plus every join
// and merge level named in paths, in the order a cascading insert needs:
// join levels deepest to shallowest so a child row's own auto key exists
// before a shallower level's foreign key column is set from it, then the
// root level itself, then merge levels, then any partial-table level
// still pending shallowest to deepest (a partial table shares its
// parent's key rather than generating one, so it can safely run after
// the joins that might generate keys for it to copy).
func InsertMany[T Mutator](ctx context.Context, p *Planner, rootTypeName string, entities []T, paths ...string) error {
	if len(entities) == 0 {
		return nil
	}
	reg := p.Backend.Registry()
	levels, err := classifyPaths(reg, rootTypeName, paths)
	if err != nil {
		return err
	}

	var root []level
	var joins []level
	var merges []level
	var partials []level
	for _, lv := range levels {
		switch {
		case lv.depth == 0:
			root = append(root, lv)
		case lv.kind == levelMerge:
			merges = append(merges, lv)
		case lv.kind == levelPartial:
			partials = append(partials, lv)
		default:
			joins = append(joins, lv)
		}
	}
	sort.SliceStable(joins, func(i, j int) bool { return joins[i].depth > joins[j].depth })
	sort.SliceStable(partials, func(i, j int) bool { return partials[i].depth < partials[j].depth })

	ordered := append(append(append(joins, root...), merges...), partials...)
	for _, lv := range ordered {
		if err := insertLevel(ctx, p, entities, lv, nil); err != nil {
			return fmt.Errorf("toql: insert %q: %w", lv.path, err)
		}
	}
	return nil
}

// InsertOne is InsertMany for a single entity.
func InsertOne[T Mutator](ctx context.Context, p *Planner, rootTypeName string, entity T, paths ...string) error {
	return InsertMany(ctx, p, rootTypeName, []T{entity}, paths...)
}

var identityResolver = &toqlsql.Resolver{}
var identityTranslator = toqlsql.NewAliasTranslator(toqlsql.AliasFormatCanonical)

// insertAll is the should-insert source the plain insert path uses:
// every candidate row is inserted.
func insertAll() bool { return true }

// insertLevel emits one multi-row INSERT for the subtree level lv
// addresses, across all entities. Before values are read, each entity's
// identity at that level is refreshed so foreign-key columns emitted
// here pick up keys generated by deeper levels (and, at a merge level,
// children pick up their parent's key). shouldInsert filters candidate
// rows (nil inserts all); after an auto-keyed insert the generated keys
// are written back per entity, in row order.
func insertLevel[T Mutator](ctx context.Context, p *Planner, entities []T, lv level, shouldInsert func() bool) error {
	if shouldInsert == nil {
		shouldInsert = insertAll
	}
	first := entities[0]
	colsExpr, err := first.ToqlInsertColumns(descendentsFor(lv.path))
	if err != nil {
		return err
	}
	if colsExpr.Len() == 0 {
		return nil
	}
	colsSql, _, err := identityResolver.ToSql(colsExpr, identityTranslator)
	if err != nil {
		return err
	}

	autoID, err := first.ToqlAutoID(descendentsFor(lv.path))
	if err != nil {
		return err
	}

	roles := p.Backend.Roles()
	valuesExpr := toqlsql.NewSqlExpr()
	rowCounts := make([]int, len(entities))
	total := 0
	for i, e := range entities {
		if err := e.ToqlSetID(descendentsFor(lv.path), toqlsql.RefreshInvalid()); err != nil {
			return err
		}
		n, err := e.ToqlInsertValues(descendentsFor(lv.path), roles, shouldInsert, valuesExpr)
		if err != nil {
			return err
		}
		rowCounts[i] = n
		total += n
	}
	if total == 0 {
		return nil
	}
	valuesExpr.PopLiterals(2) // the generated values emitter leaves a trailing ", "
	valuesSql, valuesArgs, err := identityResolver.ToSql(valuesExpr, identityTranslator)
	if err != nil {
		return err
	}

	sqlText := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", lv.tableName, colsSql, valuesSql)

	if autoID {
		done := p.notify("insert:"+lv.path, sqlText)
		keys, ierr := p.Backend.InsertSql(ctx, sqlText, valuesArgs)
		done(ierr)
		if ierr != nil {
			return ierr
		}
		consumed := 0
		for i, e := range entities {
			n := rowCounts[i]
			if n == 0 {
				continue
			}
			if consumed+n > len(keys) {
				n = len(keys) - consumed
			}
			if n <= 0 {
				break
			}
			chunk := keys[consumed : consumed+n]
			consumed += n
			if err := e.ToqlSetID(descendentsFor(lv.path), toqlsql.SetInvalidAction(chunk)); err != nil {
				return err
			}
		}
		return nil
	}

	done := p.notify("insert:"+lv.path, sqlText)
	err = p.Backend.ExecuteSql(ctx, sqlText, valuesArgs)
	done(err)
	return err
}
