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

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
	"github.com/roy-ganz/toql-sub002/sql/sqlbuilder"
)

// MergeSpec wires one top-level merge path into LoadMany's follow-up
// pass. Build constructs the child query constrained to the deduplicated
// parent keys already loaded; Index wraps the merged entity's own
// TreeIndex.ToqlIndex so the planner never needs the child Go type.
type MergeSpec struct {
	// Name is the merge's mapper-relative segment name, e.g. "addresses".
	Name  string
	Build func(parentKeys [][]toqlsql.SqlArg) (childTypeName string, q *parse.Query, err error)
	Index func(rows [][]toqlsql.SqlArg, rowOffset int, stream *toqlsql.SelectionStream) (map[uint64][]int, error)
}

// LoadMany runs q against rootTypeName, deserializing every row into a
// freshly allocated T via newEntity, deduplicating by ToqlKey while
// preserving first-seen order (a left join across a one-to-many edge can
// repeat a root row; merges are never joined into this query at all).
// Any merge named in merges whose path the query actually selected is
// then loaded in a second pass and attached via entity.ToqlMerge.
func LoadMany[T Entity](ctx context.Context, p *Planner, rootTypeName string, q *parse.Query, newEntity func() T, merges ...MergeSpec) ([]T, error) {
	reg := p.Backend.Registry()
	opts := sqlbuilder.Options{Roles: p.Backend.Roles(), AuxParams: p.Backend.AuxParams(), AliasFormat: p.Backend.AliasFormat()}

	result, err := sqlbuilder.BuildSelect(reg, rootTypeName, q, opts)
	if err != nil {
		return nil, err
	}

	done := p.notify("load_many", result.Sql)
	rows, err := p.Backend.QuerySql(ctx, result.Sql, result.Args)
	done(err)
	if err != nil {
		return nil, err
	}

	var out []T
	seen := map[uint64]bool{}
	for _, row := range rows {
		e := newEntity()
		cursor := result.SelectionStream.Cursor()
		if err := e.ToqlFromRow(toqlsql.NewRowReader(row), cursor); err != nil {
			return nil, err
		}
		h, herr := toqlsql.HashKey(e.ToqlKey())
		if herr != nil {
			return nil, herr
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, e)
	}

	rootMapper, err := reg.Mapper(rootTypeName)
	if err != nil {
		return nil, err
	}
	rootAlias := rootMapper.CanonicalTableAlias

	for _, spec := range merges {
		if !result.SelectedMerges[rootAlias+"_"+spec.Name] {
			continue
		}
		if len(out) == 0 {
			continue
		}
		parentKeys := make([][]toqlsql.SqlArg, len(out))
		for i, e := range out {
			parentKeys[i] = e.ToqlKey()
		}
		childTypeName, childQuery, berr := spec.Build(parentKeys)
		if berr != nil {
			return nil, berr
		}
		childResult, cerr := sqlbuilder.BuildSelect(reg, childTypeName, childQuery, opts)
		if cerr != nil {
			return nil, cerr
		}
		mdone := p.notify("load_merge:"+spec.Name, childResult.Sql)
		childRows, qerr := p.Backend.QuerySql(ctx, childResult.Sql, childResult.Args)
		mdone(qerr)
		if qerr != nil {
			return nil, qerr
		}
		index, ierr := spec.Index(childRows, 0, childResult.SelectionStream)
		if ierr != nil {
			return nil, ierr
		}
		parentPath, field := toqlsql.SplitBasename(spec.Name)
		for _, e := range out {
			merger, ok := interface{}(e).(toqlsql.TreeMerge)
			if !ok {
				continue
			}
			if err := merger.ToqlMerge(descendentsFor(parentPath.String()), field, childRows, 0, index, childResult.SelectionStream); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// LoadOne runs LoadMany and requires exactly one result, matching the
// single-row load_one contract of a toqlapi.ToqlApi.
func LoadOne[T Entity](ctx context.Context, p *Planner, rootTypeName string, q *parse.Query, newEntity func() T, merges ...MergeSpec) (T, error) {
	var zero T
	rows, err := LoadMany(ctx, p, rootTypeName, q, newEntity, merges...)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, toqlsql.ErrNotFound.New()
	}
	if len(rows) > 1 {
		return zero, toqlsql.ErrNotUnique.New()
	}
	return rows[0], nil
}

// Count runs a COUNT(*) build of q against rootTypeName, promoting every
// join to INNER the way sqlbuilder.BuildCount always does.
func Count(ctx context.Context, p *Planner, rootTypeName string, q *parse.Query) (int64, error) {
	reg := p.Backend.Registry()
	opts := sqlbuilder.Options{Roles: p.Backend.Roles(), AuxParams: p.Backend.AuxParams(), AliasFormat: p.Backend.AliasFormat()}
	result, err := sqlbuilder.BuildCount(reg, rootTypeName, q, opts)
	if err != nil {
		return 0, err
	}
	done := p.notify("count", result.Sql)
	rows, err := p.Backend.QuerySql(ctx, result.Sql, result.Args)
	done(err)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	v := rows[0][0]
	switch v.Kind() {
	case toqlsql.ArgI64:
		return v.I64(), nil
	case toqlsql.ArgU64:
		return int64(v.U64()), nil
	default:
		return 0, nil
	}
}
