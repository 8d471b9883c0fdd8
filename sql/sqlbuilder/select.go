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
	"fmt"
	"sort"
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
)

type orderedField struct {
	priority uint8
	seq      int
	sql      string
	dir      parse.OrderDir
}

// walkState accumulates everything a single pass over a Query's tokens
// produces: the where/having clauses and the requested orderings.
type walkState struct {
	where    condBuilder
	having   condBuilder
	order    []orderedField
	orderSeq int
}

// BuildSelect compiles a SELECT statement (and its SelectionStream) for
// rootTypeName against q.
func BuildSelect(reg *toqlsql.Registry, rootTypeName string, q *parse.Query, opts Options) (*Result, error) {
	b, err := newBuilder(reg, rootTypeName, opts)
	if err != nil {
		return nil, err
	}
	if !toqlsql.RoleCheck(b.rootMapper.LoadRoleExpr, opts.Roles) {
		return nil, toqlsql.ErrRoleMissing.New(b.rootMapper.LoadRoleExpr.String())
	}
	ws := &walkState{}
	// preselected joins belong to every SELECT (count and delete builds
	// carry only the joins their filters reach)
	b.registerPreselected(b.rootMapper, b.rootAlias)
	if err := b.walkTokens(q.Tokens, ws); err != nil {
		return nil, err
	}

	stream := toqlsql.NewSelectionStream()
	selectSql, selectArgs, anySelected, err := b.emitSelectList(b.rootMapper, b.rootAlias, stream)
	if err != nil {
		return nil, err
	}

	joinSql, joinArgs, err := b.joinSql()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if opts.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(selectSql)
	fmt.Fprintf(&sb, " FROM %s %s", b.rootMapper.TableName, b.translator.Translate(b.rootAlias))
	sb.WriteString(joinSql)

	args := append([]toqlsql.SqlArg{}, selectArgs...)
	args = append(args, joinArgs...)

	if !ws.where.empty() {
		sb.WriteString(" WHERE ")
		sb.WriteString(ws.where.String())
		args = append(args, ws.where.args...)
	}
	if !ws.having.empty() {
		sb.WriteString(" HAVING ")
		sb.WriteString(ws.having.String())
		args = append(args, ws.having.args...)
	}
	if len(ws.order) > 0 {
		sort.SliceStable(ws.order, func(i, j int) bool {
			if ws.order[i].priority != ws.order[j].priority {
				return ws.order[i].priority < ws.order[j].priority
			}
			return ws.order[i].seq < ws.order[j].seq
		})
		parts := make([]string, len(ws.order))
		for i, o := range ws.order {
			dir := "ASC"
			if o.dir == parse.Desc {
				dir = "DESC"
			}
			parts[i] = o.sql + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	return &Result{
		Sql:             sb.String(),
		Args:            args,
		SelectionStream: stream,
		SelectedMerges:  b.selectedMerges,
		AnySelected:     anySelected,
	}, nil
}
