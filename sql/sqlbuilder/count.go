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
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
)

// BuildCount compiles "SELECT COUNT(*) FROM ... WHERE ..." for the same
// query a BuildSelect call would use to load rows. Every join the
// filter touches is forced to INNER: a left join exists only to make an
// optional extension's columns available to SELECT, and a count never
// selects columns, so there is nothing left for a LEFT JOIN to
// preserve once the filter already requires the joined row to exist.
func BuildCount(reg *toqlsql.Registry, rootTypeName string, q *parse.Query, opts Options) (*Result, error) {
	b, err := newBuilder(reg, rootTypeName, opts)
	if err != nil {
		return nil, err
	}
	b.promoteInner = true

	if !toqlsql.RoleCheck(b.rootMapper.LoadRoleExpr, opts.Roles) {
		return nil, toqlsql.ErrRoleMissing.New(b.rootMapper.LoadRoleExpr.String())
	}
	ws := &walkState{}
	if err := b.walkTokens(q.Tokens, ws); err != nil {
		return nil, err
	}

	joinSql, joinArgs, err := b.joinSql()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*)")
	fmt.Fprintf(&sb, " FROM %s %s", b.rootMapper.TableName, b.translator.Translate(b.rootAlias))
	sb.WriteString(joinSql)

	args := append([]toqlsql.SqlArg{}, joinArgs...)

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

	return &Result{Sql: sb.String(), Args: args}, nil
}
