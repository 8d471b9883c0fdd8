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

// BuildDelete compiles "DELETE alias FROM table alias JOIN ... WHERE
// ..." for q against rootTypeName. A query with no filter at all is not
// an error: Result.Refused is set and Sql/Args are left empty, so the
// caller (planner.DeleteMany) treats it as a no-op rather than issuing
// a delete of every row.
func BuildDelete(reg *toqlsql.Registry, rootTypeName string, q *parse.Query, opts Options) (*Result, error) {
	b, err := newBuilder(reg, rootTypeName, opts)
	if err != nil {
		return nil, err
	}
	b.promoteInner = true

	if !toqlsql.RoleCheck(b.rootMapper.DeleteRoleExpr, opts.Roles) {
		return nil, toqlsql.ErrRoleMissing.New(b.rootMapper.DeleteRoleExpr.String())
	}
	ws := &walkState{}
	if err := b.walkTokens(q.Tokens, ws); err != nil {
		return nil, err
	}

	if ws.where.empty() {
		return &Result{Refused: true}, nil
	}

	joinSql, joinArgs, err := b.joinSql()
	if err != nil {
		return nil, err
	}

	rootEmitted := b.translator.Translate(b.rootAlias)
	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE %s FROM %s %s", rootEmitted, b.rootMapper.TableName, rootEmitted)
	sb.WriteString(joinSql)
	sb.WriteString(" WHERE ")
	sb.WriteString(ws.where.String())

	args := append([]toqlsql.SqlArg{}, joinArgs...)
	args = append(args, ws.where.args...)

	return &Result{Sql: sb.String(), Args: args}, nil
}
