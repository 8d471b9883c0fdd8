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

	"github.com/roy-ganz/toql-sub002/sql/parse"
	"github.com/roy-ganz/toql-sub002/sql/sqlbuilder"
)

// DeleteMany builds and, unless the query carries no filter at all,
// executes a DELETE against rootTypeName. A filterless query is a no-op
// (matching BuildDelete's Refused contract), not an error.
func DeleteMany(ctx context.Context, p *Planner, rootTypeName string, q *parse.Query) error {
	reg := p.Backend.Registry()
	opts := sqlbuilder.Options{Roles: p.Backend.Roles(), AuxParams: p.Backend.AuxParams(), AliasFormat: p.Backend.AliasFormat()}
	result, err := sqlbuilder.BuildDelete(reg, rootTypeName, q, opts)
	if err != nil {
		return err
	}
	if result.Refused {
		p.Listener.StepStarted("delete_many:refused", "")
		p.Listener.StepFinished("delete_many:refused", nil)
		return nil
	}
	done := p.notify("delete_many", result.Sql)
	err = p.Backend.ExecuteSql(ctx, result.Sql, result.Args)
	done(err)
	return err
}
