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

package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

func TestMockRecordsCalls(t *testing.T) {
	reg := toqlsql.NewRegistry()
	m := NewMock(reg, Config{Roles: []string{"admin"}})
	require.Equal(t, []string{"admin"}, m.Roles())
	require.Same(t, reg, m.Registry())

	ctx := context.Background()
	require.NoError(t, m.ExecuteSql(ctx, "DELETE x", []toqlsql.SqlArg{toqlsql.ArgFromI64(1)}))

	rows, err := m.QuerySql(ctx, "SELECT 1", nil)
	require.NoError(t, err)
	require.Nil(t, rows)

	require.Len(t, m.Calls, 2)
	require.Equal(t, "execute", m.Calls[0].Kind)
	require.Equal(t, "DELETE x", m.Calls[0].Sql)
	require.Equal(t, "query", m.Calls[1].Kind)
}

func TestMockQueuesInFifoOrder(t *testing.T) {
	m := NewMock(toqlsql.NewRegistry(), Config{})
	m.QueueRows([][]toqlsql.SqlArg{{toqlsql.ArgFromI64(1)}})
	m.QueueRows([][]toqlsql.SqlArg{{toqlsql.ArgFromI64(2)}})
	m.QueueInsertKeys([]toqlsql.SqlArg{toqlsql.ArgFromI64(7)})

	ctx := context.Background()
	rows, err := m.QuerySql(ctx, "q1", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows[0][0].I64())

	rows, err = m.QuerySql(ctx, "q2", nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), rows[0][0].I64())

	keys, err := m.InsertSql(ctx, "i1", nil)
	require.NoError(t, err)
	require.Equal(t, []toqlsql.SqlArg{toqlsql.ArgFromI64(7)}, keys)

	keys, err = m.InsertSql(ctx, "i2", nil)
	require.NoError(t, err)
	require.Nil(t, keys)
}
