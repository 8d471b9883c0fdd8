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

package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryMapperMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Mapper("User")
	require.True(t, ErrMapperMissing.Is(err))
}

func TestEnsureMappedIdempotent(t *testing.T) {
	r := NewRegistry()
	calls := 0
	configure := func(m *TableMapper) error {
		calls++
		m.MapField("id", NewSqlExpr().PushAliasedColumn("id"), FieldOptions{})
		return nil
	}
	require.NoError(t, r.EnsureMapped("User", "users", "user", configure))
	require.NoError(t, r.EnsureMapped("User", "users", "user", configure))
	require.Equal(t, 1, calls)

	m, err := r.Mapper("User")
	require.NoError(t, err)
	require.Equal(t, "users", m.TableName)
}

// A mapping cycle (A joins B, B joins A) terminates because the mapper
// placeholder is registered before configuration runs.
func TestEnsureMappedCycle(t *testing.T) {
	r := NewRegistry()
	var mapA, mapB func(*TableMapper) error
	mapA = func(m *TableMapper) error {
		return r.EnsureMapped("B", "b", "b", mapB)
	}
	mapB = func(m *TableMapper) error {
		return r.EnsureMapped("A", "a", "a", mapA)
	}
	require.NoError(t, r.EnsureMapped("A", "a", "a", mapA))
	require.True(t, r.HasMapper("A"))
	require.True(t, r.HasMapper("B"))
}

func TestMapperLookups(t *testing.T) {
	m := NewTableMapper("users", "user")
	m.MapField("id", NewSqlExpr().PushAliasedColumn("id"), FieldOptions{})
	m.MapJoin("address", "Address", JoinLeft, NewSqlExpr(), NewSqlExpr(), JoinOptions{PartialTable: true})
	m.MapMerge("orders", "Order", NewSqlExpr(), NewSqlExpr(), MergeOptions{})

	_, err := m.Field("id")
	require.NoError(t, err)
	_, err = m.Field("missing")
	require.True(t, ErrFieldMissing.Is(err))

	_, err = m.Join("address")
	require.NoError(t, err)
	_, err = m.Join("missing")
	require.True(t, ErrJoinMissing.Is(err))

	_, err = m.Merge("orders")
	require.NoError(t, err)

	require.True(t, m.IsPartialJoin("address"))
	require.False(t, m.IsPartialJoin("orders"))
}

func TestMapperDeserializeOrder(t *testing.T) {
	m := NewTableMapper("users", "user")
	m.MapField("id", NewSqlExpr(), FieldOptions{})
	m.MapJoin("address", "Address", JoinInner, NewSqlExpr(), NewSqlExpr(), JoinOptions{})
	m.MapField("name", NewSqlExpr(), FieldOptions{})
	m.MapMerge("orders", "Order", NewSqlExpr(), NewSqlExpr(), MergeOptions{})

	require.Equal(t, []DeserializeEntry{
		{DeserializeField, "id"},
		{DeserializeJoin, "address"},
		{DeserializeField, "name"},
		{DeserializeMerge, "orders"},
	}, m.DeserializeOrder)

	// remapping a field must not duplicate its deserialize entry
	m.MapField("id", NewSqlExpr(), FieldOptions{Preselect: true})
	require.Len(t, m.DeserializeOrder, 4)
}
