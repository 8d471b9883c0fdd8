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
	"sync"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Call records one statement a Mock backend was asked to run.
type Call struct {
	Kind string // "query", "execute" or "insert"
	Sql  string
	Args []toqlsql.SqlArg
}

// Mock is a Backend that never touches a real database: it serializes
// every call for test assertions and returns canned responses queued by
// the test via QueueRows/QueueInsertKeys. Calls with no queued response
// return zero rows / no error, the common case for an insert/update/
// delete a test only cares about observing, not answering.
type Mock struct {
	mu          sync.Mutex
	registry    *toqlsql.Registry
	roles       []string
	auxParams   map[string]toqlsql.SqlArg
	aliasFormat toqlsql.AliasFormat

	Calls []Call

	queuedRows       [][][]toqlsql.SqlArg
	queuedInsertKeys [][]toqlsql.SqlArg
}

// NewMock returns a Mock backend wired to reg.
func NewMock(reg *toqlsql.Registry, cfg Config) *Mock {
	aux := cfg.AuxParams
	if aux == nil {
		aux = map[string]toqlsql.SqlArg{}
	}
	return &Mock{registry: reg, roles: cfg.Roles, auxParams: aux, aliasFormat: cfg.AliasFormat}
}

func (m *Mock) Registry() *toqlsql.Registry    { return m.registry }
func (m *Mock) RegistryMut() *toqlsql.Registry { return m.registry }
func (m *Mock) Roles() []string                { return m.roles }
func (m *Mock) AuxParams() map[string]toqlsql.SqlArg {
	return m.auxParams
}
func (m *Mock) AliasFormat() toqlsql.AliasFormat { return m.aliasFormat }

// QueueRows enqueues the next QuerySql call's result.
func (m *Mock) QueueRows(rows [][]toqlsql.SqlArg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuedRows = append(m.queuedRows, rows)
}

// QueueInsertKeys enqueues the next InsertSql call's generated keys.
func (m *Mock) QueueInsertKeys(keys []toqlsql.SqlArg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuedInsertKeys = append(m.queuedInsertKeys, keys)
}

func (m *Mock) QuerySql(_ context.Context, sqlText string, args []toqlsql.SqlArg) ([][]toqlsql.SqlArg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Kind: "query", Sql: sqlText, Args: args})
	if len(m.queuedRows) == 0 {
		return nil, nil
	}
	rows := m.queuedRows[0]
	m.queuedRows = m.queuedRows[1:]
	return rows, nil
}

func (m *Mock) ExecuteSql(_ context.Context, sqlText string, args []toqlsql.SqlArg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Kind: "execute", Sql: sqlText, Args: args})
	return nil
}

func (m *Mock) InsertSql(_ context.Context, sqlText string, args []toqlsql.SqlArg) ([]toqlsql.SqlArg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Kind: "insert", Sql: sqlText, Args: args})
	if len(m.queuedInsertKeys) == 0 {
		return nil, nil
	}
	keys := m.queuedInsertKeys[0]
	m.queuedInsertKeys = m.queuedInsertKeys[1:]
	return keys, nil
}
