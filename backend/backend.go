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

// Package backend defines the database-facing boundary the cascade
// planner suspends on, plus an in-memory mock used by every other
// package's tests.
package backend

import (
	"context"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Config is the backend-agnostic knobs a caller sets before a Backend
// executes anything: the shared registry, the caller's effective roles,
// build-time aux params, and the alias format the builder should emit.
type Config struct {
	Registry    *toqlsql.Registry
	Roles       []string
	AuxParams   map[string]toqlsql.SqlArg
	AliasFormat toqlsql.AliasFormat
}

// Backend is the database-facing boundary: the only three operations
// the cascade planner ever suspends on. QuerySql and ExecuteSql take
// already-built SQL text and a positional arg vector (the builder's
// output); InsertSql additionally returns the generated key for every
// inserted row, in insertion order, for backends whose driver can
// report it (RETURNING id, LAST_INSERT_ID(), ...).
type Backend interface {
	Registry() *toqlsql.Registry
	RegistryMut() *toqlsql.Registry
	Roles() []string
	AuxParams() map[string]toqlsql.SqlArg
	AliasFormat() toqlsql.AliasFormat

	QuerySql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([][]toqlsql.SqlArg, error)
	ExecuteSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) error
	InsertSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([]toqlsql.SqlArg, error)
}
