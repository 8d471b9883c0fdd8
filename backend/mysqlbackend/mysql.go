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

// Package mysqlbackend is a concrete backend.Backend over
// database/sql and the go-sql-driver/mysql driver: "?" placeholders,
// LAST_INSERT_ID()-based key generation.
package mysqlbackend

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Config is the DSN plus pool tuning for one MySQL connection.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Registry     *toqlsql.Registry
	Roles        []string
	AuxParams    map[string]toqlsql.SqlArg
	AliasFormat  toqlsql.AliasFormat
}

// Backend is a backend.Backend over a *sql.DB.
type Backend struct {
	db          *sql.DB
	registry    *toqlsql.Registry
	roles       []string
	auxParams   map[string]toqlsql.SqlArg
	aliasFormat toqlsql.AliasFormat
}

// Connect opens a pooled connection per cfg.
func Connect(cfg Config) (*Backend, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("toql: mysqlbackend: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	aux := cfg.AuxParams
	if aux == nil {
		aux = map[string]toqlsql.SqlArg{}
	}
	return &Backend{db: db, registry: cfg.Registry, roles: cfg.Roles, auxParams: aux, aliasFormat: cfg.AliasFormat}, nil
}

// New wraps an already-open *sql.DB, letting a caller share a pool
// across backends or inject a test double that still speaks
// database/sql.
func New(db *sql.DB, registry *toqlsql.Registry, roles []string, auxParams map[string]toqlsql.SqlArg, aliasFormat toqlsql.AliasFormat) *Backend {
	if auxParams == nil {
		auxParams = map[string]toqlsql.SqlArg{}
	}
	return &Backend{db: db, registry: registry, roles: roles, auxParams: auxParams, aliasFormat: aliasFormat}
}

func (b *Backend) Registry() *toqlsql.Registry          { return b.registry }
func (b *Backend) RegistryMut() *toqlsql.Registry       { return b.registry }
func (b *Backend) Roles() []string                      { return b.roles }
func (b *Backend) AuxParams() map[string]toqlsql.SqlArg { return b.auxParams }
func (b *Backend) AliasFormat() toqlsql.AliasFormat     { return b.aliasFormat }

func toDriverArgs(args []toqlsql.SqlArg) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = a.Value()
	}
	return out
}

func (b *Backend) QuerySql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([][]toqlsql.SqlArg, error) {
	rows, err := b.db.QueryContext(ctx, sqlText, toDriverArgs(args)...)
	if err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}

	var out [][]toqlsql.SqlArg
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
		}
		row := make([]toqlsql.SqlArg, len(cols))
		for i, v := range raw {
			row[i] = scanToArg(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	return out, nil
}

func (b *Backend) ExecuteSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) error {
	if _, err := b.db.ExecContext(ctx, sqlText, toDriverArgs(args)...); err != nil {
		return toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	return nil
}

func (b *Backend) InsertSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([]toqlsql.SqlArg, error) {
	res, err := b.db.ExecContext(ctx, sqlText, toDriverArgs(args)...)
	if err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	id, err := res.LastInsertId()
	if err != nil {
		// driver does not support generated keys for this statement shape
		// (e.g. a multi-row INSERT without AUTO_INCREMENT); callers that
		// asked for a key on a non-auto-keyed entity should not reach here.
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	keys := make([]toqlsql.SqlArg, affected)
	for i := range keys {
		keys[i] = toqlsql.ArgFromI64(id + int64(i))
	}
	return keys, nil
}

func scanToArg(v interface{}) toqlsql.SqlArg {
	switch t := v.(type) {
	case nil:
		return toqlsql.ArgNullValue
	case int64:
		return toqlsql.ArgFromI64(t)
	case float64:
		return toqlsql.ArgFromF64(t)
	case bool:
		return toqlsql.ArgFromBool(t)
	case []byte:
		return toqlsql.ArgFromStr(string(t))
	case string:
		return toqlsql.ArgFromStr(t)
	default:
		return toqlsql.ArgFromStr(fmt.Sprintf("%v", t))
	}
}
