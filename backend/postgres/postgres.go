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

// Package postgres is a concrete backend.Backend over pgx/v5's
// connection pool: "$N" placeholders, RETURNING-based key generation.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Config is the DSN plus pool tuning for one PostgreSQL pool.
type Config struct {
	DSN         string
	MaxConns    int32
	Registry    *toqlsql.Registry
	Roles       []string
	AuxParams   map[string]toqlsql.SqlArg
	AliasFormat toqlsql.AliasFormat
}

// Backend is a backend.Backend over a *pgxpool.Pool.
type Backend struct {
	pool        *pgxpool.Pool
	registry    *toqlsql.Registry
	roles       []string
	auxParams   map[string]toqlsql.SqlArg
	aliasFormat toqlsql.AliasFormat
}

// Connect opens a pool per cfg.
func Connect(ctx context.Context, cfg Config) (*Backend, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("toql: postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("toql: postgres: connect: %w", err)
	}
	aux := cfg.AuxParams
	if aux == nil {
		aux = map[string]toqlsql.SqlArg{}
	}
	return &Backend{pool: pool, registry: cfg.Registry, roles: cfg.Roles, auxParams: aux, aliasFormat: cfg.AliasFormat}, nil
}

func (b *Backend) Registry() *toqlsql.Registry          { return b.registry }
func (b *Backend) RegistryMut() *toqlsql.Registry       { return b.registry }
func (b *Backend) Roles() []string                      { return b.roles }
func (b *Backend) AuxParams() map[string]toqlsql.SqlArg { return b.auxParams }
func (b *Backend) AliasFormat() toqlsql.AliasFormat     { return b.aliasFormat }

var qMarkRe = regexp.MustCompile(`\?`)

// rebind rewrites the core builder's dialect-agnostic "?" placeholders
// into pgx's positional "$1", "$2", ... form.
func rebind(sqlText string) string {
	n := 0
	return qMarkRe.ReplaceAllStringFunc(sqlText, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

func toDriverArgs(args []toqlsql.SqlArg) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = a.Value()
	}
	return out
}

func (b *Backend) QuerySql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([][]toqlsql.SqlArg, error) {
	rows, err := b.pool.Query(ctx, rebind(sqlText), toDriverArgs(args)...)
	if err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	defer rows.Close()

	var out [][]toqlsql.SqlArg
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
		}
		row := make([]toqlsql.SqlArg, len(vals))
		for i, v := range vals {
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
	if _, err := b.pool.Exec(ctx, rebind(sqlText), toDriverArgs(args)...); err != nil {
		return toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	return nil
}

// InsertSql reads generated keys through a RETURNING clause. The
// planner builds dialect-agnostic INSERTs, so the clause is appended
// here; the planner only calls InsertSql for entities whose identity is
// database-generated, and this backend pins that identity to a column
// named "id". A statement that already carries its own RETURNING is
// passed through unchanged.
func (b *Backend) InsertSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([]toqlsql.SqlArg, error) {
	if !strings.Contains(sqlText, "RETURNING") {
		sqlText += " RETURNING id"
	}
	rows, err := b.pool.Query(ctx, rebind(sqlText), toDriverArgs(args)...)
	if err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	defer rows.Close()

	var keys []toqlsql.SqlArg
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
		}
		if len(vals) == 0 {
			continue
		}
		keys = append(keys, scanToArg(vals[0]))
	}
	if err := rows.Err(); err != nil {
		return nil, toqlsql.ErrBackendError.Wrap(err, sqlText)
	}
	return keys, nil
}

func scanToArg(v interface{}) toqlsql.SqlArg {
	switch t := v.(type) {
	case nil:
		return toqlsql.ArgNullValue
	case int64:
		return toqlsql.ArgFromI64(t)
	case int32:
		return toqlsql.ArgFromI64(int64(t))
	case float64:
		return toqlsql.ArgFromF64(t)
	case bool:
		return toqlsql.ArgFromBool(t)
	case []byte:
		return toqlsql.ArgFromStr(string(t))
	case string:
		return toqlsql.ArgFromStr(t)
	case pgx.Identifier:
		return toqlsql.ArgFromStr(t.Sanitize())
	default:
		return toqlsql.ArgFromStr(fmt.Sprintf("%v", t))
	}
}
