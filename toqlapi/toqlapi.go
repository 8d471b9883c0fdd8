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

// Package toqlapi is the public surface (C11): ToqlApi layers the
// cascade planner over a backend.Backend and a parsed query, the one
// entry point an application imports to load, count, insert, update and
// delete mapped entity trees.
package toqlapi

import (
	"context"

	"github.com/roy-ganz/toql-sub002/backend"
	"github.com/roy-ganz/toql-sub002/planner"
	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
)

// ToqlApi is one backend bound to one Registry, offering the
// load/count/insert/update/delete operations a caller uses instead of
// reaching for sqlbuilder/planner directly.
type ToqlApi struct {
	Backend backend.Backend
	planner *planner.Planner
}

// New returns a ToqlApi over b, logging cascade steps through the
// planner's default Listener.
func New(b backend.Backend) *ToqlApi {
	return &ToqlApi{Backend: b, planner: planner.New(b)}
}

// WithListener returns a copy of a wired ToqlApi using listener for
// cascade diagnostics instead of the default logrus one.
func (a *ToqlApi) WithListener(listener planner.Listener) *ToqlApi {
	return &ToqlApi{Backend: a.Backend, planner: &planner.Planner{Backend: a.Backend, Listener: listener}}
}

// ParseQuery parses a Toql query string, the form load_one/load_many/
// count/delete_many accept before compiling.
func ParseQuery(toql string) (*parse.Query, error) {
	return parse.Parse(toql)
}

// LoadOne loads exactly one rootTypeName row matching toql, erroring
// with ErrNotFound/ErrNotUnique if the match count is not exactly one.
func LoadOne[T planner.Entity](ctx context.Context, a *ToqlApi, rootTypeName, toql string, newEntity func() T, merges ...planner.MergeSpec) (T, error) {
	var zero T
	q, err := ParseQuery(toql)
	if err != nil {
		return zero, err
	}
	return planner.LoadOne(ctx, a.planner, rootTypeName, q, newEntity, merges...)
}

// LoadMany loads every rootTypeName row matching toql.
func LoadMany[T planner.Entity](ctx context.Context, a *ToqlApi, rootTypeName, toql string, newEntity func() T, merges ...planner.MergeSpec) ([]T, error) {
	q, err := ParseQuery(toql)
	if err != nil {
		return nil, err
	}
	return planner.LoadMany(ctx, a.planner, rootTypeName, q, newEntity, merges...)
}

// Count runs a COUNT(*) build of toql against rootTypeName.
func Count(ctx context.Context, a *ToqlApi, rootTypeName, toql string) (int64, error) {
	q, err := ParseQuery(toql)
	if err != nil {
		return 0, err
	}
	return planner.Count(ctx, a.planner, rootTypeName, q)
}

// InsertOne inserts entity plus every join/merge/partial level named in
// paths.
func InsertOne[T planner.Mutator](ctx context.Context, a *ToqlApi, rootTypeName string, entity T, paths ...string) error {
	return planner.InsertOne(ctx, a.planner, rootTypeName, entity, paths...)
}

// InsertMany inserts every entity in entities the same way InsertOne
// does, batching each tree level into one multi-row INSERT.
func InsertMany[T planner.Mutator](ctx context.Context, a *ToqlApi, rootTypeName string, entities []T, paths ...string) error {
	return planner.InsertMany(ctx, a.planner, rootTypeName, entities, paths...)
}

// UpdateOne writes back the fields of entity named by the dotted field
// list (planner.TopField denotes the root level as a whole); a field
// list naming a merge reconciles that merge's children.
func UpdateOne[T toqlsql.TreeUpdate](ctx context.Context, a *ToqlApi, rootTypeName string, entity T, fields ...string) error {
	return planner.UpdateOne(ctx, a.planner, rootTypeName, entity, fields, a.Backend.Roles())
}

// UpdateMany is UpdateOne over every entity in entities.
func UpdateMany[T toqlsql.TreeUpdate](ctx context.Context, a *ToqlApi, rootTypeName string, entities []T, fields ...string) error {
	return planner.UpdateMany(ctx, a.planner, rootTypeName, entities, fields, a.Backend.Roles())
}

// DeleteMany deletes every rootTypeName row matching toql; a filterless
// query is a no-op, not an error (see planner.DeleteMany).
func DeleteMany(ctx context.Context, a *ToqlApi, rootTypeName, toql string) error {
	q, err := ParseQuery(toql)
	if err != nil {
		return err
	}
	return planner.DeleteMany(ctx, a.planner, rootTypeName, q)
}
