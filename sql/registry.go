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

import "sync"

// Mapped is implemented by generated code for one entity type: it names
// the type, its physical table and canonical alias, and configures a
// freshly allocated TableMapper for it. The code generator that derives
// this from struct tags is out of scope for this package; it is pinned
// here only as the interface generated code must satisfy.
type Mapped interface {
	ToqlTypeName() string
	ToqlTableName() string
	ToqlTableAlias() string
	ToqlMap(m *TableMapper) error
}

// TreeMapped is implemented by generated code for one entity type: it
// installs the type's own mapper and recursively ensures every type
// reachable through a join or merge is mapped too.
type TreeMapped interface {
	ToqlTreeMap(r *Registry) error
}

// Registry holds one TableMapper per entity type name, process-scoped
// by convention but passed explicitly rather than stored in a package
// global (per the design notes).
type Registry struct {
	mu      sync.Mutex
	mappers map[string]*TableMapper
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[string]*TableMapper)}
}

// Mapper returns the mapper registered for typeName, or ErrMapperMissing.
func (r *Registry) Mapper(typeName string) (*TableMapper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappers[typeName]
	if !ok {
		return nil, ErrMapperMissing.New(typeName)
	}
	return m, nil
}

// HasMapper reports whether typeName already has a mapper, without
// triggering mapping.
func (r *Registry) HasMapper(typeName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mappers[typeName]
	return ok
}

// EnsureMapped idempotently maps typeName. The mapper is inserted into
// the registry before configure runs, so a cyclic reference reached
// while configuring (typeName maps to itself transitively through a
// join/merge) sees the placeholder already present and returns
// immediately instead of recursing forever. Two concurrent callers for
// the same never-yet-mapped type may both pass the presence check and
// both configure a mapper (the map's last write wins); the design notes
// call this race-acceptable double-check-on-miss, not strict
// once-only construction.
func (r *Registry) EnsureMapped(typeName, tableName, tableAlias string, configure func(*TableMapper) error) error {
	r.mu.Lock()
	if _, ok := r.mappers[typeName]; ok {
		r.mu.Unlock()
		return nil
	}
	m := NewTableMapper(tableName, tableAlias)
	r.mappers[typeName] = m
	r.mu.Unlock()

	return configure(m)
}

// EnsureMappedEntity is a convenience wrapper around EnsureMapped that
// reads table metadata off a Mapped value.
func EnsureMappedEntity(r *Registry, e Mapped) error {
	return r.EnsureMapped(e.ToqlTypeName(), e.ToqlTableName(), e.ToqlTableAlias(), e.ToqlMap)
}

// EnsureTreeMapped is the registry entry point used by the cascade
// planner and builder before compiling a query or plan against a type:
// it defers entirely to the type's own ToqlTreeMap, which in turn calls
// EnsureMappedEntity for itself and recurses into its joined/merged
// neighbors.
func EnsureTreeMapped(r *Registry, e TreeMapped) error {
	return e.ToqlTreeMap(r)
}
