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

import "gopkg.in/src-d/go-errors.v1"

// Error kinds surfaced by the registry, builder, deserializer and
// cascade planner. Each is a go-errors.v1 kind so callers can match on
// it with errors.As/Is-style Kind() comparisons, the same idiom the
// teacher uses for its auth package's ErrNotAuthorized/ErrNoPermission.
var (
	// ErrMapperMissing is returned when the registry has no mapper for a
	// requested type.
	ErrMapperMissing = errors.NewKind("mapper missing for type %s")

	// ErrFieldMissing is returned when a query references a field, join
	// or merge the mapper does not declare.
	ErrFieldMissing = errors.NewKind("field missing: %s")

	// ErrJoinMissing is returned when a dotted path fails to resolve at
	// a join segment.
	ErrJoinMissing = errors.NewKind("join missing: %s")

	// ErrRoleMissing is returned when a caller's roles fail a mapper's
	// load/delete role expression.
	ErrRoleMissing = errors.NewKind("role requirement not met: %s")

	// ErrAuxParamMissing is returned when an expression references an
	// aux parameter the resolver's parameter map does not contain.
	ErrAuxParamMissing = errors.NewKind("aux param missing: %s")

	// ErrValueMissing is returned when a required, non-nullable field
	// was absent during deserialization or key extraction.
	ErrValueMissing = errors.NewKind("value missing for field: %s")

	// ErrDeserializeStreamEnd is returned when FromRow exhausts the
	// selection stream before the mapper's deserialize plan does.
	ErrDeserializeStreamEnd = errors.NewKind("selection stream ended prematurely")

	// ErrDeserializeSelectionExpected is returned when the deserializer
	// walks into a field the selection stream claims was never emitted.
	ErrDeserializeSelectionExpected = errors.NewKind("selection expected for field: %s")

	// ErrDeserializeConversion is returned when a row column's scalar
	// cannot be converted to the field's Go type.
	ErrDeserializeConversion = errors.NewKind("conversion error for field %s: %s")

	// ErrNotUnique is returned by load_one when more than one row
	// matches the query.
	ErrNotUnique = errors.NewKind("query is not unique, more than one row returned")

	// ErrNotFound is returned by load_one when no row matches the query.
	ErrNotFound = errors.NewKind("no row found for query")

	// ErrBackendError wraps a driver-level failure.
	ErrBackendError = errors.NewKind("backend error: %s")
)
