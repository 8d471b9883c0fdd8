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

// IdentityActionKind tags how TreeIdentity.ToqlSetID should treat an
// entity's current key when propagating generated or parent keys.
type IdentityActionKind uint8

const (
	// IdentitySet applies new key args unconditionally.
	IdentitySet IdentityActionKind = iota
	// IdentitySetInvalid applies new key args only if the entity's
	// current key is not already valid (see ValidKey): a manually
	// assigned key is never overwritten.
	IdentitySetInvalid
	// IdentityRefreshValid propagates the parent's key into this
	// entity's foreign key columns unconditionally.
	IdentityRefreshValid
	// IdentityRefreshInvalid propagates the parent's key into this
	// entity's foreign key columns only if they are not already valid,
	// so a merge child that was given an explicit foreign key keeps it.
	IdentityRefreshInvalid
)

// IdentityAction is the instruction TreeIdentity.ToqlSetID carries out.
// Args is the new key (Set/SetInvalid) or nil (the Refresh* kinds pull
// the parent's current key themselves).
type IdentityAction struct {
	Kind IdentityActionKind
	Args []SqlArg
}

// Set returns an action that writes args unconditionally.
func Set(args []SqlArg) IdentityAction {
	return IdentityAction{Kind: IdentitySet, Args: args}
}

// SetInvalidAction returns an action that writes args only if the
// entity's current key is not already valid.
func SetInvalidAction(args []SqlArg) IdentityAction {
	return IdentityAction{Kind: IdentitySetInvalid, Args: args}
}

// RefreshValid returns an action that unconditionally re-derives a
// foreign key from the parent's current key.
func RefreshValid() IdentityAction {
	return IdentityAction{Kind: IdentityRefreshValid}
}

// RefreshInvalid returns an action that re-derives a foreign key from
// the parent's current key only if it is not already valid.
func RefreshInvalid() IdentityAction {
	return IdentityAction{Kind: IdentityRefreshInvalid}
}

// TreeInsert is implemented by generated code for one entity type. Each
// method dispatches on descendents.Next(): an empty path addresses this
// entity's own table level, and a recognized segment recurses into a
// join/merge/partial at that level. An unrecognized segment returns
// ErrFieldMissing.
type TreeInsert interface {
	// ToqlInsertColumns emits "col1, col2, ..." for the subtree level
	// descendents addresses (the planner wraps the parens).
	ToqlInsertColumns(descendents *DescendentIter) (*SqlExpr, error)
	// ToqlInsertValues appends "(v1, v2, ...), " to out for every row at
	// the addressed level whose shouldInsert() call returns true (one
	// call consumed per candidate row, in row order), honoring roles for
	// any role-gated column. Returns the number of rows emitted; the
	// caller trims the trailing ", " once all entities have emitted.
	ToqlInsertValues(descendents *DescendentIter, roles []string, shouldInsert func() bool, out *SqlExpr) (int, error)
}

// TreeUpdate is implemented by generated code for one entity type.
type TreeUpdate interface {
	// ToqlUpdate appends one "UPDATE table SET ... WHERE pk=..."
	// expression for the level descendents addresses to out, restricted
	// to the touched field names in fields ("*" means every updatable
	// field), skipping the level if its key is not valid.
	ToqlUpdate(descendents *DescendentIter, fields map[string]bool, roles []string, out *[]*SqlExpr) error
}

// TreeMerge is implemented by generated code for one entity type.
type TreeMerge interface {
	// ToqlMerge reconstructs this entity's child vector at field by
	// scanning rows indexed by parent-key hash (see TreeIndex), parsing
	// a parent key from each candidate row's key-column prefix,
	// matching it against this entity's own key, and deserializing
	// matches via FromRow.
	ToqlMerge(descendents *DescendentIter, field string, rows [][]SqlArg, rowOffset int, index map[uint64][]int, stream *SelectionStream) error
}

// TreeIdentity is implemented by generated code for one entity type.
//
// The Refresh* actions reconcile the addressed level's neighborhood:
// foreign-key columns at that level are re-derived from their joined
// entities' current keys, and, when the addressed segment is a merge,
// the parent's key is pushed into each child's parent-FK column (then
// each child refreshes its own joins). RefreshInvalid touches only
// columns whose current value is not a valid key; RefreshValid
// overwrites unconditionally.
type TreeIdentity interface {
	// ToqlAutoID reports whether the subtree level descendents
	// addresses has a database-generated identity.
	ToqlAutoID(descendents *DescendentIter) (bool, error)
	// ToqlSetID carries out action against the subtree level
	// descendents addresses.
	ToqlSetID(descendents *DescendentIter, action IdentityAction) error
}

// TreePredicate is implemented by generated code for one entity type.
type TreePredicate interface {
	// ToqlPredicateColumns returns the key columns at the subtree level
	// descendents addresses.
	ToqlPredicateColumns(descendents *DescendentIter) ([]string, error)
	// ToqlPredicateArgs appends the key parameter tuple at that level.
	ToqlPredicateArgs(descendents *DescendentIter, out *[]SqlArg) error
}

// TreeIndex is implemented by generated code for one entity type: it
// builds the parent-key hash index a merge load consumes.
type TreeIndex interface {
	// ToqlIndex returns, for the rows slice starting at rowOffset, a map
	// from a hash of each row's parent-key prefix to the row numbers
	// sharing that key.
	ToqlIndex(rows [][]SqlArg, rowOffset int, stream *SelectionStream) (map[uint64][]int, error)
}

// FromRow is implemented by generated code for one entity type: it
// reconstructs one tree level from a row, honoring the selection
// stream's Select flags.
type FromRow interface {
	ToqlFromRow(row *RowReader, cursor *SelectionCursor) error
}

// Keyed is implemented by generated code for one entity type: it
// extracts the entity's own key as a SqlArg tuple, usable with
// ValidKey.
type Keyed interface {
	ToqlKey() []SqlArg
}
