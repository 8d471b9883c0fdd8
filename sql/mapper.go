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

// JoinKind distinguishes an always-emitted join from one that only
// appears in the join chain when its path is selected.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeft
)

// FieldHandler lets a mapped field customize how its expression is
// rendered into the SELECT list, the polymorphic "build_select"
// capability from the design notes. It is a tagged function pointer,
// not a language-level interface hierarchy, so a TableMapper stays a
// plain, copyable value when a caller wants that.
type FieldHandler interface {
	BuildSelect(expr *SqlExpr, auxParams map[string]SqlArg) (*SqlExpr, error)
}

// FieldHandlerFunc adapts a function to a FieldHandler.
type FieldHandlerFunc func(expr *SqlExpr, auxParams map[string]SqlArg) (*SqlExpr, error)

func (f FieldHandlerFunc) BuildSelect(expr *SqlExpr, auxParams map[string]SqlArg) (*SqlExpr, error) {
	return f(expr, auxParams)
}

// JoinHandler customizes a join's on-predicate rendering, the
// "build_on_predicate" capability.
type JoinHandler interface {
	BuildOnPredicate(expr *SqlExpr, auxParams map[string]SqlArg) (*SqlExpr, error)
}

// JoinHandlerFunc adapts a function to a JoinHandler.
type JoinHandlerFunc func(expr *SqlExpr, auxParams map[string]SqlArg) (*SqlExpr, error)

func (f JoinHandlerFunc) BuildOnPredicate(expr *SqlExpr, auxParams map[string]SqlArg) (*SqlExpr, error) {
	return f(expr, auxParams)
}

// PredicateHandler customizes a named predicate's expansion.
type PredicateHandler interface {
	BuildPredicate(expr *SqlExpr, args []SqlArg, auxParams map[string]SqlArg) (*SqlExpr, error)
}

// FieldOptions configures how a mapped field participates in wildcard
// expansion, preselection and role gating.
type FieldOptions struct {
	// Preselect marks a field that is always emitted even when not
	// explicitly named by the query (still subject to role checks).
	Preselect bool
	// SkipWildcard excludes the field from "*" wildcard expansion.
	SkipWildcard bool
	// Roles, if non-nil, must evaluate true for the caller's roles for
	// the field to be selectable; a failing check is recovered silently
	// during wildcard expansion and fatal on an explicit reference.
	Roles RoleExpr
	// Handler customizes SELECT rendering; nil uses Expression as-is.
	Handler FieldHandler
}

// FieldMapping is one entry of a TableMapper's field map.
type FieldMapping struct {
	Expression *SqlExpr
	Options    FieldOptions
}

// JoinOptions configures a mapped join.
type JoinOptions struct {
	Preselect    bool
	PartialTable bool
	SkipWildcard bool
	AuxParams    map[string]SqlArg
	Roles        RoleExpr
	// Key marks the join as carrying the parent's identity (a partial
	// table's shared key join), relevant to cascade planning.
	Key bool
	// Discriminator, for a left join, is AND-ed into the ON clause so
	// the deserializer can tell "selected but the extension is null"
	// from "not selected at all".
	Discriminator *SqlExpr
	Handler       JoinHandler
}

// JoinMapping is one entry of a TableMapper's join map.
type JoinMapping struct {
	JoinedMapperName string
	Kind             JoinKind
	TableExpr        *SqlExpr
	OnExpr           *SqlExpr
	Options          JoinOptions
}

// MergeOptions configures a mapped merge (one-to-many child relation).
type MergeOptions struct {
	Roles RoleExpr
	// ParentFkColumns names the child-table columns carrying the parent
	// key, in the parent key's column order. The update cascade scopes
	// its merge delete by them; a merge without them cannot be updated
	// through the cascade (loading still works, the load path uses
	// JoinExpr instead).
	ParentFkColumns []string
}

// MergeMapping is one entry of a TableMapper's merge map. JoinExpr
// renders the parent-key predicate appended to the child query's WHERE
// clause; PredicateExpr is the row-level key-equality test TreeMerge
// uses when indexing loaded child rows back onto their parent.
type MergeMapping struct {
	MergedMapperName string
	JoinExpr         *SqlExpr
	PredicateExpr    *SqlExpr
	Options          MergeOptions
}

// PredicateOptions configures a named predicate invocation.
type PredicateOptions struct {
	// OnAuxParams names aux params this predicate's args are bound to
	// (a predicate invocation may set them as a side effect).
	OnAuxParams []string
	// CountFilter routes the predicate's contribution to HAVING instead
	// of WHERE, matching a query field's aggregate flag.
	CountFilter bool
}

// PredicateMapping is one entry of a TableMapper's predicate map.
type PredicateMapping struct {
	Expression *SqlExpr
	Handler    PredicateHandler
	Options    PredicateOptions
}

// DeserializeKind tags one entry of a TableMapper's deserialize_order,
// the authoritative column-emission order FromRow walks.
type DeserializeKind uint8

const (
	DeserializeField DeserializeKind = iota
	DeserializeJoin
	DeserializeMerge
)

// DeserializeEntry names one step of deserialize_order.
type DeserializeEntry struct {
	Kind DeserializeKind
	Name string
}

// Reserved selection names a mapper may define under Selections.
const (
	SelectionMut = "mut" // all updatable fields
	SelectionCnt = "cnt" // count query fields
	SelectionStd = "std"
	SelectionAll = "all"
)

// TableMapper holds the column/expression/join/merge metadata for one
// entity type. Field and predicate handlers are kept as tagged function
// values (FieldHandler/JoinHandler/PredicateHandler) rather than as a
// virtual-dispatch class hierarchy, so a TableMapper remains a plain,
// copyable value when a caller wants that.
type TableMapper struct {
	TableName           string
	CanonicalTableAlias string

	Fields     map[string]*FieldMapping
	fieldOrder []string

	Joins     map[string]*JoinMapping
	joinOrder []string

	Merges     map[string]*MergeMapping
	mergeOrder []string

	Predicates map[string]*PredicateMapping

	Selections map[string][]string

	DeserializeOrder []DeserializeEntry

	LoadRoleExpr   RoleExpr
	DeleteRoleExpr RoleExpr
}

// NewTableMapper returns an empty mapper for one physical table.
func NewTableMapper(tableName, canonicalTableAlias string) *TableMapper {
	return &TableMapper{
		TableName:           tableName,
		CanonicalTableAlias: canonicalTableAlias,
		Fields:              make(map[string]*FieldMapping),
		Joins:               make(map[string]*JoinMapping),
		Merges:              make(map[string]*MergeMapping),
		Predicates:          make(map[string]*PredicateMapping),
		Selections:          make(map[string][]string),
	}
}

// MapField registers a column/expression under toqlName.
func (m *TableMapper) MapField(toqlName string, expr *SqlExpr, opts FieldOptions) *TableMapper {
	if _, exists := m.Fields[toqlName]; !exists {
		m.fieldOrder = append(m.fieldOrder, toqlName)
		m.DeserializeOrder = append(m.DeserializeOrder, DeserializeEntry{DeserializeField, toqlName})
	}
	m.Fields[toqlName] = &FieldMapping{Expression: expr, Options: opts}
	return m
}

// MapJoin registers a join at path segment name, pointing at
// joinedMapperName in the registry.
func (m *TableMapper) MapJoin(name, joinedMapperName string, kind JoinKind, tableExpr, onExpr *SqlExpr, opts JoinOptions) *TableMapper {
	if _, exists := m.Joins[name]; !exists {
		m.joinOrder = append(m.joinOrder, name)
		m.DeserializeOrder = append(m.DeserializeOrder, DeserializeEntry{DeserializeJoin, name})
	}
	m.Joins[name] = &JoinMapping{
		JoinedMapperName: joinedMapperName,
		Kind:             kind,
		TableExpr:        tableExpr,
		OnExpr:           onExpr,
		Options:          opts,
	}
	return m
}

// MapMerge registers a one-to-many merge at path segment name, pointing
// at mergedMapperName in the registry.
func (m *TableMapper) MapMerge(name, mergedMapperName string, joinExpr, predicateExpr *SqlExpr, opts MergeOptions) *TableMapper {
	if _, exists := m.Merges[name]; !exists {
		m.mergeOrder = append(m.mergeOrder, name)
		m.DeserializeOrder = append(m.DeserializeOrder, DeserializeEntry{DeserializeMerge, name})
	}
	m.Merges[name] = &MergeMapping{
		MergedMapperName: mergedMapperName,
		JoinExpr:         joinExpr,
		PredicateExpr:    predicateExpr,
		Options:          opts,
	}
	return m
}

// MapPredicate registers a named predicate invocation.
func (m *TableMapper) MapPredicate(name string, expr *SqlExpr, opts PredicateOptions) *TableMapper {
	m.Predicates[name] = &PredicateMapping{Expression: expr, Options: opts}
	return m
}

// MapSelection registers a named static field list, e.g. "$std".
func (m *TableMapper) MapSelection(name string, fieldsOrWildcards []string) *TableMapper {
	m.Selections[name] = fieldsOrWildcards
	return m
}

// SetLoadRoleExpr sets the boolean role expression gating load/select.
func (m *TableMapper) SetLoadRoleExpr(expr RoleExpr) *TableMapper {
	m.LoadRoleExpr = expr
	return m
}

// SetDeleteRoleExpr sets the boolean role expression gating delete.
func (m *TableMapper) SetDeleteRoleExpr(expr RoleExpr) *TableMapper {
	m.DeleteRoleExpr = expr
	return m
}

// FieldOrder returns field names in declaration order.
func (m *TableMapper) FieldOrder() []string { return append([]string(nil), m.fieldOrder...) }

// JoinOrder returns join segment names in declaration order.
func (m *TableMapper) JoinOrder() []string { return append([]string(nil), m.joinOrder...) }

// MergeOrder returns merge segment names in declaration order.
func (m *TableMapper) MergeOrder() []string { return append([]string(nil), m.mergeOrder...) }

// IsPartialJoin reports whether the join at name is declared
// partial_table (a vertical split sharing the parent's key, inserted
// like a join but value-propagated like a merge).
func (m *TableMapper) IsPartialJoin(name string) bool {
	j, ok := m.Joins[name]
	if !ok {
		return false
	}
	return j.Options.PartialTable
}

// Field, Join, Merge and Predicate look up one mapping by name,
// returning ErrFieldMissing/ErrJoinMissing when absent.
func (m *TableMapper) Field(name string) (*FieldMapping, error) {
	f, ok := m.Fields[name]
	if !ok {
		return nil, ErrFieldMissing.New(name)
	}
	return f, nil
}

func (m *TableMapper) Join(name string) (*JoinMapping, error) {
	j, ok := m.Joins[name]
	if !ok {
		return nil, ErrJoinMissing.New(name)
	}
	return j, nil
}

func (m *TableMapper) Merge(name string) (*MergeMapping, error) {
	mg, ok := m.Merges[name]
	if !ok {
		return nil, ErrFieldMissing.New(name)
	}
	return mg, nil
}

func (m *TableMapper) Predicate(name string) (*PredicateMapping, error) {
	p, ok := m.Predicates[name]
	if !ok {
		return nil, ErrFieldMissing.New("@" + name)
	}
	return p, nil
}
