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

import "fmt"

// ArgKind tags the scalar a SqlArg carries.
type ArgKind uint8

const (
	ArgNull ArgKind = iota
	ArgBool
	ArgI64
	ArgU64
	ArgF64
	ArgStr
	ArgBytes
)

// SqlArg is a tagged scalar bound to a placeholder in a built SQL
// statement, or carried as a tree field's value during a cascade.
type SqlArg struct {
	kind  ArgKind
	bVal  bool
	iVal  int64
	uVal  uint64
	fVal  float64
	sVal  string
	byVal []byte
}

func ArgFromBool(v bool) SqlArg   { return SqlArg{kind: ArgBool, bVal: v} }
func ArgFromI64(v int64) SqlArg   { return SqlArg{kind: ArgI64, iVal: v} }
func ArgFromU64(v uint64) SqlArg  { return SqlArg{kind: ArgU64, uVal: v} }
func ArgFromF64(v float64) SqlArg { return SqlArg{kind: ArgF64, fVal: v} }
func ArgFromStr(v string) SqlArg  { return SqlArg{kind: ArgStr, sVal: v} }
func ArgFromBytes(v []byte) SqlArg {
	return SqlArg{kind: ArgBytes, byVal: v}
}

// ArgNullValue is the canonical Null-kind SqlArg.
var ArgNullValue = SqlArg{kind: ArgNull}

// Kind returns the scalar's tag.
func (a SqlArg) Kind() ArgKind { return a.kind }

// IsNull reports whether the argument carries the Null tag.
func (a SqlArg) IsNull() bool { return a.kind == ArgNull }

// IsZeroInt reports whether the argument is an integer-typed scalar
// holding the zero value, the sentinel this package uses to mark an
// unassigned auto-generated key (see ValidKey).
func (a SqlArg) IsZeroInt() bool {
	switch a.kind {
	case ArgI64:
		return a.iVal == 0
	case ArgU64:
		return a.uVal == 0
	default:
		return false
	}
}

// Bool, I64, U64, F64, Str and Bytes extract the scalar's value; each
// panics if called against the wrong Kind, matching the tagged-union
// contract in the spec (callers switch on Kind first).
func (a SqlArg) Bool() bool    { a.mustBe(ArgBool); return a.bVal }
func (a SqlArg) I64() int64    { a.mustBe(ArgI64); return a.iVal }
func (a SqlArg) U64() uint64   { a.mustBe(ArgU64); return a.uVal }
func (a SqlArg) F64() float64  { a.mustBe(ArgF64); return a.fVal }
func (a SqlArg) Str() string   { a.mustBe(ArgStr); return a.sVal }
func (a SqlArg) Bytes() []byte { a.mustBe(ArgBytes); return a.byVal }

func (a SqlArg) mustBe(k ArgKind) {
	if a.kind != k {
		panic(fmt.Sprintf("toql: SqlArg kind mismatch: want %d got %d", k, a.kind))
	}
}

// Value returns the scalar boxed as an interface{}, the form a database
// driver binding (database/sql, pgx) expects.
func (a SqlArg) Value() interface{} {
	switch a.kind {
	case ArgNull:
		return nil
	case ArgBool:
		return a.bVal
	case ArgI64:
		return a.iVal
	case ArgU64:
		return a.uVal
	case ArgF64:
		return a.fVal
	case ArgStr:
		return a.sVal
	case ArgBytes:
		return a.byVal
	default:
		return nil
	}
}

func (a SqlArg) String() string {
	return fmt.Sprintf("%v", a.Value())
}

// ValidKey reports whether a key argument vector is usable: it must
// contain no Null and no zero-sentinel integer. A zero int/uint key
// column is this package's chosen sentinel for "not yet assigned an
// auto-generated identity" (§3 SqlArg), so a key vector containing one
// is not a valid, addressable row key.
func ValidKey(args []SqlArg) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		if a.IsNull() || a.IsZeroInt() {
			return false
		}
	}
	return true
}
