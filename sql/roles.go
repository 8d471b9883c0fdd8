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

import "strings"

// RoleExpr is a boolean expression over role names, attached to mappers
// (load/delete gating) and to individual fields, joins and merges. It is
// evaluated against the caller's role set at build time, never rendered
// into SQL: a failing check either errors (explicit reference) or drops
// the field from wildcard expansion (silent, see the builder).
type RoleExpr interface {
	Eval(roles map[string]bool) bool
	String() string
}

type roleName string

func (r roleName) Eval(roles map[string]bool) bool { return roles[string(r)] }
func (r roleName) String() string                  { return string(r) }

type roleAnd []RoleExpr

func (r roleAnd) Eval(roles map[string]bool) bool {
	for _, e := range r {
		if !e.Eval(roles) {
			return false
		}
	}
	return true
}

func (r roleAnd) String() string {
	parts := make([]string, len(r))
	for i, e := range r {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type roleOr []RoleExpr

func (r roleOr) Eval(roles map[string]bool) bool {
	for _, e := range r {
		if e.Eval(roles) {
			return true
		}
	}
	return false
}

func (r roleOr) String() string {
	parts := make([]string, len(r))
	for i, e := range r {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

type roleNot struct{ inner RoleExpr }

func (r roleNot) Eval(roles map[string]bool) bool { return !r.inner.Eval(roles) }
func (r roleNot) String() string                  { return "!" + r.inner.String() }

// Role requires one role by name.
func Role(name string) RoleExpr { return roleName(name) }

// RoleAnd requires every sub-expression.
func RoleAnd(exprs ...RoleExpr) RoleExpr { return roleAnd(exprs) }

// RoleOr requires at least one sub-expression.
func RoleOr(exprs ...RoleExpr) RoleExpr { return roleOr(exprs) }

// RoleNot inverts expr.
func RoleNot(expr RoleExpr) RoleExpr { return roleNot{inner: expr} }

// RoleSet turns a role list into the lookup set Eval expects.
func RoleSet(roles []string) map[string]bool {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

// RoleCheck evaluates expr against roles, treating a nil expr as always
// satisfied.
func RoleCheck(expr RoleExpr, roles []string) bool {
	if expr == nil {
		return true
	}
	return expr.Eval(RoleSet(roles))
}
