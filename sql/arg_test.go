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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgValue(t *testing.T) {
	testCases := []struct {
		name string
		arg  SqlArg
		want interface{}
	}{
		{"null", ArgNullValue, nil},
		{"bool", ArgFromBool(true), true},
		{"i64", ArgFromI64(-7), int64(-7)},
		{"u64", ArgFromU64(7), uint64(7)},
		{"f64", ArgFromF64(1.5), 1.5},
		{"str", ArgFromStr("x"), "x"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.arg.Value())
		})
	}
}

func TestValidKey(t *testing.T) {
	testCases := []struct {
		name string
		key  []SqlArg
		want bool
	}{
		{"empty", nil, false},
		{"single valid", []SqlArg{ArgFromI64(1)}, true},
		{"zero int sentinel", []SqlArg{ArgFromI64(0)}, false},
		{"zero uint sentinel", []SqlArg{ArgFromU64(0)}, false},
		{"null member", []SqlArg{ArgFromI64(1), ArgNullValue}, false},
		{"composite valid", []SqlArg{ArgFromI64(1), ArgFromStr("a")}, true},
		{"string keys never zero-sentinel", []SqlArg{ArgFromStr("")}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ValidKey(tc.key))
		})
	}
}

func TestHashKeyEqualForEqualTuples(t *testing.T) {
	a, err := HashKey([]SqlArg{ArgFromI64(1), ArgFromStr("x")})
	require.NoError(t, err)
	b, err := HashKey([]SqlArg{ArgFromI64(1), ArgFromStr("x")})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := HashKey([]SqlArg{ArgFromI64(2), ArgFromStr("x")})
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestRoleExpr(t *testing.T) {
	expr := RoleOr(Role("admin"), RoleAnd(Role("teacher"), RoleNot(Role("banned"))))

	require.True(t, expr.Eval(RoleSet([]string{"admin"})))
	require.True(t, expr.Eval(RoleSet([]string{"teacher"})))
	require.False(t, expr.Eval(RoleSet([]string{"teacher", "banned"})))
	require.False(t, expr.Eval(RoleSet(nil)))
}

func TestRoleCheckNilAlwaysPasses(t *testing.T) {
	require.True(t, RoleCheck(nil, nil))
	require.False(t, RoleCheck(Role("admin"), nil))
	require.True(t, RoleCheck(Role("admin"), []string{"admin"}))
}
