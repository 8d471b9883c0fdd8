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

package parse

import (
	"fmt"
	"strconv"
	"strings"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

var filterOpNames = map[FilterOp]string{
	FilterEq:  "eq",
	FilterNe:  "ne",
	FilterGt:  "gt",
	FilterGe:  "ge",
	FilterLt:  "lt",
	FilterLe:  "le",
	FilterBw:  "bw",
	FilterLk:  "lk",
	FilterRe:  "re",
	FilterIn:  "in",
	FilterOut: "out",
	FilterFn:  "fn",
	FilterEqn: "eqn",
	FilterNen: "nen",
}

// String renders the query back to Toql text. Parsing the result yields
// a token stream equal to q's (normalized whitespace and argument
// quoting aside).
func (q *Query) String() string {
	var sb strings.Builder
	needSep := false

	sep := func(c Concatenation) {
		if !needSep {
			return
		}
		if c == Or {
			sb.WriteString("; ")
		} else {
			sb.WriteString(", ")
		}
	}

	for _, t := range q.Tokens {
		switch t.Kind {
		case TokLeftBracket:
			sep(t.Concat)
			sb.WriteString("(")
			needSep = false
		case TokRightBracket:
			sb.WriteString(")")
			needSep = true
		case TokField:
			sep(t.Concat)
			printField(&sb, t.Field)
			needSep = true
		case TokWildcard:
			sep(t.Concat)
			printWildcard(&sb, t.Wildcard)
			needSep = true
		case TokPredicate:
			sep(t.Concat)
			sb.WriteString("@")
			sb.WriteString(t.Predicate.Name)
			if len(t.Predicate.Args) > 0 {
				sb.WriteString("(")
				printArgs(&sb, t.Predicate.Args)
				sb.WriteString(")")
			}
			needSep = true
		case TokSelection:
			sep(t.Concat)
			sb.WriteString("$")
			sb.WriteString(t.Selection.Name)
			needSep = true
		}
	}
	return sb.String()
}

func printField(sb *strings.Builder, f *FieldToken) {
	if f.Order != nil {
		if f.Order.Dir == Desc {
			sb.WriteString("-")
		} else {
			sb.WriteString("+")
		}
		sb.WriteString(strconv.Itoa(int(f.Order.Priority)))
	}
	if f.Hidden {
		sb.WriteString(".")
	}
	sb.WriteString(f.Name)
	if f.Filter != nil {
		sb.WriteString(" ")
		if f.Filter.Aggregate {
			sb.WriteString("!")
		}
		sb.WriteString(filterOpNames[f.Filter.Op])
		switch f.Filter.Op {
		case FilterEqn, FilterNen:
		case FilterFn:
			sb.WriteString(" ")
			sb.WriteString(f.Filter.FnName)
			if len(f.Filter.Args) > 0 {
				sb.WriteString("(")
				printArgs(sb, f.Filter.Args)
				sb.WriteString(")")
			}
		case FilterBw, FilterIn, FilterOut:
			sb.WriteString(" (")
			printArgs(sb, f.Filter.Args)
			sb.WriteString(")")
		default:
			sb.WriteString(" ")
			printArgs(sb, f.Filter.Args)
		}
	}
}

func printWildcard(sb *strings.Builder, w *WildcardToken) {
	prefix := strings.TrimSuffix(w.PathPrefix, "_")
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString("_")
	}
	sb.WriteString("*")
}

func printArgs(sb *strings.Builder, args []toqlsql.SqlArg) {
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		printArg(sb, a)
	}
}

func printArg(sb *strings.Builder, a toqlsql.SqlArg) {
	switch a.Kind() {
	case toqlsql.ArgNull:
		sb.WriteString("null")
	case toqlsql.ArgBool:
		if a.Bool() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case toqlsql.ArgStr:
		sb.WriteString("'")
		sb.WriteString(strings.ReplaceAll(a.Str(), "'", "''"))
		sb.WriteString("'")
	default:
		sb.WriteString(fmt.Sprintf("%v", a.Value()))
	}
}
