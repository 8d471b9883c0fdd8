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

// toql compiles a Toql query string into SQL against the chain demo
// schema and prints the result. With -dsn it instead runs the query
// through a live backend and pretty-prints the loaded rows.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"

	"github.com/roy-ganz/toql-sub002/backend/mysqlbackend"
	"github.com/roy-ganz/toql-sub002/backend/postgres"
	"github.com/roy-ganz/toql-sub002/examples/chain"
	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/sql/parse"
	"github.com/roy-ganz/toql-sub002/sql/sqlbuilder"
)

var version string

type options struct {
	Mode        string `short:"m" long:"mode" description:"select, count or delete" default:"select"`
	Driver      string `long:"driver" description:"mysql or postgres; omitted prints SQL without connecting" value-name:"driver"`
	DSN         string `long:"dsn" description:"backend data source name" value-name:"dsn"`
	AliasFormat string `long:"alias-format" description:"canonical, medium or short" default:"canonical"`
	Help        bool   `long:"help" description:"show this help"`
	Version     bool   `long:"version" description:"show this version"`

	Args struct {
		Query string `positional-arg-name:"query" description:"Toql query string"`
	} `positional-args:"yes" required:"yes"`
}

func parseAliasFormat(s string) (toqlsql.AliasFormat, error) {
	switch s {
	case "canonical":
		return toqlsql.AliasFormatCanonical, nil
	case "medium":
		return toqlsql.AliasFormatMedium, nil
	case "short":
		return toqlsql.AliasFormatShort, nil
	default:
		return 0, fmt.Errorf("unknown alias format %q", s)
	}
}

func parseOptions(args []string) options {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] query"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return opts
}

func main() {
	opts := parseOptions(os.Args[1:])

	reg, err := chain.NewRegistry()
	if err != nil {
		log.Fatalf("toql: registry: %v", err)
	}
	aliasFormat, err := parseAliasFormat(opts.AliasFormat)
	if err != nil {
		log.Fatal(err)
	}

	q, err := parse.Parse(opts.Args.Query)
	if err != nil {
		log.Fatalf("toql: parse: %v", err)
	}

	buildOpts := sqlbuilder.Options{AliasFormat: aliasFormat}

	var result *sqlbuilder.Result
	switch opts.Mode {
	case "select":
		result, err = sqlbuilder.BuildSelect(reg, "Level1", q, buildOpts)
	case "count":
		result, err = sqlbuilder.BuildCount(reg, "Level1", q, buildOpts)
	case "delete":
		result, err = sqlbuilder.BuildDelete(reg, "Level1", q, buildOpts)
	default:
		log.Fatalf("toql: unknown mode %q", opts.Mode)
	}
	if err != nil {
		log.Fatalf("toql: build: %v", err)
	}

	if opts.Driver == "" {
		fmt.Println(result.Sql)
		pp.Println(result.Args)
		return
	}

	backend, err := connectBackend(opts.Driver, opts.DSN, reg)
	if err != nil {
		log.Fatalf("toql: connect: %v", err)
	}

	ctx := context.Background()
	switch opts.Mode {
	case "select":
		rows, err := backend.QuerySql(ctx, result.Sql, result.Args)
		if err != nil {
			log.Fatalf("toql: query: %v", err)
		}
		pp.Println(rows)
	case "count":
		rows, err := backend.QuerySql(ctx, result.Sql, result.Args)
		if err != nil {
			log.Fatalf("toql: query: %v", err)
		}
		pp.Println(rows)
	case "delete":
		if result.Refused {
			fmt.Println("toql: delete refused (no filter)")
			return
		}
		if err := backend.ExecuteSql(ctx, result.Sql, result.Args); err != nil {
			log.Fatalf("toql: execute: %v", err)
		}
		fmt.Println("ok")
	}
}

func connectBackend(driver, dsn string, reg *toqlsql.Registry) (interface {
	QuerySql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([][]toqlsql.SqlArg, error)
	ExecuteSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) error
}, error) {
	switch driver {
	case "mysql":
		return mysqlbackend.Connect(mysqlbackend.Config{DSN: dsn, Registry: reg})
	case "postgres":
		return postgres.Connect(context.Background(), postgres.Config{DSN: dsn, Registry: reg})
	default:
		return nil, fmt.Errorf("unknown driver %q (want mysql or postgres)", driver)
	}
}
