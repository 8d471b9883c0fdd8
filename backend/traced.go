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

package backend

import (
	"context"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Traced wraps a Backend with an opentracing span and a logrus entry
// per call, each tagged with a fresh correlation id so a slow or failed
// statement can be found in logs and traces by the same key. It adds no
// behavior of its own: Inner does the real work.
type Traced struct {
	Inner  Backend
	Log    *logrus.Entry
	Tracer opentracing.Tracer
}

// NewTraced wraps inner, logging through log (or logrus.StandardLogger
// if nil) and tracing through tracer (or opentracing.GlobalTracer() if
// nil).
func NewTraced(inner Backend, log *logrus.Entry, tracer opentracing.Tracer) *Traced {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if tracer == nil {
		tracer = opentracing.GlobalTracer()
	}
	return &Traced{Inner: inner, Log: log, Tracer: tracer}
}

func (t *Traced) Registry() *toqlsql.Registry          { return t.Inner.Registry() }
func (t *Traced) RegistryMut() *toqlsql.Registry       { return t.Inner.RegistryMut() }
func (t *Traced) Roles() []string                      { return t.Inner.Roles() }
func (t *Traced) AuxParams() map[string]toqlsql.SqlArg { return t.Inner.AuxParams() }
func (t *Traced) AliasFormat() toqlsql.AliasFormat     { return t.Inner.AliasFormat() }

func (t *Traced) span(ctx context.Context, op string) (opentracing.Span, context.Context, *logrus.Entry, func()) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, t.Tracer, "toql."+op)
	id := uuid.New().String()
	span.SetTag("toql.call_id", id)
	log := t.Log.WithField("toql.op", op).WithField("toql.call_id", id)
	return span, ctx, log, func() { span.Finish() }
}

func (t *Traced) QuerySql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([][]toqlsql.SqlArg, error) {
	span, ctx, log, done := t.span(ctx, "query_sql")
	defer done()
	log.WithField("sql", sqlText).Debug("toql: executing query")
	rows, err := t.Inner.QuerySql(ctx, sqlText, args)
	if err != nil {
		opentracing.Tag{Key: "error", Value: true}.Set(span)
		log.WithError(err).Error("toql: query failed")
		return nil, err
	}
	log.WithField("rows", len(rows)).Debug("toql: query returned")
	return rows, nil
}

func (t *Traced) ExecuteSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) error {
	span, ctx, log, done := t.span(ctx, "execute_sql")
	defer done()
	log.WithField("sql", sqlText).Debug("toql: executing statement")
	if err := t.Inner.ExecuteSql(ctx, sqlText, args); err != nil {
		opentracing.Tag{Key: "error", Value: true}.Set(span)
		log.WithError(err).Error("toql: execute failed")
		return err
	}
	return nil
}

func (t *Traced) InsertSql(ctx context.Context, sqlText string, args []toqlsql.SqlArg) ([]toqlsql.SqlArg, error) {
	span, ctx, log, done := t.span(ctx, "insert_sql")
	defer done()
	log.WithField("sql", sqlText).Debug("toql: executing insert")
	keys, err := t.Inner.InsertSql(ctx, sqlText, args)
	if err != nil {
		opentracing.Tag{Key: "error", Value: true}.Set(span)
		log.WithError(err).Error("toql: insert failed")
		return nil, err
	}
	log.WithField("generated_keys", len(keys)).Debug("toql: insert returned generated keys")
	return keys, nil
}
