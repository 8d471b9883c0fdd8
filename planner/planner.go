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

// Package planner implements the cascade planner (C9): load with
// merge follow-up, insert/update/delete ordering across an entity's
// join/partial/merge tree, dispatched entirely through the Tree*
// capability set a mapped entity type implements.
//
// Convention: the SqlExpr values TreeInsert/TreeUpdate implementations
// return are self-contained ("UPDATE Level1 SET ..." with literal
// table/column text and bound Arg tokens only, no SelfAlias/OtherAlias
// placeholders). Mutation statements target one table by primary key
// and never need the join-alias scheme BuildSelect/BuildCount/BuildDelete
// use for filtering; resolving them needs no AliasTranslator.
package planner

import (
	"github.com/sirupsen/logrus"

	"github.com/roy-ganz/toql-sub002/backend"
	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

// Entity is the minimum capability set LoadMany needs from a mapped
// root type: it can be reconstructed from a row and its own key
// extracted for dedup and for indexing merge children.
type Entity interface {
	toqlsql.FromRow
	toqlsql.Keyed
}

// MergeEntity additionally reconstructs merge children, the capability
// LoadMany's merge follow-up pass needs.
type MergeEntity interface {
	Entity
	toqlsql.TreeMerge
}

// Mutable is the capability set the insert/update cascades need.
type Mutable interface {
	toqlsql.Keyed
	toqlsql.TreeInsert
	toqlsql.TreeIdentity
}

// Updatable is the capability set the update cascade needs.
type Updatable interface {
	toqlsql.Keyed
	toqlsql.TreeUpdate
}

// Listener receives diagnostic callbacks around each cascade step,
// mirroring the teacher's auth audit hook shape (an interface a caller
// can implement with a logrus-backed adapter, or leave nil).
type Listener interface {
	StepStarted(step string, sqlText string)
	StepFinished(step string, err error)
}

// logListener is the default Listener, logging through logrus the way
// the teacher's auth package logs authentication attempts.
type logListener struct {
	log *logrus.Entry
}

// NewLogListener returns a Listener that logs each cascade step via log
// (or logrus.StandardLogger() if nil).
func NewLogListener(log *logrus.Entry) Listener {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &logListener{log: log}
}

func (l *logListener) StepStarted(step, sqlText string) {
	l.log.WithField("step", step).WithField("sql", sqlText).Debug("toql: cascade step started")
}

func (l *logListener) StepFinished(step string, err error) {
	if err != nil {
		l.log.WithField("step", step).WithError(err).Error("toql: cascade step failed")
		return
	}
	l.log.WithField("step", step).Debug("toql: cascade step finished")
}

// Planner sequences SQL emission for one backend. It holds no
// per-request state: every method takes a context and returns once the
// cascade (or its single query) completes.
type Planner struct {
	Backend  backend.Backend
	Listener Listener
}

// New returns a Planner over b, logging through a default Listener.
func New(b backend.Backend) *Planner {
	return &Planner{Backend: b, Listener: NewLogListener(nil)}
}

func (p *Planner) notify(step, sqlText string) func(error) {
	p.Listener.StepStarted(step, sqlText)
	return func(err error) { p.Listener.StepFinished(step, err) }
}
