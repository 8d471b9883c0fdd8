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

package toqlapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roy-ganz/toql-sub002/backend"
	"github.com/roy-ganz/toql-sub002/examples/chain"
	"github.com/roy-ganz/toql-sub002/planner"
	toqlsql "github.com/roy-ganz/toql-sub002/sql"
	"github.com/roy-ganz/toql-sub002/toqlapi"
)

func newApi(t *testing.T) (*toqlapi.ToqlApi, *backend.Mock) {
	t.Helper()
	reg, err := chain.NewRegistry()
	require.NoError(t, err)
	mock := backend.NewMock(reg, backend.Config{})
	return toqlapi.New(mock), mock
}

func TestApiLoadMany(t *testing.T) {
	api, mock := newApi(t)
	mock.QueueRows([][]toqlsql.SqlArg{
		{toqlsql.ArgFromI64(1), toqlsql.ArgFromStr("level1"), toqlsql.ArgFromI64(2), toqlsql.ArgFromStr("level2")},
	})

	out, err := toqlapi.LoadMany(context.Background(), api, "Level1", "*",
		func() *chain.Level1 { return &chain.Level1{} }, chain.NotesMergeSpec())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "level1", out[0].Text)
}

func TestApiLoadOneNotFound(t *testing.T) {
	api, _ := newApi(t)
	_, err := toqlapi.LoadOne(context.Background(), api, "Level1", "id eq 1",
		func() *chain.Level1 { return &chain.Level1{} })
	require.True(t, toqlsql.ErrNotFound.Is(err))
}

func TestApiParseErrorSurfaces(t *testing.T) {
	api, _ := newApi(t)
	_, err := toqlapi.LoadMany(context.Background(), api, "Level1", "(broken",
		func() *chain.Level1 { return &chain.Level1{} })
	require.Error(t, err)
}

func TestApiCount(t *testing.T) {
	api, mock := newApi(t)
	mock.QueueRows([][]toqlsql.SqlArg{{toqlsql.ArgFromI64(3)}})

	n, err := toqlapi.Count(context.Background(), api, "Level1", "text eq 'x'")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestApiInsertAndUpdate(t *testing.T) {
	api, mock := newApi(t)
	mock.QueueInsertKeys([]toqlsql.SqlArg{toqlsql.ArgFromI64(1)})

	l1 := &chain.Level1{Text: "level1", Level2: &chain.Level2{ID: 2, Text: "level2"}}
	require.NoError(t, toqlapi.InsertOne(context.Background(), api, "Level1", l1))
	require.Equal(t, int64(1), l1.ID)

	l1.Text = "renamed"
	require.NoError(t, toqlapi.UpdateOne(context.Background(), api, "Level1", l1, planner.TopField))
	last := mock.Calls[len(mock.Calls)-1]
	require.Equal(t, "UPDATE Level1 SET text = ?, level2_id = ? WHERE id = ?", last.Sql)
}

func TestApiDeleteMany(t *testing.T) {
	api, mock := newApi(t)

	require.NoError(t, toqlapi.DeleteMany(context.Background(), api, "Level1", "*"))
	require.Empty(t, mock.Calls)

	require.NoError(t, toqlapi.DeleteMany(context.Background(), api, "Level1", "id eq 4"))
	require.Len(t, mock.Calls, 1)
	require.Equal(t, "DELETE level1 FROM Level1 level1 WHERE level1.id = ?", mock.Calls[0].Sql)
}

type captureListener struct {
	steps []string
}

func (c *captureListener) StepStarted(step, sqlText string)    { c.steps = append(c.steps, step) }
func (c *captureListener) StepFinished(step string, err error) {}

func TestApiWithListener(t *testing.T) {
	api, _ := newApi(t)
	capture := &captureListener{}
	api = api.WithListener(capture)

	require.NoError(t, toqlapi.DeleteMany(context.Background(), api, "Level1", "id eq 1"))
	require.Equal(t, []string{"delete_many"}, capture.steps)
}
