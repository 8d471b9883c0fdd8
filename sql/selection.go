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

// Select flags one emitted SELECT column group: whether the builder put
// it there because the query asked for it, because the mapper
// preselects it unconditionally, or not at all (in which case FromRow
// must substitute a default instead of reading a row column).
type Select uint8

const (
	SelectNone Select = iota
	SelectQuery
	SelectPreselect
)

// Selected reports whether this flag corresponds to an emitted column
// (Query or Preselect), i.e. whether FromRow must advance the row
// cursor for it.
func (s Select) Selected() bool {
	return s == SelectQuery || s == SelectPreselect
}

// SelectionStream is the per-column vector of Select flags a builder
// produces, aligned one-to-one with the SELECT clause's emitted column
// groups and consumed in the same order by FromRow.
type SelectionStream struct {
	flags []Select
	pos   int
}

// NewSelectionStream returns an empty, appendable stream, built up by
// the SQL builder via Push.
func NewSelectionStream() *SelectionStream {
	return &SelectionStream{}
}

// Push appends one flag, used by the builder while assembling SELECT.
func (s *SelectionStream) Push(flag Select) {
	s.flags = append(s.flags, flag)
}

// Len reports how many flags have been pushed.
func (s *SelectionStream) Len() int {
	return len(s.flags)
}

// Cursor returns a fresh, independent read cursor positioned at the
// start of the stream, used once per row by FromRow.
func (s *SelectionStream) Cursor() *SelectionCursor {
	return &SelectionCursor{stream: s}
}

// SelectionCursor is a one-pass reader over a SelectionStream's flags,
// advanced by FromRow as it walks an entity's fields, joins and merges
// in deserialize_order.
type SelectionCursor struct {
	stream *SelectionStream
	pos    int
}

// Next returns the next flag, or ok=false if the stream is exhausted
// (ErrDeserializeStreamEnd territory for the caller).
func (c *SelectionCursor) Next() (Select, bool) {
	if c.pos >= len(c.stream.flags) {
		return SelectNone, false
	}
	f := c.stream.flags[c.pos]
	c.pos++
	return f, true
}

// Skip advances the cursor by n flags without inspecting them, used
// when an unselected left-join field must jump over its child's entire
// column footprint.
func (c *SelectionCursor) Skip(n int) {
	c.pos += n
	if c.pos > len(c.stream.flags) {
		c.pos = len(c.stream.flags)
	}
}

// Consumed reports how many flags this cursor has read so far; FromRow
// callers use the delta between two Consumed() readings to implement
// Forward (the number of row columns a sub-call consumed).
func (c *SelectionCursor) Consumed() int {
	return c.pos
}
