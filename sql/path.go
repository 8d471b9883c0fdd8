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

// Path is an immutable underscore-joined chain of mapping names
// identifying a location in an entity tree, e.g. "user_address_country".
type Path string

const pathSep = '_'

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p) == 0
}

// String returns the raw path text.
func (p Path) String() string {
	return string(p)
}

// SplitBasename splits a path into its prefix and trailing segment, e.g.
// "a_b" -> ("a", "b"). A segment-less input returns ("", input).
func SplitBasename(path string) (Path, string) {
	if i := strings.LastIndexByte(path, pathSep); i >= 0 {
		return Path(path[:i]), path[i+1:]
	}
	return Path(""), path
}

// TrimBasename drops the trailing segment of a path.
func TrimBasename(path string) Path {
	if i := strings.LastIndexByte(path, pathSep); i >= 0 {
		return Path(path[:i])
	}
	return Path("")
}

// Prepend returns a new path with head placed in front of p.
func (p Path) Prepend(head string) Path {
	if p.IsEmpty() || head == "" {
		return Path(head + string(p))
	}
	return Path(head + string(pathSep) + string(p))
}

// Append returns a new path with tail placed after p.
func (p Path) Append(tail string) Path {
	if p.IsEmpty() || tail == "" {
		return Path(string(p) + tail)
	}
	return Path(string(p) + string(pathSep) + tail)
}

// Relative reports whether p starts with rootPath.
func (p Path) Relative(rootPath string) bool {
	return strings.HasPrefix(string(p), rootPath)
}

// LocalizePath strips homePath (and one separator) from the front of p,
// returning ok=false if p does not lie under homePath.
func (p Path) LocalizePath(homePath string) (Path, bool) {
	if !strings.HasPrefix(string(p), homePath) {
		return "", false
	}
	rest := strings.TrimPrefix(string(p), homePath)
	rest = strings.TrimPrefix(rest, string(pathSep))
	return Path(rest), true
}

// AncestorIter yields a path's prefixes longest-to-shortest, including the
// path itself, stopping before the empty path.
type AncestorIter struct {
	path string
	pos  int
}

// Ancestors returns an iterator over p's ancestors, longest first.
func (p Path) Ancestors() *AncestorIter {
	return &AncestorIter{path: string(p), pos: len(p)}
}

// Next returns the next ancestor path, or ok=false when exhausted.
func (it *AncestorIter) Next() (Path, bool) {
	i := strings.LastIndexByte(it.path[:it.pos], pathSep)
	if i >= 0 {
		cur := it.path[:it.pos]
		it.pos = i
		return Path(cur), true
	}
	if it.pos != 0 {
		cur := it.path[:it.pos]
		it.pos = 0
		return Path(cur), true
	}
	return "", false
}

// Clone returns an independent copy of the iterator's current state.
func (it *AncestorIter) Clone() *AncestorIter {
	cp := *it
	return &cp
}

// ParentIter yields the last segment of each of a path's ancestor
// prefixes, longest-prefix-first (so shallowest segment last).
type ParentIter struct {
	path string
	pos  int
}

// Parents returns an iterator over the last segment of each ancestor.
func (p Path) Parents() *ParentIter {
	return &ParentIter{path: string(p), pos: len(p)}
}

// Next returns the next parent segment, or ok=false when exhausted.
func (it *ParentIter) Next() (Path, bool) {
	i := strings.LastIndexByte(it.path[:it.pos], pathSep)
	if i >= 0 {
		seg := it.path[i+1 : it.pos]
		it.pos = i
		return Path(seg), true
	}
	if it.pos != 0 {
		seg := it.path[:it.pos]
		it.pos = 0
		return Path(seg), true
	}
	return "", false
}

// Clone returns an independent copy of the iterator's current state.
func (it *ParentIter) Clone() *ParentIter {
	cp := *it
	return &cp
}

// DescendentIter yields a path's segments in order, shallowest first,
// e.g. "user_address_country" -> "user", "address", "country". Tree*
// traits dispatch against this iterator one segment at a time, and it
// is cloned per entity so siblings can each resume at the same point.
type DescendentIter struct {
	path string
	pos  int
}

// Descendents returns a segment iterator over p, used by the Tree*
// capability set to walk into joins/merges/partials one level at a time.
func (p Path) Descendents() *DescendentIter {
	return &DescendentIter{path: string(p), pos: 0}
}

// Next returns the next segment, or ok=false when exhausted.
func (it *DescendentIter) Next() (Path, bool) {
	rest := it.path[it.pos:]
	if i := strings.IndexByte(rest, pathSep); i >= 0 {
		end := it.pos + i
		seg := it.path[it.pos:end]
		it.pos = end + 1
		return Path(seg), true
	}
	if it.pos != len(it.path) {
		seg := it.path[it.pos:]
		it.pos = len(it.path)
		return Path(seg), true
	}
	return "", false
}

// IsLast reports whether the iterator has been fully consumed.
func (it *DescendentIter) IsLast() bool {
	return it.pos == len(it.path)
}

// Clone returns an independent copy of the iterator's current state,
// letting a planner fan out one clone per sibling entity.
func (it *DescendentIter) Clone() *DescendentIter {
	cp := *it
	return &cp
}

// StepDownIter yields a path's proper prefixes in ascending length. The
// path itself is never yielded — a caller wanting step_down(p) ++ [p]
// appends p explicitly once the iterator is exhausted.
type StepDownIter struct {
	path string
	pos  int
}

// StepDown returns an iterator over p's proper prefixes, shortest first.
func (p Path) StepDown() *StepDownIter {
	return &StepDownIter{path: string(p), pos: 0}
}

// Next returns the next, longer proper prefix, or ok=false when no
// separator remains in the unconsumed suffix.
func (it *StepDownIter) Next() (Path, bool) {
	rest := it.path[it.pos:]
	if i := strings.IndexByte(rest, pathSep); i >= 0 {
		end := it.pos + i
		it.pos = end + 1
		return Path(it.path[:end]), true
	}
	return "", false
}

// Clone returns an independent copy of the iterator's current state.
func (it *StepDownIter) Clone() *StepDownIter {
	cp := *it
	return &cp
}

// StepUpIter yields a path's prefixes in descending length, i.e. the
// reverse of StepDownIter.
type StepUpIter struct {
	path string
	pos  int
}

// StepUp returns an iterator over p's prefixes, longest first.
func (p Path) StepUp() *StepUpIter {
	return &StepUpIter{path: string(p), pos: len(p)}
}

// Next returns the next, shorter prefix, or ok=false when exhausted.
func (it *StepUpIter) Next() (Path, bool) {
	i := strings.LastIndexByte(it.path[:it.pos], pathSep)
	if i >= 0 {
		end := it.pos
		it.pos = i
		return Path(it.path[:end]), true
	}
	if it.pos != 0 {
		cur := it.path[:it.pos]
		it.pos = 0
		return Path(cur), true
	}
	return "", false
}

// Clone returns an independent copy of the iterator's current state.
func (it *StepUpIter) Clone() *StepUpIter {
	cp := *it
	return &cp
}
