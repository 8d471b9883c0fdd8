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
	"fmt"
)

// AliasFormat selects how canonical, dotted aliases are emitted in
// built SQL.
type AliasFormat int

const (
	// AliasFormatCanonical emits the canonical alias unchanged, e.g.
	// "user_address_country".
	AliasFormatCanonical AliasFormat = iota
	// AliasFormatMedium emits a shortened form keeping the first three
	// characters of each segment, e.g. "use_add_cou".
	AliasFormatMedium
	// AliasFormatShort emits sequential short aliases ("t0", "t1", ...)
	// assigned deterministically in first-seen order.
	AliasFormatShort
)

// AliasTranslatorImpl implements AliasTranslator: a canonical alias
// string maps to an emitted alias, cached per canonical name for the
// lifetime of one builder run. The mapping is bijective within that run
// (two distinct canonical aliases never collide on their emitted form).
type AliasTranslatorImpl struct {
	format AliasFormat
	cache  map[string]string
	seq    int
}

// NewAliasTranslator returns a translator for one builder run.
func NewAliasTranslator(format AliasFormat) *AliasTranslatorImpl {
	return &AliasTranslatorImpl{format: format, cache: make(map[string]string)}
}

// Translate returns the emitted alias for canonicalAlias, computing and
// caching it on first use.
func (t *AliasTranslatorImpl) Translate(canonicalAlias string) string {
	if v, ok := t.cache[canonicalAlias]; ok {
		return v
	}
	var emitted string
	switch t.format {
	case AliasFormatShort:
		emitted = fmt.Sprintf("t%d", t.seq)
		t.seq++
	case AliasFormatMedium:
		emitted = mediumAlias(canonicalAlias)
	default:
		emitted = canonicalAlias
	}
	t.cache[canonicalAlias] = emitted
	return emitted
}

func mediumAlias(canonical string) string {
	segs := splitSegments(canonical)
	out := make([]string, len(segs))
	for i, s := range segs {
		if len(s) > 3 {
			out[i] = s[:3]
		} else {
			out[i] = s
		}
	}
	return joinSegments(out)
}

func splitSegments(path string) []string {
	var segs []string
	it := Path(path).Descendents()
	for {
		seg, ok := it.Next()
		if !ok {
			break
		}
		segs = append(segs, seg.String())
	}
	return segs
}

func joinSegments(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "_"
		}
		out += s
	}
	return out
}
