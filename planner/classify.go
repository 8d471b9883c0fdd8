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

package planner

import (
	toqlsql "github.com/roy-ganz/toql-sub002/sql"
)

type levelKind int

const (
	levelJoin levelKind = iota
	levelPartial
	levelMerge
)

// level describes one addressable point in an entity's mapped tree: a
// dotted path, its depth (number of path segments) and whether it
// reaches its target table via a regular join, a partial (same-row)
// join, or a merge (separate query, one-to-many).
type level struct {
	path      string
	depth     int
	kind      levelKind
	tableName string
}

// classifyPaths resolves every ancestor level of every path in paths
// against the registry, deduplicating repeated ancestors. The root
// level ("") is always included first.
func classifyPaths(reg *toqlsql.Registry, rootTypeName string, paths []string) ([]level, error) {
	rootMapper, err := reg.Mapper(rootTypeName)
	if err != nil {
		return nil, err
	}
	levels := []level{{path: "", depth: 0, kind: levelJoin, tableName: rootMapper.TableName}}
	seen := map[string]bool{"": true}

	for _, p := range paths {
		if p == "" {
			continue
		}

		addLevel := func(prefix toqlsql.Path) error {
			ps := prefix.String()
			if seen[ps] {
				return nil
			}
			seen[ps] = true

			mapper := rootMapper
			depth := 0
			kind := levelJoin
			tableName := rootMapper.TableName
			dit := prefix.Descendents()
			for {
				seg, ok := dit.Next()
				if !ok {
					break
				}
				depth++
				if jm, jerr := mapper.Join(seg.String()); jerr == nil {
					if jm.Options.PartialTable {
						kind = levelPartial
					} else {
						kind = levelJoin
					}
					childMapper, merr := reg.Mapper(jm.JoinedMapperName)
					if merr != nil {
						return merr
					}
					mapper = childMapper
					tableName = childMapper.TableName
					continue
				}
				if mm, merr := mapper.Merge(seg.String()); merr == nil {
					kind = levelMerge
					childMapper, cerr := reg.Mapper(mm.MergedMapperName)
					if cerr == nil {
						tableName = childMapper.TableName
					}
					break
				}
				return toqlsql.ErrFieldMissing.New(p)
			}
			levels = append(levels, level{path: ps, depth: depth, kind: kind, tableName: tableName})
			return nil
		}

		// step_down(p) ++ [p]: every proper prefix, shortest first, then
		// p itself.
		it := toqlsql.Path(p).StepDown()
		for {
			prefix, ok := it.Next()
			if !ok {
				break
			}
			if err := addLevel(prefix); err != nil {
				return nil, err
			}
		}
		if err := addLevel(toqlsql.Path(p)); err != nil {
			return nil, err
		}
	}
	return levels, nil
}

// descendentsFor returns a DescendentIter addressing path, empty for
// the root level.
func descendentsFor(path string) *toqlsql.DescendentIter {
	return toqlsql.Path(path).Descendents()
}
