// Package keys derives the integer group identifiers used as fixed
// effects by the projection engine.
package keys

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/godecomp/internal/types"
)

// Set holds, for one panel sample and one industry granularity, the
// group identifier of every row along each fixed-effect dimension.
// Identifiers are dense, zero-based, and assigned in order of first
// appearance, so the same input always yields the same assignment
// within a run. Slices are aligned with the input rows.
type Set struct {
	Granularity types.Granularity

	Entity       []int
	Time         []int
	Tech         []int
	Industry     []int
	IndustryTime []int
	TechTime     []int
}

// index assigns dense integer ids in first-appearance order.
type index[K comparable] struct {
	m *orderedmap.OrderedMap[K, int]
}

func newIndex[K comparable]() *index[K] {
	return &index[K]{m: orderedmap.NewOrderedMap[K, int]()}
}

func (ix *index[K]) id(k K) int {
	if id, ok := ix.m.Get(k); ok {
		return id
	}
	id := ix.m.Len()
	ix.m.Set(k, id)
	return id
}

func (ix *index[K]) len() int { return ix.m.Len() }

type pair struct {
	a, b int
}

// Build derives the key set for the given rows at the given industry
// granularity. The coarsening must leave at least one distinct industry
// group when rows exist.
func Build(rows []types.PanelRow, g types.Granularity) (*Set, error) {
	n := len(rows)
	s := &Set{
		Granularity:  g,
		Entity:       make([]int, n),
		Time:         make([]int, n),
		Tech:         make([]int, n),
		Industry:     make([]int, n),
		IndustryTime: make([]int, n),
		TechTime:     make([]int, n),
	}

	entities := newIndex[int64]()
	times := newIndex[int]()
	techs := newIndex[string]()
	industries := newIndex[int]()
	indTimes := newIndex[pair]()
	techTimes := newIndex[pair]()

	for i, row := range rows {
		e := entities.id(row.EntityID)
		t := times.id(row.Period)
		k := techs.id(row.Technology)
		ind := industries.id(g.Coarsen(row.IndustryCode))

		s.Entity[i] = e
		s.Time[i] = t
		s.Tech[i] = k
		s.Industry[i] = ind
		s.IndustryTime[i] = indTimes.id(pair{ind, t})
		s.TechTime[i] = techTimes.id(pair{k, t})
	}

	if n > 0 && industries.len() < 1 {
		return nil, fmt.Errorf("granularity %s produced no industry groups for %d rows", g.Label(), n)
	}

	return s, nil
}

// NumRows returns the number of rows the set was built over.
func (s *Set) NumRows() int {
	return len(s.Entity)
}

// DistinctIndustries counts the distinct industry groups among rows
// where mask is true. A nil mask counts all rows.
func (s *Set) DistinctIndustries(mask []bool) int {
	seen := map[int]struct{}{}
	for i, g := range s.Industry {
		if mask != nil && !mask[i] {
			continue
		}
		seen[g] = struct{}{}
	}
	return len(seen)
}
