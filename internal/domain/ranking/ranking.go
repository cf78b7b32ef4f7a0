// Package ranking sorts scored entities into stable, dense-ranked, grouped
// and independently paginated result sets.
package ranking

import (
	"sort"
	"strings"

	"github.com/nvara/tally/internal/domain/model"
)

// PeriodSelector chooses which score a ranking is computed over.
type PeriodSelector string

// Period selectors.
const (
	SelectAll     PeriodSelector = "all"
	SelectMidterm PeriodSelector = "midterm"
	SelectFinal   PeriodSelector = "final"
)

// Valid reports whether s is a known selector.
func (s PeriodSelector) Valid() bool {
	return s == SelectAll || s == SelectMidterm || s == SelectFinal
}

// GroupDimension partitions a ranked list.
type GroupDimension string

// Grouping dimensions.
const (
	GroupNone    GroupDimension = "none"
	GroupProgram GroupDimension = "program"
	GroupCollege GroupDimension = "college"
	GroupCompany GroupDimension = "company"
)

// Valid reports whether g is a known dimension.
func (g GroupDimension) Valid() bool {
	switch g {
	case GroupNone, GroupProgram, GroupCollege, GroupCompany:
		return true
	default:
		return false
	}
}

// ungroupedKey is the single group key used when no grouping is requested.
const ungroupedKey = ""

// Filters narrow the entity set before ranking. Empty fields match
// everything; non-empty fields compare case-insensitively.
type Filters struct {
	Program    string
	College    string
	Company    string
	SchoolYear string
	Semester   string
}

func (f Filters) match(e model.Entity) bool {
	return fieldMatch(f.Program, e.Program) &&
		fieldMatch(f.College, e.College) &&
		fieldMatch(f.Company, e.Company) &&
		fieldMatch(f.SchoolYear, e.SchoolYear) &&
		fieldMatch(f.Semester, e.Semester)
}

func fieldMatch(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}

// Options configure one ranking computation.
type Options struct {
	Selector PeriodSelector
	GroupBy  GroupDimension
	Filters  Filters

	// PerGroupRerank restarts ranks at 1 within each group, for
	// "top N per group" views. Otherwise members keep the rank computed
	// over the whole filtered set.
	PerGroupRerank bool
}

// Group is one partition of a ranked list, complete (unpaginated).
type Group struct {
	Key     string
	Entries []model.RankedEntity
}

// Rank filters, stably sorts descending by the selected score, assigns dense
// 1-based ranks, and partitions by the grouping dimension. Ties keep their
// original relative order and are not assigned a shared rank.
//
// Input order is the tie-break, so callers must pass entities in a
// deterministic order (roster order) for reproducible output.
func Rank(in []model.RankedEntity, opts Options) []Group {
	selected := make([]model.RankedEntity, 0, len(in))
	for i := range in {
		if !opts.Filters.match(in[i].Entity) {
			continue
		}
		if _, ok := selectedScore(in[i], opts.Selector); !ok {
			continue
		}
		selected = append(selected, in[i])
	}

	sort.SliceStable(selected, func(i, j int) bool {
		si, _ := selectedScore(selected[i], opts.Selector)
		sj, _ := selectedScore(selected[j], opts.Selector)
		return si > sj
	})

	for i := range selected {
		selected[i].Rank = i + 1
		selected[i].Group = groupKey(selected[i].Entity, opts.GroupBy)
	}

	if opts.GroupBy == GroupNone || opts.GroupBy == "" {
		return []Group{{Key: ungroupedKey, Entries: selected}}
	}

	// Partition preserving rank order; group order follows first
	// appearance in the ranked list so output stays deterministic.
	index := make(map[string]int)
	var groups []Group
	for i := range selected {
		key := selected[i].Group
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Key: key})
		}
		groups[gi].Entries = append(groups[gi].Entries, selected[i])
	}

	if opts.PerGroupRerank {
		for gi := range groups {
			for i := range groups[gi].Entries {
				groups[gi].Entries[i].Rank = i + 1
			}
		}
	}
	return groups
}

// selectedScore picks the score a selector ranks on. Midterm and final fall
// back to the combined score when that period's score is absent; entities
// with no combined score are excluded entirely.
func selectedScore(e model.RankedEntity, sel PeriodSelector) (float64, bool) {
	if !e.Combined.HasMidterm && !e.Combined.HasFinal {
		return 0, false
	}
	switch sel {
	case SelectMidterm:
		if e.Midterm != nil {
			return e.Midterm.Score, true
		}
	case SelectFinal:
		if e.Final != nil {
			return e.Final.Score, true
		}
	}
	return e.Combined.Score, true
}

func groupKey(e model.Entity, dim GroupDimension) string {
	switch dim {
	case GroupProgram:
		return e.Program
	case GroupCollege:
		return e.College
	case GroupCompany:
		return e.Company
	default:
		return ungroupedKey
	}
}
