package present

import (
	"fmt"
	"sort"
	"strings"

	"github.com/drewfead/cip/internal/core"
)

type Axis int

const (
	ByCinema Axis = iota
	ByFilm
)

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "", "cinema", "cinemas":
		return ByCinema, nil
	case "film", "films":
		return ByFilm, nil
	default:
		return ByCinema, fmt.Errorf("unknown grouping %q, expected cinema or film", s)
	}
}

func (a Axis) String() string {
	if a == ByFilm {
		return "film"
	}
	return "cinema"
}

// Group is one outer entry of a grouped listing.
type Group struct {
	ID          uint64     `json:"id"`
	Description string     `json:"description"`
	Entries     []Subgroup `json:"entries"`
}

// Subgroup holds the results for one inner entity, in query order.
type Subgroup struct {
	ID          uint64             `json:"id"`
	Description string             `json:"description"`
	Results     []core.QueryResult `json:"results"`
}

// GroupResults nests results by the chosen axis and then by the other entity,
// both levels ordered by ascending id. Results keep their relative order.
func GroupResults(results []core.QueryResult, axis Axis) []Group {
	outer := map[uint64]*Group{}
	inner := map[uint64]map[uint64]*Subgroup{}

	for _, r := range results {
		outerID, outerDesc, innerID, innerDesc := keys(r, axis)

		g, ok := outer[outerID]
		if !ok {
			g = &Group{ID: outerID, Description: outerDesc}
			outer[outerID] = g
			inner[outerID] = map[uint64]*Subgroup{}
		}
		sg, ok := inner[outerID][innerID]
		if !ok {
			sg = &Subgroup{ID: innerID, Description: innerDesc}
			inner[outerID][innerID] = sg
		}
		sg.Results = append(sg.Results, r)
	}

	groups := make([]Group, 0, len(outer))
	for id, g := range outer {
		for _, sg := range inner[id] {
			g.Entries = append(g.Entries, *sg)
		}
		sort.Slice(g.Entries, func(i, j int) bool { return g.Entries[i].ID < g.Entries[j].ID })
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

// Flatten lists every result of a grouping in group order.
func Flatten(groups []Group) []core.QueryResult {
	var out []core.QueryResult
	for _, g := range groups {
		for _, sg := range g.Entries {
			out = append(out, sg.Results...)
		}
	}
	return out
}

func keys(r core.QueryResult, axis Axis) (outerID uint64, outerDesc string, innerID uint64, innerDesc string) {
	if axis == ByFilm {
		return r.Film.ID, r.Film.Description(), r.Cinema.ID, r.Cinema.Description()
	}
	return r.Cinema.ID, r.Cinema.Description(), r.Film.ID, r.Film.Description()
}
