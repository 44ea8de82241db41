package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/woozymasta/fsrmerge/internal/config"
	"github.com/woozymasta/fsrmerge/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

// StrategyKind enumerates the grouping strategies.
type StrategyKind int

const (
	KindAttribute StrategyKind = iota
	KindAdjacency
	KindBoth
)

func (k StrategyKind) String() string {
	switch k {
	case KindAttribute:
		return config.StrategyAttribute
	case KindAdjacency:
		return config.StrategyAdjacency
	case KindBoth:
		return config.StrategyBoth
	}
	return fmt.Sprintf("StrategyKind(%d)", int(k))
}

// Strategy is a grouping rule. Build one with ByAttribute,
// BySpatialAdjacency or Both.
type Strategy struct {
	Kind     StrategyKind
	Key      string
	Distance float64
}

// ByAttribute groups features sharing the value of a property.
func ByAttribute(key string) Strategy {
	return Strategy{Kind: KindAttribute, Key: key}
}

// BySpatialAdjacency groups features whose endpoints lie within distance.
func BySpatialAdjacency(distance float64) Strategy {
	return Strategy{Kind: KindAdjacency, Distance: distance}
}

// Both groups features sharing a property value that are also adjacent.
func Both(key string, distance float64) Strategy {
	return Strategy{Kind: KindBoth, Key: key, Distance: distance}
}

// StrategyFromConfig maps the configured strategy name onto a Strategy.
func StrategyFromConfig(g config.Group) (Strategy, error) {
	switch g.Strategy {
	case config.StrategyAttribute:
		return ByAttribute(g.Key), nil
	case config.StrategyAdjacency:
		return BySpatialAdjacency(g.Distance), nil
	case config.StrategyBoth:
		return Both(g.Key, g.Distance), nil
	}
	return Strategy{}, fmt.Errorf("%w: unknown group strategy %q", config.ErrInvalid, g.Strategy)
}

// Group is a set of features merged into one output feature. Members are
// in canonical order.
type Group struct {
	Key     any // value of the grouping property, nil when not grouped by one
	HasKey  bool
	Members []*geojson.Feature

	keyJSON string
	first   member
}

type member struct {
	f           *geojson.Feature
	canonical   []byte
	fingerprint uint64
}

func less(a, b member) bool {
	if a.fingerprint != b.fingerprint {
		return a.fingerprint < b.fingerprint
	}
	return bytes.Compare(a.canonical, b.canonical) < 0
}

// GroupFeatures partitions features so that each appears in exactly one
// group. The groups and their order do not depend on the input order.
func GroupFeatures(features []*geojson.Feature, s Strategy) []*Group {
	members := make([]member, len(features))
	for i, f := range features {
		c := geo.Canonical(f)
		members[i] = member{f: f, canonical: c, fingerprint: geo.Fingerprint(c)}
	}
	sort.SliceStable(members, func(i, j int) bool { return less(members[i], members[j]) })

	var groups []*Group
	switch s.Kind {
	case KindAdjacency:
		for _, comp := range adjacent(members, s.Distance) {
			groups = append(groups, newGroup(comp, nil, false))
		}

	case KindAttribute, KindBoth:
		keyed, loose := byAttribute(members, s.Key)
		for _, kg := range keyed {
			if s.Kind == KindAttribute {
				groups = append(groups, newGroup(kg.members, kg.value, true))
				continue
			}
			for _, comp := range adjacent(kg.members, s.Distance) {
				groups = append(groups, newGroup(comp, kg.value, true))
			}
		}
		for _, m := range loose {
			groups = append(groups, newGroup([]member{m}, nil, false))
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.HasKey != b.HasKey {
			return a.HasKey
		}
		if a.keyJSON != b.keyJSON {
			return a.keyJSON < b.keyJSON
		}
		return less(a.first, b.first)
	})

	return groups
}

func newGroup(ms []member, key any, hasKey bool) *Group {
	g := &Group{
		Key:     key,
		HasKey:  hasKey,
		Members: make([]*geojson.Feature, len(ms)),
		first:   ms[0],
	}
	for i, m := range ms {
		g.Members[i] = m.f
	}
	if hasKey {
		g.keyJSON = keyString(key)
	}
	return g
}

type keyedMembers struct {
	value   any
	members []member
}

// byAttribute buckets members by the JSON encoding of the key property, so
// "1" and 1 stay apart. Members without the key, or with null, are loose.
func byAttribute(members []member, key string) ([]*keyedMembers, []member) {
	index := make(map[string]*keyedMembers)
	var order []string
	var loose []member

	for _, m := range members {
		v, ok := m.f.Properties[key]
		if !ok || v == nil {
			loose = append(loose, m)
			continue
		}
		k := keyString(v)
		km, ok := index[k]
		if !ok {
			km = &keyedMembers{value: v}
			index[k] = km
			order = append(order, k)
		}
		km.members = append(km.members, m)
	}

	sort.Strings(order)
	out := make([]*keyedMembers, len(order))
	for i, k := range order {
		out[i] = index[k]
	}
	return out, loose
}

func keyString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

type endpoint struct {
	pt     orb.Point
	member int
}

func (e endpoint) Point() orb.Point { return e.pt }

// adjacent splits members into connected components, two members being
// connected when any of their line endpoints are within distance.
// Components keep canonical member order.
func adjacent(members []member, distance float64) [][]member {
	if len(members) == 1 {
		return [][]member{members}
	}

	var points []endpoint
	for i, m := range members {
		for _, pt := range lineEnds(m.f.Geometry) {
			points = append(points, endpoint{pt: pt, member: i})
		}
	}

	parent := make([]int, len(members))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	if len(points) > 0 {
		mp := make(orb.MultiPoint, len(points))
		for i, p := range points {
			mp[i] = p.pt
		}
		qt := quadtree.New(mp.Bound())
		for _, p := range points {
			_ = qt.Add(p) // every point lies inside the bound
		}

		var buf []orb.Pointer
		for _, p := range points {
			box := orb.Bound{
				Min: orb.Point{p.pt[0] - distance, p.pt[1] - distance},
				Max: orb.Point{p.pt[0] + distance, p.pt[1] + distance},
			}
			buf = qt.InBound(buf[:0], box)
			for _, c := range buf {
				other := c.(endpoint)
				if other.member == p.member {
					continue
				}
				if planar.Distance(p.pt, other.pt) <= distance {
					union(p.member, other.member)
				}
			}
		}
	}

	index := make(map[int]int)
	var comps [][]member
	for i, m := range members {
		root := find(i)
		ci, ok := index[root]
		if !ok {
			ci = len(comps)
			index[root] = ci
			comps = append(comps, nil)
		}
		comps[ci] = append(comps[ci], m)
	}

	return comps
}

func lineEnds(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.LineString:
		if len(v) > 0 {
			return []orb.Point{v[0], v[len(v)-1]}
		}
	case orb.MultiLineString:
		var out []orb.Point
		for _, ls := range v {
			if len(ls) > 0 {
				out = append(out, ls[0], ls[len(ls)-1])
			}
		}
		return out
	}
	return nil
}
