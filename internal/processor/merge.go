package processor

import (
	"reflect"

	"github.com/woozymasta/fsrmerge/internal/config"
	"github.com/woozymasta/fsrmerge/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
)

// Derived properties set on every merged feature.
const (
	PropOriginalSegments = "original_segments"
	PropTotalLength      = "total_length_m"
)

// MergeOptions configures the Merger.
type MergeOptions struct {
	Properties string // config.PropertiesCommon or config.PropertiesFirst
	Key        string // grouping property, receives the group key
	Title      string // extra property receiving the group key, empty to skip
	Tolerance  float64
	Geographic bool // coordinates are lon/lat, lengths measured on the sphere
}

// MergeGroups merges every group into exactly one feature, in group order.
func MergeGroups(groups []*Group, opts MergeOptions) []*geojson.Feature {
	out := make([]*geojson.Feature, len(groups))
	for i, g := range groups {
		out[i] = Merge(g, opts)
	}
	return out
}

// Merge combines the members of g into one feature. Parts sharing endpoints
// are joined, anything else becomes another part of a MultiLineString.
func Merge(g *Group, opts MergeOptions) *geojson.Feature {
	var parts []orb.LineString
	var length float64
	for _, m := range g.Members {
		parts = append(parts, lineParts(m.Geometry)...)
		length += geo.Length(m.Geometry, opts.Geographic)
	}

	var geom orb.Geometry
	chains := sewLines(parts)
	if len(chains) == 1 {
		geom = chains[0]
	} else {
		geom = orb.MultiLineString(chains)
	}

	if opts.Tolerance > 0 {
		geom = simplify.DouglasPeucker(opts.Tolerance).Simplify(geom)
	}

	f := geojson.NewFeature(geom)
	f.Properties = reduceProperties(g.Members, opts.Properties)
	if len(g.Members) == 1 {
		f.ID = g.Members[0].ID
	}

	if g.HasKey {
		if opts.Key != "" {
			f.Properties[opts.Key] = g.Key
		}
		if opts.Title != "" {
			f.Properties[opts.Title] = g.Key
		}
	}
	f.Properties[PropOriginalSegments] = len(g.Members)
	f.Properties[PropTotalLength] = length

	return f
}

// reduceProperties either copies the first member's properties or keeps the
// keys whose values are equal in every member.
func reduceProperties(members []*geojson.Feature, policy string) geojson.Properties {
	props := members[0].Properties.Clone()
	if props == nil {
		props = geojson.Properties{}
	}
	if policy == config.PropertiesFirst {
		return props
	}

	for _, m := range members[1:] {
		for k, v := range props {
			other, ok := m.Properties[k]
			if !ok || !reflect.DeepEqual(v, other) {
				delete(props, k)
			}
		}
	}

	return props
}
