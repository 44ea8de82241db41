package geo

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Length returns the length of g in metres. Geographic coordinates are
// measured on the sphere, projected ones are assumed to be metric.
func Length(g orb.Geometry, geographic bool) float64 {
	if g == nil {
		return 0
	}
	if geographic {
		return geo.Length(g)
	}
	return planar.Length(g)
}

// VertexCount returns the number of points in g.
func VertexCount(g orb.Geometry) int {
	switch v := g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(v)
	case orb.LineString:
		return len(v)
	case orb.MultiLineString:
		n := 0
		for _, ls := range v {
			n += len(ls)
		}
		return n
	case orb.Ring:
		return len(v)
	case orb.Polygon:
		n := 0
		for _, r := range v {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range v {
			n += VertexCount(p)
		}
		return n
	case orb.Collection:
		n := 0
		for _, c := range v {
			n += VertexCount(c)
		}
		return n
	}
	return 0
}

// Canonical returns the feature's JSON encoding. Property keys are sorted by
// encoding/json, so equal features always encode to equal bytes.
func Canonical(f *geojson.Feature) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	return b
}

// Fingerprint hashes the canonical encoding of f.
func Fingerprint(canonical []byte) uint64 {
	return xxhash.Sum64(canonical)
}
