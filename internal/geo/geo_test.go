package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

func TestIsGeographic(t *testing.T) {
	tests := []struct {
		crs  string
		want bool
	}{
		{"", true},
		{"null", true},
		{`{"type":"name","properties":{"name":"urn:ogc:def:crs:OGC:1.3:CRS84"}}`, true},
		{`{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::4326"}}`, true},
		{`{"type":"name","properties":{"name":"EPSG:4269"}}`, true},
		{`{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::3005"}}`, false},
		{`{"type":"name","properties":{"name":"EPSG:32610"}}`, false},
	}

	for _, tt := range tests {
		var raw json.RawMessage
		if tt.crs != "" {
			raw = json.RawMessage(tt.crs)
		}
		assert.Equal(t, tt.want, IsGeographic(raw), tt.crs)
	}
}

func TestCRSName(t *testing.T) {
	raw := json.RawMessage(`{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::3005"}}`)
	assert.Equal(t, "urn:ogc:def:crs:EPSG::3005", CRSName(raw))
	assert.Empty(t, CRSName(nil))
	assert.Empty(t, CRSName(json.RawMessage(`[1,2]`)))
}

func TestLength(t *testing.T) {
	ls := orb.LineString{{0, 0}, {3, 4}, {3, 10}}
	assert.InDelta(t, 11, Length(ls, false), 1e-9)

	// one degree of longitude at the equator is about 111.3 km on the orb sphere
	deg := orb.LineString{{0, 0}, {1, 0}}
	assert.InDelta(t, 111319, Length(deg, true), 100)

	assert.Zero(t, Length(nil, false))
}

func TestVertexCount(t *testing.T) {
	assert.Equal(t, 3, VertexCount(orb.LineString{{0, 0}, {1, 1}, {2, 2}}))
	assert.Equal(t, 5, VertexCount(orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}, {4, 4}}}))
	assert.Equal(t, 1, VertexCount(orb.Point{1, 1}))
	assert.Zero(t, VertexCount(nil))
}

func TestFingerprintStable(t *testing.T) {
	a := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	a.Properties["b"] = "2"
	a.Properties["a"] = 1.0

	b := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	b.Properties["a"] = 1.0
	b.Properties["b"] = "2"

	assert.Equal(t, Canonical(a), Canonical(b))
	assert.Equal(t, Fingerprint(Canonical(a)), Fingerprint(Canonical(b)))

	b.Properties["b"] = "3"
	assert.NotEqual(t, Fingerprint(Canonical(a)), Fingerprint(Canonical(b)))
}
