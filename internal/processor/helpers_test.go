package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

const bcAlbers = `{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::3005"}}`

func lineFeature(props, coords string) string {
	return `{"type":"Feature","properties":{` + props + `},"geometry":{"type":"LineString","coordinates":` + coords + `}}`
}

func collectionJSON(members string, features ...string) string {
	head := `{"type":"FeatureCollection"`
	if members != "" {
		head += "," + members
	}
	return head + `,"features":[` + strings.Join(features, ",\n") + `]}`
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newLine(props geojson.Properties, pts ...orb.Point) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString(pts))
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func named(name string) geojson.Properties {
	return geojson.Properties{"ROAD_NAME_FULL": name, "ROAD_CLASS": "resource"}
}
