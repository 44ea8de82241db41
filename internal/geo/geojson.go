// Package geo handles geographic data structures and measurements.
package geo

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// Collection represents a loaded feature collection. It keeps the members
// the writer has to carry over verbatim alongside the ordered features.
type Collection struct {
	Name     string
	CRS      json.RawMessage // nil when the input had no crs member
	HasBBox  bool
	Features []*geojson.Feature
}

type namedCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

var epsgCode = regexp.MustCompile(`EPSG:+(\d+)$`)

// Geographic CRS codes whose coordinates are lon/lat degrees.
var geographicCodes = map[string]bool{
	"4326": true, // WGS 84
	"4269": true, // NAD83
	"4617": true, // NAD83(CSRS)
	"4258": true, // ETRS89
}

// CRSName returns the name of a named crs member, or "" if absent or unparsable.
func CRSName(crs json.RawMessage) string {
	if len(crs) == 0 {
		return ""
	}

	var n namedCRS
	if err := json.Unmarshal(crs, &n); err != nil {
		return ""
	}

	return n.Properties.Name
}

// IsGeographic reports whether coordinates under crs are lon/lat degrees.
// RFC 7946 documents without a crs member are WGS 84.
func IsGeographic(crs json.RawMessage) bool {
	if len(crs) == 0 || string(crs) == "null" {
		return true
	}

	name := strings.ToUpper(CRSName(crs))
	if name == "" {
		return true
	}
	if strings.HasSuffix(name, "CRS84") {
		return true
	}

	if m := epsgCode.FindStringSubmatch(name); m != nil {
		return geographicCodes[m[1]]
	}

	return false
}
