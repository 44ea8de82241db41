package processor

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/woozymasta/fsrmerge/internal/config"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopGroups(t *testing.T) {
	var features []*geojson.Feature
	for i, name := range []string{"B FSR", "A FSR", "A FSR", "C FSR", "C FSR", "C FSR"} {
		features = append(features, newLine(named(name), orb.Point{float64(i), 0}, orb.Point{float64(i), 1}))
	}
	groups := GroupFeatures(features, ByAttribute("ROAD_NAME_FULL"))

	top := TopGroups(groups, 2)
	assert.Equal(t, []GroupCount{{"C FSR", 3}, {"A FSR", 2}}, top)
	assert.Len(t, TopGroups(groups, 10), 3)
}

func TestGroupLabel(t *testing.T) {
	assert.Equal(t, "Alpha", GroupLabel(&Group{Key: "Alpha", HasKey: true}, 3))
	assert.Equal(t, "42", GroupLabel(&Group{Key: 42.0, HasKey: true}, 3))
	assert.Equal(t, "#4", GroupLabel(&Group{}, 3))
}

func TestReportRender(t *testing.T) {
	var features []*geojson.Feature
	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("Road %02d FSR", i)
		features = append(features, newLine(named(name), orb.Point{float64(i), 0}, orb.Point{float64(i), 1}))
	}
	features = append(features, newLine(named("Road 07 FSR"), orb.Point{7, 1}, orb.Point{7, 2}))
	groups := GroupFeatures(features, ByAttribute("ROAD_NAME_FULL"))

	s := &Summary{
		Input:      "bc_roads.geojson",
		Output:     "bc_fsrs_merged.geojson",
		CRS:        "urn:ogc:def:crs:EPSG::3005",
		Strategy:   ByAttribute("ROAD_NAME_FULL"),
		Properties: config.PropertiesCommon,
		Tolerance:  2.5,
		Total:      30,
		Rejected:   1,
		Filtered:   3,
		Kept:       26,
		Groups:     len(groups),
	}
	r := Report{
		Summary:  s,
		Groups:   groups,
		Rejected: []*GeometryError{{Feature: 4, Reason: "null geometry"}},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	text := buf.String()

	assert.Contains(t, text, "Strategy: attribute (key ROAD_NAME_FULL)")
	assert.Contains(t, text, "Simplify tolerance: 2.5")
	assert.Contains(t, text, "Unique groups: 25")
	assert.Contains(t, text, "Average segments per group: 1.0")
	assert.Contains(t, text, "Road 07 FSR: 2 segments")
	assert.Contains(t, text, "feature 4: null geometry")

	top := text[strings.Index(text, "Groups with most segments:"):strings.Index(text, "All group names:")]
	assert.Equal(t, 20, strings.Count(top, " segments\n"))

	names := text[strings.Index(text, "All group names:"):]
	assert.Equal(t, 25, strings.Count(names, " FSR\n"))
	assert.Less(t, strings.Index(names, "Road 00 FSR"), strings.Index(names, "Road 24 FSR"))
}

func TestSummaryRatios(t *testing.T) {
	s := &Summary{Kept: 10, Groups: 4}
	assert.InDelta(t, 60, s.Reduction(), 1e-9)
	assert.InDelta(t, 2.5, s.AverageSegments(), 1e-9)

	empty := &Summary{}
	assert.Zero(t, empty.Reduction())
	assert.Zero(t, empty.AverageSegments())
}
