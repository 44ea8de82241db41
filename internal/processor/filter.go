package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/woozymasta/fsrmerge/internal/config"

	"github.com/paulmach/orb/geojson"
)

// Filter keeps the features matching every rule and returns the kept ones
// with the count of dropped ones. No rules keeps everything.
func Filter(features []*geojson.Feature, rules []config.FilterRule) ([]*geojson.Feature, int) {
	if len(rules) == 0 {
		return features, 0
	}

	kept := make([]*geojson.Feature, 0, len(features))
	for _, f := range features {
		if matchAll(f, rules) {
			kept = append(kept, f)
		}
	}

	return kept, len(features) - len(kept)
}

func matchAll(f *geojson.Feature, rules []config.FilterRule) bool {
	for _, r := range rules {
		v, ok := f.Properties[r.Property].(string)
		if !ok {
			return false
		}
		if r.Equals != "" && v != r.Equals {
			return false
		}
		if r.Contains != "" && !strings.Contains(strings.ToLower(v), strings.ToLower(r.Contains)) {
			return false
		}
	}
	return true
}

// CheckProperties fails with ErrMissingProperty when a non-empty collection
// has no feature carrying one of the required property names.
func CheckProperties(features []*geojson.Feature, required []string) error {
	if len(features) == 0 || len(required) == 0 {
		return nil
	}

	present := make(map[string]bool)
	for _, f := range features {
		for k := range f.Properties {
			present[k] = true
		}
	}

	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	available := make([]string, 0, len(present))
	for k := range present {
		available = append(available, k)
	}
	sort.Strings(available)

	return fmt.Errorf("%w: %s (available: %s)", ErrMissingProperty,
		strings.Join(missing, ", "), strings.Join(available, ", "))
}
