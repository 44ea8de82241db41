package processor

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// GroupCount is a group label with its member count.
type GroupCount struct {
	Label    string
	Segments int
}

// GroupLabel names a group by its key, or by its 1-based output position.
func GroupLabel(g *Group, index int) string {
	if g.HasKey {
		if s, ok := g.Key.(string); ok {
			return s
		}
		return keyString(g.Key)
	}
	return fmt.Sprintf("#%d", index+1)
}

// TopGroups returns the n groups with most members, ties by label.
func TopGroups(groups []*Group, n int) []GroupCount {
	counts := make([]GroupCount, len(groups))
	for i, g := range groups {
		counts[i] = GroupCount{Label: GroupLabel(g, i), Segments: len(g.Members)}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Segments != counts[j].Segments {
			return counts[i].Segments > counts[j].Segments
		}
		return counts[i].Label < counts[j].Label
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Report holds everything written to the analysis file.
type Report struct {
	Summary  *Summary
	Groups   []*Group
	Rejected []*GeometryError
}

// WriteReport writes the analysis file atomically.
func WriteReport(path string, r Report) error {
	return writeAtomic(path, r.Render)
}

// Render writes the report as plain text.
func (r Report) Render(w io.Writer) error {
	s := r.Summary
	var b strings.Builder

	b.WriteString("Road Merge Analysis\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	fmt.Fprintf(&b, "Input: %s\n", s.Input)
	fmt.Fprintf(&b, "Output: %s\n", s.Output)
	if s.CRS != "" {
		fmt.Fprintf(&b, "CRS: %s\n", s.CRS)
	}
	fmt.Fprintf(&b, "Strategy: %s\n", describeStrategy(s.Strategy))
	fmt.Fprintf(&b, "Property policy: %s\n", s.Properties)
	fmt.Fprintf(&b, "Simplify tolerance: %g\n\n", s.Tolerance)

	fmt.Fprintf(&b, "Input features: %d\n", s.Total)
	fmt.Fprintf(&b, "Rejected features: %d\n", s.Rejected)
	fmt.Fprintf(&b, "Filtered out: %d\n", s.Filtered)
	fmt.Fprintf(&b, "Total segments merged: %d\n", s.Kept)
	fmt.Fprintf(&b, "Unique groups: %d\n", s.Groups)
	fmt.Fprintf(&b, "Average segments per group: %.1f\n", s.AverageSegments())
	fmt.Fprintf(&b, "Reduction: %.1f%%\n\n", s.Reduction())

	b.WriteString("Groups with most segments:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, gc := range TopGroups(r.Groups, 20) {
		fmt.Fprintf(&b, "%s: %d segments\n", gc.Label, gc.Segments)
	}

	b.WriteString("\n\nAll group names:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	seen := make(map[string]bool)
	var names []string
	for _, g := range r.Groups {
		if !g.HasKey {
			continue
		}
		label := GroupLabel(g, 0)
		if !seen[label] {
			seen[label] = true
			names = append(names, label)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		b.WriteString(n + "\n")
	}

	if len(r.Rejected) > 0 {
		b.WriteString("\n\nRejected features:\n")
		b.WriteString(strings.Repeat("-", 20) + "\n")
		for _, e := range r.Rejected {
			b.WriteString(e.Error() + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func describeStrategy(s Strategy) string {
	switch s.Kind {
	case KindAttribute:
		return fmt.Sprintf("attribute (key %s)", s.Key)
	case KindAdjacency:
		return fmt.Sprintf("adjacency (distance %g)", s.Distance)
	case KindBoth:
		return fmt.Sprintf("both (key %s, distance %g)", s.Key, s.Distance)
	}
	return s.Kind.String()
}
