package processor

import (
	"github.com/paulmach/orb"
)

type lineEnd struct {
	part int
	tail bool
}

// sewLines joins parts that share endpoints exactly into maximal chains,
// reversing parts where the direction requires it. Chains stop at nodes
// where other than two part ends meet. No vertex is removed, the joint of
// two parts appears once for each of them.
func sewLines(parts []orb.LineString) []orb.LineString {
	nodes := make(map[orb.Point][]lineEnd, 2*len(parts))
	for i, ls := range parts {
		nodes[ls[0]] = append(nodes[ls[0]], lineEnd{part: i})
		nodes[ls[len(ls)-1]] = append(nodes[ls[len(ls)-1]], lineEnd{part: i, tail: true})
	}

	used := make([]bool, len(parts))

	walk := func(start int, forward bool) orb.LineString {
		chain := appendPart(nil, parts[start], forward)
		used[start] = true

		for {
			cur := chain[len(chain)-1]
			ends := nodes[cur]
			if len(ends) != 2 {
				return chain
			}

			next := -1
			var at lineEnd
			for _, e := range ends {
				if !used[e.part] {
					next, at = e.part, e
					break
				}
			}
			if next < 0 {
				return chain
			}

			chain = appendPart(chain, parts[next], !at.tail)
			used[next] = true
		}
	}

	var chains []orb.LineString

	// open chains start at dead ends and junctions
	for i, ls := range parts {
		if !used[i] && len(nodes[ls[0]]) != 2 {
			chains = append(chains, walk(i, true))
		}
		if !used[i] && len(nodes[ls[len(ls)-1]]) != 2 {
			chains = append(chains, walk(i, false))
		}
	}

	// what is left forms rings
	for i := range parts {
		if !used[i] {
			chains = append(chains, walk(i, true))
		}
	}

	return chains
}

func appendPart(dst, part orb.LineString, forward bool) orb.LineString {
	if forward {
		return append(dst, part...)
	}
	for i := len(part) - 1; i >= 0; i-- {
		dst = append(dst, part[i])
	}
	return dst
}

// lineParts flattens line geometries into their parts.
func lineParts(g orb.Geometry) []orb.LineString {
	switch v := g.(type) {
	case orb.LineString:
		return []orb.LineString{v}
	case orb.MultiLineString:
		return []orb.LineString(v)
	}
	return nil
}
