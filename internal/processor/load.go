// Package processor implements the load, filter, group, merge and write
// stages of a road merge run.
package processor

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/woozymasta/fsrmerge/internal/config"
	"github.com/woozymasta/fsrmerge/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// LoadOptions configures the Loader.
type LoadOptions struct {
	Path           string
	GeometryErrors string // config.GeometryReject or config.GeometryFail
	Budget         MemoryBudget
}

// LoadResult is the loaded collection plus the features that were rejected.
type LoadResult struct {
	Collection *geo.Collection
	Rejected   []*GeometryError
	Total      int // features present in the input, rejected included
}

// Load reads a GeoJSON FeatureCollection into memory, preserving feature order.
func Load(opts LoadOptions) (*LoadResult, error) {
	rc, info, err := openInput(opts.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	if err := opts.Budget.Check(opts.Path, info.Size(), DetectCompression(opts.Path)); err != nil {
		return nil, err
	}

	d := &decoder{
		path:   opts.Path,
		dec:    json.NewDecoder(rc),
		policy: opts.GeometryErrors,
	}

	res, err := d.collection()
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Offset > 0 {
			pe.Line, pe.Column = locate(opts.Path, pe.Offset)
		}
		return nil, err
	}

	return res, nil
}

type decoder struct {
	path    string
	dec     *json.Decoder
	policy  string
	feature int
}

func (d *decoder) fail(err error) error {
	offset := d.dec.InputOffset()
	var se *json.SyntaxError
	if errors.As(err, &se) && se.Offset > offset {
		offset = se.Offset
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{Path: d.path, Offset: offset, Feature: d.feature, Err: err}
}

func (d *decoder) expectDelim(want json.Delim) error {
	tok, err := d.dec.Token()
	if err != nil {
		return d.fail(err)
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return d.fail(fmt.Errorf("expected %q, got %v", want, tok))
	}
	return nil
}

func (d *decoder) collection() (*LoadResult, error) {
	d.feature = -1
	if err := d.expectDelim('{'); err != nil {
		return nil, err
	}

	res := &LoadResult{Collection: &geo.Collection{}}
	var docType string
	var sawFeatures bool

	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.fail(err)
		}
		key, _ := tok.(string)

		switch key {
		case "type":
			if err := d.dec.Decode(&docType); err != nil {
				return nil, d.fail(err)
			}

		case "name":
			var name any
			if err := d.dec.Decode(&name); err != nil {
				return nil, d.fail(err)
			}
			if s, ok := name.(string); ok {
				res.Collection.Name = s
			}

		case "crs":
			var raw json.RawMessage
			if err := d.dec.Decode(&raw); err != nil {
				return nil, d.fail(err)
			}
			if string(raw) != "null" {
				res.Collection.CRS = raw
			}

		case "bbox":
			var raw json.RawMessage
			if err := d.dec.Decode(&raw); err != nil {
				return nil, d.fail(err)
			}
			res.Collection.HasBBox = string(raw) != "null"

		case "features":
			sawFeatures = true
			if err := d.features(res); err != nil {
				return nil, err
			}

		default:
			var skip json.RawMessage
			if err := d.dec.Decode(&skip); err != nil {
				return nil, d.fail(err)
			}
		}
	}

	if err := d.expectDelim('}'); err != nil {
		return nil, err
	}

	if docType != "FeatureCollection" {
		return nil, &ParseError{Path: d.path, Feature: -1, Err: fmt.Errorf("document type is %q, not a FeatureCollection", docType)}
	}
	if !sawFeatures {
		return nil, &ParseError{Path: d.path, Feature: -1, Err: errors.New("feature collection has no features member")}
	}

	return res, nil
}

func (d *decoder) features(res *LoadResult) error {
	if err := d.expectDelim('['); err != nil {
		return err
	}

	for i := 0; d.dec.More(); i++ {
		d.feature = i

		var raw json.RawMessage
		if err := d.dec.Decode(&raw); err != nil {
			return d.fail(err)
		}
		res.Total++

		f, gerr := parseFeature(i, raw)
		if gerr != nil {
			if d.policy == config.GeometryFail {
				return gerr
			}
			log.Warn().
				Int("feature", gerr.Feature).
				Interface("id", gerr.ID).
				Str("reason", gerr.Reason).
				Msg("Rejected feature")
			res.Rejected = append(res.Rejected, gerr)
			continue
		}

		res.Collection.Features = append(res.Collection.Features, f)
	}

	d.feature = -1
	return d.expectDelim(']')
}

// parseFeature decodes one feature and checks that it carries a usable line.
func parseFeature(index int, raw json.RawMessage) (*geojson.Feature, *GeometryError) {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return nil, &GeometryError{Feature: index, ID: rawID(raw), Reason: err.Error()}
	}
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}

	if reason := lineProblem(f.Geometry); reason != "" {
		return nil, &GeometryError{Feature: index, ID: f.ID, Reason: reason}
	}

	return f, nil
}

func lineProblem(g orb.Geometry) string {
	switch v := g.(type) {
	case nil:
		return "null geometry"
	case orb.LineString:
		if len(v) < 2 {
			return fmt.Sprintf("line has %d vertices, need at least 2", len(v))
		}
	case orb.MultiLineString:
		if len(v) == 0 {
			return "empty multi line"
		}
		for i, ls := range v {
			if len(ls) < 2 {
				return fmt.Sprintf("line part %d has %d vertices, need at least 2", i, len(ls))
			}
		}
	default:
		return fmt.Sprintf("unsupported geometry type %s", g.GeoJSONType())
	}
	return ""
}

// rawID extracts the id of a feature orb could not decode, for reporting.
func rawID(raw json.RawMessage) any {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	return probe.ID
}

// locate converts a byte offset of the decoded stream into a line and column.
func locate(path string, offset int64) (line, column int) {
	rc, _, err := openInput(path)
	if err != nil {
		return 0, 0
	}
	defer func() { _ = rc.Close() }()

	br := bufio.NewReader(rc)
	line, column = 1, 1
	for i := int64(0); i < offset; i++ {
		b, err := br.ReadByte()
		if err != nil {
			break
		}
		if b == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
