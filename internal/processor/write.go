package processor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/woozymasta/fsrmerge/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	minjson "github.com/tdewolff/minify/v2/json"
)

// WriteOptions configures the Writer.
type WriteOptions struct {
	Path      string
	Minify    bool
	Precision int // significant digits kept by the minifier, 0 keeps all
}

// Write serializes features as one FeatureCollection carrying the name, crs
// and bbox members of src. The file only appears once fully written.
func Write(src *geo.Collection, features []*geojson.Feature, opts WriteOptions) error {
	return writeAtomic(opts.Path, func(w io.Writer) error {
		if !opts.Minify {
			return encodeCollection(w, src, features)
		}

		var buf bytes.Buffer
		if err := encodeCollection(&buf, src, features); err != nil {
			return err
		}

		m := minify.New()
		m.Add("application/json", &minjson.Minifier{Precision: opts.Precision})
		return m.Minify("application/json", w, &buf)
	})
}

// encodeCollection writes one feature per line so runs diff cleanly.
func encodeCollection(w io.Writer, src *geo.Collection, features []*geojson.Feature) error {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"FeatureCollection"`)

	if src.Name != "" {
		name, err := json.Marshal(src.Name)
		if err != nil {
			return err
		}
		buf.WriteString(`,"name":`)
		buf.Write(name)
	}

	if len(src.CRS) > 0 {
		buf.WriteString(`,"crs":`)
		if err := json.Compact(&buf, src.CRS); err != nil {
			return fmt.Errorf("crs member: %w", err)
		}
	}

	if src.HasBBox && len(features) > 0 {
		b := collectionBound(features)
		bbox, err := json.Marshal([]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]})
		if err != nil {
			return err
		}
		buf.WriteString(`,"bbox":`)
		buf.Write(bbox)
	}

	if len(features) == 0 {
		buf.WriteString(`,"features":[]}` + "\n")
		_, err := w.Write(buf.Bytes())
		return err
	}

	buf.WriteString(`,"features":[` + "\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}

	for i, f := range features {
		b, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode feature %d: %w", i, err)
		}
		if i < len(features)-1 {
			b = append(b, ',')
		}
		b = append(b, '\n')
		if _, err := w.Write(b); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "]}\n")
	return err
}

func collectionBound(features []*geojson.Feature) orb.Bound {
	b := features[0].Geometry.Bound()
	for _, f := range features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b
}

// writeAtomic writes through a temporary file in the target directory and
// renames it into place, so a failed run leaves no partial file behind.
func writeAtomic(path string, fn func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Error().Err(rmErr).Str("path", tmpName).Msg("Failed to remove temporary file")
			}
		}
	}()

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err = fn(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
