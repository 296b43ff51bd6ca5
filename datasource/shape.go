package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benoitkugler/okmap/geom"
	"github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var _ Datasource = (*Shape)(nil) // assert interface conformance

// Shape reads features from an ESRI shapefile (.shp + .dbf).
// Each query opens its own reader, so that several
// featuresets may be consumed one after the other.
type Shape struct {
	path     string // with .shp extension
	extent   geom.Envelope
	fields   []shp.Field
	decoder  *encoding.Decoder
	geomType shp.ShapeType
}

// NewShape is the Factory of the "shape" driver. Recognized parameters are
//   - file: path to the shapefile, the .shp extension being optional
//   - base: directory "file" is relative to
//   - encoding: charset of the DBF strings (default utf-8)
func NewShape(p Params) (Datasource, error) {
	file := p["file"]
	if file == "" {
		return nil, fmt.Errorf("datasource: missing 'file' parameter for shape driver")
	}
	if base := p["base"]; base != "" && !filepath.IsAbs(file) {
		file = filepath.Join(base, file)
	}
	if strings.ToLower(filepath.Ext(file)) != ".shp" {
		file += ".shp"
	}
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("datasource: shape file '%s' does not exist: %w", file, err)
	}
	dbf := strings.TrimSuffix(file, filepath.Ext(file)) + ".dbf"
	if _, err := os.Stat(dbf); err != nil {
		return nil, fmt.Errorf("datasource: attribute file of '%s' is missing: %w", file, err)
	}

	enc, err := htmlindex.Get(p.Get("encoding", "utf-8"))
	if err != nil {
		return nil, fmt.Errorf("datasource: unsupported encoding '%s': %w", p["encoding"], err)
	}

	reader, err := shp.Open(file)
	if err != nil {
		return nil, fmt.Errorf("datasource: opening '%s': %w", file, err)
	}
	defer reader.Close()

	box := reader.BBox()
	return &Shape{
		path:     file,
		extent:   geom.NewEnvelope(box.MinX, box.MinY, box.MaxX, box.MaxY),
		fields:   reader.Fields(),
		decoder:  enc.NewDecoder(),
		geomType: reader.GeometryType,
	}, nil
}

func (s *Shape) Type() Type { return Vector }

func (s *Shape) Envelope() geom.Envelope { return s.extent }

// FieldNames returns the names of the DBF columns.
func (s *Shape) FieldNames() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.String()
	}
	return out
}

// Features streams the shapes whose bounding box intersects q.BBox.
func (s *Shape) Features(q Query) (Featureset, error) {
	reader, err := shp.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("datasource: opening '%s': %w", s.path, err)
	}
	var columns []int
	for i, f := range s.fields {
		if q.wants(f.String()) {
			columns = append(columns, i)
		}
	}
	return &shapeFeatureset{src: s, reader: reader, query: q, columns: columns}, nil
}

type shapeFeatureset struct {
	src     *Shape
	reader  *shp.Reader
	query   Query
	columns []int

	current *geom.Feature
	err     error
}

func (fs *shapeFeatureset) Next() bool {
	if fs.reader == nil {
		return false
	}
	for fs.reader.Next() {
		row, shape := fs.reader.Shape()
		if shape == nil {
			continue
		}
		box := shape.BBox()
		if !fs.query.selects(geom.NewEnvelope(box.MinX, box.MinY, box.MaxX, box.MaxY)) {
			continue
		}
		geoms := convertShape(shape)
		if len(geoms) == 0 {
			continue
		}
		f := geom.NewFeature(int64(row))
		f.Geometries = geoms
		for _, col := range fs.columns {
			field := fs.src.fields[col]
			v, err := fs.src.attribute(field, fs.reader.ReadAttribute(row, col))
			if err != nil {
				fs.err = err
				fs.Close()
				return false
			}
			f.Set(field.String(), v)
		}
		fs.current = f
		return true
	}
	fs.err = fs.reader.Err()
	fs.Close()
	return false
}

func (fs *shapeFeatureset) Feature() *geom.Feature { return fs.current }

func (fs *shapeFeatureset) Err() error { return fs.err }

func (fs *shapeFeatureset) Close() error {
	if fs.reader == nil {
		return nil
	}
	err := fs.reader.Close()
	fs.reader = nil
	return err
}

// attribute decodes a raw DBF value: numeric columns become
// int64 or float64, the others strings in UTF-8.
func (s *Shape) attribute(field shp.Field, raw string) (interface{}, error) {
	raw = strings.TrimSpace(strings.Trim(raw, "\x00"))
	switch field.Fieldtype {
	case 'N', 'F':
		if raw == "" {
			return nil, nil
		}
		if field.Precision == 0 {
			if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return i, nil
			}
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return raw, nil
	}
	out, err := s.decoder.String(raw)
	if err != nil {
		return nil, fmt.Errorf("datasource: decoding attribute %s: %w", field.String(), err)
	}
	return out, nil
}

// splitParts cuts points into the parts described by the offsets.
func splitParts(parts []int32, points []shp.Point) [][]geom.Point {
	out := make([][]geom.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > int32(len(points)) {
			continue
		}
		ring := make([]geom.Point, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, geom.Point{p.X, p.Y})
		}
		out = append(out, ring)
	}
	return out
}

func convertShape(shape shp.Shape) []geom.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return []geom.Geometry{geom.NewPoint(s.X, s.Y)}
	case *shp.PointZ:
		return []geom.Geometry{geom.NewPoint(s.X, s.Y)}
	case *shp.PointM:
		return []geom.Geometry{geom.NewPoint(s.X, s.Y)}
	case *shp.MultiPoint:
		out := make([]geom.Geometry, len(s.Points))
		for i, p := range s.Points {
			out[i] = geom.NewPoint(p.X, p.Y)
		}
		return out
	case *shp.PolyLine:
		return lines(splitParts(s.Parts, s.Points))
	case *shp.PolyLineZ:
		return lines(splitParts(s.Parts, s.Points))
	case *shp.PolyLineM:
		return lines(splitParts(s.Parts, s.Points))
	case *shp.Polygon:
		return polygon(splitParts(s.Parts, s.Points))
	case *shp.PolygonZ:
		return polygon(splitParts(s.Parts, s.Points))
	case *shp.PolygonM:
		return polygon(splitParts(s.Parts, s.Points))
	}
	return nil
}

func lines(parts [][]geom.Point) []geom.Geometry {
	out := make([]geom.Geometry, 0, len(parts))
	for _, p := range parts {
		if len(p) >= 2 {
			out = append(out, geom.NewLineString(p))
		}
	}
	return out
}

func polygon(rings [][]geom.Point) []geom.Geometry {
	if len(rings) == 0 {
		return nil
	}
	return []geom.Geometry{geom.NewPolygon(rings...)}
}
