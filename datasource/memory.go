package datasource

import (
	"strings"

	"github.com/benoitkugler/okmap/geom"
)

var (
	_ Datasource = (*Memory)(nil) // assert interface conformance
	_ Datasource = (*Points)(nil)
)

// Memory holds features in insertion order.
type Memory struct {
	features []*geom.Feature
	extent   geom.Envelope
}

// NewMemory returns an empty in-memory datasource.
func NewMemory() *Memory {
	return &Memory{extent: geom.Nil()}
}

// Push appends a feature.
func (m *Memory) Push(f *geom.Feature) {
	m.features = append(m.features, f)
	m.extent = m.extent.ExpandToInclude(f.Envelope())
}

// Size returns the number of stored features.
func (m *Memory) Size() int { return len(m.features) }

func (m *Memory) Type() Type { return Vector }

func (m *Memory) Envelope() geom.Envelope { return m.extent }

// Features returns the features intersecting q.BBox, in insertion order.
func (m *Memory) Features(q Query) (Featureset, error) {
	out := make([]*geom.Feature, 0, len(m.features))
	for _, f := range m.features {
		if !q.selects(f.Envelope()) {
			continue
		}
		out = append(out, project(f, q))
	}
	return &sliceFeatureset{features: out, pos: -1}, nil
}

// project restricts the attributes of f to the ones requested by q.
func project(f *geom.Feature, q Query) *geom.Feature {
	if len(q.PropertyNames) == 0 {
		return f
	}
	out := &geom.Feature{ID: f.ID, Geometries: f.Geometries, Props: make(map[string]interface{}, len(q.PropertyNames))}
	for k, v := range f.Props {
		if q.wants(k) {
			out.Props[k] = v
		}
	}
	return out
}

type sliceFeatureset struct {
	features []*geom.Feature
	pos      int
}

func (s *sliceFeatureset) Next() bool {
	if s.pos+1 >= len(s.features) {
		s.pos = len(s.features)
		return false
	}
	s.pos++
	return true
}

func (s *sliceFeatureset) Feature() *geom.Feature {
	if s.pos < 0 || s.pos >= len(s.features) {
		return nil
	}
	return s.features[s.pos]
}

func (s *sliceFeatureset) Err() error   { return nil }
func (s *sliceFeatureset) Close() error { return nil }

// Points is a memory datasource of labelled points: each added
// point becomes one feature with one point geometry and
// one attribute. Identifiers start at 0 and are never reused.
type Points struct {
	store  *Memory
	nextID int64
}

// NewPoints returns an empty point datasource.
func NewPoints() *Points {
	return &Points{store: NewMemory()}
}

// Size returns the number of points added.
func (p *Points) Size() int { return p.store.Size() }

func (p *Points) Type() Type { return Vector }

func (p *Points) Envelope() geom.Envelope { return p.store.Envelope() }

func (p *Points) Features(q Query) (Featureset, error) { return p.store.Features(q) }

// AddPoint appends a point at (x, y) carrying the attribute key = value,
// and returns the feature created.
func (p *Points) AddPoint(x, y float64, key, value string) *geom.Feature {
	f := geom.NewFeature(p.nextID)
	p.nextID++
	f.AddGeometry(geom.NewPoint(x, y))
	f.Set(key, strings.ToValidUTF8(value, "�"))
	p.store.Push(f)
	return f
}
