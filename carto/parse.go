package carto

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // point symbol images
	_ "image/jpeg" // point symbol images
	_ "image/png"  // point symbol images
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benoitkugler/okmap/datasource"
	_ "golang.org/x/image/bmp"  // point symbol images
	_ "golang.org/x/image/tiff" // point symbol images
	"golang.org/x/net/html/charset"
)

// ErrorMode sets how the loader reacts to unsupported elements
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unsupported elements and parameters
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode logs a warning for unsupported elements and parameters
	WarnErrorMode
	// StrictErrorMode returns an error for unsupported elements and parameters
	StrictErrorMode
)

var errNotAMap = errors.New("carto: style document has no Map element")

// mapCursor is used while parsing style documents
type mapCursor struct {
	m         *Map
	baseDir   string
	errorMode ErrorMode

	seenMap bool
	// element being filled, nil when outside of it
	style     *FeatureTypeStyle
	styleName string
	rule      *Rule
	sym       Symbolizer
	layer     *Layer
	params    datasource.Params

	key  string // name attribute of the current CssParameter or Parameter
	text strings.Builder
}

// unsupported reports an element or parameter the loader does not handle.
func (c *mapCursor) unsupported(what string) error {
	switch c.errorMode {
	case StrictErrorMode:
		return errors.New("unsupported " + what)
	case WarnErrorMode:
		Logger().Warn("unsupported style element", "what", what)
	}
	return nil
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes", "1":
		return true, nil
	case "false", "off", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' '
		})
}

func readOpacity(v string) (float64, error) {
	op, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if op < 0 || op > 1 {
		return 0, fmt.Errorf("opacity %g out of [0, 1]", op)
	}
	return op, nil
}

func (s *PolygonSymbolizer) setParam(c *mapCursor, k, v string) error {
	var err error
	switch k {
	case "fill":
		s.Fill, err = ParseColor(v)
	case "fill-opacity", "opacity":
		s.Opacity, err = readOpacity(v)
	default:
		return c.unsupported("PolygonSymbolizer parameter " + k)
	}
	return err
}

func (s *LineSymbolizer) setParam(c *mapCursor, k, v string) error {
	var err error
	switch k {
	case "stroke":
		s.Stroke.Color, err = ParseColor(v)
	case "stroke-width":
		s.Stroke.Width, err = parseFloat(v)
	case "stroke-opacity":
		s.Stroke.Opacity, err = readOpacity(v)
	case "stroke-linejoin":
		switch v {
		case "miter":
			s.Stroke.Join = MiterJoin
		case "miter-revert":
			s.Stroke.Join = MiterRevertJoin
		case "round":
			s.Stroke.Join = RoundJoin
		case "bevel":
			s.Stroke.Join = BevelJoin
		default:
			return fmt.Errorf("invalid stroke-linejoin %q", v)
		}
	case "stroke-linecap":
		switch v {
		case "butt":
			s.Stroke.Cap = ButtCap
		case "round":
			s.Stroke.Cap = RoundCap
		case "square":
			s.Stroke.Cap = SquareCap
		default:
			return fmt.Errorf("invalid stroke-linecap %q", v)
		}
	case "stroke-dasharray":
		s.Stroke.Dashes = nil
		if v == "none" {
			break
		}
		dashes := splitOnCommaOrSpace(v)
		if len(dashes)%2 == 1 {
			// an odd list is repeated, as for SVG
			dashes = append(dashes, dashes...)
		}
		for _, dstr := range dashes {
			d, err := parseFloat(dstr)
			if err != nil {
				return err
			}
			s.Stroke.Dashes = append(s.Stroke.Dashes, d)
		}
	case "stroke-dashoffset":
		s.Stroke.DashOffset, err = parseFloat(v)
	default:
		return c.unsupported("LineSymbolizer parameter " + k)
	}
	return err
}

func (s *PointSymbolizer) setParam(c *mapCursor, k, v string) error {
	var err error
	switch k {
	case "file":
		s.File = v
		s.Image, err = c.loadImage(v)
	case "width":
		s.Width, err = parseFloat(v)
	case "height":
		s.Height, err = parseFloat(v)
	case "opacity":
		s.Opacity, err = readOpacity(v)
	case "allow_overlap", "allow-overlap":
		s.AllowOverlap, err = parseBool(v)
	case "type":
		// format hint, the decoder sniffs the file
	default:
		return c.unsupported("PointSymbolizer parameter " + k)
	}
	return err
}

func (s *TextSymbolizer) setParam(c *mapCursor, k, v string) error {
	var err error
	switch k {
	case "name":
		// "[attr]" is accepted as well
		s.Name = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	case "face_name", "face-name":
		s.FaceName = v
	case "size":
		s.Size, err = parseFloat(v)
	case "fill":
		s.Fill, err = ParseColor(v)
	case "halo_fill", "halo-fill":
		s.HaloFill, err = ParseColor(v)
	case "halo_radius", "halo-radius":
		s.HaloRadius, err = parseFloat(v)
	case "dx":
		s.Dx, err = parseFloat(v)
	case "dy":
		s.Dy, err = parseFloat(v)
	case "displacement":
		pts := splitOnCommaOrSpace(v)
		if len(pts) != 2 {
			return fmt.Errorf("invalid displacement %q", v)
		}
		if s.Dx, err = parseFloat(pts[0]); err != nil {
			return err
		}
		s.Dy, err = parseFloat(pts[1])
	case "allow_overlap", "allow-overlap":
		s.AllowOverlap, err = parseBool(v)
	case "placement":
		if v != "point" {
			return c.unsupported("text placement " + v)
		}
	default:
		return c.unsupported("TextSymbolizer parameter " + k)
	}
	return err
}

func (c *mapCursor) loadImage(file string) (image.Image, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(c.baseDir, file)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file, err)
	}
	return img, nil
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

type startFunc func(c *mapCursor, attrs []xml.Attr) error

type endFunc func(c *mapCursor, text string) error

var startFuncs = map[string]startFunc{
	"Map":                 mapF,
	"Style":               styleF,
	"Rule":                ruleF,
	"Filter":              inRuleF,
	"ElseFilter":          elseFilterF,
	"MinScaleDenominator": inRuleF,
	"MaxScaleDenominator": inRuleF,
	"Name":                inRuleF,
	"Title":               inRuleF,
	"PolygonSymbolizer":   symbolizerF(func() Symbolizer { return NewPolygonSymbolizer(NewColor(128, 128, 128)) }),
	"LineSymbolizer":      symbolizerF(func() Symbolizer { return NewLineSymbolizer(NewStroke(NewColor(0, 0, 0), 1)) }),
	"PointSymbolizer":     symbolizerF(func() Symbolizer { return NewPointSymbolizer() }),
	"TextSymbolizer":      symbolizerF(func() Symbolizer { return NewTextSymbolizer("", "", 10, NewColor(0, 0, 0)) }),
	"CssParameter":        cssParameterF,
	"Layer":               layerF,
	"StyleName":           inLayerF,
	"Datasource":          datasourceF,
	"Parameter":           parameterF,
}

var endFuncs = map[string]endFunc{
	"Style":               endStyleF,
	"Rule":                endRuleF,
	"Filter":              endFilterF,
	"MinScaleDenominator": endMinScaleF,
	"MaxScaleDenominator": endMaxScaleF,
	"Name":                func(c *mapCursor, text string) error { c.rule.Name = text; return nil },
	"Title":               func(c *mapCursor, text string) error { c.rule.Title = text; return nil },
	"PolygonSymbolizer":   endSymbolizerF,
	"LineSymbolizer":      endSymbolizerF,
	"PointSymbolizer":     endSymbolizerF,
	"TextSymbolizer":      endSymbolizerF,
	"CssParameter":        endCssParameterF,
	"Layer":               endLayerF,
	"StyleName":           func(c *mapCursor, text string) error { c.layer.AddStyle(text); return nil },
	"Datasource":          endDatasourceF,
	"Parameter":           endParameterF,
}

func mapF(c *mapCursor, attrs []xml.Attr) error {
	if c.seenMap {
		return errors.New("nested Map element")
	}
	c.seenMap = true
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "bgcolor", "background-color":
			c.m.Background, err = ParseColor(attr.Value)
		case "srs":
			c.m.SRS = attr.Value
		case "buffer_size", "buffer-size":
			c.m.BufferSize, err = strconv.Atoi(strings.TrimSpace(attr.Value))
		default:
			err = c.unsupported("Map attribute " + attr.Name.Local)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func styleF(c *mapCursor, attrs []xml.Attr) error {
	name, ok := attrValue(attrs, "name")
	if !ok || name == "" {
		return errors.New("Style element without name")
	}
	if c.style != nil || c.layer != nil {
		return errors.New("nested Style element")
	}
	c.style, c.styleName = &FeatureTypeStyle{}, name
	return nil
}

func endStyleF(c *mapCursor, _ string) error {
	c.m.InsertStyle(c.styleName, c.style)
	c.style, c.styleName = nil, ""
	return nil
}

func ruleF(c *mapCursor, attrs []xml.Attr) error {
	if c.style == nil {
		return errors.New("Rule outside of a Style")
	}
	if c.rule != nil {
		return errors.New("nested Rule element")
	}
	c.rule = NewRule()
	if name, ok := attrValue(attrs, "name"); ok {
		c.rule.Name = name
	}
	if title, ok := attrValue(attrs, "title"); ok {
		c.rule.Title = title
	}
	return nil
}

func endRuleF(c *mapCursor, _ string) error {
	c.style.AddRule(c.rule)
	c.rule = nil
	return nil
}

func inRuleF(c *mapCursor, _ []xml.Attr) error {
	if c.rule == nil {
		return errors.New("element outside of a Rule")
	}
	return nil
}

func elseFilterF(c *mapCursor, attrs []xml.Attr) error {
	if err := inRuleF(c, attrs); err != nil {
		return err
	}
	c.rule.Else = true
	return nil
}

func endFilterF(c *mapCursor, text string) error {
	f, err := CreateFilter(text)
	if err != nil {
		return err
	}
	c.rule.SetFilter(f)
	return nil
}

func endMinScaleF(c *mapCursor, text string) (err error) {
	c.rule.MinScale, err = parseFloat(text)
	return err
}

func endMaxScaleF(c *mapCursor, text string) (err error) {
	c.rule.MaxScale, err = parseFloat(text)
	return err
}

func symbolizerF(newSym func() Symbolizer) startFunc {
	return func(c *mapCursor, attrs []xml.Attr) error {
		if c.rule == nil {
			return errors.New("symbolizer outside of a Rule")
		}
		if c.sym != nil {
			return errors.New("nested symbolizer")
		}
		c.sym = newSym()
		for _, attr := range attrs {
			if err := c.sym.setParam(c, attr.Name.Local, strings.TrimSpace(attr.Value)); err != nil {
				return err
			}
		}
		return nil
	}
}

func endSymbolizerF(c *mapCursor, text string) error {
	// inline content names the label attribute: <TextSymbolizer>[name]</TextSymbolizer>
	if ts, ok := c.sym.(*TextSymbolizer); ok && text != "" {
		if err := ts.setParam(c, "name", text); err != nil {
			return err
		}
	}
	c.rule.Append(c.sym)
	c.sym = nil
	return nil
}

func cssParameterF(c *mapCursor, attrs []xml.Attr) error {
	if c.sym == nil {
		return errors.New("CssParameter outside of a symbolizer")
	}
	c.key, _ = attrValue(attrs, "name")
	if c.key == "" {
		return errors.New("CssParameter without name")
	}
	return nil
}

func endCssParameterF(c *mapCursor, text string) error {
	err := c.sym.setParam(c, c.key, text)
	c.key = ""
	return err
}

func layerF(c *mapCursor, attrs []xml.Attr) error {
	if c.layer != nil || c.style != nil {
		return errors.New("nested Layer element")
	}
	name, _ := attrValue(attrs, "name")
	c.layer = NewLayer(name)
	c.layer.SRS = c.m.SRS
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "name":
		case "srs":
			c.layer.SRS = attr.Value
		case "status":
			c.layer.Active, err = parseBool(attr.Value)
		case "minzoom":
			c.layer.MinZoom, err = parseFloat(attr.Value)
		case "maxzoom":
			c.layer.MaxZoom, err = parseFloat(attr.Value)
		default:
			err = c.unsupported("Layer attribute " + attr.Name.Local)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func endLayerF(c *mapCursor, _ string) error {
	c.m.AddLayer(c.layer)
	c.layer = nil
	return nil
}

func inLayerF(c *mapCursor, _ []xml.Attr) error {
	if c.layer == nil {
		return errors.New("element outside of a Layer")
	}
	return nil
}

func datasourceF(c *mapCursor, attrs []xml.Attr) error {
	if err := inLayerF(c, attrs); err != nil {
		return err
	}
	if c.params != nil {
		return errors.New("nested Datasource element")
	}
	c.params = datasource.Params{}
	return nil
}

func endDatasourceF(c *mapCursor, _ string) error {
	if _, ok := c.params["base"]; !ok {
		c.params["base"] = c.baseDir
	} else if base := c.params["base"]; !filepath.IsAbs(base) {
		c.params["base"] = filepath.Join(c.baseDir, base)
	}
	ds, err := CreateDatasource(c.params)
	if err != nil {
		return err
	}
	c.layer.SetDatasource(ds)
	c.params = nil
	return nil
}

func parameterF(c *mapCursor, attrs []xml.Attr) error {
	if c.params == nil {
		return errors.New("Parameter outside of a Datasource")
	}
	c.key, _ = attrValue(attrs, "name")
	if c.key == "" {
		return errors.New("Parameter without name")
	}
	return nil
}

func endParameterF(c *mapCursor, text string) error {
	c.params[c.key] = text
	c.key = ""
	return nil
}

func (c *mapCursor) readStartElement(se xml.StartElement) error {
	c.text.Reset()
	if !c.seenMap && se.Name.Local != "Map" {
		return errNotAMap
	}
	df, ok := startFuncs[se.Name.Local]
	if !ok {
		return c.unsupported("element " + se.Name.Local)
	}
	return df(c, se.Attr)
}

func (c *mapCursor) readEndElement(se xml.EndElement) error {
	ef, ok := endFuncs[se.Name.Local]
	if !ok {
		return nil
	}
	text := strings.TrimSpace(c.text.String())
	c.text.Reset()
	return ef(c, text)
}

// LoadMapStream reads the styles and layers described by the XML
// document in stream and adds them to m.
// Relative file references (datasources, images) are resolved against baseDir.
// errMode determines if the loader ignores, errors out, or logs a warning
// when it meets an element or parameter it does not handle.
// Failures are reported as *ConfigError.
func LoadMapStream(m *Map, stream io.Reader, baseDir string, errMode ErrorMode) error {
	cursor := &mapCursor{m: m, baseDir: baseDir, errorMode: errMode}
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	skip := 0 // depth inside an unsupported element
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				if !cursor.seenMap {
					return &ConfigError{Err: errNotAMap}
				}
				return nil
			}
			return configErrorf(err, "parsing style document")
		}
		switch se := t.(type) {
		case xml.StartElement:
			if skip > 0 {
				skip++
				continue
			}
			if _, known := startFuncs[se.Name.Local]; !known && cursor.seenMap {
				if err := cursor.unsupported("element " + se.Name.Local); err != nil {
					line, _ := decoder.InputPos()
					return configErrorf(err, "style document, line %d", line)
				}
				skip = 1
				continue
			}
			if err := cursor.readStartElement(se); err != nil {
				line, _ := decoder.InputPos()
				return configErrorf(err, "style document, line %d", line)
			}
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			if err := cursor.readEndElement(se); err != nil {
				line, _ := decoder.InputPos()
				return configErrorf(err, "style document, line %d", line)
			}
		case xml.CharData:
			if skip == 0 {
				cursor.text.Write(se)
			}
		}
	}
}

// LoadMap reads the style document at path into m.
// In strict mode, unsupported elements are errors; otherwise they are logged and skipped.
func LoadMap(m *Map, path string, strict bool) error {
	fin, err := os.Open(path)
	if err != nil {
		return &ConfigError{Msg: "opening style document", Err: err}
	}
	defer fin.Close()
	mode := WarnErrorMode
	if strict {
		mode = StrictErrorMode
	}
	return LoadMapStream(m, fin, filepath.Dir(path), mode)
}
