package compiler

import (
	"fmt"
	"math"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cellcad/internal/deck"
)

// CompileDeck parses a CUE value into a Deck.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the deck root:
//
//	title: "pin cell"
//	surfaces: [{id: 1, type: "so", params: [5]}]
//	cells: [{id: 1, geom: "-1", material: 3, density: -2.5}]
//
// Structural checks that need the whole deck (undefined surfaces, universe
// cycles, lattice shapes) are left to Validate.
func CompileDeck(v cue.Value) (*deck.Deck, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	title := ""
	if tv := v.LookupPath(cue.ParsePath("title")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		title = norm.NFC.String(s)
	}

	surfaces, err := parseSurfaces(v)
	if err != nil {
		return nil, err
	}

	transforms, err := parseTransforms(v)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]deck.Transform, len(transforms))
	for _, t := range transforms {
		byID[t.ID] = t
	}

	cells, err := parseCells(v, byID)
	if err != nil {
		return nil, err
	}

	return deck.New(title, surfaces, transforms, cells), nil
}

func parseSurfaces(v cue.Value) ([]deck.Surface, error) {
	var surfaces []deck.Surface

	listVal := v.LookupPath(cue.ParsePath("surfaces"))
	if !listVal.Exists() {
		return surfaces, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		field := fmt.Sprintf("surfaces[%d]", i)

		id, err := requiredInt(sv, "id", field)
		if err != nil {
			return nil, err
		}
		typ, err := requiredString(sv, "type", field)
		if err != nil {
			return nil, err
		}
		params, err := floatList(sv.LookupPath(cue.ParsePath("params")))
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, deck.Surface{ID: id, Type: typ, Params: params})
	}

	return surfaces, nil
}

func parseTransforms(v cue.Value) ([]deck.Transform, error) {
	var transforms []deck.Transform

	listVal := v.LookupPath(cue.ParsePath("transforms"))
	if !listVal.Exists() {
		return transforms, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		tv := iter.Value()
		field := fmt.Sprintf("transforms[%d]", i)

		id, err := requiredInt(tv, "id", field)
		if err != nil {
			return nil, err
		}
		t, err := parseTransformBody(tv, field)
		if err != nil {
			return nil, err
		}
		t.ID = id
		transforms = append(transforms, t)
	}

	return transforms, nil
}

// parseTransformBody reads translation, rotation and degrees.
//
// Rotation is nine row-major entries. With degrees set they are angles
// between the axes and are converted to cosines.
func parseTransformBody(v cue.Value, field string) (deck.Transform, error) {
	var t deck.Transform

	if tv := v.LookupPath(cue.ParsePath("translation")); tv.Exists() {
		vec, err := vec3(tv, field+".translation")
		if err != nil {
			return t, err
		}
		t.Translation = vec
	}

	rv := v.LookupPath(cue.ParsePath("rotation"))
	if !rv.Exists() {
		return t, nil
	}
	entries, err := floatList(rv)
	if err != nil {
		return t, err
	}
	if len(entries) != 9 {
		return t, &CompileError{
			Field:   field + ".rotation",
			Message: fmt.Sprintf("rotation needs 9 entries, got %d", len(entries)),
			Pos:     rv.Pos(),
		}
	}

	degrees := false
	if dv := v.LookupPath(cue.ParsePath("degrees")); dv.Exists() {
		if degrees, err = dv.Bool(); err != nil {
			return t, formatCUEError(err)
		}
	}

	var m deck.Matrix3
	for i, e := range entries {
		if degrees {
			e = math.Cos(e * math.Pi / 180)
		}
		m[i/3][i%3] = e
	}
	t.Rotation = &m
	return t, nil
}

// parseTransformRef accepts a transform id or an inline transform.
func parseTransformRef(v cue.Value, field string, byID map[int]deck.Transform) (*deck.Transform, error) {
	if v.IncompleteKind() == cue.IntKind {
		id, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		t, ok := byID[int(id)]
		if !ok {
			return nil, &CompileError{
				Field:   "transform",
				Message: fmt.Sprintf("%s: undefined transform %d", field, id),
				Pos:     v.Pos(),
			}
		}
		return &t, nil
	}
	t, err := parseTransformBody(v, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// rawCell is a cell whose geom string has not been compiled yet.
type rawCell struct {
	cell    deck.Cell
	geom    string
	geomPos token.Pos
	field   string
}

func (rc *rawCell) container() bool {
	return strings.TrimSpace(rc.geom) == ""
}

func parseCells(v cue.Value, transforms map[int]deck.Transform) ([]deck.Cell, error) {
	listVal := v.LookupPath(cue.ParsePath("cells"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var raws []*rawCell
	for i := 0; iter.Next(); i++ {
		rc, err := parseCell(iter.Value(), fmt.Sprintf("cells[%d]", i), transforms)
		if err != nil {
			return nil, err
		}
		raws = append(raws, rc)
	}

	return compileGeoms(raws)
}

func parseCell(cv cue.Value, field string, transforms map[int]deck.Transform) (*rawCell, error) {
	rc := &rawCell{field: field}
	c := &rc.cell

	id, err := requiredInt(cv, "id", field)
	if err != nil {
		return nil, err
	}
	c.ID = id

	// A cell without geom is a pure container; Validate requires its fill.
	rc.geomPos = cv.Pos()
	if gv := cv.LookupPath(cue.ParsePath("geom")); gv.Exists() {
		if rc.geom, err = gv.String(); err != nil {
			return nil, formatCUEError(err)
		}
		rc.geomPos = gv.Pos()
	}

	if c.Material, err = optionalInt(cv, "material", 0); err != nil {
		return nil, err
	}
	if c.Density, err = optionalFloat(cv, "density", 0); err != nil {
		return nil, err
	}
	if c.Universe, err = optionalInt(cv, "universe", deck.RootUniverse); err != nil {
		return nil, err
	}

	if iv := cv.LookupPath(cue.ParsePath("importance")); iv.Exists() {
		fields, err := iv.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		c.Importances = make(map[string]float64)
		for fields.Next() {
			imp, err := fields.Value().Float64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			c.Importances[norm.NFC.String(fields.Label())] = imp
		}
	}

	if fv := cv.LookupPath(cue.ParsePath("fill")); fv.Exists() {
		fill, err := parseFill(fv, field+".fill", transforms)
		if err != nil {
			return nil, err
		}
		c.Fill = &fill
	}

	if tv := cv.LookupPath(cue.ParsePath("trcl")); tv.Exists() {
		if c.Trcl, err = parseTransformRef(tv, field+".trcl", transforms); err != nil {
			return nil, err
		}
	}

	if lv := cv.LookupPath(cue.ParsePath("lattice")); lv.Exists() {
		if c.Lattice, err = parseLattice(lv, field+".lattice", transforms); err != nil {
			return nil, err
		}
	}

	if lv := cv.LookupPath(cue.ParsePath("labels")); lv.Exists() {
		labels, err := lv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for labels.Next() {
			s, err := labels.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			c.Labels = append(c.Labels, norm.NFC.String(s))
		}
	}

	return rc, nil
}

// parseFill accepts a bare universe id or {universe, transform?}.
func parseFill(v cue.Value, field string, transforms map[int]deck.Transform) (deck.Fill, error) {
	var fill deck.Fill
	if v.IncompleteKind() == cue.IntKind {
		u, err := v.Int64()
		if err != nil {
			return fill, formatCUEError(err)
		}
		fill.Universe = int(u)
		return fill, nil
	}

	u, err := requiredInt(v, "universe", field)
	if err != nil {
		return fill, err
	}
	fill.Universe = u
	if tv := v.LookupPath(cue.ParsePath("transform")); tv.Exists() {
		if fill.Transform, err = parseTransformRef(tv, field+".transform", transforms); err != nil {
			return fill, err
		}
	}
	return fill, nil
}

func parseLattice(v cue.Value, field string, transforms map[int]deck.Transform) (*deck.Lattice, error) {
	lat := &deck.Lattice{Kind: deck.LatticeRect}

	if kv := v.LookupPath(cue.ParsePath("type")); kv.Exists() {
		kind, err := kv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch deck.LatticeKind(kind) {
		case deck.LatticeRect, deck.LatticeHex:
			lat.Kind = deck.LatticeKind(kind)
		default:
			return nil, &CompileError{
				Field:   "lattice",
				Message: fmt.Sprintf("%s.type: unknown lattice type %q", field, kind),
				Pos:     kv.Pos(),
			}
		}
	}

	pv := v.LookupPath(cue.ParsePath("pitch"))
	if !pv.Exists() {
		return nil, &CompileError{Field: "lattice", Message: field + ": pitch is required", Pos: v.Pos()}
	}
	pitches, err := pv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; pitches.Next(); i++ {
		p, err := vec3(pitches.Value(), fmt.Sprintf("%s.pitch[%d]", field, i))
		if err != nil {
			return nil, err
		}
		lat.Pitch = append(lat.Pitch, p)
	}

	if rv := v.LookupPath(cue.ParsePath("range")); rv.Exists() {
		ranges, err := rv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; ranges.Next(); i++ {
			bounds, err := intList(ranges.Value())
			if err != nil {
				return nil, err
			}
			if len(bounds) != 2 {
				return nil, &CompileError{
					Field:   "lattice",
					Message: fmt.Sprintf("%s.range[%d]: need [min, max]", field, i),
					Pos:     ranges.Value().Pos(),
				}
			}
			lat.Ranges = append(lat.Ranges, deck.IndexRange{Min: bounds[0], Max: bounds[1]})
		}
	}

	if fv := v.LookupPath(cue.ParsePath("fill")); fv.Exists() {
		fills, err := fv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; fills.Next(); i++ {
			f, err := parseFill(fills.Value(), fmt.Sprintf("%s.fill[%d]", field, i), transforms)
			if err != nil {
				return nil, err
			}
			lat.Fills = append(lat.Fills, f)
		}
	}

	return lat, nil
}

// compileGeoms turns geom strings into RPN, expanding #N references.
func compileGeoms(raws []*rawCell) ([]deck.Cell, error) {
	byID := make(map[int]*rawCell, len(raws))
	for _, rc := range raws {
		if _, dup := byID[rc.cell.ID]; !dup {
			byID[rc.cell.ID] = rc
		}
	}

	done := make(map[int][]deck.Token)
	visiting := make(map[int]bool)

	var resolve CellResolver
	resolve = func(id int) ([]deck.Token, error) {
		if toks, ok := done[id]; ok {
			return toks, nil
		}
		rc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("undefined cell %d", id)
		}
		if rc.container() {
			return nil, fmt.Errorf("cell %d has no boundary to complement", id)
		}
		if visiting[id] {
			return nil, fmt.Errorf("cell %d complements itself", id)
		}
		visiting[id] = true
		defer delete(visiting, id)

		toks, err := ParseGeom(rc.geom, resolve)
		if err != nil {
			return nil, err
		}
		done[id] = toks
		return toks, nil
	}

	cells := make([]deck.Cell, 0, len(raws))
	for _, rc := range raws {
		if rc.container() {
			cells = append(cells, rc.cell)
			continue
		}
		toks, err := ParseGeom(rc.geom, resolve)
		if err != nil {
			return nil, &CompileError{
				Field:   "geom",
				Message: fmt.Sprintf("%s (cell %d): %v", rc.field, rc.cell.ID, err),
				Pos:     rc.geomPos,
			}
		}
		c := rc.cell
		c.Geom = toks
		cells = append(cells, c)
	}
	return cells, nil
}

func requiredInt(v cue.Value, name, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("%s: %s is required", field, name),
			Pos:     v.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   name,
			Message: fmt.Sprintf("%s: %s is required", field, name),
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalInt(v cue.Value, name string, def int) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return def, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func optionalFloat(v cue.Value, name string, def float64) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return def, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}

func floatList(v cue.Value) ([]float64, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []float64
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, f)
	}
	return out, nil
}

func intList(v cue.Value) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, int(n))
	}
	return out, nil
}

func vec3(v cue.Value, field string) (deck.Vec3, error) {
	fs, err := floatList(v)
	if err != nil {
		return deck.Vec3{}, err
	}
	if len(fs) != 3 {
		return deck.Vec3{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("need 3 components, got %d", len(fs)),
			Pos:     v.Pos(),
		}
	}
	return deck.Vec3{fs[0], fs[1], fs[2]}, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
