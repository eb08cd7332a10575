package deck

// New builds a deck and indexes its cards by id.
func New(title string, surfaces []Surface, transforms []Transform, cells []Cell) *Deck {
	d := &Deck{
		Title:      title,
		Surfaces:   surfaces,
		Transforms: transforms,
		Cells:      cells,
	}
	d.Reindex()
	return d
}

// Reindex rebuilds the id lookup tables. Call after mutating card slices
// (the compiler does this once; the geometry core never mutates a deck).
func (d *Deck) Reindex() {
	d.surfaceIndex = make(map[int]int, len(d.Surfaces))
	for i, s := range d.Surfaces {
		d.surfaceIndex[s.ID] = i
	}
	d.transformIndex = make(map[int]int, len(d.Transforms))
	for i, t := range d.Transforms {
		d.transformIndex[t.ID] = i
	}
	d.cellIndex = make(map[int]int, len(d.Cells))
	for i, c := range d.Cells {
		d.cellIndex[c.ID] = i
	}
}

func (d *Deck) ensureIndex() {
	if d.surfaceIndex == nil || d.transformIndex == nil || d.cellIndex == nil {
		d.Reindex()
	}
}

// Surface looks up a surface card by id.
func (d *Deck) Surface(id int) (*Surface, bool) {
	d.ensureIndex()
	i, ok := d.surfaceIndex[id]
	if !ok {
		return nil, false
	}
	return &d.Surfaces[i], true
}

// Transform looks up a transform card by id.
func (d *Deck) Transform(id int) (*Transform, bool) {
	d.ensureIndex()
	i, ok := d.transformIndex[id]
	if !ok {
		return nil, false
	}
	return &d.Transforms[i], true
}

// Cell looks up a cell card by id.
func (d *Deck) Cell(id int) (*Cell, bool) {
	d.ensureIndex()
	i, ok := d.cellIndex[id]
	if !ok {
		return nil, false
	}
	return &d.Cells[i], true
}

// CellsOfUniverse returns the cells of universe u in declaration order.
func (d *Deck) CellsOfUniverse(u int) []*Cell {
	var cells []*Cell
	for i := range d.Cells {
		if d.Cells[i].Universe == u {
			cells = append(cells, &d.Cells[i])
		}
	}
	return cells
}

// Universes returns every universe id in order of first appearance.
func (d *Deck) Universes() []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range d.Cells {
		if !seen[c.Universe] {
			seen[c.Universe] = true
			out = append(out, c.Universe)
		}
	}
	return out
}
