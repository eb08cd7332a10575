package memkernel

import (
	"encoding/json"
	"io"

	"github.com/roach88/cellcad/internal/kernel"
)

// Document is the exported model.
type Document struct {
	Bodies []BodyRecord  `json:"bodies"`
	Groups []GroupRecord `json:"groups"`
}

// BodyRecord is one exported solid.
type BodyRecord struct {
	Handle kernel.Handle `json:"handle"`
	Name   string        `json:"name,omitempty"`
	Bounds kernel.Box    `json:"bounds"`
}

// GroupRecord is one exported group.
type GroupRecord struct {
	Name    string          `json:"name"`
	Members []kernel.Handle `json:"members"`
}

// Snapshot returns the current model. Bodies are in slot order and
// groups in creation order.
func (k *Kernel) Snapshot() Document {
	doc := Document{Bodies: []BodyRecord{}, Groups: []GroupRecord{}}
	for _, h := range k.Bodies() {
		b := k.lookup(h)
		bounds := b.node.bounds()
		if bounds.IsEmpty() {
			bounds = kernel.Box{}
		}
		doc.Bodies = append(doc.Bodies, BodyRecord{Handle: h, Name: b.name, Bounds: bounds})
	}
	for _, g := range k.groups {
		doc.Groups = append(doc.Groups, GroupRecord{Name: g.name, Members: append([]kernel.Handle(nil), g.members...)})
	}
	return doc
}

// Export writes the model as indented JSON.
func (k *Kernel) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(k.Snapshot())
}
