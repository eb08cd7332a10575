package kernel

import (
	"fmt"

	"github.com/roach88/cellcad/internal/deck"
)

// RegionKind identifies the primitive underlying a bounded region.
type RegionKind string

const (
	RegionBox       RegionKind = "box"       // Min, Max
	RegionSphere    RegionKind = "sphere"    // Center, Radius
	RegionCylinder  RegionKind = "cylinder"  // Center, Axis, Radius, HalfLength
	RegionHalfSpace RegionKind = "halfspace" // Normal·p <= Offset
)

// Region is a bounded point set the kernel can build a primitive from.
//
// Outside selects the complement of the primitive. Outside regions and
// half-spaces are clipped to the world sphere of radius World, which keeps
// every region finite.
type Region struct {
	Kind       RegionKind `json:"kind"`
	Min        deck.Vec3  `json:"min,omitempty"`
	Max        deck.Vec3  `json:"max,omitempty"`
	Center     deck.Vec3  `json:"center,omitempty"`
	Axis       deck.Vec3  `json:"axis,omitempty"`
	Normal     deck.Vec3  `json:"normal,omitempty"`
	Radius     float64    `json:"radius,omitempty"`
	HalfLength float64    `json:"half_length,omitempty"`
	Offset     float64    `json:"offset,omitempty"`
	Outside    bool       `json:"outside,omitempty"`
	World      float64    `json:"world,omitempty"`
}

// Validate checks the region is finite and well formed.
func (r Region) Validate() error {
	switch r.Kind {
	case RegionBox:
		for i := 0; i < 3; i++ {
			if r.Max[i] <= r.Min[i] {
				return fmt.Errorf("box region has empty extent on axis %d", i)
			}
		}
	case RegionSphere:
		if r.Radius <= 0 {
			return fmt.Errorf("sphere region radius must be positive, got %g", r.Radius)
		}
	case RegionCylinder:
		if r.Radius <= 0 || r.HalfLength <= 0 {
			return fmt.Errorf("cylinder region needs positive radius and length")
		}
		if r.Axis.Len() == 0 {
			return fmt.Errorf("cylinder region has zero axis")
		}
	case RegionHalfSpace:
		if r.Normal.Len() == 0 {
			return fmt.Errorf("half-space region has zero normal")
		}
	default:
		return fmt.Errorf("unknown region kind %q", r.Kind)
	}
	if (r.Outside || r.Kind == RegionHalfSpace) && r.World <= 0 {
		return fmt.Errorf("%s region needs a positive world bound", r.Kind)
	}
	return nil
}

// WorldSphere returns the region bounding all geometry of a world of the given size.
func WorldSphere(world float64) Region {
	return Region{Kind: RegionSphere, Radius: world}
}

// Cube returns an origin-centered cube with the given half-width.
func Cube(halfWidth float64) Region {
	return Region{
		Kind: RegionBox,
		Min:  deck.Vec3{-halfWidth, -halfWidth, -halfWidth},
		Max:  deck.Vec3{halfWidth, halfWidth, halfWidth},
	}
}
