package geometry

import (
	"fmt"
	"math"
)

// GraveyardGroup names the group holding the graveyard shell.
const (
	GraveyardGroup     = "graveyard"
	GraveyardGroupUWUW = "mat:Graveyard"
)

// MaterialGroupName returns the group name of a material/density pair.
//
// The default scheme is mat_<m>_rho_<rho>. The UWUW scheme encodes mass
// densities (negative input) as mat:m<m>/rho:<|rho|> and atom densities as
// mat:m<m>/atom:<rho>.
func MaterialGroupName(material int, density float64, uwuw bool) string {
	if !uwuw {
		return fmt.Sprintf("mat_%d_rho_%.6g", material, density)
	}
	if density <= 0 {
		return fmt.Sprintf("mat:m%d/rho:%E", material, math.Abs(density))
	}
	return fmt.Sprintf("mat:m%d/atom:%E", material, density)
}

// ImportanceGroupName returns the group name of a particle importance.
func ImportanceGroupName(particle string, value float64) string {
	return fmt.Sprintf("imp.%s_%.6g", particle, value)
}

// CellName returns the kernel-visible name of a cell's solids.
func CellName(cellID int) string {
	return fmt.Sprintf("CELL_ID_%d", cellID)
}

func graveyardGroupName(uwuw bool) string {
	if uwuw {
		return GraveyardGroupUWUW
	}
	return GraveyardGroup
}
