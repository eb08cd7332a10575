package cli

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cellcad/internal/volume"
)

// SurfacesOptions holds flags for the surfaces command.
type SurfacesOptions struct {
	*RootOptions
	ByDistance bool
}

// SurfacesResult lists how far each surface reaches from the origin.
type SurfacesResult struct {
	World       float64                  `json:"world"`
	Translation float64                  `json:"max_translation"`
	Surfaces    []volume.SurfaceDistance `json:"surfaces"`
	Unbounded   int                      `json:"unbounded"`
}

// NewSurfacesCommand creates the surfaces command.
func NewSurfacesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SurfacesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "surfaces <deck-dir>",
		Short: "Report surface extents and the world size",
		Long: `Report the farthest extent of every surface in a deck and the world
radius the builder will use to bound half-spaces.

Surfaces the builder cannot bound are listed with the reason.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurfaces(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ByDistance, "by-distance", false, "sort farthest first")

	return cmd
}

func runSurfaces(opts *SurfacesOptions, deckDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	d, err := loadDeck(deckDir)
	if err != nil {
		return reportError(formatter, ExitCommandError, loadCode(err), err.Error())
	}

	result := SurfacesResult{
		World:       volume.WorldSize(d),
		Translation: volume.MaxTranslation(d),
		Surfaces:    volume.Distances(d),
	}
	for _, s := range result.Surfaces {
		if s.Error != "" {
			result.Unbounded++
		}
	}
	if opts.ByDistance {
		slices.SortStableFunc(result.Surfaces, func(a, b volume.SurfaceDistance) int {
			return cmp.Compare(b.Distance, a.Distance)
		})
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%-8s %-6s %s\n", "SURFACE", "TYPE", "DISTANCE")
	for _, s := range result.Surfaces {
		if s.Error != "" {
			fmt.Fprintf(w, "%-8d %-6s unbounded (%s)\n", s.ID, s.Type, s.Error)
			continue
		}
		fmt.Fprintf(w, "%-8d %-6s %g\n", s.ID, s.Type, s.Distance)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "World radius: %g (max translation %g)\n", result.World, result.Translation)
	if result.Unbounded > 0 {
		fmt.Fprintf(w, "%s cannot be bounded\n", formatCount(result.Unbounded, "surface"))
	}
	return nil
}
