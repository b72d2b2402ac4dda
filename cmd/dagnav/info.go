package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/chazu/dagnav/pkg/dagmc"
)

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Summarize volumes, surfaces and groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.open(args[0])
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), m)
		},
	}
}

func printInfo(w io.Writer, m *dagmc.Model) error {
	fmt.Fprintln(w, m.String())
	if tol, ok, err := m.FacetingTolerance(); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(w, "Faceting tolerance: %g\n", tol)
	}

	vols, err := m.VolumesByID()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nVolumes:")
	for _, id := range slices.Sorted(maps.Keys(vols)) {
		v := vols[id]
		mat, ok, err := v.Material()
		if err != nil {
			return err
		}
		if !ok {
			mat = "-"
		}
		surfs, err := v.SurfacesByID()
		if err != nil {
			return err
		}
		size, err := v.Volume()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-6d material=%-12s surfaces=%-4d volume=%.6g\n", id, mat, len(surfs), size)
	}

	surfs, err := m.SurfacesByID()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nSurfaces:")
	for _, id := range slices.Sorted(maps.Keys(surfs)) {
		s := surfs[id]
		senses, err := s.Senses()
		if err != nil {
			return err
		}
		bc, ok, err := s.Boundary()
		if err != nil {
			return err
		}
		if !ok {
			bc = "-"
		}
		fmt.Fprintf(w, "  %-6d senses=[%s %s] boundary=%s\n", id, volumeLabel(senses[0]), volumeLabel(senses[1]), bc)
	}

	groups, err := m.GroupsByName()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nGroups:")
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		fmt.Fprintf(w, "  %s\n", groups[name])
	}
	return nil
}

func volumeLabel(v *dagmc.Volume) string {
	if v == nil {
		return "-"
	}
	id, err := v.ID()
	if err != nil {
		return "?"
	}
	return fmt.Sprint(id)
}
