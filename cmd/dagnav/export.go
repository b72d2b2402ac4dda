package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/dagnav/pkg/dagmc"
	"github.com/chazu/dagnav/pkg/mesh"
)

func exportVTKCmd(a *app) *cobra.Command {
	var (
		volumes  []int
		surfaces []int
		groups   []string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "export-vtk FILE",
		Short: "Write triangles of selected sets as legacy VTK",
		Long: `Writes the triangles of the selected volumes, surfaces and groups to a
.vtk file. With no selection the whole model is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.EqualFold(filepath.Ext(out), ".vtk") {
				return fmt.Errorf("output %q must end in .vtk", out)
			}
			m, err := a.open(args[0])
			if err != nil {
				return err
			}
			sets, err := selectSets(m, volumes, surfaces, groups)
			if err != nil {
				return err
			}
			if err := m.Backend().WriteFile(out, sets...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&volumes, "volume", nil, "Volume IDs to export")
	cmd.Flags().IntSliceVar(&surfaces, "surface", nil, "Surface IDs to export")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "Group names to export")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output .vtk file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func selectSets(m *dagmc.Model, volumes, surfaces []int, groups []string) ([]mesh.Handle, error) {
	var sets []mesh.Handle
	if len(volumes) > 0 {
		byID, err := m.VolumesByID()
		if err != nil {
			return nil, err
		}
		for _, id := range volumes {
			v, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("no volume with ID %d: %w", id, dagmc.ErrNotFound)
			}
			sets = append(sets, v.Handle())
		}
	}
	if len(surfaces) > 0 {
		byID, err := m.SurfacesByID()
		if err != nil {
			return nil, err
		}
		for _, id := range surfaces {
			s, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("no surface with ID %d: %w", id, dagmc.ErrNotFound)
			}
			sets = append(sets, s.Handle())
		}
	}
	if len(groups) > 0 {
		byName, err := m.GroupsByName()
		if err != nil {
			return nil, err
		}
		for _, name := range groups {
			g, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("no group named %q: %w", name, dagmc.ErrNotFound)
			}
			sets = append(sets, g.Handle())
		}
	}
	return sets, nil
}
