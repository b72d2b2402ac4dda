package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/dagnav/pkg/dagmc"
	"github.com/chazu/dagnav/pkg/kernel/sdfx"
	"github.com/chazu/dagnav/pkg/tessellate"
)

func demoCmd(a *app) *cobra.Command {
	var (
		out   string
		cells int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a small sample model",
		Long: `Tessellates a fuel rod and a water sphere with the sdfx kernel, adds an
empty graveyard volume, and saves the model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.newModel()
			if err != nil {
				return err
			}
			if err := buildDemo(m, sdfx.New(sdfx.WithCells(cells))); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.String())
			return a.save(m, "", out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output model file")
	cmd.Flags().IntVar(&cells, "cells", sdfx.DefaultMeshCells, "Marching-cubes cells along the longest axis")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func buildDemo(m *dagmc.Model, k *sdfx.SdfxKernel) error {
	if _, err := tessellate.ImportSolid(m, k, k.Cylinder(20, 5), "fuel"); err != nil {
		return fmt.Errorf("fuel rod: %w", err)
	}
	sphere := k.Translate(k.Sphere(4), 15, 0, 0)
	if _, err := tessellate.ImportSolid(m, k, sphere, "water"); err != nil {
		return fmt.Errorf("water sphere: %w", err)
	}
	grave, err := m.CreateVolume()
	if err != nil {
		return err
	}
	if err := grave.SetMaterial("Graveyard"); err != nil {
		return err
	}
	return m.SetFacetingTolerance(1e-3)
}
