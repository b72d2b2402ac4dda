package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chazu/dagnav/pkg/dagmc"
)

func materialsCmd(a *app) *cobra.Command {
	var material string

	cmd := &cobra.Command{
		Use:   "materials FILE",
		Short: "List volumes by material",
		Long: `Lists every material with the IDs of its volumes. With --material, lists
only the volumes of that material and suggests close names when it is
missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.open(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if material != "" {
				vols, err := m.FindVolumesByMaterial(material)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s: %s\n", material, joinIDs(vols))
				return nil
			}
			return printMaterials(w, m)
		},
	}
	cmd.Flags().StringVarP(&material, "material", "m", "", "Only list volumes of this material")
	return cmd
}

func printMaterials(w io.Writer, m *dagmc.Model) error {
	byMat, err := m.VolumesByMaterial()
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(byMat)) {
		fmt.Fprintf(w, "%s: %s\n", name, joinIDs(byMat[name]))
	}
	without, err := m.VolumesWithoutMaterial()
	if err != nil {
		return err
	}
	if len(without) > 0 {
		fmt.Fprintf(w, "(none): %s\n", joinIDs(without))
	}
	return nil
}

// joinIDs renders volume IDs in ascending order.
func joinIDs(vols []*dagmc.Volume) string {
	ids := make([]int, 0, len(vols))
	for _, v := range vols {
		if id, err := v.ID(); err == nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " "
		}
		out += strconv.Itoa(id)
	}
	return out
}

func setMaterialCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "set-material FILE VOLUME_ID MATERIAL",
		Short: "Assign a material to a volume",
		Long: `Moves the volume into the mat:MATERIAL group, creating the group if
needed, and writes the model back to FILE or to --output.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("volume ID %q: %w", args[1], err)
			}
			m, err := a.open(args[0])
			if err != nil {
				return err
			}
			vols, err := m.VolumesByID()
			if err != nil {
				return err
			}
			v, ok := vols[id]
			if !ok {
				return fmt.Errorf("no volume with ID %d: %w", id, dagmc.ErrNotFound)
			}
			if err := v.SetMaterial(args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Volume %d: material %s\n", id, args[2])
			return a.save(m, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to this file instead of FILE")
	return cmd
}
