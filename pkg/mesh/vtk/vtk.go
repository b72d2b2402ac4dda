// Package vtk writes triangle meshes as legacy ASCII VTK unstructured
// grids, readable by ParaView and VisIt.
package vtk

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// cellTriangle is the VTK_TRIANGLE cell type.
const cellTriangle = 5

// WriteTriangles writes coords (xyz per point) and conn (three point
// indices per triangle) to w.
func WriteTriangles(w io.Writer, title string, coords []float64, conn []int) error {
	if len(coords)%3 != 0 {
		return fmt.Errorf("vtk: coordinate count %d is not a multiple of 3", len(coords))
	}
	if len(conn)%3 != 0 {
		return fmt.Errorf("vtk: connectivity length %d is not a multiple of 3", len(conn))
	}
	npts := len(coords) / 3
	for _, i := range conn {
		if i < 0 || i >= npts {
			return fmt.Errorf("vtk: point index %d out of range [0,%d)", i, npts)
		}
	}
	if title == "" {
		title = "dagnav"
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n%s\nASCII\nDATASET UNSTRUCTURED_GRID\n", title)
	fmt.Fprintf(bw, "POINTS %d double\n", npts)
	for i := 0; i < len(coords); i += 3 {
		fmt.Fprintf(bw, "%g %g %g\n", coords[i], coords[i+1], coords[i+2])
	}
	ntri := len(conn) / 3
	fmt.Fprintf(bw, "CELLS %d %d\n", ntri, ntri*4)
	for i := 0; i < len(conn); i += 3 {
		fmt.Fprintf(bw, "3 %d %d %d\n", conn[i], conn[i+1], conn[i+2])
	}
	fmt.Fprintf(bw, "CELL_TYPES %d\n", ntri)
	for range ntri {
		fmt.Fprintf(bw, "%d\n", cellTriangle)
	}
	return bw.Flush()
}

// Write creates path and writes the mesh to it.
func Write(path, title string, coords []float64, conn []int) (retErr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vtk: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("vtk: %w", cerr)
		}
	}()
	return WriteTriangles(f, title, coords, conn)
}
