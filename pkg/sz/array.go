package sz

// Array2D is a dense row-major float32 array returned by the single-slice
// read operations.
type Array2D struct {
	Data       []float32
	Rows, Cols int
}

// At returns the value at (row, col).
func (a Array2D) At(r, c int) float32 { return a.Data[r*a.Cols+c] }

// Array3D is a dense row-major float32 array with axes
// (inline, crossline, z), z varying fastest.
type Array3D struct {
	Data       []float32
	Ni, Nx, Nz int
}

// At returns the value at (inline, crossline, z).
func (a Array3D) At(i, x, z int) float32 { return a.Data[(i*a.Nx+x)*a.Nz+z] }
