package terrain

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// NoiseParams controls procedural height generation.
type NoiseParams struct {
	Seed      int64
	Frequency float32 // world units per noise period; larger is smoother
	Amplitude float32 // peak height deviation
}

// Generate builds a grid whose samples follow 2D simplex noise:
// h = Amplitude * noise(x/Frequency, z/Frequency). A zero amplitude yields a
// flat grid.
func Generate(numCols, numRows int, width, height float32, p NoiseParams) (*HeightGrid, error) {
	if numCols <= 0 || numRows <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells", ErrInvalidGrid, numCols, numRows)
	}
	if p.Frequency <= 0 {
		return nil, fmt.Errorf("%w: noise frequency %g must be positive", ErrInvalidGrid, p.Frequency)
	}

	noise := opensimplex.New(p.Seed)
	cellW := float64(width) / float64(numCols)
	cellH := float64(height) / float64(numRows)
	freq := float64(p.Frequency)

	heights := make([]float32, (numCols+1)*(numRows+1))
	for row := 0; row <= numRows; row++ {
		z := float64(row) * cellH
		for col := 0; col <= numCols; col++ {
			x := float64(col) * cellW
			heights[row*(numCols+1)+col] = p.Amplitude * float32(noise.Eval2(x/freq, z/freq))
		}
	}
	return New(numCols, numRows, width, height, heights)
}
