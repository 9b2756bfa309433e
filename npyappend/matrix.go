package npyappend

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// WriteVector appends v as one row, converting each element to float32.
func (s *Stream) WriteVector(v mat.Vector) error {
	if v.Len() != s.ncols {
		return fmt.Errorf("%w: have %d values, want %d", ErrRowLength, v.Len(), s.ncols)
	}
	row := s.scratchRow()
	for i := range row {
		row[i] = float32(v.AtVec(i))
	}
	return s.WriteRow(row)
}

// WriteMatrix appends every row of m in order. It stops at the first error;
// rows already written stay written.
func (s *Stream) WriteMatrix(m mat.Matrix) error {
	r, c := m.Dims()
	if c != s.ncols {
		return fmt.Errorf("%w: matrix has %d columns, want %d", ErrRowLength, c, s.ncols)
	}
	row := s.scratchRow()
	for i := 0; i < r; i++ {
		for j := range row {
			row[j] = float32(m.At(i, j))
		}
		if err := s.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) scratchRow() []float32 {
	if s.rowf32 == nil {
		s.rowf32 = make([]float32, s.ncols)
	}
	return s.rowf32
}
