// Package npystream writes example arrays with the npyappend streaming
// writer. It holds the configuration and logging used by the command.
package npystream

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/usnistgov/npystream/npyappend"
)

// IncArrayPath returns where WriteIncArray puts an array of the given shape.
func IncArrayPath(dir string, rows, cols int) string {
	return filepath.Join(dir, fmt.Sprintf("inc_array_%d_%d.npy", rows, cols))
}

// WriteIncArray streams a cfg.Rows x cfg.Cols array whose element (i, j)
// is i*cols+j, one row at a time, and returns the file's path. The output
// directory is created if needed.
func WriteIncArray(cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0775); err != nil {
		return "", err
	}
	fname := IncArrayPath(cfg.OutputDir, cfg.Rows, cfg.Cols)
	opts := npyappend.Options{
		BufferSize:      cfg.BufferSize,
		CheckpointEvery: cfg.CheckpointEvery,
		Atomic:          cfg.Atomic,
	}

	// Accumulate in float32 so large values round exactly as a float32
	// array incremented in place would.
	row := make([]float32, cfg.Cols)
	for j := range row {
		row[j] = float32(j)
	}
	step := float32(cfg.Cols)
	err := npyappend.WithStream(fname, cfg.Cols, opts, func(s *npyappend.Stream) error {
		for i := 0; i < cfg.Rows; i++ {
			if err := s.WriteRow(row); err != nil {
				return err
			}
			advanceIncRow(row, step)
		}
		return nil
	})
	if err != nil {
		ProblemLogger.Printf("writing %s: %v", fname, err)
		return fname, err
	}
	if cfg.Verify {
		info, err := npyappend.Inspect(fname)
		if err != nil {
			return fname, err
		}
		if info.Rows != cfg.Rows || info.Cols != cfg.Cols {
			return fname, fmt.Errorf("%s has shape (%d, %d), want (%d, %d)",
				fname, info.Rows, info.Cols, cfg.Rows, cfg.Cols)
		}
	}
	return fname, nil
}

// advanceIncRow adds step to every element of row, in float32.
func advanceIncRow(row []float32, step float32) {
	for j := range row {
		row[j] += step
	}
}
