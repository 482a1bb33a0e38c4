package batch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// IncompleteSweepError reports an export attempted before every ball of
// the sweep exists.
type IncompleteSweepError struct {
	Expected int
	Actual   int
}

func (e *IncompleteSweepError) Error() string {
	return fmt.Sprintf("%d balls expected, %d balls found", e.Expected, e.Actual)
}

// ExportHeader describes the sweep an export belongs to.
type ExportHeader struct {
	Divisions  int
	Ranges     Ranges
	BallRadius float32
	GoalRadius float32
}

// WriteExport writes the landing distances of a complete sweep: nine
// header lines, a blank line, then one block per power of one line per
// yaw holding the distances per pitch. Blocks are separated by a blank
// line. distances must be in sweep order. For an incomplete sweep a single
// ERROR line is written and an *IncompleteSweepError returned.
func WriteExport(w io.Writer, h ExportHeader, distances []float32) error {
	bw := bufio.NewWriter(w)
	n := h.Divisions
	expected := n * n * n
	if n < 1 || len(distances) != expected {
		err := &IncompleteSweepError{Expected: expected, Actual: len(distances)}
		fmt.Fprintf(bw, "ERROR: %s.\n", err.Error())
		if ferr := bw.Flush(); ferr != nil {
			return ferr
		}
		return err
	}

	fmt.Fprintln(bw, n)
	for _, v := range []float32{
		h.Ranges.Power.Min, h.Ranges.Power.Max,
		h.Ranges.Yaw.Min, h.Ranges.Yaw.Max,
		h.Ranges.Pitch.Min, h.Ranges.Pitch.Max,
		h.BallRadius, h.GoalRadius,
	} {
		fmt.Fprintln(bw, formatValue(v))
	}
	fmt.Fprintln(bw)

	for p := 0; p < n; p++ {
		if p > 0 {
			fmt.Fprintln(bw)
		}
		for y := 0; y < n; y++ {
			row := distances[(p*n+y)*n : (p*n+y+1)*n]
			for q, d := range row {
				if q > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(formatValue(d))
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// formatValue prints v with six significant digits, dropping trailing
// zeros.
func formatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', 6, 64)
}
