package sppt

import (
	"fmt"
	"io"
	"math"
)

// WriteSummary prints the formatted overlap statistics block. Kept apart
// from ComputeIndices so the computation stays a pure function and callers
// that want no console output simply never invoke this.
func WriteSummary(w io.Writer, idx Indices, fixBase, usePercentages bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Spatial Pattern Overlap Statistics")
	if fixBase {
		fmt.Fprintln(w, "Mode: Fixed Base (Test randomized)")
	}
	if usePercentages {
		fmt.Fprintln(w, "Using: Percentages (spatial distribution)")
	} else {
		fmt.Fprintln(w, "Using: Counts (absolute values)")
	}
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "S-Index:           %.4f\n", idx.SIndex)
	if math.IsNaN(idx.RobustSIndex) {
		fmt.Fprintln(w, "Robust S-Index:    N/A")
	} else {
		fmt.Fprintf(w, "Robust S-Index:    %.4f\n", idx.RobustSIndex)
	}
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Total observations:                 %d\n", idx.TotalObs)
	fmt.Fprintf(w, "Observations with overlap:          %d\n", idx.OverlapObs)
	fmt.Fprintf(w, "Observations with non-zero counts:  %d\n", idx.NonZeroObs)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w)
}
