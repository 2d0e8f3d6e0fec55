// Package decomp implements the nested fixed-effects variance
// decomposition: the projection engine, the incremental share
// arithmetic, and the sweep over runs.
package decomp

import (
	"fmt"
	"math"

	"github.com/dbsmedya/godecomp/internal/keys"
)

// NumSpecs is the number of nested specifications fit per run.
const NumSpecs = 6

const (
	// demeanTol bounds the largest group-mean adjustment of one full
	// alternating-projection sweep; below it the residual has converged.
	demeanTol = 1e-10

	// maxDemeanIters caps the alternating-projection sweeps. Reached
	// only on pathologically ill-conditioned group structures.
	maxDemeanIters = 1000

	// zeroVarTol is the smallest total sum of squares treated as real
	// variation. Below it the R-squared sequence is undefined.
	zeroVarTol = 1e-12
)

// FitResult holds the output of one nested projection run: the
// R-squared sequence in saturation order, and the size and industry
// coverage of the aligned estimation sample shared by all six fits.
type FitResult struct {
	R2            [NumSpecs]float64
	SampleSize    int
	IndustryCount int
}

// specSets returns the fixed-effect sets of the six specifications in
// saturation order. Later specifications strictly nest earlier ones.
func specSets(ks *keys.Set) [NumSpecs][][]int {
	return [NumSpecs][][]int{
		{ks.Time},
		{ks.Time, ks.Industry},
		{ks.IndustryTime},
		{ks.IndustryTime, ks.Tech},
		{ks.IndustryTime, ks.TechTime},
		{ks.IndustryTime, ks.TechTime, ks.Entity},
	}
}

// EstimableRows returns the mask of rows on which every fixed-effect
// group in feSets has at least two members. Removing a singleton row
// can create new singletons, so the pruning iterates to a fixed point.
func EstimableRows(n int, feSets [][]int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}

	for {
		changed := false
		for _, fe := range feSets {
			counts := map[int]int{}
			for i, g := range fe {
				if mask[i] {
					counts[g]++
				}
			}
			for i, g := range fe {
				if mask[i] && counts[g] < 2 {
					mask[i] = false
					changed = true
				}
			}
		}
		if !changed {
			return mask
		}
	}
}

// FitNested fits the six nested specifications for one outcome.
//
// The most saturated specification is resolved first: its estimable
// sample becomes the frozen sample for every other specification, so
// all six R-squared values are computed on exactly the same rows.
func FitNested(y []float64, ks *keys.Set) (*FitResult, error) {
	n := ks.NumRows()
	if len(y) != n {
		return nil, fmt.Errorf("outcome length %d does not match key set rows %d", len(y), n)
	}
	if n == 0 {
		return nil, &EmptySampleError{Reason: "no rows in sample"}
	}

	sets := specSets(ks)
	mask := EstimableRows(n, sets[NumSpecs-1])

	sampleSize := 0
	for _, keep := range mask {
		if keep {
			sampleSize++
		}
	}
	if sampleSize == 0 {
		return nil, &EmptySampleError{Reason: "all rows fall in singleton groups of the saturated specification"}
	}

	// Compact the outcome and every fixed-effect dimension onto the
	// aligned sample.
	ys := make([]float64, 0, sampleSize)
	for i, keep := range mask {
		if keep {
			ys = append(ys, y[i])
		}
	}

	compact := func(fe []int) []int {
		out := make([]int, 0, sampleSize)
		for i, keep := range mask {
			if keep {
				out = append(out, fe[i])
			}
		}
		return out
	}

	mean := 0.0
	for _, v := range ys {
		mean += v
	}
	mean /= float64(sampleSize)

	sst := 0.0
	for _, v := range ys {
		d := v - mean
		sst += d * d
	}
	if sst <= zeroVarTol {
		return nil, &EmptySampleError{Reason: "outcome has zero variance on the aligned sample"}
	}

	result := &FitResult{
		SampleSize:    sampleSize,
		IndustryCount: ks.DistinctIndustries(mask),
	}

	for s := 0; s < NumSpecs; s++ {
		feSets := make([][]int, len(sets[s]))
		for j, fe := range sets[s] {
			feSets[j] = compact(fe)
		}
		result.R2[s] = rsquared(ys, sst, feSets)
	}

	return result, nil
}

// rsquared computes the coefficient of determination of the projection
// of y onto the dummy-coded group memberships in feSets, by iterated
// group-mean demeaning (alternating projections). A single set
// converges in one sweep; additive sets alternate until the largest
// adjustment falls below tolerance.
func rsquared(y []float64, sst float64, feSets [][]int) float64 {
	resid := make([]float64, len(y))
	copy(resid, y)

	// Per-set accumulators sized by the largest group id.
	sums := make([][]float64, len(feSets))
	counts := make([][]float64, len(feSets))
	for j, fe := range feSets {
		maxID := 0
		for _, g := range fe {
			if g > maxID {
				maxID = g
			}
		}
		sums[j] = make([]float64, maxID+1)
		counts[j] = make([]float64, maxID+1)
		for _, g := range fe {
			counts[j][g]++
		}
	}

	for iter := 0; iter < maxDemeanIters; iter++ {
		maxAdj := 0.0
		for j, fe := range feSets {
			s := sums[j]
			for g := range s {
				s[g] = 0
			}
			for i, g := range fe {
				s[g] += resid[i]
			}
			for i, g := range fe {
				adj := s[g] / counts[j][g]
				resid[i] -= adj
				if a := math.Abs(adj); a > maxAdj {
					maxAdj = a
				}
			}
		}
		if maxAdj < demeanTol {
			break
		}
	}

	ssr := 0.0
	for _, r := range resid {
		ssr += r * r
	}
	return 1 - ssr/sst
}
