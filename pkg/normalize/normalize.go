// Package normalize rescales raw Hounsfield-Unit intensities into [0,1]
// using a fixed clinical lung window. The window bounds are a design
// constant of the pipeline; callers needing other windows are out of scope.
package normalize

import (
	"context"

	"golang.org/x/sync/errgroup"

	"noduleprep/internal/models"
)

// Fixed clinical lung window in Hounsfield Units.
const (
	DefaultMinHU = -1000.0
	DefaultMaxHU = 400.0
)

// Normalizer clips volume intensities to a HU window and rescales them
// linearly to [0,1].
type Normalizer struct {
	minHU   float64
	maxHU   float64
	workers int
}

// New builds a normalizer for the given window. Workers bounds the number
// of goroutines used to process slices; values below 1 mean single-threaded.
func New(minHU, maxHU float64, workers int) *Normalizer {
	if workers < 1 {
		workers = 1
	}
	return &Normalizer{minHU: minHU, maxHU: maxHU, workers: workers}
}

// Apply returns a new volume with every sample clipped to [minHU, maxHU] and
// rescaled as (v - minHU) / (maxHU - minHU). The input volume is never
// modified. Slices are processed in parallel across disjoint output ranges,
// so the result is byte-identical regardless of worker count.
func (n *Normalizer) Apply(ctx context.Context, vol *models.Volume) (*models.Volume, error) {
	out := models.NewVolume(vol.Depth, vol.Height, vol.Width, vol.Spacing)

	sliceLen := vol.Height * vol.Width
	scale := n.maxHU - n.minHU

	// Divide the slices among the available workers, handing each a
	// contiguous range so writes never overlap.
	slicesPerWorker := (vol.Depth + n.workers - 1) / n.workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < n.workers; w++ {
		start := w * slicesPerWorker
		end := start + slicesPerWorker
		if end > vol.Depth {
			end = vol.Depth
		}
		if start >= end {
			break
		}

		g.Go(func() error {
			for z := start; z < end; z++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				base := z * sliceLen
				for i := base; i < base+sliceLen; i++ {
					v := vol.Data[i]
					if v < n.minHU {
						v = n.minHU
					} else if v > n.maxHU {
						v = n.maxHU
					}
					out.Data[i] = (v - n.minHU) / scale
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
