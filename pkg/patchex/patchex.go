// Package patchex extracts a fixed-size cubic patch centered on a volume's
// geometric middle index. The crop is independent of any detected region of
// interest: nodule localization is deliberately not part of this pipeline.
package patchex

import (
	"noduleprep/internal/models"
)

// DefaultTargetSize is the cubic edge length handed to the classifier.
const DefaultTargetSize = 64

// axisWindow is a clamped crop interval along one axis.
type axisWindow struct {
	start, end int
}

// window computes [center-half, center+half) clamped to [0, length).
// A window that would extend past either boundary is truncated, not shifted,
// which can yield an asymmetric crop near volume edges.
func window(length, half int) axisWindow {
	center := length / 2
	w := axisWindow{start: center - half, end: center + half}
	if w.start < 0 {
		w.start = 0
	}
	if w.end > length {
		w.end = length
	}
	return w
}

func (w axisWindow) len() int {
	return w.end - w.start
}

// padding splits the shortfall toward targetSize as evenly as possible,
// the extra odd unit going to the "after" side.
func padding(cropped, targetSize int) (before, after int) {
	deficit := targetSize - cropped
	if deficit <= 0 {
		return 0, 0
	}
	return deficit / 2, (deficit + 1) / 2
}

// ExtractCenter crops the volume to a cube of targetSize voxels around its
// geometric center, zero-padding any axis the source cannot fill. Volumes
// smaller than the target are padded to fill rather than rejected.
// The extraction is deterministic: identical inputs produce identical
// patches.
func ExtractCenter(vol *models.Volume, targetSize int) *models.Patch {
	half := targetSize / 2

	wd := window(vol.Depth, half)
	wh := window(vol.Height, half)
	ww := window(vol.Width, half)

	padD, _ := padding(wd.len(), targetSize)
	padH, _ := padding(wh.len(), targetSize)
	padW, _ := padding(ww.len(), targetSize)

	patch := &models.Patch{
		Data: make([]float64, targetSize*targetSize*targetSize),
		Size: targetSize,
	}

	// Copy the cropped region into the zero-filled cube at the pad offset.
	// Cropped extents never exceed targetSize (the window spans at most
	// 2*half voxels), so no bounds check is needed on the destination.
	for z := 0; z < wd.len(); z++ {
		for y := 0; y < wh.len(); y++ {
			srcRow := (wd.start+z)*vol.Height*vol.Width + (wh.start+y)*vol.Width + ww.start
			dstRow := (padD+z)*targetSize*targetSize + (padH+y)*targetSize + padW
			copy(patch.Data[dstRow:dstRow+ww.len()], vol.Data[srcRow:srcRow+ww.len()])
		}
	}

	return patch
}
