package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Grid holds raw decoded samples before dimensionality normalization.
// Decoders produce a Grid with 2 or 3 spatial dimensions; the loader is
// responsible for validating and promoting it to a 3D Volume.
type Grid struct {
	// Data is the raw sample data, row-major with the first dimension slowest.
	Data []float64

	// Dims holds the length of each spatial dimension, outermost first.
	Dims []int

	// Spacing is the physical voxel size in mm, one scale factor per axis.
	// Only the diagonal scale terms of the source affine are modeled.
	Spacing [3]float64
}

// Volume represents a 3D block of intensity samples plus per-axis spacing.
// Dimensionality is always exactly 3; 2D sources are promoted with a leading
// singleton depth axis before a Volume is constructed.
type Volume struct {
	// Data is the volume samples as a 1D array in row-major order,
	// indexed as z*Height*Width + y*Width + x.
	Data []float64

	// Depth, Height and Width are the lengths of the three spatial axes.
	Depth  int
	Height int
	Width  int

	// Spacing is the physical voxel size in mm along each axis.
	Spacing [3]float64
}

// NewVolume allocates a zero-filled volume with the given dimensions.
func NewVolume(depth, height, width int, spacing [3]float64) *Volume {
	return &Volume{
		Data:    make([]float64, depth*height*width),
		Depth:   depth,
		Height:  height,
		Width:   width,
		Spacing: spacing,
	}
}

// At returns the sample at the given voxel coordinates.
func (v *Volume) At(z, y, x int) float64 {
	return v.Data[z*v.Height*v.Width+y*v.Width+x]
}

// Set stores a sample at the given voxel coordinates.
func (v *Volume) Set(z, y, x int, value float64) {
	v.Data[z*v.Height*v.Width+y*v.Width+x] = value
}

// Len returns the total number of voxels.
func (v *Volume) Len() int {
	return v.Depth * v.Height * v.Width
}

// VolumeStats summarizes the intensity distribution of a volume.
type VolumeStats struct {
	Min  float64
	Max  float64
	Mean float64
}

// Stats computes the intensity range and mean of the volume.
func (v *Volume) Stats() VolumeStats {
	if len(v.Data) == 0 {
		return VolumeStats{}
	}
	return VolumeStats{
		Min:  floats.Min(v.Data),
		Max:  floats.Max(v.Data),
		Mean: stat.Mean(v.Data, nil),
	}
}

// Patch is a fixed-size cubic crop of a normalized volume, the unit handed
// to the classifier. The trailing singleton channel axis is implicit in the
// data layout and reported by Shape.
type Patch struct {
	// Data is the patch samples, row-major, Size*Size*Size values.
	Data []float64

	// Size is the cubic edge length.
	Size int
}

// Shape returns the patch shape including the trailing channel axis.
func (p *Patch) Shape() [4]int {
	return [4]int{p.Size, p.Size, p.Size, 1}
}

// Tensor is a batched patch ready for model input. The orchestrator produces
// tensors of shape (1, size, size, size, 1).
type Tensor struct {
	// Data is the tensor samples in row-major order.
	Data []float64

	// Shape is the full tensor shape including batch and channel axes.
	Shape []int
}

// NewTensor wraps a patch with a leading singleton batch axis. The patch
// data is copied so the tensor never aliases the patch buffer.
func NewTensor(p *Patch) *Tensor {
	data := make([]float64, len(p.Data))
	copy(data, p.Data)
	return &Tensor{
		Data:  data,
		Shape: []int{1, p.Size, p.Size, p.Size, 1},
	}
}

// Stats computes the intensity range and mean of the tensor samples.
func (t *Tensor) Stats() VolumeStats {
	if len(t.Data) == 0 {
		return VolumeStats{}
	}
	return VolumeStats{
		Min:  floats.Min(t.Data),
		Max:  floats.Max(t.Data),
		Mean: stat.Mean(t.Data, nil),
	}
}

// SizeDescriptor returns the spatial extent of the tensor as "{d}x{h}x{w}",
// used for display purposes by callers.
func (t *Tensor) SizeDescriptor() string {
	if len(t.Shape) != 5 {
		return ""
	}
	return fmt.Sprintf("%dx%dx%d", t.Shape[1], t.Shape[2], t.Shape[3])
}
