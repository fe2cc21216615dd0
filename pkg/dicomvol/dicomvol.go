// Package dicomvol converts a single DICOM image, from a file path or an
// in-memory byte buffer, into a generic 2D sample grid plus voxel spacing.
// Multi-series assembly is out of scope; only the first frame is decoded.
package dicomvol

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"noduleprep/internal/models"
)

// ErrNotDICOM reports a byte stream without the DICM file-meta marker.
// .tcia downloads are a frequent cause: they are often manifest or archive
// files rather than image data, and cannot be processed directly.
var ErrNotDICOM = errors.New("file appears to be invalid DICOM format; " +
	".tcia files from TCIA may be manifest files or archives, not individual DICOM images; " +
	"please upload actual DICOM (.dcm) or NIfTI (.nii) image files")

// magicOffset is the position of the "DICM" marker after the 128-byte preamble.
const magicOffset = 128

// defaultSpacing is used whenever pixel spacing metadata is missing or
// unparsable. The fallback is a policy decision, never an error.
var defaultSpacing = [3]float64{1.0, 1.0, 1.0}

// FromFile decodes the DICOM file at path into a 2D sample grid.
func FromFile(path string) (*models.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dicom file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat dicom file")
	}

	header := make([]byte, magicOffset+4)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, ErrNotDICOM
	}
	if !hasMagic(header) {
		return nil, ErrNotDICOM
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind dicom file")
	}

	dataset, err := dicom.Parse(f, info.Size(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "parse dicom")
	}
	return gridFromDataset(dataset)
}

// FromBytes decodes an in-memory DICOM byte buffer into a 2D sample grid.
func FromBytes(data []byte) (*models.Grid, error) {
	if !hasMagic(data) {
		return nil, ErrNotDICOM
	}

	dataset, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, errors.Wrap(err, "parse dicom")
	}
	return gridFromDataset(dataset)
}

// hasMagic reports whether the DICM marker sits after the 128-byte preamble.
func hasMagic(data []byte) bool {
	if len(data) < magicOffset+4 {
		return false
	}
	return string(data[magicOffset:magicOffset+4]) == "DICM"
}

// gridFromDataset extracts the first pixel data frame as float64 samples and
// reads the voxel spacing, falling back to (1,1,1) if metadata is missing.
func gridFromDataset(dataset dicom.Dataset) (*models.Grid, error) {
	element, err := dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, errors.Wrap(err, "pixel data missing")
	}

	info, ok := element.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, errors.New("pixel data element has unexpected value type")
	}
	if len(info.Frames) == 0 {
		return nil, errors.New("pixel data contains no frames")
	}

	frame := info.Frames[0]
	if frame.IsEncapsulated() {
		return nil, errors.New("encapsulated (compressed) pixel data is not supported")
	}

	native, err := frame.GetNativeFrame()
	if err != nil {
		return nil, errors.Wrap(err, "decode native frame")
	}

	rows, cols := native.Rows, native.Cols
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("invalid frame dimensions %dx%d", rows, cols)
	}

	data := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			// Pixel data is row-major, one sample list per pixel. First
			// sample per pixel; scans are single-channel grayscale.
			idx := r*cols + c
			if idx >= len(native.Data) || len(native.Data[idx]) == 0 {
				return nil, errors.Errorf("read pixel (%d,%d): out of range", r, c)
			}
			data[r*cols+c] = float64(native.Data[idx][0])
		}
	}

	return &models.Grid{
		Data:    data,
		Dims:    []int{rows, cols},
		Spacing: readSpacing(dataset),
	}, nil
}

// readSpacing assembles (row spacing, column spacing, slice thickness) from
// the dataset metadata. Any missing or unparsable value falls back to the
// default spacing; this path never returns an error.
func readSpacing(dataset dicom.Dataset) [3]float64 {
	pixelSpacing, err := stringValues(dataset, tag.PixelSpacing)
	if err != nil || len(pixelSpacing) < 2 {
		return defaultSpacing
	}
	thickness, err := stringValues(dataset, tag.SliceThickness)
	if err != nil || len(thickness) < 1 {
		return defaultSpacing
	}

	rowSpacing, err1 := parseDecimal(pixelSpacing[0])
	colSpacing, err2 := parseDecimal(pixelSpacing[1])
	sliceThickness, err3 := parseDecimal(thickness[0])
	if err1 != nil || err2 != nil || err3 != nil {
		return defaultSpacing
	}

	return [3]float64{rowSpacing, colSpacing, sliceThickness}
}

func stringValues(dataset dicom.Dataset, t tag.Tag) ([]string, error) {
	element, err := dataset.FindElementByTag(t)
	if err != nil {
		return nil, err
	}
	values, ok := element.Value.GetValue().([]string)
	if !ok {
		return nil, errors.Errorf("tag %v does not hold string values", t)
	}
	return values, nil
}

// parseDecimal parses a DICOM DS (decimal string) value.
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
