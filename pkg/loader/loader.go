// Package loader turns a raw scan input (file path or in-memory bytes) into
// a uniform 3D volume, regardless of source format. DICOM sources are
// delegated to the dicomvol adapter; NIfTI sources are read directly.
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/henghuang/nifti"
	"github.com/pkg/errors"

	"noduleprep/internal/models"
	"noduleprep/pkg/dicomvol"
)

var (
	// ErrDimensionality reports data that is neither 2D nor 3D.
	ErrDimensionality = errors.New("image file must contain 2D or 3D volume data")

	// ErrEmptyAxis reports a volume with a zero-length spatial axis.
	ErrEmptyAxis = errors.New("invalid volume dimensions")

	// ErrStaging reports a failure to stage an in-memory buffer to disk.
	// This is an internal fault, not a problem with the supplied input.
	ErrStaging = errors.New("staging upload to temporary file")
)

// Format identifies the source file format, resolved once per input.
type Format int

const (
	// FormatNifti covers .nii and .nii.gz sources.
	FormatNifti Format = iota

	// FormatDicom covers .dcm, .dicom and .tcia sources.
	FormatDicom
)

// Source is a raw input: a filename plus either a filesystem path or an
// in-memory byte buffer. The loader never mutates the buffer.
type Source struct {
	// Filename is used for format detection; it need not match Path.
	Filename string

	// Path is the on-disk location of the scan, if it has one.
	Path string

	// Data is the scan content when the input arrived in memory.
	// Ignored when Path is set.
	Data []byte
}

// DetectFormat resolves the source format from the filename suffix.
func DetectFormat(filename string) Format {
	name := strings.ToLower(filename)
	for _, ext := range []string{".dcm", ".dicom", ".tcia"} {
		if strings.HasSuffix(name, ext) {
			return FormatDicom
		}
	}
	return FormatNifti
}

// Load reads the source into a 3D volume. 2D data is promoted with a leading
// singleton axis; anything other than 2D or 3D fails with ErrDimensionality.
func Load(src Source) (*models.Volume, error) {
	var (
		grid *models.Grid
		err  error
	)

	switch DetectFormat(src.Filename) {
	case FormatDicom:
		if src.Path != "" {
			grid, err = dicomvol.FromFile(src.Path)
		} else {
			grid, err = dicomvol.FromBytes(src.Data)
		}
		if err != nil {
			return nil, errors.Wrap(err, "DICOM processing error")
		}
	default:
		grid, err = loadNifti(src)
		if err != nil {
			return nil, err
		}
	}

	return promote(grid)
}

// promote validates grid dimensionality and produces a 3D volume, inserting
// a leading singleton axis for 2D data.
func promote(grid *models.Grid) (*models.Volume, error) {
	var depth, height, width int
	switch len(grid.Dims) {
	case 2:
		depth, height, width = 1, grid.Dims[0], grid.Dims[1]
	case 3:
		depth, height, width = grid.Dims[0], grid.Dims[1], grid.Dims[2]
	default:
		return nil, ErrDimensionality
	}

	if depth == 0 || height == 0 || width == 0 {
		return nil, ErrEmptyAxis
	}

	data := make([]float64, len(grid.Data))
	copy(data, grid.Data)

	return &models.Volume{
		Data:    data,
		Depth:   depth,
		Height:  height,
		Width:   width,
		Spacing: grid.Spacing,
	}, nil
}

// loadNifti reads a NIfTI source. The decoder only accepts filesystem paths,
// so in-memory buffers are staged to a request-scoped temporary file that is
// removed on every exit path.
func loadNifti(src Source) (*models.Grid, error) {
	path := src.Path
	if path == "" {
		staged, cleanup, err := stageBuffer(src.Data, src.Filename)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = staged
	}

	header, err := safelyNiftiHeader(path)
	if err != nil {
		return nil, errors.Wrap(err, "parse nifti header")
	}

	ndim := int(header.Dim[0])
	if ndim != 2 && ndim != 3 {
		return nil, ErrDimensionality
	}

	dims := make([]int, ndim)
	for i := range dims {
		dims[i] = int(header.Dim[i+1])
		if dims[i] <= 0 {
			return nil, ErrEmptyAxis
		}
	}

	img, err := safelyNiftiParse(path)
	if err != nil {
		return nil, errors.Wrap(err, "parse nifti image")
	}

	grid := &models.Grid{
		Dims:    dims,
		Spacing: niftiSpacing(header, ndim),
	}

	switch ndim {
	case 2:
		nx, ny := dims[0], dims[1]
		grid.Data = make([]float64, nx*ny)
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				grid.Data[x*ny+y] = float64(img.GetAt(x, y, 0, 0))
			}
		}
	case 3:
		nx, ny, nz := dims[0], dims[1], dims[2]
		grid.Data = make([]float64, nx*ny*nz)
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				for z := 0; z < nz; z++ {
					grid.Data[x*ny*nz+y*nz+z] = float64(img.GetAt(x, y, z, 0))
				}
			}
		}
	}

	return grid, nil
}

// niftiSpacing maps header pixdim entries to a per-axis spacing triple.
// Zero or negative entries fall back to 1.0.
func niftiSpacing(header nifti.Nifti1Header, ndim int) [3]float64 {
	spacing := [3]float64{1.0, 1.0, 1.0}
	for i := 0; i < ndim && i < 3; i++ {
		if pd := float64(header.Pixdim[i+1]); pd > 0 {
			spacing[i] = pd
		}
	}
	return spacing
}

// stageBuffer writes data to a uniquely-named temporary file whose suffix
// matches the original filename, because the NIfTI decoder sniffs gzip
// compression from the path. The returned cleanup must always run.
func stageBuffer(data []byte, filename string) (string, func(), error) {
	suffix := ".nii"
	if strings.HasSuffix(strings.ToLower(filename), ".gz") {
		suffix = ".nii.gz"
	}

	f, err := os.CreateTemp("", "noduleprep-*"+suffix)
	if err != nil {
		return "", nil, errors.Wrap(ErrStaging, err.Error())
	}

	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, errors.Wrap(ErrStaging, err.Error())
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(ErrStaging, err.Error())
	}

	return path, cleanup, nil
}

// safelyNiftiParse consumes panics emitted by the nifti library, which are
// inappropriate and must be captured in order to turn them into recoverable
// errors.
func safelyNiftiParse(filename string) (parsedData nifti.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	parsedData.LoadImage(filename, true)

	return
}

// safelyNiftiHeader consumes panics emitted by the nifti library while
// reading only the file header.
func safelyNiftiHeader(filename string) (parsedData nifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	parsedData.LoadHeader(filename)

	return
}
