package pipeline

import (
	"fmt"
)

// Stage names the pipeline step an error originated from, so callers can
// distinguish user-fixable input problems from internal failures.
type Stage string

const (
	StageValidation     Stage = "validation"
	StageDecode         Stage = "decode"
	StageDimensionality Stage = "dimensionality"
	StageNormalization  Stage = "normalization"

	// StageExtraction names the patch extraction step. The center crop and
	// pad always succeed on a non-empty volume, so no current code path
	// produces an error with this stage; it completes the taxonomy for
	// callers that switch over all stages.
	StageExtraction Stage = "extraction"
)

// Kind classifies an error into the pipeline taxonomy.
type Kind int

const (
	// KindValidation covers bad filenames, disallowed extensions and
	// oversized uploads. Always recoverable by supplying a different file.
	KindValidation Kind = iota

	// KindDecode covers malformed DICOM or NIfTI byte streams. Whether the
	// stream was not DICOM at all (likely a manifest) is distinguishable
	// via errors.Is with dicomvol.ErrNotDICOM.
	KindDecode

	// KindDimensionality covers data that is not 2D/3D or has a zero-length
	// spatial axis.
	KindDimensionality

	// KindInternal covers unexpected faults such as temporary staging I/O
	// failures or decoder panics. Callers should log these in full and
	// surface only a generic message.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindDimensionality:
		return "dimensionality"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// StageError is the structured error produced by the orchestrator: a stage
// tag, a taxonomy kind and the underlying cause. At most one StageError is
// produced per Process call, and it is never paired with a partial result.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage Stage, kind Kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
