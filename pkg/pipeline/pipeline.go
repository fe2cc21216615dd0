// Package pipeline sequences the scan preprocessing steps: admission
// validation, volume loading, intensity normalization and center-patch
// extraction. It returns a tensor ready for inference or a single
// stage-tagged error, never both.
package pipeline

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"noduleprep/internal/models"
	"noduleprep/pkg/config"
	"noduleprep/pkg/loader"
	"noduleprep/pkg/normalize"
	"noduleprep/pkg/patchex"
	"noduleprep/pkg/validate"
)

// Input is a raw request: a filename plus either a filesystem path or an
// in-memory byte buffer. Size is the byte length used for admission checks;
// when zero it is derived from the buffer or the file on disk.
type Input struct {
	Filename string
	Path     string
	Data     []byte
	Size     int64
}

// Result is the successful outcome of a Process call.
type Result struct {
	// Tensor is the batched patch of shape (1, size, size, size, 1) with
	// samples in [0,1].
	Tensor *models.Tensor

	// SizeDescriptor describes the patch spatial extent as "{d}x{h}x{w}",
	// for display purposes.
	SizeDescriptor string
}

// Pipeline orchestrates preprocessing with explicitly injected configuration;
// there is no ambient global state, so instances are independently testable.
// A Pipeline is stateless across invocations and safe for concurrent use as
// long as each call owns its Input.
type Pipeline struct {
	cfg        *config.Config
	validator  *validate.Validator
	normalizer *normalize.Normalizer
}

// New builds a pipeline from the given configuration.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		validator:  validate.New(cfg),
		normalizer: normalize.New(cfg.Window.MinHU, cfg.Window.MaxHU, cfg.Processing.NumCores),
	}
}

// Process runs the full pipeline on one input. It short-circuits on the
// first failure, returning a *StageError tagged with the originating stage;
// no partial results are ever returned alongside an error.
func (p *Pipeline) Process(ctx context.Context, in Input) (*Result, error) {
	size, err := p.inputSize(in)
	if err != nil {
		return nil, newStageError(StageValidation, KindInternal, err)
	}

	if ok, msg := p.validator.Check(in.Filename, size); !ok {
		return nil, newStageError(StageValidation, KindValidation, errors.New(msg))
	}

	vol, err := loader.Load(loader.Source{
		Filename: in.Filename,
		Path:     in.Path,
		Data:     in.Data,
	})
	if err != nil {
		return nil, p.classifyLoadError(err)
	}

	normalized, err := p.normalizer.Apply(ctx, vol)
	if err != nil {
		return nil, newStageError(StageNormalization, KindInternal, err)
	}

	patch := patchex.ExtractCenter(normalized, p.cfg.Patch.TargetSize)
	tensor := models.NewTensor(patch)

	return &Result{
		Tensor:         tensor,
		SizeDescriptor: tensor.SizeDescriptor(),
	}, nil
}

// inputSize resolves the byte length used for admission checks.
func (p *Pipeline) inputSize(in Input) (int64, error) {
	if in.Size > 0 {
		return in.Size, nil
	}
	if in.Data != nil {
		return int64(len(in.Data)), nil
	}
	if in.Path != "" {
		info, err := os.Stat(in.Path)
		if err != nil {
			return 0, errors.Wrap(err, "stat input file")
		}
		return info.Size(), nil
	}
	return 0, nil
}

// classifyLoadError maps loader failures onto the error taxonomy.
func (p *Pipeline) classifyLoadError(err error) *StageError {
	switch {
	case errors.Is(err, loader.ErrDimensionality), errors.Is(err, loader.ErrEmptyAxis):
		return newStageError(StageDimensionality, KindDimensionality, err)
	case errors.Is(err, loader.ErrStaging):
		return newStageError(StageDecode, KindInternal, err)
	default:
		return newStageError(StageDecode, KindDecode, err)
	}
}
