// Package classifier defines the boundary between the preprocessing
// pipeline and the downstream nodule classifier. The model itself is an
// external collaborator; only the contract lives here.
package classifier

import (
	"context"

	"noduleprep/internal/models"
)

// Classifier consumes the fixed-shape tensor produced by the pipeline and
// returns the scalar probability that the centered region is malignant.
type Classifier interface {
	Predict(ctx context.Context, tensor *models.Tensor) (float64, error)
}

// DefaultThreshold is the probability above which a scan is labeled malignant.
const DefaultThreshold = 0.5

// Result is the classification outcome handed to the report layer.
type Result struct {
	Classification       string
	Confidence           float64
	ProbabilityMalignant float64
	ProbabilityBenign    float64

	// NoduleSize is the patch extent descriptor ("{d}x{h}x{w}").
	NoduleSize string

	// Location describes where the patch was taken from. The pipeline
	// always crops the geometric center of the volume.
	Location string
}

// ResultFromProbability maps a scalar malignancy probability onto the
// labeled result consumed by callers.
func ResultFromProbability(p, threshold float64, sizeDescriptor string) Result {
	r := Result{
		ProbabilityMalignant: p,
		ProbabilityBenign:    1 - p,
		NoduleSize:           sizeDescriptor,
		Location:             "central region",
	}
	if p >= threshold {
		r.Classification = "Malignant"
		r.Confidence = p
	} else {
		r.Classification = "Benign"
		r.Confidence = 1 - p
	}
	return r
}
