// Package validate performs admission checks on uploaded scan files before
// any bytes are decoded. Checks are pure functions of the filename and the
// reported byte size; no file content is inspected here.
package validate

import (
	"fmt"
	"strings"

	"noduleprep/pkg/config"
)

// Validator checks filenames and sizes against the configured limits.
type Validator struct {
	maxSize int64
	allowed []string
}

// New builds a validator from the upload limits in cfg.
func New(cfg *config.Config) *Validator {
	return &Validator{
		maxSize: cfg.Upload.MaxSizeBytes,
		allowed: cfg.Upload.AllowedExtensions,
	}
}

// Check reports whether the named file of the given size is acceptable.
// The returned message explains the verdict either way.
func (v *Validator) Check(filename string, size int64) (bool, string) {
	if filename == "" {
		return false, "No file provided"
	}

	name := strings.ToLower(filename)

	if !v.hasAllowedExtension(name) {
		return false, "Invalid file format. Please upload .nii, .nii.gz, .dcm, or .dicom files"
	}

	if size > v.maxSize {
		return false, fmt.Sprintf("File too large. Maximum size is %dMB", v.maxSize/(1024*1024))
	}

	return true, "File is valid"
}

// hasAllowedExtension matches the lower-cased name against the accepted
// suffix set. A bare .gz is only valid when stripping it leaves a .nii name.
func (v *Validator) hasAllowedExtension(name string) bool {
	for _, ext := range v.allowed {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	if strings.HasSuffix(name, ".gz") {
		return strings.HasSuffix(strings.TrimSuffix(name, ".gz"), ".nii")
	}
	return false
}
