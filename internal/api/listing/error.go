package listing

import (
	"Replicaide/pkg/response"
	"fmt"
	"net/http"
)

var (
	ErrUpload           = response.NewError(http.StatusBadGateway, "upload failed")
	ErrTranscription    = response.NewError(http.StatusBadGateway, "transcription failed")
	ErrInvalidAnalysis  = response.NewError(http.StatusBadGateway, "invalid analysis")
	ErrAnalysisRejected = response.NewError(http.StatusUnprocessableEntity, "analysis rejected")
	ErrSynthesis        = response.NewError(http.StatusBadGateway, "speech synthesis failed")
	ErrPersistence      = response.NewError(http.StatusInternalServerError, "failed to save listing")

	ErrMissingArtifact = response.NewError(http.StatusBadRequest, "both an image and an audio recording are required")
	ErrInvalidLocale   = response.NewError(http.StatusBadRequest, "unsupported locale")
	ErrEmptyUpdate     = response.NewError(http.StatusBadRequest, "at least one of title, description or price is required")
	ErrInvalidPrice    = response.NewError(http.StatusBadRequest, "invalid price")
	ErrListingNotFound = response.NewError(http.StatusNotFound, "listing not found")
)

// Stage is a state of the enrichment pipeline.
type Stage string

const (
	StageIdle                Stage = "idle"
	StageUploading           Stage = "uploading"
	StageTranscribing        Stage = "transcribing"
	StageAnalyzing           Stage = "analyzing"
	StageSynthesizingEnglish Stage = "synthesizing_eng"
	StageSynthesizingSpanish Stage = "synthesizing_esp"
	StagePersisting          Stage = "persisting"
	StageDone                Stage = "done"
	StageFailed              Stage = "failed"
)

// PipelineError is returned by every failed enrichment run. Kind is one of
// the sentinels above, so both errors.Is(err, ErrSynthesis) and
// errors.As(err, &upstream) work on the same value.
type PipelineError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func (e *PipelineError) StageName() string {
	return string(e.Stage)
}

// AnalysisRejectedError carries the reason the model gave for declining to
// describe an item.
type AnalysisRejectedError struct {
	Reason string
}

func (e *AnalysisRejectedError) Error() string {
	return e.Reason
}
