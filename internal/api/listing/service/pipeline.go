package listingService

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	"Replicaide/pkg/audio"
	"Replicaide/pkg/blob"
	contextPkg "Replicaide/pkg/context"
	"Replicaide/pkg/utils"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const errorLogTimeout = 5 * time.Second

var ErrEmptyTranscript = errors.New("transcript is empty")

// pipelineRun is the state of one enrichment attempt. URLs are kept so a
// failure can be logged with whatever was already uploaded.
type pipelineRun struct {
	s        *listingService
	ctx      context.Context
	actor    entity.Actor
	stage    listing.Stage
	imageURL string
	audioURL string
}

// Create runs upload, transcription, analysis, narration in both languages
// and persistence, in that order. Any failure stops the run and is returned
// as a *listing.PipelineError after being written to the error log. A nil
// Audio means the part is absent; an empty recording fails transcription.
func (s *listingService) Create(c context.Context, actor entity.Actor, in listing.CreateListingInput) (entity.Listing, error) {
	if len(in.Image) == 0 || in.Audio == nil {
		return entity.Listing{}, listing.ErrMissingArtifact
	}

	run := &pipelineRun{s: s, ctx: c, actor: actor, stage: listing.StageIdle}
	policy := s.cfg.Retry

	runID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return entity.Listing{}, err
	}

	run.transition(listing.StageUploading)

	imageName := runID + "-" + utils.SanitizeFilename(in.ImageName, "image")
	run.imageURL, err = withRetry(c, policy, func(ctx context.Context) (string, error) {
		return s.store.Upload(ctx, in.Image, blob.ImagePath(imageName))
	})
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrUpload, err)
	}

	if len(in.Audio) == 0 {
		run.transition(listing.StageTranscribing)
		return entity.Listing{}, run.fail(listing.ErrTranscription, audio.ErrEmptyAudio)
	}

	audioName := runID + "-" + utils.SanitizeFilename(in.AudioName, "recording"+utils.AudioExtension(in.AudioMIMEType))
	run.audioURL, err = withRetry(c, policy, func(ctx context.Context) (string, error) {
		return s.store.Upload(ctx, in.Audio, blob.AudioPath(audioName))
	})
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrUpload, err)
	}

	run.transition(listing.StageTranscribing)

	transcript, err := withRetry(c, policy, func(ctx context.Context) (string, error) {
		return s.transcriber.Transcribe(ctx, in.Audio, in.AudioMIMEType)
	})
	if err == nil && strings.TrimSpace(transcript) == "" {
		err = ErrEmptyTranscript
	}
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrTranscription, err)
	}

	run.transition(listing.StageAnalyzing)

	analysis, err := withRetry(c, policy, func(ctx context.Context) (AnalysisResult, error) {
		return s.analyzer.Analyze(ctx, transcript, run.imageURL, actor.Profile)
	})
	if err != nil {
		var rejected *listing.AnalysisRejectedError
		if errors.As(err, &rejected) {
			return entity.Listing{}, run.fail(listing.ErrAnalysisRejected, err)
		}
		return entity.Listing{}, run.fail(listing.ErrInvalidAnalysis, err)
	}

	run.transition(listing.StageSynthesizingEnglish)

	analysis.English.EnhancedAudio, err = withRetry(c, policy, func(ctx context.Context) (string, error) {
		return s.synthesizer.Synthesize(ctx, entity.LanguageEnglish, s.cfg.EnglishVoiceID, analysis.English.MarketingDescription)
	})
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrSynthesis, err)
	}

	run.transition(listing.StageSynthesizingSpanish)

	analysis.Spanish.EnhancedAudio, err = withRetry(c, policy, func(ctx context.Context) (string, error) {
		return s.synthesizer.Synthesize(ctx, entity.LanguageSpanish, s.cfg.SpanishVoiceID, analysis.Spanish.MarketingDescription)
	})
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrSynthesis, err)
	}

	run.transition(listing.StagePersisting)

	now := time.Now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrPersistence, err)
	}

	record := entity.Listing{
		ID:         id,
		UserID:     actor.UserID,
		Image:      run.imageURL,
		Audio:      run.audioURL,
		English:    analysis.English,
		Spanish:    analysis.Spanish,
		Price:      analysis.Price,
		Transcript: transcript,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if !record.English.Complete() || !record.Spanish.Complete() {
		return entity.Listing{}, run.fail(listing.ErrPersistence, errors.New("listing is missing a language variant"))
	}

	_, err = withRetry(c, policy, func(ctx context.Context) (struct{}, error) {
		repo, err := s.repo.NewClient(false)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, repo.Listings.Save(ctx, record)
	})
	if err != nil {
		return entity.Listing{}, run.fail(listing.ErrPersistence, err)
	}

	run.transition(listing.StageDone)

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(c),
		"listing_id": record.ID,
		"user_id":    actor.UserID,
	}).Info("Listing created")

	return record, nil
}

func (r *pipelineRun) transition(to listing.Stage) {
	from := r.stage
	r.stage = to

	r.s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(r.ctx),
		"from":       from,
		"to":         to,
	}).Debug("Pipeline transition")

	if r.s.cfg.Observer != nil {
		r.s.cfg.Observer(r.ctx, from, to)
	}
}

// fail records the error against the current stage, writes the error log
// entry and moves the run to Failed. A log write failure is only logged.
func (r *pipelineRun) fail(kind error, err error) error {
	pipeErr := &listing.PipelineError{Stage: r.stage, Kind: kind, Err: err}
	requestID := contextPkg.GetRequestID(r.ctx)

	r.s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"stage":      r.stage,
		"user_id":    r.actor.UserID,
		"error":      err.Error(),
	}).Error("Pipeline stage failed")

	if logErr := r.appendErrorLog(pipeErr); logErr != nil {
		r.s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"stage":      r.stage,
			"error":      logErr.Error(),
		}).Warn("Failed to write pipeline error log")
	}

	r.transition(listing.StageFailed)

	return pipeErr
}

func (r *pipelineRun) appendErrorLog(pipeErr *listing.PipelineError) error {
	ctx, cancel := context.WithTimeout(contextPkg.Detach(r.ctx), errorLogTimeout)
	defer cancel()

	now := time.Now()
	id, err := r.s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return err
	}

	repo, err := r.s.repo.NewClient(false)
	if err != nil {
		return err
	}

	return repo.ErrorLogs.Append(ctx, entity.ErrorLog{
		ID:        id,
		Username:  r.actor.Username,
		Stage:     string(pipeErr.Stage),
		Error:     pipeErr.Error(),
		ImageURL:  r.imageURL,
		AudioURL:  r.audioURL,
		CreatedAt: now,
	})
}
