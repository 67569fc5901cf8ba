package listingService

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	"Replicaide/pkg/audio"
	"Replicaide/pkg/response"
	"Replicaide/pkg/utils"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineHarness struct {
	svc         ListingService
	repo        *fakeRepo
	store       *fakeStore
	transcriber *fakeTranscriber
	generator   *fakeGenerator
	tts         *fakeTTS
	stages      []listing.Stage
}

func newHarness(t *testing.T) *pipelineHarness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &pipelineHarness{
		repo:        newFakeRepo(),
		store:       &fakeStore{},
		transcriber: &fakeTranscriber{text: "Al pastor taco, twelve fifty"},
		generator:   &fakeGenerator{reply: validReply},
		tts:         &fakeTTS{failOn: map[int]error{}},
	}

	u := utils.New()
	h.svc = NewListingService(logger, h.repo, h.store, h.transcriber,
		NewAnalyzer(h.generator), NewSynthesizer(h.tts, h.store, u), u, Config{
			Retry: RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			Observer: func(_ context.Context, _ listing.Stage, to listing.Stage) {
				h.stages = append(h.stages, to)
			},
		})
	return h
}

var (
	testActor = entity.Actor{UserID: "u1", Username: "ana", Locale: entity.LocaleEnglish}
	testInput = listing.CreateListingInput{
		Image:         []byte("png"),
		ImageName:     "img.png",
		ImageMIMEType: "image/png",
		Audio:         []byte("webm"),
		AudioName:     "rec.webm",
		AudioMIMEType: "audio/webm",
	}
)

func TestCreateListingHappyPath(t *testing.T) {
	h := newHarness(t)

	rec, err := h.svc.Create(context.Background(), testActor, testInput)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "USD 12.50", rec.Price.Raw)
	assert.Equal(t, 12.5, rec.Price.Amount)
	assert.NotEmpty(t, rec.English.Title)
	assert.NotEmpty(t, rec.Spanish.Title)
	assert.True(t, rec.English.Complete())
	assert.True(t, rec.Spanish.Complete())
	assert.Equal(t, "Al pastor taco, twelve fifty", rec.Transcript)

	require.Len(t, h.store.paths, 4)
	assert.True(t, strings.HasPrefix(h.store.paths[0], "images/"))
	assert.True(t, strings.HasSuffix(h.store.paths[0], "-img.png"))
	assert.True(t, strings.HasPrefix(h.store.paths[1], "audio/"))
	assert.True(t, strings.HasPrefix(h.store.paths[2], "audio/enhanced/eng-"))
	assert.True(t, strings.HasPrefix(h.store.paths[3], "audio/enhanced/esp-"))
	assert.Equal(t, []string{DefaultEnglishVoiceID, DefaultSpanishVoiceID}, h.tts.voices)

	assert.Equal(t, []listing.Stage{
		listing.StageUploading,
		listing.StageTranscribing,
		listing.StageAnalyzing,
		listing.StageSynthesizingEnglish,
		listing.StageSynthesizingSpanish,
		listing.StagePersisting,
		listing.StageDone,
	}, h.stages)

	stored, err := h.svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
	assert.Empty(t, h.repo.logs.entries)
}

func TestCreateListingRequiresBothArtifacts(t *testing.T) {
	h := newHarness(t)

	in := testInput
	in.Audio = nil
	_, err := h.svc.Create(context.Background(), testActor, in)
	assert.ErrorIs(t, err, listing.ErrMissingArtifact)
	assert.Empty(t, h.stages)
	assert.Empty(t, h.store.paths)
}

func TestTranscriptionFailureHaltsBeforeAnalysis(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = audio.ErrEmptyAudio

	_, err := h.svc.Create(context.Background(), testActor, testInput)

	var pipeErr *listing.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, listing.StageTranscribing, pipeErr.Stage)
	assert.ErrorIs(t, err, listing.ErrTranscription)
	assert.Equal(t, 0, h.generator.calls)
	assert.Equal(t, 1, h.transcriber.calls)
	assert.Equal(t, listing.StageFailed, h.stages[len(h.stages)-1])

	require.Len(t, h.repo.logs.entries, 1)
	entry := h.repo.logs.entries[0]
	assert.Equal(t, "ana", entry.Username)
	assert.Equal(t, "transcribing", entry.Stage)
	assert.True(t, strings.HasPrefix(entry.ImageURL, "https://blobs.example/images/"))
	assert.True(t, strings.HasPrefix(entry.AudioURL, "https://blobs.example/audio/"))
}

func TestZeroByteAudioIsATranscriptionError(t *testing.T) {
	h := newHarness(t)

	in := testInput
	in.Audio = []byte{}
	_, err := h.svc.Create(context.Background(), testActor, in)

	var pipeErr *listing.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, listing.StageTranscribing, pipeErr.Stage)
	assert.ErrorIs(t, err, listing.ErrTranscription)
	assert.ErrorIs(t, err, audio.ErrEmptyAudio)
	assert.NotErrorIs(t, err, listing.ErrMissingArtifact)
	assert.Equal(t, 0, h.generator.calls)
	assert.Equal(t, 0, h.transcriber.calls)

	require.Len(t, h.store.paths, 1)
	assert.True(t, strings.HasPrefix(h.store.paths[0], "images/"))

	require.Len(t, h.repo.logs.entries, 1)
	assert.Equal(t, "transcribing", h.repo.logs.entries[0].Stage)
	assert.Empty(t, h.repo.logs.entries[0].AudioURL)
}

func TestBlankTranscriptIsATranscriptionError(t *testing.T) {
	h := newHarness(t)
	h.transcriber.text = "   "

	_, err := h.svc.Create(context.Background(), testActor, testInput)
	assert.ErrorIs(t, err, listing.ErrTranscription)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Equal(t, 0, h.generator.calls)
}

func TestRejectedAnalysisNeverSynthesizes(t *testing.T) {
	h := newHarness(t)
	h.generator.reply = `{"error": "copyrighted song in the recording"}`

	_, err := h.svc.Create(context.Background(), testActor, testInput)

	assert.ErrorIs(t, err, listing.ErrAnalysisRejected)
	assert.Contains(t, err.Error(), "copyrighted song in the recording")
	assert.Equal(t, 0, h.tts.calls)
	assert.Empty(t, h.repo.listings.records)
}

func TestInvalidAnalysisIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.generator.reply = `{"eng": {"title": "only english", "marketing_description": "x"}, "price": "USD 3"}`

	_, err := h.svc.Create(context.Background(), testActor, testInput)

	assert.ErrorIs(t, err, listing.ErrInvalidAnalysis)
	assert.Equal(t, 1, h.generator.calls)
	assert.Equal(t, 0, h.tts.calls)
}

func TestSpanishSynthesisFailureAbortsListing(t *testing.T) {
	h := newHarness(t)
	h.tts.failOn[2] = response.NewUpstreamError("elevenlabs", http.StatusUnauthorized, errors.New("bad key"))

	_, err := h.svc.Create(context.Background(), testActor, testInput)

	var pipeErr *listing.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, listing.StageSynthesizingSpanish, pipeErr.Stage)
	assert.ErrorIs(t, err, listing.ErrSynthesis)
	assert.Equal(t, 2, h.tts.calls)
	assert.Empty(t, h.repo.listings.records)
}

func TestTransientSynthesisFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	h.tts.failOn[1] = response.NewUpstreamError("elevenlabs", http.StatusBadGateway, errors.New("gateway"))

	rec, err := h.svc.Create(context.Background(), testActor, testInput)
	require.NoError(t, err)
	assert.Equal(t, 3, h.tts.calls)
	assert.NotEmpty(t, rec.English.EnhancedAudio)
}

func TestUploadFailureStopsEverything(t *testing.T) {
	h := newHarness(t)
	h.store.err = response.NewUpstreamError("github", http.StatusForbidden, errors.New("forbidden"))

	_, err := h.svc.Create(context.Background(), testActor, testInput)
	assert.ErrorIs(t, err, listing.ErrUpload)
	assert.Equal(t, 0, h.transcriber.calls)

	require.Len(t, h.repo.logs.entries, 1)
	assert.Equal(t, "uploading", h.repo.logs.entries[0].Stage)
	assert.Empty(t, h.repo.logs.entries[0].ImageURL)
}

func TestPersistenceFailureSurvivesErrorLogFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.listings.saveErr = errors.New("connection refused")
	h.repo.logs.err = errors.New("errors_log unavailable")

	_, err := h.svc.Create(context.Background(), testActor, testInput)

	assert.ErrorIs(t, err, listing.ErrPersistence)
	assert.Contains(t, err.Error(), "connection refused")
}
