package listingService

import (
	"Replicaide/internal/entity"
	"Replicaide/pkg/audio"
	"Replicaide/pkg/blob"
	"Replicaide/pkg/utils"
	"context"
	"time"
)

// Synthesizer narrates text with a voice and stores the recording,
// returning its URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, lang entity.Language, voiceID string, text string) (string, error)
}

type speechSynthesizer struct {
	tts   audio.SpeechGenerator
	store blob.Store
	utils utils.IUtils
}

func NewSynthesizer(tts audio.SpeechGenerator, store blob.Store, utils utils.IUtils) Synthesizer {
	return &speechSynthesizer{
		tts:   tts,
		store: store,
		utils: utils,
	}
}

func (s *speechSynthesizer) Synthesize(ctx context.Context, lang entity.Language, voiceID string, text string) (string, error) {
	data, err := s.tts.GenerateAudio(ctx, voiceID, text)
	if err != nil {
		return "", err
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return "", err
	}

	return s.store.Upload(ctx, data, blob.EnhancedAudioPath(string(lang), id))
}
