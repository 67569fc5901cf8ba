package listingService

import (
	"Replicaide/internal/api/listing"
	listingRepository "Replicaide/internal/api/listing/repository"
	"Replicaide/internal/entity"
	"Replicaide/pkg/audio"
	"Replicaide/pkg/blob"
	"Replicaide/pkg/utils"
	"context"

	"github.com/sirupsen/logrus"
)

const (
	DefaultEnglishVoiceID = "UgBBYS2sOqTuMpoF3BR0"
	DefaultSpanishVoiceID = "tTQzD8U9VSnJgfwC6HbY"
)

type ListingService interface {
	Create(c context.Context, actor entity.Actor, in listing.CreateListingInput) (entity.Listing, error)
	List(c context.Context) ([]entity.Listing, error)
	Get(c context.Context, id string) (entity.Listing, error)
	Update(c context.Context, actor entity.Actor, id string, update entity.ListingUpdate) (entity.Listing, error)
	Delete(c context.Context, id string) error
}

// Observer is told about every pipeline state change.
type Observer func(c context.Context, from listing.Stage, to listing.Stage)

type Config struct {
	EnglishVoiceID string
	SpanishVoiceID string
	Retry          RetryPolicy
	Observer       Observer
}

type listingService struct {
	log         *logrus.Logger
	repo        listingRepository.Repository
	store       blob.Store
	transcriber audio.Transcriber
	analyzer    Analyzer
	synthesizer Synthesizer
	utils       utils.IUtils
	cfg         Config
}

func NewListingService(
	log *logrus.Logger,
	repo listingRepository.Repository,
	store blob.Store,
	transcriber audio.Transcriber,
	analyzer Analyzer,
	synthesizer Synthesizer,
	utils utils.IUtils,
	cfg Config,
) ListingService {
	if cfg.EnglishVoiceID == "" {
		cfg.EnglishVoiceID = DefaultEnglishVoiceID
	}
	if cfg.SpanishVoiceID == "" {
		cfg.SpanishVoiceID = DefaultSpanishVoiceID
	}

	return &listingService{
		log:         log,
		repo:        repo,
		store:       store,
		transcriber: transcriber,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		utils:       utils,
		cfg:         cfg,
	}
}
