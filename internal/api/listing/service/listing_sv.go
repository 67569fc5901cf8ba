package listingService

import (
	"Replicaide/internal/api/listing"
	listingRepository "Replicaide/internal/api/listing/repository"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

func (s *listingService) List(c context.Context) ([]entity.Listing, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	return repo.Listings.List(c)
}

func (s *listingService) Get(c context.Context, id string) (entity.Listing, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.Listing{}, err
	}

	return repo.Listings.GetByID(c, id)
}

// Update edits the variant matching the actor's locale. The price is shared
// by both variants.
func (s *listingService) Update(c context.Context, actor entity.Actor, id string, update entity.ListingUpdate) (entity.Listing, error) {
	requestID := contextPkg.GetRequestID(c)

	if update.Empty() {
		return entity.Listing{}, listing.ErrEmptyUpdate
	}

	lang, err := actor.Locale.ContentLanguage()
	if err != nil {
		return entity.Listing{}, listing.ErrInvalidLocale
	}

	var change listingRepository.ContentUpdate
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return entity.Listing{}, listing.ErrEmptyUpdate
		}
		change.Title = &title
	}
	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		change.Description = &description
	}
	if update.Price != nil {
		price, err := entity.ParsePrice(*update.Price)
		if err != nil {
			return entity.Listing{}, listing.ErrInvalidPrice
		}
		change.Price = &price
	}

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.Listing{}, err
	}
	defer repo.Rollback()

	if err := repo.Listings.Update(c, id, lang, change); err != nil {
		return entity.Listing{}, err
	}

	updated, err := repo.Listings.GetByID(c, id)
	if err != nil {
		return entity.Listing{}, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit listing update")
		return entity.Listing{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"listing_id": id,
		"language":   lang,
		"user_id":    actor.UserID,
	}).Info("Listing updated")

	return updated, nil
}

func (s *listingService) Delete(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	if err := repo.Listings.Delete(c, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"listing_id": id,
	}).Info("Listing deleted")

	return nil
}
