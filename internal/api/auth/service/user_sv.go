package authService

import (
	"Replicaide/internal/api/auth"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func (u *userDomainImpl) RegisterUser(c context.Context, req auth.RegisterRequest) (auth.UserResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	locale := entity.DefaultLocale
	if strings.TrimSpace(req.Locale) != "" {
		parsed, err := entity.ParseLocale(req.Locale)
		if err != nil {
			return auth.UserResponse{}, auth.ErrInvalidLocale
		}
		locale = parsed
	}

	hashed, err := u.bcryptUtils.HashPassword(req.Password)
	if err != nil {
		u.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash password")
		return auth.UserResponse{}, err
	}

	now := time.Now()
	id, err := u.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return auth.UserResponse{}, err
	}

	user := entity.User{
		ID:          id,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Username:    strings.TrimSpace(req.Username),
		Password:    hashed,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Role:        req.Role,
		Temperament: req.Temperament,
		Locale:      string(locale),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	repo, err := u.repo.NewClient(false)
	if err != nil {
		u.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.UserResponse{}, err
	}

	if err := repo.Users.CreateUser(c, user); err != nil {
		return auth.UserResponse{}, err
	}

	u.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Info("User registered")

	return auth.MakeUserResponse(user), nil
}

func (u *userDomainImpl) GetByID(c context.Context, id string) (entity.User, error) {
	repo, err := u.repo.NewClient(false)
	if err != nil {
		u.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}

	return repo.Users.GetByID(c, id)
}

// Actor loads the user and resolves the locale the request runs in. An
// explicit locale wins over the stored one; a stored locale that no longer
// parses falls back to the default.
func (u *userDomainImpl) Actor(c context.Context, userID string, requestedLocale string) (entity.Actor, error) {
	user, err := u.GetByID(c, userID)
	if err != nil {
		return entity.Actor{}, err
	}

	if requestedLocale != "" {
		locale, err := entity.ParseLocale(requestedLocale)
		if err != nil {
			return entity.Actor{}, auth.ErrInvalidLocale
		}
		return user.Actor(locale), nil
	}

	locale, err := entity.ParseLocale(user.Locale)
	if err != nil {
		locale = entity.DefaultLocale
	}

	return user.Actor(locale), nil
}
