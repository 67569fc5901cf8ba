package authService

import (
	"Replicaide/internal/api/auth"
	authRepository "Replicaide/internal/api/auth/repository"
	"Replicaide/internal/entity"
	"Replicaide/pkg/bcrypt"
	"Replicaide/pkg/google"
	"Replicaide/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type AuthService interface {
	User() UserDomain
	Auth() AuthDomain
}

type UserDomain interface {
	RegisterUser(c context.Context, req auth.RegisterRequest) (auth.UserResponse, error)
	GetByID(c context.Context, id string) (entity.User, error)
	Actor(c context.Context, userID string, requestedLocale string) (entity.Actor, error)
}

type AuthDomain interface {
	Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error)
	GoogleLoginURL(state string) string
	LoginGoogle(c context.Context, code string) (auth.LoginUserResponse, error)
}

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type authService struct {
	userDomain UserDomain
	authDomain AuthDomain
}

func (a *authService) User() UserDomain {
	return a.userDomain
}

func (a *authService) Auth() AuthDomain {
	return a.authDomain
}

type userDomainImpl struct {
	log         *logrus.Logger
	repo        authRepository.Repository
	bcryptUtils bcrypt.IBcrypt
	utils       utils.IUtils
}

type authDomainImpl struct {
	log            *logrus.Logger
	repo           authRepository.Repository
	googleProvider google.ItfGoogle
	bcryptUtils    bcrypt.IBcrypt
	cfg            Config
}

func New(log *logrus.Logger,
	authRepo authRepository.Repository,
	googleProvider google.ItfGoogle,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
	cfg Config,
) AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &authService{
		userDomain: &userDomainImpl{
			log:         log,
			repo:        authRepo,
			bcryptUtils: bcryptUtils,
			utils:       utils,
		},
		authDomain: &authDomainImpl{
			log:            log,
			repo:           authRepo,
			googleProvider: googleProvider,
			bcryptUtils:    bcryptUtils,
			cfg:            cfg,
		},
	}
}
