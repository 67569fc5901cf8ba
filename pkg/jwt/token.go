package jwtPkg

import (
	"Replicaide/internal/entity"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyHeader         = errors.New("empty Authorization header")
	ErrInvalidHeaderFormat = errors.New("invalid Authorization format")
	ErrMissingClaims       = errors.New("token claims are missing required fields")
	ErrSecretNotConfigured = errors.New("JWT secret not configured")
)

func Sign(data map[string]interface{}, secret string, ttl time.Duration) (string, int64, error) {
	if secret == "" {
		return "", 0, ErrSecretNotConfigured
	}

	expiredAt := time.Now().Add(ttl).Unix()

	claims := jwt.MapClaims{}
	for k, v := range data {
		claims[k] = v
	}
	claims["exp"] = expiredAt
	claims["authorization"] = true

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// header value and verifies it with secret.
func ParseBearer(header string, secret string) (*jwt.Token, error) {
	if header == "" {
		return nil, ErrEmptyHeader
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return nil, ErrInvalidHeaderFormat
	}

	accessToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if accessToken == "" {
		return nil, ErrInvalidHeaderFormat
	}

	return Parse(accessToken, secret)
}

func Parse(accessToken string, secret string) (*jwt.Token, error) {
	if secret == "" {
		return nil, ErrSecretNotConfigured
	}

	return jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
}

// LoginDataFromToken reads the id, email and username claims of a verified
// token.
func LoginDataFromToken(token *jwt.Token) (entity.UserLoginData, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	if id == "" || email == "" || username == "" {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	return entity.UserLoginData{
		ID:       id,
		Email:    email,
		Username: username,
	}, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	userData := c.Locals("user")

	user, ok := userData.(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
