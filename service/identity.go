package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theochan/humangen/models"
)

// Identities are anonymous: no account, no email, just a UUID minted on
// first visit and carried in a long-lived token.
const identityTokenLifetime = 90 * 24 * time.Hour

// EnsureIdentity resolves the caller's identity. A valid token that still
// maps to a stored identity is reused as-is; anything else (no token,
// expired, unknown id) gets a fresh identity and token.
func (s *Service) EnsureIdentity(ctx context.Context, token string) (models.Identity, string, error) {
	if token != "" {
		if id, err := s.VerifyJWT(token); err == nil {
			identity, err := s.Store.GetIdentity(ctx, id)
			if err == nil {
				return identity, token, nil
			}
		}
	}

	identity, _, err := s.Store.EnsureIdentity(ctx, models.Identity{})
	if err != nil {
		return models.Identity{}, "", err
	}

	newToken, err := s.CreateJWT(identity.Id)
	if err != nil {
		return models.Identity{}, "", err
	}

	return identity, newToken, nil
}

func (s *Service) CreateJWT(id string) (string, error) {
	claims := jwt.MapClaims{
		"id":  id,
		"exp": time.Now().Add(identityTokenLifetime).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	id, ok := claims["id"].(string)
	if !ok {
		return "", errors.New("missing id claim")
	}

	return id, nil
}

func (s *Service) AuthenticateToken(ctx context.Context, token string) (models.Identity, error) {
	if len(token) == 0 {
		return models.Identity{}, errors.New("token not provided")
	}

	id, err := s.VerifyJWT(token)
	if err != nil {
		return models.Identity{}, err
	}

	identity, err := s.Store.GetIdentity(ctx, id)
	if err != nil {
		return models.Identity{}, err
	}

	return identity, nil
}
