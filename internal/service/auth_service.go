package service

import (
	"context"
	"fmt"
	"log"

	"github.com/medaminemghirbi/SallaPro/internal/auth"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
)

type Session struct {
	Token auth.Token
	User  *models.User
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, userID uint) (*models.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	issuer   *auth.Issuer
	revoker  auth.Revoker
}

func NewAuthService(userRepo repository.UserRepository, issuer *auth.Issuer, revoker auth.Revoker) AuthService {
	return &authService{userRepo: userRepo, issuer: issuer, revoker: revoker}
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, invalid("email", "and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	jti, err := s.revoker.TokenID(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("token id: %w", err)
	}
	token, err := s.issuer.Issue(user, jti)
	if err != nil {
		return nil, err
	}

	log.Printf("[Auth] user %d signed in", user.ID)
	return &Session{Token: token, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return err
	}
	log.Printf("[Auth] user %d signed out", claims.UserID())
	return nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "user", ID: userID}
		}
		return nil, err
	}
	return user, nil
}
