package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"garden-server/internal/models"
	"garden-server/internal/repository"
)

const tokenIssuer = "garden-server"

// Claims is the JWT payload issued on login.
type Claims struct {
	ParentID string `json:"parent_id"`
	jwt.RegisteredClaims
}

// Service handles parent registration, login and token verification.
type Service struct {
	parents   repository.ParentRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewService(parents repository.ParentRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		parents:   parents,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.Named("AuthService"),
	}
}

// Register creates a new parent account.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.Parent, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}
	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", zap.String("email", email))
		return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidCredentials)
	}

	existing, err := s.parents.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrParentNotFound) {
		s.logger.Error("Error checking existing username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("error checking existing username: %w", err)
	}
	if existing != nil {
		return nil, models.ErrParentExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	parent := &models.Parent{
		ID:           models.NewID(models.IDPrefixParent),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.parents.Create(ctx, parent); err != nil {
		return nil, err
	}

	s.logger.Info("Parent registered", zap.String("parent_id", parent.ID), zap.String("username", username))
	return parent, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.Parent, error) {
	username = strings.TrimSpace(username)
	parent, err := s.parents.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrParentNotFound) {
			s.logger.Warn("Login failed: parent not found", zap.String("username", username))
			return "", nil, models.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get parent: %w", err)
	}

	if !checkPasswordHash(password, parent.PasswordHash) {
		s.logger.Warn("Login failed: invalid password", zap.String("username", username))
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.createToken(parent.ID)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.String("parent_id", parent.ID), zap.Error(err))
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("Parent logged in", zap.String("parent_id", parent.ID))
	return token, parent, nil
}

// VerifyToken parses and validates an access token, returning the parent ID.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", models.ErrUnauthorized
	}
	if claims.ParentID == "" {
		return "", models.ErrUnauthorized
	}
	return claims.ParentID, nil
}

func (s *Service) createToken(parentID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ParentID: parentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   parentID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
