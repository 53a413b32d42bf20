// Package services содержит логику регистрации, входа и проверки сессий.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/password"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

var (
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrTokenRevoked токен отозван при выходе из аккаунта.
	ErrTokenRevoked = errors.New("token revoked")
)

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	// CreateUserWithLicense сохраняет пользователя вместе с пробной лицензией.
	CreateUserWithLicense(ctx context.Context, user models.User, lic models.License) (string, error)
	// GetUserByEmail возвращает пользователя или repository.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RevocationStore хранит идентификаторы отозванных токенов.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService отвечает за регистрацию, вход, проверку и отзыв JWT.
type AuthService struct {
	users       UserRepository
	jwtMaker    jwt.Maker
	revoked     RevocationStore
	trialPeriod time.Duration
	bcryptCost  int
	now         func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, revoked RevocationStore, trialPeriod time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:       users,
		jwtMaker:    jwtMaker,
		revoked:     revoked,
		trialPeriod: trialPeriod,
		bcryptCost:  bcryptCost,
		now:         time.Now,
	}
}

// Register создает пользователя с ролью user и открывает ему пробный период.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "services.auth.Register"
	hashed, err := password.GetHash(rawPassword, s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        normalizeEmail(email),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	uid, err := s.users.CreateUserWithLicense(ctx, user, models.NewTrialLicense("", s.now(), s.trialPeriod))
	if errors.Is(err, repository.ErrAlreadyExists) {
		return "", fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.Session, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, claims, err := s.jwtMaker.GenerateToken(user.UUID, user.Email, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, sessionFromClaims(claims), nil
}

// ValidateToken проверяет подпись, срок действия и отзыв токена.
// Ошибка хранилища отзывов считается отказом в доступе.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Session, error) {
	const op = "services.auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}
	return sessionFromClaims(claims), nil
}

// Logout отзывает токен до конца его срока действия.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	const op = "services.auth.Logout"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err = s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func sessionFromClaims(claims *jwt.CustomClaims) *models.Session {
	return &models.Session{
		UserID:  claims.UserUID,
		Email:   claims.Email,
		Role:    models.Role(claims.Role),
		TokenID: claims.ID,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
