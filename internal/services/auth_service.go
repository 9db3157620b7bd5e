package services

import (
	"errors"
	"fmt"
	"time"

	"portfolio/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the part of Storage the auth service needs.
type UserStore interface {
	CreateUser(in models.UserInput) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
}

// AuthService issues and validates admin bearer tokens.
type AuthService struct {
	users      UserStore
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService. A zero ttl falls back to 24 hours.
func NewAuthService(users UserStore, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: ttl,
	}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// EnsureAdmin creates the admin account unless a user with that name already exists.
// passwordHash takes precedence over password when both are set.
func (s *AuthService) EnsureAdmin(username, password, passwordHash, email string) (*models.User, error) {
	existing, err := s.users.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash := passwordHash
	if hash == "" {
		if password == "" {
			return nil, fmt.Errorf("admin user %q has no password configured", username)
		}
		if hash, err = HashPassword(password); err != nil {
			return nil, err
		}
	}

	user, err := s.users.CreateUser(models.UserInput{Username: username, Password: hash, Email: email})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Info().Str("username", username).Msg("Admin user created")
	return user, nil
}

// LoginUser authenticates a user and returns a signed token.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
