// Package auth provides login, token issuance, and password flows.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Reset tokens are valid for one hour.
const resetTokenTTL = time.Hour

// ErrInvalidCredentials is returned for any bad email/password combination,
// without distinguishing which part was wrong.
var ErrInvalidCredentials = errors.New("auth: invalid email or password")

// Service signs and verifies tokens and runs the password flows.
type Service struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
}

// Claims is the JWT payload carried by issued tokens.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// New builds a Service. ttlHours of 0 defaults to 24.
func New(db *gorm.DB, secret string, ttlHours int) *Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Service{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: time.Duration(ttlHours) * time.Hour,
	}
}

// Login verifies the credentials and returns a signed HS256 token and the
// authenticated user. Inactive accounts cannot log in.
func (s *Service) Login(email, password string) (string, *models.User, error) {
	u, err := user.GetByEmail(s.db, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !u.Active {
		return "", nil, fmt.Errorf("auth: account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issue(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Verify parses and validates a token, returning its claims.
func (s *Service) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return &claims, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(userID uint, current, next string) error {
	u, err := user.Get(s.db, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("auth: current password is incorrect")
	}
	return s.setPassword(u.ID, next)
}

// RequestPasswordReset creates a single-use reset token for the account.
// Unknown emails return an empty token and no error, so callers cannot
// probe which addresses are registered.
func (s *Service) RequestPasswordReset(email string) (string, error) {
	u, err := user.GetByEmail(s.db, email)
	if err != nil {
		return "", nil
	}

	reset := models.PasswordReset{
		UserID:    u.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.Create(&reset).Error; err != nil {
		return "", fmt.Errorf("auth: create reset token: %w", err)
	}
	return reset.Token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(token, next string) error {
	var reset models.PasswordReset
	if err := s.db.Where("token = ?", token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("auth: unknown reset token")
		}
		return fmt.Errorf("auth: get reset token: %w", err)
	}
	if reset.Used {
		return fmt.Errorf("auth: reset token already used")
	}
	if time.Now().After(reset.ExpiresAt) {
		return fmt.Errorf("auth: reset token expired")
	}

	if err := s.setPassword(reset.UserID, next); err != nil {
		return err
	}
	if err := s.db.Model(&models.PasswordReset{}).
		Where("id = ?", reset.ID).
		Update("used", true).Error; err != nil {
		return fmt.Errorf("auth: mark token used: %w", err)
	}
	return nil
}

func (s *Service) issue(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

func (s *Service) setPassword(userID uint, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("auth: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("auth: store password for %d: %w", userID, err)
	}
	return nil
}
