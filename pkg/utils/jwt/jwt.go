package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	CompanyID *uint  `json:"company_id,omitempty"`
	Purpose   string `json:"purpose"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

func NewManager(secret string, ttl, resetTTL time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, resetTTL: resetTTL, now: time.Now}
}

func (m *Manager) GenerateToken(userID uint, email string, companyID *uint) (string, error) {
	return m.sign(Claims{UserID: userID, Email: email, CompanyID: companyID, Purpose: PurposeAccess}, m.ttl)
}

// GenerateResetToken issues a short-lived token that only ValidateResetToken accepts.
func (m *Manager) GenerateResetToken(userID uint, email string) (string, error) {
	return m.sign(Claims{UserID: userID, Email: email, Purpose: PurposePasswordReset}, m.resetTTL)
}

func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, PurposeAccess)
}

func (m *Manager) ValidateResetToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, PurposePasswordReset)
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) validate(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
