package services

import (
	"strconv"
	"time"

	"github.com/anjiri1684/classroom/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Claims is the payload of a session token. The subject carries the user id
// in decimal form.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. It keeps no state
// besides its configuration and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(userID uint, email string, role models.Role) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

// KeyFunc hands out the signing secret for HS256 tokens only.
func (s *TokenService) KeyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}

// Parse verifies signature and expiry and only then returns the claims.
// Issuer and audience are not checked.
func (s *TokenService) Parse(token string) (claims *Claims, ok bool) {
	if token == "" {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			claims, ok = nil, false
		}
	}()

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, s.KeyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, false
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || c.ExpiresAt == nil {
		return nil, false
	}
	return c, true
}

func (s *TokenService) Validate(token string) bool {
	_, ok := s.Parse(token)
	return ok
}

func (s *TokenService) ExtractUserID(token string) (uint, bool) {
	c, ok := s.Parse(token)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *TokenService) ExtractEmail(token string) (string, bool) {
	c, ok := s.Parse(token)
	if !ok {
		return "", false
	}
	return c.Email, true
}

func (s *TokenService) ExtractRole(token string) (models.Role, bool) {
	c, ok := s.Parse(token)
	if !ok {
		return "", false
	}
	return models.ParseRole(string(c.Role))
}
