package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken covers bad signatures, foreign algorithms, malformed and expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned by ParseToken when the signature is valid but exp has passed.
var ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)

// CredentialService defines password hashing and bearer token operations
type CredentialService interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, hash string) bool
	IssueToken(claims jwt.MapClaims, ttl time.Duration) (string, error)
	ParseToken(token string) (jwt.MapClaims, error)
}

// credentialService implements the CredentialService interface
type credentialService struct {
	secretKey  []byte
	bcryptCost int
	now        func() time.Time
}

// NewCredentialService creates a credential service signing with secretKey.
// The key is held by reference and never regenerated.
func NewCredentialService(secretKey []byte, bcryptCost int) CredentialService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &credentialService{
		secretKey:  secretKey,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *credentialService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword returns false on mismatch or on a malformed hash.
func (s *credentialService) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IssueToken signs a copy of claims with exp = now+ttl and iat = now.
func (s *credentialService) IssueToken(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	now := s.now()
	toEncode := jwt.MapClaims{}
	for k, v := range claims {
		toEncode[k] = v
	}
	toEncode["exp"] = now.Add(ttl).Unix()
	toEncode["iat"] = now.Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, toEncode)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (s *credentialService) ParseToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// Expiry is checked here against the injected clock instead of inside the parser.
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	if s.now().Unix() > int64(exp) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// TokenSubject returns the sub claim, falling back to username.
func TokenSubject(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	username, _ := claims["username"].(string)
	return username
}
