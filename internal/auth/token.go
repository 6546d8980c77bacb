// Package auth issues and validates bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/coinmarket/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnsupportedAlg     = errors.New("unsupported signing algorithm")
)

// Claims carries the account's username; the account itself is resolved on
// every request so deactivation takes effect immediately.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Token struct {
	Token     string
	ExpiresAt time.Time
}

// Issuer signs and verifies HMAC tokens with one fixed algorithm.
type Issuer struct {
	secret []byte
	issuer string
	method jwt.SigningMethod
	expiry time.Duration
	now    func() time.Time
}

func NewIssuer(cfg config.AuthConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("empty jwt secret")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)

	hmac, ok := method.(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, cfg.Algorithm)
	}

	if cfg.Expiry <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive, got %s", cfg.Expiry)
	}

	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		method: hmac,
		expiry: cfg.Expiry,
		now:    time.Now,
	}, nil
}

func (i *Issuer) Issue(username string) (Token, error) {
	now := i.now()
	exp := now.Add(i.expiry)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Token: signed, ExpiresAt: exp}, nil
}

// Parse verifies signature, algorithm, issuer and expiry and returns the
// username the token was issued for.
func (i *Issuer) Parse(raw string) (string, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Username == "" {
		return "", fmt.Errorf("%w: token contained no recognizable user identification", ErrInvalidToken)
	}

	return claims.Username, nil
}
