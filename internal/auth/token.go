// Package auth verifies the connect tokens presented by game clients.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"grindfall/server/internal/gameerr"
)

var (
	// ErrInvalidToken reports a token that does not verify.
	ErrInvalidToken = errors.New("invalid connect token")
	// ErrTokenExpired reports a token past its expiry.
	ErrTokenExpired = errors.New("connect token expired")
	// ErrCharacterNotAllowed reports a character the token does not grant.
	ErrCharacterNotAllowed = errors.New("character not allowed by token")
	// ErrMissingSecret indicates a verifier built without signing key.
	ErrMissingSecret = errors.New("auth: secret is required")
)

// Config defines how connect tokens are signed and verified.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
	Now    func() time.Time
	// Anonymous skips verification entirely; the character id doubles as
	// the user id. Meant for local development.
	Anonymous bool
}

// Identity is the verified caller of a connection.
type Identity struct {
	UserID      string
	CharacterID string
}

type connectClaims struct {
	jwt.RegisteredClaims
	Characters []string `json:"characters,omitempty"`
}

// Verifier checks HS256 connect tokens.
type Verifier struct {
	cfg Config
}

// NewVerifier constructs a verifier for cfg.
func NewVerifier(cfg Config) (*Verifier, error) {
	if !cfg.Anonymous && len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify validates token and checks it grants characterID. A token without
// a characters claim grants every character of its subject. Failures are
// protocol errors, the connection is not usable.
func (v *Verifier) Verify(token, characterID string) (Identity, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return Identity{}, gameerr.Protocol("verify token", fmt.Errorf("%w: character id is required", ErrInvalidToken))
	}
	if v == nil {
		return Identity{}, gameerr.Protocol("verify token", ErrInvalidToken)
	}
	if v.cfg.Anonymous {
		return Identity{UserID: characterID, CharacterID: characterID}, nil
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, gameerr.Protocol("verify token", fmt.Errorf("%w: token is required", ErrInvalidToken))
	}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.cfg.Now),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.cfg.Issuer))
	}
	var claims connectClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	}, options...)
	if err != nil {
		return Identity{}, gameerr.Protocol("verify token", mapJWTError(err))
	}
	if claims.Subject == "" {
		return Identity{}, gameerr.Protocol("verify token", fmt.Errorf("%w: subject is required", ErrInvalidToken))
	}
	if len(claims.Characters) > 0 && !slices.Contains(claims.Characters, characterID) {
		return Identity{}, gameerr.Protocol("verify token", ErrCharacterNotAllowed)
	}
	return Identity{UserID: claims.Subject, CharacterID: characterID}, nil
}

// Issue signs a token for userID valid for ttl. Characters restricts the
// characters the token may select; empty allows all of them.
func (v *Verifier) Issue(userID string, characters []string, ttl time.Duration) (string, error) {
	if v == nil || len(v.cfg.Secret) == 0 {
		return "", ErrMissingSecret
	}
	now := v.cfg.Now()
	claims := connectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Characters: characters,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.cfg.Secret)
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
