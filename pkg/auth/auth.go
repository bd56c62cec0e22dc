package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrUnauthenticated is returned for missing, malformed, expired or badly signed tokens
var ErrUnauthenticated = goerr.New("unauthenticated")

// Verifier validates HS256 session tokens and issues new ones
type Verifier struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Verifier)

// WithClock replaces the clock used for issuing and validating expiry
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// New creates a verifier. The secret must not be empty.
func New(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, goerr.New("session secret is required")
	}

	v := &Verifier{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Issue signs a token for uid that expires after ttl
func (v *Verifier) Issue(uid model.UserID, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", goerr.New("user ID is required")
	}

	now := v.now()
	claims := jwt.MapClaims{
		"uid": string(uid),
		"sub": string(uid),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign session token")
	}
	return signed, nil
}

// Verify returns the user a token was issued for. The uid claim is preferred
// and sub is used when it is absent. A token without exp is rejected.
func (v *Verifier) Verify(tokenString string) (model.UserID, error) {
	if tokenString == "" {
		return "", goerr.Wrap(ErrUnauthenticated, "empty token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, goerr.New("unexpected signing method", goerr.V("alg", token.Header["alg"]))
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", goerr.Wrap(ErrUnauthenticated, "invalid token", goerr.V("reason", err.Error()))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", goerr.Wrap(ErrUnauthenticated, "invalid token claims")
	}

	if uid, ok := claims["uid"].(string); ok && uid != "" {
		return model.UserID(uid), nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return model.UserID(sub), nil
	}
	return "", goerr.Wrap(ErrUnauthenticated, "token has no user")
}
