// Package tokens encodes a single integer (a view index or a tutorial file
// index) into a short-lived signed token.
//
// Tokens are capabilities, not identity: they carry no user id, and callers
// must authenticate the request on their own before honouring the payload.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose keeps a token minted for one use from being replayed for another.
type Purpose string

const (
	PurposeView Purpose = "view"
	PurposeFile Purpose = "file"
)

type claims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
	Value   int     `json:"value"`
}

// Codec signs and verifies tokens with an HMAC key.
type Codec struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now, for both minting and verification.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secretKey []byte, ttl time.Duration, opts ...Option) *Codec {
	c := &Codec{secretKey: secretKey, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Encode mints a token carrying value for purpose.
func (c *Codec) Encode(purpose Purpose, value int) (string, error) {
	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Purpose: purpose,
		Value:   value,
	})

	s, err := tok.SignedString(c.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return s, nil
}

// Decode returns the token's value and true, or 0 and false when the token
// is empty, malformed, forged, expired or minted for another purpose.
func (c *Codec) Decode(purpose Purpose, token string) (int, bool) {
	if token == "" {
		return 0, false
	}

	cl := &claims{}
	parsed, err := jwt.ParseWithClaims(token, cl, func(t *jwt.Token) (any, error) {
		return c.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || cl.Purpose != purpose {
		return 0, false
	}
	return cl.Value, true
}
