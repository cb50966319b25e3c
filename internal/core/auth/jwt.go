package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"luxauction-api/internal/domain"
)

var ErrNoSecret = errors.New("jwt secret is not configured")

const leeway = time.Minute

// Claims carry the identity the listing core trusts after verification.
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"` // Seller / Buyer / Admin
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() domain.Principal {
	return domain.Principal{ID: c.UID, Role: c.Role}
}

// JWTer issues and verifies HS256 tokens. Now is for tests.
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) Issue(uid, role, name string) (string, error) {
	if len(j.Secret) == 0 {
		return "", ErrNoSecret
	}
	now := j.now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID:  uid,
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}).SignedString(j.Secret)
}

// Parse verifies signature, issuer and expiry. A token without uid is refused.
func (j *JWTer) Parse(raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return j.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, err
	}
	if c.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", jwt.ErrTokenInvalidClaims)
	}
	return &c, nil
}
