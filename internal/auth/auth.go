// Package auth resolves the current user from a signed bearer token.
// The core never sees how tokens are minted; it only needs a user id
// or the knowledge that there is none.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUser is returned when no authenticated user can be resolved.
// Operations must abort without side effects when they see it.
var ErrNoUser = errors.New("no authenticated user")

// Verifier validates HS256-signed tokens and extracts the subject.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth secret is empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// UserFromToken verifies the token and returns its subject claim.
func (v *Verifier) UserFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}
	return subject, nil
}

// UserFromRequest resolves the user from the Authorization header.
// A missing or malformed header yields ErrNoUser.
func (v *Verifier) UserFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoUser
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoUser
	}

	userID, err := v.UserFromToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoUser, err)
	}
	return userID, nil
}
