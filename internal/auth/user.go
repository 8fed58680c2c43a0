// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jeranaias/guru-tui/internal/model"
)

// Guest profile values.
const (
	GuestName    = "Guest User"
	GuestEmail   = "guest@flutterai.guru"
	GuestPicture = "https://www.gravatar.com/avatar/00000000000000000000000000000000?d=mp&f=y"
)

var (
	// ErrInvalidToken is returned for ID tokens that cannot be decoded or
	// lack a subject.
	ErrInvalidToken = errors.New("invalid ID token")

	// ErrProviderUnavailable is returned when the identity provider did not
	// become ready in time.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrNotConfigured is returned when no OAuth client ID is set.
	ErrNotConfigured = errors.New("Google sign-in not configured")
)

// Guest synthesizes a guest user whose ID embeds the creation time.
func Guest(now time.Time) model.User {
	return model.User{
		ID:      model.GuestIDPrefix + strconv.FormatInt(now.UnixMilli(), 10),
		Name:    GuestName,
		Email:   GuestEmail,
		Picture: GuestPicture,
	}
}

// idClaims are the profile claims read from a Google ID token.
type idClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// FromIDToken decodes a Google ID token without verifying its signature and
// maps its profile claims onto a user.
func FromIDToken(token string) (model.User, error) {
	var claims idClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return model.User{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return model.User{
		ID:      claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, nil
}
