// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// GuestIDPrefix marks identities synthesized without a sign-in provider.
const GuestIDPrefix = "guest_"

// User is the signed-in identity. It is never mutated after sign-in.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// IsGuest reports whether the user opted out of provider sign-in.
func (u User) IsGuest() bool {
	return strings.HasPrefix(u.ID, GuestIDPrefix)
}
