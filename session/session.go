// Package session carries the authenticated-browser state entirely in
// cookies. There is no server-side session store: the cookie set written on
// login is the only source of truth, which keeps the servers stateless and
// horizontally scalable. Callers only see the Codec interface, so a stored
// session could replace the cookie model without touching them.
package session

import "time"

// Role is the coarse role carried by a session.
type Role string

const (
	RoleMember     Role = "member"
	RoleSuperAdmin Role = "super_admin"
)

// Session represents one authenticated browser.
type Session struct {
	Subject string // stable identity provider subject
	Email   string
	Role    Role
	// TenantID scopes the session to one kid application. Empty for
	// super admins, whose sessions are tenant-free.
	TenantID string
	// AccessToken is the opaque bearer credential forwarded to the backend.
	AccessToken string
	// IDToken carries the identity claims. Used for display only, never for
	// backend authorization.
	IDToken string
	// RefreshToken is stored but not automatically exchanged.
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the session carries the required credentials and has
// not expired at the given instant.
func (s Session) Valid(now time.Time) bool {
	if s.AccessToken == "" || s.IDToken == "" {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// IsSuperAdmin reports whether the session belongs to the mother application.
func (s Session) IsSuperAdmin() bool {
	return s.Role == RoleSuperAdmin
}
