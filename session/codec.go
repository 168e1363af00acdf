package session

import (
	"net/http"
	"strconv"
	"time"
)

// Cookie names. Credential cookies are HttpOnly; role and tenant are routing
// hints the browser script is allowed to read.
const (
	cookieAccessToken  = "access_token"
	cookieIDToken      = "id_token"
	cookieRefreshToken = "refresh_token"
	cookieRole         = "role"
	cookieTenantID     = "tenant_id"
	cookieExpiry       = "session_expiry"
)

// legacyCookieNames were set by earlier cookie schema versions. Clear deletes
// them too so no stale cookie survives a logout across deployments.
var legacyCookieNames = []string{"tenantId", "user_email"}

const (
	// minMaxAge floors the cookie lifetime so a token expiring within the
	// redirect window cannot produce a zero or negative max-age.
	minMaxAge = 60
	// refreshMaxAge keeps the refresh credential long enough to outlive many
	// access-token lifetimes.
	refreshMaxAge = 30 * 24 * 60 * 60
)

// Codec encodes and decodes a Session to and from the request cookie set.
// The zero value is not usable; call NewCodec.
type Codec struct {
	now func() time.Time
}

// NewCodec returns a cookie codec using wall-clock time.
func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// NewCodecAt returns a codec with a fixed clock, for tests.
func NewCodecAt(now func() time.Time) *Codec {
	return &Codec{now: now}
}

// Read reconstructs the session from the request cookies. It fails closed:
// any missing required cookie, malformed value, or past expiry yields ok ==
// false and never an error.
func (c *Codec) Read(r *http.Request) (Session, bool) {
	access := cookieValue(r, cookieAccessToken)
	id := cookieValue(r, cookieIDToken)
	expiryRaw := cookieValue(r, cookieExpiry)
	if access == "" || id == "" || expiryRaw == "" {
		return Session{}, false
	}

	expiryUnix, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil {
		return Session{}, false
	}
	expiresAt := time.Unix(expiryUnix, 0)

	s := Session{
		Role:         RoleMember,
		TenantID:     cookieValue(r, cookieTenantID),
		AccessToken:  access,
		IDToken:      id,
		RefreshToken: cookieValue(r, cookieRefreshToken),
		ExpiresAt:    expiresAt,
	}
	if cookieValue(r, cookieRole) == string(RoleSuperAdmin) {
		s.Role = RoleSuperAdmin
	}

	if !s.Valid(c.now()) {
		return Session{}, false
	}
	return s, true
}

// Write sets every session cookie on the response. All cookies share one
// max-age derived from the session expiry so the set expires atomically.
func (c *Codec) Write(w http.ResponseWriter, r *http.Request, s Session) {
	maxAge := int(s.ExpiresAt.Sub(c.now()).Seconds())
	if maxAge < minMaxAge {
		maxAge = minMaxAge
	}
	secure := isSecureRequest(r)

	setCookie(w, cookieAccessToken, s.AccessToken, maxAge, true, secure)
	setCookie(w, cookieIDToken, s.IDToken, maxAge, true, secure)
	if s.RefreshToken != "" {
		setCookie(w, cookieRefreshToken, s.RefreshToken, refreshMaxAge, true, secure)
	}
	setCookie(w, cookieRole, string(s.Role), maxAge, false, secure)
	if s.TenantID != "" {
		setCookie(w, cookieTenantID, s.TenantID, maxAge, false, secure)
	}
	setCookie(w, cookieExpiry, strconv.FormatInt(s.ExpiresAt.Unix(), 10), maxAge, false, secure)
}

// Clear deletes every cookie Write may have set, current and legacy schema.
func (c *Codec) Clear(w http.ResponseWriter, r *http.Request) {
	secure := isSecureRequest(r)
	names := []string{
		cookieAccessToken,
		cookieIDToken,
		cookieRefreshToken,
		cookieRole,
		cookieTenantID,
		cookieExpiry,
	}
	names = append(names, legacyCookieNames...)
	for _, name := range names {
		setCookie(w, name, "", 0, false, secure)
	}
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int, httpOnly, secure bool) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
	if maxAge <= 0 {
		// MaxAge 0 means "no attribute" to net/http; -1 emits Max-Age=0,
		// which is the deletion the browser understands.
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, cookie)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return true
	}
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
