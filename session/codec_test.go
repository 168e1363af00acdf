package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/session"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newCodec() *session.Codec {
	return session.NewCodecAt(func() time.Time { return testNow })
}

func testSession() session.Session {
	return session.Session{
		Role:         session.RoleMember,
		TenantID:     "t123",
		AccessToken:  "access-abc",
		IDToken:      "id-abc",
		RefreshToken: "refresh-abc",
		ExpiresAt:    testNow.Add(time.Hour),
	}
}

// requestWithCookies replays the Set-Cookie headers of a response onto a new
// request, the way a browser would on the next navigation.
func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 || c.Value != "" {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

func TestWriteReadRoundTrip(t *testing.T) {
	codec := newCodec()
	rec := httptest.NewRecorder()
	codec.Write(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil), testSession())

	got, ok := codec.Read(requestWithCookies(t, rec))
	require.True(t, ok)
	require.Equal(t, "access-abc", got.AccessToken)
	require.Equal(t, "id-abc", got.IDToken)
	require.Equal(t, "refresh-abc", got.RefreshToken)
	require.Equal(t, session.RoleMember, got.Role)
	require.Equal(t, "t123", got.TenantID)
	require.Equal(t, testSession().ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestReadFailsClosed(t *testing.T) {
	codec := newCodec()

	t.Run("no cookies at all", func(t *testing.T) {
		_, ok := codec.Read(httptest.NewRequest(http.MethodGet, "/", nil))
		require.False(t, ok)
	})

	required := []string{"access_token", "id_token", "session_expiry"}
	for _, missing := range required {
		t.Run("missing "+missing, func(t *testing.T) {
			rec := httptest.NewRecorder()
			codec.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), testSession())

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range rec.Result().Cookies() {
				if c.Name != missing && c.Value != "" {
					r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
				}
			}
			_, ok := codec.Read(r)
			require.False(t, ok)
		})
	}

	t.Run("malformed expiry", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "a"})
		r.AddCookie(&http.Cookie{Name: "id_token", Value: "b"})
		r.AddCookie(&http.Cookie{Name: "session_expiry", Value: "not-a-number"})
		_, ok := codec.Read(r)
		require.False(t, ok)
	})

	t.Run("expired session", func(t *testing.T) {
		expired := testSession()
		expired.ExpiresAt = testNow.Add(-time.Minute)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "access_token", Value: expired.AccessToken})
		r.AddCookie(&http.Cookie{Name: "id_token", Value: expired.IDToken})
		r.AddCookie(&http.Cookie{Name: "session_expiry", Value: "1000"})
		_, ok := codec.Read(r)
		require.False(t, ok)
	})
}

func TestWriteCookieAttributes(t *testing.T) {
	codec := newCodec()
	rec := httptest.NewRecorder()

	tlsReq := httptest.NewRequest(http.MethodGet, "/", nil)
	tlsReq.Header.Set("X-Forwarded-Proto", "https")
	codec.Write(rec, tlsReq, testSession())

	byName := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		byName[c.Name] = c
	}

	for _, name := range []string{"access_token", "id_token", "refresh_token"} {
		c := byName[name]
		require.NotNil(t, c, name)
		require.True(t, c.HttpOnly, "%s must be HttpOnly", name)
		require.True(t, c.Secure, name)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite, name)
		require.Equal(t, "/", c.Path, name)
	}

	// routing hints stay readable by scripts
	require.False(t, byName["role"].HttpOnly)
	require.False(t, byName["tenant_id"].HttpOnly)

	// refresh credential outlives the access credential
	require.Greater(t, byName["refresh_token"].MaxAge, byName["access_token"].MaxAge)
}

func TestWriteEnforcesMaxAgeFloor(t *testing.T) {
	codec := newCodec()
	rec := httptest.NewRecorder()

	nearlyExpired := testSession()
	nearlyExpired.ExpiresAt = testNow.Add(2 * time.Second)
	codec.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), nearlyExpired)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			continue
		}
		require.GreaterOrEqual(t, c.MaxAge, 60, c.Name)
	}
}

func TestWriteUsesCodecClock(t *testing.T) {
	// expiry is in the past on the wall clock; only the codec's own clock
	// makes the session 30 minutes from expiring
	expires := time.Now().Add(-time.Hour)
	codec := session.NewCodecAt(func() time.Time { return expires.Add(-30 * time.Minute) })

	s := testSession()
	s.ExpiresAt = expires

	rec := httptest.NewRecorder()
	codec.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), s)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "access_token" {
			require.Equal(t, 30*60, c.MaxAge)
			return
		}
	}
	t.Fatal("access_token cookie not written")
}

func TestClearDeletesEveryCookie(t *testing.T) {
	codec := newCodec()
	rec := httptest.NewRecorder()
	codec.Clear(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		require.Empty(t, c.Value, c.Name)
		require.Less(t, c.MaxAge, 0, "%s must carry a deletion max-age", c.Name)
		cleared[c.Name] = true
	}

	for _, name := range []string{
		"access_token", "id_token", "refresh_token",
		"role", "tenant_id", "session_expiry",
		"tenantId", // legacy schema
	} {
		require.True(t, cleared[name], "cookie %s not cleared", name)
	}
}
