package idp_test

import (
	"encoding/base64"
	"testing"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/idp"
	apperrors "github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	original := idp.State{App: idp.AppAdmin, ReturnTo: "/admin/tenants"}

	decoded, err := idp.DecodeState(original.Encode())
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestDecodeStateEmpty(t *testing.T) {
	decoded, err := idp.DecodeState("")
	require.NoError(t, err)
	require.Equal(t, idp.State{}, decoded)
}

func TestDecodeStateMalformed(t *testing.T) {
	for _, raw := range []string{
		"%%%not-base64%%%",
		base64.StdEncoding.EncodeToString([]byte("not json")),
	} {
		_, err := idp.DecodeState(raw)
		require.Error(t, err, raw)
		require.ErrorIs(t, err, apperrors.ErrBadState)
	}
}

func TestDecodeStateAcceptsURLEncoding(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte(`{"app":"tenant","returnTo":"/t/acme"}`))

	decoded, err := idp.DecodeState(raw)
	require.NoError(t, err)
	require.Equal(t, idp.State{App: idp.AppTenant, ReturnTo: "/t/acme"}, decoded)
}
