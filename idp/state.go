package idp

import (
	"encoding/base64"

	"github.com/goccy/go-json"

	apperrors "github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/errors"
)

// State is the opaque value threaded through the provider's authorization
// step and returned verbatim on callback. It records which registration
// likely initiated the flow and where to land after login. The provider (and
// the browser) round-trip it untouched; on return it is untrusted input and
// only ever used as a hint.
type State struct {
	App      string `json:"app,omitempty"`
	ReturnTo string `json:"returnTo,omitempty"`
}

// Encode serialises the state as base64(JSON).
func (s State) Encode() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeState parses a callback state value. An empty value decodes to the
// zero state. Malformed input returns ErrBadState; callers degrade to
// defaults rather than failing the flow.
func DecodeState(raw string) (State, error) {
	if raw == "" {
		return State{}, nil
	}

	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// some provider round-trips arrive URL-encoded
		b, err = base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return State{}, apperrors.Wrapf(apperrors.ErrBadState, "decode state %q", raw)
		}
	}

	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, apperrors.Wrapf(apperrors.ErrBadState, "unmarshal state %q", raw)
	}
	return s, nil
}
