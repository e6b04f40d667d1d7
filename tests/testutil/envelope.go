package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the API response shape with the payload left undecoded.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *EnvelopeError  `json:"error"`
	Meta    *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

type EnvelopeError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// DecodeEnvelope parses the recorded body. An empty body yields a zero Envelope.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if w.Body.Len() == 0 {
		return env
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DataAs decodes the envelope payload into T.
func DataAs[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	if len(env.Data) == 0 {
		return out
	}
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

// AssertErrorCode checks a failed envelope carries code.
func AssertErrorCode(t *testing.T, env Envelope, code string) {
	t.Helper()
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error, "expected an error body") {
		assert.Equal(t, code, env.Error.Code)
	}
}
