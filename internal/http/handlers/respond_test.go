package handlers_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/storefront/catalogapi/internal/http/handlers"
	"github.com/storefront/catalogapi/internal/http/middlewares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareErrorBodyFitsEnvelope(t *testing.T) {
	in := middlewares.ErrorBody{Message: "Too many requests", Error: "boom", RetryAfter: 42}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var env handlers.Envelope
	require.NoError(t, dec.Decode(&env), string(raw))
	assert.Equal(t, handlers.Envelope{Success: false, Message: "Too many requests", Error: "boom", RetryAfter: 42}, env)

	// success is always present, even when false
	assert.Contains(t, string(raw), `"success":false`)
}
