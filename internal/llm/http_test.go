package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/partsynth/internal/common"
)

func TestSendJSON_ForwardsRequestID(t *testing.T) {
	var gotID, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ctx := common.WithRequestID(context.Background(), "req-42")
	raw, status, err := SendJSON(ctx, srv.Client(), JSONCall{
		Op:      "test",
		URL:     srv.URL,
		Body:    map[string]any{"query": "6203-2RS"},
		Headers: map[string]string{"Authorization": "Bearer k"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "6203-2RS", gotBody["query"])
}

func TestSendJSON_MintsRequestID(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, _, err := SendJSON(context.Background(), srv.Client(), JSONCall{Op: "test", URL: srv.URL, Body: struct{}{}}, nil)
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestSendJSON_Non2xxCarriesSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(" rate limited " + strings.Repeat("x", 2*maxErrorBody)))
	}))
	defer srv.Close()

	raw, status, err := SendJSON(context.Background(), srv.Client(), JSONCall{Op: "chat", URL: srv.URL, Body: struct{}{}}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.NotEmpty(t, raw)
	assert.Contains(t, err.Error(), "chat: upstream status 429: rate limited")
	assert.Less(t, len(err.Error()), maxErrorBody+64)
}

func TestSendJSON_EncodeError(t *testing.T) {
	_, status, err := SendJSON(context.Background(), nil, JSONCall{Op: "chat", URL: "http://unused", Body: make(chan int)}, nil)
	require.Error(t, err)
	assert.Zero(t, status)
	assert.Contains(t, err.Error(), "encode body")
}
