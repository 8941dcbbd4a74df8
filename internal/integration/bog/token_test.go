package bog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qripge/qrip-backend/internal/config"
	"github.com/qripge/qrip-backend/internal/logger"
)

func TestTokenProviderCachesToken(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostFormValue("grant_type"))
		assert.Equal(t, "client-1", r.PostFormValue("client_id"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, atomic.LoadInt32(&requests))
	}))
	defer srv.Close()

	provider := NewTokenProvider(config.BOGConfig{
		ClientID:     "client-1",
		ClientSecret: "secret",
		OAuthURL:     srv.URL,
	}, logger.GetLogger())

	token, err := provider.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	// Second call is served from the cache, no extra request.
	token, err = provider.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))
}

func TestTokenProviderRefreshesNearExpiry(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		// Lifetime shorter than the refresh margin: never cacheable.
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":60}`, atomic.LoadInt32(&requests))
	}))
	defer srv.Close()

	provider := NewTokenProvider(config.BOGConfig{
		ClientID:     "client-1",
		ClientSecret: "secret",
		OAuthURL:     srv.URL,
	}, logger.GetLogger())

	token, err := provider.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	token, err = provider.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestTokenProviderRejectsMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	provider := NewTokenProvider(config.BOGConfig{OAuthURL: srv.URL}, logger.GetLogger())

	_, err := provider.GetAccessToken(context.Background())
	assert.Error(t, err)
}
