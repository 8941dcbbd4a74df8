package bog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/qripge/qrip-backend/internal/config"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
)

// tokenExpiryMargin is subtracted from the gateway-reported lifetime so
// a token is refreshed before it actually expires mid-request.
const tokenExpiryMargin = 300 * time.Second

// TokenProvider issues BOG API access tokens, caching them until close
// to expiry. Constructed once per process and injected wherever the
// gateway is called.
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (string, error)
}

type tokenProvider struct {
	cfg        config.BOGConfig
	logger     *logger.Logger
	httpClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenProvider creates a token provider for the configured BOG
// credentials. Token fetches go through a retrying client since they
// are idempotent.
func NewTokenProvider(cfg config.BOGConfig, log *logger.Logger) TokenProvider {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = log.GetRetryableHTTPLogger()

	return &tokenProvider{
		cfg:        cfg,
		logger:     log,
		httpClient: rc.StandardClient(),
	}
}

// GetAccessToken returns a cached token when one is still valid,
// otherwise fetches a fresh one via the client-credentials grant.
func (p *tokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expires) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to build BOG token request").
			Mark(ierr.ErrInternal)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Errorw("BOG token acquisition failed", "error", err)
		return "", ierr.WithError(err).
			WithHint("Failed to acquire BOG payment token").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to read BOG token response").
			Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Errorw("BOG token endpoint rejected credentials",
			"status", resp.StatusCode)
		return "", ierr.NewError("failed to acquire BOG payment token").
			WithHintf("HTTP status %d from token endpoint", resp.StatusCode).
			Mark(ierr.ErrHTTPClient)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to parse BOG token response").
			Mark(ierr.ErrHTTPClient)
	}
	if tr.AccessToken == "" {
		return "", ierr.NewError("BOG token response missing access_token").
			Mark(ierr.ErrHTTPClient)
	}

	p.token = tr.AccessToken
	p.expires = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)

	p.logger.Debugw("acquired BOG access token", "expires_in", tr.ExpiresIn)
	return p.token, nil
}
