package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	defaultRetryDelay = 30 * time.Second
	// used when the token endpoint omits expires_in
	defaultValidity = time.Hour
	minValidity     = time.Second
)

// CredentialOpts configures a [CredentialManager].
type CredentialOpts struct {
	ClientID     string
	ClientSecret string
	TokenURL     string        // defaults to the Spotify accounts endpoint
	HTTPClient   *http.Client  // used for the token exchange; nil means http.DefaultClient
	RetryDelay   time.Duration // wait after a failed background renewal
	Logger       *log.Logger
}

// CredentialManager holds the catalog access token and renews it at its expiry boundary.
//
// The first renewal happens synchronously in [CredentialManager.Start]. After that a single
// goroutine owns a timer that renews exactly when the previous token's validity window ends.
// Transport failures are retried after the configured delay; a rejected client stops the loop
// and every later [CredentialManager.Authorization] call returns [shared.ErrInvalidCredentials].
type CredentialManager struct {
	config     clientcredentials.Config
	httpClient *http.Client
	retryDelay time.Duration
	logger     *log.Logger

	mu   sync.RWMutex
	cred models.Credential
	err  error

	// renewMu keeps one token exchange in flight.
	renewMu sync.Mutex

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCredentialManager validates opts and returns an idle manager.
func NewCredentialManager(opts CredentialOpts) (*CredentialManager, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &CredentialManager{
		config: clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: opts.HTTPClient,
		retryDelay: retryDelay,
		logger:     logger.WithPrefix("credentials"),
	}, nil
}

// RenewToken exchanges the client credentials for a new access token, stores it and returns
// how long it stays valid.
func (m *CredentialManager) RenewToken(ctx context.Context) (time.Duration, error) {
	m.renewMu.Lock()
	defer m.renewMu.Unlock()

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	tok, err := m.config.Token(ctx)
	if err != nil {
		return 0, classifyTokenError(err)
	}

	now := time.Now()
	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = now.Add(defaultValidity)
	}
	validity := expiresAt.Sub(now)
	if validity < minValidity {
		validity = minValidity
		expiresAt = now.Add(validity)
	}

	m.mu.Lock()
	m.cred = models.Credential{Token: tok.AccessToken, ExpiresAt: expiresAt}
	m.err = nil
	m.mu.Unlock()

	m.logger.Debug("token renewed", "expires_in", validity.Round(time.Second))
	return validity, nil
}

// Authorization returns the latest "Bearer <token>" header value.
func (m *CredentialManager) Authorization() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return "", m.err
	}
	if m.cred.Token == "" {
		return "", fmt.Errorf("%w: no catalog token, call Start first", shared.ErrNotAuthenticated)
	}
	return m.cred.Header(), nil
}

// Credential returns a copy of the stored token and expiry.
func (m *CredentialManager) Credential() models.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred
}

// Start performs the first renewal and schedules the next one. Calling Start on a running
// manager is a no-op.
func (m *CredentialManager) Start(ctx context.Context) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.cancel != nil {
		return nil
	}

	validity, err := m.RenewToken(ctx)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(loopCtx, validity, m.done)
	return nil
}

// Close stops the renewal timer and waits for its goroutine to exit.
func (m *CredentialManager) Close() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

func (m *CredentialManager) run(ctx context.Context, wait time.Duration, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next, err := m.RenewToken(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.Is(err, shared.ErrInvalidCredentials):
			m.logger.Error("token renewal rejected, stopping", "err", err)
			m.mu.Lock()
			m.err = err
			m.mu.Unlock()
			return
		default:
			m.logger.Warn("token renewal failed", "err", err, "retry_in", m.retryDelay)
			next = m.retryDelay
		}
		timer.Reset(next)
	}
}

// missingTokenMessage is the text golang.org/x/oauth2 uses when a 200 response carries no
// access_token. The library returns it as an untyped error.
const missingTokenMessage = "server response missing access_token"

// classifyTokenError separates a rejected client from an unreachable or throttled token endpoint.
// Only 400 and 401 responses are fatal.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil {
			switch re.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				return fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
			}
		}
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if strings.Contains(err.Error(), missingTokenMessage) {
		return fmt.Errorf("%w: token endpoint returned no access token", shared.ErrInvalidCredentials)
	}
	return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
}
