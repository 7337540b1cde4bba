// Lavalink-compatible audio node client
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

// SearchPrefix selects the node's YouTube search source.
const SearchPrefix = "ytsearch: "

// Node load types.
const (
	LoadTrackLoaded    = "TRACK_LOADED"
	LoadPlaylistLoaded = "PLAYLIST_LOADED"
	LoadSearchResult   = "SEARCH_RESULT"
	LoadNoMatches      = "NO_MATCHES"
	LoadFailed         = "LOAD_FAILED"
)

// Node identifies an audio node and the password it expects in the Authorization header.
type Node struct {
	Host     string
	Port     int
	Password string
	Secure   bool
}

// BaseURL returns http(s)://host:port.
func (n Node) BaseURL() string {
	scheme := "http"
	if n.Secure {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// LoadResult is the /loadtracks response body.
type LoadResult struct {
	LoadType  string             `json:"loadType"`
	Tracks    []models.Candidate `json:"tracks"`
	Exception *LoadException     `json:"exception,omitempty"`
}

// LoadException is populated when LoadType is LOAD_FAILED.
type LoadException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// LavalinkService queries an audio node for candidate tracks.
//
// Requests are paced by an optional token-bucket limiter so large playlist conversions do not flood the node.
type LavalinkService struct {
	node       Node
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewLavalinkService creates a node client. rps <= 0 disables pacing.
func NewLavalinkService(node Node, client *http.Client, rps float64) *LavalinkService {
	if client == nil {
		client = http.DefaultClient
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &LavalinkService{
		node:       node,
		baseURL:    node.BaseURL(),
		httpClient: client,
		limiter:    limiter,
	}
}

func (s *LavalinkService) Name() string {
	return "Lavalink"
}

// Search runs a YouTube search for query and returns the ranked candidates.
func (s *LavalinkService) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	return s.LoadTracks(ctx, SearchPrefix+query)
}

// LoadTracks resolves an identifier on the node.
//
// NO_MATCHES yields an empty slice. LOAD_FAILED is reported as [shared.ErrLoadFailed].
func (s *LavalinkService) LoadTracks(ctx context.Context, identifier string) ([]models.Candidate, error) {
	var result LoadResult
	query := url.Values{"identifier": {identifier}}
	if err := s.doRequest(ctx, "/loadtracks?"+query.Encode(), &result); err != nil {
		return nil, err
	}

	switch result.LoadType {
	case LoadFailed:
		msg := "unknown error"
		if result.Exception != nil && result.Exception.Message != "" {
			msg = result.Exception.Message
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrLoadFailed, msg)
	case LoadNoMatches:
		return []models.Candidate{}, nil
	}

	if result.Tracks == nil {
		return []models.Candidate{}, nil
	}
	return result.Tracks, nil
}

// Version returns the node's reported version string.
func (s *LavalinkService) Version(ctx context.Context) (string, error) {
	resp, err := s.send(ctx, "/version")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (s *LavalinkService) doRequest(ctx context.Context, endpoint string, result any) error {
	resp, err := s.send(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs a paced, authenticated GET and maps non-2xx statuses to sentinel errors.
// The caller closes the body on success.
func (s *LavalinkService) send(ctx context.Context, endpoint string) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", s.node.Password)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: audio node rejected the password", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: audio node error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return resp, nil
}
