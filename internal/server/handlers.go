package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlink/internal/matcher"
	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/desertthunder/spotlink/internal/tasks"
)

const (
	trackRoute    = "/tracks/{id}"
	albumRoute    = "/albums/{id}/tracks"
	playlistRoute = "/playlists/{id}/tracks"
)

// Resolver is the subset of [tasks.Resolver] served over HTTP.
type Resolver interface {
	GetTrack(ctx context.Context, ref string, convert bool, policy *matcher.Policy) (*tasks.Resolution, error)
	GetAlbumTracks(ctx context.Context, ref string, convert bool, policy *matcher.Policy, progress chan<- tasks.ProgressUpdate) ([]tasks.Resolution, error)
	GetPlaylistTracks(ctx context.Context, ref string, convert bool, policy *matcher.Policy, progress chan<- tasks.ProgressUpdate) ([]tasks.Resolution, error)
}

// ResolutionList is the response body for album and playlist routes.
type ResolutionList struct {
	Total   int                `json:"total"`
	Matched int                `json:"matched"`
	Failed  int                `json:"failed"`
	Tracks  []tasks.Resolution `json:"tracks"`
}

type errorBody struct {
	Error string `json:"error"`
}

// ResolveHandler serves track, album and playlist lookups.
type ResolveHandler struct {
	resolver Resolver
	policy   matcher.Policy
	logger   *log.Logger
}

// NewResolveHandler creates a handler applying policy to every conversion.
// ?same_duration overrides the policy's duration fast path per request.
func NewResolveHandler(resolver Resolver, policy matcher.Policy, logger *log.Logger) *ResolveHandler {
	return &ResolveHandler{
		resolver: resolver,
		policy:   policy,
		logger:   shared.WithLogger(logger, "component", "http"),
	}
}

func (h *ResolveHandler) Routes() []string {
	return []string{trackRoute, albumRoute, playlistRoute}
}

func (h *ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	ref := r.PathValue("id")
	convert, err := boolParam(r, "convert", false)
	if err != nil {
		writeError(w, err)
		return
	}
	policy := h.policy
	if policy.PrioritizeSameDuration, err = boolParam(r, "same_duration", policy.PrioritizeSameDuration); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	switch r.Pattern {
	case trackRoute:
		res, err := h.resolver.GetTrack(ctx, ref, convert, &policy)
		if err != nil {
			h.logger.Warn("track lookup failed", "ref", ref, "err", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case albumRoute:
		h.writeList(w, ref, func() ([]tasks.Resolution, error) {
			return h.resolver.GetAlbumTracks(ctx, ref, convert, &policy, nil)
		})
	case playlistRoute:
		h.writeList(w, ref, func() ([]tasks.Resolution, error) {
			return h.resolver.GetPlaylistTracks(ctx, ref, convert, &policy, nil)
		})
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	}
}

func (h *ResolveHandler) writeList(w http.ResponseWriter, ref string, fetch func() ([]tasks.Resolution, error)) {
	results, err := fetch()
	if err != nil {
		h.logger.Warn("listing lookup failed", "ref", ref, "err", err)
		writeError(w, err)
		return
	}
	matched, failed := tasks.Summarize(results)
	writeJSON(w, http.StatusOK, ResolutionList{
		Total:   len(results),
		Matched: matched,
		Failed:  failed,
		Tracks:  results,
	})
}

// Health reports liveness.
func Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func boolParam(r *http.Request, name string, fallback bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Join(shared.ErrInvalidArgument, err)
	}
	return v, nil
}

// StatusFor maps resolver errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingReference),
		errors.Is(err, shared.ErrInvalidType),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrLoadFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
