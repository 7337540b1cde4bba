package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spotlink/internal/shared"
)

// RefKind names the catalog entity a reference must point at.
type RefKind string

const (
	RefTrack    RefKind = "track"
	RefAlbum    RefKind = "album"
	RefPlaylist RefKind = "playlist"
)

// ParseSpotifyRef extracts the catalog ID of the given kind from a bare ID, a spotify:kind:id URI
// or an open.spotify.com/kind/id link.
//
// An empty reference is [shared.ErrMissingReference]. A reference to another kind or with a
// malformed ID is [shared.ErrInvalidType].
func ParseSpotifyRef(kind RefKind, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: %s reference is empty", shared.ErrMissingReference, kind)
	}

	var gotKind, id string
	switch {
	case strings.HasPrefix(ref, "spotify:"):
		parts := strings.Split(ref, ":")
		switch {
		case len(parts) == 3:
			gotKind, id = parts[1], parts[2]
		case len(parts) == 5 && parts[1] == "user":
			gotKind, id = parts[3], parts[4]
		default:
			return "", fmt.Errorf("%w: malformed spotify uri %q", shared.ErrInvalidType, ref)
		}
	case strings.Contains(ref, "open.spotify.com"):
		var err error
		if gotKind, id, err = parseSpotifyURL(ref); err != nil {
			return "", err
		}
	case strings.ContainsAny(ref, ":/?"):
		return "", fmt.Errorf("%w: unrecognised reference %q", shared.ErrInvalidType, ref)
	default:
		gotKind, id = string(kind), ref
	}

	if RefKind(gotKind) != kind {
		return "", fmt.Errorf("%w: expected a %s reference, got %s", shared.ErrInvalidType, kind, gotKind)
	}
	if !isBase62(id) {
		return "", fmt.Errorf("%w: malformed %s id %q", shared.ErrInvalidType, kind, id)
	}
	return id, nil
}

func parseSpotifyURL(ref string) (kind, id string, err error) {
	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrInvalidType, err)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	// localized links look like /intl-de/track/<id>
	if len(segments) > 0 && strings.HasPrefix(segments[0], "intl-") {
		segments = segments[1:]
	}
	if len(segments) == 4 && segments[0] == "user" {
		segments = segments[2:]
	}
	if len(segments) != 2 {
		return "", "", fmt.Errorf("%w: unrecognised spotify link %q", shared.ErrInvalidType, ref)
	}
	return segments[0], segments[1], nil
}

func isBase62(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
