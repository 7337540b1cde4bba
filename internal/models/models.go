package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// CatalogArtist is a credited artist on a catalog track.
type CatalogArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogTrack is Spotify track metadata. It is treated as immutable once fetched.
type CatalogTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []CatalogArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	ISRC       string          `json:"isrc,omitempty"`
	URI        string          `json:"uri,omitempty"`
}

// PrimaryArtist returns the first credited artist's name or "".
func (t *CatalogTrack) PrimaryArtist() string {
	if t == nil || len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// CandidateInfo mirrors the node's track info object. Lengths are milliseconds.
type CandidateInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
}

// Candidate is a playable track descriptor returned by the audio node.
// Track is an opaque encoded handle understood only by the node.
type Candidate struct {
	Track string        `json:"track"`
	Info  CandidateInfo `json:"info"`
}

// Credential is a catalog access token and the instant it stops being valid.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Header returns the Authorization header value for the token.
func (c Credential) Header() string {
	return "Bearer " + c.Token
}

// Expired reports whether the credential is empty or past its expiry at now.
func (c Credential) Expired(now time.Time) bool {
	return c.Token == "" || !now.Before(c.ExpiresAt)
}
