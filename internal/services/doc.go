// Package services talks to the two upstream HTTP APIs: the Spotify Web API (catalog metadata)
// and a Lavalink-compatible audio node (candidate search).
//
// # Credentials
//
// [CredentialManager] performs the OAuth2 client-credentials grant with
// [golang.org/x/oauth2/clientcredentials] and keeps the resulting bearer token fresh with a
// single self-rescheduling timer. Consumers only ever see the header value via [Authorizer].
//
// # Catalog
//
// [SpotifyService] fetches tracks, album track listings and playlist pages and converts them to
// [models.CatalogTrack]. [CachedCatalog] fronts it with an LRU for immutable track and album data.
// [ParseSpotifyRef] accepts bare IDs, spotify: URIs and open.spotify.com links.
//
// # Audio node
//
// [LavalinkService] issues /loadtracks searches and decodes the candidate list. [APIService]
// exposes raw authenticated GET/POST against the node for debugging.
//
// # Error Handling
//
// Services wrap sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrInvalidCredentials] : token endpoint rejected the client or returned no token
//   - [shared.ErrRefreshFailed] : token endpoint unreachable or failing
//   - [shared.ErrNotAuthenticated] : no usable token, or the node rejected its password
//   - [shared.ErrNotFound] : catalog entity does not exist
//   - [shared.ErrAPIRequest] : any other non-2xx response
//   - [shared.ErrLoadFailed] : the node reported LOAD_FAILED
package services
