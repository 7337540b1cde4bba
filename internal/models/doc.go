// Package models defines domain entities and persistence interfaces for spotlink.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): lightweight structs describing upstream data
//   - [CatalogTrack] : Spotify track metadata used to build a search query
//   - [Candidate] : an audio node track descriptor returned by a search
//   - [Credential] : the catalog bearer token and its expiry
//
// 2. Persistent Entities: database-backed records with full lifecycle management
//   - [PersistedMatch] : the outcome of converting one catalog track
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
