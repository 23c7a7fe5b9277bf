// Package services implements [PlaylistService], the facade shared by the HTTP API, the CLI and the TUI.
//
// # Catalog
//
// Songs are owned by a separate catalog. [Catalog] answers whether a song exists and supplies its metadata:
//   - [LocalCatalog] reads the songs table of the local database
//   - [RemoteCatalog] calls the catalog service over HTTP, authenticating with OAuth2 client credentials
//     when a token URL is configured and pacing requests with a token bucket
//
// AppendSong checks existence before touching the playlist. Reads describe each node with catalog
// metadata; a song the catalog no longer knows is returned with its ids only.
//
// # Retries
//
// The store uses optimistic concurrency. When a write loses the race ([shared.ErrConflict]) the service
// reloads the playlist and re-applies the same operation, up to the configured number of retries.
// Engine errors are not retried, so a move whose index became invalid after a concurrent removal fails
// with [shared.ErrInvalidOperation].
//
// # Error Handling
//
// Errors from the catalog and store pass through wrapped:
//   - [shared.ErrPlaylistNotFound] / [shared.ErrNodeNotFound] / [shared.ErrSongNotFound]
//   - [shared.ErrForbidden] : requester does not own (or cannot read) the playlist
//   - [shared.ErrInvalidOperation] : invalid index or unknown node for a move
//   - [shared.ErrConflict] : retries exhausted
//   - [shared.ErrAPIRequest] / [shared.ErrServiceUnavailable] : remote catalog failures
package services
