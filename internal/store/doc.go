// Package store applies access control and ordering operations to persisted playlists.
//
// [PlaylistStore.Mutate] is the only write path for a playlist's order:
//
//  1. load the aggregate and remember its version
//  2. check that the requester owns it
//  3. run the engine operation on a copy
//  4. validate the result, failing with [shared.ErrInvariantViolation] if it is broken
//  5. commit only if the stored version is unchanged, failing with [shared.ErrConflict] otherwise
//
// No lock is held between load and commit. Callers that see a conflict reload and retry.
package store
