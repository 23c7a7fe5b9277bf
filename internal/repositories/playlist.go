package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

const playlistColumns = `id, sequence, owner_id, name, description, visibility, favorite, tags, nodes, head_id, tail_id, version, created_at, updated_at`

// PlaylistRepository implements [models.PlaylistRepository] on SQLite.
//
// Each playlist is one row; the node table is stored as a JSON object so a commit replaces the whole aggregate.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist and assigns its sequence number.
func (r *PlaylistRepository) Create(ctx context.Context, p *models.Playlist) error {
	tags, nodes, err := encodePlaylist(p)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `INSERT INTO playlists (` + playlistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		p.ID,
		sequence,
		p.OwnerID,
		p.Name,
		p.Description,
		p.Visibility,
		p.Favorite,
		tags,
		nodes,
		nullString(p.HeadID),
		nullString(p.TailID),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}

	p.Sequence = sequence
	return nil
}

// Get retrieves a playlist aggregate by ID.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ?`

	p, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return p, err
}

// Commit replaces the stored aggregate if its version still equals expectedVersion.
//
// A version mismatch yields [shared.ErrConflict]; a missing row yields [shared.ErrPlaylistNotFound].
func (r *PlaylistRepository) Commit(ctx context.Context, p *models.Playlist, expectedVersion int64) error {
	tags, nodes, err := encodePlaylist(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE playlists
		SET name = ?, description = ?, visibility = ?, favorite = ?, tags = ?, nodes = ?,
			head_id = ?, tail_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.Visibility,
		p.Favorite,
		tags,
		nodes,
		nullString(p.HeadID),
		nullString(p.TailID),
		now,
		p.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM playlists WHERE id = ?)", p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check playlist: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, p.ID)
		}
		return fmt.Errorf("%w: playlist %s is no longer at version %d", shared.ErrConflict, p.ID, expectedVersion)
	}

	p.Version = expectedVersion + 1
	p.UpdatedAt = now
	return nil
}

// Delete removes a playlist and, with it, all of its nodes.
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	return nil
}

// List retrieves all playlists matching the given criteria in creation order.
func (r *PlaylistRepository) List(ctx context.Context, criteria models.ListCriteria) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE 1 = 1`
	args := []any{}

	if criteria.OwnerID != "" {
		query += " AND owner_id = ?"
		args = append(args, criteria.OwnerID)
	}

	if criteria.Visibility != "" {
		query += " AND visibility = ?"
		args = append(args, criteria.Visibility)
	}

	if criteria.Tag != "" {
		query += " AND EXISTS (SELECT 1 FROM json_each(playlists.tags) WHERE json_each.value = ?)"
		args = append(args, shared.NormalizeTag(criteria.Tag))
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// scanPlaylist scans a row selected with playlistColumns into a [models.Playlist]
func scanPlaylist(row scanner) (*models.Playlist, error) {
	var (
		p      models.Playlist
		tags   string
		nodes  string
		headID sql.NullString
		tailID sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Sequence, &p.OwnerID, &p.Name, &p.Description, &p.Visibility, &p.Favorite,
		&tags, &nodes, &headID, &tailID, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of playlist %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(nodes), &p.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes of playlist %s: %w", p.ID, err)
	}
	p.HeadID, p.TailID = headID.String, tailID.String

	return &p, nil
}

func encodePlaylist(p *models.Playlist) (tags, nodes string, err error) {
	tagList := p.Tags
	if tagList == nil {
		tagList = []string{}
	}
	table := p.Nodes
	if table == nil {
		table = models.NodeTable{}
	}

	tagData, err := json.Marshal(tagList)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode tags: %w", err)
	}
	nodeData, err := json.Marshal(table)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode nodes: %w", err)
	}
	return string(tagData), string(nodeData), nil
}
