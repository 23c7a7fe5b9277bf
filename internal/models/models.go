package models

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/plst/internal/shared"
)

// Visibility controls who may read a playlist.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// SongNode is one entry in a playlist's ordering.
//
// PrevID and NextID are lookups into the owning [NodeTable]; the empty string means no neighbor.
type SongNode struct {
	ID     string
	SongID string
	PrevID string
	NextID string
}

type songNodeJSON struct {
	SongID string  `json:"song_id"`
	PrevID *string `json:"prev_id"`
	NextID *string `json:"next_id"`
}

// MarshalJSON writes missing neighbors as null.
func (n SongNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(songNodeJSON{SongID: n.SongID, PrevID: nullable(n.PrevID), NextID: nullable(n.NextID)})
}

// UnmarshalJSON reads the persisted node layout. ID is filled in by [NodeTable].
func (n *SongNode) UnmarshalJSON(data []byte) error {
	var raw songNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.SongID = raw.SongID
	n.PrevID = deref(raw.PrevID)
	n.NextID = deref(raw.NextID)
	return nil
}

// NodeTable holds a playlist's nodes keyed by node id.
type NodeTable map[string]SongNode

// UnmarshalJSON restores each node's ID from its key.
func (t *NodeTable) UnmarshalJSON(data []byte) error {
	var raw map[string]SongNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	table := make(NodeTable, len(raw))
	for id, node := range raw {
		node.ID = id
		table[id] = node
	}
	*t = table
	return nil
}

// Playlist is the aggregate root: metadata plus the node table and its head and tail.
//
// Version increments on every committed write and is the basis of optimistic concurrency.
type Playlist struct {
	ID          string
	Sequence    int
	OwnerID     string
	Name        string
	Description string
	Visibility  Visibility
	Favorite    bool
	Tags        []string
	Nodes       NodeTable
	HeadID      string
	TailID      string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type playlistJSON struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	Favorite    bool       `json:"favorite"`
	Tags        []string   `json:"tags"`
	Nodes       NodeTable  `json:"nodes"`
	HeadID      *string    `json:"head_id"`
	TailID      *string    `json:"tail_id"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MarshalJSON renders the aggregate with null head/tail for an empty playlist.
func (p Playlist) MarshalJSON() ([]byte, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	nodes := p.Nodes
	if nodes == nil {
		nodes = NodeTable{}
	}
	return json.Marshal(playlistJSON{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Visibility:  p.Visibility,
		Favorite:    p.Favorite,
		Tags:        tags,
		Nodes:       nodes,
		HeadID:      nullable(p.HeadID),
		TailID:      nullable(p.TailID),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

// NewPlaylist creates an empty playlist owned by ownerID. Attributes must pass [PlaylistAttrs.ValidateCreate].
func NewPlaylist(ownerID string, attrs PlaylistAttrs) *Playlist {
	now := time.Now().UTC()
	p := &Playlist{
		ID:         shared.GenerateID(),
		OwnerID:    ownerID,
		Visibility: VisibilityPrivate,
		Tags:       []string{},
		Nodes:      NodeTable{},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.Apply(attrs)
	return p
}

// Len returns the number of nodes.
func (p *Playlist) Len() int {
	return len(p.Nodes)
}

// OwnedBy reports whether userID owns the playlist.
func (p *Playlist) OwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// ReadableBy reports whether userID may read the playlist.
func (p *Playlist) ReadableBy(userID string) bool {
	return p.Visibility == VisibilityPublic || p.OwnedBy(userID)
}

// HasTag reports whether the playlist carries the normalized form of tag.
func (p *Playlist) HasTag(tag string) bool {
	return slices.Contains(p.Tags, shared.NormalizeTag(tag))
}

// Apply copies every non-nil attribute onto the playlist.
func (p *Playlist) Apply(attrs PlaylistAttrs) {
	if attrs.Name != nil {
		p.Name = strings.TrimSpace(*attrs.Name)
	}
	if attrs.Description != nil {
		p.Description = *attrs.Description
	}
	if attrs.Visibility != nil {
		p.Visibility = *attrs.Visibility
	}
	if attrs.Favorite != nil {
		p.Favorite = *attrs.Favorite
	}
	if attrs.Tags != nil {
		p.Tags = NormalizeTags(attrs.Tags)
	}
}

// Clone returns a deep copy so engine operations never alias a loaded aggregate.
func (p *Playlist) Clone() *Playlist {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Tags = slices.Clone(p.Tags)
	cp.Nodes = maps.Clone(p.Nodes)
	if cp.Nodes == nil {
		cp.Nodes = NodeTable{}
	}
	return &cp
}

// PlaylistAttrs carries the user-editable playlist fields. A nil field is left unchanged.
type PlaylistAttrs struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
	Favorite    *bool       `json:"favorite,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// ValidateCreate requires a name in addition to [PlaylistAttrs.Validate].
func (a PlaylistAttrs) ValidateCreate() error {
	if a.Name == nil {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}
	return a.Validate()
}

// Validate checks the fields that are present.
func (a PlaylistAttrs) Validate() error {
	if a.Name != nil && strings.TrimSpace(*a.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", shared.ErrInvalidInput)
	}
	if a.Visibility != nil && !a.Visibility.Valid() {
		return fmt.Errorf("%w: visibility must be public or private, got %q", shared.ErrInvalidInput, *a.Visibility)
	}
	return nil
}

// NormalizeTags trims, lowercases, deduplicates and sorts tags, dropping blanks.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = shared.NormalizeTag(tag); tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Song is a catalog entry.
type Song struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"-"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Genre     string    `json:"genre"`
	URL       string    `json:"url"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required song fields.
func (s *Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%w: song duration cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

// Ref returns the song as it appears at nodeID of a playlist.
func (s *Song) Ref(nodeID string) SongRef {
	return SongRef{
		NodeID:   nodeID,
		SongID:   s.ID,
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		Duration: s.Duration,
	}
}

// SongRef is a song in the canonical order of a playlist.
//
// NodeID addresses this occurrence, which matters when the same song appears more than once.
type SongRef struct {
	NodeID   string `json:"node_id"`
	SongID   string `json:"song_id"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// OpKind names an ordering mutation.
type OpKind string

const (
	OpAppend OpKind = "append"
	OpRemove OpKind = "remove"
	OpMove   OpKind = "move"
)

// Operation is one ordering mutation applied through the store.
type Operation struct {
	Kind     OpKind
	SongID   string
	NodeID   string
	NewIndex int
}

// AppendOp appends songID at the tail.
func AppendOp(songID string) Operation {
	return Operation{Kind: OpAppend, SongID: songID}
}

// RemoveOp removes the node nodeID.
func RemoveOp(nodeID string) Operation {
	return Operation{Kind: OpRemove, NodeID: nodeID}
}

// MoveOp moves nodeID to newIndex.
func MoveOp(nodeID string, newIndex int) Operation {
	return Operation{Kind: OpMove, NodeID: nodeID, NewIndex: newIndex}
}

func (o Operation) String() string {
	switch o.Kind {
	case OpAppend:
		return fmt.Sprintf("append(%s)", o.SongID)
	case OpRemove:
		return fmt.Sprintf("remove(%s)", o.NodeID)
	case OpMove:
		return fmt.Sprintf("move(%s, %d)", o.NodeID, o.NewIndex)
	default:
		return string(o.Kind)
	}
}

// ListCriteria filters [PlaylistRepository.List]. Empty fields match everything.
type ListCriteria struct {
	OwnerID    string
	Visibility Visibility
	Tag        string
}

// PlaylistRepository persists whole playlist aggregates.
//
// Commit writes p only if the stored version still equals expectedVersion, returning
// [shared.ErrConflict] otherwise; on success p.Version is advanced to the stored value.
type PlaylistRepository interface {
	Create(ctx context.Context, p *Playlist) error
	Get(ctx context.Context, id string) (*Playlist, error)
	Commit(ctx context.Context, p *Playlist, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, criteria ListCriteria) ([]*Playlist, error)
}

// SongRepository stores the local song catalog.
type SongRepository interface {
	Create(ctx context.Context, s *Song) error
	Get(ctx context.Context, id string) (*Song, error)
	List(ctx context.Context) ([]*Song, error)
	Delete(ctx context.Context, id string) error
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
