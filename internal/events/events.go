// Package events publishes playlist change notifications.
//
// Every committed playlist write emits one [Event]. Subscribers (a realtime gateway, a search
// indexer) read them from a Redis pub/sub channel. Delivery is best effort: the store logs a
// failed publish and keeps the committed write.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Type names a kind of playlist change.
type Type string

const (
	PlaylistCreated Type = "playlist.created"
	PlaylistUpdated Type = "playlist.updated"
	PlaylistDeleted Type = "playlist.deleted"
	SongsChanged    Type = "playlist.songs_changed"
)

// Event describes one committed change.
type Event struct {
	Type       Type      `json:"type"`
	PlaylistID string    `json:"playlist_id"`
	OwnerID    string    `json:"owner_id"`
	Version    int64     `json:"version"`
	Operation  string    `json:"operation,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements [Publisher].
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RedisPublisher sends events as JSON to a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects lazily to the Redis server at url, e.g. redis://localhost:6379/0.
func NewRedisPublisher(url, channel string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if channel == "" {
		channel = "playlists"
	}
	return &RedisPublisher{client: redis.NewClient(opts), channel: channel}, nil
}

// Publish implements [Publisher].
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s for playlist %s: %w", e.Type, e.PlaylistID, err)
	}
	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
