package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// LocalCatalog serves songs from the local songs table.
type LocalCatalog struct {
	songs models.SongRepository
}

// NewLocalCatalog creates a catalog over repo.
func NewLocalCatalog(repo models.SongRepository) *LocalCatalog {
	return &LocalCatalog{songs: repo}
}

// Exists implements [Catalog].
func (c *LocalCatalog) Exists(ctx context.Context, songID string) (bool, error) {
	_, err := c.songs.Get(ctx, songID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Get implements [Catalog].
func (c *LocalCatalog) Get(ctx context.Context, songID string) (*models.Song, error) {
	return c.songs.Get(ctx, songID)
}

// RemoteCatalog reads songs from the catalog service's HTTP API.
//
// Requests are throttled by a token bucket and, when a token URL is configured,
// authenticated with the OAuth2 client credentials grant.
type RemoteCatalog struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRemoteCatalog creates a catalog client from cfg.
func NewRemoteCatalog(ctx context.Context, cfg shared.CatalogConfig) *RemoteCatalog {
	client := http.DefaultClient
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       []string{"catalog.read"},
		}
		client = cc.Client(ctx)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return NewRemoteCatalogWithClient(cfg.BaseURL, client, rate.NewLimiter(limit, 1))
}

// NewRemoteCatalogWithClient creates a catalog client with an explicit HTTP client and limiter.
func NewRemoteCatalogWithClient(baseURL string, client *http.Client, limiter *rate.Limiter) *RemoteCatalog {
	if client == nil {
		client = http.DefaultClient
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &RemoteCatalog{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client, limiter: limiter}
}

// Exists implements [Catalog].
func (c *RemoteCatalog) Exists(ctx context.Context, songID string) (bool, error) {
	_, err := c.Get(ctx, songID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Get implements [Catalog].
func (c *RemoteCatalog) Get(ctx context.Context, songID string) (*models.Song, error) {
	var song models.Song
	if err := c.doRequest(ctx, "/api/songs/"+url.PathEscape(songID), &song); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
		}
		return nil, err
	}
	if song.ID == "" {
		song.ID = songID
	}
	return &song, nil
}

// doRequest performs a rate-limited GET against the catalog API and decodes the JSON body into result.
func (c *RemoteCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: catalog returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
