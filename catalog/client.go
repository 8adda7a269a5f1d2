// Package catalog fetches game metadata from the MobyGames-style catalog
// API. The client retries transient failures with backoff and reports the
// provider as unavailable with a typed error, never as missing data.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrUnavailable is returned when the catalog cannot be reached or
	// keeps failing after retries.
	ErrUnavailable = errors.New("catalog api unavailable")
	// ErrNotFound is returned when the catalog has no game for the ID.
	ErrNotFound = errors.New("game not found in catalog")
)

// Config holds catalog client settings.
type Config struct {
	BaseURL       string        `env:"CATALOG_API_URL" envDefault:"https://api.mobygames.com"`
	APIKey        string        `env:"CATALOG_API_KEY,required"`
	Timeout       time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	RetryAttempts int           `env:"CATALOG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"CATALOG_RETRY_INTERVAL" envDefault:"500ms"`
}

// Platform is one platform entry of a catalog game.
type Platform struct {
	Name             string `json:"platform_name"`
	FirstReleaseDate string `json:"first_release_date"`
}

// Game is the catalog metadata for one game.
type Game struct {
	ID      int64  `json:"game_id"`
	Title   string `json:"title"`
	MobyURL string `json:"moby_url"`
	Cover   struct {
		Image string `json:"image"`
	} `json:"sample_cover"`
	Platforms []Platform `json:"platforms"`
}

// ReleaseDate returns the first platform's release date. The catalog
// reports dates as YYYY-MM-DD, occasionally truncated to just a year.
func (g Game) ReleaseDate() (time.Time, bool) {
	if len(g.Platforms) == 0 {
		return time.Time{}, false
	}
	raw := g.Platforms[0].FirstReleaseDate
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Source is the lookup interface the web layer consumes; implemented by
// Client and by the Redis-backed Cache.
type Source interface {
	GamesByID(ctx context.Context, ids ...int64) ([]Game, error)
}

// Client calls the catalog HTTP API.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	attempts int
	interval time.Duration
}

// New creates a catalog client from config.
func New(cfg Config) *Client {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		attempts: attempts,
		interval: cfg.RetryInterval,
	}
}

type gamesResponse struct {
	Games []Game `json:"games"`
}

// GamesByID fetches metadata for the given game IDs in one request.
func (c *Client) GamesByID(ctx context.Context, ids ...int64) ([]Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	for _, id := range ids {
		q.Add("id", strconv.FormatInt(id, 10))
	}
	endpoint := c.baseURL + "/v1/games?" + q.Encode()

	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			// Linear backoff; a sub-second pause is enough for the
			// transient 5xx blips this API shows.
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrUnavailable, ctx.Err())
			case <-time.After(c.interval * time.Duration(attempt)):
			}
		}

		games, retryable, err := c.fetch(ctx, endpoint)
		if err == nil {
			return games, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, errors.Join(ErrUnavailable, lastErr)
}

// GameByID fetches a single game.
func (c *Client) GameByID(ctx context.Context, id int64) (Game, error) {
	games, err := c.GamesByID(ctx, id)
	if err != nil {
		return Game{}, err
	}
	if len(games) == 0 {
		return Game{}, ErrNotFound
	}
	return games[0], nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (games []Game, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var body gamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decoding catalog response: %w", err)
	}
	return body.Games, false, nil
}
