package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gamelog/catalog"
)

const gamesJSON = `{
	"games": [
		{
			"game_id": 42,
			"title": "Outer Wilds",
			"moby_url": "https://www.mobygames.com/game/outer-wilds",
			"sample_cover": {"image": "https://cdn.example.com/cover.png"},
			"platforms": [{"platform_name": "Windows", "first_release_date": "2019-05-28"}]
		},
		{
			"game_id": 7,
			"title": "Hades",
			"platforms": [{"platform_name": "Windows", "first_release_date": "2020-09-17"}]
		}
	]
}`

func testClient(t *testing.T, handler http.HandlerFunc) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return catalog.New(catalog.Config{
		BaseURL:       srv.URL,
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
		RetryInterval: 10 * time.Millisecond,
	})
}

func TestGamesByID(t *testing.T) {
	t.Parallel()

	t.Run("decodes games and passes key and ids", func(t *testing.T) {
		t.Parallel()
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/games", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			assert.Equal(t, []string{"42", "7"}, r.URL.Query()["id"])
			_, _ = w.Write([]byte(gamesJSON))
		})

		games, err := client.GamesByID(context.Background(), 42, 7)
		require.NoError(t, err)
		require.Len(t, games, 2)
		assert.Equal(t, "Outer Wilds", games[0].Title)
		assert.Equal(t, "https://cdn.example.com/cover.png", games[0].Cover.Image)
	})

	t.Run("no ids, no request", func(t *testing.T) {
		t.Parallel()
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		games, err := client.GamesByID(context.Background())
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(gamesJSON))
		})

		games, err := client.GamesByID(context.Background(), 42)
		require.NoError(t, err)
		assert.Len(t, games, 2)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after retries with typed error", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.GamesByID(context.Background(), 42)
		assert.ErrorIs(t, err, catalog.ErrUnavailable)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.GamesByID(context.Background(), 42)
		assert.ErrorIs(t, err, catalog.ErrUnavailable)
		assert.EqualValues(t, 1, calls.Load())
	})
}

func TestGameByID(t *testing.T) {
	t.Parallel()

	t.Run("missing game", func(t *testing.T) {
		t.Parallel()
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"games": []}`))
		})

		_, err := client.GameByID(context.Background(), 999)
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestReleaseDate(t *testing.T) {
	t.Parallel()

	g := catalog.Game{Platforms: []catalog.Platform{{FirstReleaseDate: "2019-05-28"}}}
	got, ok := g.ReleaseDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2019, 5, 28, 0, 0, 0, 0, time.UTC), got)

	yearOnly := catalog.Game{Platforms: []catalog.Platform{{FirstReleaseDate: "1998"}}}
	got, ok = yearOnly.ReleaseDate()
	require.True(t, ok)
	assert.Equal(t, 1998, got.Year())

	_, ok = catalog.Game{}.ReleaseDate()
	assert.False(t, ok)

	garbage := catalog.Game{Platforms: []catalog.Platform{{FirstReleaseDate: "soon"}}}
	_, ok = garbage.ReleaseDate()
	assert.False(t, ok)
}
