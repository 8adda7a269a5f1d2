package web_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/gamelog/auth"
	"github.com/dmitrymomot/gamelog/catalog"
	"github.com/dmitrymomot/gamelog/core/cookie"
	"github.com/dmitrymomot/gamelog/core/logger"
	"github.com/dmitrymomot/gamelog/core/session"
	"github.com/dmitrymomot/gamelog/core/session/memstore"
	"github.com/dmitrymomot/gamelog/review"
	"github.com/dmitrymomot/gamelog/user"
	"github.com/dmitrymomot/gamelog/web"
)

const sessionCookie = "__session"

type fakeCatalog struct {
	games map[int64]catalog.Game
	err   error
}

func (f *fakeCatalog) GamesByID(_ context.Context, ids ...int64) ([]catalog.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.Game
	for _, id := range ids {
		if g, ok := f.games[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

type testEnv struct {
	srv     *httptest.Server
	users   *user.MemStore
	reviews *review.MemStore
	catalog *fakeCatalog
	google  *auth.Google
}

func newTestEnv(t *testing.T, opts ...func(*testEnv)) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   user.NewMemStore(),
		reviews: review.NewMemStore(),
		catalog: &fakeCatalog{games: map[int64]catalog.Game{}},
	}
	for _, opt := range opts {
		opt(env)
	}

	hasher := auth.NewHasher(4)
	local := auth.NewLocal(env.users, hasher)
	if env.google == nil {
		env.google = auth.NewGoogle(auth.GoogleConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			Timeout:      time.Second,
		}, env.users)
	}

	cookies, err := cookie.New([]string{strings.Repeat("k", 32)})
	require.NoError(t, err)
	sessions := session.NewManager[web.Data](memstore.New[web.Data](), time.Hour, 5*time.Minute)
	transport := web.NewTransport(sessions, cookies, sessionCookie)

	server, err := web.NewServer(logger.Discard(), env.users, env.reviews,
		env.catalog, local, env.google, transport)
	require.NoError(t, err)

	env.srv = httptest.NewServer(server.Handler())
	t.Cleanup(env.srv.Close)
	return env
}

// client returns a cookie-carrying client that does not follow redirects,
// so tests can assert redirect targets.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (e *testEnv) register(t *testing.T, c *http.Client, email, password string) {
	t.Helper()
	resp := e.postForm(t, c, "/register", url.Values{
		"username": {email},
		"password": {password},
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestIndexAnonymous(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.client(t)

	resp := env.get(t, c, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "Log in")
	assert.NotContains(t, html, "Log out")
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	t.Run("register establishes a session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		c := env.client(t)

		env.register(t, c, "player@example.com", "hunter22")

		html := body(t, env.get(t, c, "/"))
		assert.Contains(t, html, "player@example.com")
		assert.Contains(t, html, "Log out")
	})

	t.Run("duplicate email redirects back", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		c := env.client(t)
		env.register(t, c, "player@example.com", "hunter22")

		resp := env.postForm(t, env.client(t), "/register", url.Values{
			"username": {"Player@Example.com"},
			"password": {"other"},
		})
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/register?taken=1", resp.Header.Get("Location"))
	})

	t.Run("wrong password redirects with generic flag", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.register(t, env.client(t), "player@example.com", "hunter22")

		c := env.client(t)
		resp := env.postForm(t, c, "/login", url.Values{
			"username": {"player@example.com"},
			"password": {"wrong"},
		})
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login?failed=1", resp.Header.Get("Location"))
	})

	t.Run("unknown email gets the same redirect", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		c := env.client(t)

		resp := env.postForm(t, c, "/login", url.Values{
			"username": {"nobody@example.com"},
			"password": {"whatever"},
		})
		_ = resp.Body.Close()
		assert.Equal(t, "/login?failed=1", resp.Header.Get("Location"))
	})

	t.Run("valid login succeeds", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.register(t, env.client(t), "player@example.com", "hunter22")

		c := env.client(t)
		resp := env.postForm(t, c, "/login", url.Values{
			"username": {"player@example.com"},
			"password": {"hunter22"},
		})
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))

		assert.Contains(t, body(t, env.get(t, c, "/")), "player@example.com")
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.client(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/add"},
		{http.MethodPost, "/add-game"},
		{http.MethodPost, "/edit"},
		{http.MethodPost, "/edit-game"},
		{http.MethodPost, "/delete"},
	} {
		var resp *http.Response
		if tc.method == http.MethodGet {
			resp = env.get(t, c, tc.path)
		} else {
			resp = env.postForm(t, c, tc.path, url.Values{})
		}
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode, tc.path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), tc.path)
	}
}

func TestAddGame(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(e *testEnv) {
		e.catalog.games[1024] = catalog.Game{
			ID:      1024,
			Title:   "Chrono Cross",
			MobyURL: "https://www.mobygames.com/game/1024",
			Platforms: []catalog.Platform{
				{Name: "PlayStation", FirstReleaseDate: "1999-11-18"},
			},
		}
	})
	c := env.client(t)
	env.register(t, c, "player@example.com", "hunter22")

	resp := env.postForm(t, c, "/add-game", url.Values{
		"game_id":   {"1024"},
		"rating":    {"9"},
		"completed": {"true"},
		"review":    {"Still holds up."},
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	stored, err := env.reviews.ByID(context.Background(), 1024)
	require.NoError(t, err)
	assert.Equal(t, "Chrono Cross", stored.Title)
	assert.Equal(t, 9, stored.Rating)
	assert.True(t, stored.Completed)
	assert.Equal(t, 1999, stored.ReleasedAt.Year())

	html := body(t, env.get(t, c, "/"))
	assert.Contains(t, html, "Chrono Cross")
	assert.Contains(t, html, "Still holds up.")
}

func TestAddGameUnknownID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.client(t)
	env.register(t, c, "player@example.com", "hunter22")

	resp := env.postForm(t, c, "/add-game", url.Values{
		"game_id": {"999"},
		"rating":  {"5"},
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/add", resp.Header.Get("Location"))
}

func TestEditAndDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	require.NoError(t, env.reviews.Create(context.Background(), review.Review{
		GameID: 7, Title: "Outer Wilds", Rating: 10,
		ReleasedAt: time.Date(2019, 5, 28, 0, 0, 0, 0, time.UTC),
	}))

	c := env.client(t)
	env.register(t, c, "player@example.com", "hunter22")

	t.Run("edit form shows the stored review", func(t *testing.T) {
		resp := env.postForm(t, c, "/edit", url.Values{"edit": {"7"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		html := body(t, resp)
		assert.Contains(t, html, "Outer Wilds")
		assert.Contains(t, html, `value="7"`)
	})

	t.Run("edit-game updates only editable fields", func(t *testing.T) {
		resp := env.postForm(t, c, "/edit-game", url.Values{
			"game_id":   {"7"},
			"rating":    {"8"},
			"completed": {"true"},
			"review":    {"Second playthrough."},
		})
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		stored, err := env.reviews.ByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 8, stored.Rating)
		assert.True(t, stored.Completed)
		assert.Equal(t, "Second playthrough.", stored.Notes)
		assert.Equal(t, "Outer Wilds", stored.Title, "title is not editable")
	})

	t.Run("delete removes the review and tolerates repeats", func(t *testing.T) {
		for range 2 {
			resp := env.postForm(t, c, "/delete", url.Values{"delete": {"7"}})
			_ = resp.Body.Close()
			require.Equal(t, http.StatusFound, resp.StatusCode)
			require.Equal(t, "/", resp.Header.Get("Location"))
		}
		_, err := env.reviews.ByID(context.Background(), 7)
		assert.ErrorIs(t, err, review.ErrNotFound)
	})
}

func TestSortPreferenceIsPerSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	first := env.client(t)
	resp := env.postForm(t, first, "/sort", url.Values{"sort": {"rating"}})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	html := body(t, env.get(t, first, "/"))
	assert.Contains(t, html, `value="rating" selected`)

	// A different session keeps the default ordering.
	other := env.client(t)
	otherHTML := body(t, env.get(t, other, "/"))
	assert.Contains(t, otherHTML, `value="released" selected`)
}

func TestSortRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.client(t)

	resp := env.postForm(t, c, "/sort", url.Values{"sort": {"id; DROP TABLE reviews"}})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	html := body(t, env.get(t, c, "/"))
	assert.Contains(t, html, `value="released" selected`)
}

func TestTamperedCookieFallsOpenToAnonymous(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.client(t)
	env.register(t, c, "player@example.com", "hunter22")

	u, err := url.Parse(env.srv.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: sessionCookie, Value: "Zm9yZ2Vk|Zm9yZ2Vk"}})

	resp := env.get(t, c, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "Log in")
	assert.NotContains(t, html, "player@example.com")
}

func TestLogout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.client(t)
	env.register(t, c, "player@example.com", "hunter22")

	// Logging out twice behaves the same both times.
	for range 2 {
		resp := env.get(t, c, "/logout")
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))
	}

	html := body(t, env.get(t, c, "/"))
	assert.Contains(t, html, "Log in")
	assert.NotContains(t, html, "player@example.com")
}

func TestCatalogOutageDegradesIndex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(e *testEnv) {
		e.catalog.err = catalog.ErrUnavailable
	})
	require.NoError(t, env.reviews.Create(context.Background(), review.Review{
		GameID: 7, Title: "Outer Wilds", Rating: 10,
		ReleasedAt: time.Date(2019, 5, 28, 0, 0, 0, 0, time.UTC),
	}))

	resp := env.get(t, env.client(t), "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "Outer Wilds", "reviews render from stored data")
	assert.Contains(t, html, "temporarily unavailable")
}

// googleProvider fakes the OAuth token and userinfo endpoints.
func googleProvider(t *testing.T, email string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok", "token_type": "Bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"email": email, "sub": "g-123"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleFlow(t *testing.T) {
	t.Parallel()

	newGoogleEnv := func(t *testing.T) *testEnv {
		return newTestEnv(t, func(e *testEnv) {
			provider := googleProvider(t, "fed@example.com")
			e.google = auth.NewGoogle(auth.GoogleConfig{
				ClientID:     "client",
				ClientSecret: "secret",
				Timeout:      time.Second,
			}, e.users,
				auth.WithEndpoint(oauth2.Endpoint{
					AuthURL:  provider.URL + "/auth",
					TokenURL: provider.URL + "/token",
				}),
				auth.WithUserinfoURL(provider.URL+"/userinfo"),
			)
		})
	}

	t.Run("full round trip logs the user in", func(t *testing.T) {
		t.Parallel()
		env := newGoogleEnv(t)
		c := env.client(t)

		resp := env.get(t, c, "/auth/google")
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		consent, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		state := consent.Query().Get("state")
		require.NotEmpty(t, state)

		resp = env.get(t, c, "/auth/google/callback?state="+url.QueryEscape(state)+"&code=authcode")
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))

		assert.Contains(t, body(t, env.get(t, c, "/")), "fed@example.com")

		// The sentinel account exists but cannot be used with a password.
		u, err := env.users.ByEmail(context.Background(), "fed@example.com")
		require.NoError(t, err)
		assert.Equal(t, auth.FederatedSentinel, u.Secret)
	})

	t.Run("state mismatch rejects the callback", func(t *testing.T) {
		t.Parallel()
		env := newGoogleEnv(t)
		c := env.client(t)

		resp := env.get(t, c, "/auth/google")
		_ = resp.Body.Close()

		resp = env.get(t, c, "/auth/google/callback?state=forged&code=authcode")
		_ = resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login?failed=1", resp.Header.Get("Location"))
	})

	t.Run("state is single use", func(t *testing.T) {
		t.Parallel()
		env := newGoogleEnv(t)
		c := env.client(t)

		resp := env.get(t, c, "/auth/google")
		_ = resp.Body.Close()
		consent, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		state := consent.Query().Get("state")

		callback := "/auth/google/callback?state=" + url.QueryEscape(state) + "&code=authcode"
		resp = env.get(t, c, callback)
		_ = resp.Body.Close()
		require.Equal(t, "/", resp.Header.Get("Location"))

		resp = env.get(t, c, callback)
		_ = resp.Body.Close()
		assert.Equal(t, "/login?failed=1", resp.Header.Get("Location"))
	})

	t.Run("callback without a started flow fails", func(t *testing.T) {
		t.Parallel()
		env := newGoogleEnv(t)
		c := env.client(t)

		resp := env.get(t, c, "/auth/google/callback?state=whatever&code=authcode")
		_ = resp.Body.Close()
		assert.Equal(t, "/login?failed=1", resp.Header.Get("Location"))
	})
}

func TestLocalLoginRejectsFederatedSentinel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.users.Create(context.Background(), "fed@example.com", auth.FederatedSentinel)
	require.NoError(t, err)

	resp := env.postForm(t, env.client(t), "/login", url.Values{
		"username": {"fed@example.com"},
		"password": {auth.FederatedSentinel},
	})
	_ = resp.Body.Close()
	assert.Equal(t, "/login?failed=1", resp.Header.Get("Location"))
}
