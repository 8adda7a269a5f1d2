package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dmitrymomot/gamelog/user"
)

const defaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleConfig holds the OAuth client settings for Google sign-in.
type GoogleConfig struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID,required"`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET,required"`
	RedirectURL  string        `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:3000/auth/google/callback"`
	Timeout      time.Duration `env:"GOOGLE_TIMEOUT" envDefault:"10s"`
}

// Profile is the identity returned by the provider after a successful
// code exchange.
type Profile struct {
	Email      string `json:"email"`
	ProviderID string `json:"sub"`
}

// Google implements federated sign-in through Google's authorization-code
// flow. First login for an unseen email creates a sentinel account;
// later logins resolve to the same user.
type Google struct {
	users       user.Store
	oauth       *oauth2.Config
	timeout     time.Duration
	userinfoURL string
}

// GoogleOption overrides provider endpoints, used by tests.
type GoogleOption func(*Google)

// WithEndpoint replaces the OAuth token/auth endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) GoogleOption {
	return func(g *Google) { g.oauth.Endpoint = endpoint }
}

// WithUserinfoURL replaces the userinfo endpoint.
func WithUserinfoURL(url string) GoogleOption {
	return func(g *Google) { g.userinfoURL = url }
}

// NewGoogle creates the federated strategy.
func NewGoogle(cfg GoogleConfig, users user.Store, opts ...GoogleOption) *Google {
	g := &Google{
		users: users,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		timeout:     cfg.Timeout,
		userinfoURL: defaultUserinfoURL,
	}
	if g.timeout <= 0 {
		g.timeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthURL returns the provider consent URL carrying the CSRF state.
func (g *Google) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// Login exchanges the authorization code, fetches the profile, and
// resolves it to a local user. Every provider-side failure maps to
// ErrFederation; the exchange is bounded by the configured timeout so a
// hung provider cannot stall the request indefinitely.
func (g *Google) Login(ctx context.Context, code string) (user.User, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return user.User{}, errors.Join(ErrFederation, err)
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		return user.User{}, errors.Join(ErrFederation, err)
	}

	return g.Resolve(ctx, profile)
}

// Resolve maps a federated profile onto the credential store: an existing
// account is returned unchanged, an unseen email creates a sentinel
// account. Idempotent across repeated logins; a lost creation race falls
// back to the row the winner inserted.
func (g *Google) Resolve(ctx context.Context, profile Profile) (user.User, error) {
	if profile.Email == "" {
		return user.User{}, errors.Join(ErrFederation, errors.New("provider returned no email"))
	}

	u, err := g.users.ByEmail(ctx, profile.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("looking up federated user: %w", err)
	}

	u, err = g.users.Create(ctx, profile.Email, FederatedSentinel)
	if errors.Is(err, user.ErrEmailTaken) {
		return g.users.ByEmail(ctx, profile.Email)
	}
	return u, err
}

func (g *Google) fetchProfile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	resp, err := g.oauth.Client(ctx, token).Get(g.userinfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	return profile, nil
}
