package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the provider-neutral identity extracted from an OAuth callback.
// Every provider maps its own payload into this shape so the rest of the
// application never sees provider-specific JSON.
//
// Email may be empty: GitHub users can hide their email entirely, and the
// /user/emails fallback only helps when the user:email scope was granted.
// What to do about a missing email is a policy decision that belongs to the
// caller, not to the provider.
type Profile struct {
	Provider    string // "github" or "google"
	ProviderID  string // provider's stable user id, as an opaque string
	Email       string
	Username    string // provider-side handle (GitHub login, Google email local part)
	DisplayName string
	AvatarURL   string
}

// Provider abstracts one OAuth identity provider.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Our server redirects the user to the provider's authorization endpoint,
//    with our ClientID and the requested scopes.
// 2. The user approves (or denies) the authorization request.
// 3. The provider redirects back to our callback URL with a short-lived "code".
// 4. Our server exchanges the code for an access token (server-to-server call).
// 5. Our server uses the access token to fetch the user's profile.
//
// The code-for-token exchange uses our ClientSecret and never touches the
// browser, which is why the access token can't leak client-side.
type Provider interface {
	// Name returns the provider key ("github", "google").
	Name() string
	// AuthURL returns the provider authorization URL for the given state.
	AuthURL(state string) string
	// Exchange trades the callback code for a normalized profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// =========================================================================
// GITHUB
// =========================================================================

// GitHubProvider implements Provider for GitHub OAuth Apps.
//
// The API URLs are fields (not constants) so tests can point the provider at
// an httptest server instead of api.github.com.
type GitHubProvider struct {
	config    *oauth2.Config
	userURL   string
	emailsURL string
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must exactly match the "Authorization callback URL" configured
// on the OAuth App. Scopes:
//   - "read:user" — public profile (id, login, name, avatar)
//   - "user:email" — email addresses, needed because the /user payload omits
//     the email when the user has hidden it
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL:   "https://api.github.com/user",
		emailsURL: "https://api.github.com/user/emails",
	}
}

func (p *GitHubProvider) Name() string { return "github" }

// AuthURL returns the URL to redirect the user to for authorization.
//
// STATE PARAMETER:
// The state is a signed token we generate and mirror into a cookie before
// redirecting. When GitHub calls back, we verify the returned state matches
// the cookie and carries a valid signature. This prevents CSRF attacks where
// an attacker completes an OAuth flow against the victim's browser.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// githubUser is the portion of the GitHub /user response we care about.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if the user hides it
	AvatarURL string `json:"avatar_url"`
}

// githubEmail is one entry of the GitHub /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange completes the OAuth flow: trades the authorization code for a
// normalized profile.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. GET /user with the token
//  3. If the payload has no email, GET /user/emails and pick the primary
//     verified address — best effort, a failure here is not fatal
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	email := gh.Email
	if email == "" {
		email = p.primaryEmail(ctx, client)
	}

	return &Profile{
		Provider:    p.Name(),
		ProviderID:  strconv.FormatInt(gh.ID, 10),
		Email:       email,
		Username:    gh.Login,
		DisplayName: gh.Name,
		AvatarURL:   gh.AvatarURL,
	}, nil
}

// primaryEmail fetches /user/emails and returns the primary verified address,
// or "" when none is available. Errors are swallowed: a missing email is a
// normal outcome the caller already has to handle.
func (p *GitHubProvider) primaryEmail(ctx context.Context, client *http.Client) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.emailsURL, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return ""
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

// =========================================================================
// GOOGLE
// =========================================================================

// GoogleProvider implements Provider for Google OAuth 2.0 clients.
type GoogleProvider struct {
	config  *oauth2.Config
	userURL string
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
// Scopes "openid email profile" give us the stable subject id, the verified
// email and the display name/picture — everything reconciliation needs.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// googleUser is the portion of the userinfo response we care about.
// Google's "id" is a decimal string that overflows float64, which is why we
// never parse it into a number.
type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google code: %w", err)
	}

	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}
	if gu.ID == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty id)")
	}

	// Google has no separate handle; the email local part is the closest
	// thing and is what placeholder synthesis uses downstream.
	username, _, _ := strings.Cut(gu.Email, "@")

	return &Profile{
		Provider:    p.Name(),
		ProviderID:  gu.ID,
		Email:       gu.Email,
		Username:    username,
		DisplayName: gu.Name,
		AvatarURL:   gu.Picture,
	}, nil
}
