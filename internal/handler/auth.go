package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/auth"
	"github.com/AnujPatil110377/job-pilot/internal/service"
)

// stateCookieName holds the signed OAuth state between the redirect to the
// provider and the callback. Single-use, ten minutes, HttpOnly.
const stateCookieName = "oauth_state"

// AuthConfig is the surface-level policy the auth handler needs.
type AuthConfig struct {
	// ClientOrigin is where successful OAuth logins land, e.g. the SPA origin.
	ClientOrigin string
	// FailureURL is where failed OAuth logins land (an error page on the SPA).
	FailureURL string
	// SynthesizeEmail enables the "{username}@{provider}.local" placeholder
	// when a provider grants no email address. Off by default: a placeholder
	// address can never receive mail and blocks a later real-email signup
	// from reconciling onto the same account.
	SynthesizeEmail bool
}

// AuthHandler owns the authentication surface: password register/login,
// logout, /api/me, and the OAuth flows for every configured provider.
//
// DEPENDENCY CHAIN:
//   - auth      *service.AuthService → registration, login, reconciliation
//   - binder    *auth.SessionBinder  → establishes/clears sessions
//   - state     *auth.StateService   → signs and verifies OAuth state tokens
//   - providers map by name          → GitHub, Google
type AuthHandler struct {
	auth      *service.AuthService
	binder    *auth.SessionBinder
	state     *auth.StateService
	providers map[string]auth.Provider
	config    AuthConfig
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	authSvc *service.AuthService,
	binder *auth.SessionBinder,
	state *auth.StateService,
	providers map[string]auth.Provider,
	config AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:      authSvc,
		binder:    binder,
		state:     state,
		providers: providers,
		config:    config,
		logger:    logger,
	}
}

// credentialsRequest is the body for both register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a password account and logs it in.
//
// HTTP: POST /auth/password/register
// Body: {"email": "...", "password": "..."}
// Resp: 201 {message}
//
// Registration does NOT start a session — the client logs in afterwards.
// Keeping the two distinct means a session only ever comes from a verified
// credential.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "registration successful"})
}

// HandleLogin verifies a password credential and starts a session.
//
// HTTP: POST /auth/password/login
// Resp: 200 {message} with the session cookie set; 401 with ONE fixed
// message on any failure. The handler adds nothing to the service's error —
// the whole point of the uniform message is that no layer embellishes it.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.binder.Establish(r.Context(), user); err != nil {
		h.logger.Error("login: establishing session failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "login successful"})
}

// HandleLogout destroys the current session.
//
// HTTP: POST /auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation. Using GET would be vulnerable to
// CSRF and to browsers pre-fetching the URL. POST ensures intentional action.
//
// Logging out an anonymous request succeeds too — destroying a session that
// doesn't exist is a no-op, and 200 either way avoids leaking session state.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.binder.Clear(r.Context()); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's account.
//
// HTTP: GET /api/me
// Auth: Required (RequireUser middleware puts the user in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireUser-protected route, but be safe.
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleOAuthStart begins the OAuth flow for the provider in the URL.
//
// HTTP: GET /auth/{provider}?returnTo=/jobs
//
// CSRF PROTECTION VIA STATE:
// The state is a short-lived signed token. We mirror it into an HttpOnly
// cookie and send it to the provider; the callback must present the SAME
// token in both places AND the token must verify. An attacker can't forge
// the signature, and a replayed token dies with its ten-minute expiry.
func (h *AuthHandler) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		writeError(w, apperror.NotFound("provider", chi.URLParam(r, "provider")))
		return
	}

	state, err := h.state.Issue(safeReturnTo(r.URL.Query().Get("returnTo")))
	if err != nil {
		h.logger.Error("oauth start: issuing state failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // matches the token's own lifetime
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the OAuth flow.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. State check: cookie value == query value, signature verifies
//  2. Handle provider-reported errors (user clicked "deny")
//  3. Exchange the code for a profile
//  4. Reconcile the profile onto exactly one account
//  5. Establish the session and redirect back to the client
//
// Failures redirect to the configured failure URL rather than rendering
// JSON: the browser is mid-navigation here, not making an API call.
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		writeError(w, apperror.NotFound("provider", chi.URLParam(r, "provider")))
		return
	}

	// --- Step 1: state check ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("oauth callback: missing state cookie",
			slog.String("provider", provider.Name()))
		h.failLogin(w, r, "invalid_state")
		return
	}
	// Single-use: clear it no matter how the rest of the flow goes.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch",
			slog.String("provider", provider.Name()))
		h.failLogin(w, r, "invalid_state")
		return
	}
	returnTo, err := h.state.Verify(stateCookie.Value)
	if err != nil {
		h.logger.Warn("oauth callback: state verification failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r, "invalid_state")
		return
	}

	// --- Step 2: provider-reported errors ---
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: provider reported error",
			slog.String("provider", provider.Name()),
			slog.String("error", errParam),
		)
		h.failLogin(w, r, "denied")
		return
	}

	// --- Step 3: exchange the code for a profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		h.failLogin(w, r, "missing_code")
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r, "exchange_failed")
		return
	}

	// --- Step 4: reconcile onto one account ---
	user, outcome, err := h.auth.ReconcileOAuth(r.Context(), profile)
	if err != nil && h.canSynthesizeEmail(err, profile) {
		// Provider gave no email. Retry once with the documented placeholder.
		retry := *profile
		retry.Email = profile.Username + "@" + profile.Provider + ".local"
		user, outcome, err = h.auth.ReconcileOAuth(r.Context(), &retry)
	}
	if err != nil {
		h.logger.Error("oauth callback: reconciliation failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r, "reconcile_failed")
		return
	}

	h.logger.Info("oauth login",
		slog.String("userID", user.ID),
		slog.String("provider", provider.Name()),
		slog.String("outcome", outcome.String()),
	)

	// --- Step 5: session + redirect. Only a reconciled account gets a
	// session; nothing above this line touched session state.
	if err := h.binder.Establish(r.Context(), user); err != nil {
		h.logger.Error("oauth callback: establishing session failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r, "session_failed")
		return
	}

	http.Redirect(w, r, h.config.ClientOrigin+returnTo, http.StatusSeeOther)
}

// canSynthesizeEmail reports whether a reconciliation failure is the
// missing-email case AND policy allows retrying with a placeholder.
func (h *AuthHandler) canSynthesizeEmail(err error, profile *auth.Profile) bool {
	return h.config.SynthesizeEmail &&
		profile.Username != "" &&
		errors.Is(err, service.ErrEmailNotProvided)
}

// failLogin redirects a broken OAuth flow to the failure page with a
// machine-readable reason in the query string.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, reason string) {
	u := h.config.FailureURL
	if strings.Contains(u, "?") {
		u += "&reason=" + url.QueryEscape(reason)
	} else {
		u += "?reason=" + url.QueryEscape(reason)
	}
	http.Redirect(w, r, u, http.StatusSeeOther)
}

// safeReturnTo keeps the post-login redirect on our own client: only
// same-origin paths survive, anything absolute or protocol-relative is
// dropped (open-redirect defence).
func safeReturnTo(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return ""
	}
	return returnTo
}
