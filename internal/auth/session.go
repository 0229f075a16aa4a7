package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

// sessionUserKey is the only key we ever put in the session data. A session
// holds the user id and nothing else — profile fields are re-read from the
// store on every request so stale data can't accumulate in cookies.
const sessionUserKey = "userID"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey.
type contextKey string

const userKey contextKey = "user"

// NewSessionManager builds the scs session manager with our cookie policy:
// 24-hour absolute lifetime, HttpOnly always, Secure in production,
// SameSite=Lax so the OAuth callback redirect still carries the cookie.
//
// WHY SERVER-SIDE SESSIONS (NOT JWT)?
// The cookie carries only an opaque random token; the user id lives on the
// server. That means logout and account deletion take effect immediately —
// there is no signed credential out in the wild that stays valid until
// expiry.
func NewSessionManager(secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 0 // absolute expiry only
	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	return sm
}

// SessionBinder ties sessions to user records: it serializes a user into a
// session (storing only the id) and resolves a session back into a full user
// via the repository.
type SessionBinder struct {
	sessions *scs.SessionManager
	users    repository.UserRepository
}

func NewSessionBinder(sessions *scs.SessionManager, users repository.UserRepository) *SessionBinder {
	return &SessionBinder{sessions: sessions, users: users}
}

// Establish logs the user into the current session.
//
// RenewToken first: rotating the session token on privilege change is the
// standard session-fixation defence. An attacker who planted a known
// pre-login token in the victim's browser ends up holding a dead token.
func (b *SessionBinder) Establish(ctx context.Context, user *model.User) error {
	if err := b.sessions.RenewToken(ctx); err != nil {
		return err
	}
	b.sessions.Put(ctx, sessionUserKey, user.ID)
	return nil
}

// Clear destroys the current session (logout).
func (b *SessionBinder) Clear(ctx context.Context) error {
	return b.sessions.Destroy(ctx)
}

// Resolve loads the user for the current session.
//
// An id whose user no longer exists is an invalid session, not a "user not
// found": the record may have been deleted since login. The dead session is
// destroyed on the spot so the client stops presenting it.
func (b *SessionBinder) Resolve(ctx context.Context) (*model.User, error) {
	id := b.sessions.GetString(ctx, sessionUserKey)
	if id == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	user, err := b.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = b.sessions.Destroy(ctx)
			return nil, apperror.Unauthorized("authentication required")
		}
		return nil, err
	}
	return user, nil
}

// RequireUser is a middleware that enforces a valid session on protected
// routes. It resolves the session to a full user and stores it in the
// request context; without one it returns 401 and stops the chain.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler that wraps it. Chi applies middlewares in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp
func (b *SessionBinder) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := b.Resolve(r.Context())
		if err != nil {
			if errors.Is(err, apperror.ErrUnavailable) {
				http.Error(w, `{"error":"unavailable","message":"please try again shortly"}`, http.StatusServiceUnavailable)
				return
			}
			http.Error(w, `{"error":"unauthorized","message":"authentication required"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalUser resolves the session if one is present but never blocks the
// request. Handlers check UserFromContext; (nil, false) means anonymous.
func (b *SessionBinder) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := b.Resolve(r.Context()); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
