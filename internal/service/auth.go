// Package service — identity and authentication business logic.
//
// AuthService is the business logic layer for accounts. It sits between the
// HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//
// One account, several credentials: a user may register with a password,
// arrive via GitHub, arrive via Google, or any mix. The reconciliation rules
// in ReconcileOAuth are what keep those paths converging on a single account
// per email instead of spawning duplicates.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/auth"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

// ErrEmailNotProvided is returned by ReconcileOAuth when the provider did
// not grant an email address. The handler decides policy: fail the login, or
// (when placeholder synthesis is enabled) retry with a synthesized address.
var ErrEmailNotProvided = apperror.ValidationFailed("email",
	"identity provider did not supply an email address")

// loginFailedMessage is the single message for every failed login. Unknown
// email, wrong password and password-less OAuth account must all read
// identically, or the endpoint leaks which emails are registered.
const loginFailedMessage = "invalid email or password"

// ReconcileOutcome tags which path an OAuth login took.
type ReconcileOutcome int

const (
	// OutcomeFound — the provider identity was already linked to an account.
	OutcomeFound ReconcileOutcome = iota
	// OutcomeLinked — an existing account with the same email gained this
	// provider identity.
	OutcomeLinked
	// OutcomeCreated — a brand-new account was created.
	OutcomeCreated
)

func (o ReconcileOutcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeLinked:
		return "linked"
	case OutcomeCreated:
		return "created"
	}
	return "unknown"
}

// AuthService handles registration, login and OAuth reconciliation.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go (or main.go) when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new password-based account.
//
// The pre-flight GetByEmail gives a friendly error in the common case, but
// the real guarantee is the unique index: if two registrations race past the
// lookup, the second insert fails with a conflict and is reported the same
// way. There is no window in which both can win.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("a user with this email already exists")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		// Unavailable, cancellation — anything that isn't a clean miss.
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("a user with this email already exists")
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
	)

	return user, nil
}

// Login verifies a password credential and returns the account.
//
// NON-DISCLOSURE + UNIFORM TIMING:
// Every failure path returns the same Unauthorized error, and the paths
// that have no hash to check (unknown email, OAuth-only account) still burn
// a bcrypt comparison via DummyVerify. Response body and response time both
// refuse to reveal whether the email is registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.DummyVerify(password)
			return nil, apperror.Unauthorized(loginFailedMessage)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !user.HasPassword() {
		// OAuth-only account. Telling the caller "use Google instead"
		// would confirm the email exists — so we don't.
		s.passwords.DummyVerify(password)
		return nil, apperror.Unauthorized(loginFailedMessage)
	}

	ok, err := s.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		// A malformed hash is data corruption on our side. Log it loudly,
		// tell the client nothing beyond the generic failure.
		s.logger.Error("stored password hash is malformed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unauthorized(loginFailedMessage)
	}
	if !ok {
		return nil, apperror.Unauthorized(loginFailedMessage)
	}

	return user, nil
}

// ReconcileOAuth maps a verified provider profile onto exactly one account.
//
// Resolution order:
//  1. provider id already linked   → return that account (found)
//  2. email matches an account     → link the provider id to it (linked)
//  3. otherwise                    → create a new account (created)
//
// Step 2 fills displayName/avatarUrl only when they are empty — a login must
// never overwrite fields the user curated themselves.
//
// DOUBLE-SUBMITTED CALLBACKS:
// Browsers retry, users double-click, and two callbacks for the same fresh
// account can race to step 3. The unique indexes make the loser's insert
// fail with a conflict; we then retry ONCE as a fresh lookup, which finds
// the winner's row. The caller sees the same account either way.
func (s *AuthService) ReconcileOAuth(ctx context.Context, profile *auth.Profile) (*model.User, ReconcileOutcome, error) {
	if profile == nil {
		return nil, 0, fmt.Errorf("service/auth: profile must not be nil")
	}
	if profile.Provider != model.ProviderGitHub && profile.Provider != model.ProviderGoogle {
		return nil, 0, apperror.ValidationFailed("provider",
			fmt.Sprintf("unknown provider %q", profile.Provider))
	}
	if profile.ProviderID == "" {
		return nil, 0, apperror.ValidationFailed("providerId", "provider id must not be empty")
	}

	// Step 1: provider identity already known?
	user, err := s.users.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		return user, OutcomeFound, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, 0, fmt.Errorf("service/auth: looking up provider identity: %w", err)
	}

	// Steps 2 and 3 need an email to reconcile on. Whether to synthesize a
	// placeholder is the surface's policy decision, not ours.
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, 0, ErrEmailNotProvided
	}

	// Step 2: account with the same email?
	user, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		linked, lerr := s.linkProvider(ctx, user, profile)
		if lerr != nil {
			return nil, 0, lerr
		}
		return linked, OutcomeLinked, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, 0, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	// Step 3: brand-new account.
	user = &model.User{
		Email:       email,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	}
	setProviderID(user, profile.Provider, profile.ProviderID)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return s.retryAfterConflict(ctx, profile, email)
		}
		return nil, 0, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user created via oauth",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)
	return user, OutcomeCreated, nil
}

// linkProvider attaches the profile's identity to an existing account and
// fills empty display fields. Curated values are never overwritten.
func (s *AuthService) linkProvider(ctx context.Context, user *model.User, profile *auth.Profile) (*model.User, error) {
	if existing := user.ProviderID(profile.Provider); existing != "" {
		if existing == profile.ProviderID {
			// Nothing to do — can happen if the provider lookup raced a
			// concurrent link.
			return user, nil
		}
		return nil, apperror.Conflict(fmt.Sprintf(
			"this email is already linked to a different %s account", profile.Provider))
	}

	setProviderID(user, profile.Provider, profile.ProviderID)
	if user.DisplayName == "" {
		user.DisplayName = profile.DisplayName
	}
	if user.AvatarURL == "" {
		user.AvatarURL = profile.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// The provider id got linked elsewhere while we worked. The
			// authoritative row is whatever the provider lookup finds now.
			if winner, lerr := s.users.GetByProvider(ctx, profile.Provider, profile.ProviderID); lerr == nil {
				return winner, nil
			}
			return nil, fmt.Errorf("service/auth: linking provider: %w", err)
		}
		return nil, fmt.Errorf("service/auth: linking provider: %w", err)
	}

	s.logger.Info("provider linked to existing user",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)
	return user, nil
}

// retryAfterConflict handles the create race: exactly one fresh pass of the
// lookups, no second insert.
func (s *AuthService) retryAfterConflict(ctx context.Context, profile *auth.Profile, email string) (*model.User, ReconcileOutcome, error) {
	if user, err := s.users.GetByProvider(ctx, profile.Provider, profile.ProviderID); err == nil {
		return user, OutcomeFound, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, 0, fmt.Errorf("service/auth: retrying after create conflict: %w", err)
	}
	linked, err := s.linkProvider(ctx, user, profile)
	if err != nil {
		return nil, 0, err
	}
	return linked, OutcomeLinked, nil
}

func setProviderID(user *model.User, provider, providerID string) {
	switch provider {
	case model.ProviderGitHub:
		user.GitHubID = providerID
	case model.ProviderGoogle:
		user.GoogleID = providerID
	}
}

// GetUserByID returns the user for the given internal ID. Used by /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}
