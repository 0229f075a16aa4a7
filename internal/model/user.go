// Package model defines the data structures used throughout the application.
package model

import "time"

// Provider names accepted by the OAuth flow. Kept as plain strings (not a
// custom type) because they travel through URLs, session state and database
// columns — a named string type would force conversions at every boundary.
const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

// User represents a single account regardless of how it authenticates.
//
// One account can hold several credentials at once: a bcrypt password hash,
// a GitHub identity, a Google identity, or any combination. Accounts are
// keyed by our own xid string — never by a provider's numbering scheme —
// and deduplicated by email (stored lower-case, unique).
//
// WHY GitHubID/GoogleID string (not int64)?
// GitHub's numeric IDs and Google's "sub" claims are both treated as opaque
// strings. Google's IDs overflow int64 notation in JavaScript clients and
// GitHub's are incidental integers; storing both as strings keeps the two
// provider columns symmetric. Empty string means "not linked".
//
// PasswordHash is empty for OAuth-only accounts. It is never serialized.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	GitHubID     string    `json:"githubId,omitempty"    db:"github_id"`
	GoogleID     string    `json:"googleId,omitempty"    db:"google_id"`
	DisplayName  string    `json:"displayName,omitempty" db:"display_name"`
	AvatarURL    string    `json:"avatarUrl,omitempty"   db:"avatar_url"`
	Bio          string    `json:"bio,omitempty"         db:"bio"`
	Location     string    `json:"location,omitempty"    db:"location"`
	LinkedInURL  string    `json:"linkedinUrl,omitempty" db:"linkedin_url"`
	GitHubURL    string    `json:"githubUrl,omitempty"   db:"github_url"`
	ResumeURL    string    `json:"resumeUrl,omitempty"   db:"resume_url"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// HasPassword reports whether this account can log in with a password.
// OAuth-only accounts have no hash stored.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ProviderID returns the stored identity for the given provider, or "" if
// the account is not linked to it.
func (u *User) ProviderID(provider string) string {
	switch provider {
	case ProviderGitHub:
		return u.GitHubID
	case ProviderGoogle:
		return u.GoogleID
	}
	return ""
}

// Application records that a user applied to a job, and when.
type Application struct {
	JobID     string    `json:"jobId"     db:"job_id"`
	AppliedAt time.Time `json:"appliedAt" db:"applied_at"`
}

// Profile is the user plus the job relations that only the profile endpoints
// need. Session resolution returns a bare User; loading the saved/applied
// sets on every request would be wasted reads.
type Profile struct {
	User
	SavedJobIDs []string      `json:"savedJobs"`
	Applied     []Application `json:"appliedJobs"`
}
