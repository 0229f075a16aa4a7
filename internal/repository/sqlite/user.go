package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB implements repository.UserRepository on the shared pool.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, email, password_hash, github_id, google_id,
	display_name, avatar_url, bio, location, linkedin_url, github_url,
	resume_url, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.GitHubID,
		&u.GoogleID,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Bio,
		&u.Location,
		&u.LinkedInURL,
		&u.GitHubURL,
		&u.ResumeURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user, generating the ID and timestamps in place.
//
// The email is lower-cased here, at the storage boundary, so every caller
// gets the same normalization for free. A duplicate email or provider id
// comes back as a conflict error — the unique indexes decide, not a
// read-then-write check, so this is safe under concurrent registration.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, google_id,
			display_name, avatar_url, bio, location, linkedin_url, github_url,
			resume_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.GoogleID,
		user.DisplayName,
		user.AvatarURL,
		user.Bio,
		user.Location,
		user.LinkedInURL,
		user.GitHubURL,
		user.ResumeURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user: %w", translateErr(err))
	}
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, notFoundOr(err, "user", id))
	}
	return u, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by email: %w", notFoundOr(err, "user", normalized))
	}
	return u, nil
}

// GetByProvider retrieves a user by a linked OAuth identity.
func (db *UserDB) GetByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	var column string
	switch provider {
	case model.ProviderGitHub:
		column = "github_id"
	case model.ProviderGoogle:
		column = "google_id"
	default:
		return nil, apperror.ValidationFailed("provider", fmt.Sprintf("unknown provider %q", provider))
	}
	if providerID == "" {
		return nil, apperror.ValidationFailed("providerId", "provider id must not be empty")
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, providerID)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, notFoundOr(err, "user", providerID))
	}
	return u, nil
}

// Update persists all mutable fields of the user.
//
// Changing the email to one owned by another account trips the unique index
// and comes back as a conflict, same as Create.
func (db *UserDB) Update(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, github_id = ?,
			google_id = ?, display_name = ?, avatar_url = ?, bio = ?,
			location = ?, linkedin_url = ?, github_url = ?, resume_url = ?,
			updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.GoogleID,
		user.DisplayName,
		user.AvatarURL,
		user.Bio,
		user.Location,
		user.LinkedInURL,
		user.GitHubURL,
		user.ResumeURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, translateErr(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if rows == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// SaveJob adds a job to the user's saved set. Saving the same job twice is a
// conflict (the client treats it as "already saved").
func (db *UserDB) SaveJob(ctx context.Context, userID, jobID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO saved_jobs (user_id, job_id) VALUES (?, ?)`,
		userID, jobID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("job already saved")
		}
		return fmt.Errorf("sqlite: saving job %s for user %s: %w", jobID, userID, translateErr(err))
	}
	return nil
}

// UnsaveJob removes a job from the saved set. Removing a job that isn't
// saved is a NotFound, mirroring SaveJob's conflict on duplicates.
func (db *UserDB) UnsaveJob(ctx context.Context, userID, jobID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM saved_jobs WHERE user_id = ? AND job_id = ?`,
		userID, jobID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unsaving job %s for user %s: %w", jobID, userID, translateErr(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: unsaving job %s: %w", jobID, err)
	}
	if rows == 0 {
		return apperror.NotFound("saved job", jobID)
	}
	return nil
}

// ListSavedJobIDs returns the user's saved job ids, most recently saved first.
func (db *UserDB) ListSavedJobIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT job_id FROM saved_jobs WHERE user_id = ? ORDER BY saved_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing saved jobs for %s: %w", userID, translateErr(err))
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning saved job: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating saved jobs: %w", translateErr(err))
	}
	return ids, nil
}

// AddApplication records that the user applied to a job. Applying twice to
// the same job is a conflict.
func (db *UserDB) AddApplication(ctx context.Context, userID, jobID string, appliedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO applications (user_id, job_id, applied_at) VALUES (?, ?, ?)`,
		userID, jobID, appliedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("already applied to this job")
		}
		return fmt.Errorf("sqlite: recording application to %s: %w", jobID, translateErr(err))
	}
	return nil
}

// ListApplications returns the user's applications, most recent first.
func (db *UserDB) ListApplications(ctx context.Context, userID string) ([]model.Application, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT job_id, applied_at FROM applications
		 WHERE user_id = ? ORDER BY applied_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing applications for %s: %w", userID, translateErr(err))
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.JobID, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating applications: %w", translateErr(err))
	}
	return apps, nil
}
