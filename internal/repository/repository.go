// Package repository declares the storage interfaces the services depend on.
//
// Services accept these interfaces; the sqlite subpackage returns concrete
// implementations. Tests substitute hand-written fakes.
package repository

import (
	"context"
	"time"

	"github.com/AnujPatil110377/job-pilot/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// JobFilter narrows a job listing. Zero values mean "no constraint".
// Search matches title, company and skills; Location and JobType are exact
// matches against the allowed enum values.
type JobFilter struct {
	Search    string
	Location  string
	JobType   string
	MinSalary int
	MaxSalary int
	ListOptions
}

// UserRepository stores user accounts.
//
// ERROR CONTRACT (all implementations):
//   - lookups return apperror.ErrNotFound when no record matches
//   - Create/Update return apperror.ErrConflict when a unique key
//     (email, github_id, google_id) is already taken
//   - context deadline/cancellation surfaces as apperror.ErrUnavailable,
//     never as ErrNotFound — a timeout says nothing about existence
//
// Emails are normalized to lower case on write; GetByEmail matches
// case-insensitively so callers don't have to pre-normalize.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByProvider looks up by ("github"|"google", provider user id).
	GetByProvider(ctx context.Context, provider, providerID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error

	// Saved and applied jobs are relations, not user columns; they are
	// loaded only by the profile endpoints.
	SaveJob(ctx context.Context, userID, jobID string) error
	UnsaveJob(ctx context.Context, userID, jobID string) error
	ListSavedJobIDs(ctx context.Context, userID string) ([]string, error)
	AddApplication(ctx context.Context, userID, jobID string, appliedAt time.Time) error
	ListApplications(ctx context.Context, userID string) ([]model.Application, error)
}

// JobRepository stores job postings. List returns the page plus the total
// match count so handlers can report pagination metadata.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter JobFilter) ([]model.Job, int, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, id string) error
}
