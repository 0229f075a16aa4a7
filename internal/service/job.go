// Job posting business logic.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// JobService takes repository.JobRepository (an interface), not a concrete
// *sqlite.JobDB — tests pass a fake, and swapping the storage backend is a
// one-line change in main.go.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

// Validation constants.
const (
	MaxJobTitleLength       = 150
	MaxJobDescriptionLength = 20000
	DefaultListLimit        = 20
	MaxListLimit            = 100
)

// JobService handles business logic for job postings.
type JobService struct {
	jobs   repository.JobRepository
	logger *slog.Logger
}

func NewJobService(jobs repository.JobRepository, logger *slog.Logger) *JobService {
	return &JobService{
		jobs:   jobs,
		logger: logger,
	}
}

// JobInput carries the caller-editable fields of a posting. Skills arrive
// pre-split — the handler owns the CSV-vs-JSON question.
type JobInput struct {
	Title           string
	Company         string
	Location        string
	JobType         string
	SalaryMin       int
	SalaryMax       int
	Skills          []string
	Description     string
	ApplicationLink string
	ContactEmail    string
	LogoURL         string
}

func (in *JobInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "job title is required")
	}
	if len(in.Title) > MaxJobTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("job title must be %d characters or less", MaxJobTitleLength))
	}
	if in.Company == "" {
		return apperror.ValidationFailed("company", "company is required")
	}
	if !model.ValidJobLocation(in.Location) {
		return apperror.ValidationFailed("location",
			fmt.Sprintf("location must be one of %s", strings.Join(model.JobLocations, ", ")))
	}
	if !model.ValidJobType(in.JobType) {
		return apperror.ValidationFailed("jobType",
			fmt.Sprintf("job type must be one of %s", strings.Join(model.JobTypes, ", ")))
	}
	if in.SalaryMin < 0 || in.SalaryMax < 0 {
		return apperror.ValidationFailed("salary", "salary must not be negative")
	}
	if in.SalaryMax > 0 && in.SalaryMin > in.SalaryMax {
		return apperror.ValidationFailed("salary", "minimum salary exceeds maximum")
	}
	if in.Description == "" {
		return apperror.ValidationFailed("description", "description is required")
	}
	if len(in.Description) > MaxJobDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxJobDescriptionLength))
	}
	if strings.TrimSpace(in.ApplicationLink) == "" {
		return apperror.ValidationFailed("applicationLink", "application link is required")
	}
	if strings.TrimSpace(in.ContactEmail) == "" {
		return apperror.ValidationFailed("contactEmail", "contact email is required")
	}
	return nil
}

// Create validates and saves a new posting attributed to postedBy.
func (s *JobService) Create(ctx context.Context, postedBy string, input JobInput) (*model.Job, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	job := &model.Job{
		Title:           input.Title,
		Company:         input.Company,
		Location:        input.Location,
		JobType:         input.JobType,
		SalaryMin:       input.SalaryMin,
		SalaryMax:       input.SalaryMax,
		Skills:          cleanSkills(input.Skills),
		Description:     input.Description,
		ApplicationLink: strings.TrimSpace(input.ApplicationLink),
		ContactEmail:    strings.TrimSpace(input.ContactEmail),
		LogoURL:         input.LogoURL,
		PostedBy:        postedBy,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("failed to create job",
			slog.String("title", job.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.logger.Info("job created",
		slog.String("id", job.ID),
		slog.String("title", job.Title),
	)
	return job, nil
}

// GetByID retrieves a single posting.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "job ID is required")
	}
	return s.jobs.GetByID(ctx, id)
}

// JobPage is one page of listings plus pagination metadata.
type JobPage struct {
	Jobs       []model.Job `json:"jobs"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// List retrieves postings matching the filter, newest first.
// page is 1-based; limit is clamped to 1-100 with a default of 20.
func (s *JobService) List(ctx context.Context, filter repository.JobFilter, page, limit int) (*JobPage, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if page < 1 {
		page = 1
	}

	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	jobs, total, err := s.jobs.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &JobPage{
		Jobs:       jobs,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// Update modifies an existing posting. Only the poster may edit it.
//
// STRATEGY: fetch then update — the fetch confirms existence and ownership,
// and lets us return the full updated record.
func (s *JobService) Update(ctx context.Context, id, userID string, input JobInput) (*model.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "job ID is required")
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != "" && job.PostedBy != userID {
		return nil, apperror.Forbidden("only the poster can edit this job")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	job.Title = input.Title
	job.Company = input.Company
	job.Location = input.Location
	job.JobType = input.JobType
	job.SalaryMin = input.SalaryMin
	job.SalaryMax = input.SalaryMax
	job.Skills = cleanSkills(input.Skills)
	job.Description = input.Description
	job.ApplicationLink = strings.TrimSpace(input.ApplicationLink)
	job.ContactEmail = strings.TrimSpace(input.ContactEmail)
	if input.LogoURL != "" {
		job.LogoURL = input.LogoURL
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		s.logger.Error("failed to update job",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating job: %w", err)
	}

	s.logger.Info("job updated", slog.String("id", job.ID))
	return job, nil
}

// Delete removes a posting. Only the poster may delete it.
func (s *JobService) Delete(ctx context.Context, id, userID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "job ID is required")
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.PostedBy != "" && job.PostedBy != userID {
		return apperror.Forbidden("only the poster can delete this job")
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		// A concurrent delete can win the race; that's still a success
		// from the caller's point of view.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logger.Info("job deleted", slog.String("id", id))
	return nil
}

// cleanSkills trims entries and drops empties, preserving order.
func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, sk := range skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			out = append(out, sk)
		}
	}
	return out
}
