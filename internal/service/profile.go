// Profile business logic: the user's own page, saved jobs and applications.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

const MaxBioLength = 2000

// ProfileService handles the profile endpoints' business logic. It needs
// both repositories: saved/applied jobs reference job records.
type ProfileService struct {
	users  repository.UserRepository
	jobs   repository.JobRepository
	logger *slog.Logger
}

func NewProfileService(
	users repository.UserRepository,
	jobs repository.JobRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:  users,
		jobs:   jobs,
		logger: logger,
	}
}

// Get returns the user's profile with the saved/applied job sets attached.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.users.ListSavedJobIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading saved jobs: %w", err)
	}
	applied, err := s.users.ListApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading applications: %w", err)
	}

	return &model.Profile{
		User:        *user,
		SavedJobIDs: saved,
		Applied:     applied,
	}, nil
}

// ProfileUpdate carries the free-form profile fields. Empty string means
// "leave unchanged" — these are cosmetic fields, and the client sends only
// what the user edited.
type ProfileUpdate struct {
	DisplayName string
	Bio         string
	Location    string
	LinkedInURL string
	GitHubURL   string
}

// Update applies the set-if-present fields and returns the fresh record.
func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(upd.DisplayName); v != "" {
		user.DisplayName = v
	}
	if v := strings.TrimSpace(upd.Bio); v != "" {
		if len(v) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		user.Bio = v
	}
	if v := strings.TrimSpace(upd.Location); v != "" {
		user.Location = v
	}
	if v := strings.TrimSpace(upd.LinkedInURL); v != "" {
		user.LinkedInURL = v
	}
	if v := strings.TrimSpace(upd.GitHubURL); v != "" {
		user.GitHubURL = v
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}

// SetResume stores the uploaded resume's public URL on the user.
func (s *ProfileService) SetResume(ctx context.Context, userID, resumeURL string) (*model.User, error) {
	if resumeURL == "" {
		return nil, apperror.ValidationFailed("resume", "resume file is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.ResumeURL = resumeURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("storing resume: %w", err)
	}

	s.logger.Info("resume uploaded", slog.String("userID", userID))
	return user, nil
}

// SaveJob adds a job to the user's saved set. The job must exist; saving
// twice is a conflict the handler reports as "already saved".
func (s *ProfileService) SaveJob(ctx context.Context, userID, jobID string) error {
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return err
	}
	return s.users.SaveJob(ctx, userID, jobID)
}

// UnsaveJob removes a job from the saved set.
func (s *ProfileService) UnsaveJob(ctx context.Context, userID, jobID string) error {
	return s.users.UnsaveJob(ctx, userID, jobID)
}

// TrackApplication records that the user applied to a job right now.
func (s *ProfileService) TrackApplication(ctx context.Context, userID, jobID string) error {
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return err
	}
	return s.users.AddApplication(ctx, userID, jobID, time.Now())
}
