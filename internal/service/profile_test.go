package service

import (
	"context"
	"errors"
	"testing"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
)

func newTestProfileService() (*ProfileService, *fakeUserRepo, *fakeJobRepo) {
	users := newFakeUserRepo()
	jobs := newFakeJobRepo()
	return NewProfileService(users, jobs, testLogger()), users, jobs
}

func seedProfileUser(t *testing.T, users *fakeUserRepo) *model.User {
	t.Helper()
	u := &model.User{Email: "profile@example.com", PasswordHash: "h"}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

func seedProfileJob(t *testing.T, jobs *fakeJobRepo) *model.Job {
	t.Helper()
	j := &model.Job{Title: "A Job", Company: "Acme", Location: "Remote", JobType: "Full-time"}
	if err := jobs.Create(context.Background(), j); err != nil {
		t.Fatalf("seeding job: %v", err)
	}
	return j
}

func TestProfileGet_IncludesRelations(t *testing.T) {
	svc, users, jobs := newTestProfileService()
	user := seedProfileUser(t, users)
	job := seedProfileJob(t, jobs)

	ctx := context.Background()
	if err := svc.SaveJob(ctx, user.ID, job.ID); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	if err := svc.TrackApplication(ctx, user.ID, job.ID); err != nil {
		t.Fatalf("TrackApplication() error = %v", err)
	}

	profile, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(profile.SavedJobIDs) != 1 || profile.SavedJobIDs[0] != job.ID {
		t.Errorf("SavedJobIDs = %v, want [%s]", profile.SavedJobIDs, job.ID)
	}
	if len(profile.Applied) != 1 || profile.Applied[0].JobID != job.ID {
		t.Errorf("Applied = %v, want one entry for %s", profile.Applied, job.ID)
	}
	if profile.Applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not set")
	}
}

func TestProfileUpdate_SetIfPresent(t *testing.T) {
	svc, users, _ := newTestProfileService()
	user := seedProfileUser(t, users)
	user.DisplayName = "Original Name"
	user.Bio = "Original bio"
	if err := users.Update(context.Background(), user); err != nil {
		t.Fatalf("seeding fields: %v", err)
	}

	// Only Bio is sent; DisplayName must survive untouched.
	updated, err := svc.Update(context.Background(), user.ID, ProfileUpdate{Bio: "New bio"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Bio != "New bio" {
		t.Errorf("Bio = %q, want %q", updated.Bio, "New bio")
	}
	if updated.DisplayName != "Original Name" {
		t.Errorf("DisplayName = %q — update clobbered an unsent field", updated.DisplayName)
	}
}

func TestProfileUpdate_BioTooLong(t *testing.T) {
	svc, users, _ := newTestProfileService()
	user := seedProfileUser(t, users)

	long := make([]byte, MaxBioLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Update(context.Background(), user.ID, ProfileUpdate{Bio: string(long)})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() error = %v, want ErrValidation", err)
	}
}

func TestProfileSetResume(t *testing.T) {
	svc, users, _ := newTestProfileService()
	user := seedProfileUser(t, users)

	updated, err := svc.SetResume(context.Background(), user.ID, "/uploads/resume-abc.pdf")
	if err != nil {
		t.Fatalf("SetResume() error = %v", err)
	}
	if updated.ResumeURL != "/uploads/resume-abc.pdf" {
		t.Errorf("ResumeURL = %q", updated.ResumeURL)
	}

	if _, err := svc.SetResume(context.Background(), user.ID, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SetResume(\"\") error = %v, want ErrValidation", err)
	}
}

func TestProfileSaveJob_RequiresExistingJob(t *testing.T) {
	svc, users, _ := newTestProfileService()
	user := seedProfileUser(t, users)

	err := svc.SaveJob(context.Background(), user.ID, "ghost-job")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("SaveJob() error = %v, want ErrNotFound", err)
	}
}

func TestProfileSaveJob_DuplicateIsConflict(t *testing.T) {
	svc, users, jobs := newTestProfileService()
	user := seedProfileUser(t, users)
	job := seedProfileJob(t, jobs)

	ctx := context.Background()
	if err := svc.SaveJob(ctx, user.ID, job.ID); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	if err := svc.SaveJob(ctx, user.ID, job.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("SaveJob() duplicate error = %v, want ErrConflict", err)
	}

	// Unsave, then the save works again — set semantics.
	if err := svc.UnsaveJob(ctx, user.ID, job.ID); err != nil {
		t.Fatalf("UnsaveJob() error = %v", err)
	}
	if err := svc.SaveJob(ctx, user.ID, job.ID); err != nil {
		t.Errorf("SaveJob() after unsave error = %v", err)
	}
}

func TestProfileTrackApplication_Duplicate(t *testing.T) {
	svc, users, jobs := newTestProfileService()
	user := seedProfileUser(t, users)
	job := seedProfileJob(t, jobs)

	ctx := context.Background()
	if err := svc.TrackApplication(ctx, user.ID, job.ID); err != nil {
		t.Fatalf("TrackApplication() error = %v", err)
	}
	if err := svc.TrackApplication(ctx, user.ID, job.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("TrackApplication() duplicate error = %v, want ErrConflict", err)
	}
}
