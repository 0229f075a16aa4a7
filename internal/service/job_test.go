package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

// fakeJobRepo is an in-memory implementation of repository.JobRepository.
type fakeJobRepo struct {
	jobs   map[string]*model.Job
	order  []string // insertion order, newest last
	nextID int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.Job), nextID: 1}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *model.Job) error {
	job.ID = fmt.Sprintf("job-%d", f.nextID)
	f.nextID++
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()
	copied := *job
	f.jobs[job.ID] = &copied
	f.order = append(f.order, job.ID)
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, apperror.NotFound("job", id)
	}
	copied := *j
	return &copied, nil
}

func (f *fakeJobRepo) List(ctx context.Context, filter repository.JobFilter) ([]model.Job, int, error) {
	matched := []model.Job{}
	for i := len(f.order) - 1; i >= 0; i-- { // newest first
		j := f.jobs[f.order[i]]
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			hay := strings.ToLower(j.Title + " " + j.Company + " " + strings.Join(j.Skills, " "))
			if !strings.Contains(hay, s) {
				continue
			}
		}
		if filter.Location != "" && j.Location != filter.Location {
			continue
		}
		if filter.JobType != "" && j.JobType != filter.JobType {
			continue
		}
		matched = append(matched, *j)
	}

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *model.Job) error {
	if _, ok := f.jobs[job.ID]; !ok {
		return apperror.NotFound("job", job.ID)
	}
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.jobs[id]; !ok {
		return apperror.NotFound("job", id)
	}
	delete(f.jobs, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func validJobInput() JobInput {
	return JobInput{
		Title:           "Backend Engineer",
		Company:         "Acme",
		Location:        "Remote",
		JobType:         "Full-time",
		SalaryMin:       90000,
		SalaryMax:       140000,
		Skills:          []string{" go ", "", "sqlite"},
		Description:     "Build the backend.",
		ApplicationLink: "https://acme.example/apply",
		ContactEmail:    "jobs@acme.example",
	}
}

// =========================================================================
// Create TESTS
// =========================================================================

func TestJobServiceCreate(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, testLogger())

	job, err := svc.Create(context.Background(), "poster-1", validJobInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if job.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if job.PostedBy != "poster-1" {
		t.Errorf("PostedBy = %q, want %q", job.PostedBy, "poster-1")
	}
	// Skills are trimmed and empties dropped.
	if len(job.Skills) != 2 || job.Skills[0] != "go" || job.Skills[1] != "sqlite" {
		t.Errorf("Skills = %v, want [go sqlite]", job.Skills)
	}
}

func TestJobServiceCreate_Validation(t *testing.T) {
	svc := NewJobService(newFakeJobRepo(), testLogger())

	cases := []struct {
		name   string
		mutate func(*JobInput)
	}{
		{"empty title", func(in *JobInput) { in.Title = "  " }},
		{"empty company", func(in *JobInput) { in.Company = "" }},
		{"bad location", func(in *JobInput) { in.Location = "Mars" }},
		{"bad job type", func(in *JobInput) { in.JobType = "Gig" }},
		{"negative salary", func(in *JobInput) { in.SalaryMin = -1 }},
		{"inverted salary range", func(in *JobInput) { in.SalaryMin = 100; in.SalaryMax = 50 }},
		{"empty description", func(in *JobInput) { in.Description = "" }},
		{"missing application link", func(in *JobInput) { in.ApplicationLink = " " }},
		{"missing contact email", func(in *JobInput) { in.ContactEmail = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validJobInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), "u", in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// List TESTS
// =========================================================================

func TestJobServiceList_PaginationMetadata(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, testLogger())

	for i := 0; i < 45; i++ {
		in := validJobInput()
		in.Title = fmt.Sprintf("Job %d", i)
		if _, err := svc.Create(context.Background(), "u", in); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	page, err := svc.List(context.Background(), repository.JobFilter{}, 3, 20)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 45 {
		t.Errorf("Total = %d, want 45", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if page.Page != 3 {
		t.Errorf("Page = %d, want 3", page.Page)
	}
	if len(page.Jobs) != 5 {
		t.Errorf("len(Jobs) = %d, want 5 (last page)", len(page.Jobs))
	}
}

func TestJobServiceList_ClampsInputs(t *testing.T) {
	svc := NewJobService(newFakeJobRepo(), testLogger())

	page, err := svc.List(context.Background(), repository.JobFilter{}, -2, 100000)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Page != 1 {
		t.Errorf("Page = %d, want clamped to 1", page.Page)
	}
	if page.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1 for empty set", page.TotalPages)
	}
}

// =========================================================================
// Update / Delete TESTS
// =========================================================================

func TestJobServiceUpdate_PosterOnly(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, testLogger())

	job, err := svc.Create(context.Background(), "owner", validJobInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	in := validJobInput()
	in.Title = "Hijacked"
	_, err = svc.Update(context.Background(), job.ID, "intruder", in)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Update() by non-poster error = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(context.Background(), job.ID, "owner", in)
	if err != nil {
		t.Fatalf("Update() by poster error = %v", err)
	}
	if updated.Title != "Hijacked" {
		t.Errorf("Title = %q, want %q", updated.Title, "Hijacked")
	}
}

func TestJobServiceDelete(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, testLogger())

	job, err := svc.Create(context.Background(), "owner", validJobInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), job.ID, "intruder"); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() by non-poster error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), job.ID, "owner"); err != nil {
		t.Fatalf("Delete() by poster error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), job.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}
