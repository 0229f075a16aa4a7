package sqlite

import (
	"context"
	"testing"

	"github.com/AnujPatil110377/job-pilot/internal/model"
)

// newTestDB creates an in-memory SQLite database for testing.
// ":memory:" gives every test its own fresh, isolated database that
// disappears when the connection closes — no cleanup files, no state
// leaking between tests.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser inserts a password user and fails the test on error.
func createTestUser(t *testing.T, u *UserDB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "$2a$04$fakefakefakefakefakefake",
	}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestJob inserts a valid job posting and fails the test on error.
func createTestJob(t *testing.T, j *JobDB, title string) *model.Job {
	t.Helper()
	job := &model.Job{
		Title:           title,
		Company:         "Acme Corp",
		Location:        "Remote",
		JobType:         "Full-time",
		Skills:          []string{"go", "sql"},
		Description:     "Build things.",
		ApplicationLink: "https://acme.example/apply",
		ContactEmail:    "jobs@acme.example",
	}
	if err := j.Create(context.Background(), job); err != nil {
		t.Fatalf("failed to create test job: %v", err)
	}
	return job
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// Running migrations again on an initialized database must be a no-op.
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}
