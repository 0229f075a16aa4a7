package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site.
var _ repository.JobRepository = (*JobDB)(nil)

// JobDB implements repository.JobRepository on the shared pool.
type JobDB struct {
	conn *sql.DB
}

const jobColumns = `id, title, company, location, job_type, salary_min,
	salary_max, skills, description, application_link, contact_email,
	logo_url, posted_by, created_at, updated_at`

// Skills are stored as a JSON array in a TEXT column. A join table would be
// overkill: skills are only ever read back whole and matched with LIKE.
func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("encoding skills: %w", err)
	}
	return string(b), nil
}

func scanJob(scan func(dest ...any) error) (*model.Job, error) {
	var (
		j      model.Job
		skills string
	)
	err := scan(
		&j.ID,
		&j.Title,
		&j.Company,
		&j.Location,
		&j.JobType,
		&j.SalaryMin,
		&j.SalaryMax,
		&skills,
		&j.Description,
		&j.ApplicationLink,
		&j.ContactEmail,
		&j.LogoURL,
		&j.PostedBy,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &j.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills for job %s: %w", j.ID, err)
	}
	return &j, nil
}

// Create inserts a new job posting, generating the ID and timestamps in place.
func (db *JobDB) Create(ctx context.Context, job *model.Job) error {
	skills, err := encodeSkills(job.Skills)
	if err != nil {
		return fmt.Errorf("sqlite: creating job: %w", err)
	}

	now := time.Now()
	job.ID = xid.New().String()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company, location, job_type, salary_min,
			salary_max, skills, description, application_link, contact_email,
			logo_url, posted_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Title,
		job.Company,
		job.Location,
		job.JobType,
		job.SalaryMin,
		job.SalaryMax,
		skills,
		job.Description,
		job.ApplicationLink,
		job.ContactEmail,
		job.LogoURL,
		job.PostedBy,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating job: %w", translateErr(err))
	}
	return nil
}

// GetByID retrieves a single job posting.
func (db *JobDB) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	j, err := scanJob(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting job %s: %w", id, notFoundOr(err, "job", id))
	}
	return j, nil
}

// List retrieves job postings matching the filter, newest first, plus the
// total match count for pagination metadata.
//
// The WHERE clause is assembled from parameterized fragments — the ?
// placeholders keep user input out of the SQL text, same as everywhere else.
// SQLite's LIKE is case-insensitive for ASCII, which is what the search box
// needs.
func (db *JobDB) List(ctx context.Context, filter repository.JobFilter) ([]model.Job, int, error) {
	where := "1=1"
	args := []any{}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where += " AND (title LIKE ? OR company LIKE ? OR skills LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Location != "" {
		where += " AND location = ?"
		args = append(args, filter.Location)
	}
	if filter.JobType != "" {
		where += " AND job_type = ?"
		args = append(args, filter.JobType)
	}
	if filter.MinSalary > 0 {
		where += " AND salary_max >= ?"
		args = append(args, filter.MinSalary)
	}
	if filter.MaxSalary > 0 {
		where += " AND salary_min <= ?"
		args = append(args, filter.MaxSalary)
	}

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting jobs: %w", translateErr(err))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE `+where+`
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing jobs: %w", translateErr(err))
	}
	defer rows.Close()

	jobs := make([]model.Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning job row: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating jobs: %w", translateErr(err))
	}

	return jobs, total, nil
}

// Update modifies an existing job posting. RowsAffected == 0 means the id
// didn't match anything → NotFound, without a separate existence query.
func (db *JobDB) Update(ctx context.Context, job *model.Job) error {
	skills, err := encodeSkills(job.Skills)
	if err != nil {
		return fmt.Errorf("sqlite: updating job: %w", err)
	}

	job.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE jobs
		 SET title = ?, company = ?, location = ?, job_type = ?,
			salary_min = ?, salary_max = ?, skills = ?, description = ?,
			application_link = ?, contact_email = ?, logo_url = ?, updated_at = ?
		 WHERE id = ?`,
		job.Title,
		job.Company,
		job.Location,
		job.JobType,
		job.SalaryMin,
		job.SalaryMax,
		skills,
		job.Description,
		job.ApplicationLink,
		job.ContactEmail,
		job.LogoURL,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating job %s: %w", job.ID, translateErr(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("job", job.ID)
	}
	return nil
}

// Delete removes a job posting by its ID.
func (db *JobDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM jobs WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting job %s: %w", id, translateErr(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("job", id)
	}
	return nil
}
