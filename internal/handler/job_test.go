package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnujPatil110377/job-pilot/internal/auth"
	"github.com/AnujPatil110377/job-pilot/internal/filestore"
	"github.com/AnujPatil110377/job-pilot/internal/handler"
	"github.com/AnujPatil110377/job-pilot/internal/model"
	sqliteRepo "github.com/AnujPatil110377/job-pilot/internal/repository/sqlite"
	"github.com/AnujPatil110377/job-pilot/internal/service"
)

// newJobApp wires the job + profile surface with the same route shape as the
// server, plus register/login so tests can obtain sessions.
func newJobApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := auth.NewSessionManager(false)
	binder := auth.NewSessionBinder(sessions, db.Users())
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	files, err := filestore.NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	authService := service.NewAuthService(db.Users(), passwords, logger)
	jobService := service.NewJobService(db.Jobs(), logger)
	profileService := service.NewProfileService(db.Users(), db.Jobs(), logger)

	authHandler := handler.NewAuthHandler(authService, binder, nil, nil, handler.AuthConfig{}, logger)
	jobHandler := handler.NewJobHandler(jobService, files, logger)
	profileHandler := handler.NewProfileHandler(profileService, files, logger)

	router := chi.NewRouter()
	router.Use(sessions.LoadAndSave)
	router.Post("/auth/password/register", authHandler.HandleRegister)
	router.Post("/auth/password/login", authHandler.HandleLogin)
	router.Route("/api", func(r chi.Router) {
		r.Get("/jobs", jobHandler.HandleList)
		r.Get("/jobs/{id}", jobHandler.HandleGet)
		r.Group(func(r chi.Router) {
			r.Use(binder.RequireUser)
			r.Post("/jobs", jobHandler.HandleCreate)
			r.Put("/jobs/{id}", jobHandler.HandleUpdate)
			r.Delete("/jobs/{id}", jobHandler.HandleDelete)
			r.Get("/profile", profileHandler.HandleGet)
			r.Put("/profile", profileHandler.HandleUpdate)
			r.Post("/profile/saved/{jobID}", profileHandler.HandleSaveJob)
			r.Delete("/profile/saved/{jobID}", profileHandler.HandleUnsaveJob)
			r.Post("/profile/applications/{jobID}", profileHandler.HandleTrackApplication)
		})
	})

	return &testApp{router: router}
}

// registerUser creates an account, logs it in, and returns the session cookie.
func registerUser(t *testing.T, app *testApp, email string) *http.Cookie {
	t.Helper()
	creds := `{"email":"` + email + `","password":"pw12345"}`

	rec := app.do(http.MethodPost, "/auth/password/register", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/auth/password/login", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

const validJobJSON = `{
	"title": "Backend Engineer",
	"company": "Acme",
	"location": "Remote",
	"jobType": "Full-time",
	"salaryMin": 90000,
	"salaryMax": 140000,
	"skills": ["Go", "SQL"],
	"description": "Build the backend.",
	"applicationLink": "https://acme.example/apply",
	"contactEmail": "jobs@acme.example"
}`

func createJob(t *testing.T, app *testApp, cookie *http.Cookie) model.Job {
	t.Helper()
	rec := app.do(http.MethodPost, "/api/jobs", validJobJSON, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job model.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	return job
}

func TestJobs_CreateRequiresAuth(t *testing.T) {
	app := newJobApp(t)

	rec := app.do(http.MethodPost, "/api/jobs", validJobJSON)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobs_CreateAndGet(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "poster@example.com")

	job := createJob(t, app, cookie)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, []string{"Go", "SQL"}, job.Skills)
	assert.NotEmpty(t, job.PostedBy, "posting must be attributed to the session user")

	// Public read, no auth needed.
	rec := app.do(http.MethodGet, "/api/jobs/"+job.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, job.ID, got.ID)
}

func TestJobs_CreateValidation(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "poster@example.com")

	rec := app.do(http.MethodPost, "/api/jobs",
		`{"title":"","company":"Acme"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error)
}

// doMultipartJob posts a multipart job form with the given fields and an
// optional logo part, returning the recorder.
func doMultipartJob(t *testing.T, app *testApp, cookie *http.Cookie, fields map[string]string, logo string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if logo != "" {
		part, err := mw.CreateFormFile("logo", "logo.png")
		require.NoError(t, err)
		_, err = part.Write([]byte(logo))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func validJobFields() map[string]string {
	return map[string]string{
		"title":           "Backend Engineer",
		"company":         "Acme",
		"location":        "Remote",
		"jobType":         "Full-time",
		"salaryMin":       "90000",
		"salaryMax":       "140000",
		"skills":          "Go,SQL",
		"description":     "Build the backend.",
		"applicationLink": "https://acme.example/apply",
		"contactEmail":    "jobs@acme.example",
	}
}

func TestJobs_CreateMultipartWithLogo(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "poster@example.com")

	rec := doMultipartJob(t, app, cookie, validJobFields(), "png bytes")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var job model.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, 90000, job.SalaryMin)
	assert.Equal(t, []string{"Go", "SQL"}, job.Skills)
	assert.True(t, strings.HasPrefix(job.LogoURL, "/uploads/"), "LogoURL = %q", job.LogoURL)
}

func TestJobs_CreateMultipartRejectsJunkSalary(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "poster@example.com")

	fields := validJobFields()
	fields["salaryMin"] = "ninety thousand"

	rec := doMultipartJob(t, app, cookie, fields, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error)
	assert.Contains(t, body.Message, "whole number")
}

func TestJobs_ListAndFilter(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "poster@example.com")
	createJob(t, app, cookie)

	t.Run("list all", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/jobs", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var page service.JobPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 1, page.Total)
		assert.Len(t, page.Jobs, 1)
	})

	t.Run("search match", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/jobs?search=backend", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var page service.JobPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 1, page.Total)
	})

	t.Run("search miss", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/jobs?search=haskell", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var page service.JobPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 0, page.Total)
	})

	t.Run("garbage pagination params fall back", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/jobs?page=banana&limit=-3", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var page service.JobPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 1, page.Page)
	})
}

func TestJobs_OnlyPosterCanDelete(t *testing.T) {
	app := newJobApp(t)
	poster := registerUser(t, app, "poster@example.com")
	other := registerUser(t, app, "other@example.com")

	job := createJob(t, app, poster)

	rec := app.do(http.MethodDelete, "/api/jobs/"+job.ID, "", other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodDelete, "/api/jobs/"+job.ID, "", poster)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/api/jobs/"+job.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfile_SaveAndApplyFlow(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "seeker@example.com")
	job := createJob(t, app, cookie)

	rec := app.do(http.MethodPost, "/api/profile/saved/"+job.ID, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Saving twice is a conflict.
	rec = app.do(http.MethodPost, "/api/profile/saved/"+job.ID, "", cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(http.MethodPost, "/api/profile/applications/"+job.ID, "", cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Both show up on the profile.
	rec = app.do(http.MethodGet, "/api/profile", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile model.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, []string{job.ID}, profile.SavedJobIDs)
	require.Len(t, profile.Applied, 1)
	assert.Equal(t, job.ID, profile.Applied[0].JobID)

	// Unsave empties the saved set.
	rec = app.do(http.MethodDelete, "/api/profile/saved/"+job.ID, "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProfile_Update(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "me@example.com")

	rec := app.do(http.MethodPut, "/api/profile",
		`{"displayName":"Jess","bio":"Go developer","location":"Berlin"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user model.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "Jess", user.DisplayName)
	assert.Equal(t, "Go developer", user.Bio)

	// A second update that omits displayName leaves it alone.
	rec = app.do(http.MethodPut, "/api/profile", `{"bio":"Still a Go developer"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "Jess", user.DisplayName)
	assert.Equal(t, "Still a Go developer", user.Bio)
}

func TestProfile_SaveNonexistentJob(t *testing.T) {
	app := newJobApp(t)
	cookie := registerUser(t, app, "seeker@example.com")

	rec := app.do(http.MethodPost, "/api/profile/saved/ghost", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
