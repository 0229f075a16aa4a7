package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/auth"
	"github.com/AnujPatil110377/job-pilot/internal/filestore"
	"github.com/AnujPatil110377/job-pilot/internal/repository"
	"github.com/AnujPatil110377/job-pilot/internal/service"
)

// JobHandler owns the job-board surface: public listing/search and the
// authenticated posting CRUD.
type JobHandler struct {
	jobs   *service.JobService
	files  filestore.Store
	logger *slog.Logger
}

func NewJobHandler(jobs *service.JobService, files filestore.Store, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		files:  files,
		logger: logger,
	}
}

// jobRequest is the JSON body for creating or updating a posting.
type jobRequest struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	JobType         string   `json:"jobType"`
	SalaryMin       int      `json:"salaryMin"`
	SalaryMax       int      `json:"salaryMax"`
	Skills          []string `json:"skills"`
	Description     string   `json:"description"`
	ApplicationLink string   `json:"applicationLink"`
	ContactEmail    string   `json:"contactEmail"`
}

func (req *jobRequest) toInput() service.JobInput {
	return service.JobInput{
		Title:           req.Title,
		Company:         req.Company,
		Location:        req.Location,
		JobType:         req.JobType,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		Skills:          req.Skills,
		Description:     req.Description,
		ApplicationLink: req.ApplicationLink,
		ContactEmail:    req.ContactEmail,
	}
}

// parseJobInput reads a posting from the request. Two content types are
// accepted:
//   - application/json: the jobRequest shape, no logo
//   - multipart/form-data: the same field names as form values (skills as a
//     comma-separated list) plus an optional "logo" file part
//
// The multipart path exists because logos are uploaded together with the
// posting in one form submit.
func (h *JobHandler) parseJobInput(w http.ResponseWriter, r *http.Request) (service.JobInput, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req jobRequest
		if err := decodeJSON(r, &req); err != nil {
			return service.JobInput{}, err
		}
		return req.toInput(), nil
	}

	// Bound the whole body before ParseMultipartForm spools it to disk:
	// the logo limit plus headroom for the text fields.
	r.Body = http.MaxBytesReader(w, r.Body, filestore.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(filestore.MaxUploadSize); err != nil {
		return service.JobInput{}, apperror.ValidationFailed("body", "invalid or oversized multipart form")
	}

	salaryMin, err := formInt("salaryMin", r.FormValue("salaryMin"))
	if err != nil {
		return service.JobInput{}, err
	}
	salaryMax, err := formInt("salaryMax", r.FormValue("salaryMax"))
	if err != nil {
		return service.JobInput{}, err
	}

	input := service.JobInput{
		Title:           r.FormValue("title"),
		Company:         r.FormValue("company"),
		Location:        r.FormValue("location"),
		JobType:         r.FormValue("jobType"),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		Skills:          strings.Split(r.FormValue("skills"), ","),
		Description:     r.FormValue("description"),
		ApplicationLink: r.FormValue("applicationLink"),
		ContactEmail:    r.FormValue("contactEmail"),
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		// No logo part is fine.
		return input, nil
	}
	defer file.Close()

	url, err := h.files.Save(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("logo upload failed", slog.String("error", err.Error()))
		return service.JobInput{}, err
	}
	input.LogoURL = url
	return input, nil
}

// HandleList returns a filtered, paginated page of postings, newest first.
//
// HTTP: GET /api/jobs?search=go&location=Remote&jobType=Full-time
//       &minSalary=90000&maxSalary=150000&page=2&limit=20
//
// All filters are optional and combine with AND. search matches title,
// company and skills.
func (h *JobHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.JobFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Location:  strings.TrimSpace(q.Get("location")),
		JobType:   strings.TrimSpace(q.Get("jobType")),
		MinSalary: atoiDefault(q.Get("minSalary"), 0),
		MaxSalary: atoiDefault(q.Get("maxSalary"), 0),
	}

	page, err := h.jobs.List(r.Context(), filter,
		atoiDefault(q.Get("page"), 1),
		atoiDefault(q.Get("limit"), 0),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet returns a single posting.
//
// HTTP: GET /api/jobs/{id}
func (h *JobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleCreate creates a posting attributed to the logged-in user.
//
// HTTP: POST /api/jobs
// Auth: Required
func (h *JobHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	input, err := h.parseJobInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// HandleUpdate replaces an existing posting. Only its poster may do this.
//
// HTTP: PUT /api/jobs/{id}
// Auth: Required
func (h *JobHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	input, err := h.parseJobInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Update(r.Context(), chi.URLParam(r, "id"), user.ID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleDelete removes a posting. Only its poster may do this.
//
// HTTP: DELETE /api/jobs/{id}
// Auth: Required
func (h *JobHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.jobs.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// atoiDefault parses s as an int, returning def for empty or junk input.
// Query parameters are advisory; garbage falls back rather than 400s.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// formInt parses a numeric form field strictly. Unlike query parameters,
// a posting's fields are the submitted data itself — junk is a 400, not a
// silent zero. Empty means "not disclosed" and stays zero.
func formInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperror.ValidationFailed(field, "must be a whole number")
	}
	return n, nil
}
