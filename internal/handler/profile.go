package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
	"github.com/AnujPatil110377/job-pilot/internal/auth"
	"github.com/AnujPatil110377/job-pilot/internal/filestore"
	"github.com/AnujPatil110377/job-pilot/internal/service"
)

// ProfileHandler owns the logged-in user's profile surface: viewing and
// editing the profile, the resume upload, and the saved/applied job sets.
// Every route here sits behind RequireUser.
type ProfileHandler struct {
	profiles *service.ProfileService
	files    filestore.Store
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, files filestore.Store, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		files:    files,
		logger:   logger,
	}
}

// HandleGet returns the profile with saved job ids and applications attached.
//
// HTTP: GET /api/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	profile, err := h.profiles.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// profileRequest carries the editable profile fields. Omitted or empty
// fields are left unchanged.
type profileRequest struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	Location    string `json:"location"`
	LinkedInURL string `json:"linkedinUrl"`
	GitHubURL   string `json:"githubUrl"`
}

// HandleUpdate applies the set-if-present profile edits.
//
// HTTP: PUT /api/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.profiles.Update(r.Context(), user.ID, service.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Location:    req.Location,
		LinkedInURL: req.LinkedInURL,
		GitHubURL:   req.GitHubURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleResumeUpload stores an uploaded resume and records its URL.
//
// HTTP: POST /api/profile/resume (multipart, file part "resume")
func (h *ProfileHandler) HandleResumeUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, filestore.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(filestore.MaxUploadSize); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid or oversized multipart form"))
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, apperror.ValidationFailed("resume", "resume file is required"))
		return
	}
	defer file.Close()

	url, err := h.files.Save(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("resume upload failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	updated, err := h.profiles.SetResume(r.Context(), user.ID, url)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleSaveJob adds a job to the user's saved set.
//
// HTTP: POST /api/profile/saved/{jobID}
func (h *ProfileHandler) HandleSaveJob(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.profiles.SaveJob(r.Context(), user.ID, chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "job saved"})
}

// HandleUnsaveJob removes a job from the saved set.
//
// HTTP: DELETE /api/profile/saved/{jobID}
func (h *ProfileHandler) HandleUnsaveJob(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.profiles.UnsaveJob(r.Context(), user.ID, chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTrackApplication records that the user applied to a job. The actual
// application happens off-site via the posting's application link; this just
// tracks it for the profile page.
//
// HTTP: POST /api/profile/applications/{jobID}
func (h *ProfileHandler) HandleTrackApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.profiles.TrackApplication(r.Context(), user.ID, chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "application tracked"})
}
