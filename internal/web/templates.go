package web

import (
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/ops"
	"github.com/hpungsan/studio/internal/pack"
)

// multipartOverhead allows for form fields around the file part.
const multipartOverhead = 1 << 20

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// parseMultipart parses a multipart form bounded by the upload limit and
// returns the named file part, if any. The caller closes the file.
func (h *Handlers) parseMultipart(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return nil, nil, errors.NewPayloadTooLarge(h.cfg.MaxUploadBytes)
		}
		return nil, nil, errors.NewInvalidRequest("Multipart form parse error - " + err.Error())
	}
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.NewInvalidRequest(err.Error())
	}
	return file, header, nil
}

// --- uploads ---

// HandleListUploads handles GET /api/templates/uploads.
func (h *Handlers) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListUploads(r.Context(), h.db, ops.ListUploadsInput{
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCreateUpload handles POST /api/templates/uploads (multipart).
func (h *Handlers) HandleCreateUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.parseMultipart(w, r, "image")
	if err != nil {
		renderError(w, err)
		return
	}
	input := ops.CreateUploadInput{
		Title: r.FormValue("title"),
		Notes: r.FormValue("notes"),
	}
	if file != nil {
		defer file.Close()
		input.Image = file
		input.Filename = header.Filename
	}

	u, err := ops.CreateUpload(r.Context(), h.db, h.cfg, input)
	if err != nil {
		renderError(w, err)
		return
	}
	h.logger.Info("upload.created", "id", u.ID, "title", u.Title)
	renderJSON(w, http.StatusCreated, u)
}

// HandleGetUpload handles GET /api/templates/uploads/{id}.
func (h *Handlers) HandleGetUpload(w http.ResponseWriter, r *http.Request) {
	u, err := ops.GetUpload(r.Context(), h.db, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, u)
}

// HandleUpdateUpload handles PATCH /api/templates/uploads/{id}.
func (h *Handlers) HandleUpdateUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, err)
		return
	}
	u, err := ops.UpdateUpload(r.Context(), h.db, ops.UpdateUploadInput{
		ID:     mux.Vars(r)["id"],
		Status: body.Status,
		Notes:  body.Notes,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, u)
}

// HandleDeleteUpload handles DELETE /api/templates/uploads/{id}.
func (h *Handlers) HandleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteUpload(r.Context(), h.db, h.cfg, mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- jobs ---

// HandleListJobs handles GET /api/templates/jobs.
func (h *Handlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uploadID := q.Get("upload")
	if uploadID == "" {
		uploadID = q.Get("upload_id")
	}
	out, err := ops.ListJobs(r.Context(), h.db, ops.ListJobsInput{
		UploadID: uploadID,
		Status:   q.Get("status"),
		Target:   q.Get("target"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCreateJob handles POST /api/templates/jobs. With a synchronous
// runner the response already carries the terminal status.
func (h *Handlers) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		renderError(w, err)
		return
	}
	input, err := ops.ParseCreateJob(raw)
	if err != nil {
		renderError(w, err)
		return
	}
	job, err := ops.CreateJob(r.Context(), h.db, h.runner, *input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, job)
}

// HandleJobSchema handles GET /api/templates/jobs/schema.
func (h *Handlers) HandleJobSchema(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.JobSchema())
}

// HandleGetJob handles GET /api/templates/jobs/{id}.
func (h *Handlers) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := ops.GetJob(r.Context(), h.db, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, job)
}

// HandleDownloadJob handles GET /api/templates/jobs/{id}/download.
func (h *Handlers) HandleDownloadJob(w http.ResponseWriter, r *http.Request) {
	file, err := ops.JobArchive(r.Context(), h.db, h.cfg, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	sendFile(w, r, file.Path, file.Filename, "application/zip")
}

// --- library ---

// HandleListLibrary handles GET /api/templates/library.
func (h *Handlers) HandleListLibrary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.ListLibrary(r.Context(), h.db, ops.ListLibraryInput{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Target:      q.Get("target"),
		Query:       q.Get("q"),
		Limit:       parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:      parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandlePromote handles POST /api/templates/library.
func (h *Handlers) HandlePromote(w http.ResponseWriter, r *http.Request) {
	var input ops.PromoteInput
	if err := decodeJSON(r, &input); err != nil {
		renderError(w, err)
		return
	}
	item, err := ops.PromoteToLibrary(r.Context(), h.db, h.cfg, input)
	if err != nil {
		renderError(w, err)
		return
	}
	h.logger.Info("library.promoted", "id", item.ID, "job_id", input.JobID, "name", item.Name)
	renderJSON(w, http.StatusCreated, item)
}

// HandleLibraryCategories handles GET /api/templates/library/categories.
func (h *Handlers) HandleLibraryCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := ops.LibraryCategories(r.Context(), h.db)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, tree)
}

// HandleGetLibraryItem handles GET /api/templates/library/{id}.
func (h *Handlers) HandleGetLibraryItem(w http.ResponseWriter, r *http.Request) {
	item, err := ops.GetLibraryItem(r.Context(), h.db, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, item)
}

// HandleDeleteLibraryItem handles DELETE /api/templates/library/{id}.
func (h *Handlers) HandleDeleteLibraryItem(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteLibraryItem(r.Context(), h.db, h.cfg, mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDownloadLibraryItem handles GET /api/templates/library/{id}/download.
func (h *Handlers) HandleDownloadLibraryItem(w http.ResponseWriter, r *http.Request) {
	file, err := ops.LibraryArchive(r.Context(), h.db, h.cfg, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	sendFile(w, r, file.Path, file.Filename, "application/zip")
}

// HandleLibraryReadme handles GET /api/templates/library/{id}/readme.
// Returns the README as HTML, or as JSON {markdown, html} when asked.
// ?section= narrows the response to one heading.
func (h *Handlers) HandleLibraryReadme(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := mux.Vars(r)["id"]

	var md []byte
	if name := q.Get("section"); name != "" {
		section, err := ops.LibraryReadmeSection(r.Context(), h.db, h.cfg, id, name)
		if err != nil {
			renderError(w, err)
			return
		}
		md = []byte(section.Markdown())
	} else {
		data, err := ops.LibraryReadme(r.Context(), h.db, h.cfg, id)
		if err != nil {
			renderError(w, err)
			return
		}
		md = data
	}

	html := renderMarkdown(md)
	if q.Get("format") == "json" {
		renderJSON(w, http.StatusOK, map[string]any{
			"markdown": string(md),
			"html":     string(html),
			"sections": pack.ReadmeSectionNames(pack.ParseReadme(string(md))),
		})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, string(html))
}

// --- website templates ---

// HandleListWebsiteTemplates handles GET /api/templates/website-templates.
func (h *Handlers) HandleListWebsiteTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := ops.ListWebsiteTemplates(r.Context(), h.db, r.URL.Query().Get("category"))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

// HandleCreateWebsiteTemplate handles POST /api/templates/website-templates.
func (h *Handlers) HandleCreateWebsiteTemplate(w http.ResponseWriter, r *http.Request) {
	var input ops.CreateWebsiteTemplateInput
	if err := decodeJSON(r, &input); err != nil {
		renderError(w, err)
		return
	}
	wt, err := ops.CreateWebsiteTemplate(r.Context(), h.db, input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, wt)
}

// HandleGetWebsiteTemplate handles GET /api/templates/website-templates/{id}.
func (h *Handlers) HandleGetWebsiteTemplate(w http.ResponseWriter, r *http.Request) {
	wt, err := ops.GetWebsiteTemplate(r.Context(), h.db, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, wt)
}

// HandleDeleteWebsiteTemplate handles DELETE /api/templates/website-templates/{id}.
func (h *Handlers) HandleDeleteWebsiteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteWebsiteTemplate(r.Context(), h.db, mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
