package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/hpungsan/studio/internal/builder"
)

// HandleStartProfile handles POST /api/builder/onepage/start. Returns 201
// with a new profile, or 200 with the existing one.
func (h *Handlers) HandleStartProfile(w http.ResponseWriter, r *http.Request) {
	var in builder.StartInput
	raw, err := readBody(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if len(raw) > 0 {
		if err := unmarshalBody(raw, &in); err != nil {
			renderError(w, err)
			return
		}
	}
	p, created, err := builder.StartProfile(r.Context(), h.db, ownerFrom(r), in)
	if err != nil {
		renderError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	renderJSON(w, status, p)
}

// HandleGetProfile handles GET /api/builder/profile.
func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := builder.GetProfile(r.Context(), h.db, ownerFrom(r))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

func (h *Handlers) HandleUpdateDescription(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, err)
		return
	}
	p, err := builder.UpdateDescription(r.Context(), h.db, ownerFrom(r), body.Description)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

func (h *Handlers) HandleUpdateServices(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Services []string `json:"services"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, err)
		return
	}
	p, err := builder.UpdateServices(r.Context(), h.db, ownerFrom(r), body.Services)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

func (h *Handlers) HandleUpdateBrand(w http.ResponseWriter, r *http.Request) {
	var in builder.BrandInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	p, err := builder.UpdateBrand(r.Context(), h.db, ownerFrom(r), in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

// HandleUploadLogo handles POST /api/builder/upload-logo (multipart "logo").
func (h *Handlers) HandleUploadLogo(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.parseMultipart(w, r, "logo")
	if err != nil {
		renderError(w, err)
		return
	}
	var (
		src  io.Reader
		name string
	)
	if file != nil {
		defer file.Close()
		src, name = file, header.Filename
	}
	p, err := builder.UploadLogo(r.Context(), h.db, h.cfg, ownerFrom(r), name, src)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

// HandleSuggest handles POST /api/builder/ai/suggest.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	var in builder.SuggestInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	out, err := builder.Suggest(r.Context(), h.suggester, in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleVerifyEmail handles POST /api/auth/verify-email.
func (h *Handlers) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	out, err := builder.VerifyEmail(r.Context(), h.db, ownerFrom(r))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCheckDomain handles GET /api/domain/check?name=.
func (h *Handlers) HandleCheckDomain(w http.ResponseWriter, r *http.Request) {
	out, err := builder.CheckDomain(r.URL.Query().Get("name"))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleServiceCatalog handles GET /api/catalog/services?business_type=.
func (h *Handlers) HandleServiceCatalog(w http.ResponseWriter, r *http.Request) {
	out, err := builder.GetCatalog(r.Context(), h.db, r.URL.Query().Get("business_type"))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCompleteOnboarding handles POST /api/onboard. Accepts JSON, or a
// multipart form whose "services" field is a JSON array and whose optional
// "logo" part replaces the logo.
func (h *Handlers) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var in builder.OnboardingInput
	owner := ownerFrom(r)

	if isMultipart(r) {
		file, header, err := h.parseMultipart(w, r, "logo")
		if err != nil {
			renderError(w, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		form := r.MultipartForm.Value
		if v, ok := form["description"]; ok && len(v) > 0 {
			in.Description = &v[0]
		}
		if v, ok := form["primary_color"]; ok && len(v) > 0 {
			in.PrimaryColor = &v[0]
		}
		if v, ok := form["secondary_color"]; ok && len(v) > 0 {
			in.SecondaryColor = &v[0]
		}
		if v, ok := form["services"]; ok && len(v) > 0 {
			// Unparseable lists clear the services.
			if err := json.Unmarshal([]byte(v[0]), &in.Services); err != nil || in.Services == nil {
				in.Services = []string{}
			}
		}

		out, err := builder.CompleteOnboarding(r.Context(), h.db, owner, in)
		if err != nil {
			renderError(w, err)
			return
		}
		if file != nil {
			if _, err := builder.UploadLogo(r.Context(), h.db, h.cfg, owner, header.Filename, file); err != nil {
				renderError(w, err)
				return
			}
		}
		renderJSON(w, http.StatusCreated, out)
		return
	}

	raw, err := readBody(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if len(raw) > 0 {
		if err := unmarshalBody(raw, &in); err != nil {
			renderError(w, err)
			return
		}
	}
	out, err := builder.CompleteOnboarding(r.Context(), h.db, owner, in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
