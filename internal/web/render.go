package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// OwnerHeader names the caller for owner-scoped finance and builder data.
const OwnerHeader = "X-Owner"

// DefaultOwner is used when a request carries no OwnerHeader.
const DefaultOwner = model.DefaultOwner

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// internalMessage replaces the text of internal errors in responses.
const internalMessage = "an internal error occurred"

// renderError writes err as {"error": {code, message, status[, fields]}}.
// Errors that are not StudioErrors become 500 INTERNAL.
func renderError(w http.ResponseWriter, err error) {
	var sErr *errors.StudioError
	if !stderrors.As(err, &sErr) {
		sErr = errors.NewInternal(err)
	}

	msg := sErr.Message
	if sErr.Code == errors.ErrInternal {
		msg = internalMessage
	}
	body := map[string]any{
		"code":    string(sErr.Code),
		"message": msg,
		"status":  sErr.Status,
	}
	for k, v := range sErr.Details {
		body[k] = v
	}
	renderJSON(w, sErr.Status, map[string]any{"error": body})
}

func errNotFoundRoute(r *http.Request) error {
	return errors.NewNotFound("route", r.URL.Path)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.NewInvalidRequest("request body is required")
	}
	return unmarshalBody(data, dst)
}

func unmarshalBody(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.NewInvalidRequest("JSON parse error - " + err.Error())
	}
	return nil
}

// readBody returns the raw request body, bounded by maxJSONBody.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return nil, errors.NewInvalidRequest("failed to read request body")
	}
	if len(data) > maxJSONBody {
		return nil, errors.NewPayloadTooLarge(maxJSONBody)
	}
	return data, nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md []byte) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert(md, &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(string(md)))
	}
	return template.HTML(buf.String())
}

// ownerFrom returns the request owner.
func ownerFrom(r *http.Request) string {
	if o := strings.TrimSpace(r.Header.Get(OwnerHeader)); o != "" {
		return o
	}
	return DefaultOwner
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// sendFile streams a file as an attachment.
func sendFile(w http.ResponseWriter, r *http.Request, path, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	http.ServeFile(w, r, path)
}
