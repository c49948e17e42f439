package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/convert"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/metrics"
	"github.com/hpungsan/studio/internal/model"
)

type testEnv struct {
	router  http.Handler
	cfg     *config.Config
	metrics *metrics.Metrics
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.MediaDir = filepath.Join(tmpDir, "media")
	cfg.RateLimitRPS = -1

	m := metrics.New()
	conv := convert.New(database, cfg, nil, convert.WithMetrics(m))
	router := NewRouter(Deps{
		DB:      database,
		Config:  cfg,
		Metrics: m,
		Runner:  convert.Sync{Exec: conv},
		Version: "test",
	})
	return &testEnv{router: router, cfg: cfg, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, path, field, filename string, content []byte, fields map[string]string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Status  int                 `json:"status"`
		Fields  map[string][]string `json:"fields"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	e := setupTest(t)
	w := e.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"ok":true}` {
		t.Errorf("healthz = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestTemplateFlow(t *testing.T) {
	e := setupTest(t)

	w := e.upload(t, "/api/templates/uploads", "image", "coffee.shop.png", []byte("not a real png"), map[string]string{"notes": "draft"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	upload := decode[model.Upload](t, w)
	require.Equal(t, "coffee", upload.Title)
	require.Equal(t, model.UploadReady, upload.Status)

	w = e.do(t, http.MethodPost, "/api/templates/jobs", map[string]string{"upload": upload.ID, "target": "DJANGO"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decode[model.Job](t, w)
	require.Equal(t, model.JobSuccess, job.Status, job.Log)

	w = e.do(t, http.MethodGet, "/api/templates/jobs/"+job.ID+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), job.ID+"_django_template.zip")
	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)

	w = e.do(t, http.MethodPost, "/api/templates/library", map[string]any{
		"job_id": job.ID, "name": "Coffee Shop", "category": "landing-page", "subcategory": "lead-capture", "tags": []string{"cafe"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[model.LibraryItem](t, w)

	w = e.do(t, http.MethodGet, "/api/templates/library/"+item.ID+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "Coffee_Shop_django_template.zip")

	w = e.do(t, http.MethodGet, "/api/templates/library/"+item.ID+"/readme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<h1>Django Template Pack</h1>")

	w = e.do(t, http.MethodGet, "/api/templates/library/"+item.ID+"/readme?section=installation&format=json", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	readme := decode[map[string]any](t, w)
	require.Equal(t, []any{"Installation"}, readme["sections"])
	require.Contains(t, readme["html"], "<h2>Installation</h2>")

	w = e.do(t, http.MethodGet, "/api/templates/library/"+item.ID+"/readme?section=changelog", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/templates/library/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"landing-page"`)

	w = e.do(t, http.MethodDelete, "/api/templates/uploads/"+upload.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodGet, "/api/templates/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateJob_InvalidTarget(t *testing.T) {
	e := setupTest(t)
	w := e.do(t, http.MethodPost, "/api/templates/jobs", `{"upload":"x","target":"RAILS"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode[errorBody](t, w)
	if body.Error.Code != "INVALID_REQUEST" || len(body.Error.Fields["target"]) == 0 {
		t.Errorf("error = %+v", body.Error)
	}

	w = e.do(t, http.MethodPost, "/api/templates/jobs", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed status = %d", w.Code)
	}
}

func TestCreateJob_UnknownUpload(t *testing.T) {
	e := setupTest(t)
	w := e.do(t, http.MethodPost, "/api/templates/jobs", `{"upload":"nope","target":"DJANGO"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode[errorBody](t, w)
	if body.Error.Code != "NOT_FOUND" || len(body.Error.Fields["upload"]) != 1 {
		t.Errorf("error = %+v", body.Error)
	}

	w = e.do(t, http.MethodGet, "/api/templates/jobs", nil)
	if !strings.Contains(w.Body.String(), `"total":0`) {
		t.Errorf("jobs = %s", w.Body.String())
	}
}

func TestCreateUpload_MissingImage(t *testing.T) {
	e := setupTest(t)
	w := e.upload(t, "/api/templates/uploads", "image", "", nil, map[string]string{"title": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode[errorBody](t, w); len(body.Error.Fields["image"]) == 0 {
		t.Errorf("fields = %v", body.Error.Fields)
	}
}

func TestJobSchema(t *testing.T) {
	e := setupTest(t)
	w := e.do(t, http.MethodGet, "/api/templates/jobs/schema", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"target"`) {
		t.Errorf("schema = %d %s", w.Code, w.Body.String())
	}
}

func TestNotFoundRoute(t *testing.T) {
	e := setupTest(t)
	w := e.do(t, http.MethodGet, "/api/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
	if body := decode[errorBody](t, w); body.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := setupTest(t)
	e.do(t, http.MethodGet, "/healthz", nil)
	w := e.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="/healthz"`) {
		t.Errorf("route label missing from metrics:\n%s", w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	cfg := config.DefaultConfig()
	cfg.MediaDir = tmpDir
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 2
	router := NewRouter(Deps{DB: database, Config: cfg})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(OwnerHeader, "someone-else")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d", w.Code)
	}
}

func TestWebsiteTemplates(t *testing.T) {
	e := setupTest(t)
	w := e.do(t, http.MethodPost, "/api/templates/website-templates", map[string]any{
		"name": "Bakery", "category": "homepage", "sections": []string{"hero", "menu"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	wt := decode[model.WebsiteTemplate](t, w)

	w = e.do(t, http.MethodGet, "/api/templates/website-templates?category=homepage", nil)
	list := decode[[]model.WebsiteTemplate](t, w)
	if len(list) != 1 || list[0].ID != wt.ID {
		t.Errorf("list = %+v", list)
	}
	w = e.do(t, http.MethodDelete, "/api/templates/website-templates/"+wt.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
}
