// Package web serves the JSON HTTP API for templates, finance and the
// website builder.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/hpungsan/studio/internal/builder"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/metrics"
	"github.com/hpungsan/studio/internal/ops"
)

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	DB        *sql.DB
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics // nil disables /metrics and request metrics
	Runner    ops.Runner       // executes conversion jobs; nil leaves them QUEUED
	Suggester builder.Suggester
	Version   string
}

// Handlers contains HTTP route handlers.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	logger    *slog.Logger
	runner    ops.Runner
	suggester builder.Suggester
	version   string
	now       func() time.Time
}

func newHandlers(d Deps) *Handlers {
	s := d.Suggester
	if s == nil {
		s = builder.TemplateSuggester{}
	}
	return &Handlers{
		db:        d.DB,
		cfg:       d.Config,
		logger:    logging.OrDiscard(d.Logger),
		runner:    d.Runner,
		suggester: s,
		version:   d.Version,
		now:       time.Now,
	}
}

// NewRouter builds the API routes and middleware chain.
func NewRouter(d Deps) http.Handler {
	h := newHandlers(d)
	r := mux.NewRouter()
	r.StrictSlash(true)

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	t := api.PathPrefix("/templates").Subrouter()
	t.HandleFunc("/uploads", h.HandleListUploads).Methods(http.MethodGet)
	t.HandleFunc("/uploads", h.HandleCreateUpload).Methods(http.MethodPost)
	t.HandleFunc("/uploads/{id}", h.HandleGetUpload).Methods(http.MethodGet)
	t.HandleFunc("/uploads/{id}", h.HandleUpdateUpload).Methods(http.MethodPatch)
	t.HandleFunc("/uploads/{id}", h.HandleDeleteUpload).Methods(http.MethodDelete)
	t.HandleFunc("/jobs", h.HandleListJobs).Methods(http.MethodGet)
	t.HandleFunc("/jobs", h.HandleCreateJob).Methods(http.MethodPost)
	t.HandleFunc("/jobs/schema", h.HandleJobSchema).Methods(http.MethodGet)
	t.HandleFunc("/jobs/{id}", h.HandleGetJob).Methods(http.MethodGet)
	t.HandleFunc("/jobs/{id}/download", h.HandleDownloadJob).Methods(http.MethodGet)
	t.HandleFunc("/library", h.HandleListLibrary).Methods(http.MethodGet)
	t.HandleFunc("/library", h.HandlePromote).Methods(http.MethodPost)
	t.HandleFunc("/library/categories", h.HandleLibraryCategories).Methods(http.MethodGet)
	t.HandleFunc("/library/{id}", h.HandleGetLibraryItem).Methods(http.MethodGet)
	t.HandleFunc("/library/{id}", h.HandleDeleteLibraryItem).Methods(http.MethodDelete)
	t.HandleFunc("/library/{id}/download", h.HandleDownloadLibraryItem).Methods(http.MethodGet)
	t.HandleFunc("/library/{id}/readme", h.HandleLibraryReadme).Methods(http.MethodGet)
	t.HandleFunc("/website-templates", h.HandleListWebsiteTemplates).Methods(http.MethodGet)
	t.HandleFunc("/website-templates", h.HandleCreateWebsiteTemplate).Methods(http.MethodPost)
	t.HandleFunc("/website-templates/{id}", h.HandleGetWebsiteTemplate).Methods(http.MethodGet)
	t.HandleFunc("/website-templates/{id}", h.HandleDeleteWebsiteTemplate).Methods(http.MethodDelete)

	f := api.PathPrefix("/finance").Subrouter()
	f.HandleFunc("/vendors", h.HandleListVendors).Methods(http.MethodGet)
	f.HandleFunc("/vendors", h.HandleCreateVendor).Methods(http.MethodPost)
	f.HandleFunc("/vendors/{id}", h.HandleGetVendor).Methods(http.MethodGet)
	f.HandleFunc("/vendors/{id}", h.HandleUpdateVendor).Methods(http.MethodPut, http.MethodPatch)
	f.HandleFunc("/vendors/{id}", h.HandleDeleteVendor).Methods(http.MethodDelete)
	f.HandleFunc("/categories", h.HandleListCategories).Methods(http.MethodGet)
	f.HandleFunc("/categories", h.HandleCreateCategory).Methods(http.MethodPost)
	f.HandleFunc("/categories/{id}", h.HandleGetCategory).Methods(http.MethodGet)
	f.HandleFunc("/categories/{id}", h.HandleUpdateCategory).Methods(http.MethodPut, http.MethodPatch)
	f.HandleFunc("/categories/{id}", h.HandleDeleteCategory).Methods(http.MethodDelete)
	f.HandleFunc("/payment-methods", h.HandleListPaymentMethods).Methods(http.MethodGet)
	f.HandleFunc("/payment-methods", h.HandleCreatePaymentMethod).Methods(http.MethodPost)
	f.HandleFunc("/payment-methods/{id}", h.HandleGetPaymentMethod).Methods(http.MethodGet)
	f.HandleFunc("/payment-methods/{id}", h.HandleUpdatePaymentMethod).Methods(http.MethodPut, http.MethodPatch)
	f.HandleFunc("/payment-methods/{id}", h.HandleDeletePaymentMethod).Methods(http.MethodDelete)
	f.HandleFunc("/expenses", h.HandleListExpenses).Methods(http.MethodGet)
	f.HandleFunc("/expenses", h.HandleCreateExpense).Methods(http.MethodPost)
	f.HandleFunc("/expenses/import", h.HandleImportExpenses).Methods(http.MethodPost)
	f.HandleFunc("/expenses/summary", h.HandleExpenseSummary).Methods(http.MethodGet)
	f.HandleFunc("/expenses/export.xlsx", h.HandleExportExpenses).Methods(http.MethodGet)
	f.HandleFunc("/expenses/{id}", h.HandleGetExpense).Methods(http.MethodGet)
	f.HandleFunc("/expenses/{id}", h.HandleUpdateExpense).Methods(http.MethodPut, http.MethodPatch)
	f.HandleFunc("/expenses/{id}", h.HandleDeleteExpense).Methods(http.MethodDelete)
	f.HandleFunc("/expenses/{id}/mark-paid", h.HandleMarkPaid).Methods(http.MethodPost)

	api.HandleFunc("/auth/verify-email", h.HandleVerifyEmail).Methods(http.MethodPost)
	api.HandleFunc("/domain/check", h.HandleCheckDomain).Methods(http.MethodGet)
	api.HandleFunc("/catalog/services", h.HandleServiceCatalog).Methods(http.MethodGet)
	api.HandleFunc("/onboard", h.HandleCompleteOnboarding).Methods(http.MethodPost)
	b := api.PathPrefix("/builder").Subrouter()
	b.HandleFunc("/profile", h.HandleGetProfile).Methods(http.MethodGet)
	b.HandleFunc("/onepage/start", h.HandleStartProfile).Methods(http.MethodPost)
	b.HandleFunc("/onepage/description", h.HandleUpdateDescription).Methods(http.MethodPatch)
	b.HandleFunc("/onepage/services", h.HandleUpdateServices).Methods(http.MethodPatch)
	b.HandleFunc("/brand", h.HandleUpdateBrand).Methods(http.MethodPatch, http.MethodPut)
	b.HandleFunc("/upload-logo", h.HandleUploadLogo).Methods(http.MethodPost)
	b.HandleFunc("/ai/suggest", h.HandleSuggest).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		renderError(w, errNotFoundRoute(req))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		renderJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error": map[string]any{
				"code":    "METHOD_NOT_ALLOWED",
				"message": fmt.Sprintf("method %s not allowed", req.Method),
				"status":  http.StatusMethodNotAllowed,
			},
		})
	})

	r.Use(
		recoverPanics(h.logger),
		requestLogging(h.logger),
		requestMetrics(d.Metrics),
		securityHeaders,
	)
	if d.Config.RateLimitRPS > 0 {
		r.Use(newRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst, h.logger, d.Metrics).Middleware)
	}
	return r
}

// NewServer creates the HTTP server for `studio serve`.
func NewServer(d Deps) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", d.Config.Bind, d.Config.Port),
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM
// or when ctx is cancelled.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	logger = logging.OrDiscard(logger)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("http.listen", "addr", "http://"+srv.Addr)
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("http.listen.public", "addr", srv.Addr,
			"detail", "server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("http.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
