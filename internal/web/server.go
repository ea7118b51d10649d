package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/ops"
)

// NewServer creates and configures the HTTP server for the Eunoia JSON API.
func NewServer(deps *ops.Deps, version, bind string, port int) *http.Server {
	h := &Handlers{deps: deps, version: version}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /api/today", h.HandleToday)
	mux.HandleFunc("GET /api/quiz", h.HandleQuizDraw)
	mux.HandleFunc("POST /api/quiz/answers", h.HandleQuizAnswer)
	mux.HandleFunc("GET /api/quiz/stats", h.HandleQuizStats)
	mux.HandleFunc("GET /api/history", h.HandleHistoryList)
	mux.HandleFunc("POST /api/history", h.HandleRemember)
	mux.HandleFunc("DELETE /api/history", h.HandleForget)
	mux.HandleFunc("GET /api/categories", h.HandleCategoryList)
	mux.HandleFunc("POST /api/categories", h.HandleCategoryCreate)
	mux.HandleFunc("DELETE /api/categories/{category}", h.HandleCategoryDelete)
	mux.HandleFunc("GET /api/categories/{category}/words", h.HandleWordList)
	mux.HandleFunc("POST /api/categories/{category}/words", h.HandleWordAdd)
	mux.HandleFunc("DELETE /api/categories/{category}/words/{word}", h.HandleWordDelete)
	mux.HandleFunc("POST /api/fetch", h.HandleFetch)
	mux.HandleFunc("POST /api/export", h.HandleExport)
	mux.HandleFunc("POST /api/import", h.HandleImport)

	// Wrap with security headers
	handler := securityHeaders(mux)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log logrus.FieldLogger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithField("addr", srv.Addr).Info("eunoia api listening")

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
