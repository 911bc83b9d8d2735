// Package server exposes composition over HTTP: manifest in, PDF download
// out.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mbook/book"
	"mbook/compose"
	"mbook/misc"
	"mbook/state"
)

const shutdownTimeout = 10 * time.Second

// Server serves composition requests. Each request gets its own composition,
// assets are shared through the process wide cache.
// maxReportedRequests bounds number of requests kept in debug report.
const maxReportedRequests = 256

type Server struct {
	env         *state.LocalEnv
	log         *zap.Logger
	reported    atomic.Int64
	reportLimit int64
}

func New(env *state.LocalEnv) *Server {
	return &Server{env: env, log: env.Log.Named("server"), reportLimit: maxReportedRequests}
}

// Handler returns router with all endpoints and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Group(func(r chi.Router) {
		if limit := s.env.Cfg.Server.RateLimit; limit > 0 {
			r.Use(httprate.LimitByIP(limit, time.Minute))
		}
		r.Post("/v1/books/pdf", s.handleCompose)
	})
	return r
}

// ListenAndServe serves on configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ErrorLog:          zap.NewStdLog(s.log),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down", zap.Duration("uptime", s.env.Uptime()))
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("unable to shutdown server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s %s ok\n", misc.GetAppName(), misc.GetVersion())
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	r.Body = http.MaxBytesReader(w, r.Body, s.env.Cfg.Server.MaxBodyBytes)
	b, err := book.Decode(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "manifest is too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Info("Rejecting manifest", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.env.Cfg.Server.ComposeTimeout)
	defer cancel()

	src := s.env.AssetLoader("").RemoteOnly()
	doc, err := s.env.Composer(b, src).Compose(ctx, b.Title, b.PrintPages(), nil)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("Composition timed out", zap.Error(err))
		http.Error(w, "composition timed out", http.StatusServiceUnavailable)
		return
	case errors.Is(err, context.Canceled):
		// client is gone
		log.Debug("Composition canceled", zap.Error(err))
		return
	case err != nil:
		log.Error("Composition failed", zap.Error(err))
		http.Error(w, compose.ErrComposition.Error(), http.StatusInternalServerError)
		return
	}

	s.report(r, b, doc)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(doc.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("X-Page-Count", strconv.Itoa(doc.Pages))
	if _, err := w.Write(doc.Data); err != nil {
		log.Debug("Unable to send document", zap.Error(err))
	}
}

// report stores outline of composed book. Documents are never kept, report
// lives in memory for the whole life of the service.
func (s *Server) report(r *http.Request, b *book.Book, doc *compose.Document) {
	if s.env.Rpt == nil {
		return
	}
	n := s.reported.Add(1)
	if n > s.reportLimit {
		if n == s.reportLimit+1 {
			s.log.Info("Report limit reached, further requests are not stored", zap.Int64("limit", s.reportLimit))
		}
		return
	}
	id := middleware.GetReqID(r.Context())
	s.env.Rpt.StoreData(fmt.Sprintf("requests/%s/%s.txt", id, doc.FileName()), []byte(b.Outline()))
}

// contentDisposition returns attachment header with RFC 5987 encoded name
// and ASCII fallback.
func contentDisposition(name string) string {
	fallback := make([]rune, 0, len(name))
	for _, r := range name {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			r = '_'
		}
		fallback = append(fallback, r)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, string(fallback), url.PathEscape(name))
}

const requestIDHeader = "X-Request-Id"

// requestID keeps incoming request id or assigns new one, it is available
// through middleware.GetReqID and echoed back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, id)))
	})
}

// validRequestID accepts short ids safe to use in report file names.
func validRequestID(id string) bool {
	if len(id) == 0 || len(id) > 64 || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '.') {
			return false
		}
	}
	return true
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("Request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}
