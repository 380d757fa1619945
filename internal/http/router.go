package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Router wraps gorilla/mux; every route carries a cache strategy.
type Router struct {
	*mux.Router
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	r := &Router{Router: mux.NewRouter(), logger: logger}
	r.Use(r.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		setNoStore(w.Header())
		writeJSON(w, http.StatusNotFound, Fail("route not found"))
	})
	return r
}

// Route registers h for method+path behind CacheControl(strategy).
func (r *Router) Route(method, path string, strategy CacheStrategy, h http.HandlerFunc) {
	r.Handle(path, CacheControl(strategy)(h)).Methods(method)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		r.logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
