package directory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"signalstore/internal/domain"
)

const maxBundleBytes = 64 << 10

// ServerOptions configures Handler.
type ServerOptions struct {
	Logger *slog.Logger
	// RatePerSecond and Burst size the token bucket shared by all clients.
	// A zero RatePerSecond disables limiting.
	RatePerSecond float64
	Burst         int
}

// Handler serves dir over the directory HTTP API.
func Handler(dir domain.Directory, opts ServerOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /exists/{id}", func(w http.ResponseWriter, r *http.Request) {
		ok, err := dir.Exists(r.Context(), domain.UserID(r.PathValue("id")))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, existsResponse{Exists: ok})
	})
	mux.HandleFunc("POST /bundles/{id}", func(w http.ResponseWriter, r *http.Request) {
		var b domain.PreKeyBundle
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBundleBytes))
		if err := dec.Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if len(b.IdentityKey) == 0 {
			writeError(w, http.StatusBadRequest, errors.New("bundle has no identity key"))
			return
		}
		ok, err := dir.Publish(r.Context(), domain.UserID(r.PathValue("id")), b)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, errors.New("bundle rejected"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /bundles/{id}", func(w http.ResponseWriter, r *http.Request) {
		b, ok, err := dir.Fetch(r.Context(), domain.UserID(r.PathValue("id")))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("not found"))
			return
		}
		writeJSON(w, http.StatusOK, b)
	})

	var h http.Handler = mux
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		h = rateLimit(rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst), h)
	}
	return accessLog(log, h)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// accessLog tags each request with an id and logs one line when it completes.
func accessLog(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", sw.status,
			"bytes", sw.bytes,
			"duration", time.Since(start),
		)
	})
}

func rateLimit(l *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errors.New("rate limited"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
