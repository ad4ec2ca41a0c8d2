// Package server is a local stand-in for the analysis service. It speaks the
// same HTTP contract as the hosted backend so the CLI can be exercised
// end-to-end without network access.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/client"
	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/profiler"
	"github.com/KaramelBytes/datasage-cli/internal/report"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Name is reported by the root endpoint.
const Name = "DataSage API"

// Config describes the service instance.
type Config struct {
	Version     string
	Environment string
	Policy      intake.Policy
}

// Server routes requests to the profiler.
type Server struct {
	cfg  Config
	prof *profiler.Profiler
	log  *zap.Logger
	ids  func() string
	mux  *http.ServeMux
}

// New builds a server. A nil logger discards logs.
func New(cfg Config, prof *profiler.Profiler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Policy.MaxSizeBytes <= 0 {
		cfg.Policy.MaxSizeBytes = intake.DefaultMaxSizeBytes
	}
	if prof == nil {
		prof = profiler.New(profiler.DefaultOptions())
	}
	s := &Server{cfg: cfg, prof: prof, log: log, ids: uuid.NewString, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET "+client.HealthPath, s.handleHealth)
	s.mux.HandleFunc("POST "+client.AnalyzePath, s.handleAnalyze)
	return s
}

// Handler returns the routed handler wrapped with request IDs and access logs.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = s.ids()
		}
		w.Header().Set("X-Request-Id", rid)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		s.mux.ServeHTTP(sw, r)
		s.log.Info("request",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    Name,
		"version": s.cfg.Version,
		"docs":    "/docs",
		"health":  client.HealthPath,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report.HealthStatus{
		Status:      "healthy",
		Version:     s.cfg.Version,
		Environment: s.cfg.Environment,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Policy.MaxSizeBytes
	// Room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	name, content, err := readUpload(r, limit)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeDetail(w, http.StatusBadRequest, s.tooLarge())
		case errors.Is(err, errNoFilename):
			writeDetail(w, http.StatusBadRequest, "No filename provided")
		default:
			writeDetail(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	// Size first, then type, same order as the client.
	fh := intake.NewFileHandle(name, int64(len(content)), "", nil)
	if err := intake.Validate(fh, s.cfg.Policy).Err(); err != nil {
		if errors.Is(err, intake.ErrSizeExceeded) {
			writeDetail(w, http.StatusBadRequest, s.tooLarge())
		} else {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("File type not allowed. Supported: %s", s.supported()))
		}
		return
	}

	rep, err := s.prof.Analyze(name, content)
	if err != nil {
		if errors.Is(err, profiler.ErrUnreadable) {
			s.log.Warn("unreadable upload", zap.String("file", name), zap.Error(err))
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("analysis failed", zap.String("file", name), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}
	rep.ID = s.ids()
	s.log.Debug("analysis complete",
		zap.String("file", name),
		zap.String("report_id", rep.ID),
		zap.Int("rows", rep.RowCount),
		zap.Int("columns", rep.ColumnCount),
	)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) tooLarge() string {
	return fmt.Sprintf("File too large. Max size: %dMB", s.cfg.Policy.MaxSizeBytes/(1024*1024))
}

func (s *Server) supported() string {
	exts := make([]string, 0, len(s.cfg.Policy.Accept))
	for _, a := range s.cfg.Policy.Accept {
		exts = append(exts, strings.TrimPrefix(a, "."))
	}
	return strings.Join(exts, ", ")
}

var (
	errNoFilename = errors.New("no filename provided")
	errNoFilePart = fmt.Errorf("missing %q form field", client.FormField)
)

// readUpload finds the file part and reads at most limit+1 bytes of it, so an
// oversized upload is detected without buffering all of it.
func readUpload(r *http.Request, limit int64) (string, []byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, fmt.Errorf("read form: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, errNoFilePart
		}
		if err != nil {
			return "", nil, fmt.Errorf("read form: %w", err)
		}
		if part.FormName() != client.FormField {
			_ = part.Close()
			continue
		}
		return readFilePart(part, limit)
	}
}

func readFilePart(part *multipart.Part, limit int64) (string, []byte, error) {
	defer part.Close()
	name := part.FileName()
	if name == "" {
		return "", nil, errNoFilename
	}
	content, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	return name, content, nil
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
