package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/api/middleware"
	learnapp "github.com/cybershikshax/shiksha-cli/internal/application/learn"
	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/domain/progress"
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20
	healthPath   = "/api/v1/health"
)

type ScanService interface {
	Results() []*scan.Result
	Summary() scan.Summary
	Report() report.Report
}

type LearnService interface {
	Tracks() progress.Curriculum
	Progress(track string) (learnapp.TrackProgress, error)
	Complete(track, topic string) error
	Ask(ctx context.Context, message string) (classifier.Reply, error)
}

type NetworkStatus interface {
	Offline() bool
}

type JobService interface {
	StartJob(ctx context.Context, req JobRequest) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]Job, error)
	Subscribe() (chan Job, func())
}

type Config struct {
	Scans       ScanService
	Learn       LearnService
	Network     NetworkStatus
	Jobs        JobService
	Language    i18n.Lang
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int      // Burst size for rate limiter
}

type Server struct {
	cfg     Config
	mux     *http.ServeMux
	handler http.Handler
	limiter *middleware.ClientLimiter
	stop    context.CancelFunc
}

type summaryResponse struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type statusResponse struct {
	Online bool   `json:"online"`
	Badge  string `json:"badge,omitempty"`
}

type labelsResponse struct {
	Lang   i18n.Lang         `json:"lang"`
	Toggle i18n.Lang         `json:"toggle"`
	Labels map[string]string `json:"labels"`
}

type trackResponse struct {
	ID     string   `json:"id"`
	Topics []string `json:"topics"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func NewServer(cfg Config) *Server {
	if cfg.Language == "" {
		cfg.Language = i18n.English
	}
	ctx, stop := context.WithCancel(context.Background())
	srv := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		stop: stop,
	}
	if cfg.RateLimit > 0 {
		srv.limiter = middleware.NewClientLimiter(ctx, cfg.RateLimit, cfg.RateBurst)
	}
	srv.routes()
	// RequestID -> CORS -> RateLimit -> Logging -> routes; every route but
	// health is wrapped in auth.
	srv.handler = middleware.RequestID(srv.withCORS(srv.withRateLimit(srv.withLogging(srv.mux))))
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops the rate limiter's sweeper.
func (s *Server) Close() {
	s.stop()
}

func (s *Server) routes() {
	s.mux.Handle(healthPath, http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/api/v1/status", s.withAuth(http.HandlerFunc(s.handleStatus)))
	s.mux.Handle("/api/v1/labels/", s.withAuth(http.HandlerFunc(s.handleLabels)))
	s.mux.Handle("/api/v1/scans", s.withAuth(http.HandlerFunc(s.handleScans)))
	s.mux.Handle("/api/v1/scans/summary", s.withAuth(http.HandlerFunc(s.handleSummary)))
	s.mux.Handle("/api/v1/report", s.withAuth(http.HandlerFunc(s.handleReport)))
	s.mux.Handle("/api/v1/jobs", s.withAuth(http.HandlerFunc(s.handleJobs)))
	s.mux.Handle("/api/v1/jobs/", s.withAuth(http.HandlerFunc(s.handleJobByID)))
	s.mux.Handle("/api/v1/jobs-stream", s.withAuth(http.HandlerFunc(s.handleJobStream)))
	s.mux.Handle("/api/v1/tracks", s.withAuth(http.HandlerFunc(s.handleTracks)))
	s.mux.Handle("/api/v1/progress/", s.withAuth(http.HandlerFunc(s.handleProgress)))
	s.mux.Handle("/api/v1/chat", s.withAuth(http.HandlerFunc(s.handleChat)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	resp := statusResponse{Online: true}
	if s.cfg.Network != nil && s.cfg.Network.Offline() {
		resp.Online = false
		resp.Badge = i18n.Label(s.requestLang(r, ""), i18n.Offline)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	lang := s.requestLang(r, strings.TrimPrefix(r.URL.Path, "/api/v1/labels/"))
	writeJSON(w, http.StatusOK, labelsResponse{
		Lang:   lang,
		Toggle: i18n.Toggle(lang),
		Labels: i18n.Table(lang),
	})
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		results := s.cfg.Scans.Results()
		items := make([]report.Scan, 0, len(results))
		for _, res := range results {
			items = append(items, report.ScanOf(res))
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		s.startJob(w, r)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	sum := s.cfg.Scans.Summary()
	writeJSON(w, http.StatusOK, summaryResponse{Total: sum.Total, High: sum.High, Medium: sum.Medium, Low: sum.Low})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	format := report.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		parsed, err := report.ParseFormat(q)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		format = parsed
	}

	rep := s.cfg.Scans.Report()
	content, err := report.Encode(rep, format)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	generated, err := rep.GeneratedTime()
	if err != nil {
		generated = time.Now()
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(generated, format)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		s.requestLogger(r).Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		limit := 25
		if q := r.URL.Query().Get("limit"); q != "" {
			if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		jobs, err := s.cfg.Jobs.ListJobs(r.Context(), limit)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	case http.MethodPost:
		s.startJob(w, r)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) startJob(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	job, err := s.cfg.Jobs.StartJob(r.Context(), req)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("job ID required"))
		return
	}
	job, err := s.cfg.Jobs.GetJob(r.Context(), id)
	if err != nil || job == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				s.requestLogger(r).Error("failed to marshal job", zap.Error(err))
				continue
			}
			if !s.writeStreamChunk(w, []byte("event: job\n")) {
				return
			}
			if !s.writeStreamChunk(w, []byte("data: ")) {
				return
			}
			if !s.writeStreamChunk(w, payload) {
				return
			}
			if !s.writeStreamChunk(w, []byte("\n\n")) {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	tracks := s.cfg.Learn.Tracks()
	out := make([]trackResponse, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackResponse{ID: t.ID, Topics: append([]string(nil), t.Topics...)})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleProgress serves GET /progress/{track} and POST /progress/{track}/{topic}.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/progress/")
	track, topic, hasTopic := strings.Cut(rest, "/")
	if track == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("track required"))
		return
	}

	switch {
	case r.Method == http.MethodGet && !hasTopic:
	case r.Method == http.MethodPost && hasTopic && topic != "":
		if err := s.cfg.Learn.Complete(track, topic); err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
	default:
		s.methodNotAllowed(w, r)
		return
	}

	p, err := s.cfg.Learn.Progress(track)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	reply, err := s.cfg.Learn.Ask(r.Context(), req.Message)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// requestLang prefers an explicit tag, then Accept-Language, then the
// configured default.
func (s *Server) requestLang(r *http.Request, explicit string) i18n.Lang {
	if explicit != "" {
		return i18n.Match(explicit)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return i18n.Match(accept)
	}
	return s.cfg.Language
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sharedErrors.ErrTrackNotFound), errors.Is(err, sharedErrors.ErrTopicNotFound):
		return http.StatusNotFound
	case errors.Is(err, sharedErrors.ErrEmptyMessage), errors.Is(err, sharedErrors.ErrEmptyInput),
		errors.Is(err, sharedErrors.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func contentType(format report.Format) string {
	switch format {
	case report.FormatPDF:
		return "application/pdf"
	case report.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/json"
}

// withRateLimit limits each client address. Health checks are never
// limited.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			next.ServeHTTP(w, r)
			return
		}
		client := middleware.ClientAddr(r)
		if !s.limiter.Allow(client) {
			s.requestLogger(r).Warn("rate_limit_exceeded", zap.String("client", client))
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			w.Header().Add("Vary", "Origin")
			allowOrigin = ""
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, X-Request-ID, Accept-Language")
			// report downloads read the filename, clients correlate logs by ID
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

// Flush lets the job stream pass through the logging wrapper.
func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// 5xx details stay in the server log
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}
	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (s *Server) writeStreamChunk(w http.ResponseWriter, data []byte) bool {
	if _, err := w.Write(data); err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("failed to write stream chunk", zap.Error(err))
		}
		return false
	}
	return true
}
