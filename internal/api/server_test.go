package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	learnapp "github.com/cybershikshax/shiksha-cli/internal/application/learn"
	scanapp "github.com/cybershikshax/shiksha-cli/internal/application/scan"
	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/connectivity"
	"github.com/cybershikshax/shiksha-cli/internal/domain/progress"
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	jsonrepo "github.com/cybershikshax/shiksha-cli/internal/infrastructure/persistence/json"
	"github.com/cybershikshax/shiksha-cli/internal/infrastructure/persistence/memory"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	server  *Server
	scans   *scanapp.Service
	jobs    *JobManager
	network *connectivity.Monitor
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	rules := classifier.DefaultRules()

	storage, err := jsonrepo.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage returned error: %v", err)
	}
	scans := scanapp.NewService(classifier.New(rules), memory.NewScanResultStore(), scanapp.Latencies{}, logger)
	learn := learnapp.NewService(
		progress.Open(storage, progress.DefaultCurriculum()),
		classifier.NewTutor(rules, func(int) int { return 0 }),
		0,
		logger,
	)
	jobs := NewJobManager(scans, logger)
	t.Cleanup(func() { _ = jobs.Shutdown(context.Background()) })
	network := connectivity.NewMonitor(true, logger)

	cfg := Config{
		Scans:   scans,
		Learn:   learn,
		Network: network,
		Jobs:    jobs,
		Logger:  logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	server := NewServer(cfg)
	t.Cleanup(server.Close)
	return &testEnv{server: server, scans: scans, jobs: jobs, network: network}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request ID header")
	}
}

func TestStatusReportsOfflineBadge(t *testing.T) {
	env := newTestEnv(t, nil)

	online := decode[statusResponse](t, env.do(t, http.MethodGet, "/api/v1/status", "", nil))
	if !online.Online || online.Badge != "" {
		t.Fatalf("unexpected online status %+v", online)
	}

	env.network.Set(false)
	offline := decode[statusResponse](t, env.do(t, http.MethodGet, "/api/v1/status", "", map[string]string{"Accept-Language": "ne"}))
	if offline.Online || offline.Badge != "अफलाइन मोड" {
		t.Fatalf("unexpected offline status %+v", offline)
	}
}

func TestLabels(t *testing.T) {
	env := newTestEnv(t, nil)

	ne := decode[labelsResponse](t, env.do(t, http.MethodGet, "/api/v1/labels/ne-NP", "", nil))
	if ne.Lang != "ne" || ne.Toggle != "en" || ne.Labels["about"] != "बारेमा" {
		t.Fatalf("unexpected Nepali labels %+v", ne)
	}

	fallback := decode[labelsResponse](t, env.do(t, http.MethodGet, "/api/v1/labels/de", "", nil))
	if fallback.Lang != "en" || fallback.Labels["title"] != "CyberShikshaX" {
		t.Fatalf("expected English fallback, got %+v", fallback)
	}
}

func TestScanJobFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/v1/scans", `{"type":"email","input":"URGENT prize winner!"}`, nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rr.Code, rr.Body.String())
	}
	job := decode[Job](t, rr)

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := decode[Job](t, env.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID, "", nil))
		if got.Status == JobDone {
			if got.Result == nil || got.Result.RiskLevel != "High" {
				t.Fatalf("unexpected job result %+v", got.Result)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never finished, last status %s", got.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	list := decode[[]report.Scan](t, env.do(t, http.MethodGet, "/api/v1/scans", "", nil))
	if len(list) != 1 || list[0].Type != "email" || list[0].Status != "Risky" {
		t.Fatalf("unexpected scan list %+v", list)
	}

	sum := decode[summaryResponse](t, env.do(t, http.MethodGet, "/api/v1/scans/summary", "", nil))
	if sum.Total != 1 || sum.High != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	jobs := decode[[]Job](t, env.do(t, http.MethodGet, "/api/v1/jobs?limit=5", "", nil))
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}

func TestScanRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []string{`{"type":"email","input":"  "}`, `{"type":"dns","input":"x"}`, `not json`} {
		rr := env.do(t, http.MethodPost, "/api/v1/scans", body, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rr.Code)
		}
	}
	if len(env.scans.Results()) != 0 {
		t.Fatal("rejected scans must not be stored")
	}

	if rr := env.do(t, http.MethodGet, "/api/v1/jobs/missing", "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", rr.Code)
	}
}

func TestReportFormats(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.scans.Submit(context.Background(), scan.KindURL, "https://paypal-security.com/login"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	rr := env.do(t, http.MethodGet, "/api/v1/report", "", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected report response %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "report-") {
		t.Fatalf("expected attachment filename, got %q", rr.Header().Get("Content-Disposition"))
	}
	rep := decode[report.Report](t, rr)
	if rep.TotalScans != 1 || rep.RiskBreakdown.High != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	generated, err := rep.GeneratedTime()
	if err != nil {
		t.Fatalf("GeneratedTime returned error: %v", err)
	}
	wantName := report.Filename(generated, report.FormatJSON)
	if !strings.Contains(rr.Header().Get("Content-Disposition"), wantName) {
		t.Fatalf("filename should match generatedAt %s, got %q", rep.GeneratedAt, rr.Header().Get("Content-Disposition"))
	}

	pdf := env.do(t, http.MethodGet, "/api/v1/report?format=pdf", "", nil)
	if pdf.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(pdf.Body.String(), "%PDF") {
		t.Fatal("expected PDF report")
	}

	if bad := env.do(t, http.MethodGet, "/api/v1/report?format=xml", "", nil); bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", bad.Code)
	}
}

func TestTracksAndProgress(t *testing.T) {
	env := newTestEnv(t, nil)

	tracks := decode[[]trackResponse](t, env.do(t, http.MethodGet, "/api/v1/tracks", "", nil))
	if len(tracks) != 7 || tracks[5].ID != "+2" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}

	rr := env.do(t, http.MethodPost, "/api/v1/progress/9/Phishing%20Awareness", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	p := decode[learnapp.TrackProgress](t, rr)
	if p.Topics["Phishing Awareness"] != 100 || p.Completed != 1 {
		t.Fatalf("unexpected progress %+v", p)
	}

	again := decode[learnapp.TrackProgress](t, env.do(t, http.MethodGet, "/api/v1/progress/9", "", nil))
	if again.Completed != 1 || again.Total != 3 {
		t.Fatalf("unexpected progress %+v", again)
	}

	if rr := env.do(t, http.MethodGet, "/api/v1/progress/99", "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown track, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/v1/progress/9/Knitting", "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown topic, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/v1/progress/9", "", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, nil)

	reply := decode[classifier.Reply](t, env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"what is a firewall?"}`, nil))
	if !reply.Matched || reply.Keyword != "firewall" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	if rr := env.do(t, http.MethodPost, "/api/v1/chat", `{"message":""}`, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/v1/chat", "", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestAuthToken(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.AuthToken = "s3cret" })

	if rr := env.do(t, http.MethodGet, "/api/v1/scans", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/v1/scans", "", map[string]string{"X-Auth-Token": "s3cret"}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/v1/health", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("health should not require a token, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.RateLimit = 1
		c.RateBurst = 1
	})

	if rr := env.do(t, http.MethodGet, "/api/v1/status", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/v1/status", "", nil); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}

	// a forged forwarding header does not buy a fresh bucket
	spoofed := env.do(t, http.MethodGet, "/api/v1/status", "", map[string]string{"X-Forwarded-For": "203.0.113.7"})
	if spoofed.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 with X-Forwarded-For, got %d", spoofed.Code)
	}

	for i := 0; i < 3; i++ {
		if rr := env.do(t, http.MethodGet, "/api/v1/health", "", nil); rr.Code != http.StatusOK {
			t.Fatalf("health must not be rate limited, got %d", rr.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.CORSOrigins = []string{"http://localhost:5173"} })

	rr := env.do(t, http.MethodOptions, "/api/v1/scans", "", map[string]string{"Origin": "http://localhost:5173"})
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected preflight response %d %v", rr.Code, rr.Header())
	}
	if got := rr.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Content-Disposition") || !strings.Contains(got, "X-Request-ID") {
		t.Fatalf("unexpected expose headers %q", got)
	}
	if rr.Header().Get("Vary") != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", rr.Header().Get("Vary"))
	}

	other := env.do(t, http.MethodGet, "/api/v1/health", "", map[string]string{"Origin": "http://evil.example"})
	if other.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unlisted origins must not be allowed")
	}
}

func TestJobStream(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/jobs-stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	if _, err := env.jobs.StartJob(context.Background(), JobRequest{Type: "url", Input: "example.com"}); err != nil {
		t.Fatalf("StartJob returned error: %v", err)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended before a job event: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			var job Job
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &job); err != nil {
				t.Fatalf("bad event payload %q: %v", line, err)
			}
			if job.Type != "url" {
				t.Fatalf("unexpected job %+v", job)
			}
			return
		}
	}
}

func TestWriteErrorSanitizesInternal(t *testing.T) {
	s := &Server{cfg: Config{Logger: zaptest.NewLogger(t)}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	s.writeError(rr, req, http.StatusInternalServerError, errors.New("boom"))
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "internal server error") {
		t.Fatalf("expected sanitized 500, got %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	s.writeError(rr, req, http.StatusBadRequest, errors.New("bad input"))
	if !strings.Contains(rr.Body.String(), "bad input") {
		t.Fatalf("expected original error message, got %s", rr.Body.String())
	}
}

func TestWriteStreamChunk(t *testing.T) {
	s := &Server{}
	rr := httptest.NewRecorder()
	if !s.writeStreamChunk(rr, []byte("hello")) || rr.Body.String() != "hello" {
		t.Fatal("expected writeStreamChunk to succeed")
	}
	if s.writeStreamChunk(&failingWriter{}, []byte("fail")) {
		t.Fatal("expected writeStreamChunk to fail")
	}
}

type failingWriter struct{}

func (f *failingWriter) Header() http.Header { return http.Header{} }
func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}
func (f *failingWriter) WriteHeader(statusCode int) {}
