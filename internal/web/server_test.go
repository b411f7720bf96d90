package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/SurveyIntake/internal/config"
	"github.com/JonMunkholm/SurveyIntake/internal/submission"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: 10 * time.Second,
		},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       5 * time.Second,
		},
		Validation: config.ValidationConfig{MaxParallel: 2},
		Logging:    config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(cfg *config.Config) *Server {
	return NewServer(cfg, submission.NewService(cfg.Validation.MaxParallel), nil)
}

func dwcZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path, field, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const (
	eventTxt = "eventID\teventDate\tsamplingProtocol\tdecimalLatitude\tdecimalLongitude\n" +
		"E1\t2024-05-01\ttransect\t49.2\t-123.1\n"
	occurrenceTxt = "occurrenceID\teventID\tbasisOfRecord\tscientificName\tindividualCount\n" +
		"O1\tE1\tHumanObservation\tAlces alces\t2\n"
)

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status      string `json:"status"`
		Persistence bool   `json:"persistence"`
		Submissions struct {
			MaxConcurrent int `json:"max_concurrent"`
		} `json:"submissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Status != "ok" || body.Persistence {
		t.Errorf("body = %+v, want status ok without persistence", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestListSchemas(t *testing.T) {
	s := newTestServer(testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var infos []SchemaInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	var found bool
	for _, info := range infos {
		if info.Key == "dwc" {
			found = true
			if info.Kind != "dwca" || len(info.Files) == 0 {
				t.Errorf("dwc info = %+v", info)
			}
		}
	}
	if !found {
		t.Errorf("schemas = %+v, want dwc listed", infos)
	}
}

func TestGetSchema(t *testing.T) {
	s := newTestServer(testConfig())

	tests := []struct {
		path     string
		want     int
		wantCode string
	}{
		{"/api/schemas/dwc", http.StatusOK, ""},
		{"/api/schemas/nope", http.StatusNotFound, "SCH001"},
	}

	for _, tt := range tests {
		rec := serve(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.want)
			continue
		}
		if tt.wantCode != "" {
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Errorf("GET %s code = %s, want %s", tt.path, got, tt.wantCode)
			}
		}
	}
}

func TestValidate_Archive(t *testing.T) {
	s := newTestServer(testConfig())

	tests := []struct {
		name       string
		files      map[string]string
		wantStatus submission.Status
		wantErrors int
	}{
		{
			name:       "accepted",
			files:      map[string]string{"event.txt": eventTxt, "occurrence.txt": occurrenceTxt},
			wantStatus: submission.StatusAccepted,
		},
		{
			name:       "missing occurrence file",
			files:      map[string]string{"event.txt": eventTxt},
			wantStatus: submission.StatusRejected,
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadRequest(t, "/api/validate/dwc", "file", "survey.zip", dwcZip(t, tt.files))
			rec := serve(s, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			var res submission.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (messages %+v)", res.Status, tt.wantStatus, res.Messages)
			}
			if res.ErrorCount != tt.wantErrors {
				t.Errorf("ErrorCount = %d, want %d", res.ErrorCount, tt.wantErrors)
			}
			if res.MIME != "application/zip" {
				t.Errorf("MIME = %q, want application/zip", res.MIME)
			}
		})
	}
}

func TestValidate_BadRequests(t *testing.T) {
	s := newTestServer(testConfig())
	archive := dwcZip(t, map[string]string{"event.txt": eventTxt})

	tests := []struct {
		name     string
		req      *http.Request
		want     int
		wantCode string
	}{
		{
			name:     "unknown schema",
			req:      uploadRequest(t, "/api/validate/nope", "file", "survey.zip", archive),
			want:     http.StatusNotFound,
			wantCode: "SCH001",
		},
		{
			name:     "wrong field name",
			req:      uploadRequest(t, "/api/validate/dwc", "upload", "survey.zip", archive),
			want:     http.StatusBadRequest,
			wantCode: "FILE005",
		},
		{
			name:     "not multipart",
			req:      httptest.NewRequest(http.MethodPost, "/api/validate/dwc", strings.NewReader("x")),
			want:     http.StatusBadRequest,
			wantCode: "FILE005",
		},
		{
			name:     "empty file",
			req:      uploadRequest(t, "/api/validate/dwc", "file", "survey.zip", nil),
			want:     http.StatusBadRequest,
			wantCode: "FILE006",
		},
		{
			name:     "not an archive",
			req:      uploadRequest(t, "/api/validate/dwc", "file", "survey.zip", []byte("hello")),
			want:     http.StatusBadRequest,
			wantCode: "FILE002",
		},
		{
			name:     "archive without data files",
			req:      uploadRequest(t, "/api/validate/dwc", "file", "survey.zip", dwcZip(t, map[string]string{"eml.xml": "<eml/>"})),
			want:     http.StatusBadRequest,
			wantCode: "FILE003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestValidate_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 256
	s := newTestServer(cfg)

	req := uploadRequest(t, "/api/validate/dwc", "file", "survey.zip", bytes.Repeat([]byte("a"), 4096))
	rec := serve(s, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body.String())
	}
	if got := decodeError(t, rec).Code; got != "FILE001" {
		t.Errorf("code = %s, want FILE001", got)
	}
}

func TestSubmissionRoutes_WithoutStore(t *testing.T) {
	s := newTestServer(testConfig())

	for _, path := range []string{
		"/api/submissions/6f1c2a8e-5d4b-4c3a-9e2f-1a2b3c4d5e6f",
		"/api/submissions/6f1c2a8e-5d4b-4c3a-9e2f-1a2b3c4d5e6f/messages",
	} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("GET %s status = %d, want 501", path, rec.Code)
			continue
		}
		if got := decodeError(t, rec).Code; got != "SUB003" {
			t.Errorf("GET %s code = %s, want SUB003", path, got)
		}
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"k1", "k2"}
	s := newTestServer(cfg)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"no key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusForbidden},
		{"header key", "X-API-Key", "k2", http.StatusOK},
		{"bearer key", "Authorization", "Bearer k1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if rec := serve(s, req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	// Health stays open.
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	s := newTestServer(cfg)

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}
}
