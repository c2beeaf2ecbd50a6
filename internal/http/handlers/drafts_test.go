package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skyreport/internal/billing"
	"skyreport/internal/domain"
	"skyreport/internal/infra"
	"skyreport/internal/renderpdf"
	"skyreport/internal/report"
)

const testTemplate = `<html><body>
<h1>{{PROJECT}}</h1>
<div>{{COMPANY}} {{EMAIL}} {{DATE}} {{BRAND_COLOR}}</div>
<ul>{{SUMMARY_ITEMS}}</ul>
<div>{{NOTES}}</div>
<table>{{FINDINGS_ROWS}}</table>
{{VIDEOS_BLOCK}}
{{APPENDIX}}
</body></html>`

// fakeConverter scripts the conversion service's responses and captures the
// HTML forwarded to it.
type fakeConverter struct {
	mu       sync.Mutex
	statuses []int // consumed in order; empty means always 200
	attempts int
	lastHTML string
	delay    time.Duration
}

func (f *fakeConverter) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.attempts++
		status := http.StatusOK
		if len(f.statuses) > 0 {
			status = f.statuses[0]
			f.statuses = f.statuses[1:]
		}
		delay := f.delay
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(delay):
			}
		}
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if file, _, err := r.FormFile("files"); err == nil {
			data, _ := io.ReadAll(file)
			file.Close()
			f.mu.Lock()
			f.lastHTML = string(data)
			f.mu.Unlock()
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("chromium busy"))
			return
		}
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}
}

type fakeBilling struct {
	status billing.PaymentStatus
	err    error
}

func (f *fakeBilling) VerifyPayment(ctx context.Context, email string) (billing.PaymentStatus, error) {
	return f.status, f.err
}

type memSubmissions struct {
	mu    sync.Mutex
	items []domain.Submission
}

func (m *memSubmissions) Create(ctx context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *s)
	return nil
}

func (m *memSubmissions) ListRecent(ctx context.Context, limit int) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.items) {
		limit = len(m.items)
	}
	return m.items[:limit], nil
}

func newTestApp(t *testing.T, converter *fakeConverter, timeout time.Duration) *App {
	t.Helper()
	ts := httptest.NewServer(converter.handler(t))
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report_template.html"), []byte(testTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	return &App{
		Logger: zerolog.Nop(),
		Cfg: &infra.Config{
			AppEnv:      "test",
			TemplateDir: dir,
		},
		Renderer:   renderpdf.New(renderpdf.Options{BaseURL: ts.URL, Timeout: timeout}),
		ReportOpts: report.DefaultOptions(),
	}
}

func draftPayload(imageCount, videoCount int) domain.DraftRequest {
	req := domain.DraftRequest{
		Contact: domain.Contact{Email: "ops@example.com", Project: "Tower A Inspection"},
	}
	for i := 0; i < imageCount; i++ {
		req.Files = append(req.Files, domain.MediaItem{
			Type:     domain.MediaImage,
			URL:      fmt.Sprintf("https://cdn.example.com/img-%03d.jpg", i),
			Thumb:    fmt.Sprintf("https://cdn.example.com/img-%03d.thumb.jpg", i),
			Filename: fmt.Sprintf("img-%03d.jpg", i),
		})
	}
	for i := 0; i < videoCount; i++ {
		req.Files = append(req.Files, domain.MediaItem{
			Type:     domain.MediaVideo,
			URL:      fmt.Sprintf("https://cdn.example.com/vid-%d.mp4", i),
			Thumb:    fmt.Sprintf("https://cdn.example.com/vid-%d.jpg", i),
			Filename: fmt.Sprintf("vid-%d.mp4", i),
		})
	}
	return req
}

func postDraft(t *testing.T, app *App, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/v1/drafts", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.DraftsCreate(w, r)
	return w
}

func TestDraftsCreateSevenImages(t *testing.T) {
	converter := &fakeConverter{}
	app := newTestApp(t, converter, 0)

	w := postDraft(t, app, draftPayload(7, 0))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename=Tower-A-Inspection.pdf` {
		t.Fatalf("content disposition = %q", got)
	}
	if w.Body.String() != "%PDF-1.7 fake" {
		t.Fatalf("body = %q", w.Body.String())
	}
	if got := strings.Count(converter.lastHTML, "appendix-page"); got != 1 {
		t.Fatalf("appendix pages in forwarded html = %d, want 1", got)
	}
	if got := strings.Count(converter.lastHTML, "<figure>"); got != 7 {
		t.Fatalf("appendix cells = %d, want 7", got)
	}
	if strings.Contains(converter.lastHTML, "class=\"videos\"") {
		t.Fatal("videos block present without videos")
	}
}

func TestDraftsCreateThirteenImagesTwoPages(t *testing.T) {
	converter := &fakeConverter{}
	app := newTestApp(t, converter, 0)

	w := postDraft(t, app, draftPayload(13, 0))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := strings.Count(converter.lastHTML, "appendix-page"); got != 2 {
		t.Fatalf("appendix pages = %d, want 2", got)
	}
}

func TestDraftsCreateNoFiles(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)

	w := postDraft(t, app, draftPayload(0, 0))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "media") {
		t.Fatalf("body does not mention media: %s", w.Body.String())
	}
}

func TestDraftsCreateNoUsableMedia(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)

	req := draftPayload(0, 0)
	req.Files = []domain.MediaItem{{Type: "document", URL: "https://cdn.example.com/x", Thumb: "https://cdn.example.com/y"}}
	w := postDraft(t, app, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no_media") {
		t.Fatalf("body missing no_media code: %s", w.Body.String())
	}
}

func TestDraftsCreateMissingContact(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)

	req := draftPayload(3, 0)
	req.Contact.Email = ""
	w := postDraft(t, app, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "contact.email") {
		t.Fatalf("body does not name the missing field: %s", w.Body.String())
	}
}

func TestDraftsCreateRetryThenSucceed(t *testing.T) {
	converter := &fakeConverter{statuses: []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK}}
	app := newTestApp(t, converter, 0)

	w := postDraft(t, app, draftPayload(3, 0))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "%PDF-1.7 fake" {
		t.Fatalf("body = %q", w.Body.String())
	}
	if converter.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", converter.attempts)
	}
}

func TestDraftsCreateRetryExhaustion(t *testing.T) {
	converter := &fakeConverter{statuses: []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable}}
	app := newTestApp(t, converter, 0)

	w := postDraft(t, app, draftPayload(3, 0))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "503") || !strings.Contains(body, "chromium busy") {
		t.Fatalf("body does not carry upstream detail: %s", body)
	}
	if converter.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", converter.attempts)
	}
}

func TestDraftsCreateTimeout(t *testing.T) {
	converter := &fakeConverter{delay: 5 * time.Second}
	app := newTestApp(t, converter, 100*time.Millisecond)

	start := time.Now()
	w := postDraft(t, app, draftPayload(3, 0))

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "render_timeout") {
		t.Fatalf("body missing timeout code: %s", w.Body.String())
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("handler did not abort promptly: %s", elapsed)
	}
}

func TestDraftsCreatePolishedTierRequiresPayment(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)
	app.Billing = &fakeBilling{status: billing.PaymentNone}

	req := draftPayload(3, 0)
	req.Tier = domain.TierPolished
	w := postDraft(t, app, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDraftsCreatePolishedTierPaid(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)
	app.Billing = &fakeBilling{status: billing.PaymentPaid}

	req := draftPayload(3, 0)
	req.Tier = domain.TierPolished
	w := postDraft(t, app, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestDraftsCreateRecordsSubmission(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)
	store := &memSubmissions{}
	app.Submissions = store

	w := postDraft(t, app, draftPayload(5, 1))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	items, _ := store.ListRecent(context.Background(), 10)
	if len(items) != 1 {
		t.Fatalf("submission count = %d", len(items))
	}
	s := items[0]
	if s.ImageCount != 5 || s.VideoCount != 1 {
		t.Fatalf("media counts wrong: %+v", s)
	}
	if s.Tier != domain.TierRaw {
		t.Fatalf("tier should default to raw, got %q", s.Tier)
	}
	if s.ID == "" {
		t.Fatal("submission id empty")
	}
}

func TestDraftsCreateTemplateMissing(t *testing.T) {
	app := newTestApp(t, &fakeConverter{}, 0)
	app.Cfg.TemplateDir = t.TempDir() // no template inside

	w := postDraft(t, app, draftPayload(3, 0))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "template_missing") {
		t.Fatalf("body missing template condition: %s", w.Body.String())
	}
}

func TestDraftsCreateEscapesNotes(t *testing.T) {
	converter := &fakeConverter{}
	app := newTestApp(t, converter, 0)

	req := draftPayload(3, 0)
	req.Notes = `<script>alert("x")</script>`
	w := postDraft(t, app, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(converter.lastHTML, "<script>alert") {
		t.Fatal("unescaped notes forwarded to converter")
	}
}
