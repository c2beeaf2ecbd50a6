package report

import (
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"skyreport/internal/domain"
)

const testTemplate = `<html><body style="color: {{BRAND_COLOR}}">
<h1>{{PROJECT}}</h1>
<p>{{COMPANY}} {{EMAIL}} {{DATE}}</p>
<img src="{{LOGO_URL}}">
<ul>{{SUMMARY_ITEMS}}</ul>
<div>{{NOTES}}</div>
<table>{{FINDINGS_ROWS}}</table>
{{VIDEOS_BLOCK}}
{{APPENDIX}}
</body></html>`

func TestComposeEscapesUserInput(t *testing.T) {
	notes := `<script>alert("x")&'</script>`
	out := Compose(testTemplate, ReportData{
		Project:     "Tower A",
		Company:     `Acme & Sons <Ltd>`,
		Email:       "ops@example.com",
		Notes:       notes,
		GeneratedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	})

	if strings.Contains(out, "<script>") {
		t.Fatal("unescaped script tag in output")
	}
	if strings.Contains(out, "Acme & Sons <Ltd>") {
		t.Fatal("unescaped company in output")
	}
	escaped := html.EscapeString(notes)
	if !strings.Contains(out, escaped) {
		t.Fatalf("escaped notes missing from output: %s", escaped)
	}
	if html.UnescapeString(escaped) != notes {
		t.Fatal("escaping is not reversible")
	}
}

func TestComposeEscapesFilenamesInSubLayouts(t *testing.T) {
	refs := AssignRefs([]domain.MediaItem{{
		Type:     domain.MediaImage,
		URL:      "https://cdn.example.com/a",
		Thumb:    "https://cdn.example.com/a.thumb",
		Filename: `"/><script>evil</script>`,
	}})
	out := Compose(testTemplate, ReportData{
		Project:  "p",
		Appendix: Paginate(refs, Options{}),
	})
	if strings.Contains(out, "<script>evil</script>") {
		t.Fatal("unescaped filename reached appendix markup")
	}
}

func TestValidBrandColor(t *testing.T) {
	cases := map[string]string{
		"":          DefaultBrandColor,
		"notacolor": DefaultBrandColor,
		"#12":       DefaultBrandColor,
		"#12345":    DefaultBrandColor,
		"#gggggg":   DefaultBrandColor,
		"#abc":      "#abc",
		"#A1B2C3":   "#A1B2C3",
	}
	for in, want := range cases {
		if got := ValidBrandColor(in); got != want {
			t.Fatalf("ValidBrandColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComposeOmitsVideosBlockWhenEmpty(t *testing.T) {
	out := Compose(testTemplate, ReportData{Project: "p"})
	if strings.Contains(out, "class=\"videos\"") {
		t.Fatal("videos block present for zero videos")
	}

	withVideo := Compose(testTemplate, ReportData{
		Project: "p",
		Videos: []domain.MediaItem{{
			Type:     domain.MediaVideo,
			URL:      "https://cdn.example.com/v.mp4",
			Thumb:    "https://cdn.example.com/v.jpg",
			Filename: "flight.mp4",
		}},
	})
	if !strings.Contains(withVideo, "class=\"videos\"") {
		t.Fatal("videos block missing")
	}
	if !strings.Contains(withVideo, "https://cdn.example.com/v.mp4") {
		t.Fatal("video url missing from block")
	}
}

func TestComposeFindingsRows(t *testing.T) {
	out := Compose(testTemplate, ReportData{
		Project:  "p",
		Findings: []domain.Finding{{Ref: "IMG-001", Severity: "—"}, {Ref: "IMG-007", Severity: "—"}},
	})
	if !strings.Contains(out, "IMG-001") || !strings.Contains(out, "IMG-007") {
		t.Fatal("finding refs missing from table")
	}
}

func TestComposeAppendixGrid(t *testing.T) {
	refs := AssignRefs(manyImages(t, 13))
	out := Compose(testTemplate, ReportData{
		Project:  "p",
		Appendix: Paginate(refs, Options{}),
	})
	if got := strings.Count(out, "appendix-page"); got != 2 {
		t.Fatalf("appendix section count = %d, want 2", got)
	}
	if !strings.Contains(out, "Appendix — Page 2") {
		t.Fatal("second appendix heading missing")
	}
	if got := strings.Count(out, "<figure>"); got != 13 {
		t.Fatalf("appendix cell count = %d, want 13", got)
	}
}

func TestResolveTemplateFallback(t *testing.T) {
	dir := t.TempDir()
	secondary := filepath.Join(dir, "fallback.html")
	if err := os.WriteFile(secondary, []byte("fallback {{PROJECT}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveTemplate(filepath.Join(dir, "missing.html"), secondary)
	if err != nil {
		t.Fatalf("ResolveTemplate error: %v", err)
	}
	if !strings.Contains(got, "fallback") {
		t.Fatalf("unexpected template content: %q", got)
	}
}

func TestResolveTemplateNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveTemplate(filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html"))
	if err == nil {
		t.Fatal("expected error when both paths are missing")
	}
	if !strings.Contains(err.Error(), "template not found") {
		t.Fatalf("error does not name the condition: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Tower A Inspection":  "Tower-A-Inspection",
		"  ../../etc/passwd ": "etc-passwd",
		"<>:\"|?*":            "report",
		"":                    "report",
		"bridge_42.final":     "bridge_42.final",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
