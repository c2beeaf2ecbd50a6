package report

import (
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"skyreport/internal/domain"
)

// DefaultBrandColor is used whenever the payload omits brandColor or sends
// something that is not a 3- or 6-digit hex value.
const DefaultBrandColor = "#0f4c81"

// FallbackTemplatePath is the secondary lookup location for the report
// template, relative to the working directory.
const FallbackTemplatePath = "assets/report_template.html"

var brandColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var titleCaser = cases.Title(language.English)

// ReportData holds the computed fields substituted into the template.
type ReportData struct {
	Project     string
	Company     string
	Email       string
	Notes       string
	BrandColor  string
	LogoURL     string
	GeneratedAt time.Time
	Images      []domain.ReferencedImage
	Videos      []domain.MediaItem
	Findings    []domain.Finding
	Appendix    []domain.AppendixPage
}

// ResolveTemplate reads the template from the primary path, falling back to
// the secondary. A missing template is a packaging defect, not a user
// error, so it gets its own sentinel.
func ResolveTemplate(primary, secondary string) (string, error) {
	for _, path := range []string{primary, secondary} {
		if strings.TrimSpace(path) == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("report: read template %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("report: %w (tried %s, %s)", domain.ErrTemplateNotFound, primary, secondary)
}

// Compose substitutes every placeholder in the template with its escaped,
// computed value. All user-controlled strings pass through esc exactly
// once; the placeholder map is the single point where values enter the
// markup.
func Compose(tpl string, data ReportData) string {
	fields := map[string]string{
		"{{PROJECT}}":       esc(titleCaser.String(data.Project)),
		"{{COMPANY}}":       esc(data.Company),
		"{{EMAIL}}":         esc(data.Email),
		"{{DATE}}":          esc(data.GeneratedAt.Format("2 January 2006")),
		"{{BRAND_COLOR}}":   ValidBrandColor(data.BrandColor),
		"{{LOGO_URL}}":      esc(data.LogoURL),
		"{{SUMMARY_ITEMS}}": summaryItems(data),
		"{{NOTES}}":         esc(data.Notes),
		"{{FINDINGS_ROWS}}": findingsRows(data.Findings),
		"{{VIDEOS_BLOCK}}":  videosBlock(data.Videos),
		"{{APPENDIX}}":      appendixSections(data.Appendix),
	}

	pairs := make([]string, 0, len(fields)*2)
	for placeholder, value := range fields {
		pairs = append(pairs, placeholder, value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// esc escapes the five characters & < > " ' so user input can never open
// or close markup.
func esc(s string) string {
	return html.EscapeString(s)
}

// ValidBrandColor returns the color if it is a strict #hex3 or #hex6 value,
// the default otherwise. Never passes raw input through.
func ValidBrandColor(color string) string {
	if brandColorPattern.MatchString(color) {
		return color
	}
	return DefaultBrandColor
}

func summaryItems(data ReportData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<li>%d inspection photos</li>", len(data.Images))
	if n := len(data.Videos); n > 0 {
		fmt.Fprintf(&b, "<li>%d flight videos</li>", n)
	}
	fmt.Fprintf(&b, "<li>%d photos flagged for review</li>", len(data.Findings))
	fmt.Fprintf(&b, "<li>%d appendix pages</li>", len(data.Appendix))
	return b.String()
}

func findingsRows(findings []domain.Finding) string {
	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "<tr><td class=\"ref\">%s</td><td class=\"caption\">%s</td><td class=\"severity\">%s</td></tr>\n",
			esc(f.Ref), esc(f.Caption), esc(f.Severity))
	}
	return b.String()
}

// videosBlock is omitted entirely when there are no videos.
func videosBlock(videos []domain.MediaItem) string {
	if len(videos) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<section class=\"videos\">\n<h2>Flight Videos</h2>\n<div class=\"video-list\">\n")
	for _, v := range videos {
		name := v.Filename
		if name == "" {
			name = "video"
		}
		fmt.Fprintf(&b, "<a class=\"video\" href=\"%s\"><img src=\"%s\" alt=\"%s\"><span>%s</span></a>\n",
			esc(v.URL), esc(v.Thumb), esc(name), esc(name))
	}
	b.WriteString("</div>\n</section>\n")
	return b.String()
}

func appendixSections(pages []domain.AppendixPage) string {
	var b strings.Builder
	for _, page := range pages {
		fmt.Fprintf(&b, "<section class=\"appendix-page\">\n<h3>Appendix — Page %d</h3>\n<div class=\"photo-grid\">\n", page.Number)
		for _, img := range page.Images {
			fmt.Fprintf(&b, "<figure><img src=\"%s\" alt=\"%s\"><figcaption>%s</figcaption></figure>\n",
				esc(img.Thumb), esc(img.Filename), esc(img.Ref))
		}
		b.WriteString("</div>\n</section>\n")
	}
	return b.String()
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename derives a safe attachment name from the project name.
func SanitizeFilename(project string) string {
	name := unsafeFilename.ReplaceAllString(strings.TrimSpace(project), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "report"
	}
	return name
}
