package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"skyreport/internal/billing"
	"skyreport/internal/domain"
	"skyreport/internal/infra"
	"skyreport/internal/infra/geoip"
	"skyreport/internal/report"
	"skyreport/internal/storage"
)

// PDFRenderer converts composed HTML into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, htmlDoc, filename string) ([]byte, error)
}

// PaymentVerifier checks the billing status for polished-tier drafts.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, email string) (billing.PaymentStatus, error)
}

// App is the handler container. Renderer and Cfg are required; the other
// collaborators are optional and skipped when nil.
type App struct {
	Logger      zerolog.Logger
	Cfg         *infra.Config
	Renderer    PDFRenderer
	Billing     PaymentVerifier
	Submissions domain.SubmissionRepository
	Archive     *storage.ArchiveStore
	Country     geoip.CountryResolver
	ReportOpts  report.Options
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
