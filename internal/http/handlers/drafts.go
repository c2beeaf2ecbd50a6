package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"skyreport/internal/billing"
	"skyreport/internal/domain"
	"skyreport/internal/middleware"
	"skyreport/internal/renderpdf"
	"skyreport/internal/report"
	"skyreport/pkg/zip"
)

// DraftsCreate runs the whole pipeline for one submission: validate,
// classify and sort media, assign refs, sample findings, paginate the
// appendix, compose the HTML and convert it to a PDF. Every path ends in a
// structured response; nothing escapes to crash the process.
func (a *App) DraftsCreate(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			a.Logger.Error().Interface("panic", rec).
				Str("request_id", middleware.RequestIDFromContext(r.Context())).
				Msg("draft generation panicked")
			a.internalError(w, r, fmt.Errorf("panic: %v", rec), string(debug.Stack()))
		}
	}()

	var req domain.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	images, videos, err := report.SplitMedia(req.Files, a.ReportOpts)
	if err != nil {
		a.error(w, http.StatusBadRequest, "no_media", "no usable media in submission")
		return
	}

	if req.Tier == domain.TierPolished && a.Billing != nil {
		status, err := a.Billing.VerifyPayment(r.Context(), req.Contact.Email)
		if err != nil {
			a.Logger.Error().Err(err).Msg("payment verification failed")
			a.error(w, http.StatusBadGateway, "billing_unavailable", "payment verification failed")
			return
		}
		if status != billing.PaymentPaid {
			a.error(w, http.StatusPaymentRequired, "payment_required", "polished tier requires a completed payment")
			return
		}
	}

	refs := report.AssignRefs(images)
	findings := report.SampleFindings(refs, a.ReportOpts)
	pages := report.Paginate(refs, a.ReportOpts)

	tpl, err := report.ResolveTemplate(a.Cfg.TemplatePath(), report.FallbackTemplatePath)
	if err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			a.Logger.Error().Err(err).Msg("report template missing from both locations")
			a.error(w, http.StatusInternalServerError, "template_missing", "report template not found")
			return
		}
		a.internalError(w, r, err, "")
		return
	}

	htmlDoc := report.Compose(tpl, report.ReportData{
		Project:     req.Contact.Project,
		Company:     req.Contact.Company,
		Email:       req.Contact.Email,
		Notes:       req.Notes,
		BrandColor:  req.BrandColor,
		LogoURL:     req.LogoURL,
		GeneratedAt: time.Now(),
		Images:      refs,
		Videos:      videos,
		Findings:    findings,
		Appendix:    pages,
	})

	name := report.SanitizeFilename(req.Contact.Project)
	pdf, err := a.Renderer.Render(r.Context(), htmlDoc, name+".pdf")
	if err != nil {
		a.renderError(w, err)
		return
	}

	draftID := uuid.NewString()
	a.recordSubmission(r, &req, len(images), len(videos), draftID)
	a.archiveDraft(r.Context(), draftID, name, htmlDoc, pdf)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename=`+name+`.pdf`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// renderError maps render-client failures onto the response taxonomy:
// timeouts are distinguishable from upstream errors, and upstream errors
// carry the last status and body for diagnostics.
func (a *App) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		a.Logger.Error().Err(err).Msg("pdf rendering timed out")
		a.error(w, http.StatusGatewayTimeout, "render_timeout", "pdf rendering timed out")
		return
	}
	var upstream *renderpdf.UpstreamError
	if errors.As(err, &upstream) {
		a.Logger.Error().Int("status", upstream.Status).Int("attempts", upstream.Attempts).Msg("pdf rendering failed upstream")
		a.error(w, http.StatusInternalServerError, "render_failed", upstream.Error())
		return
	}
	a.Logger.Error().Err(err).Msg("pdf rendering failed")
	a.error(w, http.StatusInternalServerError, "render_failed", "pdf rendering failed")
}

// internalError returns a generic 500. Detail and stack are exposed only
// when the caller sends ?debug=1 and the process runs in development.
func (a *App) internalError(w http.ResponseWriter, r *http.Request, err error, stack string) {
	if a.Cfg != nil && a.Cfg.Debug() && r.URL.Query().Get("debug") == "1" {
		a.json(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal",
			"message": err.Error(),
			"stack":   stack,
		})
		return
	}
	a.error(w, http.StatusInternalServerError, "internal", "draft generation failed")
}

// recordSubmission is best-effort: a storage failure never blocks the
// response carrying the PDF.
func (a *App) recordSubmission(r *http.Request, req *domain.DraftRequest, imageCount, videoCount int, draftID string) {
	if a.Submissions == nil {
		return
	}
	country := ""
	if a.Country != nil {
		if code, err := a.Country.CountryCode(middleware.ClientIP(r)); err == nil {
			country = code
		}
	}
	tier := req.Tier
	if tier == "" {
		tier = domain.TierRaw
	}
	sub := &domain.Submission{
		ID:         draftID,
		Email:      req.Contact.Email,
		Project:    req.Contact.Project,
		Company:    req.Contact.Company,
		Tier:       tier,
		ImageCount: imageCount,
		VideoCount: videoCount,
		Country:    country,
	}
	if err := a.Submissions.Create(r.Context(), sub); err != nil {
		a.Logger.Error().Err(err).Str("draft_id", draftID).Msg("failed to record submission")
	}
}

// archiveDraft is best-effort as well.
func (a *App) archiveDraft(ctx context.Context, draftID, name, htmlDoc string, pdf []byte) {
	if a.Archive == nil {
		return
	}
	bundle, err := zip.Bundle([]zip.Asset{
		{Filename: "report.html", MIME: "text/html", Data: []byte(htmlDoc)},
		{Filename: name + ".pdf", MIME: "application/pdf", Data: pdf},
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("draft_id", draftID).Msg("failed to bundle draft archive")
		return
	}
	if _, err := a.Archive.SaveDraftBundle(ctx, draftID, bundle); err != nil {
		a.Logger.Error().Err(err).Str("draft_id", draftID).Msg("failed to archive draft")
	}
}
