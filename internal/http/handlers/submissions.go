package handlers

import (
	"net/http"
	"strconv"
)

const maxSubmissionListLimit = 100

// SubmissionsList returns the most recent stored submissions.
func (a *App) SubmissionsList(w http.ResponseWriter, r *http.Request) {
	if a.Submissions == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "submission store not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxSubmissionListLimit {
			limit = n
		}
	}
	items, err := a.Submissions.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to list submissions")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load submissions")
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, s := range items {
		out = append(out, map[string]any{
			"id":          s.ID,
			"email":       s.Email,
			"project":     s.Project,
			"company":     s.Company,
			"tier":        string(s.Tier),
			"image_count": s.ImageCount,
			"video_count": s.VideoCount,
			"country":     s.Country,
			"created_at":  s.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
