package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"skyreport/internal/domain"
)

// SubmissionRepositoryPG implements SubmissionRepository using PostgreSQL.
type SubmissionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new submission repo.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepositoryPG {
	return &SubmissionRepositoryPG{pool: pool}
}

// Create inserts a record for an accepted draft request.
func (r *SubmissionRepositoryPG) Create(ctx context.Context, s *domain.Submission) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO submissions (id, email, project, company, tier, image_count, video_count, country)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`, s.ID, s.Email, s.Project, s.Company, string(s.Tier), s.ImageCount, s.VideoCount, s.Country)
	return err
}

// ListRecent returns the most recent submissions limited by the input value.
func (r *SubmissionRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, email, project, company, tier, image_count, video_count, country, created_at
FROM submissions
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Submission
	for rows.Next() {
		var s domain.Submission
		var tier string
		if err := rows.Scan(&s.ID, &s.Email, &s.Project, &s.Company, &tier, &s.ImageCount, &s.VideoCount, &s.Country, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Tier = domain.Tier(tier)
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
