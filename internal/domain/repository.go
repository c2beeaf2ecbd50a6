package domain

import "context"

// SubmissionRepository persists accepted draft submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *Submission) error
	ListRecent(ctx context.Context, limit int) ([]Submission, error)
}
