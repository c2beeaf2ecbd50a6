package domain

import "time"

// Submission records one accepted draft-generation request.
type Submission struct {
	ID         string
	Email      string
	Project    string
	Company    string
	Tier       Tier
	ImageCount int
	VideoCount int
	Country    string
	CreatedAt  time.Time
}
