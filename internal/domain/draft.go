package domain

import "strings"

// MediaType classifies an uploaded asset.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Tier is the coarse report-quality classifier carried in the payload.
type Tier string

const (
	TierRaw      Tier = "raw"
	TierPolished Tier = "polished"
)

// MediaItem represents one uploaded asset from the intake form.
type MediaItem struct {
	Type     MediaType `json:"type"`
	URL      string    `json:"url"`
	Thumb    string    `json:"thumb"`
	Filename string    `json:"filename,omitempty"`
	MIME     string    `json:"mime,omitempty"`
	Size     int64     `json:"size,omitempty"`
}

// Contact identifies the requester of a draft.
type Contact struct {
	Email   string `json:"email"`
	Project string `json:"project"`
	Company string `json:"company,omitempty"`
}

// DraftRequest is the root payload for one draft-generation request. It is
// immutable for the duration of the request.
type DraftRequest struct {
	Contact    Contact     `json:"contact"`
	Notes      string      `json:"notes,omitempty"`
	BrandColor string      `json:"brandColor,omitempty"`
	LogoURL    string      `json:"logoUrl,omitempty"`
	Files      []MediaItem `json:"files"`
	Tier       Tier        `json:"tier,omitempty"`
}

// Validate checks the required fields of the payload. It returns a
// human-readable message suitable for a 400 response body.
func (r *DraftRequest) Validate() error {
	if r == nil {
		return &ValidationError{Message: "payload is required"}
	}
	if strings.TrimSpace(r.Contact.Email) == "" {
		return &ValidationError{Field: "contact.email", Message: "contact email is required"}
	}
	if strings.TrimSpace(r.Contact.Project) == "" {
		return &ValidationError{Field: "contact.project", Message: "project name is required"}
	}
	if len(r.Files) == 0 {
		return &ValidationError{Field: "files", Message: "at least one media file is required"}
	}
	switch r.Tier {
	case "", TierRaw, TierPolished:
	default:
		return &ValidationError{Field: "tier", Message: "tier must be raw or polished"}
	}
	return nil
}

// ReferencedImage is an image augmented with its stable IMG-NNN reference.
// Refs are assigned once per request and never change afterwards.
type ReferencedImage struct {
	MediaItem
	Ref string
}

// Finding is an auto-generated placeholder row seeded from a sampled image.
// A human reviewer fills in the caption and severity later.
type Finding struct {
	Ref      string
	Caption  string
	Severity string
}

// AppendixPage is one fixed-capacity group of referenced images laid out
// together in the appendix section.
type AppendixPage struct {
	Number int
	Images []ReferencedImage
}
