package report

import (
	"fmt"
	"sort"
	"strings"

	"skyreport/internal/domain"
)

// Product constants for the assembly pipeline. They are not business rules
// carved in stone; override them through Options when needed.
const (
	DefaultMaxImages        = 200
	DefaultMaxVideos        = 3
	DefaultFindingStride    = 6
	DefaultMaxFindings      = 32
	DefaultAppendixPageSize = 12
)

// Options tunes the caps and sampling policy of the pipeline.
type Options struct {
	MaxImages        int
	MaxVideos        int
	FindingStride    int
	MaxFindings      int
	AppendixPageSize int
}

// DefaultOptions returns the production caps.
func DefaultOptions() Options {
	return Options{
		MaxImages:        DefaultMaxImages,
		MaxVideos:        DefaultMaxVideos,
		FindingStride:    DefaultFindingStride,
		MaxFindings:      DefaultMaxFindings,
		AppendixPageSize: DefaultAppendixPageSize,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxImages <= 0 {
		o.MaxImages = d.MaxImages
	}
	if o.MaxVideos <= 0 {
		o.MaxVideos = d.MaxVideos
	}
	if o.FindingStride <= 0 {
		o.FindingStride = d.FindingStride
	}
	if o.MaxFindings <= 0 {
		o.MaxFindings = d.MaxFindings
	}
	if o.AppendixPageSize <= 0 {
		o.AppendixPageSize = d.AppendixPageSize
	}
	return o
}

// SplitMedia partitions the raw files into images and videos, drops items
// without a usable url or thumb, sorts each partition by filename
// (case-insensitive, url tiebreak) and truncates at the configured caps.
// Items beyond a cap are dropped silently. The ordering is deterministic:
// reference numbers and page numbers derive from sort position.
func SplitMedia(files []domain.MediaItem, opts Options) (images, videos []domain.MediaItem, err error) {
	opts = opts.normalized()

	for _, f := range files {
		if strings.TrimSpace(f.URL) == "" || strings.TrimSpace(f.Thumb) == "" {
			continue
		}
		switch f.Type {
		case domain.MediaImage:
			images = append(images, f)
		case domain.MediaVideo:
			videos = append(videos, f)
		}
	}

	sortMedia(images)
	sortMedia(videos)

	if len(images) > opts.MaxImages {
		images = images[:opts.MaxImages]
	}
	if len(videos) > opts.MaxVideos {
		videos = videos[:opts.MaxVideos]
	}

	if len(images)+len(videos) == 0 {
		return nil, nil, domain.ErrNoMedia
	}
	return images, videos, nil
}

func sortMedia(items []domain.MediaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a := strings.ToLower(items[i].Filename)
		b := strings.ToLower(items[j].Filename)
		if a != b {
			return a < b
		}
		return items[i].URL < items[j].URL
	})
}

// AssignRefs labels each sorted image with its IMG-NNN reference, 1-based
// over the sorted sequence. The ref is a pure function of sort position.
func AssignRefs(images []domain.MediaItem) []domain.ReferencedImage {
	refs := make([]domain.ReferencedImage, 0, len(images))
	for i, img := range images {
		refs = append(refs, domain.ReferencedImage{
			MediaItem: img,
			Ref:       fmt.Sprintf("IMG-%03d", i+1),
		})
	}
	return refs
}

// SampleFindings emits one placeholder finding per sampled image: every
// item at an index that is a multiple of the stride, capped. The sampling
// is data-independent; it only seeds rows for a human reviewer.
func SampleFindings(refs []domain.ReferencedImage, opts Options) []domain.Finding {
	opts = opts.normalized()
	var findings []domain.Finding
	for i := 0; i < len(refs) && len(findings) < opts.MaxFindings; i += opts.FindingStride {
		findings = append(findings, domain.Finding{
			Ref:      refs[i].Ref,
			Caption:  "",
			Severity: "—",
		})
	}
	return findings
}

// Paginate splits the referenced images into consecutive appendix pages of
// at most AppendixPageSize items, preserving order. The last page may be
// shorter; empty input yields no pages.
func Paginate(refs []domain.ReferencedImage, opts Options) []domain.AppendixPage {
	opts = opts.normalized()
	var pages []domain.AppendixPage
	for start := 0; start < len(refs); start += opts.AppendixPageSize {
		end := start + opts.AppendixPageSize
		if end > len(refs) {
			end = len(refs)
		}
		pages = append(pages, domain.AppendixPage{
			Number: len(pages) + 1,
			Images: refs[start:end],
		})
	}
	return pages
}
