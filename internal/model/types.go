package model

import (
	"time"
)

// MediaKind classifies an input file before normalisation.
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindAnimated MediaKind = "animated"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
	KindUnknown  MediaKind = "unknown"
)

// DetectKind maps a file extension (with leading dot, lowercase) to a MediaKind.
func DetectKind(ext string) MediaKind {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tiff", ".tif":
		return KindImage
	case ".gif":
		return KindAnimated
	case ".mp4", ".mov", ".avi", ".webm":
		return KindVideo
	case ".md", ".markdown", ".html", ".htm":
		return KindDocument
	default:
		return KindUnknown
	}
}

// MediaItem is one input file read into memory. Immutable once built.
type MediaItem struct {
	Path      string
	Data      []byte
	Kind      MediaKind
	SizeBytes int64
}

// ProcessedAsset is the output of normalisation. Owned by the pipeline call
// that created it; never shared across concurrent operations.
type ProcessedAsset struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Duration    time.Duration
}

// AnalysisRecord is AI-generated metadata for an asset, keyed by content
// identity in the analysis cache. Read-only after creation.
type AnalysisRecord struct {
	Description string   `json:"description"`
	AltText     string   `json:"alt_text"`
	Tags        []string `json:"tags,omitempty"`
}

// UploadResult is the outcome of one completed media item. Immutable.
type UploadResult struct {
	URL       string          `json:"url"`
	Key       string          `json:"key"`
	Identity  string          `json:"hash"`
	Filename  string          `json:"filename"`
	SizeBytes int64           `json:"size_bytes"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Analysis  *AnalysisRecord `json:"analysis,omitempty"`
	Duplicate bool            `json:"duplicate"`
}

// OutputFormat controls how upload results are rendered to the caller.
type OutputFormat string

const (
	FormatPlain    OutputFormat = "plain"
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

// ProcessingOptions carries the per-invocation knobs of the pipeline.
type ProcessingOptions struct {
	Quality             int
	FullResolution      bool
	Analyze             bool
	Category            string
	Output              OutputFormat
	DryRun              bool
	Concurrency         int
	MaxAnimatedDuration time.Duration
}

// DefaultOptions mirrors the defaults of the CLI flags.
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		Quality:             75,
		Category:            "photos",
		Output:              FormatPlain,
		Concurrency:         4,
		MaxAnimatedDuration: 10 * time.Second,
	}
}

// ItemState tracks one media item through the orchestrator.
type ItemState string

const (
	StatePending        ItemState = "pending"
	StateNormalizing    ItemState = "normalizing"
	StateIdentified     ItemState = "identified"
	StateDuplicateFound ItemState = "duplicate_found"
	StateAnalyzing      ItemState = "analyzing"
	StateUploading      ItemState = "uploading"
	StateCompleted      ItemState = "completed"
	StateFailed         ItemState = "failed"
)
