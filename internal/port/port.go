package port

import (
	"context"
	"time"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/model"
)

// ObjectInfo describes one stored object returned by a prefix listing.
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// Storage is the object-store collaborator. Implementations map backend
// error codes onto the model sentinel errors.
type Storage interface {
	// SaveFile writes data under key with the given content type, cache
	// control header and optional object metadata.
	SaveFile(ctx context.Context, key string, data []byte, contentType, cacheControl string, metadata map[string]string) error
	// GetFile reads an object back in full.
	GetFile(ctx context.Context, key string) ([]byte, error)
	// StatFile returns size information for an object.
	StatFile(ctx context.Context, key string) (ObjectInfo, error)
	// ListByPrefix returns every object whose key starts with prefix.
	ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// RemoveFile deletes a single object.
	RemoveFile(ctx context.Context, key string) error
	// RemoveFiles deletes many objects, returning how many were removed
	// and how many failed.
	RemoveFiles(ctx context.Context, keys []string) (removed, failed int)
	// VerifyBucket checks the configured bucket exists and is reachable.
	VerifyBucket(ctx context.Context) error
}

// Normalizer turns raw input bytes into an encoded, web-ready asset.
type Normalizer interface {
	Normalize(ctx context.Context, item model.MediaItem, opts model.ProcessingOptions) (*model.ProcessedAsset, error)
}

// Analyzer produces AI metadata for processed payloads. SupportsBatch is a
// capability flag: the orchestrator dispatches on it and never on provider
// identity.
type Analyzer interface {
	Analyze(ctx context.Context, payload []byte) (*model.AnalysisRecord, error)
	AnalyzeBatch(ctx context.Context, payloads [][]byte) ([]*model.AnalysisRecord, error)
	SupportsBatch() bool
}

// AnalysisCache stores analysis records keyed by content identity. Get
// returns (nil, nil) on a miss. Implementations must be safe for concurrent
// readers with serialized writes; Close flushes any pending state.
type AnalysisCache interface {
	Get(ctx context.Context, id address.Identity) (*model.AnalysisRecord, error)
	Put(ctx context.Context, id address.Identity, rec *model.AnalysisRecord) error
	Close() error
}

// BatchUploader runs the concurrent media pipeline over a set of items.
// Results are ordered to match the input; errs is parallel to it, nil on
// success. Only a fatal error (auth, quota) is returned as err.
type BatchUploader interface {
	UploadBatch(ctx context.Context, items []model.MediaItem, opts model.ProcessingOptions) (results []model.UploadResult, errs []error, err error)
}

// RewriteStats counts what happened to each reference of a rewritten document.
type RewriteStats struct {
	Uploaded int
	Skipped  int
	External int
	Failed   int
}

// DocumentRewriter extracts local media references from a document, uploads
// them and emits a rewritten sibling document.
type DocumentRewriter interface {
	RewriteDocument(ctx context.Context, docPath string, opts model.ProcessingOptions) (outPath string, stats RewriteStats, err error)
}
