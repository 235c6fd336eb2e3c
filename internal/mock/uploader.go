package mock

import (
	"context"

	"github.com/autumnsgrove/cdnup/internal/model"
)

// BatchUploader implements the batch uploader interface for tests.
type BatchUploader struct {
	Results  []model.UploadResult
	Errs     []error
	FatalErr error

	Called    bool
	SeenItems []model.MediaItem
	SeenOpts  model.ProcessingOptions
}

func (m *BatchUploader) UploadBatch(ctx context.Context, items []model.MediaItem, opts model.ProcessingOptions) ([]model.UploadResult, []error, error) {
	m.Called = true
	m.SeenItems = items
	m.SeenOpts = opts
	results := m.Results
	if results == nil {
		results = make([]model.UploadResult, len(items))
	}
	errs := m.Errs
	if errs == nil {
		errs = make([]error, len(items))
	}
	return results, errs, m.FatalErr
}
