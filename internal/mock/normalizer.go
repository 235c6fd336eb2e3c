package mock

import (
	"context"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/model"
)

// Normalizer implements the normalizer interface for tests. NormalizeFn, when
// set, overrides the canned output so different items can yield different
// assets.
type Normalizer struct {
	mu sync.Mutex

	Out *model.ProcessedAsset
	Err error

	NormalizeFn func(item model.MediaItem) (*model.ProcessedAsset, error)

	Called     bool
	SeenPaths  []string
	CallsCount int
}

func (m *Normalizer) Normalize(ctx context.Context, item model.MediaItem, opts model.ProcessingOptions) (*model.ProcessedAsset, error) {
	m.mu.Lock()
	m.Called = true
	m.CallsCount++
	m.SeenPaths = append(m.SeenPaths, item.Path)
	fn := m.NormalizeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(item)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Out != nil {
		return m.Out, nil
	}
	// default: pass the bytes through as a webp asset
	return &model.ProcessedAsset{
		Data:        item.Data,
		ContentType: "image/webp",
		Width:       100,
		Height:      100,
	}, nil
}
