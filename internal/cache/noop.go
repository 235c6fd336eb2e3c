package cache

import (
	"context"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

// Noop satisfies port.AnalysisCache while remembering nothing. Used when
// analysis is disabled for a run.
type Noop struct{}

var _ port.AnalysisCache = (*Noop)(nil)

func NewNoop() *Noop { return &Noop{} }

func (Noop) Get(ctx context.Context, id address.Identity) (*model.AnalysisRecord, error) {
	return nil, nil
}

func (Noop) Put(ctx context.Context, id address.Identity, rec *model.AnalysisRecord) error {
	return nil
}

func (Noop) Close() error { return nil }
