package mock

import (
	"context"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/model"
)

// AnalysisCache implements the analysis cache interface for tests.
type AnalysisCache struct {
	mu sync.Mutex

	Records map[address.Identity]*model.AnalysisRecord

	GetErr   error
	PutErr   error
	CloseErr error

	GetCalled   bool
	PutCalled   bool
	CloseCalled bool
}

func (m *AnalysisCache) Get(ctx context.Context, id address.Identity) (*model.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Records[id], nil
}

func (m *AnalysisCache) Put(ctx context.Context, id address.Identity, rec *model.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalled = true
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.Records == nil {
		m.Records = map[address.Identity]*model.AnalysisRecord{}
	}
	m.Records[id] = rec
	return nil
}

func (m *AnalysisCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return m.CloseErr
}
